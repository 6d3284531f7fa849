package service

import (
	"context"
	"errors"

	"github.com/gfdmit/web-forum/feed-service/internal/apperr"
	"github.com/gfdmit/web-forum/feed-service/internal/auth"
	"github.com/gfdmit/web-forum/feed-service/internal/repository"
	"github.com/gfdmit/web-forum/feed-service/internal/validation"
)

const (
	MsgEmailTaken       = "E-Mail address already exists!"
	MsgUnknownEmail     = "A user with this email could not be found."
	MsgWrongPassword    = "Wrong password!"
	MsgNotAuthenticated = "Not authenticated."
)

// Signup creates an account and returns its id.
func (svc *Service) Signup(ctx context.Context, in validation.Signup) (string, error) {
	_, err := svc.repo.GetAccountByEmail(ctx, in.Email())
	switch {
	case err == nil:
		return "", apperr.Conflict(MsgEmailTaken)
	case !errors.Is(err, repository.ErrNotFound):
		return "", apperr.Internal("lookup account", err)
	}

	hashed, err := svc.creds.Hash(in.Password())
	if err != nil {
		return "", apperr.Internal("hash password", err)
	}

	account, err := svc.repo.CreateAccount(ctx, in.Email(), in.Name(), hashed)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", apperr.Conflict(MsgEmailTaken)
		}
		return "", apperr.Internal("create account", err)
	}
	return account.ID, nil
}

// Signin checks the credentials and returns a fresh token with the account id.
func (svc *Service) Signin(ctx context.Context, email, password string) (string, string, error) {
	account, err := svc.repo.GetAccountByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", "", apperr.Unauthenticated(MsgUnknownEmail)
		}
		return "", "", apperr.Internal("lookup account", err)
	}

	if !svc.creds.Verify(password, account.Password) {
		return "", "", apperr.Unauthenticated(MsgWrongPassword)
	}

	token, err := svc.creds.IssueToken(account.ID, account.Email)
	if err != nil {
		return "", "", apperr.Internal("issue token", err)
	}
	return token, account.ID, nil
}

// Authenticate resolves a bearer token to the caller's identity.
func (svc *Service) Authenticate(token string) (*auth.Claims, error) {
	claims, err := svc.creds.VerifyToken(token)
	if err != nil {
		return nil, apperr.Unauthenticated(MsgNotAuthenticated)
	}
	return claims, nil
}
