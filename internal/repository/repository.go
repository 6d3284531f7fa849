package repository

import (
	"context"
	"errors"

	"github.com/gfdmit/web-forum/feed-service/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type AccountRepository interface {
	CreateAccount(ctx context.Context, email, name, passwordHash string) (*model.Account, error)
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	// SaveAccount persists name, email and the post id list of an existing account.
	SaveAccount(ctx context.Context, account *model.Account) error
	// AddAccountPost and RemoveAccountPost change one entry of the post id list in place,
	// so concurrent calls for the same account never drop each other's entries.
	AddAccountPost(ctx context.Context, accountID, postID string) error
	RemoveAccountPost(ctx context.Context, accountID, postID string) error
}

type PostRepository interface {
	// CreatePost assigns ID and timestamps on post.
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id string) (*model.Post, error)
	// SavePost overwrites title, content and image of an existing post and bumps UpdatedAt.
	SavePost(ctx context.Context, post *model.Post) error
	DeletePost(ctx context.Context, id string) error
	CountPosts(ctx context.Context) (int64, error)
	GetPosts(ctx context.Context, limit int, offset int) ([]model.Post, error)
}

type Repository interface {
	AccountRepository
	PostRepository
	Close() error
}
