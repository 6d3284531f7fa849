package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/gfdmit/web-forum/feed-service/internal/model"
	"github.com/gfdmit/web-forum/feed-service/internal/repository"
)

func (pr *postgresRepository) CreateAccount(ctx context.Context, email, name, passwordHash string) (*model.Account, error) {
	account := &model.Account{
		ID:       uuid.New().String(),
		Email:    email,
		Name:     name,
		Password: passwordHash,
		Posts:    []string{},
	}
	_, err := pr.db.ExecContext(ctx,
		"INSERT INTO feed.accounts (id, email, name, password) VALUES($1, $2, $3, $4)",
		account.ID, account.Email, account.Name, account.Password)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("email %q: %w", email, repository.ErrDuplicate)
		}
		return nil, err
	}
	return account, nil
}

func (pr *postgresRepository) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	account := &model.Account{}
	err := pr.db.QueryRowContext(ctx,
		"SELECT id, email, name, password FROM feed.accounts WHERE id = $1", id).Scan(
		&account.ID, &account.Email, &account.Name, &account.Password)
	if err != nil {
		return nil, notFound(err)
	}
	return pr.withPosts(ctx, account)
}

func (pr *postgresRepository) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	account := &model.Account{}
	err := pr.db.QueryRowContext(ctx,
		"SELECT id, email, name, password FROM feed.accounts WHERE email = $1", email).Scan(
		&account.ID, &account.Email, &account.Name, &account.Password)
	if err != nil {
		return nil, notFound(err)
	}
	return pr.withPosts(ctx, account)
}

func (pr *postgresRepository) withPosts(ctx context.Context, account *model.Account) (*model.Account, error) {
	rows, err := pr.db.QueryContext(ctx,
		"SELECT post_id FROM feed.account_posts WHERE account_id = $1 ORDER BY post_id", account.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	account.Posts = []string{}
	for rows.Next() {
		var postID string
		if err := rows.Scan(&postID); err != nil {
			return nil, err
		}
		account.Posts = append(account.Posts, postID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return account, nil
}

// SaveAccount rewrites the account row and its post list in one transaction.
func (pr *postgresRepository) SaveAccount(ctx context.Context, account *model.Account) error {
	tx, err := pr.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE feed.accounts SET email = $1, name = $2, password = $3 WHERE id = $4",
		account.Email, account.Name, account.Password, account.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email %q: %w", account.Email, repository.ErrDuplicate)
		}
		return err
	}
	if err := expectOne(res); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM feed.account_posts WHERE account_id = $1", account.ID); err != nil {
		return err
	}
	for _, postID := range account.Posts {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO feed.account_posts (account_id, post_id) VALUES($1, $2) ON CONFLICT DO NOTHING",
			account.ID, postID)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (pr *postgresRepository) AddAccountPost(ctx context.Context, accountID, postID string) error {
	_, err := pr.db.ExecContext(ctx,
		"INSERT INTO feed.account_posts (account_id, post_id) VALUES($1, $2) ON CONFLICT DO NOTHING",
		accountID, postID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrNotFound
		}
		return err
	}
	return nil
}

func (pr *postgresRepository) RemoveAccountPost(ctx context.Context, accountID, postID string) error {
	res, err := pr.db.ExecContext(ctx,
		"DELETE FROM feed.account_posts WHERE account_id = $1 AND post_id = $2", accountID, postID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil || n > 0 {
		return err
	}

	// nothing removed: only an error if the account itself is missing
	var exists bool
	err = pr.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM feed.accounts WHERE id = $1)", accountID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
