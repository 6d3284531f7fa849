// Package memory is an in-process store used for tests and local runs without a database.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gfdmit/web-forum/feed-service/internal/model"
	"github.com/gfdmit/web-forum/feed-service/internal/repository"
)

type memoryRepository struct {
	mu sync.RWMutex

	accounts map[string]model.Account
	emails   map[string]string

	posts map[string]model.Post
	order []string

	now func() time.Time
}

func New() *memoryRepository {
	return &memoryRepository{
		accounts: make(map[string]model.Account),
		emails:   make(map[string]string),
		posts:    make(map[string]model.Post),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (mr *memoryRepository) CreateAccount(ctx context.Context, email, name, passwordHash string) (*model.Account, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	if _, ok := mr.emails[email]; ok {
		return nil, fmt.Errorf("email %q: %w", email, repository.ErrDuplicate)
	}
	account := model.Account{
		ID:       uuid.New().String(),
		Email:    email,
		Name:     name,
		Password: passwordHash,
		Posts:    []string{},
	}
	mr.accounts[account.ID] = account
	mr.emails[email] = account.ID

	return copyAccount(account), nil
}

func (mr *memoryRepository) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	mr.mu.RLock()
	defer mr.mu.RUnlock()

	account, ok := mr.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyAccount(account), nil
}

func (mr *memoryRepository) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	mr.mu.RLock()
	defer mr.mu.RUnlock()

	id, ok := mr.emails[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyAccount(mr.accounts[id]), nil
}

func (mr *memoryRepository) SaveAccount(ctx context.Context, account *model.Account) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	old, ok := mr.accounts[account.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if owner, taken := mr.emails[account.Email]; taken && owner != account.ID {
		return fmt.Errorf("email %q: %w", account.Email, repository.ErrDuplicate)
	}
	delete(mr.emails, old.Email)
	mr.emails[account.Email] = account.ID
	mr.accounts[account.ID] = *copyAccount(*account)
	return nil
}

func (mr *memoryRepository) AddAccountPost(ctx context.Context, accountID, postID string) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	account, ok := mr.accounts[accountID]
	if !ok {
		return repository.ErrNotFound
	}
	updated := copyAccount(account)
	updated.AddPost(postID)
	mr.accounts[accountID] = *updated
	return nil
}

func (mr *memoryRepository) RemoveAccountPost(ctx context.Context, accountID, postID string) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	account, ok := mr.accounts[accountID]
	if !ok {
		return repository.ErrNotFound
	}
	updated := copyAccount(account)
	updated.RemovePost(postID)
	mr.accounts[accountID] = *updated
	return nil
}

func (mr *memoryRepository) CreatePost(ctx context.Context, post *model.Post) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	now := mr.now()
	post.ID = uuid.New().String()
	post.CreatedAt = now
	post.UpdatedAt = now

	mr.posts[post.ID] = *post
	mr.order = append(mr.order, post.ID)
	return nil
}

func (mr *memoryRepository) GetPost(ctx context.Context, id string) (*model.Post, error) {
	mr.mu.RLock()
	defer mr.mu.RUnlock()

	post, ok := mr.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &post, nil
}

func (mr *memoryRepository) SavePost(ctx context.Context, post *model.Post) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	stored, ok := mr.posts[post.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Title = post.Title
	stored.Content = post.Content
	stored.ImageURL = post.ImageURL
	stored.UpdatedAt = mr.now()

	mr.posts[post.ID] = stored
	*post = stored
	return nil
}

func (mr *memoryRepository) DeletePost(ctx context.Context, id string) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	if _, ok := mr.posts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(mr.posts, id)
	for i, postID := range mr.order {
		if postID == id {
			mr.order = append(mr.order[:i], mr.order[i+1:]...)
			break
		}
	}
	return nil
}

func (mr *memoryRepository) CountPosts(ctx context.Context) (int64, error) {
	mr.mu.RLock()
	defer mr.mu.RUnlock()

	return int64(len(mr.order)), nil
}

func (mr *memoryRepository) GetPosts(ctx context.Context, limit int, offset int) ([]model.Post, error) {
	mr.mu.RLock()
	defer mr.mu.RUnlock()

	posts := []model.Post{}
	if offset < 0 || offset >= len(mr.order) || limit <= 0 {
		return posts, nil
	}
	end := offset + limit
	if end > len(mr.order) {
		end = len(mr.order)
	}
	for _, id := range mr.order[offset:end] {
		posts = append(posts, mr.posts[id])
	}
	return posts, nil
}

func (mr *memoryRepository) Close() error {
	return nil
}

func copyAccount(a model.Account) *model.Account {
	a.Posts = append([]string{}, a.Posts...)
	return &a
}
