package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/gfdmit/web-forum/feed-service/internal/model"
)

const postColumns = "id, title, content, image_url, creator_id, created_at, updated_at"

func (pr *postgresRepository) CreatePost(ctx context.Context, post *model.Post) error {
	post.ID = uuid.New().String()
	return pr.db.QueryRowContext(ctx,
		"INSERT INTO feed.posts (id, title, content, image_url, creator_id) VALUES($1, $2, $3, $4, $5) RETURNING created_at, updated_at",
		post.ID, post.Title, post.Content, post.ImageURL, post.Creator).Scan(&post.CreatedAt, &post.UpdatedAt)
}

func (pr *postgresRepository) GetPost(ctx context.Context, id string) (*model.Post, error) {
	post := &model.Post{}
	err := pr.db.QueryRowContext(ctx, "SELECT "+postColumns+" FROM feed.posts WHERE id = $1", id).Scan(
		&post.ID, &post.Title, &post.Content, &post.ImageURL, &post.Creator, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return post, nil
}

func (pr *postgresRepository) SavePost(ctx context.Context, post *model.Post) error {
	err := pr.db.QueryRowContext(ctx,
		"UPDATE feed.posts SET title = $1, content = $2, image_url = $3, updated_at = NOW() WHERE id = $4 RETURNING "+postColumns,
		post.Title, post.Content, post.ImageURL, post.ID).Scan(
		&post.ID, &post.Title, &post.Content, &post.ImageURL, &post.Creator, &post.CreatedAt, &post.UpdatedAt)
	return notFound(err)
}

func (pr *postgresRepository) DeletePost(ctx context.Context, id string) error {
	stmt, err := pr.db.PrepareContext(ctx, "DELETE FROM feed.posts WHERE id = $1")
	if err != nil {
		return err
	}
	defer stmt.Close()

	res, err := stmt.ExecContext(ctx, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (pr *postgresRepository) CountPosts(ctx context.Context) (int64, error) {
	var count int64
	err := pr.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feed.posts").Scan(&count)
	return count, err
}

func (pr *postgresRepository) GetPosts(ctx context.Context, limit int, offset int) ([]model.Post, error) {
	posts := []model.Post{}
	rows, err := pr.db.QueryContext(ctx,
		"SELECT "+postColumns+" FROM feed.posts ORDER BY created_at, id LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		post := model.Post{}
		err = rows.Scan(
			&post.ID, &post.Title, &post.Content, &post.ImageURL, &post.Creator, &post.CreatedAt, &post.UpdatedAt)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}
