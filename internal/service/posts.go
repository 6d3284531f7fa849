package service

import (
	"context"
	"errors"
	"log"
	"math"

	"github.com/gfdmit/web-forum/feed-service/internal/apperr"
	"github.com/gfdmit/web-forum/feed-service/internal/model"
	"github.com/gfdmit/web-forum/feed-service/internal/repository"
	"github.com/gfdmit/web-forum/feed-service/internal/validation"
)

const (
	MsgPostNotFound  = "Could not find post."
	MsgNotAuthorized = "Not authorized!"
	MsgNoImage       = "No image provided."
)

// GetPosts returns one page of posts and the total post count. Page numbers start at 1;
// values below 1 fall back to the configured defaults.
func (svc *Service) GetPosts(ctx context.Context, page, perPage int) (*model.PostPage, error) {
	if page < 1 {
		page = svc.feed.DefaultPage
	}
	if perPage < 1 {
		perPage = svc.feed.DefaultPerPage
	}
	if perPage > svc.feed.MaxPerPage {
		perPage = svc.feed.MaxPerPage
	}

	count, err := svc.repo.CountPosts(ctx)
	if err != nil {
		return nil, apperr.Internal("count posts", err)
	}
	// pages whose offset does not fit in an int lie past the end of any store
	if page-1 > math.MaxInt/perPage {
		return &model.PostPage{Posts: []model.Post{}, PostsCount: count}, nil
	}
	posts, err := svc.repo.GetPosts(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, apperr.Internal("get posts", err)
	}
	return &model.PostPage{Posts: posts, PostsCount: count}, nil
}

func (svc *Service) GetPost(ctx context.Context, postID string) (*model.Post, error) {
	post, err := svc.repo.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(MsgPostNotFound)
		}
		return nil, apperr.Internal("get post", err)
	}
	return post, nil
}

// CreatePost stores a post owned by accountID and adds it to the account's post list.
// If the account step fails the post stays in place without an owner reference.
func (svc *Service) CreatePost(ctx context.Context, accountID string, in validation.Post, image *model.UploadedFile) (*model.Post, *model.CreatorSummary, error) {
	if image == nil || image.Ref == "" {
		return nil, nil, apperr.Validation(MsgNoImage, nil)
	}

	post := &model.Post{
		Title:    in.Title(),
		Content:  in.Content(),
		ImageURL: image.Ref,
		Creator:  accountID,
	}
	if err := svc.repo.CreatePost(ctx, post); err != nil {
		return nil, nil, apperr.Internal("create post", err)
	}

	if err := svc.repo.AddAccountPost(ctx, accountID, post.ID); err != nil {
		log.Printf("[FEED] post %s created but could not be attached to account %s: %v", post.ID, accountID, err)
		return nil, nil, apperr.Internal("attach post to creator", err)
	}
	account, err := svc.repo.GetAccount(ctx, accountID)
	if err != nil {
		log.Printf("[FEED] post %s created but account %s could not be loaded: %v", post.ID, accountID, err)
		return nil, nil, apperr.Internal("load creator", err)
	}

	return post, &model.CreatorSummary{ID: account.ID, Name: account.Name}, nil
}

// UpdatePost overwrites title and content and, when image is given, replaces the image.
// The old image is deleted before the record is saved; a failed delete aborts the update.
func (svc *Service) UpdatePost(ctx context.Context, accountID, postID string, in validation.Post, image *model.UploadedFile) (*model.Post, error) {
	post, err := svc.ownedPost(ctx, accountID, postID)
	if err != nil {
		return nil, err
	}

	if image != nil && image.Ref != "" {
		if err := svc.files.Delete(ctx, post.ImageURL); err != nil {
			return nil, apperr.Internal("delete previous image", err)
		}
		post.ImageURL = image.Ref
	}
	post.Title = in.Title()
	post.Content = in.Content()

	if err := svc.repo.SavePost(ctx, post); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(MsgPostNotFound)
		}
		return nil, apperr.Internal("save post", err)
	}
	return post, nil
}

// DeletePost removes the image, then the record, then the creator's reference to it.
func (svc *Service) DeletePost(ctx context.Context, accountID, postID string) error {
	post, err := svc.ownedPost(ctx, accountID, postID)
	if err != nil {
		return err
	}

	if err := svc.files.Delete(ctx, post.ImageURL); err != nil {
		return apperr.Internal("delete image", err)
	}
	if err := svc.repo.DeletePost(ctx, post.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound(MsgPostNotFound)
		}
		return apperr.Internal("delete post", err)
	}

	if err := svc.repo.RemoveAccountPost(ctx, post.Creator, post.ID); err != nil {
		log.Printf("[FEED] post %s deleted but could not be detached from account %s: %v", post.ID, post.Creator, err)
		return apperr.Internal("detach post from creator", err)
	}
	return nil
}

// ownedPost loads the post and checks that accountID created it. Existence is checked first
// so a missing post is always reported as not found.
func (svc *Service) ownedPost(ctx context.Context, accountID, postID string) (*model.Post, error) {
	post, err := svc.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.Creator != accountID {
		return nil, apperr.Forbidden(MsgNotAuthorized)
	}
	return post, nil
}
