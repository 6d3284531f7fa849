package service

import (
	"github.com/gfdmit/web-forum/feed-service/config"
	"github.com/gfdmit/web-forum/feed-service/internal/auth"
	"github.com/gfdmit/web-forum/feed-service/internal/repository"
	"github.com/gfdmit/web-forum/feed-service/internal/storage"
)

// Service is the only component that touches more than one store in an operation.
type Service struct {
	repo  repository.Repository
	files storage.FileStore
	creds *auth.Credentials
	feed  config.Feed
}

func New(repo repository.Repository, files storage.FileStore, creds *auth.Credentials, feed config.Feed) *Service {
	if feed.DefaultPage < 1 {
		feed.DefaultPage = 1
	}
	if feed.DefaultPerPage < 1 {
		feed.DefaultPerPage = 2
	}
	if feed.MaxPerPage < feed.DefaultPerPage {
		feed.MaxPerPage = feed.DefaultPerPage
	}
	return &Service{repo: repo, files: files, creds: creds, feed: feed}
}

// Files exposes the image store so transports can serve and clean up uploads.
func (svc *Service) Files() storage.FileStore {
	return svc.files
}
