package app

import (
	"context"
	"fmt"
	"log"

	"github.com/gfdmit/web-forum/feed-service/config"
	"github.com/gfdmit/web-forum/feed-service/internal/auth"
	v1 "github.com/gfdmit/web-forum/feed-service/internal/handlers/http/v1"
	"github.com/gfdmit/web-forum/feed-service/internal/httpserver"
	"github.com/gfdmit/web-forum/feed-service/internal/repository"
	"github.com/gfdmit/web-forum/feed-service/internal/repository/memory"
	"github.com/gfdmit/web-forum/feed-service/internal/repository/mongo"
	"github.com/gfdmit/web-forum/feed-service/internal/repository/postgres"
	"github.com/gfdmit/web-forum/feed-service/internal/service"
	"github.com/gfdmit/web-forum/feed-service/internal/storage"
	"github.com/gfdmit/web-forum/feed-service/internal/storage/local"
	"github.com/gfdmit/web-forum/feed-service/internal/storage/minio"
)

func Run(conf config.Config) error {
	ctx := context.Background()

	repo, err := newRepository(conf)
	if err != nil {
		return fmt.Errorf("error when setting up repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Println("[SHUTDOWN] error when closing repository:", err)
		}
	}()

	files, err := newFileStore(conf)
	if err != nil {
		return fmt.Errorf("error when setting up file store: %v", err)
	}

	service := service.New(repo, files, auth.New(conf.Auth), conf.Feed)

	handler, err := v1.New(service, conf)
	if err != nil {
		return fmt.Errorf("error when setting up handler: %v", err)
	}

	httpserver := httpserver.New(conf.HTTPServer, handler)

	return httpserver.Run(ctx)
}

func newRepository(conf config.Config) (repository.Repository, error) {
	switch conf.Store.Driver {
	case "postgres":
		return postgres.New(conf.Postgres)
	case "mongo":
		return mongo.New(conf.Mongo)
	case "memory":
		log.Println("[SETUP] using in-memory store, data is lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", conf.Store.Driver)
	}
}

func newFileStore(conf config.Config) (storage.FileStore, error) {
	switch conf.Media.Driver {
	case "local":
		return local.New(conf.Media)
	case "minio":
		return minio.New(conf.MinIO, conf.Media)
	default:
		return nil, fmt.Errorf("unknown media driver %q", conf.Media.Driver)
	}
}
