package minio

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/gfdmit/web-forum/feed-service/config"
	"github.com/gfdmit/web-forum/feed-service/internal/storage"
)

// minioStorage keeps images as objects whose key is the image reference.
type minioStorage struct {
	cli    *minio.Client
	bucket string
	dir    string
}

func New(conf config.MinIO, media config.Media) (*minioStorage, error) {
	client, err := minio.New(fmt.Sprintf("%s:%s", conf.Host, conf.Port), &minio.Options{
		Creds:  credentials.NewStaticV4(conf.User, conf.Pass, ""),
		Secure: conf.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio.New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, conf.Bucket)
	if err != nil {
		return nil, fmt.Errorf("client.BucketExists: %v", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, conf.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("client.MakeBucket: %v", err)
		}
		log.Println("[STORAGE] created bucket", conf.Bucket)
	}

	return &minioStorage{
		cli:    client,
		bucket: conf.Bucket,
		dir:    media.Dir,
	}, nil
}

func (ms *minioStorage) Save(ctx context.Context, originalName, contentType string, r io.Reader, size int64) (string, error) {
	ref := storage.NewRef(ms.dir, originalName)

	_, err := ms.cli.PutObject(ctx, ms.bucket, ref, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("client.PutObject: %w", err)
	}
	return ref, nil
}

func (ms *minioStorage) Delete(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	cleaned, err := storage.CleanRef(ref)
	if err != nil {
		return err
	}

	// RemoveObject succeeds for absent keys, so check first to report not-found like the disk store.
	if _, err := ms.cli.StatObject(ctx, ms.bucket, cleaned, minio.StatObjectOptions{}); err != nil {
		return ms.translate(err)
	}
	if err := ms.cli.RemoveObject(ctx, ms.bucket, cleaned, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("client.RemoveObject: %w", err)
	}
	return nil
}

func (ms *minioStorage) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	cleaned, err := storage.CleanRef(ref)
	if err != nil {
		return nil, err
	}
	if _, err := ms.cli.StatObject(ctx, ms.bucket, cleaned, minio.StatObjectOptions{}); err != nil {
		return nil, ms.translate(err)
	}
	obj, err := ms.cli.GetObject(ctx, ms.bucket, cleaned, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("client.GetObject: %w", err)
	}
	return obj, nil
}

func (ms *minioStorage) translate(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %v", storage.ErrNotFound, err)
	}
	return fmt.Errorf("client.StatObject: %w", err)
}
