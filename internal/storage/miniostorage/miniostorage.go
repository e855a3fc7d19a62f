// Package miniostorage provides an object-storage sink for batch results
package miniostorage

import (
	"context"
	"errors"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/zlog"
)

// Config holds connection settings of the MinIO sink.
type Config struct {
	Addr     string
	User     string
	Password string
	Bucket   string
	Prefix   string
	Secure   bool
}

type MinioImageStorage struct {
	bucket string
	prefix string
	client *minio.Client
}

func NewMinioClient(ctx context.Context, cfg Config) (*MinioImageStorage, error) {
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = "default"
		zlog.Logger.Warn().Str("bucket", bucket).Msg("Bucket name is empty. Using default value")
	}

	// подключаемся к минио - создаем клиента
	strg, err := minio.New(cfg.Addr, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.User, cfg.Password, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, err
	}

	// создаем бакет если его нет
	if err := ensureBucket(ctx, strg, bucket); err != nil {
		return nil, err
	}

	return &MinioImageStorage{bucket: bucket, prefix: cfg.Prefix, client: strg}, nil
}

// EnsureDir is a no-op: object keys need no parent folders.
func (s *MinioImageStorage) EnsureDir(context.Context, string) error {
	return nil
}

func (s *MinioImageStorage) Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error {
	if r == nil {
		return errors.New("nil reader passed to storage.Put")
	}

	if _, err := s.client.PutObject(ctx, s.bucket, ObjectKey(s.prefix, key), r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return err
	}

	return nil
}

// ObjectKey joins prefix and a slash-separated key.
func ObjectKey(prefix, key string) string {
	return path.Join(prefix, path.Clean("/" + key)[1:])
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	return client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}
