package objectSource

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/akolanti/vellum/internal/domain/errs"
	"github.com/akolanti/vellum/pkg/logger_i"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

type MinioSource struct {
	client *minio.Client
	logger *logger_i.Logger
}

func NewMinio(cfg MinioConfig) (*MinioSource, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client for %s: %w", cfg.Endpoint, err)
	}
	return &MinioSource{client: client, logger: logger_i.NewLogger("MinioSource")}, nil
}

func (m *MinioSource) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s: %w", bucket, errs.ErrNotFound)
	}

	var out []ObjectInfo
	for obj := range m.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s/%s: %w", bucket, prefix, obj.Err)
		}
		// folder markers
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		out = append(out, ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			ContentType:  obj.ContentType,
			LastModified: obj.LastModified,
		})
	}
	sortByKey(out)
	m.logger.Debug("Listed objects", "bucket", bucket, "prefix", prefix, "count", len(out))
	return out, nil
}

func (m *MinioSource) Open(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, translate(bucket, key, err)
	}
	// GetObject is lazy, Stat is what surfaces a missing key
	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, ObjectInfo{}, translate(bucket, key, err)
	}
	return obj, ObjectInfo{
		Key:          stat.Key,
		Size:         stat.Size,
		ContentType:  stat.ContentType,
		LastModified: stat.LastModified,
	}, nil
}

func (m *MinioSource) Download(ctx context.Context, bucket, key, path string) error {
	if err := m.client.FGetObject(ctx, bucket, key, path, minio.GetObjectOptions{}); err != nil {
		return translate(bucket, key, err)
	}
	return nil
}

func translate(bucket, key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("object %s/%s: %w", bucket, key, errs.ErrNotFound)
	}
	return fmt.Errorf("object %s/%s: %w", bucket, key, err)
}
