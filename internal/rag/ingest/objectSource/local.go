package objectSource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/akolanti/vellum/internal/domain/errs"
)

// LocalSource maps buckets onto sub-directories of Root.
type LocalSource struct {
	Root string
}

func NewLocal(root string) *LocalSource {
	return &LocalSource{Root: root}
}

func (l *LocalSource) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	base, err := l.bucketDir(bucket)
	if err != nil {
		return nil, err
	}
	var out []ObjectInfo
	err = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, objectInfo(key, info))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortByKey(out)
	return out, nil
}

func (l *LocalSource) Open(_ context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	path, err := l.objectPath(bucket, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, ObjectInfo{}, notFound(bucket, key, err)
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		_ = f.Close()
		return nil, ObjectInfo{}, fmt.Errorf("object %s/%s: %w", bucket, key, errs.ErrNotFound)
	}
	return f, objectInfo(key, info), nil
}

func (l *LocalSource) Download(ctx context.Context, bucket, key, path string) error {
	rc, _, err := l.Open(ctx, bucket, key)
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func (l *LocalSource) bucketDir(bucket string) (string, error) {
	dir := filepath.Join(l.Root, filepath.Clean("/"+bucket))
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("bucket %s: %w", bucket, errs.ErrNotFound)
	}
	return dir, nil
}

// objectPath refuses keys that would escape the bucket directory.
func (l *LocalSource) objectPath(bucket, key string) (string, error) {
	dir, err := l.bucketDir(bucket)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.Clean("/"+key)), nil
}

func objectInfo(key string, info fs.FileInfo) ObjectInfo {
	return ObjectInfo{
		Key:          key,
		Size:         info.Size(),
		ContentType:  mime.TypeByExtension(filepath.Ext(key)),
		LastModified: info.ModTime(),
	}
}

func notFound(bucket, key string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("object %s/%s: %w", bucket, key, errs.ErrNotFound)
	}
	return err
}
