package objectSource

import (
	"context"
	"io"
	"sort"
	"time"
)

type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Source is a read-only view of a bucketed document store. Missing objects
// are reported with errs.ErrNotFound.
type Source interface {
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
	Download(ctx context.Context, bucket, key, path string) error
}

// sortByKey gives ingestion a stable order so max_docs limits are repeatable.
func sortByKey(objects []ObjectInfo) {
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
}
