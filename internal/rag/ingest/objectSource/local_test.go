package objectSource

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/akolanti/vellum/internal/domain/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBucket(t *testing.T) *LocalSource {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"documents/b.txt":        "bee",
		"documents/a.txt":        "ay",
		"documents/papers/c.pdf": "%PDF",
		"other/ignored.txt":      "x",
	}
	for name, body := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return NewLocal(root)
}

func TestLocalListIsSortedAndFiltered(t *testing.T) {
	src := seedBucket(t)

	all, err := src.List(context.Background(), "documents", "")
	require.NoError(t, err)
	keys := make([]string, len(all))
	for i, o := range all {
		keys[i] = o.Key
	}
	assert.Equal(t, []string{"a.txt", "b.txt", "papers/c.pdf"}, keys)

	papers, err := src.List(context.Background(), "documents", "papers/")
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, "papers/c.pdf", papers[0].Key)
}

func TestLocalMissingBucketAndKey(t *testing.T) {
	src := seedBucket(t)
	_, err := src.List(context.Background(), "nope", "")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, _, err = src.Open(context.Background(), "documents", "missing.pdf")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestLocalOpenAndDownload(t *testing.T) {
	src := seedBucket(t)
	rc, info, err := src.Open(context.Background(), "documents", "a.txt")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "ay", string(body))
	assert.Equal(t, int64(2), info.Size)

	dst := filepath.Join(t.TempDir(), "copy.txt")
	require.NoError(t, src.Download(context.Background(), "documents", "b.txt", dst))
	got, _ := os.ReadFile(dst)
	assert.Equal(t, "bee", string(got))
}

func TestLocalKeyCannotEscapeBucket(t *testing.T) {
	src := seedBucket(t)
	_, _, err := src.Open(context.Background(), "documents", "../other/ignored.txt")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
