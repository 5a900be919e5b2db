package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/akolanti/vellum/internal/domain/jobModel"
	"github.com/akolanti/vellum/internal/rag/ingest"
	"github.com/akolanti/vellum/internal/rag/ingest/objectSource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPipeline struct {
	params  jobModel.IngestParams
	report  jobModel.IngestReport
	objects []objectSource.ObjectInfo
	count   uint64
	err     error
	resets  int
}

func (m *mockPipeline) Run(_ context.Context, params jobModel.IngestParams, progress ingest.Progress) (jobModel.IngestReport, error) {
	m.params = params
	if progress != nil {
		progress(jobModel.IngestProcessing)
	}
	return m.report, m.err
}

func (m *mockPipeline) Documents(_ context.Context, _, _ string) ([]objectSource.ObjectInfo, error) {
	return m.objects, m.err
}

func (m *mockPipeline) Reset(_ context.Context) error {
	m.resets++
	return m.err
}

func (m *mockPipeline) Count(_ context.Context) (uint64, error) {
	return m.count, m.err
}

func execute(t *testing.T, mock *mockPipeline, args ...string) (string, error) {
	t.Helper()
	old := pipeline
	pipeline = mock
	t.Cleanup(func() { pipeline = old })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	mock := &mockPipeline{report: jobModel.IngestReport{
		FilesFound:     3,
		FilesProcessed: 2,
		FilesFailed:    1,
		Chunks:         41,
		Accuracy:       0.67,
		FailedFiles:    []string{"broken.pdf"},
	}}

	out, err := execute(t, mock, "run", "--bucket", "papers", "--prefix", "2024/",
		"--chunk-size", "256", "--overlap", "16", "--max-docs", "5", "--cleanup",
		"--eval-query", "transformers", "--top-k", "4")
	require.NoError(t, err)

	assert.Equal(t, jobModel.IngestParams{
		Bucket:       "papers",
		Prefix:       "2024/",
		ChunkSize:    256,
		ChunkOverlap: 16,
		MaxDocs:      5,
		Cleanup:      true,
		EvalQuery:    "transformers",
		EvalTopK:     4,
	}, mock.params)
	assert.Contains(t, out, "step: IngestProcessing")
	assert.Contains(t, out, "chunks written:  41")
	assert.Contains(t, out, "failed: broken.pdf")
}

func TestRunCommandFailure(t *testing.T) {
	mock := &mockPipeline{err: errors.New("index offline")}

	_, err := execute(t, mock, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index offline")
}

func TestListCommand(t *testing.T) {
	mock := &mockPipeline{objects: []objectSource.ObjectInfo{
		{Key: "a.pdf", Size: 10},
		{Key: "b.txt", Size: 20},
	}}

	out, err := execute(t, mock, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "a.pdf")
	assert.Contains(t, out, "2 document(s)")

	out, err = execute(t, &mockPipeline{}, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents found.")
}

func TestResetAndCount(t *testing.T) {
	mock := &mockPipeline{count: 1234}

	out, err := execute(t, mock, "reset")
	require.NoError(t, err)
	assert.Equal(t, 1, mock.resets)
	assert.Contains(t, out, "Collection reset.")

	out, err = execute(t, mock, "count")
	require.NoError(t, err)
	assert.Contains(t, out, "1234")
}

func TestCommandsRejectArgs(t *testing.T) {
	_, err := execute(t, &mockPipeline{}, "count", "extra")
	assert.Error(t, err)
}
