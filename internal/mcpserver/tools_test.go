package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/akolanti/vellum/internal/domain/chatModel"
	"github.com/akolanti/vellum/internal/domain/errs"
	"github.com/akolanti/vellum/internal/domain/jobModel"
	"github.com/akolanti/vellum/internal/rag"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRag struct {
	citations []chatModel.Citation
	searchErr error
	lastK     int
	lastTurn  rag.TurnRequest
	turnErr   error
}

func (m *mockRag) HandleTurn(_ context.Context, req rag.TurnRequest) (rag.TurnResult, error) {
	m.lastTurn = req
	if m.turnErr != nil {
		return rag.TurnResult{}, m.turnErr
	}
	return rag.TurnResult{Response: "answer", SessionId: "s-1", Citations: m.citations}, nil
}

func (m *mockRag) Search(_ context.Context, _ string, k int) ([]chatModel.Citation, error) {
	m.lastK = k
	return m.citations, m.searchErr
}

func (m *mockRag) IngestDocument(_ context.Context, j jobModel.Job) jobModel.Job { return j }

func TestHandleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("maps citations", func(t *testing.T) {
		m := &mockRag{citations: []chatModel.Citation{{Source: "a.pdf", Page: 4, Text: "agents"}}}
		s := New(m)
		_, out, err := s.handleSearch(ctx, nil, SearchInput{Query: "agents", Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 1, out.Count)
		assert.Equal(t, "a.pdf", out.Results[0].Source)
		assert.Equal(t, 4, out.Results[0].Page)
		assert.Equal(t, 2, m.lastK)
	})

	t.Run("default limit", func(t *testing.T) {
		m := &mockRag{}
		_, out, err := New(m).handleSearch(ctx, nil, SearchInput{Query: "agents"})
		require.NoError(t, err)
		assert.Equal(t, 5, m.lastK)
		assert.NotNil(t, out.Results)
	})

	t.Run("empty query", func(t *testing.T) {
		_, _, err := New(&mockRag{}).handleSearch(ctx, nil, SearchInput{})
		require.Error(t, err)
	})

	t.Run("search failure", func(t *testing.T) {
		_, _, err := New(&mockRag{searchErr: errors.New("qdrant down")}).handleSearch(ctx, nil, SearchInput{Query: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "qdrant down")
	})
}

func TestHandleChat(t *testing.T) {
	ctx := context.Background()
	m := &mockRag{}
	_, out, err := New(m).handleChat(ctx, nil, ChatInput{Message: "hi", SessionId: "s-1", ModelId: "mistral"})
	require.NoError(t, err)
	assert.Equal(t, "answer", out.Response)
	assert.Equal(t, rag.TurnRequest{Message: "hi", SessionId: "s-1", ModelId: "mistral"}, m.lastTurn)

	m.turnErr = fmt.Errorf("model id %q: %w", "x", errs.ErrConfigNotFound)
	_, _, err = New(m).handleChat(ctx, nil, ChatInput{Message: "hi", ModelId: "x"})
	assert.ErrorIs(t, err, errs.ErrConfigNotFound)
}

func TestToolsOverTransport(t *testing.T) {
	ctx := context.Background()
	m := &mockRag{citations: []chatModel.Citation{{Source: "b.pdf", Text: "plans"}}}
	s := New(m)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := s.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"search_documents", "chat"}, names)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "search_documents",
		Arguments: map[string]any{"query": "plans"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out SearchOutput
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, "b.pdf", out.Results[0].Source)
}
