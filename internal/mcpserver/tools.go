package mcpserver

import (
	"context"
	"fmt"

	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/domain/chatModel"
	"github.com/akolanti/vellum/internal/rag"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type SearchInput struct {
	Query string `json:"query" jsonschema:"text to find passages for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum passages, one per source document (default 5)"`
}

type SearchOutput struct {
	Results []PassageOutput `json:"results"`
	Count   int             `json:"count"`
}

type PassageOutput struct {
	Source string   `json:"source"`
	Page   int      `json:"page"`
	Text   string   `json:"text"`
	Score  *float64 `json:"score,omitempty"`
}

type ChatInput struct {
	Message   string `json:"message" jsonschema:"the user message"`
	SessionId string `json:"session_id,omitempty" jsonschema:"continue an existing conversation"`
	ModelId   string `json:"model_id,omitempty" jsonschema:"registered model id, the active model when empty"`
}

type ChatOutput struct {
	Response  string          `json:"response"`
	SessionId string          `json:"session_id"`
	Citations []PassageOutput `json:"citations"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Search the indexed documents and return the most relevant passage per source",
	}, s.handleSearch)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "chat",
		Description: "Answer a question from the indexed documents and keep the conversation history",
	}, s.handleChat)
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	if input.Query == "" {
		return nil, SearchOutput{}, fmt.Errorf("query is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = config.DefaultContextWindow
	}
	citations, err := s.rag.Search(ctx, input.Query, limit)
	if err != nil {
		s.logger.Error("search_documents failed", "error", err)
		return nil, SearchOutput{}, err
	}
	out := toPassages(citations)
	return nil, SearchOutput{Results: out, Count: len(out)}, nil
}

func (s *Server) handleChat(ctx context.Context, _ *mcp.CallToolRequest, input ChatInput) (*mcp.CallToolResult, ChatOutput, error) {
	if input.Message == "" {
		return nil, ChatOutput{}, fmt.Errorf("message is required")
	}
	result, err := s.rag.HandleTurn(ctx, rag.TurnRequest{
		Message:   input.Message,
		SessionId: input.SessionId,
		ModelId:   input.ModelId,
	})
	if err != nil {
		return nil, ChatOutput{}, err
	}
	return nil, ChatOutput{
		Response:  result.Response,
		SessionId: result.SessionId,
		Citations: toPassages(result.Citations),
	}, nil
}

func toPassages(citations []chatModel.Citation) []PassageOutput {
	out := make([]PassageOutput, 0, len(citations))
	for _, c := range citations {
		out = append(out, PassageOutput{Source: c.Source, Page: c.Page, Text: c.Text, Score: c.RelevanceScore})
	}
	return out
}
