package adapter_test

import (
	"testing"

	"github.com/akolanti/vellum/internal/adapter"
	"github.com/akolanti/vellum/internal/api"
	"github.com/akolanti/vellum/internal/domain/chatModel"
	"github.com/akolanti/vellum/internal/rag"
	"github.com/stretchr/testify/assert"
)

func TestToTurnRequestCarriesEveryField(t *testing.T) {
	got := adapter.ToTurnRequest(api.ChatRequest{
		Message:       "what is agentic ai?",
		ModelId:       "gpt-4o",
		SessionId:     "s-1",
		UserId:        "u-42",
		ContextWindow: 3,
	})

	assert.Equal(t, rag.TurnRequest{
		Message:       "what is agentic ai?",
		ModelId:       "gpt-4o",
		SessionId:     "s-1",
		UserId:        "u-42",
		ContextWindow: 3,
	}, got)
}

func TestToCitationsTruncation(t *testing.T) {
	citations := []chatModel.Citation{{Source: "a.pdf", Page: 2, Text: "agentic systems plan"}}

	tests := []struct {
		name     string
		maxChars int
		want     string
	}{
		{"zero keeps full text", 0, "agentic systems plan"},
		{"longer limit keeps full text", 100, "agentic systems plan"},
		{"short limit truncates", 7, "agentic..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.ToCitations(citations, tt.maxChars)
			assert.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Text)
			assert.Equal(t, "a.pdf", got[0].Source)
		})
	}
}
