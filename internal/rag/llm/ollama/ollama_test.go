package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akolanti/vellum/internal/domain/chatModel"
	"github.com/akolanti/vellum/internal/domain/modelConfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(chatResponse{Model: got.Model, Done: true, Message: chatMessage{Role: "assistant", Content: "mistral answer"}})
	}))
	defer srv.Close()

	cfg := modelConfig.ModelConfig{Id: "mistral", Provider: modelConfig.ProviderOllama, BaseURL: srv.URL + "/"}
	text, err := New(time.Second).Generate(context.Background(), cfg, []chatModel.Message{
		chatModel.SystemMessage("ctx"),
		chatModel.UserMessage("hi"),
	})
	require.NoError(t, err)
	assert.Equal(t, "mistral answer", text)
	assert.Equal(t, "mistral", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestGenerateSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'nope' not found"}`))
	}))
	defer srv.Close()

	_, err := New(time.Second).Generate(context.Background(),
		modelConfig.ModelConfig{Id: "nope", Provider: modelConfig.ProviderOllama, BaseURL: srv.URL}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGenerateTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := New(50*time.Millisecond).Generate(context.Background(),
		modelConfig.ModelConfig{Id: "slow", Provider: modelConfig.ProviderOllama, BaseURL: srv.URL}, nil)
	assert.Error(t, err)
}

func TestBaseURLPrecedence(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "")
	assert.Equal(t, "http://localhost:11434", BaseURL(modelConfig.ModelConfig{}))
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434")
	assert.Equal(t, "http://ollama:11434", BaseURL(modelConfig.ModelConfig{}))
	assert.Equal(t, "http://cfg:1", BaseURL(modelConfig.ModelConfig{BaseURL: "http://cfg:1"}))
}
