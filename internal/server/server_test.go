package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akolanti/vellum/internal/config"
	"github.com/stretchr/testify/assert"
)

// the router is a process-wide singleton, so routes are mounted once
func TestRoutes(t *testing.T) {
	prevToken, prevBypass := config.AuthToken, config.NoAuthBypass
	config.AuthToken, config.NoAuthBypass = "secret", false
	t.Cleanup(func() { config.AuthToken, config.NoAuthBypass = prevToken, prevBypass })

	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
	})
	h := Routes(mcp)

	tests := []struct {
		name     string
		method   string
		path     string
		auth     string
		wantCode int
	}{
		{"health is public", http.MethodGet, "/health", "", http.StatusOK},
		{"welcome is public", http.MethodGet, "/", "", http.StatusOK},
		{"chat needs a token", http.MethodPost, "/api/v1/chat", "", http.StatusUnauthorized},
		{"history needs a token", http.MethodGet, "/api/v1/history", "Bearer wrong", http.StatusUnauthorized},
		{"mcp needs a token", http.MethodPost, "/mcp", "", http.StatusUnauthorized},
		{"mcp with token", http.MethodPost, "/mcp", "Bearer secret", http.StatusAccepted},
		{"unknown route", http.MethodGet, "/api/v1/nope", "Bearer secret", http.StatusNotFound},
		{"wrong method", http.MethodGet, "/api/v1/chat", "Bearer secret", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
		})
	}
}
