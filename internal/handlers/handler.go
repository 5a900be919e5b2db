package handlers

import (
	"sync"

	"github.com/akolanti/vellum/internal/domain/chatModel"
	"github.com/akolanti/vellum/internal/job"
	"github.com/akolanti/vellum/internal/rag"
	"github.com/akolanti/vellum/internal/rag/ingest/objectSource"
	"github.com/akolanti/vellum/internal/registry"
	"github.com/akolanti/vellum/pkg/logger_i"
)

// Dependencies are the services the HTTP handlers call into.
type Dependencies struct {
	Rag           rag.Service
	Jobs          *job.Service
	Conversations chatModel.ConversationStore
	Registry      registry.Registry
	Files         objectSource.Source
	Bucket        string
	// CitationMaxChars > 0 truncates citation text in responses.
	CitationMaxChars int
	UploadDir        string
}

var (
	handlerInstance *Dependencies
	mu              sync.RWMutex
	logRH           = logger_i.NewLogger("RequestHandler")
)

func InitHandlers(deps Dependencies) {
	mu.Lock()
	defer mu.Unlock()
	handlerInstance = &deps
	logRH.Info("Handlers initialised")
}

func instance() *Dependencies {
	mu.RLock()
	defer mu.RUnlock()
	return handlerInstance
}
