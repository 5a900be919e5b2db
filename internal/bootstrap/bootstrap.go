package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/data/store"
	"github.com/akolanti/vellum/internal/domain/chatModel"
	"github.com/akolanti/vellum/internal/domain/jobModel"
	"github.com/akolanti/vellum/internal/domain/modelConfig"
	"github.com/akolanti/vellum/internal/rag/embedding"
	"github.com/akolanti/vellum/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/vellum/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/vellum/internal/rag/ingest/objectSource"
	"github.com/akolanti/vellum/internal/rag/llm"
	"github.com/akolanti/vellum/internal/rag/llm/anthropic"
	"github.com/akolanti/vellum/internal/rag/llm/gemini"
	"github.com/akolanti/vellum/internal/rag/llm/ollama"
	"github.com/akolanti/vellum/internal/rag/llm/openaiLLM"
	"github.com/akolanti/vellum/internal/rag/vectorDB"
	"github.com/akolanti/vellum/internal/rag/vectorDB/memoryDB"
	"github.com/akolanti/vellum/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/vellum/internal/registry"
	"github.com/akolanti/vellum/pkg/logger_i"
)

var logger = logger_i.NewLogger("bootstrap")

// Stores picks the conversation and job stores. Redis being offline falls
// back to memory so a laptop without redis still serves chat.
func Stores(ctx context.Context, s config.Settings) (chatModel.ConversationStore, jobModel.JobStore, error) {
	var jobStore jobModel.JobStore = store.InitInMemoryJobStore()
	if redisJobs := store.GetRedisJobStore(ctx, s.RedisAddr); redisJobs != nil {
		jobStore = redisJobs
	} else {
		logger.Warn("Redis job store offline, using memory")
	}

	switch s.ConversationStore {
	case config.StorePostgres:
		pg, err := store.NewPostgresConversationStore(ctx, s.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		go func() {
			<-ctx.Done()
			pg.Close()
		}()
		return pg, jobStore, nil
	case config.StoreMemory:
		return store.NewInMemoryConversationStore(), jobStore, nil
	default:
		if convos := store.GetRedisConversationStore(ctx, s.RedisAddr); convos != nil {
			return convos, jobStore, nil
		}
		logger.Warn("Redis conversation store offline, using memory")
		return store.NewInMemoryConversationStore(), jobStore, nil
	}
}

func Index(ctx context.Context, s config.Settings) (vectorDB.Index, error) {
	if s.VectorStore == config.VectorStoreMemory {
		return memoryDB.New(), nil
	}
	holder := qdrantDB.GetQuadrantClient(ctx, qdrantDB.Config{
		Host:       s.QdrantHost,
		Port:       s.QdrantPort,
		APIKey:     s.QdrantAPIKey,
		UseTLS:     s.QdrantUseTLS,
		Collection: s.Collection,
		VectorSize: s.VectorSize,
	})
	if holder == nil {
		return nil, errors.New("qdrant client unavailable")
	}
	return holder, nil
}

// Embedder returns the embedder and the model name recorded on every chunk.
func Embedder(ctx context.Context, s config.Settings) (embedding.Embedder, string, error) {
	switch s.EmbeddingProvider {
	case config.EmbeddingProviderGoogle:
		e := googleEmbedding.GetGoogleEmbeddingClient(ctx, s.GoogleEmbeddingModel, s.GoogleAPIKey)
		if e == nil {
			return nil, "", errors.New("google embedding client unavailable")
		}
		return e, s.GoogleEmbeddingModel, nil
	case config.EmbeddingProviderOpenAI:
		return openaiEmbedding.GetOpenAIEmbeddingClient(openaiEmbedding.Config{
			BaseURL:   s.EmbeddingsServiceURL,
			Model:     s.EmbeddingModel,
			BatchSize: s.EmbeddingBatchSize,
		}), s.EmbeddingModel, nil
	default:
		return nil, "", fmt.Errorf("embedding provider %q is not supported", s.EmbeddingProvider)
	}
}

// Source is nil when MinIO cannot be reached; bucket ingestion and the file
// proxy then report the storage as unavailable.
func Source(s config.Settings) objectSource.Source {
	if s.DocumentSource == config.SourceLocal {
		return objectSource.NewLocal(s.LocalDocumentDir)
	}
	src, err := objectSource.NewMinio(objectSource.MinioConfig{
		Endpoint:  s.MinioEndpoint,
		AccessKey: s.MinioAccessKey,
		SecretKey: s.MinioSecretKey,
		UseSSL:    s.MinioUseSSL,
	})
	if err != nil {
		logger.Error("MinIO unavailable", "endpoint", s.MinioEndpoint, "error", err)
		return nil
	}
	return src
}

func Registry(s config.Settings) (*registry.MemoryRegistry, error) {
	seed, err := registry.LoadSeed(s.ModelRegistryFile)
	if err != nil {
		return nil, err
	}
	return registry.New(seed), nil
}

// Gateway wires one backend per provider.
func Gateway(reg registry.Registry, s config.Settings) *llm.Gateway {
	return llm.NewGateway(reg, map[modelConfig.Provider]llm.Backend{
		modelConfig.ProviderOpenAI:    openaiLLM.NewOpenAI(s.LLMRequestTimeout),
		modelConfig.ProviderKubeflow:  openaiLLM.NewKubeflow(s.LLMRequestTimeout),
		modelConfig.ProviderGoogle:    gemini.New(),
		modelConfig.ProviderOllama:    ollama.New(s.OllamaTimeout),
		modelConfig.ProviderAnthropic: anthropic.New(),
	})
}
