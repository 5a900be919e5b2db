package config

import (
	"log/slog"
	"time"
)

const (
	IS_PROD                     = false
	LOG_LEVEL_PROD              = slog.LevelInfo
	TRACE_ID_KEY                = "traceId"
	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	ProjectName = "Vellum"
	APIV1Prefix = "/api/v1"

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute
	//IdleWorkerTimeout = 1 * time.Second //fo tests

	//ingestion jobs walk a whole bucket
	IngestJobTimeout = 2 * time.Hour

	//serverTimeouts
	ReadTimeout = 5 * time.Second
	//ollama cold starts can take minutes, the write timeout must outlive them
	WriteTimeout           = 330 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//vectorDB
	QdrantHost                    = "localhost"
	QdrantPort                    = 6333 //http
	QdrantGrpcPort                = 6334
	QdrantUseTLS                  = false            //set for https
	QdrantPoolSize                = 1                //2-5 is preferred for prod according to documentation
	QdrantKeepAliveTimeout        = 30 * time.Second //5 * time.Minute for prod maybe- fine tune for performance
	CollectionName                = "vellum"
	VectorSize             uint64 = 384 //bge-small-en-v1.5

	//retrieval
	DefaultContextWindow             = 5
	RetrievalOverFetchFactor         = 4
	MMRRelevance             float32 = 0.7
	MMRCandidateMultiplier           = 2
	HistoryWindow                    = 10 //5 user/assistant pairs
	CitationMaxChars                 = 0  //0 keeps the full chunk text

	//llm
	OpenAIDefaultBase     = "https://api.openai.com/v1"
	KubeflowDefaultBase   = "http://llm-service-predictor.kubeflow-user-example-com.svc.cluster.local:80/v1"
	KubeflowDummyKey      = "dummy"
	KubeflowMaxTokens     = 2048
	OllamaDefaultBase     = "http://localhost:11434"
	OllamaTimeout         = 300 * time.Second
	LLMRequestTimeout     = 120 * time.Second
	GoogleModelPrefix     = "models/"
	LLMErrorPrefix        = "Error communicating with LLM: "
	ModelTemperature      = 0.7
	DegradedChatResponse  = "I found some relevant documents, but I'm having trouble generating a response..."
	NoContextInstruction  = "no context found"
	ConversationTitleRune = 30

	//embeddings
	EmbeddingProviderOpenAI             = "openai"
	EmbeddingProviderGoogle             = "google"
	EmbeddingsServiceDefaultURL         = "http://embeddings-service.kubeflow-user-example-com/v1"
	EmbeddingModelName                  = "BAAI/bge-small-en-v1.5"
	EmbeddingServiceKey                 = "EMPTY"
	EmbeddingBatchSize                  = 30
	GoogleEmbeddingModel                = "gemini-embedding-001"
	EmbeddingOutputDimensionality int32 = 384
	EmbeddingRateLimitBackoff           = 5 * time.Second

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//ingestion
	DefaultBucket         = "documents"
	DefaultChunkSize      = 512
	DefaultChunkOverlap   = 40
	DefaultMaxDocs        = 1000
	DefaultEvalQuery      = "agentic ai"
	DefaultEvalTopK       = 3
	PDFPageExtractTimeout = 10 * time.Second
	MaxUploadSize         = 32 << 20 //32mb
	IngestUpsertBatch     = 100

	//minio
	MinioDefaultEndpoint  = "minio-service.kubeflow.svc:9000"
	MinioDefaultAccessKey = "minio"
	MinioDefaultSecretKey = "minio123"

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	//redis has 16 DB we can use
	RedisJobStore          = 0
	RedisConversationStore = 1

	//redis timeouts
	RedisJobStoreTTL          = 24 * time.Hour
	RedisConversationStoreTTL = 24 * time.Hour

	//conversation store backends
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	//vector store backends
	VectorStoreQdrant = "qdrant"
	VectorStoreMemory = "memory"

	//document sources
	SourceMinio = "minio"
	SourceLocal = "local"

	RecentConversationLimit = 10
)
