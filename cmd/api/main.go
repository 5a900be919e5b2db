// @title           Vellum API
// @version         1.0
// @description     Retrieval-augmented chat with document ingestion and model administration.
// @termsOfService  http://swagger.io/terms/

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/vellum/internal/bootstrap"
	"github.com/akolanti/vellum/internal/config"
	jobmodel "github.com/akolanti/vellum/internal/domain/jobModel"
	"github.com/akolanti/vellum/internal/handlers"
	"github.com/akolanti/vellum/internal/job"
	"github.com/akolanti/vellum/internal/mcpserver"
	"github.com/akolanti/vellum/internal/rag"
	"github.com/akolanti/vellum/internal/rag/ingest"
	"github.com/akolanti/vellum/internal/server"
	"github.com/akolanti/vellum/internal/worker"
	"github.com/akolanti/vellum/pkg/logger_i"
)

var (
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {
	settings := config.Load()
	config.ReloadSecrets()

	logger_i.Init(settings.IsProd)
	var logger = logger_i.NewLogger("main")

	flag.StringVar(&listenAddr, "listen-addr", settings.ListenAddr, "server listen address")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	conversations, jobStore, err := bootstrap.Stores(serviceContext, settings)
	if err != nil {
		logger.Error("Conversation store failed to initialize", "store", settings.ConversationStore, "error", err)
		return
	}

	service := job.InitJobService(job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		JobStore:          jobStore,
	})
	logger.Info("Starting job service")

	vectorIndex, indexErr := bootstrap.Index(serviceContext, settings)
	embedder, embeddingModel, embedErr := bootstrap.Embedder(serviceContext, settings)
	registry, registryErr := bootstrap.Registry(settings)

	if indexErr != nil || embedErr != nil || registryErr != nil {
		logger.Error("One or more external services failed to initialize. Shutting down.",
			"vectorDB", indexErr, "embedding", embedErr, "registry", registryErr)
		return
	}
	logger.Info("Model registry loaded", "models", len(registry.List()))

	source := bootstrap.Source(settings)
	pipeline := ingest.NewPipeline(source, embedder, vectorIndex, embeddingModel)
	retriever := rag.NewRetriever(embedder, vectorIndex, settings.MMRRelevance, settings.ContextWindow)
	gateway := bootstrap.Gateway(registry, settings)

	ragService := rag.NewService(retriever, gateway, conversations, pipeline, rag.Options{
		HistoryWindow: settings.HistoryWindow,
		JobUpdates:    service.SaveProgress,
	})

	handlers.InitHandlers(handlers.Dependencies{
		Rag:              ragService,
		Jobs:             service,
		Conversations:    conversations,
		Registry:         registry,
		Files:            source,
		Bucket:           settings.MinioBucket,
		CitationMaxChars: settings.CitationMaxChars,
	})

	//init worker pool
	worker.InitServices(service, ragService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr, mcpserver.New(ragService).Handler())

	<-stopExecution
	logger.Info("Server stopped")
}
