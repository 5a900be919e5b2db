package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/akolanti/vellum/internal/adapter/utils"
	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/middleware"
	"github.com/akolanti/vellum/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

var (
	server  *http.Server
	_logger *logger_i.Logger
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    context.CancelFunc
}

func CreateServer(listenAddr string, mcpHandler http.Handler) {
	_logger = logger_i.NewLogger("Server")

	server = &http.Server{
		Addr:         listenAddr,
		Handler:      Routes(mcpHandler),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("Server is listening at", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error", err.Error(), "addr", listenAddr)
	}
}

// Routes mounts every endpoint on the shared router.
func Routes(mcpHandler http.Handler) http.Handler {
	r := utils.GetRouter()

	r.Router.Get("/", middleware.GetHandler)
	r.Router.Get("/health", middleware.HealthHandler)

	r.Router.Route(config.APIV1Prefix, func(v1 chi.Router) {
		v1.Post("/chat", middleware.ChatHandler)
		v1.Get("/history", middleware.HistoryListHandler)
		v1.Get("/history/{session_id}", middleware.HistorySessionHandler)

		v1.Get("/admin/models", middleware.ListModelsHandler)
		v1.Post("/admin/models", middleware.CreateModelHandler)
		v1.Put("/admin/models/{id}", middleware.UpdateModelHandler)
		v1.Post("/admin/ingest", middleware.PostAdminIngestHandler)

		v1.Post("/ingest", middleware.PostIngestHandler)
		v1.Get("/status/{id}", middleware.GetStatusHandler)
		v1.Get("/files/{filename}", middleware.FileHandler)
	})

	if mcpHandler != nil {
		r.Router.Handle("/mcp", middleware.WrapHandler(mcpHandler))
	}
	return r.Router
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	println("\nServer is shutting down", state)

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		server.SetKeepAlivesEnabled(false)

		if err := server.Shutdown(ctx); err != nil {
			_logger.Error("Could not shutdown gracefully", "error", err)
		}

		//close workers
		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		shutdownParams.CloseServices()
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Gracefully is shutting down")
	case <-ctx.Done():
		_logger.Info("Force Shut down")
		os.Exit(1)
	}
}
