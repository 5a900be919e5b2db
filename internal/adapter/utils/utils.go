package utils

import (
	"encoding/json"
	"net/http"
	"sync"

	_ "github.com/akolanti/vellum/cmd/api/docs"
	"github.com/akolanti/vellum/internal/api"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/http-swagger"
)

var once sync.Once
var router *chi.Mux

func GetNewUUID() string {
	return uuid.New().String()
}

type RouterClient struct {
	Router *chi.Mux
}

func GetChiURLParam(request *http.Request, key string) string {
	return chi.URLParam(request, key)
}

// GetRouter returns the process-wide router with panic recovery, swagger,
// /metrics and JSON bodies for unknown routes already mounted.
func GetRouter() RouterClient {
	once.Do(func() {
		router = chi.NewRouter()
		router.Use(chimiddleware.Recoverer)
		router.NotFound(jsonStatus(http.StatusNotFound, "route not found"))
		router.MethodNotAllowed(jsonStatus(http.StatusMethodNotAllowed, "method not allowed"))
		InitSwagger(router)
		//register prometheus
		router.Handle("/metrics", promhttp.Handler())
	})

	return RouterClient{Router: router}
}

func InitSwagger(r *chi.Mux) {
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)
}

func jsonStatus(code int, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{
			Code:    code,
			Message: message,
			TraceId: r.Header.Get("X-Trace-Id"),
		})
	}
}
