package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/vellum/internal/handlers"
	"github.com/akolanti/vellum/internal/metrics"
	"github.com/akolanti/vellum/pkg/logger_i"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

var GetHandler = Public(handlers.GetHandler)
var HealthHandler = Public(handlers.HealthHandler)

var ChatHandler = Wrap(handlers.ChatHandler)
var HistoryListHandler = Wrap(handlers.HistoryListHandler)
var HistorySessionHandler = Wrap(handlers.HistorySessionHandler)
var GetStatusHandler = Wrap(handlers.GetStatusHandler)
var PostIngestHandler = Wrap(handlers.PostIngestHandler)
var PostAdminIngestHandler = Wrap(handlers.PostAdminIngestHandler)
var ListModelsHandler = Wrap(handlers.ListModelsHandler)
var CreateModelHandler = Wrap(handlers.CreateModelHandler)
var UpdateModelHandler = Wrap(handlers.UpdateModelHandler)
var FileHandler = Wrap(handlers.FileHandler)

// Wrap runs trace injection, bearer auth and the per-IP rate limiter
// before next.
func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return chain(next, injectTrace, authenticate, rateLimiter)
}

// Public only injects the trace id and records metrics.
func Public(next http.HandlerFunc) http.HandlerFunc {
	return chain(next, injectTrace)
}

// WrapHandler protects a plain http.Handler such as the MCP endpoint.
func WrapHandler(next http.Handler) http.Handler {
	return Wrap(next.ServeHTTP)
}

func chain(next http.HandlerFunc, steps ...func(requestResponseStruct) requestResponseStruct) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		re := requestResponseStruct{req: r, writer: rec, logger: logger_i.NewLogger("middleware")}
		re.logger.Debug("New request received", "path", r.URL.Path)

		for _, step := range steps {
			re = step(re)
			if re.badRequest.isBadRequest {
				handleBadRequest(re)
				metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc()
				return
			}
		}
		next(rec, re.req)

		metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc()
	}
}
