package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var countJobsInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "count_jobs_in_queue",
	Help: "Number of jobs in queue",
})

var dispatcherSignalCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "dispatcher_signal_count",
	Help: "How often the dispatcher has signaled to start worker",
})

var activeWorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_worker_count",
	Help: "Number of active workers",
})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

// WriteHeader records the status before passing it on.
func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func IncrementJobsInQueue() {
	countJobsInQueue.Inc()
}

func DecrementJobsInQueue() {
	countJobsInQueue.Dec()
}

func StartDispatcherSignalCount() {
	dispatcherSignalCount.Inc()
}

func IncrementActiveWorkerCount() {
	activeWorkerCount.Inc()
}
func DecrementActiveWorkerCount() {
	activeWorkerCount.Dec()
}

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "process_request_duration_seconds",
	Help:    "Time spent executing an ingestion job, by final status.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30},
}, []string{"status"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
}, []string{"service"})

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	//dependencyLatency.WithLabelValues(label).Observe(time.Since(timeElapsed).Seconds())
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureJobMetrics(label string, timeElapsed time.Duration) {
	requestDuration.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

var generationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "llm_generation_failures_total",
	Help: "Generation calls that ended in a soft error, by provider and error kind",
}, []string{"provider", "kind"})

var providerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "llm_provider_latency_seconds",
	Help:    "Latency of generation calls per provider.",
	Buckets: []float64{.25, .5, 1, 2, 5, 10, 30, 60, 120, 300},
}, []string{"provider"})

var chatTurns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chat_turns_total",
	Help: "Chat turns by outcome",
}, []string{"outcome"})

var ingestedFiles = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ingested_files_total",
	Help: "Files seen by ingestion, by result",
}, []string{"result"})

var ingestedChunks = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ingested_chunks_total",
	Help: "Chunks written to the vector index",
})

func CaptureProviderLatency(provider string, timeElapsed time.Duration) {
	providerLatency.WithLabelValues(provider).Observe(timeElapsed.Seconds())
}

func IncrementGenerationFailure(provider, kind string) {
	generationFailures.WithLabelValues(provider, kind).Inc()
}

func IncrementChatTurn(outcome string) {
	chatTurns.WithLabelValues(outcome).Inc()
}

func IncrementIngestedFile(result string) {
	ingestedFiles.WithLabelValues(result).Inc()
}

func AddIngestedChunks(n int) {
	ingestedChunks.Add(float64(n))
}
