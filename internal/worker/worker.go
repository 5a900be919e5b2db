package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/job"
	"github.com/akolanti/vellum/internal/metrics"
	"github.com/akolanti/vellum/internal/rag"
	"github.com/akolanti/vellum/pkg/logger_i"
)

var (
	_jobService        *job.Service
	_ragService        rag.Service
	stopWorkerChannel  chan bool
	workerWaitGroup    *sync.WaitGroup
	dispatcherChannel  chan bool
	currentWorkerCount int64
	nextWorkerId       int64
	logger             = logger_i.NewLogger("WorkerPool")
	minWorkerCount     = config.MinWorkerCount
	idleWorkerTimeout  = config.IdleWorkerTimeout
)

// InitServices hands the pool the job queue and the service that runs
// ingestion. It must be called before InitWorkerPool.
func InitServices(jobService *job.Service, ragService rag.Service) {
	_jobService = jobService
	_ragService = ragService
	dispatcherChannel = jobService.DispatcherChannel
}

func InitWorkerPool(stopWorkerChan chan bool, waitGroup *sync.WaitGroup) {
	stopWorkerChannel = stopWorkerChan
	workerWaitGroup = waitGroup
	logger = logger_i.NewLogger("WorkerPool")
	logger.Info("Initializing worker pool", "min", minWorkerCount, "max", config.MaxWorkerCount)
	go dispatcher()
}

// dispatcher grows the pool by one worker per signal up to MaxWorkerCount.
func dispatcher() {
	createWorker()
	logger.Info("Dispatcher started")
	for range dispatcherChannel {
		if atomic.LoadInt64(&currentWorkerCount) >= config.MaxWorkerCount {
			continue
		}
		createWorker()
	}
}

func createWorker() {
	workerWaitGroup.Add(1)
	id := atomic.AddInt64(&nextWorkerId, 1)
	count := atomic.AddInt64(&currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()
	logger.Info("Created new worker", "workerId", id, "workerCount", count)
	go worker(id)
}

func worker(id int64) {
	idle := time.NewTimer(idleWorkerTimeout)
	defer idle.Stop()

	for {
		select {
		case currentJob := <-_jobService.JobChannel:
			executeJob(currentJob)
			metrics.DecrementJobsInQueue()
			idle.Reset(idleWorkerTimeout)

		case <-stopWorkerChannel:
			atomic.AddInt64(&currentWorkerCount, -1)
			removeWorker(id, "Stop worker signal received")
			return

		case <-idle.C:
			if retire() {
				removeWorker(id, "Idle worker timeout")
				return
			}
			idle.Reset(idleWorkerTimeout)
		}
	}
}

// retire claims one slot above the minimum so concurrent idle workers
// never shrink the pool below it.
func retire() bool {
	for {
		count := atomic.LoadInt64(&currentWorkerCount)
		if count <= atomic.LoadInt64(&minWorkerCount) {
			return false
		}
		if atomic.CompareAndSwapInt64(&currentWorkerCount, count, count-1) {
			return true
		}
	}
}
