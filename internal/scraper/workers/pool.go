package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/logging"
	"aerofinder-utils/internal/logging/types"
	"aerofinder-utils/pkg/models"
	"aerofinder-utils/pkg/utils"
)

// SearchFunc runs one site search and returns its flight data
type SearchFunc func(ctx context.Context) (*models.FlightData, error)

// JobResult represents the result of one site search job
type JobResult struct {
	JobID    string
	SiteKey  string
	Data     *models.FlightData
	Error    error
	Duration time.Duration
}

// SearchJob represents a site search to be processed by workers
type SearchJob struct {
	ID         string
	SiteKey    string
	URL        string
	Run        SearchFunc
	ResultChan chan JobResult
	Context    context.Context
	CreatedAt  time.Time
}

// Worker represents a single worker goroutine
type Worker struct {
	ID       int
	JobChan  chan SearchJob
	QuitChan chan bool
	Pool     *WorkerPool
	logger   types.Logger
}

// WorkerPool manages multiple worker goroutines and the job queue
type WorkerPool struct {
	config      *config.Config
	workers     []*Worker
	jobQueue    chan SearchJob
	dispatcher  *Dispatcher
	rateLimiter *RateLimiter
	logger      types.Logger
	mu          sync.RWMutex
	running     bool
	statsMu     sync.Mutex
	stats       PoolStats
}

// PoolStats tracks worker pool counters
type PoolStats struct {
	JobsQueued            int64         `json:"jobs_queued"`
	JobsProcessed         int64         `json:"jobs_processed"`
	JobsSuccessful        int64         `json:"jobs_successful"`
	JobsFailed            int64         `json:"jobs_failed"`
	TotalProcessingTime   time.Duration `json:"total_processing_time"`
	AverageProcessingTime time.Duration `json:"average_processing_time"`
}

// NewWorkerPool creates a new worker pool instance
func NewWorkerPool(cfg *config.Config) *WorkerPool {
	logger := logging.GetGlobalLogger()

	pool := &WorkerPool{
		config:      cfg,
		jobQueue:    make(chan SearchJob, cfg.Workers.QueueSize),
		rateLimiter: NewRateLimiter(cfg),
		logger:      logger.WithField("component", "worker_pool"),
	}

	poolSize := cfg.Workers.PoolSize
	if poolSize < 1 {
		poolSize = 1
	}
	pool.workers = make([]*Worker, poolSize)
	for i := 0; i < poolSize; i++ {
		pool.workers[i] = &Worker{
			ID:       i + 1,
			JobChan:  make(chan SearchJob),
			QuitChan: make(chan bool),
			Pool:     pool,
			logger:   logger.WithField("worker_id", i+1),
		}
	}

	pool.dispatcher = NewDispatcher(pool.jobQueue, pool.workers)

	pool.logger.Info("Worker pool initialized", map[string]interface{}{
		"pool_size": poolSize,
	})
	return pool
}

// Start starts the worker pool
func (wp *WorkerPool) Start() error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.running {
		return fmt.Errorf("worker pool is already running")
	}

	wp.dispatcher.Start()
	for _, worker := range wp.workers {
		go worker.Start()
	}

	wp.running = true
	wp.logger.Info("Worker pool started", map[string]interface{}{
		"workers": len(wp.workers),
	})
	return nil
}

// Stop stops the worker pool gracefully
func (wp *WorkerPool) Stop() error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if !wp.running {
		return nil
	}

	wp.dispatcher.Stop()
	for _, worker := range wp.workers {
		worker.Stop()
	}

	wp.running = false
	wp.logger.Info("Worker pool stopped")
	return nil
}

// SubmitSearch queues one site search and blocks until its result arrives
// or the task budget runs out. Submissions for a rate-limited or broken
// domain fail immediately instead of queueing.
func (wp *WorkerPool) SubmitSearch(ctx context.Context, siteKey, siteURL string, run SearchFunc) (*JobResult, error) {
	if !wp.IsRunning() {
		return nil, fmt.Errorf("worker pool is not running")
	}

	domain := extractDomainFromURL(siteURL)
	if !wp.rateLimiter.Allow(domain) {
		return nil, fmt.Errorf("rate limit exceeded for domain: %s", domain)
	}

	job := SearchJob{
		ID:         utils.GenerateRequestID(),
		SiteKey:    siteKey,
		URL:        siteURL,
		Run:        run,
		ResultChan: make(chan JobResult, 1),
		Context:    ctx,
		CreatedAt:  time.Now(),
	}

	wp.statsMu.Lock()
	wp.stats.JobsQueued++
	wp.statsMu.Unlock()

	select {
	case wp.jobQueue <- job:
		wp.logger.Debug("Job submitted to queue", map[string]interface{}{
			"job_id": job.ID,
			"site":   siteKey,
		})
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("job queue is full, request timed out")
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case result := <-job.ResultChan:
		return &result, nil
	case <-time.After(wp.config.Workers.Timeout):
		return nil, utils.NewTimeoutError(fmt.Sprintf("site task timed out after %v", wp.config.Workers.Timeout))
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IsRunning returns true if the worker pool is running
func (wp *WorkerPool) IsRunning() bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	return wp.running
}

// GetStats returns a snapshot of the pool counters
func (wp *WorkerPool) GetStats() PoolStats {
	wp.statsMu.Lock()
	defer wp.statsMu.Unlock()

	stats := wp.stats
	if stats.JobsProcessed > 0 {
		stats.AverageProcessingTime = stats.TotalProcessingTime / time.Duration(stats.JobsProcessed)
	}
	return stats
}

// Start runs the worker loop: announce idle, take a job, process it
func (w *Worker) Start() {
	w.logger.Debug("Worker started")

	for {
		w.Pool.dispatcher.Register(w.JobChan)
		select {
		case job := <-w.JobChan:
			w.processJob(job)
		case <-w.QuitChan:
			w.logger.Debug("Worker stopping")
			return
		}
	}
}

// Stop stops the worker
func (w *Worker) Stop() {
	w.QuitChan <- true
}

// processJob runs a single site search job and reports its result
func (w *Worker) processJob(job SearchJob) {
	startTime := time.Now()

	w.logger.Debug("Processing job", map[string]interface{}{
		"job_id": job.ID,
		"site":   job.SiteKey,
	})

	w.Pool.statsMu.Lock()
	w.Pool.stats.JobsProcessed++
	w.Pool.statsMu.Unlock()

	result := w.runJob(job)
	result.Duration = time.Since(startTime)

	w.Pool.statsMu.Lock()
	w.Pool.stats.TotalProcessingTime += result.Duration
	if result.Error != nil {
		w.Pool.stats.JobsFailed++
	} else {
		w.Pool.stats.JobsSuccessful++
	}
	w.Pool.statsMu.Unlock()

	select {
	case job.ResultChan <- result:
		w.logger.Info("Job completed", map[string]interface{}{
			"job_id":          job.ID,
			"site":            job.SiteKey,
			"processing_time": result.Duration.String(),
			"success":         result.Error == nil,
		})
	case <-time.After(100 * time.Millisecond):
		w.logger.Debug("Result channel timeout, submitter may have given up", map[string]interface{}{
			"job_id": job.ID,
			"site":   job.SiteKey,
		})
	}
}

// runJob executes the search closure. A panicking site task is converted
// into that job's error instead of taking the worker down.
func (w *Worker) runJob(job SearchJob) (result JobResult) {
	result = JobResult{JobID: job.ID, SiteKey: job.SiteKey}
	domain := extractDomainFromURL(job.URL)

	defer func() {
		if r := recover(); r != nil {
			result.Error = utils.NewTaskError(fmt.Sprintf("panic in site task: %v", r))
			w.Pool.rateLimiter.RecordFailure(domain, result.Error)
			w.logger.Error("Site task panicked", map[string]interface{}{
				"job_id": job.ID,
				"site":   job.SiteKey,
				"panic":  fmt.Sprintf("%v", r),
			})
		}
	}()

	data, err := job.Run(job.Context)
	if err != nil {
		result.Error = err
		w.Pool.rateLimiter.RecordFailure(domain, err)
		return result
	}

	result.Data = data
	w.Pool.rateLimiter.RecordSuccess(domain)
	return result
}
