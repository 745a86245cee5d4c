package workers

import (
	"sync"

	"aerofinder-utils/internal/logging"
	"aerofinder-utils/internal/logging/types"
)

// Dispatcher hands queued jobs to idle workers. Workers announce
// themselves on the worker queue; dispatch pairs each job with the next
// idle worker.
type Dispatcher struct {
	jobQueue    chan SearchJob
	workers     []*Worker
	workerQueue chan chan SearchJob
	quit        chan bool
	logger      types.Logger
	mu          sync.RWMutex
	running     bool
}

// NewDispatcher creates a new job dispatcher
func NewDispatcher(jobQueue chan SearchJob, workers []*Worker) *Dispatcher {
	return &Dispatcher{
		jobQueue:    jobQueue,
		workers:     workers,
		workerQueue: make(chan chan SearchJob, len(workers)),
		quit:        make(chan bool),
		logger:      logging.GetGlobalLogger().WithField("component", "dispatcher"),
	}
}

// Register marks a worker's job channel as idle
func (d *Dispatcher) Register(jobChan chan SearchJob) {
	d.workerQueue <- jobChan
}

// Start starts the dispatcher
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return
	}

	go d.dispatch()

	d.running = true
	d.logger.Info("Job dispatcher started", map[string]interface{}{
		"workers": len(d.workers),
	})
}

// Stop stops the dispatcher
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return
	}

	d.quit <- true
	d.running = false
	d.logger.Info("Job dispatcher stopped")
}

// dispatch pairs queued jobs with idle workers
func (d *Dispatcher) dispatch() {
	for {
		select {
		case job := <-d.jobQueue:
			select {
			case jobChan := <-d.workerQueue:
				jobChan <- job
			case <-d.quit:
				return
			}
		case <-d.quit:
			return
		}
	}
}

// IsRunning returns true if dispatcher is running
func (d *Dispatcher) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}
