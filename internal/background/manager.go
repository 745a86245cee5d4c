package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"aerofinder-utils/internal/callback"
	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/logging"
	"aerofinder-utils/internal/logging/types"
	"aerofinder-utils/pkg/models"
)

const (
	DefaultMaxWorkers   = 10
	DefaultMaxQueueSize = 100

	MinWorkers   = 1
	MinQueueSize = 1

	MaxWorkers   = 1000
	MaxQueueSize = 10000
)

// SearchExecutor runs one flight search and shapes the aggregate response.
// The handler binds the orchestrator into it; tests stub it out.
type SearchExecutor func(ctx context.Context) (*models.SearchResponse, error)

// TaskManager defines the interface for managing background search tasks
type TaskManager interface {
	// Start starts the task manager
	Start(ctx context.Context) error

	// Stop stops the task manager gracefully
	Stop(ctx context.Context) error

	// SubmitSearchTask submits a search for background processing
	SubmitSearchTask(ctx context.Context, processID string, req *models.SearchRequest, execute SearchExecutor) error

	// GetTaskResult retrieves the result of a task by process ID
	GetTaskResult(ctx context.Context, processID string) (*TaskResult, error)

	// GetTaskStatus retrieves the status of a task by process ID
	GetTaskStatus(ctx context.Context, processID string) (TaskStatus, error)

	// ListTasks lists all known tasks (for monitoring)
	ListTasks(ctx context.Context) ([]*TaskResult, error)

	// IsHealthy checks if the task manager is healthy
	IsHealthy() bool
}

// TaskManagerImpl implements the TaskManager interface
type TaskManagerImpl struct {
	config       *config.Config
	store        TaskStore
	logger       *TaskCompletionLogger
	appLogger    types.Logger
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.RWMutex
	running      bool
	taskChan     chan *TaskExecution
	maxWorkers   int
	maxQueueSize int
}

// TaskExecution represents a queued task and its execution context
type TaskExecution struct {
	ProcessID   string
	Type        TaskType
	Context     context.Context
	Cancel      context.CancelFunc
	ExecuteFunc func(context.Context) (*TaskResult, error)
}

// validateTaskManagerConfig validates and returns safe configuration values
func validateTaskManagerConfig(cfg *config.Config) (maxWorkers, maxQueueSize int, err error) {
	maxWorkers = cfg.BackgroundTasks.MaxConcurrentTasks
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	} else if maxWorkers < MinWorkers {
		return 0, 0, fmt.Errorf("concurrent task limit (%d) is below minimum (%d)", maxWorkers, MinWorkers)
	} else if maxWorkers > MaxWorkers {
		return 0, 0, fmt.Errorf("concurrent task limit (%d) exceeds maximum (%d)", maxWorkers, MaxWorkers)
	}

	maxQueueSize = cfg.Workers.QueueSize
	if maxQueueSize <= 0 {
		maxQueueSize = DefaultMaxQueueSize
	} else if maxQueueSize < MinQueueSize {
		return 0, 0, fmt.Errorf("queue size (%d) is below minimum (%d)", maxQueueSize, MinQueueSize)
	} else if maxQueueSize > MaxQueueSize {
		return 0, 0, fmt.Errorf("queue size (%d) exceeds maximum (%d)", maxQueueSize, MaxQueueSize)
	}

	return maxWorkers, maxQueueSize, nil
}

// NewTaskManager creates a new task manager. The callback client may be
// nil when completion webhooks are not needed.
func NewTaskManager(cfg *config.Config, callbackClient *callback.Client) *TaskManagerImpl {
	logger := logging.GetGlobalLogger()

	maxWorkers, maxQueueSize, err := validateTaskManagerConfig(cfg)
	if err != nil {
		logger.Warn("Task manager configuration validation failed, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		maxWorkers = DefaultMaxWorkers
		maxQueueSize = DefaultMaxQueueSize
	}

	completionLogger := NewTaskCompletionLogger()
	if callbackClient != nil {
		completionLogger = NewTaskCompletionLoggerWithCallback(callbackClient)
	}

	return &TaskManagerImpl{
		config:       cfg,
		store:        NewInMemoryTaskStore(),
		logger:       completionLogger,
		appLogger:    logger,
		taskChan:     make(chan *TaskExecution, maxQueueSize),
		maxWorkers:   maxWorkers,
		maxQueueSize: maxQueueSize,
	}
}

// Start starts the task manager
func (tm *TaskManagerImpl) Start(ctx context.Context) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.running {
		return fmt.Errorf("task manager already running")
	}

	tm.ctx, tm.cancel = context.WithCancel(ctx)
	tm.running = true

	for i := 0; i < tm.maxWorkers; i++ {
		tm.wg.Add(1)
		go tm.worker(i)
	}

	tm.wg.Add(1)
	go tm.cleanupRoutine()

	tm.appLogger.Info("Task manager started", map[string]interface{}{
		"max_workers": tm.maxWorkers,
	})
	return nil
}

// Stop stops the task manager gracefully
func (tm *TaskManagerImpl) Stop(ctx context.Context) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if !tm.running {
		return nil
	}

	tm.cancel()
	close(tm.taskChan)

	done := make(chan struct{})
	go func() {
		tm.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		tm.appLogger.Info("Task manager stopped gracefully")
	case <-ctx.Done():
		tm.appLogger.Warn("Task manager shutdown timed out")
	}

	tm.running = false
	return nil
}

// SubmitSearchTask submits a search for background processing
func (tm *TaskManagerImpl) SubmitSearchTask(ctx context.Context, processID string, req *models.SearchRequest, execute SearchExecutor) error {
	if !tm.IsHealthy() {
		return fmt.Errorf("task manager is not healthy")
	}

	metadata := map[string]interface{}{
		"departure_city": req.DepartureCity,
		"arrival_city":   req.ArrivalCity,
		"departure_date": req.DepartureDate,
		"trip_type":      string(req.TripType),
	}
	if req.Airline != "" {
		metadata["airline"] = req.Airline
	}
	if req.CallbackURL != "" {
		metadata["callback_url"] = req.CallbackURL
	}

	result := &TaskResult{
		ProcessID: processID,
		Type:      TaskTypeSearch,
		Status:    TaskStatusAccepted,
		CreatedAt: time.Now(),
		Metadata:  metadata,
	}
	if err := tm.store.Store(ctx, result); err != nil {
		return fmt.Errorf("failed to store task result: %w", err)
	}

	tm.logger.LogTaskAccepted(processID, TaskTypeSearch)

	taskTimeout := tm.config.BackgroundTasks.TaskTimeout
	if taskTimeout <= 0 {
		taskTimeout = 10 * time.Minute
	}
	taskCtx, cancelFunc := context.WithTimeout(tm.ctx, taskTimeout)
	execution := &TaskExecution{
		ProcessID: processID,
		Type:      TaskTypeSearch,
		Context:   taskCtx,
		Cancel:    cancelFunc,
		ExecuteFunc: func(execCtx context.Context) (*TaskResult, error) {
			return tm.executeSearchTask(execCtx, processID, execute)
		},
	}

	select {
	case tm.taskChan <- execution:
		return nil
	case <-ctx.Done():
		cancelFunc()
		return ctx.Err()
	default:
		cancelFunc()
		return fmt.Errorf("task queue is full")
	}
}

// GetTaskResult retrieves the result of a task by process ID
func (tm *TaskManagerImpl) GetTaskResult(ctx context.Context, processID string) (*TaskResult, error) {
	return tm.store.Get(ctx, processID)
}

// GetTaskStatus retrieves the status of a task by process ID
func (tm *TaskManagerImpl) GetTaskStatus(ctx context.Context, processID string) (TaskStatus, error) {
	result, err := tm.store.Get(ctx, processID)
	if err != nil {
		return "", err
	}
	return result.Status, nil
}

// ListTasks lists all known tasks (for monitoring)
func (tm *TaskManagerImpl) ListTasks(ctx context.Context) ([]*TaskResult, error) {
	return tm.store.List(ctx)
}

// IsHealthy checks if the task manager is healthy
func (tm *TaskManagerImpl) IsHealthy() bool {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.running && tm.ctx != nil && tm.ctx.Err() == nil
}

// worker processes tasks from the task channel
func (tm *TaskManagerImpl) worker(workerID int) {
	defer tm.wg.Done()

	for {
		select {
		case <-tm.ctx.Done():
			return
		case task, ok := <-tm.taskChan:
			if !ok {
				return
			}
			tm.processTask(workerID, task)
		}
	}
}

// processTask runs a single task and persists its final state
func (tm *TaskManagerImpl) processTask(workerID int, task *TaskExecution) {
	startTime := time.Now()

	tm.appLogger.Info("Processing task", map[string]interface{}{
		"worker_id":  workerID,
		"process_id": task.ProcessID,
		"task_type":  task.Type,
	})

	if err := tm.updateTaskStatus(task.ProcessID, TaskStatusProcessing); err != nil {
		tm.appLogger.Error("Failed to update task status to processing", map[string]interface{}{
			"error": err.Error(),
		})
	}
	tm.logger.LogTaskStart(task.ProcessID, task.Type)

	result, err := task.ExecuteFunc(task.Context)
	processingTime := time.Since(startTime)
	completedAt := time.Now()

	if err != nil {
		existingResult, getErr := tm.store.Get(task.Context, task.ProcessID)
		if getErr != nil {
			result = &TaskResult{
				ProcessID: task.ProcessID,
				Type:      task.Type,
				CreatedAt: startTime,
			}
		} else {
			result = existingResult
		}
		result.Status = TaskStatusFailure
		result.Error = err.Error()
		result.ProcessingTime = &processingTime
		result.CompletedAt = &completedAt

		tm.logger.LogTaskError(task.ProcessID, task.Type, err)
	} else {
		result.Status = TaskStatusSuccess
		result.ProcessingTime = &processingTime
		result.CompletedAt = &completedAt

		tm.logger.LogTaskSuccess(task.ProcessID, task.Type, processingTime)
	}

	if err := tm.store.Update(context.Background(), result); err != nil {
		tm.appLogger.Error("Failed to store task result", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if err := tm.logger.LogTaskCompletion(result); err != nil {
		tm.appLogger.Error("Failed to log task completion", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if task.Cancel != nil {
		task.Cancel()
	}
}

// updateTaskStatus updates the status of a task
func (tm *TaskManagerImpl) updateTaskStatus(processID string, status TaskStatus) error {
	result, err := tm.store.Get(context.Background(), processID)
	if err != nil {
		return err
	}

	result.Status = status
	return tm.store.Update(context.Background(), result)
}

// cleanupRoutine periodically drops finished tasks past their age limit
func (tm *TaskManagerImpl) cleanupRoutine() {
	defer tm.wg.Done()

	interval := tm.config.BackgroundTasks.CleanupInterval
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	maxAge := tm.config.BackgroundTasks.MaxTaskAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-tm.ctx.Done():
			return
		case <-ticker.C:
			if err := tm.store.Cleanup(context.Background(), maxAge); err != nil {
				tm.appLogger.Error("Failed to cleanup old task results", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}
}

// executeSearchTask runs the bound search and folds its response into the
// stored task
func (tm *TaskManagerImpl) executeSearchTask(ctx context.Context, processID string, execute SearchExecutor) (*TaskResult, error) {
	existingResult, err := tm.store.Get(ctx, processID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve existing task result: %w", err)
	}

	response, err := execute(ctx)
	if err != nil {
		return nil, err
	}
	if response == nil {
		return nil, fmt.Errorf("search completed but no response was produced")
	}

	existingResult.Data = &models.AsyncSearchCompletionData{Response: response}
	return existingResult, nil
}
