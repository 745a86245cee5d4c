package workers

import (
	"context"
	"fmt"
	"sync"

	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/logging"
	"aerofinder-utils/internal/logging/types"
)

// PoolManager manages the worker pool lifecycle
type PoolManager struct {
	config      *config.Config
	pool        *WorkerPool
	logger      types.Logger
	mu          sync.RWMutex
	initialized bool
}

// NewPoolManager creates a new worker pool manager
func NewPoolManager(cfg *config.Config) *PoolManager {
	return &PoolManager{
		config: cfg,
		logger: logging.GetGlobalLogger().WithField("component", "pool_manager"),
	}
}

// Initialize creates and starts the worker pool
func (pm *PoolManager) Initialize() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.initialized {
		return fmt.Errorf("worker pool already initialized")
	}

	pm.pool = NewWorkerPool(pm.config)
	if err := pm.pool.Start(); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	pm.initialized = true
	pm.logger.Info("Worker pool initialized successfully")
	return nil
}

// Shutdown gracefully shuts down the worker pool
func (pm *PoolManager) Shutdown() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if !pm.initialized || pm.pool == nil {
		return nil
	}

	if err := pm.pool.Stop(); err != nil {
		pm.logger.Error("Error stopping worker pool", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	pm.pool.rateLimiter.Stop()

	pm.initialized = false
	pm.logger.Info("Worker pool shutdown complete")
	return nil
}

// SubmitSearch submits a site search to the worker pool
func (pm *PoolManager) SubmitSearch(ctx context.Context, siteKey, siteURL string, run SearchFunc) (*JobResult, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if !pm.initialized || pm.pool == nil {
		return nil, fmt.Errorf("worker pool not initialized")
	}
	return pm.pool.SubmitSearch(ctx, siteKey, siteURL, run)
}

// GetStats returns worker pool statistics
func (pm *PoolManager) GetStats() (*PoolManagerStats, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if !pm.initialized || pm.pool == nil {
		return nil, fmt.Errorf("worker pool not initialized")
	}

	poolStats := pm.pool.GetStats()
	return &PoolManagerStats{
		Initialized:      pm.initialized,
		PoolStats:        &poolStats,
		RateLimiterStats: pm.pool.rateLimiter.GetAllStats(),
		WorkerCount:      len(pm.pool.workers),
		QueueCapacity:    pm.config.Workers.QueueSize,
	}, nil
}

// IsHealthy returns true if the worker pool is healthy
func (pm *PoolManager) IsHealthy() bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	return pm.initialized && pm.pool != nil && pm.pool.IsRunning()
}

// GetDomainStats returns limiter statistics for a specific domain
func (pm *PoolManager) GetDomainStats(domain string) (map[string]interface{}, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if !pm.initialized || pm.pool == nil {
		return nil, fmt.Errorf("worker pool not initialized")
	}
	return pm.pool.rateLimiter.GetDomainStats(domain), nil
}

// PoolManagerStats represents comprehensive statistics for the pool manager
type PoolManagerStats struct {
	Initialized      bool                              `json:"initialized"`
	PoolStats        *PoolStats                        `json:"pool_stats"`
	RateLimiterStats map[string]map[string]interface{} `json:"rate_limiter_stats"`
	WorkerCount      int                               `json:"worker_count"`
	QueueCapacity    int                               `json:"queue_capacity"`
}
