package workers

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/logging"
	"aerofinder-utils/internal/logging/types"
)

// DomainLimiter represents rate limiting for a specific site domain
type DomainLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	requests int64
	failures int64
	mu       sync.RWMutex
}

// CircuitBreaker represents a circuit breaker for a domain
type CircuitBreaker struct {
	maxFailures  int
	resetTimeout time.Duration
	failureCount int
	lastFailTime time.Time
	state        CircuitState
	mu           sync.Mutex
}

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// RateLimiter manages rate limiting and circuit breaking per domain
type RateLimiter struct {
	config          *config.Config
	domainLimiters  map[string]*DomainLimiter
	circuitBreakers map[string]*CircuitBreaker
	mu              sync.RWMutex
	logger          types.Logger
	cleanupTicker   *time.Ticker
	stopCleanup     chan bool
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(cfg *config.Config) *RateLimiter {
	rl := &RateLimiter{
		config:          cfg,
		domainLimiters:  make(map[string]*DomainLimiter),
		circuitBreakers: make(map[string]*CircuitBreaker),
		logger:          logging.GetGlobalLogger().WithField("component", "rate_limiter"),
		cleanupTicker:   time.NewTicker(5 * time.Minute),
		stopCleanup:     make(chan bool),
	}

	go rl.cleanupRoutine()

	return rl
}

// Allow checks if a request to the given domain is allowed
func (rl *RateLimiter) Allow(domain string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	domain = strings.ToLower(domain)

	if !rl.isCircuitClosed(domain) {
		rl.logger.Debug("Request rejected by circuit breaker", map[string]interface{}{
			"domain": domain,
		})
		return false
	}

	limiter := rl.getDomainLimiter(domain)

	allowed := limiter.limiter.Allow()
	if allowed {
		limiter.mu.Lock()
		limiter.requests++
		limiter.lastSeen = time.Now()
		limiter.mu.Unlock()
	} else {
		rl.logger.Debug("Request rejected by rate limiter", map[string]interface{}{
			"domain": domain,
		})
	}

	return allowed
}

// RecordSuccess records a successful request for the domain
func (rl *RateLimiter) RecordSuccess(domain string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	domain = strings.ToLower(domain)

	if cb, exists := rl.circuitBreakers[domain]; exists {
		cb.mu.Lock()
		if cb.state == CircuitHalfOpen {
			cb.state = CircuitClosed
			cb.failureCount = 0
			rl.logger.Info("Circuit breaker closed after successful request", map[string]interface{}{
				"domain": domain,
			})
		}
		cb.mu.Unlock()
	}
}

// RecordFailure records a failed request for the domain
func (rl *RateLimiter) RecordFailure(domain string, err error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	domain = strings.ToLower(domain)

	if limiter, exists := rl.domainLimiters[domain]; exists {
		limiter.mu.Lock()
		limiter.failures++
		limiter.mu.Unlock()
	}

	cb := rl.getCircuitBreaker(domain)
	cb.mu.Lock()
	cb.failureCount++
	cb.lastFailTime = time.Now()

	if cb.failureCount >= cb.maxFailures && cb.state == CircuitClosed {
		cb.state = CircuitOpen
		rl.logger.Warn("Circuit breaker opened due to failures", map[string]interface{}{
			"domain":   domain,
			"failures": cb.failureCount,
			"error":    err.Error(),
		})
	}
	cb.mu.Unlock()
}

// getDomainLimiter gets or creates a rate limiter for a domain.
// Caller holds rl.mu.
func (rl *RateLimiter) getDomainLimiter(domain string) *DomainLimiter {
	if limiter, exists := rl.domainLimiters[domain]; exists {
		return limiter
	}

	// Config rate is requests per minute
	rps := rate.Limit(float64(rl.config.Workers.RateLimit) / 60.0)
	burst := 5

	limiter := &DomainLimiter{
		limiter:  rate.NewLimiter(rps, burst),
		lastSeen: time.Now(),
	}
	rl.domainLimiters[domain] = limiter

	rl.logger.Debug("Created new domain rate limiter", map[string]interface{}{
		"domain": domain,
		"rate":   float64(rps),
		"burst":  burst,
	})
	return limiter
}

// getCircuitBreaker gets or creates a circuit breaker for a domain.
// Caller holds rl.mu.
func (rl *RateLimiter) getCircuitBreaker(domain string) *CircuitBreaker {
	if cb, exists := rl.circuitBreakers[domain]; exists {
		return cb
	}

	cb := &CircuitBreaker{
		maxFailures:  5,
		resetTimeout: 30 * time.Second,
		state:        CircuitClosed,
	}
	rl.circuitBreakers[domain] = cb
	return cb
}

// isCircuitClosed checks if the circuit breaker allows requests, moving an
// open circuit to half-open once its reset timeout has passed.
// Caller holds rl.mu.
func (rl *RateLimiter) isCircuitClosed(domain string) bool {
	cb := rl.getCircuitBreaker(domain)

	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed, CircuitHalfOpen:
		return true
	case CircuitOpen:
		if time.Since(cb.lastFailTime) > cb.resetTimeout {
			cb.state = CircuitHalfOpen
			rl.logger.Info("Circuit breaker transitioned to half-open", map[string]interface{}{
				"domain": domain,
			})
			return true
		}
		return false
	default:
		return false
	}
}

// GetDomainStats returns statistics for a specific domain
func (rl *RateLimiter) GetDomainStats(domain string) map[string]interface{} {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	return rl.domainStats(strings.ToLower(domain))
}

// domainStats builds one domain's stats map. Caller holds rl.mu.
func (rl *RateLimiter) domainStats(domain string) map[string]interface{} {
	stats := make(map[string]interface{})

	if limiter, exists := rl.domainLimiters[domain]; exists {
		limiter.mu.RLock()
		stats["requests"] = limiter.requests
		stats["failures"] = limiter.failures
		stats["last_seen"] = limiter.lastSeen
		stats["limit"] = float64(limiter.limiter.Limit())
		stats["burst"] = limiter.limiter.Burst()
		limiter.mu.RUnlock()
	}

	if cb, exists := rl.circuitBreakers[domain]; exists {
		cb.mu.Lock()
		stats["circuit_state"] = cb.state.String()
		stats["failure_count"] = cb.failureCount
		stats["max_failures"] = cb.maxFailures
		stats["last_fail_time"] = cb.lastFailTime
		cb.mu.Unlock()
	}

	return stats
}

// GetAllStats returns statistics for all known domains
func (rl *RateLimiter) GetAllStats() map[string]map[string]interface{} {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	allStats := make(map[string]map[string]interface{})
	for domain := range rl.domainLimiters {
		allStats[domain] = rl.domainStats(domain)
	}
	for domain := range rl.circuitBreakers {
		if _, done := allStats[domain]; !done {
			allStats[domain] = rl.domainStats(domain)
		}
	}
	return allStats
}

// cleanupRoutine periodically drops limiters for domains not seen recently
func (rl *RateLimiter) cleanupRoutine() {
	for {
		select {
		case <-rl.cleanupTicker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			rl.cleanupTicker.Stop()
			return
		}
	}
}

// cleanup removes old unused limiters and circuit breakers
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	removed := 0

	for domain, limiter := range rl.domainLimiters {
		limiter.mu.RLock()
		lastSeen := limiter.lastSeen
		limiter.mu.RUnlock()

		if lastSeen.Before(cutoff) {
			delete(rl.domainLimiters, domain)
			removed++
		}
	}

	for domain, cb := range rl.circuitBreakers {
		cb.mu.Lock()
		stale := cb.state == CircuitClosed && cb.lastFailTime.Before(cutoff)
		cb.mu.Unlock()

		if stale {
			delete(rl.circuitBreakers, domain)
		}
	}

	if removed > 0 {
		rl.logger.Debug("Cleaned up unused rate limiters", map[string]interface{}{
			"removed_count": removed,
		})
	}
}

// Stop stops the rate limiter and cleanup routine
func (rl *RateLimiter) Stop() {
	rl.stopCleanup <- true
}

// String returns string representation of CircuitState
func (cs CircuitState) String() string {
	switch cs {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// extractDomainFromURL extracts the lowercased hostname for rate limiting
func extractDomainFromURL(urlStr string) string {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "unknown"
	}

	domain := parsedURL.Hostname()
	if domain == "" {
		return "unknown"
	}
	return strings.ToLower(domain)
}
