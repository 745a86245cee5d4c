package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"aerofinder-utils/internal/background"
	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/logging"
	"aerofinder-utils/internal/scraper"
	"aerofinder-utils/internal/scraper/challenge"
	"aerofinder-utils/internal/scraper/session"
	"aerofinder-utils/internal/scraper/workers"
	"aerofinder-utils/pkg/models"
	"aerofinder-utils/pkg/utils"
)

var startTime = time.Now()

const serviceVersion = "1.0.0"

// HealthHandler handles health check requests
func HealthHandler(c echo.Context) error {
	response := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   serviceVersion,
		Uptime:    time.Since(startTime),
		Checks: map[string]string{
			"api": "ok",
		},
	}

	return c.JSON(http.StatusOK, response)
}

// LivenessHandler handles liveness probe requests
func LivenessHandler(c echo.Context) error {
	response := models.HealthResponse{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   serviceVersion,
		Uptime:    time.Since(startTime),
	}

	return c.JSON(http.StatusOK, response)
}

// ReadinessHandler reports whether the service can accept search traffic
func ReadinessHandler(poolManager *workers.PoolManager, taskManager background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		checks := map[string]string{
			"api":     "ok",
			"workers": "ok",
			"tasks":   "ok",
		}
		status := "ready"
		httpStatus := http.StatusOK

		if !poolManager.IsHealthy() {
			checks["workers"] = "unhealthy"
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		}
		if !taskManager.IsHealthy() {
			checks["tasks"] = "unhealthy"
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		}

		return c.JSON(httpStatus, models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Version:   serviceVersion,
			Uptime:    time.Since(startTime),
			Checks:    checks,
		})
	}
}

// DetailedHealthHandler reports component level health: worker pool, task
// manager, cache connectivity, captcha solver reachability and the airline
// registry. Cache and solver problems are reported without failing the
// check since searches can proceed without either.
func DetailedHealthHandler(cfg *config.Config, poolManager *workers.PoolManager, taskManager background.TaskManager, sessions session.Factory, solver challenge.CaptchaSolver, cache *utils.RedisClient, registry *scraper.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := logging.GetGlobalLogger()
		checks := map[string]string{"api": "ok"}
		healthy := true

		if poolManager.IsHealthy() {
			checks["workers"] = "ok"
		} else {
			checks["workers"] = "unhealthy"
			healthy = false
		}

		if taskManager.IsHealthy() {
			checks["tasks"] = "ok"
		} else {
			checks["tasks"] = "unhealthy"
			healthy = false
		}

		if cache == nil || !cfg.Cache.Enabled {
			checks["cache"] = "disabled"
		} else {
			pingCtx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			if err := cache.Ping(pingCtx); err != nil {
				checks["cache"] = "unreachable"
				logger.Warn("Cache health check failed", map[string]interface{}{
					"error": err.Error(),
				})
			} else {
				checks["cache"] = "ok"
			}
			cancel()
		}

		switch {
		case cfg.Scraper.Captcha.APIKey == "":
			checks["captcha_solver"] = "disabled"
		case solver != nil && solver.IsHealthy():
			checks["captcha_solver"] = "ok"
		default:
			checks["captcha_solver"] = "unreachable"
		}

		status := "healthy"
		httpStatus := http.StatusOK
		if !healthy {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}

		details := map[string]interface{}{
			"airlines_registered": registry.Count(),
			"airline_keys":        registry.Keys(),
			"sessions":            sessions.Stats(),
		}
		if stats, err := poolManager.GetStats(); err == nil {
			details["pool"] = stats
		}

		return c.JSON(httpStatus, map[string]interface{}{
			"status":    status,
			"timestamp": time.Now(),
			"version":   serviceVersion,
			"uptime":    time.Since(startTime).String(),
			"checks":    checks,
			"details":   details,
		})
	}
}
