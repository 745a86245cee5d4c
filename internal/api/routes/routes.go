package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"aerofinder-utils/internal/api/handlers"
	"aerofinder-utils/internal/api/middleware"
	"aerofinder-utils/internal/background"
	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/scraper"
	"aerofinder-utils/internal/scraper/challenge"
	"aerofinder-utils/internal/scraper/session"
	"aerofinder-utils/internal/scraper/workers"
	"aerofinder-utils/pkg/utils"
)

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, orchestrator *scraper.Orchestrator, registry *scraper.Registry, poolManager *workers.PoolManager, taskManager background.TaskManager, sessions session.Factory, solver challenge.CaptchaSolver, cache *utils.RedisClient) {
	// Global middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig())
	e.Use(middleware.RequestValidation())
	// Synchronous searches drive live browsers and need a budget past the
	// per-site task timeout; everything else answers quickly.
	e.Use(middleware.SelectiveTimeoutConfig(cfg.Server.ReadTimeout, cfg.Workers.Timeout+30*time.Second))

	// Health check routes
	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler)
		health.GET("/live", handlers.LivenessHandler)
		health.GET("/ready", handlers.ReadinessHandler(poolManager, taskManager))
		health.GET("/detailed", handlers.DetailedHealthHandler(cfg, poolManager, taskManager, sessions, solver, cache, registry))
	}

	// API v1 routes
	v1 := e.Group("/api/v1")
	{
		v1.GET("/search", handlers.SearchHandler(cfg, orchestrator, cache))
		v1.POST("/search", handlers.SearchHandler(cfg, orchestrator, cache))

		// Async search routes
		async := v1.Group("/search/async")
		{
			async.POST("", handlers.AsyncSearchHandler(cfg, orchestrator, cache, taskManager))
			async.GET("", handlers.AsyncTaskListHandler(taskManager))
			async.GET("/:processId", handlers.AsyncSearchStatusHandler(taskManager))
		}

		v1.GET("/airlines", handlers.AirlinesHandler(registry))

		// Worker pool monitoring routes
		pool := v1.Group("/pool")
		{
			pool.GET("/stats", handlers.PoolStatsHandler(poolManager))
		}

		// Per-domain rate limiter state
		domains := v1.Group("/domains")
		{
			domains.GET("/:domain/stats", handlers.DomainStatsHandler(poolManager))
		}
	}

	// Root route
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "AeroFinder Flight Search",
			"version": "1.0.0",
			"status":  "running",
		})
	})
}
