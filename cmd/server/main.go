package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"aerofinder-utils/internal/api/routes"
	"aerofinder-utils/internal/background"
	"aerofinder-utils/internal/callback"
	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/logging"
	"aerofinder-utils/internal/scraper"
	"aerofinder-utils/internal/scraper/challenge"
	"aerofinder-utils/internal/scraper/session"
	"aerofinder-utils/internal/scraper/workers"
	"aerofinder-utils/pkg/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logging
	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting AeroFinder flight search service")

	// Airline registry and scraping stack
	registry := scraper.DefaultRegistry()
	sessions := session.NewRodFactory(cfg)
	solver := challenge.NewTwoCaptchaSolver(cfg)
	resolver := challenge.NewResolver(cfg, solver)
	adapters := scraper.NewAdapterFactory(cfg, sessions, resolver)

	// Worker pool
	poolManager := workers.NewPoolManager(cfg)
	if err := poolManager.Initialize(); err != nil {
		logger.Fatal("Failed to start worker pool", map[string]interface{}{"error": err.Error()})
	}

	// Search result cache
	var cache *utils.RedisClient
	if cfg.Cache.Enabled {
		cache = utils.NewRedisClient(cfg)
		pingCtx, cancel := context.WithTimeout(context.Background(), cfg.Redis.Timeout)
		if err := cache.Ping(pingCtx); err != nil {
			logger.Warn("Redis unreachable at startup, cache lookups will retry", map[string]interface{}{
				"error": err.Error(),
			})
		}
		cancel()
	}

	// Completion webhook client
	var callbackClient *callback.Client
	if cfg.Callback.Enabled {
		callbackClient = callback.NewClient(cfg)
	}

	// Background task manager
	taskManager := background.NewTaskManager(cfg, callbackClient)
	if err := taskManager.Start(context.Background()); err != nil {
		logger.Fatal("Failed to start task manager", map[string]interface{}{"error": err.Error()})
	}

	orchestrator := scraper.NewOrchestrator(cfg, registry, sessions, adapters, poolManager)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout
	// Write timeout stays unset so synchronous searches can finish

	routes.SetupRoutes(e, cfg, orchestrator, registry, poolManager, taskManager, sessions, solver, cache)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Drain in-flight requests before tearing down the layers they use
		logger.Info("Stopping HTTP server...")
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down server", map[string]interface{}{"error": err.Error()})
		}

		logger.Info("Stopping background task manager...")
		if err := taskManager.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping task manager", map[string]interface{}{"error": err.Error()})
		}

		logger.Info("Stopping worker pool...")
		if err := poolManager.Shutdown(); err != nil {
			logger.Error("Error stopping worker pool", map[string]interface{}{"error": err.Error()})
		}

		sessions.Cleanup()
		if cache != nil {
			if err := cache.Close(); err != nil {
				logger.Error("Error closing cache client", map[string]interface{}{"error": err.Error()})
			}
		}
		if callbackClient != nil {
			callbackClient.Close()
		}

		logger.Info("Server shutdown complete")
	}()

	// Start server
	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", map[string]interface{}{"address": address})

	if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server failed to start", map[string]interface{}{"error": err.Error()})
	}
}
