package handlers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/logging"
	"aerofinder-utils/internal/scraper"
	"aerofinder-utils/pkg/models"
	"aerofinder-utils/pkg/utils"
)

var searchValidator = validator.New()

// SearchHandler runs a flight search synchronously across the selected
// airlines and returns the aggregated envelope. Results are served from the
// Redis cache when a fresh enough entry exists; refresh=true forces a live
// search.
func SearchHandler(cfg *config.Config, orchestrator *scraper.Orchestrator, cache *utils.RedisClient) echo.HandlerFunc {
	return func(c echo.Context) error {
		startTime := time.Now()
		requestID := utils.GenerateRequestID()
		logger := logging.GetGlobalLogger()
		c.Set("request_id", requestID)

		var req models.SearchRequest
		if err := c.Bind(&req); err != nil {
			logger.Error("Failed to parse search request", map[string]interface{}{
				"request_id": requestID,
				"error":      err.Error(),
			})
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   "Invalid request format: " + err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		req.ApplyDefaults()

		if err := searchValidator.Struct(&req); err != nil {
			logger.Error("Search request validation failed", map[string]interface{}{
				"request_id": requestID,
				"error":      err.Error(),
			})
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "validation_failed",
				Message:   err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}
		if err := req.Validate(); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "validation_failed",
				Message:   err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		logger.Info("Processing flight search request", map[string]interface{}{
			"request_id":     requestID,
			"departure_city": req.DepartureCity,
			"arrival_city":   req.ArrivalCity,
			"departure_date": req.DepartureDate,
			"trip_type":      string(req.TripType),
			"airline":        req.Airline,
		})

		ctx := c.Request().Context()
		refresh := c.QueryParam("refresh") == "true" || c.QueryParam("refresh") == "1"

		if cache != nil && cfg.Cache.Enabled && !refresh {
			cached, err := cache.GetSearchResults(ctx, &req)
			if err != nil {
				logger.Warn("Search cache lookup failed", map[string]interface{}{
					"request_id": requestID,
					"error":      err.Error(),
				})
			} else if cached != nil {
				logger.Info("Serving search results from cache", map[string]interface{}{
					"request_id": requestID,
					"cached_at":  cached.CachedAt,
				})
				return c.JSON(http.StatusOK, cached.Response)
			}
		}

		results, err := orchestrator.SearchAllAirlines(ctx, &req, req.Airline)
		if err != nil {
			logger.Error("Airline selection failed", map[string]interface{}{
				"request_id": requestID,
				"error":      err.Error(),
			})
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "unknown_airline",
				Message:   err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		response := models.BuildSearchResponse(&req, results)

		if cache != nil && cfg.Cache.Enabled && response.Status == models.SearchStatusSuccess {
			if err := cache.SetSearchResults(ctx, &req, response); err != nil {
				logger.Warn("Failed to cache search results", map[string]interface{}{
					"request_id": requestID,
					"error":      err.Error(),
				})
			}
		}

		logger.Info("Flight search request completed", map[string]interface{}{
			"request_id":  requestID,
			"status":      response.Status,
			"airlines":    len(results),
			"duration_ms": time.Since(startTime).Milliseconds(),
		})

		return c.JSON(http.StatusOK, response)
	}
}
