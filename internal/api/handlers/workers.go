package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"aerofinder-utils/internal/scraper/workers"
	"aerofinder-utils/pkg/models"
	"aerofinder-utils/pkg/utils"
)

// PoolStatsHandler returns worker pool statistics
func PoolStatsHandler(poolManager *workers.PoolManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()

		stats, err := poolManager.GetStats()
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error:     "stats_unavailable",
				Message:   "Worker pool statistics are not available",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"success":    true,
			"stats":      stats,
			"request_id": requestID,
			"timestamp":  time.Now(),
		})
	}
}

// DomainStatsHandler returns rate limiting statistics for one site domain
func DomainStatsHandler(poolManager *workers.PoolManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()

		domain := c.Param("domain")
		if domain == "" {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "missing_domain",
				Message:   "Domain parameter is required",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		stats, err := poolManager.GetDomainStats(domain)
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error:     "stats_unavailable",
				Message:   "Domain statistics are not available",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"success":    true,
			"domain":     domain,
			"stats":      stats,
			"request_id": requestID,
			"timestamp":  time.Now(),
		})
	}
}
