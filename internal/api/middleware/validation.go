package middleware

import (
	"net/http"
	"time"

	"aerofinder-utils/pkg/models"
	"aerofinder-utils/pkg/utils"

	"github.com/labstack/echo/v4"
)

// maxRequestBody bounds POST bodies; search payloads are a few
// hundred bytes at most
const maxRequestBody = 64 * 1024

// RequestValidation tags every request with an ID and rejects oversized bodies
func RequestValidation() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := utils.GenerateRequestID()
			c.Set("request_id", requestID)
			c.Response().Header().Set("X-Request-ID", requestID)

			if c.Request().Method == http.MethodPost {
				if c.Request().ContentLength > maxRequestBody {
					return c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
						Error:     "request_too_large",
						Message:   "Request body too large",
						RequestID: requestID,
						Timestamp: time.Now(),
					})
				}
			}

			return next(c)
		}
	}
}
