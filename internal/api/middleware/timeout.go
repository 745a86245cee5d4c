package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// TimeoutConfig returns timeout middleware configuration
func TimeoutConfig(timeout time.Duration) echo.MiddlewareFunc {
	return middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: timeout,
	})
}

// SelectiveTimeoutConfig applies searchTimeout to the synchronous search
// endpoint, where a live browser run can take minutes, and defaultTimeout
// everywhere else. Async submission and status queries return immediately
// and stay on the default budget.
func SelectiveTimeoutConfig(defaultTimeout, searchTimeout time.Duration) echo.MiddlewareFunc {
	standard := middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: defaultTimeout,
	})
	search := middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: searchTimeout,
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		standardNext := standard(next)
		searchNext := search(next)

		return func(c echo.Context) error {
			if isSyncSearchPath(c.Request().URL.Path) {
				return searchNext(c)
			}
			return standardNext(c)
		}
	}
}

func isSyncSearchPath(path string) bool {
	trimmed := strings.TrimSuffix(path, "/")
	return trimmed == "/api/v1/search"
}
