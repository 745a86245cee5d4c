package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"aerofinder-utils/internal/scraper"
)

// airlineInfo is one registry entry as exposed by the listing endpoint
type airlineInfo struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Family string `json:"family"`
	URL    string `json:"url"`
}

// AirlinesHandler lists the registered booking sites and the keys accepted
// by the airline search filter
func AirlinesHandler(registry *scraper.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		sites := registry.All()
		airlines := make([]airlineInfo, 0, len(sites))
		for _, site := range sites {
			airlines = append(airlines, airlineInfo{
				Key:    site.Key,
				Name:   site.Name,
				Family: string(site.Family),
				URL:    site.URL,
			})
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"count":    len(airlines),
			"airlines": airlines,
		})
	}
}
