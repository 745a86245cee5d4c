package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"aerofinder-utils/internal/config"
	"aerofinder-utils/pkg/models"
)

func newTestRedisClient(t *testing.T) *RedisClient {
	t.Helper()

	cfg := &config.Config{}
	cfg.Redis.URL = "redis://localhost:6379"
	cfg.Redis.Timeout = time.Second
	cfg.Cache.Enabled = true
	cfg.Cache.TTL = time.Minute

	// NewRedisClient never dials, so no Redis server is needed here
	client := NewRedisClient(cfg)
	t.Cleanup(func() { client.Close() })
	return client
}

func cacheRequest() models.SearchRequest {
	return models.SearchRequest{
		DepartureCity: "Lagos (LOS)",
		ArrivalCity:   "Abuja (ABV)",
		DepartureDate: "06 Jun 2025",
		ReturnDate:    "10 Jun 2025",
		TripType:      models.TripTypeRoundTrip,
		Adults:        2,
		Children:      1,
		Infants:       1,
	}
}

func TestGetSearchKey(t *testing.T) {
	client := newTestRedisClient(t)

	req := cacheRequest()
	key := client.getSearchKey(&req)

	assert.Equal(t, "search:lagos_(los):abuja_(abv):06_jun_2025:10_jun_2025:all:2-1-1", key)
}

func TestGetSearchKeyOneWay(t *testing.T) {
	client := newTestRedisClient(t)

	req := cacheRequest()
	req.TripType = models.TripTypeOneWay

	// The return date is ignored for one-way searches even when supplied
	assert.Equal(t, "search:lagos_(los):abuja_(abv):06_jun_2025:oneway:all:2-1-1", client.getSearchKey(&req))
}

func TestGetSearchKeyAirlineFilter(t *testing.T) {
	client := newTestRedisClient(t)

	all := cacheRequest()
	filtered := cacheRequest()
	filtered.Airline = "airpeace"

	assert.NotEqual(t, client.getSearchKey(&all), client.getSearchKey(&filtered))
	assert.Contains(t, client.getSearchKey(&filtered), ":airpeace:")
}

func TestGetSearchKeyNormalization(t *testing.T) {
	client := newTestRedisClient(t)

	upper := cacheRequest()
	lower := cacheRequest()
	lower.DepartureCity = "  lagos (los) "
	lower.ArrivalCity = "abuja (abv)"

	assert.Equal(t, client.getSearchKey(&upper), client.getSearchKey(&lower))
}

func TestNormalizeKeyPart(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Lagos (LOS)", "lagos_(los)"},
		{"  06 Jun 2025  ", "06_jun_2025"},
		{"ALL", "all"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeKeyPart(tt.input))
		})
	}
}
