package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/logging"
	"aerofinder-utils/pkg/models"
)

// RedisClient wraps the Redis client with search result caching
type RedisClient struct {
	client *redis.Client
	config *config.Config
	logger logging.Logger
}

// CachedSearch represents a cached search response with its cache metadata
type CachedSearch struct {
	Response *models.SearchResponse `json:"response"`
	CachedAt time.Time              `json:"cached_at"`
}

// NewRedisClient creates a new Redis client instance
func NewRedisClient(cfg *config.Config) *RedisClient {
	// Parse Redis URL
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		// Fallback to default configuration
		opts = &redis.Options{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
		}
	}

	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}

	// Configure timeouts
	opts.DialTimeout = cfg.Redis.Timeout
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	return &RedisClient{
		client: client,
		config: cfg,
		logger: logging.GetGlobalLogger(),
	}
}

// Ping tests the Redis connection
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// GetSearchResults retrieves a cached search response for the request.
// A cache miss returns (nil, nil) so callers fall through to a live search.
func (r *RedisClient) GetSearchResults(ctx context.Context, req *models.SearchRequest) (*CachedSearch, error) {
	searchKey := r.getSearchKey(req)

	cachedJSON, err := r.client.Get(ctx, searchKey).Result()
	if err != nil {
		if err == redis.Nil {
			// Cache miss
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached search results: %w", err)
	}

	var cached CachedSearch
	err = json.Unmarshal([]byte(cachedJSON), &cached)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached search results: %w", err)
	}

	return &cached, nil
}

// SetSearchResults caches a search response for the request with the configured TTL
func (r *RedisClient) SetSearchResults(ctx context.Context, req *models.SearchRequest, response *models.SearchResponse) error {
	searchKey := r.getSearchKey(req)

	cached := &CachedSearch{
		Response: response,
		CachedAt: time.Now(),
	}

	cachedJSON, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal search results: %w", err)
	}

	err = r.client.Set(ctx, searchKey, cachedJSON, r.config.Cache.TTL).Err()
	if err != nil {
		r.logger.Error("Failed to cache search results", map[string]interface{}{
			"search_key": searchKey,
			"error":      err.Error(),
		})
		return fmt.Errorf("failed to cache search results: %w", err)
	}

	return nil
}

// InvalidateSearch removes any cached response for the request
func (r *RedisClient) InvalidateSearch(ctx context.Context, req *models.SearchRequest) error {
	searchKey := r.getSearchKey(req)
	return r.client.Del(ctx, searchKey).Err()
}

// getSearchKey generates the Redis key for a search request
func (r *RedisClient) getSearchKey(req *models.SearchRequest) string {
	airline := req.Airline
	if airline == "" {
		airline = "all"
	}

	returnDate := req.ReturnDate
	if !req.IsRoundTrip() {
		returnDate = "oneway"
	}

	return fmt.Sprintf("search:%s:%s:%s:%s:%s:%d-%d-%d",
		normalizeKeyPart(req.DepartureCity),
		normalizeKeyPart(req.ArrivalCity),
		normalizeKeyPart(req.DepartureDate),
		normalizeKeyPart(returnDate),
		normalizeKeyPart(airline),
		req.Adults, req.Children, req.Infants,
	)
}

// normalizeKeyPart lowercases a key component and collapses spaces
func normalizeKeyPart(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "_")
}

// IsHealthy checks if Redis is connected and healthy
func (r *RedisClient) IsHealthy(ctx context.Context) error {
	return r.Ping(ctx)
}
