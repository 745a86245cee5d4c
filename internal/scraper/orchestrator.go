package scraper

import (
	"context"
	"sync"
	"time"

	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/logging"
	"aerofinder-utils/internal/logging/types"
	"aerofinder-utils/internal/scraper/session"
	"aerofinder-utils/internal/scraper/workers"
	"aerofinder-utils/pkg/models"
)

// Orchestrator fans one search request out across the selected booking
// sites. Each site runs as its own pool task with its own browser session;
// one site failing, timing out, or panicking never disturbs the others.
type Orchestrator struct {
	config   *config.Config
	registry *Registry
	sessions session.Factory
	adapters AdapterFactory
	pool     *workers.PoolManager
	logger   types.Logger
}

// NewOrchestrator creates the search orchestrator
func NewOrchestrator(cfg *config.Config, registry *Registry, sessions session.Factory, adapters AdapterFactory, pool *workers.PoolManager) *Orchestrator {
	return &Orchestrator{
		config:   cfg,
		registry: registry,
		sessions: sessions,
		adapters: adapters,
		pool:     pool,
		logger:   logging.GetGlobalLogger().WithField("component", "orchestrator"),
	}
}

// SearchAllAirlines searches every site selected by the filter and returns
// one outcome per site key. An unresolvable filter fails fast before any
// site work starts; everything after that is reported per site.
func (o *Orchestrator) SearchAllAirlines(ctx context.Context, req *models.SearchRequest, filter string) (map[string]models.SearchOutcome, error) {
	sites, err := o.registry.Resolve(filter)
	if err != nil {
		return nil, err
	}

	o.logger.Info("Starting airline search", map[string]interface{}{
		"airlines":  len(sites),
		"route":     req.DepartureCity + " -> " + req.ArrivalCity,
		"trip_type": string(req.TripType),
	})
	started := time.Now()

	results := make(map[string]models.SearchOutcome, len(sites))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, site := range sites {
		wg.Add(1)
		go func(site models.SiteConfig) {
			defer wg.Done()

			outcome := o.searchSite(ctx, site, req)

			mu.Lock()
			results[site.Key] = outcome
			mu.Unlock()
		}(site)
	}
	wg.Wait()

	successful := 0
	for _, outcome := range results {
		if outcome.Success {
			successful++
		}
	}
	o.logger.Info("Airline search completed", map[string]interface{}{
		"airlines":   len(sites),
		"successful": successful,
		"failed":     len(sites) - successful,
		"elapsed":    time.Since(started).String(),
	})

	return results, nil
}

// searchSite runs one site's search through the worker pool and shapes the
// result into its outcome
func (o *Orchestrator) searchSite(ctx context.Context, site models.SiteConfig, req *models.SearchRequest) models.SearchOutcome {
	started := time.Now()

	jobResult, err := o.pool.SubmitSearch(ctx, site.Key, site.URL, func(jobCtx context.Context) (*models.FlightData, error) {
		return o.runSite(jobCtx, site, req)
	})
	if err != nil {
		o.logger.Warn("Site search rejected", map[string]interface{}{
			"site":  site.Key,
			"error": err.Error(),
		})
		return models.FailureOutcome(site.Name, err.Error(), time.Since(started))
	}

	if jobResult.Error != nil {
		return models.FailureOutcome(site.Name, jobResult.Error.Error(), jobResult.Duration)
	}
	return models.SuccessOutcome(site.Name, jobResult.Data, jobResult.Duration)
}

// runSite creates a fresh session for the site, scrapes it with the
// family's adapter, and tears the session down on every path
func (o *Orchestrator) runSite(ctx context.Context, site models.SiteConfig, req *models.SearchRequest) (*models.FlightData, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Workers.Timeout)
	defer cancel()

	adapter, err := o.adapters.AdapterFor(site.Family)
	if err != nil {
		return nil, err
	}

	sess, err := o.sessions.Create(ctx, site, req.ProxyIP)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	return adapter.Scrape(ctx, sess, site, req)
}
