package scraper_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/scraper"
	"aerofinder-utils/internal/scraper/session"
	"aerofinder-utils/internal/scraper/workers"
	"aerofinder-utils/pkg/models"
)

// stubSession satisfies session.Session with a real on-disk profile
// directory so tests can prove teardown happened on every path.
type stubSession struct {
	id         string
	siteKey    string
	family     models.SiteFamily
	profileDir string

	mu     sync.Mutex
	closed bool
}

func (s *stubSession) ID() string                { return s.id }
func (s *stubSession) SiteKey() string           { return s.siteKey }
func (s *stubSession) Family() models.SiteFamily { return s.family }

func (s *stubSession) Navigate(ctx context.Context, url string) error { return nil }
func (s *stubSession) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	return nil
}
func (s *stubSession) Click(ctx context.Context, selector string) error              { return nil }
func (s *stubSession) Input(ctx context.Context, selector string, text string) error { return nil }
func (s *stubSession) Eval(ctx context.Context, js string) error                     { return nil }
func (s *stubSession) EvalString(ctx context.Context, js string) (string, error)     { return "", nil }
func (s *stubSession) HTML(ctx context.Context) (string, error)                      { return "<html></html>", nil }
func (s *stubSession) CurrentURL(ctx context.Context) (string, error)                { return "", nil }
func (s *stubSession) Title(ctx context.Context) (string, error)                     { return "", nil }
func (s *stubSession) Screenshot(ctx context.Context) ([]byte, error)                { return nil, nil }
func (s *stubSession) SimulateHumanActivity(ctx context.Context) error               { return nil }

func (s *stubSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		return os.RemoveAll(s.profileDir)
	}
	return nil
}

func (s *stubSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// stubFactory hands out stubSessions and records every profile directory it
// created
type stubFactory struct {
	mu       sync.Mutex
	failFor  map[string]error
	created  int
	sessions []*stubSession
	dirs     []string
}

func (f *stubFactory) Create(ctx context.Context, site models.SiteConfig, proxyIP string) (session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.failFor[site.Key]; ok {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "aerofinder-test-profile-*")
	if err != nil {
		return nil, err
	}

	f.created++
	sess := &stubSession{
		id:         fmt.Sprintf("sess-%d", f.created),
		siteKey:    site.Key,
		family:     site.Family,
		profileDir: dir,
	}
	f.sessions = append(f.sessions, sess)
	f.dirs = append(f.dirs, dir)
	return sess, nil
}

func (f *stubFactory) Stats() session.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return session.Stats{TotalCreated: int64(f.created)}
}

func (f *stubFactory) Cleanup() {}

func (f *stubFactory) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}

// scriptedAdapter drives every test site in one family with per-site
// behavior keyed on the site key
type scriptedAdapter struct {
	family models.SiteFamily
	run    func(site models.SiteConfig, req *models.SearchRequest) (*models.FlightData, error)
}

func (a *scriptedAdapter) Family() models.SiteFamily { return a.family }

func (a *scriptedAdapter) Scrape(ctx context.Context, sess session.Session, site models.SiteConfig, req *models.SearchRequest) (*models.FlightData, error) {
	return a.run(site, req)
}

type scriptedAdapterFactory struct {
	adapter scraper.SiteAdapter
}

func (f *scriptedAdapterFactory) AdapterFor(family models.SiteFamily) (scraper.SiteAdapter, error) {
	if f.adapter.Family() != family {
		return nil, fmt.Errorf("no adapter registered for family %q", family)
	}
	return f.adapter, nil
}

func (f *scriptedAdapterFactory) SupportedFamilies() []models.SiteFamily {
	return []models.SiteFamily{f.adapter.Family()}
}

func orchestratorTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Workers.PoolSize = 4
	cfg.Workers.QueueSize = 16
	cfg.Workers.RateLimit = 600
	cfg.Workers.MaxRetries = 1
	cfg.Workers.Timeout = 5 * time.Second
	return cfg
}

func orchestratorTestSites() []models.SiteConfig {
	return []models.SiteConfig{
		{Name: "Alpha Air", URL: "https://book.alpha-air.test/ibe/availability", Family: models.FamilyCrane, Key: "alpha"},
		{Name: "Bravo Wings", URL: "https://booking.bravo-wings.test/ibe/availability", Family: models.FamilyCrane, Key: "bravo"},
		{Name: "Charlie Jet", URL: "https://fly.charlie-jet.test/ibe/availability", Family: models.FamilyCrane, Key: "charlie"},
	}
}

func orchestratorSearchRequest() *models.SearchRequest {
	return &models.SearchRequest{
		DepartureCity: "Lagos (LOS)",
		ArrivalCity:   "Abuja (ABV)",
		DepartureDate: "06 Jun 2025",
		TripType:      models.TripTypeOneWay,
		Adults:        1,
	}
}

func newRunningPoolManager(t *testing.T, cfg *config.Config) *workers.PoolManager {
	t.Helper()
	pm := workers.NewPoolManager(cfg)
	require.NoError(t, pm.Initialize())
	t.Cleanup(func() { pm.Shutdown() })
	return pm
}

func TestSearchAllAirlinesIsolatesSiteFailures(t *testing.T) {
	cfg := orchestratorTestConfig()
	factory := &stubFactory{}
	alphaData := &models.FlightData{
		Departure: []models.FlightResult{{FlightNumber: "AL 101"}},
	}
	adapter := &scriptedAdapter{
		family: models.FamilyCrane,
		run: func(site models.SiteConfig, req *models.SearchRequest) (*models.FlightData, error) {
			switch site.Key {
			case "alpha":
				return alphaData, nil
			case "bravo":
				return nil, errors.New("availability page unreachable")
			default:
				panic("results markup changed")
			}
		},
	}

	pm := newRunningPoolManager(t, cfg)
	orch := scraper.NewOrchestrator(cfg, scraper.NewRegistry(orchestratorTestSites()), factory, &scriptedAdapterFactory{adapter: adapter}, pm)

	results, err := orch.SearchAllAirlines(context.Background(), orchestratorSearchRequest(), "")
	require.NoError(t, err)
	require.Len(t, results, 3)

	alpha := results["alpha"]
	assert.True(t, alpha.Success)
	assert.Equal(t, "Alpha Air", alpha.Airline)
	assert.Same(t, alphaData, alpha.Data)
	assert.Empty(t, alpha.Error)

	bravo := results["bravo"]
	assert.False(t, bravo.Success)
	assert.Nil(t, bravo.Data)
	assert.Contains(t, bravo.Error, "availability page unreachable")

	// The panicking site fails alone instead of taking the pool down
	charlie := results["charlie"]
	assert.False(t, charlie.Success)
	assert.Contains(t, charlie.Error, "panic in site task")
	assert.Contains(t, charlie.Error, "results markup changed")

	// Every site got a fresh session and every session was torn down
	assert.Equal(t, 3, factory.createdCount())
	for _, sess := range factory.sessions {
		assert.True(t, sess.isClosed(), "session %s left open", sess.id)
	}
	for _, dir := range factory.dirs {
		assert.NoDirExists(t, dir)
	}
}

func TestSearchAllAirlinesFilterSubset(t *testing.T) {
	cfg := orchestratorTestConfig()
	factory := &stubFactory{}
	adapter := &scriptedAdapter{
		family: models.FamilyCrane,
		run: func(site models.SiteConfig, req *models.SearchRequest) (*models.FlightData, error) {
			return &models.FlightData{Departure: []models.FlightResult{{FlightNumber: "AL 101"}}}, nil
		},
	}

	pm := newRunningPoolManager(t, cfg)
	orch := scraper.NewOrchestrator(cfg, scraper.NewRegistry(orchestratorTestSites()), factory, &scriptedAdapterFactory{adapter: adapter}, pm)

	results, err := orch.SearchAllAirlines(context.Background(), orchestratorSearchRequest(), " ALPHA ")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results["alpha"].Success)
	assert.Equal(t, 1, factory.createdCount())
}

func TestSearchAllAirlinesStableKeySet(t *testing.T) {
	cfg := orchestratorTestConfig()
	factory := &stubFactory{}
	adapter := &scriptedAdapter{
		family: models.FamilyCrane,
		run: func(site models.SiteConfig, req *models.SearchRequest) (*models.FlightData, error) {
			if site.Key == "bravo" {
				return nil, errors.New("availability page unreachable")
			}
			return &models.FlightData{Departure: []models.FlightResult{{FlightNumber: "AL 101"}}}, nil
		},
	}

	pm := newRunningPoolManager(t, cfg)
	orch := scraper.NewOrchestrator(cfg, scraper.NewRegistry(orchestratorTestSites()), factory, &scriptedAdapterFactory{adapter: adapter}, pm)

	first, err := orch.SearchAllAirlines(context.Background(), orchestratorSearchRequest(), "")
	require.NoError(t, err)
	second, err := orch.SearchAllAirlines(context.Background(), orchestratorSearchRequest(), "")
	require.NoError(t, err)

	// Same request, same filter: the key set must not drift between runs
	// even though collection order is completion order
	require.Len(t, second, len(first))
	for key := range first {
		assert.Contains(t, second, key)
	}
}

func TestSearchAllAirlinesUnknownFilter(t *testing.T) {
	cfg := orchestratorTestConfig()
	orch := scraper.NewOrchestrator(cfg, scraper.NewRegistry(orchestratorTestSites()), &stubFactory{}, &scriptedAdapterFactory{adapter: &scriptedAdapter{family: models.FamilyCrane}}, workers.NewPoolManager(cfg))

	results, err := orch.SearchAllAirlines(context.Background(), orchestratorSearchRequest(), "alpha,delta")
	require.Error(t, err)
	assert.Nil(t, results)
	assert.Contains(t, err.Error(), "unknown airline key(s)")
	assert.Contains(t, err.Error(), "delta")
}

func TestSearchAllAirlinesSetupFailures(t *testing.T) {
	cfg := orchestratorTestConfig()
	factory := &stubFactory{
		failFor: map[string]error{"alpha": errors.New("browser launch failed")},
	}
	adapter := &scriptedAdapter{
		family: models.FamilyCrane,
		run: func(site models.SiteConfig, req *models.SearchRequest) (*models.FlightData, error) {
			return &models.FlightData{}, nil
		},
	}
	sites := []models.SiteConfig{
		{Name: "Alpha Air", URL: "https://book.alpha-air.test/ibe/availability", Family: models.FamilyCrane, Key: "alpha"},
		{Name: "Foxtrot Express", URL: "https://book.foxtrot.test/reserve", Family: models.FamilyVidecom, Key: "foxtrot"},
	}

	pm := newRunningPoolManager(t, cfg)
	orch := scraper.NewOrchestrator(cfg, scraper.NewRegistry(sites), factory, &scriptedAdapterFactory{adapter: adapter}, pm)

	results, err := orch.SearchAllAirlines(context.Background(), orchestratorSearchRequest(), "")
	require.NoError(t, err)
	require.Len(t, results, 2)

	alpha := results["alpha"]
	assert.False(t, alpha.Success)
	assert.Contains(t, alpha.Error, "browser launch failed")

	foxtrot := results["foxtrot"]
	assert.False(t, foxtrot.Success)
	assert.Contains(t, foxtrot.Error, "no adapter registered")

	assert.Zero(t, factory.createdCount())
}
