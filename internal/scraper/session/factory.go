package session

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/logging"
	"aerofinder-utils/internal/logging/types"
	"aerofinder-utils/pkg/models"
	"aerofinder-utils/pkg/utils"
)

// Factory creates browser sessions bound to airline sites
type Factory interface {
	// Create launches a fresh browser session for the given site. A non-empty
	// proxyIP routes the session's traffic through that proxy.
	Create(ctx context.Context, site models.SiteConfig, proxyIP string) (Session, error)

	// Stats returns counters describing factory activity
	Stats() Stats

	// Cleanup releases factory-level resources
	Cleanup()
}

// Stats describes session factory activity
type Stats struct {
	ActiveSessions int64 `json:"active_sessions"`
	TotalCreated   int64 `json:"total_created"`
	TotalFailed    int64 `json:"total_failed"`
}

// defaultUserAgents is the rotation pool used when none is configured
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// RodFactory creates rod-backed browser sessions
type RodFactory struct {
	config *config.Config
	logger types.Logger

	active  atomic.Int64
	created atomic.Int64
	failed  atomic.Int64
}

// NewRodFactory creates a new rod session factory
func NewRodFactory(cfg *config.Config) *RodFactory {
	return &RodFactory{
		config: cfg,
		logger: logging.GetGlobalLogger(),
	}
}

// Create launches a fresh browser with its own profile directory, applies
// stealth and fingerprint overrides and returns the bound session. All
// partially created resources are released when any step fails.
func (f *RodFactory) Create(ctx context.Context, site models.SiteConfig, proxyIP string) (Session, error) {
	profileDir, err := os.MkdirTemp("", "aerofinder-profile-*")
	if err != nil {
		f.failed.Add(1)
		return nil, utils.NewSessionCreationError(fmt.Sprintf("failed to create profile directory: %v", err))
	}

	userAgent := f.pickUserAgent()
	l := f.buildLauncher(profileDir, proxyIP, userAgent)

	controlURL, err := l.Launch()
	if err != nil {
		l.Cleanup()
		os.RemoveAll(profileDir)
		f.failed.Add(1)
		return nil, utils.NewSessionCreationError(fmt.Sprintf("failed to launch browser: %v", err))
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		os.RemoveAll(profileDir)
		f.failed.Add(1)
		return nil, utils.NewSessionCreationError(fmt.Sprintf("failed to connect to browser: %v", err))
	}

	page, err := f.createStealthPage(browser)
	if err != nil {
		browser.Close()
		l.Cleanup()
		os.RemoveAll(profileDir)
		f.failed.Add(1)
		return nil, utils.NewSessionCreationError(fmt.Sprintf("failed to create stealth page: %v", err))
	}

	f.configurePage(page, userAgent)

	sess := &rodSession{
		id:         utils.GenerateRequestID(),
		siteKey:    site.Key,
		family:     site.Family,
		browser:    browser,
		page:       page,
		launcher:   l,
		profileDir: profileDir,
		config:     f.config,
		logger:     f.logger,
		onClose: func() {
			f.active.Add(-1)
		},
	}

	f.active.Add(1)
	f.created.Add(1)

	f.logger.Info("Browser session created", map[string]interface{}{
		"session_id": sess.id,
		"site":       site.Key,
		"family":     string(site.Family),
		"proxy":      proxyIP != "",
	})

	return sess, nil
}

// Stats returns counters describing factory activity
func (f *RodFactory) Stats() Stats {
	return Stats{
		ActiveSessions: f.active.Load(),
		TotalCreated:   f.created.Load(),
		TotalFailed:    f.failed.Load(),
	}
}

// Cleanup releases factory-level resources. Sessions own their browsers, so
// there is nothing pooled to tear down here.
func (f *RodFactory) Cleanup() {
	f.logger.Info("Session factory cleanup completed", map[string]interface{}{
		"total_created": f.created.Load(),
		"total_failed":  f.failed.Load(),
	})
}

// buildLauncher assembles the browser launcher with stealth and container flags
func (f *RodFactory) buildLauncher(profileDir, proxyIP, userAgent string) *launcher.Launcher {
	cfg := f.config.Scraper

	l := launcher.New().
		Headless(cfg.HeadlessMode).
		NoSandbox(true).
		UserDataDir(profileDir).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-web-security").
		Set("disable-background-timer-throttling").    // Prevent render delays
		Set("disable-backgrounding-occluded-windows"). // Keep rendering active
		Set("disable-renderer-backgrounding").         // Prevent background throttling
		Set("disable-gpu").           // Prevents GPU context failures in containers
		Set("disable-dev-shm-usage"). // Overcomes container shared memory limits
		Set("window-size", fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight)).
		Set("lang", cfg.Language)

	if cfg.DisableImages {
		l = l.Set("blink-settings", "imagesEnabled=false")
	}

	// Use system-installed Chrome/Chromium instead of downloading
	if chromePath := f.systemChromePath(); chromePath != "" {
		l = l.Bin(chromePath)
	} else {
		f.logger.Warn("System Chrome not found, Rod will download browser", map[string]interface{}{})
	}

	if userAgent != "" {
		l = l.Set("user-agent", userAgent)
	}

	if proxyIP != "" {
		l = l.Proxy(proxyIP)
	} else if cfg.ProxyURL != "" {
		l = l.Proxy(cfg.ProxyURL)
	}

	return l
}

// createStealthPage creates a new page with stealth mode enabled
func (f *RodFactory) createStealthPage(browser *rod.Browser) (*rod.Page, error) {
	if f.config.Scraper.StealthMode {
		page, err := stealth.Page(browser)
		if err != nil {
			return nil, fmt.Errorf("failed to create stealth page: %w", err)
		}
		return page, nil
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return page, nil
}

// configurePage applies viewport, user agent, headers and fingerprint
// overrides to a fresh page. Failures here degrade the session rather than
// abort it, so they are logged and skipped.
func (f *RodFactory) configurePage(page *rod.Page, userAgent string) {
	cfg := f.config.Scraper

	err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.WindowWidth,
		Height:            cfg.WindowHeight,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		f.logger.Warn("Failed to set viewport", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if userAgent != "" {
		err = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent: userAgent,
		})
		if err != nil {
			f.logger.Warn("Failed to set user agent", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	// Set additional headers to appear more human-like
	acceptLanguage := "en-US,en;q=0.9"
	if cfg.Language != "" {
		acceptLanguage = fmt.Sprintf("%s,en;q=0.9", cfg.Language)
	}

	headers := map[string]string{
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8",
		"Accept-Language":           acceptLanguage,
		"Accept-Encoding":           "gzip, deflate, br",
		"Cache-Control":             "no-cache",
		"Pragma":                    "no-cache",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Sec-Fetch-User":            "?1",
		"Upgrade-Insecure-Requests": "1",
	}

	for name, value := range headers {
		_, err := page.SetExtraHeaders([]string{name, value})
		if err != nil {
			f.logger.Debug("Failed to set header", map[string]interface{}{
				"error":  err.Error(),
				"header": name,
			})
		}
	}

	// Spoof a stable local geolocation so sites serve their local market
	f.applyGeolocation(page)

	// Inject additional stealth JavaScript to mask automation
	err = rod.Try(func() {
		page.MustEval(`() => {
			// Override webdriver property
			Object.defineProperty(navigator, 'webdriver', {
				get: () => undefined,
			});

			// Override automation-related properties
			Object.defineProperty(navigator, 'plugins', {
				get: () => [1, 2, 3, 4, 5],
			});

			Object.defineProperty(navigator, 'languages', {
				get: () => ['en-US', 'en'],
			});

			// Override chrome property
			window.chrome = {
				runtime: {},
			};

			// Override permissions
			const originalQuery = window.navigator.permissions.query;
			window.navigator.permissions.query = (parameters) => (
				parameters.name === 'notifications' ?
					Promise.resolve({ state: Notification.permission }) :
					originalQuery(parameters)
			);

			// Override WebRTC
			let RTCPeerConnection = window.RTCPeerConnection || window.mozRTCPeerConnection || window.webkitRTCPeerConnection;
			if (RTCPeerConnection) {
				window.RTCPeerConnection = function() {
					throw new Error('WebRTC is disabled');
				};
			}
		}`)
	})
	if err != nil {
		f.logger.Warn("Failed to inject stealth JavaScript", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// applyGeolocation grants the geolocation permission and overrides the
// reported coordinates with the configured ones
func (f *RodFactory) applyGeolocation(page *rod.Page) {
	geo := f.config.Scraper.Geolocation

	err := proto.BrowserGrantPermissions{
		Permissions: []proto.BrowserPermissionType{proto.BrowserPermissionTypeGeolocation},
	}.Call(page)
	if err != nil {
		f.logger.Warn("Failed to grant geolocation permission", map[string]interface{}{
			"error": err.Error(),
		})
	}

	lat := geo.Latitude
	lng := geo.Longitude
	acc := float64(geo.Accuracy)

	err = proto.EmulationSetGeolocationOverride{
		Latitude:  &lat,
		Longitude: &lng,
		Accuracy:  &acc,
	}.Call(page)
	if err != nil {
		f.logger.Warn("Failed to override geolocation", map[string]interface{}{
			"error": err.Error(),
		})
	}

	err = proto.EmulationSetTimezoneOverride{
		TimezoneID: "Africa/Lagos",
	}.Call(page)
	if err != nil {
		f.logger.Warn("Failed to override timezone", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// pickUserAgent returns a random user agent from the configured pool
func (f *RodFactory) pickUserAgent() string {
	pool := f.config.Scraper.UserAgents
	if len(pool) == 0 {
		pool = defaultUserAgents
	}
	return pool[rand.Intn(len(pool))]
}

// systemChromePath finds the system-installed Chrome/Chromium browser
func (f *RodFactory) systemChromePath() string {
	if f.config.Scraper.ChromePath != "" {
		if _, err := os.Stat(f.config.Scraper.ChromePath); err == nil {
			return f.config.Scraper.ChromePath
		}
	}

	// Check environment variables (container configuration)
	if chromeBin := os.Getenv("CHROME_BIN"); chromeBin != "" {
		if _, err := os.Stat(chromeBin); err == nil {
			return chromeBin
		}
	}

	if chromePath := os.Getenv("CHROME_PATH"); chromePath != "" {
		if _, err := os.Stat(chromePath); err == nil {
			return chromePath
		}
	}

	// Check common Chrome/Chromium paths
	commonPaths := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/opt/google/chrome/chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	}

	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
