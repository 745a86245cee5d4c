package session

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/logging/types"
	"aerofinder-utils/pkg/models"
)

// Session is a live browser tab bound to one airline site. All page
// interaction during a search goes through this interface so site adapters
// and the challenge resolver never touch the browser engine directly.
type Session interface {
	// ID returns the unique session identifier
	ID() string

	// SiteKey returns the registry key of the site this session was created for
	SiteKey() string

	// Family returns the site family of the bound site
	Family() models.SiteFamily

	// Navigate loads the URL and waits for the page load event
	Navigate(ctx context.Context, url string) error

	// WaitForSelector waits for an element matching the selector to appear
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error

	// Click clicks the first element matching the selector
	Click(ctx context.Context, selector string) error

	// Input clears the first element matching the selector and types the text
	Input(ctx context.Context, selector string, text string) error

	// Eval runs JavaScript on the page for its side effects
	Eval(ctx context.Context, js string) error

	// EvalString runs JavaScript on the page and returns its string result
	EvalString(ctx context.Context, js string) (string, error)

	// HTML returns the full HTML of the current page
	HTML(ctx context.Context) (string, error)

	// CurrentURL returns the URL the page is currently on
	CurrentURL(ctx context.Context) (string, error)

	// Title returns the current page title
	Title(ctx context.Context) (string, error)

	// Screenshot captures a JPEG screenshot of the current viewport
	Screenshot(ctx context.Context) ([]byte, error)

	// SimulateHumanActivity performs mouse, keyboard and scroll activity on
	// the page to help managed challenges clear on their own
	SimulateHumanActivity(ctx context.Context) error

	// Close tears down the browser and removes the session profile directory.
	// Safe to call more than once.
	Close() error
}

// rodSession is the rod-backed Session implementation
type rodSession struct {
	id         string
	siteKey    string
	family     models.SiteFamily
	browser    *rod.Browser
	page       *rod.Page
	launcher   *launcher.Launcher
	profileDir string
	config     *config.Config
	logger     types.Logger

	closeOnce sync.Once
	closeErr  error
	onClose   func()
}

func (s *rodSession) ID() string {
	return s.id
}

func (s *rodSession) SiteKey() string {
	return s.siteKey
}

func (s *rodSession) Family() models.SiteFamily {
	return s.family
}

// Navigate navigates the page to the specified URL and waits for load
func (s *rodSession) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.config.Scraper.PageLoadTimeout)
	defer cancel()

	err := rod.Try(func() {
		s.page.Context(navCtx).MustNavigate(url).MustWaitLoad()
	})

	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	s.logger.Debug("Successfully navigated to URL", map[string]interface{}{
		"session_id": s.id,
		"site":       s.siteKey,
		"url":        url,
	})
	return nil
}

// WaitForSelector waits for an element to appear on the page
func (s *rodSession) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := rod.Try(func() {
		s.page.Context(waitCtx).MustElement(selector)
	})

	if err != nil {
		return fmt.Errorf("element with selector '%s' not found within timeout: %w", selector, err)
	}

	return nil
}

// Click clicks the first element matching the selector
func (s *rodSession) Click(ctx context.Context, selector string) error {
	clickCtx, cancel := context.WithTimeout(ctx, s.config.Scraper.ElementTimeout)
	defer cancel()

	err := rod.Try(func() {
		s.page.Context(clickCtx).MustElement(selector).MustClick()
	})

	if err != nil {
		return fmt.Errorf("failed to click element '%s': %w", selector, err)
	}

	return nil
}

// Input clears the matching element and types the given text into it
func (s *rodSession) Input(ctx context.Context, selector string, text string) error {
	inputCtx, cancel := context.WithTimeout(ctx, s.config.Scraper.ElementTimeout)
	defer cancel()

	err := rod.Try(func() {
		el := s.page.Context(inputCtx).MustElement(selector)
		el.MustSelectAllText()
		el.MustInput(text)
	})

	if err != nil {
		return fmt.Errorf("failed to input text into element '%s': %w", selector, err)
	}

	return nil
}

// Eval runs JavaScript on the page for its side effects
func (s *rodSession) Eval(ctx context.Context, js string) error {
	err := rod.Try(func() {
		s.page.Context(ctx).MustEval(js)
	})

	if err != nil {
		return fmt.Errorf("failed to evaluate script: %w", err)
	}

	return nil
}

// EvalString runs JavaScript on the page and returns the string result
func (s *rodSession) EvalString(ctx context.Context, js string) (string, error) {
	var result string

	err := rod.Try(func() {
		result = s.page.Context(ctx).MustEval(js).Str()
	})

	if err != nil {
		return "", fmt.Errorf("failed to evaluate script: %w", err)
	}

	return result, nil
}

// HTML returns the full HTML content of the current page
func (s *rodSession) HTML(ctx context.Context) (string, error) {
	var html string

	err := rod.Try(func() {
		html = s.page.Context(ctx).MustHTML()
	})

	if err != nil {
		return "", fmt.Errorf("failed to get page HTML: %w", err)
	}

	return html, nil
}

// CurrentURL returns the URL the page is currently on
func (s *rodSession) CurrentURL(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("failed to get page info: %w", err)
	}
	return info.URL, nil
}

// Title returns the current page title
func (s *rodSession) Title(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("failed to get page info: %w", err)
	}
	return info.Title, nil
}

// Screenshot captures a JPEG screenshot of the current viewport
func (s *rodSession) Screenshot(ctx context.Context) ([]byte, error) {
	captureCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	quality := 80
	screenshot, err := s.page.Context(captureCtx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: &quality,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}

	return screenshot, nil
}

// SimulateHumanActivity simulates human-like behavior to help managed
// challenges clear on their own
func (s *rodSession) SimulateHumanActivity(ctx context.Context) error {
	err := rod.Try(func() {
		page := s.page.Context(ctx)

		// Get page dimensions
		viewport := page.MustEval(`() => ({
			width: window.innerWidth,
			height: window.innerHeight
		})`)

		width := int(viewport.Get("width").Num())
		height := int(viewport.Get("height").Num())

		// Simulate natural mouse movements with curves
		for i := 0; i < 3; i++ {
			startX := 100 + (i * 70) + (i % 3 * 110)
			startY := 120 + (i * 40) + (i % 2 * 130)
			endX := startX + 60 + (i * 25)
			endY := startY + 35 + (i * 20)

			if startX < width && startY < height && endX < width && endY < height {
				page.Mouse.MustMoveTo(float64(startX), float64(startY))
				time.Sleep(time.Duration(150+i*100) * time.Millisecond)

				midX := (startX + endX) / 2
				midY := (startY + endY) / 2
				page.Mouse.MustMoveTo(float64(midX), float64(midY))
				time.Sleep(time.Duration(80+i*50) * time.Millisecond)
				page.Mouse.MustMoveTo(float64(endX), float64(endY))
				time.Sleep(time.Duration(200+i*80) * time.Millisecond)
			}
		}

		// Simulate keyboard activity
		page.MustEval(`() => {
			document.body.focus();
			const events = ['keydown', 'keyup'];
			events.forEach(event => {
				document.dispatchEvent(new KeyboardEvent(event, {key: 'Tab'}));
			});
		}`)
		time.Sleep(300 * time.Millisecond)

		// Simulate varied scrolling patterns
		page.MustEval(`() => {
			window.scrollTo({top: 180, behavior: 'smooth'});
			setTimeout(() => {
				window.scrollTo({top: 40, behavior: 'smooth'});
			}, 600);
			setTimeout(() => {
				window.scrollTo({top: 0, behavior: 'smooth'});
			}, 1200);
		}`)
		time.Sleep(1500 * time.Millisecond)

		// Trigger focus and visibility events
		page.MustEval(`() => {
			window.dispatchEvent(new Event('focus'));
			setTimeout(() => {
				window.dispatchEvent(new Event('blur'));
			}, 200);
			setTimeout(() => {
				window.dispatchEvent(new Event('focus'));
			}, 400);
			document.dispatchEvent(new Event('visibilitychange'));
		}`)
	})

	if err != nil {
		return fmt.Errorf("failed to simulate human activity: %w", err)
	}

	s.logger.Debug("Human activity simulation completed", map[string]interface{}{
		"session_id": s.id,
		"site":       s.siteKey,
	})
	return nil
}

// Close tears down the page, browser, launcher and profile directory.
// It is idempotent so retry paths can close defensively.
func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		if s.page != nil {
			if err := s.page.Close(); err != nil {
				s.logger.Debug("Failed to close page", map[string]interface{}{
					"session_id": s.id,
					"error":      err.Error(),
				})
			}
		}

		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				s.closeErr = fmt.Errorf("failed to close browser: %w", err)
			}
		}

		if s.launcher != nil {
			s.launcher.Cleanup()
		}

		if s.profileDir != "" {
			if err := os.RemoveAll(s.profileDir); err != nil && s.closeErr == nil {
				s.closeErr = fmt.Errorf("failed to remove profile directory: %w", err)
			}
		}

		if s.onClose != nil {
			s.onClose()
		}

		s.logger.Debug("Browser session closed", map[string]interface{}{
			"session_id": s.id,
			"site":       s.siteKey,
		})
	})

	return s.closeErr
}
