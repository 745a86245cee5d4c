package challenge

import (
	"context"
	"fmt"
	"time"

	api2captcha "github.com/2captcha/2captcha-go"

	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/logging"
	"aerofinder-utils/internal/logging/types"
)

// CaptchaSolver solves hosted captcha challenges through an external service
type CaptchaSolver interface {
	SolveTurnstile(ctx context.Context, siteKey, pageURL string) (string, error)
	SolveRecaptcha(ctx context.Context, siteKey, pageURL string) (string, error)
	IsHealthy() bool
}

// TwoCaptchaSolver implements 2CAPTCHA service integration using the official library
type TwoCaptchaSolver struct {
	config *config.Config
	client *api2captcha.Client
	logger types.Logger
}

// NewTwoCaptchaSolver creates a new 2CAPTCHA solver instance
func NewTwoCaptchaSolver(cfg *config.Config) *TwoCaptchaSolver {
	logger := logging.GetGlobalLogger().WithField("component", "2captcha")

	if cfg.Scraper.Captcha.APIKey == "" {
		logger.Warn("2CAPTCHA API key not configured - captcha solving will be disabled", map[string]interface{}{})
	}

	client := api2captcha.NewClient(cfg.Scraper.Captcha.APIKey)

	// Configure timeouts
	client.DefaultTimeout = int(cfg.Scraper.Captcha.Timeout.Seconds())
	client.RecaptchaTimeout = int(cfg.Scraper.Captcha.Timeout.Seconds())

	pollingInterval := int(cfg.Scraper.Captcha.PollingInterval.Seconds())
	if pollingInterval <= 0 {
		pollingInterval = 5
	}
	client.PollingInterval = pollingInterval

	logger.Info("2CAPTCHA client configured", map[string]interface{}{
		"default_timeout":   client.DefaultTimeout,
		"polling_interval":  client.PollingInterval,
		"enable_auto_solve": cfg.Scraper.Captcha.EnableAutoSolve,
	})

	return &TwoCaptchaSolver{
		config: cfg,
		client: client,
		logger: logger,
	}
}

// SolveTurnstile solves a Cloudflare Turnstile challenge using the 2CAPTCHA service
func (tcs *TwoCaptchaSolver) SolveTurnstile(ctx context.Context, siteKey, pageURL string) (string, error) {
	if !tcs.config.Scraper.Captcha.EnableAutoSolve {
		return "", fmt.Errorf("captcha auto-solve is disabled")
	}

	if tcs.config.Scraper.Captcha.APIKey == "" {
		return "", fmt.Errorf("2CAPTCHA API key not configured")
	}

	tcs.logger.Info("Starting Cloudflare Turnstile solving", map[string]interface{}{
		"site_key": siteKey,
		"page_url": pageURL,
	})

	startTime := time.Now()

	captcha := api2captcha.CloudflareTurnstile{
		SiteKey: siteKey,
		Url:     pageURL,
	}

	req := captcha.ToRequest()
	code, captchaID, err := tcs.client.Solve(req)
	if err != nil {
		tcs.logger.Error("Failed to solve Cloudflare Turnstile", map[string]interface{}{
			"site_key":   siteKey,
			"page_url":   pageURL,
			"captcha_id": captchaID,
			"error":      err.Error(),
		})
		return "", fmt.Errorf("failed to solve Cloudflare Turnstile: %w", err)
	}

	tcs.logger.Info("Successfully solved Cloudflare Turnstile", map[string]interface{}{
		"site_key":     siteKey,
		"solving_time": time.Since(startTime).String(),
	})

	return code, nil
}

// SolveRecaptcha solves a reCAPTCHA challenge using the 2CAPTCHA service
func (tcs *TwoCaptchaSolver) SolveRecaptcha(ctx context.Context, siteKey, pageURL string) (string, error) {
	if !tcs.config.Scraper.Captcha.EnableAutoSolve {
		return "", fmt.Errorf("captcha auto-solve is disabled")
	}

	if tcs.config.Scraper.Captcha.APIKey == "" {
		return "", fmt.Errorf("2CAPTCHA API key not configured")
	}

	tcs.logger.Info("Starting reCAPTCHA solving", map[string]interface{}{
		"site_key": siteKey,
		"page_url": pageURL,
	})

	startTime := time.Now()

	captcha := api2captcha.ReCaptcha{
		SiteKey: siteKey,
		Url:     pageURL,
	}

	req := captcha.ToRequest()
	code, _, err := tcs.client.Solve(req)
	if err != nil {
		tcs.logger.Error("Failed to solve reCAPTCHA", map[string]interface{}{
			"site_key": siteKey,
			"page_url": pageURL,
			"error":    err.Error(),
		})
		return "", fmt.Errorf("failed to solve reCAPTCHA: %w", err)
	}

	tcs.logger.Info("Successfully solved reCAPTCHA", map[string]interface{}{
		"site_key":     siteKey,
		"solving_time": time.Since(startTime).String(),
	})

	return code, nil
}

// IsHealthy checks if the 2CAPTCHA service is available
func (tcs *TwoCaptchaSolver) IsHealthy() bool {
	if tcs.config.Scraper.Captcha.APIKey == "" {
		return false
	}

	// Check balance to verify the API key is working
	balance, err := tcs.client.GetBalance()
	if err != nil {
		tcs.logger.Error("2CAPTCHA health check failed", map[string]interface{}{
			"error": err.Error(),
		})
		return false
	}

	return balance >= 0
}
