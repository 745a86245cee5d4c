package challenge

import (
	"net/url"
	"strings"

	"aerofinder-utils/pkg/utils"
)

// State describes what kind of bot challenge, if any, a page is showing
type State int

const (
	// StateNoChallenge means the page shows no interstitial and is clear to use
	StateNoChallenge State = iota
	// StateAutoResolving means a managed challenge is running with no widget
	StateAutoResolving
	// StateInteractiveWidget means a captcha widget needs a solved token
	StateInteractiveWidget
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateNoChallenge:
		return "NO_CHALLENGE"
	case StateAutoResolving:
		return "AUTO_RESOLVING"
	case StateInteractiveWidget:
		return "INTERACTIVE_WIDGET"
	default:
		return "UNKNOWN"
	}
}

// challengeIndicators are markers of a bot-protection interstitial
var challengeIndicators = []string{
	"cf-challenge",
	"just a moment",
	"please wait while we verify",
	"checking your browser",
	"ddos protection by cloudflare",
	"enable javascript and cookies",
	"security verification",
	"cf-browser-verification",
	"__cf_chl_jschl_tk__",
	"performance & security by cloudflare",
}

// widgetIndicators are markers of an interactive captcha widget
var widgetIndicators = []string{
	"cf-turnstile",
	"data-sitekey",
	"turnstile.render",
	"g-recaptcha",
}

// Detect classifies the page content into a challenge state
func Detect(html, title string) State {
	content := strings.ToLower(html)
	titleLower := strings.ToLower(title)

	onChallengePage := strings.Contains(titleLower, "just a moment") || containsAny(content, challengeIndicators)
	if !onChallengePage {
		return StateNoChallenge
	}

	if containsAny(content, widgetIndicators) {
		return StateInteractiveWidget
	}

	return StateAutoResolving
}

// IsClear reports whether the page shows no challenge markers at all
func IsClear(html, title string) bool {
	return Detect(html, title) == StateNoChallenge
}

// turnstileSitekeyPatterns extract a Turnstile site key from page source, in
// order of preference: widget attributes, render calls, embedded JSON config,
// challenge iframe URLs, then challenge script URLs.
var turnstileSitekeyPatterns = []string{
	// Widget data-sitekey attributes
	`<div[^>]*class="[^"]*cf-turnstile[^"]*"[^>]*data-sitekey="([^"]+)"`,
	`<div[^>]*data-sitekey="([^"]+)"[^>]*class="[^"]*cf-turnstile[^"]*"`,
	`cf-turnstile[^>]*data-sitekey=['"]([^'"]+)['"]`,
	`data-sitekey="([^"]+)"`,
	`data-sitekey='([^']+)'`,

	// Explicit render calls
	`turnstile\.render\([^)]*['"]([0-9a-zA-Z_-]{20,})['"]`,
	`window\.turnstile.*?sitekey['"]\s*:\s*['"]([^'"]+)['"]`,

	// Embedded JSON configuration
	`"sitekey"\s*:\s*"([^"]+)"`,
	`'sitekey'\s*:\s*'([^']+)'`,

	// Challenge iframe URLs carry the key as a path segment
	`<iframe[^>]*src="[^"]*challenges\.cloudflare\.com[^"]*/(0x[0-9a-zA-Z_-]+)/[^"]*"`,
	`challenges\.cloudflare\.com/cdn-cgi/challenge-platform/[^"]*/(0x[0-9a-zA-Z_-]+)/`,
	`challenges\.cloudflare\.com[^"]*/(0x[0-9a-zA-Z_-]+)/`,

	// Challenge script URLs carry the key as a query parameter
	`challenges\.cloudflare\.com[^"]*[?&]sitekey=([0-9a-zA-Z_-]{20,})`,
	`api\.js[^"]*[?&]render=([0-9a-zA-Z_-]{20,})`,
}

// ExtractTurnstileSitekey extracts a Cloudflare Turnstile site key from HTML
// content, or returns an empty string when none is recoverable
func ExtractTurnstileSitekey(html string) string {
	for _, pattern := range turnstileSitekeyPatterns {
		if matches := utils.FindRegexMatch(html, pattern); len(matches) > 1 {
			siteKey := strings.TrimSpace(matches[1])
			if len(siteKey) > 10 {
				return siteKey
			}
		}
	}
	return ""
}

// recaptchaSitekeyPatterns extract a reCAPTCHA site key from page source
var recaptchaSitekeyPatterns = []string{
	`<div[^>]*class="[^"]*g-recaptcha[^"]*"[^>]*data-sitekey="([^"]+)"`,
	`<div[^>]*data-sitekey="([^"]+)"[^>]*class="[^"]*g-recaptcha[^"]*"`,
	`data-sitekey="([^"]+)"`,
	`data-sitekey='([^']+)'`,
	`"sitekey"\s*:\s*"([^"]+)"`,
	`'sitekey'\s*:\s*'([^']+)'`,
}

// ExtractRecaptchaSitekey extracts a reCAPTCHA site key from HTML content,
// or returns an empty string when none is recoverable
func ExtractRecaptchaSitekey(html string) string {
	for _, pattern := range recaptchaSitekeyPatterns {
		if matches := utils.FindRegexMatch(html, pattern); len(matches) > 1 {
			siteKey := strings.TrimSpace(matches[1])
			if len(siteKey) > 10 {
				return siteKey
			}
		}
	}
	return ""
}

// SanitizeChallengeURL strips challenge-tracking query parameters from a URL
// so the solver sees the page address the widget was issued for
func SanitizeChallengeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	q := u.Query()
	for key := range q {
		if strings.HasPrefix(key, "__cf_chl") {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// containsAny reports whether s contains any of the given substrings
func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
