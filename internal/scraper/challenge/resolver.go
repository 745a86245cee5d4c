package challenge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/logging"
	"aerofinder-utils/internal/logging/types"
	"aerofinder-utils/internal/scraper/session"
)

const (
	// pollInterval is the delay between challenge state checks
	pollInterval = 1 * time.Second

	// resolutionWindow bounds how long to wait for a page to settle after a
	// solved token has been injected
	resolutionWindow = 15 * time.Second

	// activityEvery controls how often human activity is simulated while a
	// managed challenge is running, in poll iterations
	activityEvery = 3
)

// Checker is the challenge-resolution surface site adapters depend on.
// Both methods report pass/fail only; resolution failures are logged, never
// returned as errors.
type Checker interface {
	// CheckAndResolve clears any bot challenge on the current page,
	// returning true when the page is safe to proceed
	CheckAndResolve(ctx context.Context, sess session.Session, maxWait time.Duration) bool

	// HandleRecaptcha solves a reCAPTCHA widget if one is present
	HandleRecaptcha(ctx context.Context, sess session.Session) bool
}

// Resolver drives bot challenges to completion before a search proceeds
type Resolver struct {
	config *config.Config
	solver CaptchaSolver
	logger types.Logger
}

// NewResolver creates a challenge resolver backed by the given solver
func NewResolver(cfg *config.Config, solver CaptchaSolver) *Resolver {
	return &Resolver{
		config: cfg,
		solver: solver,
		logger: logging.GetGlobalLogger(),
	}
}

// CheckAndResolve inspects the session's current page for a bot challenge and
// drives it to completion. It returns true when the page is clear to proceed
// and false when a challenge was detected but could not be resolved within
// budget. It never returns an error; every failure maps to false.
func (r *Resolver) CheckAndResolve(ctx context.Context, sess session.Session, maxWait time.Duration) bool {
	state, html, err := r.currentState(ctx, sess)
	if err != nil {
		r.logger.Warn("Failed to inspect page for challenge", map[string]interface{}{
			"session_id": sess.ID(),
			"site":       sess.SiteKey(),
			"error":      err.Error(),
		})
		return false
	}

	r.logger.Debug("Challenge state detected", map[string]interface{}{
		"session_id": sess.ID(),
		"site":       sess.SiteKey(),
		"state":      state.String(),
	})

	switch state {
	case StateNoChallenge:
		return true
	case StateAutoResolving:
		return r.waitOutManagedChallenge(ctx, sess, maxWait)
	case StateInteractiveWidget:
		return r.solveWidget(ctx, sess, html)
	default:
		return false
	}
}

// HandleRecaptcha checks the session's current page for a reCAPTCHA widget
// and solves it when present. A page without a widget is a no-op success.
func (r *Resolver) HandleRecaptcha(ctx context.Context, sess session.Session) bool {
	html, err := sess.HTML(ctx)
	if err != nil {
		r.logger.Warn("Failed to inspect page for reCAPTCHA", map[string]interface{}{
			"session_id": sess.ID(),
			"site":       sess.SiteKey(),
			"error":      err.Error(),
		})
		return false
	}

	content := strings.ToLower(html)
	if !strings.Contains(content, "g-recaptcha") && !strings.Contains(content, "recaptcha") {
		return true
	}

	siteKey := r.extractRecaptchaSitekey(ctx, sess, html)
	if siteKey == "" {
		r.logger.Warn("reCAPTCHA widget present but no site key recoverable", map[string]interface{}{
			"session_id": sess.ID(),
			"site":       sess.SiteKey(),
		})
		return false
	}

	pageURL, err := sess.CurrentURL(ctx)
	if err != nil {
		r.logger.Warn("Failed to read page URL for reCAPTCHA solve", map[string]interface{}{
			"session_id": sess.ID(),
			"error":      err.Error(),
		})
		return false
	}

	token, err := r.solver.SolveRecaptcha(ctx, siteKey, SanitizeChallengeURL(pageURL))
	if err != nil {
		r.logger.Error("reCAPTCHA solve failed", map[string]interface{}{
			"session_id": sess.ID(),
			"site":       sess.SiteKey(),
			"error":      err.Error(),
		})
		return false
	}

	if err := r.injectRecaptchaToken(ctx, sess, token); err != nil {
		r.logger.Error("reCAPTCHA token injection failed", map[string]interface{}{
			"session_id": sess.ID(),
			"site":       sess.SiteKey(),
			"error":      err.Error(),
		})
		return false
	}

	r.logger.Info("reCAPTCHA resolved", map[string]interface{}{
		"session_id": sess.ID(),
		"site":       sess.SiteKey(),
	})
	return true
}

// currentState reads the page and classifies its challenge state
func (r *Resolver) currentState(ctx context.Context, sess session.Session) (State, string, error) {
	html, err := sess.HTML(ctx)
	if err != nil {
		return StateNoChallenge, "", err
	}

	title, err := sess.Title(ctx)
	if err != nil {
		title = ""
	}

	return Detect(html, title), html, nil
}

// waitOutManagedChallenge polls a managed challenge until it clears, a widget
// appears, or the wait budget runs out
func (r *Resolver) waitOutManagedChallenge(ctx context.Context, sess session.Session, maxWait time.Duration) bool {
	r.logger.Info("Waiting out managed challenge", map[string]interface{}{
		"session_id": sess.ID(),
		"site":       sess.SiteKey(),
		"max_wait":   maxWait.String(),
	})

	deadline := time.Now().Add(maxWait)
	iteration := 0

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(pollInterval):
		}

		iteration++
		if iteration%activityEvery == 0 {
			if err := sess.SimulateHumanActivity(ctx); err != nil {
				r.logger.Debug("Human activity simulation failed", map[string]interface{}{
					"session_id": sess.ID(),
					"error":      err.Error(),
				})
			}
		}

		state, html, err := r.currentState(ctx, sess)
		if err != nil {
			continue
		}

		switch state {
		case StateNoChallenge:
			r.logger.Info("Managed challenge cleared", map[string]interface{}{
				"session_id": sess.ID(),
				"site":       sess.SiteKey(),
				"waited":     (time.Duration(iteration) * pollInterval).String(),
			})
			return true
		case StateInteractiveWidget:
			// The managed challenge escalated to a widget
			return r.solveWidget(ctx, sess, html)
		}
	}

	r.logger.Warn("Managed challenge did not clear within budget", map[string]interface{}{
		"session_id": sess.ID(),
		"site":       sess.SiteKey(),
		"max_wait":   maxWait.String(),
	})
	return false
}

// solveWidget extracts the widget's site key, obtains a solved token and
// injects it into the page
func (r *Resolver) solveWidget(ctx context.Context, sess session.Session, html string) bool {
	siteKey := r.extractTurnstileSitekey(ctx, sess, html)
	if siteKey == "" {
		r.logger.Warn("Challenge widget present but no site key recoverable", map[string]interface{}{
			"session_id": sess.ID(),
			"site":       sess.SiteKey(),
		})
		return false
	}

	pageURL, err := sess.CurrentURL(ctx)
	if err != nil {
		r.logger.Warn("Failed to read page URL for challenge solve", map[string]interface{}{
			"session_id": sess.ID(),
			"error":      err.Error(),
		})
		return false
	}

	token, err := r.solver.SolveTurnstile(ctx, siteKey, SanitizeChallengeURL(pageURL))
	if err != nil {
		r.logger.Error("Challenge solve failed", map[string]interface{}{
			"session_id": sess.ID(),
			"site":       sess.SiteKey(),
			"site_key":   siteKey,
			"error":      err.Error(),
		})
		return false
	}

	if err := r.injectTurnstileToken(ctx, sess, token); err != nil {
		r.logger.Error("Challenge token injection failed", map[string]interface{}{
			"session_id": sess.ID(),
			"site":       sess.SiteKey(),
			"error":      err.Error(),
		})
		return false
	}

	return r.confirmResolution(ctx, sess)
}

// extractTurnstileSitekey tries every recovery method for the widget site
// key: the live widget attribute, page source patterns, then globals the
// challenge script registers
func (r *Resolver) extractTurnstileSitekey(ctx context.Context, sess session.Session, html string) string {
	// Live widget attribute
	attr, err := sess.EvalString(ctx, `() => {
		const el = document.querySelector('.cf-turnstile[data-sitekey]') || document.querySelector('[data-sitekey]');
		return el ? (el.getAttribute('data-sitekey') || '') : '';
	}`)
	if err == nil {
		attr = strings.TrimSpace(attr)
		if len(attr) > 10 {
			return attr
		}
	}

	// Page source patterns
	if siteKey := ExtractTurnstileSitekey(html); siteKey != "" {
		return siteKey
	}

	// Globals registered by the challenge script
	global, err := sess.EvalString(ctx, `() => {
		if (window._cf_chl_opt && window._cf_chl_opt.chlApiSitekey) {
			return String(window._cf_chl_opt.chlApiSitekey);
		}
		if (window.turnstileSiteKey) {
			return String(window.turnstileSiteKey);
		}
		return '';
	}`)
	if err == nil {
		global = strings.TrimSpace(global)
		if len(global) > 10 {
			return global
		}
	}

	return ""
}

// extractRecaptchaSitekey recovers a reCAPTCHA site key from the live widget
// or the page source
func (r *Resolver) extractRecaptchaSitekey(ctx context.Context, sess session.Session, html string) string {
	attr, err := sess.EvalString(ctx, `() => {
		const el = document.querySelector('.g-recaptcha[data-sitekey]') || document.querySelector('[data-sitekey]');
		return el ? (el.getAttribute('data-sitekey') || '') : '';
	}`)
	if err == nil {
		attr = strings.TrimSpace(attr)
		if len(attr) > 10 {
			return attr
		}
	}

	return ExtractRecaptchaSitekey(html)
}

// injectTurnstileToken writes the solved token into every plausible response
// input, fires the events client scripts listen for and invokes any
// registered widget callback
func (r *Resolver) injectTurnstileToken(ctx context.Context, sess session.Session, token string) error {
	js := fmt.Sprintf(`() => {
		const token = '%[1]s';
		const seen = new Set();

		const apply = (el) => {
			if (!el || seen.has(el)) return;
			seen.add(el);
			el.value = token;
			['input', 'change', 'blur'].forEach((name) => {
				el.dispatchEvent(new Event(name, { bubbles: true }));
			});
		};

		document.querySelectorAll('input[name="cf-turnstile-response"]').forEach(apply);
		document.querySelectorAll('input[id^="cf-chl-widget"]').forEach(apply);
		document.querySelectorAll('input[name*="turnstile"], input[id*="turnstile"]').forEach(apply);

		const widget = document.querySelector('.cf-turnstile') || document.querySelector('[data-sitekey]');
		if (widget) {
			let responseInput = widget.querySelector('input[name="cf-turnstile-response"]');
			if (!responseInput) {
				responseInput = document.createElement('input');
				responseInput.type = 'hidden';
				responseInput.name = 'cf-turnstile-response';
				widget.appendChild(responseInput);
			}
			apply(responseInput);

			const callback = widget.getAttribute('data-callback');
			if (callback && typeof window[callback] === 'function') {
				window[callback](token);
			}
		}

		if (typeof window.tsCallback === 'function') {
			window.tsCallback(token);
		}

		const forms = document.querySelectorAll('form');
		for (const form of forms) {
			if (form.querySelector('.cf-turnstile') || form.querySelector('[data-sitekey]') || form.querySelector('input[name*="turnstile"]')) {
				form.submit();
				break;
			}
		}
	}`, token)

	return sess.Eval(ctx, js)
}

// injectRecaptchaToken writes the solved token into the reCAPTCHA response
// elements and invokes any registered widget callback
func (r *Resolver) injectRecaptchaToken(ctx context.Context, sess session.Session, token string) error {
	js := fmt.Sprintf(`() => {
		const token = '%[1]s';

		const area = document.getElementById('g-recaptcha-response');
		if (area) {
			area.innerHTML = token;
			area.value = token;
			['input', 'change', 'blur'].forEach((name) => {
				area.dispatchEvent(new Event(name, { bubbles: true }));
			});
		}

		document.querySelectorAll('[name="g-recaptcha-response"]').forEach((el) => {
			el.value = token;
			el.innerHTML = token;
			['input', 'change', 'blur'].forEach((name) => {
				el.dispatchEvent(new Event(name, { bubbles: true }));
			});
		});

		const widget = document.querySelector('.g-recaptcha');
		if (widget) {
			const callback = widget.getAttribute('data-callback');
			if (callback && typeof window[callback] === 'function') {
				window[callback](token);
			}
		}

		if (typeof window.recaptchaCallback === 'function') {
			window.recaptchaCallback(token);
		}
	}`, token)

	return sess.Eval(ctx, js)
}

// confirmResolution polls for the page to leave the challenge after token
// injection. An inconclusive page at the end of the window is treated as
// resolved so a lagging redirect does not fail an otherwise working search.
func (r *Resolver) confirmResolution(ctx context.Context, sess session.Session) bool {
	deadline := time.Now().Add(resolutionWindow)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(pollInterval):
		}

		html, err := sess.HTML(ctx)
		if err != nil {
			continue
		}
		title, err := sess.Title(ctx)
		if err != nil {
			title = ""
		}

		if IsClear(html, title) {
			r.logger.Info("Challenge resolved", map[string]interface{}{
				"session_id": sess.ID(),
				"site":       sess.SiteKey(),
			})
			return true
		}
	}

	r.logger.Warn("Challenge resolution unconfirmed, proceeding", map[string]interface{}{
		"session_id": sess.ID(),
		"site":       sess.SiteKey(),
	})
	return true
}
