package challenge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"aerofinder-utils/internal/scraper/challenge"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		title string
		want  challenge.State
	}{
		{
			name:  "plain results page",
			html:  `<html><body><div id="availability-flight-table-0"></div></body></html>`,
			title: "Flight Availability",
			want:  challenge.StateNoChallenge,
		},
		{
			name:  "managed challenge by title",
			html:  `<html><body><p>Verifying your connection</p></body></html>`,
			title: "Just a moment...",
			want:  challenge.StateAutoResolving,
		},
		{
			name:  "managed challenge by content",
			html:  `<html><body><p>Checking your browser before accessing the site.</p></body></html>`,
			title: "Air Peace",
			want:  challenge.StateAutoResolving,
		},
		{
			name:  "turnstile widget",
			html:  `<html><body><div class="cf-challenge"><div class="cf-turnstile" data-sitekey="0x4AAAAAAADnPIDRO"></div></div></body></html>`,
			title: "Just a moment...",
			want:  challenge.StateInteractiveWidget,
		},
		{
			name:  "recaptcha widget behind interstitial",
			html:  `<html><body><p>Security verification</p><div class="g-recaptcha"></div></body></html>`,
			title: "Verify",
			want:  challenge.StateInteractiveWidget,
		},
		{
			name:  "widget markers without interstitial are not a challenge",
			html:  `<html><body><div class="g-recaptcha" data-sitekey="abc"></div></body></html>`,
			title: "Booking",
			want:  challenge.StateNoChallenge,
		},
		{
			name:  "case insensitive markers",
			html:  `<html><body><p>DDoS Protection by Cloudflare</p></body></html>`,
			title: "JUST A MOMENT",
			want:  challenge.StateAutoResolving,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, challenge.Detect(tt.html, tt.title))
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "NO_CHALLENGE", challenge.StateNoChallenge.String())
	assert.Equal(t, "AUTO_RESOLVING", challenge.StateAutoResolving.String())
	assert.Equal(t, "INTERACTIVE_WIDGET", challenge.StateInteractiveWidget.String())
}

func TestIsClear(t *testing.T) {
	assert.True(t, challenge.IsClear("<html><body>results</body></html>", "Results"))
	assert.False(t, challenge.IsClear("<html><body>checking your browser</body></html>", ""))
}

func TestExtractTurnstileSitekey(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "widget attribute",
			html: `<div class="cf-turnstile" data-sitekey="0x4AAAAAAADnPIDROrmt1Wwj"></div>`,
			want: "0x4AAAAAAADnPIDROrmt1Wwj",
		},
		{
			name: "bare data-sitekey attribute",
			html: `<div data-sitekey="0x4AAAAAAADnPIDROrmt1Wwj"></div>`,
			want: "0x4AAAAAAADnPIDROrmt1Wwj",
		},
		{
			name: "render call",
			html: `<script>turnstile.render('#widget', {sitekey: "0x4AAAAAAADnPIDROrmt1Wwj"});</script>`,
			want: "0x4AAAAAAADnPIDROrmt1Wwj",
		},
		{
			name: "embedded json config",
			html: `<script>window.__opts = {"sitekey": "0x4AAAAAAADnPIDROrmt1Wwj"};</script>`,
			want: "0x4AAAAAAADnPIDROrmt1Wwj",
		},
		{
			name: "challenge iframe url",
			html: `<iframe src="https://challenges.cloudflare.com/cdn-cgi/challenge-platform/h/b/turnstile/0x4AAAAAAADnPIDROrmt1Wwj/light"></iframe>`,
			want: "0x4AAAAAAADnPIDROrmt1Wwj",
		},
		{
			name: "widget attribute beats iframe",
			html: `<div class="cf-turnstile" data-sitekey="0xWIDGETKEY12345"></div>` +
				`<iframe src="https://challenges.cloudflare.com/x/0xIFRAMEKEY12345/y"></iframe>`,
			want: "0xWIDGETKEY12345",
		},
		{
			name: "too short to be a key",
			html: `<div data-sitekey="short"></div>`,
			want: "",
		},
		{
			name: "nothing recoverable",
			html: `<html><body>checking your browser</body></html>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, challenge.ExtractTurnstileSitekey(tt.html))
		})
	}
}

func TestExtractRecaptchaSitekey(t *testing.T) {
	html := `<div class="g-recaptcha" data-sitekey="6LdyC2cUAAAAACGuDKpXeDorzUDWXmdqeg"></div>`
	assert.Equal(t, "6LdyC2cUAAAAACGuDKpXeDorzUDWXmdqeg", challenge.ExtractRecaptchaSitekey(html))

	assert.Empty(t, challenge.ExtractRecaptchaSitekey(`<div data-sitekey="tiny"></div>`))
	assert.Empty(t, challenge.ExtractRecaptchaSitekey(`<html><body>no widget</body></html>`))
}

func TestSanitizeChallengeURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "strips challenge tracking params",
			input: "https://book.example.com/ibe/availability?b=2&__cf_chl_tk=abc123&a=1&__cf_chl_rt_tk=def",
			want:  "https://book.example.com/ibe/availability?a=1&b=2",
		},
		{
			name:  "no query untouched",
			input: "https://book.example.com/ibe/availability",
			want:  "https://book.example.com/ibe/availability",
		},
		{
			name:  "only tracking params leaves bare path",
			input: "https://book.example.com/page?__cf_chl_tk=abc",
			want:  "https://book.example.com/page",
		},
		{
			name:  "unparseable url returned as is",
			input: "http://%41:8080/",
			want:  "http://%41:8080/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, challenge.SanitizeChallengeURL(tt.input))
		})
	}
}
