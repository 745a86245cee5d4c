package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Date layouts used across the booking site families. Callers parse the
// human-entered date once and re-render it in the grammar their site expects.
const (
	DateLayoutInput   = "2 Jan 2006"   // "06 Jun 2025" as entered by callers
	DateLayoutCrane   = "02.01.2006"   // Crane availability query string
	DateLayoutVidecom = "02-Jan-2006"  // Videcom form date fields
	DateLayoutISO     = "2006-01-02"   // Overland, ValueJet, GreenAfrica
)

var airportCodePattern = regexp.MustCompile(`\(([^)]+)\)`)

// ExtractAirportCode pulls the IATA code out of a display string like
// "Lagos (LOS)". When several parenthesized groups appear the last one wins.
// Returns an empty string when no code is present.
func ExtractAirportCode(text string) string {
	matches := airportCodePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(matches[len(matches)-1][1]))
}

// ParseSearchDate parses a caller-supplied date like "06 Jun 2025"
func ParseSearchDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayoutInput, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid search date %q: %w", s, err)
	}
	return t, nil
}

// ConvertDate re-renders a caller-supplied date in the given site layout
func ConvertDate(s, layout string) (string, error) {
	t, err := ParseSearchDate(s)
	if err != nil {
		return "", err
	}
	return t.Format(layout), nil
}
