package scraper

import (
	"context"

	"aerofinder-utils/internal/scraper/session"
	"aerofinder-utils/pkg/models"
)

// SiteAdapter defines the interface for all booking-site adapters. One
// adapter drives every airline in its family; the SiteConfig carries the
// carrier-specific URL and naming.
type SiteAdapter interface {
	// Family returns the site family this adapter drives
	Family() models.SiteFamily

	// Scrape runs one flight search against the given site using the
	// provided browser session and returns the extracted flight data.
	// Adapters report failures through the error return; they never panic
	// on missing page content.
	Scrape(ctx context.Context, sess session.Session, site models.SiteConfig, req *models.SearchRequest) (*models.FlightData, error)
}

// AdapterFactory creates site adapters based on site family
type AdapterFactory interface {
	// AdapterFor returns the adapter that drives the given family
	AdapterFor(family models.SiteFamily) (SiteAdapter, error)

	// SupportedFamilies returns the families this factory can serve
	SupportedFamilies() []models.SiteFamily
}
