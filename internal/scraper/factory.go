package scraper

import (
	"fmt"

	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/scraper/challenge"
	"aerofinder-utils/internal/scraper/session"
	"aerofinder-utils/internal/scraper/sites/crane"
	"aerofinder-utils/internal/scraper/sites/greenafrica"
	"aerofinder-utils/internal/scraper/sites/overland"
	"aerofinder-utils/internal/scraper/sites/valuejet"
	"aerofinder-utils/internal/scraper/sites/videcom"
	"aerofinder-utils/pkg/models"
)

// DefaultAdapterFactory implements AdapterFactory
type DefaultAdapterFactory struct {
	config     *config.Config
	sessions   session.Factory
	challenges challenge.Checker
}

// NewAdapterFactory creates a new site adapter factory. The session
// factory and challenge checker are shared with the adapters that need
// them for retries and protection pages.
func NewAdapterFactory(cfg *config.Config, sessions session.Factory, challenges challenge.Checker) AdapterFactory {
	return &DefaultAdapterFactory{
		config:     cfg,
		sessions:   sessions,
		challenges: challenges,
	}
}

// AdapterFor creates the adapter that drives the given site family
func (f *DefaultAdapterFactory) AdapterFor(family models.SiteFamily) (SiteAdapter, error) {
	switch family {
	case models.FamilyCrane:
		return crane.NewAdapter(f.config, f.sessions, f.challenges), nil
	case models.FamilyVidecom:
		return videcom.NewAdapter(f.config, f.challenges), nil
	case models.FamilyOverland:
		return overland.NewAdapter(f.config), nil
	case models.FamilyValueJet:
		return valuejet.NewAdapter(f.config), nil
	case models.FamilyGreenAfrica:
		return greenafrica.NewAdapter(f.config), nil
	default:
		return nil, fmt.Errorf("unsupported site family: %s", family)
	}
}

// SupportedFamilies returns the site families this factory can build
// adapters for
func (f *DefaultAdapterFactory) SupportedFamilies() []models.SiteFamily {
	return []models.SiteFamily{
		models.FamilyCrane,
		models.FamilyVidecom,
		models.FamilyOverland,
		models.FamilyValueJet,
		models.FamilyGreenAfrica,
	}
}
