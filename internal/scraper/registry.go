package scraper

import (
	"fmt"
	"sort"
	"strings"

	"aerofinder-utils/pkg/models"
)

// Registry holds the known booking sites keyed by site key. It is built at
// startup and read-only afterwards, so lookups need no locking.
type Registry struct {
	sites map[string]models.SiteConfig
	keys  []string
}

// NewRegistry builds a registry from the given site configurations. Later
// entries win on duplicate keys.
func NewRegistry(sites []models.SiteConfig) *Registry {
	r := &Registry{sites: make(map[string]models.SiteConfig, len(sites))}
	for _, site := range sites {
		key := strings.ToLower(strings.TrimSpace(site.Key))
		if key == "" {
			continue
		}
		if _, exists := r.sites[key]; !exists {
			r.keys = append(r.keys, key)
		}
		site.Key = key
		r.sites[key] = site
	}
	sort.Strings(r.keys)
	return r
}

// DefaultRegistry returns the built-in registry of Nigerian carrier booking
// sites grouped by the web application each one runs.
func DefaultRegistry() *Registry {
	return NewRegistry([]models.SiteConfig{
		// Crane IBE deployments
		{Name: "Air Peace", URL: "https://book-airpeace.crane.aero/ibe/availability", Family: models.FamilyCrane, Key: "airpeace"},
		{Name: "Arik Air", URL: "https://arikair.crane.aero/ibe/availability", Family: models.FamilyCrane, Key: "arikair"},
		{Name: "Aero Contractors", URL: "https://book-flyaero.crane.aero/ibe/availability", Family: models.FamilyCrane, Key: "flyaero"},
		{Name: "Ibom Air", URL: "https://book-ibomair.crane.aero/ibe/availability", Family: models.FamilyCrane, Key: "ibomair"},
		{Name: "NG Eagle", URL: "https://book-ngeagle.crane.aero/ibe/availability", Family: models.FamilyCrane, Key: "ngeagle"},
		{Name: "UMZA", URL: "https://book-umz.crane.aero/ibe/availability", Family: models.FamilyCrane, Key: "umza"},

		// Videcom VARS panels
		{Name: "Max Air", URL: "https://customer2.videcom.com/MaxAir/VARS/Public/CustomerPanels/requirementsBS.aspx", Family: models.FamilyVidecom, Key: "maxair"},
		{Name: "United Nigeria", URL: "https://booking.flyunitednigeria.com/VARS/Public/CustomerPanels/requirementsBS.aspx", Family: models.FamilyVidecom, Key: "unitednigeria"},
		{Name: "Rano Air", URL: "https://customer3.videcom.com/RanoAir/VARS/Public/CustomerPanels/requirementsBS.aspx", Family: models.FamilyVidecom, Key: "ranoair"},
		{Name: "Binani Air", URL: "https://customer3.videcom.com/BinaniAir/VARS/Public/CustomerPanels/requirementsBS.aspx", Family: models.FamilyVidecom, Key: "binaniair"},

		// Carriers on their own booking frontends
		{Name: "Overland Airways", URL: "https://www.overlandairways.com", Family: models.FamilyOverland, Key: "overland"},
		{Name: "ValueJet", URL: "https://flyvaluejet.com", Family: models.FamilyValueJet, Key: "valuejet"},
		{Name: "Green Africa", URL: "https://greenafrica.com", Family: models.FamilyGreenAfrica, Key: "greenafrica"},
	})
}

// Get returns the site registered under the given key
func (r *Registry) Get(key string) (models.SiteConfig, bool) {
	site, ok := r.sites[strings.ToLower(strings.TrimSpace(key))]
	return site, ok
}

// Keys returns the registered site keys in sorted order
func (r *Registry) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Count returns how many sites are registered
func (r *Registry) Count() int {
	return len(r.sites)
}

// All returns every registered site in key order
func (r *Registry) All() []models.SiteConfig {
	out := make([]models.SiteConfig, 0, len(r.keys))
	for _, key := range r.keys {
		out = append(out, r.sites[key])
	}
	return out
}

// Resolve expands an airline filter into the sites to search. An empty
// filter or "all" selects every registered site; otherwise the filter is a
// comma separated list of site keys. Unknown keys fail the whole resolution
// so a typo cannot silently narrow a search.
func (r *Registry) Resolve(filter string) ([]models.SiteConfig, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" || strings.EqualFold(filter, "all") {
		return r.All(), nil
	}

	var (
		selected []models.SiteConfig
		unknown  []string
		seen     = make(map[string]bool)
	)
	for _, part := range strings.Split(filter, ",") {
		key := strings.ToLower(strings.TrimSpace(part))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		site, ok := r.sites[key]
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		selected = append(selected, site)
	}

	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown airline key(s): %s (known: %s)",
			strings.Join(unknown, ", "), strings.Join(r.keys, ", "))
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no airlines selected by filter %q", filter)
	}
	return selected, nil
}
