package models

// SiteFamily identifies which adapter drives a booking site. Sites sharing a
// family run the same web application with carrier-specific theming.
type SiteFamily string

const (
	FamilyCrane       SiteFamily = "crane"
	FamilyVidecom     SiteFamily = "videcom"
	FamilyOverland    SiteFamily = "overland"
	FamilyValueJet    SiteFamily = "valuejet"
	FamilyGreenAfrica SiteFamily = "greenafrica"
)

// SiteConfig represents one airline's registry entry. Entries are loaded at
// startup and read-only thereafter.
type SiteConfig struct {
	Name   string     `json:"name" yaml:"name"`
	URL    string     `json:"url" yaml:"url"`
	Family SiteFamily `json:"family" yaml:"family"`
	Key    string     `json:"key" yaml:"key"`
}
