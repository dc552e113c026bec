package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"sort"
)

//go:embed sites.json
var defaultSites []byte

// Selectors are the per-site CSS selectors. Any of them may be empty.
type Selectors struct {
	DealContainer   string `json:"deal_container"`
	Title           string `json:"title"`
	PriceDiscounted string `json:"price_discounted"`
	PriceOriginal   string `json:"price_original"`
}

// SiteConfig describes one source site.
type SiteConfig struct {
	Name      string    `json:"-"`
	BaseURL   string    `json:"base_url"`
	DealsPage string    `json:"deals_page"`
	Selectors Selectors `json:"selectors"`
}

// LoadSites reads site configuration from path, or the embedded default when path is empty.
func LoadSites(path string) ([]SiteConfig, error) {
	if path == "" {
		return ParseSites(defaultSites)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read sites config: %w", err)
	}
	return ParseSites(data)
}

// ParseSites decodes a JSON object keyed by site name. Sites come back sorted by name.
func ParseSites(data []byte) ([]SiteConfig, error) {
	var raw map[string]SiteConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("malformed sites config: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("sites config defines no sites")
	}

	sites := make([]SiteConfig, 0, len(raw))
	for name, site := range raw {
		site.Name = name
		if err := site.Validate(); err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}

	sort.Slice(sites, func(i, j int) bool { return sites[i].Name < sites[j].Name })
	return sites, nil
}

// Validate requires a name and an absolute deals page URL.
func (s SiteConfig) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("site without a name")
	}
	if s.DealsPage == "" {
		return fmt.Errorf("site %s: deals_page is required", s.Name)
	}

	u, err := url.Parse(s.DealsPage)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("site %s: deals_page %q is not an absolute URL", s.Name, s.DealsPage)
	}
	return nil
}

// Find returns the site named name.
func Find(sites []SiteConfig, name string) (SiteConfig, bool) {
	for _, site := range sites {
		if site.Name == name {
			return site, true
		}
	}
	return SiteConfig{}, false
}
