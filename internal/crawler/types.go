package crawler

import (
	"context"
	"io"

	"sjsage522/dealcatalog/config"

	"github.com/PuerkitoBio/goquery"
)

// MaxContainers is the number of deal containers processed per page.
const MaxContainers = 10

// SiteSelectors are the configured CSS selectors of a site.
type SiteSelectors = config.Selectors

// Listing is a normalized deal candidate produced by a crawler.
type Listing struct {
	Title              string   `json:"title"`
	OriginalPrice      *float64 `json:"original_price,omitempty"`
	DiscountedPrice    float64  `json:"discounted_price"`
	DiscountPercentage int      `json:"discount_percentage"`
	ProductURL         string   `json:"product_url,omitempty"`
	ImageURL           string   `json:"image_url,omitempty"`
	Source             string   `json:"source"`
	Category           string   `json:"category,omitempty"`
	Hash               string   `json:"hash,omitempty"`
}

// Crawler interface defines the contract for all crawler implementations
type Crawler interface {
	// FetchDeals retrieves listings from a source
	FetchDeals(ctx context.Context) ([]Listing, error)

	// GetName returns the crawler's name for logging and identification
	GetName() string

	// GetProvider returns the site name used as the listing source
	GetProvider() string

	// GetSite returns the site configuration the crawler was built from
	GetSite() config.SiteConfig
}

// PageFetcher downloads a page and returns its UTF-8 body.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (io.Reader, error)
}

// ElementHandler extracts a string from a deal container. An empty result means "not found".
type ElementHandler func(*goquery.Selection) string
