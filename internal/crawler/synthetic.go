package crawler

import (
	"context"

	"sjsage522/dealcatalog/config"
	"sjsage522/dealcatalog/internal/deal"

	"github.com/samber/lo"
)

// SyntheticCrawler serves a fixed set of demo listings without touching the network
type SyntheticCrawler struct {
	BaseCrawler
}

var _ Crawler = (*SyntheticCrawler)(nil)

// NewSyntheticCrawler creates a crawler that reports demo listings for site
func NewSyntheticCrawler(site config.SiteConfig) *SyntheticCrawler {
	return &SyntheticCrawler{BaseCrawler: BaseCrawler{Site: site}}
}

// GetName returns the crawler name
func (c *SyntheticCrawler) GetName() string {
	return c.Site.Name + "-synthetic"
}

// FetchDeals returns the five demo listings
func (c *SyntheticCrawler) FetchDeals(ctx context.Context) ([]Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	demo := []struct {
		title       string
		original    float64
		discounted  float64
		discount    int
		category    string
		productPath string
		image       string
	}{
		{"Wireless Bluetooth Headphones - Noise Cancelling", 99.99, 59.99, 40, "electronics",
			"/demo-product-1", "https://m.media-amazon.com/images/I/71an9eiBxpL._AC_SL1500_.jpg"},
		{"Men's Running Shoes - Comfort & Style", 79.99, 49.99, 38, "fashion",
			"/demo-product-2", "https://m.media-amazon.com/images/I/71z6z6z6z6L._AC_UL1500_.jpg"},
		{"Kitchen Knife Set - 15 Piece Professional", 149.99, 89.99, 40, "home",
			"/demo-product-3", "https://m.media-amazon.com/images/I/71j6z6z6z6L._AC_SL1500_.jpg"},
		{"Smart Watch with Fitness Tracker", 199.99, 129.99, 35, "electronics",
			"/demo-product-4", "https://m.media-amazon.com/images/I/71k6z6z6z6L._AC_SL1500_.jpg"},
		{"Yoga Mat - Non-Slip Exercise Mat", 39.99, 24.99, 38, "sports",
			"/demo-product-5", "https://m.media-amazon.com/images/I/71l6z6z6z6L._AC_SL1500_.jpg"},
	}

	listings := make([]Listing, 0, len(demo))
	for _, d := range demo {
		listings = append(listings, Listing{
			Title:              d.title,
			OriginalPrice:      lo.ToPtr(d.original),
			DiscountedPrice:    d.discounted,
			DiscountPercentage: d.discount,
			ProductURL:         "https://www.amazon.com" + d.productPath,
			ImageURL:           d.image,
			Source:             c.Site.Name,
			Category:           d.category,
			Hash:               deal.ComputeHash(d.title, c.Site.Name, d.discounted),
		})
	}
	return listings, nil
}
