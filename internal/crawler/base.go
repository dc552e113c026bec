package crawler

import (
	"context"

	"sjsage522/dealcatalog/config"
	"sjsage522/dealcatalog/internal/deal"
	"sjsage522/dealcatalog/pkg/errors"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"
)

// BaseCrawler provides common functionality for all crawlers
type BaseCrawler struct {
	Site    config.SiteConfig
	Fetcher PageFetcher
}

// GetName returns the crawler's name for logging
func (c *BaseCrawler) GetName() string {
	return c.Site.Name + "-crawler"
}

// GetProvider returns the site name
func (c *BaseCrawler) GetProvider() string {
	return c.Site.Name
}

// GetSite returns the site configuration
func (c *BaseCrawler) GetSite() config.SiteConfig {
	return c.Site
}

// fetchDocument downloads the deals page and parses it
func (c *BaseCrawler) fetchDocument(ctx context.Context) (*goquery.Document, error) {
	body, err := c.Fetcher.Fetch(ctx, c.Site.DealsPage)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, errors.NewParsing(c.Site.Name, "failed to parse HTML", err)
	}
	return doc, nil
}

// buildListing turns extracted fields into a listing, or a skip when a required field is missing
func (c *BaseCrawler) buildListing(fields Fields) Result {
	if fields.Title == "" {
		return Skip("missing title")
	}
	if fields.PriceText == "" {
		return Skip("missing price")
	}

	price, ok := deal.ParsePrice(fields.PriceText)
	if !ok {
		return Skip("unparseable price " + fields.PriceText)
	}
	if price <= 0 {
		return Skip("non-positive price " + fields.PriceText)
	}

	listing := Listing{
		Title:           fields.Title,
		DiscountedPrice: price,
		ProductURL:      fields.ProductURL,
		ImageURL:        fields.ImageURL,
		Source:          c.Site.Name,
		Category:        deal.Categorize(fields.Title),
		Hash:            deal.ComputeHash(fields.Title, c.Site.Name, price),
	}

	if original, ok := deal.ParsePrice(fields.OriginalPriceText); ok && original > 0 {
		listing.OriginalPrice = lo.ToPtr(original)
		listing.DiscountPercentage = deal.CalculateDiscount(original, price)
	}

	return OK(listing)
}
