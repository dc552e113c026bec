package crawler

import (
	"context"
	"fmt"

	"sjsage522/dealcatalog/config"
	"sjsage522/dealcatalog/logger"

	"github.com/PuerkitoBio/goquery"
)

// fallbackContainer is used when the site's container selector matches nothing.
const fallbackContainer = `div[data-component-type="s-search-result"]`

// ConfigurableCrawler is a crawler driven entirely by a site's selectors
type ConfigurableCrawler struct {
	BaseCrawler
}

var _ Crawler = (*ConfigurableCrawler)(nil)

// NewConfigurableCrawler creates a new configurable crawler
func NewConfigurableCrawler(site config.SiteConfig, fetcher PageFetcher) *ConfigurableCrawler {
	return &ConfigurableCrawler{
		BaseCrawler: BaseCrawler{
			Site:    site,
			Fetcher: fetcher,
		},
	}
}

// FetchDeals downloads the deals page and extracts up to MaxContainers listings.
// Containers missing a title or price are skipped and logged.
func (c *ConfigurableCrawler) FetchDeals(ctx context.Context) ([]Listing, error) {
	doc, err := c.fetchDocument(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.ForSite(c.Site.Name)
	containers := c.findContainers(doc)
	log.Debug().Int("containers", containers.Length()).Msg("Found deal containers")

	var listings []Listing
	containers.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= MaxContainers {
			return false
		}

		result := c.processDeal(s)
		switch result.Outcome {
		case OutcomeOK:
			listings = append(listings, result.Listing)
		case OutcomeSkip:
			log.Debug().Int("index", i).Str("reason", result.Reason).Msg("Skipping deal container")
		case OutcomeFailure:
			log.Warn().Int("index", i).Err(result.Err).Msg("Failed to process deal container")
		}
		return true
	})

	return listings, nil
}

func (c *ConfigurableCrawler) findContainers(doc *goquery.Document) *goquery.Selection {
	if c.Site.Selectors.DealContainer != "" {
		if containers := doc.Find(c.Site.Selectors.DealContainer); containers.Length() > 0 {
			return containers
		}
	}
	return doc.Find(fallbackContainer)
}

// processDeal extracts one listing, turning a panic in a selector handler into a Failure
func (c *ConfigurableCrawler) processDeal(s *goquery.Selection) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Failure(fmt.Errorf("panic while extracting: %v", r))
		}
	}()

	return c.buildListing(Extract(s, c.Site.Selectors, c.Site.DealsPage))
}
