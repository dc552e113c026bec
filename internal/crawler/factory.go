package crawler

import (
	"sjsage522/dealcatalog/config"
	"sjsage522/dealcatalog/logger"
)

// CreateCrawlers creates one crawler per configured site. In test mode a single
// synthetic crawler for primary replaces them and nothing is fetched.
func CreateCrawlers(sites []config.SiteConfig, fetcher PageFetcher, testMode bool, primary string) []Crawler {
	log := logger.ForComponent("crawler-factory")

	if testMode {
		site, ok := config.Find(sites, primary)
		if !ok {
			site = config.SiteConfig{Name: primary}
		}
		log.Info().Str("site", site.Name).Msg("Test mode: using synthetic listings")
		return []Crawler{NewSyntheticCrawler(site)}
	}

	crawlers := make([]Crawler, 0, len(sites))
	for _, site := range sites {
		crawlers = append(crawlers, NewConfigurableCrawler(site, fetcher))
	}

	if logger.IsDebugEnabled() {
		for i, c := range crawlers {
			log.Debug().
				Int("index", i).
				Str("crawler", c.GetName()).
				Str("url", c.GetSite().DealsPage).
				Msg("Created crawler")
		}
	}

	return crawlers
}
