package ingest

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"sjsage522/dealcatalog/helpers"
	"sjsage522/dealcatalog/internal/catalog"
	"sjsage522/dealcatalog/internal/crawler"
	"sjsage522/dealcatalog/internal/deal"
	"sjsage522/dealcatalog/logger"
	"sjsage522/dealcatalog/pkg/errors"
	"sjsage522/dealcatalog/services/publisher"

	"github.com/google/uuid"
)

// State is the lifecycle state of a Manager.
type State string

const (
	StateNotStarted State = "not-started"
	StateRunning    State = "running"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

const (
	maxTitleLength = 200
	maxURLLength   = 500
	// DefaultCurrency is assigned to every new deal.
	DefaultCurrency = "USD"
)

// Stats counts one site's listings in a run. Found includes both new and updated deals.
type Stats struct {
	Found int `json:"found"`
	Added int `json:"added"`
}

// Results maps site name to its stats.
type Results map[string]Stats

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithRunID replaces the run ID generator.
func WithRunID(newID func() string) Option {
	return func(m *Manager) { m.newRunID = newID }
}

// Manager runs crawlers one after another and upserts their listings into the catalog.
type Manager struct {
	store     catalog.Catalog
	scorer    deal.Scorer
	publisher publisher.Publisher
	now       func() time.Time
	newRunID  func() string

	mu    sync.Mutex
	state State
	runID string
}

// NewManager creates a Manager. pub may be nil, in which case no events are published.
func NewManager(store catalog.Catalog, scorer deal.Scorer, pub publisher.Publisher, opts ...Option) *Manager {
	if pub == nil {
		pub = publisher.Nop{}
	}

	m := &Manager{
		store:     store,
		scorer:    scorer,
		publisher: pub,
		now:       time.Now,
		newRunID:  uuid.NewString,
		state:     StateNotStarted,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the state of the most recent run.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// RunID returns the ID of the most recent run.
func (m *Manager) RunID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runID
}

func (m *Manager) setState(state State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
}

// Run scrapes every crawler in order. A site whose fetch fails reports zero
// counts and the run moves on; only an empty crawler list or a cancelled
// context fails the run.
func (m *Manager) Run(ctx context.Context, crawlers []crawler.Crawler) (Results, error) {
	if len(crawlers) == 0 {
		m.setState(StateFailed)
		return nil, errors.NewConfiguration("no crawlers configured", nil)
	}

	runID := m.newRunID()
	m.mu.Lock()
	m.state = StateRunning
	m.runID = runID
	m.mu.Unlock()

	log := logger.ForComponent("ingest").WithField("run_id", runID)
	log.Info().Int("sites", len(crawlers)).Msg("Starting scraping run")

	results := make(Results, len(crawlers))
	for _, c := range crawlers {
		if err := ctx.Err(); err != nil {
			m.setState(StateFailed)
			return results, err
		}

		stats, err := m.runSite(ctx, runID, c)
		results[c.GetProvider()] = stats
		if err != nil {
			log.Error().Err(err).Str("site", c.GetProvider()).Msg("Site scrape failed")
		}
	}

	if err := ctx.Err(); err != nil {
		m.setState(StateFailed)
		return results, err
	}

	m.setState(StateCompleted)
	log.Info().Msg("Scraping run completed")
	return results, nil
}

// runSite scrapes one site and records it in a scrape log.
func (m *Manager) runSite(ctx context.Context, runID string, c crawler.Crawler) (Stats, error) {
	cfg := c.GetSite()
	name := c.GetProvider()
	log := logger.ForSite(name)

	site, _, err := m.store.GetOrCreateSite(ctx, name, catalog.Site{
		BaseURL:      cfg.BaseURL,
		DealsPageURL: cfg.DealsPage,
		Active:       true,
	})
	if err != nil {
		return Stats{}, errors.NewPersistence(name, "failed to get site", err)
	}

	scrapeLog := &catalog.ScrapeLog{
		RunID:     runID,
		SiteID:    site.ID,
		StartedAt: m.now(),
		Status:    catalog.StatusRunning,
	}
	if err := m.store.StartScrapeLog(ctx, scrapeLog); err != nil {
		return Stats{}, errors.NewPersistence(name, "failed to start scrape log", err)
	}

	listings, err := c.FetchDeals(ctx)
	if err != nil {
		m.finishLog(ctx, scrapeLog, Stats{}, err)
		return Stats{}, err
	}

	var stats Stats
	for i, listing := range listings {
		if ctx.Err() != nil {
			break
		}

		added, err := m.processListing(ctx, site, listing)
		if err != nil {
			log.Warn().Int("index", i).Str("title", listing.Title).Err(err).Msg("Skipping listing")
			continue
		}

		stats.Found++
		if added {
			stats.Added++
		}
	}

	m.finishLog(ctx, scrapeLog, stats, ctx.Err())
	log.Info().Int("found", stats.Found).Int("added", stats.Added).Msg("Site scraped")
	return stats, nil
}

func (m *Manager) finishLog(ctx context.Context, scrapeLog *catalog.ScrapeLog, stats Stats, cause error) {
	finished := m.now()
	scrapeLog.FinishedAt = &finished
	scrapeLog.DealsFound = stats.Found
	scrapeLog.DealsAdded = stats.Added
	scrapeLog.Status = catalog.StatusCompleted
	if cause != nil {
		scrapeLog.Status = catalog.StatusFailed
		scrapeLog.ErrorMessage = cause.Error()
	}

	// The run's context may already be cancelled; the log still has to be closed.
	if err := m.store.FinishScrapeLog(context.WithoutCancel(ctx), scrapeLog); err != nil {
		logger.LogError("ingest", err, "failed to finish scrape log %d", scrapeLog.ID)
	}
}

// normalize fills in the derived fields a crawler may have left empty.
func normalize(listing crawler.Listing, siteName string) crawler.Listing {
	if listing.Source == "" {
		listing.Source = siteName
	}
	if listing.DiscountPercentage == 0 && listing.OriginalPrice != nil {
		listing.DiscountPercentage = deal.CalculateDiscount(*listing.OriginalPrice, listing.DiscountedPrice)
	}
	if listing.Category == "" {
		listing.Category = deal.Categorize(listing.Title)
	}
	if listing.Hash == "" {
		listing.Hash = deal.ComputeHash(listing.Title, listing.Source, listing.DiscountedPrice)
	}
	return listing
}

// processListing upserts one listing and reports whether a new deal was created.
// A panic in the catalog becomes an error so one listing can't abort the run.
func (m *Manager) processListing(ctx context.Context, site *catalog.Site, listing crawler.Listing) (added bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			added = false
			err = errors.NewPersistence(site.Name, "panic while storing listing", fmt.Errorf("%v", r))
		}
	}()

	return m.upsert(ctx, site, listing)
}

func (m *Manager) upsert(ctx context.Context, site *catalog.Site, listing crawler.Listing) (bool, error) {
	if listing.Title == "" {
		return false, errors.NewExtraction(site.Name, "listing has no title")
	}
	if listing.DiscountedPrice < 0 {
		return false, errors.NewExtraction(site.Name, fmt.Sprintf("negative price %v", listing.DiscountedPrice))
	}
	listing = normalize(listing, site.Name)
	now := m.now()

	existing, err := m.store.FindDealByHash(ctx, listing.Hash)
	switch {
	case err == nil:
		existing.DiscountedPrice = listing.DiscountedPrice
		existing.OriginalPrice = listing.OriginalPrice
		existing.DiscountPercentage = listing.DiscountPercentage
		existing.LastChecked = now
		if err := m.store.UpdateDeal(ctx, existing); err != nil {
			return false, errors.NewPersistence(site.Name, "failed to update deal", err)
		}
		return false, nil
	case !stderrors.Is(err, catalog.ErrNotFound):
		return false, errors.NewPersistence(site.Name, "failed to look up deal", err)
	}

	category, _, err := m.store.GetOrCreateCategory(ctx, listing.Category, catalog.Category{
		Slug: deal.Slugify(listing.Category),
	})
	if err != nil {
		return false, errors.NewPersistence(site.Name, "failed to get category", err)
	}

	score := m.scorer.Score(deal.ScoreInput{
		DiscountPercentage: listing.DiscountPercentage,
		Source:             listing.Source,
		DiscountedPrice:    listing.DiscountedPrice,
	})

	created := &catalog.Deal{
		Hash:               listing.Hash,
		Title:              helpers.Truncate(listing.Title, maxTitleLength),
		OriginalPrice:      listing.OriginalPrice,
		DiscountedPrice:    listing.DiscountedPrice,
		DiscountPercentage: listing.DiscountPercentage,
		Currency:           DefaultCurrency,
		ProductURL:         helpers.Truncate(listing.ProductURL, maxURLLength),
		ImageURL:           helpers.Truncate(listing.ImageURL, maxURLLength),
		CategoryID:         &category.ID,
		SiteID:             site.ID,
		Active:             true,
		FirstSeen:          now,
		LastChecked:        now,
		Score:              score,
	}
	if err := m.store.CreateDeal(ctx, created); err != nil {
		return false, errors.NewPersistence(site.Name, "failed to create deal", err)
	}

	m.publishAdded(ctx, site.Name, category.Name, created)
	return true, nil
}

// publishAdded emits a deal.added event. Failures are only logged.
func (m *Manager) publishAdded(ctx context.Context, siteName, categoryName string, d *catalog.Deal) {
	data, err := json.Marshal(NewDealEvent(siteName, categoryName, d))
	if err == nil {
		err = m.publisher.Publish(ctx, siteName, data)
	}
	if err != nil {
		logger.ForSite(siteName).Warn().
			Err(errors.NewPublisher(siteName, "failed to publish deal event", err)).
			Str("hash", d.Hash).
			Msg("Deal event not published")
	}
}
