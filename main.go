package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"sjsage522/dealcatalog/config"
	"sjsage522/dealcatalog/helpers"
	"sjsage522/dealcatalog/internal/catalog"
	"sjsage522/dealcatalog/internal/crawler"
	"sjsage522/dealcatalog/internal/deal"
	"sjsage522/dealcatalog/internal/ingest"
	"sjsage522/dealcatalog/logger"
	"sjsage522/dealcatalog/services/cache"
	"sjsage522/dealcatalog/services/publisher"
	"sjsage522/dealcatalog/services/worker"

	"github.com/joho/godotenv"
)

type options struct {
	testMode bool
	loop     bool
	browse   bool
	category string
	sort     string
	search   string
	page     int
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("dealcatalog", flag.ContinueOnError)
	fs.BoolVar(&opts.testMode, "test", false, "ingest the synthetic demo listings instead of fetching sites")
	fs.BoolVar(&opts.loop, "loop", false, "keep scraping every CRAWL_INTERVAL")
	fs.BoolVar(&opts.browse, "browse", false, "print a page of the catalog and exit")
	fs.StringVar(&opts.category, "category", "", "category slug to browse")
	fs.StringVar(&opts.sort, "sort", "score", "browse order: score, discount or price")
	fs.StringVar(&opts.search, "q", "", "case-insensitive title search")
	fs.IntVar(&opts.page, "page", 1, "browse page number")
	err := fs.Parse(args)
	return opts, err
}

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	// Load and validate configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	sites, err := config.LoadSites(cfg.SitesConfigPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid sites configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("catalog", cfg.CatalogDriver).
		Int("sites", len(sites)).
		Msg("Starting application")

	// Set up context cancelled by SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	if opts.browse {
		if err := browse(ctx, os.Stdout, services.Catalog, opts); err != nil {
			log.Fatal().Err(err).Msg("Browse failed")
		}
		return
	}

	fetcher := helpers.NewFetcher(helpers.FetcherConfig{
		UserAgent:   cfg.UserAgent,
		Timeout:     cfg.HTTPTimeout,
		MaxAttempts: cfg.FetchAttempts,
		BackoffBase: cfg.BackoffBase,
		CacheTTL:    cfg.PageCacheTTL,
	}, services.Cache)
	defer fetcher.Close()

	crawlers := crawler.CreateCrawlers(sites, fetcher, opts.testMode, cfg.PrimarySource)
	log.Info().Int("crawler_count", len(crawlers)).Msg("Created crawlers")

	manager := ingest.NewManager(services.Catalog, deal.NewScorer(cfg.PrimarySource), services.Publisher)
	w := worker.NewWorker(manager, crawlers, services.Publisher, cfg.CrawlInterval, func(results ingest.Results) {
		printResults(os.Stdout, results)
	})

	if opts.loop {
		log.Info().Dur("crawl_interval", cfg.CrawlInterval).Msg("Starting deal worker")
		if err := w.Start(ctx); err != nil {
			log.Error().Err(err).Msg("Worker exited with error")
		}
		log.Info().Msg("Shutting down gracefully...")
		return
	}

	if _, err := w.RunOnce(ctx); err != nil {
		log.Error().Err(err).Msg("Scraping run failed")
		services.Cleanup()
		os.Exit(1)
	}
}

// printResults writes one line per site in name order
func printResults(w io.Writer, results ingest.Results) {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		stats := results[name]
		fmt.Fprintf(w, "%s: Found %d deals, Added %d new deals\n", name, stats.Found, stats.Added)
	}
}

// browse prints the summary header and one page of deals
func browse(ctx context.Context, w io.Writer, browser catalog.Browser, opts options) error {
	deals, err := browser.CountActiveDeals(ctx)
	if err != nil {
		return err
	}
	sites, err := browser.CountActiveSites(ctx)
	if err != nil {
		return err
	}
	categories, err := browser.ListCategories(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%d active deals from %d sites\n", deals, sites)
	if len(categories) > 0 {
		fmt.Fprint(w, "Categories:")
		for _, c := range categories {
			fmt.Fprintf(w, " %s", c.Slug)
		}
		fmt.Fprintln(w)
	}

	page, err := browser.ListDeals(ctx, catalog.DealQuery{
		CategorySlug: opts.category,
		Search:       opts.search,
		Sort:         catalog.SortFromName(opts.sort),
		Page:         opts.page,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Page %d of %d (%d matching deals)\n", page.Number, page.TotalPages, page.Total)
	for _, d := range page.Deals {
		fmt.Fprintf(w, "[%3d] %-60s $%.2f (-%d%%) %s\n",
			d.Score, helpers.Truncate(d.Title, 60), d.DiscountedPrice, d.DiscountPercentage, d.ProductURL)
	}
	return nil
}

// Services holds all the initialized services
type Services struct {
	Catalog   catalog.Catalog
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
		s.Publisher = nil
	}
	if s.Catalog != nil {
		s.Catalog.Close()
		s.Catalog = nil
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Initialize catalog
	if cfg.CatalogDriver == "memory" {
		services.Catalog = catalog.NewMemory()
	} else {
		store, err := catalog.OpenSQL(ctx, cfg.CatalogDriver, cfg.CatalogDSN)
		if err != nil {
			return nil, err
		}
		services.Catalog = store
	}
	logger.Info("Opened %s catalog", cfg.CatalogDriver)

	// Initialize page cache; a missing memcache only disables caching
	if cfg.MemcacheAddr != "" && cfg.PageCacheTTL > 0 {
		cacheService, err := cache.NewMemcacheService(cfg.MemcacheAddr, cfg.HTTPTimeout)
		if err != nil {
			logger.Warn("Page cache disabled: %v", err)
		} else {
			services.Cache = cacheService
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	// Initialize publisher
	switch cfg.Publisher {
	case config.PublisherRedis:
		redisPublisher, err := publisher.NewRedisPublisher(
			ctx,
			cfg.Redis.Addr,
			cfg.Redis.DB,
			cfg.Redis.Stream,
			cfg.Redis.StreamCount,
			cfg.Redis.StreamMaxLength,
		)
		if err != nil {
			services.Cleanup()
			return nil, err
		}
		services.Publisher = redisPublisher
		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.Redis.Addr, cfg.Redis.DB, cfg.Redis.Stream)
	case config.PublisherRabbitMQ:
		rabbitPublisher, err := publisher.NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			services.Cleanup()
			return nil, err
		}
		services.Publisher = rabbitPublisher
		logger.Info("Connected to RabbitMQ exchange %s", cfg.RabbitMQ.Exchange)
	default:
		services.Publisher = publisher.Nop{}
	}

	return services, nil
}
