package catalog

import (
	"context"
	"errors"
)

// PageSize is the number of deals on one browse page.
const PageSize = 9

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("catalog: record not found")

// Sort orders for browsing.
const (
	SortScore    = "-deal_score"
	SortDiscount = "-discount_percentage"
	SortPrice    = "discounted_price"
)

// Catalog stores sites, categories, deals and scrape logs.
type Catalog interface {
	// GetOrCreateSite returns the site named name, creating it from defaults when missing.
	GetOrCreateSite(ctx context.Context, name string, defaults Site) (*Site, bool, error)
	// GetOrCreateCategory returns the category named name, creating it from defaults when missing.
	GetOrCreateCategory(ctx context.Context, name string, defaults Category) (*Category, bool, error)
	// FindDealByHash returns ErrNotFound when no deal has the hash.
	FindDealByHash(ctx context.Context, hash string) (*Deal, error)
	CreateDeal(ctx context.Context, deal *Deal) error
	UpdateDeal(ctx context.Context, deal *Deal) error

	StartScrapeLog(ctx context.Context, log *ScrapeLog) error
	FinishScrapeLog(ctx context.Context, log *ScrapeLog) error
	ListScrapeLogs(ctx context.Context, siteID int64) ([]ScrapeLog, error)

	Browser

	Close() error
}

// Browser is the read side used by presentation code.
type Browser interface {
	ListDeals(ctx context.Context, query DealQuery) (*DealPage, error)
	ListCategories(ctx context.Context) ([]Category, error)
	CountActiveDeals(ctx context.Context) (int, error)
	CountActiveSites(ctx context.Context) (int, error)
}

// DealQuery filters, sorts and paginates active deals.
type DealQuery struct {
	CategorySlug string
	Search       string
	Sort         string
	Page         int
}

// DealPage is one page of browse results.
type DealPage struct {
	Deals      []Deal
	Number     int
	TotalPages int
	Total      int
}

// normalizedSort falls back to score ordering for unknown sorts.
func normalizedSort(sort string) string {
	switch sort {
	case SortScore, SortDiscount, SortPrice:
		return sort
	default:
		return SortScore
	}
}

// SortFromName maps short CLI names to sort orders.
func SortFromName(name string) string {
	switch name {
	case "discount":
		return SortDiscount
	case "price":
		return SortPrice
	default:
		return normalizedSort(name)
	}
}

// pageBounds clamps page into range and returns it with the page count and slice offset.
func pageBounds(page, total int) (number, pages, offset int) {
	pages = (total + PageSize - 1) / PageSize
	if pages == 0 {
		pages = 1
	}

	number = page
	if number < 1 {
		number = 1
	}
	if number > pages {
		number = pages
	}

	return number, pages, (number - 1) * PageSize
}
