package catalog

import "time"

// Scrape log statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Site is an e-commerce source that deals are scraped from.
// Its Name is part of every deal hash and must not change.
type Site struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	BaseURL      string `json:"base_url"`
	DealsPageURL string `json:"deals_page_url"`
	Active       bool   `json:"is_active"`
}

// Category groups deals. Slug is unique.
type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

// Deal is a persisted, deduplicated listing.
type Deal struct {
	ID                 int64      `json:"id"`
	Hash               string     `json:"deal_hash"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	OriginalPrice      *float64   `json:"original_price,omitempty"`
	DiscountedPrice    float64    `json:"discounted_price"`
	DiscountPercentage int        `json:"discount_percentage"`
	Currency           string     `json:"currency"`
	ProductURL         string     `json:"product_url"`
	ImageURL           string     `json:"image_url,omitempty"`
	Brand              string     `json:"brand,omitempty"`
	CategoryID         *int64     `json:"category_id,omitempty"`
	SiteID             int64      `json:"source_site_id"`
	Active             bool       `json:"is_active"`
	Verified           bool       `json:"is_verified"`
	ValidUntil         *time.Time `json:"valid_until,omitempty"`
	FirstSeen          time.Time  `json:"first_seen"`
	LastChecked        time.Time  `json:"last_checked"`
	ClickCount         int        `json:"click_count"`
	ViewCount          int        `json:"view_count"`
	Score              int        `json:"deal_score"`
}

// ScrapeLog records one site's part of a scraping run.
type ScrapeLog struct {
	ID           int64      `json:"id"`
	RunID        string     `json:"run_id"`
	SiteID       int64      `json:"site_id"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	DealsFound   int        `json:"deals_found"`
	DealsAdded   int        `json:"deals_added"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
}
