package ingest

import (
	"time"

	"sjsage522/dealcatalog/internal/catalog"
)

// EventDealAdded is the type of the event published for each new deal.
const EventDealAdded = "deal.added"

// DealEvent is the published form of a newly added deal.
type DealEvent struct {
	Type               string    `json:"type"`
	Hash               string    `json:"hash"`
	Title              string    `json:"title"`
	Site               string    `json:"site"`
	Category           string    `json:"category"`
	DiscountedPrice    float64   `json:"discounted_price"`
	OriginalPrice      *float64  `json:"original_price"`
	DiscountPercentage int       `json:"discount_percentage"`
	Score              int       `json:"score"`
	ProductURL         string    `json:"product_url"`
	ImageURL           string    `json:"image_url"`
	FirstSeen          time.Time `json:"first_seen"`
}

// NewDealEvent builds the event for a stored deal.
func NewDealEvent(site, category string, d *catalog.Deal) DealEvent {
	return DealEvent{
		Type:               EventDealAdded,
		Hash:               d.Hash,
		Title:              d.Title,
		Site:               site,
		Category:           category,
		DiscountedPrice:    d.DiscountedPrice,
		OriginalPrice:      d.OriginalPrice,
		DiscountPercentage: d.DiscountPercentage,
		Score:              d.Score,
		ProductURL:         d.ProductURL,
		ImageURL:           d.ImageURL,
		FirstSeen:          d.FirstSeen,
	}
}
