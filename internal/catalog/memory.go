package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Memory is an in-process Catalog. Records are copied on the way in and out
// so callers never share state with the store.
type Memory struct {
	mu         sync.RWMutex
	nextID     int64
	sites      map[string]*Site
	categories map[string]*Category
	deals      map[string]*Deal
	logs       []*ScrapeLog
}

var _ Catalog = (*Memory)(nil)

// NewMemory returns an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{
		sites:      make(map[string]*Site),
		categories: make(map[string]*Category),
		deals:      make(map[string]*Deal),
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

// GetOrCreateSite implements Catalog.
func (m *Memory) GetOrCreateSite(_ context.Context, name string, defaults Site) (*Site, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if site, ok := m.sites[name]; ok {
		found := *site
		return &found, false, nil
	}

	site := defaults
	site.ID = m.id()
	site.Name = name
	m.sites[name] = &site

	created := site
	return &created, true, nil
}

// GetOrCreateCategory implements Catalog.
func (m *Memory) GetOrCreateCategory(_ context.Context, name string, defaults Category) (*Category, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if category, ok := m.categories[name]; ok {
		found := *category
		return &found, false, nil
	}

	for _, existing := range m.categories {
		if existing.Slug == defaults.Slug {
			return nil, false, fmt.Errorf("category slug %q already used by %q", defaults.Slug, existing.Name)
		}
	}

	category := defaults
	category.ID = m.id()
	category.Name = name
	m.categories[name] = &category

	created := category
	return &created, true, nil
}

// FindDealByHash implements Catalog.
func (m *Memory) FindDealByHash(_ context.Context, hash string) (*Deal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	deal, ok := m.deals[hash]
	if !ok {
		return nil, ErrNotFound
	}
	found := *deal
	return &found, nil
}

// CreateDeal implements Catalog.
func (m *Memory) CreateDeal(_ context.Context, deal *Deal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.deals[deal.Hash]; exists {
		return fmt.Errorf("deal %s already exists", deal.Hash)
	}

	deal.ID = m.id()
	stored := *deal
	m.deals[deal.Hash] = &stored
	return nil
}

// UpdateDeal implements Catalog.
func (m *Memory) UpdateDeal(_ context.Context, deal *Deal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.deals[deal.Hash]
	if !ok {
		return ErrNotFound
	}

	stored := *deal
	stored.ID = existing.ID
	stored.FirstSeen = existing.FirstSeen
	m.deals[deal.Hash] = &stored
	return nil
}

// StartScrapeLog implements Catalog. A log without a status starts as pending.
func (m *Memory) StartScrapeLog(_ context.Context, log *ScrapeLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if log.Status == "" {
		log.Status = StatusPending
	}
	log.ID = m.id()
	stored := *log
	m.logs = append(m.logs, &stored)
	return nil
}

// FinishScrapeLog implements Catalog.
func (m *Memory) FinishScrapeLog(_ context.Context, log *ScrapeLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.logs {
		if existing.ID == log.ID {
			stored := *log
			m.logs[i] = &stored
			return nil
		}
	}
	return ErrNotFound
}

// ListScrapeLogs implements Catalog.
func (m *Memory) ListScrapeLogs(_ context.Context, siteID int64) ([]ScrapeLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	logs := lo.Filter(m.logs, func(l *ScrapeLog, _ int) bool { return l.SiteID == siteID })
	return lo.Map(logs, func(l *ScrapeLog, _ int) ScrapeLog { return *l }), nil
}

// ListDeals implements Browser.
func (m *Memory) ListDeals(_ context.Context, query DealQuery) (*DealPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var categoryID *int64
	if query.CategorySlug != "" {
		category, ok := lo.Find(lo.Values(m.categories), func(c *Category) bool { return c.Slug == query.CategorySlug })
		if !ok {
			number, pages, _ := pageBounds(query.Page, 0)
			return &DealPage{Number: number, TotalPages: pages}, nil
		}
		categoryID = &category.ID
	}

	search := strings.ToLower(strings.TrimSpace(query.Search))
	deals := make([]Deal, 0, len(m.deals))
	for _, d := range m.deals {
		if !d.Active {
			continue
		}
		if categoryID != nil && (d.CategoryID == nil || *d.CategoryID != *categoryID) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(d.Title), search) {
			continue
		}
		deals = append(deals, *d)
	}

	sortDeals(deals, normalizedSort(query.Sort))

	number, pages, offset := pageBounds(query.Page, len(deals))
	end := min(offset+PageSize, len(deals))

	return &DealPage{
		Deals:      deals[offset:end],
		Number:     number,
		TotalPages: pages,
		Total:      len(deals),
	}, nil
}

// sortDeals orders deals by the given sort, breaking ties by id.
func sortDeals(deals []Deal, order string) {
	sort.SliceStable(deals, func(i, j int) bool {
		a, b := deals[i], deals[j]
		switch order {
		case SortDiscount:
			if a.DiscountPercentage != b.DiscountPercentage {
				return a.DiscountPercentage > b.DiscountPercentage
			}
		case SortPrice:
			if a.DiscountedPrice != b.DiscountedPrice {
				return a.DiscountedPrice < b.DiscountedPrice
			}
		default:
			if a.Score != b.Score {
				return a.Score > b.Score
			}
		}
		return a.ID < b.ID
	})
}

// ListCategories implements Browser.
func (m *Memory) ListCategories(_ context.Context) ([]Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	categories := lo.Map(lo.Values(m.categories), func(c *Category, _ int) Category { return *c })
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

// CountActiveDeals implements Browser.
func (m *Memory) CountActiveDeals(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return lo.CountBy(lo.Values(m.deals), func(d *Deal) bool { return d.Active }), nil
}

// CountActiveSites implements Browser.
func (m *Memory) CountActiveSites(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return lo.CountBy(lo.Values(m.sites), func(s *Site) bool { return s.Active }), nil
}

// Close implements Catalog.
func (m *Memory) Close() error {
	return nil
}
