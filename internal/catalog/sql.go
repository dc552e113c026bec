package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported database/sql drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// SQLStore is a Catalog backed by sqlite3 or postgres.
type SQLStore struct {
	db     *sql.DB
	driver string
}

var _ Catalog = (*SQLStore)(nil)

// OpenSQL opens the database, checks the connection and creates missing tables.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported catalog driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	if driver == DriverSQLite {
		// sqlite allows one writer; in-memory databases are per connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping catalog database: %w", err)
	}

	store := &SQLStore{db: db, driver: driver}
	if err := store.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) createTables(ctx context.Context) error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	floatType := "REAL"
	if s.driver == DriverPostgres {
		idColumn = "BIGSERIAL PRIMARY KEY"
		floatType = "DOUBLE PRECISION"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS sites (
			id ` + idColumn + `,
			name VARCHAR(100) NOT NULL UNIQUE,
			base_url TEXT NOT NULL DEFAULT '',
			deals_page_url TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id ` + idColumn + `,
			name VARCHAR(100) NOT NULL UNIQUE,
			slug VARCHAR(100) NOT NULL UNIQUE,
			parent_id BIGINT NULL REFERENCES categories(id)
		)`,
		`CREATE TABLE IF NOT EXISTS deals (
			id ` + idColumn + `,
			deal_hash VARCHAR(64) NOT NULL UNIQUE,
			title VARCHAR(500) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			original_price ` + floatType + ` NULL,
			discounted_price ` + floatType + ` NOT NULL,
			discount_percentage INTEGER NOT NULL DEFAULT 0,
			currency VARCHAR(3) NOT NULL DEFAULT 'USD',
			product_url TEXT NOT NULL,
			image_url TEXT NOT NULL DEFAULT '',
			brand VARCHAR(100) NOT NULL DEFAULT '',
			category_id BIGINT NULL REFERENCES categories(id),
			site_id BIGINT NOT NULL REFERENCES sites(id),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			valid_until TIMESTAMP NULL,
			first_seen TIMESTAMP NOT NULL,
			last_checked TIMESTAMP NOT NULL,
			click_count INTEGER NOT NULL DEFAULT 0,
			view_count INTEGER NOT NULL DEFAULT 0,
			deal_score INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deals_score ON deals (deal_score)`,
		`CREATE INDEX IF NOT EXISTS idx_deals_category ON deals (category_id)`,
		`CREATE TABLE IF NOT EXISTS scrape_logs (
			id ` + idColumn + `,
			run_id VARCHAR(36) NOT NULL,
			site_id BIGINT NOT NULL REFERENCES sites(id),
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NULL,
			deals_found INTEGER NOT NULL DEFAULT 0,
			deals_added INTEGER NOT NULL DEFAULT 0,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			error_message TEXT NOT NULL DEFAULT ''
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create catalog tables: %w", err)
		}
	}
	return nil
}

// rebind rewrites '?' placeholders as $1, $2... for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) insertReturningID(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(query+" RETURNING id"), args...).Scan(&id)
	return id, err
}

// GetOrCreateSite implements Catalog.
func (s *SQLStore) GetOrCreateSite(ctx context.Context, name string, defaults Site) (*Site, bool, error) {
	site := &Site{}
	err := s.db.QueryRowContext(ctx,
		s.rebind("SELECT id, name, base_url, deals_page_url, is_active FROM sites WHERE name = ?"), name,
	).Scan(&site.ID, &site.Name, &site.BaseURL, &site.DealsPageURL, &site.Active)
	if err == nil {
		return site, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to get site %s: %w", name, err)
	}

	*site = defaults
	site.Name = name
	site.ID, err = s.insertReturningID(ctx,
		"INSERT INTO sites (name, base_url, deals_page_url, is_active) VALUES (?, ?, ?, ?)",
		site.Name, site.BaseURL, site.DealsPageURL, site.Active,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create site %s: %w", name, err)
	}
	return site, true, nil
}

// GetOrCreateCategory implements Catalog.
func (s *SQLStore) GetOrCreateCategory(ctx context.Context, name string, defaults Category) (*Category, bool, error) {
	category := &Category{}
	var parentID sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		s.rebind("SELECT id, name, slug, parent_id FROM categories WHERE name = ?"), name,
	).Scan(&category.ID, &category.Name, &category.Slug, &parentID)
	if err == nil {
		category.ParentID = nullInt64Ptr(parentID)
		return category, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to get category %s: %w", name, err)
	}

	*category = defaults
	category.Name = name
	category.ID, err = s.insertReturningID(ctx,
		"INSERT INTO categories (name, slug, parent_id) VALUES (?, ?, ?)",
		category.Name, category.Slug, int64PtrValue(category.ParentID),
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create category %s: %w", name, err)
	}
	return category, true, nil
}

const dealColumns = `id, deal_hash, title, description, original_price, discounted_price,
	discount_percentage, currency, product_url, image_url, brand, category_id, site_id,
	is_active, is_verified, valid_until, first_seen, last_checked, click_count, view_count, deal_score`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeal(row rowScanner) (*Deal, error) {
	var (
		d             Deal
		originalPrice sql.NullFloat64
		categoryID    sql.NullInt64
		validUntil    sql.NullTime
	)

	err := row.Scan(
		&d.ID, &d.Hash, &d.Title, &d.Description, &originalPrice, &d.DiscountedPrice,
		&d.DiscountPercentage, &d.Currency, &d.ProductURL, &d.ImageURL, &d.Brand, &categoryID, &d.SiteID,
		&d.Active, &d.Verified, &validUntil, &d.FirstSeen, &d.LastChecked, &d.ClickCount, &d.ViewCount, &d.Score,
	)
	if err != nil {
		return nil, err
	}

	if originalPrice.Valid {
		d.OriginalPrice = &originalPrice.Float64
	}
	d.CategoryID = nullInt64Ptr(categoryID)
	if validUntil.Valid {
		d.ValidUntil = &validUntil.Time
	}
	return &d, nil
}

// FindDealByHash implements Catalog.
func (s *SQLStore) FindDealByHash(ctx context.Context, hash string) (*Deal, error) {
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+dealColumns+" FROM deals WHERE deal_hash = ?"), hash)
	d, err := scanDeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find deal %s: %w", hash, err)
	}
	return d, nil
}

// CreateDeal implements Catalog.
func (s *SQLStore) CreateDeal(ctx context.Context, d *Deal) error {
	id, err := s.insertReturningID(ctx,
		`INSERT INTO deals (deal_hash, title, description, original_price, discounted_price,
			discount_percentage, currency, product_url, image_url, brand, category_id, site_id,
			is_active, is_verified, valid_until, first_seen, last_checked, click_count, view_count, deal_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Hash, d.Title, d.Description, float64PtrValue(d.OriginalPrice), d.DiscountedPrice,
		d.DiscountPercentage, d.Currency, d.ProductURL, d.ImageURL, d.Brand, int64PtrValue(d.CategoryID), d.SiteID,
		d.Active, d.Verified, timePtrValue(d.ValidUntil), d.FirstSeen.UTC(), d.LastChecked.UTC(), d.ClickCount, d.ViewCount, d.Score,
	)
	if err != nil {
		return fmt.Errorf("failed to create deal %s: %w", d.Hash, err)
	}
	d.ID = id
	return nil
}

// UpdateDeal implements Catalog. first_seen and the hash are never rewritten.
func (s *SQLStore) UpdateDeal(ctx context.Context, d *Deal) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE deals SET title = ?, description = ?, original_price = ?, discounted_price = ?,
			discount_percentage = ?, currency = ?, product_url = ?, image_url = ?, brand = ?,
			category_id = ?, is_active = ?, is_verified = ?, valid_until = ?, last_checked = ?,
			click_count = ?, view_count = ?, deal_score = ?
		WHERE deal_hash = ?`),
		d.Title, d.Description, float64PtrValue(d.OriginalPrice), d.DiscountedPrice,
		d.DiscountPercentage, d.Currency, d.ProductURL, d.ImageURL, d.Brand,
		int64PtrValue(d.CategoryID), d.Active, d.Verified, timePtrValue(d.ValidUntil), d.LastChecked.UTC(),
		d.ClickCount, d.ViewCount, d.Score, d.Hash,
	)
	if err != nil {
		return fmt.Errorf("failed to update deal %s: %w", d.Hash, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update deal %s: %w", d.Hash, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// StartScrapeLog implements Catalog. A log without a status starts as pending.
func (s *SQLStore) StartScrapeLog(ctx context.Context, log *ScrapeLog) error {
	if log.Status == "" {
		log.Status = StatusPending
	}
	id, err := s.insertReturningID(ctx,
		"INSERT INTO scrape_logs (run_id, site_id, started_at, status) VALUES (?, ?, ?, ?)",
		log.RunID, log.SiteID, log.StartedAt.UTC(), log.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to start scrape log: %w", err)
	}
	log.ID = id
	return nil
}

// FinishScrapeLog implements Catalog.
func (s *SQLStore) FinishScrapeLog(ctx context.Context, log *ScrapeLog) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE scrape_logs SET finished_at = ?, deals_found = ?, deals_added = ?, status = ?, error_message = ?
		WHERE id = ?`),
		timePtrValue(log.FinishedAt), log.DealsFound, log.DealsAdded, log.Status, log.ErrorMessage, log.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish scrape log %d: %w", log.ID, err)
	}
	return nil
}

// ListScrapeLogs implements Catalog.
func (s *SQLStore) ListScrapeLogs(ctx context.Context, siteID int64) ([]ScrapeLog, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, run_id, site_id, started_at, finished_at, deals_found, deals_added, status, error_message
		FROM scrape_logs WHERE site_id = ? ORDER BY id`), siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scrape logs: %w", err)
	}
	defer rows.Close()

	var logs []ScrapeLog
	for rows.Next() {
		var (
			l          ScrapeLog
			finishedAt sql.NullTime
		)
		if err := rows.Scan(&l.ID, &l.RunID, &l.SiteID, &l.StartedAt, &finishedAt,
			&l.DealsFound, &l.DealsAdded, &l.Status, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("failed to scan scrape log: %w", err)
		}
		if finishedAt.Valid {
			l.FinishedAt = &finishedAt.Time
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// ListDeals implements Browser.
func (s *SQLStore) ListDeals(ctx context.Context, query DealQuery) (*DealPage, error) {
	where := []string{"d.is_active = ?"}
	args := []any{true}

	if query.CategorySlug != "" {
		where = append(where, "c.slug = ?")
		args = append(args, query.CategorySlug)
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		where = append(where, `LOWER(d.title) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(search))+"%")
	}

	from := " FROM deals d LEFT JOIN categories c ON c.id = d.category_id WHERE " + strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, s.rebind("SELECT COUNT(*)"+from), args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count deals: %w", err)
	}

	number, pages, offset := pageBounds(query.Page, total)

	orderBy := map[string]string{
		SortScore:    "d.deal_score DESC",
		SortDiscount: "d.discount_percentage DESC",
		SortPrice:    "d.discounted_price ASC",
	}[normalizedSort(query.Sort)]

	columns := "d." + strings.ReplaceAll(strings.Join(strings.Fields(dealColumns), " "), ", ", ", d.")
	listQuery := "SELECT " + columns + from + " ORDER BY " + orderBy + ", d.id ASC LIMIT ? OFFSET ?"

	rows, err := s.db.QueryContext(ctx, s.rebind(listQuery), append(args, PageSize, offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	defer rows.Close()

	deals := make([]Deal, 0, PageSize)
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		deals = append(deals, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}

	return &DealPage{Deals: deals, Number: number, TotalPages: pages, Total: total}, nil
}

// ListCategories implements Browser.
func (s *SQLStore) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, slug, parent_id FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var (
			c        Category
			parentID sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &parentID); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		c.ParentID = nullInt64Ptr(parentID)
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CountActiveDeals implements Browser.
func (s *SQLStore) CountActiveDeals(ctx context.Context) (int, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM deals WHERE is_active = ?")
}

// CountActiveSites implements Browser.
func (s *SQLStore) CountActiveSites(ctx context.Context) (int, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM sites WHERE is_active = ?")
}

func (s *SQLStore) count(ctx context.Context, query string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.rebind(query), true).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	return n, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func int64PtrValue(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func float64PtrValue(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func timePtrValue(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC()
}
