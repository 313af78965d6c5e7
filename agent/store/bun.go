package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	pricingx "github.com/pricewatch/pricewatch/agent/pricing"
)

type Config struct {
	DSN          string        `envconfig:"DSN" split_words:"true" required:"true"`
	MaxOpenConns int           `envconfig:"MAX_OPEN_CONNS" split_words:"true" default:"10"`
	Timeout      time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// BunStore implements Store against Postgres through bun.
type BunStore struct {
	db *bun.DB
}

var _ Store = (*BunStore)(nil)

func NewBunStore(cfg Config) (*BunStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("database dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(cfg.Timeout),
	))
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return &BunStore{db: bun.NewDB(sqldb, pgdialect.New())}, nil
}

func (s *BunStore) Close() error {
	return s.db.Close()
}

func (s *BunStore) Competitor(ctx context.Context, id string) (*Competitor, error) {
	competitor := new(Competitor)
	err := s.db.NewSelect().Model(competitor).Where("c.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select competitor: %w", err)
	}
	return competitor, nil
}

func (s *BunStore) Competitors(ctx context.Context) ([]Competitor, error) {
	var competitors []Competitor
	err := s.db.NewSelect().Model(&competitors).Order("name ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select competitors: %w", err)
	}
	return competitors, nil
}

func (s *BunStore) CreateCompetitor(ctx context.Context, competitor *Competitor) error {
	if competitor.ID == "" {
		competitor.ID = uuid.NewString()
	}
	if _, err := s.db.NewInsert().Model(competitor).Exec(ctx); err != nil {
		return fmt.Errorf("insert competitor: %w", err)
	}
	return nil
}

func (s *BunStore) UpdateCompetitor(ctx context.Context, competitor *Competitor) error {
	res, err := s.db.NewUpdate().
		Model(competitor).
		WherePK().
		OmitZero().
		Set("updated_at = ?", time.Now().UTC()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update competitor: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *BunStore) DeleteCompetitor(ctx context.Context, id string) error {
	res, err := s.db.NewDelete().Model((*Competitor)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete competitor: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *BunStore) NotesForCompetitor(ctx context.Context, competitorID string) ([]CompetitorNote, error) {
	var notes []CompetitorNote
	err := s.db.NewSelect().
		Model(&notes).
		Where("competitor_id = ?", competitorID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select competitor notes: %w", err)
	}
	return notes, nil
}

func (s *BunStore) AddNote(ctx context.Context, note *CompetitorNote) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if _, err := s.db.NewInsert().Model(note).Exec(ctx); err != nil {
		return fmt.Errorf("insert competitor note: %w", err)
	}
	return nil
}

func (s *BunStore) Product(ctx context.Context, id string) (*Product, error) {
	product := new(Product)
	err := s.db.NewSelect().Model(product).Where("p.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select product: %w", err)
	}
	return product, nil
}

func (s *BunStore) Products(ctx context.Context, ids []string) ([]Product, error) {
	var products []Product
	q := s.db.NewSelect().Model(&products)
	if len(ids) > 0 {
		q = q.Where("p.id IN (?)", bun.In(ids))
	}
	if err := q.Order("name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return products, nil
}

func (s *BunStore) UpdateProductPrice(ctx context.Context, id string, price float64, at time.Time) error {
	res, err := s.db.NewUpdate().
		Model((*Product)(nil)).
		Set("price = ?", price).
		Set("updated_at = ?", at.UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update product price: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *BunStore) Comparisons(ctx context.Context, filter ComparisonFilter) ([]pricingx.Comparison, error) {
	var rows []CompetitorPriceComparison
	q := s.db.NewSelect().
		Model(&rows).
		Relation("Product").
		Relation("Competitor")
	if len(filter.ProductIDs) > 0 {
		q = q.Where("cpc.product_id IN (?)", bun.In(filter.ProductIDs))
	}
	if len(filter.CompetitorIDs) > 0 {
		q = q.Where("cpc.competitor_id IN (?)", bun.In(filter.CompetitorIDs))
	}
	if filter.Category != "" {
		q = q.Where("p.category = ?", filter.Category)
	}
	if !filter.Since.IsZero() {
		q = q.Where("cpc.price_date >= ?", filter.Since.UTC())
	}
	if err := q.Order("cpc.price_date ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select price comparisons: %w", err)
	}

	out := make([]pricingx.Comparison, 0, len(rows))
	for _, row := range rows {
		rec := pricingx.Comparison{
			ProductID:       row.ProductID,
			CompetitorID:    row.CompetitorID,
			MyPrice:         row.MyPrice,
			CompetitorPrice: row.CompetitorPrice,
			PriceDiff:       row.PriceDiff,
			PriceDiffPct:    row.PriceDiffPct,
			IsWinning:       row.IsWinning,
			PriceDate:       row.PriceDate,
		}
		if row.Product != nil {
			rec.ProductName = row.Product.Name
		}
		if row.Competitor != nil {
			rec.CompetitorName = row.Competitor.Name
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *BunStore) TrendPoints(ctx context.Context, filter TrendFilter) ([]pricingx.TrendPoint, error) {
	var points []pricingx.TrendPoint
	q := s.db.NewSelect().
		Model((*CompetitorPriceHistory)(nil)).
		ColumnExpr("cph.competitor_id AS competitor_id").
		ColumnExpr("date_trunc('day', cph.recorded_at) AS date").
		ColumnExpr("avg(cph.price) AS price").
		ColumnExpr("count(DISTINCT cph.product_id) AS product_count").
		GroupExpr("cph.competitor_id, date_trunc('day', cph.recorded_at)")
	if len(filter.ProductIDs) > 0 {
		q = q.Where("cph.product_id IN (?)", bun.In(filter.ProductIDs))
	}
	if len(filter.CompetitorIDs) > 0 {
		q = q.Where("cph.competitor_id IN (?)", bun.In(filter.CompetitorIDs))
	}
	if !filter.Since.IsZero() {
		q = q.Where("cph.recorded_at >= ?", filter.Since.UTC())
	}
	if err := q.OrderExpr("date ASC").Scan(ctx, &points); err != nil {
		return nil, fmt.Errorf("select trend points: %w", err)
	}
	return points, nil
}

func (s *BunStore) RecordPriceHistory(ctx context.Context, entry *CompetitorPriceHistory) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	if _, err := s.db.NewInsert().Model(entry).Exec(ctx); err != nil {
		return fmt.Errorf("insert price history: %w", err)
	}
	return nil
}
