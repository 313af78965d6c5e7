package store

import (
	"context"
	"errors"
	"time"

	pricingx "github.com/pricewatch/pricewatch/agent/pricing"
)

var ErrNotFound = errors.New("record not found")

// ComparisonFilter scopes price comparison reads. Zero-value fields do
// not filter.
type ComparisonFilter struct {
	ProductIDs    []string
	CompetitorIDs []string
	Category      string
	Since         time.Time
}

// TrendFilter scopes the per-competitor daily history rollup.
type TrendFilter struct {
	ProductIDs    []string
	CompetitorIDs []string
	Since         time.Time
}

// Store is the typed query interface over the external relational data
// store. Everything except the mutation methods is read-only, and the
// mutation methods are reachable only through approved proposals.
type Store interface {
	Competitor(ctx context.Context, id string) (*Competitor, error)
	Competitors(ctx context.Context) ([]Competitor, error)
	CreateCompetitor(ctx context.Context, competitor *Competitor) error
	UpdateCompetitor(ctx context.Context, competitor *Competitor) error
	DeleteCompetitor(ctx context.Context, id string) error

	NotesForCompetitor(ctx context.Context, competitorID string) ([]CompetitorNote, error)
	AddNote(ctx context.Context, note *CompetitorNote) error

	Product(ctx context.Context, id string) (*Product, error)
	Products(ctx context.Context, ids []string) ([]Product, error)
	UpdateProductPrice(ctx context.Context, id string, price float64, at time.Time) error

	Comparisons(ctx context.Context, filter ComparisonFilter) ([]pricingx.Comparison, error)
	TrendPoints(ctx context.Context, filter TrendFilter) ([]pricingx.TrendPoint, error)
	RecordPriceHistory(ctx context.Context, entry *CompetitorPriceHistory) error
}
