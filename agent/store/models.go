package store

import (
	"time"

	"github.com/uptrace/bun"
)

type Competitor struct {
	bun.BaseModel `bun:"table:competitors,alias:c"`

	ID         string    `bun:"id,pk" json:"id"`
	Name       string    `bun:"name,notnull" json:"name"`
	WebsiteURL string    `bun:"website_url" json:"websiteUrl,omitempty"`
	Category   string    `bun:"category" json:"category,omitempty"`
	Status     string    `bun:"status,default:'active'" json:"status"`
	CreatedAt  time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updatedAt"`
}

type CompetitorNote struct {
	bun.BaseModel `bun:"table:competitor_notes,alias:cn"`

	ID           string    `bun:"id,pk" json:"id"`
	CompetitorID string    `bun:"competitor_id,notnull" json:"competitorId"`
	Note         string    `bun:"note,notnull" json:"note"`
	AuthorID     string    `bun:"author_id" json:"authorId,omitempty"`
	CreatedAt    time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt"`
}

type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID        string    `bun:"id,pk" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	SKU       string    `bun:"sku" json:"sku,omitempty"`
	Category  string    `bun:"category" json:"category,omitempty"`
	Price     float64   `bun:"price,notnull" json:"price"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updatedAt"`
}

// CompetitorPriceComparison rows are append-only snapshots; this
// subsystem reads and aggregates them, never mutates them.
type CompetitorPriceComparison struct {
	bun.BaseModel `bun:"table:competitor_price_comparisons,alias:cpc"`

	ID              string    `bun:"id,pk" json:"id"`
	ProductID       string    `bun:"product_id,notnull" json:"productId"`
	CompetitorID    string    `bun:"competitor_id,notnull" json:"competitorId"`
	MyPrice         float64   `bun:"my_price,notnull" json:"myPrice"`
	CompetitorPrice float64   `bun:"competitor_price,notnull" json:"competitorPrice"`
	PriceDiff       float64   `bun:"price_diff" json:"priceDiff"`
	PriceDiffPct    float64   `bun:"price_diff_pct" json:"priceDiffPct"`
	IsWinning       bool      `bun:"is_winning" json:"isWinning"`
	PriceDate       time.Time `bun:"price_date,notnull" json:"priceDate"`

	Product    *Product    `bun:"rel:belongs-to,join:product_id=id" json:"-"`
	Competitor *Competitor `bun:"rel:belongs-to,join:competitor_id=id" json:"-"`
}

type CompetitorPriceHistory struct {
	bun.BaseModel `bun:"table:competitor_price_history,alias:cph"`

	ID           string    `bun:"id,pk" json:"id"`
	CompetitorID string    `bun:"competitor_id,notnull" json:"competitorId"`
	ProductID    string    `bun:"product_id,notnull" json:"productId"`
	Price        float64   `bun:"price,notnull" json:"price"`
	RecordedAt   time.Time `bun:"recorded_at,notnull" json:"recordedAt"`
}
