package pricing

import (
	"math"
	"time"
)

type Strategy string

const (
	StrategyCompetitive Strategy = "COMPETITIVE"
	StrategyPremium     Strategy = "PREMIUM"
	StrategyBudget      Strategy = "BUDGET"
	StrategyMatchLowest Strategy = "MATCH_LOWEST"
)

func IsSupportedStrategy(s Strategy) bool {
	switch s {
	case StrategyCompetitive, StrategyPremium, StrategyBudget, StrategyMatchLowest:
		return true
	}
	return false
}

type Opportunity string

const (
	// OpportunityUnderpriced is emitted when priceGap > 0 (our price above
	// the competitor average). The naming mirrors the admin console's
	// historical convention and must not be inverted: downstream consumers
	// bind to it.
	OpportunityUnderpriced Opportunity = "UNDERPRICED"
	OpportunityOverpriced  Opportunity = "OVERPRICED"
)

// Comparison is one append-only price comparison snapshot. Read from the
// store, never mutated here.
type Comparison struct {
	ProductID       string    `json:"productId"`
	ProductName     string    `json:"productName,omitempty"`
	CompetitorID    string    `json:"competitorId"`
	CompetitorName  string    `json:"competitorName,omitempty"`
	MyPrice         float64   `json:"myPrice"`
	CompetitorPrice float64   `json:"competitorPrice"`
	PriceDiff       float64   `json:"priceDiff"`
	PriceDiffPct    float64   `json:"priceDiffPct"`
	IsWinning       bool      `json:"isWinning"`
	PriceDate       time.Time `json:"priceDate"`
}

type CompetitorPrice struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// GapResult is derived per analysis call, never persisted.
type GapResult struct {
	ProductID          string            `json:"productId"`
	ProductName        string            `json:"productName,omitempty"`
	MyPrice            float64           `json:"myPrice"`
	AvgCompetitorPrice float64           `json:"avgCompetitorPrice"`
	MinCompetitorPrice float64           `json:"minCompetitorPrice"`
	MaxCompetitorPrice float64           `json:"maxCompetitorPrice"`
	PriceGap           float64           `json:"priceGap"`
	Opportunity        Opportunity       `json:"opportunity"`
	Competitors        []CompetitorPrice `json:"competitors"`
}

// TrendPoint is a per-competitor, per-day rollup of price history.
type TrendPoint struct {
	CompetitorID string    `json:"competitorId"`
	Date         time.Time `json:"date"`
	Price        float64   `json:"price"`
	ProductCount int       `json:"productCount"`
}

type TrendBucket struct {
	Period        string  `json:"period"`
	AvgPrice      float64 `json:"avgPrice"`
	MinPrice      float64 `json:"minPrice"`
	MaxPrice      float64 `json:"maxPrice"`
	TotalProducts int     `json:"totalProducts"`
}

type Grouping string

const (
	GroupByDay   Grouping = "day"
	GroupByWeek  Grouping = "week"
	GroupByMonth Grouping = "month"
)

// ProductPricing is the current price of one of our own products.
type ProductPricing struct {
	ProductID    string  `json:"productId"`
	Name         string  `json:"name,omitempty"`
	CurrentPrice float64 `json:"currentPrice"`
}

type Suggestion struct {
	ProductID          string   `json:"productId"`
	Name               string   `json:"name,omitempty"`
	CurrentPrice       float64  `json:"currentPrice"`
	SuggestedPrice     float64  `json:"suggestedPrice"`
	AvgCompetitorPrice float64  `json:"avgCompetitorPrice"`
	MinCompetitorPrice float64  `json:"minCompetitorPrice"`
	MaxCompetitorPrice float64  `json:"maxCompetitorPrice"`
	Strategy           Strategy `json:"strategy"`
	Reason             string   `json:"reason"`
}

// validPrice rejects the values that would poison an aggregate: NaN,
// infinities, and non-positive prices.
func validPrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p > 0
}
