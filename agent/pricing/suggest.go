package pricing

import (
	"fmt"
	"math"
	"time"
)

const (
	DefaultMaxChangePercent = 20.0
	DefaultSuggestDays      = 30

	// ReasonNoData is returned verbatim for products without competitor
	// comparisons inside the window.
	ReasonNoData = "No competitor data available"
)

type SuggestOptions struct {
	Strategy Strategy
	// MaxChangePercent caps |suggested - current| / current.
	MaxChangePercent float64
	Days             int
	// Reason, when set, replaces the generated strategy explanation.
	Reason string
	Now    time.Time
}

func (o SuggestOptions) normalized() SuggestOptions {
	if o.MaxChangePercent <= 0 {
		o.MaxChangePercent = DefaultMaxChangePercent
	}
	if o.Days <= 0 {
		o.Days = DefaultSuggestDays
	}
	if o.Now.IsZero() {
		o.Now = time.Now().UTC()
	}
	return o
}

// SuggestPrices derives a target price per product from competitor
// statistics in the trailing window and clamps the change to the
// configured percentage. It only ever returns a suggestion; persistence
// goes through the approval-gated price update tool.
func SuggestPrices(products []ProductPricing, records []Comparison, opts SuggestOptions) ([]Suggestion, error) {
	if !IsSupportedStrategy(opts.Strategy) {
		return nil, fmt.Errorf("unsupported pricing strategy %q", opts.Strategy)
	}
	opts = opts.normalized()
	cutoff := opts.Now.AddDate(0, 0, -opts.Days)

	stats := make(map[string]*priceStats)
	for _, rec := range records {
		if rec.PriceDate.Before(cutoff) || !validPrice(rec.CompetitorPrice) {
			continue
		}
		s, ok := stats[rec.ProductID]
		if !ok {
			s = &priceStats{min: math.Inf(1), max: math.Inf(-1)}
			stats[rec.ProductID] = s
		}
		s.observe(rec.CompetitorPrice)
	}

	out := make([]Suggestion, 0, len(products))
	for _, product := range products {
		s, ok := stats[product.ProductID]
		if !ok || s.count == 0 {
			out = append(out, Suggestion{
				ProductID:      product.ProductID,
				Name:           product.Name,
				CurrentPrice:   product.CurrentPrice,
				SuggestedPrice: product.CurrentPrice,
				Strategy:       opts.Strategy,
				Reason:         ReasonNoData,
			})
			continue
		}

		avg := s.sum / float64(s.count)
		target, reason := targetFor(opts.Strategy, avg, s.min, s.max)
		if opts.Reason != "" {
			reason = opts.Reason
		}

		if product.CurrentPrice > 0 {
			limit := product.CurrentPrice * opts.MaxChangePercent / 100
			if change := target - product.CurrentPrice; math.Abs(change) > limit {
				if change > 0 {
					target = product.CurrentPrice + limit
				} else {
					target = product.CurrentPrice - limit
				}
				reason = fmt.Sprintf("%s (change limited to %.0f%%)", reason, opts.MaxChangePercent)
			}
		}

		out = append(out, Suggestion{
			ProductID:          product.ProductID,
			Name:               product.Name,
			CurrentPrice:       product.CurrentPrice,
			SuggestedPrice:     roundCents(target),
			AvgCompetitorPrice: roundCents(avg),
			MinCompetitorPrice: s.min,
			MaxCompetitorPrice: s.max,
			Strategy:           opts.Strategy,
			Reason:             reason,
		})
	}
	return out, nil
}

type priceStats struct {
	sum   float64
	min   float64
	max   float64
	count int
}

func (s *priceStats) observe(price float64) {
	s.sum += price
	s.count++
	if price < s.min {
		s.min = price
	}
	if price > s.max {
		s.max = price
	}
}

func targetFor(strategy Strategy, avg, min, max float64) (float64, string) {
	switch strategy {
	case StrategyPremium:
		return max * 1.10, fmt.Sprintf("Premium positioning: 10%% above highest competitor price %.2f", max)
	case StrategyBudget:
		return min * 0.90, fmt.Sprintf("Budget positioning: 10%% below lowest competitor price %.2f", min)
	case StrategyMatchLowest:
		return min, fmt.Sprintf("Matching lowest competitor price %.2f", min)
	default:
		return avg, fmt.Sprintf("Competitive positioning: matching average competitor price %.2f", avg)
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
