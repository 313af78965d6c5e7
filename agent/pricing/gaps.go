package pricing

import (
	"math"
	"sort"
	"time"
)

const (
	DefaultMinPriceDiff = 10.0
	DefaultGapDays      = 30
)

type GapOptions struct {
	// MinPriceDiff excludes products whose |priceGap| falls below it.
	MinPriceDiff float64
	// Days is the trailing comparison window.
	Days int
	Now  time.Time
}

func (o GapOptions) normalized() GapOptions {
	if o.MinPriceDiff <= 0 {
		o.MinPriceDiff = DefaultMinPriceDiff
	}
	if o.Days <= 0 {
		o.Days = DefaultGapDays
	}
	if o.Now.IsZero() {
		o.Now = time.Now().UTC()
	}
	return o
}

// AnalyzeGaps groups comparison records by product and reports every
// product whose gap against the competitor average clears the threshold,
// sorted by |priceGap| descending. priceGap > 0 means our price sits
// above the competitor average and is reported as UNDERPRICED; the sign
// convention is load-bearing for downstream consumers.
func AnalyzeGaps(records []Comparison, opts GapOptions) []GapResult {
	opts = opts.normalized()
	cutoff := opts.Now.AddDate(0, 0, -opts.Days)

	type productGroup struct {
		name      string
		myPrice   float64
		myPriceAt time.Time
		latest    map[string]Comparison // competitorID -> most recent record
	}

	groups := make(map[string]*productGroup)
	order := make([]string, 0)

	for _, rec := range records {
		if rec.PriceDate.Before(cutoff) || !validPrice(rec.CompetitorPrice) {
			continue
		}
		g, ok := groups[rec.ProductID]
		if !ok {
			g = &productGroup{latest: make(map[string]Comparison, 4)}
			groups[rec.ProductID] = g
			order = append(order, rec.ProductID)
		}
		if g.name == "" {
			g.name = rec.ProductName
		}
		if validPrice(rec.MyPrice) && !rec.PriceDate.Before(g.myPriceAt) {
			g.myPrice = rec.MyPrice
			g.myPriceAt = rec.PriceDate
		}
		prev, seen := g.latest[rec.CompetitorID]
		if !seen || rec.PriceDate.After(prev.PriceDate) {
			g.latest[rec.CompetitorID] = rec
		}
	}

	results := make([]GapResult, 0, len(groups))
	for _, productID := range order {
		g := groups[productID]
		if len(g.latest) == 0 || g.myPrice == 0 {
			continue
		}

		var sum float64
		min := math.Inf(1)
		max := math.Inf(-1)
		competitors := make([]CompetitorPrice, 0, len(g.latest))
		for _, rec := range g.latest {
			sum += rec.CompetitorPrice
			if rec.CompetitorPrice < min {
				min = rec.CompetitorPrice
			}
			if rec.CompetitorPrice > max {
				max = rec.CompetitorPrice
			}
			competitors = append(competitors, CompetitorPrice{
				Name:  rec.CompetitorName,
				Price: rec.CompetitorPrice,
			})
		}
		sort.Slice(competitors, func(i, j int) bool {
			return competitors[i].Price < competitors[j].Price
		})

		avg := sum / float64(len(g.latest))
		gap := g.myPrice - avg
		if math.Abs(gap) < opts.MinPriceDiff {
			continue
		}

		opportunity := OpportunityOverpriced
		if gap > 0 {
			opportunity = OpportunityUnderpriced
		}

		results = append(results, GapResult{
			ProductID:          productID,
			ProductName:        g.name,
			MyPrice:            g.myPrice,
			AvgCompetitorPrice: avg,
			MinCompetitorPrice: min,
			MaxCompetitorPrice: max,
			PriceGap:           gap,
			Opportunity:        opportunity,
			Competitors:        competitors,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return math.Abs(results[i].PriceGap) > math.Abs(results[j].PriceGap)
	})
	return results
}
