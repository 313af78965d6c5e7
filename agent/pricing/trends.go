package pricing

import (
	"math"
	"sort"
	"time"
)

const DefaultTrendDays = 90

type TrendOptions struct {
	Days    int
	GroupBy Grouping
	Now     time.Time
}

func (o TrendOptions) normalized() TrendOptions {
	if o.Days <= 0 {
		o.Days = DefaultTrendDays
	}
	switch o.GroupBy {
	case GroupByDay, GroupByWeek, GroupByMonth:
	default:
		o.GroupBy = GroupByWeek
	}
	if o.Now.IsZero() {
		o.Now = time.Now().UTC()
	}
	return o
}

// Trends buckets price-history rollups into day, week, or month periods
// and reports the cross-competitor average, min, and max per bucket in
// ascending chronological order.
func Trends(points []TrendPoint, opts TrendOptions) []TrendBucket {
	opts = opts.normalized()
	cutoff := opts.Now.AddDate(0, 0, -opts.Days)

	type agg struct {
		sum      float64
		min      float64
		max      float64
		count    int
		products int
	}

	buckets := make(map[string]*agg)
	for _, p := range points {
		if p.Date.Before(cutoff) || !validPrice(p.Price) {
			continue
		}
		key := bucketKey(p.Date, opts.GroupBy)
		b, ok := buckets[key]
		if !ok {
			b = &agg{min: math.Inf(1), max: math.Inf(-1)}
			buckets[key] = b
		}
		b.sum += p.Price
		b.count++
		b.products += p.ProductCount
		if p.Price < b.min {
			b.min = p.Price
		}
		if p.Price > b.max {
			b.max = p.Price
		}
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]TrendBucket, 0, len(keys))
	for _, key := range keys {
		b := buckets[key]
		out = append(out, TrendBucket{
			Period:        key,
			AvgPrice:      b.sum / float64(b.count),
			MinPrice:      b.min,
			MaxPrice:      b.max,
			TotalProducts: b.products,
		})
	}
	return out
}

// bucketKey keys are ISO-style date strings so lexicographic order is
// chronological order. The week bucket starts at date - weekday.
func bucketKey(d time.Time, groupBy Grouping) string {
	switch groupBy {
	case GroupByDay:
		return d.Format("2006-01-02")
	case GroupByMonth:
		return d.Format("2006-01")
	default:
		weekStart := d.AddDate(0, 0, -int(d.Weekday()))
		return weekStart.Format("2006-01-02")
	}
}
