package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/pricewatch/pricewatch/agent/contract"
	pricingx "github.com/pricewatch/pricewatch/agent/pricing"
	storex "github.com/pricewatch/pricewatch/agent/store"
)

// READ tools query the store and return results directly. No approval
// step, no elevated role.
func readDefinitions() []Definition {
	return []Definition{
		{
			Name:           ToolGetCompetitors,
			Classification: contractx.ClassificationRead,
			Info: &schema.ToolInfo{
				Name: ToolGetCompetitors,
				Desc: "List tracked competitors with website, category, and status.",
			},
			Run: runGetCompetitors,
		},
		{
			Name:           ToolGetCompetitorNotes,
			Classification: contractx.ClassificationRead,
			Info: &schema.ToolInfo{
				Name: ToolGetCompetitorNotes,
				Desc: "List notes recorded against one competitor, newest first.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"competitorId": {Type: schema.String, Desc: "Competitor id", Required: true},
				}),
			},
			Run: runGetCompetitorNotes,
		},
		{
			Name:           ToolGetPriceComparisons,
			Classification: contractx.ClassificationRead,
			Info: &schema.ToolInfo{
				Name: ToolGetPriceComparisons,
				Desc: "Fetch raw price comparison snapshots for the trailing window.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"productIds":    {Type: schema.Array, Desc: "Limit to these product ids", ElemInfo: &schema.ParameterInfo{Type: schema.String}},
					"competitorIds": {Type: schema.Array, Desc: "Limit to these competitor ids", ElemInfo: &schema.ParameterInfo{Type: schema.String}},
					"days":          {Type: schema.Integer, Desc: "Trailing window in days (default 30)"},
				}),
			},
			Run: runGetPriceComparisons,
		},
		{
			Name:           ToolAnalyzePriceGaps,
			Classification: contractx.ClassificationRead,
			Info: &schema.ToolInfo{
				Name: ToolAnalyzePriceGaps,
				Desc: "Find products whose price gap against the competitor average clears a threshold.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"productIds":    {Type: schema.Array, Desc: "Limit to these product ids", ElemInfo: &schema.ParameterInfo{Type: schema.String}},
					"competitorIds": {Type: schema.Array, Desc: "Limit to these competitor ids", ElemInfo: &schema.ParameterInfo{Type: schema.String}},
					"category":      {Type: schema.String, Desc: "Limit to one product category"},
					"minPriceDiff":  {Type: schema.Number, Desc: "Minimum absolute gap to report (default 10)"},
					"days":          {Type: schema.Integer, Desc: "Trailing window in days (default 30)"},
				}),
			},
			Run: runAnalyzePriceGaps,
		},
		{
			Name:           ToolGetPriceTrends,
			Classification: contractx.ClassificationRead,
			Info: &schema.ToolInfo{
				Name: ToolGetPriceTrends,
				Desc: "Aggregate competitor price history into day, week, or month buckets.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"productIds":    {Type: schema.Array, Desc: "Limit to these product ids", ElemInfo: &schema.ParameterInfo{Type: schema.String}},
					"competitorIds": {Type: schema.Array, Desc: "Limit to these competitor ids", ElemInfo: &schema.ParameterInfo{Type: schema.String}},
					"days":          {Type: schema.Integer, Desc: "Trailing window in days (default 90)"},
					"groupBy":       {Type: schema.String, Desc: "Bucket size: day, week, or month (default week)"},
				}),
			},
			Run: runGetPriceTrends,
		},
		{
			Name:           ToolSuggestPrices,
			Classification: contractx.ClassificationRead,
			Info: &schema.ToolInfo{
				Name: ToolSuggestPrices,
				Desc: "Suggest target prices from competitor statistics. Returns suggestions only; applying them goes through update_product_prices.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"productIds":       {Type: schema.Array, Desc: "Products to price", Required: true, ElemInfo: &schema.ParameterInfo{Type: schema.String}},
					"strategy":         {Type: schema.String, Desc: "COMPETITIVE, PREMIUM, BUDGET, or MATCH_LOWEST", Required: true},
					"maxChangePercent": {Type: schema.Number, Desc: "Cap on price change percentage (default 20)"},
					"reason":           {Type: schema.String, Desc: "Override the generated explanation"},
				}),
			},
			Run: runSuggestPrices,
		},
	}
}

func runGetCompetitors(ctx context.Context, deps Deps, _ contractx.Session, _ map[string]any) contractx.ToolResult {
	competitors, err := deps.Store.Competitors(ctx)
	if err != nil {
		return storeFailure("list competitors", err)
	}
	return contractx.ToolResult{
		Success: true,
		Result:  competitors,
		Message: fmt.Sprintf("Found %d competitor(s)", len(competitors)),
	}
}

func runGetCompetitorNotes(ctx context.Context, deps Deps, _ contractx.Session, args map[string]any) contractx.ToolResult {
	competitorID, ok := stringArg(args, "competitorId")
	if !ok {
		return validationFailure("competitorId is required")
	}

	if _, err := deps.Store.Competitor(ctx, competitorID); err != nil {
		if errors.Is(err, storex.ErrNotFound) {
			return competitorNotFound(competitorID)
		}
		return storeFailure("load competitor", err)
	}

	notes, err := deps.Store.NotesForCompetitor(ctx, competitorID)
	if err != nil {
		return storeFailure("list competitor notes", err)
	}
	return contractx.ToolResult{
		Success: true,
		Result:  notes,
		Message: fmt.Sprintf("Found %d note(s)", len(notes)),
	}
}

func runGetPriceComparisons(ctx context.Context, deps Deps, _ contractx.Session, args map[string]any) contractx.ToolResult {
	days, ok := intArg(args, "days")
	if !ok || days <= 0 {
		days = pricingx.DefaultGapDays
	}
	records, err := deps.Store.Comparisons(ctx, storex.ComparisonFilter{
		ProductIDs:    stringSliceArg(args, "productIds"),
		CompetitorIDs: stringSliceArg(args, "competitorIds"),
		Since:         deps.now().AddDate(0, 0, -days),
	})
	if err != nil {
		return storeFailure("load price comparisons", err)
	}
	return contractx.ToolResult{
		Success: true,
		Result:  records,
		Message: fmt.Sprintf("Found %d comparison(s) in the last %d day(s)", len(records), days),
	}
}

func runAnalyzePriceGaps(ctx context.Context, deps Deps, _ contractx.Session, args map[string]any) contractx.ToolResult {
	opts := pricingx.GapOptions{Now: deps.now()}
	if v, ok := floatArg(args, "minPriceDiff"); ok && v > 0 {
		opts.MinPriceDiff = v
	}
	if v, ok := intArg(args, "days"); ok && v > 0 {
		opts.Days = v
	}
	category, _ := stringArg(args, "category")

	records, err := deps.Store.Comparisons(ctx, storex.ComparisonFilter{
		ProductIDs:    stringSliceArg(args, "productIds"),
		CompetitorIDs: stringSliceArg(args, "competitorIds"),
		Category:      category,
		Since:         deps.now().AddDate(0, 0, -orDefault(opts.Days, pricingx.DefaultGapDays)),
	})
	if err != nil {
		return storeFailure("load price comparisons", err)
	}

	gaps := pricingx.AnalyzeGaps(records, opts)
	return contractx.ToolResult{
		Success: true,
		Result:  gaps,
		Message: fmt.Sprintf("Found %d product(s) with a significant price gap", len(gaps)),
	}
}

func runGetPriceTrends(ctx context.Context, deps Deps, _ contractx.Session, args map[string]any) contractx.ToolResult {
	opts := pricingx.TrendOptions{Now: deps.now()}
	if v, ok := intArg(args, "days"); ok && v > 0 {
		opts.Days = v
	}
	if groupBy, ok := stringArg(args, "groupBy"); ok {
		opts.GroupBy = pricingx.Grouping(strings.ToLower(groupBy))
	}

	points, err := deps.Store.TrendPoints(ctx, storex.TrendFilter{
		ProductIDs:    stringSliceArg(args, "productIds"),
		CompetitorIDs: stringSliceArg(args, "competitorIds"),
		Since:         deps.now().AddDate(0, 0, -orDefault(opts.Days, pricingx.DefaultTrendDays)),
	})
	if err != nil {
		return storeFailure("load price history", err)
	}

	buckets := pricingx.Trends(points, opts)
	return contractx.ToolResult{
		Success: true,
		Result:  buckets,
		Message: fmt.Sprintf("Aggregated %d bucket(s)", len(buckets)),
	}
}

func runSuggestPrices(ctx context.Context, deps Deps, _ contractx.Session, args map[string]any) contractx.ToolResult {
	productIDs := stringSliceArg(args, "productIds")
	if len(productIDs) == 0 {
		return validationFailure("productIds is required")
	}
	strategyRaw, ok := stringArg(args, "strategy")
	if !ok {
		return validationFailure("strategy is required")
	}
	strategy := pricingx.Strategy(strings.ToUpper(strategyRaw))
	if !pricingx.IsSupportedStrategy(strategy) {
		return validationFailure(fmt.Sprintf("unsupported strategy %q: expected COMPETITIVE, PREMIUM, BUDGET, or MATCH_LOWEST", strategyRaw))
	}

	opts := pricingx.SuggestOptions{Strategy: strategy, Now: deps.now()}
	if v, ok := floatArg(args, "maxChangePercent"); ok && v > 0 {
		opts.MaxChangePercent = v
	}
	if reason, ok := stringArg(args, "reason"); ok {
		opts.Reason = reason
	}

	products, err := deps.Store.Products(ctx, productIDs)
	if err != nil {
		return storeFailure("load products", err)
	}
	if len(products) == 0 {
		return contractx.ToolResult{
			Success: false,
			Error:   "No matching products found",
			Result:  map[string]any{"productIds": productIDs},
		}
	}

	records, err := deps.Store.Comparisons(ctx, storex.ComparisonFilter{
		ProductIDs: productIDs,
		Since:      deps.now().AddDate(0, 0, -pricingx.DefaultSuggestDays),
	})
	if err != nil {
		return storeFailure("load price comparisons", err)
	}

	current := make([]pricingx.ProductPricing, 0, len(products))
	for _, product := range products {
		current = append(current, pricingx.ProductPricing{
			ProductID:    product.ID,
			Name:         product.Name,
			CurrentPrice: product.Price,
		})
	}

	suggestions, err := pricingx.SuggestPrices(current, records, opts)
	if err != nil {
		return validationFailure(err.Error())
	}
	return contractx.ToolResult{
		Success: true,
		Result:  suggestions,
		Message: fmt.Sprintf("Suggested prices for %d product(s) using %s strategy", len(suggestions), strategy),
	}
}

func orDefault(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func validationFailure(message string) contractx.ToolResult {
	return contractx.ToolResult{
		Success: false,
		Error:   message,
		Message: "Invalid input: " + message,
	}
}

func storeFailure(op string, err error) contractx.ToolResult {
	return contractx.ToolResult{
		Success: false,
		Error:   fmt.Sprintf("%s: %v", op, err),
		Message: "Something went wrong while reading business data. Please try again.",
	}
}

func competitorNotFound(id string) contractx.ToolResult {
	return contractx.ToolResult{
		Success: false,
		Error:   "Competitor not found",
		Result:  map[string]any{"competitorId": id},
	}
}
