package router

import (
	"strings"

	contractx "github.com/pricewatch/pricewatch/agent/contract"
)

// KeywordRouter is a deterministic, order-sensitive intent classifier.
// Branch order is part of the observable contract: pricing keywords win
// over mutation verbs, mutation verbs win over analysis keywords, and
// anything else falls through to the analysis agent. "update pricing
// strategy" therefore routes to pricing, not management.
type KeywordRouter struct{}

var _ contractx.Router = KeywordRouter{}

var (
	pricingKeywords = []string{
		"pricing", "price strategy", "strategy", "suggest price",
		"premium", "budget", "match lowest", "reprice", "margin",
	}
	mutationKeywords = []string{
		"create", "update", "delete", "remove", "add", "send", "email",
	}
	analysisKeywords = []string{
		"competitor", "compare", "comparison", "trend", "gap", "analyze",
		"analysis", "monitor",
	}
)

func New() KeywordRouter {
	return KeywordRouter{}
}

func (KeywordRouter) SelectAgent(message string) contractx.AgentType {
	text := strings.ToLower(message)

	if matchesAny(text, pricingKeywords) {
		return contractx.AgentTypePricing
	}
	if matchesAny(text, mutationKeywords) {
		return contractx.AgentTypeManagement
	}
	if matchesAny(text, analysisKeywords) {
		return contractx.AgentTypeAnalysis
	}
	return contractx.AgentTypeAnalysis
}

func matchesAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
