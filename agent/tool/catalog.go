package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/pricewatch/pricewatch/agent/contract"
	storex "github.com/pricewatch/pricewatch/agent/store"
)

const (
	ToolGetCompetitors      = "get_competitors"
	ToolGetCompetitorNotes  = "get_competitor_notes"
	ToolGetPriceComparisons = "get_price_comparisons"
	ToolAnalyzePriceGaps    = "analyze_price_gaps"
	ToolGetPriceTrends      = "get_price_trends"
	ToolSuggestPrices       = "suggest_product_prices"

	ToolCreateCompetitor    = "create_competitor"
	ToolUpdateCompetitor    = "update_competitor"
	ToolDeleteCompetitor    = "delete_competitor"
	ToolAddCompetitorNote   = "add_competitor_note"
	ToolUpdateProductPrices = "update_product_prices"
	ToolSendEmail           = "send_email"
)

// Deps carries everything a tool run may touch. Executor is used for
// exactly one thing: the low-risk note fast path that skips approval.
type Deps struct {
	Store    storex.Store
	Executor contractx.MutationExecutor
	Now      func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

type RunFunc func(ctx context.Context, deps Deps, session contractx.Session, args map[string]any) contractx.ToolResult

// Definition declares one callable tool. Classification is static;
// NeedsApproval, when set on a WRITE tool, decides per call whether the
// proposal step can be skipped.
type Definition struct {
	Name           string
	Classification contractx.Classification
	Info           *schema.ToolInfo
	NeedsApproval  func(args map[string]any) bool
	Run            RunFunc
}

// Registry is built once at startup and read-only afterwards.
type Registry struct {
	deps Deps
	defs map[string]Definition
}

var _ contractx.ToolGateway = (*Registry)(nil)

func NewRegistry(deps Deps) *Registry {
	r := &Registry{
		deps: deps,
		defs: make(map[string]Definition, 16),
	}
	for _, def := range readDefinitions() {
		r.defs[def.Name] = def
	}
	for _, def := range writeDefinitions() {
		r.defs[def.Name] = def
	}
	return r
}

func (r *Registry) Definition(name string) (Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Execute runs each request against the agent's allowed tool set. Tool
// failures come back as result data so the calling agent can explain
// them conversationally; only the unknown-tool case is synthesized here.
func (r *Registry) Execute(ctx context.Context, session contractx.Session, agentType contractx.AgentType, reqs []contractx.ToolRequest) []contractx.ToolResult {
	allowed := allowedTools(agentType)
	results := make([]contractx.ToolResult, 0, len(reqs))
	for _, req := range reqs {
		def, ok := r.defs[req.Tool]
		if !ok || !allowed[req.Tool] {
			results = append(results, contractx.ToolResult{
				Tool:    req.Tool,
				Success: false,
				Error:   fmt.Sprintf("tool=%s is unavailable for agent=%s", req.Tool, agentType),
			})
			continue
		}

		result := def.Run(ctx, r.deps, session, req.Args)
		if result.Success && result.RequiresApproval && def.NeedsApproval != nil && !def.NeedsApproval(req.Args) {
			result = r.executeImmediately(ctx, result)
		}
		result.Tool = req.Tool
		log.Debug().
			Str("tool", req.Tool).
			Str("agent", string(agentType)).
			Bool("success", result.Success).
			Bool("requiresApproval", result.RequiresApproval).
			Msg("tool executed")
		results = append(results, result)
	}
	return results
}

// executeImmediately is the one sanctioned bypass of the approval flow:
// a WRITE tool whose NeedsApproval predicate judged this call low-risk.
// The mutation still goes through the executor, with an auto-approved
// decision recorded against the proposal.
func (r *Registry) executeImmediately(ctx context.Context, result contractx.ToolResult) contractx.ToolResult {
	proposal := result.Proposal(uuid.NewString())
	if proposal == nil || r.deps.Executor == nil {
		return result
	}
	outcome := r.deps.Executor.Execute(ctx, *proposal, contractx.ApprovalDecision{Approved: true})
	if !outcome.Success {
		return contractx.ToolResult{
			Success: false,
			Error:   outcome.Error,
			Message: "The change could not be applied. Please try again.",
		}
	}
	return contractx.ToolResult{
		Success: true,
		Result:  outcome.Result,
		Preview: proposal.Preview,
		Message: "Done: " + proposal.Preview,
	}
}

// BuildForAgent exposes the agent's tool schemas for binding to the
// external LLM runtime.
func (r *Registry) BuildForAgent(agentType contractx.AgentType) []*schema.ToolInfo {
	allowed := allowedTools(agentType)
	ordered := toolOrder(agentType)
	infos := make([]*schema.ToolInfo, 0, len(ordered))
	for _, name := range ordered {
		if !allowed[name] {
			continue
		}
		if def, ok := r.defs[name]; ok && def.Info != nil {
			infos = append(infos, def.Info)
		}
	}
	return infos
}

func toolOrder(agentType contractx.AgentType) []string {
	switch agentType {
	case contractx.AgentTypePricing:
		return []string{
			ToolAnalyzePriceGaps, ToolSuggestPrices,
			ToolUpdateProductPrices, ToolGetPriceComparisons,
		}
	case contractx.AgentTypeManagement:
		return []string{
			ToolGetCompetitors, ToolCreateCompetitor, ToolUpdateCompetitor,
			ToolDeleteCompetitor, ToolAddCompetitorNote, ToolSendEmail,
		}
	case contractx.AgentTypeAnalysis:
		return []string{
			ToolGetCompetitors, ToolGetCompetitorNotes, ToolGetPriceComparisons,
			ToolAnalyzePriceGaps, ToolGetPriceTrends,
		}
	default:
		return nil
	}
}

func allowedTools(agentType contractx.AgentType) map[string]bool {
	names := toolOrder(agentType)
	allowed := make(map[string]bool, len(names))
	for _, name := range names {
		allowed[name] = true
	}
	return allowed
}
