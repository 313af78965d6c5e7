package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/pricewatch/pricewatch/agent/contract"
	storex "github.com/pricewatch/pricewatch/agent/store"
	toolx "github.com/pricewatch/pricewatch/agent/tool"
)

// Executor runs approved mutations. It is only reachable through the
// workflow runner's RunMutation effect (or the registry's low-risk note
// fast path, which carries an auto-approved decision).
type Executor struct {
	store storex.Store
	mail  contractx.EmailTransport
	now   func() time.Time
}

func New(st storex.Store, mail contractx.EmailTransport) *Executor {
	return &Executor{store: st, mail: mail, now: time.Now}
}

var _ contractx.MutationExecutor = (*Executor)(nil)

// Execute dispatches on the proposal action. The payload is decoded from
// the exact bytes the proposing tool captured; nothing is re-derived.
func (e *Executor) Execute(ctx context.Context, proposal contractx.Proposal, decision contractx.ApprovalDecision) contractx.ExecutionResult {
	if !decision.Approved {
		return failure("proposal was not approved")
	}
	if len(proposal.Data) == 0 {
		return failure("proposal carries no payload")
	}

	log.Info().
		Str("action", string(proposal.Action)).
		Str("preview", proposal.Preview).
		Int("modifications", len(decision.Modifications)).
		Msg("executing approved mutation")

	switch proposal.Action {
	case contractx.ActionCreateCompetitor:
		return e.createCompetitor(ctx, proposal.Data)
	case contractx.ActionUpdateCompetitor:
		return e.updateCompetitor(ctx, proposal.Data)
	case contractx.ActionDeleteCompetitor:
		return e.deleteCompetitor(ctx, proposal.Data)
	case contractx.ActionAddCompetitorNote:
		return e.addCompetitorNote(ctx, proposal.Data)
	case contractx.ActionUpdateProductPrices:
		return e.updateProductPrices(ctx, proposal.Data)
	case contractx.ActionSendEmail:
		return e.sendEmail(ctx, proposal.Data)
	default:
		return failure(fmt.Sprintf("unknown action %q", proposal.Action))
	}
}

func (e *Executor) createCompetitor(ctx context.Context, data json.RawMessage) contractx.ExecutionResult {
	var payload contractx.CreateCompetitorData
	if err := json.Unmarshal(data, &payload); err != nil {
		return failure("decode payload: " + err.Error())
	}
	competitor := &storex.Competitor{
		Name:       payload.Name,
		WebsiteURL: payload.WebsiteURL,
		Category:   payload.Category,
		Status:     payload.Status,
	}
	if err := e.store.CreateCompetitor(ctx, competitor); err != nil {
		return failure(err.Error())
	}
	return success(competitor)
}

func (e *Executor) updateCompetitor(ctx context.Context, data json.RawMessage) contractx.ExecutionResult {
	var payload contractx.UpdateCompetitorData
	if err := json.Unmarshal(data, &payload); err != nil {
		return failure("decode payload: " + err.Error())
	}
	competitor := &storex.Competitor{ID: payload.CompetitorID}
	if payload.Name != nil {
		competitor.Name = *payload.Name
	}
	if payload.WebsiteURL != nil {
		competitor.WebsiteURL = *payload.WebsiteURL
	}
	if payload.Category != nil {
		competitor.Category = *payload.Category
	}
	if payload.Status != nil {
		competitor.Status = *payload.Status
	}
	if err := e.store.UpdateCompetitor(ctx, competitor); err != nil {
		if errors.Is(err, storex.ErrNotFound) {
			return failure("competitor not found: " + payload.CompetitorID)
		}
		return failure(err.Error())
	}
	return success(competitor)
}

func (e *Executor) deleteCompetitor(ctx context.Context, data json.RawMessage) contractx.ExecutionResult {
	var payload contractx.DeleteCompetitorData
	if err := json.Unmarshal(data, &payload); err != nil {
		return failure("decode payload: " + err.Error())
	}
	if err := e.store.DeleteCompetitor(ctx, payload.CompetitorID); err != nil {
		if errors.Is(err, storex.ErrNotFound) {
			return failure("competitor not found: " + payload.CompetitorID)
		}
		return failure(err.Error())
	}
	return success(map[string]any{"competitorId": payload.CompetitorID, "deleted": true})
}

func (e *Executor) addCompetitorNote(ctx context.Context, data json.RawMessage) contractx.ExecutionResult {
	var payload contractx.AddCompetitorNoteData
	if err := json.Unmarshal(data, &payload); err != nil {
		return failure("decode payload: " + err.Error())
	}
	note := &storex.CompetitorNote{
		CompetitorID: payload.CompetitorID,
		Note:         payload.Note,
		AuthorID:     payload.AuthorID,
		CreatedAt:    e.now().UTC(),
	}
	if err := e.store.AddNote(ctx, note); err != nil {
		return failure(err.Error())
	}
	return success(note)
}

func (e *Executor) updateProductPrices(ctx context.Context, data json.RawMessage) contractx.ExecutionResult {
	var payload contractx.UpdateProductPricesData
	if err := json.Unmarshal(data, &payload); err != nil {
		return failure("decode payload: " + err.Error())
	}
	now := e.now().UTC()
	applied := make([]contractx.PriceUpdate, 0, len(payload.Updates))
	for _, update := range payload.Updates {
		if err := e.store.UpdateProductPrice(ctx, update.ProductID, update.NewPrice, now); err != nil {
			if errors.Is(err, storex.ErrNotFound) {
				return failure("product not found: " + update.ProductID)
			}
			return failure(err.Error())
		}
		// Each applied price is snapshotted into history so the admin
		// console's trend view picks it up.
		entry := &storex.CompetitorPriceHistory{
			ProductID:  update.ProductID,
			Price:      update.NewPrice,
			RecordedAt: now,
		}
		if err := e.store.RecordPriceHistory(ctx, entry); err != nil {
			log.Warn().Err(err).Str("productId", update.ProductID).Msg("price applied but history snapshot failed")
		}
		applied = append(applied, update)
	}
	return success(map[string]any{"updated": len(applied), "updates": applied})
}

func (e *Executor) sendEmail(ctx context.Context, data json.RawMessage) contractx.ExecutionResult {
	var payload contractx.SendEmailData
	if err := json.Unmarshal(data, &payload); err != nil {
		return failure("decode payload: " + err.Error())
	}
	if e.mail == nil {
		return failure("email transport is not configured")
	}
	err := e.mail.Send(ctx, contractx.EmailPayload{
		To:       payload.To,
		CC:       payload.CC,
		BCC:      payload.BCC,
		Subject:  payload.Subject,
		Body:     payload.Body,
		Priority: payload.Priority,
	})
	if err != nil {
		return failure(err.Error())
	}
	return success(map[string]any{"sent": true, "recipients": len(payload.To)})
}

// RenderPreview re-renders the human preview from an executed payload.
// It must reproduce the proposal-time text exactly; callers use it to
// verify no information was lost between proposal and execution.
func RenderPreview(proposal contractx.Proposal) (string, error) {
	return toolx.Preview(proposal.Action, proposal.Data)
}

func success(result any) contractx.ExecutionResult {
	return contractx.ExecutionResult{Success: true, Result: result}
}

func failure(message string) contractx.ExecutionResult {
	return contractx.ExecutionResult{Success: false, Error: message}
}
