package tool

import (
	"encoding/json"
	"fmt"
	"strings"

	contractx "github.com/pricewatch/pricewatch/agent/contract"
)

// Preview renders the one-line human summary for a mutation payload.
// It is a pure function of (action, data) so that re-rendering from the
// executor side reproduces the exact text shown at proposal time.
func Preview(action contractx.Action, data json.RawMessage) (string, error) {
	switch action {
	case contractx.ActionCreateCompetitor:
		var payload contractx.CreateCompetitorData
		if err := json.Unmarshal(data, &payload); err != nil {
			return "", fmt.Errorf("decode create competitor payload: %w", err)
		}
		if payload.Category != "" {
			return fmt.Sprintf("Create competitor %q in category %q", payload.Name, payload.Category), nil
		}
		return fmt.Sprintf("Create competitor %q", payload.Name), nil

	case contractx.ActionUpdateCompetitor:
		var payload contractx.UpdateCompetitorData
		if err := json.Unmarshal(data, &payload); err != nil {
			return "", fmt.Errorf("decode update competitor payload: %w", err)
		}
		changes := make([]string, 0, 4)
		if payload.Name != nil {
			changes = append(changes, fmt.Sprintf("name=%q", *payload.Name))
		}
		if payload.WebsiteURL != nil {
			changes = append(changes, fmt.Sprintf("websiteUrl=%q", *payload.WebsiteURL))
		}
		if payload.Category != nil {
			changes = append(changes, fmt.Sprintf("category=%q", *payload.Category))
		}
		if payload.Status != nil {
			changes = append(changes, fmt.Sprintf("status=%q", *payload.Status))
		}
		return fmt.Sprintf("Update competitor %s: set %s", payload.CompetitorID, strings.Join(changes, ", ")), nil

	case contractx.ActionDeleteCompetitor:
		var payload contractx.DeleteCompetitorData
		if err := json.Unmarshal(data, &payload); err != nil {
			return "", fmt.Errorf("decode delete competitor payload: %w", err)
		}
		return fmt.Sprintf("Delete competitor %q and all of its price data", payload.Name), nil

	case contractx.ActionAddCompetitorNote:
		var payload contractx.AddCompetitorNoteData
		if err := json.Unmarshal(data, &payload); err != nil {
			return "", fmt.Errorf("decode add note payload: %w", err)
		}
		return fmt.Sprintf("Add note to competitor %s: %q", payload.CompetitorID, truncate(payload.Note, 80)), nil

	case contractx.ActionUpdateProductPrices:
		var payload contractx.UpdateProductPricesData
		if err := json.Unmarshal(data, &payload); err != nil {
			return "", fmt.Errorf("decode price update payload: %w", err)
		}
		if payload.Strategy != "" {
			return fmt.Sprintf("Update prices for %d product(s) using %s strategy", len(payload.Updates), payload.Strategy), nil
		}
		return fmt.Sprintf("Update prices for %d product(s)", len(payload.Updates)), nil

	case contractx.ActionSendEmail:
		var payload contractx.SendEmailData
		if err := json.Unmarshal(data, &payload); err != nil {
			return "", fmt.Errorf("decode email payload: %w", err)
		}
		return fmt.Sprintf("Send %s priority email %q to %d recipient(s)", payload.Priority, payload.Subject, len(payload.To)), nil

	default:
		return "", fmt.Errorf("unknown action %q", action)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
