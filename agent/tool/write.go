package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	authx "github.com/pricewatch/pricewatch/agent/auth"
	contractx "github.com/pricewatch/pricewatch/agent/contract"
	storex "github.com/pricewatch/pricewatch/agent/store"
)

// WRITE tools validate input, run exactly one Require* check, optionally
// read the store to build a preview, and return a proposal-shaped result.
// They never touch the store for writes.
func writeDefinitions() []Definition {
	return []Definition{
		{
			Name:           ToolCreateCompetitor,
			Classification: contractx.ClassificationWrite,
			Info: &schema.ToolInfo{
				Name: ToolCreateCompetitor,
				Desc: "Propose adding a competitor to track. Requires approval.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"name":       {Type: schema.String, Desc: "Competitor name", Required: true},
					"websiteUrl": {Type: schema.String, Desc: "Competitor website"},
					"category":   {Type: schema.String, Desc: "Product category"},
					"status":     {Type: schema.String, Desc: "active or paused (default active)"},
				}),
			},
			Run: runCreateCompetitor,
		},
		{
			Name:           ToolUpdateCompetitor,
			Classification: contractx.ClassificationWrite,
			Info: &schema.ToolInfo{
				Name: ToolUpdateCompetitor,
				Desc: "Propose changing a competitor's details. Requires approval.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"competitorId": {Type: schema.String, Desc: "Competitor id", Required: true},
					"name":         {Type: schema.String, Desc: "New name"},
					"websiteUrl":   {Type: schema.String, Desc: "New website"},
					"category":     {Type: schema.String, Desc: "New category"},
					"status":       {Type: schema.String, Desc: "New status"},
				}),
			},
			Run: runUpdateCompetitor,
		},
		{
			Name:           ToolDeleteCompetitor,
			Classification: contractx.ClassificationWrite,
			Info: &schema.ToolInfo{
				Name: ToolDeleteCompetitor,
				Desc: "Propose removing a competitor and its tracked data. Requires approval.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"competitorId": {Type: schema.String, Desc: "Competitor id", Required: true},
				}),
			},
			Run: runDeleteCompetitor,
		},
		{
			Name:           ToolAddCompetitorNote,
			Classification: contractx.ClassificationWrite,
			Info: &schema.ToolInfo{
				Name: ToolAddCompetitorNote,
				Desc: "Add a note to a competitor. Short, non-sensitive notes skip approval.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"competitorId": {Type: schema.String, Desc: "Competitor id", Required: true},
					"note":         {Type: schema.String, Desc: "Note text", Required: true},
				}),
			},
			NeedsApproval: noteNeedsApproval,
			Run:           runAddCompetitorNote,
		},
		{
			Name:           ToolUpdateProductPrices,
			Classification: contractx.ClassificationWrite,
			Info: &schema.ToolInfo{
				Name: ToolUpdateProductPrices,
				Desc: "Propose applying new prices to products. Requires approval.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"updates": {
						Type: schema.Array, Desc: "Price updates to apply", Required: true,
						ElemInfo: &schema.ParameterInfo{
							Type: schema.Object,
							SubParams: map[string]*schema.ParameterInfo{
								"productId": {Type: schema.String, Desc: "Product id", Required: true},
								"newPrice":  {Type: schema.Number, Desc: "New price", Required: true},
								"reason":    {Type: schema.String, Desc: "Why this price"},
							},
						},
					},
					"strategy": {Type: schema.String, Desc: "Strategy that produced these prices"},
				}),
			},
			Run: runUpdateProductPrices,
		},
		{
			Name:           ToolSendEmail,
			Classification: contractx.ClassificationWrite,
			Info: &schema.ToolInfo{
				Name: ToolSendEmail,
				Desc: "Propose sending an email. Requires approval.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"to":       {Type: schema.Array, Desc: "Recipients", Required: true, ElemInfo: &schema.ParameterInfo{Type: schema.String}},
					"cc":       {Type: schema.Array, Desc: "CC recipients", ElemInfo: &schema.ParameterInfo{Type: schema.String}},
					"bcc":      {Type: schema.Array, Desc: "BCC recipients", ElemInfo: &schema.ParameterInfo{Type: schema.String}},
					"subject":  {Type: schema.String, Desc: "Subject line", Required: true},
					"body":     {Type: schema.String, Desc: "Email body", Required: true},
					"priority": {Type: schema.String, Desc: "low, normal, or high (default normal)"},
				}),
			},
			Run: runSendEmail,
		},
	}
}

const noteApprovalLengthLimit = 200

var sensitiveNoteTerms = []string{"password", "secret", "confidential", "legal", "lawsuit", "acquisition"}

// noteNeedsApproval keeps note classification declarative: short,
// non-sensitive notes are low-risk enough to write without a human
// decision. Everything else goes through the proposal flow.
func noteNeedsApproval(args map[string]any) bool {
	note, ok := stringArg(args, "note")
	if !ok {
		return true
	}
	if len(note) >= noteApprovalLengthLimit {
		return true
	}
	lower := strings.ToLower(note)
	for _, term := range sensitiveNoteTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func runCreateCompetitor(_ context.Context, _ Deps, session contractx.Session, args map[string]any) contractx.ToolResult {
	name, ok := stringArg(args, "name")
	if !ok {
		return validationFailure("name is required")
	}
	status, _ := stringArg(args, "status")
	if status == "" {
		status = "active"
	}
	if status != "active" && status != "paused" {
		return validationFailure(fmt.Sprintf("unsupported status %q: expected active or paused", status))
	}

	if err := authx.RequireCompetitorAccess(session.Role, ""); err != nil {
		return permissionFailure(err)
	}

	websiteURL, _ := stringArg(args, "websiteUrl")
	category, _ := stringArg(args, "category")
	return propose(contractx.ActionCreateCompetitor, contractx.CreateCompetitorData{
		Name:       name,
		WebsiteURL: websiteURL,
		Category:   category,
		Status:     status,
	}, fmt.Sprintf("Approve to start tracking competitor %q.", name), "")
}

func runUpdateCompetitor(ctx context.Context, deps Deps, session contractx.Session, args map[string]any) contractx.ToolResult {
	competitorID, ok := stringArg(args, "competitorId")
	if !ok {
		return validationFailure("competitorId is required")
	}
	payload := contractx.UpdateCompetitorData{
		CompetitorID: competitorID,
		Name:         optionalStringArg(args, "name"),
		WebsiteURL:   optionalStringArg(args, "websiteUrl"),
		Category:     optionalStringArg(args, "category"),
		Status:       optionalStringArg(args, "status"),
	}
	if payload.Name == nil && payload.WebsiteURL == nil && payload.Category == nil && payload.Status == nil {
		return validationFailure("at least one field to update is required")
	}

	if err := authx.RequireCompetitorAccess(session.Role, competitorID); err != nil {
		return permissionFailure(err)
	}

	current, err := deps.Store.Competitor(ctx, competitorID)
	if err != nil {
		if errors.Is(err, storex.ErrNotFound) {
			return competitorNotFound(competitorID)
		}
		return storeFailure("load competitor", err)
	}

	return propose(contractx.ActionUpdateCompetitor, payload,
		fmt.Sprintf("Approve to update competitor %q.", current.Name), "")
}

func runDeleteCompetitor(ctx context.Context, deps Deps, session contractx.Session, args map[string]any) contractx.ToolResult {
	competitorID, ok := stringArg(args, "competitorId")
	if !ok {
		return validationFailure("competitorId is required")
	}

	if err := authx.RequireCompetitorAccess(session.Role, competitorID); err != nil {
		return permissionFailure(err)
	}

	current, err := deps.Store.Competitor(ctx, competitorID)
	if err != nil {
		if errors.Is(err, storex.ErrNotFound) {
			return competitorNotFound(competitorID)
		}
		return storeFailure("load competitor", err)
	}

	return propose(contractx.ActionDeleteCompetitor, contractx.DeleteCompetitorData{
		CompetitorID: competitorID,
		Name:         current.Name,
	},
		fmt.Sprintf("Approve to permanently delete competitor %q.", current.Name),
		"This permanently removes the competitor along with its price history, comparisons, and notes.")
}

func runAddCompetitorNote(ctx context.Context, deps Deps, session contractx.Session, args map[string]any) contractx.ToolResult {
	competitorID, ok := stringArg(args, "competitorId")
	if !ok {
		return validationFailure("competitorId is required")
	}
	note, ok := stringArg(args, "note")
	if !ok {
		return validationFailure("note is required")
	}

	if err := authx.RequireCompetitorAccess(session.Role, competitorID); err != nil {
		return permissionFailure(err)
	}

	if _, err := deps.Store.Competitor(ctx, competitorID); err != nil {
		if errors.Is(err, storex.ErrNotFound) {
			return competitorNotFound(competitorID)
		}
		return storeFailure("load competitor", err)
	}

	return propose(contractx.ActionAddCompetitorNote, contractx.AddCompetitorNoteData{
		CompetitorID: competitorID,
		Note:         note,
		AuthorID:     session.UserID,
	}, "Approve to record this note.", "")
}

func runUpdateProductPrices(ctx context.Context, deps Deps, session contractx.Session, args map[string]any) contractx.ToolResult {
	rawUpdates, ok := args["updates"].([]any)
	if !ok || len(rawUpdates) == 0 {
		return validationFailure("updates is required and must be a non-empty array")
	}

	updates := make([]contractx.PriceUpdate, 0, len(rawUpdates))
	for i, raw := range rawUpdates {
		item, ok := raw.(map[string]any)
		if !ok {
			return validationFailure(fmt.Sprintf("updates[%d] must be an object", i))
		}
		productID, ok := stringArg(item, "productId")
		if !ok {
			return validationFailure(fmt.Sprintf("updates[%d].productId is required", i))
		}
		newPrice, ok := floatArg(item, "newPrice")
		if !ok || newPrice <= 0 {
			return validationFailure(fmt.Sprintf("updates[%d].newPrice must be a positive number", i))
		}
		reason, _ := stringArg(item, "reason")
		updates = append(updates, contractx.PriceUpdate{
			ProductID: productID,
			NewPrice:  newPrice,
			Reason:    reason,
		})
	}

	if err := authx.RequireProductAccess(session.Role); err != nil {
		return permissionFailure(err)
	}

	ids := make([]string, 0, len(updates))
	for _, update := range updates {
		ids = append(ids, update.ProductID)
	}
	products, err := deps.Store.Products(ctx, ids)
	if err != nil {
		return storeFailure("load products", err)
	}
	found := make(map[string]bool, len(products))
	for _, product := range products {
		found[product.ID] = true
	}
	for _, update := range updates {
		if !found[update.ProductID] {
			return contractx.ToolResult{
				Success: false,
				Error:   "Product not found",
				Result:  map[string]any{"productId": update.ProductID},
			}
		}
	}

	strategy, _ := stringArg(args, "strategy")
	return propose(contractx.ActionUpdateProductPrices, contractx.UpdateProductPricesData{
		Updates:  updates,
		Strategy: strings.ToUpper(strategy),
	}, fmt.Sprintf("Approve to apply %d price change(s).", len(updates)), "")
}

func runSendEmail(_ context.Context, _ Deps, session contractx.Session, args map[string]any) contractx.ToolResult {
	to := stringSliceArg(args, "to")
	if len(to) == 0 {
		return validationFailure("to is required")
	}
	for _, recipient := range append(append(append([]string{}, to...), stringSliceArg(args, "cc")...), stringSliceArg(args, "bcc")...) {
		if !strings.Contains(recipient, "@") {
			return validationFailure(fmt.Sprintf("invalid email address %q", recipient))
		}
	}
	subject, ok := stringArg(args, "subject")
	if !ok {
		return validationFailure("subject is required")
	}
	body, ok := stringArg(args, "body")
	if !ok {
		return validationFailure("body is required")
	}
	priority, _ := stringArg(args, "priority")
	if priority == "" {
		priority = "normal"
	}
	switch priority {
	case "low", "normal", "high":
	default:
		return validationFailure(fmt.Sprintf("unsupported priority %q: expected low, normal, or high", priority))
	}

	if err := authx.RequireEmailAccess(session.Role); err != nil {
		return permissionFailure(err)
	}

	return propose(contractx.ActionSendEmail, contractx.SendEmailData{
		To:       to,
		CC:       stringSliceArg(args, "cc"),
		BCC:      stringSliceArg(args, "bcc"),
		Subject:  subject,
		Body:     body,
		Priority: priority,
	}, fmt.Sprintf("Approve to send %q on behalf of %s.", subject, session.UserID), "")
}

// propose marshals the payload once and renders the preview from those
// exact bytes, so the preview a human approves is reproducible from the
// payload the executor will receive.
func propose(action contractx.Action, payload any, message, warning string) contractx.ToolResult {
	data, err := json.Marshal(payload)
	if err != nil {
		return contractx.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("encode proposal payload: %v", err),
		}
	}
	preview, err := Preview(action, data)
	if err != nil {
		return contractx.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("render proposal preview: %v", err),
		}
	}
	return contractx.ToolResult{
		Success:          true,
		RequiresApproval: true,
		Action:           action,
		Data:             data,
		Preview:          preview,
		Warning:          warning,
		Message:          message,
	}
}

func permissionFailure(err error) contractx.ToolResult {
	return contractx.ToolResult{
		Success: false,
		Error:   err.Error(),
		Message: strings.TrimPrefix(err.Error(), contractx.ErrPermission.Error()+": "),
	}
}
