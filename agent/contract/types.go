package contract

import (
	"encoding/json"
	"strings"
)

type AgentType string

const (
	AgentTypePricing    AgentType = "pricing"
	AgentTypeManagement AgentType = "management"
	AgentTypeAnalysis   AgentType = "analysis"
)

// Role is attached to the acting identity for the duration of a request.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleExpert Role = "EXPERT"
	RoleUser   Role = "USER"
	RoleGuest  Role = "GUEST"
)

// Session is the resolved acting identity supplied by the external
// session provider. A nil session resolves to an anonymous USER.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   Role   `json:"role"`
}

func AnonymousSession() Session {
	return Session{UserID: "anonymous", Role: RoleUser}
}

type Classification string

const (
	ClassificationRead  Classification = "READ"
	ClassificationWrite Classification = "WRITE"
)

// Action tags the mutation kind a Proposal describes.
type Action string

const (
	ActionCreateCompetitor    Action = "CREATE_COMPETITOR"
	ActionUpdateCompetitor    Action = "UPDATE_COMPETITOR"
	ActionDeleteCompetitor    Action = "DELETE_COMPETITOR"
	ActionAddCompetitorNote   Action = "ADD_COMPETITOR_NOTE"
	ActionUpdateProductPrices Action = "UPDATE_PRODUCT_PRICES"
	ActionSendEmail           Action = "SEND_EMAIL"
)

// Proposal is an immutable description of a pending mutation. Data is
// carried verbatim: the payload handed to the mutation executor must be
// byte-identical to what the proposing tool produced.
type Proposal struct {
	ID               string          `json:"id"`
	Action           Action          `json:"action"`
	Data             json.RawMessage `json:"data"`
	Preview          string          `json:"preview"`
	Warning          string          `json:"warning,omitempty"`
	RequiresApproval bool            `json:"requiresApproval"`
}

// ApprovalDecision is produced exactly once per Proposal, by a human,
// outside this subsystem's process boundary.
type ApprovalDecision struct {
	Approved      bool     `json:"approved"`
	Modifications []string `json:"modifications,omitempty"`
	Reason        string   `json:"reason,omitempty"`
}

// Todo is one step of a Plan.
type Todo struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Completed     bool   `json:"completed"`
	Description   string `json:"description,omitempty"`
	EstimatedTime string `json:"estimatedTime,omitempty"`
}

// Plan is an ordered sequence of Todos. It groups proposals conceptually
// but enforces no atomicity across them.
type Plan struct {
	Todos []Todo `json:"todos"`
}

type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolResult is the flat result shape external callers bind to by name.
// READ tools populate Result; WRITE tools populate the proposal fields.
// Expected, recoverable failures (unknown entity etc.) set Success=false
// and Error instead of failing the call.
type ToolResult struct {
	Tool             string          `json:"tool"`
	Success          bool            `json:"success"`
	RequiresApproval bool            `json:"requiresApproval,omitempty"`
	Action           Action          `json:"action,omitempty"`
	Data             json.RawMessage `json:"data,omitempty"`
	Preview          string          `json:"preview,omitempty"`
	Warning          string          `json:"warning,omitempty"`
	Message          string          `json:"message,omitempty"`
	Result           any             `json:"result,omitempty"`
	Error            string          `json:"error,omitempty"`
}

// Proposal lifts the proposal fields of a WRITE tool result back into a
// Proposal value for the approval workflow.
func (r ToolResult) Proposal(id string) *Proposal {
	if !r.RequiresApproval || r.Action == "" {
		return nil
	}
	return &Proposal{
		ID:               strings.TrimSpace(id),
		Action:           r.Action,
		Data:             r.Data,
		Preview:          r.Preview,
		Warning:          r.Warning,
		RequiresApproval: true,
	}
}

// ExecutionResult is what a mutation executor reports back after an
// approved proposal ran.
type ExecutionResult struct {
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// EmailPayload is the shape handed to the external email transport.
type EmailPayload struct {
	To       []string `json:"to"`
	CC       []string `json:"cc,omitempty"`
	BCC      []string `json:"bcc,omitempty"`
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	Priority string   `json:"priority"`
}
