package contract

import "context"

// SessionProvider is the external identity source. A (nil, nil) return
// means no session; callers fall back to the anonymous USER.
type SessionProvider interface {
	Resolve(ctx context.Context) (*Session, error)
}

// Router maps a free-text user request to the agent that should handle it.
type Router interface {
	SelectAgent(message string) AgentType
}

// ToolGateway executes tool requests on behalf of an agent. WRITE tools
// never mutate here; they return proposal-shaped results.
type ToolGateway interface {
	Execute(ctx context.Context, session Session, agentType AgentType, reqs []ToolRequest) []ToolResult
}

// MutationExecutor runs the mutation an approved proposal describes.
type MutationExecutor interface {
	Execute(ctx context.Context, proposal Proposal, decision ApprovalDecision) ExecutionResult
}

// EmailTransport delivers a constructed email payload. This subsystem
// only ever builds the payload inside a proposal.
type EmailTransport interface {
	Send(ctx context.Context, payload EmailPayload) error
}
