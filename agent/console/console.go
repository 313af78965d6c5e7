package console

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	authx "github.com/pricewatch/pricewatch/agent/auth"
	contractx "github.com/pricewatch/pricewatch/agent/contract"
	workflowx "github.com/pricewatch/pricewatch/agent/workflow"
)

// Console is the surface the hosting admin application embeds: route a
// message to an agent, run its tool calls under the caller's session,
// and drive proposals through the approval workflow. It owns no state;
// workflow snapshots travel with the caller between invocations.
type Console struct {
	router   contractx.Router
	tools    contractx.ToolGateway
	runner   *workflowx.Runner
	sessions contractx.SessionProvider
}

func New(router contractx.Router, tools contractx.ToolGateway, runner *workflowx.Runner, sessions contractx.SessionProvider) *Console {
	return &Console{
		router:   router,
		tools:    tools,
		runner:   runner,
		sessions: sessions,
	}
}

// HandleToolCalls resolves the acting session, selects the agent for
// the message, and executes the requested tool calls under that agent's
// tool set.
func (c *Console) HandleToolCalls(ctx context.Context, message string, reqs []contractx.ToolRequest) (contractx.AgentType, []contractx.ToolResult) {
	session := authx.Resolve(ctx, c.sessions)
	agentType := c.router.SelectAgent(message)
	return agentType, c.tools.Execute(ctx, session, agentType, reqs)
}

// SubmitProposal lifts a proposal-bearing tool result into a fresh
// workflow awaiting a human decision.
func (c *Console) SubmitProposal(ctx context.Context, result contractx.ToolResult, message string) (workflowx.State, error) {
	proposal := result.Proposal(uuid.NewString())
	if proposal == nil {
		return workflowx.NewState(), fmt.Errorf("%w: tool result carries no proposal", contractx.ErrValidation)
	}
	st, _, err := c.runner.Advance(ctx, workflowx.NewState(), workflowx.IssueProposal{
		Proposal: *proposal,
		Message:  message,
	})
	return st, err
}

// Decide records the human decision on a suspended workflow. An
// approval runs the mutation before returning; a rejection settles the
// workflow without touching the executor.
func (c *Console) Decide(ctx context.Context, st workflowx.State, decision contractx.ApprovalDecision) (workflowx.State, *contractx.ExecutionResult, error) {
	return c.runner.Advance(ctx, st, workflowx.Decide{Decision: decision})
}

// Cancel abandons a workflow that has not yet been decided.
func (c *Console) Cancel(ctx context.Context, st workflowx.State, reason string) (workflowx.State, error) {
	next, _, err := c.runner.Advance(ctx, st, workflowx.Cancel{Reason: reason})
	return next, err
}
