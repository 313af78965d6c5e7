package workflow

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/pricewatch/pricewatch/agent/contract"
)

type Phase string

const (
	PhaseDraft            Phase = "DRAFT"
	PhasePlanProposed     Phase = "PLAN_PROPOSED"
	PhaseAwaitingApproval Phase = "AWAITING_APPROVAL"
	PhaseApproved         Phase = "APPROVED"
	PhaseExecuting        Phase = "EXECUTING"
	PhaseCompleted        Phase = "COMPLETED"
	PhaseRejected         Phase = "REJECTED"
	PhaseCancelled        Phase = "CANCELLED"
)

func (p Phase) Terminal() bool {
	switch p {
	case PhaseCompleted, PhaseRejected, PhaseCancelled:
		return true
	}
	return false
}

// State is the full, serializable workflow snapshot. The workflow holds
// no server-side session state of its own: callers persist State between
// invocations and replay it with the next event.
type State struct {
	Phase             Phase                       `json:"phase"`
	Plan              *contractx.Plan             `json:"plan,omitempty"`
	Proposal          *contractx.Proposal         `json:"proposal,omitempty"`
	Decision          *contractx.ApprovalDecision `json:"decision,omitempty"`
	Message           string                      `json:"message,omitempty"`
	Urgency           string                      `json:"urgency,omitempty"`
	EstimatedDuration string                      `json:"estimatedDuration,omitempty"`
	ExecutionError    string                      `json:"executionError,omitempty"`
	UpdatedAt         time.Time                   `json:"updatedAt"`
}

func NewState() State {
	return State{Phase: PhaseDraft}
}

// Event is the tagged union of workflow inputs.
type Event interface{ isEvent() }

type ProposePlan struct {
	Todos []contractx.Todo
}

type IssueProposal struct {
	Proposal          contractx.Proposal
	Message           string
	Urgency           string
	EstimatedDuration string
}

type Decide struct {
	Decision contractx.ApprovalDecision
}

type BeginExecution struct{}

type FinishExecution struct {
	Err string
}

type Cancel struct {
	Reason string
}

func (ProposePlan) isEvent()     {}
func (IssueProposal) isEvent()   {}
func (Decide) isEvent()          {}
func (BeginExecution) isEvent()  {}
func (FinishExecution) isEvent() {}
func (Cancel) isEvent()          {}

// Effect instructs the caller what to do after a transition. Effects are
// descriptions, never actions: the machine itself performs no I/O.
type Effect interface{ isEffect() }

// AwaitDecision is the suspension point: control returns to the caller
// until an ApprovalDecision arrives in a later invocation.
type AwaitDecision struct {
	Proposal contractx.Proposal
	Message  string
}

// RunMutation is the only effect that may reach a mutation executor.
type RunMutation struct {
	Proposal contractx.Proposal
	Decision contractx.ApprovalDecision
}

type Notify struct {
	Message string
}

func (AwaitDecision) isEffect() {}
func (RunMutation) isEffect()   {}
func (Notify) isEffect()        {}

// Apply is the pure transition function (state, event) -> (state, effects).
func Apply(st State, ev Event, now time.Time) (State, []Effect, error) {
	switch e := ev.(type) {
	case ProposePlan:
		if st.Phase != PhaseDraft {
			return st, nil, transitionError(st.Phase, "propose plan")
		}
		if len(e.Todos) == 0 {
			return st, nil, fmt.Errorf("%w: plan requires at least one todo", contractx.ErrValidation)
		}
		st.Phase = PhasePlanProposed
		st.Plan = &contractx.Plan{Todos: e.Todos}
		st.UpdatedAt = now
		return st, nil, nil

	case IssueProposal:
		if st.Phase != PhaseDraft && st.Phase != PhasePlanProposed {
			return st, nil, transitionError(st.Phase, "issue proposal")
		}
		if !e.Proposal.RequiresApproval {
			return st, nil, fmt.Errorf("%w: proposal must require approval", contractx.ErrValidation)
		}
		if len(e.Proposal.Data) == 0 {
			return st, nil, fmt.Errorf("%w: proposal carries no payload", contractx.ErrValidation)
		}
		proposal := e.Proposal
		st.Phase = PhaseAwaitingApproval
		st.Proposal = &proposal
		st.Message = strings.TrimSpace(e.Message)
		st.Urgency = e.Urgency
		st.EstimatedDuration = e.EstimatedDuration
		st.UpdatedAt = now
		return st, []Effect{AwaitDecision{Proposal: proposal, Message: st.Message}}, nil

	case Decide:
		if st.Phase != PhaseAwaitingApproval {
			return st, nil, transitionError(st.Phase, "record decision")
		}
		if st.Proposal == nil {
			return st, nil, fmt.Errorf("%w: no proposal awaiting decision", contractx.ErrInvalidTransition)
		}
		decision := e.Decision
		st.Decision = &decision
		st.UpdatedAt = now
		if !decision.Approved {
			if strings.TrimSpace(decision.Reason) == "" {
				st.Decision = nil
				return st, nil, fmt.Errorf("%w: rejection requires a reason", contractx.ErrValidation)
			}
			st.Phase = PhaseRejected
			return st, []Effect{Notify{Message: "Proposal rejected: " + decision.Reason}}, nil
		}
		st.Phase = PhaseApproved
		return st, []Effect{RunMutation{Proposal: *st.Proposal, Decision: decision}}, nil

	case BeginExecution:
		if st.Phase != PhaseApproved {
			return st, nil, transitionError(st.Phase, "begin execution")
		}
		st.Phase = PhaseExecuting
		st.UpdatedAt = now
		return st, nil, nil

	case FinishExecution:
		if st.Phase != PhaseExecuting {
			return st, nil, transitionError(st.Phase, "finish execution")
		}
		// Execution failure is reported, never rolled back to
		// AWAITING_APPROVAL: the decision already happened.
		st.Phase = PhaseCompleted
		st.ExecutionError = e.Err
		st.UpdatedAt = now
		if e.Err != "" {
			return st, []Effect{Notify{Message: "Execution failed: " + e.Err}}, nil
		}
		return st, nil, nil

	case Cancel:
		switch st.Phase {
		case PhaseDraft, PhasePlanProposed, PhaseAwaitingApproval:
		default:
			return st, nil, transitionError(st.Phase, "cancel")
		}
		st.Phase = PhaseCancelled
		st.UpdatedAt = now
		message := "Cancelled"
		if reason := strings.TrimSpace(e.Reason); reason != "" {
			message = "Cancelled: " + reason
		}
		return st, []Effect{Notify{Message: message}}, nil

	default:
		return st, nil, fmt.Errorf("%w: unknown event %T", contractx.ErrInvalidTransition, ev)
	}
}

func transitionError(phase Phase, action string) error {
	return fmt.Errorf("%w: cannot %s from phase %s", contractx.ErrInvalidTransition, action, phase)
}
