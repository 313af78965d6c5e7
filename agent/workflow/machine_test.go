package workflow

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	contractx "github.com/pricewatch/pricewatch/agent/contract"
)

var machineNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func testProposal() contractx.Proposal {
	return contractx.Proposal{
		ID:               "prop-1",
		Action:           contractx.ActionCreateCompetitor,
		Data:             json.RawMessage(`{"name":"Acme","status":"active"}`),
		Preview:          `Create competitor "Acme"`,
		RequiresApproval: true,
	}
}

func mustApply(t *testing.T, st State, ev Event) (State, []Effect) {
	t.Helper()
	next, effects, err := Apply(st, ev, machineNow)
	if err != nil {
		t.Fatalf("Apply(%T) error = %v", ev, err)
	}
	return next, effects
}

func TestHappyPathToCompleted(t *testing.T) {
	t.Parallel()

	st := NewState()
	st, _ = mustApply(t, st, ProposePlan{Todos: []contractx.Todo{{ID: "t1", Title: "Review pricing"}}})
	if st.Phase != PhasePlanProposed {
		t.Fatalf("unexpected phase: %s", st.Phase)
	}

	st, effects := mustApply(t, st, IssueProposal{Proposal: testProposal(), Message: "Please approve"})
	if st.Phase != PhaseAwaitingApproval {
		t.Fatalf("unexpected phase: %s", st.Phase)
	}
	if len(effects) != 1 {
		t.Fatalf("expected 1 effect, got %d", len(effects))
	}
	if _, ok := effects[0].(AwaitDecision); !ok {
		t.Fatalf("expected AwaitDecision effect, got %T", effects[0])
	}

	st, effects = mustApply(t, st, Decide{Decision: contractx.ApprovalDecision{Approved: true}})
	if st.Phase != PhaseApproved {
		t.Fatalf("unexpected phase: %s", st.Phase)
	}
	run, ok := effects[0].(RunMutation)
	if !ok {
		t.Fatalf("expected RunMutation effect, got %T", effects[0])
	}
	if string(run.Proposal.Data) != `{"name":"Acme","status":"active"}` {
		t.Fatalf("proposal payload was not carried verbatim: %s", run.Proposal.Data)
	}

	st, _ = mustApply(t, st, BeginExecution{})
	if st.Phase != PhaseExecuting {
		t.Fatalf("unexpected phase: %s", st.Phase)
	}

	st, _ = mustApply(t, st, FinishExecution{})
	if st.Phase != PhaseCompleted {
		t.Fatalf("unexpected phase: %s", st.Phase)
	}
}

func TestIssueProposalAllowedFromDraft(t *testing.T) {
	t.Parallel()

	st, effects := mustApply(t, NewState(), IssueProposal{Proposal: testProposal()})
	if st.Phase != PhaseAwaitingApproval {
		t.Fatalf("unexpected phase: %s", st.Phase)
	}
	if len(effects) != 1 {
		t.Fatalf("expected 1 effect, got %d", len(effects))
	}
}

func TestRejectionRequiresReason(t *testing.T) {
	t.Parallel()

	st, _ := mustApply(t, NewState(), IssueProposal{Proposal: testProposal()})

	_, _, err := Apply(st, Decide{Decision: contractx.ApprovalDecision{Approved: false}}, machineNow)
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	st, effects := mustApply(t, st, Decide{Decision: contractx.ApprovalDecision{Approved: false, Reason: "price too aggressive"}})
	if st.Phase != PhaseRejected {
		t.Fatalf("unexpected phase: %s", st.Phase)
	}
	for _, effect := range effects {
		if _, ok := effect.(RunMutation); ok {
			t.Fatal("rejected proposal must not emit RunMutation")
		}
	}
}

func TestCancelAllowedOnlyBeforeApproval(t *testing.T) {
	t.Parallel()

	// Cancellable phases.
	for _, setup := range []func() State{
		NewState,
		func() State {
			st, _ := mustApply(t, NewState(), ProposePlan{Todos: []contractx.Todo{{ID: "t1", Title: "x"}}})
			return st
		},
		func() State {
			st, _ := mustApply(t, NewState(), IssueProposal{Proposal: testProposal()})
			return st
		},
	} {
		st, _ := mustApply(t, setup(), Cancel{Reason: "changed my mind"})
		if st.Phase != PhaseCancelled {
			t.Fatalf("expected CANCELLED, got %s", st.Phase)
		}
	}

	// Approved workflows can no longer be cancelled.
	st, _ := mustApply(t, NewState(), IssueProposal{Proposal: testProposal()})
	st, _ = mustApply(t, st, Decide{Decision: contractx.ApprovalDecision{Approved: true}})
	if _, _, err := Apply(st, Cancel{}, machineNow); !errors.Is(err, contractx.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestExecutionFailureCompletesWithError(t *testing.T) {
	t.Parallel()

	st, _ := mustApply(t, NewState(), IssueProposal{Proposal: testProposal()})
	st, _ = mustApply(t, st, Decide{Decision: contractx.ApprovalDecision{Approved: true}})
	st, _ = mustApply(t, st, BeginExecution{})
	st, _ = mustApply(t, st, FinishExecution{Err: "constraint violation"})

	if st.Phase != PhaseCompleted {
		t.Fatalf("expected COMPLETED, got %s", st.Phase)
	}
	if st.ExecutionError != "constraint violation" {
		t.Fatalf("unexpected execution error: %q", st.ExecutionError)
	}
}

func TestInvalidTransitionsRejected(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		state State
		event Event
	}{
		{"decide from draft", NewState(), Decide{Decision: contractx.ApprovalDecision{Approved: true}}},
		{"execute from draft", NewState(), BeginExecution{}},
		{"finish from draft", NewState(), FinishExecution{}},
		{"plan after plan", State{Phase: PhasePlanProposed}, ProposePlan{Todos: []contractx.Todo{{ID: "t1", Title: "x"}}}},
		{"cancel after completion", State{Phase: PhaseCompleted}, Cancel{}},
	}

	for _, tc := range cases {
		if _, _, err := Apply(tc.state, tc.event, machineNow); !errors.Is(err, contractx.ErrInvalidTransition) {
			t.Fatalf("%s: expected ErrInvalidTransition, got %v", tc.name, err)
		}
	}
}

func TestIssueProposalValidation(t *testing.T) {
	t.Parallel()

	notGated := testProposal()
	notGated.RequiresApproval = false
	if _, _, err := Apply(NewState(), IssueProposal{Proposal: notGated}, machineNow); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for ungated proposal, got %v", err)
	}

	empty := testProposal()
	empty.Data = nil
	if _, _, err := Apply(NewState(), IssueProposal{Proposal: empty}, machineNow); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty payload, got %v", err)
	}
}

func TestStateSerializationRoundTrip(t *testing.T) {
	t.Parallel()

	st, _ := mustApply(t, NewState(), IssueProposal{Proposal: testProposal(), Message: "Please approve", Urgency: "high"})

	raw, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal state: %v", err)
	}
	var restored State
	if err := json.Unmarshal(raw, &restored); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if restored.Phase != PhaseAwaitingApproval {
		t.Fatalf("unexpected phase: %s", restored.Phase)
	}
	if restored.Proposal == nil || string(restored.Proposal.Data) != string(testProposal().Data) {
		t.Fatal("proposal payload must survive serialization unchanged")
	}

	// The restored snapshot must accept the next event as if the process
	// never restarted.
	restored, effects := mustApply(t, restored, Decide{Decision: contractx.ApprovalDecision{Approved: true}})
	if restored.Phase != PhaseApproved {
		t.Fatalf("unexpected phase after restore: %s", restored.Phase)
	}
	if _, ok := effects[0].(RunMutation); !ok {
		t.Fatalf("expected RunMutation effect, got %T", effects[0])
	}
}
