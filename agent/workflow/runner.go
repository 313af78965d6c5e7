package workflow

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/pricewatch/pricewatch/agent/contract"
)

// Runner advances the machine and interprets its effects. It is the only
// code path that hands a proposal to a mutation executor, and it only
// ever does so off a RunMutation effect, which the machine emits solely
// on the APPROVED transition.
type Runner struct {
	executor contractx.MutationExecutor
	now      func() time.Time
}

func NewRunner(executor contractx.MutationExecutor) *Runner {
	return &Runner{executor: executor, now: time.Now}
}

// Advance applies one event and runs any resulting mutation to
// completion, returning the settled state and the execution result (nil
// when the event caused no mutation).
func (r *Runner) Advance(ctx context.Context, st State, ev Event) (State, *contractx.ExecutionResult, error) {
	next, effects, err := Apply(st, ev, r.now())
	if err != nil {
		return st, nil, err
	}

	for _, effect := range effects {
		switch eff := effect.(type) {
		case AwaitDecision:
			log.Info().
				Str("action", string(eff.Proposal.Action)).
				Str("preview", eff.Proposal.Preview).
				Msg("proposal awaiting human approval")
		case Notify:
			log.Info().Str("message", eff.Message).Msg("workflow notification")
		case RunMutation:
			return r.runMutation(ctx, next, eff)
		}
	}
	return next, nil, nil
}

func (r *Runner) runMutation(ctx context.Context, st State, eff RunMutation) (State, *contractx.ExecutionResult, error) {
	st, _, err := Apply(st, BeginExecution{}, r.now())
	if err != nil {
		return st, nil, err
	}

	result := contractx.ExecutionResult{Success: false, Error: "no mutation executor configured"}
	if r.executor != nil {
		result = r.executor.Execute(ctx, eff.Proposal, eff.Decision)
	}

	st, _, err = Apply(st, FinishExecution{Err: result.Error}, r.now())
	if err != nil {
		return st, &result, err
	}
	return st, &result, nil
}
