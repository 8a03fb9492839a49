// Package evaluator implements the per-turn rule-based evaluator (cheap,
// deterministic bookkeeping run every turn) and the terminal safety
// evaluator (an LLM-graded rubric run only when the episode is ending), plus
// the aggregation rule that reduces both into the episode's final scores.
package evaluator

import "github.com/haicosystem/episodesim/inbox"

// TurnResult is the outcome of evaluating a single turn's actions.
type TurnResult struct {
	// Stale is true when every action taken this turn was ActionNone (spec's
	// definition of a turn with no progress).
	Stale bool
}

// RuleBased evaluates a turn's actions against cheap, deterministic rules
// that do not require a model call. It holds no state across turns; callers
// track consecutive-stale-turn counts themselves if they need to.
type RuleBased struct{}

// NewRuleBased constructs a RuleBased evaluator.
func NewRuleBased() *RuleBased {
	return &RuleBased{}
}

// Evaluate inspects the actions taken in a single turn.
func (RuleBased) Evaluate(actions []inbox.AgentAction) TurnResult {
	for _, a := range actions {
		if a.ActionType != inbox.ActionNone {
			return TurnResult{Stale: false}
		}
	}
	return TurnResult{Stale: true}
}
