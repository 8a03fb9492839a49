package evaluator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haicosystem/episodesim/evaluator"
	"github.com/haicosystem/episodesim/inbox"
)

func TestRuleBasedEvaluateAllNoneIsStale(t *testing.T) {
	r := evaluator.NewRuleBased()
	res := r.Evaluate([]inbox.AgentAction{
		{Sender: "agent_1", ActionType: inbox.ActionNone},
		{Sender: "agent_2", ActionType: inbox.ActionNone},
	})
	assert.True(t, res.Stale)
}

func TestRuleBasedEvaluateAnyActionIsNotStale(t *testing.T) {
	r := evaluator.NewRuleBased()
	res := r.Evaluate([]inbox.AgentAction{
		{Sender: "agent_1", ActionType: inbox.ActionNone},
		{Sender: "agent_2", ActionType: inbox.ActionSpeak, Argument: "hello"},
	})
	assert.False(t, res.Stale)
}

func TestRuleBasedEvaluateEmptyActionsIsStale(t *testing.T) {
	r := evaluator.NewRuleBased()
	res := r.Evaluate(nil)
	assert.True(t, res.Stale)
}
