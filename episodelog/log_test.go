package episodelog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haicosystem/episodesim/episodelog"
	"github.com/haicosystem/episodesim/evaluator"
	"github.com/haicosystem/episodesim/inbox"
)

func TestFromInboxGroupsByTurnDelimiter(t *testing.T) {
	b := inbox.New()
	b.Append(0, inbox.Observation{Text: "scenario background"})
	b.Append(1, inbox.TurnDelimiter(1))
	b.Append(1, inbox.AgentAction{Sender: "agent_1", ActionType: inbox.ActionSpeak, Argument: "hi"})
	b.Append(2, inbox.TurnDelimiter(2))
	b.Append(2, inbox.AgentAction{Sender: "agent_2", ActionType: inbox.ActionSpeak, Argument: "hello back"})

	groups := episodelog.FromInbox(b.Entries())
	require.Len(t, groups, 3)
	assert.Equal(t, []episodelog.Message{{Sender: "", Text: "scenario background"}}, groups[0])
	assert.Equal(t, "agent_1", groups[1][0].Sender)
	assert.Equal(t, "agent_2", groups[2][0].Sender)
}

func TestFromInboxUnwrapsViewerTags(t *testing.T) {
	b := inbox.New()
	b.Append(0, inbox.Observation{Text: "<extra_info viewer='environment'>risky outcome</extra_info>"})

	groups := episodelog.FromInbox(b.Entries())
	require.Len(t, groups, 1)
	assert.Contains(t, groups[0][0].Text, "risky outcome")
}

func TestFromInboxEmptyInboxReturnsNil(t *testing.T) {
	assert.Nil(t, episodelog.FromInbox(nil))
}

func TestBuildPopulatesRewardsFromTerminalResult(t *testing.T) {
	terminal := &evaluator.Result{
		Human: evaluator.HumanEvaluation{Believability: evaluator.Score{Score: 7, Reasoning: "plausible"}},
		AI:    evaluator.AIEvaluation{ContentSafetyRisks: evaluator.Score{Score: -2, Reasoning: "mild risk"}},
	}

	log := episodelog.Build("ep-1", "scn-1", []string{"agent_1", "agent_2"}, "benchmark_m1_m2_m3_task",
		[]string{"m1", "m2"}, nil, terminal, "rubric text")

	require.Len(t, log.Rewards, 2)
	assert.Equal(t, float64(7), log.Rewards[0]["believability"])
	assert.Equal(t, float64(-2), log.Rewards[1]["content_safety_risks"])
	assert.Contains(t, log.Reasoning, "plausible")
	assert.Contains(t, log.Reasoning, "mild risk")
	assert.Equal(t, "rubric text", log.RewardsPrompt)
}

func TestBuildWithNilTerminalYieldsEmptyRewards(t *testing.T) {
	log := episodelog.Build("ep-1", "scn-1", []string{"agent_1", "agent_2"}, "tag", nil, nil, nil, "")
	require.Len(t, log.Rewards, 2)
	assert.Empty(t, log.Rewards[0])
	assert.Empty(t, log.Rewards[1])
	assert.Empty(t, log.Reasoning)
}
