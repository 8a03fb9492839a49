package inbox_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haicosystem/episodesim/inbox"
)

func TestAgentActionNaturalLanguage(t *testing.T) {
	cases := []struct {
		action inbox.AgentAction
		want   string
	}{
		{inbox.AgentAction{Sender: "agent_1", ActionType: inbox.ActionNone}, "agent_1 did nothing"},
		{inbox.AgentAction{Sender: "agent_1", ActionType: inbox.ActionSpeak, Argument: "hello"}, `agent_1 said: "hello"`},
		{inbox.AgentAction{Sender: "agent_1", ActionType: inbox.ActionLeave}, "agent_1 left the conversation"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.action.Natural())
	}
}

func TestSimulatedObservationNaturalLanguage(t *testing.T) {
	obs := inbox.SimulatedObservation{ObservationText: `{"success": true}`}
	assert.Equal(t, "Observation: \n{\"success\": true}", obs.Natural())
}

func TestInboxRenderRedactsOtherViewers(t *testing.T) {
	b := inbox.New()
	b.Append(0, inbox.SimpleMessage{Sender: "narrator", Text: "scenario background"})
	b.Append(0, inbox.Observation{Text: "<extra_info viewer='agent_1'>secret plan</extra_info>"})
	b.Append(0, inbox.Observation{Text: "<extra_info viewer='agent_2'>other secret</extra_info>"})

	rendered := b.Render("agent_1")
	assert.Contains(t, rendered, "secret plan")
	assert.NotContains(t, rendered, "other secret")
}

func TestInboxLastTurnDelimiter(t *testing.T) {
	b := inbox.New()
	b.Append(0, inbox.SimpleMessage{Sender: "narrator", Text: "setup"})
	b.Append(1, inbox.TurnDelimiter(1))
	b.Append(1, inbox.AgentAction{Sender: "agent_1", ActionType: inbox.ActionSpeak, Argument: "hi"})
	b.Append(2, inbox.TurnDelimiter(2))
	b.Append(2, inbox.AgentAction{Sender: "agent_2", ActionType: inbox.ActionSpeak, Argument: "hello back"})

	idx, turn, ok := b.LastTurnDelimiter()
	require.True(t, ok)
	assert.Equal(t, 2, turn)
	assert.Equal(t, inbox.TurnDelimiter(2), b.Entries()[idx].Message)
}

func TestInboxLastTurnDelimiterNotFound(t *testing.T) {
	b := inbox.New()
	b.Append(0, inbox.SimpleMessage{Sender: "narrator", Text: "setup"})
	_, _, ok := b.LastTurnDelimiter()
	assert.False(t, ok)
}

func TestInboxRenderFullUnwrapsEveryViewer(t *testing.T) {
	b := inbox.New()
	b.Append(0, inbox.Observation{Text: "<extra_info viewer='agent_1'>human goal</extra_info>"})
	b.Append(0, inbox.Observation{Text: "<extra_info viewer='environment'>risky outcome</extra_info>"})

	full := b.RenderFull()
	assert.Contains(t, full, "human goal")
	assert.Contains(t, full, "risky outcome")
}

func TestInboxSinceFiltersByTurn(t *testing.T) {
	b := inbox.New()
	b.Append(1, inbox.TurnDelimiter(1))
	b.Append(2, inbox.TurnDelimiter(2))
	b.Append(3, inbox.TurnDelimiter(3))

	since := b.Since(2)
	assert.Len(t, since, 2)
}
