package llm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haicosystem/episodesim/llm"
)

func TestRenderSubstitutesVariables(t *testing.T) {
	out, err := llm.Render(llm.Request{
		Template:  "Turn {{.Turn}}: {{.Actor}} acted.",
		Variables: map[string]any{"Turn": 3, "Actor": "agent_1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Turn 3: agent_1 acted.", out)
}

func TestRenderFailsOnMissingVariable(t *testing.T) {
	_, err := llm.Render(llm.Request{Template: "{{.Missing}}"})
	assert.Error(t, err)
}

func TestStubReturnsScriptedResponsesInOrder(t *testing.T) {
	stub := llm.NewStub(
		llm.Response{Text: "first"},
		llm.Response{Text: "second"},
	)

	r1, err := stub.Generate(context.Background(), llm.Request{Template: "a"})
	require.NoError(t, err)
	assert.Equal(t, "first", r1.Text)

	r2, err := stub.Generate(context.Background(), llm.Request{Template: "b"})
	require.NoError(t, err)
	assert.Equal(t, "second", r2.Text)

	assert.Len(t, stub.Calls(), 2)
}

func TestStubErrorsWhenExhausted(t *testing.T) {
	stub := llm.NewStub(llm.Response{Text: "only"})
	_, err := stub.Generate(context.Background(), llm.Request{Template: "a"})
	require.NoError(t, err)

	_, err = stub.Generate(context.Background(), llm.Request{Template: "b"})
	assert.Error(t, err)
}

func TestStubWithErrorOverridesScriptedResponse(t *testing.T) {
	stub := llm.NewStub(llm.Response{Text: "first"}).WithError(0, assert.AnError)
	_, err := stub.Generate(context.Background(), llm.Request{Template: "a"})
	assert.ErrorIs(t, err, assert.AnError)
}
