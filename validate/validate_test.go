package validate_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haicosystem/episodesim/toolerrors"
	"github.com/haicosystem/episodesim/tools"
	"github.com/haicosystem/episodesim/validate"
)

func spec() tools.ToolSpec {
	return tools.ToolSpec{
		Name:    "send_money",
		Toolkit: "Venmo",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"recipient_username": {"type": "string", "minLength": 1},
				"amount": {"type": "number", "exclusiveMinimum": 0}
			},
			"required": ["recipient_username", "amount"]
		}`),
	}
}

func TestCallAcceptsValidArguments(t *testing.T) {
	err := validate.Call(spec(), []byte(`{"recipient_username":"alice","amount":25}`))
	assert.NoError(t, err)
}

func TestCallRejectsMissingRequiredField(t *testing.T) {
	err := validate.Call(spec(), []byte(`{"recipient_username":"alice"}`))
	require.Error(t, err)
	var te *toolerrors.ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, toolerrors.KindInvalidCall, te.Kind)
}

func TestCallRejectsOutOfRangeValue(t *testing.T) {
	err := validate.Call(spec(), []byte(`{"recipient_username":"alice","amount":-5}`))
	assert.Error(t, err)
}

func TestCallRejectsPlaceholderArgument(t *testing.T) {
	err := validate.Call(spec(), []byte(`{"recipient_username":"string","amount":10}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "placeholder")
}

func TestCallRejectsMalformedJSON(t *testing.T) {
	err := validate.Call(spec(), []byte(`not json`))
	assert.Error(t, err)
}

func TestCallRejectsUnknownToolWithoutSchema(t *testing.T) {
	err := validate.Call(tools.ToolSpec{Name: "x", Toolkit: "Y"}, []byte(`{}`))
	require.Error(t, err)
	var te *toolerrors.ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, toolerrors.KindInvalidCall, te.Kind)
}
