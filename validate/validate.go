// Package validate checks a proposed tool call's arguments against the
// tool's input schema before the grounding engine is asked to simulate an
// observation for it, so obviously malformed calls never reach the model.
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/haicosystem/episodesim/toolerrors"
	"github.com/haicosystem/episodesim/tools"
)

// placeholders lists argument values agents sometimes emit verbatim from a
// tool's documentation instead of a real value (e.g. copying "string" from an
// example schema). A call whose arguments still contain one of these is
// rejected rather than simulated, since simulating it would teach nothing.
var placeholders = map[string]struct{}{
	"string":        {},
	"<string>":      {},
	"<fill in>":     {},
	"fill in":       {},
	"example":       {},
	"your_username": {},
	"todo":          {},
	"":              {},
}

// Call validates a tool call's raw argument payload against the tool's input
// schema. It returns a *toolerrors.ToolError with Kind KindInvalidCall when
// the tool is unknown, the arguments do not parse as JSON, a top-level
// string argument is a known placeholder value, or the payload fails schema
// validation.
func Call(spec tools.ToolSpec, argumentsJSON []byte) error {
	if len(spec.InputSchema) == 0 {
		return toolerrors.NewKind(toolerrors.KindInvalidCall, fmt.Sprintf("tool %s has no input schema registered", spec.Ident()))
	}

	var args map[string]any
	dec := json.NewDecoder(bytes.NewReader(argumentsJSON))
	dec.UseNumber()
	if err := dec.Decode(&args); err != nil {
		return toolerrors.NewKind(toolerrors.KindInvalidCall, fmt.Sprintf("arguments for %s are not a JSON object: %v", spec.Ident(), err))
	}

	if field, ok := firstPlaceholder(args); ok {
		return toolerrors.NewKind(toolerrors.KindInvalidCall,
			fmt.Sprintf("argument %q for %s looks like an unfilled placeholder value", field, spec.Ident()))
	}

	if err := JSON(spec.InputSchema, toInterface(args)); err != nil {
		return toolerrors.NewKind(toolerrors.KindInvalidCall, fmt.Sprintf("arguments for %s violate the input schema: %v", spec.Ident(), err))
	}
	return nil
}

// JSON validates an already-decoded JSON value against a raw JSON Schema
// document. It is shared by input-call validation (Call) and the grounding
// engine's observation validation, which both compile-then-validate against
// a schema pulled from a tools.ToolSpec.
func JSON(schema json.RawMessage, value any) error {
	compiled, err := compile(schema)
	if err != nil {
		return fmt.Errorf("validate: invalid schema: %w", err)
	}
	return compiled.Validate(value)
}

// firstPlaceholder reports the first top-level string argument whose value
// (case-insensitively, trimmed) matches a known placeholder.
func firstPlaceholder(args map[string]any) (string, bool) {
	for field, v := range args {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if _, isPlaceholder := placeholders[strings.ToLower(strings.TrimSpace(s))]; isPlaceholder {
			return field, true
		}
	}
	return "", false
}

func compile(schema json.RawMessage) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schema))
	if err != nil {
		return nil, err
	}
	const resourceName = "schema.json"
	if err := c.AddResource(resourceName, doc); err != nil {
		return nil, err
	}
	return c.Compile(resourceName)
}

// toInterface round-trips a decoded map through JSON so json.Number values
// become the plain float64/string representation jsonschema/v6 expects.
func toInterface(v map[string]any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}
