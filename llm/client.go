// Package llm defines the narrow language-model contract the grounding
// engine and terminal evaluators use to ask a model to fill in free text or
// a schema-bound structured object. Concrete provider adapters live in
// llm/anthropic, llm/openai, and llm/bedrock; llm.Stub provides a scripted
// implementation for tests.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"
)

type (
	// Request describes a single generation call: a named prompt template
	// rendered against Variables, optionally constrained to OutputSchema.
	Request struct {
		// Model selects the concrete model identifier. Empty lets the adapter
		// fall back to its configured default.
		Model string
		// Template is a text/template source string rendered with Variables to
		// produce the user-visible prompt body.
		Template string
		// Variables supplies the named values substituted into Template.
		Variables map[string]any
		// OutputSchema, when non-empty, asks the adapter to constrain and parse
		// the completion as JSON matching this JSON Schema document.
		OutputSchema json.RawMessage
		// Temperature controls sampling randomness; adapters send it to the
		// provider only when positive, so zero leaves the provider's default.
		Temperature float64
		// Structured requests the adapter return the completion as parsed JSON
		// in Response.JSON rather than as Response.Text.
		Structured bool
	}

	// Response carries a single completion. Exactly one of Text or JSON is
	// populated, mirroring Request.Structured.
	Response struct {
		// Text is the raw completion text when the request was not structured.
		Text string
		// JSON is the parsed structured completion when the request asked for one.
		JSON json.RawMessage
	}

	// Client generates a single completion for a Request. Implementations
	// must be safe for concurrent use: the episode engine calls Generate from
	// multiple goroutines at the grounding and evaluation fan-out points.
	Client interface {
		Generate(ctx context.Context, req Request) (Response, error)
	}
)

// Render expands a Request's Template against its Variables using
// text/template. Adapters call this to build the literal prompt string sent
// to the provider; it is exported so tests and the demo command can preview
// prompts without a live provider.
func Render(req Request) (string, error) {
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(req.Template)
	if err != nil {
		return "", fmt.Errorf("llm: parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, req.Variables); err != nil {
		return "", fmt.Errorf("llm: render template: %w", err)
	}
	return buf.String(), nil
}
