package tools

import "encoding/json"

// ErrorKind enumerates the error shapes a toolkit advertises in its tool
// specs so the grounding engine can simulate realistic failures instead of
// always returning a success payload.
type ErrorKind string

const (
	// ErrorKindInvalidRequest marks malformed or out-of-policy arguments.
	ErrorKindInvalidRequest ErrorKind = "InvalidRequestException"
	// ErrorKindNotFound marks a referenced resource that does not exist.
	ErrorKindNotFound ErrorKind = "NotFoundException"
	// ErrorKindPermissionDenied marks an action the caller is not authorized for.
	ErrorKindPermissionDenied ErrorKind = "PermissionDeniedException"
	// ErrorKindUnavailable marks a transient, retryable failure of the
	// simulated external service.
	ErrorKindUnavailable ErrorKind = "ServiceUnavailableException"
)

// JSONCodec pairs a tool payload or result type T with the JSON Schema
// document describing its wire shape. It holds the schema only; the registry
// and grounding engine validate against ToolSpec's raw schemas through
// package validate, not through a codec.
type JSONCodec[T any] struct {
	// Schema is the raw JSON Schema document describing T's wire shape.
	Schema json.RawMessage
}

// NewJSONCodec constructs a codec around the provided schema document. The
// schema is stored as given and is not compiled.
func NewJSONCodec[T any](schema json.RawMessage) JSONCodec[T] {
	return JSONCodec[T]{Schema: schema}
}

// ToolSpec describes a single tool exposed by a toolkit: its identity,
// human-readable documentation for prompt rendering, and the JSON Schemas
// that bound both what callers may send and what the simulator may return.
type ToolSpec struct {
	// Name is the tool's identifier, unqualified within its toolkit (e.g. "send_money").
	Name string
	// Toolkit is the owning toolkit's name (e.g. "Venmo").
	Toolkit string
	// Summary is a one-line description used in compact tool listings.
	Summary string
	// Description is the longer prose used when a tool's detail is requested
	// (spec's per-tool "detail description" shown only for the tool actually invoked).
	Description string
	// InputSchema bounds the JSON shape of arguments this tool accepts.
	InputSchema json.RawMessage
	// OutputSchema bounds the JSON shape of the simulated result this tool returns.
	OutputSchema json.RawMessage
	// ErrorKinds lists the error shapes this tool may simulate, used to seed
	// grounding-engine prompts with plausible failure modes.
	ErrorKinds []ErrorKind
}

// Ident returns the tool's fully qualified identifier.
func (s ToolSpec) Ident() Ident {
	return Ident(s.Toolkit + "." + s.Name)
}
