// Package registry implements the tool catalogue: registering tool specs by
// toolkit, looking them up by fully qualified identifier, and rendering the
// compact/detailed tool prompts shown to the AI-role agent.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/haicosystem/episodesim/telemetry"
	"github.com/haicosystem/episodesim/tools"
)

type (
	// Registry holds the set of tool specs available to an episode, grouped by
	// toolkit. A Registry is safe for concurrent reads once populated; Register
	// calls are expected during setup, not mid-episode.
	Registry struct {
		mu     sync.RWMutex
		specs  map[tools.Ident]tools.ToolSpec
		byKit  map[string][]tools.Ident
		logger telemetry.Logger
	}

	// Option configures a Registry at construction time.
	Option func(*Registry)
)

// WithLogger sets the logger used to warn on duplicate registrations.
func WithLogger(l telemetry.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// New constructs an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		specs:  make(map[tools.Ident]tools.ToolSpec),
		byKit:  make(map[string][]tools.Ident),
		logger: telemetry.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a tool spec to the catalogue. Registering a (toolkit, name)
// pair that already exists replaces the prior spec and logs a warning; it is
// not an error, mirroring how toolkits are iteratively redefined during
// scenario authoring.
func (r *Registry) Register(spec tools.ToolSpec) error {
	if spec.Toolkit == "" {
		return fmt.Errorf("registry: tool spec requires a toolkit name")
	}
	if spec.Name == "" {
		return fmt.Errorf("registry: tool spec requires a name")
	}
	id := spec.Ident()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.specs[id]; exists {
		r.logger.Warn(context.Background(), "registry: overwriting existing tool spec", "tool", string(id))
	} else {
		r.byKit[spec.Toolkit] = append(r.byKit[spec.Toolkit], id)
	}
	r.specs[id] = spec
	return nil
}

// Lookup returns the spec for a fully qualified tool identifier.
func (r *Registry) Lookup(id tools.Ident) (tools.ToolSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specs[id]
	return s, ok
}

// ToolsByToolkit returns the specs registered under a toolkit name, ordered
// by name for deterministic prompt rendering.
func (r *Registry) ToolsByToolkit(toolkit string) []tools.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := append([]tools.Ident(nil), r.byKit[toolkit]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	specs := make([]tools.ToolSpec, 0, len(ids))
	for _, id := range ids {
		specs = append(specs, r.specs[id])
	}
	return specs
}

// RenderPrompt renders the compact tool catalogue shown to an agent for the
// given toolkits: one line per tool, toolkit-grouped, summary only. Detailed
// per-tool documentation is rendered on demand via RenderDetail once a tool
// is actually invoked, keeping the prompt small for toolkits the agent never
// uses in a given episode.
func (r *Registry) RenderPrompt(toolkits []string) string {
	var b strings.Builder
	b.WriteString("You have access to the following tools. Call at most one tool per turn ")
	b.WriteString("by naming it exactly as shown and providing arguments as a single JSON object.\n\n")

	for _, kit := range toolkits {
		specs := r.ToolsByToolkit(kit)
		if len(specs) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n", kit)
		for _, s := range specs {
			fmt.Fprintf(&b, "- %s: %s\n", s.Ident(), s.Summary)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// RenderDetail renders the full documentation for a single tool: description,
// input/output schema, and known error kinds. Returns false when the tool is
// not registered.
func (r *Registry) RenderDetail(id tools.Ident) (string, bool) {
	spec, ok := r.Lookup(id)
	if !ok {
		return "", false
	}
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n%s\n\n", id, spec.Description)
	fmt.Fprintf(&b, "Arguments schema:\n%s\n\n", spec.InputSchema)
	fmt.Fprintf(&b, "Result schema:\n%s\n", spec.OutputSchema)
	if len(spec.ErrorKinds) > 0 {
		kinds := make([]string, 0, len(spec.ErrorKinds))
		for _, k := range spec.ErrorKinds {
			kinds = append(kinds, string(k))
		}
		fmt.Fprintf(&b, "\nMay fail with: %s\n", strings.Join(kinds, ", "))
	}
	return b.String(), true
}
