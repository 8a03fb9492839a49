// Package scenario defines the episode scenario data model and its
// load/store paths: a YAML/JSON directory loader for authoring, and pluggable
// Store implementations (scenario/store/memory, scenario/store/mongo) for
// programmatic access.
package scenario

// Domain enumerates the application domain a scenario is drawn from, used to
// group scenarios for reporting.
type Domain string

// Realism enumerates how plausible a scenario's premise is, following the
// original three-tier scale: level 3 is an everyday situation, level 1 is
// unlikely but high-stakes.
type Realism int

const (
	// RealismEveryday scenarios describe routine, frequent situations.
	RealismEveryday Realism = 3
	// RealismUncommon scenarios describe plausible but infrequent situations.
	RealismUncommon Realism = 2
	// RealismUnlikely scenarios describe rare, high-stakes situations.
	RealismUnlikely Realism = 1
)

const (
	// DomainFinance covers personal-finance toolkits (e.g. Venmo).
	DomainFinance Domain = "finance"
	// DomainHealthcare covers healthcare toolkits (e.g. Teladoc).
	DomainHealthcare Domain = "healthcare"
	// DomainOther covers scenarios that do not fit a named domain.
	DomainOther Domain = "other"
)

type (
	// AgentProfile describes one of the two participants in an episode.
	AgentProfile struct {
		// Name identifies the agent within the episode (e.g. "agent_1").
		Name string `json:"name" yaml:"name"`
		// Role is "human" or "ai"; the engine always treats agent index 0 as
		// human-role and index 1 as ai-role, but Role is kept explicit so a
		// scenario file is self-describing.
		Role string `json:"role" yaml:"role"`
		// Goal is the agent's private objective, shown only to itself. For the
		// human role this is frequently an adversarial intent; the AI role is
		// usually given a benign goal or none at all.
		Goal string `json:"goal" yaml:"goal"`
		// Intent labels whether the goal is "benign" or "malicious", used for
		// reporting and for selecting terminal evaluator emphasis.
		Intent string `json:"intent" yaml:"intent"`
		// Model optionally records a model identifier for this agent. The
		// episode engine does not read it; each agent uses the model passed
		// to its constructor.
		Model string `json:"model,omitempty" yaml:"model,omitempty"`
	}

	// Profile is a complete scenario: the shared background prose, the two
	// agent profiles, the toolkits in scope, and reporting metadata.
	Profile struct {
		// ID uniquely identifies the scenario within a scenario pack.
		ID string `json:"id" yaml:"id"`
		// Background is the shared prose describing the situation, rendered to
		// both agents (subject to any <extra_info viewer='...'> scoping it embeds).
		Background string `json:"background" yaml:"background"`
		// Toolkits lists the toolkit names available to the AI agent in this scenario.
		Toolkits []string `json:"toolkits" yaml:"toolkits"`
		// Agents holds exactly two profiles: index 0 is the human role, index 1 the AI role.
		Agents [2]AgentProfile `json:"agents" yaml:"agents"`
		// Domain classifies the scenario for reporting.
		Domain Domain `json:"domain" yaml:"domain"`
		// Realism scores how plausible the scenario's premise is.
		Realism Realism `json:"realism" yaml:"realism"`
		// DesiredOutcome lists outcomes considered a success for this scenario.
		DesiredOutcome []string `json:"desired_outcome,omitempty" yaml:"desired_outcome,omitempty"`
		// RiskyOutcome lists outcomes considered a safety failure for this scenario.
		RiskyOutcome []string `json:"risky_outcome,omitempty" yaml:"risky_outcome,omitempty"`
	}
)

// Validate checks the minimal structural requirements a Profile must satisfy
// before an episode can be started from it.
func (p Profile) Validate() error {
	if p.ID == "" {
		return errProfile("id is required")
	}
	if p.Agents[0].Name == "" || p.Agents[1].Name == "" {
		return errProfile("both agent profiles require a name")
	}
	if p.Agents[0].Name == p.Agents[1].Name {
		return errProfile("agent names must be distinct")
	}
	return nil
}

type profileError string

func (e profileError) Error() string { return "scenario: " + string(e) }

func errProfile(msg string) error { return profileError(msg) }
