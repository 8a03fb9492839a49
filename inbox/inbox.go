package inbox

import (
	"fmt"
	"strings"
)

// Entry is a single Message placed in the inbox during a given turn.
type Entry struct {
	Turn    int
	Message Message
}

// Inbox is the ordered, append-only transcript shared by every agent and
// evaluator in an episode. Entries are never mutated or removed once
// appended; history is linearized on demand via Render.
type Inbox struct {
	entries []Entry
}

// New constructs an empty Inbox.
func New() *Inbox {
	return &Inbox{}
}

// Append adds a message to the inbox under the given turn number.
func (b *Inbox) Append(turn int, msg Message) {
	b.entries = append(b.entries, Entry{Turn: turn, Message: msg})
}

// Entries returns every entry appended so far, oldest first.
func (b *Inbox) Entries() []Entry {
	return b.entries
}

// Since returns entries appended at or after the given turn.
func (b *Inbox) Since(turn int) []Entry {
	var out []Entry
	for _, e := range b.entries {
		if e.Turn >= turn {
			out = append(out, e)
		}
	}
	return out
}

// LastTurnDelimiter scans entries backward for the most recent Observation
// whose text begins with "Turn", returning its index and turn number. This
// is the turn-window boundary that separates the current turn's actions from
// prior history; the episode engine hands each turn's actions to grounding
// and evaluation directly and does not call it. Returns ok=false
// when no delimiter has been appended yet (the first turn, before astep's
// first recv_message call).
func (b *Inbox) LastTurnDelimiter() (index int, turn int, ok bool) {
	for i := len(b.entries) - 1; i >= 0; i-- {
		if obs, isObs := b.entries[i].Message.(Observation); isObs && strings.HasPrefix(obs.Text, "Turn") {
			return i, b.entries[i].Turn, true
		}
	}
	return 0, 0, false
}

// Render linearizes the inbox into the plain-text history shown to an
// agent or evaluator, redacting scenario prose not addressed to viewer.
func (b *Inbox) Render(viewer string) string {
	var sb strings.Builder
	for _, e := range b.entries {
		line := Redact(e.Message.Natural(), viewer)
		if line == "" {
			continue
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderFull linearizes the inbox with every viewer-tagged block unwrapped,
// for readers meant to see the complete scenario (the terminal evaluator) as
// opposed to a single participant's redacted view.
func (b *Inbox) RenderFull() string {
	var sb strings.Builder
	for _, e := range b.entries {
		line := Full(e.Message.Natural())
		if line == "" {
			continue
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// TurnDelimiter builds the Observation message that opens a new turn.
func TurnDelimiter(turn int) Observation {
	return Observation{Text: fmt.Sprintf("Turn #%d", turn)}
}
