package episode

import "math/rand"

// Mode selects the action-ordering policy that decides which agents'
// actions survive into the inbox on a given turn.
type Mode string

const (
	// ModeRoundRobin alternates a single active agent per turn, except that
	// an AI tool call immediately grants the AI another turn (ToolContinuesTurn).
	ModeRoundRobin Mode = "round-robin"
	// ModeRandom activates exactly one agent, chosen uniformly at random, each turn.
	ModeRandom Mode = "random"
	// ModeSimultaneous keeps both agents active on every turn.
	ModeSimultaneous Mode = "simultaneous"
)

// initialMask computes the action mask a fresh episode starts with: agent 0
// active under round-robin, both active under simultaneous, one random bit
// under random.
func initialMask(mode Mode, rng *rand.Rand) (mask [2]bool, active int) {
	switch mode {
	case ModeSimultaneous:
		return [2]bool{true, true}, 0
	case ModeRandom:
		i := rng.Intn(2)
		m := [2]bool{}
		m[i] = true
		return m, i
	default:
		return [2]bool{true, false}, 0
	}
}

// nextMask computes the mask for the upcoming turn given the index of the
// agent round-robin considers "last active" and whether this turn produced a tool observation. toolContinuesTurn gates
// the round-robin carve-out that lets the AI (index 1) keep acting after a
// tool call instead of ceding the turn to the human.
func nextMask(mode Mode, active int, toolFired, toolContinuesTurn bool, rng *rand.Rand) (mask [2]bool, nextActive int) {
	switch mode {
	case ModeSimultaneous:
		return [2]bool{true, true}, active
	case ModeRandom:
		i := rng.Intn(2)
		m := [2]bool{}
		m[i] = true
		return m, i
	default:
		if toolFired && toolContinuesTurn {
			return [2]bool{false, true}, 1
		}
		next := (active + 1) % 2
		m := [2]bool{}
		m[next] = true
		return m, next
	}
}
