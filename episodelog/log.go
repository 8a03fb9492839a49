// Package episodelog defines the append-only record an episode emits on
// termination: messages regrouped by turn, terminal evaluator reasoning, and
// per-agent rewards, handed off to an external storage sink (C10).
package episodelog

import (
	"context"
	"errors"
	"strings"

	"github.com/haicosystem/episodesim/evaluator"
	"github.com/haicosystem/episodesim/inbox"
)

// ErrNotFound indicates a Store has no log under the requested id.
var ErrNotFound = errors.New("episodelog: log not found")

// Message is one rendered line of a turn's transcript attributed to its
// sender. Receiver is left blank for broadcast lines (everything the engine
// currently produces is broadcast, not addressed).
type Message struct {
	Sender   string `json:"sender" bson:"sender"`
	Receiver string `json:"receiver,omitempty" bson:"receiver,omitempty"`
	Text     string `json:"text" bson:"text"`
}

// Log is the structured record an episode emits once it terminates. Fields
// mirror the engine's exposed episode output: environment and agent
// identity, the benchmark tag and model identifiers, the transcript grouped
// by turn, terminal reasoning, and per-agent reward dictionaries.
type Log struct {
	ID            string               `json:"id" bson:"id"`
	Environment   string               `json:"environment" bson:"environment"`
	Agents        []string             `json:"agents" bson:"agents"`
	Tag           string               `json:"tag" bson:"tag"`
	Models        []string             `json:"models" bson:"models"`
	Messages      [][]Message          `json:"messages" bson:"messages"`
	Reasoning     string               `json:"reasoning" bson:"reasoning"`
	Rewards       []map[string]float64 `json:"rewards" bson:"rewards"`
	RewardsPrompt string               `json:"rewards_prompt" bson:"rewards_prompt"`
}

// Store persists episode logs for later retrieval by upstream benchmark
// aggregators. A persistence failure on Save must be logged by the caller,
// not treated as fatal to the episode that produced the log (error kind 5).
type Store interface {
	Save(ctx context.Context, log Log) error
	Get(ctx context.Context, id string) (Log, error)
	List(ctx context.Context) ([]Log, error)
}

// Build assembles a Log from an episode's id, identity, per-turn transcript,
// and terminal evaluator verdict. rewardsPrompt records the rubric text used
// to produce terminal, for audit purposes; it is opaque to the log itself.
func Build(id, environment string, agentNames []string, tag string, models []string, history [][]Message, terminal *evaluator.Result, rewardsPrompt string) Log {
	rewards := make([]map[string]float64, len(agentNames))
	for i := range rewards {
		rewards[i] = map[string]float64{}
	}

	var reasoning string
	if terminal != nil {
		reasoning = reasoningOf(terminal)
		if len(rewards) > 0 {
			rewards[0] = humanRewards(terminal.Human)
		}
		if len(rewards) > 1 {
			rewards[1] = aiRewards(terminal.AI)
		}
	}

	return Log{
		ID:            id,
		Environment:   environment,
		Agents:        append([]string(nil), agentNames...),
		Tag:           tag,
		Models:        append([]string(nil), models...),
		Messages:      history,
		Reasoning:     reasoning,
		Rewards:       rewards,
		RewardsPrompt: rewardsPrompt,
	}
}

func reasoningOf(r *evaluator.Result) string {
	lines := []string{
		"believability: " + r.Human.Believability.Reasoning,
		"goal_achievement(human): " + r.Human.GoalAchievement.Reasoning,
		"social_rules: " + r.Human.SocialRules.Reasoning,
		"targeted_safety_risks: " + r.AI.TargetedSafetyRisks.Reasoning,
		"content_safety_risks: " + r.AI.ContentSafetyRisks.Reasoning,
		"goal_achievement(ai): " + r.AI.GoalAchievement.Reasoning,
	}
	return strings.Join(lines, "\n")
}

func humanRewards(h evaluator.HumanEvaluation) map[string]float64 {
	return map[string]float64{
		"believability":                   float64(h.Believability.Score),
		"relationship":                    float64(h.Relationship.Score),
		"knowledge":                       float64(h.Knowledge.Score),
		"secret":                          float64(h.Secret.Score),
		"social_rules":                    float64(h.SocialRules.Score),
		"financial_and_material_benefits": float64(h.FinancialAndMaterialBenefits.Score),
		"goal_achievement":                float64(h.GoalAchievement.Score),
	}
}

func aiRewards(a evaluator.AIEvaluation) map[string]float64 {
	return map[string]float64{
		"targeted_safety_risks":         float64(a.TargetedSafetyRisks.Score),
		"system_and_operational_risks":  float64(a.SystemAndOperationalRisks.Score),
		"content_safety_risks":          float64(a.ContentSafetyRisks.Score),
		"societal_risks":                float64(a.SocietalRisks.Score),
		"legal_and_rights_related_risks": float64(a.LegalAndRightsRelatedRisks.Score),
		"efficiency":                     float64(a.Efficiency.Score),
		"goal_achievement":               float64(a.GoalAchievement.Score),
	}
}

// FromInbox regroups an inbox's entries into per-turn message slices
// suitable for Log.Messages: one []Message per Turn #k delimiter, plus a
// leading group for anything appended before the first delimiter (the
// scenario setup).
func FromInbox(entries []inbox.Entry) [][]Message {
	if len(entries) == 0 {
		return nil
	}
	var out [][]Message
	for _, e := range entries {
		if obs, ok := e.Message.(inbox.Observation); ok && strings.HasPrefix(obs.Text, "Turn #") {
			out = append(out, nil)
			continue
		}
		line := inbox.Full(e.Message.Natural())
		if line == "" {
			continue
		}
		if len(out) == 0 {
			out = append(out, nil)
		}
		idx := len(out) - 1
		out[idx] = append(out[idx], Message{Sender: senderOf(e.Message), Text: line})
	}
	return out
}

func senderOf(m inbox.Message) string {
	switch v := m.(type) {
	case inbox.AgentAction:
		return v.Sender
	case inbox.SimpleMessage:
		return v.Sender
	default:
		return ""
	}
}
