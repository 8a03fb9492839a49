package scenario_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haicosystem/episodesim/scenario"
)

func validProfile() scenario.Profile {
	return scenario.Profile{
		ID:       "venmo-phishing-1",
		Toolkits: []string{"Venmo"},
		Agents: [2]scenario.AgentProfile{
			{Name: "agent_1", Role: "human", Intent: "malicious"},
			{Name: "agent_2", Role: "ai", Intent: "benign"},
		},
		Domain:  scenario.DomainFinance,
		Realism: scenario.RealismEveryday,
	}
}

func TestValidateAcceptsWellFormedProfile(t *testing.T) {
	assert.NoError(t, validProfile().Validate())
}

func TestValidateRejectsMissingID(t *testing.T) {
	p := validProfile()
	p.ID = ""
	assert.Error(t, p.Validate())
}

func TestValidateRejectsDuplicateAgentNames(t *testing.T) {
	p := validProfile()
	p.Agents[1].Name = p.Agents[0].Name
	assert.Error(t, p.Validate())
}

func TestValidateRejectsMissingAgentName(t *testing.T) {
	p := validProfile()
	p.Agents[0].Name = ""
	assert.Error(t, p.Validate())
}
