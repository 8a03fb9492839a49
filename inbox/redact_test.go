package inbox_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haicosystem/episodesim/inbox"
)

func TestRedactUnwrapsMatchingViewer(t *testing.T) {
	text := "before <extra_info viewer='agent_1'>hidden goal</extra_info> after"
	assert.Equal(t, "before hidden goal after", inbox.Redact(text, "agent_1"))
}

func TestRedactStripsNonMatchingViewer(t *testing.T) {
	text := "before <extra_info viewer='agent_2'>hidden goal</extra_info> after"
	assert.Equal(t, "before  after", inbox.Redact(text, "agent_1"))
}

func TestRedactKeepsAllViewerBlock(t *testing.T) {
	text := "<extra_info viewer='all'>shared</extra_info>"
	assert.Equal(t, "shared", inbox.Redact(text, "agent_2"))
}

func TestRedactHandlesMultipleBlocksIndependently(t *testing.T) {
	text := "<extra_info viewer='agent_1'>mine</extra_info> and <extra_info viewer='agent_2'>theirs</extra_info>"
	assert.Equal(t, "mine and ", inbox.Redact(text, "agent_1"))
}

func TestRedactLeavesPlainTextUntouched(t *testing.T) {
	assert.Equal(t, "plain text, no tags", inbox.Redact("plain text, no tags", "agent_1"))
}

func TestFullUnwrapsEveryBlockRegardlessOfViewer(t *testing.T) {
	text := "<extra_info viewer='agent_1'>mine</extra_info> and <extra_info viewer='environment'>theirs</extra_info>"
	assert.Equal(t, "mine and theirs", inbox.Full(text))
}
