package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haicosystem/episodesim/scenario"
	"github.com/haicosystem/episodesim/scenario/store/memory"
)

func TestPutAndGet(t *testing.T) {
	s := memory.New()
	p := scenario.Profile{ID: "a", Agents: [2]scenario.AgentProfile{{Name: "x"}, {Name: "y"}}}
	require.NoError(t, s.Put(context.Background(), p))

	got, err := s.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestGetMissingReturnsErrNotFound(t *testing.T) {
	s := memory.New()
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, scenario.ErrNotFound)
}

func TestListReturnsAllProfiles(t *testing.T) {
	s := memory.New()
	require.NoError(t, s.Put(context.Background(), scenario.Profile{ID: "a"}))
	require.NoError(t, s.Put(context.Background(), scenario.Profile{ID: "b"}))

	all, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
