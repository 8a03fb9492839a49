package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haicosystem/episodesim/episodelog"
	"github.com/haicosystem/episodesim/episodelog/memory"
)

func TestSaveAndGet(t *testing.T) {
	s := memory.New()
	log := episodelog.Log{ID: "ep-1", Environment: "scn-1", Tag: "benchmark_m1_m2_m3_task"}
	require.NoError(t, s.Save(context.Background(), log))

	got, err := s.Get(context.Background(), "ep-1")
	require.NoError(t, err)
	assert.Equal(t, log, got)
}

func TestGetMissingReturnsErrNotFound(t *testing.T) {
	s := memory.New()
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, episodelog.ErrNotFound)
}

func TestListReturnsAllLogs(t *testing.T) {
	s := memory.New()
	require.NoError(t, s.Save(context.Background(), episodelog.Log{ID: "a"}))
	require.NoError(t, s.Save(context.Background(), episodelog.Log{ID: "b"}))

	all, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
