package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetNextIteration_EmptyDirReturnsOne(t *testing.T) {
	s := NewEvalStore(t.TempDir(), "")
	next, err := s.GetNextIteration("eval-1")
	require.NoError(t, err)
	assert.Equal(t, 1, next)
}

func TestSaveIteration_ThenGetNextIterationIncrements(t *testing.T) {
	s := NewEvalStore(t.TempDir(), "")
	_, err := s.SaveIteration("eval-1", 1,
		map[string]any{"walls": []any{}},
		EvalResults{Metrics: IterationMetrics{F1: 0.5, Precision: 0.6, Recall: 0.45}},
		"")
	require.NoError(t, err)

	next, err := s.GetNextIteration("eval-1")
	require.NoError(t, err)
	assert.Equal(t, 2, next)
}

func TestSaveIteration_AggregateTracksTrendAndBest(t *testing.T) {
	s := NewEvalStore(t.TempDir(), "")

	_, err := s.SaveIteration("eval-1", 1, map[string]any{}, EvalResults{Metrics: IterationMetrics{F1: 0.5}}, "")
	require.NoError(t, err)
	_, err = s.SaveIteration("eval-1", 2, map[string]any{}, EvalResults{Metrics: IterationMetrics{F1: 0.7}}, "")
	require.NoError(t, err)
	_, err = s.SaveIteration("eval-1", 3, map[string]any{}, EvalResults{Metrics: IterationMetrics{F1: 0.6}}, "")
	require.NoError(t, err)

	aggregate, err := s.LoadAggregate("eval-1")
	require.NoError(t, err)
	require.NotNil(t, aggregate)
	require.Len(t, aggregate.Iterations, 3)

	assert.InDelta(t, 0.2, aggregate.Iterations[1].Trend, 1e-9)
	assert.InDelta(t, -0.1, aggregate.Iterations[2].Trend, 1e-9)
	assert.Equal(t, 0.7, aggregate.BestF1)
	require.NotNil(t, aggregate.BestIteration)
	assert.Equal(t, 2, *aggregate.BestIteration)
}

func TestSaveIteration_BestIsTieInclusive(t *testing.T) {
	s := NewEvalStore(t.TempDir(), "")
	_, err := s.SaveIteration("eval-1", 1, map[string]any{}, EvalResults{Metrics: IterationMetrics{F1: 0.5}}, "")
	require.NoError(t, err)
	_, err = s.SaveIteration("eval-1", 2, map[string]any{}, EvalResults{Metrics: IterationMetrics{F1: 0.5}}, "")
	require.NoError(t, err)

	aggregate, err := s.LoadAggregate("eval-1")
	require.NoError(t, err)
	assert.Equal(t, 2, *aggregate.BestIteration)
}

func TestGetHistory_SortedByIteration(t *testing.T) {
	s := NewEvalStore(t.TempDir(), "")
	_, err := s.SaveIteration("eval-1", 2, map[string]any{}, EvalResults{Metrics: IterationMetrics{F1: 0.6}}, "")
	require.NoError(t, err)
	_, err = s.SaveIteration("eval-1", 1, map[string]any{}, EvalResults{Metrics: IterationMetrics{F1: 0.5}}, "")
	require.NoError(t, err)

	history, err := s.GetHistory("eval-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].Iteration)
	assert.Equal(t, 2, history[1].Iteration)
}

func TestLoadAggregate_MissingReturnsNilNoError(t *testing.T) {
	s := NewEvalStore(t.TempDir(), "")
	aggregate, err := s.LoadAggregate("never-run")
	require.NoError(t, err)
	assert.Nil(t, aggregate)
}
