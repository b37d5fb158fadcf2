package improve

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abudker/takeoff24/internal/takeoff/agent"
	"github.com/abudker/takeoff24/internal/takeoff/store"
)

type fakeReextractor struct {
	metrics map[string]store.IterationMetrics
}

func (f *fakeReextractor) ReextractAndVerify(ctx context.Context, evalIDs []string) (map[string]store.IterationMetrics, error) {
	return f.metrics, nil
}

func TestLoop_Run_AcceptsAppliesAndReextracts(t *testing.T) {
	root := t.TempDir()
	instrDir := filepath.Join(root, ".claude", "instructions", "zones-extractor")
	require.NoError(t, os.MkdirAll(instrDir, 0o755))
	targetRel := filepath.Join(".claude", "instructions", "zones-extractor", "rules.md")
	require.NoError(t, os.WriteFile(filepath.Join(root, targetRel), []byte("# Zones Extractor v1.0.0\n\noriginal"), 0o644))

	fake := agent.NewFakeExecutor()
	fake.QueueReply("critic", `{
		"target_file": "`+filepath.ToSlash(targetRel)+`",
		"change_type": "clarify_rule",
		"failure_pattern": "window areas omitted",
		"hypothesis": "Extractor misses multiplier field.",
		"proposed_change": "## Clarification\nAlways read the multiplier column.",
		"expected_impact": "fewer omissions"
	}`)

	evalStore := store.NewEvalStore(filepath.Join(root, "evals"), "")
	_, err := evalStore.SaveIteration("e1", 1, map[string]any{}, store.EvalResults{
		Metrics: store.IterationMetrics{F1: 0.5, ErrorsByType: map[string]int{"omission": 3}},
		Discrepancies: []store.DiscrepancyRecord{
			{FieldPath: "walls[0].window_area", ErrorType: "omission"},
		},
	}, "")
	require.NoError(t, err)

	reextract := &fakeReextractor{metrics: map[string]store.IterationMetrics{"e1": {F1: 0.8}}}

	loop := &Loop{
		Store:       evalStore,
		Critic:      &Critic{Executor: fake, InstructionsDir: filepath.Join(root, ".claude", "instructions"), ProjectRoot: root},
		Reviewer:    AutoAccept{},
		Reextract:   reextract,
		ProjectRoot: root,
	}

	result, err := loop.Run(context.Background(), []string{"e1"}, "", "")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, Accept, result.Decision)
	assert.Equal(t, "1.0.0", result.OldVersion)
	assert.Equal(t, "1.0.1", result.NewVersion) // clarify_rule -> patch
	assert.Equal(t, 0.8, result.AfterMetrics["e1"].F1)

	updated, err := os.ReadFile(filepath.Join(root, targetRel))
	require.NoError(t, err)
	assert.Contains(t, string(updated), "Always read the multiplier column.")
}

func TestLoop_Run_RejectedProposalMakesNoChange(t *testing.T) {
	root := t.TempDir()
	instrDir := filepath.Join(root, ".claude", "instructions", "zones-extractor")
	require.NoError(t, os.MkdirAll(instrDir, 0o755))
	targetRel := filepath.Join(".claude", "instructions", "zones-extractor", "rules.md")
	original := "# Zones Extractor v1.0.0\n\noriginal"
	require.NoError(t, os.WriteFile(filepath.Join(root, targetRel), []byte(original), 0o644))

	fake := agent.NewFakeExecutor()
	fake.QueueReply("critic", `{"target_file": "`+filepath.ToSlash(targetRel)+`", "failure_pattern": "x", "hypothesis": "y", "proposed_change": "z", "expected_impact": "w"}`)

	evalStore := store.NewEvalStore(filepath.Join(root, "evals"), "")

	loop := &Loop{
		Store:       evalStore,
		Critic:      &Critic{Executor: fake, InstructionsDir: instrDir, ProjectRoot: root},
		Reviewer:    AutoReject{},
		ProjectRoot: root,
	}

	result, err := loop.Run(context.Background(), []string{"e1"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, Reject, result.Decision)

	content, err := os.ReadFile(filepath.Join(root, targetRel))
	require.NoError(t, err)
	assert.Equal(t, original, string(content))
}
