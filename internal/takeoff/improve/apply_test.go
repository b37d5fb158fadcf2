package improve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInstructionVersion_FoundAndDefault(t *testing.T) {
	assert.Equal(t, "1.2.3", ParseInstructionVersion("# Verifier Instructions v1.2.3\n\nbody"))
	assert.Equal(t, "1.0.0", ParseInstructionVersion("# Instructions\n\nno version here"))
}

func TestBumpVersion_AllKinds(t *testing.T) {
	major, err := BumpVersion("1.2.3", "major")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", major)

	minor, err := BumpVersion("1.2.3", "minor")
	require.NoError(t, err)
	assert.Equal(t, "1.3.0", minor)

	patch, err := BumpVersion("1.2.3", "patch")
	require.NoError(t, err)
	assert.Equal(t, "1.2.4", patch)
}

func TestApplyVersionToContent_ReplacesFirstOccurrenceOnly(t *testing.T) {
	content := "# Agent Instructions v1.0.0\n\nSee v1.0.0 elsewhere."
	updated := ApplyVersionToContent(content, "1.1.0")
	assert.Equal(t, "# Agent Instructions v1.1.0\n\nSee v1.0.0 elsewhere.", updated)
}

func TestApplyVersionToContent_AddsToHeadingWhenMissing(t *testing.T) {
	updated := ApplyVersionToContent("# Agent Instructions\n\nbody", "1.0.0")
	assert.Equal(t, "# Agent Instructions v1.0.0\n\nbody", updated)
}

func TestApplyProposal_SnapshotsAndBumpsVersion(t *testing.T) {
	root := t.TempDir()
	instrDir := filepath.Join(root, ".claude", "instructions", "zones-extractor")
	require.NoError(t, os.MkdirAll(instrDir, 0o755))
	targetRel := filepath.Join(".claude", "instructions", "zones-extractor", "rules.md")
	require.NoError(t, os.WriteFile(filepath.Join(root, targetRel), []byte("# Zones Extractor v1.0.0\n\noriginal rules"), 0o644))

	iterDir := filepath.Join(root, "evals", "e1", "results", "iteration-001")

	proposal := InstructionProposal{
		TargetFile:     targetRel,
		ChangeType:     "add_section",
		ProposedChange: "## New Rule\nAlways do X.",
	}

	oldVersion, newVersion, err := ApplyProposal(proposal, root, []string{iterDir})
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", oldVersion)
	assert.Equal(t, "1.1.0", newVersion)

	updated, err := os.ReadFile(filepath.Join(root, targetRel))
	require.NoError(t, err)
	assert.Contains(t, string(updated), "v1.1.0")
	assert.Contains(t, string(updated), "Always do X.")

	snapshotPath := filepath.Join(iterDir, "instruction-changes", "zones-extractor-rules-v1.0.0.md")
	snapshot, err := os.ReadFile(snapshotPath)
	require.NoError(t, err)
	assert.Contains(t, string(snapshot), "original rules")
}

func TestRollbackIteration_RestoresFromSnapshot(t *testing.T) {
	root := t.TempDir()
	instrDir := filepath.Join(root, "instructions")
	agentDir := filepath.Join(instrDir, "zones-extractor")
	require.NoError(t, os.MkdirAll(agentDir, 0o755))
	targetPath := filepath.Join(agentDir, "rules.md")
	require.NoError(t, os.WriteFile(targetPath, []byte("v2 content"), 0o644))

	iterDir := filepath.Join(root, "iteration-001")
	changesDir := filepath.Join(iterDir, "instruction-changes")
	require.NoError(t, os.MkdirAll(changesDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(changesDir, "zones-extractor-rules-v1.0.0.md"), []byte("v1 content"), 0o644))

	restored, err := RollbackIteration(instrDir, iterDir)
	require.NoError(t, err)
	require.Len(t, restored, 1)

	content, err := os.ReadFile(targetPath)
	require.NoError(t, err)
	assert.Equal(t, "v1 content", string(content))
}
