package fieldmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifest_MissingFileReturnsEmpty(t *testing.T) {
	m, err := LoadManifest(filepath.Join(t.TempDir(), "manifest.yaml"))
	require.NoError(t, err)
	assert.Empty(t, m.EvalIDs())
}

func TestLoadManifest_ParsesEvalsAndSortsIDs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yaml")
	content := `evals:
  beta-project:
    pdf_path: evals/beta-project/input.pdf
  alpha-project:
    pdf_path: evals/alpha-project/input.pdf
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha-project", "beta-project"}, m.EvalIDs())
	assert.Equal(t, "evals/alpha-project/input.pdf", m.Evals["alpha-project"]["pdf_path"])
}
