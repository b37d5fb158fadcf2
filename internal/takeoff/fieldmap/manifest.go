package fieldmap

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// EvalEntry is one evaluation's manifest record. The original format
// keys evals by ID and stores per-eval metadata (PDF/ground-truth paths,
// expected domains) as a loosely-typed map; only the set of IDs is load
// bearing for CLI enumeration, so the rest passes through untouched.
type EvalEntry map[string]any

// Manifest lists the evaluations a `*-all` command iterates over.
type Manifest struct {
	Evals map[string]EvalEntry `yaml:"evals"`
}

// LoadManifest reads evals/manifest.yaml. A missing file returns an
// empty manifest rather than an error, matching get_eval_ids' behavior
// of returning [] when the manifest doesn't exist yet.
func LoadManifest(path string) (Manifest, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Manifest{Evals: map[string]EvalEntry{}}, nil
	}
	if err != nil {
		return Manifest{}, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return Manifest{}, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if m.Evals == nil {
		m.Evals = map[string]EvalEntry{}
	}
	return m, nil
}

// EvalIDs returns the manifest's evaluation IDs sorted for deterministic
// iteration order (the original relies on dict insertion order from
// yaml.safe_load, which Go's map type doesn't preserve).
func (m Manifest) EvalIDs() []string {
	ids := make([]string, 0, len(m.Evals))
	for id := range m.Evals {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
