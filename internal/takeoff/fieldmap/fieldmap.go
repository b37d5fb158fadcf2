// Package fieldmap loads the field-mapping configuration that drives
// both ground-truth CSV ingestion and field-level comparison: tolerance
// bands, per-category tolerance overrides, the set of fields that the
// source PDFs simply don't carry (CBECC-only fields with no extractable
// basis), and the CSV-column-name to JSON-path translation used when
// reading a CBECC-Res/EnergyPro ground-truth export.
package fieldmap

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tolerance is the percent/absolute pair used by numeric comparisons: a
// value matches if either bound is satisfied.
type Tolerance struct {
	Percent  float64 `yaml:"percent"`
	Absolute float64 `yaml:"absolute"`
}

// ArrayMapping describes one CBECC CSV array section (e.g. "Zones:") and
// how its column headers translate into JSON object keys.
type ArrayMapping struct {
	CSVSection string            `yaml:"csv_section"`
	Fields     map[string]string `yaml:"fields"`
}

// Mapping is the full field_mapping.yaml document.
type Mapping struct {
	Tolerances         map[string]Tolerance     `yaml:"tolerances"`
	ToleranceCategories map[string][]string     `yaml:"tolerance_categories"`
	NonExtractableFields []string               `yaml:"non_extractable_fields"`
	CSVToJSON          map[string]string        `yaml:"csv_to_json"`
	ArrayMappings      map[string]ArrayMapping  `yaml:"array_mappings"`
}

// DefaultTolerance is used when a mapping omits "default" entirely.
var DefaultTolerance = Tolerance{Percent: 0.5, Absolute: 0.01}

// Load reads and parses a field_mapping.yaml file from disk.
func Load(path string) (Mapping, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Mapping{}, fmt.Errorf("reading field mapping %s: %w", path, err)
	}
	var m Mapping
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return Mapping{}, fmt.Errorf("parsing field mapping %s: %w", path, err)
	}
	if m.Tolerances == nil {
		m.Tolerances = map[string]Tolerance{}
	}
	if _, ok := m.Tolerances["default"]; !ok {
		m.Tolerances["default"] = DefaultTolerance
	}
	return m, nil
}

// ToleranceFor resolves the tolerance band that applies to field_path,
// matching its final path segment against each category's substring list
// before falling back to "default".
func (m Mapping) ToleranceFor(fieldPath string) Tolerance {
	fieldName := lastSegment(fieldPath)
	for category, substrings := range m.ToleranceCategories {
		for _, s := range substrings {
			if contains(fieldName, s) {
				if tol, ok := m.Tolerances[category]; ok {
					return tol
				}
				return m.Tolerances["default"]
			}
		}
	}
	return m.Tolerances["default"]
}

func lastSegment(path string) string {
	last := path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			last = path[i+1:]
			break
		}
	}
	return last
}

func contains(s, substr string) bool {
	return len(substr) == 0 || indexOf(s, substr) >= 0
}

func indexOf(s, substr string) int {
	n, m := len(s), len(substr)
	if m > n {
		return -1
	}
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == substr {
			return i
		}
	}
	return -1
}
