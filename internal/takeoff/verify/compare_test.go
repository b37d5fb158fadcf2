package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abudker/takeoff24/internal/takeoff/fieldmap"
)

func testMapping() fieldmap.Mapping {
	return fieldmap.Mapping{
		Tolerances: map[string]fieldmap.Tolerance{
			"default": {Percent: 0.5, Absolute: 0.01},
			"area":    {Percent: 2, Absolute: 0.5},
		},
		ToleranceCategories: map[string][]string{
			"area": {"area", "gross_area"},
		},
		NonExtractableFields: []string{"project.run_id", "extraction_status.*"},
	}
}

func TestNormalizeText_StripsTrailingPunctuationAndParens(t *testing.T) {
	assert.Equal(t, "window w1", NormalizeText("Window W1 (3020).", "windows[0].name"))
	assert.Equal(t, "plain field", NormalizeText("  Plain Field  ", "zones[0].construction"))
}

func TestFlattenDict_NestedAndArrays(t *testing.T) {
	data := map[string]any{
		"project": map[string]any{"run_title": "House"},
		"walls": []any{
			map[string]any{"name": "N Wall", "gross_area": 100.0},
		},
	}
	flat := FlattenDict(data, "")
	assert.Equal(t, "House", flat["project.run_title"])
	assert.Equal(t, "N Wall", flat["walls[0].name"])
	assert.Equal(t, 100.0, flat["walls[0].gross_area"])
}

func TestIsNonExtractable_ExactArrayAndPrefixWildcard(t *testing.T) {
	excl := exclusionSet([]string{"project.run_id", "windows[*].model_number", "extraction_status.*"})
	assert.True(t, IsNonExtractable("project.run_id", excl))
	assert.True(t, IsNonExtractable("windows[2].model_number", excl))
	assert.True(t, IsNonExtractable("extraction_status.zones", excl))
	assert.False(t, IsNonExtractable("walls[0].gross_area", excl))
}

func TestValuesMatch_NumericWithinTolerance(t *testing.T) {
	m := testMapping()
	assert.True(t, ValuesMatch(100.0, 100.4, "walls[0].gross_area", m))
	assert.False(t, ValuesMatch(100.0, 110.0, "walls[0].gross_area", m))
}

func TestValuesMatch_StringNormalized(t *testing.T) {
	m := testMapping()
	assert.True(t, ValuesMatch("N Wall.", "n wall", "walls[0].name", m))
}

func TestValuesMatch_NoneHandling(t *testing.T) {
	m := testMapping()
	assert.True(t, ValuesMatch(nil, nil, "x", m))
	assert.False(t, ValuesMatch(1.0, nil, "x", m))
	assert.False(t, ValuesMatch(nil, 1.0, "x", m))
}

func TestCompareAllFields_ClassifiesEachKind(t *testing.T) {
	m := testMapping()
	gt := map[string]any{
		"run_id": "skip-me",
		"walls": []any{
			map[string]any{"name": "N Wall", "gross_area": 100.0},
		},
		"omitted_field": "present in gt only",
	}
	ext := map[string]any{
		"walls": []any{
			map[string]any{"name": "N Wall", "gross_area": "not-a-number"},
		},
		"hallucinated_field": "present in extracted only",
	}
	comparisons := CompareAllFields(gt, ext, m)

	byPath := map[string]FieldComparison{}
	for _, c := range comparisons {
		byPath[c.FieldPath] = c
	}
	assert.Equal(t, Omission, byPath["omitted_field"].ErrorType)
	assert.Equal(t, Hallucination, byPath["hallucinated_field"].ErrorType)
	assert.Equal(t, FormatError, byPath["walls[0].gross_area"].ErrorType)
}

func TestCompareFields_OmissionAndHallucination(t *testing.T) {
	m := fieldmap.Mapping{Tolerances: map[string]fieldmap.Tolerance{"default": {Percent: 0.5, Absolute: 0.01}}}
	gt := map[string]any{"a": 1.0, "b": 2.0}
	ext := map[string]any{"a": 1.0, "c": 3.0}

	discrepancies := CompareFields(gt, ext, m)
	var kinds []ErrorType
	for _, d := range discrepancies {
		kinds = append(kinds, d.ErrorType)
	}
	assert.Contains(t, kinds, Omission)
	assert.Contains(t, kinds, Hallucination)
	assert.Len(t, discrepancies, 2)
}
