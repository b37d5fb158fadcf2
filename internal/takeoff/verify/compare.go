// Package verify implements C9 field-level comparison and C10 metrics:
// flattening ground truth and extracted BuildingSpecs into dotted-path
// maps, matching values with per-field tolerance, and classifying every
// mismatch into one of four discrepancy kinds.
package verify

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/abudker/takeoff24/internal/takeoff/fieldmap"
)

var (
	trailingPunct  = regexp.MustCompile(`[.,;:]+$`)
	parenthetical  = regexp.MustCompile(`\s*\([^)]*\)\s*`)
	multiSpace     = regexp.MustCompile(`\s+`)
	arrayIndexAny  = regexp.MustCompile(`\[\d+\]`)
)

// NormalizeText lowercases, trims trailing punctuation, collapses
// whitespace, and — for name/window/wall fields — strips parenthetical
// content like "(3020)" so a model number annotation doesn't fail an
// otherwise-correct name match.
func NormalizeText(text, fieldPath string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = trailingPunct.ReplaceAllString(s, "")
	if fieldPath != "" && (strings.Contains(fieldPath, "name") ||
		strings.Contains(fieldPath, "window") || strings.Contains(fieldPath, "wall")) {
		s = parenthetical.ReplaceAllString(s, "")
	}
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ErrorType is one of the four discrepancy kinds.
type ErrorType string

const (
	Omission     ErrorType = "omission"
	Hallucination ErrorType = "hallucination"
	WrongValue   ErrorType = "wrong_value"
	FormatError  ErrorType = "format_error"
)

// FieldDiscrepancy is one mismatch between ground truth and extracted
// data, mirroring the ground-truth-driven half of compare_fields.
type FieldDiscrepancy struct {
	FieldPath string
	Expected  any
	Actual    any
	ErrorType ErrorType
}

// FieldComparison is one comparison result, match or mismatch, over the
// union of both sides' field paths.
type FieldComparison struct {
	FieldPath string
	Expected  any
	Actual    any
	Matches   bool
	ErrorType ErrorType // zero value when Matches is true
}

// IsNonExtractable reports whether fieldPath should be skipped because
// it has no basis in the source PDFs (CBECC-only derived fields), using
// exact match, "[*]"-normalized array match, and "prefix.*" wildcard
// match against exclusionSet.
func IsNonExtractable(fieldPath string, exclusionSet map[string]struct{}) bool {
	if _, ok := exclusionSet[fieldPath]; ok {
		return true
	}
	normalized := arrayIndexAny.ReplaceAllString(fieldPath, "[*]")
	if _, ok := exclusionSet[normalized]; ok {
		return true
	}
	for pattern := range exclusionSet {
		if strings.HasSuffix(pattern, ".*") {
			prefix := strings.TrimSuffix(pattern, ".*")
			if strings.HasPrefix(fieldPath, prefix+".") {
				return true
			}
		}
	}
	return false
}

// FlattenDict recursively flattens a nested map[string]any /
// []any-of-map tree into {dotted.path[index]: scalar} pairs, the common
// shape both ground truth and extracted data are reduced to before
// comparison.
func FlattenDict(data map[string]any, prefix string) map[string]any {
	result := map[string]any{}
	for key, value := range data {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			for k, fv := range FlattenDict(v, path) {
				result[k] = fv
			}
		case []any:
			for i, item := range v {
				indexedPath := fmt.Sprintf("%s[%d]", path, i)
				if m, ok := item.(map[string]any); ok {
					for k, fv := range FlattenDict(m, indexedPath) {
						result[k] = fv
					}
				} else {
					result[indexedPath] = item
				}
			}
		default:
			result[path] = value
		}
	}
	return result
}

// ValuesMatch compares two flattened values with type-aware logic:
// None/None matches, exactly one None mismatches, numeric pairs use
// per-field tolerance, strings use NormalizeText equality, booleans
// compare exactly, and otherwise a numeric/string coercion is attempted
// before falling back to a raw equality check.
func ValuesMatch(expected, actual any, fieldPath string, mapping fieldmap.Mapping) bool {
	if expected == nil && actual == nil {
		return true
	}
	if expected == nil || actual == nil {
		return false
	}

	if ef, eok := asFloat(expected); eok {
		if af, aok := asFloat(actual); aok {
			tol := mapping.ToleranceFor(fieldPath)
			absDiff := abs(ef - af)
			relDiff := absDiff
			if ef != 0 {
				relDiff = absDiff / abs(ef)
			}
			return relDiff <= tol.Percent/100 || absDiff <= tol.Absolute
		}
	}

	if es, eok := expected.(string); eok {
		if as, aok := actual.(string); aok {
			return NormalizeText(es, fieldPath) == NormalizeText(as, fieldPath)
		}
	}

	if eb, eok := expected.(bool); eok {
		if ab, aok := actual.(bool); aok {
			return eb == ab
		}
	}

	// Type mismatch: try coercion, expected's type wins.
	if _, eok := asFloat(expected); eok {
		if af, aok := coerceFloat(actual); aok {
			return ValuesMatch(expected, af, fieldPath, mapping)
		}
	}
	if _, eok := expected.(string); eok {
		return ValuesMatch(expected, fmt.Sprintf("%v", actual), fieldPath, mapping)
	}

	return fmt.Sprintf("%v", expected) == fmt.Sprintf("%v", actual)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// asFloat reports whether v is a numeric type (float64, int, or a
// json.Number-style string that parses cleanly isn't included — JSON
// decoding into map[string]any already yields float64 for all numbers).
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func coerceFloat(v any) (float64, bool) {
	if f, ok := asFloat(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func classifyMismatch(expected, actual any) ErrorType {
	_, expectedNumeric := asFloat(expected)
	_, actualNumeric := asFloat(actual)
	if expectedNumeric && actualNumeric {
		return WrongValue
	}
	if fmt.Sprintf("%T", expected) != fmt.Sprintf("%T", actual) {
		return FormatError
	}
	return WrongValue
}

func exclusionSet(fields []string) map[string]struct{} {
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// CompareAllFields compares every field path present on either side,
// including matches, sorted by path for deterministic output.
func CompareAllFields(groundTruth, extracted map[string]any, mapping fieldmap.Mapping) []FieldComparison {
	excl := exclusionSet(mapping.NonExtractableFields)
	gtFlat := FlattenDict(groundTruth, "")
	extFlat := FlattenDict(extracted, "")

	pathSet := map[string]struct{}{}
	for p := range gtFlat {
		pathSet[p] = struct{}{}
	}
	for p := range extFlat {
		pathSet[p] = struct{}{}
	}
	paths := make([]string, 0, len(pathSet))
	for p := range pathSet {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var comparisons []FieldComparison
	for _, path := range paths {
		if IsNonExtractable(path, excl) {
			continue
		}
		expected, hasExpected := gtFlat[path]
		actual, hasActual := extFlat[path]

		switch {
		case !hasExpected:
			comparisons = append(comparisons, FieldComparison{FieldPath: path, Actual: actual, ErrorType: Hallucination})
		case !hasActual:
			comparisons = append(comparisons, FieldComparison{FieldPath: path, Expected: expected, ErrorType: Omission})
		case ValuesMatch(expected, actual, path, mapping):
			comparisons = append(comparisons, FieldComparison{FieldPath: path, Expected: expected, Actual: actual, Matches: true})
		default:
			comparisons = append(comparisons, FieldComparison{
				FieldPath: path, Expected: expected, Actual: actual,
				ErrorType: classifyMismatch(expected, actual),
			})
		}
	}
	return comparisons
}

// CompareFields reports only the discrepancies (omissions, wrong
// values, format errors driven off ground truth, plus hallucinations
// driven off the extracted side), the mismatch-only counterpart of
// CompareAllFields used to build the evaluation's discrepancy list.
func CompareFields(groundTruth, extracted map[string]any, mapping fieldmap.Mapping) []FieldDiscrepancy {
	excl := exclusionSet(mapping.NonExtractableFields)
	gtFlat := FlattenDict(groundTruth, "")
	extFlat := FlattenDict(extracted, "")

	gtPaths := make([]string, 0, len(gtFlat))
	for p := range gtFlat {
		gtPaths = append(gtPaths, p)
	}
	sort.Strings(gtPaths)

	var discrepancies []FieldDiscrepancy
	for _, path := range gtPaths {
		if IsNonExtractable(path, excl) {
			continue
		}
		expected := gtFlat[path]
		actual, ok := extFlat[path]
		if !ok {
			discrepancies = append(discrepancies, FieldDiscrepancy{FieldPath: path, Expected: expected, ErrorType: Omission})
			continue
		}
		if !ValuesMatch(expected, actual, path, mapping) {
			discrepancies = append(discrepancies, FieldDiscrepancy{
				FieldPath: path, Expected: expected, Actual: actual,
				ErrorType: classifyMismatch(expected, actual),
			})
		}
	}

	extPaths := make([]string, 0, len(extFlat))
	for p := range extFlat {
		extPaths = append(extPaths, p)
	}
	sort.Strings(extPaths)
	for _, path := range extPaths {
		if IsNonExtractable(path, excl) {
			continue
		}
		if _, ok := gtFlat[path]; !ok {
			discrepancies = append(discrepancies, FieldDiscrepancy{FieldPath: path, Actual: extFlat[path], ErrorType: Hallucination})
		}
	}

	return discrepancies
}
