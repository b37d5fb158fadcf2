// Package improve implements C12: the proposal/apply cycle that mutates
// versioned instruction files based on aggregated verifier output.
// Grounded on original_source/src/improvement/{critic,apply,review}.py.
package improve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/abudker/takeoff24/internal/takeoff/store"
)

// maxSampleDiscrepancies bounds how many discrepancies are embedded in
// the critic prompt verbatim, per spec §4.12 step 2 ("up to 20 sample
// discrepancies").
const maxSampleDiscrepancies = 20

// FailureAnalysis is the aggregated view across every evaluation's
// latest iteration, implementation-blind: it only looks at
// discrepancies and metrics, never at extractor code.
type FailureAnalysis struct {
	NumEvals            int
	TotalDiscrepancies  int
	AggregateF1         float64
	AggregatePrecision  float64
	AggregateRecall     float64
	ErrorsByType        map[string]int
	ErrorsByDomain      map[string]int
	DominantErrorType   string
	DominantDomain      string
	SampleDiscrepancies []store.DiscrepancyRecord
}

// AggregateFailures folds the latest eval-results from every evaluation
// into one FailureAnalysis: error-type counts, domain counts (domain is
// everything in a field path before the first "." or "["), up to 20
// sample discrepancies, and the dominant error type/domain by count.
func AggregateFailures(results []store.EvalResults) FailureAnalysis {
	if len(results) == 0 {
		return FailureAnalysis{ErrorsByType: map[string]int{}, ErrorsByDomain: map[string]int{}}
	}

	errorsByType := map[string]int{"omission": 0, "hallucination": 0, "wrong_value": 0, "format_error": 0}
	errorsByDomain := map[string]int{}
	var allDiscrepancies []store.DiscrepancyRecord
	var totalDiscrepancies int
	var sumF1, sumPrecision, sumRecall float64

	for _, r := range results {
		totalDiscrepancies += len(r.Discrepancies)
		sumF1 += r.Metrics.F1
		sumPrecision += r.Metrics.Precision
		sumRecall += r.Metrics.Recall
		for errType, count := range r.Metrics.ErrorsByType {
			errorsByType[errType] += count
		}
		allDiscrepancies = append(allDiscrepancies, r.Discrepancies...)
	}

	for _, d := range allDiscrepancies {
		errorsByDomain[fieldPathDomain(d.FieldPath)]++
	}

	n := float64(len(results))
	analysis := FailureAnalysis{
		NumEvals:           len(results),
		TotalDiscrepancies: totalDiscrepancies,
		AggregateF1:        sumF1 / n,
		AggregatePrecision: sumPrecision / n,
		AggregateRecall:    sumRecall / n,
		ErrorsByType:       errorsByType,
		ErrorsByDomain:     errorsByDomain,
		DominantErrorType:  dominantKey(errorsByType),
		DominantDomain:     dominantKey(errorsByDomain),
	}
	if len(allDiscrepancies) > maxSampleDiscrepancies {
		analysis.SampleDiscrepancies = allDiscrepancies[:maxSampleDiscrepancies]
	} else {
		analysis.SampleDiscrepancies = allDiscrepancies
	}
	return analysis
}

// fieldPathDomain extracts "project" from "project.run_id" and "walls"
// from "walls[0].name".
func fieldPathDomain(fieldPath string) string {
	domain := fieldPath
	if i := strings.IndexAny(domain, ".["); i >= 0 {
		domain = domain[:i]
	}
	return domain
}

func dominantKey(counts map[string]int) string {
	var best string
	bestCount := -1
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys) // deterministic tie-break
	for _, k := range keys {
		if counts[k] > bestCount {
			best = k
			bestCount = counts[k]
		}
	}
	if bestCount <= 0 {
		return ""
	}
	return best
}

// FormatAnalysisForCritic renders a FailureAnalysis as the markdown
// prompt text handed to the critic agent.
func FormatAnalysisForCritic(a FailureAnalysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Summary Statistics\n\n")
	fmt.Fprintf(&b, "- Evaluations analyzed: %d\n", a.NumEvals)
	fmt.Fprintf(&b, "- Total discrepancies: %d\n", a.TotalDiscrepancies)
	fmt.Fprintf(&b, "- Aggregate F1: %.3f\n", a.AggregateF1)
	fmt.Fprintf(&b, "- Aggregate Precision: %.3f\n", a.AggregatePrecision)
	fmt.Fprintf(&b, "- Aggregate Recall: %.3f\n\n", a.AggregateRecall)

	fmt.Fprintf(&b, "## Errors by Type\n\n")
	total := 0
	for _, c := range a.ErrorsByType {
		total += c
	}
	for _, errType := range sortedByCountDesc(a.ErrorsByType) {
		count := a.ErrorsByType[errType]
		if count == 0 {
			continue
		}
		pct := 0.0
		if total > 0 {
			pct = float64(count) / float64(total) * 100
		}
		fmt.Fprintf(&b, "- **%s**: %d (%.1f%%)\n", errType, count, pct)
	}
	b.WriteString("\n")
	if a.DominantErrorType != "" {
		fmt.Fprintf(&b, "**Dominant error type:** %s\n\n", a.DominantErrorType)
	}

	fmt.Fprintf(&b, "## Errors by Domain\n\n")
	for _, domain := range sortedByCountDesc(a.ErrorsByDomain) {
		fmt.Fprintf(&b, "- **%s**: %d errors\n", domain, a.ErrorsByDomain[domain])
	}
	b.WriteString("\n")
	if a.DominantDomain != "" {
		fmt.Fprintf(&b, "**Dominant domain:** %s\n\n", a.DominantDomain)
	}

	fmt.Fprintf(&b, "## Sample Discrepancies\n\n(First %d discrepancies for context)\n\n", len(a.SampleDiscrepancies))
	for i, d := range a.SampleDiscrepancies {
		fmt.Fprintf(&b, "%d. **%s** (%s)\n   - Expected: %v\n   - Actual: %v\n\n", i+1, d.FieldPath, d.ErrorType, d.Expected, d.Actual)
	}

	return b.String()
}

func sortedByCountDesc(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j] // deterministic tie-break
	})
	return keys
}
