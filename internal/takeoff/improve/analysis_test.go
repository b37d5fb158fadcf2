package improve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abudker/takeoff24/internal/takeoff/store"
)

func TestAggregateFailures_CountsByTypeAndDomain(t *testing.T) {
	results := []store.EvalResults{
		{
			Metrics: store.IterationMetrics{F1: 0.8, Precision: 0.9, Recall: 0.7, ErrorsByType: map[string]int{"omission": 2}},
			Discrepancies: []store.DiscrepancyRecord{
				{FieldPath: "walls[0].name", ErrorType: "omission"},
				{FieldPath: "project.run_title", ErrorType: "omission"},
			},
		},
		{
			Metrics: store.IterationMetrics{F1: 0.6, Precision: 0.5, Recall: 0.7, ErrorsByType: map[string]int{"hallucination": 1}},
			Discrepancies: []store.DiscrepancyRecord{
				{FieldPath: "walls[1].area", ErrorType: "hallucination"},
			},
		},
	}

	analysis := AggregateFailures(results)

	assert.Equal(t, 2, analysis.NumEvals)
	assert.Equal(t, 3, analysis.TotalDiscrepancies)
	assert.InDelta(t, 0.7, analysis.AggregateF1, 1e-9)
	assert.Equal(t, 2, analysis.ErrorsByType["omission"])
	assert.Equal(t, 1, analysis.ErrorsByType["hallucination"])
	assert.Equal(t, "omission", analysis.DominantErrorType)
	assert.Equal(t, "walls", analysis.DominantDomain)
	assert.Equal(t, 2, analysis.ErrorsByDomain["walls"])
}

func TestAggregateFailures_EmptyInput(t *testing.T) {
	analysis := AggregateFailures(nil)
	assert.Equal(t, 0, analysis.NumEvals)
	assert.Empty(t, analysis.DominantErrorType)
}

func TestFieldPathDomain_ArrayAndDottedForms(t *testing.T) {
	assert.Equal(t, "project", fieldPathDomain("project.run_id"))
	assert.Equal(t, "walls", fieldPathDomain("walls[0].name"))
	assert.Equal(t, "climate_zone", fieldPathDomain("climate_zone"))
}

func TestFormatAnalysisForCritic_IncludesSummaryAndSamples(t *testing.T) {
	analysis := FailureAnalysis{
		NumEvals:           1,
		TotalDiscrepancies: 1,
		AggregateF1:        0.75,
		ErrorsByType:       map[string]int{"omission": 1},
		ErrorsByDomain:     map[string]int{"walls": 1},
		DominantErrorType:  "omission",
		DominantDomain:     "walls",
		SampleDiscrepancies: []store.DiscrepancyRecord{
			{FieldPath: "walls[0].name", Expected: "N Wall", Actual: nil, ErrorType: "omission"},
		},
	}
	text := FormatAnalysisForCritic(analysis)
	require.Contains(t, text, "Aggregate F1: 0.750")
	assert.Contains(t, text, "Dominant error type:")
	assert.Contains(t, text, "walls[0].name")
}
