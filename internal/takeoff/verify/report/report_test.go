package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abudker/takeoff24/internal/takeoff/store"
	"github.com/abudker/takeoff24/internal/takeoff/verify"
)

func sampleMetrics() verify.FieldMetrics {
	return verify.FieldMetrics{
		Precision: 0.857, Recall: 0.75, F1: 0.8,
		TruePositives: 6, FalsePositives: 1, FalseNegatives: 2,
		Omissions: 2, Hallucinations: 1,
	}
}

func TestRenderHTML_IncludesMetricsAndDiscrepancies(t *testing.T) {
	discrepancies := []store.DiscrepancyRecord{
		{FieldPath: "walls[0].name", Expected: "North Wall", Actual: nil, ErrorType: "omission"},
		{FieldPath: "zones[0].area", Expected: 500.0, Actual: 520.0, ErrorType: "wrong_value"},
	}
	history := []store.HistoryEntry{
		{Iteration: 1, F1: 0.6, Precision: 0.6, Recall: 0.6, Timestamp: "2026-07-01 00:00:00 UTC", Trend: 0},
		{Iteration: 2, F1: 0.8, Precision: 0.857, Recall: 0.75, Timestamp: "2026-07-02 00:00:00 UTC", Trend: 0.2},
	}

	r := NewEvalReport("proj-1", sampleMetrics(), discrepancies, 2, history)
	html, err := r.RenderHTML()
	require.NoError(t, err)

	assert.Contains(t, html, "proj-1")
	assert.Contains(t, html, "iteration 2")
	assert.Contains(t, html, "0.800")
	assert.Contains(t, html, "walls[0].name")
	assert.Contains(t, html, "zones[0].area")
	assert.Contains(t, html, "omission")
	assert.Contains(t, html, "wrong_value")
}

func TestSaveHTML_WritesFileUnderCreatedDirectory(t *testing.T) {
	dir := t.TempDir()
	outputPath := filepath.Join(dir, "evals", "proj-1", "results", "iteration-002", "eval-report.html")

	r := NewEvalReport("proj-1", sampleMetrics(), nil, 2, nil)
	require.NoError(t, r.SaveHTML(outputPath))

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "<html>")
}

func TestGenerateHTMLReport_ConvenienceWrapper(t *testing.T) {
	dir := t.TempDir()
	outputPath := filepath.Join(dir, "eval-report.html")
	err := GenerateHTMLReport("proj-2", sampleMetrics(), nil, outputPath, 1, nil)
	require.NoError(t, err)

	_, err = os.Stat(outputPath)
	require.NoError(t, err)
}
