// Package report renders an evaluation's metrics and discrepancies as a
// standalone HTML page, the Go counterpart of
// original_source/src/verifier/report.py's Jinja2-based EvalReport.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/abudker/takeoff24/internal/takeoff/store"
	"github.com/abudker/takeoff24/internal/takeoff/verify"
)

// EvalReport holds everything one rendered report needs.
type EvalReport struct {
	EvalID        string
	Metrics       verify.FieldMetrics
	Discrepancies []store.DiscrepancyRecord
	Iteration     int
	History       []store.HistoryEntry
	Timestamp     string
}

// NewEvalReport stamps Timestamp with now if unset.
func NewEvalReport(evalID string, metrics verify.FieldMetrics, discrepancies []store.DiscrepancyRecord, iteration int, history []store.HistoryEntry) EvalReport {
	return EvalReport{
		EvalID:        evalID,
		Metrics:       metrics,
		Discrepancies: discrepancies,
		Iteration:     iteration,
		History:       history,
		Timestamp:     time.Now().UTC().Format("2006-01-02 15:04:05 UTC"),
	}
}

type templateData struct {
	EvalReport
	DiscrepanciesByType map[string][]store.DiscrepancyRecord
	ErrorTypeOrder      []string
}

func (r EvalReport) toTemplateData() templateData {
	byType := map[string][]store.DiscrepancyRecord{}
	for _, d := range r.Discrepancies {
		byType[d.ErrorType] = append(byType[d.ErrorType], d)
	}
	order := make([]string, 0, len(byType))
	for t := range byType {
		order = append(order, t)
	}
	sort.Strings(order)
	return templateData{EvalReport: r, DiscrepanciesByType: byType, ErrorTypeOrder: order}
}

// RenderHTML executes the embedded template against the report.
func (r EvalReport) RenderHTML() (string, error) {
	tmpl, err := template.New("eval-report").Parse(evalReportTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing eval report template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, r.toTemplateData()); err != nil {
		return "", fmt.Errorf("rendering eval report: %w", err)
	}
	return buf.String(), nil
}

// SaveHTML renders and writes the report to outputPath, creating parent
// directories as needed.
func (r EvalReport) SaveHTML(outputPath string) error {
	html, err := r.RenderHTML()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte(html), 0o644)
}

// GenerateHTMLReport is the convenience entry point mirroring
// generate_html_report in the original.
func GenerateHTMLReport(evalID string, metrics verify.FieldMetrics, discrepancies []store.DiscrepancyRecord, outputPath string, iteration int, history []store.HistoryEntry) error {
	r := NewEvalReport(evalID, metrics, discrepancies, iteration, history)
	return r.SaveHTML(outputPath)
}

const evalReportTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Eval Report: {{.EvalID}}</title>
<style>
body { font-family: -apple-system, sans-serif; margin: 2rem; color: #1a1a1a; }
h1 { font-size: 1.4rem; }
table { border-collapse: collapse; width: 100%; margin-bottom: 1.5rem; }
th, td { border: 1px solid #ddd; padding: 0.4rem 0.6rem; text-align: left; font-size: 0.9rem; }
th { background: #f4f4f4; }
.metric-grid { display: flex; gap: 1.5rem; margin-bottom: 1.5rem; }
.metric-box { border: 1px solid #ddd; border-radius: 4px; padding: 0.75rem 1.25rem; }
.metric-box .value { font-size: 1.6rem; font-weight: 600; }
.trend-up { color: #1a7f37; }
.trend-down { color: #cf222e; }
</style>
</head>
<body>
<h1>Evaluation: {{.EvalID}}{{if .Iteration}} — iteration {{.Iteration}}{{end}}</h1>
<p>Generated {{.Timestamp}}</p>

<div class="metric-grid">
<div class="metric-box"><div>Precision</div><div class="value">{{printf "%.3f" .Metrics.Precision}}</div></div>
<div class="metric-box"><div>Recall</div><div class="value">{{printf "%.3f" .Metrics.Recall}}</div></div>
<div class="metric-box"><div>F1</div><div class="value">{{printf "%.3f" .Metrics.F1}}</div></div>
</div>

<table>
<tr><th>True Positives</th><th>False Positives</th><th>False Negatives</th><th>Omissions</th><th>Hallucinations</th><th>Wrong Values</th><th>Format Errors</th></tr>
<tr>
<td>{{.Metrics.TruePositives}}</td>
<td>{{.Metrics.FalsePositives}}</td>
<td>{{.Metrics.FalseNegatives}}</td>
<td>{{.Metrics.Omissions}}</td>
<td>{{.Metrics.Hallucinations}}</td>
<td>{{.Metrics.WrongValues}}</td>
<td>{{.Metrics.FormatErrors}}</td>
</tr>
</table>

{{if .History}}
<h2>Iteration History</h2>
<table>
<tr><th>Iteration</th><th>F1</th><th>Precision</th><th>Recall</th><th>Trend</th><th>Timestamp</th></tr>
{{range .History}}
<tr>
<td>{{.Iteration}}</td>
<td>{{printf "%.3f" .F1}}</td>
<td>{{printf "%.3f" .Precision}}</td>
<td>{{printf "%.3f" .Recall}}</td>
<td class="{{if ge .Trend 0.0}}trend-up{{else}}trend-down{{end}}">{{printf "%+.3f" .Trend}}</td>
<td>{{.Timestamp}}</td>
</tr>
{{end}}
</table>
{{end}}

{{range .ErrorTypeOrder}}
<h2>{{.}} ({{len (index $.DiscrepanciesByType .)}})</h2>
<table>
<tr><th>Field</th><th>Expected</th><th>Actual</th></tr>
{{range index $.DiscrepanciesByType .}}
<tr><td>{{.FieldPath}}</td><td>{{.Expected}}</td><td>{{.Actual}}</td></tr>
{{end}}
</table>
{{end}}

</body>
</html>
`
