// Package store manages the on-disk iteration history the improvement
// loop (C12) reads and writes: one directory per run of an evaluation,
// plus a rolling aggregate.json tracking F1 trend and the best iteration
// seen so far. Grounded on the teacher's discovery FileStore
// (internal/takeoff/discovery/cache) for the on-disk JSON persistence
// idiom.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"
)

var iterationDirPattern = regexp.MustCompile(`^iteration-(\d+)$`)

// EvalStore lays out results under evalsDir/{eval_id}/{resultsSubdir}/.
type EvalStore struct {
	EvalsDir      string
	ResultsSubdir string
}

// NewEvalStore builds a store rooted at evalsDir, defaulting the results
// subdirectory to "results" when empty.
func NewEvalStore(evalsDir, resultsSubdir string) *EvalStore {
	if resultsSubdir == "" {
		resultsSubdir = "results"
	}
	return &EvalStore{EvalsDir: evalsDir, ResultsSubdir: resultsSubdir}
}

// ResultsDir returns the results directory for one evaluation.
func (s *EvalStore) ResultsDir(evalID string) string {
	return filepath.Join(s.EvalsDir, evalID, s.ResultsSubdir)
}

// IterationDir returns the directory for one specific iteration.
func (s *EvalStore) IterationDir(evalID string, iteration int) string {
	return filepath.Join(s.ResultsDir(evalID), fmt.Sprintf("iteration-%03d", iteration))
}

// GetNextIteration scans existing iteration-NNN directories and returns
// one past the highest number found, or 1 if none exist yet.
func (s *EvalStore) GetNextIteration(evalID string) (int, error) {
	entries, err := os.ReadDir(s.ResultsDir(evalID))
	if os.IsNotExist(err) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}

	maxIteration := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m := iterationDirPattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		var n int
		fmt.Sscanf(m[1], "%d", &n)
		if n > maxIteration {
			maxIteration = n
		}
	}
	return maxIteration + 1, nil
}

// GetLatestIteration returns the highest iteration number saved so far,
// or (0, false) if none exist.
func (s *EvalStore) GetLatestIteration(evalID string) (int, bool, error) {
	next, err := s.GetNextIteration(evalID)
	if err != nil {
		return 0, false, err
	}
	if next == 1 {
		return 0, false, nil
	}
	return next - 1, true, nil
}

// EvalResults is the per-iteration evaluation output: metrics plus the
// discrepancy list, stamped with iteration number and timestamp at save
// time.
type EvalResults struct {
	Iteration     int                `json:"iteration"`
	Timestamp     string             `json:"timestamp"`
	EvalID        string             `json:"eval_id,omitempty"`
	Metrics       IterationMetrics   `json:"metrics"`
	Discrepancies []DiscrepancyRecord `json:"discrepancies,omitempty"`
}

// DiscrepancyRecord is the JSON-serializable shape of one field-level
// discrepancy, independent of verify.FieldDiscrepancy so this package
// doesn't need to import verify.
type DiscrepancyRecord struct {
	FieldPath string `json:"field_path"`
	Expected  any    `json:"expected"`
	Actual    any    `json:"actual"`
	ErrorType string `json:"error_type"`
}

// IterationMetrics is the subset of FieldMetrics persisted into
// aggregate history, kept separate from verify.FieldMetrics so this
// package doesn't need to import verify.
type IterationMetrics struct {
	Precision     float64        `json:"precision"`
	Recall        float64        `json:"recall"`
	F1            float64        `json:"f1"`
	ErrorsByType  map[string]int `json:"errors_by_type,omitempty"`
}

// HistoryEntry is one iteration's row in aggregate.json.
type HistoryEntry struct {
	Iteration   int            `json:"iteration"`
	F1          float64        `json:"f1"`
	Precision   float64        `json:"precision"`
	Recall      float64        `json:"recall"`
	Timestamp   string         `json:"timestamp"`
	ErrorCounts map[string]int `json:"error_counts,omitempty"`
	Trend       float64        `json:"trend"`
}

// Aggregate is the rolling aggregate.json document.
type Aggregate struct {
	EvalID        string         `json:"eval_id"`
	Iterations    []HistoryEntry `json:"iterations"`
	BestF1        float64        `json:"best_f1"`
	BestIteration *int           `json:"best_iteration"`
}

// SaveIteration writes extracted.json and eval-results.json for
// iteration, stamping the timestamp, then folds the new metrics into
// aggregate.json (trend against the previous entry, best-so-far update).
// html is optional; when non-empty it's written as eval-report.html.
func (s *EvalStore) SaveIteration(evalID string, iteration int, extracted any, results EvalResults, html string) (string, error) {
	dir := s.IterationDir(evalID, iteration)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	extractedJSON, err := json.MarshalIndent(extracted, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, "extracted.json"), extractedJSON, 0o644); err != nil {
		return "", err
	}

	results.Iteration = iteration
	results.Timestamp = time.Now().UTC().Format(time.RFC3339)

	resultsJSON, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, "eval-results.json"), resultsJSON, 0o644); err != nil {
		return "", err
	}

	if html != "" {
		if err := os.WriteFile(filepath.Join(dir, "eval-report.html"), []byte(html), 0o644); err != nil {
			return "", err
		}
	}

	if err := s.updateAggregate(evalID, iteration, results); err != nil {
		return "", err
	}
	return dir, nil
}

func (s *EvalStore) updateAggregate(evalID string, iteration int, results EvalResults) error {
	aggregate, err := s.LoadAggregate(evalID)
	if err != nil {
		return err
	}
	if aggregate == nil {
		aggregate = &Aggregate{EvalID: evalID}
	}

	entry := HistoryEntry{
		Iteration:   iteration,
		F1:          results.Metrics.F1,
		Precision:   results.Metrics.Precision,
		Recall:      results.Metrics.Recall,
		Timestamp:   results.Timestamp,
		ErrorCounts: results.Metrics.ErrorsByType,
	}
	if len(aggregate.Iterations) > 0 {
		entry.Trend = entry.F1 - aggregate.Iterations[len(aggregate.Iterations)-1].F1
	}
	aggregate.Iterations = append(aggregate.Iterations, entry)

	if entry.F1 >= aggregate.BestF1 {
		aggregate.BestF1 = entry.F1
		it := iteration
		aggregate.BestIteration = &it
	}

	aggregatePath := filepath.Join(s.ResultsDir(evalID), "aggregate.json")
	data, err := json.MarshalIndent(aggregate, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(aggregatePath, data, 0o644)
}

// LoadAggregate reads aggregate.json, returning (nil, nil) if it
// doesn't exist yet.
func (s *EvalStore) LoadAggregate(evalID string) (*Aggregate, error) {
	path := filepath.Join(s.ResultsDir(evalID), "aggregate.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var aggregate Aggregate
	if err := json.Unmarshal(data, &aggregate); err != nil {
		return nil, err
	}
	return &aggregate, nil
}

// LoadIteration reads one iteration's eval-results.json, returning
// (nil, nil) if it doesn't exist.
func (s *EvalStore) LoadIteration(evalID string, iteration int) (*EvalResults, error) {
	path := filepath.Join(s.IterationDir(evalID, iteration), "eval-results.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var results EvalResults
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, err
	}
	return &results, nil
}

// GetHistory returns the F1 history across all iterations sorted by
// iteration number.
func (s *EvalStore) GetHistory(evalID string) ([]HistoryEntry, error) {
	aggregate, err := s.LoadAggregate(evalID)
	if err != nil {
		return nil, err
	}
	if aggregate == nil {
		return nil, nil
	}
	history := append([]HistoryEntry(nil), aggregate.Iterations...)
	sort.Slice(history, func(i, j int) bool { return history[i].Iteration < history[j].Iteration })
	return history, nil
}
