package verify

import (
	"encoding/json"

	"github.com/abudker/takeoff24/internal/takeoff/store"
)

// ToMap round-trips any JSON-taggable value (typically a
// model.BuildingSpec) through encoding/json to get the plain
// map[string]any shape FlattenDict expects, since Go structs carry
// types FlattenDict doesn't need to know about.
func ToMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ToDiscrepancyRecords converts CompareFields' output into the
// JSON-serializable shape the iteration store persists.
func ToDiscrepancyRecords(discrepancies []FieldDiscrepancy) []store.DiscrepancyRecord {
	records := make([]store.DiscrepancyRecord, len(discrepancies))
	for i, d := range discrepancies {
		records[i] = store.DiscrepancyRecord{
			FieldPath: d.FieldPath,
			Expected:  d.Expected,
			Actual:    d.Actual,
			ErrorType: string(d.ErrorType),
		}
	}
	return records
}

// ToIterationMetrics narrows a FieldMetrics down to the subset the
// iteration store persists.
func ToIterationMetrics(m FieldMetrics) store.IterationMetrics {
	return store.IterationMetrics{
		Precision: m.Precision,
		Recall:    m.Recall,
		F1:        m.F1,
		ErrorsByType: map[string]int{
			string(Omission):      m.Omissions,
			string(Hallucination): m.Hallucinations,
			string(WrongValue):    m.WrongValues,
			string(FormatError):   m.FormatErrors,
		},
	}
}
