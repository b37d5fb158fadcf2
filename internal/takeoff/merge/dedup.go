// Package merge implements C7: dedup-by-name across domain extractor
// outputs, TakeoffSpec construction, and the Takeoff->BuildingSpec
// transform.
package merge

import (
	"reflect"

	"github.com/abudker/takeoff24/internal/takeoff/model"
)

// DedupeByName keeps the first occurrence of each distinct name and
// drops nameless items silently. Every later occurrence of an
// already-seen name is compared against the kept value via valuesOf; any
// difference produces a kept_first ExtractionConflict.
func DedupeByName[T any](items []T, source string, nameOf func(T) string, valuesOf func(T) map[string]any) ([]T, []model.ExtractionConflict) {
	seen := make(map[string]T)
	seenValues := make(map[string]map[string]any)
	order := make([]string, 0, len(items))
	var conflicts []model.ExtractionConflict

	for _, item := range items {
		name := nameOf(item)
		if name == "" {
			continue
		}
		if first, ok := seen[name]; ok {
			firstValues := seenValues[name]
			newValues := valuesOf(item)
			if !reflect.DeepEqual(firstValues, newValues) {
				conflicts = append(conflicts, model.ExtractionConflict{
					Field:                 "array_item",
					ItemName:              name,
					FirstOccurrenceSource: source,
					ConflictingSource:     source,
					FirstValue:            firstValues,
					ConflictingValue:      newValues,
					Resolution:            "kept_first",
				})
			}
			_ = first
			continue
		}
		seen[name] = item
		seenValues[name] = valuesOf(item)
		order = append(order, name)
	}

	kept := make([]T, 0, len(order))
	for _, name := range order {
		kept = append(kept, seen[name])
	}
	return kept, conflicts
}
