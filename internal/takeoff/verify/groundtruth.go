package verify

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/abudker/takeoff24/internal/takeoff/fieldmap"
)

// arrayPathSegment matches json-path segments like "zones[0]".
var arrayPathSegment = regexp.MustCompile(`^(\w+)\[(\d+)\]$`)

// LoadGroundTruthCSV reads a CBECC-Res/EnergyPro-format ground-truth
// export and converts it into the same nested map[string]any shape that
// flattenDict expects, using mapping's csv_to_json and array_mappings
// tables to translate CSV column names into JSON paths.
//
// The CSV has section headers and key/value rows with variable column
// counts: column A is usually blank, column B holds the field name (or
// a "Section Name:" header), column C holds the value, column D an
// optional unit. Array sections (e.g. "Zones:") are a header row naming
// the columns followed by one data row per item.
func LoadGroundTruthCSV(csvPath string, mapping fieldmap.Mapping) (map[string]any, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("opening ground truth csv %s: %w", csvPath, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // rows have variable column counts
	r.LazyQuotes = true

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading ground truth csv %s: %w", csvPath, err)
		}
		rows = append(rows, row)
	}

	sectionToConfig := map[string]struct {
		jsonKey string
		fields  map[string]string
	}{}
	for jsonKey, cfg := range mapping.ArrayMappings {
		if cfg.CSVSection != "" {
			sectionToConfig[cfg.CSVSection] = struct {
				jsonKey string
				fields  map[string]string
			}{jsonKey, cfg.Fields}
		}
	}

	result := map[string]any{}
	var currentSection string
	var currentHeaders []string
	var currentJSONKey string
	var currentFieldMapping map[string]string

	for _, row := range rows {
		if rowIsBlank(row) {
			currentSection = ""
			currentHeaders = nil
			continue
		}

		// Array section header: ,Section Name:, col1, col2, ...
		if len(row) >= 3 && strings.HasSuffix(strings.TrimSpace(row[1]), ":") {
			sectionName := strings.TrimSpace(row[1])
			if cfg, ok := sectionToConfig[sectionName]; ok {
				currentSection = sectionName
				currentJSONKey = cfg.jsonKey
				currentFieldMapping = cfg.fields
				currentHeaders = make([]string, len(row)-2)
				for i, h := range row[2:] {
					currentHeaders[i] = strings.TrimSpace(h)
				}
				if _, ok := result[currentJSONKey]; !ok {
					result[currentJSONKey] = []any{}
				}
				continue
			}
		}

		// Array data row: ,,value1, value2, ...
		if currentSection != "" && len(row) >= 3 &&
			strings.TrimSpace(row[0]) == "" && strings.TrimSpace(row[1]) == "" &&
			strings.TrimSpace(row[2]) != "" {
			values := row[2:]
			item := map[string]any{}
			for i, header := range currentHeaders {
				if i >= len(values) || strings.TrimSpace(values[i]) == "" {
					continue
				}
				jsonField, ok := currentFieldMapping[header]
				if !ok {
					jsonField = defaultFieldName(header)
				}
				if parsed := parseValue(values[i]); parsed != nil {
					item[jsonField] = parsed
				}
			}
			if len(item) > 0 {
				result[currentJSONKey] = append(result[currentJSONKey].([]any), item)
			}
			continue
		}

		// Regular key/value row: anything, field_name, value, ...
		if len(row) >= 3 {
			fieldName := strings.TrimSpace(row[1])
			value := strings.TrimSpace(row[2])
			if fieldName == "" || value == "" {
				continue
			}
			jsonPath, ok := mapping.CSVToJSON[fieldName]
			if !ok {
				continue
			}
			parsed := parseValue(value)
			if parsed == nil {
				continue
			}
			setNestedValueWithArrays(result, jsonPath, parsed)
		}
	}

	return result, nil
}

func rowIsBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// defaultFieldName mirrors the Python fallback: lowercase, spaces to
// underscores, parens stripped, used when a CSV header has no explicit
// entry in the array mapping's fields table.
func defaultFieldName(header string) string {
	s := strings.ToLower(header)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "(", "")
	s = strings.ReplaceAll(s, ")", "")
	return s
}

// parseValue converts a raw CSV cell into bool/float64/int/string,
// returning nil for blank cells so callers can skip them.
func parseValue(raw string) any {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `"`)
	if s == "" || s == " " {
		return nil
	}
	switch strings.ToLower(s) {
	case "yes", "true":
		return true
	case "no", "false":
		return false
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	} else if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return s
}

// setNestedValueWithArrays sets value at json_path within result,
// creating intermediate maps/slices as needed and handling "key[idx]"
// array-index segments the way a Python dict-of-lists build would.
func setNestedValueWithArrays(result map[string]any, jsonPath string, value any) {
	type segment struct {
		isArray bool
		key     string
		idx     int
	}
	parts := strings.Split(jsonPath, ".")
	segments := make([]segment, len(parts))
	for i, part := range parts {
		if m := arrayPathSegment.FindStringSubmatch(part); m != nil {
			idx, _ := strconv.Atoi(m[2])
			segments[i] = segment{isArray: true, key: m[1], idx: idx}
		} else {
			segments[i] = segment{key: part}
		}
	}

	d := result
	for _, seg := range segments[:len(segments)-1] {
		if seg.isArray {
			list, _ := d[seg.key].([]any)
			for len(list) <= seg.idx {
				list = append(list, map[string]any{})
			}
			d[seg.key] = list
			next, ok := list[seg.idx].(map[string]any)
			if !ok {
				next = map[string]any{}
				list[seg.idx] = next
			}
			d = next
		} else {
			next, ok := d[seg.key].(map[string]any)
			if !ok {
				next = map[string]any{}
				d[seg.key] = next
			}
			d = next
		}
	}

	last := segments[len(segments)-1]
	if last.isArray {
		list, _ := d[last.key].([]any)
		for len(list) <= last.idx {
			list = append(list, map[string]any{})
		}
		list[last.idx] = value
		d[last.key] = list
	} else {
		d[last.key] = value
	}
}
