package agent

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/abudker/takeoff24/internal/takeoff/obs/errs"
)

var fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)\\n```")

// ExtractJSON pulls the first well-formed JSON object out of a free-form
// agent reply, trying each strategy in order:
//
//  1. the whole reply parses as JSON
//  2. the content of the first fenced code block parses
//  3. the substring from the first '{' to the last '}' parses
//  4. a manual field-by-field regex repair, for replies with unescaped
//     newlines inside string fields that violate strict JSON escaping
//
// Returns a Parse-kind error if none of the strategies produce valid JSON.
func ExtractJSON(reply string, out any) error {
	trimmed := strings.TrimSpace(reply)

	if json.Unmarshal([]byte(trimmed), out) == nil {
		return nil
	}

	if m := fencedBlockPattern.FindStringSubmatch(trimmed); m != nil {
		if json.Unmarshal([]byte(strings.TrimSpace(m[1])), out) == nil {
			return nil
		}
	}

	if start := strings.IndexByte(trimmed, '{'); start >= 0 {
		if end := strings.LastIndexByte(trimmed, '}'); end > start {
			candidate := trimmed[start : end+1]
			if json.Unmarshal([]byte(candidate), out) == nil {
				return nil
			}
		}
	}

	if repaired, ok := manualRepair(trimmed); ok {
		if err := json.Unmarshal([]byte(repaired), out); err == nil {
			return nil
		}
	}

	return errs.New(errs.Parse, "agent", "no well-formed JSON object found in agent reply").
		WithDetails(map[string]any{"reply_length": len(reply)})
}

var topLevelFieldPattern = regexp.MustCompile(`(?s)"([a-zA-Z0-9_]+)"\s*:\s*("(?:[^"\\]|\\.)*"|-?\d+(?:\.\d+)?|true|false|null|\[[^\]]*\]|\{[^{}]*\})`)

// manualRepair extracts top-level "key": value pairs by regex and
// re-serializes them as a flat JSON object, tolerating unescaped literal
// newlines inside string values that break a strict parser. It only
// recovers scalar, array-literal, and single-level-nested-object values;
// anything else is dropped, which is acceptable because the fields this
// rescues (bearings, confidences, short text) are always shallow.
func manualRepair(reply string) (string, bool) {
	start := strings.IndexByte(reply, '{')
	end := strings.LastIndexByte(reply, '}')
	if start < 0 || end <= start {
		return "", false
	}
	body := reply[start : end+1]

	matches := topLevelFieldPattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return "", false
	}

	var b strings.Builder
	b.WriteByte('{')
	for i, m := range matches {
		if i > 0 {
			b.WriteByte(',')
		}
		key := m[1]
		value := repairStringLiteral(m[2])
		b.WriteString(strconv.Quote(key))
		b.WriteByte(':')
		b.WriteString(value)
	}
	b.WriteByte('}')
	return b.String(), true
}

// repairStringLiteral re-escapes literal newlines and tabs found inside a
// double-quoted value so it becomes valid JSON; non-string values pass
// through unchanged.
func repairStringLiteral(raw string) string {
	if !strings.HasPrefix(raw, `"`) {
		return raw
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(raw, `"`), `"`)
	inner = strings.ReplaceAll(inner, "\n", "\\n")
	inner = strings.ReplaceAll(inner, "\t", "\\t")
	return `"` + inner + `"`
}
