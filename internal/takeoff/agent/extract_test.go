package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Bearing    float64 `json:"bearing"`
	Confidence string  `json:"confidence"`
}

func TestExtractJSON_WholeReply(t *testing.T) {
	var p payload
	err := ExtractJSON(`{"bearing": 12.5, "confidence": "high"}`, &p)
	require.NoError(t, err)
	assert.Equal(t, 12.5, p.Bearing)
	assert.Equal(t, "high", p.Confidence)
}

func TestExtractJSON_FencedBlock(t *testing.T) {
	reply := "Here is the result:\n```json\n{\"bearing\": 90, \"confidence\": \"medium\"}\n```\nLet me know if you need more."
	var p payload
	err := ExtractJSON(reply, &p)
	require.NoError(t, err)
	assert.Equal(t, 90.0, p.Bearing)
}

func TestExtractJSON_BraceSubstring(t *testing.T) {
	reply := "Sure thing! {\"bearing\": 180, \"confidence\": \"low\"} Hope that helps."
	var p payload
	err := ExtractJSON(reply, &p)
	require.NoError(t, err)
	assert.Equal(t, 180.0, p.Bearing)
}

func TestExtractJSON_ManualRepair_UnescapedNewline(t *testing.T) {
	reply := "{\"bearing\": 45, \"confidence\": \"the arrow\npoints roughly northeast\"}"
	var p payload
	err := ExtractJSON(reply, &p)
	require.NoError(t, err)
	assert.Equal(t, 45.0, p.Bearing)
}

func TestExtractJSON_NoJSON(t *testing.T) {
	var p payload
	err := ExtractJSON("I could not determine an answer.", &p)
	assert.Error(t, err)
}
