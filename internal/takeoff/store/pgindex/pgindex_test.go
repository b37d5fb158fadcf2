package pgindex

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abudker/takeoff24/internal/takeoff/store"
)

// The index needs a live Postgres connection (TITLE24_POSTGRES_DSN), so
// these tests exercise the pieces that don't, leaving Open/MirrorEntry's
// SQL behavior to be checked against a real database in integration.

func TestMirrorAggregate_EmptyHistoryIsNoop(t *testing.T) {
	idx := &Index{}
	aggregate := &store.Aggregate{EvalID: "e1"}
	err := idx.MirrorAggregate(t.Context(), aggregate)
	assert.NoError(t, err)
}
