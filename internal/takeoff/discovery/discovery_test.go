package discovery

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abudker/takeoff24/internal/takeoff/agent"
	"github.com/abudker/takeoff24/internal/takeoff/discovery/cache"
	"github.com/abudker/takeoff24/internal/takeoff/model"
)

func twoPageDoc() string {
	return `{
		"cache_version": 1,
		"total_pages": 2,
		"pages": [
			{"page_number": 1, "ref": {"source_pdf": "plans.pdf", "local_page": 1}, "type": "drawing", "confidence": "high"},
			{"page_number": 2, "ref": {"source_pdf": "plans.pdf", "local_page": 2}, "type": "schedule", "confidence": "high"}
		],
		"sources": {"plans.pdf": {"filename": "plans.pdf", "page_count": 2}}
	}`
}

func TestRunner_Discover_AgentCallOnMiss(t *testing.T) {
	fake := agent.NewFakeExecutor()
	fake.QueueReply("discovery", twoPageDoc())

	r := &Runner{Executor: fake, FileStore: cache.NewFileStore(t.TempDir())}
	sources := []model.SourcePDF{{Filename: "plans.pdf", PageCount: 2}}

	doc, err := r.Discover(context.Background(), "eval-1", sources)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.TotalPages)
	assert.Len(t, fake.Calls(), 1)
}

func TestRunner_Discover_CacheHitSkipsAgent(t *testing.T) {
	fake := agent.NewFakeExecutor()
	fake.QueueReply("discovery", twoPageDoc())

	dir := t.TempDir()
	r := &Runner{Executor: fake, FileStore: cache.NewFileStore(dir)}
	sources := []model.SourcePDF{{Filename: "plans.pdf", PageCount: 2}}

	_, err := r.Discover(context.Background(), "eval-1", sources)
	require.NoError(t, err)
	require.Len(t, fake.Calls(), 1)

	// Second discover against the same eval_id must be a pure cache hit:
	// zero additional agent calls.
	doc2, err := r.Discover(context.Background(), "eval-1", sources)
	require.NoError(t, err)
	assert.Equal(t, 2, doc2.TotalPages)
	assert.Len(t, fake.Calls(), 1)
}

func TestValidate_RejectsGapInPageNumbers(t *testing.T) {
	doc := model.DocumentMap{
		TotalPages: 2,
		Pages: []model.PageInfo{
			{PageNumber: 1},
			{PageNumber: 3},
		},
	}
	err := Validate(doc, []model.SourcePDF{{Filename: "a.pdf", PageCount: 2}})
	assert.Error(t, err)
}

func TestFileStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := cache.NewFileStore(dir)
	doc := model.DocumentMap{CacheVersion: 1, TotalPages: 1, Pages: []model.PageInfo{{PageNumber: 1}}}

	require.NoError(t, store.Save("eval-x", doc))
	loaded, found, err := store.Load("eval-x")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, doc.TotalPages, loaded.TotalPages)

	_, found, err = store.Load("missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.FileExists(t, filepath.Join(dir, "eval-x_discovery.json"))
}
