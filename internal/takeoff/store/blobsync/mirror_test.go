package blobsync

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	puts map[string][]byte
}

func newFakeSink() *fakeSink {
	return &fakeSink{puts: map[string][]byte{}}
}

func (f *fakeSink) Put(_ context.Context, key string, data []byte) error {
	f.puts[key] = data
	return nil
}

func TestMirrorEvalArtifacts_UploadsPresentFilesOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extracted.json"), []byte(`{"ok":true}`), 0o644))
	// no eval-report.html written

	sink := newFakeSink()
	err := MirrorEvalArtifacts(context.Background(), sink, "eval-1", 3, dir)
	require.NoError(t, err)

	assert.Equal(t, []byte(`{"ok":true}`), sink.puts["eval-1/3/extracted.json"])
	assert.NotContains(t, sink.puts, "eval-1/3/eval-report.html")
}

func TestMirrorEvalArtifacts_UploadsBothFilesWhenPresent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extracted.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "eval-report.html"), []byte(`<html></html>`), 0o644))

	sink := newFakeSink()
	err := MirrorEvalArtifacts(context.Background(), sink, "eval-2", 1, dir)
	require.NoError(t, err)

	assert.Len(t, sink.puts, 2)
}

func TestMirrorEvalArtifacts_NilSinkIsNoop(t *testing.T) {
	err := MirrorEvalArtifacts(context.Background(), nil, "eval-3", 1, t.TempDir())
	assert.NoError(t, err)
}
