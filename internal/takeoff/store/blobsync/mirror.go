package blobsync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// MirrorEvalArtifacts uploads extracted.json and, if present,
// eval-report.html from iterationDir under the key prefix
// "<evalID>/<iteration>/", skipping files that don't exist. It returns
// the first upload error encountered after attempting both files.
func MirrorEvalArtifacts(ctx context.Context, sink Sink, evalID string, iteration int, iterationDir string) error {
	if sink == nil {
		return nil
	}

	prefix := fmt.Sprintf("%s/%d/", evalID, iteration)
	var firstErr error
	for _, name := range []string{"extracted.json", "eval-report.html"} {
		path := filepath.Join(iterationDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			if firstErr == nil {
				firstErr = fmt.Errorf("reading %s: %w", path, err)
			}
			continue
		}
		if err := sink.Put(ctx, prefix+name, data); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
