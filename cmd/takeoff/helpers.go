package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/abudker/takeoff24/internal/takeoff/model"
	"github.com/abudker/takeoff24/internal/takeoff/rasterize"
)

// evalDir returns the on-disk directory for one evaluation's source PDFs
// and ground truth.
func evalDir(evalsDir, evalID string) string {
	return filepath.Join(evalsDir, evalID)
}

func groundTruthPath(evalsDir, evalID string) string {
	return filepath.Join(evalDir(evalsDir, evalID), "ground_truth.csv")
}

// discoverSourcePDFs lists every *.pdf file directly under an eval's
// directory, sorted for deterministic page-numbering order.
func discoverSourcePDFs(evalsDir, evalID string) ([]sourceInput, error) {
	dir := evalDir(evalsDir, evalID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading eval directory %s: %w", dir, err)
	}

	var inputs []sourceInput
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		inputs = append(inputs, sourceInput{Path: filepath.Join(dir, e.Name()), Filename: e.Name()})
	}
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Filename < inputs[j].Filename })
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no PDFs found under %s", dir)
	}
	return inputs, nil
}

// inspectSources validates each PDF and reads its page count via pdfcpu.
func inspectSources(inputs []sourceInput) ([]model.SourcePDF, error) {
	sources := make([]model.SourcePDF, 0, len(inputs))
	for _, in := range inputs {
		src, err := rasterize.Inspect(in.Path, in.Filename)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}
