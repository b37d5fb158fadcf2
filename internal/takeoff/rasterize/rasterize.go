// Package rasterize validates source PDFs and reads their page geometry
// via pdfcpu before handing them to the external rasterizer (an excluded
// collaborator per the core's scope: it is called once with a page
// budget and returns page image paths and dimensions; this package only
// covers the introspection pdfcpu can do without rendering).
package rasterize

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/abudker/takeoff24/internal/takeoff/model"
)

// PageDims is one page's physical size in points.
type PageDims struct {
	WidthPt  float64
	HeightPt float64
}

// Inspect validates pdfPath and returns its SourcePDF record (filename,
// page count) for use in discovery's prompt and page-numbering math.
func Inspect(pdfPath, filename string) (model.SourcePDF, error) {
	if err := api.ValidateFile(pdfPath, nil); err != nil {
		return model.SourcePDF{}, fmt.Errorf("invalid PDF %s: %w", filename, err)
	}
	count, err := api.PageCountFile(pdfPath)
	if err != nil {
		return model.SourcePDF{}, fmt.Errorf("page count %s: %w", filename, err)
	}
	return model.SourcePDF{Filename: filename, PageCount: count}, nil
}

// PageDimensions returns the physical dimensions of every page in
// pdfPath, keyed by 1-based page number. Nothing in this module calls it.
func PageDimensions(pdfPath string) (map[int]PageDims, error) {
	dims, err := api.PageDimsFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("page dims: %w", err)
	}
	out := make(map[int]PageDims, len(dims))
	for i, d := range dims {
		out[i+1] = PageDims{WidthPt: d.Width, HeightPt: d.Height}
	}
	return out, nil
}
