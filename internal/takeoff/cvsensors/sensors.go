// Package cvsensors implements the deterministic, library-free computer
// vision primitives that feed the first orientation pass: north-arrow
// detection (line method + contour method over four page-corner regions)
// and wall-edge / building-rotation estimation (Sobel edges, a
// Hough-style line detector, and wraparound-aware k-means clustering).
//
// No OpenCV or other CV binding is used anywhere in this package; every
// algorithm here operates on image.Gray and math alone, and is
// bit-for-bit reproducible given the same raster.
package cvsensors

import "github.com/abudker/takeoff24/internal/takeoff/model"

// Detect runs the full CV sensor suite over one rasterized page and
// produces the CVHints consumed by the first orientation pass.
func Detect(r *Raster, pageNumber int) model.CVHints {
	bearing, bearingConfidence := detectNorthArrow(r)
	wallEdges := detectWallEdges(r)
	rotation := estimateRotation(wallEdges)

	return model.CVHints{
		NorthArrowBearing:    bearing,
		NorthArrowConfidence: bearingConfidence,
		WallEdges:            wallEdges,
		BuildingRotation:     rotation,
		SourcePage:           pageNumber,
	}
}
