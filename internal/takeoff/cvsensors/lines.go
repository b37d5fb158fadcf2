package cvsensors

import (
	"math"
	"sort"
)

// bucketKey identifies one (angle bin, rho bin) accumulator cell in the
// Hough-style voting grid.
type bucketKey struct{ a, rho int }

// LineSegment is one detected straight edge, described both by its
// endpoints (for bearing calculations which need signed dx/dy) and by its
// angle-from-horizontal in [0,180) (for wall-edge and rotation math, which
// don't care about direction).
type LineSegment struct {
	X1, Y1, X2, Y2      float64
	LengthPx            float64
	AngleFromHorizontal float64 // [0,180)
}

// detectLines runs a coarse, deterministic Hough-style line detector: edge
// pixels vote into (angle, offset) accumulator bins, and each bin whose
// vote count clears minVotes becomes one line segment whose endpoints are
// the extreme projections of its contributing pixels.
//
// This stands in for the externally-specified line-detection primitive
// (§4.1 design notes: "their use is specified, their implementation is
// not") with a bounded, bit-reproducible algorithm instead of a third
// party CV binding.
func detectLines(r *Raster, reg region, gradientThreshold float64, minVotes int) []LineSegment {
	edges := sobelEdges(r, reg, gradientThreshold)
	if len(edges) == 0 {
		return nil
	}

	const angleBinDeg = 2.0
	const numAngleBins = 90 // covers [0,180) at 2 degree resolution
	rhoBinPx := 3.0
	maxRho := math.Hypot(float64(reg.width()), float64(reg.height()))
	numRhoBins := int(2*maxRho/rhoBinPx) + 1

	buckets := make(map[bucketKey][]edgePixel)

	for _, e := range edges {
		// Line direction is perpendicular to the local gradient.
		lineAngle := math.Mod(e.angleDeg+90, 180)
		if lineAngle < 0 {
			lineAngle += 180
		}
		aBin := int(lineAngle/angleBinDeg) % numAngleBins

		theta := lineAngle * math.Pi / 180
		rho := -float64(e.x)*math.Sin(theta) + float64(e.y)*math.Cos(theta) // offset along the line's normal
		rBin := int((rho+maxRho)/rhoBinPx) % numRhoBins
		if rBin < 0 {
			rBin += numRhoBins
		}

		key := bucketKey{aBin, rBin}
		buckets[key] = append(buckets[key], e)
	}

	// Deterministic iteration order: sort bucket keys (highest-angle,
	// highest-rho first is an arbitrary but fixed tie-break).
	keys := make([]bucketKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a > keys[j].a
		}
		return keys[i].rho > keys[j].rho
	})

	var segments []LineSegment
	for _, k := range keys {
		pts := buckets[k]
		if len(pts) < minVotes {
			continue
		}
		lineAngleDeg := float64(k.a)*angleBinDeg + angleBinDeg/2
		theta := lineAngleDeg * math.Pi / 180
		dx, dy := math.Cos(theta), math.Sin(theta)

		minProj, maxProj := math.Inf(1), math.Inf(-1)
		var minX, minY, maxX, maxY float64
		for _, p := range pts {
			proj := float64(p.x)*dx + float64(p.y)*dy
			if proj < minProj {
				minProj, minX, minY = proj, float64(p.x), float64(p.y)
			}
			if proj > maxProj {
				maxProj, maxX, maxY = proj, float64(p.x), float64(p.y)
			}
		}
		length := math.Hypot(maxX-minX, maxY-minY)
		segments = append(segments, LineSegment{
			X1: minX, Y1: minY, X2: maxX, Y2: maxY,
			LengthPx:            length,
			AngleFromHorizontal: lineAngleDeg,
		})
	}
	return segments
}
