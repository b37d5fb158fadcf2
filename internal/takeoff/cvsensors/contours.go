package cvsensors

import (
	"math"
	"sort"
)

// contour is a connected blob of thresholded pixels, summarized the way a
// minimum-area-rectangle fit would: its pixels, approximate orientation,
// bounding-box area, and an estimated polygon vertex count standing in for
// cv2.approxPolyDP's output.
type contour struct {
	pixels     []point
	area       int
	vertices   int
	angleDeg   float64 // orientation of the fitted principal axis, math convention
}

type point struct{ x, y int }

// findContours thresholds the region (intensity below threshold counts as
// foreground — arrows are drawn as dark ink) and groups foreground pixels
// into 4-connected components via flood fill. Deterministic: components
// are discovered in raster scan order.
func findContours(r *Raster, reg region, threshold uint8) []contour {
	visited := make(map[point]bool)
	var contours []contour

	for y := reg.y0; y < reg.y1; y++ {
		for x := reg.x0; x < reg.x1; x++ {
			p := point{x, y}
			if visited[p] || r.At(x, y) >= threshold {
				continue
			}
			blob := floodFill(r, reg, p, threshold, visited)
			if len(blob) == 0 {
				continue
			}
			contours = append(contours, summarizeBlob(blob))
		}
	}
	return contours
}

func floodFill(r *Raster, reg region, start point, threshold uint8, visited map[point]bool) []point {
	stack := []point{start}
	var blob []point
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[p] {
			continue
		}
		if p.x < reg.x0 || p.x >= reg.x1 || p.y < reg.y0 || p.y >= reg.y1 {
			continue
		}
		if r.At(p.x, p.y) >= threshold {
			continue
		}
		visited[p] = true
		blob = append(blob, p)
		stack = append(stack,
			point{p.x + 1, p.y}, point{p.x - 1, p.y},
			point{p.x, p.y + 1}, point{p.x, p.y - 1},
		)
	}
	return blob
}

// summarizeBlob computes a minAreaRect-like summary: centroid, principal
// axis orientation (via the second-moment / covariance matrix), bounding
// area, and an approximate vertex count derived from the elongation
// (eigenvalue ratio) of that covariance matrix. Arrowheads are small, elongated,
// low-vertex blobs; this is a coarse but deterministic stand-in for
// cv2.approxPolyDP.
func summarizeBlob(pixels []point) contour {
	n := float64(len(pixels))
	var sumX, sumY float64
	minX, minY, maxX, maxY := pixels[0].x, pixels[0].y, pixels[0].x, pixels[0].y
	for _, p := range pixels {
		sumX += float64(p.x)
		sumY += float64(p.y)
		if p.x < minX {
			minX = p.x
		}
		if p.x > maxX {
			maxX = p.x
		}
		if p.y < minY {
			minY = p.y
		}
		if p.y > maxY {
			maxY = p.y
		}
	}
	cx, cy := sumX/n, sumY/n

	var sxx, syy, sxy float64
	for _, p := range pixels {
		dx, dy := float64(p.x)-cx, float64(p.y)-cy
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	sxx /= n
	syy /= n
	sxy /= n

	// Principal axis angle from the 2x2 covariance matrix.
	theta := 0.5 * math.Atan2(2*sxy, sxx-syy)

	area := (maxX - minX + 1) * (maxY - minY + 1)

	// Elongation ratio approximates vertex count: moderately elongated
	// blobs (ratio 1.3 to 8, arrowheads) approximate to 3-5 vertices;
	// round blobs and thin line-like blobs (ratio 8 or more) approximate to 6.
	elongation := eigenRatio(sxx, syy, sxy)
	vertices := verticesFromElongation(elongation)

	return contour{pixels: pixels, area: area, vertices: vertices, angleDeg: theta * 180 / math.Pi}
}

func eigenRatio(sxx, syy, sxy float64) float64 {
	trace := sxx + syy
	det := sxx*syy - sxy*sxy
	disc := math.Sqrt(math.Max(trace*trace/4-det, 0))
	l1 := trace/2 + disc
	l2 := trace/2 - disc
	if l2 <= 1e-9 {
		return math.Inf(1)
	}
	return l1 / l2
}

func verticesFromElongation(ratio float64) int {
	switch {
	case ratio >= 3 && ratio < 8:
		return 3
	case ratio >= 2 && ratio < 3:
		return 4
	case ratio >= 1.3 && ratio < 2:
		return 5
	default:
		return 6
	}
}

// bestArrowheadContour returns the first contour (in deterministic
// discovery order) whose area falls in [100, 10000] px^2 and whose
// estimated vertex count is in [3, 5], matching §4.1's contour-method
// acceptance criteria.
func bestArrowheadContour(contours []contour) (contour, bool) {
	sort.SliceStable(contours, func(i, j int) bool {
		return contours[i].pixels[0].y < contours[j].pixels[0].y ||
			(contours[i].pixels[0].y == contours[j].pixels[0].y && contours[i].pixels[0].x < contours[j].pixels[0].x)
	})
	for _, c := range contours {
		if c.area >= 100 && c.area <= 10000 && c.vertices >= 3 && c.vertices <= 5 {
			return c, true
		}
	}
	return contour{}, false
}
