package cvsensors

import "math"

// edgePixel is one pixel that survived gradient-magnitude thresholding,
// carrying the local gradient direction used to seed line detection.
type edgePixel struct {
	x, y      int
	magnitude float64
	angleDeg  float64 // gradient direction, math convention
}

// sobelEdges runs a 3x3 Sobel operator over the region and returns every
// pixel whose gradient magnitude exceeds threshold. Deterministic: a given
// raster and region always produce the same edge set.
func sobelEdges(r *Raster, reg region, threshold float64) []edgePixel {
	gx := [3][3]int{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	gy := [3][3]int{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}

	var edges []edgePixel
	for y := reg.y0 + 1; y < reg.y1-1; y++ {
		for x := reg.x0 + 1; x < reg.x1-1; x++ {
			var sx, sy int
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := int(r.At(x+kx, y+ky))
					sx += gx[ky+1][kx+1] * v
					sy += gy[ky+1][kx+1] * v
				}
			}
			mag := math.Hypot(float64(sx), float64(sy))
			if mag >= threshold {
				edges = append(edges, edgePixel{
					x: x, y: y,
					magnitude: mag,
					angleDeg:  math.Atan2(float64(sy), float64(sx)) * 180 / math.Pi,
				})
			}
		}
	}
	return edges
}
