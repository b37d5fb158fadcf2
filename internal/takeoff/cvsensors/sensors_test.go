package cvsensors

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abudker/takeoff24/internal/takeoff/model"
)

func drawDiagonalLine(gray *image.Gray, x0, y0, x1, y1 int, v uint8) {
	dx := x1 - x0
	dy := y1 - y0
	steps := dx
	if dy > steps {
		steps = dy
	}
	if steps == 0 {
		gray.SetGray(x0, y0, color.Gray{Y: v})
		return
	}
	for i := 0; i <= steps; i++ {
		x := x0 + dx*i/steps
		y := y0 + dy*i/steps
		gray.SetGray(x, y, color.Gray{Y: v})
		gray.SetGray(x+1, y, color.Gray{Y: v})
	}
}

func blankRaster(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return img
}

func TestDetect_Deterministic(t *testing.T) {
	img := blankRaster(200, 200)
	drawDiagonalLine(img, 10, 10, 190, 10, 0)
	drawDiagonalLine(img, 10, 190, 190, 190, 0)
	raster := NewRaster(img)

	first := Detect(raster, 3)
	second := Detect(raster, 3)

	assert.Equal(t, first, second)
}

func TestDetectWallEdges_FindsHorizontalWalls(t *testing.T) {
	img := blankRaster(200, 200)
	drawDiagonalLine(img, 10, 50, 190, 50, 0)
	raster := NewRaster(img)

	edges := detectWallEdges(raster)
	require.NotEmpty(t, edges)
	assert.InDelta(t, 0, edges[0].AngleFromHorizontal, 4)
	assert.InDelta(t, 90, edges[0].OutwardNormal, 4)
}

func TestEstimateRotation_DominantClusterWins(t *testing.T) {
	fixtures := []struct {
		angle, length float64
	}{
		{1, 100}, {2, 90}, {0, 80},
		{91, 10},
	}
	var wallEdges []model.WallEdgeCandidate
	for _, f := range fixtures {
		wallEdges = append(wallEdges, model.WallEdgeCandidate{AngleFromHorizontal: f.angle, LengthPx: f.length})
	}

	est := estimateRotation(wallEdges)
	assert.InDelta(t, 1, est.DegreesFromHorizontal, 2)
	assert.Less(t, est.StdDevDegrees, 5.0)
}
