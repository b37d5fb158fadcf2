package cvsensors

import (
	"math"
	"sort"

	"github.com/abudker/takeoff24/internal/takeoff/model"
)

const (
	wallEdgeGradientThreshold = 90.0 // higher than the north-arrow pass: only strong, long wall strokes
	wallEdgeMinVotes          = 10
	wallEdgeTopN              = 8
)

// detectWallEdges runs a single line-detection pass over the whole page at
// a higher gradient threshold than the north-arrow corner scan, keeping the
// eight longest segments. Each candidate's outward normal is its angle
// rotated 90 degrees, per §4.1.
func detectWallEdges(r *Raster) []model.WallEdgeCandidate {
	full := region{0, 0, r.Width, r.Height, "full"}
	segments := detectLines(r, full, wallEdgeGradientThreshold, wallEdgeMinVotes)

	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].LengthPx > segments[j].LengthPx
	})
	if len(segments) > wallEdgeTopN {
		segments = segments[:wallEdgeTopN]
	}

	candidates := make([]model.WallEdgeCandidate, 0, len(segments))
	for _, seg := range segments {
		midX, midY := (seg.X1+seg.X2)/2, (seg.Y1+seg.Y2)/2
		candidates = append(candidates, model.WallEdgeCandidate{
			AngleFromHorizontal: seg.AngleFromHorizontal,
			LengthPx:            seg.LengthPx,
			GridPosition:        grid3x3Label(r, int(midX), int(midY)),
			OutwardNormal:       math.Mod(seg.AngleFromHorizontal+90, 360),
		})
	}
	return candidates
}
