package cvsensors

import (
	"math"
	"sort"

	"github.com/abudker/takeoff24/internal/takeoff/geo"
	"github.com/abudker/takeoff24/internal/takeoff/model"
)

const (
	lineGradientThreshold = 60.0
	lineMinVotes          = 6
	minArrowLengthPx      = 15.0
	cardinalExclusionDeg  = 15.0
	agreementThresholdDeg = 20.0
	contourThreshold      = 128
)

// arrowCandidate is an internal north-arrow bearing guess from either
// detection method, before fusion. It is distinct from
// model.WallEdgeCandidate, which describes building wall edges rather than
// north-arrow symbols.
type arrowCandidate struct {
	method     string
	bearingDeg float64
	lengthPx   float64
	confidence model.Confidence
	regionName string
}

// northArrowInRegion runs both the line method and the contour method over
// one corner region and returns every candidate bearing each produced,
// tagged with its source method and a length/area-derived confidence.
func northArrowInRegion(r *Raster, reg region) []arrowCandidate {
	var candidates []arrowCandidate

	for _, seg := range detectLines(r, reg, lineGradientThreshold, lineMinVotes) {
		if seg.LengthPx < minArrowLengthPx {
			continue
		}
		if nearCardinal(seg.AngleFromHorizontal) {
			// North arrows are drawn at an angle; axis-aligned strokes
			// are almost always border or hatching lines, not arrows.
			continue
		}
		bearing := geo.PixelDeltaToCompassBearing(seg.X2-seg.X1, seg.Y2-seg.Y1)
		candidates = append(candidates, arrowCandidate{
			method:     "line",
			bearingDeg: bearing,
			lengthPx:   seg.LengthPx,
			confidence: lengthConfidence(seg.LengthPx),
			regionName: reg.label,
		})
	}

	contours := findContours(r, reg, contourThreshold)
	if c, ok := bestArrowheadContour(contours); ok {
		bearing := geo.MathAngleToCompassBearing(c.angleDeg)
		candidates = append(candidates, arrowCandidate{
			method:     "contour",
			bearingDeg: bearing,
			lengthPx:   math.Sqrt(float64(c.area)),
			confidence: areaConfidence(c.area),
			regionName: reg.label,
		})
	}

	return candidates
}

func nearCardinal(angleFromHorizontal float64) bool {
	for _, cardinal := range []float64{0, 90, 180} {
		if math.Abs(angleFromHorizontal-cardinal) <= cardinalExclusionDeg {
			return true
		}
	}
	return false
}

func lengthConfidence(lengthPx float64) model.Confidence {
	switch {
	case lengthPx >= 40:
		return model.ConfidenceHigh
	case lengthPx >= 20:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

func areaConfidence(area int) model.Confidence {
	switch {
	case area >= 300 && area <= 4000:
		return model.ConfidenceHigh
	case area >= 100 && area <= 10000:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// regionResult is one corner region's fused bearing guess, after
// combining that region's own line and contour candidates.
type regionResult struct {
	bearingDeg float64
	confidence model.Confidence
}

// fuseRegionCandidates fuses a single region's candidates: the
// highest-confidence candidate anchors the result, and any other
// candidate from the same region within agreementThresholdDeg of it is
// folded in via circular mean at a boosted confidence. Candidates from
// different regions never mix here, since two unrelated corners can each
// carry their own unrelated line or hatching false positive.
func fuseRegionCandidates(candidates []arrowCandidate) (regionResult, bool) {
	if len(candidates) == 0 {
		return regionResult{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].confidence.Rank() > candidates[j].confidence.Rank()
	})

	best := candidates[0]
	agreeing := []float64{best.bearingDeg}
	for _, c := range candidates[1:] {
		if geo.AngularDistance(c.bearingDeg, best.bearingDeg) <= agreementThresholdDeg {
			agreeing = append(agreeing, c.bearingDeg)
		}
	}

	confidence := best.confidence
	if len(agreeing) >= 2 {
		confidence = boostConfidence(confidence)
	}

	return regionResult{bearingDeg: geo.CircularMean(agreeing...), confidence: confidence}, true
}

// detectNorthArrow runs both detection methods over each of the four
// corner regions independently, fuses each region's own candidates into
// one (bearing, confidence) guess, then picks the single best region as
// the winner. Regions are never fused against each other: a line in one
// corner and a contour in a different corner are unrelated detections,
// and blending them would spuriously boost confidence in a bearing
// nobody actually drew. Returns (bearing, confidence); bearing is nil
// when no region produced a candidate.
func detectNorthArrow(r *Raster) (*float64, model.Confidence) {
	var results []regionResult
	for _, reg := range cornerRegions(r) {
		if result, ok := fuseRegionCandidates(northArrowInRegion(r, reg)); ok {
			results = append(results, result)
		}
	}

	if len(results) == 0 {
		return nil, model.ConfidenceLow
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].confidence.Rank() > results[j].confidence.Rank()
	})

	best := results[0]
	return &best.bearingDeg, best.confidence
}

func boostConfidence(c model.Confidence) model.Confidence {
	switch c {
	case model.ConfidenceLow:
		return model.ConfidenceMedium
	case model.ConfidenceMedium:
		return model.ConfidenceHigh
	default:
		return model.ConfidenceHigh
	}
}
