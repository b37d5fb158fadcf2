package cvsensors

import (
	"math"

	"github.com/abudker/takeoff24/internal/takeoff/model"
)

const kMeansIterations = 20

// estimateRotation clusters wall-edge angles into two groups with a fixed,
// deterministic k-means pass (k=2, wraparound-aware over [0,180)) and
// returns the dominant cluster's mean angle as the building's rotation
// from horizontal, with a confidence derived from that cluster's spread.
func estimateRotation(edges []model.WallEdgeCandidate) model.RotationEstimate {
	if len(edges) == 0 {
		return model.RotationEstimate{
			DegreesFromHorizontal: 0,
			Confidence:            model.ConfidenceLow,
			StdDevDegrees:         180,
		}
	}

	angles := make([]float64, len(edges))
	weights := make([]float64, len(edges))
	for i, e := range edges {
		angles[i] = e.AngleFromHorizontal
		weights[i] = e.LengthPx
	}

	// Seed the two centroids from the first and the most-different angle,
	// fixed and deterministic rather than random.
	c0, c1 := angles[0], angles[0]
	maxDist := -1.0
	for _, a := range angles {
		d := wrappedDistance180(angles[0], a)
		if d > maxDist {
			maxDist = d
			c1 = a
		}
	}

	assignment := make([]int, len(angles))
	for iter := 0; iter < kMeansIterations; iter++ {
		changed := false
		for i, a := range angles {
			d0 := wrappedDistance180(a, c0)
			d1 := wrappedDistance180(a, c1)
			cluster := 0
			if d1 < d0 {
				cluster = 1
			}
			if assignment[i] != cluster {
				changed = true
			}
			assignment[i] = cluster
		}
		c0 = weightedCircularMean180(angles, weights, assignment, 0)
		c1 = weightedCircularMean180(angles, weights, assignment, 1)
		if !changed && iter > 0 {
			break
		}
	}

	totalWeight := func(cluster int) float64 {
		var sum float64
		for i, a := range assignment {
			if a == cluster {
				sum += weights[i]
			}
		}
		return sum
	}

	dominant, dominantCentroid := 0, c0
	if totalWeight(1) > totalWeight(0) {
		dominant, dominantCentroid = 1, c1
	}

	stddev := clusterStdDev180(angles, assignment, dominant, dominantCentroid)

	return model.RotationEstimate{
		DegreesFromHorizontal: dominantCentroid,
		Confidence:            stdDevConfidence(stddev),
		StdDevDegrees:         stddev,
	}
}

// wrappedDistance180 is the minimum separation between two angles in the
// [0,180) wall-edge angle space, where 0 and 180 represent the same
// orientation (a wall has no inherent direction).
func wrappedDistance180(a, b float64) float64 {
	diff := math.Mod(math.Abs(a-b), 180)
	if diff > 90 {
		diff = 180 - diff
	}
	return diff
}

// weightedCircularMean180 averages the angles assigned to one cluster using
// doubled-angle trigonometry so the [0,180) wraparound behaves like a true
// circle (mod 180 instead of mod 360).
func weightedCircularMean180(angles, weights []float64, assignment []int, cluster int) float64 {
	var sinSum, cosSum, wSum float64
	for i, a := range angles {
		if assignment[i] != cluster {
			continue
		}
		rad := a * 2 * math.Pi / 180
		sinSum += weights[i] * math.Sin(rad)
		cosSum += weights[i] * math.Cos(rad)
		wSum += weights[i]
	}
	if wSum == 0 {
		return 0
	}
	mean := math.Atan2(sinSum/wSum, cosSum/wSum) * 180 / math.Pi / 2
	mean = math.Mod(mean, 180)
	if mean < 0 {
		mean += 180
	}
	return mean
}

func clusterStdDev180(angles []float64, assignment []int, cluster int, centroid float64) float64 {
	var sumSq float64
	n := 0
	for i, a := range angles {
		if assignment[i] != cluster {
			continue
		}
		d := wrappedDistance180(a, centroid)
		sumSq += d * d
		n++
	}
	if n == 0 {
		return 180
	}
	return math.Sqrt(sumSq / float64(n))
}

func stdDevConfidence(stddev float64) model.Confidence {
	switch {
	case stddev < 5:
		return model.ConfidenceHigh
	case stddev < 10:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
