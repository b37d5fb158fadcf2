package model

// WallEdgeCandidate is one detected wall-edge segment from the single
// higher-threshold region scan described in §4.1.
type WallEdgeCandidate struct {
	AngleFromHorizontal float64 `json:"angle_from_horizontal"` // [0,180)
	LengthPx            float64 `json:"length_px"`
	GridPosition        string  `json:"grid_position"` // 3x3 grid label, e.g. "center", "top-left"
	OutwardNormal       float64 `json:"outward_normal"` // compass bearing, (angle+90) mod 360
}

// RotationEstimate is the building-rotation estimate derived by clustering
// wall-edge angles.
type RotationEstimate struct {
	DegreesFromHorizontal float64    `json:"degrees_from_horizontal"`
	Confidence            Confidence `json:"confidence"`
	StdDevDegrees         float64    `json:"std_dev_degrees"`
}

// CVHints is the deterministic computer-vision output for one site-plan
// page: a north-arrow bearing, a list of wall-edge candidates, and a
// building-rotation estimate.
type CVHints struct {
	NorthArrowBearing     *float64            `json:"north_arrow_bearing,omitempty"` // [0,360)
	NorthArrowConfidence  Confidence          `json:"north_arrow_confidence"`
	WallEdges             []WallEdgeCandidate `json:"wall_edges"`
	BuildingRotation      RotationEstimate    `json:"building_rotation"`
	SourcePage            int                 `json:"source_page"`
}
