package model

// EnvelopeInfo carries the whole-building aggregates used by the
// project-extraction sub-stage and by verification.
type EnvelopeInfo struct {
	ConditionedFloorArea float64  `json:"conditioned_floor_area"`
	WindowArea           float64  `json:"window_area"`
	WindowToFloorRatio   float64  `json:"window_to_floor_ratio"`
	ExteriorWallArea     float64  `json:"exterior_wall_area"`
	FenestrationUFactor  *float64 `json:"fenestration_u_factor,omitempty"`
}

// Wall is the flat, component-list wall representation used by the
// verifier.
type Wall struct {
	Name         string  `json:"name"`
	Azimuth      float64 `json:"azimuth"` // [0,360)
	Tilt         float64 `json:"tilt"`    // degrees from horizontal; 90 for vertical walls
	GrossArea    float64 `json:"gross_area"`
	WindowArea   float64 `json:"window_area"`
	DoorArea     float64 `json:"door_area"`
	Construction string  `json:"construction,omitempty"`
}

// Window is a flat, component-list window entry referencing its parent
// wall by name.
type Window struct {
	Name       string  `json:"name"`
	Wall       string  `json:"wall"` // must match some Wall.Name
	Area       float64 `json:"area"`
	Azimuth    float64 `json:"azimuth"` // [0,360), inherited from parent wall
	Multiplier float64 `json:"multiplier"`
	UFactor    float64 `json:"u_factor,omitempty"`
	SHGC       float64 `json:"shgc,omitempty"`
}

// Zone is a flattened conditioned/unconditioned thermal zone.
type Zone struct {
	Name        string  `json:"name"`
	Conditioned bool    `json:"conditioned"`
	Area        float64 `json:"area,omitempty"`
}

// ExtractionStatusValue is the closed set of per-domain extraction
// outcomes.
type ExtractionStatusValue string

const (
	ExtractionSuccess ExtractionStatusValue = "success"
	ExtractionFailed  ExtractionStatusValue = "failed"
)

// ExtractionStatus records one domain extractor's outcome.
type ExtractionStatus struct {
	Status     ExtractionStatusValue `json:"status"`
	RetryCount int                   `json:"retry_count"`
	ItemCount  int                   `json:"item_count,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// ExtractionConflict records a merge-time disagreement between two
// occurrences of the same named item. first_occurrence_source is the
// extractor that contributed the kept value; conflicting_source is the
// extractor whose later, discarded value differed. When a single
// extractor emits a duplicate name against itself (e.g. two zones-domain
// walls both named "N Wall"), both fields name the same extractor — this
// is intentional, not a bug; see DESIGN.md.
type ExtractionConflict struct {
	Field                  string `json:"field"`
	ItemName               string `json:"item_name"`
	FirstOccurrenceSource  string `json:"first_occurrence_source"`
	ConflictingSource      string `json:"conflicting_source"`
	FirstValue             any    `json:"first_value"`
	ConflictingValue       any    `json:"conflicting_value"`
	Resolution             string `json:"resolution"` // always "kept_first" today
}

// BuildingSpec is the canonical, component-list representation used for
// verification against ground truth.
type BuildingSpec struct {
	Project  ProjectInfo  `json:"project"`
	Envelope EnvelopeInfo `json:"envelope"`

	Zones       []Zone        `json:"zones"`
	Walls       []Wall        `json:"walls"`
	Windows     []Window      `json:"windows"`
	Ceilings    []Ceiling     `json:"ceilings"`
	SlabFloors  []SlabFloor   `json:"slab_floors"`
	HVAC        []HVACSystem  `json:"hvac_systems"`
	DHW         []DHWSystem   `json:"water_heating_systems"`

	ExtractionStatus map[string]ExtractionStatus `json:"extraction_status"`
	Conflicts        []ExtractionConflict        `json:"conflicts"`

	Timing Timing `json:"timing"`
}

// Timing is the per-stage wall-clock breakdown the orchestrator always
// returns (the richest of the three disagreeing source versions; see
// DESIGN.md Open Question on orchestrator return shape).
type Timing struct {
	DiscoverySeconds     float64 `json:"discovery_seconds"`
	OrientationSeconds   float64 `json:"orientation_seconds"`
	ProjectSeconds       float64 `json:"project_seconds"`
	DomainFanoutSeconds  float64 `json:"domain_fanout_seconds"`
	MergeSeconds         float64 `json:"merge_seconds"`
	TotalSeconds         float64 `json:"total_seconds"`
}
