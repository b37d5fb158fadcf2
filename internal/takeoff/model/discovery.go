// Package model defines the shared data entities of §3: SourcePDF,
// PageInfo, DocumentMap, CVHints, orientation results, TakeoffSpec, and
// BuildingSpec. Kept dependency-free so every pipeline stage can share one
// vocabulary without import cycles.
package model

// PageType is the coarse classification of a page.
type PageType string

const (
	PageSchedule PageType = "schedule"
	PageCBECC    PageType = "cbecc"
	PageDrawing  PageType = "drawing"
	PageOther    PageType = "other"
)

// PageSubtype is the closed set of finer-grained page classifications.
type PageSubtype string

const (
	SubtypeSitePlan       PageSubtype = "site_plan"
	SubtypeFloorPlan      PageSubtype = "floor_plan"
	SubtypeElevation      PageSubtype = "elevation"
	SubtypeSection        PageSubtype = "section"
	SubtypeDetail         PageSubtype = "detail"
	SubtypeMechanicalPlan PageSubtype = "mechanical_plan"
	SubtypePlumbingPlan   PageSubtype = "plumbing_plan"
	SubtypeWindowSched    PageSubtype = "window_schedule"
	SubtypeEquipSched     PageSubtype = "equipment_schedule"
	SubtypeRoomSched      PageSubtype = "room_schedule"
	SubtypeWallSched      PageSubtype = "wall_schedule"
	SubtypeDoorSched      PageSubtype = "door_schedule"
	SubtypeEnergySummary  PageSubtype = "energy_summary"
)

// ContentTag is one member of the closed set of page content tags.
type ContentTag string

const (
	TagNorthArrow          ContentTag = "north_arrow"
	TagRoomLabels          ContentTag = "room_labels"
	TagWindowCallouts      ContentTag = "window_callouts"
	TagHVACSpecs           ContentTag = "hvac_specs"
	TagAreaCallouts        ContentTag = "area_callouts"
	TagCeilingHeights      ContentTag = "ceiling_heights"
	TagWallAssembly        ContentTag = "wall_assembly"
	TagInsulationValues    ContentTag = "insulation_values"
	TagGlazingPerformance  ContentTag = "glazing_performance"
	TagHVACEquipment       ContentTag = "hvac_equipment"
	TagWaterHeater         ContentTag = "water_heater"
	TagDHWSpecs            ContentTag = "dhw_specs"
)

// Confidence is the closed confidence vocabulary used throughout the
// pipeline (classification, CV detection, orientation).
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// Rank gives confidence a total order: high=3, medium=2, low=1, none=0.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// SourcePDF is one input PDF discovered up front for an evaluation.
type SourcePDF struct {
	Filename  string `json:"filename"`
	PageCount int    `json:"page_count"`
}

// PageRef is a back-reference from a global page number to its source PDF
// and 1-indexed local page number.
type PageRef struct {
	SourcePDF string `json:"source_pdf"`
	LocalPage int    `json:"local_page"`
}

// PageInfo describes one globally-numbered page.
type PageInfo struct {
	PageNumber  int          `json:"page_number"`
	Ref         PageRef      `json:"ref"`
	Type        PageType     `json:"type"`
	Subtype     *PageSubtype `json:"subtype,omitempty"`
	Tags        []ContentTag `json:"tags,omitempty"`
	Confidence  Confidence   `json:"confidence"`
	Description string       `json:"description,omitempty"`
}

// HasTag reports whether this page carries the given content tag.
func (p PageInfo) HasTag(tag ContentTag) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// DocumentMap is the cached, per-evaluation classification of every page
// across every source PDF.
type DocumentMap struct {
	CacheVersion int                  `json:"cache_version"`
	TotalPages   int                  `json:"total_pages"`
	Pages        []PageInfo           `json:"pages"`
	Sources      map[string]SourcePDF `json:"sources"`
}

// PageByNumber returns the PageInfo for a global page number, or false if
// it is out of range. DocumentMap invariant guarantees exactly one match
// when present.
func (d DocumentMap) PageByNumber(n int) (PageInfo, bool) {
	for _, p := range d.Pages {
		if p.PageNumber == n {
			return p, true
		}
	}
	return PageInfo{}, false
}
