package merge

import "github.com/abudker/takeoff24/internal/takeoff/model"

// ZonesPayload is the zones-domain extractor's JSON shape: walls (each
// tagged with the cardinal key it belongs under), ceilings, slab floors,
// and the thermal-boundary zone lists.
type ZonesPayload struct {
	Walls              []WallItem                `json:"walls"`
	Ceilings           []model.Ceiling           `json:"ceilings"`
	SlabFloors         []model.SlabFloor         `json:"slab_floors"`
	ConditionedZones   []model.ConditionedZone   `json:"conditioned_zones"`
	UnconditionedZones []model.UnconditionedZone `json:"unconditioned_zones"`
}

// WallItem is one wall as emitted by the zones extractor.
type WallItem struct {
	Name         string                    `json:"name"`
	WallKey      model.WallKey             `json:"wall_key"`
	GrossArea    float64                   `json:"gross_area"`
	Azimuth      *float64                  `json:"azimuth,omitempty"`
	Construction string                    `json:"construction,omitempty"`
	OpaqueDoors  []model.OpaqueDoorEntry   `json:"opaque_doors"`
}

// WindowsPayload is the windows-domain extractor's JSON shape.
type WindowsPayload struct {
	Windows []WindowItem `json:"windows"`
}

// WindowItem is one window, in either nested form (WallKey set, attaches
// directly to that cardinal wall) or legacy flat form (WallHint +
// AzimuthHint set, bucketed into a cardinal wall by azimuth octant).
type WindowItem struct {
	Name       string        `json:"name"`
	Area       float64       `json:"area"`
	Multiplier float64       `json:"multiplier"`
	UFactor    float64       `json:"u_factor,omitempty"`
	SHGC       float64       `json:"shgc,omitempty"`
	WallKey    *model.WallKey `json:"wall_key,omitempty"`
	WallHint    string   `json:"wall,omitempty"`
	AzimuthHint *float64 `json:"azimuth,omitempty"`
}

// IsLegacyFlat reports whether this window must be bucketed by azimuth
// rather than attached via an explicit wall key.
func (w WindowItem) IsLegacyFlat() bool {
	return w.WallKey == nil && w.AzimuthHint != nil
}

// HVACPayload and DHWPayload are simple named-list extractor outputs.
type HVACPayload struct {
	Systems []model.HVACSystem `json:"systems"`
}

type DHWPayload struct {
	Systems []model.DHWSystem `json:"systems"`
}
