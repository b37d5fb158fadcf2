package merge

import (
	"strings"

	"github.com/abudker/takeoff24/internal/takeoff/model"
)

// wallKeyToName and defaultAzimuth are the fixed maps from §4.7.
var wallKeyToName = map[model.WallKey]string{
	model.WallNorth: "N Wall",
	model.WallEast:  "E Wall",
	model.WallSouth: "S Wall",
	model.WallWest:  "W Wall",
}

var defaultAzimuth = map[model.WallKey]float64{
	model.WallNorth: 0,
	model.WallEast:  90,
	model.WallSouth: 180,
	model.WallWest:  270,
}

// cathedralKeywords are matched case-insensitively against a ceiling's
// type, construction, and name.
var cathedralKeywords = []string{"cathedral", "vaulted"}

// orderedWallKeys fixes iteration order so Transform output is
// deterministic regardless of Go's randomized map iteration.
var orderedWallKeys = []model.WallKey{model.WallNorth, model.WallEast, model.WallSouth, model.WallWest}

// Transform converts the orientation-keyed TakeoffSpec into the flat,
// component-list BuildingSpec used by the verifier.
func Transform(spec model.TakeoffSpec, statuses map[string]model.ExtractionStatus, conflicts []model.ExtractionConflict) model.BuildingSpec {
	building := model.BuildingSpec{
		Project:          spec.Project,
		ExtractionStatus: statuses,
		Conflicts:        conflicts,
	}

	for _, key := range orderedWallKeys {
		wall, ok := spec.HouseWalls[key]
		if !ok || wall == nil {
			continue
		}

		azimuth := defaultAzimuth[key]
		if wall.Azimuth != nil {
			azimuth = *wall.Azimuth
		}
		name := wallKeyToName[key]

		var windowArea, doorArea float64
		for _, fen := range wall.Fenestration {
			multiplier := fen.Multiplier
			if multiplier == 0 {
				multiplier = 1
			}
			windowArea += fen.Area * multiplier

			building.Windows = append(building.Windows, model.Window{
				Name:       fen.Name,
				Wall:       name,
				Area:       fen.Area,
				Azimuth:    azimuth,
				Multiplier: multiplier,
				UFactor:    fen.UFactor,
				SHGC:       fen.SHGC,
			})
		}
		for _, door := range wall.OpaqueDoors {
			doorArea += door.Area
		}

		building.Walls = append(building.Walls, model.Wall{
			Name:         name,
			Azimuth:      azimuth,
			Tilt:         90,
			GrossArea:    wall.GrossArea,
			WindowArea:   windowArea,
			DoorArea:     doorArea,
			Construction: wall.Construction,
		})
	}

	for _, z := range spec.ThermalBoundary.Conditioned {
		building.Zones = append(building.Zones, model.Zone{Name: z.Name, Conditioned: true, Area: z.Area})
	}
	for _, z := range spec.ThermalBoundary.Unconditioned {
		building.Zones = append(building.Zones, model.Zone{Name: z.Name, Conditioned: false, Area: z.Area})
	}

	for _, c := range spec.Ceilings {
		if isCathedral(c) {
			building.Ceilings = append(building.Ceilings, c)
		}
	}

	building.SlabFloors = spec.SlabFloors
	building.HVAC = spec.HVACSystems
	building.DHW = spec.DHWSystems

	return building
}

func isCathedral(c model.Ceiling) bool {
	fields := []string{c.Type, c.Construction, c.Name}
	for _, f := range fields {
		lower := strings.ToLower(f)
		for _, keyword := range cathedralKeywords {
			if strings.Contains(lower, keyword) {
				return true
			}
		}
	}
	return false
}
