package merge

import "github.com/abudker/takeoff24/internal/takeoff/model"

// azimuthToWallKey buckets a legacy flat window into one of the four
// cardinal walls by its azimuth octant: 315<=a<45 -> north, 45<=a<135 ->
// east, 135<=a<225 -> south, 225<=a<315 -> west.
func azimuthToWallKey(azimuth float64) model.WallKey {
	a := normalize360(azimuth)
	switch {
	case a >= 315 || a < 45:
		return model.WallNorth
	case a >= 45 && a < 135:
		return model.WallEast
	case a >= 135 && a < 225:
		return model.WallSouth
	default:
		return model.WallWest
	}
}

func normalize360(deg float64) float64 {
	d := deg
	for d < 0 {
		d += 360
	}
	for d >= 360 {
		d -= 360
	}
	return d
}

// BuildTakeoffSpec deduplicates zones and windows domain payloads by name
// and assembles the orientation-keyed TakeoffSpec. HVAC and DHW flow
// through unchanged (deduped by name, but with no cardinal placement).
// nil payloads (a domain that failed both attempts) contribute nothing.
func BuildTakeoffSpec(project model.ProjectInfo, zones *ZonesPayload, windows *WindowsPayload, hvac *HVACPayload, dhw *DHWPayload) (model.TakeoffSpec, []model.ExtractionConflict) {
	var allConflicts []model.ExtractionConflict
	walls := model.HouseWalls{}

	if zones != nil {
		dedupedWalls, conflicts := DedupeByName(zones.Walls, "zones",
			func(w WallItem) string { return w.Name },
			func(w WallItem) map[string]any {
				return map[string]any{
					"wall_key":     w.WallKey,
					"gross_area":   w.GrossArea,
					"azimuth":      w.Azimuth,
					"construction": w.Construction,
				}
			})
		allConflicts = append(allConflicts, conflicts...)

		for _, w := range dedupedWalls {
			walls[w.WallKey] = &model.TakeoffWall{
				GrossArea:    w.GrossArea,
				Azimuth:      w.Azimuth,
				Construction: w.Construction,
				OpaqueDoors:  w.OpaqueDoors,
			}
		}
	}

	if windows != nil {
		dedupedWindows, conflicts := DedupeByName(windows.Windows, "windows",
			func(w WindowItem) string { return w.Name },
			func(w WindowItem) map[string]any {
				return map[string]any{
					"area":       w.Area,
					"multiplier": w.Multiplier,
					"u_factor":   w.UFactor,
					"shgc":       w.SHGC,
				}
			})
		allConflicts = append(allConflicts, conflicts...)

		for _, w := range dedupedWindows {
			key := resolveWallKey(w)
			wall, ok := walls[key]
			if !ok {
				// Window references a wall the zones extractor never
				// produced; create a bare placeholder so the window isn't
				// silently dropped.
				wall = &model.TakeoffWall{}
				walls[key] = wall
			}
			wall.Fenestration = append(wall.Fenestration, model.FenestrationEntry{
				Name:        w.Name,
				Area:        w.Area,
				Multiplier:  w.Multiplier,
				UFactor:     w.UFactor,
				SHGC:        w.SHGC,
				WallHint:    w.WallHint,
				AzimuthHint: w.AzimuthHint,
			})
		}
	}

	spec := model.TakeoffSpec{
		Project:    project,
		HouseWalls: walls,
	}

	if zones != nil {
		spec.Ceilings = zones.Ceilings
		spec.SlabFloors = zones.SlabFloors
		spec.ThermalBoundary = model.ThermalBoundary{
			Conditioned:   zones.ConditionedZones,
			Unconditioned: zones.UnconditionedZones,
		}
	}
	if hvac != nil {
		deduped, conflicts := DedupeByName(hvac.Systems, "hvac",
			func(s model.HVACSystem) string { return s.Name },
			func(s model.HVACSystem) map[string]any {
				return map[string]any{"type": s.Type, "capacity": s.Capacity, "efficiency": s.Efficiency}
			})
		allConflicts = append(allConflicts, conflicts...)
		spec.HVACSystems = deduped
	}
	if dhw != nil {
		deduped, conflicts := DedupeByName(dhw.Systems, "dhw",
			func(s model.DHWSystem) string { return s.Name },
			func(s model.DHWSystem) map[string]any {
				return map[string]any{"type": s.Type, "tank_size": s.TankSize, "energy_factor": s.EnergyFactor}
			})
		allConflicts = append(allConflicts, conflicts...)
		spec.DHWSystems = deduped
	}

	return spec, allConflicts
}

func resolveWallKey(w WindowItem) model.WallKey {
	if w.WallKey != nil {
		return *w.WallKey
	}
	if w.AzimuthHint != nil {
		return azimuthToWallKey(*w.AzimuthHint)
	}
	return model.WallEast
}
