package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abudker/takeoff24/internal/takeoff/model"
)

func azimuth(v float64) *float64 { return &v }
func wallKey(k model.WallKey) *model.WallKey { return &k }

func TestDedupeByName_FirstWins_ConflictRecorded(t *testing.T) {
	items := []WallItem{
		{Name: "N Wall", WallKey: model.WallNorth, GrossArea: 100},
		{Name: "N Wall", WallKey: model.WallNorth, GrossArea: 999},
	}
	deduped, conflicts := DedupeByName(items, "zones",
		func(w WallItem) string { return w.Name },
		func(w WallItem) map[string]any { return map[string]any{"gross_area": w.GrossArea} })

	require.Len(t, deduped, 1)
	assert.Equal(t, 100.0, deduped[0].GrossArea)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "kept_first", conflicts[0].Resolution)
	assert.Equal(t, "array_item", conflicts[0].Field)
	assert.Equal(t, "zones", conflicts[0].FirstOccurrenceSource)
	assert.Equal(t, "zones", conflicts[0].ConflictingSource)
}

func TestDedupeByName_DropsNameless(t *testing.T) {
	items := []WallItem{{Name: "", GrossArea: 50}, {Name: "E Wall", GrossArea: 60}}
	deduped, _ := DedupeByName(items, "zones",
		func(w WallItem) string { return w.Name },
		func(w WallItem) map[string]any { return nil })
	assert.Len(t, deduped, 1)
}

func TestBuildTakeoffSpec_LegacyFlatWindowBucketedByAzimuth(t *testing.T) {
	zones := &ZonesPayload{Walls: []WallItem{{Name: "E Wall", WallKey: model.WallEast}}}
	windows := &WindowsPayload{Windows: []WindowItem{
		{Name: "W1", Area: 10, Multiplier: 1, AzimuthHint: azimuth(80)}, // east octant
	}}

	spec, _ := BuildTakeoffSpec(model.ProjectInfo{}, zones, windows, nil, nil)
	require.NotNil(t, spec.HouseWalls[model.WallEast])
	assert.Len(t, spec.HouseWalls[model.WallEast].Fenestration, 1)
}

func TestBuildTakeoffSpec_NestedWindowUsesWallKey(t *testing.T) {
	windows := &WindowsPayload{Windows: []WindowItem{
		{Name: "W1", Area: 10, Multiplier: 1, WallKey: wallKey(model.WallNorth)},
	}}
	spec, _ := BuildTakeoffSpec(model.ProjectInfo{}, nil, windows, nil, nil)
	require.NotNil(t, spec.HouseWalls[model.WallNorth])
	assert.Equal(t, "W1", spec.HouseWalls[model.WallNorth].Fenestration[0].Name)
}

func TestTransform_DefaultAzimuthWhenWallHasNone(t *testing.T) {
	spec := model.TakeoffSpec{
		HouseWalls: model.HouseWalls{
			model.WallSouth: &model.TakeoffWall{GrossArea: 200},
		},
	}
	building := Transform(spec, nil, nil)
	require.Len(t, building.Walls, 1)
	assert.Equal(t, "S Wall", building.Walls[0].Name)
	assert.Equal(t, 180.0, building.Walls[0].Azimuth)
}

func TestTransform_WindowAreaAggregatesWithMultiplier(t *testing.T) {
	spec := model.TakeoffSpec{
		HouseWalls: model.HouseWalls{
			model.WallEast: &model.TakeoffWall{
				Fenestration: []model.FenestrationEntry{
					{Name: "W1", Area: 10, Multiplier: 2},
					{Name: "W2", Area: 5, Multiplier: 1},
				},
			},
		},
	}
	building := Transform(spec, nil, nil)
	require.Len(t, building.Walls, 1)
	assert.Equal(t, 25.0, building.Walls[0].WindowArea)
	assert.Len(t, building.Windows, 2)
}

func TestTransform_CathedralCeilingFilter(t *testing.T) {
	spec := model.TakeoffSpec{
		Ceilings: []model.Ceiling{
			{Name: "Living Room Ceiling", Type: "Vaulted"},
			{Name: "Hall Ceiling", Type: "Flat"},
			{Name: "Great Room", Construction: "Cathedral wood deck"},
		},
	}
	building := Transform(spec, nil, nil)
	require.Len(t, building.Ceilings, 2)
	names := []string{building.Ceilings[0].Name, building.Ceilings[1].Name}
	assert.Contains(t, names, "Living Room Ceiling")
	assert.Contains(t, names, "Great Room")
}

func TestTransform_DeterministicWallOrder(t *testing.T) {
	spec := model.TakeoffSpec{
		HouseWalls: model.HouseWalls{
			model.WallWest:  &model.TakeoffWall{},
			model.WallNorth: &model.TakeoffWall{},
			model.WallEast:  &model.TakeoffWall{},
			model.WallSouth: &model.TakeoffWall{},
		},
	}
	b1 := Transform(spec, nil, nil)
	b2 := Transform(spec, nil, nil)
	assert.Equal(t, b1.Walls, b2.Walls)
	assert.Equal(t, []string{"N Wall", "E Wall", "S Wall", "W Wall"},
		[]string{b1.Walls[0].Name, b1.Walls[1].Name, b1.Walls[2].Name, b1.Walls[3].Name})
}
