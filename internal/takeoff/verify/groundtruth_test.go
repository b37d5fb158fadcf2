package verify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abudker/takeoff24/internal/takeoff/fieldmap"
)

func writeCSV(t *testing.T, lines ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ground_truth.csv")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadGroundTruthCSV_KeyValueRows(t *testing.T) {
	path := writeCSV(t,
		`,Run Title,Test House,`,
		`,Climate Zone,12,`,
	)
	mapping := fieldmap.Mapping{
		CSVToJSON: map[string]string{
			"Run Title":    "project.run_title",
			"Climate Zone": "project.climate_zone",
		},
	}
	gt, err := LoadGroundTruthCSV(path, mapping)
	require.NoError(t, err)

	project := gt["project"].(map[string]any)
	assert.Equal(t, "Test House", project["run_title"])
	assert.Equal(t, 12, project["climate_zone"])
}

func TestLoadGroundTruthCSV_ArraySection(t *testing.T) {
	path := writeCSV(t,
		`,Zones:,Name,Area`,
		`,,N Zone,500`,
		`,,S Zone,600`,
		``,
	)
	mapping := fieldmap.Mapping{
		ArrayMappings: map[string]fieldmap.ArrayMapping{
			"zones": {
				CSVSection: "Zones:",
				Fields:     map[string]string{"Name": "name", "Area": "area"},
			},
		},
	}
	gt, err := LoadGroundTruthCSV(path, mapping)
	require.NoError(t, err)

	zones := gt["zones"].([]any)
	require.Len(t, zones, 2)
	first := zones[0].(map[string]any)
	assert.Equal(t, "N Zone", first["name"])
	assert.Equal(t, 500, first["area"])
}

func TestParseValue_BoolNumericStringVariants(t *testing.T) {
	assert.Equal(t, true, parseValue("Yes"))
	assert.Equal(t, false, parseValue("no"))
	assert.Equal(t, 42, parseValue("42"))
	assert.Equal(t, 3.5, parseValue("3.5"))
	assert.Equal(t, "gas furnace", parseValue("gas furnace"))
	assert.Nil(t, parseValue("  "))
}

func TestSetNestedValueWithArrays_IndexedPath(t *testing.T) {
	result := map[string]any{}
	setNestedValueWithArrays(result, "windows[1].area", 15.0)
	windows := result["windows"].([]any)
	require.Len(t, windows, 2)
	assert.Nil(t, windows[0].(map[string]any)["area"])
	assert.Equal(t, 15.0, windows[1].(map[string]any)["area"])
}
