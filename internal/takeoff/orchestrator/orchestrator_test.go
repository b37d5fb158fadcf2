package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abudker/takeoff24/internal/takeoff/agent"
	"github.com/abudker/takeoff24/internal/takeoff/concurrency"
	"github.com/abudker/takeoff24/internal/takeoff/discovery"
	"github.com/abudker/takeoff24/internal/takeoff/discovery/cache"
	"github.com/abudker/takeoff24/internal/takeoff/extract"
	"github.com/abudker/takeoff24/internal/takeoff/model"
	"github.com/abudker/takeoff24/internal/takeoff/orientation"
	"github.com/abudker/takeoff24/internal/takeoff/projectinfo"
)

func TestRun_FailsFatallyWithNoSources(t *testing.T) {
	o := &Orchestrator{}
	_, err := o.Run(context.Background(), "eval-1", nil)
	assert.Error(t, err)
}

func TestRun_FullHappyPath(t *testing.T) {
	fake := agent.NewFakeExecutor()
	fake.QueueReply("discovery", `{
		"cache_version": 1, "total_pages": 1,
		"pages": [{"page_number": 1, "ref": {"source_pdf": "a.pdf", "local_page": 1}, "type": "drawing", "subtype": "site_plan", "confidence": "high"}],
		"sources": {"a.pdf": {"filename": "a.pdf", "page_count": 1}}
	}`)
	fake.QueueReply("orientation_pass1_north_arrow", `{"status": "success", "bearing": 90, "confidence": "high"}`)
	fake.QueueReply("orientation_pass2_elevation_labels", `{"status": "success", "bearing": 92, "confidence": "high"}`)
	fake.QueueReply("extract_project", `{"run_title": "Test House", "climate_zone": 12}`)
	fake.QueueReply("extract_zones", `{"walls": [{"name": "E Wall", "wall_key": "east", "gross_area": 300}]}`)
	fake.QueueReply("extract_windows", `{"windows": [{"name": "W1", "area": 15, "multiplier": 1, "wall_key": "east"}]}`)
	fake.QueueReply("extract_hvac", `{"systems": [{"name": "Furnace-1", "type": "gas"}]}`)
	fake.QueueReply("extract_dhw", `{"systems": [{"name": "WH-1", "type": "tankless"}]}`)

	o := &Orchestrator{
		Discovery:     &discovery.Runner{Executor: fake, FileStore: cache.NewFileStore(t.TempDir())},
		Orientation:   &orientation.Runner{Executor: fake},
		ProjectInfo:   &projectinfo.Runner{Executor: fake},
		DomainExtract: &extract.Runner{Executor: fake, Semaphore: concurrency.NewSemaphore(4)},
	}

	building, err := o.Run(context.Background(), "eval-1", []model.SourcePDF{{Filename: "a.pdf", PageCount: 1}})
	require.NoError(t, err)

	assert.Equal(t, "Test House", building.Project.RunTitle)
	require.Len(t, building.Walls, 1)
	assert.Equal(t, "E Wall", building.Walls[0].Name)
	assert.Equal(t, 15.0, building.Walls[0].WindowArea)
	require.Len(t, building.HVAC, 1)
	require.Len(t, building.DHW, 1)
	assert.Equal(t, model.ExtractionSuccess, building.ExtractionStatus["zones"].Status)
	assert.Greater(t, building.Timing.TotalSeconds, 0.0)
}

func TestRun_AbortsWhenProjectInfoFails(t *testing.T) {
	fake := agent.NewFakeExecutor()
	fake.QueueReply("discovery", `{
		"cache_version": 1, "total_pages": 1,
		"pages": [{"page_number": 1, "ref": {"source_pdf": "a.pdf", "local_page": 1}, "type": "drawing", "subtype": "site_plan", "confidence": "high"}],
		"sources": {"a.pdf": {"filename": "a.pdf", "page_count": 1}}
	}`)
	fake.QueueReply("orientation_pass1_north_arrow", `{"status": "success", "bearing": 90, "confidence": "high"}`)
	fake.QueueReply("orientation_pass2_elevation_labels", `{"status": "success", "bearing": 92, "confidence": "high"}`)
	fake.QueueError("extract_project", errors.New("agent unreachable"))

	o := &Orchestrator{
		Discovery:     &discovery.Runner{Executor: fake, FileStore: cache.NewFileStore(t.TempDir())},
		Orientation:   &orientation.Runner{Executor: fake},
		ProjectInfo:   &projectinfo.Runner{Executor: fake},
		DomainExtract: &extract.Runner{Executor: fake, Semaphore: concurrency.NewSemaphore(4)},
	}

	_, err := o.Run(context.Background(), "eval-1", []model.SourcePDF{{Filename: "a.pdf", PageCount: 1}})
	require.Error(t, err)
}
