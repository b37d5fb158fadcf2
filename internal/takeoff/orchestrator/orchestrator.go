// Package orchestrator implements C8: the straight-line stage sequence
// with one concurrent branch (orientation fused with project-info
// extraction) that produces a BuildingSpec and its timing breakdown.
package orchestrator

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/abudker/takeoff24/internal/takeoff/cvsensors"
	"github.com/abudker/takeoff24/internal/takeoff/discovery"
	"github.com/abudker/takeoff24/internal/takeoff/extract"
	"github.com/abudker/takeoff24/internal/takeoff/merge"
	"github.com/abudker/takeoff24/internal/takeoff/model"
	"github.com/abudker/takeoff24/internal/takeoff/obs/errs"
	"github.com/abudker/takeoff24/internal/takeoff/obs/log"
	"github.com/abudker/takeoff24/internal/takeoff/obs/metrics"
	"github.com/abudker/takeoff24/internal/takeoff/orientation"
	"github.com/abudker/takeoff24/internal/takeoff/pagerouter"
	"github.com/abudker/takeoff24/internal/takeoff/projectinfo"
)

// RasterProvider renders one page to a CV raster; its implementation
// belongs to the external rasterizer collaborator, not the core.
type RasterProvider interface {
	Raster(ctx context.Context, pageNumber int) (*cvsensors.Raster, error)
}

// InstructionPointers names the instruction file each domain extractor
// should be told to follow.
type InstructionPointers map[extract.Domain]string

// Orchestrator wires every stage together.
type Orchestrator struct {
	Discovery        *discovery.Runner
	Orientation      *orientation.Runner
	ProjectInfo      *projectinfo.Runner
	DomainExtract    *extract.Runner
	Rasters          RasterProvider
	InstructionFiles InstructionPointers
}

// Run executes one full extraction for evalID against the given source
// PDFs, returning the BuildingSpec and an error only for fatal-to-
// evaluation failures (domain partial failures are absorbed into the
// extraction status map, not surfaced as an error).
func (o *Orchestrator) Run(ctx context.Context, evalID string, sources []model.SourcePDF) (model.BuildingSpec, error) {
	logger := log.Named("orchestrator")
	totalStart := time.Now()
	var timing model.Timing

	if len(sources) == 0 {
		return model.BuildingSpec{}, errs.New(errs.FatalToEvaluation, "orchestrator", "no source PDFs found")
	}

	// Stage 1: discovery.
	stageStart := time.Now()
	doc, err := o.Discovery.Discover(ctx, evalID, sources)
	timing.DiscoverySeconds = time.Since(stageStart).Seconds()
	metrics.ObserveStage("discovery", stageStart)
	if err != nil {
		return model.BuildingSpec{}, err
	}
	logger.Infow("discovery complete", "eval_id", evalID, "total_pages", doc.TotalPages)

	// Stage 2: orientation fusion and project-info extraction, concurrently.
	stageStart = time.Now()
	verification, project, err := o.runOrientationAndProject(ctx, doc)
	if err != nil {
		return model.BuildingSpec{}, err
	}
	timing.OrientationSeconds = time.Since(stageStart).Seconds()
	timing.ProjectSeconds = timing.OrientationSeconds // parallel branch: reports the max of both awaits
	metrics.ObserveStage("orientation_project", stageStart)

	front := orientation.FrontOrientationContext(verification.FinalBearing)

	// Stage 3: domain fan-out.
	stageStart = time.Now()
	results := o.runDomainFanout(ctx, doc, front)
	timing.DomainFanoutSeconds = time.Since(stageStart).Seconds()
	metrics.ObserveStage("domain_fanout", stageStart)

	// Stage 4: merge the domain payloads into the TakeoffSpec, collecting
	// per-domain statuses and dedup conflicts along the way.
	stageStart = time.Now()
	zones, windows, hvac, dhw := decodeDomainPayloads(results)
	statuses := make(map[string]model.ExtractionStatus, len(results))
	for domain, res := range results {
		statuses[string(domain)] = res.Status
	}

	spec, conflicts := merge.BuildTakeoffSpec(project, zones, windows, hvac, dhw)
	timing.MergeSeconds = time.Since(stageStart).Seconds()
	metrics.ObserveStage("merge", stageStart)

	// Stage 5: transform to BuildingSpec.
	building := merge.Transform(spec, statuses, conflicts)
	building.Project.OrientationDeg = verification.FinalBearing

	timing.TotalSeconds = time.Since(totalStart).Seconds()
	building.Timing = timing

	logger.Infow("extraction complete", "eval_id", evalID, "total_seconds", timing.TotalSeconds)
	return building, nil
}

func (o *Orchestrator) runOrientationAndProject(ctx context.Context, doc model.DocumentMap) (model.OrientationVerification, model.ProjectInfo, error) {
	var wg sync.WaitGroup
	var verification model.OrientationVerification
	var project model.ProjectInfo
	var projectErr error

	orientationPages := pagerouter.PagesFor(doc, pagerouter.DomainOrientation)
	projectPages := pagerouter.PagesFor(doc, pagerouter.DomainProject)
	hints := o.collectCVHints(ctx, orientationPages)

	wg.Add(2)
	go func() {
		defer wg.Done()
		verification = o.Orientation.Run(ctx,
			orientationPass1Prompt(doc, orientationPages, hints),
			orientationPass2Prompt(doc, orientationPages, hints))
	}()
	go func() {
		defer wg.Done()
		project, projectErr = o.ProjectInfo.Run(ctx, projectInfoPrompt(doc, projectPages))
	}()
	wg.Wait()
	if projectErr != nil {
		return model.OrientationVerification{}, model.ProjectInfo{}, projectErr
	}
	return verification, project, nil
}

// collectCVHints rasterizes and runs the deterministic CV sensors over
// every orientation-relevant page. A page the rasterizer can't produce is
// skipped rather than failing the whole stage: CV hints are advisory
// input to the LLM passes, not a hard dependency.
func (o *Orchestrator) collectCVHints(ctx context.Context, pages []int) map[int]model.CVHints {
	hints := make(map[int]model.CVHints, len(pages))
	if o.Rasters == nil {
		return hints
	}
	for _, page := range pages {
		raster, err := o.Rasters.Raster(ctx, page)
		if err != nil {
			continue
		}
		hints[page] = cvsensors.Detect(raster, page)
	}
	return hints
}

func (o *Orchestrator) runDomainFanout(ctx context.Context, doc model.DocumentMap, front model.FrontOrientationContext) map[extract.Domain]extract.DomainResult {
	var requests []extract.Request
	for _, domain := range extract.AllDomains() {
		pages := pagerouter.PagesFor(doc, pagerouter.Domain(domain))
		var frontCtx *model.FrontOrientationContext
		if domain == extract.DomainZones || domain == extract.DomainWindows {
			frontCtx = &front
		}
		requests = append(requests, extract.Request{
			Domain: domain,
			Prompt: domainPrompt(doc, pages, frontCtx, o.InstructionFiles[domain]),
		})
	}
	return o.DomainExtract.RunAll(ctx, requests)
}

func decodeDomainPayloads(results map[extract.Domain]extract.DomainResult) (*merge.ZonesPayload, *merge.WindowsPayload, *merge.HVACPayload, *merge.DHWPayload) {
	var zones *merge.ZonesPayload
	var windows *merge.WindowsPayload
	var hvac *merge.HVACPayload
	var dhw *merge.DHWPayload

	if res, ok := results[extract.DomainZones]; ok && res.Payload != nil {
		var p merge.ZonesPayload
		if decodeJSON(res.Payload, &p) {
			zones = &p
		}
	}
	if res, ok := results[extract.DomainWindows]; ok && res.Payload != nil {
		var p merge.WindowsPayload
		if decodeJSON(res.Payload, &p) {
			windows = &p
		}
	}
	if res, ok := results[extract.DomainHVAC]; ok && res.Payload != nil {
		var p merge.HVACPayload
		if decodeJSON(res.Payload, &p) {
			hvac = &p
		}
	}
	if res, ok := results[extract.DomainDHW]; ok && res.Payload != nil {
		var p merge.DHWPayload
		if decodeJSON(res.Payload, &p) {
			dhw = &p
		}
	}
	return zones, windows, hvac, dhw
}

func decodeJSON(raw []byte, out any) bool {
	return json.Unmarshal(raw, out) == nil
}
