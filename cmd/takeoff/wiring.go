package main

import (
	"context"
	"fmt"

	"github.com/abudker/takeoff24/internal/takeoff/agent"
	"github.com/abudker/takeoff24/internal/takeoff/concurrency"
	"github.com/abudker/takeoff24/internal/takeoff/config"
	"github.com/abudker/takeoff24/internal/takeoff/cvsensors"
	"github.com/abudker/takeoff24/internal/takeoff/discovery"
	"github.com/abudker/takeoff24/internal/takeoff/discovery/cache"
	"github.com/abudker/takeoff24/internal/takeoff/extract"
	"github.com/abudker/takeoff24/internal/takeoff/fieldmap"
	"github.com/abudker/takeoff24/internal/takeoff/orchestrator"
	"github.com/abudker/takeoff24/internal/takeoff/orientation"
	"github.com/abudker/takeoff24/internal/takeoff/projectinfo"
	"github.com/abudker/takeoff24/internal/takeoff/store"
	"github.com/abudker/takeoff24/internal/takeoff/verify"
)

// noopRasterProvider always fails to rasterize: the image rasterizer is
// an external collaborator outside this module's scope (pdfcpu can
// validate and measure PDFs but can't render page images on its own).
// Orchestrator.collectCVHints treats a failing RasterProvider as "no CV
// hints available" rather than a fatal error.
type noopRasterProvider struct{}

func (noopRasterProvider) Raster(ctx context.Context, pageNumber int) (*cvsensors.Raster, error) {
	return nil, fmt.Errorf("rasterizer not wired in this build")
}

// buildOrchestrator assembles C8's Orchestrator from the resolved
// configuration: a fresh agent executor, discovery cache (hot ristretto
// front + on-disk JSON store), orientation/project-info runners, and the
// domain fan-out runner under its shared semaphore.
func buildOrchestrator(cfg config.Config, instructionFiles orchestrator.InstructionPointers) (*orchestrator.Orchestrator, error) {
	executor := agent.NewProcessExecutor(cfg.Agent.Binary, cfg.Agent.DiscoveryRatePerSec, 1)

	hotCache, err := cache.NewHotCache()
	if err != nil {
		return nil, fmt.Errorf("building hot cache: %w", err)
	}

	return &orchestrator.Orchestrator{
		Discovery: &discovery.Runner{
			Executor:  executor,
			FileStore: cache.NewFileStore(".cache"),
			HotCache:  hotCache,
		},
		Orientation:      &orientation.Runner{Executor: executor},
		ProjectInfo:      &projectinfo.Runner{Executor: executor},
		DomainExtract:    &extract.Runner{Executor: executor, Semaphore: concurrency.NewSemaphore(cfg.Agent.SemaphoreCapacity)},
		Rasters:          noopRasterProvider{},
		InstructionFiles: instructionFiles,
	}, nil
}

// cliReextractor implements improve.Reextractor by re-running the full
// orchestrator and field comparator for each affected evaluation. It's
// the concrete collaborator improve.Loop's abstract interface was built
// to keep out of the improve package itself.
type cliReextractor struct {
	orch          *orchestrator.Orchestrator
	evalStore     *store.EvalStore
	mapping       fieldmap.Mapping
	evalsDir      string
	pdfSourceFunc func(evalID string) ([]sourceInput, error)
}

type sourceInput struct {
	Path     string
	Filename string
}

func (r *cliReextractor) ReextractAndVerify(ctx context.Context, evalIDs []string) (map[string]store.IterationMetrics, error) {
	out := make(map[string]store.IterationMetrics, len(evalIDs))
	for _, evalID := range evalIDs {
		metrics, err := r.reextractOne(ctx, evalID)
		if err != nil {
			return out, fmt.Errorf("reextracting %s: %w", evalID, err)
		}
		out[evalID] = metrics
	}
	return out, nil
}

func (r *cliReextractor) reextractOne(ctx context.Context, evalID string) (store.IterationMetrics, error) {
	inputs, err := r.pdfSourceFunc(evalID)
	if err != nil {
		return store.IterationMetrics{}, err
	}

	sources, err := inspectSources(inputs)
	if err != nil {
		return store.IterationMetrics{}, err
	}

	building, err := r.orch.Run(ctx, evalID, sources)
	if err != nil {
		return store.IterationMetrics{}, err
	}

	extracted, err := verify.ToMap(building)
	if err != nil {
		return store.IterationMetrics{}, err
	}

	groundTruth, err := verify.LoadGroundTruthCSV(groundTruthPath(r.evalsDir, evalID), r.mapping)
	if err != nil {
		return store.IterationMetrics{}, err
	}

	discrepancies := verify.CompareFields(groundTruth, extracted, r.mapping)
	gtFlat := verify.FlattenDict(groundTruth, "")
	extFlat := verify.FlattenDict(extracted, "")
	fieldMetrics := verify.ComputeFieldLevelMetrics(discrepancies, len(gtFlat), len(extFlat))

	next, err := r.evalStore.GetNextIteration(evalID)
	if err != nil {
		return store.IterationMetrics{}, err
	}

	results := store.EvalResults{
		EvalID:        evalID,
		Metrics:       verify.ToIterationMetrics(fieldMetrics),
		Discrepancies: verify.ToDiscrepancyRecords(discrepancies),
	}
	if _, err := r.evalStore.SaveIteration(evalID, next, extracted, results, ""); err != nil {
		return store.IterationMetrics{}, err
	}

	return results.Metrics, nil
}
