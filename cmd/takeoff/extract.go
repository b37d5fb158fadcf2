package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/abudker/takeoff24/internal/takeoff/extract"
	"github.com/abudker/takeoff24/internal/takeoff/fieldmap"
	"github.com/abudker/takeoff24/internal/takeoff/obs/log"
	"github.com/abudker/takeoff24/internal/takeoff/orchestrator"
)

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Run the extraction orchestrator against one or all evaluations",
	}
	cmd.AddCommand(newExtractOneCmd(), newExtractAllCmd())
	return cmd
}

func defaultInstructionPointers(instructionDir string) orchestrator.InstructionPointers {
	return orchestrator.InstructionPointers{
		extract.DomainZones:   filepath.Join(instructionDir, "zones-extractor", "rules.md"),
		extract.DomainWindows: filepath.Join(instructionDir, "windows-extractor", "rules.md"),
		extract.DomainHVAC:    filepath.Join(instructionDir, "hvac-extractor", "rules.md"),
		extract.DomainDHW:     filepath.Join(instructionDir, "dhw-extractor", "rules.md"),
	}
}

func newExtractOneCmd() *cobra.Command {
	var domains []string
	var force bool

	cmd := &cobra.Command{
		Use:   "one <eval_id>",
		Short: "Run extraction for a single evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtractOne(cmd.Context(), args[0], domains, force)
		},
	}
	cmd.Flags().StringSliceVar(&domains, "domains", nil, "restrict to a subset of domains (zones,windows,hvac,dhw)")
	cmd.Flags().BoolVar(&force, "force", false, "re-extract even if a result already exists")
	return cmd
}

func newExtractAllCmd() *cobra.Command {
	var domains []string
	var workers int
	var force, skipExisting bool

	cmd := &cobra.Command{
		Use:   "all",
		Short: "Run extraction for every evaluation in the manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtractAll(cmd.Context(), domains, workers, force, skipExisting)
		},
	}
	cmd.Flags().StringSliceVar(&domains, "domains", nil, "restrict to a subset of domains (zones,windows,hvac,dhw)")
	cmd.Flags().IntVar(&workers, "workers", 1, "number of evaluations to extract concurrently")
	cmd.Flags().BoolVar(&force, "force", false, "re-extract even if a result already exists")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "skip evaluations that already have extracted.json")
	return cmd
}

func runExtractOne(ctx context.Context, evalID string, domains []string, force bool) error {
	logger := log.Named("cli.extract")

	resultsDir := filepath.Join(cfg.Evals.Dir, evalID, cfg.Evals.ResultsSubdir)
	extractedPath := filepath.Join(resultsDir, "extracted.json")
	if !force {
		if _, err := os.Stat(extractedPath); err == nil {
			logger.Infow("extracted.json already exists, skipping (use --force)", "eval_id", evalID)
			return nil
		}
	}

	orch, err := buildOrchestrator(cfg, scopedInstructionPointers(domains))
	if err != nil {
		return err
	}

	inputs, err := discoverSourcePDFs(cfg.Evals.Dir, evalID)
	if err != nil {
		return err
	}
	sources, err := inspectSources(inputs)
	if err != nil {
		return err
	}

	building, err := orch.Run(ctx, evalID, sources)
	if err != nil {
		return fmt.Errorf("extraction failed for %s: %w", evalID, err)
	}

	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(building, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(extractedPath, data, 0o644); err != nil {
		return err
	}

	logger.Infow("extraction complete", "eval_id", evalID, "total_seconds", building.Timing.TotalSeconds)
	fmt.Printf("Extracted %s -> %s (%.1fs)\n", evalID, extractedPath, building.Timing.TotalSeconds)
	return nil
}

func scopedInstructionPointers(domains []string) orchestrator.InstructionPointers {
	all := defaultInstructionPointers(cfg.Evals.InstructionDir)
	if len(domains) == 0 {
		return all
	}
	allowed := map[string]struct{}{}
	for _, d := range domains {
		allowed[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}
	scoped := orchestrator.InstructionPointers{}
	for domain, path := range all {
		if _, ok := allowed[string(domain)]; ok {
			scoped[domain] = path
		}
	}
	return scoped
}

func runExtractAll(ctx context.Context, domains []string, workers int, force, skipExisting bool) error {
	manifest, err := fieldmap.LoadManifest(cfg.Evals.ManifestPath)
	if err != nil {
		return err
	}
	evalIDs := manifest.EvalIDs()
	if len(evalIDs) == 0 {
		return fmt.Errorf("no evaluations found in manifest %s", cfg.Evals.ManifestPath)
	}
	if workers < 1 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures []string

	for _, evalID := range evalIDs {
		resultsDir := filepath.Join(cfg.Evals.Dir, evalID, cfg.Evals.ResultsSubdir)
		if skipExisting {
			if _, err := os.Stat(filepath.Join(resultsDir, "extracted.json")); err == nil {
				continue
			}
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(evalID string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := runExtractOne(ctx, evalID, domains, force); err != nil {
				mu.Lock()
				failures = append(failures, fmt.Sprintf("%s: %v", evalID, err))
				mu.Unlock()
			}
		}(evalID)
	}
	wg.Wait()

	if len(failures) > 0 {
		return fmt.Errorf("%d evaluation(s) failed:\n%s", len(failures), strings.Join(failures, "\n"))
	}
	return nil
}
