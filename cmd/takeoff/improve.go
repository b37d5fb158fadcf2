package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abudker/takeoff24/cmd/takeoff/tui"
	"github.com/abudker/takeoff24/internal/takeoff/agent"
	"github.com/abudker/takeoff24/internal/takeoff/fieldmap"
	"github.com/abudker/takeoff24/internal/takeoff/improve"
	"github.com/abudker/takeoff24/internal/takeoff/obs/log"
	"github.com/abudker/takeoff24/internal/takeoff/store"
)

func newImproveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "improve",
		Short: "Run or roll back an instruction-improvement iteration",
	}
	cmd.AddCommand(newImproveOneCmd(), newImproveRollbackCmd())
	return cmd
}

func newImproveOneCmd() *cobra.Command {
	var auto bool
	var focus string
	var skipExtraction bool

	cmd := &cobra.Command{
		Use:   "one",
		Short: "Run one improvement iteration over every evaluation in the manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImproveOne(cmd.Context(), auto, focus, skipExtraction)
		},
	}
	cmd.Flags().BoolVar(&auto, "auto", false, "accept the critic's proposal without prompting")
	cmd.Flags().StringVar(&focus, "focus", "", "scope the critic to one extractor agent's instructions")
	cmd.Flags().BoolVar(&skipExtraction, "skip-extraction", false, "don't re-extract/re-verify after applying the proposal")
	return cmd
}

func runImproveOne(ctx context.Context, auto bool, focus string, skipExtraction bool) error {
	runID := uuid.New().String()
	log.Named("improve").Infow("starting improvement iteration", "run_id", runID, "focus", focus)

	manifest, err := fieldmap.LoadManifest(cfg.Evals.ManifestPath)
	if err != nil {
		return err
	}
	evalIDs := manifest.EvalIDs()
	if len(evalIDs) == 0 {
		return fmt.Errorf("no evaluations found in manifest %s", cfg.Evals.ManifestPath)
	}

	executor := agent.NewProcessExecutor(cfg.Agent.Binary, cfg.Agent.DiscoveryRatePerSec, 1)
	evalStore := store.NewEvalStore(cfg.Evals.Dir, cfg.Evals.ResultsSubdir)

	mapping, err := fieldmap.Load(cfg.Evals.FieldMapPath)
	if err != nil {
		return err
	}

	orch, err := buildOrchestrator(cfg, defaultInstructionPointers(cfg.Evals.InstructionDir))
	if err != nil {
		return err
	}

	var reviewer improve.Reviewer = tui.NewReviewer()
	if auto || cfg.Improve.Auto {
		reviewer = improve.AutoAccept{}
	}

	loop := &improve.Loop{
		Store: evalStore,
		Critic: &improve.Critic{
			Executor:        executor,
			InstructionsDir: cfg.Evals.InstructionDir,
			ProjectRoot:     ".",
		},
		Reviewer: reviewer,
		Reextract: &cliReextractor{
			orch:          orch,
			evalStore:     evalStore,
			mapping:       mapping,
			evalsDir:      cfg.Evals.Dir,
			pdfSourceFunc: func(evalID string) ([]sourceInput, error) { return discoverSourcePDFs(cfg.Evals.Dir, evalID) },
		},
		ProjectRoot:     ".",
		SkipExtraction:  skipExtraction || cfg.Improve.SkipExtract,
		EnableGitCommit: cfg.Improve.EnableGitAuto,
	}

	result, err := loop.Run(ctx, evalIDs, focus, "")
	if err != nil {
		return err
	}

	switch result.Decision {
	case improve.Reject:
		fmt.Println("Proposal rejected; no changes applied.")
	case improve.Skip:
		fmt.Println("Proposal skipped; no changes applied.")
	default:
		fmt.Printf("Applied proposal to %s: %s -> %s\n", result.Proposal.TargetFile, result.OldVersion, result.NewVersion)
		if len(result.AfterMetrics) > 0 {
			fmt.Println(tui.RenderMetricsComparison(beforeMetricsByEval(result.BeforeMetrics, evalIDs), result.AfterMetrics))
		}
		if result.Committed {
			fmt.Println("Committed instruction change to git.")
		}
		log.Named("improve").Infow("improvement iteration applied", "run_id", runID, "target_file", result.Proposal.TargetFile)
		for evalID := range result.AfterMetrics {
			mirrorToPostgres(ctx, evalID, evalStore)
			if iteration, ok, err := evalStore.GetLatestIteration(evalID); err == nil && ok {
				mirrorToBlobStore(ctx, evalID, iteration, evalStore.IterationDir(evalID, iteration))
			}
		}
	}
	return nil
}

// beforeMetricsByEval has no per-eval before/after pairing in
// FailureAnalysis (it's aggregated across evals), so the comparison
// falls back to the aggregate F1 for every evaluation id — good enough
// for the summary table's purpose of showing direction of movement.
func beforeMetricsByEval(before improve.FailureAnalysis, evalIDs []string) map[string]store.IterationMetrics {
	out := make(map[string]store.IterationMetrics, len(evalIDs))
	for _, id := range evalIDs {
		out[id] = store.IterationMetrics{
			Precision: before.AggregatePrecision,
			Recall:    before.AggregateRecall,
			F1:        before.AggregateF1,
		}
	}
	return out
}

func newImproveRollbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback <iteration>",
		Short: "Restore instruction files from an iteration's snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImproveRollback(args[0])
		},
	}
	return cmd
}

func runImproveRollback(iterationArg string) error {
	manifest, err := fieldmap.LoadManifest(cfg.Evals.ManifestPath)
	if err != nil {
		return err
	}
	evalIDs := manifest.EvalIDs()
	if len(evalIDs) == 0 {
		return fmt.Errorf("no evaluations found in manifest %s", cfg.Evals.ManifestPath)
	}

	evalStore := store.NewEvalStore(cfg.Evals.Dir, cfg.Evals.ResultsSubdir)

	var restoredAny bool
	for _, evalID := range evalIDs {
		iterationDir := iterationDirFromArg(evalStore, evalID, iterationArg)
		restored, err := improve.RollbackIteration(cfg.Evals.InstructionDir, iterationDir)
		if err != nil {
			return fmt.Errorf("rolling back %s: %w", evalID, err)
		}
		for _, path := range restored {
			fmt.Printf("Restored %s (from %s)\n", path, evalID)
			restoredAny = true
		}
	}
	if !restoredAny {
		fmt.Println("No instruction-change snapshots found for that iteration.")
	}
	return nil
}

func iterationDirFromArg(evalStore *store.EvalStore, evalID, iterationArg string) string {
	var iteration int
	fmt.Sscanf(iterationArg, "%d", &iteration)
	return evalStore.IterationDir(evalID, iteration)
}
