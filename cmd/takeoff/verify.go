package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abudker/takeoff24/internal/takeoff/fieldmap"
	"github.com/abudker/takeoff24/internal/takeoff/obs/log"
	"github.com/abudker/takeoff24/internal/takeoff/store"
	"github.com/abudker/takeoff24/internal/takeoff/store/blobsync"
	"github.com/abudker/takeoff24/internal/takeoff/store/pgindex"
	"github.com/abudker/takeoff24/internal/takeoff/verify"
	"github.com/abudker/takeoff24/internal/takeoff/verify/report"
)

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Compare an extraction against its ground-truth CSV and report metrics",
	}
	cmd.AddCommand(newVerifyOneCmd(), newVerifyAllCmd())
	return cmd
}

func newVerifyOneCmd() *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "one <eval_id> <extracted.json>",
		Short: "Verify a single evaluation's extraction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			metrics, discrepancies, err := verifyOne(cmd.Context(), args[0], args[1], save)
			if err != nil {
				return err
			}
			printMetrics(args[0], metrics, len(discrepancies))
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "save results to an iteration directory with an HTML report")
	return cmd
}

func newVerifyAllCmd() *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Verify every evaluation in the manifest against its latest extraction",
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := fieldmap.LoadManifest(cfg.Evals.ManifestPath)
			if err != nil {
				return err
			}
			evalIDs := manifest.EvalIDs()
			if len(evalIDs) == 0 {
				return fmt.Errorf("no evaluations found in manifest %s", cfg.Evals.ManifestPath)
			}

			var allMetrics []verify.FieldMetrics
			var skipped []string
			for _, evalID := range evalIDs {
				extractedPath := latestExtractedPath(evalID)
				if extractedPath == "" {
					skipped = append(skipped, evalID)
					continue
				}
				metrics, _, err := verifyOne(cmd.Context(), evalID, extractedPath, save)
				if err != nil {
					skipped = append(skipped, evalID)
					continue
				}
				allMetrics = append(allMetrics, metrics)
			}

			if len(skipped) > 0 {
				fmt.Printf("Skipped (no extraction results or verification failed): %v\n", skipped)
			}
			if len(allMetrics) == 0 {
				return fmt.Errorf("no evaluations had extraction results to verify")
			}

			aggregate := verify.ComputeAggregateMetrics(allMetrics)
			fmt.Printf("\nAggregate (macro): precision=%.3f recall=%.3f f1=%.3f\n", aggregate.Precision, aggregate.Recall, aggregate.F1)
			fmt.Printf("Aggregate (micro): precision=%.3f recall=%.3f f1=%.3f\n", aggregate.MicroPrecision, aggregate.MicroRecall, aggregate.MicroF1)
			fmt.Printf("Evaluated: %d/%d\n", len(allMetrics), len(evalIDs))
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "save results to iteration directories with HTML reports")
	return cmd
}

// latestExtractedPath finds extracted.json directly under an eval's
// results directory, or within its highest-numbered iteration directory.
func latestExtractedPath(evalID string) string {
	resultsDir := filepath.Join(cfg.Evals.Dir, evalID, cfg.Evals.ResultsSubdir)
	direct := filepath.Join(resultsDir, "extracted.json")
	if _, err := os.Stat(direct); err == nil {
		return direct
	}

	evalStore := store.NewEvalStore(cfg.Evals.Dir, cfg.Evals.ResultsSubdir)
	iteration, ok, err := evalStore.GetLatestIteration(evalID)
	if err != nil || !ok {
		return ""
	}
	iterPath := filepath.Join(evalStore.IterationDir(evalID, iteration), "extracted.json")
	if _, err := os.Stat(iterPath); err != nil {
		return ""
	}
	return iterPath
}

func verifyOne(ctx context.Context, evalID, extractedPath string, save bool) (verify.FieldMetrics, []verify.FieldDiscrepancy, error) {
	mapping, err := fieldmap.Load(cfg.Evals.FieldMapPath)
	if err != nil {
		return verify.FieldMetrics{}, nil, err
	}

	groundTruth, err := verify.LoadGroundTruthCSV(groundTruthPath(cfg.Evals.Dir, evalID), mapping)
	if err != nil {
		return verify.FieldMetrics{}, nil, err
	}

	raw, err := os.ReadFile(extractedPath)
	if err != nil {
		return verify.FieldMetrics{}, nil, err
	}
	var extracted map[string]any
	if err := json.Unmarshal(raw, &extracted); err != nil {
		return verify.FieldMetrics{}, nil, fmt.Errorf("parsing %s: %w", extractedPath, err)
	}

	discrepancies := verify.CompareFields(groundTruth, extracted, mapping)
	gtFlat := verify.FlattenDict(groundTruth, "")
	extFlat := verify.FlattenDict(extracted, "")
	metrics := verify.ComputeFieldLevelMetrics(discrepancies, len(gtFlat), len(extFlat))

	if save {
		evalStore := store.NewEvalStore(cfg.Evals.Dir, cfg.Evals.ResultsSubdir)
		next, err := evalStore.GetNextIteration(evalID)
		if err != nil {
			return metrics, discrepancies, err
		}
		history, _ := evalStore.GetHistory(evalID)
		records := verify.ToDiscrepancyRecords(discrepancies)
		htmlReport := report.NewEvalReport(evalID, metrics, records, next, history)
		html, err := htmlReport.RenderHTML()
		if err != nil {
			return metrics, discrepancies, err
		}
		results := store.EvalResults{
			EvalID:        evalID,
			Metrics:       verify.ToIterationMetrics(metrics),
			Discrepancies: records,
		}
		if _, err := evalStore.SaveIteration(evalID, next, extracted, results, html); err != nil {
			return metrics, discrepancies, err
		}
		mirrorToPostgres(ctx, evalID, evalStore)
		mirrorToBlobStore(ctx, evalID, next, evalStore.IterationDir(evalID, next))
	}

	return metrics, discrepancies, nil
}

func printMetrics(evalID string, metrics verify.FieldMetrics, discrepancyCount int) {
	fmt.Printf("%s: precision=%.3f recall=%.3f f1=%.3f discrepancies=%d\n", evalID, metrics.Precision, metrics.Recall, metrics.F1, discrepancyCount)
}

// mirrorToPostgres is a best-effort sync of the just-saved aggregate
// history into the optional SQL index. It never fails the CLI command:
// a log line is the only observable effect of a mirror error.
func mirrorToPostgres(ctx context.Context, evalID string, evalStore *store.EvalStore) {
	if cfg.Postgres.DSN == "" {
		return
	}
	logger := log.Named("cli.verify.pgindex")
	idx, err := pgindex.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Warnw("postgres mirror unavailable", "error", err)
		return
	}
	defer idx.Close()

	aggregate, err := evalStore.LoadAggregate(evalID)
	if err != nil {
		logger.Warnw("loading aggregate for postgres mirror", "eval_id", evalID, "error", err)
		return
	}
	if err := idx.MirrorAggregate(ctx, aggregate); err != nil {
		logger.Warnw("mirroring iteration history to postgres", "eval_id", evalID, "error", err)
	}
}

// mirrorToBlobStore is a best-effort upload of one iteration's artifacts
// to the configured cloud bucket. Like mirrorToPostgres, failures are
// logged and swallowed rather than failing the CLI command.
func mirrorToBlobStore(ctx context.Context, evalID string, iteration int, iterationDir string) {
	if cfg.Blob.Provider == "" {
		return
	}
	logger := log.Named("cli.verify.blobsync")
	sink, err := blobsync.NewSink(ctx, cfg.Blob)
	if err != nil {
		logger.Warnw("blob sink unavailable", "provider", cfg.Blob.Provider, "error", err)
		return
	}
	if err := blobsync.MirrorEvalArtifacts(ctx, sink, evalID, iteration, iterationDir); err != nil {
		logger.Warnw("mirroring artifacts to blob store", "eval_id", evalID, "error", err)
	}
}
