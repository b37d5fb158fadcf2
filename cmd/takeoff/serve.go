package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abudker/takeoff24/internal/httpapi"
	"github.com/abudker/takeoff24/internal/takeoff/agent"
	"github.com/abudker/takeoff24/internal/takeoff/fieldmap"
	"github.com/abudker/takeoff24/internal/takeoff/improve"
	"github.com/abudker/takeoff24/internal/takeoff/store"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the read-mostly status server (healthz, metrics, aggregate history)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	return cmd
}

func runServe(ctx context.Context) error {
	if !cfg.Server.Enabled {
		return fmt.Errorf("server.enabled is false; set it (or TITLE24_SERVER_ENABLED=true) to run the status server")
	}

	manifest, err := fieldmap.LoadManifest(cfg.Evals.ManifestPath)
	if err != nil {
		return err
	}
	evalStore := store.NewEvalStore(cfg.Evals.Dir, cfg.Evals.ResultsSubdir)

	server := httpapi.NewServer(cfg.Server.Addr, evalStore, manifest, cfg.Server.JWTSecret, triggerImprovement)

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "status server listening on %s\n", cfg.Server.Addr)
	return server.Run(sigCtx)
}

// triggerImprovement runs one improvement iteration over every eval in
// the manifest, always auto-accepting the critic's proposal: a server
// trigger has no terminal to prompt an operator through, unlike
// `takeoff improve one`'s interactive review.
func triggerImprovement(ctx context.Context) error {
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

	loop := &improve.Loop{
		Store: evalStore,
		Critic: &improve.Critic{
			Executor:        executor,
			InstructionsDir: cfg.Evals.InstructionDir,
			ProjectRoot:     ".",
		},
		Reviewer: improve.AutoAccept{},
		Reextract: &cliReextractor{
			orch:          orch,
			evalStore:     evalStore,
			mapping:       mapping,
			evalsDir:      cfg.Evals.Dir,
			pdfSourceFunc: func(evalID string) ([]sourceInput, error) { return discoverSourcePDFs(cfg.Evals.Dir, evalID) },
		},
		ProjectRoot:     ".",
		SkipExtraction:  cfg.Improve.SkipExtract,
		EnableGitCommit: cfg.Improve.EnableGitAuto,
	}

	result, err := loop.Run(ctx, evalIDs, cfg.Improve.Focus, "")
	if err != nil {
		return err
	}
	for evalID := range result.AfterMetrics {
		mirrorToPostgres(ctx, evalID, evalStore)
		if iteration, ok, err := evalStore.GetLatestIteration(evalID); err == nil && ok {
			mirrorToBlobStore(ctx, evalID, iteration, evalStore.IterationDir(evalID, iteration))
		}
	}
	return nil
}
