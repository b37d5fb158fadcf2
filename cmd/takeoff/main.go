// Command takeoff is the CLI entry point for the Title 24 compliance
// package extraction, verification, and instruction-improvement
// pipeline. Its command tree (extract and verify with one/all, improve
// with one/rollback, plus serve) mirrors
// original_source/src/verifier/cli.py and
// original_source/src/improvement/cli.py, wired against cobra the way
// cmd/arx/main.go builds its own root command.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abudker/takeoff24/internal/takeoff/config"
	"github.com/abudker/takeoff24/internal/takeoff/obs/log"
)

var (
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "takeoff",
	Short: "Extraction, verification, and self-improvement for Title 24 compliance packages",
	Long: `takeoff runs the CBECC-Res/EnergyPro compliance-package extraction
pipeline end to end: discovery, orientation fusion, domain extraction,
merge, field-level verification against ground truth, and an
instruction-improvement loop that proposes changes to the extractor
agents' own instruction files when accuracy stalls.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		log.Configure(cfg.Logging.Level)
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file (defaults to built-in config)")

	rootCmd.AddCommand(
		newExtractCmd(),
		newVerifyCmd(),
		newImproveCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
