// Package cmd - mcmc command
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"vacuum-landscape/core/mcmc"
	"vacuum-landscape/internal/config"
	"vacuum-landscape/internal/logging"
)

var (
	mcmcConfigPath string
	mcmcInputPath  string
	mcmcOutDir     string
	mcmcResumePath string
)

// mcmcCmd represents the mcmc command
var mcmcCmd = &cobra.Command{
	Use:   "mcmc",
	Short: "Execute a replica-exchange sampler run",
	Long: `Execute a sampler run from a YAML configuration and an initial
state manifest, or resume one from a checkpoint.

The state manifest is a JSON file pointing at serialized code and graph
inputs: {"code": "code.json", "graph": "graph.json"}.

Examples:
  vacuum-landscape mcmc --config run.yaml --in state.json --out runs/a
  vacuum-landscape mcmc --resume runs/a/checkpoints/ckpt_00016.json --out runs/a2`,
	RunE: runMcmc,
}

func init() {
	mcmcCmd.Flags().StringVarP(&mcmcConfigPath, "config", "c", "", "YAML configuration describing the sampler run")
	mcmcCmd.Flags().StringVar(&mcmcInputPath, "in", "", "JSON manifest pointing to serialized code and graph inputs")
	mcmcCmd.Flags().StringVarP(&mcmcOutDir, "out", "o", "", "output directory for run artefacts")
	mcmcCmd.Flags().StringVar(&mcmcResumePath, "resume", "", "checkpoint file to resume from")
}

func runMcmc(cmd *cobra.Command, args []string) error {
	out := mcmcOutDir
	if out == "" {
		out = config.Get().Runs.OutputDirectory
	}
	if err := os.MkdirAll(out, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if mcmcResumePath != "" {
		logging.Info("Resuming sampler run")
		summary, err := mcmc.Resume(mcmcResumePath)
		if err != nil {
			return err
		}
		return writeRunOutputs(out, summary)
	}

	if mcmcConfigPath == "" || mcmcInputPath == "" {
		return fmt.Errorf("--config and --in are required unless --resume is set")
	}

	cfg, err := config.LoadRun(mcmcConfigPath)
	if err != nil {
		return err
	}
	cfg.Output.RunDirectory = out
	if cfg.Output.CheckpointDir == "" {
		cfg.Output.CheckpointDir = "checkpoints"
	}

	c, g, err := loadState(mcmcInputPath)
	if err != nil {
		return err
	}

	logging.Info("Starting sampler run")
	summary, err := mcmc.Run(cfg, cfg.SeedPolicy.MasterSeed, c, g)
	if err != nil {
		return err
	}

	if err := writeRunOutputs(out, summary); err != nil {
		return err
	}

	// Persist run configuration and input manifest for reproducibility.
	copyFile(mcmcConfigPath, filepath.Join(out, "config.yaml"))
	copyFile(mcmcInputPath, filepath.Join(out, "state.json"))

	fmt.Printf("Run complete: %d samples, final code hash %s\n",
		len(summary.Samples), summary.FinalCodeHash)
	return nil
}

func writeRunOutputs(out string, summary *mcmc.RunSummary) error {
	if err := writeJSON(filepath.Join(out, "summary.json"), summary); err != nil {
		return err
	}
	return writeJSON(filepath.Join(out, "coverage.json"), coverageSummary(summary))
}

// coverageSummary condenses the mixing diagnostics of a finished run.
func coverageSummary(summary *mcmc.RunSummary) map[string]interface{} {
	exchangeMean := 0.0
	if len(summary.ExchangeAcceptance) > 0 {
		total := 0.0
		for _, rate := range summary.ExchangeAcceptance {
			total += rate
		}
		exchangeMean = total / float64(len(summary.ExchangeAcceptance))
	}
	return map[string]interface{}{
		"coverage":              summary.Coverage,
		"effective_sample_size": summary.EffectiveSampleSize,
		"exchange_mean":         exchangeMean,
		"replica_count":         len(summary.ReplicaTemperatures),
	}
}
