// Package cmd provides the CLI commands for vacuum-landscape.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vacuum-landscape/core/codec"
	"vacuum-landscape/core/landscape"
	"vacuum-landscape/internal/config"
	"vacuum-landscape/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vacuum-landscape",
	Short: "Deterministic vacuum landscape pipeline",
	Long: `vacuum-landscape samples, analyses and filters hypergraph/CSS-code
universes through a deterministic multi-stage pipeline.

Every stage is content-addressed: the same inputs and seeds always
produce the same artefact hashes.

Examples:
  vacuum-landscape mcmc --config run.yaml --in state.json --out runs/a
  vacuum-landscape analyze --input runs/a --out analysis/a
  vacuum-landscape landscape run --plan plan.yaml --out sweeps/base`,
}

// Execute runs the CLI
func Execute() error {
	defer logging.Sync()
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "app config file (default is $HOME/.vacuum-landscape.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(mcmcCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(spectrumCmd)
	rootCmd.AddCommand(gaugeCmd)
	rootCmd.AddCommand(interactCmd)
	rootCmd.AddCommand(rgCmd)
	rootCmd.AddCommand(covarianceCmd)
	rootCmd.AddCommand(assertCmd)
	rootCmd.AddCommand(landscapeCmd)
	rootCmd.AddCommand(registryCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		config.Set(cfg)
	}

	// Initialize logging
	cfg := config.Get()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vacuum-landscape version %s\n", landscape.Version)
	},
}

// configCmd prints the effective application configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := codec.Marshal(config.Get())
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}
