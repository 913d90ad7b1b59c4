// Package cmd - landscape command
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"vacuum-landscape/core/landscape"
	"vacuum-landscape/internal/config"
)

var (
	landscapePlanPath      string
	landscapeOutDir        string
	landscapeConcurrency   int
	landscapeRetries       int
	landscapeResume        bool
	landscapeRoot          string
	landscapeAtlasOut      string
	landscapeIncludeFailed bool
	landscapeFiltersPath   string
	landscapeSummaryOut    string
)

// landscapeCmd groups the landscape sweep operations
var landscapeCmd = &cobra.Command{
	Use:   "landscape",
	Short: "Run and post-process landscape sweeps",
	Long: `Run a plan of (seed, rule) jobs through the full pipeline, then
build atlases and summaries from the resulting report tree.

Examples:
  vacuum-landscape landscape run --plan plan.yaml --out sweeps/base
  vacuum-landscape landscape atlas --root sweeps/base
  vacuum-landscape landscape summarize --root sweeps/base`,
}

// landscapeRunCmd executes a plan
var landscapeRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a landscape plan",
	RunE:  runLandscapeRun,
}

// landscapeAtlasCmd builds an atlas from a finished run
var landscapeAtlasCmd = &cobra.Command{
	Use:   "atlas",
	Short: "Build an atlas from a finished landscape run",
	RunE:  runLandscapeAtlas,
}

// landscapeSummarizeCmd condenses a finished run into summary statistics
var landscapeSummarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize a finished landscape run",
	RunE:  runLandscapeSummarize,
}

func init() {
	landscapeRunCmd.Flags().StringVarP(&landscapePlanPath, "plan", "p", "", "landscape plan (YAML or HCL)")
	landscapeRunCmd.Flags().StringVarP(&landscapeOutDir, "out", "o", "", "output directory for the sweep")
	landscapeRunCmd.Flags().IntVar(&landscapeConcurrency, "concurrency", 0, "parallel job limit (0 uses the app config)")
	landscapeRunCmd.Flags().IntVar(&landscapeRetries, "retries", 0, "per-job retry limit (0 uses the app config)")
	landscapeRunCmd.Flags().BoolVar(&landscapeResume, "resume", false, "skip jobs already reported complete")
	landscapeRunCmd.MarkFlagRequired("plan")
	landscapeRunCmd.MarkFlagRequired("out")

	landscapeAtlasCmd.Flags().StringVar(&landscapeRoot, "root", "", "landscape run directory")
	landscapeAtlasCmd.Flags().StringVarP(&landscapeAtlasOut, "out", "o", "", "atlas output path (default <root>/atlas.json)")
	landscapeAtlasCmd.Flags().BoolVar(&landscapeIncludeFailed, "include-failed", false, "include failed jobs in the atlas")
	landscapeAtlasCmd.MarkFlagRequired("root")

	landscapeSummarizeCmd.Flags().StringVar(&landscapeRoot, "root", "", "landscape run directory")
	landscapeSummarizeCmd.Flags().StringVar(&landscapeFiltersPath, "filters", "", "filter spec YAML overriding the defaults")
	landscapeSummarizeCmd.Flags().StringVarP(&landscapeSummaryOut, "out", "o", "", "summary output path (default <root>/summary.json)")
	landscapeSummarizeCmd.MarkFlagRequired("root")

	landscapeCmd.AddCommand(landscapeRunCmd)
	landscapeCmd.AddCommand(landscapeAtlasCmd)
	landscapeCmd.AddCommand(landscapeSummarizeCmd)
}

func runLandscapeRun(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	opts := landscape.DefaultRunOpts()
	opts.Resume = landscapeResume
	if landscapeConcurrency > 0 {
		opts.Concurrency = landscapeConcurrency
	} else if cfg.Landscape.Concurrency > 0 {
		opts.Concurrency = cfg.Landscape.Concurrency
	}
	if landscapeRetries > 0 {
		opts.MaxRetries = landscapeRetries
	} else if cfg.Landscape.MaxRetries > 0 {
		opts.MaxRetries = cfg.Landscape.MaxRetries
	}

	report, err := landscape.RunPlanFromPath(landscapePlanPath, landscapeOutDir, opts)
	if err != nil {
		return err
	}

	fmt.Printf("Landscape run complete: %d jobs, %d passed filters\n",
		len(report.Jobs), report.Filters.PassCount)
	return nil
}

func runLandscapeAtlas(cmd *cobra.Command, args []string) error {
	atlas, err := landscape.BuildAtlas(landscapeRoot,
		landscape.AtlasOpts{IncludeFailed: landscapeIncludeFailed})
	if err != nil {
		return err
	}

	out := landscapeAtlasOut
	if out == "" {
		out = filepath.Join(landscapeRoot, "atlas.json")
	}
	if err := writeJSON(out, atlas); err != nil {
		return err
	}

	fmt.Printf("Atlas written: %d entries\n", len(atlas.Entries))
	return nil
}

func runLandscapeSummarize(cmd *cobra.Command, args []string) error {
	spec := landscape.DefaultFilterSpec()
	if landscapeFiltersPath != "" {
		loaded, err := config.LoadFilters(landscapeFiltersPath)
		if err != nil {
			return err
		}
		spec = loaded
	}

	summary, err := landscape.Summarize(landscapeRoot, spec)
	if err != nil {
		return err
	}

	out := landscapeSummaryOut
	if out == "" {
		out = filepath.Join(landscapeRoot, "summary.json")
	}
	if err := writeJSON(out, summary); err != nil {
		return err
	}

	fmt.Printf("Summary written: %d jobs, pass rate %.3f\n",
		summary.Totals.Jobs, summary.PassRates.Anthropic)
	return nil
}
