// Package cmd - spectrum command
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vacuum-landscape/core/spectrum"
)

var (
	spectrumInput   string
	spectrumOut     string
	spectrumSeed    uint64
	spectrumKPoints int
	spectrumModes   int
)

// spectrumCmd represents the spectrum command
var spectrumCmd = &cobra.Command{
	Use:   "spectrum",
	Short: "Run the spectral analysis stage on a state",
	Long: `Build excitation operators for a state, propagate a probe and fit
dispersion and correlation diagnostics into a sealed spectrum report.

Examples:
  vacuum-landscape spectrum --in state.json --out spectrum_report.json
  vacuum-landscape spectrum --in state.json --out spec.json --seed 42 --k-points 32`,
	RunE: runSpectrum,
}

func init() {
	spectrumCmd.Flags().StringVar(&spectrumInput, "in", "", "JSON manifest pointing to serialized code and graph inputs")
	spectrumCmd.Flags().StringVarP(&spectrumOut, "out", "o", "spectrum_report.json", "output path for the spectrum report")
	spectrumCmd.Flags().Uint64Var(&spectrumSeed, "seed", 1, "master seed for the spectral stage")
	spectrumCmd.Flags().IntVar(&spectrumKPoints, "k-points", 64, "number of k-points in the dispersion scan")
	spectrumCmd.Flags().IntVar(&spectrumModes, "modes", 3, "number of dispersion modes to fit")
	spectrumCmd.MarkFlagRequired("in")
}

func runSpectrum(cmd *cobra.Command, args []string) error {
	c, g, err := loadState(spectrumInput)
	if err != nil {
		return err
	}

	opts := spectrum.DefaultSpecOpts(spectrumSeed)
	opts.Dispersion.KPoints = spectrumKPoints
	opts.Dispersion.Modes = spectrumModes

	report, err := spectrum.Analyze(g, c, opts)
	if err != nil {
		return err
	}
	if err := writeJSON(spectrumOut, report); err != nil {
		return err
	}

	fmt.Printf("Spectrum analysis complete: c_est %.6f, gap %.6f\n",
		report.Dispersion.CEst, report.Dispersion.GapProxy)
	return nil
}
