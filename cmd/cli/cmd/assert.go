// Package cmd - assert command
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"vacuum-landscape/core/assertion"
	"vacuum-landscape/core/gauge"
	"vacuum-landscape/core/interaction"
	"vacuum-landscape/core/landscape"
	"vacuum-landscape/core/spectrum"
)

var (
	assertSpectrumPath    string
	assertGaugePath       string
	assertInteractionPath string
	assertRunningPath     string
	assertSummaryPath     string
	assertLandscapePath   string
	assertPolicyPath      string
	assertOut             string
	assertStrict          bool
)

// assertCmd represents the assert command
var assertCmd = &cobra.Command{
	Use:   "assert",
	Short: "Run physics consistency checks over stage reports",
	Long: `Collect the reports of earlier pipeline stages and evaluate the
consistency checks of the assertion policy against them. The command
fails when any check does not pass.

Examples:
  vacuum-landscape assert --gauge gauge_report.json --out assertion_report.json
  vacuum-landscape assert --spectrum spec.json --gauge gauge.json \
    --interaction int.json --landscape sweeps/base --out assertions.json`,
	RunE: runAssert,
}

func init() {
	assertCmd.Flags().StringVar(&assertSpectrumPath, "spectrum", "", "spectrum report path")
	assertCmd.Flags().StringVar(&assertGaugePath, "gauge", "", "gauge report path")
	assertCmd.Flags().StringVar(&assertInteractionPath, "interaction", "", "interaction report path")
	assertCmd.Flags().StringVar(&assertRunningPath, "running", "", "running couplings report path")
	assertCmd.Flags().StringVar(&assertSummaryPath, "summary", "", "landscape summary report path")
	assertCmd.Flags().StringVar(&assertLandscapePath, "landscape", "", "landscape run directory providing per-job KPIs")
	assertCmd.Flags().StringVar(&assertPolicyPath, "policy", "", "YAML policy overriding the default thresholds")
	assertCmd.Flags().StringVarP(&assertOut, "out", "o", "assertion_report.json", "output path for the assertion report")
	assertCmd.Flags().BoolVar(&assertStrict, "strict", false, "require every upstream report to be present")
}

func runAssert(cmd *cobra.Command, args []string) error {
	policy, err := loadPolicy()
	if err != nil {
		return err
	}
	if assertStrict {
		policy.Strict = true
	}

	inputs, err := collectAssertInputs()
	if err != nil {
		return err
	}

	report, err := assertion.RunAssertions(inputs, policy)
	if err != nil {
		return err
	}
	if err := writeJSON(assertOut, report); err != nil {
		return err
	}

	var failed []string
	for _, check := range report.Checks {
		if !check.Pass {
			failed = append(failed, check.Name)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d checks failed: %s",
			len(failed), len(report.Checks), strings.Join(failed, ", "))
	}

	fmt.Printf("All %d checks passed\n", len(report.Checks))
	return nil
}

func loadPolicy() (assertion.Policy, error) {
	policy := assertion.DefaultPolicy()
	if assertPolicyPath == "" {
		return policy, nil
	}
	data, err := os.ReadFile(assertPolicyPath)
	if err != nil {
		return policy, fmt.Errorf("failed to read policy: %w", err)
	}
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return policy, fmt.Errorf("failed to parse policy: %w", err)
	}
	return policy, nil
}

func collectAssertInputs() (*assertion.Inputs, error) {
	inputs := &assertion.Inputs{}

	if assertSpectrumPath != "" {
		var spec spectrum.Report
		if err := readJSON(assertSpectrumPath, &spec); err != nil {
			return nil, err
		}
		inputs.Spectrum = &spec
	}
	if assertGaugePath != "" {
		var gaugeReport gauge.GaugeReport
		if err := readJSON(assertGaugePath, &gaugeReport); err != nil {
			return nil, err
		}
		inputs.Gauge = &gaugeReport
	}
	if assertInteractionPath != "" {
		var interactionReport interaction.InteractionReport
		if err := readJSON(assertInteractionPath, &interactionReport); err != nil {
			return nil, err
		}
		inputs.Interaction = &interactionReport
	}
	if assertRunningPath != "" {
		var running interaction.RunningReport
		if err := readJSON(assertRunningPath, &running); err != nil {
			return nil, err
		}
		inputs.Running = &running
	}
	if assertSummaryPath != "" {
		var summary landscape.SummaryReport
		if err := readJSON(assertSummaryPath, &summary); err != nil {
			return nil, err
		}
		inputs.Summary = &summary
	}
	if assertLandscapePath != "" {
		var report landscape.LandscapeReport
		if err := readJSON(filepath.Join(assertLandscapePath, "landscape_report.json"), &report); err != nil {
			return nil, err
		}
		for _, job := range report.Jobs {
			inputs.AddKPI(job.KPIs)
		}
	}
	return inputs, nil
}
