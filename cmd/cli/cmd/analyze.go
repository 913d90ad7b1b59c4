// Package cmd - analyze command
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"vacuum-landscape/core/aut"
	"vacuum-landscape/core/determinism"
	"vacuum-landscape/core/mcmc"
	"vacuum-landscape/core/spectrum"
	"vacuum-landscape/internal/logging"
)

var (
	analyzeInput        string
	analyzeInputs       []string
	analyzeOutDir       string
	analyzeSymmetryScan bool
	analyzeCluster      bool
	analyzeKPoints      int
	analyzeModes        int
	analyzeLaplacianK   int
	analyzeStabilizerK  int
	analyzeClusters     int
	analyzeClusterIters int
	analyzeEmitReps     int
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyse a run directory and emit diagnostics",
	Long: `Analyse an existing sampler run directory.

By default the end state is loaded and dispersion diagnostics emitted,
including one report per surviving checkpoint. With --symmetry-scan the
automorphism and spectral invariants are computed instead; with --cluster
previously produced analysis reports are grouped by similarity.

Examples:
  vacuum-landscape analyze --input runs/a --out analysis/a
  vacuum-landscape analyze --input runs/a --out analysis/a --symmetry-scan
  vacuum-landscape analyze --cluster --inputs analysis/a --inputs analysis/b --out clusters`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeInput, "input", "i", "", "run directory produced by the mcmc command")
	analyzeCmd.Flags().StringArrayVar(&analyzeInputs, "inputs", nil, "additional analysis directories when clustering")
	analyzeCmd.Flags().StringVarP(&analyzeOutDir, "out", "o", "", "output directory for analysis artefacts")
	analyzeCmd.Flags().BoolVar(&analyzeSymmetryScan, "symmetry-scan", false, "perform an automorphism and spectral scan")
	analyzeCmd.Flags().BoolVar(&analyzeCluster, "cluster", false, "cluster existing analysis reports")
	analyzeCmd.Flags().IntVar(&analyzeKPoints, "k-points", 64, "number of k-points in the dispersion scan")
	analyzeCmd.Flags().IntVar(&analyzeModes, "modes", 3, "number of dispersion modes to fit")
	analyzeCmd.Flags().IntVar(&analyzeLaplacianK, "laplacian-topk", 16, "Laplacian eigenvalues retained during symmetry scans")
	analyzeCmd.Flags().IntVar(&analyzeStabilizerK, "stabilizer-topk", 16, "stabilizer eigenvalues retained during symmetry scans")
	analyzeCmd.Flags().IntVar(&analyzeClusters, "clusters", 2, "number of clusters to form when --cluster is set")
	analyzeCmd.Flags().IntVar(&analyzeClusterIters, "cluster-iterations", 16, "maximum k-means refinement passes")
	analyzeCmd.Flags().IntVar(&analyzeEmitReps, "emit-representatives", 0, "emit top-N representative hashes per cluster")
	analyzeCmd.MarkFlagRequired("out")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(analyzeOutDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	switch {
	case analyzeCluster:
		return runClusterMode()
	case analyzeSymmetryScan:
		return runSymmetryScan()
	default:
		return runDispersionMode()
	}
}

func runDispersionMode() error {
	if analyzeInput == "" {
		return fmt.Errorf("--input is required unless --cluster is set")
	}
	manifest, err := mcmc.LoadManifest(filepath.Join(analyzeInput, "manifest.json"))
	if err != nil {
		return err
	}
	c, g, err := mcmc.LoadEndState(analyzeInput)
	if err != nil {
		return err
	}

	spec := spectrum.DispersionSpec{KPoints: analyzeKPoints, Modes: analyzeModes}
	seed := determinism.Derive(manifest.MasterSeed, 1)
	report, err := mcmc.DispersionForState(c, g, spec, seed)
	if err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(analyzeOutDir, "dispersion", "dispersion_report.json"), report); err != nil {
		return err
	}

	logging.Info("End state dispersion complete")
	return writeCheckpointDispersion(manifest, spec, seed, report)
}

// checkpointDispersion pairs a checkpoint label with its dispersion scan.
type checkpointDispersion struct {
	Label  string                     `json:"label"`
	Report *spectrum.DispersionReport `json:"report"`
}

func writeCheckpointDispersion(manifest *mcmc.RunManifest, spec spectrum.DispersionSpec,
	seed uint64, endState *spectrum.DispersionReport) error {
	paths := mcmc.ResolveCheckpointPaths(analyzeInput, manifest.Checkpoints)
	if len(paths) == 0 {
		paths = collectDefaultCheckpoints(analyzeInput)
	}
	reports := make([]checkpointDispersion, 0, len(paths))
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		report, err := mcmc.DispersionForCheckpoint(path, spec, seed)
		if err != nil {
			return err
		}
		label := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		reports = append(reports, checkpointDispersion{Label: label, Report: report})
	}
	summary := map[string]interface{}{
		"end_state":   endState,
		"checkpoints": reports,
	}
	return writeJSON(filepath.Join(analyzeOutDir, "checkpoint_dispersion.json"), summary)
}

func collectDefaultCheckpoints(runDir string) []string {
	pattern := filepath.Join(runDir, "checkpoints", "ckpt_*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil
	}
	sort.Strings(matches)
	return matches
}

func runSymmetryScan() error {
	if analyzeInput == "" {
		return fmt.Errorf("--input is required for symmetry scans")
	}
	manifest, err := mcmc.LoadManifest(filepath.Join(analyzeInput, "manifest.json"))
	if err != nil {
		return err
	}
	c, g, err := mcmc.LoadEndState(analyzeInput)
	if err != nil {
		return err
	}

	seed := manifest.MasterSeed
	runID := manifest.Config.Output.RunDirectory
	if runID == "" {
		runID = analyzeInput
	}
	opts := aut.ScanOpts{
		LaplacianTopK:  analyzeLaplacianK,
		StabilizerTopK: analyzeStabilizerK,
		Provenance:     &aut.ProvenanceInfo{Seed: &seed, RunID: runID},
	}
	report, err := aut.Analyze(g, c, opts)
	if err != nil {
		return err
	}

	if err := writeJSON(filepath.Join(analyzeOutDir, "analysis_report.json"), report); err != nil {
		return err
	}
	if err := writeSpectralCSV(filepath.Join(analyzeOutDir, "spectral.csv"), report); err != nil {
		return err
	}
	index := map[string]interface{}{
		"inputs": []map[string]string{
			{"path": analyzeInput, "analysis_hash": report.Hashes.AnalysisHash},
		},
	}
	return writeJSON(filepath.Join(analyzeOutDir, "index.json"), index)
}

func writeSpectralCSV(path string, report *aut.AnalysisReport) error {
	var sb strings.Builder
	sb.WriteString("spectrum,index,value\n")
	for idx, value := range report.Spectral.LaplacianTopK {
		fmt.Fprintf(&sb, "laplacian,%d,%.9f\n", idx, value)
	}
	for idx, value := range report.Spectral.StabilizerTopK {
		fmt.Fprintf(&sb, "stabilizer,%d,%.9f\n", idx, value)
	}
	return os.WriteFile(path, []byte(sb.String()), 0644)
}

func runClusterMode() error {
	sources := append([]string{}, analyzeInputs...)
	if analyzeInput != "" && len(sources) == 0 {
		sources = append(sources, analyzeInput)
	}
	if len(sources) == 0 {
		return fmt.Errorf("provide at least one --inputs path when clustering")
	}

	var reports []*aut.AnalysisReport
	locations := make(map[string]string)
	for _, source := range sources {
		path := source
		if info, err := os.Stat(source); err == nil && info.IsDir() {
			path = filepath.Join(source, "analysis_report.json")
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read analysis report: %w", err)
		}
		report, err := aut.UnmarshalReport(data)
		if err != nil {
			return err
		}
		locations[report.Hashes.AnalysisHash] = path
		reports = append(reports, report)
	}
	if len(reports) == 0 {
		return fmt.Errorf("no analysis reports found in the provided paths")
	}

	opts := aut.DefaultClusterOpts()
	opts.K = analyzeClusters
	if opts.K > len(reports) {
		opts.K = len(reports)
	}
	if opts.K < 1 {
		opts.K = 1
	}
	if analyzeClusterIters > 0 {
		opts.MaxIterations = analyzeClusterIters
	}
	summary := aut.Cluster(reports, opts)
	if err := writeJSON(filepath.Join(analyzeOutDir, "cluster_summary.json"), summary); err != nil {
		return err
	}

	index := make([]map[string]string, 0, len(reports))
	for _, report := range reports {
		index = append(index, map[string]string{
			"analysis_hash": report.Hashes.AnalysisHash,
			"path":          locations[report.Hashes.AnalysisHash],
		})
	}
	if err := writeJSON(filepath.Join(analyzeOutDir, "index.json"),
		map[string]interface{}{"reports": index}); err != nil {
		return err
	}

	if analyzeEmitReps > 0 {
		return writeRepresentatives(summary)
	}
	return nil
}

func writeRepresentatives(summary aut.ClusterSummary) error {
	clusters := make([]map[string]interface{}, 0, len(summary.Clusters))
	for _, cluster := range summary.Clusters {
		members := cluster.Members
		if len(members) > analyzeEmitReps {
			members = members[:analyzeEmitReps]
		}
		clusters = append(clusters, map[string]interface{}{
			"cluster_id": cluster.ClusterID,
			"members":    members,
		})
	}
	return writeJSON(filepath.Join(analyzeOutDir, "representatives.json"),
		map[string]interface{}{"clusters": clusters})
}
