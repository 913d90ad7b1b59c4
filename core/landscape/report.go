package landscape

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"vacuum-landscape/core/codec"
	"vacuum-landscape/internal/errors"
)

// JobState tracks the lifecycle of one landscape job.
type JobState string

const (
	// StatePending marks a job that has not executed yet.
	StatePending JobState = "pending"
	// StateComplete marks a successfully finished job.
	StateComplete JobState = "complete"
	// StateFailed marks a job that exhausted its retries.
	StateFailed JobState = "failed"
)

// JobStatus records the outcome and attempt count for a job.
type JobStatus struct {
	State    JobState `json:"state"`
	Attempts int      `json:"attempts"`
	Error    string   `json:"error,omitempty"`
}

// SuccessStatus marks a job complete after the given attempt count.
func SuccessStatus(attempts int) JobStatus {
	return JobStatus{State: StateComplete, Attempts: attempts}
}

// FailedStatus marks a job failed and captures the error string.
func FailedStatus(attempts int, message string) JobStatus {
	return JobStatus{State: StateFailed, Attempts: attempts, Error: message}
}

// JobReport is the canonical per-job entry of a landscape report.
type JobReport struct {
	Seed    uint64         `json:"seed"`
	RuleID  uint64         `json:"rule_id"`
	Status  JobStatus      `json:"status"`
	Hashes  StageHashes    `json:"hashes"`
	KPIs    JobKpi         `json:"kpis"`
	Filters FilterDecision `json:"filters"`
}

// LandscapeFilters summarises filter outcomes across all jobs.
type LandscapeFilters struct {
	Spec      FilterSpec `json:"spec"`
	PassCount int        `json:"pass_count"`
	Total     int        `json:"total"`
}

// RunProvenance describes the inputs behind a landscape run.
type RunProvenance struct {
	InputHash    string            `json:"input_hash"`
	GraphHash    string            `json:"graph_hash"`
	CodeHash     string            `json:"code_hash"`
	Seed         uint64            `json:"seed"`
	CreatedAt    string            `json:"created_at"`
	ToolVersions map[string]string `json:"tool_versions"`
}

// LandscapeReport is the top-level artefact of a landscape run.
type LandscapeReport struct {
	PlanHash   string           `json:"plan_hash"`
	Jobs       []JobReport      `json:"jobs"`
	Stats      StatsSummary     `json:"stats"`
	Filters    LandscapeFilters `json:"filters"`
	Provenance RunProvenance    `json:"provenance"`
}

// NewLandscapeReport assembles a report from per-job results.
func NewLandscapeReport(plan *Plan, jobs []JobReport, stats StatsSummary, spec FilterSpec) *LandscapeReport {
	passCount := 0
	for _, job := range jobs {
		if job.Filters.Passes() {
			passCount++
		}
	}
	planHash, err := plan.Hash()
	if err != nil {
		planHash = ""
	}
	return &LandscapeReport{
		PlanHash: planHash,
		Jobs:     jobs,
		Stats:    stats,
		Filters: LandscapeFilters{
			Spec:      spec,
			PassCount: passCount,
			Total:     len(jobs),
		},
		Provenance: buildProvenance(plan, planHash),
	}
}

func buildProvenance(plan *Plan, planHash string) RunProvenance {
	var seed uint64
	if len(plan.Seeds) > 0 {
		seed = plan.Seeds[0]
	}
	return RunProvenance{
		InputHash: planHash,
		GraphHash: fmt.Sprintf("%08x%08x%08x",
			plan.Graph.DegreeCap, plan.Graph.KUniform, plan.Graph.Size),
		CodeHash:     planHash,
		Seed:         seed,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		ToolVersions: map[string]string{"landscape": Version},
	}
}

// AtlasEntry summarises one universe discovered during a run.
type AtlasEntry struct {
	ID        string    `json:"id"`
	GraphHash string    `json:"graph_hash"`
	CodeHash  string    `json:"code_hash"`
	CEst      float64   `json:"c_est"`
	Gap       float64   `json:"gap"`
	Factors   []string  `json:"factors"`
	Couplings []float64 `json:"couplings"`
}

// Atlas is a compact manifest enumerating all universes in a run.
type Atlas struct {
	Entries   []AtlasEntry `json:"entries"`
	IndexHash string       `json:"index_hash"`
	Manifest  []string     `json:"manifest"`
}

// AtlasOpts controls atlas construction.
type AtlasOpts struct {
	IncludeFailed bool `json:"include_failed"`
}

// SummaryTotals counts jobs included in a summary report.
type SummaryTotals struct {
	Jobs    int `json:"jobs"`
	Passing int `json:"passing"`
}

// PassRates carries the anthropic pass-rate fraction.
type PassRates struct {
	Anthropic float64 `json:"anthropic"`
}

// SummaryReport aggregates statistics across a landscape run.
type SummaryReport struct {
	Totals        SummaryTotals           `json:"totals"`
	PassRates     PassRates               `json:"pass_rates"`
	Distributions map[string]Histogram    `json:"distributions"`
	Quantiles     map[string]Quantiles    `json:"quantiles"`
	Correlations  map[string]Correlations `json:"correlations"`
	Notes         []string                `json:"notes"`
}

// SummaryFromJobs folds job reports and stats into the summary shape.
func SummaryFromJobs(jobs []JobReport, stats StatsSummary) *SummaryReport {
	passing := 0
	for _, job := range jobs {
		if job.Filters.Passes() {
			passing++
		}
	}
	rate := 0.0
	if len(jobs) > 0 {
		rate = float64(passing) / float64(len(jobs))
	}
	return &SummaryReport{
		Totals:        SummaryTotals{Jobs: len(jobs), Passing: passing},
		PassRates:     PassRates{Anthropic: rate},
		Distributions: stats.Histograms,
		Quantiles:     stats.Quantiles,
		Correlations:  stats.Correlations,
		Notes:         []string{},
	}
}

func loadReport(root string) (*LandscapeReport, error) {
	data, err := os.ReadFile(filepath.Join(root, "landscape_report.json"))
	if err != nil {
		return nil, errors.Wrap(errors.FamilySerde, "report-read",
			"read landscape report", err)
	}
	var report LandscapeReport
	if err := codec.Unmarshal(data, &report); err != nil {
		return nil, errors.Wrap(errors.FamilySerde, "report-parse",
			"parse landscape report", err)
	}
	return &report, nil
}

// BuildAtlas constructs an atlas manifest from the run stored under root.
func BuildAtlas(root string, opts AtlasOpts) (*Atlas, error) {
	report, err := loadReport(root)
	if err != nil {
		return nil, err
	}
	entries := make([]AtlasEntry, 0, len(report.Jobs))
	for _, job := range report.Jobs {
		if !opts.IncludeFailed && job.Status.State != StateComplete {
			continue
		}
		entries = append(entries, AtlasEntry{
			ID:        fmt.Sprintf("%d_%d", job.Seed, job.RuleID),
			GraphHash: job.Hashes.Mcmc,
			CodeHash:  job.Hashes.Interaction,
			CEst:      job.KPIs.CEst,
			Gap:       job.KPIs.GapProxy,
			Factors:   job.KPIs.Factors,
			Couplings: job.KPIs.G,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	indexHash, err := codec.StableHash(entries)
	if err != nil {
		return nil, err
	}
	manifest := make([]string, 0, len(entries))
	for _, entry := range entries {
		manifest = append(manifest, entry.ID)
	}
	return &Atlas{Entries: entries, IndexHash: indexHash, Manifest: manifest}, nil
}

// Summarize re-evaluates the stored run under the given filter and returns
// its summary report.
func Summarize(root string, spec FilterSpec) (*SummaryReport, error) {
	report, err := loadReport(root)
	if err != nil {
		return nil, err
	}
	jobs := make([]JobReport, 0, len(report.Jobs))
	kpis := make([]JobKpi, 0, len(report.Jobs))
	for _, job := range report.Jobs {
		job.Filters = spec.Evaluate(job.KPIs)
		jobs = append(jobs, job)
		kpis = append(kpis, job.KPIs)
	}
	return SummaryFromJobs(jobs, StatsFromKPIs(kpis)), nil
}
