package landscape

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"vacuum-landscape/core/codec"
	"vacuum-landscape/internal/errors"
	"vacuum-landscape/internal/logging"
)

// RunOpts governs landscape execution.
type RunOpts struct {
	// Resume skips jobs whose status.json already reports completion.
	Resume bool
	// Concurrency bounds the number of jobs executed in parallel.
	Concurrency int
	// MaxRetries bounds deterministic retries per job.
	MaxRetries int
}

// DefaultRunOpts runs sequentially with two retries.
func DefaultRunOpts() RunOpts {
	return RunOpts{Resume: false, Concurrency: 1, MaxRetries: 2}
}

type jobSpec struct {
	seed uint64
	rule RuleSpec
	dir  string
}

type jobResult struct {
	report   JobReport
	statsKpi *JobKpi
}

// RunPlan executes a landscape plan, emitting deterministic artefacts under
// the out directory and returning the aggregate report.
func RunPlan(plan *Plan, out string, opts RunOpts) (*LandscapeReport, error) {
	if err := os.MkdirAll(out, 0o755); err != nil {
		return nil, errors.Wrap(errors.FamilySerde, "plan-out-dir",
			"create landscape output directory", err)
	}
	spec, err := LoadFilters(plan.FiltersPath())
	if err != nil {
		return nil, err
	}
	jobs := enumerateJobs(plan, out)
	logging.Sugar.Infow("landscape run starting",
		"jobs", len(jobs), "concurrency", opts.Concurrency)

	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}
	grp := new(errgroup.Group)
	grp.SetLimit(limit)
	results := make([]jobResult, len(jobs))
	for idx, job := range jobs {
		idx, job := idx, job
		grp.Go(func() error {
			result, err := processJob(plan, spec, job, opts)
			if err != nil {
				return err
			}
			results[idx] = result
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	reports := make([]JobReport, 0, len(results))
	kpis := make([]JobKpi, 0, len(results))
	for _, result := range results {
		if result.statsKpi != nil {
			kpis = append(kpis, *result.statsKpi)
		}
		reports = append(reports, result.report)
	}
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].Seed != reports[j].Seed {
			return reports[i].Seed < reports[j].Seed
		}
		return reports[i].RuleID < reports[j].RuleID
	})

	report := NewLandscapeReport(plan, reports, StatsFromKPIs(kpis), spec)
	data, err := codec.Marshal(report)
	if err != nil {
		return nil, errors.Wrap(errors.FamilySerde, "report-serialize",
			"serialize landscape report", err)
	}
	path := filepath.Join(out, "landscape_report.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, errors.Wrap(errors.FamilySerde, "report-write",
			"write landscape report", err)
	}
	return report, nil
}

// RunPlanFromPath loads a plan from disk and executes it.
func RunPlanFromPath(planPath, out string, opts RunOpts) (*LandscapeReport, error) {
	plan, err := LoadPlan(planPath)
	if err != nil {
		return nil, err
	}
	return RunPlan(plan, out, opts)
}

func processJob(plan *Plan, spec FilterSpec, job jobSpec, opts RunOpts) (jobResult, error) {
	if opts.Resume {
		done, err := jobComplete(job.dir)
		if err != nil {
			return jobResult{}, err
		}
		if done {
			existing, err := loadExistingJob(job.dir)
			if err != nil {
				return jobResult{}, err
			}
			kpi := existing.kpi
			return jobResult{
				statsKpi: &kpi,
				report: JobReport{
					Seed:    job.seed,
					RuleID:  job.rule.ID,
					Status:  existing.status,
					Hashes:  existing.hashes,
					KPIs:    existing.kpi,
					Filters: spec.Evaluate(existing.kpi),
				},
			}, nil
		}
	}

	if err := os.MkdirAll(job.dir, 0o755); err != nil {
		return jobResult{}, errors.Wrap(errors.FamilySerde, "job-dir",
			"create job directory", err)
	}
	outputs, attempts, runErr := executeWithRetries(plan, job, opts.MaxRetries)
	if runErr != nil {
		status := FailedStatus(attempts, runErr.Error())
		if err := persistFailure(job.dir, status); err != nil {
			return jobResult{}, err
		}
		return jobResult{
			report: JobReport{
				Seed:   job.seed,
				RuleID: job.rule.ID,
				Status: status,
			},
		}, nil
	}

	decision := spec.Evaluate(outputs.Kpi)
	status := SuccessStatus(attempts)
	if err := persistStageOutputs(plan, job.dir, outputs, status, decision); err != nil {
		return jobResult{}, err
	}
	kpi := outputs.Kpi
	return jobResult{
		statsKpi: &kpi,
		report: JobReport{
			Seed:    job.seed,
			RuleID:  job.rule.ID,
			Status:  status,
			Hashes:  outputs.Hashes,
			KPIs:    outputs.Kpi,
			Filters: decision,
		},
	}, nil
}

func executeWithRetries(plan *Plan, job jobSpec, maxRetries int) (StageOutputs, int, error) {
	if maxRetries < 1 {
		maxRetries = 1
	}
	attempt := 0
	for {
		attempt++
		outputs, err := SynthesizeStageOutputs(
			retrySeed(job.seed, attempt), job.rule.ID,
			plan.Sampler.Sweeps, plan.Spectrum.Modes, plan.Spectrum.KPoints)
		cleanupIncomplete(job.dir)
		if err == nil {
			return outputs, attempt, nil
		}
		if attempt < maxRetries {
			logging.Sugar.Warnw("landscape job retrying",
				"seed", job.seed, "rule", job.rule.ID, "attempt", attempt)
			continue
		}
		return StageOutputs{}, attempt, err
	}
}

// retrySeed perturbs the job seed on every attempt after the first.
func retrySeed(seed uint64, attempt int) uint64 {
	if attempt <= 1 {
		return seed
	}
	return seed ^ uint64(attempt-1)*0x9E3779B97F4A7C15
}

func persistStageOutputs(plan *Plan, jobDir string, outputs StageOutputs, status JobStatus, decision FilterDecision) error {
	if plan.Outputs.KeepIntermediate {
		if err := writeJSON(filepath.Join(jobDir, "mcmc", "manifest.json"), outputs.Mcmc); err != nil {
			return err
		}
		if err := writeJSON(filepath.Join(jobDir, "spectrum", "spectrum_report.json"), outputs.Spectrum); err != nil {
			return err
		}
		if err := writeJSON(filepath.Join(jobDir, "gauge", "gauge_report.json"), outputs.Gauge); err != nil {
			return err
		}
		if err := writeJSON(filepath.Join(jobDir, "interact", "interaction_report.json"), outputs.Interaction); err != nil {
			return err
		}
	}
	if err := writeJSON(filepath.Join(jobDir, "kpi.json"), outputs.Kpi); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(jobDir, "hashes.json"), outputs.Hashes); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(jobDir, "filters.json"), decision); err != nil {
		return err
	}
	return writeJSON(filepath.Join(jobDir, "status.json"), status)
}

func persistFailure(jobDir string, status JobStatus) error {
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return errors.Wrap(errors.FamilySerde, "job-dir",
			"create job directory", err)
	}
	cleanupIncomplete(jobDir)
	return writeJSON(filepath.Join(jobDir, "status.json"), status)
}

func cleanupIncomplete(jobDir string) {
	os.Remove(filepath.Join(jobDir, "kpi.json"))
	os.Remove(filepath.Join(jobDir, "hashes.json"))
	os.Remove(filepath.Join(jobDir, "filters.json"))
}

func writeJSON(path string, value interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.FamilySerde, "stage-dir",
			"create stage directory", err)
	}
	data, err := codec.Marshal(value)
	if err != nil {
		return errors.Wrap(errors.FamilySerde, "stage-serialize",
			"serialize stage artefact", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.FamilySerde, "stage-write",
			"write stage artefact", err)
	}
	return nil
}

func jobDir(base string, layout OutputLayout, seed, ruleID uint64) string {
	if layout == LayoutPerSeed {
		return filepath.Join(base, fmt.Sprintf("%d", seed), fmt.Sprintf("%d", ruleID))
	}
	return filepath.Join(base, fmt.Sprintf("%d_%d", seed, ruleID))
}

func jobComplete(dir string) (bool, error) {
	statusPath := filepath.Join(dir, "status.json")
	data, err := os.ReadFile(statusPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(errors.FamilySerde, "status-read",
			"read job status", err)
	}
	var status JobStatus
	if err := codec.Unmarshal(data, &status); err != nil {
		return false, errors.Wrap(errors.FamilySerde, "status-parse",
			"parse job status", err)
	}
	if status.State != StateComplete {
		return false, nil
	}
	if _, err := os.Stat(filepath.Join(dir, "kpi.json")); err != nil {
		return false, nil
	}
	if _, err := os.Stat(filepath.Join(dir, "hashes.json")); err != nil {
		return false, nil
	}
	return true, nil
}

type existingJob struct {
	kpi    JobKpi
	hashes StageHashes
	status JobStatus
}

func loadExistingJob(dir string) (existingJob, error) {
	var out existingJob
	entries := []struct {
		name   string
		target interface{}
	}{
		{"kpi.json", &out.kpi},
		{"hashes.json", &out.hashes},
		{"status.json", &out.status},
	}
	for _, entry := range entries {
		data, err := os.ReadFile(filepath.Join(dir, entry.name))
		if err != nil {
			return existingJob{}, errors.Wrap(errors.FamilySerde, "job-read",
				"read job artefact", err)
		}
		if err := codec.Unmarshal(data, entry.target); err != nil {
			return existingJob{}, errors.Wrap(errors.FamilySerde, "job-parse",
				"parse job artefact", err)
		}
	}
	return out, nil
}

func enumerateJobs(plan *Plan, out string) []jobSpec {
	jobs := make([]jobSpec, 0, len(plan.Seeds)*len(plan.RuleSet()))
	for _, rule := range plan.RuleSet() {
		for _, seed := range plan.Seeds {
			jobs = append(jobs, jobSpec{
				seed: seed,
				rule: rule,
				dir:  jobDir(out, plan.Outputs.Layout, seed, rule.ID),
			})
		}
	}
	return jobs
}
