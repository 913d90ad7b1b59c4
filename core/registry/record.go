package registry

import (
	"strconv"

	"vacuum-landscape/core/codec"
	"vacuum-landscape/core/landscape"
	"vacuum-landscape/internal/errors"
)

// JobEntry is one job's payload destined for the registry.
type JobEntry struct {
	// Params and Metrics are serialized as canonical JSON strings.
	Params  interface{}
	Metrics interface{}
}

// RunRecord groups the rows appended for one run.
type RunRecord struct {
	Date     string
	Commit   string
	PlanName string
	PlanHash string
	Jobs     []JobEntry
}

func (r *RunRecord) rows() ([][]string, error) {
	date := r.Date
	if date == "" {
		date = "1970-01-01T00:00:00Z"
	}
	commit := r.Commit
	if commit == "" {
		commit = "unknown"
	}
	rows := make([][]string, 0, len(r.Jobs))
	for idx, job := range r.Jobs {
		params, err := canonicalString(job.Params)
		if err != nil {
			return nil, err
		}
		metrics, err := canonicalString(job.Metrics)
		if err != nil {
			return nil, err
		}
		rows = append(rows, []string{
			date, commit, r.PlanName, r.PlanHash, strconv.Itoa(idx), params, metrics,
		})
	}
	return rows, nil
}

func canonicalString(value interface{}) (string, error) {
	data, err := codec.Marshal(value)
	if err != nil {
		return "", errors.Wrap(errors.FamilySerde, "registry-canonical",
			"encode canonical json", err)
	}
	return string(data), nil
}

// RecordFromLandscape flattens a landscape report into registry rows, one
// per job, with filter verdicts folded into the metrics payload.
func RecordFromLandscape(planName string, report *landscape.LandscapeReport) *RunRecord {
	jobs := make([]JobEntry, 0, len(report.Jobs))
	for _, job := range report.Jobs {
		jobs = append(jobs, JobEntry{
			Params: map[string]interface{}{
				"seed":    job.Seed,
				"rule_id": job.RuleID,
			},
			Metrics: map[string]interface{}{
				"c_est":        job.KPIs.CEst,
				"gap_proxy":    job.KPIs.GapProxy,
				"energy_final": job.KPIs.EnergyFinal,
				"pass":         job.Filters.Passes(),
			},
		})
	}
	return &RunRecord{
		Date:     report.Provenance.CreatedAt,
		Commit:   "unknown",
		PlanName: planName,
		PlanHash: report.PlanHash,
		Jobs:     jobs,
	}
}
