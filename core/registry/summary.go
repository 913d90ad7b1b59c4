package registry

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"

	"vacuum-landscape/internal/errors"
)

// PlanSummary counts rows and pass verdicts for one plan.
type PlanSummary struct {
	PlanName string `json:"plan_name"`
	Rows     int    `json:"rows"`
	Passes   int    `json:"passes"`
	// PassRate is a decimal ratio rendered for display.
	PassRate string `json:"pass_rate"`
}

// Summary aggregates a query result per plan, sorted by plan name.
type Summary struct {
	Plans []PlanSummary `json:"plans"`
}

// Summarize folds a registry table into exact per-plan counts and decimal
// pass rates. The pass verdict is read from the metrics payload.
func Summarize(table *Table) (*Summary, error) {
	type bucket struct {
		rows   int
		passes int
	}
	buckets := make(map[string]*bucket)
	for _, row := range table.Rows {
		if len(row) < 7 {
			return nil, errors.New(errors.FamilySerde, "registry-short-row",
				"registry row is missing columns")
		}
		b := buckets[row[2]]
		if b == nil {
			b = &bucket{}
			buckets[row[2]] = b
		}
		b.rows++
		var metrics struct {
			Pass bool `json:"pass"`
		}
		if err := json.Unmarshal([]byte(row[6]), &metrics); err != nil {
			return nil, errors.Wrap(errors.FamilySerde, "registry-metrics-parse",
				"parse registry metrics payload", err)
		}
		if metrics.Pass {
			b.passes++
		}
	}
	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	plans := make([]PlanSummary, 0, len(names))
	for _, name := range names {
		b := buckets[name]
		rate := decimal.Zero
		if b.rows > 0 {
			rate = decimal.NewFromInt(int64(b.passes)).
				Div(decimal.NewFromInt(int64(b.rows)))
		}
		plans = append(plans, PlanSummary{
			PlanName: name,
			Rows:     b.rows,
			Passes:   b.passes,
			PassRate: rate.String(),
		})
	}
	return &Summary{Plans: plans}, nil
}
