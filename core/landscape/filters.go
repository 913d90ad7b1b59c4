package landscape

import (
	"os"

	"gopkg.in/yaml.v3"

	"vacuum-landscape/internal/errors"
)

// FilterSpec is the anthropic filter applied to job KPIs.
type FilterSpec struct {
	RequireClosure bool     `json:"require_closure" yaml:"require_closure"`
	RequireWard    bool     `json:"require_ward" yaml:"require_ward"`
	CMin           float64  `json:"c_min" yaml:"c_min"`
	CMax           float64  `json:"c_max" yaml:"c_max"`
	GapMin         float64  `json:"gap_min" yaml:"gap_min"`
	FactorPresence []string `json:"factor_presence" yaml:"factor_presence"`
}

// DefaultFilterSpec requires closure and Ward passes, a central charge in
// [0.7, 1.4], and a gap proxy of at least 0.05.
func DefaultFilterSpec() FilterSpec {
	return FilterSpec{
		RequireClosure: true,
		RequireWard:    true,
		CMin:           0.7,
		CMax:           1.4,
		GapMin:         0.05,
	}
}

// FilterDecision records the outcome of each filter predicate.
type FilterDecision struct {
	Closure bool `json:"closure"`
	Ward    bool `json:"ward"`
	CRange  bool `json:"c_range"`
	GapOK   bool `json:"gap_ok"`
	Factors bool `json:"factors"`
}

// Passes reports whether every predicate succeeded.
func (d FilterDecision) Passes() bool {
	return d.Closure && d.Ward && d.CRange && d.GapOK && d.Factors
}

// Evaluate applies the filter to a KPI snapshot.
func (f FilterSpec) Evaluate(kpi JobKpi) FilterDecision {
	closure := true
	if f.RequireClosure {
		closure = kpi.ClosurePass
	}
	ward := true
	if f.RequireWard {
		ward = kpi.WardPass
	}
	factorsOK := true
	for _, want := range f.FactorPresence {
		found := false
		for _, have := range kpi.Factors {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			factorsOK = false
			break
		}
	}
	return FilterDecision{
		Closure: closure,
		Ward:    ward,
		CRange:  kpi.CEst >= f.CMin && kpi.CEst <= f.CMax,
		GapOK:   kpi.GapProxy >= f.GapMin,
		Factors: factorsOK,
	}
}

// LoadFilters reads a filter spec from YAML, falling back to the defaults
// for omitted fields.
func LoadFilters(path string) (FilterSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FilterSpec{}, errors.Wrap(errors.FamilySerde, "filter-read",
			"read filter spec", err)
	}
	spec := DefaultFilterSpec()
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return FilterSpec{}, errors.Wrap(errors.FamilySerde, "filter-parse",
			"parse filter spec", err)
	}
	return spec, nil
}
