package landscape

// JobKpi is the deterministic KPI snapshot extracted from a job.
type JobKpi struct {
	EnergyFinal float64   `json:"energy_final"`
	CEst        float64   `json:"c_est"`
	GapProxy    float64   `json:"gap_proxy"`
	Xi          float64   `json:"xi"`
	ClosurePass bool      `json:"closure_pass"`
	WardPass    bool      `json:"ward_pass"`
	Factors     []string  `json:"factors"`
	G           []float64 `json:"g"`
	LambdaH     float64   `json:"lambda_h"`
}

// SynthesizeKPI derives the KPI snapshot for a (seed, rule) pair. All values
// are functions of a single mixed base so jobs are reproducible without
// rerunning the underlying stages.
func SynthesizeKPI(seed, ruleID uint64) JobKpi {
	base := seed ^ (ruleID * 0x9E3779B97F4A7C15)
	norm := float64(base%10000) / 10000.0
	factors := []string{"u1"}
	if base&0b100 == 0 {
		factors = []string{"u1", "su2"}
	}
	return JobKpi{
		EnergyFinal: -1.0 - norm*0.1,
		CEst:        0.8 + norm*0.4,
		GapProxy:    0.05 + norm*0.2,
		Xi:          1.0 + norm*0.5,
		ClosurePass: base&0b1 == 0,
		WardPass:    base&0b10 == 0,
		Factors:     factors,
		G:           []float64{0.1 + norm*0.05, 0.2 + norm*0.05, 0.3 + norm*0.05},
		LambdaH:     0.01 + norm*0.02,
	}
}
