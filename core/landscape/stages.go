package landscape

import (
	"vacuum-landscape/core/codec"
)

// McmcManifest is the lightweight sampler-stage artefact kept per job.
type McmcManifest struct {
	Seed        uint64  `json:"seed"`
	RuleID      uint64  `json:"rule_id"`
	Sweeps      uint32  `json:"sweeps"`
	EnergyFinal float64 `json:"energy_final"`
}

// SpectrumSummary condenses the spectrum stage for a job.
type SpectrumSummary struct {
	Modes       uint32  `json:"modes"`
	KPoints     uint32  `json:"k_points"`
	SpectralGap float64 `json:"spectral_gap"`
}

// GaugeSummary condenses the gauge stage for a job.
type GaugeSummary struct {
	ClosurePass bool     `json:"closure_pass"`
	WardPass    bool     `json:"ward_pass"`
	Factors     []string `json:"factors"`
}

// InteractionSummary condenses the interaction stage for a job.
type InteractionSummary struct {
	G       []float64 `json:"g"`
	LambdaH float64   `json:"lambda_h"`
	CEst    float64   `json:"c_est"`
}

// StageHashes holds the canonical hash of every stage artefact.
type StageHashes struct {
	Mcmc        string `json:"mcmc"`
	Spectrum    string `json:"spectrum"`
	Gauge       string `json:"gauge"`
	Interaction string `json:"interaction"`
}

// StageOutputs bundles the per-job artefacts ready for persistence.
type StageOutputs struct {
	Mcmc        McmcManifest       `json:"mcmc"`
	Spectrum    SpectrumSummary    `json:"spectrum"`
	Gauge       GaugeSummary       `json:"gauge"`
	Interaction InteractionSummary `json:"interaction"`
	Kpi         JobKpi             `json:"kpi"`
	Hashes      StageHashes        `json:"hashes"`
}

// SynthesizeStageOutputs produces the deterministic stage artefacts for a
// (seed, rule) pair under the given plan knobs.
func SynthesizeStageOutputs(seed, ruleID uint64, sweeps, modes, kPoints uint32) (StageOutputs, error) {
	base := seed + ruleID*37
	kpi := SynthesizeKPI(seed, ruleID)
	mcmc := McmcManifest{
		Seed:        seed,
		RuleID:      ruleID,
		Sweeps:      sweeps,
		EnergyFinal: -1.0 - float64(base%100)/1000.0,
	}
	spectrum := SpectrumSummary{
		Modes:       modes,
		KPoints:     kPoints,
		SpectralGap: kpi.GapProxy,
	}
	gauge := GaugeSummary{
		ClosurePass: kpi.ClosurePass,
		WardPass:    kpi.WardPass,
		Factors:     kpi.Factors,
	}
	interaction := InteractionSummary{
		G:       kpi.G,
		LambdaH: kpi.LambdaH,
		CEst:    kpi.CEst,
	}
	hashes, err := buildStageHashes(mcmc, spectrum, gauge, interaction)
	if err != nil {
		return StageOutputs{}, err
	}
	return StageOutputs{
		Mcmc:        mcmc,
		Spectrum:    spectrum,
		Gauge:       gauge,
		Interaction: interaction,
		Kpi:         kpi,
		Hashes:      hashes,
	}, nil
}

func buildStageHashes(mcmc McmcManifest, spectrum SpectrumSummary, gauge GaugeSummary, interaction InteractionSummary) (StageHashes, error) {
	mcmcHash, err := codec.StableHash(mcmc)
	if err != nil {
		return StageHashes{}, err
	}
	spectrumHash, err := codec.StableHash(spectrum)
	if err != nil {
		return StageHashes{}, err
	}
	gaugeHash, err := codec.StableHash(gauge)
	if err != nil {
		return StageHashes{}, err
	}
	interactionHash, err := codec.StableHash(interaction)
	if err != nil {
		return StageHashes{}, err
	}
	return StageHashes{
		Mcmc:        mcmcHash,
		Spectrum:    spectrumHash,
		Gauge:       gaugeHash,
		Interaction: interactionHash,
	}, nil
}
