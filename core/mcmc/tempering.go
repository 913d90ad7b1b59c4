package mcmc

import (
	"math"

	"vacuum-landscape/core/determinism"
)

// BuildLadder materialises the replica temperatures for a ladder
// configuration. Geometric ratios are clamped at 1.01 and temperatures
// at 1e-6 so the ladder is always strictly positive.
func BuildLadder(cfg LadderConfig) []float64 {
	if cfg.Policy == PolicyManual {
		if len(cfg.Temperatures) == 0 {
			return []float64{cfg.BaseTemperature}
		}
		return append([]float64(nil), cfg.Temperatures...)
	}

	ratio := math.Max(cfg.Ratio, 1.01)
	replicas := cfg.Replicas
	if replicas < 1 {
		replicas = 1
	}
	ladder := make([]float64, 0, replicas)
	temp := cfg.BaseTemperature
	for i := 0; i < replicas; i++ {
		ladder = append(ladder, math.Max(temp, 1e-6))
		temp *= ratio
	}
	return ladder
}

// ExchangeAcceptance computes the Metropolis probability of swapping two
// replica states at their respective temperatures.
func ExchangeAcceptance(energyA, tempA, energyB, tempB float64) float64 {
	betaA := 1.0 / math.Max(tempA, 1e-9)
	betaB := 1.0 / math.Max(tempB, 1e-9)
	delta := (betaA - betaB) * (energyB - energyA)
	return math.Min(math.Exp(-delta), 1.0)
}

// AttemptExchange draws an exchange decision and reports the acceptance
// probability that produced it.
func AttemptExchange(energyA, tempA, energyB, tempB float64, stream *determinism.Stream) (bool, float64) {
	acceptance := ExchangeAcceptance(energyA, tempA, energyB, tempB)
	draw := float64(stream.Uint64()) / float64(math.MaxUint64)
	return draw < acceptance, acceptance
}
