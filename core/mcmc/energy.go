package mcmc

import (
	"math"

	"vacuum-landscape/core/code"
	"vacuum-landscape/core/graph"
)

// EnergyBreakdown splits the sampler energy into its scoring proxies.
// Values are kept at full precision so acceptance decisions are not
// biased by rounding.
type EnergyBreakdown struct {
	Cmdl  float64 `json:"cmdl"`
	Spec  float64 `json:"spec"`
	Curv  float64 `json:"curv"`
	Total float64 `json:"total"`
}

// ZeroEnergy returns an all-zero breakdown.
func ZeroEnergy() EnergyBreakdown {
	return EnergyBreakdown{}
}

// Score computes the weighted energy of a code/graph pair.
func Score(c *code.Code, g *graph.Hypergraph, weights ScoringWeights) (EnergyBreakdown, error) {
	cmdl := cmdlProxy(c)
	spec := specProxy(c)
	curv, err := curvProxy(g)
	if err != nil {
		return EnergyBreakdown{}, err
	}
	return EnergyBreakdown{
		Cmdl:  cmdl,
		Spec:  spec,
		Curv:  curv,
		Total: weights.Cmdl*cmdl + weights.Spec*spec + weights.Curv*curv,
	}, nil
}

// cmdlProxy is a compressed description length estimate built from the
// generator count, the average support, and a cumulative log of gaps
// between consecutive support variables.
func cmdlProxy(c *code.Code) float64 {
	vars := c.NumVariables()
	supports := append(c.XSupports(), c.ZSupports()...)
	generatorCount := float64(len(supports))
	if generatorCount == 0 {
		return 0
	}

	totalSupport := 0
	lzProxy := 0.0
	for _, support := range supports {
		totalSupport += len(support)
		prev := 0
		for _, v := range support {
			gap := v - prev
			if gap < 0 {
				gap = -gap
			}
			lzProxy += math.Log(float64(gap) + 1)
			prev = v
		}
		if vars > 0 {
			tail := vars - minInt(prev, vars-1)
			lzProxy += math.Log(float64(tail) + 1)
		}
	}
	avgSupport := float64(totalSupport) / generatorCount
	return generatorCount + avgSupport + lzProxy/generatorCount
}

// specProxy penalises rank deficits, uneven stabiliser weights, and
// supports that are tiny relative to the variable count.
func specProxy(c *code.Code) float64 {
	rankDeficit := float64(c.NumConstraints() - c.Rank())

	supports := append(c.XSupports(), c.ZSupports()...)
	weights := make([]float64, 0, len(supports))
	for _, support := range supports {
		weights = append(weights, float64(len(support)))
	}
	supportVar := variance(weights)

	sparsePenalty := 0.0
	if vars := c.NumVariables(); vars > 0 && len(weights) > 0 {
		sum := 0.0
		for _, w := range weights {
			sum += math.Pow((w+1)/float64(vars), 0.75)
		}
		sparsePenalty = sum / float64(len(weights))
	}

	return rankDeficit*rankDeficit + supportVar + sparsePenalty
}

func curvProxy(g *graph.Hypergraph) (float64, error) {
	nodeVals, edgeVals, err := g.CurvatureProfile()
	if err != nil {
		return 0, err
	}
	return (variance(nodeVals) + variance(edgeVals)) / 2, nil
}

func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	sqMean := 0.0
	for _, v := range values {
		mean += v
		sqMean += v * v
	}
	mean /= float64(len(values))
	sqMean /= float64(len(values))
	return math.Max(sqMean-mean*mean, 0)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
