package aut

import (
	"math"
)

// SimilarityScore is a pairwise distance in [0, 1] with normalized
// per-component deltas.
type SimilarityScore struct {
	Distance   float64            `json:"distance"`
	Components map[string]float64 `json:"components"`
}

// Compare scores the difference between two analysis reports.
func Compare(a, b *AnalysisReport) SimilarityScore {
	components := map[string]float64{
		"graph":    graphDelta(a.GraphAut, b.GraphAut),
		"code":     codeDelta(a.CodeAut, b.CodeAut),
		"logical":  logicalDelta(a.Logical, b.Logical),
		"spectral": spectralDelta(a.Spectral, b.Spectral),
	}
	total := 0.0
	for _, v := range components {
		total += v
	}
	return SimilarityScore{
		Distance:   total / float64(len(components)),
		Components: components,
	}
}

func graphDelta(a, b GraphAutReport) float64 {
	return (logRatioDelta(a.Order, b.Order) + histogramDelta(a.OrbitHist, b.OrbitHist)) / 2
}

func codeDelta(a, b CodeAutReport) float64 {
	cssDelta := 0.0
	if a.CSSPreserving != b.CSSPreserving {
		cssDelta = 1.0
	}
	return (logRatioDelta(a.Order, b.Order) + cssDelta) / 2
}

func logicalDelta(a, b LogicalReport) float64 {
	sigDelta := 0.0
	if a.CommSignature != b.CommSignature {
		sigDelta = 1.0
	}
	rx := normalizedDifference(float64(a.RankX), float64(b.RankX))
	rz := normalizedDifference(float64(a.RankZ), float64(b.RankZ))
	return (rx + rz + sigDelta) / 3
}

func spectralDelta(a, b SpectralReport) float64 {
	laplacian := vectorDelta(a.LaplacianTopK, b.LaplacianTopK)
	stabilizer := vectorDelta(a.StabilizerTopK, b.StabilizerTopK)
	return (laplacian + stabilizer) / 2
}

func logRatioDelta(a, b uint64) float64 {
	return normalizedDifference(math.Log(float64(a)+1), math.Log(float64(b)+1))
}

func normalizedDifference(a, b float64) float64 {
	if a == b {
		return 0
	}
	denom := math.Abs(a) + math.Abs(b)
	if denom == 0 {
		return 0
	}
	return math.Min(math.Abs(a-b)/denom, 1)
}

func histogramDelta(a, b []int) float64 {
	sumA, sumB := 0.0, 0.0
	for _, v := range a {
		sumA += float64(v)
	}
	for _, v := range b {
		sumB += float64(v)
	}
	if sumA == 0 && sumB == 0 {
		return 0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	delta := 0.0
	for idx := 0; idx < maxLen; idx++ {
		va, vb := 0.0, 0.0
		if idx < len(a) {
			va = float64(a[idx]) / math.Max(sumA, 1)
		}
		if idx < len(b) {
			vb = float64(b[idx]) / math.Max(sumB, 1)
		}
		delta += math.Abs(va - vb)
	}
	return math.Min(delta*0.5, 1)
}

func vectorDelta(a, b []float64) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	dist := euclideanDistance(a, b)
	return dist / (dist + 1)
}

func euclideanDistance(a, b []float64) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	sum := 0.0
	for idx := 0; idx < maxLen; idx++ {
		va, vb := 0.0, 0.0
		if idx < len(a) {
			va = a[idx]
		}
		if idx < len(b) {
			vb = b[idx]
		}
		sum += (va - vb) * (va - vb)
	}
	return math.Sqrt(sum)
}
