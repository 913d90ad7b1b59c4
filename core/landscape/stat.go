package landscape

import (
	"math"
	"sort"
)

// Histogram is a fixed-edge bin count over one KPI metric.
type Histogram struct {
	// Edges are inclusive on the left; the final bin absorbs overflow.
	Edges  []float64 `json:"edges"`
	Counts []uint64  `json:"counts"`
}

// Quantiles summarises one KPI metric.
type Quantiles struct {
	Q05 float64 `json:"q05"`
	Q50 float64 `json:"q50"`
	Q95 float64 `json:"q95"`
}

// Correlations pairs Pearson and Spearman coefficients for a metric pair.
type Correlations struct {
	Pearson  float64 `json:"pearson"`
	Spearman float64 `json:"spearman"`
}

// StatsSummary aggregates distribution statistics over a KPI collection.
type StatsSummary struct {
	Histograms   map[string]Histogram    `json:"histograms"`
	Quantiles    map[string]Quantiles    `json:"quantiles"`
	Correlations map[string]Correlations `json:"correlations"`
}

// StatsFromKPIs builds the deterministic summary for a KPI collection.
// Empty collections report zero-valued quantiles and correlations so the
// summary stays serializable.
func StatsFromKPIs(kpis []JobKpi) StatsSummary {
	cEst := func(kpi JobKpi) float64 { return kpi.CEst }
	gap := func(kpi JobKpi) float64 { return kpi.GapProxy }
	return StatsSummary{
		Histograms: map[string]Histogram{
			"c_est":     histogram(kpis, cEst, 0.4, 1.6, 6),
			"gap_proxy": histogram(kpis, gap, 0.0, 0.4, 5),
		},
		Quantiles: map[string]Quantiles{
			"c_est":     quantileSummary(kpis, cEst),
			"gap_proxy": quantileSummary(kpis, gap),
		},
		Correlations: map[string]Correlations{
			"c_est_vs_gap": correlationSummary(kpis, cEst, gap),
		},
	}
}

func histogram(kpis []JobKpi, metric func(JobKpi) float64, start, end float64, bins int) Histogram {
	step := 1.0
	if bins > 0 {
		step = (end - start) / float64(bins)
	}
	edges := make([]float64, 0, bins+1)
	for idx := 0; idx <= bins; idx++ {
		edges = append(edges, start+float64(idx)*step)
	}
	counts := make([]uint64, bins)
	for _, kpi := range kpis {
		bin := int(math.Floor((metric(kpi) - start) / step))
		if bin < 0 {
			bin = 0
		}
		if bin >= bins {
			bin = bins - 1
		}
		counts[bin]++
	}
	return Histogram{Edges: edges, Counts: counts}
}

func quantileSummary(kpis []JobKpi, metric func(JobKpi) float64) Quantiles {
	if len(kpis) == 0 {
		return Quantiles{}
	}
	values := make([]float64, 0, len(kpis))
	for _, kpi := range kpis {
		values = append(values, metric(kpi))
	}
	sort.Float64s(values)
	return Quantiles{
		Q05: percentile(values, 0.05),
		Q50: percentile(values, 0.5),
		Q95: percentile(values, 0.95),
	}
}

func percentile(sorted []float64, quantile float64) float64 {
	position := quantile * float64(len(sorted)-1)
	lower := int(math.Floor(position))
	upper := int(math.Ceil(position))
	if lower == upper {
		return sorted[lower]
	}
	weight := position - float64(lower)
	return sorted[lower]*(1.0-weight) + sorted[upper]*weight
}

func correlationSummary(kpis []JobKpi, xf, yf func(JobKpi) float64) Correlations {
	if len(kpis) == 0 {
		return Correlations{}
	}
	xs := make([]float64, 0, len(kpis))
	ys := make([]float64, 0, len(kpis))
	for _, kpi := range kpis {
		xs = append(xs, xf(kpi))
		ys = append(ys, yf(kpi))
	}
	return Correlations{
		Pearson:  pearson(xs, ys),
		Spearman: pearson(rank(xs), rank(ys)),
	}
}

func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	if n == 0 {
		return 0
	}
	var meanX, meanY float64
	for idx := range xs {
		meanX += xs[idx]
		meanY += ys[idx]
	}
	meanX /= n
	meanY /= n
	var num, denomX, denomY float64
	for idx := range xs {
		dx := xs[idx] - meanX
		dy := ys[idx] - meanY
		num += dx * dy
		denomX += dx * dx
		denomY += dy * dy
	}
	if denomX == 0 || denomY == 0 {
		return 0
	}
	return num / (math.Sqrt(denomX) * math.Sqrt(denomY))
}

// rank assigns 1-based ranks with ties averaged.
func rank(values []float64) []float64 {
	order := make([]int, len(values))
	for idx := range order {
		order[idx] = idx
	}
	sort.SliceStable(order, func(i, j int) bool {
		return values[order[i]] < values[order[j]]
	})
	ranks := make([]float64, len(values))
	idx := 0
	for idx < len(order) {
		start := idx
		value := values[order[idx]]
		for idx < len(order) && values[order[idx]] == value {
			idx++
		}
		rankValue := float64(start+idx-1)/2.0 + 1.0
		for _, original := range order[start:idx] {
			ranks[original] = rankValue
		}
	}
	return ranks
}
