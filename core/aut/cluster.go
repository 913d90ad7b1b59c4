package aut

import (
	"math"
	"sort"
)

// ClusterOpts controls deterministic k-means over analysis reports.
type ClusterOpts struct {
	K             int    `json:"k"`
	MaxIterations int    `json:"max_iterations"`
	Seed          uint64 `json:"seed"`
}

// DefaultClusterOpts matches the standard landscape configuration.
func DefaultClusterOpts() ClusterOpts {
	return ClusterOpts{K: 2, MaxIterations: 16, Seed: 0xA5A52024}
}

// ClusterInfo describes one discovered cluster.
type ClusterInfo struct {
	ClusterID          int      `json:"cluster_id"`
	Size               int      `json:"size"`
	CentroidReportHash string   `json:"centroid_report_hash"`
	Members            []string `json:"members"`
	Occupancy          float64  `json:"occupancy"`
}

// ClusterSummary is the full clustering result.
type ClusterSummary struct {
	Clusters []ClusterInfo `json:"clusters"`
}

// Cluster groups reports by feature distance. Initial centroids come from
// the k reports with the lexicographically smallest analysis hashes, so
// the outcome does not depend on input order.
func Cluster(reports []*AnalysisReport, opts ClusterOpts) ClusterSummary {
	if len(reports) == 0 {
		return ClusterSummary{Clusters: []ClusterInfo{}}
	}
	k := opts.K
	if k < 1 {
		k = 1
	}
	if k > len(reports) {
		k = len(reports)
	}

	features := make([][]float64, len(reports))
	for i, report := range reports {
		features[i] = featureVector(report)
	}
	centroids := initialCentroids(reports, features, k)
	assignments := make([]int, len(reports))

	iterations := opts.MaxIterations
	if iterations < 1 {
		iterations = 1
	}
	for iter := 0; iter < iterations; iter++ {
		changed := assignClusters(features, centroids, assignments)
		recomputeCentroids(features, assignments, centroids)
		if !changed {
			break
		}
	}
	return ClusterSummary{Clusters: buildClusterInfos(reports, features, assignments, centroids)}
}

func featureVector(report *AnalysisReport) []float64 {
	var vector []float64
	totalOrbits := 0.0
	for _, v := range report.GraphAut.OrbitHist {
		totalOrbits += float64(v)
	}
	if totalOrbits > 0 {
		for _, v := range report.GraphAut.OrbitHist {
			vector = append(vector, float64(v)/totalOrbits)
		}
	}
	vector = append(vector,
		math.Log(float64(report.GraphAut.Order)+1),
		math.Log(float64(report.CodeAut.Order)+1),
		float64(report.Logical.RankX),
		float64(report.Logical.RankZ),
	)
	vector = append(vector, report.Spectral.LaplacianTopK...)
	vector = append(vector, report.Spectral.StabilizerTopK...)
	return vector
}

func initialCentroids(reports []*AnalysisReport, features [][]float64, k int) [][]float64 {
	order := make([]int, len(reports))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return reports[order[i]].Hashes.AnalysisHash < reports[order[j]].Hashes.AnalysisHash
	})
	centroids := make([][]float64, 0, k)
	for _, idx := range order[:k] {
		centroids = append(centroids, append([]float64(nil), features[idx]...))
	}
	return centroids
}

func assignClusters(features, centroids [][]float64, assignments []int) bool {
	changed := false
	for idx, feature := range features {
		best := 0
		bestDist := math.Inf(1)
		for clusterIdx, centroid := range centroids {
			if dist := euclideanDistance(feature, centroid); dist < bestDist {
				best = clusterIdx
				bestDist = dist
			}
		}
		if assignments[idx] != best {
			assignments[idx] = best
			changed = true
		}
	}
	return changed
}

func recomputeCentroids(features [][]float64, assignments []int, centroids [][]float64) {
	sums := make([][]float64, len(centroids))
	counts := make([]int, len(centroids))
	for idx, feature := range features {
		cluster := assignments[idx]
		counts[cluster]++
		if sums[cluster] == nil {
			sums[cluster] = make([]float64, len(feature))
		}
		for slot, value := range feature {
			if slot >= len(sums[cluster]) {
				grown := make([]float64, slot+1)
				copy(grown, sums[cluster])
				sums[cluster] = grown
			}
			sums[cluster][slot] += value
		}
	}
	for cluster := range centroids {
		if sums[cluster] == nil || counts[cluster] == 0 {
			continue
		}
		centroid := sums[cluster]
		denom := float64(counts[cluster])
		for slot := range centroid {
			centroid[slot] /= denom
		}
		centroids[cluster] = centroid
	}
}

func buildClusterInfos(
	reports []*AnalysisReport,
	features [][]float64,
	assignments []int,
	centroids [][]float64,
) []ClusterInfo {
	total := float64(len(reports))
	memberIndex := make(map[int][]int)
	for idx, cluster := range assignments {
		memberIndex[cluster] = append(memberIndex[cluster], idx)
	}
	clusterIDs := make([]int, 0, len(memberIndex))
	for id := range memberIndex {
		clusterIDs = append(clusterIDs, id)
	}
	sort.Ints(clusterIDs)

	infos := make([]ClusterInfo, 0, len(clusterIDs))
	for _, id := range clusterIDs {
		members := memberIndex[id]
		representative := members[0]
		bestDist := math.Inf(1)
		for _, idx := range members {
			if dist := euclideanDistance(features[idx], centroids[id]); dist < bestDist {
				bestDist = dist
				representative = idx
			}
		}
		hashes := make([]string, 0, len(members))
		for _, idx := range members {
			hashes = append(hashes, reports[idx].Hashes.AnalysisHash)
		}
		sort.Strings(hashes)
		infos = append(infos, ClusterInfo{
			ClusterID:          id,
			Size:               len(members),
			CentroidReportHash: reports[representative].Hashes.AnalysisHash,
			Members:            hashes,
			Occupancy:          float64(len(members)) / total,
		})
	}
	return infos
}
