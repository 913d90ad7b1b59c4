package aut

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacuum-landscape/core/code"
	"vacuum-landscape/core/graph"
)

func openConfig() graph.Config {
	cfg := graph.DefaultConfig()
	cfg.MaxInDegree = nil
	cfg.MaxOutDegree = nil
	cfg.KUniform = nil
	return cfg
}

// starGraph has one hub feeding n leaves, so the leaves are mutually
// interchangeable.
func starGraph(t *testing.T, leaves int) *graph.Hypergraph {
	t.Helper()
	g := graph.New(openConfig())
	hub := g.AddNode()
	for i := 0; i < leaves; i++ {
		leaf := g.AddNode()
		_, err := g.AddHyperedge([]graph.NodeID{hub}, []graph.NodeID{leaf})
		require.NoError(t, err)
	}
	return g
}

func smallCode(t *testing.T) *code.Code {
	t.Helper()
	c, err := code.New(4, [][]int{{0, 1, 2, 3}}, [][]int{{0, 1}, {2, 3}})
	require.NoError(t, err)
	return c
}

func analyzePair(t *testing.T, g *graph.Hypergraph, c *code.Code) *AnalysisReport {
	t.Helper()
	report, err := Analyze(g, c, DefaultScanOpts())
	require.NoError(t, err)
	return report
}

func TestGraphAutStarSymmetry(t *testing.T) {
	report := analyzePair(t, starGraph(t, 3), smallCode(t))

	// the three leaves permute freely: 3! automorphisms
	assert.Equal(t, uint64(6), report.GraphAut.Order)
	assert.False(t, report.GraphAut.GensTruncated)
	assert.Equal(t, []int{1, 3}, report.GraphAut.OrbitHist)
}

func TestGraphAutTruncatesLargeGraphs(t *testing.T) {
	report := analyzePair(t, starGraph(t, 9), smallCode(t))
	assert.Equal(t, uint64(1), report.GraphAut.Order)
	assert.True(t, report.GraphAut.GensTruncated)
	assert.Len(t, report.GraphAut.OrbitHist, 10)
}

func TestCodeAutSymmetricCode(t *testing.T) {
	report := analyzePair(t, starGraph(t, 2), smallCode(t))
	// swapping 0<->1, 2<->3, and the pair blocks all preserve both families
	assert.Greater(t, report.CodeAut.Order, uint64(1))
	assert.False(t, report.CodeAut.GensTruncated)
}

func TestCodeAutDetectsFamilyExchange(t *testing.T) {
	// identical X and Z families of even-overlap pairs are exchangeable
	c, err := code.New(4, [][]int{{0, 1}}, [][]int{{2, 3}})
	require.NoError(t, err)
	report := analyzePair(t, starGraph(t, 2), c)
	assert.False(t, report.CodeAut.CSSPreserving)
}

func TestCodeAutTruncatesLargeCodes(t *testing.T) {
	checks := make([][]int, 0, 8)
	for i := 0; i < 8; i++ {
		checks = append(checks, []int{i, i + 1})
	}
	c, err := code.New(9, nil, checks)
	require.NoError(t, err)
	report := analyzePair(t, starGraph(t, 2), c)
	assert.True(t, report.CodeAut.GensTruncated)
	assert.Equal(t, uint64(1), report.CodeAut.Order)
}

func TestLaplacianSpectrumOfPair(t *testing.T) {
	g := graph.New(openConfig())
	a := g.AddNode()
	b := g.AddNode()
	_, err := g.AddHyperedge([]graph.NodeID{a}, []graph.NodeID{b})
	require.NoError(t, err)

	report := analyzePair(t, g, smallCode(t))
	// path Laplacian on two nodes has eigenvalues {2, 0}
	require.Len(t, report.Spectral.LaplacianTopK, 2)
	assert.InDelta(t, 2.0, report.Spectral.LaplacianTopK[0], 1e-9)
	assert.InDelta(t, 0.0, report.Spectral.LaplacianTopK[1], 1e-9)
}

func TestStabilizerSpectrumDominatedByFullCheck(t *testing.T) {
	report := analyzePair(t, starGraph(t, 2), smallCode(t))
	require.NotEmpty(t, report.Spectral.StabilizerTopK)
	// the weight-4 check dominates the Gram diagonal
	assert.GreaterOrEqual(t, report.Spectral.StabilizerTopK[0], 4.0)
}

func TestLogicalReport(t *testing.T) {
	report := analyzePair(t, starGraph(t, 2), smallCode(t))
	assert.Equal(t, 1, report.Logical.RankX)
	assert.Equal(t, 2, report.Logical.RankZ)
	assert.Contains(t, report.Logical.CommSignature, "logical:1")
	assert.Contains(t, report.Logical.CommSignature, "rank_x=1")
}

func TestAnalysisHashIsStable(t *testing.T) {
	r1 := analyzePair(t, starGraph(t, 3), smallCode(t))
	r2 := analyzePair(t, starGraph(t, 3), smallCode(t))
	assert.Equal(t, r1.Hashes.AnalysisHash, r2.Hashes.AnalysisHash)
	assert.NotEmpty(t, r1.Hashes.GraphHash)
	assert.NotEmpty(t, r1.Hashes.CodeHash)

	r3 := analyzePair(t, starGraph(t, 4), smallCode(t))
	assert.NotEqual(t, r1.Hashes.AnalysisHash, r3.Hashes.AnalysisHash)
}

func TestReportRoundTrip(t *testing.T) {
	report := analyzePair(t, starGraph(t, 3), smallCode(t))
	data, err := MarshalReport(report)
	require.NoError(t, err)
	restored, err := UnmarshalReport(data)
	require.NoError(t, err)
	assert.Equal(t, report.Hashes, restored.Hashes)
	assert.Equal(t, report.GraphAut, restored.GraphAut)
}

func TestCompare(t *testing.T) {
	r1 := analyzePair(t, starGraph(t, 3), smallCode(t))
	score := Compare(r1, r1)
	assert.Equal(t, 0.0, score.Distance)

	r2 := analyzePair(t, starGraph(t, 5), smallCode(t))
	score = Compare(r1, r2)
	assert.Greater(t, score.Distance, 0.0)
	assert.LessOrEqual(t, score.Distance, 1.0)
	assert.Contains(t, score.Components, "graph")
	assert.Contains(t, score.Components, "spectral")
}

func TestClusterPartitionsReports(t *testing.T) {
	reports := []*AnalysisReport{
		analyzePair(t, starGraph(t, 2), smallCode(t)),
		analyzePair(t, starGraph(t, 3), smallCode(t)),
		analyzePair(t, starGraph(t, 5), smallCode(t)),
		analyzePair(t, starGraph(t, 6), smallCode(t)),
	}
	summary := Cluster(reports, DefaultClusterOpts())
	require.NotEmpty(t, summary.Clusters)

	totalSize := 0
	totalOccupancy := 0.0
	for i, cluster := range summary.Clusters {
		if i > 0 {
			assert.Greater(t, cluster.ClusterID, summary.Clusters[i-1].ClusterID)
		}
		assert.Len(t, cluster.Members, cluster.Size)
		assert.Contains(t, cluster.Members, cluster.CentroidReportHash)
		totalSize += cluster.Size
		totalOccupancy += cluster.Occupancy
	}
	assert.Equal(t, len(reports), totalSize)
	assert.InDelta(t, 1.0, totalOccupancy, 1e-12)

	// input order does not change the outcome
	reversed := []*AnalysisReport{reports[3], reports[2], reports[1], reports[0]}
	again := Cluster(reversed, DefaultClusterOpts())
	assert.Equal(t, summary, again)
}

func TestClusterSingleGroup(t *testing.T) {
	reports := []*AnalysisReport{
		analyzePair(t, starGraph(t, 2), smallCode(t)),
		analyzePair(t, starGraph(t, 4), smallCode(t)),
	}
	summary := Cluster(reports, ClusterOpts{K: 1, MaxIterations: 4, Seed: 1})
	require.Len(t, summary.Clusters, 1)
	assert.Equal(t, 2, summary.Clusters[0].Size)
}

func TestClusterEmptyInput(t *testing.T) {
	summary := Cluster(nil, DefaultClusterOpts())
	assert.Empty(t, summary.Clusters)
}
