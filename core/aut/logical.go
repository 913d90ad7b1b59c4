package aut

import (
	"fmt"
	"sort"
	"strings"

	"vacuum-landscape/core/code"
)

// LogicalReport captures the logical rank profile and a deterministic
// commutation signature.
type LogicalReport struct {
	RankX         int    `json:"rank_x"`
	RankZ         int    `json:"rank_z"`
	CommSignature string `json:"comm_signature"`
}

// AnalyzeLogical extracts logical invariants from a code.
func AnalyzeLogical(c *code.Code) (LogicalReport, error) {
	summary, err := c.LogicalSummaryOf()
	if err != nil {
		return LogicalReport{}, err
	}
	return LogicalReport{
		RankX:         c.RankX(),
		RankZ:         c.RankZ(),
		CommSignature: formatSummary(summary),
	}, nil
}

func formatSummary(summary code.LogicalSummary) string {
	labels := "-"
	if len(summary.Labels) > 0 {
		sorted := append([]string(nil), summary.Labels...)
		sort.Strings(sorted)
		labels = strings.Join(sorted, "|")
	}
	keys := make([]string, 0, len(summary.Metadata))
	for k := range summary.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, summary.Metadata[k]))
	}
	return fmt.Sprintf("logical:%d|labels:%s|meta:%s",
		summary.NumLogical, labels, strings.Join(pairs, ";"))
}
