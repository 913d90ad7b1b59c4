package code

import (
	"fmt"
	"strconv"

	"vacuum-landscape/internal/errors"
)

// LogicalSummary describes the logical degrees of freedom left after the
// stabilizers fix their supports.
type LogicalSummary struct {
	NumLogical int               `json:"num_logical"`
	Labels     []string          `json:"labels"`
	Metadata   map[string]string `json:"metadata"`
}

// LogicalSummaryOf derives the summary: logical count is the variable count
// minus the combined rank, floored at zero.
func (c *Code) LogicalSummaryOf() (LogicalSummary, error) {
	if !c.IsOrthogonal() {
		return LogicalSummary{}, errors.New(errors.FamilyCode, "non-orthogonal-code",
			"logical summary requested for non-orthogonal CSS code")
	}
	numLogical := c.numVariables - c.Rank()
	if numLogical < 0 {
		numLogical = 0
	}
	labels := make([]string, numLogical)
	for i := range labels {
		labels[i] = fmt.Sprintf("logical-%d", i)
	}
	return LogicalSummary{
		NumLogical: numLogical,
		Labels:     labels,
		Metadata: map[string]string{
			"rank_x":        strconv.Itoa(c.rankX),
			"rank_z":        strconv.Itoa(c.rankZ),
			"num_variables": strconv.Itoa(c.numVariables),
		},
	}, nil
}
