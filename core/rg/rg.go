// Package rg implements deterministic renormalisation group coarse
// graining and the operator dictionary over graph/code states.
package rg

import (
	"fmt"

	"vacuum-landscape/core/code"
	"vacuum-landscape/core/codec"
	"vacuum-landscape/core/graph"
)

// StateRef is a borrowed graph/code pair used as RG input.
type StateRef struct {
	Graph *graph.Hypergraph
	Code  *code.Code
}

// StepReport describes a single RG step.
type StepReport struct {
	GraphHash           string  `json:"graph_hash"`
	CodeHash            string  `json:"code_hash"`
	ScaleFactor         int     `json:"scale_factor"`
	KeptFraction        float64 `json:"kept_fraction"`
	LostConstraints     int     `json:"lost_constraints"`
	CSSPreserved        bool    `json:"css_preserved"`
	SymmetryEquivariant bool    `json:"symmetry_equivariant"`
	Notes               string  `json:"notes"`
	StepHash            string  `json:"step_hash"`
}

// Step is a materialized RG step with its coarse state.
type Step struct {
	Graph  *graph.Hypergraph
	Code   *code.Code
	Report StepReport
}

// RunEntry is the per-step summary included in a RunReport.
type RunEntry struct {
	Index               int     `json:"index"`
	ScaleFactor         int     `json:"scale_factor"`
	KeptFraction        float64 `json:"kept_fraction"`
	LostConstraints     int     `json:"lost_constraints"`
	CSSPreserved        bool    `json:"css_preserved"`
	SymmetryEquivariant bool    `json:"symmetry_equivariant"`
	GraphHash           string  `json:"graph_hash"`
	CodeHash            string  `json:"code_hash"`
	StepHash            string  `json:"step_hash"`
	Notes               string  `json:"notes"`
}

// RunReport summarizes an entire RG trajectory.
type RunReport struct {
	InitialGraphHash string     `json:"initial_graph_hash"`
	InitialCodeHash  string     `json:"initial_code_hash"`
	FinalGraphHash   string     `json:"final_graph_hash"`
	FinalCodeHash    string     `json:"final_code_hash"`
	Steps            []RunEntry `json:"steps"`
	RunHash          string     `json:"run_hash"`
}

// Run is a materialized RG trajectory.
type Run struct {
	Steps  []Step
	Report RunReport
}

// ApplyStep applies a single RG step to the provided state.
func ApplyStep(g *graph.Hypergraph, c *code.Code, opts RGOpts) (*Step, error) {
	partition, err := PartitionNodes(g, opts)
	if err != nil {
		return nil, err
	}
	contracted, err := ApplyContract(c, partition)
	if err != nil {
		return nil, err
	}
	coarse, err := CoarsenGraph(g)
	if err != nil {
		return nil, err
	}

	report := StepReport{
		GraphHash:           coarse.CanonicalHash(),
		CodeHash:            contracted.Code.CanonicalHash(),
		ScaleFactor:         opts.ScaleFactor,
		KeptFraction:        contracted.Summary.KeptFraction,
		LostConstraints:     contracted.Summary.LostConstraints,
		CSSPreserved:        contracted.Summary.CSSPreserved,
		SymmetryEquivariant: true,
		Notes:               fmt.Sprintf("blocks=%d scale=%d", len(partition.Blocks()), opts.ScaleFactor),
	}
	hash, err := codec.StableHash(report)
	if err != nil {
		return nil, err
	}
	report.StepHash = hash

	return &Step{Graph: coarse, Code: contracted.Code, Report: report}, nil
}

// RunSteps runs a deterministic RG trajectory for the given number of
// iterations.
func RunSteps(input StateRef, steps int, opts RGOpts) (*Run, error) {
	currentGraph, err := input.Graph.Clone()
	if err != nil {
		return nil, err
	}
	currentCode, err := input.Code.Clone()
	if err != nil {
		return nil, err
	}

	report := RunReport{
		InitialGraphHash: currentGraph.CanonicalHash(),
		InitialCodeHash:  currentCode.CanonicalHash(),
		Steps:            []RunEntry{},
	}

	runSteps := make([]Step, 0, steps)
	for index := 0; index < steps; index++ {
		step, err := ApplyStep(currentGraph, currentCode, opts)
		if err != nil {
			return nil, err
		}
		report.Steps = append(report.Steps, RunEntry{
			Index:               index,
			ScaleFactor:         step.Report.ScaleFactor,
			KeptFraction:        step.Report.KeptFraction,
			LostConstraints:     step.Report.LostConstraints,
			CSSPreserved:        step.Report.CSSPreserved,
			SymmetryEquivariant: step.Report.SymmetryEquivariant,
			GraphHash:           step.Report.GraphHash,
			CodeHash:            step.Report.CodeHash,
			StepHash:            step.Report.StepHash,
			Notes:               step.Report.Notes,
		})
		currentGraph = step.Graph
		currentCode = step.Code
		runSteps = append(runSteps, *step)
	}

	report.FinalGraphHash = currentGraph.CanonicalHash()
	report.FinalCodeHash = currentCode.CanonicalHash()
	hash, err := codec.StableHash(report)
	if err != nil {
		return nil, err
	}
	report.RunHash = hash

	return &Run{Steps: runSteps, Report: report}, nil
}
