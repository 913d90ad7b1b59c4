// Package landscape sweeps ensembles of universes through the full
// pipeline, applies anthropic filters to the resulting KPIs, and emits
// deterministic reports, atlases, and summaries.
package landscape

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"gopkg.in/yaml.v3"

	"vacuum-landscape/core/codec"
	"vacuum-landscape/internal/errors"
)

// Version is recorded in report provenance.
const Version = "2.0.0"

// OutputLayout selects how job directories are arranged under the run root.
type OutputLayout string

const (
	// LayoutFlat puts every job in a flat "<seed>_<rule>" directory.
	LayoutFlat OutputLayout = "flat"
	// LayoutPerSeed nests rule directories under per-seed directories.
	LayoutPerSeed OutputLayout = "per-seed"
)

// OutputSpec controls artefact layout and retention.
type OutputSpec struct {
	Layout           OutputLayout `json:"layout" yaml:"layout"`
	KeepIntermediate bool         `json:"keep_intermediate" yaml:"keep_intermediate"`
}

// DefaultOutputSpec keeps intermediates in a flat layout.
func DefaultOutputSpec() OutputSpec {
	return OutputSpec{Layout: LayoutFlat, KeepIntermediate: true}
}

// GraphSpec describes the graph ensemble visited by the plan.
type GraphSpec struct {
	DegreeCap uint32 `json:"degree_cap" yaml:"degree_cap" hcl:"degree_cap"`
	KUniform  uint32 `json:"k_uniform" yaml:"k_uniform" hcl:"k_uniform"`
	Size      uint32 `json:"size" yaml:"size" hcl:"size"`
	Generator string `json:"generator" yaml:"generator" hcl:"generator"`
}

// CodeSpec describes the code ensemble visited by the plan.
type CodeSpec struct {
	Density    float64 `json:"density" yaml:"density" hcl:"density"`
	CSSVariant string  `json:"css_variant" yaml:"css_variant" hcl:"css_variant"`
	RowOpRate  float64 `json:"rowop_rate" yaml:"rowop_rate" hcl:"rowop_rate"`
}

// SamplerSpec configures the sampler stage of each job.
type SamplerSpec struct {
	Sweeps      uint32  `json:"sweeps" yaml:"sweeps" hcl:"sweeps"`
	WormWeight  float64 `json:"worm_weight" yaml:"worm_weight" hcl:"worm_weight"`
	Ladder      uint32  `json:"ladder" yaml:"ladder" hcl:"ladder"`
	Checkpoints uint32  `json:"checkpoints" yaml:"checkpoints" hcl:"checkpoints"`
}

// SpectrumSpec configures the spectrum stage of each job.
type SpectrumSpec struct {
	KPoints uint32 `json:"k_points" yaml:"k_points" hcl:"k_points"`
	Modes   uint32 `json:"modes" yaml:"modes" hcl:"modes"`
}

// GaugeSpec configures the gauge stage tolerances.
type GaugeSpec struct {
	ClosureTol float64 `json:"closure_tol" yaml:"closure_tol" hcl:"closure_tol"`
	WardTol    float64 `json:"ward_tol" yaml:"ward_tol" hcl:"ward_tol"`
}

// InteractSpec configures the interaction stage of each job.
type InteractSpec struct {
	Steps   uint32  `json:"steps" yaml:"steps" hcl:"steps,optional"`
	Dt      float64 `json:"dt" yaml:"dt" hcl:"dt,optional"`
	Measure string  `json:"measure" yaml:"measure" hcl:"measure"`
	Fit     string  `json:"fit" yaml:"fit" hcl:"fit"`
}

// DefaultInteractSpec fills the step budget defaults.
func DefaultInteractSpec() InteractSpec {
	return InteractSpec{Steps: 64, Dt: 0.02}
}

// RuleSpec is a parameter perturbation variant scanned by the plan.
type RuleSpec struct {
	ID    uint64 `json:"id" yaml:"id" hcl:"id"`
	Label string `json:"label" yaml:"label" hcl:"label"`
}

// DefaultRule is synthesised when a plan lists no rules.
func DefaultRule() RuleSpec {
	return RuleSpec{ID: 0, Label: "default"}
}

// Plan is a deterministic landscape exploration plan.
type Plan struct {
	Seeds    []uint64     `json:"seeds" yaml:"seeds"`
	Graph    GraphSpec    `json:"graph" yaml:"graph"`
	Code     CodeSpec     `json:"code" yaml:"code"`
	Sampler  SamplerSpec  `json:"sampler" yaml:"sampler"`
	Spectrum SpectrumSpec `json:"spectrum" yaml:"spectrum"`
	Gauge    GaugeSpec    `json:"gauge" yaml:"gauge"`
	Interact InteractSpec `json:"interact" yaml:"interact"`
	// Filters points at the anthropic filter spec, relative to the plan file.
	Filters string     `json:"filters" yaml:"filters"`
	Outputs OutputSpec `json:"outputs" yaml:"outputs"`
	Rules   []RuleSpec `json:"rules" yaml:"rules"`

	baseDir string
}

// Hash returns the canonical content hash of the plan.
func (p *Plan) Hash() (string, error) {
	return codec.StableHash(p)
}

// RuleSet returns the rules to scan, synthesising the default rule when the
// plan lists none.
func (p *Plan) RuleSet() []RuleSpec {
	if len(p.Rules) == 0 {
		return []RuleSpec{DefaultRule()}
	}
	out := make([]RuleSpec, len(p.Rules))
	copy(out, p.Rules)
	return out
}

// FiltersPath resolves the filter spec path against the plan directory.
func (p *Plan) FiltersPath() string {
	if filepath.IsAbs(p.Filters) {
		return p.Filters
	}
	return filepath.Join(p.baseDir, p.Filters)
}

func (p *Plan) normalize(planPath string) {
	sort.Slice(p.Seeds, func(i, j int) bool { return p.Seeds[i] < p.Seeds[j] })
	sort.Slice(p.Rules, func(i, j int) bool { return p.Rules[i].ID < p.Rules[j].ID })
	if p.Outputs.Layout == "" {
		p.Outputs.Layout = LayoutFlat
	}
	p.baseDir = filepath.Dir(planPath)
}

// LoadPlan reads a plan from YAML (default) or HCL (.hcl extension) and
// normalizes seed and rule ordering.
func LoadPlan(path string) (*Plan, error) {
	if filepath.Ext(path) == ".hcl" {
		return loadPlanHCL(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.FamilySerde, "plan-read",
			"read landscape plan", err)
	}
	plan := Plan{
		Interact: DefaultInteractSpec(),
		Outputs:  DefaultOutputSpec(),
	}
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, errors.Wrap(errors.FamilySerde, "plan-parse",
			"parse landscape plan", err)
	}
	plan.normalize(path)
	return &plan, nil
}

type hclPlan struct {
	Seeds    []uint64      `hcl:"seeds"`
	Graph    GraphSpec     `hcl:"graph,block"`
	Code     CodeSpec      `hcl:"code,block"`
	Sampler  SamplerSpec   `hcl:"sampler,block"`
	Spectrum SpectrumSpec  `hcl:"spectrum,block"`
	Gauge    GaugeSpec     `hcl:"gauge,block"`
	Interact *InteractSpec `hcl:"interact,block"`
	Filters  string        `hcl:"filters"`
	Outputs  *hclOutputs   `hcl:"outputs,block"`
	Rules    []RuleSpec    `hcl:"rule,block"`
}

type hclOutputs struct {
	Layout           string `hcl:"layout,optional"`
	KeepIntermediate *bool  `hcl:"keep_intermediate,optional"`
}

func loadPlanHCL(path string) (*Plan, error) {
	var raw hclPlan
	if err := hclsimple.DecodeFile(path, nil, &raw); err != nil {
		return nil, errors.Wrap(errors.FamilySerde, "plan-parse",
			"parse landscape plan", err)
	}
	plan := Plan{
		Seeds:    raw.Seeds,
		Graph:    raw.Graph,
		Code:     raw.Code,
		Sampler:  raw.Sampler,
		Spectrum: raw.Spectrum,
		Gauge:    raw.Gauge,
		Interact: DefaultInteractSpec(),
		Filters:  raw.Filters,
		Outputs:  DefaultOutputSpec(),
		Rules:    raw.Rules,
	}
	if raw.Interact != nil {
		plan.Interact = *raw.Interact
		if plan.Interact.Steps == 0 {
			plan.Interact.Steps = 64
		}
		if plan.Interact.Dt == 0 {
			plan.Interact.Dt = 0.02
		}
	}
	if raw.Outputs != nil {
		if raw.Outputs.Layout != "" {
			plan.Outputs.Layout = OutputLayout(raw.Outputs.Layout)
		}
		if raw.Outputs.KeepIntermediate != nil {
			plan.Outputs.KeepIntermediate = *raw.Outputs.KeepIntermediate
		}
	}
	plan.normalize(path)
	return &plan, nil
}
