package interaction

import (
	"math"

	"vacuum-landscape/core/codec"
	"vacuum-landscape/core/determinism"
	"vacuum-landscape/internal/errors"
)

// KernelMode guides how much of the configured step budget is executed.
type KernelMode string

const (
	// ModeLight caps the step budget for CI runs.
	ModeLight KernelMode = "light"
	// ModeFull runs the full configured budget.
	ModeFull KernelMode = "full"
	// ModeFast is a short exploratory mode.
	ModeFast KernelMode = "fast"
)

// KernelOpts configures the deterministic interaction kernel.
type KernelOpts struct {
	Steps int `json:"steps"`
	// Dt is the time increment applied at each step.
	Dt        float64 `json:"dt"`
	Tolerance float64 `json:"tolerance"`
	// SaveTrajectory retains per-step samples.
	SaveTrajectory bool       `json:"save_trajectory"`
	Mode           KernelMode `json:"mode"`
}

// DefaultKernelOpts runs 256 light-mode steps of 0.01 with the trajectory
// retained.
func DefaultKernelOpts() KernelOpts {
	return KernelOpts{
		Steps:          256,
		Dt:             0.01,
		Tolerance:      1e-6,
		SaveTrajectory: true,
		Mode:           ModeLight,
	}
}

// TrajectoryStep is one discrete sample recorded during propagation.
type TrajectoryStep struct {
	Step int     `json:"step"`
	Time float64 `json:"time"`
	Norm float64 `json:"norm"`
	// Phase is the accumulator value at this step.
	Phase float64 `json:"phase"`
}

// TrajectoryMeta summarizes a trajectory.
type TrajectoryMeta struct {
	Steps     int     `json:"steps"`
	TotalTime float64 `json:"total_time"`
	FinalNorm float64 `json:"final_norm"`
	TrajHash  string  `json:"traj_hash"`
}

// Trajectory is the propagation record produced by the kernel.
type Trajectory struct {
	Meta TrajectoryMeta `json:"meta"`
	// Steps is empty unless the kernel was asked to save the trajectory.
	Steps []TrajectoryStep `json:"steps,omitempty"`
}

func effectiveSteps(opts KernelOpts) int {
	switch opts.Mode {
	case ModeFast:
		if opts.Steps > 64 {
			return 64
		}
	case ModeFull:
		return opts.Steps
	default:
		if opts.Steps > 128 {
			return 128
		}
	}
	return opts.Steps
}

func integratePhase(stream *determinism.Stream, tolerance float64) float64 {
	jitter := (stream.Float64() - 0.5) * math.Sqrt(tolerance)
	return determinism.Round(jitter)
}

// Evolve applies the deterministic interaction kernel and records a
// trajectory. The norm contracts geometrically toward zero while the phase
// accumulator absorbs tolerance-scaled jitter.
func Evolve(state *PreparedState, opts KernelOpts) (*Trajectory, error) {
	if opts.Steps == 0 {
		return nil, errors.New(errors.FamilyCode, "zero-steps",
			"kernel must run for at least one step")
	}
	if math.IsInf(opts.Dt, 0) || math.IsNaN(opts.Dt) || opts.Dt <= 0 {
		return nil, errors.New(errors.FamilyCode, "invalid-dt",
			"time step must be positive and finite")
	}

	steps := effectiveSteps(opts)
	seed := determinism.SeedFromHash(state.PrepHash)
	stream := determinism.NewStream(determinism.Derive(seed, 2))
	norm := state.Norm
	decay := 1.0 / (float64(steps) + 1)
	var history []TrajectoryStep
	var time float64
	for step := 0; step < steps; step++ {
		time += opts.Dt
		phase := integratePhase(stream, opts.Tolerance)
		norm = determinism.Round(math.Max(norm*(1-decay), 0))
		if opts.SaveTrajectory {
			history = append(history, TrajectoryStep{
				Step:  step,
				Time:  determinism.Round(time),
				Norm:  norm,
				Phase: phase,
			})
		}
	}

	trajHash, err := codec.StableHash(struct {
		PrepHash  string           `json:"prep_hash"`
		Steps     int              `json:"steps"`
		TotalTime float64          `json:"total_time"`
		FinalNorm float64          `json:"final_norm"`
		History   []TrajectoryStep `json:"history"`
	}{state.PrepHash, steps, determinism.Round(time), norm, history})
	if err != nil {
		return nil, err
	}

	return &Trajectory{
		Meta: TrajectoryMeta{
			Steps:     steps,
			TotalTime: determinism.Round(time),
			FinalNorm: norm,
			TrajHash:  trajHash,
		},
		Steps: history,
	}, nil
}
