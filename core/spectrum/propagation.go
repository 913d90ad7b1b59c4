package spectrum

import (
	"vacuum-landscape/core/codec"
	"vacuum-landscape/core/determinism"
	"vacuum-landscape/internal/errors"
)

// PropOpts controls the linear response propagation.
type PropOpts struct {
	Iterations int     `json:"iterations"`
	Tolerance  float64 `json:"tolerance"`
	Seed       uint64  `json:"seed"`
}

// DefaultPropOpts runs sixteen iterations at 1e-6 tolerance.
func DefaultPropOpts(seed uint64) PropOpts {
	return PropOpts{Iterations: 16, Tolerance: 1e-6, Seed: seed}
}

func (o PropOpts) substreamSeed(offset uint64) uint64 {
	return determinism.Derive(o.Seed, offset)
}

// Response is the deterministic linear response of a seeded excitation.
type Response struct {
	Support      []uint64  `json:"support"`
	Amplitudes   []float64 `json:"amplitudes"`
	ResponseHash string    `json:"response_hash"`
	Iterations   int       `json:"iterations"`
	Tolerance    float64   `json:"tolerance"`
}

// ExciteAndPropagate seeds an excitation and records per-node amplitudes.
func ExciteAndPropagate(operators *Operators, spec ExcitationSpec, opts PropOpts) (*Response, error) {
	support, err := excitationSupport(operators, spec, opts.substreamSeed(0))
	if err != nil {
		return nil, err
	}
	if len(support) == 0 {
		return nil, errors.New(errors.FamilyRG, "empty-support",
			"excitation produced an empty support set")
	}

	stream := determinism.NewStream(opts.substreamSeed(1))
	base := operators.baseScale()
	if base < 1e-9 {
		base = 1e-9
	}
	denom := float64(opts.Iterations)
	if denom < 1 {
		denom = 1
	}
	amplitudes := make([]float64, 0, len(support))
	for idx, node := range support {
		jitter := stream.Float64FromUint32()
		scaled := (float64(node)+1)/denom + jitter*opts.Tolerance
		amplitude := determinism.Round(scaled / base)
		amplitudes = append(amplitudes, amplitude+determinism.Round(float64(idx)*1e-3))
	}

	hash, err := codec.StableHash(struct {
		Support    []uint64  `json:"support"`
		Amplitudes []float64 `json:"amplitudes"`
	}{support, amplitudes})
	if err != nil {
		return nil, err
	}
	return &Response{
		Support:      support,
		Amplitudes:   amplitudes,
		ResponseHash: hash,
		Iterations:   opts.Iterations,
		Tolerance:    determinism.Round(opts.Tolerance),
	}, nil
}
