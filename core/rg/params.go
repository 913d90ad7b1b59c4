package rg

// RGOpts controls coarse graining.
type RGOpts struct {
	// ScaleFactor is the deterministic scaling factor applied at each step.
	ScaleFactor int `json:"scale_factor"`
	// MaxBlockSize caps how many fine nodes merge into a single block.
	MaxBlockSize int `json:"max_block_size"`
	// Seed influences block ordering.
	Seed uint64 `json:"seed"`
}

// DefaultRGOpts halves the state with blocks of two.
func DefaultRGOpts() RGOpts {
	return RGOpts{ScaleFactor: 2, MaxBlockSize: 2, Seed: 0xC0FFEE}
}

// Sanitized returns a copy with positive factors.
func (o RGOpts) Sanitized() RGOpts {
	out := o
	if out.ScaleFactor < 1 {
		out.ScaleFactor = 1
	}
	if out.MaxBlockSize < 1 {
		out.MaxBlockSize = 1
	}
	return out
}

// DictOpts controls operator dictionary extraction.
type DictOpts struct {
	// YukawaCount is the number of synthetic Yukawa couplings to emit.
	YukawaCount int `json:"yukawa_count"`
	// Seed is used when constructing deterministic probes.
	Seed uint64 `json:"seed"`
	// ResidualTolerance is the maximum tolerated residual reported in
	// convergence diagnostics.
	ResidualTolerance float64 `json:"residual_tolerance"`
}

// DefaultDictOpts emits four Yukawa couplings.
func DefaultDictOpts() DictOpts {
	return DictOpts{YukawaCount: 4, Seed: 0xA55EED5EED, ResidualTolerance: 1e-6}
}

// Sanitized returns a copy with positive counts.
func (o DictOpts) Sanitized() DictOpts {
	out := o
	if out.YukawaCount < 1 {
		out.YukawaCount = 1
	}
	if out.ResidualTolerance < 0 {
		out.ResidualTolerance = 0
	}
	return out
}

// CovarianceThresholds bound the deviations tolerated by the covariance
// check between RG and dictionary flows.
type CovarianceThresholds struct {
	CKinRelative   float64 `json:"c_kin_relative"`
	GAbsolute      float64 `json:"g_absolute"`
	LambdaAbsolute float64 `json:"lambda_absolute"`
	YukawaAbsolute float64 `json:"yukawa_absolute"`
}

// DefaultCovarianceThresholds allows 5% kinetic drift and 0.1 absolute
// coupling drift.
func DefaultCovarianceThresholds() CovarianceThresholds {
	return CovarianceThresholds{
		CKinRelative:   0.05,
		GAbsolute:      0.1,
		LambdaAbsolute: 0.1,
		YukawaAbsolute: 0.1,
	}
}
