// Package interaction implements deterministic few-body interaction
// experiments over spectrum and gauge artefacts: state preparation, kernel
// evolution, observable measurement, and coupling fits.
package interaction

import (
	"math"

	"vacuum-landscape/core/codec"
	"vacuum-landscape/core/determinism"
	"vacuum-landscape/core/gauge"
	"vacuum-landscape/core/spectrum"
	"vacuum-landscape/internal/errors"
)

// PrepTemplate selects a participant template.
type PrepTemplate string

const (
	// TemplateTwoBody selects the lowest momentum mode pair.
	TemplateTwoBody PrepTemplate = "two_body"
	// TemplateThreeBody selects the three lowest momentum modes.
	TemplateThreeBody PrepTemplate = "three_body"
)

func (t PrepTemplate) participantCount() int {
	if t == TemplateThreeBody {
		return 3
	}
	return 2
}

// ParticipantSpec declares one participant of the initial state.
type ParticipantSpec struct {
	// ModeID is taken from the spectrum operator indices.
	ModeID int `json:"mode_id"`
	// K is the momentum magnitude assigned to the participant.
	K float64 `json:"k"`
	// Charge is the effective charge carried by the participant.
	Charge float64 `json:"charge"`
}

// PrepSpec controls participant selection.
type PrepSpec struct {
	Basis        string            `json:"basis"`
	Participants []ParticipantSpec `json:"participants,omitempty"`
	// Template is used when Participants is empty.
	Template PrepTemplate `json:"template,omitempty"`
	// NormOverride replaces the derived normalisation when positive.
	NormOverride float64 `json:"norm_override,omitempty"`
}

// DefaultPrepSpec prepares a two-body state on the mode basis.
func DefaultPrepSpec() PrepSpec {
	return PrepSpec{Basis: "modes", Template: TemplateTwoBody}
}

// PreparedParticipant is a participant with deterministic rounding applied.
type PreparedParticipant struct {
	ModeID int     `json:"mode_id"`
	K      float64 `json:"k"`
	Charge float64 `json:"charge"`
}

// PreparedState is the deterministic initial state descriptor.
type PreparedState struct {
	Basis        string                `json:"basis"`
	Participants []PreparedParticipant `json:"participants"`
	Norm         float64               `json:"norm"`
	PrepHash     string                `json:"prep_hash"`
}

func participantFromEntry(entry spectrum.OperatorEntry, charge float64) ParticipantSpec {
	return ParticipantSpec{
		ModeID: entry.Row,
		K:      (float64(entry.Row) + float64(entry.Col) + 1) / 2,
		Charge: charge,
	}
}

func buildFromTemplate(spec *spectrum.Report, template PrepTemplate, gaugeReport *gauge.GaugeReport) ([]ParticipantSpec, error) {
	if len(spec.Operators.Entries) == 0 {
		return nil, errors.New(errors.FamilyDictionary, "missing-operators",
			"spectrum report does not contain operator entries")
	}
	if spec.GraphHash != gaugeReport.GraphHash || spec.CodeHash != gaugeReport.CodeHash {
		return nil, errors.New(errors.FamilyDictionary, "hash-mismatch",
			"spectrum and gauge reports describe different states")
	}

	count := template.participantCount()
	charges := make([]float64, count)
	for i := range charges {
		charges[i] = 1
	}
	charges[1] = -1
	if count == 3 {
		charges[2] = 0
	}
	participants := make([]ParticipantSpec, 0, count)
	for idx, entry := range spec.Operators.Entries {
		if idx >= count {
			break
		}
		participants = append(participants, participantFromEntry(entry, charges[idx]))
	}
	return participants, nil
}

func validateParticipants(spec *spectrum.Report, participants []ParticipantSpec) error {
	if len(participants) == 0 {
		return errors.New(errors.FamilyDictionary, "empty-participants",
			"at least one participant must be provided")
	}
	seen := make(map[int]bool, len(participants))
	entryCount := len(spec.Operators.Entries)
	for _, part := range participants {
		if part.ModeID < 0 || part.ModeID >= entryCount {
			return errors.Newf(errors.FamilyDictionary, "unknown-mode",
				"mode_id %d is out of range", part.ModeID)
		}
		if math.IsInf(part.K, 0) || math.IsNaN(part.K) ||
			math.IsInf(part.Charge, 0) || math.IsNaN(part.Charge) {
			return errors.New(errors.FamilyDictionary, "non-finite",
				"participant momentum and charge must be finite")
		}
		if seen[part.ModeID] {
			return errors.Newf(errors.FamilyDictionary, "duplicate-mode",
				"mode_id %d appears multiple times", part.ModeID)
		}
		seen[part.ModeID] = true
	}
	return nil
}

func deriveNorm(spec *spectrum.Report, participants []ParticipantSpec, override float64) (float64, error) {
	if override != 0 {
		if override < 0 {
			return 0, errors.New(errors.FamilyDictionary, "invalid-norm",
				"norm override must be strictly positive")
		}
		return determinism.Round(override), nil
	}
	var sumSq float64
	for _, part := range participants {
		entry := spec.Operators.Entries[part.ModeID]
		sumSq += entry.Weight*entry.Weight + part.K*part.K
	}
	return determinism.Round(math.Sqrt(sumSq)), nil
}

func assignMomenta(participants []ParticipantSpec, seed uint64) []PreparedParticipant {
	stream := determinism.NewStream(seed)
	prepared := make([]PreparedParticipant, 0, len(participants))
	for _, spec := range participants {
		noise := (stream.Float64() - 0.5) * 0.00000005
		prepared = append(prepared, PreparedParticipant{
			ModeID: spec.ModeID,
			K:      determinism.Round(spec.K + noise),
			Charge: determinism.Round(spec.Charge),
		})
	}
	return prepared
}

// PrepareState builds a deterministic few-body initial state from the
// provided reports and configuration.
func PrepareState(spec *spectrum.Report, gaugeReport *gauge.GaugeReport, conf PrepSpec, seed uint64) (*PreparedState, error) {
	var participants []ParticipantSpec
	var err error
	switch {
	case len(conf.Participants) > 0:
		participants = conf.Participants
	case conf.Template != "":
		participants, err = buildFromTemplate(spec, conf.Template, gaugeReport)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.New(errors.FamilyDictionary, "missing-participants",
			"no participants or template provided")
	}
	if err := validateParticipants(spec, participants); err != nil {
		return nil, err
	}

	var totalCharge float64
	for _, part := range participants {
		totalCharge += part.Charge
	}
	if determinism.Round(math.Abs(totalCharge)) > 1e-6 {
		return nil, errors.New(errors.FamilyDictionary, "charge-imbalance",
			"sum of participant charges must vanish within tolerance")
	}

	norm, err := deriveNorm(spec, participants, conf.NormOverride)
	if err != nil {
		return nil, err
	}
	prepared := assignMomenta(participants, determinism.Derive(seed, 1))
	prepHash, err := codec.StableHash(struct {
		Basis        string                `json:"basis"`
		Participants []PreparedParticipant `json:"participants"`
		Norm         float64               `json:"norm"`
		Seed         uint64                `json:"seed"`
	}{conf.Basis, prepared, norm, seed})
	if err != nil {
		return nil, err
	}

	return &PreparedState{
		Basis:        conf.Basis,
		Participants: prepared,
		Norm:         norm,
		PrepHash:     prepHash,
	}, nil
}
