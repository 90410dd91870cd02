package ai

import (
	"strings"

	"github.com/edoardosensi/doe-ai-digest/internal/storage"
)

// Mode selects the prompt-construction strategy for a recommendation cycle.
type Mode int

const (
	// ModeColdStart classifies candidates by title and description only;
	// there is not enough click history to infer interests.
	ModeColdStart Mode = iota
	// ModeLearning refines the profile from click behavior and may rewrite
	// the stored profile text.
	ModeLearning
	// ModeObedience treats the user-authored profile as a literal filter and
	// never rewrites it.
	ModeObedience
)

func (m Mode) String() string {
	switch m {
	case ModeLearning:
		return "learning"
	case ModeObedience:
		return "obedience"
	default:
		return "cold-start"
	}
}

// legacyProfileLengthThreshold classifies profile rows written before the
// provenance column existed: older databases only let us infer "the user
// wrote this" from the text being substantial.
const legacyProfileLengthThreshold = 120

// ProfileIsUserAuthored reports whether the stored profile must be obeyed
// verbatim rather than rewritten. The explicit provenance tag wins; rows
// without one fall back to the length heuristic. Pure function of the
// profile value.
func ProfileIsUserAuthored(p *storage.Profile) bool {
	if p == nil {
		return false
	}
	switch p.Provenance {
	case storage.ProvenanceUser:
		return true
	case storage.ProvenanceAI:
		return false
	}
	return len(strings.TrimSpace(p.CustomProfile)) > legacyProfileLengthThreshold
}

// SelectMode picks the prompt strategy. A user-authored profile forces
// obedience regardless of click count; otherwise learning requires at least
// minHistory clicks.
func SelectMode(p *storage.Profile, historyLen, minHistory int) Mode {
	if ProfileIsUserAuthored(p) {
		return ModeObedience
	}
	if historyLen >= minHistory {
		return ModeLearning
	}
	return ModeColdStart
}
