package pipeline

import "fmt"

// Decision is the fallback branch chosen after both base providers have
// settled. It is derived, never stored.
type Decision int

const (
	// SynthesizeBoth merges the two drafts (neither failed)
	SynthesizeBoth Decision = iota

	// RefineA improves A's draft alone (B failed)
	RefineA

	// RefineB improves B's draft alone (A failed)
	RefineB

	// AbortDualFailure ends the request (both failed)
	AbortDualFailure
)

// Decide derives the branch from the two settled results
func Decide(aFailed, bFailed bool) Decision {
	switch {
	case aFailed && bFailed:
		return AbortDualFailure
	case aFailed:
		return RefineB
	case bFailed:
		return RefineA
	default:
		return SynthesizeBoth
	}
}

// FallbackLog renders the branch for the caller-visible fallback log.
// The healthy branch contributes no log text.
func (d Decision) FallbackLog(cfg Config) string {
	switch d {
	case RefineB:
		return fmt.Sprintf("Base model %s failed; response was refined from %s alone.",
			cfg.BaseA, cfg.BaseB)
	case RefineA:
		return fmt.Sprintf("Base model %s failed; response was refined from %s alone.",
			cfg.BaseB, cfg.BaseA)
	case AbortDualFailure:
		return fmt.Sprintf("Both base models (%s, %s) failed; no synthesis was possible.",
			cfg.BaseA, cfg.BaseB)
	default:
		return ""
	}
}
