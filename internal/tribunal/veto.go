package tribunal

import "github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"

// defaultVetoConfidenceThreshold is spec.md §4.3's veto_confidence_threshold.
const defaultVetoConfidenceThreshold = 0.8

// CheckVeto evaluates the veto protocol for one invariant's verdicts: any
// judge with VetoEnabled, a failing PassVerdict, and confidence at or above
// the threshold forces an overall VETO. Returns nil when no veto fires.
func CheckVeto(inv cvatypes.Invariant, verdicts []cvatypes.JudgeVerdict) *cvatypes.VetoRecord {
	for _, v := range verdicts {
		if v.Unevaluated {
			continue
		}
		if v.VetoEnabled && !v.PassVerdict && v.Confidence >= defaultVetoConfidenceThreshold {
			return &cvatypes.VetoRecord{
				Judge:       v.JudgeRole,
				InvariantID: inv.ID,
				Category:    inv.Category,
				Confidence:  v.Confidence,
			}
		}
	}
	return nil
}

// AppendVeto is the absorbing accumulator spec.md §4.3 requires: the veto
// record, once set for a run, only grows as later invariants trigger
// additional vetoes — it is never cleared or replaced.
func AppendVeto(existing []cvatypes.VetoRecord, next *cvatypes.VetoRecord) []cvatypes.VetoRecord {
	if next == nil {
		return existing
	}
	return append(existing, *next)
}
