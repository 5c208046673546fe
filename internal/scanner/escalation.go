package scanner

import (
	"fmt"

	"github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"
)

// DefaultRiskThreshold is the total_risk_score escalation threshold from
// spec.md §4.5.
const DefaultRiskThreshold = 20

// EscalationDecision is whether the quick scan warrants a full tribunal run.
type EscalationDecision struct {
	ShouldEscalate bool
	Reason         string
}

// Decide implements spec.md §4.5's escalation rule: escalate when any
// critical-severity rule fired, or when the total risk score meets or
// exceeds threshold. A threshold <= 0 falls back to DefaultRiskThreshold.
func Decide(result Result, threshold int) EscalationDecision {
	if threshold <= 0 {
		threshold = DefaultRiskThreshold
	}

	for _, v := range result.Violations {
		if v.Severity == cvatypes.SeverityCritical {
			return EscalationDecision{
				ShouldEscalate: true,
				Reason:         fmt.Sprintf("critical rule %q fired on %s:%d", v.RuleID, v.File, v.Line),
			}
		}
	}

	if result.TotalScore >= threshold {
		return EscalationDecision{
			ShouldEscalate: true,
			Reason:         fmt.Sprintf("total risk score %d meets threshold %d", result.TotalScore, threshold),
		}
	}

	return EscalationDecision{ShouldEscalate: false}
}
