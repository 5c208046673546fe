package scanner

import (
	"testing"

	"github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"
	"github.com/stretchr/testify/assert"
)

func TestDecide_CriticalRuleAlwaysEscalates(t *testing.T) {
	result := Result{
		Violations: []Violation{
			{RuleID: "hardcoded-secret", Severity: cvatypes.SeverityCritical, File: "a.py", Line: 1},
		},
		TotalScore: 1,
	}

	decision := Decide(result, DefaultRiskThreshold)

	assert.True(t, decision.ShouldEscalate)
	assert.Contains(t, decision.Reason, "hardcoded-secret")
}

func TestDecide_ScoreAtThresholdEscalates(t *testing.T) {
	result := Result{TotalScore: 20}

	decision := Decide(result, DefaultRiskThreshold)

	assert.True(t, decision.ShouldEscalate)
}

func TestDecide_ScoreBelowThresholdDoesNotEscalate(t *testing.T) {
	result := Result{TotalScore: 19}

	decision := Decide(result, DefaultRiskThreshold)

	assert.False(t, decision.ShouldEscalate)
}

func TestDecide_ZeroThresholdUsesDefault(t *testing.T) {
	result := Result{TotalScore: 20}

	decision := Decide(result, 0)

	assert.True(t, decision.ShouldEscalate)
}

func TestDecide_CustomThresholdHonored(t *testing.T) {
	result := Result{TotalScore: 5}

	decision := Decide(result, 5)

	assert.True(t, decision.ShouldEscalate)
}
