package tribunal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"
)

func inv(id int) cvatypes.Invariant {
	return cvatypes.Invariant{ID: id, Category: cvatypes.CategoryFunctionality, Severity: cvatypes.SeverityHigh, Description: "does the thing"}
}

func TestConsensus_UnanimousPass(t *testing.T) {
	verdicts := []cvatypes.JudgeVerdict{
		{JudgeRole: "architect", Score: 9, PassVerdict: true, Weight: 1},
		{JudgeRole: "security", Score: 8, PassVerdict: true, Weight: 1.5},
		{JudgeRole: "user_proxy", Score: 9, PassVerdict: true, Weight: 1},
	}
	result := Consensus(inv(1), verdicts)
	assert.Equal(t, cvatypes.ConsensusPass, result.Consensus)
	assert.False(t, result.Partial)
}

func TestConsensus_MajorityFail(t *testing.T) {
	verdicts := []cvatypes.JudgeVerdict{
		{JudgeRole: "architect", Score: 3, PassVerdict: false, Weight: 1},
		{JudgeRole: "security", Score: 2, PassVerdict: false, Weight: 1.5},
		{JudgeRole: "user_proxy", Score: 4, PassVerdict: false, Weight: 1},
	}
	result := Consensus(inv(2), verdicts)
	assert.Equal(t, cvatypes.ConsensusFail, result.Consensus)
}

func TestConsensus_DisagreementIsPartial(t *testing.T) {
	verdicts := []cvatypes.JudgeVerdict{
		{JudgeRole: "architect", Score: 9, PassVerdict: true, Weight: 1},
		{JudgeRole: "security", Score: 9, PassVerdict: true, Weight: 1.5},
		{JudgeRole: "user_proxy", Score: 2, PassVerdict: false, Weight: 1},
	}
	result := Consensus(inv(3), verdicts)
	assert.Equal(t, cvatypes.ConsensusPartial, result.Consensus)
}

func TestConsensus_AllFailedToRespondIsError(t *testing.T) {
	verdicts := []cvatypes.JudgeVerdict{
		{JudgeRole: "architect", Score: 5, Weight: 1, Err: assertErr("boom")},
		{JudgeRole: "security", Score: 5, Weight: 1.5, Err: assertErr("boom")},
	}
	result := Consensus(inv(4), verdicts)
	assert.Equal(t, cvatypes.ConsensusError, result.Consensus)
}

func TestConsensus_UnevaluatedExcludedFromDenominatorButMarksPartial(t *testing.T) {
	verdicts := []cvatypes.JudgeVerdict{
		{JudgeRole: "architect", Score: 9, PassVerdict: true, Weight: 1},
		{JudgeRole: "security", Score: 9, PassVerdict: true, Weight: 1.5},
		{JudgeRole: "user_proxy", Unevaluated: true},
	}
	result := Consensus(inv(5), verdicts)
	assert.True(t, result.Partial)
	assert.Equal(t, cvatypes.ConsensusPass, result.Consensus)
}

type simpleErr string

func (e simpleErr) Error() string { return string(e) }

func assertErr(msg string) error { return simpleErr(msg) }
