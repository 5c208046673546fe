package tribunal

import "github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"

// consensusRatio is the default majority_ratio threshold (spec.md §4.3).
const consensusRatio = 0.67

// Consensus computes the per-invariant decision table from a set of judge
// verdicts: majority_ratio, weighted_score, and the resulting
// ConsensusVerdict. Verdicts marked Unevaluated are excluded from the
// majority denominator (spec.md §4.3's token-budget partiality rule) but are
// still returned in full.
func Consensus(inv cvatypes.Invariant, verdicts []cvatypes.JudgeVerdict) cvatypes.CriterionResult {
	result := cvatypes.CriterionResult{
		Invariant: inv,
		Verdicts:  verdicts,
	}

	considered := make([]cvatypes.JudgeVerdict, 0, len(verdicts))
	for _, v := range verdicts {
		if !v.Unevaluated {
			considered = append(considered, v)
		}
	}

	if len(considered) == 0 {
		result.Consensus = cvatypes.ConsensusError
		return result
	}

	passVotes := 0
	var scoreSum, weightSum float64
	for _, v := range considered {
		if v.PassVerdict {
			passVotes++
		}
		w := v.Weight
		if w <= 0 {
			w = 1
		}
		scoreSum += float64(v.Score) * w
		weightSum += w
	}

	majorityRatio := float64(passVotes) / float64(len(considered))
	var weightedScore float64
	if weightSum > 0 {
		weightedScore = scoreSum / weightSum
	}

	result.AverageScore = sumScores(considered) / float64(len(considered))
	result.WeightedScore = weightedScore
	result.MajorityRatio = majorityRatio

	allFailedToRespond := true
	for _, v := range considered {
		if v.Err == nil {
			allFailedToRespond = false
			break
		}
	}

	majorityMeetsConsensus := majorityRatio >= consensusRatio
	scoreMeetsPass := weightedScore >= defaultPassScore

	switch {
	case allFailedToRespond:
		result.Consensus = cvatypes.ConsensusError
	case majorityMeetsConsensus && scoreMeetsPass:
		result.Consensus = cvatypes.ConsensusPass
	case majorityMeetsConsensus != scoreMeetsPass:
		// The two signals disagree: spec.md §4.3's PARTIAL row ("majority pass
		// but weighted_score below threshold, or vice-versa").
		result.Consensus = cvatypes.ConsensusPartial
	default:
		result.Consensus = cvatypes.ConsensusFail
	}

	for _, v := range verdicts {
		if v.Unevaluated {
			result.Partial = true
			break
		}
	}

	return result
}

func sumScores(verdicts []cvatypes.JudgeVerdict) float64 {
	var sum float64
	for _, v := range verdicts {
		sum += float64(v.Score)
	}
	return sum
}
