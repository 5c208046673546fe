package tribunal

import (
	"context"
	"time"

	"github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"
)

// RunOpts configures a full tribunal run across an invariant set.
type RunOpts struct {
	PackedContext   string
	ContextPartial  bool
	StaticIssues    int
	FailFast        cvatypes.FailFastRecord
	Telemetry       cvatypes.Telemetry
	RunID           string
}

// Run evaluates every invariant in the set against the judge panel and
// reduces the per-invariant CriterionResults to a TribunalVerdict, applying
// the veto protocol and the overall-verdict rollup (spec.md §4.3).
//
// When opts.FailFast.Aborted is true, the tribunal is skipped entirely per
// spec.md §4.4: the returned TribunalVerdict carries OverallFail with the
// fail_fast record and no criteria.
func (t *Tribunal) Run(ctx context.Context, invariants *cvatypes.InvariantSet, opts RunOpts) *cvatypes.TribunalVerdict {
	start := time.Now()

	if opts.FailFast.Aborted {
		return &cvatypes.TribunalVerdict{
			OverallVerdict: cvatypes.OverallFail,
			FailFast:       opts.FailFast,
			StaticIssues:   opts.StaticIssues,
			Telemetry:      opts.Telemetry,
			DurationMs:     time.Since(start).Milliseconds(),
			RunID:          opts.RunID,
		}
	}

	all := invariants.All()
	criteria := make([]cvatypes.CriterionResult, 0, len(all))
	var vetoes []cvatypes.VetoRecord

	for _, inv := range all {
		result := t.EvaluateInvariant(ctx, inv, opts.PackedContext, opts.ContextPartial)
		criteria = append(criteria, result)

		if veto := CheckVeto(inv, result.Verdicts); veto != nil {
			vetoes = AppendVeto(vetoes, veto)
		}
	}

	verdict := &cvatypes.TribunalVerdict{
		TotalCriteria: len(criteria),
		Criteria:      criteria,
		StaticIssues:  opts.StaticIssues,
		FailFast:      opts.FailFast,
		Telemetry:     opts.Telemetry,
		RunID:         opts.RunID,
	}

	if len(vetoes) > 0 {
		verdict.Vetoes = vetoes
		first := vetoes[0]
		verdict.Veto = &first
	}

	var scoreSum float64
	for _, c := range criteria {
		switch c.Consensus {
		case cvatypes.ConsensusPass:
			verdict.PassedCriteria++
		case cvatypes.ConsensusFail, cvatypes.ConsensusError:
			verdict.FailedCriteria++
		}
		scoreSum += c.WeightedScore
	}
	if len(criteria) > 0 {
		verdict.OverallScore = scoreSum / float64(len(criteria))
	}

	verdict.OverallVerdict = overallVerdict(criteria, len(vetoes) > 0)
	verdict.DurationMs = time.Since(start).Milliseconds()
	return verdict
}

// overallVerdict implements spec.md §4.3's overall rollup: VETO beats
// everything; else FAIL if any invariant failed; else PASS if every
// invariant passed; else PARTIAL.
func overallVerdict(criteria []cvatypes.CriterionResult, hasVeto bool) cvatypes.OverallVerdict {
	if hasVeto {
		return cvatypes.OverallVeto
	}
	if len(criteria) == 0 {
		return cvatypes.OverallError
	}

	allPass := true
	anyFail := false
	for _, c := range criteria {
		switch c.Consensus {
		case cvatypes.ConsensusPass:
		case cvatypes.ConsensusFail:
			allPass = false
			anyFail = true
		default:
			allPass = false
		}
	}

	switch {
	case allPass:
		return cvatypes.OverallPass
	case anyFail:
		return cvatypes.OverallFail
	default:
		return cvatypes.OverallPartial
	}
}
