package cvatypes

import (
	"fmt"
	"time"
)

// ConsensusVerdict is the per-invariant decision produced by the tribunal's
// consensus table (spec.md §4.3).
type ConsensusVerdict string

const (
	ConsensusPass    ConsensusVerdict = "PASS"
	ConsensusFail    ConsensusVerdict = "FAIL"
	ConsensusPartial ConsensusVerdict = "PARTIAL"
	ConsensusError   ConsensusVerdict = "ERROR"
)

// OverallVerdict is the run-level verdict. VETO is absorbing: once set it can
// never be downgraded to PASS, matching spec.md §3's invariant.
type OverallVerdict string

const (
	OverallPass    OverallVerdict = "PASS"
	OverallFail    OverallVerdict = "FAIL"
	OverallPartial OverallVerdict = "PARTIAL"
	OverallVeto    OverallVerdict = "VETO"
	OverallError   OverallVerdict = "ERROR"
)

// JudgeVerdict is one judge's opinion on one invariant. Created once per
// evaluation; never mutated afterward.
type JudgeVerdict struct {
	JudgeRole   string   `json:"judge_role"`
	Model       string   `json:"model"`
	Score       int      `json:"score"` // 1..10
	PassVerdict bool     `json:"pass_verdict"`
	Confidence  float64  `json:"confidence"` // 0..1
	Explanation string   `json:"explanation"`
	Issues      []string `json:"issues,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`

	// VetoEnabled/VetoThreshold are copied from the judge's configuration at
	// evaluation time so the veto protocol can be re-evaluated from the
	// verdict alone (e.g. when replaying a persisted TribunalVerdict).
	VetoEnabled   bool    `json:"veto_enabled"`
	VetoThreshold int     `json:"veto_threshold"`
	Weight        float64 `json:"weight"`

	// Unevaluated is set when the judge could not assess the invariant due to
	// missing/truncated context (spec.md §4.3 "token-budget partiality").
	Unevaluated bool `json:"unevaluated,omitempty"`

	// Err records a transport-layer failure that produced this verdict as a
	// fallback (score=5, confidence=0) rather than a real judgment.
	Err error `json:"-"`
}

// Validate checks the score and confidence ranges.
func (v JudgeVerdict) Validate() error {
	if v.Score < 1 || v.Score > 10 {
		return fmt.Errorf("cvatypes: judge %q: score %d out of range [1,10]", v.JudgeRole, v.Score)
	}
	if v.Confidence < 0 || v.Confidence > 1 {
		return fmt.Errorf("cvatypes: judge %q: confidence %f out of range [0,1]", v.JudgeRole, v.Confidence)
	}
	return nil
}

// CriterionResult aggregates all judge verdicts for one invariant.
type CriterionResult struct {
	Invariant       Invariant        `json:"invariant"`
	Verdicts        []JudgeVerdict   `json:"verdicts"`
	AverageScore    float64          `json:"average_score"`
	WeightedScore   float64          `json:"weighted_score"`
	MajorityRatio   float64          `json:"majority_ratio"`
	Consensus       ConsensusVerdict `json:"consensus_verdict"`
	Partial         bool             `json:"partial"`
}

// VetoRecord names the judge, invariant, and confidence that triggered a
// veto. The protocol is absorbing: once set, later vetoes only append.
type VetoRecord struct {
	Judge      string  `json:"judge"`
	InvariantID int    `json:"invariant_id"`
	Category   Category `json:"category"`
	Confidence float64 `json:"confidence"`
}

// FailFastRecord describes whether the static gate aborted the run.
type FailFastRecord struct {
	Aborted bool   `json:"aborted"`
	Reason  string `json:"reason,omitempty"`
	Issues  int    `json:"issues,omitempty"`
}

// Telemetry carries routing decisions and token/coverage accounting for a run.
type Telemetry struct {
	Routing        []RoutingDecision       `json:"routing,omitempty"`
	TokenCount     int                     `json:"token_count"`
	Partial        bool                    `json:"partial"`
	CoverageKinds  map[string]CoverageKind `json:"coverage_kinds"`
	SkippedImports []SkippedImport         `json:"skipped_imports"`
	IncludedFiles  []string                `json:"included_files"`
	DetectionMode  DetectionMode           `json:"detection_mode"`
	ThreatLevel    string                  `json:"threat_level,omitempty"`
	DurationMs     int64                   `json:"duration_ms"`
}

// RoutingDecision records one LLM transport routing outcome (spec.md §4.6).
type RoutingDecision struct {
	Role          string           `json:"role"`
	LaneRequested string           `json:"lane_requested"`
	LaneUsed      string           `json:"lane_used"`
	Provider      string           `json:"provider"`
	Model         string           `json:"model"`
	Reason        string           `json:"reason"`
	FallbackChain []FallbackEntry  `json:"fallback_chain"`
}

// FallbackEntry is one candidate considered (and its health outcome) during
// routing, always returned in full per spec.md §4.6.
type FallbackEntry struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Healthy  bool   `json:"healthy"`
	Reason   string `json:"reason"`
}

// TribunalVerdict is the top-level output of a single verification run.
type TribunalVerdict struct {
	OverallVerdict  OverallVerdict     `json:"overall_verdict"`
	OverallScore    float64            `json:"overall_score"`
	TotalCriteria   int                `json:"total_criteria"`
	PassedCriteria  int                `json:"passed_criteria"`
	FailedCriteria  int                `json:"failed_criteria"`
	StaticIssues    int                `json:"static_analysis_issues"`
	// Veto is the first veto recorded for the run, kept for backward-compatible
	// single-record consumers. Vetoes holds the full absorbing list: every
	// veto triggered across every invariant, in the order encountered.
	Veto            *VetoRecord        `json:"veto,omitempty"`
	Vetoes          []VetoRecord       `json:"vetoes,omitempty"`
	FailFast        FailFastRecord     `json:"fail_fast"`
	Criteria        []CriterionResult  `json:"criteria"`
	Telemetry       Telemetry          `json:"telemetry"`
	Duration        time.Duration      `json:"-"`
	DurationMs      int64              `json:"duration_ms"`
	RunID           string             `json:"run_id"`
}
