// Package tribunal fans an invariant out to a panel of independent LLM
// judges, parses their verdicts, computes the per-invariant consensus table,
// applies the absorbing security veto, and rolls everything up into an
// overall verdict (spec.md §4.3).
package tribunal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"
	"github.com/AbdelazizMoustafa10m/Raven/internal/jsonutil"
)

// JudgeConfig describes one seat on the tribunal panel.
type JudgeConfig struct {
	Role          string
	Model         string
	Weight        float64
	VetoEnabled   bool
	VetoThreshold int
	SystemPrompt  string
}

// DefaultJudgePanel returns the three-role panel spec.md §4.3 names as an
// example configuration: architect and user_proxy carry the default weight
// and no veto power, security carries elevated weight and veto_enabled=true.
func DefaultJudgePanel() []JudgeConfig {
	return []JudgeConfig{
		{
			Role:          "architect",
			Weight:        1.0,
			VetoEnabled:   false,
			VetoThreshold: 0,
			SystemPrompt:  architectSystemPrompt,
		},
		{
			Role:          "security",
			Weight:        1.5,
			VetoEnabled:   true,
			VetoThreshold: defaultPassScore - 1,
			SystemPrompt:  securitySystemPrompt,
		},
		{
			Role:          "user_proxy",
			Weight:        1.0,
			VetoEnabled:   false,
			VetoThreshold: 0,
			SystemPrompt:  userProxySystemPrompt,
		},
	}
}

const (
	architectSystemPrompt = `You are the architect judge on a verification tribunal. Evaluate whether the proposed change satisfies the given invariant. Respond with a single JSON object: {"score": 1-10, "explanation": "...", "issues": ["..."], "suggestions": ["..."], "confidence": 0-1}.`
	securitySystemPrompt  = `You are the security judge on a verification tribunal. Weigh security and correctness implications heavily. Respond with a single JSON object: {"score": 1-10, "explanation": "...", "issues": ["..."], "suggestions": ["..."], "confidence": 0-1}.`
	userProxySystemPrompt = `You are the user-proxy judge on a verification tribunal, representing the end user's expectations. Respond with a single JSON object: {"score": 1-10, "explanation": "...", "issues": ["..."], "suggestions": ["..."], "confidence": 0-1}.`
)

// reScoreFallback matches a "Score: N" line when a judge's response isn't
// valid JSON (spec.md §4.3 step 3's regex fallback).
var reScoreFallback = regexp.MustCompile(`(?i)score\s*[:=]\s*(\d+(?:\.\d+)?)`)

// judgeResponse is the JSON shape a judge is asked to produce.
type judgeResponse struct {
	Score       float64  `json:"score"`
	Explanation string   `json:"explanation"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
	Confidence  float64  `json:"confidence"`
}

// defaultPassScore is the minimum weighted score considered a pass (spec.md
// §4.3's pass_score, used as the default veto_threshold anchor too).
const defaultPassScore = 7

// parseJudgeResponse turns raw completion text into a JudgeVerdict. On JSON
// parse failure it falls back to regex score extraction; if even that fails
// it records the degraded score=5, confidence=0, pass_verdict=false fallback
// spec.md §4.3 step 3 mandates.
func parseJudgeResponse(cfg JudgeConfig, raw string) cvatypes.JudgeVerdict {
	v := cvatypes.JudgeVerdict{
		JudgeRole:     cfg.Role,
		Model:         cfg.Model,
		VetoEnabled:   cfg.VetoEnabled,
		VetoThreshold: cfg.VetoThreshold,
		Weight:        cfg.Weight,
	}

	var parsed judgeResponse
	if err := jsonutil.ExtractInto(raw, &parsed); err == nil && parsed.Score > 0 {
		v.Score = clampScore(int(parsed.Score + 0.5))
		v.Confidence = clampUnit(parsed.Confidence)
		v.Explanation = parsed.Explanation
		v.Issues = parsed.Issues
		v.Suggestions = parsed.Suggestions
		v.PassVerdict = v.Score >= defaultPassScore
		return v
	}

	if m := reScoreFallback.FindStringSubmatch(raw); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			v.Score = clampScore(int(f + 0.5))
			v.Confidence = 0.5
			v.Explanation = strings.TrimSpace(raw)
			v.PassVerdict = v.Score >= defaultPassScore
			return v
		}
	}

	v.Score = 5
	v.Confidence = 0
	v.PassVerdict = false
	v.Explanation = "could not parse judge response"
	v.Issues = []string{"unparseable_response"}
	return v
}

func clampScore(s int) int {
	if s < 1 {
		return 1
	}
	if s > 10 {
		return 10
	}
	return s
}

func clampUnit(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// buildPrompt assembles the stable-prefix-first prompt text spec.md §4.3
// step 1 requires, as one string: system prompt + invariant rubric first,
// packed context second, so providers with prompt caching can exploit the shared prefix
// across invariants evaluated by the same judge.
func buildPrompt(cfg JudgeConfig, inv cvatypes.Invariant, packedContext string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\n", cfg.SystemPrompt)
	fmt.Fprintf(&sb, "Invariant #%d [%s/%s]: %s\n\n", inv.ID, inv.Category, inv.Severity, inv.Description)
	sb.WriteString("--- context ---\n")
	sb.WriteString(packedContext)
	return sb.String()
}
