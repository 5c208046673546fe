// Package scanner implements the quick regex-rule layer of the three-tier
// continuous verification pipeline (spec.md §4.5): a pure function over file
// text plus a rule set, cheap enough to run on every save, that decides
// whether the caller should escalate to a full tribunal run.
package scanner

import (
	"fmt"
	"regexp"

	"github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"
)

// Rule is one compiled scan rule: a regex plus the severity and message to
// report on a match.
type Rule struct {
	ID           string
	Pattern      *regexp.Regexp
	Severity     cvatypes.Severity
	Message      string
	SuggestedFix string
}

// Violation is one rule match against one file.
type Violation struct {
	RuleID       string            `json:"rule_id"`
	Severity     cvatypes.Severity `json:"severity"`
	File         string            `json:"file"`
	Line         int               `json:"line"`
	Message      string            `json:"message"`
	SuggestedFix string            `json:"suggested_fix,omitempty"`
}

// severityWeight implements spec.md §4.5's weight(severity) used to compute
// a violation's contribution to total_risk_score.
var severityWeight = map[cvatypes.Severity]int{
	cvatypes.SeverityCritical: 10,
	cvatypes.SeverityHigh:     5,
	cvatypes.SeverityMedium:   2,
	cvatypes.SeverityLow:      1,
}

// Weight returns v's contribution to the total risk score.
func (v Violation) Weight() int { return severityWeight[v.Severity] }

// MustCompile builds a Rule from a raw regex string, panicking on an invalid
// pattern. Intended for package-level builtin catalog initialization only;
// runtime-parsed constitution rules use compileRule instead, which returns
// an error.
func MustCompile(id, pattern string, severity cvatypes.Severity, message, fix string) Rule {
	return Rule{
		ID:           id,
		Pattern:      regexp.MustCompile(pattern),
		Severity:     severity,
		Message:      message,
		SuggestedFix: fix,
	}
}

// compileRule is the fallible counterpart of MustCompile, used when the
// pattern comes from untrusted input (a constitution's fenced rule block).
func compileRule(id, pattern string, severity cvatypes.Severity, message, fix string) (Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("scanner: rule %q: invalid pattern: %w", id, err)
	}
	return Rule{ID: id, Pattern: re, Severity: severity, Message: message, SuggestedFix: fix}, nil
}
