package scanner

import (
	"sort"
	"strings"
	"time"
)

// Scanner applies a compiled rule set to file text. It is a pure function
// over its inputs (spec.md §4.5: "the scanner is a pure function over file
// text plus the rule set") so it is safe to call on every save without any
// shared mutable state.
type Scanner struct {
	rules []Rule
}

// New builds a Scanner from a rule set. Callers typically concatenate
// BuiltinCatalog() with ParseConstitutionRules(specText).
func New(rules []Rule) *Scanner {
	return &Scanner{rules: rules}
}

// Result is the outcome of scanning a batch of files.
type Result struct {
	Violations   []Violation
	TotalScore   int
	FilesScanned int
	ScanTimeMs   int64
}

// ScanFiles applies every rule to every file in contents (path -> text),
// line by line, and returns all violations plus the aggregate risk score.
func (s *Scanner) ScanFiles(contents map[string]string) Result {
	start := time.Now()
	var violations []Violation

	paths := make([]string, 0, len(contents))
	for p := range contents {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		violations = append(violations, s.scanOne(path, contents[path])...)
	}

	var total int
	for _, v := range violations {
		total += v.Weight()
	}

	return Result{
		Violations:   violations,
		TotalScore:   total,
		FilesScanned: len(paths),
		ScanTimeMs:   time.Since(start).Milliseconds(),
	}
}

func (s *Scanner) scanOne(path, text string) []Violation {
	var out []Violation
	lines := strings.Split(text, "\n")
	for _, rule := range s.rules {
		for i, line := range lines {
			if rule.Pattern.MatchString(line) {
				out = append(out, Violation{
					RuleID:       rule.ID,
					Severity:     rule.Severity,
					File:         path,
					Line:         i + 1,
					Message:      rule.Message,
					SuggestedFix: rule.SuggestedFix,
				})
			}
		}
	}
	return out
}
