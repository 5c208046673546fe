package context

import (
	"fmt"
	"regexp"
	"strings"
)

// securityPattern pairs a regex against a tag name, mirroring the security
// pattern catalog used to force-include security-sensitive code regardless
// of its relevance score.
type securityPattern struct {
	re  *regexp.Regexp
	tag string
}

var securityPatterns = []securityPattern{
	{regexp.MustCompile(`(?i)(api[_-]?key|secret|password|token|credential)`), "secret_handling"},
	{regexp.MustCompile(`\beval\s*\(`), "eval_usage"},
	{regexp.MustCompile(`\bexec\s*\(`), "exec_usage"},
	{regexp.MustCompile(`(?i)innerHTML\s*=`), "xss_pattern"},
	{regexp.MustCompile(`subprocess.*shell\s*=\s*True`), "shell_injection"},
	{regexp.MustCompile(`\bos\.system\s*\(`), "command_injection"},
	{regexp.MustCompile(`(?i)(auth|login|session|jwt|oauth)`), "auth_related"},
	{regexp.MustCompile(`(?i)(encrypt|decrypt|hash|sign|verify)`), "crypto_operation"},
}

// WindowingConfig gates spec.md §4.2's "optional but specified" intelligent
// windowing feature.
type WindowingConfig struct {
	Enabled             bool
	ContextGutter       int
	RelevanceThreshold  float64
	MaxWindowLines       int
}

// DefaultWindowingConfig matches the original implementation's defaults: a
// 5-line gutter around each expanded window.
func DefaultWindowingConfig() WindowingConfig {
	return WindowingConfig{
		Enabled:            false,
		ContextGutter:      5,
		RelevanceThreshold: 0.35,
		MaxWindowLines:     120,
	}
}

// applyWindowing reduces each changed-file section to the highest-relevance
// windows: blocks of lines scoring above cfg.RelevanceThreshold on keyword
// overlap with specText or a security pattern match, each expanded by
// cfg.ContextGutter lines on either side. Files shorter than
// cfg.MaxWindowLines are left untouched, since windowing a small file buys
// nothing.
func applyWindowing(_ string, sections []section, specText string, cfg WindowingConfig) []section {
	keywords := extractKeywords(specText)

	out := make([]section, 0, len(sections))
	for _, s := range sections {
		lines := strings.Split(s.text, "\n")
		if len(lines) <= cfg.MaxWindowLines {
			out = append(out, s)
			continue
		}

		scores := make([]float64, len(lines))
		forced := make([]bool, len(lines))
		for i, line := range lines {
			scores[i] = relevanceScore(line, keywords)
			for _, p := range securityPatterns {
				if p.re.MatchString(line) {
					forced[i] = true
					break
				}
			}
		}

		windows := selectWindows(scores, forced, cfg)
		if len(windows) == 0 {
			out = append(out, s)
			continue
		}

		var b strings.Builder
		b.WriteString(fmt.Sprintf("=== %s (windowed) ===\n", s.path))
		for _, w := range windows {
			fmt.Fprintf(&b, "--- lines %d-%d ---\n", w[0]+1, w[1]+1)
			b.WriteString(strings.Join(lines[w[0]:w[1]+1], "\n"))
			b.WriteString("\n")
		}
		out = append(out, section{path: s.path, text: b.String()})
	}
	return out
}

// extractKeywords lowercases and tokenizes specText into a set, used for the
// keyword-overlap term of the relevance score.
func extractKeywords(specText string) map[string]bool {
	words := regexp.MustCompile(`[A-Za-z_]{4,}`).FindAllString(strings.ToLower(specText), -1)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func relevanceScore(line string, keywords map[string]bool) float64 {
	low := strings.ToLower(line)
	words := regexp.MustCompile(`[A-Za-z_]{4,}`).FindAllString(low, -1)
	if len(words) == 0 {
		return 0
	}
	hits := 0
	for _, w := range words {
		if keywords[w] {
			hits++
		}
	}
	return float64(hits) / float64(len(words))
}

// selectWindows merges lines scoring above the threshold (or forced by a
// security pattern match) into contiguous, gutter-expanded, non-overlapping
// [start, end] ranges, in ascending order.
func selectWindows(scores []float64, forced []bool, cfg WindowingConfig) [][2]int {
	var raw [][2]int
	for i := range scores {
		if scores[i] < cfg.RelevanceThreshold && !forced[i] {
			continue
		}
		start := i - cfg.ContextGutter
		if start < 0 {
			start = 0
		}
		end := i + cfg.ContextGutter
		if end >= len(scores) {
			end = len(scores) - 1
		}
		raw = append(raw, [2]int{start, end})
	}
	if len(raw) == 0 {
		return nil
	}

	merged := [][2]int{raw[0]}
	for _, w := range raw[1:] {
		last := &merged[len(merged)-1]
		if w[0] <= last[1]+1 {
			if w[1] > last[1] {
				last[1] = w[1]
			}
			continue
		}
		merged = append(merged, w)
	}
	return merged
}
