package context

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ThreatLevel classifies a detected prompt-injection pattern's severity.
type ThreatLevel int

const (
	ThreatLow ThreatLevel = iota + 1
	ThreatMedium
	ThreatHigh
	ThreatCritical
)

func (t ThreatLevel) String() string {
	switch t {
	case ThreatLow:
		return "low"
	case ThreatMedium:
		return "medium"
	case ThreatHigh:
		return "high"
	case ThreatCritical:
		return "critical"
	default:
		return "unknown"
	}
}

type injectionPattern struct {
	re    *regexp.Regexp
	level ThreatLevel
	name  string
}

// injectionPatterns mirrors the OWASP-style catalog used to defend prompts
// that carry untrusted repository content (file bodies, spec text) into an
// LLM call: direct instruction overrides, role-play/jailbreak attempts, and
// system-prompt extraction probes.
var injectionPatterns = []injectionPattern{
	{regexp.MustCompile(`(?i)ignore\s+(all\s+)?previous\s+instructions?`), ThreatCritical, "instruction_override"},
	{regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|above|prior)\s+`), ThreatCritical, "instruction_override"},
	{regexp.MustCompile(`(?i)forget\s+(all\s+)?previous\s+`), ThreatCritical, "instruction_override"},
	{regexp.MustCompile(`(?i)override\s+(all\s+)?(system|safety|security)\s+`), ThreatCritical, "system_override"},
	{regexp.MustCompile(`(?i)bypass\s+(all\s+)?(safety|security|restrictions?|rules?)`), ThreatCritical, "safety_bypass"},
	{regexp.MustCompile(`(?i)you\s+are\s+now\s+(in\s+)?developer\s+mode`), ThreatCritical, "developer_mode"},
	{regexp.MustCompile(`(?i)you\s+are\s+now\s+(?:a\s+)?(?:DAN|jailbreak)`), ThreatCritical, "jailbreak"},
	{regexp.MustCompile(`(?i)enter\s+(?:sudo|admin|root)\s+mode`), ThreatCritical, "privilege_escalation"},
	{regexp.MustCompile(`(?i)switch\s+to\s+unrestricted\s+mode`), ThreatCritical, "mode_switch"},
	{regexp.MustCompile(`(?i)reveal\s+(?:your\s+)?(?:system\s+)?prompt`), ThreatHigh, "prompt_extraction"},
	{regexp.MustCompile(`(?i)show\s+(?:me\s+)?(?:your\s+)?(?:initial\s+)?instructions?`), ThreatHigh, "prompt_extraction"},
	{regexp.MustCompile(`(?i)repeat\s+(?:the\s+)?(?:text|prompt)\s+(?:above|before)`), ThreatHigh, "prompt_extraction"},
	{regexp.MustCompile(`(?i)pretend\s+(?:you\s+)?(?:are|to\s+be)\s+(?:not\s+)?(?:an?\s+)?AI`), ThreatMedium, "role_play"},
	{regexp.MustCompile(`(?i)respond\s+without\s+(?:any\s+)?(?:filters?|restrictions?)`), ThreatMedium, "restriction_removal"},
}

// sensitiveWords is scanned for typoglycemia variants (scrambled middle
// letters, correct first/last) in packed content, the same evasion the
// original prompt-security layer defends against.
var sensitiveWords = []string{
	"ignore", "bypass", "override", "reveal", "delete", "remove",
	"system", "prompt", "instruction", "jailbreak", "forget", "disregard",
	"execute", "command", "admin", "credential", "password", "secret",
}

var wordRe = regexp.MustCompile(`\b[a-zA-Z]+\b`)
var base64Re = regexp.MustCompile(`[A-Za-z0-9+/]{40,}={0,2}`)
var hexRe = regexp.MustCompile(`(?:0x)?[0-9A-Fa-f]{40,}`)

// ThreatAnalysis is the result of scanning packed context text before it is
// sent to a judge.
type ThreatAnalysis struct {
	Level    ThreatLevel
	Patterns []string
}

// IsSafe reports whether the analysis is at or below ThreatMedium.
func (a ThreatAnalysis) IsSafe() bool { return a.Level <= ThreatMedium }

// AnalyzeThreat runs the full pattern/typoglycemia/encoding scan over text.
func AnalyzeThreat(text string) ThreatAnalysis {
	level := ThreatLow
	var found []string

	for _, p := range injectionPatterns {
		if p.re.MatchString(text) {
			found = append(found, p.name)
			if p.level > level {
				level = p.level
			}
		}
	}

	if tl, names := checkTypoglycemia(text); tl > level || len(names) > 0 {
		found = append(found, names...)
		if tl > level {
			level = tl
		}
	}

	if tl, names := checkEncoded(text, base64Re, base64.StdEncoding.DecodeString); tl > level {
		level = tl
	} else if len(names) > 0 {
		found = append(found, names...)
	}

	if tl, names := checkEncoded(text, hexRe, hexDecode); tl > level {
		level = tl
	} else if len(names) > 0 {
		found = append(found, names...)
	}

	sort.Strings(found)
	return ThreatAnalysis{Level: level, Patterns: dedupeStrings(found)}
}

func hexDecode(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

func checkTypoglycemia(text string) (ThreatLevel, []string) {
	words := wordRe.FindAllString(strings.ToLower(text), -1)
	var names []string
	level := ThreatLow
	for _, w := range words {
		if len(w) < 5 {
			continue
		}
		for _, target := range sensitiveWords {
			if isTypoglycemiaVariant(w, target) {
				names = append(names, fmt.Sprintf("typoglycemia:%s", target))
				level = ThreatMedium
			}
		}
	}
	return level, names
}

func isTypoglycemiaVariant(word, target string) bool {
	if len(word) != len(target) || word == target || len(word) <= 3 {
		return false
	}
	if word[0] != target[0] || word[len(word)-1] != target[len(target)-1] {
		return false
	}
	return sortedBytes(word[1:len(word)-1]) == sortedBytes(target[1:len(target)-1])
}

func sortedBytes(s string) string {
	b := []byte(s)
	sort.Slice(b, func(i, j int) bool { return b[i] < b[j] })
	return string(b)
}

func checkEncoded(text string, re *regexp.Regexp, decode func(string) ([]byte, error)) (ThreatLevel, []string) {
	level := ThreatLow
	var names []string
	for _, m := range re.FindAllString(text, -1) {
		decoded, err := decode(m)
		if err != nil {
			continue
		}
		inner := AnalyzeThreat(string(decoded))
		if inner.Level >= ThreatMedium {
			level = ThreatHigh
			names = append(names, "encoded_suspicious_content")
		}
	}
	return level, names
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
