package context

import (
	"path/filepath"
	"regexp"
	"strings"
)

// reGoSignature matches top-level Go func/type declarations.
var reGoSignature = regexp.MustCompile(`(?m)^(func\s+.*|type\s+\w+\s+(struct|interface)\b.*)$`)

// rePySignature matches top-level Python def/class declarations.
var rePySignature = regexp.MustCompile(`(?m)^(def\s+\w+\(.*|class\s+\w+.*):$`)

// reJSSignature matches common JS/TS top-level declaration forms.
var reJSSignature = regexp.MustCompile(`(?m)^\s*(export\s+)?(default\s+)?(async\s+)?(function\s+\w+|class\s+\w+|interface\s+\w+|type\s+\w+\s*=|const\s+\w+\s*=\s*(async\s+)?\(.*\)\s*(:.*)?=>)`)

// extractHeader produces a compact outline of path's content: its import
// lines plus every top-level signature line, discarding bodies. This is the
// CoverageHeader form spec.md §4.2 calls for: the judge only needs the
// shape of a large dependency, not its full body.
func extractHeader(path, content string) string {
	lines := strings.Split(content, "\n")
	ext := strings.ToLower(filepath.Ext(path))

	var sig *regexp.Regexp
	switch ext {
	case ".go":
		sig = reGoSignature
	case ".py":
		sig = rePySignature
	case ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs":
		sig = reJSSignature
	default:
		sig = nil
	}

	var out []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "import "), strings.HasPrefix(trimmed, "from "),
			strings.HasPrefix(trimmed, "require("), strings.HasPrefix(trimmed, "package "):
			out = append(out, line)
		case sig != nil && sig.MatchString(line):
			out = append(out, line)
		}
	}
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, "\n")
}
