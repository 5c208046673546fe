package resolver

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// rePyImport matches "import a.b.c" and "import a.b.c as x" (possibly with
// multiple comma-separated names).
var rePyImport = regexp.MustCompile(`(?m)^\s*import\s+([A-Za-z_][A-Za-z0-9_.]*(?:\s*,\s*[A-Za-z_][A-Za-z0-9_.]*)*)`)

// rePyFromImport matches "from .a.b import x, y" and "from a.b import *",
// capturing the dot-prefix (relative level) and the module path separately.
var rePyFromImport = regexp.MustCompile(`(?m)^\s*from\s+(\.*)([A-Za-z_][A-Za-z0-9_.]*)?\s+import\s+(.+)$`)

// parsePythonImports extracts import specifiers from Python source using a
// line-oriented regex scan. Go's standard library has no Python AST, and
// none of the example repos in this corpus vendor one, so this mirrors the
// "regex fallback" strategy the spec explicitly sanctions for JS/TS import
// extraction, applied here to Python as well.
func parsePythonImports(source string) map[string]bool {
	out := make(map[string]bool)

	for _, m := range rePyImport.FindAllStringSubmatch(source, -1) {
		for _, name := range strings.Split(m[1], ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			// Drop an "as alias" suffix if present on an individual name.
			if idx := strings.Index(name, " as "); idx >= 0 {
				name = name[:idx]
			}
			out[name] = true
		}
	}

	for _, m := range rePyFromImport.FindAllStringSubmatch(source, -1) {
		dots, module := m[1], m[2]
		if module == "" && dots == "" {
			continue
		}
		prefix := dots + module
		out[prefix] = true
		if module != "" {
			for _, name := range strings.Split(m[3], ",") {
				name = strings.TrimSpace(name)
				if idx := strings.Index(name, " as "); idx >= 0 {
					name = name[:idx]
				}
				name = strings.TrimSpace(name)
				if name == "" || name == "*" {
					continue
				}
				out[prefix+"."+name] = true
			}
		}
	}

	return out
}

// moduleToCandidatePaths converts a dotted module name (e.g. "a.b.c") into
// the two file layouts Python allows: a module file or a package __init__.
func moduleToCandidatePaths(module string) []string {
	base := strings.ReplaceAll(module, ".", "/")
	return []string{base + ".py", base + "/__init__.py"}
}

// resolvePythonModule resolves a dotted or relative import specifier found in
// baseRel to a repo-relative file path, or "" if unresolvable. Relative
// imports ("." / ".." prefixes) are rebased on baseRel's containing package.
func resolvePythonModule(root, module, baseRel string) string {
	module = strings.TrimSpace(module)
	if module == "" {
		return ""
	}

	dotPrefix := 0
	for dotPrefix < len(module) && module[dotPrefix] == '.' {
		dotPrefix++
	}
	modName := module[dotPrefix:]

	var candidates []string
	if dotPrefix > 0 {
		baseDir := path.Dir(baseRel)
		for i := 0; i < dotPrefix-1; i++ {
			baseDir = path.Dir(baseDir)
		}
		if modName != "" {
			candidateBase := path.Join(baseDir, strings.ReplaceAll(modName, ".", "/"))
			candidates = []string{candidateBase + ".py", candidateBase + "/__init__.py"}
		} else {
			candidates = []string{path.Join(baseDir, "__init__.py")}
		}
	} else {
		candidates = moduleToCandidatePaths(modName)
	}

	for _, cand := range candidates {
		abs := joinRootAbs(root, cand)
		rel := safeRelative(root, abs)
		if rel == "" {
			continue
		}
		if _, ok := fileExists(abs); ok {
			return rel
		}
	}
	return ""
}

func joinRootAbs(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}
