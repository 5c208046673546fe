package resolver

import (
	"encoding/json"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// reJSImport matches ES import/dynamic-import/require specifiers, mirroring
// the single combined regex the original resolver's regex fallback uses.
var reJSImport = regexp.MustCompile(`(?m)(?:^|\n)\s*(?:import\s+(?:type\s+)?[\s\S]*?from\s+['"]([^'"]+)['"]\s*;?|import\s*\(\s*['"]([^'"]+)['"]\s*\)|require\(\s*['"]([^'"]+)['"]\s*\))`)

// parseJSTSImports extracts import specifiers from JS/TS source via the
// grammar-based extractor when available (see treesitter.go) and otherwise
// via reJSImport, matching the original ts_imports fallback behavior.
func parseJSTSImports(relPath, source string) map[string]bool {
	if specs, ok := treeSitterImports(relPath, source); ok {
		out := make(map[string]bool, len(specs))
		for _, s := range specs {
			out[s] = true
		}
		return out
	}

	out := make(map[string]bool)
	for _, m := range reJSImport.FindAllStringSubmatch(source, -1) {
		for _, g := range m[1:] {
			if g != "" {
				out[g] = true
			}
		}
	}
	return out
}

// reBlockComment and reLineComment strip /* */ and // comments well enough for common
// tsconfig.json / jsconfig.json / package.json files, which are not
// technically JSON but are in near-universal practice.
var (
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment  = regexp.MustCompile(`(?m)(^|\s)//.*$`)
)

func stripJSONC(text string) string {
	text = reBlockComment.ReplaceAllString(text, "")
	text = reLineComment.ReplaceAllString(text, "$1")
	return text
}

type tsconfigResult struct {
	baseURL string
	paths   map[string][]string
}

// loadTSConfig reads tsconfig.json or jsconfig.json at root, caching the
// result (including the all-empty result when neither file exists).
func loadTSConfig(root string, c *caches) tsconfigResult {
	c.mu.Lock()
	if res, ok := c.tsconfig[root]; c.tsconfigSet[root] && ok {
		c.mu.Unlock()
		return res
	}
	c.mu.Unlock()

	result := tsconfigResult{paths: map[string][]string{}}
	for _, name := range []string{"tsconfig.json", "jsconfig.json"} {
		abs := joinRootAbs(root, name)
		data, err := os.ReadFile(abs)
		if err != nil {
			continue
		}
		var parsed struct {
			CompilerOptions struct {
				BaseURL string              `json:"baseUrl"`
				Paths   map[string][]string `json:"paths"`
			} `json:"compilerOptions"`
		}
		if err := json.Unmarshal([]byte(stripJSONC(string(data))), &parsed); err != nil {
			continue
		}
		result.baseURL = parsed.CompilerOptions.BaseURL
		if parsed.CompilerOptions.Paths != nil {
			result.paths = parsed.CompilerOptions.Paths
		}
		break
	}

	c.mu.Lock()
	c.tsconfig[root] = result
	c.tsconfigSet[root] = true
	c.mu.Unlock()
	return result
}

// tsconfigAliasCandidates returns candidate repo-relative paths for a bare
// specifier spec, derived from tsconfig "paths" (single "*" wildcard only)
// and then "baseUrl". "paths" patterns are tried in sorted order, not in
// declaration order, so the result is the same on every run.
func tsconfigAliasCandidates(root, spec string, c *caches) []string {
	cfg := loadTSConfig(root, c)

	baseDir := root
	if cfg.baseURL != "" {
		baseDir = joinRootAbs(root, cfg.baseURL)
	}

	var out []string
	addTarget := func(targetPat, star string) {
		candidate := targetPat
		if strings.Contains(targetPat, "*") {
			candidate = strings.Replace(targetPat, "*", star, 1)
		}
		abs := path.Join(baseDir, candidate)
		if rel := safeRelative(root, abs); rel != "" {
			out = append(out, rel)
		}
	}

	patterns := make([]string, 0, len(cfg.paths))
	for pat := range cfg.paths {
		patterns = append(patterns, pat)
	}
	sort.Strings(patterns)

	for _, pat := range patterns {
		targets := cfg.paths[pat]
		if pat == "" {
			continue
		}
		if strings.Contains(pat, "*") {
			if strings.Count(pat, "*") != 1 {
				continue
			}
			idx := strings.Index(pat, "*")
			prefix, suffix := pat[:idx], pat[idx+1:]
			if !strings.HasPrefix(spec, prefix) {
				continue
			}
			if suffix != "" && !strings.HasSuffix(spec, suffix) {
				continue
			}
			star := spec[len(prefix) : len(spec)-len(suffix)]
			for _, t := range targets {
				addTarget(t, star)
			}
		} else {
			if spec != pat {
				continue
			}
			for _, t := range targets {
				addTarget(t, "")
			}
		}
	}

	if cfg.baseURL != "" && spec != "" && !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") && !strings.HasPrefix(spec, "/") {
		abs := path.Join(baseDir, spec)
		if rel := safeRelative(root, abs); rel != "" {
			out = append(out, rel)
		}
	}

	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, x := range in {
		if seen[x] {
			continue
		}
		seen[x] = true
		out = append(out, x)
	}
	return out
}

// loadWorkspacePatterns reads root/package.json#workspaces (array form or
// {packages: [...]} form) and returns its glob pattern list.
func loadWorkspacePatterns(root string) []string {
	data, err := os.ReadFile(joinRootAbs(root, "package.json"))
	if err != nil {
		return nil
	}
	var parsed struct {
		Workspaces json.RawMessage `json:"workspaces"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil || parsed.Workspaces == nil {
		return nil
	}
	var asList []string
	if err := json.Unmarshal(parsed.Workspaces, &asList); err == nil {
		return asList
	}
	var asObj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(parsed.Workspaces, &asObj); err == nil {
		return asObj.Packages
	}
	return nil
}

// workspaceNameToDir maps each workspace package's package.json#name to its
// repo-relative directory, caching the result per root.
func workspaceNameToDir(root string, c *caches) map[string]string {
	c.mu.Lock()
	if m, ok := c.workspaces[root]; ok && c.workspacesSet[root] {
		c.mu.Unlock()
		return m
	}
	c.mu.Unlock()

	patterns := loadWorkspacePatterns(root)
	mapping := map[string]string{}

	if len(patterns) > 50 {
		patterns = patterns[:50]
	}
	for _, pat := range patterns {
		matches, err := doublestar.Glob(os.DirFS(root), pat)
		if err != nil {
			continue
		}
		for _, m := range matches {
			if strings.Contains(m, "node_modules") {
				continue
			}
			abs := joinRootAbs(root, m)
			info, err := os.Stat(abs)
			if err != nil || !info.IsDir() {
				continue
			}
			pkgData, err := os.ReadFile(joinRootAbs(abs, "package.json"))
			if err != nil {
				continue
			}
			var pkg struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal(pkgData, &pkg); err != nil || pkg.Name == "" {
				continue
			}
			if _, exists := mapping[pkg.Name]; !exists {
				mapping[pkg.Name] = m
			}
		}
	}

	c.mu.Lock()
	c.workspaces[root] = mapping
	c.workspacesSet[root] = true
	c.mu.Unlock()
	return mapping
}

// workspaceEntryCandidates returns the conservative priority list of entry
// files for a workspace package directory: package.json module/main/source
// fields first, then src/index.*, then index.*.
func workspaceEntryCandidates(root, pkgDirRel string) []string {
	abs := joinRootAbs(root, pkgDirRel)
	data, _ := os.ReadFile(joinRootAbs(abs, "package.json"))

	var pkg struct {
		Module string `json:"module"`
		Main   string `json:"main"`
		Source string `json:"source"`
	}
	_ = json.Unmarshal(data, &pkg)

	var out []string
	for _, v := range []string{pkg.Module, pkg.Main, pkg.Source} {
		if v != "" {
			out = append(out, path.Join(pkgDirRel, v))
		}
	}
	for _, ext := range jsTSExtensions {
		out = append(out, path.Join(pkgDirRel, "src", "index"+ext))
	}
	for _, ext := range jsTSExtensions {
		out = append(out, path.Join(pkgDirRel, "index"+ext))
	}
	return dedupe(out)
}

// workspaceSpecCandidates resolves a bare specifier against the workspace
// name→dir map, handling both scoped ("@scope/pkg") and unscoped package
// names plus an optional subpath.
func workspaceSpecCandidates(root, spec string, c *caches) []string {
	mapping := workspaceNameToDir(root, c)
	if len(mapping) == 0 {
		return nil
	}

	var pkgName, subpath string
	if strings.HasPrefix(spec, "@") {
		parts := strings.SplitN(spec, "/", 3)
		if len(parts) >= 2 {
			pkgName = parts[0] + "/" + parts[1]
			if len(parts) == 3 {
				subpath = parts[2]
			}
		}
	} else {
		parts := strings.SplitN(spec, "/", 2)
		pkgName = parts[0]
		if len(parts) == 2 {
			subpath = parts[1]
		}
	}

	pkgDirRel, ok := mapping[pkgName]
	if !ok {
		return nil
	}
	if subpath == "" {
		return workspaceEntryCandidates(root, pkgDirRel)
	}

	var candidates []string
	for _, base := range []string{path.Join(pkgDirRel, subpath), path.Join(pkgDirRel, "src", subpath)} {
		if hasJSTSExt(base) {
			candidates = append(candidates, base)
			continue
		}
		for _, ext := range jsTSExtensions {
			candidates = append(candidates, base+ext)
		}
		for _, ext := range jsTSExtensions {
			candidates = append(candidates, path.Join(base, "index"+ext))
		}
	}
	return dedupe(candidates)
}

// resolveJSTSSpecifier resolves one JS/TS import specifier found in baseRel
// to a repo-relative file path. reason is one of "ok", "skipped_external",
// "skipped_missing", or "skipped_invalid_spec".
func resolveJSTSSpecifier(root, spec, baseRel string, cfg Config, c *caches) (string, string) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", "skipped_invalid_spec"
	}
	if !hasJSTSExt(baseRel) {
		return "", "skipped_invalid_spec"
	}

	var candidateBases []string

	switch {
	case strings.HasPrefix(spec, "./"), strings.HasPrefix(spec, "../"), strings.HasPrefix(spec, "/"):
		var candidate string
		if strings.HasPrefix(spec, "/") {
			candidate = strings.TrimPrefix(spec, "/")
		} else {
			candidate = path.Join(path.Dir(baseRel), spec)
		}
		candidateBases = append(candidateBases, path.Clean(candidate))
	default:
		if cfg.EnableTSConfigPaths {
			candidateBases = append(candidateBases, tsconfigAliasCandidates(root, spec, c)...)
		}
		if cfg.EnableWorkspaces {
			candidateBases = append(candidateBases, workspaceSpecCandidates(root, spec, c)...)
		}
		if len(candidateBases) == 0 {
			return "", "skipped_external"
		}
	}

	for _, base := range candidateBases {
		var candidates []string
		if hasJSTSExt(base) {
			candidates = append(candidates, base)
		} else {
			for _, ext := range jsTSExtensions {
				candidates = append(candidates, base+ext)
			}
			for _, ext := range jsTSExtensions {
				candidates = append(candidates, path.Join(base, "index"+ext))
			}
		}

		for _, cand := range candidates {
			abs := joinRootAbs(root, cand)
			rel := safeRelative(root, abs)
			if rel == "" {
				continue
			}
			if _, ok := fileExists(abs); ok {
				return rel, "ok"
			}
		}
	}

	return "", "skipped_missing"
}
