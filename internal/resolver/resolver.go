// Package resolver implements the polyglot, repo-local dependency resolver
// described in spec.md §4.2: a breadth-first walk from a changed-file seed
// set that follows Python and JS/TS imports to build the context builder's
// dependency closure. It is deliberately conservative: it never returns a
// path outside the repository root and never descends into external
// dependency directories such as node_modules or site-packages.
package resolver

import (
	"container/list"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"
)

// jsTSExtensions is the ordered extension list tried when resolving a
// specifier that has no extension of its own.
var jsTSExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// Config controls resolver behavior; mirrors original_source's ResolverConfig.
type Config struct {
	MaxFileBytes        int64
	EnableTSConfigPaths bool
	EnableWorkspaces    bool
}

// DefaultConfig returns the resolver's default limits.
func DefaultConfig() Config {
	return Config{
		MaxFileBytes:        cvatypes.DefaultMaxFileBytes,
		EnableTSConfigPaths: true,
		EnableWorkspaces:    true,
	}
}

// Result is the resolver's output: every file reached from the seed set
// (excluding the seeds themselves), the specifiers that could not be
// resolved, diagnostic counters, and the import edges discovered.
type Result struct {
	ResolvedFiles  []string
	SkippedImports []cvatypes.SkippedImport
	Diagnostics    map[string]int
	Edges          [][2]string
}

// frontierEntry is one BFS queue item: a repo-relative path and its depth
// from the nearest seed.
type frontierEntry struct {
	rel   string
	depth int
}

// Resolve walks the dependency closure of entryFiles, bounded by depth and
// maxFiles, and returns every newly discovered file plus a full audit trail.
// root must be an absolute, existing directory; entryFiles are repo-relative.
func Resolve(root string, entryFiles []string, depth, maxFiles int, cfg Config) (*Result, error) {
	root = filepath.Clean(root)

	diag := map[string]int{
		"files_seen":          0,
		"files_read":          0,
		"imports_seen":        0,
		"imports_resolved":    0,
		"skipped_external":    0,
		"skipped_missing":     0,
		"skipped_too_large":   0,
		"skipped_invalid_spec": 0,
	}

	caches := newCaches()

	resolvedSet := make(map[string]bool)
	skippedSet := make(map[string]cvatypes.SkippedImport)
	var edges [][2]string

	seen := make(map[string]bool, len(entryFiles))
	frontier := list.New()
	for _, f := range entryFiles {
		rel := cvatypes.NormalizePath(f)
		if rel == "" || seen[rel] {
			continue
		}
		seen[rel] = true
		frontier.PushBack(frontierEntry{rel: rel, depth: 0})
	}

	for frontier.Len() > 0 {
		if len(seen) >= maxFiles {
			break
		}

		front := frontier.Front()
		frontier.Remove(front)
		entry := front.Value.(frontierEntry)

		if strings.HasPrefix(entry.rel, "../") {
			continue
		}
		if entry.depth >= depth {
			continue
		}

		diag["files_seen"]++

		src, tooLarge, ok := readFileCached(root, entry.rel, cfg.MaxFileBytes, caches)
		if !ok {
			if tooLarge {
				diag["skipped_too_large"]++
			} else {
				diag["skipped_missing"]++
			}
			continue
		}
		diag["files_read"]++

		imports := parseImportsCached(entry.rel, src, caches)

		sortedImports := make([]string, 0, len(imports))
		for imp := range imports {
			sortedImports = append(sortedImports, imp)
		}
		sort.Strings(sortedImports)

		for _, imp := range sortedImports {
			diag["imports_seen"]++

			var resolvedRel, reason string
			switch {
			case strings.HasSuffix(strings.ToLower(entry.rel), ".py"):
				resolvedRel = resolvePythonModule(root, imp, entry.rel)
				reason = "ok"
				if resolvedRel == "" {
					reason = "skipped_missing"
				}
			case hasJSTSExt(entry.rel):
				resolvedRel, reason = resolveJSTSSpecifier(root, imp, entry.rel, cfg, caches)
			default:
				reason = "skipped_invalid_spec"
			}

			if resolvedRel == "" {
				skippedSet[imp] = cvatypes.SkippedImport{
					Specifier:  imp,
					SourceFile: entry.rel,
					Reason:     normalizeSkipReason(reason),
				}
				diag[reason]++
				continue
			}

			diag["imports_resolved"]++
			edges = append(edges, [2]string{entry.rel, resolvedRel})

			if seen[resolvedRel] {
				continue
			}
			seen[resolvedRel] = true
			resolvedSet[resolvedRel] = true
			frontier.PushBack(frontierEntry{rel: resolvedRel, depth: entry.depth + 1})

			if len(seen) >= maxFiles {
				break
			}
		}
	}

	result := &Result{
		ResolvedFiles: sortedKeys(resolvedSet),
		Diagnostics:   diag,
		Edges:         edges,
	}
	for _, si := range skippedSet {
		result.SkippedImports = append(result.SkippedImports, si)
	}
	sort.Slice(result.SkippedImports, func(i, j int) bool {
		return result.SkippedImports[i].Specifier < result.SkippedImports[j].Specifier
	})
	return result, nil
}

func normalizeSkipReason(reason string) string {
	switch reason {
	case "skipped_external":
		return cvatypes.SkipReasonExternal
	case "skipped_too_large":
		return cvatypes.SkipReasonTooLarge
	case "skipped_invalid_spec":
		return cvatypes.SkipReasonInvalidSpec
	default:
		return cvatypes.SkipReasonMissing
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func hasJSTSExt(rel string) bool {
	low := strings.ToLower(rel)
	for _, ext := range jsTSExtensions {
		if strings.HasSuffix(low, ext) {
			return true
		}
	}
	return false
}

// safeRelative returns p's path relative to root if p resolves (after
// symlink evaluation) to somewhere inside root, or "" otherwise. This is the
// resolver's containment check, applied after every candidate path is built.
func safeRelative(root, p string) string {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return ""
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		// Root itself may not exist in tests using virtual trees; fall back
		// to the unresolved absolute path.
		absRoot, _ = filepath.Abs(root)
	}

	absP, err := filepath.Abs(p)
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(absP); err == nil {
		absP = resolved
	}

	rel, err := filepath.Rel(absRoot, absP)
	if err != nil {
		return ""
	}
	if rel == ".." || strings.HasPrefix(rel, "../") || strings.HasPrefix(rel, "..\\") {
		return ""
	}
	return filepath.ToSlash(rel)
}

func fileExists(p string) (size int64, ok bool) {
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return 0, false
	}
	return info.Size(), true
}

// joinRel joins a repo-relative directory and a relative path, producing a
// clean, slash-normalized repo-relative path.
func joinRel(dir, rel string) string {
	return cvatypes.NormalizePath(path.Join(dir, rel))
}
