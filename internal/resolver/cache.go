package resolver

import (
	"os"
	"sync"
)

// caches bundles the resolver's per-run, read-mostly caches: file contents,
// parsed import sets, tsconfig compiler options, and the workspace name→dir
// map. They are scoped to a single Resolve call rather than shared globally,
// matching spec.md §5's "pass cache handles explicitly" guidance; a single
// writer (the BFS loop) populates them, so a plain map protected by one mutex
// is sufficient without the read/write contention a long-lived global cache
// would need.
type caches struct {
	mu            sync.Mutex
	fileText      map[string]fileCacheEntry
	imports       map[string]map[string]bool
	tsconfig      map[string]tsconfigResult
	tsconfigSet   map[string]bool
	workspaces    map[string]map[string]string
	workspacesSet map[string]bool
}

type fileCacheEntry struct {
	text     string
	ok       bool
	tooLarge bool
}

func newCaches() *caches {
	return &caches{
		fileText:      make(map[string]fileCacheEntry),
		imports:       make(map[string]map[string]bool),
		tsconfig:      make(map[string]tsconfigResult),
		tsconfigSet:   make(map[string]bool),
		workspaces:    make(map[string]map[string]string),
		workspacesSet: make(map[string]bool),
	}
}

// readFileCached reads root/rel, capped at maxBytes, caching the result
// (including misses) so a file imported by multiple siblings is read once.
func readFileCached(root, rel string, maxBytes int64, c *caches) (text string, tooLarge bool, ok bool) {
	c.mu.Lock()
	if entry, cached := c.fileText[rel]; cached {
		c.mu.Unlock()
		return entry.text, entry.tooLarge, entry.ok
	}
	c.mu.Unlock()

	abs := joinRootAbs(root, rel)
	size, exists := fileExists(abs)
	if !exists {
		c.mu.Lock()
		c.fileText[rel] = fileCacheEntry{}
		c.mu.Unlock()
		return "", false, false
	}
	if size > maxBytes {
		c.mu.Lock()
		c.fileText[rel] = fileCacheEntry{tooLarge: true}
		c.mu.Unlock()
		return "", true, false
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		c.mu.Lock()
		c.fileText[rel] = fileCacheEntry{}
		c.mu.Unlock()
		return "", false, false
	}

	entry := fileCacheEntry{text: string(data), ok: true}
	c.mu.Lock()
	c.fileText[rel] = entry
	c.mu.Unlock()
	return entry.text, false, true
}

// parseImportsCached parses rel's import specifiers, caching by rel since the
// BFS never revisits the same source file once enqueued.
func parseImportsCached(rel, src string, c *caches) map[string]bool {
	c.mu.Lock()
	if imps, ok := c.imports[rel]; ok {
		c.mu.Unlock()
		return imps
	}
	c.mu.Unlock()

	var imps map[string]bool
	switch {
	case hasSuffixFold(rel, ".py"):
		imps = parsePythonImports(src)
	case hasJSTSExt(rel):
		imps = parseJSTSImports(rel, src)
	default:
		imps = map[string]bool{}
	}

	c.mu.Lock()
	c.imports[rel] = imps
	c.mu.Unlock()
	return imps
}

func hasSuffixFold(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	tail := s[len(s)-len(suffix):]
	return equalFold(tail, suffix)
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
