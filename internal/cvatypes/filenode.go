package cvatypes

import (
	"fmt"
	"path"
	"strings"
)

// DefaultMaxFileBytes is the read-cap applied to any single file pulled into
// context: files above this size are read-capped, not excluded, per
// spec.md §3.
const DefaultMaxFileBytes = 512 * 1024

// FileNode describes one file known to the engine, repo-relative and
// forward-slash normalized regardless of host OS.
type FileNode struct {
	RelPath     string `json:"relative_path"`
	ContentHash string `json:"content_hash"`
	ByteSize    int64  `json:"byte_size"`
	LanguageTag string `json:"language_tag"`
}

// NormalizePath converts a path to repo-relative, forward-slash form. It does
// not perform containment checking; callers that cross a trust boundary must
// additionally run the path through pathsafety.Validate.
func NormalizePath(p string) string {
	p = toSlash(p)
	p = path.Clean(p)
	return strings.TrimPrefix(p, "./")
}

// toSlash is a tiny local shim so this package does not need to import
// path/filepath solely for ToSlash (keeps the dependency surface of a pure
// value-type package minimal).
func toSlash(p string) string {
	if strings.IndexByte(p, '\\') < 0 {
		return p
	}
	return strings.ReplaceAll(p, "\\", "/")
}

// DetectionMode names how a ChangeSet was produced.
type DetectionMode string

const (
	DetectionGit   DetectionMode = "git"
	DetectionMtime DetectionMode = "mtime"
	DetectionFull  DetectionMode = "full"
)

// ChangeSetMode selects whether the resolver walks the full tree or a diff.
type ChangeSetMode string

const (
	ChangeSetModeDiff ChangeSetMode = "diff"
	ChangeSetModeFull ChangeSetMode = "full"
)

// ChangeSet is the result of change detection and the seed of the resolver's
// breadth-first dependency walk.
type ChangeSet struct {
	Mode      ChangeSetMode `json:"mode"`
	Files     []string      `json:"files"`
	Detection DetectionMode `json:"detection"`
}

// Validate confirms the mode is recognised.
func (c ChangeSet) Validate() error {
	if c.Mode != ChangeSetModeDiff && c.Mode != ChangeSetModeFull {
		return fmt.Errorf("cvatypes: invalid change set mode %q", c.Mode)
	}
	return nil
}

// CoverageKind records how a file appears in a packed context.
type CoverageKind string

const (
	CoverageFull     CoverageKind = "full"
	CoverageSlice    CoverageKind = "slice"
	CoverageHeader   CoverageKind = "header"
	CoverageExcluded CoverageKind = "excluded"
)

// SkippedImport records one unresolved import specifier with its reason.
type SkippedImport struct {
	Specifier string `json:"specifier"`
	SourceFile string `json:"source_file"`
	Reason    string `json:"reason"` // external | missing | too_large | invalid_spec
}

// Reason tags for SkippedImport, matching spec.md §4.2's resolver contract.
const (
	SkipReasonExternal     = "external"
	SkipReasonMissing      = "missing"
	SkipReasonTooLarge     = "too_large"
	SkipReasonInvalidSpec  = "invalid_spec"
)

// ResolvedContext is the output of the context builder: the packed text sent
// to judges plus an auditable record of what went in, what was truncated, and
// what was dropped.
type ResolvedContext struct {
	PackedText      string                    `json:"-"`
	TokenCount      int                       `json:"token_count"`
	Partial         bool                      `json:"partial"`
	ChangedIncluded []string                  `json:"changed_included"`
	ImportsIncluded []string                  `json:"imports_included"`
	Truncated       []string                  `json:"truncated"`
	SpecIncluded    bool                      `json:"spec_included"`
	SpecTruncated   bool                      `json:"spec_truncated"`
	CoverageKinds   map[string]CoverageKind   `json:"coverage_kinds"`
	SkippedImports  []SkippedImport           `json:"skipped_imports"`
	ThreatLevel     string                    `json:"threat_level,omitempty"`
}
