package context

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"
	"github.com/AbdelazizMoustafa10m/Raven/internal/resolver"
)

// truncationMarker is appended to any section that had to be shrunk to fit
// the remaining budget.
const truncationMarker = "\n…<truncated>"

// truncationStep is the fixed shrink step, in characters, used when a
// section doesn't fit whole.
const truncationStep = 200

// BuildConfig controls packing behavior.
type BuildConfig struct {
	TokenBudget          int
	ResolveDepth         int
	ResolveMaxFiles      int
	ResolverConfig       resolver.Config
	MaxFileBytes         int64
	IntelligentWindowing WindowingConfig
}

// DefaultBuildConfig returns spec.md §4.2's design defaults: an ~8k token
// budget, resolver depth 3, max 200 resolved files.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		TokenBudget:     8000,
		ResolveDepth:    3,
		ResolveMaxFiles: 200,
		ResolverConfig:  resolver.DefaultConfig(),
		MaxFileBytes:    cvatypes.DefaultMaxFileBytes,
	}
}

// section is one candidate piece of packed text, in priority order.
type section struct {
	path string // "" for the spec text section
	text string
}

// Build detects changes, resolves the dependency closure, and packs the
// result into a single budget-bounded text blob with full telemetry.
func Build(ctx context.Context, root string, specText string, cfg BuildConfig, detectCfg DetectConfig) (*cvatypes.ResolvedContext, *cvatypes.ChangeSet, *resolver.Result, error) {
	changeSet, err := DetectChanges(ctx, root, detectCfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("context: detect changes: %w", err)
	}

	resResult, err := resolver.Resolve(root, changeSet.Files, cfg.ResolveDepth, cfg.ResolveMaxFiles, cfg.ResolverConfig)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("context: resolve imports: %w", err)
	}

	changedSections := loadSections(root, changeSet.Files, cfg.MaxFileBytes)
	importSections := loadSections(root, resResult.ResolvedFiles, cfg.MaxFileBytes)

	if cfg.IntelligentWindowing.Enabled {
		changedSections = applyWindowing(root, changedSections, specText, cfg.IntelligentWindowing)
	}

	rc := &cvatypes.ResolvedContext{
		CoverageKinds: make(map[string]cvatypes.CoverageKind),
	}

	var packed strings.Builder
	budget := cfg.TokenBudget
	running := 0

	packSection := func(label, path, text string, onInclude func(full bool)) {
		t := estimateTokens(text)
		if running+t <= budget {
			packed.WriteString(text)
			packed.WriteString("\n")
			running += t
			onInclude(true)
			return
		}

		remaining := budget - running
		if remaining <= 0 {
			rc.CoverageKinds[path] = cvatypes.CoverageExcluded
			rc.Partial = true
			return
		}

		shrunk := text
		for len(shrunk) > 0 {
			candidate := shrunk + truncationMarker
			if estimateTokens(candidate) <= remaining {
				packed.WriteString(candidate)
				packed.WriteString("\n")
				running += estimateTokens(candidate)
				onInclude(false)
				rc.Truncated = append(rc.Truncated, path)
				rc.Partial = true
				return
			}
			if len(shrunk) <= truncationStep {
				shrunk = ""
				break
			}
			shrunk = shrunk[:len(shrunk)-truncationStep]
		}

		rc.CoverageKinds[path] = cvatypes.CoverageExcluded
		rc.Partial = true
	}

	// Band 1: changed files, verbatim, in detection order.
	for _, s := range changedSections {
		path := s.path
		packSection("changed", path, s.text, func(full bool) {
			rc.ChangedIncluded = append(rc.ChangedIncluded, path)
			if full {
				rc.CoverageKinds[path] = cvatypes.CoverageFull
			} else {
				rc.CoverageKinds[path] = cvatypes.CoverageSlice
			}
		})
	}

	// Band 2: dependency-closure imports, BFS order. A file that doesn't fit
	// whole gets a header (imports + signatures only) before falling back to
	// a truncated slice, since the judge usually only needs a dependency's
	// shape, not its full body.
	for _, s := range importSections {
		path := s.path
		fullTokens := estimateTokens(s.text)
		if running+fullTokens <= budget {
			packed.WriteString(s.text)
			packed.WriteString("\n")
			running += fullTokens
			rc.ImportsIncluded = append(rc.ImportsIncluded, path)
			rc.CoverageKinds[path] = cvatypes.CoverageFull
			continue
		}

		if header := extractHeader(path, s.text); header != "" {
			headerText := fmt.Sprintf("=== %s (header) ===\n%s", path, header)
			t := estimateTokens(headerText)
			if running+t <= budget {
				packed.WriteString(headerText)
				packed.WriteString("\n")
				running += t
				rc.ImportsIncluded = append(rc.ImportsIncluded, path)
				rc.CoverageKinds[path] = cvatypes.CoverageHeader
				continue
			}
		}

		packSection("imports", path, s.text, func(full bool) {
			rc.ImportsIncluded = append(rc.ImportsIncluded, path)
			if full {
				rc.CoverageKinds[path] = cvatypes.CoverageFull
			} else {
				rc.CoverageKinds[path] = cvatypes.CoverageSlice
			}
		})
	}

	// Band 3: spec text ("the constitution").
	packSection("spec", "__spec__", specText, func(full bool) {
		rc.SpecIncluded = true
		if !full {
			rc.SpecTruncated = true
		}
	})

	rc.PackedText = packed.String()
	rc.TokenCount = running
	rc.SkippedImports = resResult.SkippedImports
	rc.ThreatLevel = AnalyzeThreat(rc.PackedText).Level.String()

	return rc, changeSet, resResult, nil
}

// estimateTokens mirrors spec.md §4.2's t(S) = max(1, ceil(len(S)/4)).
func estimateTokens(s string) int {
	if len(s) == 0 {
		return 1
	}
	t := (len(s) + 3) / 4
	if t < 1 {
		return 1
	}
	return t
}

func loadSections(root string, paths []string, maxBytes int64) []section {
	out := make([]section, 0, len(paths))
	for _, p := range paths {
		text, _, err := readCapped(filepath.Join(root, filepath.FromSlash(p)), maxBytes)
		if err != nil {
			continue
		}
		out = append(out, section{path: p, text: fmt.Sprintf("=== %s ===\n%s", p, text)})
	}
	return out
}
