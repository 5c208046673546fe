package staticgate

import (
	"context"
	"fmt"
	"path"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"
)

// defaultExcludePatterns mirrors spec.md §4.4's example glob list: test_*,
// *_test.*, tests/**.
var defaultExcludePatterns = []string{
	"**/test_*",
	"**/*_test.*",
	"**/tests/**",
}

// Config configures which changed files a Gate treats as test files.
type Config struct {
	ExcludeTestPatterns []string
}

// DefaultConfig returns spec.md §4.4's example exclusion list.
func DefaultConfig() Config {
	return Config{ExcludeTestPatterns: defaultExcludePatterns}
}

// Gate runs every registered Tool against the non-test subset of a change
// set and decides whether to abort before the tribunal runs.
type Gate struct {
	tools  []Tool
	config Config
	logger *log.Logger
}

// New builds a Gate from a set of language tools.
func New(tools []Tool, cfg Config, logger *log.Logger) *Gate {
	if len(cfg.ExcludeTestPatterns) == 0 {
		cfg.ExcludeTestPatterns = defaultExcludePatterns
	}
	return &Gate{tools: tools, config: cfg, logger: logger}
}

// Result is the outcome of a single Gate.Run call.
type Result struct {
	FailFast cvatypes.FailFastRecord
	Issues   []Issue
}

// Run filters files to non-test files matching each tool's language, runs
// every applicable tool, and decides whether to abort per spec.md §4.4: any
// IssueError/IssueFatal from a syntax/semantic tool, or any SecurityHigh
// finding, aborts the run.
func (g *Gate) Run(ctx context.Context, workDir string, changedFiles []string) (*Result, error) {
	nonTest := g.filterNonTest(changedFiles)

	var allIssues []Issue
	for _, tool := range g.tools {
		files := filterByLanguage(nonTest, tool.Language())
		if len(files) == 0 {
			continue
		}

		if err := tool.CheckPrerequisites(); err != nil {
			if g.logger != nil {
				g.logger.Warn("static tool unavailable, skipping", "tool", tool.Name(), "error", err)
			}
			continue
		}

		issues, err := tool.Run(ctx, workDir, files)
		if err != nil {
			return nil, fmt.Errorf("staticgate: tool %s: %w", tool.Name(), err)
		}
		allIssues = append(allIssues, issues...)
	}

	sort.SliceStable(allIssues, func(i, j int) bool {
		if allIssues[i].File != allIssues[j].File {
			return allIssues[i].File < allIssues[j].File
		}
		return allIssues[i].Line < allIssues[j].Line
	})

	result := &Result{Issues: allIssues}
	if reason := abortReason(allIssues); reason != "" {
		result.FailFast = cvatypes.FailFastRecord{
			Aborted: true,
			Reason:  reason,
			Issues:  len(allIssues),
		}
	} else {
		result.FailFast = cvatypes.FailFastRecord{Issues: len(allIssues)}
	}

	return result, nil
}

// abortReason returns the spec.md §4.4 abort reason string, or "" if the
// issue set does not meet an abort condition.
func abortReason(issues []Issue) string {
	for _, iss := range issues {
		if iss.Class == IssueError || iss.Class == IssueFatal {
			return "fail_fast"
		}
		if iss.Security == SecurityHigh {
			return "fail_fast"
		}
	}
	return ""
}

// filterNonTest drops any path matching one of the gate's exclude patterns.
func (g *Gate) filterNonTest(files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		excluded := false
		for _, pat := range g.config.ExcludeTestPatterns {
			if ok, _ := doublestar.Match(pat, f); ok {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, f)
		}
	}
	return out
}

func filterByLanguage(files []string, ext string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if path.Ext(f) == ext {
			out = append(out, f)
		}
	}
	return out
}
