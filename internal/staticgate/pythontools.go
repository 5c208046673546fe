package staticgate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// RuffTool runs ruff (a Python linter) in JSON output mode, classifying its
// findings into IssueError/IssueFatal/IssueWarning per spec.md §4.4's
// "errors+fatal classes only" abort gate.
type RuffTool struct {
	Command string // defaults to "ruff"
}

func (t *RuffTool) Name() string     { return "ruff" }
func (t *RuffTool) Language() string { return ".py" }

func (t *RuffTool) CheckPrerequisites() error {
	cmd := t.command()
	if _, err := exec.LookPath(cmd); err != nil {
		return fmt.Errorf("staticgate: ruff not found (looked for %q): %w", cmd, err)
	}
	return nil
}

func (t *RuffTool) command() string {
	if t.Command != "" {
		return t.Command
	}
	return "ruff"
}

type ruffFinding struct {
	Filename string `json:"filename"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Location struct {
		Row int `json:"row"`
	} `json:"location"`
	Fix *struct{} `json:"fix"`
}

// Run shells out to `ruff check --output-format json <files...>` the same
// way internal/agent/claude.go runs the Claude CLI: exec.CommandContext for
// cancellation, stdout/stderr drained concurrently via goroutines.
func (t *RuffTool) Run(ctx context.Context, workDir string, files []string) ([]Issue, error) {
	args := append([]string{"check", "--output-format", "json"}, files...)
	cmd := exec.CommandContext(ctx, t.command(), args...)
	cmd.Dir = workDir

	stdout, stderr, err := runCaptured(cmd)
	if err != nil {
		return nil, fmt.Errorf("staticgate: ruff: %w: %s", err, stderr)
	}

	// ruff exits non-zero when findings exist; that is not itself an error,
	// so we only treat a JSON-decode failure as a tool error.
	var findings []ruffFinding
	if strings.TrimSpace(stdout) != "" {
		if err := json.Unmarshal([]byte(stdout), &findings); err != nil {
			return nil, fmt.Errorf("staticgate: ruff: decoding output: %w", err)
		}
	}

	issues := make([]Issue, 0, len(findings))
	for _, f := range findings {
		issues = append(issues, Issue{
			Tool:    "ruff",
			File:    f.Filename,
			Line:    f.Location.Row,
			Message: f.Message,
			RuleID:  f.Code,
			Class:   ruffClass(f.Code),
		})
	}
	return issues, nil
}

// ruffClass maps a ruff rule code prefix to a syntax/semantic class. F821,
// F822 (undefined names) and E999 (syntax error) are IssueFatal; every other
// E-class (pycodestyle errors) and F-class (pyflakes) code is IssueError;
// everything else is a warning.
func ruffClass(code string) IssueClass {
	switch {
	case strings.HasPrefix(code, "F821"), strings.HasPrefix(code, "F822"), strings.HasPrefix(code, "E999"):
		return IssueFatal
	case strings.HasPrefix(code, "E"), strings.HasPrefix(code, "F"):
		return IssueError
	default:
		return IssueWarning
	}
}

// BanditTool runs bandit (a Python security linter), keeping only HIGH
// severity findings per spec.md §4.4.
type BanditTool struct {
	Command string // defaults to "bandit"
}

func (t *BanditTool) Name() string     { return "bandit" }
func (t *BanditTool) Language() string { return ".py" }

func (t *BanditTool) CheckPrerequisites() error {
	cmd := t.command()
	if _, err := exec.LookPath(cmd); err != nil {
		return fmt.Errorf("staticgate: bandit not found (looked for %q): %w", cmd, err)
	}
	return nil
}

func (t *BanditTool) command() string {
	if t.Command != "" {
		return t.Command
	}
	return "bandit"
}

type banditReport struct {
	Results []struct {
		Filename        string `json:"filename"`
		LineNumber      int    `json:"line_number"`
		IssueText       string `json:"issue_text"`
		TestID          string `json:"test_id"`
		IssueSeverity   string `json:"issue_severity"`
		IssueConfidence string `json:"issue_confidence"`
	} `json:"results"`
}

func (t *BanditTool) Run(ctx context.Context, workDir string, files []string) ([]Issue, error) {
	args := append([]string{"-f", "json"}, files...)
	cmd := exec.CommandContext(ctx, t.command(), args...)
	cmd.Dir = workDir

	stdout, stderr, err := runCaptured(cmd)
	if err != nil && strings.TrimSpace(stdout) == "" {
		return nil, fmt.Errorf("staticgate: bandit: %w: %s", err, stderr)
	}

	var report banditReport
	if strings.TrimSpace(stdout) != "" {
		if jerr := json.Unmarshal([]byte(stdout), &report); jerr != nil {
			return nil, fmt.Errorf("staticgate: bandit: decoding output: %w", jerr)
		}
	}

	issues := make([]Issue, 0, len(report.Results))
	for _, r := range report.Results {
		severity := SecuritySeverity(strings.ToUpper(r.IssueSeverity))
		if severity != SecurityHigh {
			continue
		}
		issues = append(issues, Issue{
			Tool:     "bandit",
			File:     r.Filename,
			Line:     r.LineNumber,
			Message:  r.IssueText,
			RuleID:   r.TestID,
			Security: severity,
		})
	}
	return issues, nil
}

// runCaptured executes cmd, draining stdout/stderr concurrently so a large
// tool output can never deadlock the pipe, matching the drain pattern in
// internal/agent/claude.go's ClaudeAgent.Run.
func runCaptured(cmd *exec.Cmd) (stdout, stderr string, err error) {
	stdoutPipe, perr := cmd.StdoutPipe()
	if perr != nil {
		return "", "", perr
	}
	stderrPipe, perr := cmd.StderrPipe()
	if perr != nil {
		return "", "", perr
	}

	var outBuf, errBuf bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = outBuf.ReadFrom(stdoutPipe)
	}()
	go func() {
		defer wg.Done()
		_, _ = errBuf.ReadFrom(stderrPipe)
	}()

	if startErr := cmd.Start(); startErr != nil {
		wg.Wait()
		return "", "", startErr
	}
	wg.Wait()

	waitErr := cmd.Wait()
	return outBuf.String(), errBuf.String(), ignoreExitError(waitErr)
}

// ignoreExitError returns nil for a plain non-zero exit (common for linters
// that use the exit code to signal "findings present"), and propagates any
// other error (process could not start/run at all).
func ignoreExitError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*exec.ExitError); ok {
		return nil
	}
	return err
}
