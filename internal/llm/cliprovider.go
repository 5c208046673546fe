package llm

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Compile-time check that CLIProvider implements Provider.
var _ Provider = (*CLIProvider)(nil)

// cliLogger is the minimal logging interface CLIProvider needs.
type cliLogger interface {
	Debug(msg string, keyvals ...interface{})
}

// CLIProvider adapts a locally installed AI CLI (e.g. the Claude Code or
// Codex CLI) into the llm.Provider interface, so the tribunal can route a
// judge to a subscription-backed CLI tool instead of a metered API key.
type CLIProvider struct {
	name    string
	command string
	args    []string
	logger  cliLogger
}

// NewCLIProvider creates a provider named name that shells out to command
// with args, appending the prompt as the final argument.
func NewCLIProvider(name, command string, args []string, logger cliLogger) *CLIProvider {
	return &CLIProvider{name: name, command: command, args: args, logger: logger}
}

// Name returns the provider's registry name.
func (p *CLIProvider) Name() string { return p.name }

// CheckPrerequisites verifies the CLI binary is on PATH.
func (p *CLIProvider) CheckPrerequisites() error {
	if _, err := exec.LookPath(p.command); err != nil {
		return fmt.Errorf("llm: cli provider %q: command %q not found: %w", p.name, p.command, err)
	}
	return nil
}

// Complete runs the CLI once with the assembled prompt and captures stdout.
// Stdout/stderr are drained concurrently so a full pipe on either stream
// cannot deadlock the subprocess.
func (p *CLIProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	prompt := assemblePrompt(req.Messages)

	args := append(append([]string{}, p.args...), prompt)
	cmd := exec.CommandContext(ctx, p.command, args...)

	if p.logger != nil {
		p.logger.Debug("running cli provider", "provider", p.name, "command", p.command, "args", p.args)
	}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("llm: cli provider %q: stdout pipe: %w", p.name, err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("llm: cli provider %q: stderr pipe: %w", p.name, err)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _, _ = stdoutBuf.ReadFrom(stdoutPipe) }()
	go func() { defer wg.Done(); _, _ = stderrBuf.ReadFrom(stderrPipe) }()

	start := time.Now()
	if err := cmd.Start(); err != nil {
		wg.Wait()
		return nil, fmt.Errorf("llm: cli provider %q: start: %w", p.name, err)
	}
	wg.Wait()
	waitErr := cmd.Wait()
	duration := time.Since(start)

	if waitErr != nil {
		return nil, fmt.Errorf("llm: cli provider %q: exited after %s: %w: %s", p.name, duration, waitErr, stderrBuf.String())
	}

	return &Response{Content: strings.TrimSpace(stdoutBuf.String()), StopReason: "end_turn"}, nil
}

// assemblePrompt flattens a stable-prefix message list into a single prompt
// string for CLIs that take one argument: system/user content first (the
// cacheable prefix), the final user turn last.
func assemblePrompt(msgs []Message) string {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.ToUpper(m.Role))
		b.WriteString(":\n")
		b.WriteString(m.Content)
	}
	return b.String()
}
