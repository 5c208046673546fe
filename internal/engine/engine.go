// Package engine wires the extractor, context builder, static gate,
// tribunal, scanner, and report emitter into the single-run and continuous
// verification pipelines spec.md §4 describes end to end.
package engine

import (
	stdcontext "context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	ctxbuild "github.com/AbdelazizMoustafa10m/Raven/internal/context"
	"github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"
	"github.com/AbdelazizMoustafa10m/Raven/internal/report"
	"github.com/AbdelazizMoustafa10m/Raven/internal/runid"
	"github.com/AbdelazizMoustafa10m/Raven/internal/staticgate"
	"github.com/AbdelazizMoustafa10m/Raven/internal/tribunal"
)

// Engine runs one end-to-end verification pass: detect changes, build
// judge context, run the fail-fast static gate, and (unless it aborts) run
// the tribunal, then emit artifacts.
type Engine struct {
	Root string

	BuildConfig  ctxbuild.BuildConfig
	DetectConfig ctxbuild.DetectConfig

	Gate     *staticgate.Gate
	Tribunal *tribunal.Tribunal
	Emitter  *report.Emitter
	Markdown *report.MarkdownGenerator
	logger   *log.Logger
}

// New assembles an Engine from its component parts. Any of gate, trib,
// emitter, or md may be nil: a nil Gate skips the static gate, a nil
// Emitter/Markdown skips artifact writing (useful for callers that only want
// the in-memory verdict).
func New(root string, gate *staticgate.Gate, trib *tribunal.Tribunal, emitter *report.Emitter, md *report.MarkdownGenerator, logger *log.Logger) *Engine {
	return &Engine{
		Root:         root,
		BuildConfig:  ctxbuild.DefaultBuildConfig(),
		DetectConfig: ctxbuild.DefaultDetectConfig(),
		Gate:         gate,
		Tribunal:     trib,
		Emitter:      emitter,
		Markdown:     md,
		logger:       logger,
	}
}

// RunOnce executes a single verification pass against invariants, using
// specText to build judge context. It writes artifacts if the Engine was
// constructed with an Emitter.
func (e *Engine) RunOnce(ctx stdcontext.Context, specText string, invariants *cvatypes.InvariantSet) (*cvatypes.TribunalVerdict, error) {
	start := time.Now()

	resolved, changes, _, err := ctxbuild.Build(ctx, e.Root, specText, e.BuildConfig, e.DetectConfig)
	if err != nil {
		return nil, fmt.Errorf("engine: building context: %w", err)
	}

	runOpts := tribunal.RunOpts{
		PackedContext:  resolved.PackedText,
		ContextPartial: resolved.Partial,
		RunID:          runid.New(),
		Telemetry:      telemetryFrom(resolved, changes, start),
	}

	if e.Gate != nil {
		gateResult, err := e.Gate.Run(ctx, e.Root, changes.Files)
		if err != nil {
			return nil, fmt.Errorf("engine: running static gate: %w", err)
		}
		runOpts.FailFast = gateResult.FailFast
		runOpts.StaticIssues = len(gateResult.Issues)
	}

	verdict := e.Tribunal.Run(ctx, invariants, runOpts)

	if e.Emitter != nil && e.Markdown != nil {
		if err := e.Emitter.WriteAll(e.Markdown, verdict); err != nil {
			return verdict, fmt.Errorf("engine: writing artifacts: %w", err)
		}
	}

	if e.logger != nil {
		e.logger.Info("verification run complete",
			"run_id", verdict.RunID,
			"overall_verdict", verdict.OverallVerdict,
			"duration_ms", verdict.DurationMs,
		)
	}

	return verdict, nil
}

// telemetryFrom derives a Telemetry record from the resolved context and
// change set produced for this run.
func telemetryFrom(resolved *cvatypes.ResolvedContext, changes *cvatypes.ChangeSet, start time.Time) cvatypes.Telemetry {
	return cvatypes.Telemetry{
		TokenCount:     resolved.TokenCount,
		Partial:        resolved.Partial,
		CoverageKinds:  resolved.CoverageKinds,
		SkippedImports: resolved.SkippedImports,
		IncludedFiles:  append(resolved.ChangedIncluded, resolved.ImportsIncluded...),
		DetectionMode:  changes.Detection,
		ThreatLevel:    resolved.ThreatLevel,
		DurationMs:     time.Since(start).Milliseconds(),
	}
}
