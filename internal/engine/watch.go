package engine

import (
	stdcontext "context"
	"os"
	"path/filepath"

	"github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"
	"github.com/AbdelazizMoustafa10m/Raven/internal/scanner"
)

// maxScanFileBytes caps how much of a single file the quick scanner reads,
// mirroring the context builder's own read cap so a single huge file cannot
// dominate a scan cycle.
const maxScanFileBytes = cvatypes.DefaultMaxFileBytes

// Watcher runs the three-tier continuous verification pipeline (spec.md
// §4.5): a debounced change signal triggers a quick regex scan, and only an
// escalation decision triggers a full Engine.RunOnce.
type Watcher struct {
	engine    *Engine
	scanner   *scanner.Scanner
	debouncer *scanner.Debouncer
	threshold int
}

// NewWatcher returns a Watcher over engine, scanning with rules and
// escalating past riskThreshold (0 means scanner.DefaultRiskThreshold).
func NewWatcher(e *Engine, rules []scanner.Rule, riskThreshold int, pollInterval string) *Watcher {
	interval := scanner.DefaultPollInterval
	if d, err := parseDurationOrDefault(pollInterval); err == nil {
		interval = d
	}

	return &Watcher{
		engine:    e,
		scanner:   scanner.New(rules),
		debouncer: scanner.NewDebouncer(interval),
		threshold: riskThreshold,
	}
}

// Trigger signals that a file changed, resetting the debounce window.
func (w *Watcher) Trigger() {
	w.debouncer.Trigger()
}

// Stop releases the watcher's background resources.
func (w *Watcher) Stop() {
	w.debouncer.Stop()
}

// Run blocks, scanning on every debounced fire and escalating to a full
// tribunal run when warranted, until ctx is cancelled.
func (w *Watcher) Run(ctx stdcontext.Context, specText string, invariants *cvatypes.InvariantSet) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.debouncer.Fire():
			if err := w.cycle(ctx, specText, invariants); err != nil {
				return err
			}
		}
	}
}

// cycle runs one scan-and-maybe-escalate pass.
func (w *Watcher) cycle(ctx stdcontext.Context, specText string, invariants *cvatypes.InvariantSet) error {
	changes, err := detectChanges(ctx, w.engine)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		return nil
	}

	contents := readFiles(w.engine.Root, changes)
	result := w.scanner.ScanFiles(contents)
	decision := scanner.Decide(result, w.threshold)

	if !decision.ShouldEscalate {
		return nil
	}

	if w.engine.logger != nil {
		w.engine.logger.Info("scan escalated to full verification", "reason", decision.Reason)
	}

	_, err = w.engine.RunOnce(ctx, specText, invariants)
	return err
}

func detectChanges(ctx stdcontext.Context, e *Engine) ([]string, error) {
	changeSet, err := detectOrFallback(ctx, e)
	if err != nil {
		return nil, err
	}
	return changeSet.Files, nil
}

func readFiles(root string, files []string) map[string]string {
	contents := make(map[string]string, len(files))
	for _, f := range files {
		path := f
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, f)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if len(data) > maxScanFileBytes {
			data = data[:maxScanFileBytes]
		}
		contents[f] = string(data)
	}
	return contents
}
