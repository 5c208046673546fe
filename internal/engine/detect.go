package engine

import (
	stdcontext "context"
	"errors"
	"time"

	ctxbuild "github.com/AbdelazizMoustafa10m/Raven/internal/context"
	"github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"
)

// detectOrFallback wraps ctxbuild.DetectChanges with the Engine's configured
// DetectConfig, the change-detector tier of the layered pipeline (spec.md
// §4.5 item 1: git diff, falling back to an mtime window or a full walk).
func detectOrFallback(ctx stdcontext.Context, e *Engine) (*cvatypes.ChangeSet, error) {
	return ctxbuild.DetectChanges(ctx, e.Root, e.DetectConfig)
}

// parseDurationOrDefault parses s as a duration, returning an error for an
// empty or invalid string so callers can fall back to their own default.
func parseDurationOrDefault(s string) (time.Duration, error) {
	if s == "" {
		return 0, errEmptyDuration
	}
	return time.ParseDuration(s)
}

var errEmptyDuration = errors.New("engine: empty poll interval")
