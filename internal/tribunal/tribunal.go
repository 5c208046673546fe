package tribunal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"
	"github.com/AbdelazizMoustafa10m/Raven/internal/llm"
)

// Tribunal fans an invariant out to a judge panel and resolves the result to
// a CriterionResult, the way internal/review/orchestrator.go fans a diff out
// to CLI review agents, generalized to a weighted, veto-capable panel.
type Tribunal struct {
	judges      []JudgeConfig
	providers   *llm.Registry
	coordinator *llm.RateLimitCoordinator
	cache       *llm.Cache
	logger      *log.Logger
	concurrency int

	// PerJudgeTimeout bounds a single judge call; zero means no extra
	// deadline beyond ctx.
	PerJudgeTimeout time.Duration
	// MaxRetries bounds retry attempts for rate-limited/transport failures.
	MaxRetries int
}

// Option configures a Tribunal at construction time.
type Option func(*Tribunal)

// WithConcurrency overrides the default per-invariant judge concurrency.
func WithConcurrency(n int) Option {
	return func(t *Tribunal) {
		if n > 0 {
			t.concurrency = n
		}
	}
}

// WithLogger attaches structured logging.
func WithLogger(l *log.Logger) Option {
	return func(t *Tribunal) { t.logger = l }
}

// WithCache attaches a deterministic response cache shared across invariants.
func WithCache(c *llm.Cache) Option {
	return func(t *Tribunal) { t.cache = c }
}

// New builds a Tribunal from a judge panel and a provider registry.
func New(judges []JudgeConfig, providers *llm.Registry, opts ...Option) *Tribunal {
	t := &Tribunal{
		judges:          judges,
		providers:       providers,
		coordinator:     llm.NewRateLimitCoordinator(llm.DefaultBackoffConfig()),
		concurrency:     len(judges),
		PerJudgeTimeout: 60 * time.Second,
		MaxRetries:      2,
	}
	for _, o := range opts {
		o(t)
	}
	if t.concurrency <= 0 {
		t.concurrency = 1
	}
	return t
}

// EvaluateInvariant fans out inv to every configured judge in parallel (bounded
// by t.concurrency), then reduces the resulting JudgeVerdicts to a
// CriterionResult via Consensus. A single judge's failure never aborts the
// panel: it is recorded as a degraded JudgeVerdict with Err set.
func (t *Tribunal) EvaluateInvariant(ctx context.Context, inv cvatypes.Invariant, packedContext string, contextPartial bool) cvatypes.CriterionResult {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)

	var mu sync.Mutex
	verdicts := make([]cvatypes.JudgeVerdict, len(t.judges))

	for i, cfg := range t.judges {
		i, cfg := i, cfg
		g.Go(func() error {
			v := t.callJudge(gctx, cfg, inv, packedContext, contextPartial)
			mu.Lock()
			verdicts[i] = v
			mu.Unlock()
			// Per-judge errors never abort the panel.
			return nil
		})
	}
	_ = g.Wait()

	result := Consensus(inv, verdicts)
	if contextPartial {
		result.Partial = true
	}
	return result
}

// callJudge executes a single judge's call with retry classification,
// returning a degraded verdict (never an error) so the caller's fan-out
// logic stays error-free.
func (t *Tribunal) callJudge(ctx context.Context, cfg JudgeConfig, inv cvatypes.Invariant, packedContext string, contextPartial bool) cvatypes.JudgeVerdict {
	if contextPartial {
		return cvatypes.JudgeVerdict{
			JudgeRole:     cfg.Role,
			Model:         cfg.Model,
			VetoEnabled:   cfg.VetoEnabled,
			VetoThreshold: cfg.VetoThreshold,
			Weight:        cfg.Weight,
			Unevaluated:   true,
			PassVerdict:   false,
			Explanation:   "context was truncated below the judge's required coverage",
			Issues:        []string{"unevaluated"},
		}
	}

	provider, err := t.resolveProvider(cfg)
	if err != nil {
		return errVerdict(cfg, err)
	}

	req := llm.Request{
		Model:    cfg.Model,
		Messages: []llm.Message{{Role: "user", Content: buildPrompt(cfg, inv, packedContext)}},
	}

	if t.cache != nil {
		if resp, ok := t.cache.Get(req); ok {
			return parseJudgeResponse(cfg, resp.Content)
		}
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if t.PerJudgeTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, t.PerJudgeTimeout)
		defer cancel()
	}

	var lastErr error
	maxAttempts := t.MaxRetries + 1
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := t.coordinator.WaitForReset(callCtx, provider.Name()); err != nil {
			lastErr = err
			break
		}

		resp, err := provider.Complete(callCtx, req)
		if err == nil {
			t.coordinator.ClearRateLimit(provider.Name())
			if t.cache != nil {
				t.cache.Put(req, resp)
			}
			return parseJudgeResponse(cfg, resp.Content)
		}

		lastErr = err
		class := llm.Classify(err)
		if t.logger != nil {
			t.logger.Warn("judge call failed", "judge", cfg.Role, "provider", provider.Name(), "class", class, "attempt", attempt, "error", err)
		}

		switch class {
		case llm.FailureRateLimit:
			t.coordinator.RecordRateLimit(provider.Name(), 0)
			continue
		case llm.FailureCredit:
			// Credit/quota errors fail fast, no retry (spec.md §4.3 step 2).
			return errVerdict(cfg, err)
		default:
			continue
		}
	}

	return errVerdict(cfg, lastErr)
}

func (t *Tribunal) resolveProvider(cfg JudgeConfig) (llm.Provider, error) {
	if t.providers == nil {
		return nil, fmt.Errorf("tribunal: no provider registry configured")
	}
	name := providerNameForModel(cfg.Model)
	return t.providers.Get(name)
}

// providerNameForModel extracts the registry key from a "<provider>/<model>"
// identifier; a model with no "/" is returned whole.
func providerNameForModel(model string) string {
	for i := 0; i < len(model); i++ {
		if model[i] == '/' {
			return model[:i]
		}
	}
	return model
}

func errVerdict(cfg JudgeConfig, err error) cvatypes.JudgeVerdict {
	return cvatypes.JudgeVerdict{
		JudgeRole:     cfg.Role,
		Model:         cfg.Model,
		VetoEnabled:   cfg.VetoEnabled,
		VetoThreshold: cfg.VetoThreshold,
		Weight:        cfg.Weight,
		Score:         5,
		Confidence:    0,
		PassVerdict:   false,
		Explanation:   fmt.Sprintf("judge call failed: %v", err),
		Issues:        []string{"transport_error"},
		Err:           err,
	}
}
