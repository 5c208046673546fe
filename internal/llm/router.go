package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"
)

// Lane identifies a cost/capability tier a request is routed through. Lane2
// is the cheaper/local tier; lane3 is the frontier tier used for escalation
// and for judges that always require it (e.g. the security judge).
type Lane string

const (
	Lane2 Lane = "lane2"
	Lane3 Lane = "lane3"
)

// ProviderSpec names one routable provider/model pair at a given tier.
type ProviderSpec struct {
	Provider string
	Model    string
	Tier     Lane
}

// HealthResult is the outcome of probing a ProviderSpec.
type HealthResult struct {
	Provider string
	Model    string
	Healthy  bool
	Reason   string
}

// HealthChecker probes a ProviderSpec's availability. Swappable for tests.
type HealthChecker func(ctx context.Context, spec ProviderSpec) HealthResult

// RouterRequest describes what the caller wants routed.
type RouterRequest struct {
	Lane               Lane
	TokenBudget        int
	AllowEscalation    bool
	PreferredProviders []string
}

// Decision is the router's output: which lane/provider/model was actually
// used, why, and the full list of candidates tried along the way.
type Decision struct {
	LaneRequested Lane
	LaneUsed      Lane
	Provider      string
	Model         string
	Reason        string
	FallbackChain []cvatypes.FallbackEntry
}

// RouterError signals that no healthy candidate could be found for a request.
type RouterError struct{ msg string }

func (e *RouterError) Error() string { return e.msg }

func routerErrorf(format string, args ...interface{}) error {
	return &RouterError{msg: fmt.Sprintf(format, args...)}
}

// requiredEnvForModel returns the environment variable name whose presence is
// required to use model, or "" if the model needs no credential (e.g. a local
// provider).
func requiredEnvForModel(model string) string {
	m := strings.ToLower(strings.TrimSpace(model))
	switch {
	case strings.HasPrefix(m, "openai/"):
		return "OPENAI_API_KEY"
	case strings.HasPrefix(m, "anthropic/"):
		return "ANTHROPIC_API_KEY"
	case strings.HasPrefix(m, "azure/"):
		return "AZURE_API_KEY"
	default:
		return ""
	}
}

// DefaultHealthCheck is conservative and local-only: it validates that the
// model string is non-empty and that any required credential environment
// variable is set. It never makes a network call, matching the original
// router's explicit no-probing design.
func DefaultHealthCheck(_ context.Context, spec ProviderSpec) HealthResult {
	if strings.TrimSpace(spec.Model) == "" {
		return HealthResult{Provider: spec.Provider, Model: spec.Model, Healthy: false, Reason: "model_missing"}
	}
	if required := requiredEnvForModel(spec.Model); required != "" && os.Getenv(required) == "" {
		return HealthResult{Provider: spec.Provider, Model: spec.Model, Healthy: false, Reason: "auth_missing:" + required}
	}
	return HealthResult{Provider: spec.Provider, Model: spec.Model, Healthy: true, Reason: "ok"}
}

// LoadProviderSpecsFromEnv builds lane2/lane3 candidate lists the way the
// original router's load_router_config_from_env did: CVA_LANE2_MODEL is
// optional, CVA_LANE3_MODEL falls back to legacyModel.
func LoadProviderSpecsFromEnv(legacyModel string) (lane2, lane3 []ProviderSpec) {
	lane2Model := strings.TrimSpace(os.Getenv("CVA_LANE2_MODEL"))
	lane3Model := strings.TrimSpace(os.Getenv("CVA_LANE3_MODEL"))
	if lane3Model == "" {
		lane3Model = strings.TrimSpace(legacyModel)
	}

	if lane2Model != "" {
		provider := os.Getenv("CVA_LANE2_PROVIDER")
		if provider == "" {
			provider = "local"
		}
		lane2 = append(lane2, ProviderSpec{Provider: provider, Model: lane2Model, Tier: Lane2})
	}
	if lane3Model != "" {
		provider := os.Getenv("CVA_LANE3_PROVIDER")
		if provider == "" {
			provider = "frontier"
		}
		lane3 = append(lane3, ProviderSpec{Provider: provider, Model: lane3Model, Tier: Lane3})
	}
	return lane2, lane3
}

// Router selects a provider/model for a requested lane with explicit,
// auditable fallback. Deterministic given the same config and health results.
type Router struct {
	HealthCheck HealthChecker
}

// NewRouter returns a Router using DefaultHealthCheck unless overridden.
func NewRouter() *Router {
	return &Router{HealthCheck: DefaultHealthCheck}
}

// Route picks a provider for req from the given candidate lists, recording
// every candidate considered (healthy or not) in the returned Decision's
// FallbackChain.
func (r *Router) Route(ctx context.Context, req RouterRequest, lane2Candidates, lane3Candidates []ProviderSpec) (*Decision, error) {
	checker := r.HealthCheck
	if checker == nil {
		checker = DefaultHealthCheck
	}

	var chain []cvatypes.FallbackEntry

	firstHealthy := func(cands []ProviderSpec) *ProviderSpec {
		ordered := orderByPreference(cands, req.PreferredProviders)
		for i := range ordered {
			c := ordered[i]
			hr := checker(ctx, c)
			chain = append(chain, cvatypes.FallbackEntry{
				Provider: hr.Provider,
				Model:    hr.Model,
				Healthy:  hr.Healthy,
				Reason:   hr.Reason,
			})
			if hr.Healthy {
				return &c
			}
		}
		return nil
	}

	switch req.Lane {
	case Lane2:
		if picked := firstHealthy(lane2Candidates); picked != nil {
			return &Decision{
				LaneRequested: Lane2, LaneUsed: Lane2,
				Provider: picked.Provider, Model: picked.Model,
				Reason: "lane2_selected", FallbackChain: chain,
			}, nil
		}
		if req.AllowEscalation {
			if picked := firstHealthy(lane3Candidates); picked != nil {
				return &Decision{
					LaneRequested: Lane2, LaneUsed: Lane3,
					Provider: picked.Provider, Model: picked.Model,
					Reason: "escalated_to_lane3", FallbackChain: chain,
				}, nil
			}
		}
		return nil, routerErrorf("llm: no healthy providers for lane2 (and escalation not possible)")

	case Lane3:
		if picked := firstHealthy(lane3Candidates); picked != nil {
			return &Decision{
				LaneRequested: Lane3, LaneUsed: Lane3,
				Provider: picked.Provider, Model: picked.Model,
				Reason: "lane3_selected", FallbackChain: chain,
			}, nil
		}
		return nil, routerErrorf("llm: no healthy providers for lane3")

	default:
		return nil, routerErrorf("llm: unknown lane %q", req.Lane)
	}
}

// orderByPreference moves candidates whose provider is in preferred to the
// front, preserving relative order within each group.
func orderByPreference(cands []ProviderSpec, preferred []string) []ProviderSpec {
	if len(preferred) == 0 {
		return cands
	}
	want := make(map[string]bool, len(preferred))
	for _, p := range preferred {
		want[p] = true
	}
	var pref, rest []ProviderSpec
	for _, c := range cands {
		if want[c.Provider] {
			pref = append(pref, c)
		} else {
			rest = append(rest, c)
		}
	}
	return append(pref, rest...)
}
