// Package llm is the provider-agnostic transport layer shared by every
// component that needs an LLM call: the extractor, the tribunal's judges, and
// the layered scanner's rule-synthesis pass. It owns stable-prefix message
// assembly, retry classification, the lane2/lane3 router, and a deterministic
// response cache, so no caller shells out to a CLI or opens its own HTTP
// client directly.
package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
)

// providerNameRe validates provider names: lowercase alphanumeric and hyphens.
var providerNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ErrNotFound is returned by Registry.Get when no provider with the requested
// name has been registered.
var ErrNotFound = errors.New("llm: provider not found")

// ErrDuplicateName is returned by Registry.Register when a provider with the
// same name is already present.
var ErrDuplicateName = errors.New("llm: provider already registered")

// ErrInvalidName is returned by Registry.Register when the name is empty or
// contains invalid characters.
var ErrInvalidName = errors.New("llm: invalid provider name")

// Message is one turn of a chat-style completion request. Role is one of
// "system", "user", or "assistant".
type Message struct {
	Role    string
	Content string
}

// Request is a single completion request sent through the transport. Messages
// should be built with the stable prefix (system prompt, spec text, packed
// context) first and the variable suffix (the specific judge/invariant ask)
// last, so providers that support prefix caching can exploit it.
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Response is a single completion result.
type Response struct {
	Content      string
	InputTokens  int
	OutputTokens int
	StopReason   string
}

// Provider is the interface every concrete LLM backend implements, whether it
// talks HTTP (anthropic.go, gemini.go) or shells out to a CLI (cliprovider.go).
type Provider interface {
	// Name returns the provider's identifier (e.g., "anthropic", "google",
	// "claude-cli"). Must be lowercase alphanumeric plus hyphens.
	Name() string

	// Complete executes a single completion request.
	Complete(ctx context.Context, req Request) (*Response, error)

	// CheckPrerequisites verifies the provider is usable (credentials present,
	// CLI installed, etc.) without making a network call.
	CheckPrerequisites() error
}

// Registry stores named providers for lookup by the router and by config.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider under its Name().
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return fmt.Errorf("register provider: %w", ErrInvalidName)
	}
	name := p.Name()
	if name == "" || !providerNameRe.MatchString(name) {
		return fmt.Errorf("register provider %q: %w", name, ErrInvalidName)
	}
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("register provider %q: %w", name, ErrDuplicateName)
	}
	r.providers[name] = p
	return nil
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("get provider %q: %w", name, ErrNotFound)
	}
	return p, nil
}

// MustGet returns the provider registered under name or panics. Only use
// during setup.
func (r *Registry) MustGet(name string) Provider {
	p, err := r.Get(name)
	if err != nil {
		panic(fmt.Sprintf("llm.Registry.MustGet: provider %q not registered", name))
	}
	return p
}

// List returns all registered provider names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a provider with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.providers[name]
	return ok
}
