// Package extractor turns free-form specification text into a categorized,
// severity-tagged InvariantSet. It prompts an LLM provider, parses the
// response defensively (fenced JSON, then balanced-brace scanning), validates
// category coverage, and issues targeted clarification prompts for any
// category left short, mirroring the scatter-then-validate-then-retry shape
// the rest of this codebase uses for structured LLM extraction.
package extractor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"
	"github.com/AbdelazizMoustafa10m/Raven/internal/jsonutil"
	"github.com/AbdelazizMoustafa10m/Raven/internal/llm"
)

// ExtractionFailedError is returned when, after the retry and coverage
// budget, the invariant set still lacks a required category or the model
// never produced parseable JSON.
type ExtractionFailedError struct {
	Reason string
}

func (e *ExtractionFailedError) Error() string {
	return fmt.Sprintf("extractor: extraction failed: %s", e.Reason)
}

// Options configures a single extraction run.
type Options struct {
	// Model is the extractor model identifier sent to the LLM provider.
	Model string
	// MinPerCategory overrides the default minimum invariant count per
	// category (default 3 for each, per spec.md §6 thresholds defaults).
	MinPerCategory map[cvatypes.Category]int
	// MaxCoverageRounds bounds the number of targeted clarification prompts
	// issued for categories still short after the initial pass.
	MaxCoverageRounds int
}

func defaultMinPerCategory() map[cvatypes.Category]int {
	return map[cvatypes.Category]int{
		cvatypes.CategorySecurity:      3,
		cvatypes.CategoryFunctionality: 3,
		cvatypes.CategoryStyle:         3,
	}
}

// Extractor runs the spec-to-invariants protocol against a single LLM
// provider.
type Extractor struct {
	provider llm.Provider
	logger   *log.Logger
}

// New creates an Extractor that calls provider for every prompt.
func New(provider llm.Provider, logger *log.Logger) *Extractor {
	return &Extractor{provider: provider, logger: logger}
}

// rawInvariant is the wire shape of one invariant as produced by the model,
// before category/severity enum validation.
type rawInvariant struct {
	ID       int    `json:"id"`
	Desc     string `json:"desc"`
	Severity string `json:"severity"`
}

// rawInvariantSet is the wire shape of the full extraction response.
type rawInvariantSet struct {
	Security      []rawInvariant `json:"security"`
	Functionality []rawInvariant `json:"functionality"`
	Style         []rawInvariant `json:"style"`
}

// Extract runs the full protocol: initial prompt, validation pass, coverage
// pass for any short category, then renumbering and spec-hash persistence.
func (x *Extractor) Extract(ctx context.Context, specText string, opts Options) (*cvatypes.InvariantSet, error) {
	minPerCategory := opts.MinPerCategory
	if minPerCategory == nil {
		minPerCategory = defaultMinPerCategory()
	}
	maxRounds := opts.MaxCoverageRounds
	if maxRounds <= 0 {
		maxRounds = 2
	}

	raw, err := x.promptAndParse(ctx, buildInitialPrompt(specText, minPerCategory), opts.Model)
	if err != nil {
		return nil, &ExtractionFailedError{Reason: err.Error()}
	}

	set := toInvariantSet(raw)
	set.SpecHash = specHash(specText)

	for round := 0; round < maxRounds; round++ {
		missing := shortCategories(set, minPerCategory)
		if len(missing) == 0 {
			break
		}
		x.logf("extraction coverage pass: categories short", "round", round+1, "categories", missing)

		raw, err := x.promptAndParse(ctx, buildCoveragePrompt(specText, missing, minPerCategory), opts.Model)
		if err != nil {
			// A failed coverage round is not immediately fatal: fall through
			// and let the final validation decide whether we still meet the
			// minimums from earlier rounds.
			x.logf("coverage pass request failed", "round", round+1, "error", err.Error())
			continue
		}
		mergeCoverage(set, raw, missing)
	}

	for _, c := range cvatypes.Categories {
		set.Renumber(c)
	}

	if err := set.Validate(minPerCategory); err != nil {
		return nil, &ExtractionFailedError{Reason: err.Error()}
	}

	return set, nil
}

// promptAndParse sends prompt to the provider and extracts the first valid
// JSON object from its response, falling back through jsonutil's fenced-block
// and balanced-brace strategies.
func (x *Extractor) promptAndParse(ctx context.Context, prompt string, model string) (*rawInvariantSet, error) {
	resp, err := x.provider.Complete(ctx, llm.Request{
		Model:       model,
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens:   4096,
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("llm call failed: %w", err)
	}

	var out rawInvariantSet
	if err := jsonutil.ExtractInto(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("no valid JSON in response: %w", err)
	}
	return &out, nil
}

// toInvariantSet converts the raw wire shape into cvatypes.InvariantSet,
// tagging each invariant with its category since the wire shape only implies
// category via its containing list.
func toInvariantSet(raw *rawInvariantSet) *cvatypes.InvariantSet {
	set := &cvatypes.InvariantSet{
		Security:      convert(raw.Security, cvatypes.CategorySecurity),
		Functionality: convert(raw.Functionality, cvatypes.CategoryFunctionality),
		Style:         convert(raw.Style, cvatypes.CategoryStyle),
	}
	return set
}

func convert(raws []rawInvariant, category cvatypes.Category) []cvatypes.Invariant {
	out := make([]cvatypes.Invariant, 0, len(raws))
	for _, r := range raws {
		out = append(out, cvatypes.Invariant{
			ID:          r.ID,
			Category:    category,
			Severity:    cvatypes.Severity(strings.ToLower(strings.TrimSpace(r.Severity))),
			Description: strings.TrimSpace(r.Desc),
		})
	}
	return out
}

// shortCategories returns the categories whose invariant count is below the
// configured minimum, in the canonical category order.
func shortCategories(set *cvatypes.InvariantSet, minPerCategory map[cvatypes.Category]int) []cvatypes.Category {
	var missing []cvatypes.Category
	for _, c := range cvatypes.Categories {
		min := minPerCategory[c]
		if min <= 0 {
			min = 1
		}
		if len(set.ByCategory(c)) < min {
			missing = append(missing, c)
		}
	}
	return missing
}

// mergeCoverage appends newly extracted invariants for the given categories
// to set. IDs are not expected to be globally unique yet; the caller renumbers
// after all rounds complete.
func mergeCoverage(set *cvatypes.InvariantSet, raw *rawInvariantSet, categories []cvatypes.Category) {
	byCategory := map[cvatypes.Category][]rawInvariant{
		cvatypes.CategorySecurity:      raw.Security,
		cvatypes.CategoryFunctionality: raw.Functionality,
		cvatypes.CategoryStyle:         raw.Style,
	}
	for _, c := range categories {
		existing := set.ByCategory(c)
		added := convert(byCategory[c], c)
		set.SetByCategory(c, append(existing, added...))
	}
}

// specHash returns a stable hex digest of specText, used to tag the
// InvariantSet for reproducibility checks across runs.
func specHash(specText string) string {
	sum := sha256.Sum256([]byte(specText))
	return hex.EncodeToString(sum[:])
}

func (x *Extractor) logf(msg string, keyvals ...interface{}) {
	if x.logger != nil {
		x.logger.Info(msg, keyvals...)
	}
}

// marshalForDebug is a small helper used by tests/CLI to pretty-print an
// InvariantSet; kept here since it is extraction-specific formatting, not a
// general cvatypes concern.
func marshalForDebug(set *cvatypes.InvariantSet) string {
	b, _ := json.MarshalIndent(set, "", "  ")
	return string(b)
}
