// Package cvatypes defines the shared data model for the verifier engine:
// invariants, file and change metadata, packed judge context, and the
// per-invariant and overall verdict shapes. Types here are immutable value
// objects; the packages that produce them (extractor, resolver, ctxbuild,
// tribunal) own the logic, not these structs.
package cvatypes

import "fmt"

// Category partitions invariants so that security requirements can never be
// silently folded into style feedback.
type Category string

const (
	CategorySecurity     Category = "security"
	CategoryFunctionality Category = "functionality"
	CategoryStyle        Category = "style"
)

// Categories lists the three required categories in a fixed, stable order.
var Categories = []Category{CategorySecurity, CategoryFunctionality, CategoryStyle}

var validCategories = map[Category]bool{
	CategorySecurity:      true,
	CategoryFunctionality: true,
	CategoryStyle:         true,
}

// Severity is the impact level of an invariant or a judge's finding about it.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:      3,
	SeverityCritical: 4,
}

var validSeverities = map[Severity]bool{
	SeverityCritical: true,
	SeverityHigh:     true,
	SeverityMedium:   true,
	SeverityLow:      true,
}

// IsValid reports whether s is one of the four known severity levels.
func (s Severity) IsValid() bool { return validSeverities[s] }

// Rank returns a numeric ordering for severity comparison; higher is more
// severe. Unknown severities rank 0.
func (s Severity) Rank() int { return severityRank[s] }

// maxDescriptionLen is the soft cap on Invariant.Description, matching
// spec.md's "prose, <= ~500 chars" contract. It is enforced by Validate, not
// by truncation, so the extractor can detect and re-prompt on violations.
const maxDescriptionLen = 500

// Invariant is one atomic, testable requirement extracted from a spec.
// IDs are stable within a single extraction run and are unique within their
// category; they are never reused once a verdict references them.
type Invariant struct {
	ID          int      `json:"id"`
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	Description string   `json:"desc"`
}

// Validate checks that an Invariant has a well-formed category, severity,
// non-empty description within the length cap, and a positive ID.
func (inv Invariant) Validate() error {
	if inv.ID <= 0 {
		return fmt.Errorf("cvatypes: invariant id must be positive, got %d", inv.ID)
	}
	if !validCategories[inv.Category] {
		return fmt.Errorf("cvatypes: invariant %d: invalid category %q", inv.ID, inv.Category)
	}
	if !inv.Severity.IsValid() {
		return fmt.Errorf("cvatypes: invariant %d: invalid severity %q", inv.ID, inv.Severity)
	}
	if inv.Description == "" {
		return fmt.Errorf("cvatypes: invariant %d: description must not be empty", inv.ID)
	}
	if len(inv.Description) > maxDescriptionLen {
		return fmt.Errorf("cvatypes: invariant %d: description exceeds %d chars (got %d)", inv.ID, maxDescriptionLen, len(inv.Description))
	}
	return nil
}

// InvariantSet is the typed, categorized output of the extractor. It is
// immutable once produced for a given spec hash: re-extraction yields a new
// set and fresh IDs, never a mutation of this one.
type InvariantSet struct {
	Security      []Invariant `json:"security"`
	Functionality []Invariant `json:"functionality"`
	Style         []Invariant `json:"style"`
	// SpecHash identifies the spec text this set was extracted from, for
	// reproducibility checks (spec.md §4.1 "Persist the final set and its
	// spec hash").
	SpecHash string `json:"spec_hash"`
}

// ByCategory returns the invariant slice for the given category, or nil for
// an unrecognised category.
func (s *InvariantSet) ByCategory(c Category) []Invariant {
	switch c {
	case CategorySecurity:
		return s.Security
	case CategoryFunctionality:
		return s.Functionality
	case CategoryStyle:
		return s.Style
	default:
		return nil
	}
}

// SetByCategory replaces the invariant slice for the given category. Used by
// the coverage pass when merging clarification results.
func (s *InvariantSet) SetByCategory(c Category, invs []Invariant) {
	switch c {
	case CategorySecurity:
		s.Security = invs
	case CategoryFunctionality:
		s.Functionality = invs
	case CategoryStyle:
		s.Style = invs
	}
}

// All returns every invariant across all three categories, ordered
// (category, id) ascending, matching the ordering guarantee spec.md §5
// requires for stable report and verdict ordering.
func (s *InvariantSet) All() []Invariant {
	out := make([]Invariant, 0, len(s.Security)+len(s.Functionality)+len(s.Style))
	for _, c := range Categories {
		out = append(out, s.ByCategory(c)...)
	}
	return out
}

// Validate checks category coverage (all three keys present and non-empty
// after a successful extraction, per spec.md §8 testable property 4) and that
// every invariant within each category is individually valid and has a
// unique ID within that category.
func (s *InvariantSet) Validate(minPerCategory map[Category]int) error {
	for _, c := range Categories {
		invs := s.ByCategory(c)
		min := minPerCategory[c]
		if min <= 0 {
			min = 1
		}
		if len(invs) < min {
			return fmt.Errorf("cvatypes: category %q has %d invariant(s), need at least %d", c, len(invs), min)
		}
		seen := make(map[int]bool, len(invs))
		for _, inv := range invs {
			if err := inv.Validate(); err != nil {
				return err
			}
			if inv.Category != c {
				return fmt.Errorf("cvatypes: invariant %d listed under %q but tagged %q", inv.ID, c, inv.Category)
			}
			if seen[inv.ID] {
				return fmt.Errorf("cvatypes: category %q has duplicate id %d", c, inv.ID)
			}
			seen[inv.ID] = true
		}
	}
	return nil
}

// Renumber reassigns stable 1..N IDs within category c, preserving order.
// Used when extraction produces duplicate or missing IDs (spec.md §4.1 step 3).
func (s *InvariantSet) Renumber(c Category) {
	invs := s.ByCategory(c)
	for i := range invs {
		invs[i].ID = i + 1
		invs[i].Category = c
	}
	s.SetByCategory(c, invs)
}
