package scanner

import (
	"encoding/json"
	"fmt"

	"github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"
	"github.com/AbdelazizMoustafa10m/Raven/internal/jsonutil"
)

// constitutionRule is the wire shape one entry in a spec's fenced
// `tribunal_rules` block takes (spec.md §4.5: "rules may be declared in a
// fenced JSON block inside the spec").
type constitutionRule struct {
	ID           string `json:"id"`
	Regex        string `json:"regex"`
	Severity     string `json:"severity"`
	Message      string `json:"message"`
	SuggestedFix string `json:"suggested_fix"`
}

type constitutionRulesBlock struct {
	TribunalRules []constitutionRule `json:"tribunal_rules"`
}

// ParseConstitutionRules scans specText for every fenced (or inline) JSON
// value and keeps the rules from the first one that carries a
// "tribunal_rules" array. A spec with no such block returns an empty,
// non-error result: constitution rules are optional per spec.md §4.5.
func ParseConstitutionRules(specText string) ([]Rule, error) {
	candidates := jsonutil.ExtractAll(specText)

	for _, raw := range candidates {
		var block constitutionRulesBlock
		if err := json.Unmarshal(raw, &block); err != nil {
			continue
		}
		if len(block.TribunalRules) == 0 {
			continue
		}

		rules := make([]Rule, 0, len(block.TribunalRules))
		for _, cr := range block.TribunalRules {
			sev := cvatypes.Severity(cr.Severity)
			if !sev.IsValid() {
				return nil, fmt.Errorf("scanner: constitution rule %q: invalid severity %q", cr.ID, cr.Severity)
			}
			rule, err := compileRule(cr.ID, cr.Regex, sev, cr.Message, cr.SuggestedFix)
			if err != nil {
				return nil, err
			}
			rules = append(rules, rule)
		}
		return rules, nil
	}

	return nil, nil
}
