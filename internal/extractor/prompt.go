package extractor

import (
	"fmt"
	"strings"

	"github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"
)

const jsonSchemaBlock = `{
  "security": [{"id": 1, "desc": "string, <= 500 chars", "severity": "critical|high|medium|low"}],
  "functionality": [{"id": 1, "desc": "string", "severity": "critical|high|medium|low"}],
  "style": [{"id": 1, "desc": "string", "severity": "critical|high|medium|low"}]
}`

const fewShotBlock = `Example security invariant: {"id": 1, "desc": "User-supplied input must never reach eval() or an equivalent dynamic-execution sink", "severity": "critical"}
Example functionality invariant: {"id": 1, "desc": "The /verify endpoint must return exit code 0 only when overall_verdict is PASS", "severity": "high"}
Example style invariant: {"id": 1, "desc": "Exported functions must carry a doc comment describing their contract", "severity": "low"}`

// buildInitialPrompt assembles the extractor's first prompt: the spec text,
// few-shot examples per category, the strict JSON schema, and a
// category-coverage directive, per spec.md §4.1 step 1.
func buildInitialPrompt(specText string, minPerCategory map[cvatypes.Category]int) string {
	var b strings.Builder
	b.WriteString("You are extracting testable invariants from a software specification.\n")
	b.WriteString("Read the spec below and produce a JSON object with exactly three keys: security, functionality, style.\n")
	b.WriteString("Each category must contain at least the following number of invariants:\n")
	for _, c := range cvatypes.Categories {
		min := minPerCategory[c]
		if min <= 0 {
			min = 1
		}
		fmt.Fprintf(&b, "  - %s: %d\n", c, min)
	}
	b.WriteString("\nEach invariant is an object {id, desc, severity} where severity is one of critical, high, medium, low.\n")
	b.WriteString("Respond with only the JSON object, optionally inside a fenced ```json block.\n\n")
	b.WriteString("Schema:\n")
	b.WriteString(jsonSchemaBlock)
	b.WriteString("\n\n")
	b.WriteString("Examples:\n")
	b.WriteString(fewShotBlock)
	b.WriteString("\n\n<<<SPEC>>>\n")
	b.WriteString(specText)
	b.WriteString("\n<<<END SPEC>>>\n")
	return b.String()
}

// buildCoveragePrompt issues a targeted clarification request naming only the
// categories that are still short, per spec.md §4.1 step 4. The response is
// expected in the same three-key JSON shape; unrequested categories may be
// empty and are ignored by the merge step.
func buildCoveragePrompt(specText string, missing []cvatypes.Category, minPerCategory map[cvatypes.Category]int) string {
	var b strings.Builder
	b.WriteString("The previous extraction did not produce enough invariants in the following categories. ")
	b.WriteString("Re-read the spec and produce ADDITIONAL invariants for only these categories (do not repeat earlier ones):\n")
	for _, c := range missing {
		min := minPerCategory[c]
		if min <= 0 {
			min = 1
		}
		fmt.Fprintf(&b, "  - %s: need at least %d total\n", c, min)
	}
	b.WriteString("\nRespond with the same three-key JSON shape as before; categories not listed above may be empty arrays.\n\n")
	b.WriteString("Schema:\n")
	b.WriteString(jsonSchemaBlock)
	b.WriteString("\n\n<<<SPEC>>>\n")
	b.WriteString(specText)
	b.WriteString("\n<<<END SPEC>>>\n")
	return b.String()
}
