package report

import "github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"

// WriteAll writes verdict.json, tribunal_verdicts.json, and REPORT.md for
// verdict, in that order, stopping at the first error.
func (e *Emitter) WriteAll(mg *MarkdownGenerator, verdict *cvatypes.TribunalVerdict) error {
	if err := e.WriteVerdictJSON(verdict); err != nil {
		return err
	}
	if err := e.WriteTribunalVerdictsJSON(verdict); err != nil {
		return err
	}
	if err := e.WriteREPORTMarkdown(mg, verdict); err != nil {
		return err
	}
	return nil
}
