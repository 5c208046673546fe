package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"
	"github.com/charmbracelet/log"
)

// Emitter writes a TribunalVerdict's artifacts to an output directory.
type Emitter struct {
	OutDir string
	logger *log.Logger
}

// NewEmitter returns an Emitter writing artifacts under outDir. logger may
// be nil.
func NewEmitter(outDir string, logger *log.Logger) *Emitter {
	return &Emitter{OutDir: outDir, logger: logger}
}

// WriteVerdictJSON writes the top-level verdict.json summary artifact.
func (e *Emitter) WriteVerdictJSON(verdict *cvatypes.TribunalVerdict) error {
	path := e.path("verdict.json")

	data, err := json.MarshalIndent(verdict, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshaling verdict.json: %w", err)
	}

	if err := writeAtomic(path, data, 0o644); err != nil {
		return err
	}

	e.log("verdict.json written", "path", path, "overall_verdict", verdict.OverallVerdict)
	return nil
}

// WriteTribunalVerdictsJSON writes the per-invariant criteria array to
// tribunal_verdicts.json, the full judge-by-judge detail behind verdict.json's
// summary.
func (e *Emitter) WriteTribunalVerdictsJSON(verdict *cvatypes.TribunalVerdict) error {
	path := e.path("tribunal_verdicts.json")

	data, err := json.MarshalIndent(verdict.Criteria, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshaling tribunal_verdicts.json: %w", err)
	}

	if err := writeAtomic(path, data, 0o644); err != nil {
		return err
	}

	e.log("tribunal_verdicts.json written", "path", path, "criteria", len(verdict.Criteria))
	return nil
}

func (e *Emitter) path(name string) string {
	if e.OutDir == "" {
		return name
	}
	return filepath.Join(e.OutDir, name)
}

func (e *Emitter) log(msg string, kv ...interface{}) {
	if e.logger != nil {
		e.logger.Info(msg, kv...)
	}
}
