package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"
	"github.com/charmbracelet/log"

	"text/template"
)

//go:embed report_template.tmpl
var defaultReportTemplate string

// MarkdownGenerator renders REPORT.md from a TribunalVerdict, the same
// text/template-plus-embedded-template approach internal/review/report.go
// uses for code review reports.
type MarkdownGenerator struct {
	tmpl   *template.Template
	logger *log.Logger
}

// reportData wraps a TribunalVerdict with the render-time fields the
// template needs but the verdict itself does not carry.
type reportData struct {
	*cvatypes.TribunalVerdict
	GeneratedAt time.Time
}

// NewMarkdownGenerator returns a MarkdownGenerator using the embedded
// default template. logger may be nil.
func NewMarkdownGenerator(logger *log.Logger) *MarkdownGenerator {
	funcMap := template.FuncMap{
		"pct": func(ratio float64) float64 { return ratio * 100 },
	}

	tmpl := template.Must(
		template.New("report").
			Delims("[[", "]]").
			Funcs(funcMap).
			Parse(defaultReportTemplate),
	)

	return &MarkdownGenerator{tmpl: tmpl, logger: logger}
}

// Generate renders REPORT.md's contents for verdict.
func (mg *MarkdownGenerator) Generate(verdict *cvatypes.TribunalVerdict) (string, error) {
	if verdict == nil {
		return "", fmt.Errorf("report: markdown: verdict is required")
	}

	data := reportData{TribunalVerdict: verdict, GeneratedAt: time.Now().UTC()}

	var buf bytes.Buffer
	if err := mg.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("report: markdown: executing template: %w", err)
	}

	if mg.logger != nil {
		mg.logger.Info("report markdown generated",
			"overall_verdict", verdict.OverallVerdict,
			"bytes", buf.Len(),
		)
	}

	return buf.String(), nil
}

// WriteREPORTMarkdown renders and atomically writes REPORT.md.
func (e *Emitter) WriteREPORTMarkdown(mg *MarkdownGenerator, verdict *cvatypes.TribunalVerdict) error {
	rendered, err := mg.Generate(verdict)
	if err != nil {
		return err
	}

	path := e.path("REPORT.md")
	if err := writeAtomic(path, []byte(rendered), 0o644); err != nil {
		return err
	}

	e.log("REPORT.md written", "path", path)
	return nil
}
