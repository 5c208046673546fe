package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"
	"github.com/AbdelazizMoustafa10m/Raven/internal/llm"
	"github.com/AbdelazizMoustafa10m/Raven/internal/report"
	"github.com/AbdelazizMoustafa10m/Raven/internal/scanner"
	"github.com/AbdelazizMoustafa10m/Raven/internal/staticgate"
	"github.com/AbdelazizMoustafa10m/Raven/internal/tribunal"
)

type fakeProvider struct {
	name string
	resp string
}

func (f *fakeProvider) Name() string              { return f.name }
func (f *fakeProvider) CheckPrerequisites() error { return nil }
func (f *fakeProvider) Complete(_ context.Context, _ llm.Request) (*llm.Response, error) {
	return &llm.Response{Content: f.resp}, nil
}

func sampleInvariants() *cvatypes.InvariantSet {
	return &cvatypes.InvariantSet{
		Security: []cvatypes.Invariant{
			{ID: 1, Category: cvatypes.CategorySecurity, Severity: cvatypes.SeverityHigh, Description: "no hardcoded secrets"},
		},
	}
}

func newTestEngine(t *testing.T, root string, gate *staticgate.Gate) *Engine {
	t.Helper()

	registry := llm.NewRegistry()
	require.NoError(t, registry.Register(&fakeProvider{name: "testprov", resp: `{"score": 9, "explanation": "ok", "confidence": 0.9}`}))

	judges := []tribunal.JudgeConfig{
		{Role: "architect", Model: "testprov/model-a", Weight: 1},
	}
	trib := tribunal.New(judges, registry)

	outDir := filepath.Join(root, ".cva-out")
	emitter := report.NewEmitter(outDir, nil)
	md := report.NewMarkdownGenerator(nil)

	e := New(root, gate, trib, emitter, md, nil)
	e.DetectConfig.Mode = cvatypes.ChangeSetModeFull
	return e
}

func TestEngine_RunOnce_WritesArtifacts(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n"), 0o644))

	e := newTestEngine(t, root, nil)

	verdict, err := e.RunOnce(context.Background(), "# spec\nno secrets", sampleInvariants())

	require.NoError(t, err)
	require.NotNil(t, verdict)
	assert.Equal(t, cvatypes.OverallPass, verdict.OverallVerdict)

	_, statErr := os.Stat(filepath.Join(root, ".cva-out", "verdict.json"))
	assert.NoError(t, statErr)
}

func TestEngine_RunOnce_StaticGateAbortSkipsTribunal(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "bad.py"), []byte("eval(x)\n"), 0o644))

	issues := []staticgate.Issue{{Tool: "ruff", File: "bad.py", Line: 1, Class: staticgate.IssueFatal}}
	gate := staticgate.New([]staticgate.Tool{&probeTool{issues: issues}}, staticgate.DefaultConfig(), nil)

	e := newTestEngine(t, root, gate)

	verdict, err := e.RunOnce(context.Background(), "# spec", sampleInvariants())

	require.NoError(t, err)
	assert.True(t, verdict.FailFast.Aborted)
	assert.Equal(t, cvatypes.OverallFail, verdict.OverallVerdict)
	assert.Empty(t, verdict.Criteria)
}

// probeTool is a minimal staticgate.Tool stub for engine-level tests.
type probeTool struct {
	issues []staticgate.Issue
}

func (p *probeTool) Name() string               { return "probe" }
func (p *probeTool) Language() string           { return ".py" }
func (p *probeTool) CheckPrerequisites() error  { return nil }
func (p *probeTool) Run(_ context.Context, _ string, _ []string) ([]staticgate.Issue, error) {
	return p.issues, nil
}

func TestNewWatcher_ReturnsWatcher(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n"), 0o644))

	e := newTestEngine(t, root, nil)
	w := NewWatcher(e, scanner.BuiltinCatalog(), scanner.DefaultRiskThreshold, "20ms")
	defer w.Stop()

	assert.NotNil(t, w)
}
