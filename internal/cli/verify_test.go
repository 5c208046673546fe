package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdelazizMoustafa10m/Raven/internal/config"
	"github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"
)

func TestExitForVerdict_PassIsZero(t *testing.T) {
	v := &cvatypes.TribunalVerdict{OverallVerdict: cvatypes.OverallPass}
	assert.Equal(t, exitPass, exitForVerdict(v))
}

func TestExitForVerdict_NonPassIsOne(t *testing.T) {
	for _, ov := range []cvatypes.OverallVerdict{cvatypes.OverallFail, cvatypes.OverallPartial, cvatypes.OverallVeto, cvatypes.OverallError} {
		v := &cvatypes.TribunalVerdict{OverallVerdict: ov}
		assert.Equal(t, exitFail, exitForVerdict(v))
	}
}

func TestResolveSpecText_PrefersExplicitPath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "constitution.txt"), []byte("fallback"), 0o644))
	explicit := filepath.Join(root, "custom-spec.md")
	require.NoError(t, os.WriteFile(explicit, []byte("explicit text"), 0o644))

	text, path, err := resolveSpecText(root, explicit, "")
	require.NoError(t, err)
	assert.Equal(t, "explicit text", text)
	assert.Equal(t, explicit, path)
}

func TestResolveSpecText_FallsBackToWellKnownCandidates(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "constitution.txt"), []byte("fallback text"), 0o644))

	text, path, err := resolveSpecText(root, "", "")
	require.NoError(t, err)
	assert.Equal(t, "fallback text", text)
	assert.Equal(t, filepath.Join(root, "constitution.txt"), path)
}

func TestResolveSpecText_ErrorsWhenNothingFound(t *testing.T) {
	root := t.TempDir()

	_, _, err := resolveSpecText(root, "", "")
	assert.Error(t, err)
}

func TestResolveVerifyRoot_DefaultsToDirFlag(t *testing.T) {
	root := t.TempDir()
	resolved, err := resolveVerifyRoot(nil, verifyFlags{Dir: root})
	require.NoError(t, err)
	assert.Equal(t, root, resolved)
}

func TestResolveVerifyRoot_RejectsNonDirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := resolveVerifyRoot(nil, verifyFlags{Dir: file})
	assert.Error(t, err)
}

func TestStaticToolsFrom_MapsKnownNames(t *testing.T) {
	tools := staticToolsFrom([]string{"go vet", "ruff", "bandit", "unknown-tool"})
	require.Len(t, tools, 3)

	var names []string
	for _, tool := range tools {
		names = append(names, tool.Name())
	}
	assert.ElementsMatch(t, []string{"go vet", "ruff", "bandit"}, names)
}

func TestStaticToolsFrom_EmptyForNoNames(t *testing.T) {
	assert.Empty(t, staticToolsFrom(nil))
}

func TestJudgeConfigsFrom_MapsEachRole(t *testing.T) {
	cfg := config.CVAConfig{
		Judges: map[string]config.JudgeConfig{
			"security": {Model: "anthropic/claude-sonnet-4-5", Weight: 1.5, VetoEnabled: true, VetoThreshold: 6},
		},
	}

	judges := judgeConfigsFrom(cfg)
	require.Len(t, judges, 1)
	assert.Equal(t, "security", judges[0].Role)
	assert.Equal(t, "anthropic/claude-sonnet-4-5", judges[0].Model)
	assert.True(t, judges[0].VetoEnabled)
}

func TestJudgeConfigsFrom_NilForEmptyConfig(t *testing.T) {
	assert.Nil(t, judgeConfigsFrom(config.CVAConfig{}))
}

func TestProviderNameForJudgeModel_SplitsOnSlash(t *testing.T) {
	assert.Equal(t, "anthropic", providerNameForJudgeModel("anthropic/claude-sonnet-4-5"))
	assert.Equal(t, "claude-cli", providerNameForJudgeModel("claude-cli"))
}

func TestNewProviderForName_MissingCredentialErrors(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := newProviderForName("anthropic", nil)
	assert.Error(t, err)
}

func TestNewProviderForName_UnknownNameFallsBackToCLIProvider(t *testing.T) {
	p, err := newProviderForName("claude-cli", nil)
	require.NoError(t, err)
	assert.Equal(t, "claude-cli", p.Name())
}

func TestBuildProviderRegistry_DefaultsToAnthropicWhenNoJudgesConfigured(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	registry, err := buildProviderRegistry(config.CVAConfig{}, nil)
	require.NoError(t, err)
	assert.True(t, registry.Has("anthropic"))
}
