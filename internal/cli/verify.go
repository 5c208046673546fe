package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/AbdelazizMoustafa10m/Raven/internal/config"
	"github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"
	"github.com/AbdelazizMoustafa10m/Raven/internal/engine"
	"github.com/AbdelazizMoustafa10m/Raven/internal/extractor"
	"github.com/AbdelazizMoustafa10m/Raven/internal/git"
	"github.com/AbdelazizMoustafa10m/Raven/internal/llm"
	"github.com/AbdelazizMoustafa10m/Raven/internal/logging"
	"github.com/AbdelazizMoustafa10m/Raven/internal/report"
	"github.com/AbdelazizMoustafa10m/Raven/internal/scanner"
	"github.com/AbdelazizMoustafa10m/Raven/internal/staticgate"
	"github.com/AbdelazizMoustafa10m/Raven/internal/tribunal"
)

// constitutionCandidates are tried, in order, when --spec is not given,
// matching spec.md §6's named constitution file locations.
var constitutionCandidates = []string{
	".tribunal/constitution.md",
	"constitution.txt",
	"PROGRAM_CONSTITUTION.md",
}

// Exit codes for the verify command, per spec.md §6.
const (
	exitPass       = 0
	exitFail       = 1
	exitUsageError = 2
	exitInterrupt  = 130
)

type verifyFlags struct {
	Dir     string
	Spec    string
	GitURL  string
	Watch   bool
	Verbose bool
}

func newVerifyCmd() *cobra.Command {
	var flags verifyFlags

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run the consensus verifier against a repository",
		Long: `Run the layered verification pipeline: build judge context from the
changed files, run the fail-fast static gate, and fan each extracted
invariant out to a weighted judge panel for consensus scoring.

With --watch, run once and then keep watching for file changes, escalating
to a full run whenever the quick scanner's risk score crosses its threshold.`,
		Example: `  # Verify the current directory once
  raven verify

  # Verify a remote repository by URL
  raven verify --git https://github.com/org/repo.git

  # Verify and keep watching for changes
  raven verify --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := runVerify(cmd, flags)
			if err != nil {
				cmd.PrintErrln(err)
			}
			os.Exit(code)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.Dir, "dir", "", "Repository root to verify (defaults to cwd, overridden by --git)")
	cmd.Flags().StringVar(&flags.Spec, "spec", "", "Path to the constitution/spec file (defaults to the usual candidates)")
	cmd.Flags().StringVar(&flags.GitURL, "git", "", "Clone this repository URL into a temp directory before verifying")
	cmd.Flags().BoolVar(&flags.Watch, "watch", false, "After the initial run, watch for changes and re-verify on escalation")
	cmd.Flags().BoolVar(&flags.Verbose, "verbose", false, "Verbose logging for this run (overrides global --verbose)")

	return cmd
}

func init() {
	rootCmd.AddCommand(newVerifyCmd())
}

// runVerify is the verify command's body, returning a process exit code
// instead of only an error so the ConfigError/usage-error/interrupt exit
// codes spec.md §6 names can all be expressed.
func runVerify(cmd *cobra.Command, flags verifyFlags) (int, error) {
	logging.Setup(flags.Verbose || flagVerbose, flagQuiet, os.Getenv("RAVEN_LOG_FORMAT") == "json")
	logger := logging.New("verify")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, err := resolveVerifyRoot(ctx, flags)
	if err != nil {
		return exitUsageError, err
	}

	resolved, _, err := loadAndResolveConfig()
	if err != nil {
		return exitUsageError, fmt.Errorf("loading config: %w", err)
	}
	cfg := resolved.Config.CVA

	specText, specPath, err := resolveSpecText(root, flags.Spec, cfg.SpecFile)
	if err != nil {
		return exitUsageError, err
	}
	logger.Info("loaded constitution", "path", specPath, "bytes", len(specText))

	registry, err := buildProviderRegistry(cfg, logger)
	if err != nil {
		return exitUsageError, fmt.Errorf("building provider registry: %w", err)
	}

	invariants, err := loadOrExtractInvariants(ctx, root, specText, registry, logger)
	if err != nil {
		return exitFail, fmt.Errorf("extracting invariants: %w", err)
	}

	e, w, err := buildEngine(root, cfg, registry, logger)
	if err != nil {
		return exitUsageError, err
	}

	verdict, err := e.RunOnce(ctx, specText, invariants)
	if err != nil {
		return exitFail, err
	}

	code := exitForVerdict(verdict)

	if flags.Watch {
		w.Trigger()
		if err := w.Run(ctx, specText, invariants); err != nil {
			if errors.Is(err, context.Canceled) {
				return exitInterrupt, nil
			}
			return exitFail, err
		}
		return exitInterrupt, nil
	}

	return code, nil
}

func exitForVerdict(v *cvatypes.TribunalVerdict) int {
	if v.OverallVerdict == cvatypes.OverallPass {
		return exitPass
	}
	return exitFail
}

// resolveVerifyRoot honors --git by cloning into a fresh temp directory,
// otherwise uses --dir or the current directory.
func resolveVerifyRoot(ctx context.Context, flags verifyFlags) (string, error) {
	if flags.GitURL != "" {
		dest, err := os.MkdirTemp("", "raven-verify-*")
		if err != nil {
			return "", fmt.Errorf("creating clone dir: %w", err)
		}
		if err := os.Remove(dest); err != nil {
			return "", fmt.Errorf("preparing clone dir: %w", err)
		}
		if err := git.Clone(ctx, flags.GitURL, dest); err != nil {
			return "", err
		}
		return dest, nil
	}

	dir := flags.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	return abs, nil
}

// resolveSpecText loads the constitution file, preferring an explicit path,
// then the config's spec_file, then the well-known candidates at repo root.
func resolveSpecText(root, explicit, configured string) (text string, path string, err error) {
	candidates := []string{explicit, configured}
	candidates = append(candidates, constitutionCandidates...)

	for _, c := range candidates {
		if c == "" {
			continue
		}
		p := c
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, c)
		}
		data, readErr := os.ReadFile(p)
		if readErr == nil {
			return string(data), p, nil
		}
	}
	return "", "", fmt.Errorf("no constitution file found (tried %v)", candidates)
}

// loadOrExtractInvariants reads a persisted criteria.json if present,
// otherwise runs the extractor against specText and persists the result.
func loadOrExtractInvariants(ctx context.Context, root, specText string, registry *llm.Registry, logger *log.Logger) (*cvatypes.InvariantSet, error) {
	criteriaPath := filepath.Join(root, "criteria.json")

	if data, err := os.ReadFile(criteriaPath); err == nil {
		var set cvatypes.InvariantSet
		if err := json.Unmarshal(data, &set); err == nil && len(set.All()) > 0 {
			logger.Info("loaded persisted invariants", "path", criteriaPath, "count", len(set.All()))
			return &set, nil
		}
	}

	provider, err := registry.Get(extractorProviderName(registry))
	if err != nil {
		return nil, err
	}
	x := extractor.New(provider, logger)
	set, err := x.Extract(ctx, specText, extractor.Options{})
	if err != nil {
		return nil, err
	}

	if data, err := json.MarshalIndent(set, "", "  "); err == nil {
		_ = os.WriteFile(criteriaPath, data, 0o644)
	}
	return set, nil
}

// extractorProviderName picks the first registered provider, since the
// extractor uses a single model regardless of the judge panel's composition.
func extractorProviderName(registry *llm.Registry) string {
	names := registry.List()
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

func buildEngine(root string, cfg config.CVAConfig, registry *llm.Registry, logger *log.Logger) (*engine.Engine, *engine.Watcher, error) {
	judges := judgeConfigsFrom(cfg)
	if len(judges) == 0 {
		judges = tribunal.DefaultJudgePanel()
	}
	trib := tribunal.New(judges, registry, tribunal.WithLogger(logger))

	var gate *staticgate.Gate
	if cfg.StaticGate.Enabled {
		gate = staticgate.New(staticToolsFrom(cfg.StaticGate.Tools), staticgate.DefaultConfig(), logger)
	}

	outDir := cfg.OutDir
	if outDir == "" {
		outDir = ".cva"
	}
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(root, outDir)
	}
	emitter := report.NewEmitter(outDir, logger)
	md := report.NewMarkdownGenerator(logger)

	e := engine.New(root, gate, trib, emitter, md, logger)
	w := engine.NewWatcher(e, scanner.BuiltinCatalog(), cfg.RiskThreshold, cfg.PollInterval)
	return e, w, nil
}

func judgeConfigsFrom(cfg config.CVAConfig) []tribunal.JudgeConfig {
	if len(cfg.Judges) == 0 {
		return nil
	}
	out := make([]tribunal.JudgeConfig, 0, len(cfg.Judges))
	for role, jc := range cfg.Judges {
		out = append(out, tribunal.JudgeConfig{
			Role:          role,
			Model:         jc.Model,
			Weight:        jc.Weight,
			VetoEnabled:   jc.VetoEnabled,
			VetoThreshold: jc.VetoThreshold,
		})
	}
	return out
}

func staticToolsFrom(names []string) []staticgate.Tool {
	tools := make([]staticgate.Tool, 0, len(names))
	for _, n := range names {
		switch n {
		case "go vet", "govet":
			tools = append(tools, &staticgate.GoVetTool{})
		case "ruff":
			tools = append(tools, &staticgate.RuffTool{})
		case "bandit":
			tools = append(tools, &staticgate.BanditTool{})
		}
	}
	return tools
}

func buildProviderRegistry(cfg config.CVAConfig, logger *log.Logger) (*llm.Registry, error) {
	registry := llm.NewRegistry()
	seen := map[string]bool{}

	for _, jc := range cfg.Judges {
		name := providerNameForJudgeModel(jc.Model)
		if name == "" || seen[name] {
			continue
		}
		provider, err := newProviderForName(name, logger)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(provider); err != nil {
			return nil, err
		}
		seen[name] = true
	}

	if len(registry.List()) == 0 {
		provider, err := newProviderForName("anthropic", logger)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(provider); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

func providerNameForJudgeModel(model string) string {
	for i := 0; i < len(model); i++ {
		if model[i] == '/' {
			return model[:i]
		}
	}
	return model
}

// newProviderForName constructs the real HTTP-backed provider for a known
// name, falling back to a locally installed AI CLI for anything else, so an
// operator can point a judge at a subscription-backed tool instead of a
// metered API key.
func newProviderForName(name string, logger *log.Logger) (llm.Provider, error) {
	switch name {
	case "anthropic":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for the %q provider", name)
		}
		return llm.NewAnthropicProvider(key), nil
	case "gemini", "google":
		key := os.Getenv("GOOGLE_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY is required for the %q provider", name)
		}
		return llm.NewGeminiProvider(context.Background(), key)
	default:
		return llm.NewCLIProvider(name, name, nil, logger), nil
	}
}

