package config

// NewDefaults returns a Config populated with all default values.
// These defaults match the PRD-specified defaults for a Go CLI project.
func NewDefaults() *Config {
	return &Config{
		Project: ProjectConfig{
			TasksDir:       "docs/tasks",
			TaskStateFile:  "docs/tasks/task-state.conf",
			PhasesConf:     "docs/tasks/phases.conf",
			ProgressFile:   "docs/tasks/PROGRESS.md",
			LogDir:         "scripts/logs",
			PromptDir:      "prompts",
			BranchTemplate: "phase/{phase_id}-{slug}",
		},
		Agents:    map[string]AgentConfig{},
		Workflows: map[string]WorkflowConfig{},
		CVA:       NewCVADefaults(),
	}
}

// NewCVADefaults returns the [cva] section's defaults: a three-judge panel
// matching internal/tribunal.DefaultJudgePanel (architect/security/
// user_proxy), a risk threshold of 20 (spec.md §4.5), and the static gate
// enabled with no tools configured (the caller wires tools explicitly).
func NewCVADefaults() CVAConfig {
	return CVAConfig{
		OutDir:        ".cva",
		RiskThreshold: 20,
		PollInterval:  "15s",
		Judges: map[string]JudgeConfig{
			"architect":  {Model: "anthropic/claude-sonnet-4-5", Weight: 1.0},
			"security":   {Model: "anthropic/claude-sonnet-4-5", Weight: 1.5, VetoEnabled: true, VetoThreshold: 6},
			"user_proxy": {Model: "anthropic/claude-sonnet-4-5", Weight: 1.0},
		},
		StaticGate: StaticGateConfig{Enabled: true},
	}
}
