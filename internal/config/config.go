package config

// Config is the top-level configuration structure mapping to raven.toml.
type Config struct {
	Project   ProjectConfig             `toml:"project"`
	Agents    map[string]AgentConfig    `toml:"agents"`
	Review    ReviewConfig              `toml:"review"`
	Workflows map[string]WorkflowConfig `toml:"workflows"`
	CVA       CVAConfig                 `toml:"cva"`
}

// CVAConfig maps to the [cva] section in raven.toml: the consensus verifier
// agent's judge panel, static gate, and continuous scan settings.
type CVAConfig struct {
	OutDir        string                 `toml:"out_dir"`
	SpecFile      string                 `toml:"spec_file"`
	RiskThreshold int                    `toml:"risk_threshold"`
	PollInterval  string                 `toml:"poll_interval"`
	Judges        map[string]JudgeConfig `toml:"judges"`
	StaticGate    StaticGateConfig       `toml:"static_gate"`
}

// JudgeConfig maps to a [cva.judges.<role>] section: one tribunal judge.
type JudgeConfig struct {
	Model         string  `toml:"model"`
	Weight        float64 `toml:"weight"`
	VetoEnabled   bool    `toml:"veto_enabled"`
	VetoThreshold int     `toml:"veto_threshold"`
}

// StaticGateConfig maps to the [cva.static_gate] section.
type StaticGateConfig struct {
	Enabled bool     `toml:"enabled"`
	Tools   []string `toml:"tools"`
}

// ProjectConfig maps to the [project] section in raven.toml.
type ProjectConfig struct {
	Name                 string   `toml:"name"`
	Language             string   `toml:"language"`
	TasksDir             string   `toml:"tasks_dir"`
	TaskStateFile        string   `toml:"task_state_file"`
	PhasesConf           string   `toml:"phases_conf"`
	ProgressFile         string   `toml:"progress_file"`
	LogDir               string   `toml:"log_dir"`
	PromptDir            string   `toml:"prompt_dir"`
	BranchTemplate       string   `toml:"branch_template"`
	VerificationCommands []string `toml:"verification_commands"`
}

// AgentConfig maps to an [agents.<name>] section in raven.toml.
type AgentConfig struct {
	Command        string `toml:"command"`
	Model          string `toml:"model"`
	Effort         string `toml:"effort"`
	PromptTemplate string `toml:"prompt_template"`
	AllowedTools   string `toml:"allowed_tools"`
}

// ReviewConfig maps to the [review] section in raven.toml.
type ReviewConfig struct {
	Extensions       string `toml:"extensions"`
	RiskPatterns     string `toml:"risk_patterns"`
	PromptsDir       string `toml:"prompts_dir"`
	RulesDir         string `toml:"rules_dir"`
	ProjectBriefFile string `toml:"project_brief_file"`
}

// WorkflowConfig maps to a [workflows.<name>] section in raven.toml.
type WorkflowConfig struct {
	Description string                       `toml:"description"`
	Steps       []string                     `toml:"steps"`
	Transitions map[string]map[string]string `toml:"transitions"`
}
