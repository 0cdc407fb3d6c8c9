// Package config loads and validates the layered daemon configuration.
//
// Layering: built-in defaults, then config.default.yaml (ships with the
// app), then config.yaml (user customizations), then an environment
// override that bypasses layering entirely.
package config

import (
	"github.com/jg-phare/nudge/pkg/paths"
)

// Config is the root configuration. A loaded Config is treated as an
// immutable snapshot; each request reads the snapshot current when it
// starts, shared rather than copied, and a reload swaps in a new snapshot.
type Config struct {
	Model        ModelConfig     `yaml:"model"`
	Context      ContextConfig   `yaml:"context"`
	Plugins      PluginsConfig   `yaml:"plugins"`
	Trigger      TriggerConfig   `yaml:"trigger"`
	Cache        CacheConfig     `yaml:"cache"`
	Privacy      PrivacyConfig   `yaml:"privacy"`
	Log          LogConfig       `yaml:"log"`
	Diagnosis    DiagnosisConfig `yaml:"diagnosis"`
	SystemPrompt string          `yaml:"system_prompt"`
}

// ModelConfig selects and authenticates the completion endpoint.
type ModelConfig struct {
	Endpoint  string `yaml:"endpoint"`
	ModelName string `yaml:"model_name"`
	// APIKey, when set, takes precedence over APIKeyEnv.
	APIKey    string `yaml:"api_key"`
	APIKeyEnv string `yaml:"api_key_env"`
	TimeoutMs uint64 `yaml:"timeout_ms"`
}

// ContextConfig bounds what the gatherer collects.
type ContextConfig struct {
	HistoryWindow          int            `yaml:"history_window"`
	IncludeCwdListing      bool           `yaml:"include_cwd_listing"`
	IncludeExitCode        bool           `yaml:"include_exit_code"`
	IncludeSystemInfo      bool           `yaml:"include_system_info"`
	SimilarCommandsEnabled bool           `yaml:"similar_commands_enabled"`
	SimilarCommandsWindow  int            `yaml:"similar_commands_window"`
	SimilarCommandsMax     int            `yaml:"similar_commands_max"`
	MaxFilesInListing      int            `yaml:"max_files_in_listing"`
	MaxTotalTokens         int            `yaml:"max_total_tokens"`
	Priorities             PriorityConfig `yaml:"priorities"`
}

// PriorityConfig orders sources for truncation; higher survives longer.
type PriorityConfig struct {
	History    int `yaml:"history"`
	CwdListing int `yaml:"cwd_listing"`
	Plugins    int `yaml:"plugins"`
}

// PluginsConfig groups the per-ecosystem probes.
type PluginsConfig struct {
	Git    GitPluginConfig    `yaml:"git"`
	Docker DockerPluginConfig `yaml:"docker"`
	Node   NodePluginConfig   `yaml:"node"`
	Rust   RustPluginConfig   `yaml:"rust"`
	Python PythonPluginConfig `yaml:"python"`
}

// GitDepth is the coarse quality level for git context.
type GitDepth string

const (
	GitLight    GitDepth = "light"
	GitStandard GitDepth = "standard"
	GitDetailed GitDepth = "detailed"
)

// GitPluginConfig tunes the git probe.
type GitPluginConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Depth       GitDepth `yaml:"depth"`
	MaxBranches int      `yaml:"max_branches"`
	Priority    int      `yaml:"priority"`
}

// DockerPluginConfig tunes the docker probe.
type DockerPluginConfig struct {
	Enabled        bool   `yaml:"enabled"`
	TimeoutMs      uint64 `yaml:"timeout_ms"`
	Priority       int    `yaml:"priority"`
	MaxContainers  int    `yaml:"max_containers"`
	MaxImages      int    `yaml:"max_images"`
	ShowContainers bool   `yaml:"show_containers"`
	IncludeCompose bool   `yaml:"include_compose"`
}

// NodePluginConfig tunes the node probe.
type NodePluginConfig struct {
	Enabled         bool   `yaml:"enabled"`
	TimeoutMs       uint64 `yaml:"timeout_ms"`
	Priority        int    `yaml:"priority"`
	MaxDependencies int    `yaml:"max_dependencies"`
}

// RustPluginConfig tunes the rust probe.
type RustPluginConfig struct {
	Enabled   bool   `yaml:"enabled"`
	TimeoutMs uint64 `yaml:"timeout_ms"`
	Priority  int    `yaml:"priority"`
}

// PythonPluginConfig tunes the python probe.
type PythonPluginConfig struct {
	Enabled         bool   `yaml:"enabled"`
	TimeoutMs       uint64 `yaml:"timeout_ms"`
	Priority        int    `yaml:"priority"`
	MaxDependencies int    `yaml:"max_dependencies"`
}

// TriggerMode selects how the shell asks for completions.
type TriggerMode string

const (
	TriggerManual TriggerMode = "manual"
	TriggerAuto   TriggerMode = "auto"
)

// TriggerConfig tunes the shell-side trigger behavior. The daemon only
// validates it; the values are consumed by the integration scripts.
type TriggerConfig struct {
	Mode              TriggerMode `yaml:"mode"`
	Hotkey            string      `yaml:"hotkey"`
	AutoDelayMs       uint64      `yaml:"auto_delay_ms"`
	ZshGhostOwner     string      `yaml:"zsh_ghost_owner"`
	ZshOverlayBackend string      `yaml:"zsh_overlay_backend"`
}

// CacheConfig tunes the suggestion cache.
type CacheConfig struct {
	Capacity    int     `yaml:"capacity"`
	PrefixBytes int     `yaml:"prefix_bytes"`
	TTLAutoMs   uint64  `yaml:"ttl_auto_ms"`
	TTLManualMs uint64  `yaml:"ttl_manual_ms"`
	TTLNegMs    uint64  `yaml:"ttl_negative_ms"`
	StaleRatio  float64 `yaml:"stale_ratio"`
}

// PrivacyConfig tunes redaction and the safety screen.
type PrivacyConfig struct {
	SanitizeEnabled bool     `yaml:"sanitize_enabled"`
	CustomPatterns  []string `yaml:"custom_patterns"`
	BlockDangerous  bool     `yaml:"block_dangerous"`
	CustomBlocked   []string `yaml:"custom_blocked"`
}

// LogConfig tunes the daemon logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	FileEnabled bool   `yaml:"file_enabled"`
}

// DiagnosisConfig tunes the error-diagnosis path.
type DiagnosisConfig struct {
	Enabled       bool   `yaml:"enabled"`
	CaptureStderr bool   `yaml:"capture_stderr"`
	AutoSuggest   bool   `yaml:"auto_suggest"`
	MaxStderrSize int    `yaml:"max_stderr_size"`
	TimeoutMs     uint64 `yaml:"timeout_ms"`
	// InteractiveCommands skip stderr capture; they need a live terminal.
	InteractiveCommands []string `yaml:"interactive_commands"`
}

// Default returns the built-in configuration, the bottom layer of Load.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Endpoint:  "http://localhost:11434/v1",
			ModelName: "codellama:7b",
			TimeoutMs: 5000,
		},
		Context: ContextConfig{
			HistoryWindow:          20,
			IncludeCwdListing:      true,
			IncludeExitCode:        true,
			IncludeSystemInfo:      true,
			SimilarCommandsEnabled: true,
			SimilarCommandsWindow:  200,
			SimilarCommandsMax:     5,
			MaxFilesInListing:      50,
			MaxTotalTokens:         4000,
			Priorities: PriorityConfig{
				History:    80,
				CwdListing: 60,
				Plugins:    40,
			},
		},
		Plugins: PluginsConfig{
			Git: GitPluginConfig{
				Enabled:     true,
				Depth:       GitStandard,
				MaxBranches: 10,
				Priority:    50,
			},
			Docker: DockerPluginConfig{
				Enabled:        true,
				TimeoutMs:      100,
				Priority:       45,
				MaxContainers:  10,
				MaxImages:      10,
				ShowContainers: true,
				IncludeCompose: true,
			},
			Node: NodePluginConfig{
				Enabled:         true,
				TimeoutMs:       100,
				Priority:        45,
				MaxDependencies: 50,
			},
			Rust: RustPluginConfig{
				Enabled:   true,
				TimeoutMs: 100,
				Priority:  45,
			},
			Python: PythonPluginConfig{
				Enabled:         true,
				TimeoutMs:       100,
				Priority:        45,
				MaxDependencies: 50,
			},
		},
		Trigger: TriggerConfig{
			Mode:              TriggerManual,
			Hotkey:            `\C-e`,
			AutoDelayMs:       500,
			ZshGhostOwner:     "auto",
			ZshOverlayBackend: "message",
		},
		Cache: CacheConfig{
			Capacity:    1024,
			PrefixBytes: 80,
			TTLAutoMs:   300_000,
			TTLManualMs: 600_000,
			TTLNegMs:    30_000,
			StaleRatio:  0.8,
		},
		Privacy: PrivacyConfig{
			SanitizeEnabled: true,
			BlockDangerous:  true,
		},
		Log: LogConfig{
			Level: "info",
		},
		Diagnosis: DiagnosisConfig{
			Enabled:       false,
			CaptureStderr: true,
			AutoSuggest:   true,
			MaxStderrSize: 4096,
			TimeoutMs:     5000,
			InteractiveCommands: []string{
				"vim", "nvim", "vi", "nano", "emacs", "code",
				"ssh", "telnet", "mosh",
				"top", "htop", "btop", "less", "more", "man",
				"fzf", "sk",
				"tmux", "screen",
				"python", "python3", "ipython", "node", "irb",
				"psql", "mysql", "sqlite3",
				"watch", "tail",
			},
		},
	}
}

// SocketPath returns the daemon IPC endpoint.
func SocketPath() string { return paths.SocketPath() }

// PIDPath returns the daemon PID file path.
func PIDPath() string { return paths.PIDPath() }

// LogDir returns the log directory, or empty when file logging is off.
func (c *Config) LogDir() string {
	if c.Log.FileEnabled {
		return paths.LogsDir()
	}
	return ""
}
