package config

import (
	"time"

	"github.com/xzmaster54088/Codemate-Android-sub002/internal/compile"
)

// SchedulerConfig tunes the task queue.
type SchedulerConfig struct {
	// MaxConcurrent is the number of simultaneous toolchain processes.
	// Zero means one per CPU.
	MaxConcurrent int `mapstructure:"max_concurrent" yaml:"max_concurrent"`
}

// BridgeConfig tunes process execution.
type BridgeConfig struct {
	TimeoutSeconds int               `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	OutputBufferKB int               `mapstructure:"output_buffer_kb" yaml:"output_buffer_kb"`
	DefaultEnv     map[string]string `mapstructure:"default_env" yaml:"default_env,omitempty"`
}

// Timeout returns the configured process timeout.
func (b BridgeConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// OutputBufferSize returns the output scanner buffer in bytes.
func (b BridgeConfig) OutputBufferSize() int {
	return b.OutputBufferKB * 1024
}

// AnalyzerConfig tunes result analysis.
type AnalyzerConfig struct {
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" yaml:"cache_ttl_seconds"`

	// Benchmarks overrides the per-language reference profiles, keyed by
	// language name ("c", "java", ...).
	Benchmarks map[string]BenchmarkConfig `mapstructure:"benchmarks" yaml:"benchmarks,omitempty"`
}

// CacheTTL returns the configured analysis cache lifetime.
func (a AnalyzerConfig) CacheTTL() time.Duration {
	return time.Duration(a.CacheTTLSeconds) * time.Second
}

// BenchmarkConfig is a per-language performance reference profile.
type BenchmarkConfig struct {
	LinesPerSecond  float64 `mapstructure:"lines_per_second" yaml:"lines_per_second"`
	MemoryPerFileKB int64   `mapstructure:"memory_per_file_kb" yaml:"memory_per_file_kb"`
}

// LoggerConfig tunes the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`             // debug, info, warn, error
	Encoding    string `mapstructure:"encoding" yaml:"encoding"`       // console or json
	Development bool   `mapstructure:"development" yaml:"development"` // caller and stacktrace verbosity
}

// WorkspaceConfig locates the project tree and artifact directory.
type WorkspaceConfig struct {
	RootDir   string `mapstructure:"root_dir" yaml:"root_dir"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
}

// ToolchainConfig overrides the compiler invocation for one language.
// Toolchains are separate from tasks -- every task of the language picks up
// the override unless it names its own command.
type ToolchainConfig struct {
	Command string            `mapstructure:"command" yaml:"command"`
	Args    []string          `mapstructure:"args" yaml:"args,omitempty"`
	Env     map[string]string `mapstructure:"env" yaml:"env,omitempty"`
}

// Config is the top-level engine configuration.
type Config struct {
	Scheduler  SchedulerConfig            `mapstructure:"scheduler" yaml:"scheduler"`
	Bridge     BridgeConfig               `mapstructure:"bridge" yaml:"bridge"`
	Analyzer   AnalyzerConfig             `mapstructure:"analyzer" yaml:"analyzer"`
	Logger     LoggerConfig               `mapstructure:"logger" yaml:"logger"`
	Workspace  WorkspaceConfig            `mapstructure:"workspace" yaml:"workspace"`
	Toolchains map[string]ToolchainConfig `mapstructure:"toolchains" yaml:"toolchains,omitempty"`
}

// Toolchain returns the override for a language, if configured.
func (c *Config) Toolchain(lang compile.Language) (ToolchainConfig, bool) {
	tc, ok := c.Toolchains[lang.String()]
	return tc, ok
}
