package config

// DefaultConfig returns the built-in configuration. Every layer merges on
// top of these values.
func DefaultConfig() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			MaxConcurrent: 0, // one per CPU
		},
		Bridge: BridgeConfig{
			TimeoutSeconds: 300,
			OutputBufferKB: 64,
		},
		Analyzer: AnalyzerConfig{
			CacheTTLSeconds: 300,
		},
		Logger: LoggerConfig{
			Level:    "info",
			Encoding: "console",
		},
		Workspace: WorkspaceConfig{
			RootDir:   ".",
			OutputDir: "build",
		},
		Toolchains: map[string]ToolchainConfig{},
	}
}
