package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, name, doc string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name          string
		globalYAML    string
		projectYAML   string
		check         func(t *testing.T, cfg *Config)
	}{
		{
			name: "No config files - returns defaults",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Bridge.TimeoutSeconds != 300 {
					t.Errorf("timeout = %d, want default 300", cfg.Bridge.TimeoutSeconds)
				}
				if cfg.Logger.Level != "info" {
					t.Errorf("level = %q, want default info", cfg.Logger.Level)
				}
				if cfg.Workspace.OutputDir != "build" {
					t.Errorf("output dir = %q, want default build", cfg.Workspace.OutputDir)
				}
			},
		},
		{
			name: "Global only - overrides one section",
			globalYAML: "scheduler:\n  max_concurrent: 3\n",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Scheduler.MaxConcurrent != 3 {
					t.Errorf("max_concurrent = %d, want 3", cfg.Scheduler.MaxConcurrent)
				}
				// Untouched sections keep their defaults
				if cfg.Bridge.TimeoutSeconds != 300 {
					t.Errorf("timeout = %d, want default 300", cfg.Bridge.TimeoutSeconds)
				}
			},
		},
		{
			name: "Global adds toolchain - project overrides logger",
			globalYAML: "toolchains:\n  c:\n    command: clang\n    args: [-fcolor-diagnostics]\n",
			projectYAML: "logger:\n  level: debug\n",
			check: func(t *testing.T, cfg *Config) {
				tc, ok := cfg.Toolchains["c"]
				if !ok || tc.Command != "clang" {
					t.Errorf("toolchains[c] = %+v, want clang from global", tc)
				}
				if cfg.Logger.Level != "debug" {
					t.Errorf("level = %q, want debug from project", cfg.Logger.Level)
				}
			},
		},
		{
			name: "Project overrides global - project wins",
			globalYAML: "bridge:\n  timeout_seconds: 120\n",
			projectYAML: "bridge:\n  timeout_seconds: 45\n",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Bridge.TimeoutSeconds != 45 {
					t.Errorf("timeout = %d, want project value 45", cfg.Bridge.TimeoutSeconds)
				}
			},
		},
		{
			name: "Benchmark overrides merge per language",
			globalYAML: "analyzer:\n  benchmarks:\n    c:\n      lines_per_second: 8000\n      memory_per_file_kb: 40960\n",
			check: func(t *testing.T, cfg *Config) {
				b, ok := cfg.Analyzer.Benchmarks["c"]
				if !ok || b.LinesPerSecond != 8000 {
					t.Errorf("benchmarks[c] = %+v, want lines_per_second 8000", b)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()

			globalPath := ""
			if tt.globalYAML != "" {
				globalPath = writeConfig(t, tmpDir, "global.yaml", tt.globalYAML)
			}
			projectPath := ""
			if tt.projectYAML != "" {
				projectPath = writeConfig(t, tmpDir, "project.yaml", tt.projectYAML)
			}

			cfg, err := Load(globalPath, projectPath)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoadMissingFilesAreNotErrors(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(
		filepath.Join(tmpDir, "absent-global.yaml"),
		filepath.Join(tmpDir, "absent-project.yaml"),
	)
	if err != nil {
		t.Fatalf("Load with missing files failed: %v", err)
	}
	if cfg.Bridge.TimeoutSeconds != DefaultConfig().Bridge.TimeoutSeconds {
		t.Error("missing files should leave the defaults intact")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeConfig(t, tmpDir, "bad.yaml", "scheduler: [not: {a map")

	if _, err := Load(path, ""); err == nil {
		t.Fatal("expected error for malformed YAML, got nil")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CODEMATE_MAX_CONCURRENT", "7")
	t.Setenv("CODEMATE_LOG_LEVEL", "warn")

	tmpDir := t.TempDir()
	projectPath := writeConfig(t, tmpDir, "project.yaml",
		"scheduler:\n  max_concurrent: 2\nlogger:\n  level: debug\n")

	cfg, err := Load("", projectPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Environment beats the project file
	if cfg.Scheduler.MaxConcurrent != 7 {
		t.Errorf("max_concurrent = %d, want env value 7", cfg.Scheduler.MaxConcurrent)
	}
	if cfg.Logger.Level != "warn" {
		t.Errorf("level = %q, want env value warn", cfg.Logger.Level)
	}
}

func TestDefaultGlobalPath(t *testing.T) {
	path, err := DefaultGlobalPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join(".codemate", "config.yaml")) {
		t.Errorf("path = %q, want .codemate/config.yaml under home", path)
	}
}

func TestBridgeConfigAccessors(t *testing.T) {
	b := BridgeConfig{TimeoutSeconds: 90, OutputBufferKB: 128}

	if got := b.Timeout().Seconds(); got != 90 {
		t.Errorf("Timeout() = %vs, want 90s", got)
	}
	if got := b.OutputBufferSize(); got != 128*1024 {
		t.Errorf("OutputBufferSize() = %d, want %d", got, 128*1024)
	}
}
