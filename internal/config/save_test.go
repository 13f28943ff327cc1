package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestSaveCreatesFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Toolchains["c"] = ToolchainConfig{Command: "clang"}

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("Config file was not created: %s", path)
	}

	// Verify file contains valid YAML
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}
	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Config file contains invalid YAML: %v", err)
	}

	if loaded.Toolchains["c"].Command != "clang" {
		t.Errorf("Expected toolchain command 'clang', got '%s'", loaded.Toolchains["c"].Command)
	}
}

func TestSaveCreatesParentDir(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "deep", "config.yaml")

	if err := Save(DefaultConfig(), path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("Config file was not created: %s", path)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Scheduler.MaxConcurrent = 6
	cfg.Bridge.TimeoutSeconds = 120
	cfg.Bridge.DefaultEnv = map[string]string{"CCACHE_DIR": "/tmp/ccache"}
	cfg.Logger.Level = "debug"
	cfg.Logger.Encoding = "json"
	cfg.Toolchains["kotlin"] = ToolchainConfig{
		Command: "kotlinc-native",
		Args:    []string{"-opt"},
		Env:     map[string]string{"KONAN_DATA_DIR": "/opt/konan"},
	}
	cfg.Analyzer.Benchmarks = map[string]BenchmarkConfig{
		"c": {LinesPerSecond: 9000, MemoryPerFileKB: 30720},
	}

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Scheduler.MaxConcurrent != 6 {
		t.Errorf("max_concurrent = %d, want 6", loaded.Scheduler.MaxConcurrent)
	}
	if loaded.Bridge.TimeoutSeconds != 120 {
		t.Errorf("timeout = %d, want 120", loaded.Bridge.TimeoutSeconds)
	}
	if loaded.Bridge.DefaultEnv["CCACHE_DIR"] != "/tmp/ccache" {
		t.Errorf("default env = %v", loaded.Bridge.DefaultEnv)
	}
	if loaded.Logger.Encoding != "json" {
		t.Errorf("encoding = %q, want json", loaded.Logger.Encoding)
	}

	tc := loaded.Toolchains["kotlin"]
	if tc.Command != "kotlinc-native" || len(tc.Args) != 1 || tc.Env["KONAN_DATA_DIR"] != "/opt/konan" {
		t.Errorf("toolchains[kotlin] = %+v", tc)
	}

	b := loaded.Analyzer.Benchmarks["c"]
	if b.LinesPerSecond != 9000 || b.MemoryPerFileKB != 30720 {
		t.Errorf("benchmarks[c] = %+v", b)
	}
}

func TestSaveOverwritesExisting(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	first := DefaultConfig()
	first.Logger.Level = "debug"
	if err := Save(first, path); err != nil {
		t.Fatalf("First save failed: %v", err)
	}

	second := DefaultConfig()
	second.Logger.Level = "error"
	if err := Save(second, path); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	loaded, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Logger.Level != "error" {
		t.Errorf("Expected 'error', got '%s'", loaded.Logger.Level)
	}
}
