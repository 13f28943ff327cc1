// Package workspace handles the filesystem side of compilation: resolving
// working directories, loading sources for analysis, preparing artifact
// directories and sizing or cleaning what a compile produced.
package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xzmaster54088/Codemate-Android-sub002/internal/compile"
)

// Config configures a workspace Manager.
type Config struct {
	RootDir   string // Base for relative task working directories (default ".")
	OutputDir string // Artifact directory name under a working directory (default "build")
}

// Manager resolves task paths against a workspace root.
type Manager struct {
	config Config
}

// NewManager creates a workspace manager.
func NewManager(cfg Config) *Manager {
	if cfg.RootDir == "" {
		cfg.RootDir = "."
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "build"
	}
	return &Manager{config: cfg}
}

// Resolve returns the absolute form of a task working directory. Relative
// paths are resolved against the workspace root.
func (m *Manager) Resolve(dir string) string {
	if dir == "" {
		dir = m.config.RootDir
	} else if !filepath.IsAbs(dir) {
		dir = filepath.Join(m.config.RootDir, dir)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}

// DefaultOutputPath returns the artifact path used when a task names none.
func (m *Manager) DefaultOutputPath(workDir, name string) string {
	return filepath.Join(m.Resolve(workDir), m.config.OutputDir, name)
}

// PrepareOutput ensures the directory holding an artifact path exists.
func (m *Manager) PrepareOutput(outputPath string) error {
	dir := filepath.Dir(outputPath)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to prepare output directory %s: %w", dir, err)
	}
	return nil
}

// ReadSources loads each source file's content, keyed by the path as given.
// Relative paths are read against workDir. Unreadable files are skipped so
// analysis stays best-effort.
func (m *Manager) ReadSources(workDir string, files []string) map[string]string {
	base := m.Resolve(workDir)
	sources := make(map[string]string, len(files))
	for _, f := range files {
		path := f
		if !filepath.IsAbs(path) {
			path = filepath.Join(base, f)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		sources[f] = string(data)
	}
	return sources
}

// DiscoverSources walks dir collecting files with the language's extensions.
// Hidden directories and the artifact directory are skipped.
func (m *Manager) DiscoverSources(dir string, lang compile.Language) ([]string, error) {
	root := m.Resolve(dir)
	exts := make(map[string]bool)
	for _, e := range lang.Extensions() {
		exts[e] = true
	}

	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || name == m.config.OutputDir) {
				return filepath.SkipDir
			}
			return nil
		}
		if exts[strings.ToLower(filepath.Ext(path))] {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			found = append(found, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover sources under %s: %w", root, err)
	}
	return found, nil
}

// CountLines returns the number of lines in content. A trailing newline does
// not start an extra line.
func CountLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}

// TotalLines sums CountLines over every source.
func TotalLines(sources map[string]string) int {
	total := 0
	for _, content := range sources {
		total += CountLines(content)
	}
	return total
}

// ArtifactSizes sums the on-disk sizes of the given paths. Missing files
// contribute zero.
func ArtifactSizes(paths []string) int64 {
	var total int64
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			total += info.Size()
		}
	}
	return total
}

// CleanArtifacts removes the given artifact files, collecting failures
// rather than stopping at the first.
func (m *Manager) CleanArtifacts(paths []string) error {
	var errors []string
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("remove %s: %v", p, err))
		}
	}
	if len(errors) > 0 {
		return fmt.Errorf("cleanup errors: %s", strings.Join(errors, "; "))
	}
	return nil
}
