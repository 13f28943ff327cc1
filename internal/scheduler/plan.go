package scheduler

import (
	"fmt"
	"os"

	"github.com/gammazero/toposort"
	"gopkg.in/yaml.v3"

	"github.com/xzmaster54088/Codemate-Android-sub002/internal/compile"
)

// PlanUnit is one named build in a plan file. Dependencies reference other
// units by name.
type PlanUnit struct {
	Name             string            `yaml:"name"`
	Sources          []string          `yaml:"sources"`
	Language         string            `yaml:"language,omitempty"` // Empty detects from the first source
	Command          string            `yaml:"command,omitempty"`
	Args             []string          `yaml:"args,omitempty"`
	IncludePaths     []string          `yaml:"include_paths,omitempty"`
	LibraryPaths     []string          `yaml:"library_paths,omitempty"`
	Defines          map[string]string `yaml:"defines,omitempty"`
	Optimization     string            `yaml:"optimization,omitempty"`
	DebugSymbols     bool              `yaml:"debug_symbols,omitempty"`
	SuppressWarnings bool              `yaml:"suppress_warnings,omitempty"`
	WarningsAsErrors bool              `yaml:"warnings_as_errors,omitempty"`
	Output           string            `yaml:"output,omitempty"`
	Priority         string            `yaml:"priority,omitempty"`
	DependsOn        []string          `yaml:"depends_on,omitempty"`
	Env              map[string]string `yaml:"env,omitempty"`
	WorkDir          string            `yaml:"workdir,omitempty"`
}

// Plan is a named task graph loaded from a YAML build plan.
type Plan struct {
	Name        string     `yaml:"name,omitempty"`
	ProjectRoot string     `yaml:"project_root,omitempty"`
	Units       []PlanUnit `yaml:"units"`
}

// LoadPlan reads and parses a YAML build plan.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan %s: %w", path, err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing plan %s: %w", path, err)
	}
	return &p, nil
}

// Validate checks unit names, dependency references and acyclicity, and
// returns unit names in dependency-first order. A plan that fails here has
// enqueued nothing.
func (p *Plan) Validate() ([]string, error) {
	if len(p.Units) == 0 {
		return nil, fmt.Errorf("plan has no units")
	}

	seen := make(map[string]bool, len(p.Units))
	for _, u := range p.Units {
		if u.Name == "" {
			return nil, fmt.Errorf("plan unit without a name")
		}
		if seen[u.Name] {
			return nil, fmt.Errorf("duplicate plan unit %q", u.Name)
		}
		if len(u.Sources) == 0 {
			return nil, fmt.Errorf("plan unit %q has no sources", u.Name)
		}
		seen[u.Name] = true
	}
	for _, u := range p.Units {
		for _, dep := range u.DependsOn {
			if !seen[dep] {
				return nil, fmt.Errorf("plan unit %q depends on unknown unit %q", u.Name, dep)
			}
		}
	}

	var edges []toposort.Edge
	for _, u := range p.Units {
		if len(u.DependsOn) == 0 {
			// Edge from nil keeps independent units in the sort
			edges = append(edges, toposort.Edge{nil, u.Name})
			continue
		}
		for _, dep := range u.DependsOn {
			// Edge (dep, unit) means dep builds first
			edges = append(edges, toposort.Edge{dep, u.Name})
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCyclicPlan, err)
	}

	order := make([]string, 0, len(sorted))
	for _, name := range sorted {
		if name != nil {
			order = append(order, name.(string))
		}
	}
	return order, nil
}

// buildTask converts the unit into a task. ids maps already-converted unit
// names to their task ids.
func (u *PlanUnit) buildTask(projectRoot string, ids map[string]string) (*compile.Task, error) {
	var lang compile.Language
	if u.Language != "" {
		l, ok := compile.ParseLanguage(u.Language)
		if !ok {
			return nil, fmt.Errorf("unknown language %q", u.Language)
		}
		lang = l
	} else {
		l, ok := compile.LanguageForFile(u.Sources[0])
		if !ok {
			return nil, fmt.Errorf("cannot detect language of %q", u.Sources[0])
		}
		lang = l
	}

	opt, ok := compile.ParseOptimization(u.Optimization)
	if !ok {
		return nil, fmt.Errorf("unknown optimization level %q", u.Optimization)
	}
	prio, ok := compile.ParsePriority(u.Priority)
	if !ok {
		return nil, fmt.Errorf("unknown priority %q", u.Priority)
	}

	task := compile.NewTask(projectRoot, u.Sources, lang)
	task.Name = u.Name
	task.Priority = prio
	task.WorkDir = u.WorkDir
	task.Config = compile.CompilerConfig{
		Command:          u.Command,
		Args:             append([]string(nil), u.Args...),
		IncludePaths:     append([]string(nil), u.IncludePaths...),
		LibraryPaths:     append([]string(nil), u.LibraryPaths...),
		Optimization:     opt,
		DebugSymbols:     u.DebugSymbols,
		SuppressWarnings: u.SuppressWarnings,
		WarningsAsErrors: u.WarningsAsErrors,
		OutputPath:       u.Output,
	}
	if len(u.Defines) > 0 {
		task.Config.Defines = make(map[string]string, len(u.Defines))
		for k, v := range u.Defines {
			task.Config.Defines[k] = v
		}
	}
	if len(u.Env) > 0 {
		task.Env = make(map[string]string, len(u.Env))
		for k, v := range u.Env {
			task.Env[k] = v
		}
	}
	for _, dep := range u.DependsOn {
		task.DependsOn = append(task.DependsOn, ids[dep])
	}
	return task, nil
}

// unitByName indexes the plan's units.
func (p *Plan) unitByName() map[string]PlanUnit {
	m := make(map[string]PlanUnit, len(p.Units))
	for _, u := range p.Units {
		m[u.Name] = u
	}
	return m
}
