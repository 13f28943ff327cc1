package compile

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a compile task.
type TaskStatus int

const (
	StatusPending   TaskStatus = iota // Queued, waiting for dependencies and capacity
	StatusRunning                     // Toolchain process executing or result being assembled
	StatusSuccess                     // Finished, compile succeeded
	StatusFailed                      // Finished, compile failed or dependency blocked
	StatusCancelled                   // Cancelled before or during execution
)

// String returns the uppercase status name used in events and logs.
func (s TaskStatus) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusRunning:
		return "RUNNING"
	case StatusSuccess:
		return "SUCCESS"
	case StatusFailed:
		return "FAILED"
	case StatusCancelled:
		return "CANCELLED"
	}
	return "UNKNOWN"
}

// IsTerminal reports whether no further transitions can occur.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCancelled
}

// ValidTransitions is the full status machine. Pending tasks may fail or
// cancel without running (dependency short-circuit, queue cancellation);
// running tasks reach exactly one terminal state.
var ValidTransitions = map[TaskStatus][]TaskStatus{
	StatusPending:   {StatusRunning, StatusFailed, StatusCancelled},
	StatusRunning:   {StatusSuccess, StatusFailed, StatusCancelled},
	StatusSuccess:   {},
	StatusFailed:    {},
	StatusCancelled: {},
}

// CanTransition reports whether moving from one status to another is valid.
func CanTransition(from, to TaskStatus) bool {
	for _, next := range ValidTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Priority orders tasks in the pending queue. Higher runs first; ties are
// broken by submission order.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// String returns the uppercase priority name.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "LOW"
	case PriorityNormal:
		return "NORMAL"
	case PriorityHigh:
		return "HIGH"
	case PriorityCritical:
		return "CRITICAL"
	}
	return "UNKNOWN"
}

// ParsePriority resolves a priority name as found in flags or plan files.
func ParsePriority(s string) (Priority, bool) {
	switch {
	case strings.EqualFold(s, "low"):
		return PriorityLow, true
	case strings.EqualFold(s, "normal") || s == "":
		return PriorityNormal, true
	case strings.EqualFold(s, "high"):
		return PriorityHigh, true
	case strings.EqualFold(s, "critical"):
		return PriorityCritical, true
	}
	return 0, false
}

// OptimizationLevel selects the toolchain optimization flag.
type OptimizationLevel int

const (
	OptimizationNone OptimizationLevel = iota
	OptimizationBasic
	OptimizationStandard
	OptimizationAggressive
)

// Flag returns the GCC-style optimization flag for the level.
func (o OptimizationLevel) Flag() string {
	switch o {
	case OptimizationBasic:
		return "-O1"
	case OptimizationStandard:
		return "-O2"
	case OptimizationAggressive:
		return "-O3"
	}
	return "-O0"
}

// String returns the uppercase level name.
func (o OptimizationLevel) String() string {
	switch o {
	case OptimizationNone:
		return "NONE"
	case OptimizationBasic:
		return "BASIC"
	case OptimizationStandard:
		return "STANDARD"
	case OptimizationAggressive:
		return "AGGRESSIVE"
	}
	return "UNKNOWN"
}

// ParseOptimization resolves a level from a name or a bare GCC flag digit.
func ParseOptimization(s string) (OptimizationLevel, bool) {
	switch {
	case strings.EqualFold(s, "none") || s == "0":
		return OptimizationNone, true
	case strings.EqualFold(s, "basic") || s == "1":
		return OptimizationBasic, true
	case strings.EqualFold(s, "standard") || s == "2" || s == "":
		return OptimizationStandard, true
	case strings.EqualFold(s, "aggressive") || s == "3":
		return OptimizationAggressive, true
	}
	return 0, false
}

// CompilerConfig describes how the toolchain is invoked for a task.
type CompilerConfig struct {
	Command          string            // Toolchain command; empty selects the language default
	Args             []string          // Extra arguments appended before the source list
	IncludePaths     []string          // -I entries
	LibraryPaths     []string          // -L entries
	Defines          map[string]string // -D key=value entries; empty value emits bare -D key
	Optimization     OptimizationLevel
	DebugSymbols     bool   // -g
	SuppressWarnings bool   // -w
	WarningsAsErrors bool   // -Werror
	OutputPath       string // -o target; empty lets the toolchain decide
}

// Task is one request to invoke an external toolchain over a source set.
// The descriptive fields are set by the caller and never change after
// submission; the execution-state fields are written by the scheduler as the
// task moves through its lifecycle.
type Task struct {
	ID          string
	Name        string // Optional human-readable label
	ProjectRoot string
	Sources     []string
	Language    Language
	Config      CompilerConfig
	Priority    Priority
	DependsOn   []string // Task IDs that must reach SUCCESS first
	Env         map[string]string
	WorkDir     string // Process working directory; empty means ProjectRoot
	CreatedAt   time.Time

	// Execution state, owned by the scheduler.
	Status     TaskStatus
	StartedAt  time.Time
	FinishedAt time.Time
	Stdout     string
	Stderr     string
	ExitCode   int
}

// NewTask creates a pending task with a generated ID.
func NewTask(projectRoot string, sources []string, lang Language) *Task {
	return &Task{
		ID:          uuid.NewString(),
		ProjectRoot: projectRoot,
		Sources:     append([]string(nil), sources...),
		Language:    lang,
		Priority:    PriorityNormal,
		CreatedAt:   time.Now(),
		Status:      StatusPending,
	}
}

// Clone returns a deep copy so callers never observe concurrent mutation.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}

	cp := *t
	if t.Sources != nil {
		cp.Sources = append([]string(nil), t.Sources...)
	}
	if t.DependsOn != nil {
		cp.DependsOn = append([]string(nil), t.DependsOn...)
	}
	if t.Env != nil {
		cp.Env = make(map[string]string, len(t.Env))
		for k, v := range t.Env {
			cp.Env[k] = v
		}
	}
	cp.Config = t.Config.clone()
	return &cp
}

// EffectiveWorkDir returns the directory the toolchain process runs in.
func (t *Task) EffectiveWorkDir() string {
	if t.WorkDir != "" {
		return t.WorkDir
	}
	return t.ProjectRoot
}

// EffectiveCommand returns the toolchain command for the task.
func (t *Task) EffectiveCommand() string {
	if t.Config.Command != "" {
		return t.Config.Command
	}
	return t.Language.DefaultCommand()
}

func (c CompilerConfig) clone() CompilerConfig {
	cp := c
	if c.Args != nil {
		cp.Args = append([]string(nil), c.Args...)
	}
	if c.IncludePaths != nil {
		cp.IncludePaths = append([]string(nil), c.IncludePaths...)
	}
	if c.LibraryPaths != nil {
		cp.LibraryPaths = append([]string(nil), c.LibraryPaths...)
	}
	if c.Defines != nil {
		cp.Defines = make(map[string]string, len(c.Defines))
		for k, v := range c.Defines {
			cp.Defines[k] = v
		}
	}
	return cp
}
