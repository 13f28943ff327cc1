package compile

import (
	"strings"
	"time"
)

// Severity ranks a diagnostic. Fatal is reserved for failures that prevented
// compilation entirely (toolchain missing, timeout, blocked dependency);
// free-text "fatal" tokens from compiler output normalize to Error.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

// String returns the uppercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	case SeverityFatal:
		return "FATAL"
	}
	return "UNKNOWN"
}

// NormalizeSeverity maps a free-text severity token from compiler output.
// Unrecognized tokens are treated as errors so problems are never downgraded.
func NormalizeSeverity(token string) Severity {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "warning", "warn":
		return SeverityWarning
	case "info", "note":
		return SeverityInfo
	case "error", "fatal", "fatal error":
		return SeverityError
	}
	return SeverityError
}

// Suggestion is a candidate fix attached to a diagnostic.
type Suggestion struct {
	Title       string
	Description string
	Fix         string  // Literal replacement text when known, else empty
	Confidence  float64 // In [0,1]; curated code-table fixes are >= 0.8
}

// CompileError is one structured diagnostic extracted from compiler output.
type CompileError struct {
	File        string
	Line        int
	Column      int
	Message     string
	Severity    Severity
	Code        string // Language-specific code (E0308, TS2304, ...) when present
	Suggestions []Suggestion
}

// DependencyEdge is a directed edge from a source file to something it imports.
type DependencyEdge struct {
	From string
	To   string
}

// DependencyGraph is the import graph extracted from a task's sources.
type DependencyGraph struct {
	Nodes []string
	Edges []DependencyEdge
}

// PerformanceMetrics summarizes the throughput of one compilation.
type PerformanceMetrics struct {
	CompilationTime  time.Duration
	FilesProcessed   int
	LinesProcessed   int
	ModulesCount     int     // Distinct graph nodes something else imports
	CompilationSpeed float64 // Lines per second
	CacheHitRatio    float64 // 0 when no cache layer is present
}

// Result is the immutable outcome of one finished task.
type Result struct {
	TaskID        string
	Success       bool
	Artifacts     []string
	Diagnostics   []CompileError
	ExecutionTime time.Duration
	PeakMemoryKB  int64
	Metrics       PerformanceMetrics
	Graph         DependencyGraph
	CreatedAt     time.Time
}

// ErrorCount returns the number of diagnostics at Error severity or above.
func (r *Result) ErrorCount() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity >= SeverityError {
			n++
		}
	}
	return n
}

// WarningCount returns the number of Warning diagnostics.
func (r *Result) WarningCount() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityWarning {
			n++
		}
	}
	return n
}
