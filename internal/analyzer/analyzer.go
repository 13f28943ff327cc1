// Package analyzer derives performance, dependency, quality and resource
// analyses from finished compile results. Analysis is best-effort by
// contract: any internal failure degrades to a single-issue result and never
// affects the owning task's outcome.
package analyzer

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xzmaster54088/Codemate-Android-sub002/internal/compile"
)

// DefaultCacheTTL is how long a computed analysis stays valid for the same
// (task, execution time) pair.
const DefaultCacheTTL = 5 * time.Minute

// Level is a coarse three-step tier used for suggestion priority, impact,
// effort and battery drain.
type Level int

const (
	LevelLow Level = iota
	LevelMedium
	LevelHigh
)

// String returns the uppercase tier name.
func (l Level) String() string {
	switch l {
	case LevelLow:
		return "LOW"
	case LevelMedium:
		return "MEDIUM"
	case LevelHigh:
		return "HIGH"
	}
	return "UNKNOWN"
}

// IssueKind classifies an analysis issue by origin.
type IssueKind int

const (
	IssueCompiler    IssueKind = iota // extracted compiler diagnostic
	IssuePerformance                  // derived from bottleneck detection
	IssueAnalysis                     // the analyzer itself failed
)

// String returns the uppercase kind name.
func (k IssueKind) String() string {
	switch k {
	case IssueCompiler:
		return "COMPILER"
	case IssuePerformance:
		return "PERFORMANCE"
	case IssueAnalysis:
		return "ANALYSIS_ERROR"
	}
	return "UNKNOWN"
}

// CodeIssue is one problem surfaced by analysis.
type CodeIssue struct {
	Kind     IssueKind
	Severity compile.Severity
	File     string
	Line     int
	Message  string
}

// Analysis is the full outcome of analyzing one compile result.
type Analysis struct {
	TaskID       string
	Performance  PerformanceAnalysis
	Dependencies DependencyAnalysis
	Quality      QualityAnalysis
	Resources    ResourceUsage
	Suggestions  []OptimizationSuggestion
	Issues       []CodeIssue
	Degraded     bool // True when analysis itself failed partway
	GeneratedAt  time.Time
}

type cacheKey struct {
	taskID        string
	executionTime time.Duration
}

type cacheEntry struct {
	analysis *Analysis
	storedAt time.Time
}

// Analyzer computes analyses with a TTL cache over (task id, execution time).
// Safe for concurrent use.
type Analyzer struct {
	benchmarks map[compile.Language]Benchmark
	ttl        time.Duration
	log        *zap.Logger

	mu    sync.RWMutex
	cache map[cacheKey]cacheEntry
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithCacheTTL overrides the analysis cache lifetime.
func WithCacheTTL(ttl time.Duration) Option {
	return func(a *Analyzer) { a.ttl = ttl }
}

// WithBenchmark overrides the reference profile for one language.
func WithBenchmark(lang compile.Language, b Benchmark) Option {
	return func(a *Analyzer) { a.benchmarks[lang] = b }
}

// New creates an Analyzer with the builtin benchmark table.
func New(log *zap.Logger, opts ...Option) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Analyzer{
		benchmarks: make(map[compile.Language]Benchmark, len(defaultBenchmarks)),
		ttl:        DefaultCacheTTL,
		log:        log,
		cache:      make(map[cacheKey]cacheEntry),
	}
	for lang, b := range defaultBenchmarks {
		a.benchmarks[lang] = b
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze computes (or returns the cached) analysis for a finished result.
// sources maps file path to file content for dependency extraction; it may be
// nil when sources are unavailable. Analyze never fails: a panic during any
// sub-analysis degrades the result to a single analysis-error issue.
func (a *Analyzer) Analyze(res *compile.Result, task *compile.Task, sources map[string]string) *Analysis {
	key := cacheKey{taskID: res.TaskID, executionTime: res.ExecutionTime}

	a.mu.RLock()
	entry, ok := a.cache[key]
	a.mu.RUnlock()
	if ok && time.Since(entry.storedAt) < a.ttl {
		return entry.analysis
	}

	analysis := a.compute(res, task, sources)

	a.mu.Lock()
	a.cache[key] = cacheEntry{analysis: analysis, storedAt: time.Now()}
	a.mu.Unlock()

	return analysis
}

func (a *Analyzer) compute(res *compile.Result, task *compile.Task, sources map[string]string) (analysis *Analysis) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("analysis failed",
				zap.String("task_id", res.TaskID),
				zap.Any("panic", r))
			analysis = degradedAnalysis(res.TaskID, r)
		}
	}()

	analysis = &Analysis{
		TaskID:      res.TaskID,
		GeneratedAt: time.Now(),
	}

	analysis.Dependencies = a.AnalyzeDependencies(task.Language, sources)
	analysis.Performance = a.analyzePerformance(res, task.Language, analysis.Dependencies)
	analysis.Quality = analyzeQuality(res)
	analysis.Resources = analyzeResources(res)
	analysis.Suggestions = a.suggestOptimizations(res, task.Language, analysis.Performance)
	analysis.Issues = collectIssues(res, analysis.Performance)

	a.log.Debug("analysis complete",
		zap.String("task_id", res.TaskID),
		zap.Float64("quality_score", analysis.Quality.Score),
		zap.Int("cycles", len(analysis.Dependencies.Cycles)))

	return analysis
}

// degradedAnalysis is the recovery value when a sub-analysis panics.
func degradedAnalysis(taskID string, cause interface{}) *Analysis {
	return &Analysis{
		TaskID:   taskID,
		Degraded: true,
		Issues: []CodeIssue{{
			Kind:     IssueAnalysis,
			Severity: compile.SeverityError,
			Message:  fmt.Sprintf("analysis failed: %v", cause),
		}},
		GeneratedAt: time.Now(),
	}
}

// collectIssues maps compiler diagnostics onto issues and appends derived
// performance issues for flagged bottlenecks.
func collectIssues(res *compile.Result, perf PerformanceAnalysis) []CodeIssue {
	issues := make([]CodeIssue, 0, len(res.Diagnostics)+len(perf.Bottlenecks))
	for _, d := range res.Diagnostics {
		issues = append(issues, CodeIssue{
			Kind:     IssueCompiler,
			Severity: d.Severity,
			File:     d.File,
			Line:     d.Line,
			Message:  d.Message,
		})
	}
	for _, b := range perf.Bottlenecks {
		issues = append(issues, CodeIssue{
			Kind:     IssuePerformance,
			Severity: compile.SeverityWarning,
			Message:  b,
		})
	}
	return issues
}

// Evict drops every cached analysis for a task.
func (a *Analyzer) Evict(taskID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for key := range a.cache {
		if key.taskID == taskID {
			delete(a.cache, key)
		}
	}
}

// CachedTaskIDs returns the task ids with at least one live cache entry,
// sorted. Used by status displays.
func (a *Analyzer) CachedTaskIDs() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	seen := make(map[string]bool)
	for key, entry := range a.cache {
		if time.Since(entry.storedAt) < a.ttl {
			seen[key.taskID] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
