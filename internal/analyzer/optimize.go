package analyzer

import (
	"sort"

	"github.com/xzmaster54088/Codemate-Android-sub002/internal/compile"
)

// SuggestionType classifies an optimization suggestion.
type SuggestionType int

const (
	SuggestPerformance SuggestionType = iota
	SuggestMemory
	SuggestQuality
	SuggestGeneral
)

// String returns the uppercase type name.
func (s SuggestionType) String() string {
	switch s {
	case SuggestPerformance:
		return "PERFORMANCE"
	case SuggestMemory:
		return "MEMORY"
	case SuggestQuality:
		return "QUALITY"
	case SuggestGeneral:
		return "GENERAL"
	}
	return "UNKNOWN"
}

// OptimizationSuggestion is one actionable recommendation derived from a
// result.
type OptimizationSuggestion struct {
	Type     SuggestionType
	Priority Level
	Impact   Level
	Effort   Level
	Title    string
	Detail   string
}

// suggestOptimizations derives recommendations from the observed metrics,
// ordered highest priority first.
func (a *Analyzer) suggestOptimizations(res *compile.Result, lang compile.Language, perf PerformanceAnalysis) []OptimizationSuggestion {
	bench := a.benchmarks[lang]
	m := res.Metrics
	var out []OptimizationSuggestion

	if m.LinesProcessed > 0 && bench.LinesPerSecond > 0 && m.CompilationSpeed < 0.5*bench.LinesPerSecond {
		out = append(out, OptimizationSuggestion{
			Type:     SuggestPerformance,
			Priority: LevelHigh,
			Impact:   LevelHigh,
			Effort:   LevelMedium,
			Title:    "Speed up compilation",
			Detail:   "Split the source set so independent units compile in parallel, and prune unused includes/imports from the slowest files.",
		})
	}

	if m.FilesProcessed > 0 && bench.MemoryPerFileKB > 0 {
		budget := bench.MemoryPerFileKB * int64(m.FilesProcessed)
		if res.PeakMemoryKB > 2*budget {
			out = append(out, OptimizationSuggestion{
				Type:     SuggestMemory,
				Priority: LevelMedium,
				Impact:   LevelMedium,
				Effort:   LevelHigh,
				Title:    "Reduce peak memory",
				Detail:   "Peak memory exceeded twice the per-file budget. Break up large translation units and avoid heavy compile-time constructs.",
			})
		}
	}

	if m.LinesProcessed > 0 {
		errorRate := float64(res.ErrorCount()) / float64(m.LinesProcessed)
		if errorRate > 0.1 {
			out = append(out, OptimizationSuggestion{
				Type:     SuggestQuality,
				Priority: LevelHigh,
				Impact:   LevelHigh,
				Effort:   LevelLow,
				Title:    "Fix errors before optimizing",
				Detail:   "More than one error per ten lines of output. Resolve syntax and type errors first; later diagnostics are often cascades.",
			})
		}
	}

	if len(out) == 0 && !res.Success {
		out = append(out, OptimizationSuggestion{
			Type:     SuggestGeneral,
			Priority: LevelLow,
			Impact:   LevelMedium,
			Effort:   LevelLow,
			Title:    "Review the diagnostics",
			Detail:   "The compile failed without tripping any metric threshold. Walk the reported errors top to bottom.",
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}
