package analyzer

import (
	"fmt"

	"github.com/xzmaster54088/Codemate-Android-sub002/internal/compile"
)

// Benchmark is the per-language reference profile results are scored against.
type Benchmark struct {
	LinesPerSecond  float64
	MemoryPerFileKB int64
}

// defaultBenchmarks holds the builtin reference profiles. Config can override
// any entry per language.
var defaultBenchmarks = map[compile.Language]Benchmark{
	compile.LangC:          {LinesPerSecond: 5000, MemoryPerFileKB: 51200},
	compile.LangCPP:        {LinesPerSecond: 3000, MemoryPerFileKB: 102400},
	compile.LangJava:       {LinesPerSecond: 4000, MemoryPerFileKB: 76800},
	compile.LangKotlin:     {LinesPerSecond: 2000, MemoryPerFileKB: 102400},
	compile.LangPython:     {LinesPerSecond: 20000, MemoryPerFileKB: 20480},
	compile.LangJavaScript: {LinesPerSecond: 15000, MemoryPerFileKB: 30720},
	compile.LangGo:         {LinesPerSecond: 10000, MemoryPerFileKB: 40960},
	compile.LangRust:       {LinesPerSecond: 2500, MemoryPerFileKB: 122880},
}

// EfficiencyTier buckets the final performance score.
type EfficiencyTier int

const (
	EfficiencyExcellent EfficiencyTier = iota
	EfficiencyGood
	EfficiencyFair
	EfficiencyPoor
)

// String returns the uppercase tier name.
func (e EfficiencyTier) String() string {
	switch e {
	case EfficiencyExcellent:
		return "EXCELLENT"
	case EfficiencyGood:
		return "GOOD"
	case EfficiencyFair:
		return "FAIR"
	case EfficiencyPoor:
		return "POOR"
	}
	return "UNKNOWN"
}

func efficiencyFor(score float64) EfficiencyTier {
	switch {
	case score >= 85:
		return EfficiencyExcellent
	case score >= 70:
		return EfficiencyGood
	case score >= 50:
		return EfficiencyFair
	}
	return EfficiencyPoor
}

// PerformanceAnalysis scores one compile against the language benchmark.
type PerformanceAnalysis struct {
	Score          float64 // 0..100
	SpeedRatio     float64 // observed lines/s over benchmark lines/s
	FilesPerSecond float64
	ModuleRatio    float64 // modules over files, healthiest in 0.3..0.7
	Efficiency     EfficiencyTier
	Bottlenecks    []string
}

// analyzePerformance compares observed metrics to the language benchmark.
// Score starts at 100 and loses points for low speed ratio, low file
// throughput, and a module-to-file ratio outside the healthy band.
func (a *Analyzer) analyzePerformance(res *compile.Result, lang compile.Language, deps DependencyAnalysis) PerformanceAnalysis {
	bench := a.benchmarks[lang]
	m := res.Metrics
	perf := PerformanceAnalysis{Score: 100}

	if bench.LinesPerSecond > 0 {
		perf.SpeedRatio = m.CompilationSpeed / bench.LinesPerSecond
	}
	if secs := res.ExecutionTime.Seconds(); secs > 0 {
		perf.FilesPerSecond = float64(m.FilesProcessed) / secs
	}
	if m.FilesProcessed > 0 {
		perf.ModuleRatio = float64(deps.ModulesCount) / float64(m.FilesProcessed)
	}

	if m.LinesProcessed > 0 {
		switch {
		case perf.SpeedRatio >= 1.0:
		case perf.SpeedRatio >= 0.8:
			perf.Score -= 5
		case perf.SpeedRatio >= 0.5:
			perf.Score -= 15
		default:
			perf.Score -= 30
		}
	}

	if m.FilesProcessed > 0 {
		switch {
		case perf.FilesPerSecond >= 1.0:
		case perf.FilesPerSecond >= 0.5:
			perf.Score -= 5
		default:
			perf.Score -= 10
		}

		switch {
		case perf.ModuleRatio >= 0.3 && perf.ModuleRatio <= 0.7:
		case perf.ModuleRatio >= 0.15 && perf.ModuleRatio <= 0.85:
			perf.Score -= 5
		default:
			perf.Score -= 10
		}
	}

	if m.LinesProcessed > 0 && bench.LinesPerSecond > 0 && m.CompilationSpeed < 0.5*bench.LinesPerSecond {
		perf.Bottlenecks = append(perf.Bottlenecks, fmt.Sprintf(
			"compilation speed %.0f lines/s is below half the %s benchmark of %.0f lines/s",
			m.CompilationSpeed, lang, bench.LinesPerSecond))
	}
	if m.FilesProcessed > 0 && deps.ModulesCount > 2*m.FilesProcessed {
		perf.Bottlenecks = append(perf.Bottlenecks, fmt.Sprintf(
			"%d module dependencies across %d files suggests excessive imports",
			deps.ModulesCount, m.FilesProcessed))
	}
	// A zero ratio means no cache layer was involved, not a 0% hit rate
	if m.CacheHitRatio > 0 && m.CacheHitRatio < 0.5 {
		perf.Bottlenecks = append(perf.Bottlenecks, fmt.Sprintf(
			"cache hit ratio %.2f is below 0.50", m.CacheHitRatio))
	}

	if perf.Score < 0 {
		perf.Score = 0
	}
	perf.Efficiency = efficiencyFor(perf.Score)
	return perf
}
