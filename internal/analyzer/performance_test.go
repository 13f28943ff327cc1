package analyzer

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/xzmaster54088/Codemate-Android-sub002/internal/compile"
)

func perfResult(speed float64, lines, files int, execTime time.Duration) *compile.Result {
	return &compile.Result{
		TaskID:        "perf",
		Success:       true,
		ExecutionTime: execTime,
		Metrics: compile.PerformanceMetrics{
			CompilationTime:  execTime,
			FilesProcessed:   files,
			LinesProcessed:   lines,
			CompilationSpeed: speed,
		},
	}
}

func TestAnalyzePerformanceScore(t *testing.T) {
	a := New(zap.NewNop())

	tests := []struct {
		name      string
		res       *compile.Result
		modules   int
		wantScore float64
		wantTier  EfficiencyTier
	}{
		{
			name:      "at benchmark",
			res:       perfResult(5000, 10000, 2, 2*time.Second),
			modules:   1,
			wantScore: 100,
			wantTier:  EfficiencyExcellent,
		},
		{
			name:      "slightly under benchmark",
			res:       perfResult(4200, 8400, 2, 2*time.Second),
			modules:   1,
			wantScore: 95,
			wantTier:  EfficiencyExcellent,
		},
		{
			name:      "well under benchmark with slow file throughput",
			res:       perfResult(1000, 5000, 2, 5*time.Second),
			modules:   1,
			wantScore: 60,
			wantTier:  EfficiencyFair,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perf := a.analyzePerformance(tt.res, compile.LangC, DependencyAnalysis{ModulesCount: tt.modules})

			if perf.Score != tt.wantScore {
				t.Errorf("score = %v, want %v", perf.Score, tt.wantScore)
			}
			if perf.Efficiency != tt.wantTier {
				t.Errorf("efficiency = %v, want %v", perf.Efficiency, tt.wantTier)
			}
		})
	}
}

func TestAnalyzePerformanceSpeedBottleneck(t *testing.T) {
	a := New(zap.NewNop())
	res := perfResult(1000, 5000, 2, 5*time.Second) // 20% of the C benchmark

	perf := a.analyzePerformance(res, compile.LangC, DependencyAnalysis{ModulesCount: 1})

	if len(perf.Bottlenecks) != 1 {
		t.Fatalf("bottlenecks = %v, want 1", perf.Bottlenecks)
	}
	if !strings.Contains(perf.Bottlenecks[0], "below half") {
		t.Errorf("bottleneck = %q, want the speed finding", perf.Bottlenecks[0])
	}
}

func TestAnalyzePerformanceModuleBottleneck(t *testing.T) {
	a := New(zap.NewNop())
	res := perfResult(6000, 12000, 2, 2*time.Second)

	perf := a.analyzePerformance(res, compile.LangC, DependencyAnalysis{ModulesCount: 5})

	found := false
	for _, b := range perf.Bottlenecks {
		if strings.Contains(b, "module dependencies") {
			found = true
		}
	}
	if !found {
		t.Errorf("bottlenecks = %v, want the module finding for 5 modules over 2 files", perf.Bottlenecks)
	}
}

func TestAnalyzePerformanceCacheBottleneck(t *testing.T) {
	a := New(zap.NewNop())

	res := perfResult(6000, 12000, 2, 2*time.Second)
	res.Metrics.CacheHitRatio = 0.2
	perf := a.analyzePerformance(res, compile.LangC, DependencyAnalysis{ModulesCount: 1})
	if len(perf.Bottlenecks) != 1 || !strings.Contains(perf.Bottlenecks[0], "cache hit ratio") {
		t.Errorf("bottlenecks = %v, want the cache finding", perf.Bottlenecks)
	}

	// Zero means no cache layer, which is not a bottleneck
	res = perfResult(6000, 12000, 2, 2*time.Second)
	perf = a.analyzePerformance(res, compile.LangC, DependencyAnalysis{ModulesCount: 1})
	if len(perf.Bottlenecks) != 0 {
		t.Errorf("bottlenecks = %v, want none without a cache layer", perf.Bottlenecks)
	}
}

func TestEfficiencyFor(t *testing.T) {
	tests := []struct {
		score float64
		want  EfficiencyTier
	}{
		{95, EfficiencyExcellent},
		{85, EfficiencyExcellent},
		{75, EfficiencyGood},
		{55, EfficiencyFair},
		{20, EfficiencyPoor},
	}

	for _, tt := range tests {
		if got := efficiencyFor(tt.score); got != tt.want {
			t.Errorf("efficiencyFor(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestSuggestOptimizations(t *testing.T) {
	a := New(zap.NewNop())

	t.Run("slow compile suggests performance work", func(t *testing.T) {
		res := perfResult(1000, 5000, 2, 5*time.Second)
		perf := a.analyzePerformance(res, compile.LangC, DependencyAnalysis{ModulesCount: 1})

		got := a.suggestOptimizations(res, compile.LangC, perf)
		if len(got) != 1 || got[0].Type != SuggestPerformance {
			t.Fatalf("suggestions = %+v, want one PERFORMANCE entry", got)
		}
		if got[0].Priority != LevelHigh {
			t.Errorf("priority = %v, want %v", got[0].Priority, LevelHigh)
		}
	})

	t.Run("high error rate suggests quality work", func(t *testing.T) {
		res := perfResult(6000, 100, 1, time.Second)
		res.Success = false
		for i := 0; i < 15; i++ {
			res.Diagnostics = append(res.Diagnostics, compile.CompileError{Severity: compile.SeverityError, Message: "bad"})
		}
		perf := a.analyzePerformance(res, compile.LangC, DependencyAnalysis{})

		got := a.suggestOptimizations(res, compile.LangC, perf)
		found := false
		for _, s := range got {
			if s.Type == SuggestQuality {
				found = true
			}
		}
		if !found {
			t.Errorf("suggestions = %+v, want a QUALITY entry for 15 errors over 100 lines", got)
		}
	})

	t.Run("excess memory suggests memory work", func(t *testing.T) {
		res := perfResult(6000, 12000, 2, 2*time.Second)
		res.PeakMemoryKB = 3 * 2 * 51200 // three times the two-file C budget
		perf := a.analyzePerformance(res, compile.LangC, DependencyAnalysis{ModulesCount: 1})

		got := a.suggestOptimizations(res, compile.LangC, perf)
		if len(got) != 1 || got[0].Type != SuggestMemory {
			t.Fatalf("suggestions = %+v, want one MEMORY entry", got)
		}
	})

	t.Run("failed compile always gets at least one suggestion", func(t *testing.T) {
		res := perfResult(6000, 12000, 2, 2*time.Second)
		res.Success = false
		perf := a.analyzePerformance(res, compile.LangC, DependencyAnalysis{ModulesCount: 1})

		got := a.suggestOptimizations(res, compile.LangC, perf)
		if len(got) != 1 || got[0].Type != SuggestGeneral {
			t.Fatalf("suggestions = %+v, want one GENERAL entry", got)
		}
	})

	t.Run("clean fast compile gets none", func(t *testing.T) {
		res := perfResult(6000, 12000, 2, 2*time.Second)
		perf := a.analyzePerformance(res, compile.LangC, DependencyAnalysis{ModulesCount: 1})

		if got := a.suggestOptimizations(res, compile.LangC, perf); len(got) != 0 {
			t.Errorf("suggestions = %+v, want none", got)
		}
	})
}
