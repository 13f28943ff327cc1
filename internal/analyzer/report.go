package analyzer

import (
	"fmt"
	"time"

	"github.com/xzmaster54088/Codemate-Android-sub002/internal/compile"
)

// Report is the display summary of one analysis.
type Report struct {
	TaskID       string
	TaskName     string
	Language     string
	Status       string
	Duration     time.Duration
	QualityScore float64
	Grade        string
	Efficiency   EfficiencyTier
	Complexity   ComplexityTier
	Health       HealthTier
	Battery      Level
	Highlights   []string
	Suggestions  []OptimizationSuggestion
	GeneratedAt  time.Time
}

// Headline returns the one-line summary used in list views.
func (r *Report) Headline() string {
	return fmt.Sprintf("%s [%s] grade %s (%.0f) in %s",
		r.TaskName, r.Status, r.Grade, r.QualityScore, r.Duration.Round(time.Millisecond))
}

// GenerateReport condenses an analysis for display. Degraded analyses
// produce a report carrying only the failure highlight.
func (a *Analyzer) GenerateReport(analysis *Analysis, task *compile.Task, res *compile.Result) *Report {
	report := &Report{
		TaskID:      task.ID,
		TaskName:    task.Name,
		Language:    task.Language.String(),
		Status:      task.Status.String(),
		Duration:    res.ExecutionTime,
		GeneratedAt: time.Now(),
	}

	if analysis.Degraded {
		for _, issue := range analysis.Issues {
			report.Highlights = append(report.Highlights, issue.Message)
		}
		return report
	}

	report.QualityScore = analysis.Quality.Score
	report.Grade = analysis.Quality.Grade
	report.Efficiency = analysis.Performance.Efficiency
	report.Complexity = analysis.Dependencies.Complexity
	report.Health = analysis.Dependencies.Health
	report.Battery = analysis.Resources.Battery
	report.Suggestions = analysis.Suggestions

	if n := analysis.Quality.Errors; n > 0 {
		report.Highlights = append(report.Highlights, fmt.Sprintf("%d errors, %d warnings", n, analysis.Quality.Warnings))
	} else if n := analysis.Quality.Warnings; n > 0 {
		report.Highlights = append(report.Highlights, fmt.Sprintf("%d warnings", n))
	}
	report.Highlights = append(report.Highlights, analysis.Performance.Bottlenecks...)
	if n := len(analysis.Dependencies.Cycles); n > 0 {
		report.Highlights = append(report.Highlights, fmt.Sprintf("%d dependency cycles detected", n))
	}
	for _, f := range analysis.Dependencies.CriticalFiles {
		report.Highlights = append(report.Highlights, fmt.Sprintf("%s is a critical dependency", f))
	}

	return report
}
