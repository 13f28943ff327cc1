package analyzer

import (
	"github.com/xzmaster54088/Codemate-Android-sub002/internal/compile"
)

// QualityAnalysis scores the diagnostic outcome of a compile.
type QualityAnalysis struct {
	Score    float64 // 0..100
	Grade    string  // A..F
	Errors   int
	Warnings int
}

// analyzeQuality starts at 100, subtracts 5 per error and 2 per warning,
// adds 10 for a successful compile, and clamps to 0..100.
func analyzeQuality(res *compile.Result) QualityAnalysis {
	q := QualityAnalysis{
		Errors:   res.ErrorCount(),
		Warnings: res.WarningCount(),
	}

	q.Score = 100 - 5*float64(q.Errors) - 2*float64(q.Warnings)
	if res.Success {
		q.Score += 10
	}
	if q.Score < 0 {
		q.Score = 0
	}
	if q.Score > 100 {
		q.Score = 100
	}

	q.Grade = gradeFor(q.Score)
	return q
}

func gradeFor(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	}
	return "F"
}
