package parser

import (
	"sort"
	"time"

	"github.com/xzmaster54088/Codemate-Android-sub002/internal/compile"
)

// MessageCount is one entry of the most-frequent-message ranking.
type MessageCount struct {
	Message string
	Count   int
}

// ErrorReport summarizes a parse result for display.
type ErrorReport struct {
	Language      string
	TotalErrors   int
	TotalWarnings int
	BySeverity    map[string]int
	TopMessages   []MessageCount // At most five, most frequent first
	AffectedFiles []string       // Distinct files with errors, sorted
	Hints         []string       // Language-specific remediation hints
	GeneratedAt   time.Time
}

// languageHints are per-language remediation pointers included when the
// parse produced errors.
var languageHints = map[compile.Language][]string{
	compile.LangC:          {"Verify header search paths (-I) cover every #include.", "Link required libraries with -l and search paths with -L."},
	compile.LangCPP:        {"Verify header search paths (-I) cover every #include.", "Check that the selected -std level matches the sources."},
	compile.LangJava:       {"Check the classpath covers every imported package.", "Confirm the JDK release matches the language level of the sources."},
	compile.LangKotlin:     {"Confirm the Kotlin compiler version matches the project.", "Check the classpath for missing dependencies."},
	compile.LangPython:     {"Run in the project's virtual environment so imports resolve.", "Check indentation is consistent across the reported block."},
	compile.LangJavaScript: {"Run npm install so imported packages are present.", "Check tsconfig/jsconfig settings match the source level."},
	compile.LangGo:         {"Run go mod tidy so imports resolve.", "Check GOPATH/GOFLAGS overrides in the environment."},
	compile.LangRust:       {"Add missing crates to Cargo.toml.", "Follow the compiler's --explain output for the error code."},
}

// GenerateErrorReport derives a display summary from a parse result.
func (p *Parser) GenerateErrorReport(pr *ParseResult, lang compile.Language) *ErrorReport {
	report := &ErrorReport{
		Language:      lang.String(),
		TotalErrors:   len(pr.Errors),
		TotalWarnings: len(pr.Warnings),
		BySeverity:    make(map[string]int),
		GeneratedAt:   time.Now(),
	}

	all := pr.Diagnostics()
	for _, d := range all {
		report.BySeverity[d.Severity.String()]++
	}

	// Rank messages by frequency; ties keep first-seen order
	counts := make(map[string]int)
	order := make([]string, 0, len(all))
	for _, d := range all {
		if _, ok := counts[d.Message]; !ok {
			order = append(order, d.Message)
		}
		counts[d.Message]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	for i, msg := range order {
		if i == 5 {
			break
		}
		report.TopMessages = append(report.TopMessages, MessageCount{Message: msg, Count: counts[msg]})
	}

	files := make(map[string]bool)
	for _, d := range pr.Errors {
		if d.File != "" {
			files[d.File] = true
		}
	}
	for f := range files {
		report.AffectedFiles = append(report.AffectedFiles, f)
	}
	sort.Strings(report.AffectedFiles)

	if report.TotalErrors > 0 {
		report.Hints = append([]string(nil), languageHints[lang]...)
	}

	return report
}
