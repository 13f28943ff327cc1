// Package parser converts raw toolchain output into structured, deduplicated,
// severity-ranked diagnostics with suggested fixes. All per-language behavior
// lives in ordered rule tables; parsing a line tries the language's rules
// first (most specific wins) and falls back to language-agnostic substring
// rules so problem-looking lines are never silently dropped.
package parser

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/xzmaster54088/Codemate-Android-sub002/internal/compile"
)

// aggregateKeyLen is how much of the message participates in deduplication.
// Repeated templated errors (a bad macro expanded 40 times) share a prefix
// even when trailing detail differs.
const aggregateKeyLen = 50

// ParseResult is the structured outcome of parsing one task's output.
type ParseResult struct {
	Errors         []compile.CompileError // Severity ERROR and FATAL
	Warnings       []compile.CompileError
	Infos          []compile.CompileError
	Success        bool // No errors extracted
	TotalLines     int  // Every line of both streams
	ProcessedLines int  // Non-blank lines run through the rule engine
}

// Diagnostics returns errors, warnings and infos as one slice in that order.
func (pr *ParseResult) Diagnostics() []compile.CompileError {
	out := make([]compile.CompileError, 0, len(pr.Errors)+len(pr.Warnings)+len(pr.Infos))
	out = append(out, pr.Errors...)
	out = append(out, pr.Warnings...)
	out = append(out, pr.Infos...)
	return out
}

// Parser extracts diagnostics from compiler output. Rule tables are compiled
// once at construction; a Parser is immutable afterwards and safe for
// concurrent use.
type Parser struct {
	rules map[compile.Language][]compiledRule
}

// NewParser compiles the builtin rule tables.
func NewParser() *Parser {
	p := &Parser{rules: make(map[compile.Language][]compiledRule, len(languageRules))}
	for lang, rules := range languageRules {
		p.rules[lang] = compileRules(rules)
	}
	return p
}

// Parse extracts, aggregates and enhances diagnostics from both streams.
// Parsing identical input always yields identical results.
func (p *Parser) Parse(stdout, stderr string, lang compile.Language) *ParseResult {
	pr := &ParseResult{}

	var raw []compile.CompileError
	for _, stream := range []string{stdout, stderr} {
		scanner := bufio.NewScanner(strings.NewReader(stream))
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			pr.TotalLines++
			if strings.TrimSpace(line) == "" {
				continue
			}
			pr.ProcessedLines++

			if diag, ok := p.matchLine(line, lang); ok {
				raw = append(raw, diag)
			}
		}
	}

	for _, diag := range aggregate(raw) {
		diag.Suggestions = suggestionsFor(diag)
		switch {
		case diag.Severity >= compile.SeverityError:
			pr.Errors = append(pr.Errors, diag)
		case diag.Severity == compile.SeverityWarning:
			pr.Warnings = append(pr.Warnings, diag)
		default:
			pr.Infos = append(pr.Infos, diag)
		}
	}

	pr.Success = len(pr.Errors) == 0
	return pr
}

// matchLine tries the language's ordered rules, then the fallback rules.
func (p *Parser) matchLine(line string, lang compile.Language) (compile.CompileError, bool) {
	for _, cr := range p.rules[lang] {
		if diag, ok := cr.match(line); ok {
			return diag, true
		}
	}
	return matchFallback(line)
}

// aggregate merges diagnostics sharing (file, line, message prefix) into one,
// annotating the survivor with the occurrence count. First-seen order is
// preserved.
func aggregate(diags []compile.CompileError) []compile.CompileError {
	type bucket struct {
		index int
		count int
	}

	var out []compile.CompileError
	seen := make(map[string]*bucket)

	for _, d := range diags {
		key := aggregateKey(d)
		if b, ok := seen[key]; ok {
			b.count++
			// Keep the highest severity observed for the group
			if d.Severity > out[b.index].Severity {
				out[b.index].Severity = d.Severity
			}
			continue
		}
		out = append(out, d)
		seen[key] = &bucket{index: len(out) - 1, count: 1}
	}

	for _, b := range seen {
		if b.count > 1 {
			out[b.index].Message = fmt.Sprintf("%s (%d similar errors)", out[b.index].Message, b.count)
		}
	}

	return out
}

func aggregateKey(d compile.CompileError) string {
	msg := d.Message
	if len(msg) > aggregateKeyLen {
		msg = msg[:aggregateKeyLen]
	}
	return fmt.Sprintf("%s:%d:%s", d.File, d.Line, msg)
}
