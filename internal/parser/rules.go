package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/xzmaster54088/Codemate-Android-sub002/internal/compile"
)

// Rule is one diagnostic grammar entry: a regex plus the capture-group
// indices (1-based, 0 to skip) mapping submatches onto diagnostic fields.
// A Message index of 0 uses the whole trimmed line as the message.
type Rule struct {
	Pattern         string
	File            int
	Line            int
	Column          int
	Severity        int
	Code            int
	Message         int
	DefaultSeverity compile.Severity
}

type compiledRule struct {
	re   *regexp.Regexp
	rule Rule
}

// languageRules holds the ordered per-language rule tables, most specific
// first. Adding a language or a toolchain format is a data change.
var languageRules = map[compile.Language][]Rule{
	// GCC/Clang: file:line:column: severity: message
	compile.LangC: {
		{Pattern: `^(.+?):(\d+):(\d+):\s*(fatal error|error|warning|note):\s*(.+)$`, File: 1, Line: 2, Column: 3, Severity: 4, Message: 5},
		{Pattern: `^(.+?):(\d+):\s*(fatal error|error|warning|note):\s*(.+)$`, File: 1, Line: 2, Severity: 3, Message: 4},
		{Pattern: `^(.+?):(?:(\d+):)?\s*(undefined reference to .+)$`, File: 1, Line: 2, Message: 3, DefaultSeverity: compile.SeverityError},
		{Pattern: `^(\S+?):\s*(fatal error|error|warning):\s*(.+)$`, File: 1, Severity: 2, Message: 3},
	},
	compile.LangCPP: {
		{Pattern: `^(.+?):(\d+):(\d+):\s*(fatal error|error|warning|note):\s*(.+)$`, File: 1, Line: 2, Column: 3, Severity: 4, Message: 5},
		{Pattern: `^(.+?):(\d+):\s*(fatal error|error|warning|note):\s*(.+)$`, File: 1, Line: 2, Severity: 3, Message: 4},
		{Pattern: `^(.+?):(?:(\d+):)?\s*(undefined reference to .+)$`, File: 1, Line: 2, Message: 3, DefaultSeverity: compile.SeverityError},
		{Pattern: `^(\S+?):\s*(fatal error|error|warning):\s*(.+)$`, File: 1, Severity: 2, Message: 3},
	},
	// javac: file:line: severity: message (no column)
	compile.LangJava: {
		{Pattern: `^(.+?\.java):(\d+):\s*(error|warning):\s*(.+)$`, File: 1, Line: 2, Severity: 3, Message: 4},
		{Pattern: `^(.+?):(\d+):\s*(error|warning):\s*(.+)$`, File: 1, Line: 2, Severity: 3, Message: 4},
	},
	// kotlinc: file:line:column: severity: message, plus the legacy
	// "e: file: (line, col): message" format
	compile.LangKotlin: {
		{Pattern: `^(.+?\.kts?):(\d+):(\d+):\s*(error|warning|info):\s*(.+)$`, File: 1, Line: 2, Column: 3, Severity: 4, Message: 5},
		{Pattern: `^e:\s*(.+?):\s*\((\d+),\s*(\d+)\):\s*(.+)$`, File: 1, Line: 2, Column: 3, Message: 4, DefaultSeverity: compile.SeverityError},
		{Pattern: `^w:\s*(.+?):\s*\((\d+),\s*(\d+)\):\s*(.+)$`, File: 1, Line: 2, Column: 3, Message: 4, DefaultSeverity: compile.SeverityWarning},
	},
	// pylint report lines, CPython traceback locations, bare exceptions
	compile.LangPython: {
		{Pattern: `^(.+?):(\d+):(\d+):\s*([A-Z]\d{4}):\s*(.+)$`, File: 1, Line: 2, Column: 3, Code: 4, Message: 5, DefaultSeverity: compile.SeverityWarning},
		{Pattern: `^\s*File\s+"(.+?)",\s+line\s+(\d+)`, File: 1, Line: 2, DefaultSeverity: compile.SeverityError},
		{Pattern: `^(\w*(?:Error|Exception|Warning)):\s*(.+)$`, Code: 1, Message: 2, DefaultSeverity: compile.SeverityError},
	},
	// tsc, eslint compact, node traceback heads, bare exceptions
	compile.LangJavaScript: {
		{Pattern: `^(.+?)\((\d+),(\d+)\):\s*(error|warning)\s+(TS\d+):\s*(.+)$`, File: 1, Line: 2, Column: 3, Severity: 4, Code: 5, Message: 6},
		{Pattern: `^(.+?):\s*line\s+(\d+),\s*col\s+(\d+),\s*(Error|Warning)\s*-\s*(.+)$`, File: 1, Line: 2, Column: 3, Severity: 4, Message: 5},
		{Pattern: `^(.+?\.[cm]?js):(\d+)$`, File: 1, Line: 2, DefaultSeverity: compile.SeverityError},
		{Pattern: `^(\w*(?:Error|Exception)):\s*(.+)$`, Code: 1, Message: 2, DefaultSeverity: compile.SeverityError},
	},
	// go tool: file:line:column: message (severity is implicit)
	compile.LangGo: {
		{Pattern: `^(.+?\.go):(\d+):(\d+):\s*(.+)$`, File: 1, Line: 2, Column: 3, Message: 4, DefaultSeverity: compile.SeverityError},
		{Pattern: `^(.+?\.go):(\d+):\s*(.+)$`, File: 1, Line: 2, Message: 3, DefaultSeverity: compile.SeverityError},
	},
	// rustc: severity[code]: message, location on the following "-->" line
	compile.LangRust: {
		{Pattern: `^(error|warning)\[(E\d+)\]:\s*(.+)$`, Severity: 1, Code: 2, Message: 3},
		{Pattern: `^(error|warning):\s*(.+)$`, Severity: 1, Message: 2},
		{Pattern: `^\s*-->\s*(.+?):(\d+):(\d+)$`, File: 1, Line: 2, Column: 3, DefaultSeverity: compile.SeverityError},
	},
}

// fallbackNeedles are the language-agnostic substring rules tried when no
// structured rule matches, so a problem-looking line is never dropped.
var fallbackNeedles = []string{
	"syntax error",
	"undefined",
	"not found",
	"permission denied",
}

func compileRules(rules []Rule) []compiledRule {
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		out = append(out, compiledRule{re: regexp.MustCompile(r.Pattern), rule: r})
	}
	return out
}

// match applies one compiled rule to a line.
func (c compiledRule) match(line string) (compile.CompileError, bool) {
	matches := c.re.FindStringSubmatch(line)
	if matches == nil {
		return compile.CompileError{}, false
	}

	diag := compile.CompileError{}
	r := c.rule

	if r.File > 0 && r.File < len(matches) {
		diag.File = matches[r.File]
	}
	if r.Line > 0 && r.Line < len(matches) {
		if n, err := strconv.Atoi(matches[r.Line]); err == nil {
			diag.Line = n
		}
	}
	if r.Column > 0 && r.Column < len(matches) {
		if n, err := strconv.Atoi(matches[r.Column]); err == nil {
			diag.Column = n
		}
	}
	if r.Severity > 0 && r.Severity < len(matches) {
		diag.Severity = compile.NormalizeSeverity(matches[r.Severity])
	} else {
		diag.Severity = r.DefaultSeverity
	}
	if r.Code > 0 && r.Code < len(matches) {
		diag.Code = matches[r.Code]
	}
	if r.Message > 0 && r.Message < len(matches) {
		diag.Message = strings.TrimSpace(matches[r.Message])
	} else {
		diag.Message = strings.TrimSpace(line)
	}

	return diag, true
}

// matchFallback applies the substring rules. Severity comes from any severity
// token present in the line, defaulting to error.
func matchFallback(line string) (compile.CompileError, bool) {
	lower := strings.ToLower(line)
	for _, needle := range fallbackNeedles {
		if strings.Contains(lower, needle) {
			return compile.CompileError{
				Message:  strings.TrimSpace(line),
				Severity: detectSeverity(lower),
			}, true
		}
	}
	return compile.CompileError{}, false
}

func detectSeverity(lower string) compile.Severity {
	switch {
	case strings.Contains(lower, "warning") || strings.Contains(lower, "warn:"):
		return compile.SeverityWarning
	case strings.Contains(lower, "note:") || strings.Contains(lower, "info:"):
		return compile.SeverityInfo
	}
	return compile.SeverityError
}
