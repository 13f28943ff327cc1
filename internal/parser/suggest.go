package parser

import (
	"strings"

	"github.com/xzmaster54088/Codemate-Android-sub002/internal/compile"
)

// knownFixes maps structured error codes to curated fixes. Every entry
// carries a confidence of at least 0.8; keyword-triggered generics stay
// below that so callers can rank curated fixes first.
var knownFixes = map[string]compile.Suggestion{
	// rustc
	"E0308": {
		Title:       "Mismatched types",
		Description: "The expression's type does not match what the context expects. Convert the value or change the expected type.",
		Fix:         ".try_into().unwrap()",
		Confidence:  0.85,
	},
	"E0425": {
		Title:       "Unresolved name",
		Description: "The identifier is not in scope. Check spelling, or bring it into scope with a use declaration.",
		Confidence:  0.85,
	},
	"E0433": {
		Title:       "Unresolved import",
		Description: "The crate or module path cannot be resolved. Add the dependency to Cargo.toml or fix the path.",
		Confidence:  0.8,
	},
	"E0599": {
		Title:       "Unknown method",
		Description: "No method with this name exists for the receiver type. Check the type and bring the defining trait into scope.",
		Confidence:  0.8,
	},
	// TypeScript
	"TS2304": {
		Title:       "Cannot find name",
		Description: "The identifier is undeclared. Import it, declare it, or install the relevant @types package.",
		Confidence:  0.85,
	},
	"TS1005": {
		Title:       "Token expected",
		Description: "A punctuation token is missing, usually a ';', ',' or ')'. Insert it at the reported position.",
		Fix:         ";",
		Confidence:  0.9,
	},
	"TS2339": {
		Title:       "Unknown property",
		Description: "The property does not exist on the value's type. Fix the property name or widen the type.",
		Confidence:  0.8,
	},
	// CPython exception classes
	"SyntaxError": {
		Title:       "Invalid syntax",
		Description: "Python could not parse the statement. Check the reported line for unbalanced brackets or a missing colon.",
		Confidence:  0.85,
	},
	"IndentationError": {
		Title:       "Bad indentation",
		Description: "The block is indented inconsistently. Use uniform spaces (no tabs) matching the enclosing block.",
		Confidence:  0.9,
	},
	"NameError": {
		Title:       "Undefined name",
		Description: "The identifier is used before assignment or import. Define it or import the module that provides it.",
		Confidence:  0.85,
	},
	"ModuleNotFoundError": {
		Title:       "Missing module",
		Description: "The imported module is not installed in the active environment. Install it with pip.",
		Fix:         "pip install <module>",
		Confidence:  0.85,
	},
	// pylint
	"E0602": {
		Title:       "Undefined variable",
		Description: "The variable is referenced before any assignment visible to this scope.",
		Confidence:  0.8,
	},
	"W0611": {
		Title:       "Unused import",
		Description: "The import is never used. Remove it to keep the module surface minimal.",
		Confidence:  0.9,
	},
}

// genericSuggestions are keyword-triggered fallbacks applied when no curated
// fix matches. Checked in order; every triggered entry is attached.
var genericSuggestions = []struct {
	keyword    string
	suggestion compile.Suggestion
}{
	{"syntax", compile.Suggestion{
		Title:       "Fix the syntax error",
		Description: "Check the reported position for unbalanced brackets, a missing semicolon, or a stray token.",
		Confidence:  0.6,
	}},
	{"undefined", compile.Suggestion{
		Title:       "Declare or import the identifier",
		Description: "The name is not visible at this point. Declare it before use or add the missing import/include.",
		Confidence:  0.6,
	}},
	{"missing", compile.Suggestion{
		Title:       "Insert the missing token",
		Description: "The compiler expected something that is not there. Add the reported token at the indicated position.",
		Confidence:  0.55,
	}},
	{"type", compile.Suggestion{
		Title:       "Check the types",
		Description: "The operand or argument types do not line up. Convert the value or adjust the declaration.",
		Confidence:  0.5,
	}},
}

// suggestionsFor enhances one diagnostic: curated code lookup first, then
// keyword-triggered generics.
func suggestionsFor(diag compile.CompileError) []compile.Suggestion {
	if diag.Code != "" {
		if fix, ok := knownFixes[diag.Code]; ok {
			return []compile.Suggestion{fix}
		}
	}

	var out []compile.Suggestion
	lower := strings.ToLower(diag.Message)
	for _, g := range genericSuggestions {
		if strings.Contains(lower, g.keyword) {
			out = append(out, g.suggestion)
		}
	}
	return out
}
