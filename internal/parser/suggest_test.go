package parser

import (
	"testing"

	"github.com/xzmaster54088/Codemate-Android-sub002/internal/compile"
)

// TestSuggestionsForKnownCodes verifies curated fixes win for coded
// diagnostics and carry high confidence.
func TestSuggestionsForKnownCodes(t *testing.T) {
	tests := []struct {
		code      string
		wantTitle string
	}{
		{"E0308", "Mismatched types"},
		{"E0425", "Unresolved name"},
		{"TS2304", "Cannot find name"},
		{"TS1005", "Token expected"},
		{"NameError", "Undefined name"},
		{"ModuleNotFoundError", "Missing module"},
		{"W0611", "Unused import"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got := suggestionsFor(compile.CompileError{Code: tt.code, Message: "whatever"})

			if len(got) != 1 {
				t.Fatalf("suggestionsFor(%s) returned %d suggestions, want 1", tt.code, len(got))
			}
			if got[0].Title != tt.wantTitle {
				t.Errorf("suggestionsFor(%s) title = %q, want %q", tt.code, got[0].Title, tt.wantTitle)
			}
			if got[0].Confidence < 0.8 {
				t.Errorf("suggestionsFor(%s) confidence = %v, want >= 0.8", tt.code, got[0].Confidence)
			}
		})
	}
}

// TestSuggestionsForKeywords verifies keyword generics trigger on message
// content with lower confidence than curated fixes.
func TestSuggestionsForKeywords(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		wantCount int
	}{
		{"syntax keyword", "syntax error before token", 1},
		{"undefined keyword", "undefined reference to `main'", 1},
		{"missing keyword", "missing ';' before return", 1},
		{"type keyword", "incompatible type for argument 1", 1},
		{"two keywords", "syntax error: missing ')'", 2},
		{"no keywords", "something completely benign", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := suggestionsFor(compile.CompileError{Message: tt.message})

			if len(got) != tt.wantCount {
				t.Fatalf("suggestionsFor(%q) returned %d suggestions, want %d", tt.message, len(got), tt.wantCount)
			}
			for _, s := range got {
				if s.Confidence >= 0.8 {
					t.Errorf("generic suggestion %q confidence = %v, want < 0.8", s.Title, s.Confidence)
				}
			}
		})
	}
}

// TestSuggestionsForUnknownCode verifies an unrecognized code falls back to
// keyword generics instead of returning nothing.
func TestSuggestionsForUnknownCode(t *testing.T) {
	got := suggestionsFor(compile.CompileError{Code: "E9999", Message: "mismatched type in assignment"})

	if len(got) != 1 {
		t.Fatalf("suggestionsFor() returned %d suggestions, want 1 keyword fallback", len(got))
	}
	if got[0].Title != "Check the types" {
		t.Errorf("suggestionsFor() title = %q, want keyword fallback", got[0].Title)
	}
}
