package compile

import "testing"

// TestLanguageForFile tests extension-based language detection.
func TestLanguageForFile(t *testing.T) {
	tests := []struct {
		path   string
		want   Language
		wantOK bool
	}{
		{"src/main.c", LangC, true},
		{"src/util.h", LangC, true},
		{"src/app.cpp", LangCPP, true},
		{"src/app.cc", LangCPP, true},
		{"Main.java", LangJava, true},
		{"app.kt", LangKotlin, true},
		{"script.py", LangPython, true},
		{"index.js", LangJavaScript, true},
		{"main.go", LangGo, true},
		{"lib.rs", LangRust, true},
		{"README.md", 0, false},
		{"Makefile", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := LanguageForFile(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("LanguageForFile(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("LanguageForFile(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

// TestParseLanguage covers canonical names and common aliases.
func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in     string
		want   Language
		wantOK bool
	}{
		{"c", LangC, true},
		{"cpp", LangCPP, true},
		{"C++", LangCPP, true},
		{"java", LangJava, true},
		{"kotlin", LangKotlin, true},
		{"kt", LangKotlin, true},
		{"python", LangPython, true},
		{"py", LangPython, true},
		{"javascript", LangJavaScript, true},
		{"js", LangJavaScript, true},
		{"go", LangGo, true},
		{"rust", LangRust, true},
		{"cobol", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseLanguage(tt.in)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("ParseLanguage(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

// TestDefaultCommands verifies every language resolves a toolchain command.
func TestDefaultCommands(t *testing.T) {
	for _, lang := range Languages() {
		if lang.DefaultCommand() == "" {
			t.Errorf("language %v has no default command", lang)
		}
		if len(lang.Extensions()) == 0 {
			t.Errorf("language %v has no extensions", lang)
		}
	}
}

// TestNormalizeSeverity tests free-text severity token mapping.
func TestNormalizeSeverity(t *testing.T) {
	tests := []struct {
		token string
		want  Severity
	}{
		{"error", SeverityError},
		{"fatal", SeverityError},
		{"fatal error", SeverityError},
		{"warning", SeverityWarning},
		{"warn", SeverityWarning},
		{"WARNING", SeverityWarning},
		{"info", SeverityInfo},
		{"note", SeverityInfo},
		{"remark", SeverityError},
		{"", SeverityError},
	}

	for _, tt := range tests {
		if got := NormalizeSeverity(tt.token); got != tt.want {
			t.Errorf("NormalizeSeverity(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}
