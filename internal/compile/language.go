package compile

import (
	"path/filepath"
	"strings"
)

// Language identifies a supported source language.
type Language int

const (
	LangC Language = iota
	LangCPP
	LangJava
	LangKotlin
	LangPython
	LangJavaScript
	LangGo
	LangRust
)

// languageInfo holds the per-language defaults. All language behavior in the
// engine is table data keyed by Language, so adding a language is a data
// change, not a structural one.
var languageInfo = map[Language]struct {
	name       string
	command    string
	extensions []string
}{
	LangC:          {"c", "gcc", []string{".c", ".h"}},
	LangCPP:        {"cpp", "g++", []string{".cpp", ".cc", ".cxx", ".hpp", ".hh"}},
	LangJava:       {"java", "javac", []string{".java"}},
	LangKotlin:     {"kotlin", "kotlinc", []string{".kt", ".kts"}},
	LangPython:     {"python", "python3", []string{".py"}},
	LangJavaScript: {"javascript", "node", []string{".js", ".mjs", ".ts"}},
	LangGo:         {"go", "go", []string{".go"}},
	LangRust:       {"rust", "rustc", []string{".rs"}},
}

// String returns the lowercase language name used in config files and logs.
func (l Language) String() string {
	if info, ok := languageInfo[l]; ok {
		return info.name
	}
	return "unknown"
}

// DefaultCommand returns the toolchain command used when neither the task's
// CompilerConfig nor the engine config overrides it.
func (l Language) DefaultCommand() string {
	if info, ok := languageInfo[l]; ok {
		return info.command
	}
	return ""
}

// Extensions returns the file extensions recognized for this language.
func (l Language) Extensions() []string {
	if info, ok := languageInfo[l]; ok {
		return append([]string(nil), info.extensions...)
	}
	return nil
}

// Languages returns all supported languages in declaration order.
func Languages() []Language {
	return []Language{LangC, LangCPP, LangJava, LangKotlin, LangPython, LangJavaScript, LangGo, LangRust}
}

// ParseLanguage resolves a language name as found in flags or config files.
func ParseLanguage(s string) (Language, bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "c++", "cxx":
		name = "cpp"
	case "js", "node", "typescript", "ts":
		name = "javascript"
	case "py":
		name = "python"
	case "kt":
		name = "kotlin"
	}
	for _, l := range Languages() {
		if l.String() == name {
			return l, true
		}
	}
	return 0, false
}

// LanguageForFile resolves a language from a file extension.
// Ambiguous extensions resolve to the first declared language (".h" is C).
func LanguageForFile(path string) (Language, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return 0, false
	}
	for _, l := range Languages() {
		for _, e := range languageInfo[l].extensions {
			if e == ext {
				return l, true
			}
		}
	}
	return 0, false
}
