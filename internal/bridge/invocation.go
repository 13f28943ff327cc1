package bridge

import (
	"sort"
	"strings"

	"github.com/xzmaster54088/Codemate-Android-sub002/internal/compile"
)

// BuildArgs translates a task's CompilerConfig into the toolchain argument
// list: optimization flag, -g for debug symbols, the warning policy, include
// and library paths, macro defines, extra args, then the sources and the
// optional -o target. The optimization flag is omitted at the NONE level,
// which is every GCC-style toolchain's default.
func BuildArgs(task *compile.Task) []string {
	cfg := task.Config
	var args []string

	if cfg.Optimization != compile.OptimizationNone {
		args = append(args, cfg.Optimization.Flag())
	}
	if cfg.DebugSymbols {
		args = append(args, "-g")
	}
	if cfg.SuppressWarnings {
		args = append(args, "-w")
	}
	if cfg.WarningsAsErrors {
		args = append(args, "-Werror")
	}

	for _, p := range cfg.IncludePaths {
		args = append(args, "-I", p)
	}
	for _, p := range cfg.LibraryPaths {
		args = append(args, "-L", p)
	}

	// Sorted so the invocation is reproducible
	defines := make([]string, 0, len(cfg.Defines))
	for k := range cfg.Defines {
		defines = append(defines, k)
	}
	sort.Strings(defines)
	for _, k := range defines {
		if v := cfg.Defines[k]; v != "" {
			args = append(args, "-D", k+"="+v)
		} else {
			args = append(args, "-D", k)
		}
	}

	args = append(args, cfg.Args...)
	args = append(args, task.Sources...)

	if cfg.OutputPath != "" {
		args = append(args, "-o", cfg.OutputPath)
	}

	return args
}

// Invocation returns the full command line as one display string.
func Invocation(task *compile.Task) string {
	parts := append([]string{task.EffectiveCommand()}, BuildArgs(task)...)
	return strings.Join(parts, " ")
}
