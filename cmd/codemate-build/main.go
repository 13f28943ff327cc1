package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/xzmaster54088/Codemate-Android-sub002/internal/analyzer"
	"github.com/xzmaster54088/Codemate-Android-sub002/internal/bridge"
	"github.com/xzmaster54088/Codemate-Android-sub002/internal/compile"
	"github.com/xzmaster54088/Codemate-Android-sub002/internal/config"
	"github.com/xzmaster54088/Codemate-Android-sub002/internal/events"
	"github.com/xzmaster54088/Codemate-Android-sub002/internal/logging"
	"github.com/xzmaster54088/Codemate-Android-sub002/internal/scheduler"
	"github.com/xzmaster54088/Codemate-Android-sub002/internal/tui"
	"github.com/xzmaster54088/Codemate-Android-sub002/internal/workspace"
)

const shutdownGrace = 10 * time.Second

// repeatFlag collects a flag given multiple times.
type repeatFlag []string

func (f *repeatFlag) String() string { return strings.Join(*f, ",") }

func (f *repeatFlag) Set(v string) error {
	*f = append(*f, v)
	return nil
}

// defineFlag collects -D NAME or -D NAME=VALUE entries.
type defineFlag map[string]string

func (f defineFlag) String() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

func (f defineFlag) Set(v string) error {
	name, value, _ := strings.Cut(v, "=")
	if name == "" {
		return fmt.Errorf("empty macro name")
	}
	f[name] = value
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		projectRoot = flag.String("project", "", "project root directory (default: config workspace root)")
		langName    = flag.String("lang", "", "source language; detected from the first source when empty")
		taskName    = flag.String("name", "", "display name for the task")
		output      = flag.String("o", "", "output artifact path")
		optLevel    = flag.String("opt", "", "optimization level: none, basic, standard, aggressive")
		debugSyms   = flag.Bool("g", false, "emit debug symbols")
		noWarnings  = flag.Bool("w", false, "suppress warnings")
		werror      = flag.Bool("Werror", false, "treat warnings as errors")
		priority    = flag.String("priority", "", "task priority: low, normal, high, critical")
		timeout     = flag.Duration("timeout", 0, "per-task compile timeout (overrides config)")
		jobs        = flag.Int("jobs", 0, "max concurrent compiles (overrides config)")
		configPath  = flag.String("config", "", "project config file (default .codemate.yaml)")
		logLevel    = flag.String("log-level", "", "log level (overrides config)")
		planPath    = flag.String("plan", "", "submit a YAML build plan instead of a single task")
		check       = flag.Bool("check", false, "probe configured toolchains and exit")
		withTUI     = flag.Bool("tui", false, "attach the terminal monitor")
	)
	var includes, libraries repeatFlag
	defines := make(defineFlag)
	flag.Var(&includes, "I", "include path (repeatable)")
	flag.Var(&libraries, "L", "library path (repeatable)")
	flag.Var(defines, "D", "macro definition NAME[=VALUE] (repeatable)")
	flag.Parse()

	// Load the layered configuration
	globalPath, err := config.DefaultGlobalPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving home directory: %v\n", err)
		return 1
	}
	projectConfig := *configPath
	if projectConfig == "" {
		projectConfig = ".codemate.yaml"
	}
	cfg, err := config.Load(globalPath, projectConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	// Flag overrides beat both config layers
	if *jobs > 0 {
		cfg.Scheduler.MaxConcurrent = *jobs
	}
	if *timeout > 0 {
		cfg.Bridge.TimeoutSeconds = int(timeout.Seconds())
	}
	if *logLevel != "" {
		cfg.Logger.Level = *logLevel
	}

	// The monitor owns the terminal, so engine logs are dropped in TUI mode
	logger := zap.NewNop()
	if !*withTUI {
		logger, err = logging.Build(cfg.Logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error building logger: %v\n", err)
			return 1
		}
	}
	defer logger.Sync()

	// Create signal-aware context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Wire the engine
	wsCfg := workspace.Config{RootDir: cfg.Workspace.RootDir, OutputDir: cfg.Workspace.OutputDir}
	if *projectRoot != "" {
		wsCfg.RootDir = *projectRoot
	}
	ws := workspace.NewManager(wsCfg)

	brd := bridge.New(bridge.Config{
		Timeout:          cfg.Bridge.Timeout(),
		OutputBufferSize: cfg.Bridge.OutputBufferSize(),
		DefaultEnv:       cfg.Bridge.DefaultEnv,
	}, ws, logger)

	sched := scheduler.New(scheduler.Options{
		Config:    scheduler.Config{MaxConcurrent: cfg.Scheduler.MaxConcurrent},
		Runner:    brd,
		Analyzer:  analyzer.New(logger, analyzerOptions(cfg)...),
		Workspace: ws,
		Logger:    logger,
	})

	if *check {
		return runCheck(ctx, brd.Guard(), cfg)
	}

	// Monitors must subscribe before anything is queued so they see the
	// queued events.
	var model tui.Model
	var stream <-chan events.Event
	if *withTUI {
		model = tui.New(sched.Bus(), cfg, globalPath, projectConfig)
	} else {
		stream = sched.ObserveAll(1024)
	}

	// Submit work
	var taskIDs []string
	if *planPath != "" {
		plan, err := scheduler.LoadPlan(*planPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading plan: %v\n", err)
			return 1
		}
		applyPlanToolchains(cfg, plan)
		taskIDs, err = sched.SubmitPlan(plan)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error submitting plan: %v\n", err)
			return 1
		}
	} else {
		sources := flag.Args()
		if len(sources) == 0 {
			fmt.Fprintln(os.Stderr, "No source files given")
			flag.Usage()
			return 2
		}

		lang, ok := compile.ParseLanguage(*langName)
		if !ok {
			if *langName != "" {
				fmt.Fprintf(os.Stderr, "Unknown language %q\n", *langName)
				return 2
			}
			if lang, ok = compile.LanguageForFile(sources[0]); !ok {
				fmt.Fprintf(os.Stderr, "Cannot detect the language of %s; use -lang\n", sources[0])
				return 2
			}
		}

		task := compile.NewTask(*projectRoot, sources, lang)
		task.Name = *taskName
		if task.Name == "" {
			task.Name = filepath.Base(sources[0])
		}
		task.Config.IncludePaths = includes
		task.Config.LibraryPaths = libraries
		if len(defines) > 0 {
			task.Config.Defines = defines
		}
		task.Config.DebugSymbols = *debugSyms
		task.Config.SuppressWarnings = *noWarnings
		task.Config.WarningsAsErrors = *werror
		task.Config.OutputPath = *output
		if *optLevel != "" {
			opt, ok := compile.ParseOptimization(*optLevel)
			if !ok {
				fmt.Fprintf(os.Stderr, "Unknown optimization level %q\n", *optLevel)
				return 2
			}
			task.Config.Optimization = opt
		}
		if *priority != "" {
			pri, ok := compile.ParsePriority(*priority)
			if !ok {
				fmt.Fprintf(os.Stderr, "Unknown priority %q\n", *priority)
				return 2
			}
			task.Priority = pri
		}
		applyToolchain(cfg, task)

		id, err := sched.Submit(task)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error submitting task: %v\n", err)
			return 1
		}
		taskIDs = []string{id}
	}

	sched.Start(ctx)

	if *withTUI {
		return runMonitor(ctx, stop, sched, model)
	}
	return runBatch(ctx, sched, logger, stream, taskIDs)
}

// runBatch waits for every submitted task while streaming bus events as
// structured logs. The exit code reflects the build outcome.
func runBatch(ctx context.Context, sched *scheduler.Scheduler, logger *zap.Logger, stream <-chan events.Event, taskIDs []string) int {
	streamDone := make(chan struct{})
	go func() {
		defer close(streamDone)
		for ev := range stream {
			logEvent(logger, ev)
		}
	}()

	failed := 0
	for _, id := range taskIDs {
		res, err := sched.WaitResult(ctx, id)
		if err != nil {
			// Interrupted; the scheduler resolves the remaining tasks as
			// cancelled during shutdown
			failed++
			continue
		}
		logDiagnostics(logger, res)
		if !res.Success {
			failed++
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := sched.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
	<-streamDone

	stats := sched.Stats()
	logger.Info("build finished",
		zap.Int("total", stats.Total),
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("failed", stats.Failed),
		zap.Int("cancelled", stats.Cancelled))

	if failed > 0 {
		return 1
	}
	return 0
}

// runMonitor runs the Bubble Tea program until the user quits or a signal
// arrives, then shuts the scheduler down.
func runMonitor(ctx context.Context, stop context.CancelFunc, sched *scheduler.Scheduler, model tui.Model) int {
	p := tea.NewProgram(model, tea.WithAltScreen())

	errChan := make(chan error, 1)
	go func() {
		_, err := p.Run()
		errChan <- err
	}()

	exit := 0
	select {
	case err := <-errChan:
		// Normal monitor exit (user pressed 'q')
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exit = 1
		}
	case <-ctx.Done():
		// Signal received. Restore default handling so a second Ctrl+C
		// force-exits, then give the monitor a moment to unwind.
		stop()
		p.Quit()

		waitCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		select {
		case <-errChan:
		case <-waitCtx.Done():
			fmt.Fprintln(os.Stderr, "Monitor did not exit in time")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := sched.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Shutdown incomplete: %v\n", err)
	}

	if stats := sched.Stats(); stats.Failed > 0 && exit == 0 {
		exit = 1
	}
	return exit
}

// runCheck probes the toolchain of every supported language and reports
// availability. Missing toolchains set a non-zero exit code.
func runCheck(ctx context.Context, guard *bridge.Guard, cfg *config.Config) int {
	exit := 0
	for _, lang := range compile.Languages() {
		command := lang.DefaultCommand()
		if tc, ok := cfg.Toolchain(lang); ok && tc.Command != "" {
			command = tc.Command
		}

		if err := guard.Probe(ctx, command); err != nil {
			fmt.Printf("%-12s %-10s MISSING (%v)\n", lang, command, err)
			exit = 1
		} else {
			fmt.Printf("%-12s %-10s ok\n", lang, command)
		}
		if ctx.Err() != nil {
			return 1
		}
	}
	return exit
}

// applyToolchain fills the task's toolchain from config when the task does
// not name its own command. Task-level env keys win over toolchain env.
func applyToolchain(cfg *config.Config, task *compile.Task) {
	if task.Config.Command != "" {
		return
	}
	tc, ok := cfg.Toolchain(task.Language)
	if !ok {
		return
	}

	task.Config.Command = tc.Command
	if len(tc.Args) > 0 {
		task.Config.Args = append(append([]string(nil), tc.Args...), task.Config.Args...)
	}
	for k, v := range tc.Env {
		if task.Env == nil {
			task.Env = make(map[string]string)
		}
		if _, exists := task.Env[k]; !exists {
			task.Env[k] = v
		}
	}
}

// applyPlanToolchains applies configured toolchain overrides to every plan
// unit that does not name its own command.
func applyPlanToolchains(cfg *config.Config, p *scheduler.Plan) {
	for i := range p.Units {
		u := &p.Units[i]
		if u.Command != "" {
			continue
		}

		lang, ok := compile.ParseLanguage(u.Language)
		if !ok && len(u.Sources) > 0 {
			lang, ok = compile.LanguageForFile(u.Sources[0])
		}
		if !ok {
			// SubmitPlan reports the undetectable unit
			continue
		}
		tc, ok := cfg.Toolchain(lang)
		if !ok {
			continue
		}

		u.Command = tc.Command
		if len(tc.Args) > 0 {
			u.Args = append(append([]string(nil), tc.Args...), u.Args...)
		}
		for k, v := range tc.Env {
			if u.Env == nil {
				u.Env = make(map[string]string)
			}
			if _, exists := u.Env[k]; !exists {
				u.Env[k] = v
			}
		}
	}
}

// analyzerOptions translates analyzer config into constructor options.
func analyzerOptions(cfg *config.Config) []analyzer.Option {
	var opts []analyzer.Option
	if cfg.Analyzer.CacheTTLSeconds > 0 {
		opts = append(opts, analyzer.WithCacheTTL(cfg.Analyzer.CacheTTL()))
	}
	for name, b := range cfg.Analyzer.Benchmarks {
		lang, ok := compile.ParseLanguage(name)
		if !ok {
			continue
		}
		opts = append(opts, analyzer.WithBenchmark(lang, analyzer.Benchmark{
			LinesPerSecond:  b.LinesPerSecond,
			MemoryPerFileKB: b.MemoryPerFileKB,
		}))
	}
	return opts
}

// logEvent renders one bus event as a structured log line.
func logEvent(log *zap.Logger, ev events.Event) {
	switch e := ev.(type) {
	case events.TaskQueuedEvent:
		log.Info("task queued",
			zap.String("task_id", e.ID),
			zap.String("name", e.Name),
			zap.String("language", e.Language),
			zap.String("priority", e.Priority))

	case events.TaskStartedEvent:
		log.Info("task started",
			zap.String("task_id", e.ID),
			zap.String("name", e.Name),
			zap.String("command", e.Command))

	case events.TaskOutputEvent:
		log.Info("toolchain output",
			zap.String("task_id", e.ID),
			zap.String("stream", e.Stream),
			zap.String("line", e.Line))

	case events.TaskErrorEvent:
		log.Warn("task degraded",
			zap.String("task_id", e.ID),
			zap.String("stage", e.Stage),
			zap.String("message", e.Message))

	case events.TaskCompletedEvent:
		fields := []zap.Field{
			zap.String("task_id", e.ID),
			zap.String("status", e.Status),
			zap.Int("exit_code", e.ExitCode),
			zap.Duration("duration", e.Duration),
		}
		if e.Success {
			log.Info("task completed", fields...)
		} else {
			log.Warn("task completed", fields...)
		}

	case events.QueueProgressEvent:
		log.Debug("queue progress",
			zap.Int("pending", e.Pending),
			zap.Int("running", e.Running),
			zap.Int("succeeded", e.Succeeded),
			zap.Int("failed", e.Failed),
			zap.Int("cancelled", e.Cancelled))
	}
}

// logDiagnostics logs a finished task's diagnostics at a level matching
// their severity.
func logDiagnostics(log *zap.Logger, res *compile.Result) {
	for _, d := range res.Diagnostics {
		fields := []zap.Field{
			zap.String("task_id", res.TaskID),
			zap.String("file", d.File),
			zap.Int("line", d.Line),
			zap.Int("column", d.Column),
		}
		if d.Code != "" {
			fields = append(fields, zap.String("code", d.Code))
		}

		switch {
		case d.Severity >= compile.SeverityError:
			log.Error(d.Message, fields...)
		case d.Severity == compile.SeverityWarning:
			log.Warn(d.Message, fields...)
		default:
			log.Info(d.Message, fields...)
		}
	}
}
