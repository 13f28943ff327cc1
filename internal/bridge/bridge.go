package bridge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xzmaster54088/Codemate-Android-sub002/internal/compile"
	"github.com/xzmaster54088/Codemate-Android-sub002/internal/events"
	"github.com/xzmaster54088/Codemate-Android-sub002/internal/workspace"
)

const (
	// DefaultTimeout bounds one toolchain invocation wall-clock.
	DefaultTimeout = 5 * time.Minute

	// DefaultOutputBufferSize is the per-stream read buffer and the longest
	// output line accepted without truncation.
	DefaultOutputBufferSize = 64 * 1024
)

// Config tunes toolchain execution.
type Config struct {
	Timeout          time.Duration
	OutputBufferSize int
	DefaultEnv       map[string]string // Applied under task env, over the process env
	Retry            RetryConfig
}

// DefaultConfig returns the execution defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:          DefaultTimeout,
		OutputBufferSize: DefaultOutputBufferSize,
		Retry:            DefaultRetryConfig(),
	}
}

// ProcessResult is the raw outcome of one toolchain process. It reports
// environment failures in-band: a process that could not start at all has
// ExitCode -1 and a non-empty Error, never a Go error to the caller.
type ProcessResult struct {
	ProcessID     string
	ExitCode      int
	Stdout        string
	Stderr        string
	Success       bool // Process ran to completion with exit code 0
	ExecutionTime time.Duration
	TimedOut      bool
	PeakMemoryKB  int64
	Error         string // Environment-level failure description, empty otherwise
}

// Bridge launches external toolchains for compile tasks: it renders the
// invocation, starts the process in its own group under circuit-breaker
// protection, streams output line events, and enforces the timeout.
type Bridge struct {
	cfg   Config
	procs *ProcessManager
	guard *Guard
	ws    *workspace.Manager
	log   *zap.Logger
}

// New creates a Bridge.
func New(cfg Config, ws *workspace.Manager, log *zap.Logger) *Bridge {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.OutputBufferSize <= 0 {
		cfg.OutputBufferSize = DefaultOutputBufferSize
	}
	if cfg.Retry == (RetryConfig{}) {
		cfg.Retry = DefaultRetryConfig()
	}
	if ws == nil {
		ws = workspace.NewManager(workspace.Config{})
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{
		cfg:   cfg,
		procs: NewProcessManager(),
		guard: NewGuard(cfg.Retry, log),
		ws:    ws,
		log:   log,
	}
}

// Processes exposes the live process registry.
func (b *Bridge) Processes() *ProcessManager {
	return b.procs
}

// Guard exposes the breaker and retry layer, used by the toolchain check.
func (b *Bridge) Guard() *Guard {
	return b.guard
}

// Run executes the task's toolchain process to completion and returns the
// raw result. It never returns a Go error: start failures, timeouts, and
// missing binaries all come back as a ProcessResult describing them. Events
// for process start, each output line, and degradations are sent through
// emit; the caller owns the terminal completed event.
func (b *Bridge) Run(ctx context.Context, task *compile.Task, emit func(events.Event)) *ProcessResult {
	if emit == nil {
		emit = func(events.Event) {}
	}

	processID := uuid.NewString()
	startTime := time.Now()

	command := task.EffectiveCommand()
	args := BuildArgs(task)
	workDir := b.ws.Resolve(task.EffectiveWorkDir())

	if out := task.Config.OutputPath; out != "" {
		if !filepath.IsAbs(out) {
			out = filepath.Join(workDir, out)
		}
		if err := b.ws.PrepareOutput(out); err != nil {
			return b.startFailure(processID, task, startTime, err, emit)
		}
	}

	env := b.buildEnv(task)

	runCtx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	// The start closure builds a fresh command per attempt; a Cmd cannot be
	// started twice, so retries must not reuse one.
	var cmd *exec.Cmd
	var stdout, stderr io.ReadCloser
	start := func() error {
		c := newCommand(runCtx, command, args...)
		c.Dir = workDir
		c.Env = env

		outPipe, err := c.StdoutPipe()
		if err != nil {
			return fmt.Errorf("failed to create stdout pipe: %w", err)
		}
		errPipe, err := c.StderrPipe()
		if err != nil {
			return fmt.Errorf("failed to create stderr pipe: %w", err)
		}
		if err := c.Start(); err != nil {
			return fmt.Errorf("failed to start %s: %w", command, err)
		}
		cmd, stdout, stderr = c, outPipe, errPipe
		return nil
	}

	if err := b.guard.Start(runCtx, command, start); err != nil {
		return b.startFailure(processID, task, startTime, err, emit)
	}

	b.procs.Register(processID, task.ID, cmd)
	b.log.Debug("toolchain process started",
		zap.String("task_id", task.ID),
		zap.String("process_id", processID),
		zap.String("command", command),
		zap.Int("pid", cmd.Process.Pid))

	emit(events.TaskStartedEvent{
		ID:        task.ID,
		Name:      task.Name,
		Command:   Invocation(task),
		Timestamp: time.Now(),
	})

	// CommandContext only signals the direct child; the watchdog takes down
	// the whole group when the context ends.
	watchdogDone := make(chan struct{})
	go func() {
		select {
		case <-runCtx.Done():
			_ = killProcessGroup(cmd)
		case <-watchdogDone:
		}
	}()

	var outBuf, errBuf strings.Builder
	g := new(errgroup.Group)
	g.Go(func() error {
		return b.drain(stdout, "stdout", task.ID, &outBuf, emit)
	})
	g.Go(func() error {
		return b.drain(stderr, "stderr", task.ID, &errBuf, emit)
	})

	// Both pipes must be fully drained before Wait closes them.
	drainErr := g.Wait()
	waitErr := cmd.Wait()
	close(watchdogDone)
	b.procs.Unregister(processID, task.ID)

	if drainErr != nil {
		b.log.Warn("toolchain output truncated",
			zap.String("task_id", task.ID),
			zap.Error(drainErr))
	}

	exitCode := 0
	var peakKB int64
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
		if ru, ok := cmd.ProcessState.SysUsage().(*syscall.Rusage); ok && ru != nil {
			peakKB = ru.Maxrss // Linux reports Maxrss in kilobytes
		}
	}

	timedOut := errors.Is(runCtx.Err(), context.DeadlineExceeded)
	duration := time.Since(startTime)

	res := &ProcessResult{
		ProcessID:     processID,
		ExitCode:      exitCode,
		Stdout:        outBuf.String(),
		Stderr:        errBuf.String(),
		Success:       waitErr == nil && exitCode == 0 && !timedOut,
		ExecutionTime: duration,
		TimedOut:      timedOut,
		PeakMemoryKB:  peakKB,
	}

	switch {
	case timedOut:
		res.Error = fmt.Sprintf("compilation timed out after %s", b.cfg.Timeout)
		emit(events.TaskErrorEvent{
			ID:        task.ID,
			Stage:     events.ErrorStageTimeout,
			Message:   res.Error,
			Timestamp: time.Now(),
		})
	case waitErr != nil && !isExitError(waitErr):
		// Wait failed for a reason other than a nonzero exit; a nonzero
		// exit is a compile failure, which the diagnostics describe.
		res.Error = waitErr.Error()
	}

	b.log.Info("toolchain process finished",
		zap.String("task_id", task.ID),
		zap.Int("exit_code", exitCode),
		zap.Bool("success", res.Success),
		zap.Bool("timed_out", timedOut),
		zap.Duration("duration", duration))

	return res
}

// startFailure reports a process that never ran: missing binary, open
// breaker, unusable output directory, or cancellation during start.
func (b *Bridge) startFailure(processID string, task *compile.Task, startTime time.Time, err error, emit func(events.Event)) *ProcessResult {
	b.log.Error("toolchain process failed to start",
		zap.String("task_id", task.ID),
		zap.String("command", task.EffectiveCommand()),
		zap.Error(err))

	emit(events.TaskErrorEvent{
		ID:        task.ID,
		Stage:     events.ErrorStageStart,
		Message:   err.Error(),
		Timestamp: time.Now(),
	})

	return &ProcessResult{
		ProcessID:     processID,
		ExitCode:      -1,
		Success:       false,
		ExecutionTime: time.Since(startTime),
		Error:         err.Error(),
	}
}

// drain reads one output stream line by line, accumulating it and emitting
// an event per line with a per-stream line number.
func (b *Bridge) drain(r io.Reader, stream, taskID string, sink *strings.Builder, emit func(events.Event)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, b.cfg.OutputBufferSize), b.cfg.OutputBufferSize)

	n := 0
	for scanner.Scan() {
		line := scanner.Text()
		n++
		sink.WriteString(line)
		sink.WriteByte('\n')
		emit(events.TaskOutputEvent{
			ID:        taskID,
			Line:      line,
			Stream:    stream,
			LineNum:   n,
			Timestamp: time.Now(),
		})
	}
	if err := scanner.Err(); err != nil {
		// Keep the pipe moving so Wait can finish
		_, _ = io.Copy(io.Discard, r)
		return fmt.Errorf("%s read failed: %w", stream, err)
	}
	return nil
}

// buildEnv merges the process environment, the bridge defaults, and the
// task's overrides, later sources winning, and returns sorted KEY=value
// pairs so invocations are reproducible.
func (b *Bridge) buildEnv(task *compile.Task) []string {
	merged := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := strings.Index(kv, "="); i > 0 {
			merged[kv[:i]] = kv[i+1:]
		}
	}
	for k, v := range b.cfg.DefaultEnv {
		merged[k] = v
	}
	for k, v := range task.Env {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+merged[k])
	}
	return env
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
