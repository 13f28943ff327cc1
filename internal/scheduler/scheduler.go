package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xzmaster54088/Codemate-Android-sub002/internal/analyzer"
	"github.com/xzmaster54088/Codemate-Android-sub002/internal/bridge"
	"github.com/xzmaster54088/Codemate-Android-sub002/internal/compile"
	"github.com/xzmaster54088/Codemate-Android-sub002/internal/events"
	"github.com/xzmaster54088/Codemate-Android-sub002/internal/parser"
	"github.com/xzmaster54088/Codemate-Android-sub002/internal/workspace"
)

// Scheduler API errors, compared with errors.Is.
var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrDuplicateTask     = errors.New("duplicate task id")
	ErrUnknownDependency = errors.New("unknown dependency")
	ErrCyclicPlan        = errors.New("plan contains a dependency cycle")
	ErrQueueClosed       = errors.New("scheduler is shut down")
)

// Config tunes the scheduler.
type Config struct {
	MaxConcurrent int // Simultaneous toolchain processes; default NumCPU
}

// Runner launches one task's toolchain process. *bridge.Bridge implements
// it; tests substitute their own.
type Runner interface {
	Run(ctx context.Context, task *compile.Task, emit func(events.Event)) *bridge.ProcessResult
}

// Options carries the scheduler's collaborators. Nil fields get working
// defaults.
type Options struct {
	Config    Config
	Runner    Runner
	Parser    *parser.Parser
	Analyzer  *analyzer.Analyzer
	Workspace *workspace.Manager
	Bus       *events.EventBus
	Logger    *zap.Logger
}

// Scheduler owns the task queue: it accepts submissions, dispatches eligible
// tasks to the Runner under the concurrency bound, assembles results from
// process output, and publishes lifecycle events. It is the sole writer of
// task status.
type Scheduler struct {
	cfg      Config
	runner   Runner
	parser   *parser.Parser
	analyzer *analyzer.Analyzer
	ws       *workspace.Manager
	bus      *events.EventBus
	log      *zap.Logger

	store   *taskStore
	waiters *waiterRegistry
	locks   *PathLocks

	kick     chan struct{}
	group    *errgroup.Group
	loopDone chan struct{}

	// inflight counts tasks between dispatch and process exit. Only the
	// dispatch goroutine increments, so checking before incrementing never
	// over-admits. It is deliberately not the errgroup limit: a worker's
	// slot frees at process exit so parsing and analysis overlap new
	// launches, which SetLimit's at-return accounting cannot express.
	inflight atomic.Int32

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	started bool
	closed  bool
	stop    context.CancelFunc
}

// New creates a Scheduler. Call Start before submitting work that should
// execute; submissions made earlier dispatch on the first tick.
func New(opts Options) *Scheduler {
	cfg := opts.Config
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = runtime.NumCPU()
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	ws := opts.Workspace
	if ws == nil {
		ws = workspace.NewManager(workspace.Config{})
	}
	p := opts.Parser
	if p == nil {
		p = parser.NewParser()
	}
	a := opts.Analyzer
	if a == nil {
		a = analyzer.New(log)
	}
	bus := opts.Bus
	if bus == nil {
		bus = events.NewEventBus()
	}
	runner := opts.Runner
	if runner == nil {
		runner = bridge.New(bridge.DefaultConfig(), ws, log)
	}

	return &Scheduler{
		cfg:      cfg,
		runner:   runner,
		parser:   p,
		analyzer: a,
		ws:       ws,
		bus:      bus,
		log:      log,
		store:    newTaskStore(),
		waiters:  newWaiterRegistry(),
		locks:    NewPathLocks(),
		kick:     make(chan struct{}, 1),
		group:    new(errgroup.Group),
		loopDone: make(chan struct{}),
		cancels:  make(map[string]context.CancelFunc),
	}
}

// Bus exposes the event bus for monitors.
func (s *Scheduler) Bus() *events.EventBus {
	return s.bus
}

// Start launches the dispatch loop under ctx. Idempotent.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	runCtx, stop := context.WithCancel(ctx)
	s.stop = stop
	s.mu.Unlock()

	go s.loop(runCtx)
	s.kickDispatch()
}

// Shutdown stops accepting submissions, cancels every running process, and
// waits for in-flight workers within ctx. The event bus closes last so
// terminal events still reach observers.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	started := s.started
	stop := s.stop
	s.mu.Unlock()

	if stop != nil {
		stop()
	}

	done := make(chan struct{})
	go func() {
		if started {
			<-s.loopDone
		}
		_ = s.group.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("shutdown interrupted: %w", ctx.Err())
	}

	s.bus.Close()
	s.log.Info("scheduler stopped")
	return nil
}

// Submit accepts one task into the queue and returns its id. Dependencies
// must reference already-submitted tasks.
func (s *Scheduler) Submit(task *compile.Task) (string, error) {
	if task == nil {
		return "", fmt.Errorf("nil task")
	}

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return "", ErrQueueClosed
	}

	t := task.Clone()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	t.Status = compile.StatusPending

	if err := s.store.add(t); err != nil {
		return "", err
	}

	s.log.Info("task submitted",
		zap.String("task_id", t.ID),
		zap.String("name", t.Name),
		zap.String("language", t.Language.String()),
		zap.String("priority", t.Priority.String()),
		zap.Int("dependencies", len(t.DependsOn)))

	s.publish(t.ID, events.TaskQueuedEvent{
		ID:        t.ID,
		Name:      t.Name,
		Language:  t.Language.String(),
		Priority:  t.Priority.String(),
		Timestamp: time.Now(),
	})
	s.publishProgress()
	s.kickDispatch()
	return t.ID, nil
}

// SubmitPlan validates and submits a whole build plan atomically: a plan
// with cycles, unknown references or malformed units enqueues nothing.
// Returned ids follow the plan's unit order.
func (s *Scheduler) SubmitPlan(p *Plan) ([]string, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrQueueClosed
	}

	order, err := p.Validate()
	if err != nil {
		return nil, err
	}

	root := s.ws.Resolve(p.ProjectRoot)
	units := p.unitByName()
	ids := make(map[string]string, len(order))
	tasks := make([]*compile.Task, 0, len(order))
	for _, name := range order {
		u := units[name]
		task, err := u.buildTask(root, ids)
		if err != nil {
			return nil, fmt.Errorf("plan unit %q: %w", name, err)
		}
		ids[name] = task.ID
		tasks = append(tasks, task)
	}

	if err := s.store.addAll(tasks); err != nil {
		return nil, err
	}

	s.log.Info("plan submitted",
		zap.String("plan", p.Name),
		zap.Int("units", len(tasks)))

	out := make([]string, 0, len(p.Units))
	for _, u := range p.Units {
		id := ids[u.Name]
		out = append(out, id)
		task, _ := s.store.get(id)
		s.publish(id, events.TaskQueuedEvent{
			ID:        id,
			Name:      u.Name,
			Language:  task.Language.String(),
			Priority:  task.Priority.String(),
			Timestamp: time.Now(),
		})
	}
	s.publishProgress()
	s.kickDispatch()
	return out, nil
}

// Cancel cancels a task. A pending task transitions directly to CANCELLED;
// a running task has its process group killed and reaches CANCELLED when the
// worker observes the dead process. Terminal and unknown tasks return false.
func (s *Scheduler) Cancel(id string) bool {
	for {
		status, ok := s.store.status(id)
		if !ok {
			return false
		}

		switch status {
		case compile.StatusPending:
			if err := s.store.transitionFrom(id, compile.StatusPending, compile.StatusCancelled); err != nil {
				// Dispatched in the race window; re-read and retry
				continue
			}
			s.log.Info("pending task cancelled", zap.String("task_id", id))
			s.finishCancelledPending(id)
			s.kickDispatch()
			return true

		case compile.StatusRunning:
			s.mu.Lock()
			cancel := s.cancels[id]
			s.mu.Unlock()
			if cancel == nil {
				// Process already exited; too late to cancel
				return false
			}
			s.log.Info("cancelling running task", zap.String("task_id", id))
			cancel()
			return true

		default:
			return false
		}
	}
}

// Status returns the task's current status.
func (s *Scheduler) Status(id string) (compile.TaskStatus, bool) {
	return s.store.status(id)
}

// Task returns a copy of the task record.
func (s *Scheduler) Task(id string) (*compile.Task, bool) {
	return s.store.get(id)
}

// Tasks returns copies of every known task in submission order.
func (s *Scheduler) Tasks() []*compile.Task {
	return s.store.all()
}

// Result returns the task's result once terminal.
func (s *Scheduler) Result(id string) (*compile.Result, bool) {
	return s.store.result(id)
}

// Analysis returns the task's analysis once terminal.
func (s *Scheduler) Analysis(id string) (*analyzer.Analysis, bool) {
	return s.store.analysis(id)
}

// Stats returns the queue census.
func (s *Scheduler) Stats() QueueStats {
	return s.store.stats()
}

// Observe subscribes to one task's event stream. The channel closes after
// the terminal event.
func (s *Scheduler) Observe(id string, bufSize int) <-chan events.Event {
	return s.bus.Subscribe(events.TaskTopic(id), bufSize)
}

// ObserveQueue subscribes to aggregate queue progress.
func (s *Scheduler) ObserveQueue(bufSize int) <-chan events.Event {
	return s.bus.Subscribe(events.TopicQueue, bufSize)
}

// ObserveAll subscribes to every event, for the monitor.
func (s *Scheduler) ObserveAll(bufSize int) <-chan events.Event {
	return s.bus.SubscribeAll(bufSize)
}

// WaitResult blocks until the task is terminal and returns its result.
func (s *Scheduler) WaitResult(ctx context.Context, id string) (*compile.Result, error) {
	if _, ok := s.store.status(id); !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if res, ok := s.store.result(id); ok {
		return res, nil
	}

	ch := s.waiters.wait(id)
	// The result may have landed between the check and the registration
	if res, ok := s.store.result(id); ok {
		s.waiters.drop(id, ch)
		return res, nil
	}

	select {
	case res := <-ch:
		return res, nil
	case <-ctx.Done():
		s.waiters.drop(id, ch)
		return nil, ctx.Err()
	}
}

func (s *Scheduler) kickDispatch() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.loopDone)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.kick:
		}
		s.dispatch(ctx)
	}
}

// dispatch is called only from the loop goroutine: it cascades dependency
// failures, then starts eligible tasks while process slots remain.
func (s *Scheduler) dispatch(ctx context.Context) {
	for _, b := range s.store.failBlocked() {
		s.finishBlocked(b)
	}

	for _, task := range s.store.eligible() {
		if ctx.Err() != nil {
			return
		}
		if int(s.inflight.Load()) >= s.cfg.MaxConcurrent {
			return
		}

		// The cancel func registers before the RUNNING transition, so any
		// caller that observes RUNNING can reach it
		taskCtx, cancel := context.WithCancel(ctx)
		s.mu.Lock()
		s.cancels[task.ID] = cancel
		s.mu.Unlock()

		if err := s.store.transitionFrom(task.ID, compile.StatusPending, compile.StatusRunning); err != nil {
			// Cancelled between the scan and this tick
			s.mu.Lock()
			delete(s.cancels, task.ID)
			s.mu.Unlock()
			cancel()
			continue
		}
		s.inflight.Add(1)
		s.publishProgress()

		t := task
		s.group.Go(func() error {
			s.runTask(taskCtx, cancel, t)
			return nil
		})
	}
}

// runTask drives one dispatched task end to end: process run under the
// output-path lock, slot release at process exit, then result assembly.
func (s *Scheduler) runTask(taskCtx context.Context, cancel context.CancelFunc, task *compile.Task) {
	lockPaths := s.outputKey(task)
	s.locks.LockAll(lockPaths)

	pres := s.runner.Run(taskCtx, task, func(e events.Event) {
		s.publish(task.ID, e)
	})

	s.locks.UnlockAll(lockPaths)

	// Slot frees here, before parse and analysis, so the queue keeps moving
	// while this result is assembled
	s.inflight.Add(-1)
	s.kickDispatch()

	cancelled := taskCtx.Err() != nil && !pres.TimedOut
	s.mu.Lock()
	delete(s.cancels, task.ID)
	s.mu.Unlock()
	cancel()

	s.finish(task, pres, cancelled)
	s.kickDispatch()
}

// finish turns a raw process result into the task's terminal state: parsed
// diagnostics, dependency graph, metrics, analysis, stored result, waiter
// resolution, and the single completed event.
func (s *Scheduler) finish(task *compile.Task, pres *bridge.ProcessResult, cancelled bool) {
	parsed := s.parser.Parse(pres.Stdout, pres.Stderr, task.Language)
	workDir := s.ws.Resolve(task.EffectiveWorkDir())
	sources := s.ws.ReadSources(workDir, task.Sources)
	deps := s.analyzer.AnalyzeDependencies(task.Language, sources)

	diags := parsed.Diagnostics()
	if pres.Error != "" {
		// Timeout or start failure: surfaced as a fatal diagnostic so the
		// result explains itself
		diags = append(diags, compile.CompileError{
			Message:  pres.Error,
			Severity: compile.SeverityFatal,
		})
	}

	success := pres.Success && parsed.Success && !cancelled

	totalLines := workspace.TotalLines(sources)
	speed := 0.0
	if secs := pres.ExecutionTime.Seconds(); secs > 0 {
		speed = float64(totalLines) / secs
	}

	var artifacts []string
	if out := s.absOutput(task, workDir); out != "" && success {
		if _, err := os.Stat(out); err == nil {
			artifacts = append(artifacts, out)
		}
	}

	res := &compile.Result{
		TaskID:        task.ID,
		Success:       success,
		Artifacts:     artifacts,
		Diagnostics:   diags,
		ExecutionTime: pres.ExecutionTime,
		PeakMemoryKB:  pres.PeakMemoryKB,
		Metrics: compile.PerformanceMetrics{
			CompilationTime:  pres.ExecutionTime,
			FilesProcessed:   len(task.Sources),
			LinesProcessed:   totalLines,
			ModulesCount:     deps.ModulesCount,
			CompilationSpeed: speed,
		},
		Graph:     deps.Graph,
		CreatedAt: time.Now(),
	}

	final := compile.StatusFailed
	switch {
	case cancelled:
		final = compile.StatusCancelled
	case success:
		final = compile.StatusSuccess
	}

	s.store.recordExecution(task.ID, pres.Stdout, pres.Stderr, pres.ExitCode)
	if err := s.store.transition(task.ID, final); err != nil {
		s.log.Warn("terminal transition rejected",
			zap.String("task_id", task.ID),
			zap.Error(err))
	}

	analysis := s.analyzer.Analyze(res, task, sources)
	s.store.setResult(task.ID, res)
	s.store.setAnalysis(task.ID, analysis)
	s.waiters.resolve(task.ID, res)

	s.log.Info("task finished",
		zap.String("task_id", task.ID),
		zap.String("status", final.String()),
		zap.Int("exit_code", pres.ExitCode),
		zap.Int("errors", len(parsed.Errors)),
		zap.Int("warnings", len(parsed.Warnings)),
		zap.Duration("duration", pres.ExecutionTime))

	s.publish(task.ID, events.TaskCompletedEvent{
		ID:        task.ID,
		Status:    final.String(),
		ExitCode:  pres.ExitCode,
		Success:   success,
		Duration:  pres.ExecutionTime,
		Timestamp: time.Now(),
	})
	s.publishProgress()
	s.bus.CloseTopic(events.TaskTopic(task.ID))
}

// finishBlocked records the terminal state of a task whose dependency ended
// FAILED or CANCELLED. The store already marked it FAILED.
func (s *Scheduler) finishBlocked(b blockedTask) {
	msg := fmt.Sprintf("dependency %s %s", b.DepID, strings.ToLower(b.DepStatus.String()))

	res := &compile.Result{
		TaskID:  b.ID,
		Success: false,
		Diagnostics: []compile.CompileError{{
			Message:  msg,
			Severity: compile.SeverityFatal,
		}},
		CreatedAt: time.Now(),
	}

	s.store.recordExecution(b.ID, "", "", -1)
	s.store.setResult(b.ID, res)
	s.waiters.resolve(b.ID, res)

	s.log.Info("task blocked by dependency",
		zap.String("task_id", b.ID),
		zap.String("dependency", b.DepID),
		zap.String("dependency_status", b.DepStatus.String()))

	now := time.Now()
	s.publish(b.ID, events.TaskErrorEvent{
		ID:        b.ID,
		Stage:     events.ErrorStageDependency,
		Message:   msg,
		Timestamp: now,
	})
	s.publish(b.ID, events.TaskCompletedEvent{
		ID:        b.ID,
		Status:    compile.StatusFailed.String(),
		ExitCode:  -1,
		Success:   false,
		Timestamp: now,
	})
	s.publishProgress()
	s.bus.CloseTopic(events.TaskTopic(b.ID))
}

// finishCancelledPending records the terminal state of a task cancelled
// before it ever ran.
func (s *Scheduler) finishCancelledPending(id string) {
	res := &compile.Result{
		TaskID:    id,
		Success:   false,
		CreatedAt: time.Now(),
	}

	s.store.recordExecution(id, "", "", -1)
	s.store.setResult(id, res)
	s.waiters.resolve(id, res)

	s.publish(id, events.TaskCompletedEvent{
		ID:        id,
		Status:    compile.StatusCancelled.String(),
		ExitCode:  -1,
		Success:   false,
		Timestamp: time.Now(),
	})
	s.publishProgress()
	s.bus.CloseTopic(events.TaskTopic(id))
}

func (s *Scheduler) publish(taskID string, e events.Event) {
	s.bus.Publish(events.TaskTopic(taskID), e)
}

func (s *Scheduler) publishProgress() {
	st := s.store.stats()
	s.bus.Publish(events.TopicQueue, events.QueueProgressEvent{
		Total:     st.Total,
		Pending:   st.Pending,
		Running:   st.Running,
		Succeeded: st.Succeeded,
		Failed:    st.Failed,
		Cancelled: st.Cancelled,
		Timestamp: time.Now(),
	})
}

// outputKey returns the lock key for the task's artifact path, absolute so
// tasks naming the same file through different working directories collide.
func (s *Scheduler) outputKey(task *compile.Task) []string {
	out := s.absOutput(task, s.ws.Resolve(task.EffectiveWorkDir()))
	if out == "" {
		return nil
	}
	return []string{out}
}

func (s *Scheduler) absOutput(task *compile.Task, workDir string) string {
	out := task.Config.OutputPath
	if out == "" {
		return ""
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(workDir, out)
	}
	return out
}
