package scheduler

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xzmaster54088/Codemate-Android-sub002/internal/analyzer"
	"github.com/xzmaster54088/Codemate-Android-sub002/internal/compile"
)

// QueueStats is a point-in-time census of the queue.
type QueueStats struct {
	Total     int
	Pending   int
	Running   int
	Succeeded int
	Failed    int
	Cancelled int
}

// blockedTask pairs a dependent with the dependency that doomed it.
type blockedTask struct {
	ID        string
	DepID     string
	DepStatus compile.TaskStatus
}

// taskStore owns every task record plus its result and analysis. Task reads
// return clones because records mutate; results and analyses are immutable
// once set and are shared by pointer. Every status write goes through the
// guarded transition logic, and the scheduler is the sole caller of the
// write methods.
type taskStore struct {
	mu         sync.RWMutex
	tasks      map[string]*compile.Task
	results    map[string]*compile.Result
	analyses   map[string]*analyzer.Analysis
	dependents map[string][]string
	order      map[string]int // task id -> submission sequence
	seq        int
}

func newTaskStore() *taskStore {
	return &taskStore{
		tasks:      make(map[string]*compile.Task),
		results:    make(map[string]*compile.Result),
		analyses:   make(map[string]*analyzer.Analysis),
		dependents: make(map[string][]string),
		order:      make(map[string]int),
	}
}

// add registers one pending task. Dependencies must name already-registered
// tasks, which keeps the stored graph acyclic by construction.
func (st *taskStore) add(task *compile.Task) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.addLocked(task)
}

// addAll registers a batch atomically: either every task is accepted or none
// is. Tasks may depend on earlier entries of the same batch.
func (st *taskStore) addAll(tasks []*compile.Task) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	added := make([]string, 0, len(tasks))
	for _, task := range tasks {
		if err := st.addLocked(task); err != nil {
			for _, id := range added {
				st.removeLocked(id)
			}
			return err
		}
		added = append(added, task.ID)
	}
	return nil
}

func (st *taskStore) addLocked(task *compile.Task) error {
	if _, exists := st.tasks[task.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, task.ID)
	}
	for _, depID := range task.DependsOn {
		if _, ok := st.tasks[depID]; !ok {
			return fmt.Errorf("%w: task %s depends on %s", ErrUnknownDependency, task.ID, depID)
		}
	}

	st.tasks[task.ID] = task.Clone()
	st.seq++
	st.order[task.ID] = st.seq
	for _, depID := range task.DependsOn {
		st.dependents[depID] = append(st.dependents[depID], task.ID)
	}
	return nil
}

func (st *taskStore) removeLocked(id string) {
	task, ok := st.tasks[id]
	if !ok {
		return
	}
	for _, depID := range task.DependsOn {
		deps := st.dependents[depID]
		for i, d := range deps {
			if d == id {
				st.dependents[depID] = append(deps[:i], deps[i+1:]...)
				break
			}
		}
	}
	delete(st.tasks, id)
	delete(st.order, id)
}

// transition validates and applies one status change, stamping the start or
// finish time.
func (st *taskStore) transition(id string, to compile.TaskStatus) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	task, ok := st.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if !applyTransition(task, to) {
		return fmt.Errorf("invalid transition for task %s: %s -> %s", id, task.Status, to)
	}
	return nil
}

// transitionFrom applies from -> to only if the task currently is in from,
// so racing callers cannot act on a stale status read.
func (st *taskStore) transitionFrom(id string, from, to compile.TaskStatus) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	task, ok := st.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if task.Status != from {
		return fmt.Errorf("task %s is %s, not %s", id, task.Status, from)
	}
	if !applyTransition(task, to) {
		return fmt.Errorf("invalid transition for task %s: %s -> %s", id, task.Status, to)
	}
	return nil
}

func applyTransition(task *compile.Task, to compile.TaskStatus) bool {
	if !compile.CanTransition(task.Status, to) {
		return false
	}
	task.Status = to
	now := time.Now()
	switch {
	case to == compile.StatusRunning:
		task.StartedAt = now
	case to.IsTerminal():
		task.FinishedAt = now
	}
	return true
}

// recordExecution copies the captured process output onto the task record.
func (st *taskStore) recordExecution(id string, stdout, stderr string, exitCode int) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if task, ok := st.tasks[id]; ok {
		task.Stdout = stdout
		task.Stderr = stderr
		task.ExitCode = exitCode
	}
}

// eligible returns clones of the runnable pending tasks, highest priority
// first, submission order breaking ties.
func (st *taskStore) eligible() []*compile.Task {
	st.mu.RLock()
	defer st.mu.RUnlock()

	var out []*compile.Task
	for _, task := range st.tasks {
		if task.Status != compile.StatusPending {
			continue
		}
		ready := true
		for _, depID := range task.DependsOn {
			dep, ok := st.tasks[depID]
			if !ok || dep.Status != compile.StatusSuccess {
				ready = false
				break
			}
		}
		if ready {
			out = append(out, task.Clone())
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return st.order[out[i].ID] < st.order[out[j].ID]
	})
	return out
}

// failBlocked marks every pending task with a FAILED or CANCELLED dependency
// as FAILED, cascading transitively, and reports each short-circuited task
// in submission order.
func (st *taskStore) failBlocked() []blockedTask {
	st.mu.Lock()
	defer st.mu.Unlock()

	var out []blockedTask
	for {
		progressed := false
		for _, task := range st.tasks {
			if task.Status != compile.StatusPending {
				continue
			}
			for _, depID := range task.DependsOn {
				dep, ok := st.tasks[depID]
				if !ok {
					continue
				}
				if dep.Status == compile.StatusFailed || dep.Status == compile.StatusCancelled {
					if applyTransition(task, compile.StatusFailed) {
						out = append(out, blockedTask{ID: task.ID, DepID: depID, DepStatus: dep.Status})
						progressed = true
					}
					break
				}
			}
		}
		if !progressed {
			break
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return st.order[out[i].ID] < st.order[out[j].ID]
	})
	return out
}

func (st *taskStore) get(id string) (*compile.Task, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	task, ok := st.tasks[id]
	if !ok {
		return nil, false
	}
	return task.Clone(), true
}

func (st *taskStore) status(id string) (compile.TaskStatus, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	task, ok := st.tasks[id]
	if !ok {
		return 0, false
	}
	return task.Status, true
}

// all returns clones of every task in submission order.
func (st *taskStore) all() []*compile.Task {
	st.mu.RLock()
	defer st.mu.RUnlock()

	out := make([]*compile.Task, 0, len(st.tasks))
	for _, task := range st.tasks {
		out = append(out, task.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return st.order[out[i].ID] < st.order[out[j].ID]
	})
	return out
}

func (st *taskStore) setResult(id string, res *compile.Result) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.results[id] = res
}

func (st *taskStore) result(id string) (*compile.Result, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	res, ok := st.results[id]
	return res, ok
}

func (st *taskStore) setAnalysis(id string, a *analyzer.Analysis) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.analyses[id] = a
}

func (st *taskStore) analysis(id string) (*analyzer.Analysis, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	a, ok := st.analyses[id]
	return a, ok
}

func (st *taskStore) stats() QueueStats {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s := QueueStats{Total: len(st.tasks)}
	for _, task := range st.tasks {
		switch task.Status {
		case compile.StatusPending:
			s.Pending++
		case compile.StatusRunning:
			s.Running++
		case compile.StatusSuccess:
			s.Succeeded++
		case compile.StatusFailed:
			s.Failed++
		case compile.StatusCancelled:
			s.Cancelled++
		}
	}
	return s
}
