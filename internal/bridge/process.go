package bridge

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"syscall"
)

// newCommand creates an exec.Cmd with process group isolation. Setpgid puts
// the toolchain in its own process group so the whole subprocess tree can be
// terminated in one signal.
func newCommand(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
	return cmd
}

// killProcessGroup sends SIGKILL to the command's entire process group.
// Arbitrary toolchains cannot be assumed to shut down gracefully.
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return fmt.Errorf("process not started")
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		return fmt.Errorf("failed to kill process group: %w", err)
	}
	return nil
}

// ProcessManager tracks live toolchain processes under their generated
// process ids so they can be cancelled individually, per task, or all at
// once on shutdown.
type ProcessManager struct {
	mu     sync.Mutex
	procs  map[string]*exec.Cmd // process id -> live command
	byTask map[string]string    // task id -> process id
}

// NewProcessManager creates an empty registry.
func NewProcessManager() *ProcessManager {
	return &ProcessManager{
		procs:  make(map[string]*exec.Cmd),
		byTask: make(map[string]string),
	}
}

// Register tracks a started process. Call after cmd.Start() succeeds.
func (pm *ProcessManager) Register(processID, taskID string, cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.procs[processID] = cmd
	pm.byTask[taskID] = processID
}

// Unregister releases a process entry. Call after cmd.Wait() returns.
func (pm *ProcessManager) Unregister(processID, taskID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.procs, processID)
	if pm.byTask[taskID] == processID {
		delete(pm.byTask, taskID)
	}
}

// Kill force-terminates one process by its generated id.
func (pm *ProcessManager) Kill(processID string) bool {
	pm.mu.Lock()
	cmd, ok := pm.procs[processID]
	pm.mu.Unlock()
	if !ok {
		return false
	}
	return killProcessGroup(cmd) == nil
}

// KillTask force-terminates the live process of a task, if any.
func (pm *ProcessManager) KillTask(taskID string) bool {
	pm.mu.Lock()
	processID, ok := pm.byTask[taskID]
	pm.mu.Unlock()
	if !ok {
		return false
	}
	return pm.Kill(processID)
}

// KillAll terminates every tracked process. Called during shutdown.
func (pm *ProcessManager) KillAll() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	var errs []error
	for id, cmd := range pm.procs {
		if err := killProcessGroup(cmd); err != nil {
			errs = append(errs, fmt.Errorf("failed to kill process %s: %w", id, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors killing processes: %v", errs)
	}
	return nil
}

// Count returns the number of currently tracked processes.
func (pm *ProcessManager) Count() int {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return len(pm.procs)
}
