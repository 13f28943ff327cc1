package compile

import (
	"testing"
)

// TestCanTransition tests the status machine against the full transition table.
func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from TaskStatus
		to   TaskStatus
		want bool
	}{
		{"pending to running", StatusPending, StatusRunning, true},
		{"pending to failed (dependency short-circuit)", StatusPending, StatusFailed, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"pending to success skips running", StatusPending, StatusSuccess, false},
		{"running to success", StatusRunning, StatusSuccess, true},
		{"running to failed", StatusRunning, StatusFailed, true},
		{"running to cancelled", StatusRunning, StatusCancelled, true},
		{"running back to pending", StatusRunning, StatusPending, false},
		{"success is terminal", StatusSuccess, StatusRunning, false},
		{"failed is terminal", StatusFailed, StatusPending, false},
		{"cancelled is terminal", StatusCancelled, StatusRunning, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%v, %v) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

// TestIsTerminal verifies exactly the three terminal statuses report terminal.
func TestIsTerminal(t *testing.T) {
	terminal := map[TaskStatus]bool{
		StatusPending:   false,
		StatusRunning:   false,
		StatusSuccess:   true,
		StatusFailed:    true,
		StatusCancelled: true,
	}

	for status, want := range terminal {
		if got := status.IsTerminal(); got != want {
			t.Errorf("%v.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}

// TestNewTaskDefaults verifies generated IDs and initial state.
func TestNewTaskDefaults(t *testing.T) {
	task := NewTask("/proj", []string{"main.c"}, LangC)

	if task.ID == "" {
		t.Error("NewTask() did not generate an ID")
	}
	if task.Status != StatusPending {
		t.Errorf("NewTask() status = %v, want %v", task.Status, StatusPending)
	}
	if task.Priority != PriorityNormal {
		t.Errorf("NewTask() priority = %v, want %v", task.Priority, PriorityNormal)
	}
	if task.CreatedAt.IsZero() {
		t.Error("NewTask() did not set CreatedAt")
	}

	other := NewTask("/proj", []string{"main.c"}, LangC)
	if other.ID == task.ID {
		t.Errorf("NewTask() generated duplicate ID %q", task.ID)
	}
}

// TestTaskClone verifies clones share no mutable state with the original.
func TestTaskClone(t *testing.T) {
	task := NewTask("/proj", []string{"a.c", "b.c"}, LangC)
	task.DependsOn = []string{"dep-1"}
	task.Env = map[string]string{"CC": "gcc"}
	task.Config.IncludePaths = []string{"/usr/include"}
	task.Config.Defines = map[string]string{"DEBUG": "1"}

	clone := task.Clone()

	clone.Sources[0] = "changed.c"
	clone.DependsOn[0] = "changed"
	clone.Env["CC"] = "clang"
	clone.Config.IncludePaths[0] = "/changed"
	clone.Config.Defines["DEBUG"] = "0"

	if task.Sources[0] != "a.c" {
		t.Errorf("clone mutation leaked into Sources: %q", task.Sources[0])
	}
	if task.DependsOn[0] != "dep-1" {
		t.Errorf("clone mutation leaked into DependsOn: %q", task.DependsOn[0])
	}
	if task.Env["CC"] != "gcc" {
		t.Errorf("clone mutation leaked into Env: %q", task.Env["CC"])
	}
	if task.Config.IncludePaths[0] != "/usr/include" {
		t.Errorf("clone mutation leaked into IncludePaths: %q", task.Config.IncludePaths[0])
	}
	if task.Config.Defines["DEBUG"] != "1" {
		t.Errorf("clone mutation leaked into Defines: %q", task.Config.Defines["DEBUG"])
	}
}

// TestEffectiveWorkDir verifies the working-directory fallback to project root.
func TestEffectiveWorkDir(t *testing.T) {
	task := NewTask("/proj", []string{"main.c"}, LangC)
	if got := task.EffectiveWorkDir(); got != "/proj" {
		t.Errorf("EffectiveWorkDir() = %q, want %q", got, "/proj")
	}

	task.WorkDir = "/proj/build"
	if got := task.EffectiveWorkDir(); got != "/proj/build" {
		t.Errorf("EffectiveWorkDir() = %q, want %q", got, "/proj/build")
	}
}

// TestEffectiveCommand verifies command override beats the language default.
func TestEffectiveCommand(t *testing.T) {
	task := NewTask("/proj", []string{"main.c"}, LangC)
	if got := task.EffectiveCommand(); got != "gcc" {
		t.Errorf("EffectiveCommand() = %q, want %q", got, "gcc")
	}

	task.Config.Command = "clang"
	if got := task.EffectiveCommand(); got != "clang" {
		t.Errorf("EffectiveCommand() = %q, want %q", got, "clang")
	}
}

// TestOptimizationFlag verifies the GCC-style flag translation.
func TestOptimizationFlag(t *testing.T) {
	tests := []struct {
		level OptimizationLevel
		want  string
	}{
		{OptimizationNone, "-O0"},
		{OptimizationBasic, "-O1"},
		{OptimizationStandard, "-O2"},
		{OptimizationAggressive, "-O3"},
	}

	for _, tt := range tests {
		if got := tt.level.Flag(); got != tt.want {
			t.Errorf("%v.Flag() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

// TestParsePriority covers names, case folding, and the empty default.
func TestParsePriority(t *testing.T) {
	tests := []struct {
		in     string
		want   Priority
		wantOK bool
	}{
		{"low", PriorityLow, true},
		{"NORMAL", PriorityNormal, true},
		{"", PriorityNormal, true},
		{"High", PriorityHigh, true},
		{"critical", PriorityCritical, true},
		{"urgent", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParsePriority(tt.in)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("ParsePriority(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
