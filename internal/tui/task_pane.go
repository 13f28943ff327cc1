package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/xzmaster54088/Codemate-Android-sub002/internal/events"
)

// TaskState tracks one compile task as seen through the event stream.
type TaskState struct {
	TaskID    string
	Name      string
	Language  string
	Priority  string
	Status    string // "queued", "running", "success", "failed", "cancelled"
	Output    []string
	StartTime time.Time
	Duration  time.Duration
	ExitCode  int
}

// TaskPaneModel represents the task list and output viewport pane.
type TaskPaneModel struct {
	tasks       map[string]*TaskState // taskID -> state
	taskOrder   []string              // insertion order for display
	selectedIdx int                   // which task is selected in list
	viewport    viewport.Model        // scrollable output viewport
	width       int
	height      int
	focused     bool
	updateTag   int // for debouncing
}

// NewTaskPaneModel creates a new task pane model.
func NewTaskPaneModel() TaskPaneModel {
	vp := viewport.New(0, 0)
	return TaskPaneModel{
		tasks:    make(map[string]*TaskState),
		viewport: vp,
	}
}

// tickMsg is used for debouncing viewport updates.
type tickMsg struct {
	tag int
}

// Update handles messages for the task pane.
func (m TaskPaneModel) Update(msg tea.Msg) (TaskPaneModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()

	case tea.KeyMsg:
		if !m.focused {
			break
		}

		switch msg.String() {
		case KeyJ, KeyDown:
			if m.selectedIdx < len(m.taskOrder)-1 {
				m.selectedIdx++
				m.updateViewportContent()
			}
		case KeyK, KeyUp:
			if m.selectedIdx > 0 {
				m.selectedIdx--
				m.updateViewportContent()
			}
		default:
			// Delegate other keys to viewport for scrolling
			m.viewport, cmd = m.viewport.Update(msg)
		}

	case events.TaskQueuedEvent:
		if _, exists := m.tasks[msg.ID]; !exists {
			m.tasks[msg.ID] = &TaskState{
				TaskID:   msg.ID,
				Name:     msg.Name,
				Language: msg.Language,
				Priority: msg.Priority,
				Status:   "queued",
				Output:   make([]string, 0),
			}
			m.taskOrder = append(m.taskOrder, msg.ID)
			// Auto-select first task
			if len(m.taskOrder) == 1 {
				m.selectedIdx = 0
				m.updateViewportContent()
			}
		}

	case events.TaskStartedEvent:
		// The queued event may have been missed if the monitor attached late
		task, exists := m.tasks[msg.ID]
		if !exists {
			task = &TaskState{
				TaskID: msg.ID,
				Name:   msg.Name,
				Output: make([]string, 0),
			}
			m.tasks[msg.ID] = task
			m.taskOrder = append(m.taskOrder, msg.ID)
			if len(m.taskOrder) == 1 {
				m.selectedIdx = 0
			}
		}
		task.Status = "running"
		task.StartTime = msg.Timestamp
		task.Output = append(task.Output, "$ "+msg.Command)
		if m.getSelectedTaskID() == msg.ID {
			m.updateViewportContent()
		}

	case events.TaskOutputEvent:
		// Append output to task
		if task, exists := m.tasks[msg.ID]; exists {
			task.Output = append(task.Output, msg.Line)
			// If this is the selected task, update viewport with debouncing
			if m.getSelectedTaskID() == msg.ID {
				m.updateTag++
				tag := m.updateTag
				return m, tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg {
					return tickMsg{tag: tag}
				})
			}
		}

	case events.TaskErrorEvent:
		if task, exists := m.tasks[msg.ID]; exists {
			task.Output = append(task.Output, fmt.Sprintf("\n[%s: %s]", msg.Stage, msg.Message))
			if m.getSelectedTaskID() == msg.ID {
				m.updateViewportContent()
			}
		}

	case events.TaskCompletedEvent:
		if task, exists := m.tasks[msg.ID]; exists {
			task.Status = strings.ToLower(msg.Status)
			task.Duration = msg.Duration
			task.ExitCode = msg.ExitCode
			switch task.Status {
			case "success":
				task.Output = append(task.Output, fmt.Sprintf("\n[Succeeded in %v]", msg.Duration))
			case "cancelled":
				task.Output = append(task.Output, fmt.Sprintf("\n[Cancelled after %v]", msg.Duration))
			default:
				task.Output = append(task.Output, fmt.Sprintf("\n[Failed with exit code %d in %v]", msg.ExitCode, msg.Duration))
			}
			if m.getSelectedTaskID() == msg.ID {
				m.updateViewportContent()
			}
		}

	case tickMsg:
		// Only update if this tick matches the current tag (debouncing)
		if msg.tag == m.updateTag {
			m.updateViewportContent()
		}
	}

	return m, cmd
}

// View renders the task pane.
func (m TaskPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	// Split into two columns: task list (left) and viewport (right)
	listWidth := 25
	viewportWidth := m.width - listWidth - 4 // account for borders and padding

	// Render task list
	listContent := m.renderTaskList(listWidth)

	// Render viewport
	viewportContent := m.viewport.View()

	// Join horizontally
	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		listContent,
		lipgloss.NewStyle().
			Width(viewportWidth).
			Height(m.height-2).
			Render(viewportContent),
	)

	// Apply border style
	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(content)
}

// DetailView renders a summary of the selected task for the detail pane.
func (m TaskPaneModel) DetailView(width, height int) string {
	var b strings.Builder

	title := StyleTitle.Render("Task Detail")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", lipgloss.Width(title)))
	b.WriteString("\n\n")

	task, exists := m.tasks[m.getSelectedTaskID()]
	if !exists {
		b.WriteString(StyleStatusPending.Render("No task selected"))
	} else {
		b.WriteString(fmt.Sprintf("Name:     %s\n", task.Name))
		if task.Language != "" {
			b.WriteString(fmt.Sprintf("Language: %s\n", task.Language))
		}
		if task.Priority != "" {
			b.WriteString(fmt.Sprintf("Priority: %s\n", task.Priority))
		}
		b.WriteString(fmt.Sprintf("Status:   %s %s\n", m.StatusIcon(task.Status), task.Status))
		if !task.StartTime.IsZero() {
			b.WriteString(fmt.Sprintf("Started:  %s\n", task.StartTime.Format("15:04:05")))
		}
		if task.Duration > 0 {
			b.WriteString(fmt.Sprintf("Duration: %v\n", task.Duration))
		}
		if task.Status == "success" || task.Status == "failed" {
			b.WriteString(fmt.Sprintf("Exit:     %d\n", task.ExitCode))
		}
	}

	return StyleUnfocusedBorder.
		Width(width - 2).
		Height(height - 2).
		Render(b.String())
}

// renderTaskList renders the task list column.
func (m TaskPaneModel) renderTaskList(width int) string {
	var b strings.Builder

	title := StyleTitle.Render("Tasks")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", min(width, lipgloss.Width(title))))
	b.WriteString("\n\n")

	if len(m.taskOrder) == 0 {
		b.WriteString(StyleStatusPending.Render("Waiting..."))
	} else {
		for i, taskID := range m.taskOrder {
			task := m.tasks[taskID]
			icon := m.StatusIcon(task.Status)
			name := task.Name
			if len(name) > width-6 {
				name = name[:width-9] + "..."
			}

			line := fmt.Sprintf("%s %s", icon, name)
			if i == m.selectedIdx {
				line = lipgloss.NewStyle().
					Background(lipgloss.Color("62")).
					Foreground(lipgloss.Color("0")).
					Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(m.height - 2).
		Render(b.String())
}

// StatusIcon returns a styled status indicator.
func (m TaskPaneModel) StatusIcon(status string) string {
	switch status {
	case "running":
		return StyleStatusRunning.Render("●")
	case "success":
		return StyleStatusSuccess.Render("✓")
	case "failed":
		return StyleStatusFailed.Render("✗")
	case "cancelled":
		return StyleStatusCancelled.Render("⊘")
	default:
		return StyleStatusPending.Render("○")
	}
}

// getSelectedTaskID returns the task ID of the currently selected task.
func (m TaskPaneModel) getSelectedTaskID() string {
	if m.selectedIdx >= 0 && m.selectedIdx < len(m.taskOrder) {
		return m.taskOrder[m.selectedIdx]
	}
	return ""
}

// updateViewportContent updates the viewport with the selected task's output.
func (m *TaskPaneModel) updateViewportContent() {
	taskID := m.getSelectedTaskID()
	if taskID == "" {
		m.viewport.SetContent("Waiting for tasks...")
		return
	}

	task, exists := m.tasks[taskID]
	if !exists {
		m.viewport.SetContent("Waiting for tasks...")
		return
	}

	content := strings.Join(task.Output, "\n")
	m.viewport.SetContent(content)
	// Auto-scroll to bottom
	m.viewport.GotoBottom()
}

// resizeViewport resizes the viewport based on pane dimensions.
func (m *TaskPaneModel) resizeViewport() {
	listWidth := 25
	viewportWidth := m.width - listWidth - 4
	viewportHeight := m.height - 4 // account for borders

	if viewportWidth < 10 {
		viewportWidth = 10
	}
	if viewportHeight < 5 {
		viewportHeight = 5
	}

	m.viewport.Width = viewportWidth
	m.viewport.Height = viewportHeight
}

// SetSize updates the pane dimensions.
func (m *TaskPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.resizeViewport()
}

// SetFocused updates the focus state.
func (m *TaskPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
