package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/xzmaster54088/Codemate-Android-sub002/internal/config"
	"github.com/xzmaster54088/Codemate-Android-sub002/internal/events"
)

// PaneID identifies which pane is focused.
type PaneID int

const (
	PaneTaskList PaneID = iota
	PaneTaskOutput
	PaneQueue
)

// Model is the root Bubble Tea model for the monitor.
type Model struct {
	taskPane          TaskPaneModel
	queuePane         QueuePaneModel
	settingsPane      SettingsPaneModel
	focusedPane       PaneID
	eventSub          <-chan events.Event
	width             int
	height            int
	quitting          bool
	showSettings      bool
	config            *config.Config
	globalConfigPath  string
	projectConfigPath string
}

// New creates a new monitor model.
// It subscribes to all events from the event bus using SubscribeAll.
func New(eventBus *events.EventBus, cfg *config.Config, globalPath, projectPath string) Model {
	return Model{
		taskPane:          NewTaskPaneModel(),
		queuePane:         NewQueuePaneModel(),
		settingsPane:      NewSettingsPaneModel(cfg, globalPath, projectPath),
		focusedPane:       PaneTaskList,
		eventSub:          eventBus.SubscribeAll(256),
		showSettings:      false,
		config:            cfg,
		globalConfigPath:  globalPath,
		projectConfigPath: projectPath,
	}
}

// Init initializes the model and returns the initial command.
func (m Model) Init() tea.Cmd {
	return waitForEvent(m.eventSub)
}

// waitForEvent returns a command that waits for the next event from the event bus.
func waitForEvent(sub <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub
		if !ok {
			return nil // bus closed
		}
		return event
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// If settings panel is open, route all keys to it (modal behavior)
		if m.showSettings {
			switch msg.String() {
			case "s", "esc":
				// Toggle settings off
				m.showSettings = false
				m.settingsPane.SetVisible(false)
			default:
				// Route to settings pane
				var cmd tea.Cmd
				m.settingsPane, cmd = m.settingsPane.Update(msg)
				cmds = append(cmds, cmd)

				// Check if settings pane closed itself (after save)
				if !m.settingsPane.IsVisible() {
					m.showSettings = false
				}
			}
			return m, tea.Batch(cmds...)
		}

		// Normal mode (settings not open)
		switch msg.String() {
		case KeyQuit, KeyCtrlC:
			m.quitting = true
			return m, tea.Quit

		case KeySettings:
			// Toggle settings on
			m.showSettings = true
			m.settingsPane.SetVisible(true)
			cmds = append(cmds, m.settingsPane.Init())

		case KeyTab:
			// Cycle forward
			m.focusedPane = (m.focusedPane + 1) % 3
			m.updateFocusStates()

		case KeyShiftTab:
			// Cycle backward
			m.focusedPane = (m.focusedPane + 2) % 3 // +2 is equivalent to -1 mod 3
			m.updateFocusStates()

		case KeyPane1:
			m.focusedPane = PaneTaskList
			m.updateFocusStates()

		case KeyPane2:
			m.focusedPane = PaneTaskOutput
			m.updateFocusStates()

		case KeyPane3:
			m.focusedPane = PaneQueue
			m.updateFocusStates()

		default:
			// Delegate to focused pane
			switch m.focusedPane {
			case PaneTaskList, PaneTaskOutput:
				var cmd tea.Cmd
				m.taskPane, cmd = m.taskPane.Update(msg)
				cmds = append(cmds, cmd)
			case PaneQueue:
				var cmd tea.Cmd
				m.queuePane, cmd = m.queuePane.Update(msg)
				cmds = append(cmds, cmd)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.computeLayout()
		m.settingsPane.SetSize(msg.Width, msg.Height)

	case events.TaskQueuedEvent, events.TaskStartedEvent, events.TaskOutputEvent,
		events.TaskErrorEvent, events.TaskCompletedEvent:
		// Forward task events to the task pane
		var cmd tea.Cmd
		m.taskPane, cmd = m.taskPane.Update(msg)
		cmds = append(cmds, cmd)
		// Also wait for next event
		cmds = append(cmds, waitForEvent(m.eventSub))

	case events.QueueProgressEvent:
		// Forward queue census to the queue pane
		var cmd tea.Cmd
		m.queuePane, cmd = m.queuePane.Update(msg)
		cmds = append(cmds, cmd)
		// Also wait for next event
		cmds = append(cmds, waitForEvent(m.eventSub))
	}

	return m, tea.Batch(cmds...)
}

// View renders the monitor.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	// If settings panel is visible, render it as overlay
	if m.showSettings {
		return m.settingsPane.View()
	}

	// Compute layout dimensions
	leftWidth := (m.width * 35) / 100 // 35% for task pane
	rightWidth := m.width - leftWidth // 65% for detail + queue
	availableHeight := m.height - 1   // reserve 1 line for help bar
	rightTopHeight := (availableHeight * 70) / 100

	// Render left pane (task list + output combined)
	leftPane := m.taskPane.View()

	// Render right-top pane (selected task detail)
	rightTop := m.taskPane.DetailView(rightWidth, rightTopHeight)

	// Render right-bottom pane (queue progress)
	rightBottom := m.queuePane.View()

	// Join right panes vertically
	rightPane := lipgloss.JoinVertical(lipgloss.Left, rightTop, rightBottom)

	// Join left and right horizontally
	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	// Add help bar at bottom
	helpBar := HelpView()

	// Join main content and help bar vertically
	return lipgloss.JoinVertical(lipgloss.Left, mainContent, helpBar)
}

// computeLayout calculates pane dimensions and updates all child models.
func (m *Model) computeLayout() {
	leftWidth := (m.width * 35) / 100
	rightWidth := m.width - leftWidth
	availableHeight := m.height - 1
	rightTopHeight := (availableHeight * 70) / 100
	rightBottomHeight := availableHeight - rightTopHeight

	// Task pane takes the full left side
	m.taskPane.SetSize(leftWidth, availableHeight)

	// Queue pane takes right-bottom; the detail pane is sized at render time
	m.queuePane.SetSize(rightWidth, rightBottomHeight)

	m.updateFocusStates()
}

// updateFocusStates updates the focus state of all panes.
func (m *Model) updateFocusStates() {
	// The task pane owns both the list and the output viewport
	m.taskPane.SetFocused(m.focusedPane == PaneTaskList || m.focusedPane == PaneTaskOutput)
	m.queuePane.SetFocused(m.focusedPane == PaneQueue)
}
