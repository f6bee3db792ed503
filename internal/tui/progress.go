package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/agentlabs/internal/api"
	"github.com/ShayCichocki/agentlabs/internal/crew"
	"github.com/ShayCichocki/agentlabs/pkg/models"
)

const maxLogLines = 8

// TaskRow is one task line in the progress view.
type TaskRow struct {
	Name     string
	Agent    string
	Status   models.TaskStatus
	Duration time.Duration
	started  time.Time
}

// LogEntry is a line in the activity log.
type LogEntry struct {
	Timestamp time.Time
	Message   string
}

// EventMsg carries a crew event into the program.
type EventMsg struct {
	Event crew.Event
}

// LogMsg adds a line to the activity log.
type LogMsg struct {
	Timestamp time.Time
	Message   string
}

// DoneMsg is sent when the kickoff returns. The program exits after rendering it.
type DoneMsg struct {
	Output string
	Err    error
}

// ProgressModel is the bubbletea model for a crew kickoff.
type ProgressModel struct {
	title    string
	tasks    []TaskRow
	index    map[string]int
	usage    models.UsageMetrics
	logs     []LogEntry
	spinner  spinner.Model
	width    int
	done     bool
	quitting bool
	output   string
	err      error

	// Styles
	titleStyle   lipgloss.Style
	labelStyle   lipgloss.Style
	pendingStyle lipgloss.Style
	runningStyle lipgloss.Style
	doneStyle    lipgloss.Style
	failedStyle  lipgloss.Style
	logTimeStyle lipgloss.Style
	logStyle     lipgloss.Style
}

// NewProgressModel creates a model listing tasks in run order.
func NewProgressModel(title string, tasks []TaskRow) *ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := &ProgressModel{
		title:   title,
		tasks:   make([]TaskRow, len(tasks)),
		index:   make(map[string]int, len(tasks)),
		spinner: s,
		width:   80,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("238")).
			MarginBottom(1),

		labelStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(16),

		pendingStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		runningStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),

		doneStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")).
			Bold(true),

		failedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),

		logTimeStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		logStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
	}
	for i, t := range tasks {
		if t.Status == "" {
			t.Status = models.TaskStatusPending
		}
		m.tasks[i] = t
		m.index[t.Name] = i
	}
	return m
}

// TasksFromCrew lists a crew's tasks as pending rows.
func TasksFromCrew(c *crew.Crew) []TaskRow {
	rows := make([]TaskRow, 0, len(c.Tasks))
	for _, t := range c.Tasks {
		row := TaskRow{Name: t.Name, Status: models.TaskStatusPending}
		if t.Agent != nil {
			row.Agent = t.Agent.Name
		}
		rows = append(rows, row)
	}
	return rows
}

// Init implements tea.Model.
func (m *ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case EventMsg:
		m.apply(msg.Event)

	case LogMsg:
		m.addLog(msg.Timestamp, msg.Message)

	case DoneMsg:
		m.done = true
		m.output = msg.Output
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

func (m *ProgressModel) apply(e crew.Event) {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	m.usage = e.Usage

	i, known := m.index[e.Task]
	if e.Task != "" && !known {
		m.tasks = append(m.tasks, TaskRow{Name: e.Task, Agent: e.Agent, Status: models.TaskStatusPending})
		i = len(m.tasks) - 1
		m.index[e.Task] = i
	}

	switch e.Type {
	case crew.EventTaskStarted:
		m.tasks[i].Status = models.TaskStatusInProgress
		m.tasks[i].started = ts
		if e.Agent != "" {
			m.tasks[i].Agent = e.Agent
		}
		m.addLog(ts, fmt.Sprintf("%s started %s", shorten(e.Agent, 40), e.Task))
	case crew.EventTaskCompleted:
		m.finish(i, models.TaskStatusDone, ts)
		m.addLog(ts, fmt.Sprintf("%s finished (%d tokens so far)", e.Task, e.Usage.TotalTokens()))
	case crew.EventTaskFailed:
		m.finish(i, models.TaskStatusFailed, ts)
		m.addLog(ts, fmt.Sprintf("%s failed: %v", e.Task, e.Error))
	case crew.EventCrewCompleted:
		if e.Error != nil {
			m.addLog(ts, "crew stopped")
		} else {
			m.addLog(ts, "crew finished")
		}
	}
}

func (m *ProgressModel) finish(i int, status models.TaskStatus, ts time.Time) {
	m.tasks[i].Status = status
	if !m.tasks[i].started.IsZero() {
		m.tasks[i].Duration = ts.Sub(m.tasks[i].started)
	}
}

func (m *ProgressModel) addLog(ts time.Time, msg string) {
	if ts.IsZero() {
		ts = time.Now()
	}
	m.logs = append(m.logs, LogEntry{Timestamp: ts, Message: msg})
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
}

// Tasks returns a copy of the task rows.
func (m *ProgressModel) Tasks() []TaskRow {
	return append([]TaskRow(nil), m.tasks...)
}

// Done reports whether the kickoff has finished.
func (m *ProgressModel) Done() bool {
	return m.done
}

// Err returns the kickoff error, if any.
func (m *ProgressModel) Err() error {
	return m.err
}

// Output returns the final crew output.
func (m *ProgressModel) Output() string {
	return m.output
}

// Cancelled reports whether the user quit before the kickoff finished.
func (m *ProgressModel) Cancelled() bool {
	return m.quitting && !m.done
}

// View implements tea.Model.
func (m *ProgressModel) View() string {
	if m.quitting && !m.done {
		return "Cancelled.\n"
	}

	var b strings.Builder
	b.WriteString(m.titleStyle.Render(m.title))
	b.WriteString("\n")

	completed := 0
	for _, t := range m.tasks {
		if t.Status == models.TaskStatusDone {
			completed++
		}
		b.WriteString("  ")
		b.WriteString(m.statusIcon(t.Status))
		b.WriteString(" ")
		b.WriteString(fmt.Sprintf("%-14s", t.Name))
		b.WriteString(m.pendingStyle.Render(shorten(t.Agent, m.width-30)))
		if t.Duration > 0 {
			b.WriteString(m.pendingStyle.Render(fmt.Sprintf("  %s", t.Duration.Round(time.Second))))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.labelStyle.Render("Tasks:"))
	b.WriteString(fmt.Sprintf("%d/%d complete", completed, len(m.tasks)))
	b.WriteString("\n")
	b.WriteString(m.labelStyle.Render("Tokens:"))
	b.WriteString(fmt.Sprintf("%d in / %d out", m.usage.InputTokens, m.usage.OutputTokens))
	b.WriteString("\n")

	if len(m.logs) > 0 {
		b.WriteString("\n")
		for _, entry := range m.logs {
			b.WriteString("  ")
			b.WriteString(m.logTimeStyle.Render(entry.Timestamp.Format("15:04:05")))
			b.WriteString(" ")
			b.WriteString(m.logStyle.Render(entry.Message))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	switch {
	case m.done && m.err != nil:
		b.WriteString(m.failedStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	case m.done:
		b.WriteString(m.doneStyle.Render("Crew complete."))
	default:
		b.WriteString(m.pendingStyle.Render("Press q to cancel"))
	}
	b.WriteString("\n")

	return b.String()
}

func (m *ProgressModel) statusIcon(s models.TaskStatus) string {
	switch s {
	case models.TaskStatusInProgress:
		return m.spinner.View()
	case models.TaskStatusDone:
		return m.doneStyle.Render("✓")
	case models.TaskStatusFailed:
		return m.failedStyle.Render("✗")
	default:
		return m.pendingStyle.Render("○")
	}
}

func shorten(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if n < 4 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// Observer returns a crew observer that forwards events to p.
func Observer(p *tea.Program) crew.Observer {
	return func(e crew.Event) {
		p.Send(EventMsg{Event: e})
	}
}

// StreamLogger returns an agent-loop stream handler that posts tool calls and
// loop errors to p's activity log.
func StreamLogger(p *tea.Program) func(api.StreamEvent) {
	return func(ev api.StreamEvent) {
		if line, ok := streamLine(ev); ok {
			p.Send(LogMsg{Timestamp: time.Now(), Message: line})
		}
	}
}

func streamLine(ev api.StreamEvent) (string, bool) {
	switch ev.Type {
	case "tool_use":
		return api.FormatToolAction(ev.Tool, ev.Input), true
	case "error":
		return "error: " + shorten(ev.Content, 80), true
	}
	return "", false
}

// NewProgressProgram creates a program rendering a crew kickoff inline, so the
// final view stays on screen after exit.
func NewProgressProgram(title string, tasks []TaskRow) (*tea.Program, *ProgressModel) {
	m := NewProgressModel(title, tasks)
	return tea.NewProgram(m), m
}
