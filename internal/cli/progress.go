package cli

import (
	"context"
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/jaketune/internal/job"
	"github.com/raphaelgruber/jaketune/internal/models"
)

// fetchTimeout bounds one status plus metrics query.
const fetchTimeout = 30 * time.Second

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
	Metric  lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
	Metric:  lipgloss.Color("#D7AF5F"), // sand
}

// Style functions for dynamic theming
func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) metricStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Metric)
}

// tickMsg triggers polling the run status
type tickMsg time.Time

// runUpdateMsg carries the latest status and metrics
type runUpdateMsg struct {
	status  models.RunStatus
	metrics models.Metrics
	err     error
}

// progressModel is the bubbletea model for run progress.
type progressModel struct {
	handle   job.Handle
	interval time.Duration
	status   models.RunStatus
	metrics  models.Metrics
	progress progress.Model
	theme    Theme
	polled   bool
	done     bool
	quitting bool
	err      error
}

// newProgressModel creates a new progress model.
func newProgressModel(h job.Handle, interval time.Duration) progressModel {
	// Create progress bar with color blend
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return progressModel{
		handle:   h,
		interval: interval,
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init queries the run right away, then on every tick.
func (m progressModel) Init() tea.Cmd {
	return tea.Batch(
		m.fetchRun(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		return m, m.fetchRun()

	case runUpdateMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("failed to fetch run status: %w", msg.err)
			m.done = true
			return m, tea.Quit
		}

		m.polled = true
		m.status = msg.status
		if len(msg.metrics) > 0 {
			m.metrics = msg.metrics
		}

		if m.status.IsTerminal() {
			m.done = true
			return m, tea.Quit
		}

		// Continue polling until terminal
		return m, m.tickCmd()

	case progress.FrameMsg:
		// Update progress bar animation
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m progressModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	if !m.polled {
		return "Loading run status...\n"
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.status))

	line := status
	if pct, epoch, total, ok := epochProgress(m.metrics); ok {
		line += fmt.Sprintf(" %s epoch %.2f/%.0f", m.progress.ViewAs(pct), epoch, total)
	}

	out := line + "\n"
	if len(m.metrics) > 0 {
		out += m.theme.metricStyle().Render(m.metrics.String()) + "\n"
	}
	out += m.theme.hintStyle().Render("Press Ctrl+C to stop watching; the run continues") + "\n"
	return out
}

// finalView renders the completion message.
func (m progressModel) finalView() string {
	if m.quitting {
		msg := fmt.Sprintf("\nRun %s continues.\nUse 'jaketune monitor %s' to resume watching.\n",
			m.handle.ID(), m.handle.ID())
		return m.theme.hintStyle().Render(msg)
	}

	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ %s\n", m.err))
	}

	finished := fmt.Sprintf("Run finished with status: %s", m.status)
	var output string
	if m.status == models.RunStatusCompleted {
		output = m.theme.completedStyle().Render("✓ "+finished) + "\n"
	} else {
		output = m.theme.errorStyle().Render("✗ "+finished) + "\n"
	}
	if len(m.metrics) > 0 {
		output += fmt.Sprintf("  Last metrics: %s\n", m.metrics)
	}
	return output
}

// epochProgress derives bar progress from the epoch and num_train_epochs metrics.
func epochProgress(metrics models.Metrics) (pct, epoch, total float64, ok bool) {
	epoch, hasEpoch := metrics["epoch"]
	total, hasTotal := metrics["num_train_epochs"]
	if !hasEpoch || !hasTotal || total <= 0 {
		return 0, 0, 0, false
	}
	return min(max(epoch/total, 0), 1), epoch, total, true
}

// fetchRun queries status and metrics in a command to avoid blocking Update().
func (m progressModel) fetchRun() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		status, err := m.handle.Status(ctx)
		if err != nil {
			return runUpdateMsg{err: err}
		}
		if status.IsTerminal() {
			return runUpdateMsg{status: status}
		}
		metrics, err := m.handle.Metrics(ctx)
		return runUpdateMsg{status: status, metrics: metrics, err: err}
	}
}

// tickCmd returns a command that sends a tick after the poll interval.
func (m progressModel) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// RunMonitorProgress runs the interactive progress UI for a run.
// Returns nil when the run finishes or the user stops watching.
func RunMonitorProgress(h job.Handle, interval time.Duration) error {
	model := newProgressModel(h, interval)
	p := tea.NewProgram(model)

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(progressModel); ok && m.err != nil {
		return m.err
	}
	return nil
}
