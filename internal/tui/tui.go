// Package tui provides a Bubble Tea terminal user interface for tiledl.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/handiism/tiledl/internal/config"
	"github.com/handiism/tiledl/internal/download"
	"github.com/handiism/tiledl/internal/enumerate"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4ECDC4")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// maxLogs is the number of log lines kept on screen.
const maxLogs = 10

// errCancelled is shown when the user aborts a download.
var errCancelled = errors.New("cancelled by user")

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateDownloading
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logs      []LogEntry
	err       error

	// Download context
	ctx    context.Context
	cancel context.CancelFunc

	manager *download.Manager
	events  chan download.ProgressEvent

	total   uint64
	stats   download.Stats
	started time.Time
	elapsed time.Duration

	width  int
	height int
}

// NewModel creates a new TUI model starting from settings. The URL template
// and the zoom range can still be edited before the download starts.
func NewModel(settings *config.Settings) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	if settings.EndZoom < settings.StartZoom {
		settings.EndZoom = settings.StartZoom
	}

	ti := textinput.New()
	ti.Placeholder = "https://tile.example.com/{z}/{x}/{y}.png"
	ti.SetValue(settings.URL)
	ti.Focus()
	ti.CharLimit = 1000
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		logs:      make([]LogEntry, 0),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// ProgressMsg is sent when the manager reports an event.
	ProgressMsg struct {
		Event download.ProgressEvent
	}

	// DownloadDoneMsg is sent when the run finished.
	DownloadDoneMsg struct {
		Stats download.Stats
		Err   error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateDownloading {
				m.cancel()
			}
			return m, nil

		case "enter":
			if m.state == StateInput {
				return m.start()
			}

		case "up":
			if m.state == StateInput && m.settings.EndZoom < enumerate.MaxZoom {
				m.settings.EndZoom++
			}
			return m, nil

		case "down":
			if m.state == StateInput && m.settings.EndZoom > m.settings.StartZoom {
				m.settings.EndZoom--
			}
			return m, nil

		case "pgup":
			if m.state == StateInput {
				m.settings.ConcurrentRequests++
			}
			return m, nil

		case "pgdown":
			if m.state == StateInput && m.settings.ConcurrentRequests > 1 {
				m.settings.ConcurrentRequests--
			}
			return m, nil

		case "ctrl+v":
			if m.state == StateInput {
				m.settings.Verbose = !m.settings.Verbose
				return m, nil
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for new download
				m.state = StateInput
				m.logs = nil
				m.err = nil
				m.stats = download.Stats{}
				m.total = 0
				m.manager = nil
				m.events = nil
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.Focus()
				return m, textinput.Blink
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		if msg.Event.Level != download.LevelVerbose || m.settings.Verbose {
			m.appendLog(msg.Event)
		}
		if m.state == StateDownloading {
			cmds = append(cmds, waitForEvent(m.events))
		}

	case DownloadDoneMsg:
		m.drainEvents()
		m.stats = msg.Stats
		m.elapsed = time.Since(m.started)
		switch {
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = errCancelled
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		default:
			m.state = StateComplete
		}

	case TickMsg:
		if m.manager != nil && m.state == StateDownloading {
			m.stats = m.manager.GetProgress()
			cmds = append(cmds, m.progress.SetPercent(m.percent()), tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// start validates the edited settings and launches the download.
func (m Model) start() (tea.Model, tea.Cmd) {
	m.settings.URL = strings.TrimSpace(m.textInput.Value())
	if err := m.settings.Validate(); err != nil {
		m.state = StateError
		m.err = err
		return m, nil
	}

	events := make(chan download.ProgressEvent, 256)
	manager, err := download.NewManager(m.settings, func(event download.ProgressEvent) {
		select {
		case events <- event:
		default:
			// The UI fell behind; counters still reflect every tile.
		}
	})
	if err != nil {
		m.state = StateError
		m.err = err
		return m, nil
	}

	tileRange := m.settings.ToRange()
	m.manager = manager
	m.events = events
	m.total = tileRange.Count()
	m.started = time.Now()
	m.state = StateDownloading
	m.textInput.Blur()

	return m, tea.Batch(
		startDownload(m.ctx, manager, tileRange, events),
		waitForEvent(events),
		tickProgress(),
		m.spinner.Tick,
	)
}

func (m *Model) appendLog(event download.ProgressEvent) {
	m.logs = append(m.logs, LogEntry{
		Message: event.Message,
		Level:   event.Level,
	})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// drainEvents logs the events still buffered when the run finished.
func (m *Model) drainEvents() {
	if m.events == nil {
		return
	}
	for event := range m.events {
		if event.Level != download.LevelVerbose || m.settings.Verbose {
			m.appendLog(event)
		}
	}
}

func (m Model) percent() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.stats.Completed+m.stats.Failed) / float64(m.total)
}

// tickProgress returns a command to tick progress updates.
func tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// waitForEvent delivers the next manager event to Update.
func waitForEvent(events <-chan download.ProgressEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return ProgressMsg{Event: event}
	}
}

// startDownload runs the manager in the background. events is closed once
// Run returns, as no event is sent after that.
func startDownload(ctx context.Context, manager *download.Manager, tileRange enumerate.Range, events chan download.ProgressEvent) tea.Cmd {
	return func() tea.Msg {
		stats, err := manager.Run(ctx, tileRange.Tiles())
		close(events)
		return DownloadDoneMsg{Stats: stats, Err: err}
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("Tile Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download map tiles into z/x/y.png"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Tile URL template:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	verboseCheck := "[ ]"
	if m.settings.Verbose {
		verboseCheck = "[x]"
	}

	tileRange := m.settings.ToRange()

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Zoom:        %s (up/down)\n",
		valueStyle.Render(fmt.Sprintf("%d-%d", m.settings.StartZoom, m.settings.EndZoom))))
	b.WriteString(fmt.Sprintf("  Concurrency: %s (pgup/pgdown)\n",
		valueStyle.Render(fmt.Sprint(m.settings.ConcurrentRequests))))
	b.WriteString(fmt.Sprintf("  %s Verbose output (ctrl+v)\n", verboseCheck))
	b.WriteString("\n")
	if tileRange.Validate() == nil {
		b.WriteString(dimStyle.Render(fmt.Sprintf("Tiles: %s", humanize.Comma(int64(tileRange.Count())))))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("Output directory: %s", m.settings.OutputDir)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("Downloading zoom %d-%d...", m.settings.StartZoom, m.settings.EndZoom)))
	b.WriteString("\n\n")

	b.WriteString(m.progress.ViewAs(m.percent()))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Tiles: %s/%s | Failed: %s | In flight: %d | Downloaded: %s",
		humanize.Comma(int64(m.stats.Completed)),
		humanize.Comma(int64(m.total)),
		humanize.Comma(int64(m.stats.Failed)),
		m.stats.InFlight,
		humanize.Bytes(uint64(m.stats.Bytes)),
	)))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	box := boxStyle.Render(fmt.Sprintf(
		"Download Complete!\n\n"+
			"Tiles: %s/%s\n"+
			"Failed: %s\n"+
			"Size: %s\n"+
			"Time: %s",
		humanize.Comma(int64(m.stats.Completed)),
		humanize.Comma(int64(m.total)),
		humanize.Comma(int64(m.stats.Failed)),
		humanize.Bytes(uint64(m.stats.Bytes)),
		m.elapsed.Round(time.Millisecond),
	))
	b.WriteString(box)
	b.WriteString("\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}
	if m.stats.Dispatched > 0 {
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("Saved %s tiles before stopping",
			humanize.Comma(int64(m.stats.Completed)))))
	}
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "-"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "x"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "+"
		case download.LevelInfo:
			style = infoStyle
			prefix = ">"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • up/down: end zoom • pgup/pgdown: concurrency • ctrl+v: verbose • esc: quit"
	case StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
