// internal/ui/model.go
package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap/zapcore"

	"github.com/rovshanmuradov/mintwatch/internal/domain"
	"github.com/rovshanmuradov/mintwatch/internal/logger"
	"github.com/rovshanmuradov/mintwatch/internal/ui/component"
	"github.com/rovshanmuradov/mintwatch/internal/ui/style"
)

const (
	// DefaultMaxRows bounds the events kept on screen.
	DefaultMaxRows = 200
	tickInterval   = time.Second
	logPaneHeight  = 8
)

// Model is the root bubbletea model of the live mint feed.
type Model struct {
	msgs    <-chan tea.Msg
	keys    KeyMap
	help    help.Model
	header  *component.StatusHeader
	table   *component.MintTable
	logs    *component.CompactLogViewer
	notice  lipgloss.Style
	maxRows int

	events   []domain.MintEvent // newest first
	pending  []domain.MintEvent // received while paused, newest first
	received int
	paused   bool
	showHelp bool
	lastLog  string
	width    int
	height   int
}

// NewModel creates the feed model. msgs is the channel the FeedClient
// writes to; logBuffer may be nil.
func NewModel(feedURL string, msgs <-chan tea.Msg, logBuffer *logger.LogBuffer, maxRows int) *Model {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	logs := component.NewCompactLogViewer(logBuffer)
	logs.SetVisible(false)

	return &Model{
		msgs:    msgs,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		header:  component.NewStatusHeader(feedURL),
		table:   component.NewMintTable(),
		logs:    logs,
		notice:  lipgloss.NewStyle().Foreground(style.DefaultPalette().TextMuted),
		maxRows: maxRows,
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(Listen(m.msgs), tick())
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case MintMsg:
		m.received++
		if m.paused {
			m.pending = prepend(m.pending, msg.Event, m.maxRows)
		} else {
			m.events = prepend(m.events, msg.Event, m.maxRows)
			m.refresh()
		}
		m.header.SetCounts(m.received, len(m.events))
		return m, Listen(m.msgs)

	case FeedStatusMsg:
		m.header.SetStatus(component.FeedStatus{Connected: msg.Connected, Err: msg.Err, Since: time.Now()})
		return m, Listen(m.msgs)

	case LogMsg:
		m.lastLog = msg.Message
		return m, Listen(m.msgs)

	case tickMsg:
		return m, tea.Batch(tick(), m.logs.Update(msg))
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Clear):
		m.events = nil
		m.pending = nil
		m.refresh()
	case key.Matches(msg, m.keys.Pause):
		m.SetPaused(!m.paused)
	case key.Matches(msg, m.keys.Up):
		m.table.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.table.MoveDown()
	case key.Matches(msg, m.keys.ToggleLogs):
		m.logs.SetVisible(!m.logs.IsVisible())
		m.layout()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
	}
	return nil
}

// SetPaused freezes or resumes the table. Events received while paused are
// shown on resume.
func (m *Model) SetPaused(paused bool) {
	if m.paused == paused {
		return
	}
	m.paused = paused
	if !paused && len(m.pending) > 0 {
		merged := append(m.pending, m.events...)
		if len(merged) > m.maxRows {
			merged = merged[:m.maxRows]
		}
		m.events = merged
		m.pending = nil
	}
	m.header.SetPaused(paused)
	m.refresh()
}

// SetLogLevel sets the lowest level shown in the log pane.
func (m *Model) SetLogLevel(level zapcore.Level) {
	m.logs.SetMinLevel(level)
}

// Events returns the displayed events, newest first.
func (m *Model) Events() []domain.MintEvent {
	return m.events
}

// Paused reports whether the table is frozen.
func (m *Model) Paused() bool {
	return m.paused
}

func (m *Model) refresh() {
	m.table.SetEvents(m.events)
	m.header.SetCounts(m.received, len(m.events))
}

func (m *Model) layout() {
	if m.width == 0 {
		return
	}
	m.header.SetWidth(m.width)
	m.help.Width = m.width

	tableHeight := m.height - m.header.GetHeight() - 2 // help + notice
	if m.logs.IsVisible() {
		m.logs.SetSize(m.width, logPaneHeight)
		tableHeight -= logPaneHeight
	}
	if tableHeight < 4 {
		tableHeight = 4
	}
	m.table.SetSize(m.width, tableHeight)
}

// View implements tea.Model
func (m *Model) View() string {
	sections := []string{m.header.View(), m.table.View()}
	if m.logs.IsVisible() {
		sections = append(sections, m.logs.View())
	}
	if m.lastLog != "" {
		sections = append(sections, m.notice.Render(m.lastLog))
	}
	sections = append(sections, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// prepend adds e in front of list, keeping at most limit entries.
func prepend(list []domain.MintEvent, e domain.MintEvent, limit int) []domain.MintEvent {
	list = append(list, domain.MintEvent{})
	copy(list[1:], list)
	list[0] = e
	if len(list) > limit {
		list = list[:limit]
	}
	return list
}
