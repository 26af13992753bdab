// internal/ui/component/compact_logs.go
package component

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap/zapcore"

	"github.com/rovshanmuradov/mintwatch/internal/logger"
	"github.com/rovshanmuradov/mintwatch/internal/ui/style"
)

// logPaneEntries is how many buffered entries the pane renders.
const logPaneEntries = 50

// detailKeys are the fields printed after a log message, in order.
var detailKeys = []string{"mint", "watcher", "url", "retry_in", "error"}

// CompactLogViewer shows the tail of the client log buffer.
type CompactLogViewer struct {
	buffer   *logger.LogBuffer
	viewport viewport.Model
	minLevel zapcore.Level
	levels   map[zapcore.Level]lipgloss.Style
	frame    lipgloss.Style
	title    lipgloss.Style
	muted    lipgloss.Style
	height   int
	visible  bool
}

// NewCompactLogViewer creates a viewer over logBuffer. Debug entries are
// hidden until SetMinLevel lowers the threshold.
func NewCompactLogViewer(logBuffer *logger.LogBuffer) *CompactLogViewer {
	palette := style.DefaultPalette()

	return &CompactLogViewer{
		buffer:   logBuffer,
		viewport: viewport.New(50, 4),
		minLevel: zapcore.InfoLevel,
		visible:  true,
		levels: map[zapcore.Level]lipgloss.Style{
			zapcore.DebugLevel: lipgloss.NewStyle().Foreground(palette.TextMuted),
			zapcore.InfoLevel:  lipgloss.NewStyle().Foreground(palette.Info),
			zapcore.WarnLevel:  lipgloss.NewStyle().Foreground(palette.Warning).Bold(true),
			zapcore.ErrorLevel: lipgloss.NewStyle().Foreground(palette.Error).Bold(true),
		},
		frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.Info).
			Padding(0, 1),
		title: lipgloss.NewStyle().Foreground(palette.Info).Bold(true),
		muted: lipgloss.NewStyle().Foreground(palette.TextMuted),
	}
}

// SetSize sets the outer dimensions including the border.
func (clv *CompactLogViewer) SetSize(width, height int) {
	clv.height = height
	clv.frame = clv.frame.Width(width - 2)

	clv.viewport.Width = width - 4
	clv.viewport.Height = max(height-3, 2) // рамка + заголовок
}

func (clv *CompactLogViewer) SetVisible(visible bool) { clv.visible = visible }
func (clv *CompactLogViewer) IsVisible() bool         { return clv.visible }

// SetMinLevel hides entries below level.
func (clv *CompactLogViewer) SetMinLevel(level zapcore.Level) {
	clv.minLevel = level
	clv.refresh()
}

// Update handles viewport updates
func (clv *CompactLogViewer) Update(msg tea.Msg) tea.Cmd {
	if !clv.visible {
		return nil
	}
	var cmd tea.Cmd
	clv.viewport, cmd = clv.viewport.Update(msg)
	clv.refresh()
	return cmd
}

// View renders the log pane; empty when hidden.
func (clv *CompactLogViewer) View() string {
	if !clv.visible {
		return ""
	}
	clv.refresh()
	header := clv.title.Render(fmt.Sprintf("Logs ≥ %s", clv.minLevel.CapitalString()))
	if counts := clv.problemCounts(); counts != "" {
		header += " " + clv.levels[zapcore.WarnLevel].Render(counts)
	}
	header += " " + clv.muted.Render("[l]hide")
	return clv.frame.Render(lipgloss.JoinVertical(lipgloss.Left, header, clv.viewport.View()))
}

// GetHeight returns the component height for layout calculations
func (clv *CompactLogViewer) GetHeight() int {
	if !clv.visible {
		return 0
	}
	return clv.height
}

// problemCounts summarises warnings and errors seen since start, including
// those no longer in the buffer.
func (clv *CompactLogViewer) problemCounts() string {
	if clv.buffer == nil {
		return ""
	}
	counts := clv.buffer.LevelCounts()
	var parts []string
	for _, level := range []zapcore.Level{zapcore.WarnLevel, zapcore.ErrorLevel} {
		if n := counts[level.String()]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", level.String(), n))
		}
	}
	return strings.Join(parts, " ")
}

func (clv *CompactLogViewer) refresh() {
	if clv.buffer == nil {
		clv.viewport.SetContent(clv.muted.Render("no log buffer"))
		return
	}

	var lines []string
	for _, entry := range clv.buffer.GetRecentLogs(logPaneEntries) {
		level, err := zapcore.ParseLevel(entry.Level)
		if err != nil {
			level = zapcore.InfoLevel
		}
		if level < clv.minLevel {
			continue
		}
		lines = append(lines, clv.formatEntry(entry, level))
	}
	if len(lines) == 0 {
		clv.viewport.SetContent(clv.muted.Render("no entries"))
		return
	}
	clv.viewport.SetContent(strings.Join(lines, "\n"))
	clv.viewport.GotoBottom()
}

func (clv *CompactLogViewer) formatEntry(entry logger.LogEntry, level zapcore.Level) string {
	msgStyle, ok := clv.levels[level]
	if !ok {
		msgStyle = clv.levels[zapcore.ErrorLevel]
	}
	line := clv.muted.Render(entry.Timestamp.Format("15:04:05")) + " " + msgStyle.Render(entry.Message)
	if detail := entryDetail(entry); detail != "" {
		line += " " + clv.muted.Render(detail)
	}
	return line
}

// entryDetail picks the fields worth showing next to a message.
func entryDetail(entry logger.LogEntry) string {
	var parts []string
	for _, k := range detailKeys {
		if v, ok := entry.Fields[k]; ok {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
	}
	return strings.Join(parts, " ")
}
