// internal/ui/component/status_header.go
package component

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/mintwatch/internal/ui/style"
)

// FeedStatus represents the current feed connection status
type FeedStatus struct {
	Connected bool
	Err       error
	Since     time.Time
}

// StatusHeader shows the feed address, connection state and counters.
type StatusHeader struct {
	url      string
	status   FeedStatus
	received int
	shown    int
	paused   bool
	style    StatusHeaderStyle
	width    int
}

// StatusHeaderStyle contains all styling for the status header
type StatusHeaderStyle struct {
	container lipgloss.Style
	title     lipgloss.Style
	address   lipgloss.Style
	connGood  lipgloss.Style
	connBad   lipgloss.Style
	counter   lipgloss.Style
	paused    lipgloss.Style
}

// NewStatusHeader creates a new status header component
func NewStatusHeader(url string) *StatusHeader {
	palette := style.DefaultPalette()

	return &StatusHeader{
		url: url,
		style: StatusHeaderStyle{
			container: lipgloss.NewStyle().
				Background(palette.Background).
				Foreground(palette.Text).
				Border(lipgloss.RoundedBorder()).
				BorderForeground(palette.Primary).
				Padding(0, 2),

			title: lipgloss.NewStyle().
				Foreground(palette.Primary).
				Bold(true),

			address: lipgloss.NewStyle().
				Foreground(palette.TextSecondary),

			connGood: lipgloss.NewStyle().
				Foreground(palette.Success).
				Bold(true),

			connBad: lipgloss.NewStyle().
				Foreground(palette.Error).
				Bold(true),

			counter: lipgloss.NewStyle().
				Foreground(palette.TextMuted),

			paused: lipgloss.NewStyle().
				Foreground(palette.Warning).
				Bold(true),
		},
	}
}

// SetStatus updates the connection status
func (sh *StatusHeader) SetStatus(status FeedStatus) {
	sh.status = status
}

// SetCounts updates the received and displayed event counters.
func (sh *StatusHeader) SetCounts(received, shown int) {
	sh.received = received
	sh.shown = shown
}

// SetPaused toggles the paused marker.
func (sh *StatusHeader) SetPaused(paused bool) {
	sh.paused = paused
}

// SetWidth sets the component width for responsive layout
func (sh *StatusHeader) SetWidth(width int) {
	sh.width = width
	sh.style.container = sh.style.container.Width(width - 2)
}

// View renders the status header
func (sh *StatusHeader) View() string {
	parts := []string{
		sh.style.title.Render("mintwatch"),
		sh.style.address.Render(sh.url),
		sh.renderConnection(),
		sh.style.counter.Render(fmt.Sprintf("events: %d shown / %d recv", sh.shown, sh.received)),
	}
	if sh.paused {
		parts = append(parts, sh.style.paused.Render("⏸ PAUSED"))
	}

	var content string
	for i, p := range parts {
		if i > 0 {
			content += " | "
		}
		content += p
	}
	return sh.style.container.Render(content)
}

func (sh *StatusHeader) renderConnection() string {
	if sh.status.Connected {
		return sh.style.connGood.Render("🟢 connected")
	}
	if sh.status.Err != nil {
		return sh.style.connBad.Render("🔴 " + truncate(sh.status.Err.Error(), 40))
	}
	return sh.style.connBad.Render("🔴 connecting")
}

// GetHeight returns the component height for layout calculations
func (sh *StatusHeader) GetHeight() int {
	return 3 // Border + content
}
