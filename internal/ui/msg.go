// internal/ui/msg.go
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rovshanmuradov/mintwatch/internal/domain"
)

// MintMsg carries one event received from the feed.
type MintMsg struct {
	Event domain.MintEvent
}

// FeedStatusMsg reports the connection state of the feed client.
type FeedStatusMsg struct {
	Connected bool
	Err       error
}

// tickMsg refreshes relative timestamps and the log pane.
type tickMsg struct{}

// Listen returns a tea.Cmd that waits for the next message on ch.
func Listen(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return tea.Quit()
		}
		return msg
	}
}

// LogMsg is a one-line notice shown under the table.
type LogMsg struct {
	Level   string
	Message string
}
