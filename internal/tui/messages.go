package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pathstalk/pathstalk/internal/types"
)

// StreamMsg wraps one engine message for the Bubble Tea runtime.
type StreamMsg struct {
	Msg types.Message
}

// StreamClosedMsg signals the engine has closed the message stream.
type StreamClosedMsg struct{}

// ScanDoneMsg signals the engine's Run has returned.
type ScanDoneMsg struct {
	Err error
}

// waitForMessage returns a tea.Cmd that reads one message from the
// stream. The Update handler re-arms it after every StreamMsg.
func waitForMessage(ch <-chan types.Message) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return StreamClosedMsg{}
		}
		return StreamMsg{Msg: msg}
	}
}
