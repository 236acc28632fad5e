package ui

import (
	"time"

	"github.com/BioHazard786/eggcombat/internal/session"
	"github.com/charmbracelet/bubbles/spinner"
)

// newSpinner picks a spinner for the pending session state.
// Claiming a room waits on the signaling server (Points); joining dials a peer (Globe).
func newSpinner(state session.State) spinner.Model {
	s := spinner.New()
	s.Style = SpinnerStyle

	switch state {
	case session.StateClientConnecting:
		s.Spinner = spinner.Spinner{Frames: spinner.Globe.Frames, FPS: 180 * time.Millisecond}
	case session.StateHostingWaitOpen:
		s.Spinner = spinner.Points
	default:
		s.Spinner = spinner.Dot
	}
	return s
}

// pendingLabel describes what the spinner is waiting for.
func pendingLabel(state session.State) string {
	switch state {
	case session.StateHostingWaitOpen:
		return "Claiming a room on the signaling server..."
	case session.StateClientConnecting:
		return "Connecting to the host..."
	default:
		return "Working..."
	}
}
