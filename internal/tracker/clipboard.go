// ABOUTME: Clipboard collaborator used to copy the public share link
// ABOUTME: Terminal implementation writes an OSC 52 sequence when attached to a TTY

package tracker

import (
	"fmt"
	"io"
	"os"

	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/mattn/go-isatty"
)

// Clipboard writes text somewhere the user can paste it from.
type Clipboard interface {
	WriteText(text string) error
}

// TerminalClipboard copies through the terminal emulator using OSC 52, which
// also works over SSH. Tmux and Screen need their passthrough wrapping.
type TerminalClipboard struct {
	Out    io.Writer
	Fd     uintptr
	Tmux   bool
	Screen bool
}

// NewTerminalClipboard returns a clipboard writing to stdout, detecting tmux
// and screen from the environment.
func NewTerminalClipboard() *TerminalClipboard {
	return &TerminalClipboard{
		Out:    os.Stdout,
		Fd:     os.Stdout.Fd(),
		Tmux:   os.Getenv("TMUX") != "",
		Screen: os.Getenv("STY") != "",
	}
}

// WriteText copies text. It fails with ErrClipboardUnavailable when output
// is not a terminal.
func (c *TerminalClipboard) WriteText(text string) error {
	if c.Out == nil || !(isatty.IsTerminal(c.Fd) || isatty.IsCygwinTerminal(c.Fd)) {
		return ErrClipboardUnavailable
	}
	seq := osc52.New(text)
	switch {
	case c.Tmux:
		seq = seq.Tmux()
	case c.Screen:
		seq = seq.Screen()
	}
	if _, err := seq.WriteTo(c.Out); err != nil {
		return fmt.Errorf("%w: %v", ErrClipboardUnavailable, err)
	}
	return nil
}
