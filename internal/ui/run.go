package ui

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"raven/internal/buildpipeline"
)

// Enabled reports whether out is a terminal the progress view can draw on.
func Enabled(out *os.File) bool {
	return out != nil && term.IsTerminal(int(out.Fd())) //nolint:gosec // fd fits in int
}

// Width returns the terminal width of out, or fallback.
func Width(out *os.File, fallback int) int {
	if out == nil {
		return fallback
	}
	w, _, err := term.GetSize(int(out.Fd())) //nolint:gosec // fd fits in int
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// Run draws progress for events on out until events is closed.
func Run(title string, files []string, events <-chan buildpipeline.Event, out io.Writer) error {
	p := tea.NewProgram(NewProgressModel(title, files, events), tea.WithOutput(out))
	_, err := p.Run()
	return err
}
