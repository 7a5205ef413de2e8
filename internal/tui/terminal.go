package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

type fileDescriptor interface {
	Fd() uintptr
}

var isTerminalFunc = term.IsTerminal

// SetIsTerminalFuncForTesting overrides terminal detection for tests in other packages and
// returns the restore function.
func SetIsTerminalFuncForTesting(fn func(int) bool) func() {
	previous := isTerminalFunc
	isTerminalFunc = fn
	return func() {
		isTerminalFunc = previous
	}
}

// ShouldUseTUI is true when both ends are terminals and output is not silenced.
func ShouldUseTUI(quiet bool, in io.Reader, out io.Writer) bool {
	if quiet {
		return false
	}
	return IsTerminalReader(in) && IsTerminalWriter(out)
}

func IsTerminalReader(reader io.Reader) bool {
	return isTerminal(reader)
}

func IsTerminalWriter(writer io.Writer) bool {
	return isTerminal(writer)
}

func isTerminal(stream any) bool {
	if fd, ok := stream.(fileDescriptor); ok {
		return isTerminalFunc(int(fd.Fd()))
	}
	return false
}

// ProgramOptions wires the program to in and out and drops the renderer when either end is
// not a terminal.
func ProgramOptions(in io.Reader, out io.Writer) []tea.ProgramOption {
	options := []tea.ProgramOption{
		tea.WithInput(in),
		tea.WithOutput(out),
	}
	if !IsTerminalReader(in) || !IsTerminalWriter(out) {
		options = append(options, tea.WithoutRenderer())
	}
	return options
}
