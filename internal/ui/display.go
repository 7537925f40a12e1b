package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/x/term"
)

// DefaultTermWidth is used whenever the output is not a sized terminal.
const DefaultTermWidth = 100

// minTermWidth keeps tables and wrapped bodies readable on very narrow panes.
const minTermWidth = 40

// DisplayContext describes one output stream.
type DisplayContext struct {
	TermWidth int
	IsTTY     bool
}

// DisplayFor inspects w. Only an *os.File attached to a terminal reports
// IsTTY; buffers and pipes get DefaultTermWidth.
func DisplayFor(w io.Writer) *DisplayContext {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return NewDisplayContextWithWidth(DefaultTermWidth)
	}

	fd := f.Fd()
	if !term.IsTerminal(fd) {
		return NewDisplayContextWithWidth(DefaultTermWidth)
	}
	width := DefaultTermWidth
	if cols, _, err := term.GetSize(fd); err == nil && cols > 0 {
		width = max(cols, minTermWidth)
	}
	return &DisplayContext{TermWidth: width, IsTTY: true}
}

// NewDisplayContextWithWidth returns a non-terminal context of a fixed width.
func NewDisplayContextWithWidth(width int) *DisplayContext {
	return &DisplayContext{TermWidth: width}
}

// AvailableWidth returns the width left after a left margin, never below
// half of minTermWidth.
func (d *DisplayContext) AvailableWidth(leftMargin int) int {
	return max(d.TermWidth-leftMargin, minTermWidth/2)
}
