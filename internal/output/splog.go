// Package output provides user-facing styled output for the CLI surface.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Splog writes user-facing messages. Styling is applied only when the
// writer is a terminal.
type Splog struct {
	writer io.Writer
	color  bool
}

// NewSplog creates a Splog over stdout.
func NewSplog() *Splog {
	return &Splog{
		writer: os.Stdout,
		color:  isatty.IsTerminal(os.Stdout.Fd()),
	}
}

// NewSplogWriter creates a Splog over an arbitrary writer with styling off.
func NewSplogWriter(w io.Writer) *Splog {
	return &Splog{writer: w}
}

// Info writes an info message.
func (s *Splog) Info(format string, args ...any) {
	fmt.Fprintf(s.writer, format+"\n", args...)
}

// Warn writes a warning message.
func (s *Splog) Warn(format string, args ...any) {
	fmt.Fprintf(s.writer, s.style(colorYellow, "warning: ")+format+"\n", args...)
}

// Error writes an error message.
func (s *Splog) Error(format string, args ...any) {
	fmt.Fprintf(s.writer, s.style(colorRed, "error: ")+format+"\n", args...)
}

// Success writes a success message.
func (s *Splog) Success(format string, args ...any) {
	fmt.Fprintf(s.writer, s.style(colorGreen, "✓ ")+format+"\n", args...)
}

// Newline writes a blank line.
func (s *Splog) Newline() {
	fmt.Fprintln(s.writer)
}

func (s *Splog) style(color, text string) string {
	if !s.color {
		return text
	}
	return Colorize(color, text)
}
