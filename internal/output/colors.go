package output

import (
	"github.com/charmbracelet/lipgloss"
)

const (
	colorRed    = "1"
	colorGreen  = "2"
	colorYellow = "3"
	colorCyan   = "6"
	colorGray   = "8"
	colorBlue   = "12"
)

// Colorize renders text in the given ANSI color.
func Colorize(color, text string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(text)
}

// Hash styles a commit hash.
func Hash(text string) string {
	return Colorize(colorYellow, text)
}

// Branch styles a branch name, marking the current one.
func Branch(name string, isCurrent bool) string {
	if isCurrent {
		return Colorize(colorCyan, name+" (current)")
	}
	return Colorize(colorBlue, name)
}

// Dim styles secondary detail text.
func Dim(text string) string {
	return Colorize(colorGray, text)
}

// Conflict styles conflicted-path output.
func Conflict(text string) string {
	return Colorize(colorRed, text)
}
