// Package tui provides the terminal styles shared by the REPL and the
// layout preview.
package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/chpines/hotspot-tickets/internal/layout"
)

// Color palette
var (
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#5A67D8", Dark: "#7C3AED"}
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#38B2AC", Dark: "#4FD1C5"}
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#38A169", Dark: "#48BB78"}
	ColorWarning   = lipgloss.AdaptiveColor{Light: "#D69E2E", Dark: "#F6E05E"}
	ColorError     = lipgloss.AdaptiveColor{Light: "#E53E3E", Dark: "#FC8181"}
	ColorMuted     = lipgloss.AdaptiveColor{Light: "#718096", Dark: "#A0AEC0"}
	ColorText      = lipgloss.AdaptiveColor{Light: "#1A202C", Dark: "#F7FAFC"}
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	// LabelStyle for key names in key-value pairs
	LabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorMuted)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// PromptStyle for the REPL prompt
	PromptStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	progressFilled = lipgloss.NewStyle().Foreground(ColorSuccess)
	progressEmpty  = lipgloss.NewStyle().Foreground(ColorMuted)
)

var (
	StatusOnline  = SuccessStyle.Render("●")
	StatusOffline = ErrorStyle.Render("●")
)

// IsTTY returns true if stdout is a terminal
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ProgressBar renders a bar for percent (0-100) over width cells.
func ProgressBar(percent float64, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := max(min(int(percent/100.0*float64(width)), width), 0)
	return progressFilled.Render(strings.Repeat("█", filled)) + progressEmpty.Render(strings.Repeat("░", width-filled))
}

// StatusIndicator returns a colored connection dot.
func StatusIndicator(online bool) string {
	if online {
		return StatusOnline
	}
	return StatusOffline
}

// FormatKeyValue formats a key-value pair
func FormatKeyValue(key, value string) string {
	return LabelStyle.Render(key+":") + " " + ValueStyle.Render(value)
}

// TagBadge renders a duration tag on the same pastel fill the sheet uses.
func TagBadge(tag string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#1A202C")).
		Background(lipgloss.Color("#" + layout.Color(tag))).
		Padding(0, 1).
		Render(tag)
}
