// Copyright (c) 2024 Neomantra Corp

package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// Palette is a phosphor-terminal scheme (amber on near-black, a cold
// blue for the cursor row) evoking the protocol analyzers this browser
// is modeled after, rather than any brand's color system.
var (
	colorInk       = lipgloss.Color("#1A1A1A")
	colorWire      = lipgloss.Color("#2E5C4E")
	colorAmber     = lipgloss.Color("#D98E2A")
	colorCursorRow = lipgloss.Color("#3E7CB1")
	colorAlert     = lipgloss.Color("#B5413D")

	teraBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true).
			BorderForeground(colorWire)

	teraTableStyles = table.Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(colorAmber).Padding(0, 1),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(colorCursorRow),
		Cell:     lipgloss.NewStyle().Padding(0, 1),
	}
)
