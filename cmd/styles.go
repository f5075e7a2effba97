package cmd

import "github.com/charmbracelet/lipgloss"

// Shared styles for command output.
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	boundStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	unboundStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)
