package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by the TUI.
type Styles struct {
	Title   lipgloss.Style
	Prompt  lipgloss.Style
	Answer  lipgloss.Style
	Source  lipgloss.Style
	Status  lipgloss.Style
	Error   lipgloss.Style
	Help    lipgloss.Style
}

// DefaultStyles returns the default colour scheme.
func DefaultStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1),
		Prompt: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")),
		Answer: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		Source: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1),
	}
}
