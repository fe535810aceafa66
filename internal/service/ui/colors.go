// Package ui holds the terminal styles shared by the command help output.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	// TitleStyle uses ANSI 6 (cyan), readable on light and dark terminals.
	TitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true).MarginBottom(1)

	// UsageStyle marks arguments and usage lines.
	UsageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))

	// DescStyle dims command descriptions.
	DescStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	FlagStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	// OKStyle and FailStyle color one-line probe verdicts.
	OKStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	FailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)
