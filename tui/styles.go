package tui

import "github.com/charmbracelet/lipgloss"

const columnWidth = 30

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))

	columnStyle = lipgloss.NewStyle().
			Width(columnWidth).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	activeColumnStyle = columnStyle.BorderForeground(lipgloss.Color("62"))

	headerStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)

	cardStyle = lipgloss.NewStyle().
			Width(columnWidth-4).
			Padding(0, 1)

	selectedCardStyle = cardStyle.
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("62"))

	descStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	formStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("212")).
			Padding(0, 1).
			Width(columnWidth * 2)

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)
