package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	paneFocusStyle = paneStyle.BorderForeground(lipgloss.Color("81"))

	paneTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("238")).
			Foreground(lipgloss.Color("231")).
			Bold(true)

	repoCoreStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	repoExtraStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	repoOtherStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("180"))
	repoAURStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))

	installedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dangerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("114")).Bold(true)

	toastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("63")).
			Padding(0, 1)

	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("203")).
			Padding(1, 2)

	tabActiveStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("63")).
			Padding(0, 1)
	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244")).
				Padding(0, 1)

	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func repoStyle(repo string, aur bool) lipgloss.Style {
	if aur {
		return repoAURStyle
	}
	switch repo {
	case "core":
		return repoCoreStyle
	case "extra":
		return repoExtraStyle
	default:
		return repoOtherStyle
	}
}
