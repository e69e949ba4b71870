package watch

import (
	"fmt"
	"strings"
	"time"

	"timetrack/internal/report"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	timerDisplayStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("69")).
				Bold(true)

	timerRunningStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("82")).
				Bold(true)

	inactiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func (m *Model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("track"))
	sb.WriteString("\n\n")

	if m.Status.Running {
		sb.WriteString(timerRunningStyle.Render(report.FormatDuration(m.Status.Elapsed)))
		sb.WriteString("\n\n")
		sb.WriteString(fmt.Sprintf("Running since %s\n",
			m.Status.Start.Time().Local().Format(time.DateTime)))
	} else {
		sb.WriteString(timerDisplayStyle.Render(report.FormatDuration(0)))
		sb.WriteString("\n\n")
		sb.WriteString(inactiveStyle.Render("Stopped"))
		sb.WriteString("\n")
	}

	if m.LastRecord != nil {
		sb.WriteString(fmt.Sprintf("Last session: %s\n", report.FormatDuration(m.LastRecord.Duration())))
	}
	if m.Err != nil {
		sb.WriteString(errorStyle.Render("Error: " + m.Err.Error()))
		sb.WriteString("\n")
	}

	action := "Start"
	if m.Status.Running {
		action = "Stop"
	}
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render(action + ": s | Quit: q"))

	return boxStyle.Width(44).Render(sb.String())
}
