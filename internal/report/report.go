package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"timetrack/internal/timelog"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Bold(true)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	durationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("69")).
			Bold(true)

	totalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

const timeLayout = "2006-01-02 15:04"

// FormatDuration renders d as H:MM:SS, or MM:SS below one hour.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "-" + FormatDuration(-d)
	}
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// Total sums the durations of recs.
func Total(recs []timelog.Record) time.Duration {
	var total time.Duration
	for _, r := range recs {
		total += r.Duration()
	}
	return total
}

// Options controls rendering.
type Options struct {
	// Location is used to display timestamps. Defaults to time.Local.
	Location *time.Location
}

// Render writes a table of recs, oldest first, followed by the total.
func Render(w io.Writer, recs []timelog.Record, opts Options) error {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Time Report"))
	sb.WriteString("\n\n")

	if len(recs) == 0 {
		sb.WriteString(emptyStyle.Render("No sessions recorded yet. Run 'track start' to begin."))
		_, err := fmt.Fprintln(w, boxStyle.Render(sb.String()))
		return err
	}

	idxWidth := len(fmt.Sprint(len(recs)))
	sb.WriteString(headerStyle.Render(fmt.Sprintf("%*s  %-16s  %-16s  %s", idxWidth, "#", "Start", "End", "Duration")))
	sb.WriteString("\n")
	for i, r := range recs {
		sb.WriteString(fmt.Sprintf("%*d  %s  %s  %s\n",
			idxWidth, i+1,
			timeStyle.Render(r.Start.Time().In(loc).Format(timeLayout)),
			timeStyle.Render(r.End.Time().In(loc).Format(timeLayout)),
			durationStyle.Render(FormatDuration(r.Duration())),
		))
	}
	sb.WriteString("\n")
	sb.WriteString(totalStyle.Render(fmt.Sprintf("Total: %s in %d session(s)", FormatDuration(Total(recs)), len(recs))))

	_, err := fmt.Fprintln(w, boxStyle.Render(sb.String()))
	return err
}

// RenderJSON writes recs in the database document shape.
func RenderJSON(w io.Writer, recs []timelog.Record) error {
	if recs == nil {
		recs = []timelog.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Records []timelog.Record `json:"records"`
	}{Records: recs})
}
