package cli

import (
	"fmt"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"timetrack/internal/legacy"
	"timetrack/internal/report"
	"timetrack/internal/store"
	"timetrack/internal/watch"
)

const clockLayout = "15:04:05"

func (a *app) startCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start tracking time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := a.tracker.Start()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Started tracking at %s\n", start.Time().Local().Format(clockLayout))
			return nil
		},
	}
}

func (a *app) stopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop tracking time and save the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, err := a.tracker.Stop()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Stopped. Session lasted %s (%s - %s)\n",
				report.FormatDuration(rec.Duration()),
				rec.Start.Time().Local().Format(clockLayout),
				rec.End.Time().Local().Format(clockLayout),
			)
			return nil
		},
	}
}

func (a *app) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a session is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.tracker.Status()
			if err != nil {
				return err
			}
			if !st.Running {
				fmt.Fprintln(a.stdout, "Not running")
				return nil
			}
			fmt.Fprintf(a.stdout, "Running since %s (%s)\n",
				st.Start.Time().Local().Format(time.DateTime),
				report.FormatDuration(st.Elapsed),
			)
			return nil
		},
	}
}

func (a *app) cancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Discard the running session without saving it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := a.tracker.Cancel()
			if err != nil {
				return err
			}
			if start.IsZero() {
				fmt.Fprintln(a.stdout, "Discarded unreadable session lock")
				return nil
			}
			fmt.Fprintf(a.stdout, "Discarded session started at %s\n",
				start.Time().Local().Format(time.DateTime))
			return nil
		},
	}
}

// ReportFlags holds flags for the report command
type ReportFlags struct {
	Since string
	Last  int
	JSON  bool
}

func (a *app) reportCommand() *cobra.Command {
	flags := &ReportFlags{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "List recorded sessions",
		Long: `List recorded sessions, oldest first, with the total time.

Examples:
  track report
  track report --since 7d
  track report --last 10 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := report.Filter{Last: flags.Last, Now: a.now}
			if flags.Last < 0 {
				return usagef("--last must not be negative")
			}
			if flags.Since != "" {
				d, err := report.ParseDuration(flags.Since)
				if err != nil {
					return usageError{err: err}
				}
				f.Since = d
			}

			seq, err := a.tracker.Records()
			if err != nil {
				return err
			}
			recs := f.Apply(seq)
			if flags.JSON {
				return report.RenderJSON(a.stdout, recs)
			}
			return report.Render(a.stdout, recs, report.Options{})
		},
	}
	cmd.Flags().StringVar(&flags.Since, "since", "", "only sessions started within this window (90, 7d, 1h30m)")
	cmd.Flags().IntVar(&flags.Last, "last", 0, "only the newest N sessions")
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "print records as JSON")
	return cmd
}

func (a *app) deleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete all recorded sessions",
		Long: `Delete all recorded sessions. The database file is kept, emptied.
A running session is not affected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return usagef("refusing to delete records without --yes")
			}
			seq, err := a.tracker.Records()
			if err != nil {
				return err
			}
			n := len(slices.Collect(seq))
			if err := a.tracker.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Deleted %d session(s)\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func (a *app) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Show a live view of the running session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := tea.NewProgram(watch.NewModel(a.tracker),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(a.stdout),
			)
			m, err := p.Run()
			if err != nil {
				return fmt.Errorf("run watch view: %w", err)
			}
			if wm, ok := m.(*watch.Model); ok && wm.Err != nil {
				a.log.Warn("watch view ended with an error", "error", wm.Err)
			}
			return nil
		},
	}
}

func (a *app) importCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import sessions from a timer_tui SQLite database",
		Long: `Import completed sessions from a timer_tui SQLite database.

Sessions whose start and end times are already recorded are skipped, so
running the import again does not duplicate them.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				return usagef("--sqlite is required")
			}
			res, err := legacy.Import(path, store.New(a.cfg.DatabasePath()))
			if err != nil {
				return err
			}
			a.log.Info("legacy import finished", "source", path,
				"imported", res.Imported, "skipped", res.Skipped, "duplicates", res.Duplicates)
			fmt.Fprintf(a.stdout, "Imported %d session(s), skipped %d invalid, %d already present\n",
				res.Imported, res.Skipped, res.Duplicates)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "sqlite", "", "path to the timer_tui database")
	return cmd
}
