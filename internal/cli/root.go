// Package cli wires the track subcommands to the tracker.
package cli

import (
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"timetrack/internal/config"
	"timetrack/internal/logger"
	"timetrack/internal/tracker"
)

// GlobalFlags holds the persistent flags shared by every subcommand.
type GlobalFlags struct {
	ConfigPath string
	DataDir    string
	LogLevel   string
	LogFile    string
}

// app carries the state resolved before a subcommand runs.
type app struct {
	flags  GlobalFlags
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time

	cfg     *config.Config
	log     *slog.Logger
	closer  io.Closer
	tracker *tracker.Tracker

	// ran is set once flag parsing succeeded; errors before that are usage
	// errors.
	ran bool
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr, now: time.Now}
	return a.execute(args)
}

func (a *app) execute(args []string) int {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.Execute()
	if a.closer != nil {
		_ = a.closer.Close()
	}
	if err != nil {
		if !a.ran {
			if _, ok := err.(usageError); !ok {
				err = usageError{err: err}
			}
		}
		if a.log != nil {
			a.log.Debug("command failed", "error", err)
		}
		printError(a.stderr, err)
		return exitCode(err)
	}
	return ExitOK
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "track",
		Short: "Personal time tracker",
		Long: `track records how long you work on something.

Examples:
  track start            # begin a session
  track status           # show the running session
  track stop             # end it and save the record
  track report --since 7d
  track watch            # live view`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.ConfigPath, "config", "", "path to TOML config file (default $XDG_CONFIG_HOME/track/config.toml)")
	pf.StringVar(&a.flags.DataDir, "data-dir", "", "directory holding the lock and database files")
	pf.StringVar(&a.flags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.flags.LogFile, "log-file", "", "also write logs to this file")

	root.AddCommand(
		a.startCommand(),
		a.stopCommand(),
		a.statusCommand(),
		a.cancelCommand(),
		a.reportCommand(),
		a.deleteCommand(),
		a.watchCommand(),
		a.importCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.ran = true
	cfg, err := config.Load(config.Options{
		ConfigFile: a.flags.ConfigPath,
		Flags:      cmd.Root().PersistentFlags(),
	})
	if err != nil {
		return err
	}

	log, closer, err := logger.New(cfg.Logger(), a.stderr)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	a.closer = closer
	a.tracker = tracker.Open(cfg.TrackerPaths(),
		tracker.WithClock(a.now),
		tracker.WithLogger(log.With("component", "tracker")),
	)
	log.Debug("configuration loaded",
		"lock", cfg.LockPath(),
		"database", cfg.DatabasePath(),
	)
	return nil
}

