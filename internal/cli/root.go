// Package cli wires the jobrun cobra commands.
package cli

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/me/jobrun/internal/config"
	"github.com/me/jobrun/internal/logging"
	"github.com/spf13/cobra"
)

// app carries the settings and logger shared by every command of one invocation.
type app struct {
	cfg    config.RunnerConfig
	debug  bool
	runID  string
	logger *slog.Logger
}

// NewRootCmd creates the root cobra command for the jobrun CLI.
func NewRootCmd() *cobra.Command {
	a := &app{cfg: config.DefaultRunnerConfig()}

	root := &cobra.Command{
		Use:   "jobrun",
		Short: "jobrun runs declarative shell jobs and compares their stats",
		Long: `jobrun reads a list of jobs (input, outputs, command templates) and runs,
in declaration order, every job whose input exists and whose outputs are not
all present yet. Each execution is timed and its output size recorded in a
stats file, which --stats renders against a reference job.`,
		Args: cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.debug {
				a.cfg.LogLevel = "debug"
			}
			level, err := logging.ParseLevel(a.cfg.LogLevel)
			if err != nil {
				return err
			}
			format, err := logging.ParseFormat(a.cfg.LogFormat)
			if err != nil {
				return err
			}
			a.runID = uuid.NewString()
			a.logger = logging.WithRun(logging.NewLoggerWithWriter(level, format, cmd.ErrOrStderr()), a.runID)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd)
		},
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfg.ConfigFile, "config-file", a.cfg.ConfigFile, "Jobs configuration file: .json, .yaml or .toml (or JOBRUN_CONFIG_FILE env)")
	pf.StringVar(&a.cfg.StatsFile, "stats-file", a.cfg.StatsFile, "Stats file; .db/.sqlite/.sqlite3 keeps history in SQLite (or JOBRUN_STATS_FILE env)")
	pf.BoolVar(&a.debug, "debug", false, "Enable debug logging")
	pf.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "Log level (debug, info, warn, error)")
	pf.StringVar(&a.cfg.LogFormat, "log-format", a.cfg.LogFormat, "Log format (text, json)")

	f := root.Flags()
	f.BoolVar(&a.cfg.DryRun, "dry-run", false, "Show commands without executing them or writing stats")
	f.BoolVar(&a.cfg.ShowStats, "stats", false, "Print the stats table instead of running jobs")
	f.BoolVar(&a.cfg.Clean, "clean", false, "Remove existing job outputs instead of running jobs")
	f.StringArrayVar(&a.cfg.Jobs, "job", nil, "Only run or clean the named job (repeatable)")
	f.StringVar(&a.cfg.StatsFormat, "stats-format", a.cfg.StatsFormat, "Stats output format (table, json, yaml)")
	f.BoolVar(&a.cfg.NoColor, "no-color", false, "Disable coloured output")

	root.AddCommand(newServeCmd(a))

	return root
}
