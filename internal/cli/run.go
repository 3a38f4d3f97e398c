package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/me/jobrun/internal/executor"
	"github.com/me/jobrun/internal/parser"
	"github.com/me/jobrun/internal/resolver"
	"github.com/me/jobrun/internal/runner"
	"github.com/me/jobrun/internal/stats"
	"github.com/me/jobrun/internal/store"
	"github.com/me/jobrun/pkg/model"
	"github.com/spf13/cobra"
)

// run dispatches to the stats view, clean mode or the runner loop, in that
// order of precedence.
func (a *app) run(cmd *cobra.Command) error {
	switch strings.ToLower(a.cfg.StatsFormat) {
	case stats.FormatTable, stats.FormatJSON, stats.FormatYAML:
	default:
		return fmt.Errorf("invalid --stats-format %q (want table, json or yaml)", a.cfg.StatsFormat)
	}

	conf, err := a.loadConf()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.ShowStats {
		return a.showStats(ctx, cmd, conf)
	}

	selected, err := conf.Select(a.cfg.Jobs)
	if err != nil {
		return err
	}

	exec := executor.NewLocalExecutor(a.logger,
		executor.WithStreams(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()))
	opts := []runner.Option{
		runner.WithOutput(cmd.OutOrStdout()),
		runner.WithDryRun(a.cfg.DryRun),
	}
	if a.cfg.NoColor {
		opts = append(opts, runner.WithColor(false))
	}

	if a.cfg.Clean {
		_, err := runner.New(exec, nil, a.logger, opts...).Clean(ctx, selected.Jobs)
		return err
	}

	var st store.Store
	if !a.cfg.DryRun {
		st, err = store.Open(ctx, a.cfg.StatsFile, a.runID, a.logger)
		if err != nil {
			return fmt.Errorf("open stats %s: %w", a.cfg.StatsFile, err)
		}
		defer st.Close()
	}

	_, err = runner.New(exec, st, a.logger, opts...).Run(ctx, selected.Jobs)
	return err
}

// loadConf parses and resolves the configuration file.
func (a *app) loadConf() (model.Conf, error) {
	raw, err := parser.New(a.logger).LoadFile(a.cfg.ConfigFile)
	if err != nil {
		return model.Conf{}, err
	}
	conf, err := resolver.Resolve(*raw)
	if err != nil {
		return model.Conf{}, err
	}
	a.logger.Debug("configuration resolved", "path", a.cfg.ConfigFile, "jobs", len(conf.Jobs))
	return conf, nil
}

func (a *app) showStats(ctx context.Context, cmd *cobra.Command, conf model.Conf) error {
	loaded, err := store.LoadFile(ctx, a.cfg.StatsFile, a.logger)
	if err != nil {
		return fmt.Errorf("load stats %s: %w", a.cfg.StatsFile, err)
	}

	f := stats.Formatter{
		Stats:         loaded,
		ReferenceName: conf.StatsReference,
		Order:         conf.Names(),
	}
	if _, ok := f.Reference(); !ok {
		a.logger.Warn("reference job has no stats, diffs are not computed", "reference", conf.StatsReference)
	}
	return stats.Render(cmd.OutOrStdout(), a.cfg.StatsFormat, f.Rows())
}
