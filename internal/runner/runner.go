// Package runner drives resolved jobs through the eligibility checks,
// executes the eligible ones in declaration order and persists their stats.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/me/jobrun/internal/executor"
	"github.com/me/jobrun/internal/store"
	"github.com/me/jobrun/pkg/model"
)

// Outcome is what the runner did with a job.
type Outcome string

const (
	OutcomeCantRun   Outcome = "cant_run"
	OutcomeUpToDate  Outcome = "up_to_date"
	OutcomeDryRun    Outcome = "dry_run"
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// Result records the outcome of one job. Stat is set for executed jobs only.
type Result struct {
	Job     string
	Outcome Outcome
	Stat    *model.Stat
}

// Summary aggregates the results of a run.
type Summary struct {
	Results []Result
}

// Count returns how many jobs ended with the given outcome.
func (s Summary) Count(o Outcome) int {
	n := 0
	for _, r := range s.Results {
		if r.Outcome == o {
			n++
		}
	}
	return n
}

// Runner executes jobs one at a time.
type Runner struct {
	logger *slog.Logger
	exec   executor.Executor
	store  store.Store
	out    io.Writer
	dryRun bool
	remove func(string) error

	skipColor *color.Color
	runColor  *color.Color
	failColor *color.Color
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutput sets where progress lines and commands are printed.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.out = w
	}
}

// WithDryRun makes the runner show commands without executing them or writing stats.
func WithDryRun(dryRun bool) Option {
	return func(r *Runner) {
		r.dryRun = dryRun
	}
}

// WithColor forces coloured status lines on or off.
func WithColor(enabled bool) Option {
	return func(r *Runner) {
		for _, c := range []*color.Color{r.skipColor, r.runColor, r.failColor} {
			if enabled {
				c.EnableColor()
			} else {
				c.DisableColor()
			}
		}
	}
}

// New creates a Runner. st may be nil when running dry.
func New(exec executor.Executor, st store.Store, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		logger:    logger.With("component", "runner"),
		exec:      exec,
		store:     st,
		out:       os.Stdout,
		remove:    os.Remove,
		skipColor: color.New(color.FgYellow),
		runColor:  color.New(color.FgGreen, color.Bold),
		failColor: color.New(color.FgRed),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run walks jobs in order. A job runs when its input exists and at least one
// of its outputs is missing. Non-zero return codes are recorded, never fatal.
// Errors are returned only for a cancelled context or a failing stats store.
// A job interrupted by cancellation keeps its stat; no further job starts.
func (r *Runner) Run(ctx context.Context, jobs []model.Job) (Summary, error) {
	var summary Summary
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		res, err := r.runJob(ctx, job)
		if err != nil {
			return summary, err
		}
		summary.Results = append(summary.Results, res)
		if err := ctx.Err(); err != nil {
			r.logger.Warn("run interrupted", "job", job.Name, "error", err)
			return summary, err
		}
	}

	r.logger.Info("run complete",
		"jobs", len(jobs),
		"succeeded", summary.Count(OutcomeSucceeded),
		"failed", summary.Count(OutcomeFailed),
		"skipped", summary.Count(OutcomeCantRun)+summary.Count(OutcomeUpToDate),
		"dry_run", r.dryRun,
	)
	return summary, nil
}

func (r *Runner) runJob(ctx context.Context, job model.Job) (Result, error) {
	fmt.Fprintf(r.out, "Running job %s: ", job.Name)

	if !job.CanRun() {
		r.skipColor.Fprintln(r.out, "job can't run now, skipping")
		r.logger.Debug("input missing", "job", job.Name, "input", job.Input)
		return Result{Job: job.Name, Outcome: OutcomeCantRun}, nil
	}
	if !job.ShouldRun() {
		r.skipColor.Fprintln(r.out, "job outputs already generated, skipping")
		return Result{Job: job.Name, Outcome: OutcomeUpToDate}, nil
	}

	fmt.Fprintln(r.out)
	r.runColor.Fprintln(r.out, job.DisplayCommand())
	if r.dryRun {
		return Result{Job: job.Name, Outcome: OutcomeDryRun}, nil
	}

	stat, err := r.exec.Run(ctx, job)
	if err != nil {
		return Result{}, fmt.Errorf("job %s: %w", job.Name, err)
	}
	if r.store != nil {
		// An interrupted command still gets its stat recorded.
		if err := r.store.Put(context.WithoutCancel(ctx), stat); err != nil {
			return Result{}, fmt.Errorf("job %s: save stats: %w", job.Name, err)
		}
	}

	outcome := OutcomeSucceeded
	if stat.ReturnCode != 0 {
		outcome = OutcomeFailed
		r.failColor.Fprintf(r.out, "job %s exited with code %d\n", job.Name, stat.ReturnCode)
		r.logger.Warn("job failed", "job", job.Name, "return_code", stat.ReturnCode)
	}
	return Result{Job: job.Name, Outcome: outcome, Stat: &stat}, nil
}
