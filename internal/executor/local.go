package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dustin/go-humanize"
	"github.com/me/jobrun/internal/timer"
	"github.com/me/jobrun/pkg/model"
)

// DefaultShell interprets job commands.
const DefaultShell = "/bin/sh"

// exitCodeNotRunnable is recorded when the shell itself cannot be started.
const exitCodeNotRunnable = 127

// waitDelay bounds how long a cancelled command may keep its output pipes open.
const waitDelay = 5 * time.Second

// LocalExecutor runs job commands through a local shell, in the foreground.
// The command inherits the standard streams; its output is not captured.
type LocalExecutor struct {
	logger *slog.Logger
	clock  clock.Clock
	shell  string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Option configures a LocalExecutor.
type Option func(*LocalExecutor)

// WithClock sets the clock used to time commands.
func WithClock(clk clock.Clock) Option {
	return func(e *LocalExecutor) {
		e.clock = clk
	}
}

// WithShell sets the shell binary; it is invoked as `<shell> -c <command>`.
func WithShell(shell string) Option {
	return func(e *LocalExecutor) {
		e.shell = shell
	}
}

// WithStreams replaces the standard streams handed to commands.
func WithStreams(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(e *LocalExecutor) {
		e.stdin = stdin
		e.stdout = stdout
		e.stderr = stderr
	}
}

// NewLocalExecutor creates a LocalExecutor wired to the process standard streams.
func NewLocalExecutor(logger *slog.Logger, opts ...Option) *LocalExecutor {
	e := &LocalExecutor{
		logger: logger.With("component", "local-executor"),
		clock:  clock.New(),
		shell:  DefaultShell,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the job synchronously and returns its stats.
// Only a context that is already done yields an error. Cancelling ctx while
// the command runs kills its process group; the stat is still returned.
func (e *LocalExecutor) Run(ctx context.Context, job model.Job) (model.Stat, error) {
	if err := ctx.Err(); err != nil {
		return model.Stat{}, err
	}

	cmd := exec.CommandContext(ctx, e.shell, "-c", job.ShellCommand())
	cmd.Stdin = e.stdin
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr
	cmd.WaitDelay = waitDelay
	configureProcess(cmd, e.stdin)

	e.logger.Debug("running job", "job", job.Name, "shell", e.shell)

	t := timer.StartNew(e.clock)
	runErr := cmd.Run()
	t.End()

	code, ok := exitCode(runErr)
	if !ok {
		e.logger.Error("command did not start", "job", job.Name, "error", runErr)
		code = exitCodeNotRunnable
	}

	size := OutputSize(job.Outputs)
	stat := model.Stat{
		Name:       job.Name,
		Time:       t.Elapsed().Seconds(),
		Size:       size,
		ReturnCode: code,
	}

	e.logger.Info("job finished",
		"job", job.Name,
		"return_code", code,
		"duration", t.Elapsed().String(),
		"size", humanize.IBytes(uint64(size)),
	)
	return stat, nil
}

// OutputSize sums the sizes of the outputs that exist.
func OutputSize(outputs []string) int64 {
	var total int64
	for _, out := range outputs {
		info, err := os.Stat(out)
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total
}

// exitCode maps the result of cmd.Run to a shell-style exit status.
// ok is false when the process never ran.
func exitCode(err error) (code int, ok bool) {
	if err == nil {
		return 0, true
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if sig, signaled := signalOf(exitErr); signaled {
			return 128 + sig, true
		}
		return exitErr.ExitCode(), true
	}
	return 0, false
}
