//go:build unix

package executor

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/mattn/go-isatty"
	"golang.org/x/sys/unix"
)

// configureProcess starts the shell in its own process group so that
// cancellation kills every process the job spawned, not only the shell.
//
// A job attached to a terminal stays in the terminal's foreground group: a
// background group would be stopped on its first terminal read, and Ctrl-C
// already reaches the whole foreground group.
func configureProcess(cmd *exec.Cmd, stdin io.Reader) {
	if f, ok := stdin.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		err := unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
		if errors.Is(err, unix.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
}
