//go:build !unix

package executor

import (
	"io"
	"os/exec"
)

func configureProcess(*exec.Cmd, io.Reader) {}
