//go:build !unix

package executor

import "os/exec"

func signalOf(*exec.ExitError) (int, bool) {
	return 0, false
}
