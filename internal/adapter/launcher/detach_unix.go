//go:build unix

package launcher

import (
	"os/exec"
	"syscall"
)

// detach puts the worker in its own session so it survives the parent and its terminal.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
