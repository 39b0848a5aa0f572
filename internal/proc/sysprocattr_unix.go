//go:build !windows

package proc

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// configureSysProcAttr places the child in a process group so the whole
// pipeline can be signalled as a unit. A zero pgid makes the first child the
// group leader; later stages join its group.
func configureSysProcAttr(cmd *exec.Cmd, pgid int) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    pgid,
	}
}

func killProcessGroup(pgid int, sig syscall.Signal) error {
	return unix.Kill(-pgid, sig)
}
