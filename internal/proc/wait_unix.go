//go:build !windows

package proc

import (
	"errors"

	"golang.org/x/sys/unix"
)

// waitProcess reaps pid with a wait loop that also observes stop and
// continue transitions, invoking the callbacks as job-control state changes.
// The return code follows shell convention: exit status for normal exits,
// negative signal number for signal deaths.
func waitProcess(pid int, onStop, onResume func()) int {
	var ws unix.WaitStatus
	for {
		wpid, err := unix.Wait4(pid, &ws, unix.WUNTRACED|unix.WCONTINUED, nil)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			// ECHILD and friends: the process is gone and was reaped
			// elsewhere; report a neutral exit.
			return 0
		}
		if wpid != pid {
			continue
		}
		switch {
		case ws.Stopped():
			if onStop != nil {
				onStop()
			}
		case ws.Continued():
			if onResume != nil {
				onResume()
			}
		case ws.Signaled():
			return -int(ws.Signal())
		case ws.Exited():
			return ws.ExitStatus()
		}
	}
}
