package proc

import (
	"fmt"
	"strings"
)

// CommandNotFoundError reports that resolution exhausted every alias,
// callable and executable candidate for a command's head token. It aborts
// pipeline construction before any process starts.
type CommandNotFoundError struct {
	Cmd []string
}

func (e *CommandNotFoundError) Error() string {
	if len(e.Cmd) == 0 {
		return "command not found"
	}
	return fmt.Sprintf("command not found: %q", e.Cmd[0])
}

// RedirectionError reports that a redirection target could not be opened.
// It aborts pipeline construction before any process starts.
type RedirectionError struct {
	Mode   RedirMode
	Target string
	Err    error
}

func (e *RedirectionError) Error() string {
	return fmt.Sprintf("cannot redirect %s %q: %v", e.Mode, e.Target, e.Err)
}

func (e *RedirectionError) Unwrap() error {
	return e.Err
}

// AliasCycleError reports that alias expansion revisited a name, which would
// otherwise recurse forever.
type AliasCycleError struct {
	Name  string
	Chain []string
}

func (e *AliasCycleError) Error() string {
	return fmt.Sprintf("alias cycle detected: %s revisited via %s", e.Name, strings.Join(e.Chain, " -> "))
}

// ExitError reports a pipeline that finished with a non-zero return code. It
// is only surfaced from End when the policy enables RaiseSubprocError; the
// code remains available from the pipeline handle either way.
type ExitError struct {
	Cmd        []string
	ReturnCode int
}

func (e *ExitError) Error() string {
	if e.ReturnCode < 0 {
		return fmt.Sprintf("%s: killed by signal %d", strings.Join(e.Cmd, " "), -e.ReturnCode)
	}
	return fmt.Sprintf("%s: exit status %d", strings.Join(e.Cmd, " "), e.ReturnCode)
}
