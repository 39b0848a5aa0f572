package proc

import "fmt"

// CaptureMode is the caller's intent for retrieving a command's output.
type CaptureMode int

const (
	// CaptureNone runs the command against the controlling terminal and
	// never populates a capture buffer.
	CaptureNone CaptureMode = iota
	// CaptureStdout captures standard output for substitution into the
	// calling context; stderr stays on the terminal.
	CaptureStdout
	// CaptureObject captures both output streams into a pipeline handle
	// without echoing them.
	CaptureObject
	// CaptureHidden echoes output to the terminal and additionally captures
	// it when the selected executor supports concurrent draining.
	CaptureHidden
)

func (m CaptureMode) String() string {
	switch m {
	case CaptureNone:
		return "none"
	case CaptureStdout:
		return "stdout"
	case CaptureObject:
		return "object"
	case CaptureHidden:
		return "hidden"
	default:
		return fmt.Sprintf("capture(%d)", int(m))
	}
}

// OutputFormat selects how a pipeline's joined captured text is shaped when
// returned as a substitution value.
type OutputFormat int

const (
	// FormatStreamLines normalizes line endings and returns a single string.
	FormatStreamLines OutputFormat = iota
	// FormatListLines normalizes line endings and splits into lines.
	FormatListLines
)

// ParseOutputFormat maps the configuration spelling onto an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch s {
	case "", "stream_lines":
		return FormatStreamLines, nil
	case "list_lines":
		return FormatListLines, nil
	default:
		return FormatStreamLines, fmt.Errorf("unknown subprocess output format %q", s)
	}
}

// Policy is an immutable snapshot of the configuration flags consulted
// during spec construction and executor selection. Snapshots are taken once
// per Runner so concurrent invocations observe consistent policy.
type Policy struct {
	// ThreadSubprocs permits drain-goroutine-backed executors.
	ThreadSubprocs bool
	// CaptureAlways extends capturing to hidden-interactive runs.
	CaptureAlways bool
	// Interactive gates publication of command-not-found events.
	Interactive bool
	// RaiseSubprocError escalates a non-zero final exit status to an error
	// returned from CommandPipeline.End.
	RaiseSubprocError bool
	// OutputFormat shapes stdout-substitution results.
	OutputFormat OutputFormat
}

// DefaultPolicy mirrors the engine's configuration defaults.
func DefaultPolicy() Policy {
	return Policy{ThreadSubprocs: true}
}
