package proc

// ExecutorKind selects how a spec is executed: as a real OS process or an
// in-process callable proxy, each optionally backed by a dedicated drain
// worker that captures output concurrently with execution.
type ExecutorKind int

const (
	// KindProcess runs a real OS process with streams connected directly;
	// the coordinating goroutine simply blocks on completion.
	KindProcess ExecutorKind = iota
	// KindThreadedProcess runs a real OS process whose capture pipe is
	// drained by a dedicated worker goroutine.
	KindThreadedProcess
	// KindProxy runs a callable alias in-process without capture wiring.
	KindProxy
	// KindThreadedProxy runs a callable alias on a worker goroutine with
	// its output captured.
	KindThreadedProxy
)

func (k ExecutorKind) String() string {
	switch k {
	case KindProcess:
		return "process"
	case KindThreadedProcess:
		return "threaded-process"
	case KindProxy:
		return "proxy"
	case KindThreadedProxy:
		return "threaded-proxy"
	default:
		return "unknown"
	}
}

// threaded reports whether the kind owns a capture drain worker.
func (k ExecutorKind) threaded() bool {
	return k == KindThreadedProcess || k == KindThreadedProxy
}

// selectKind decides a spec's executor. A real process's output pipe must be
// drained concurrently with the process or the pipe buffer fills and the
// child deadlocks, so the drain worker is paid for only when capture is
// actually required. Per-spec overrides always win over the global flags.
func selectKind(policy Policy, captured CaptureMode, callable bool, threadable, forceThreadable *bool) ExecutorKind {
	var threaded bool
	switch captured {
	case CaptureStdout, CaptureObject:
		threaded = policy.ThreadSubprocs
	case CaptureHidden:
		threaded = policy.ThreadSubprocs && policy.CaptureAlways
	default:
		threaded = false
	}

	if threadable != nil && !*threadable {
		threaded = false
	}
	if forceThreadable != nil {
		threaded = *forceThreadable
	}

	switch {
	case callable && threaded:
		return KindThreadedProxy
	case callable:
		return KindProxy
	case threaded:
		return KindThreadedProcess
	default:
		return KindProcess
	}
}
