package proc

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// proxyStage runs a callable alias inside the current process. The callable
// executes on its own goroutine and reports its return code over done, which
// wait blocks on. A proxy stage never joins the pipeline's process group;
// signals aimed at the group do not reach it.
type proxyStage struct {
	spec *SubprocSpec
	done chan int

	outBuf *captureBuffer
	errBuf *captureBuffer
}

func (p *CommandPipeline) launchProxy(spec *SubprocSpec, prevRead, nextWrite *os.File) (stage, error) {
	st := &proxyStage{spec: spec, done: make(chan int, 1)}

	var stdin io.Reader
	switch {
	case prevRead != nil:
		stdin = prevRead
	case spec.Stdin.Mode == StreamFile:
		stdin = spec.Stdin.File
	case spec.Stdin.Mode == StreamSuppress:
		stdin = strings.NewReader("")
	default:
		stdin = p.stdin
	}
	if stdin == nil {
		stdin = strings.NewReader("")
	}

	var stdout io.Writer
	switch {
	case nextWrite != nil:
		stdout = nextWrite
	case spec.Stdout.Mode == StreamFile:
		stdout = spec.Stdout.File
	case spec.Stdout.Mode == StreamCapture:
		var tee io.Writer
		if spec.Captured == CaptureHidden {
			tee = p.stdout
		}
		st.outBuf = newCaptureBuffer(tee)
		stdout = st.outBuf
	case spec.Stdout.Mode == StreamSuppress:
		stdout = io.Discard
	default:
		stdout = p.stdout
	}

	var stderr io.Writer
	switch spec.Stderr.Mode {
	case StreamMerge:
		stderr = stdout
	case StreamFile:
		stderr = spec.Stderr.File
	case StreamCapture:
		var tee io.Writer
		if spec.Captured == CaptureHidden {
			tee = p.stderr
		}
		st.errBuf = newCaptureBuffer(tee)
		stderr = st.errBuf
	case StreamSuppress:
		stderr = io.Discard
	default:
		stderr = p.stderr
	}

	go func() {
		rc := 0
		func() {
			defer func() {
				if r := recover(); r != nil {
					fmt.Fprintf(stderr, "%s: %v\n", st.name(), r)
					rc = 1
				}
			}()
			if spec.Func != nil {
				rc = spec.Func(spec.Cmd, stdin, stdout, stderr)
			}
		}()
		// Downstream stages see EOF only once the write end closes; the
		// read end must close so an upstream writer unblocks.
		if nextWrite != nil {
			nextWrite.Close()
		}
		if prevRead != nil {
			prevRead.Close()
		}
		spec.closeFiles()
		st.done <- rc
	}()
	return st, nil
}

func (s *proxyStage) name() string {
	if s.spec.AliasName != "" {
		return s.spec.AliasName
	}
	if len(s.spec.Cmd) > 0 {
		return s.spec.Cmd[0]
	}
	return "proxy"
}

func (s *proxyStage) wait(onStop, onResume func()) int {
	return <-s.done
}

func (s *proxyStage) stdoutCapture() *captureBuffer { return s.outBuf }
func (s *proxyStage) stderrCapture() *captureBuffer { return s.errBuf }
func (s *proxyStage) kind() ExecutorKind            { return s.spec.Kind }
