package proc

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// processStage is a launched real OS process. Its capture pipes, if any,
// are drained by dedicated workers that are joined before wait returns, so
// the pipeline reads a complete buffer.
type processStage struct {
	spec   *SubprocSpec
	cmd    *exec.Cmd
	pid    int
	drains sync.WaitGroup
	outBuf *captureBuffer
	errBuf *captureBuffer
}

func (p *CommandPipeline) launchProcess(spec *SubprocSpec, prevRead, nextWrite *os.File) (stage, error) {
	st := &processStage{spec: spec}
	cmd := exec.Command(spec.Binary, spec.Cmd[1:]...)
	cmd.Args[0] = spec.Cmd[0]

	// Parent-side copies of fds the child inherits; closed once the child
	// holds its own duplicates.
	var parentClose []*os.File

	switch {
	case prevRead != nil:
		cmd.Stdin = prevRead
		parentClose = append(parentClose, prevRead)
	case spec.Stdin.Mode == StreamFile:
		cmd.Stdin = spec.Stdin.File
		parentClose = append(parentClose, spec.Stdin.File)
	case spec.Stdin.Mode == StreamSuppress:
		cmd.Stdin = nil
	default:
		f, owned, err := st.readerFile(p.stdin)
		if err != nil {
			return nil, err
		}
		if f != nil {
			cmd.Stdin = f
			if owned {
				parentClose = append(parentClose, f)
			}
		}
	}

	switch {
	case nextWrite != nil:
		cmd.Stdout = nextWrite
		parentClose = append(parentClose, nextWrite)
	case spec.Stdout.Mode == StreamFile:
		cmd.Stdout = spec.Stdout.File
		parentClose = append(parentClose, spec.Stdout.File)
	case spec.Stdout.Mode == StreamCapture:
		var tee io.Writer
		if spec.Captured == CaptureHidden {
			tee = p.stdout
		}
		st.outBuf = newCaptureBuffer(tee)
		w, err := st.drainInto(st.outBuf)
		if err != nil {
			closeAll(parentClose)
			return nil, err
		}
		cmd.Stdout = w
		parentClose = append(parentClose, w)
	case spec.Stdout.Mode == StreamSuppress:
		cmd.Stdout = nil
	default:
		w, owned, err := st.writerFile(p.stdout)
		if err != nil {
			closeAll(parentClose)
			return nil, err
		}
		cmd.Stdout = w
		if owned {
			parentClose = append(parentClose, w)
		}
	}

	switch spec.Stderr.Mode {
	case StreamMerge:
		cmd.Stderr = cmd.Stdout
	case StreamFile:
		cmd.Stderr = spec.Stderr.File
		parentClose = append(parentClose, spec.Stderr.File)
	case StreamCapture:
		var tee io.Writer
		if spec.Captured == CaptureHidden {
			tee = p.stderr
		}
		st.errBuf = newCaptureBuffer(tee)
		w, err := st.drainInto(st.errBuf)
		if err != nil {
			closeAll(parentClose)
			return nil, err
		}
		cmd.Stderr = w
		parentClose = append(parentClose, w)
	case StreamSuppress:
		cmd.Stderr = nil
	default:
		w, owned, err := st.writerFile(p.stderr)
		if err != nil {
			closeAll(parentClose)
			return nil, err
		}
		cmd.Stderr = w
		if owned {
			parentClose = append(parentClose, w)
		}
	}

	p.mu.Lock()
	pgid := p.pgid
	p.mu.Unlock()
	configureSysProcAttr(cmd, pgid)

	if err := cmd.Start(); err != nil {
		closeAll(parentClose)
		return nil, fmt.Errorf("start %s: %w", spec.Cmd[0], err)
	}

	st.cmd = cmd
	st.pid = cmd.Process.Pid
	p.mu.Lock()
	if p.pgid == 0 {
		p.pgid = st.pid
	}
	p.mu.Unlock()

	closeAll(parentClose)
	return st, nil
}

// drainInto creates the child-facing write end of a capture pipe and a
// drain worker that copies everything the child writes into buf. The worker
// exclusively owns the read end until the child exits.
func (s *processStage) drainInto(buf *captureBuffer) (*os.File, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create capture pipe: %w", err)
	}
	s.drains.Add(1)
	go func() {
		defer s.drains.Done()
		defer pr.Close()
		_, _ = io.Copy(buf, pr)
	}()
	return pw, nil
}

// writerFile adapts an inherited output destination to a child-passable
// file. Real terminal files pass through; anything else gets a pipe drained
// by a worker joined at wait time, keeping test sinks deterministic. The
// second result reports whether the parent owns the returned file and must
// close it once the child holds its duplicate.
func (s *processStage) writerFile(w io.Writer) (*os.File, bool, error) {
	if f, ok := w.(*os.File); ok {
		return f, false, nil
	}
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, false, fmt.Errorf("create inherit pipe: %w", err)
	}
	s.drains.Add(1)
	go func() {
		defer s.drains.Done()
		defer pr.Close()
		_, _ = io.Copy(onlyWriter{w}, pr)
	}()
	return pw, true, nil
}

// readerFile adapts an inherited input source to a child-passable file. A
// nil return means the child reads from the null device.
func (s *processStage) readerFile(rd io.Reader) (*os.File, bool, error) {
	if rd == nil {
		return nil, false, nil
	}
	if f, ok := rd.(*os.File); ok {
		return f, false, nil
	}
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, false, fmt.Errorf("create stdin pipe: %w", err)
	}
	// Not tracked by the drain group: a terminal reader may never return
	// and must not block wait.
	go func() {
		defer pw.Close()
		_, _ = io.Copy(pw, rd)
	}()
	return pr, true, nil
}

func (s *processStage) wait(onStop, onResume func()) int {
	rc := waitProcess(s.pid, onStop, onResume)
	s.drains.Wait()
	return rc
}

func (s *processStage) stdoutCapture() *captureBuffer { return s.outBuf }
func (s *processStage) stderrCapture() *captureBuffer { return s.errBuf }
func (s *processStage) kind() ExecutorKind            { return s.spec.Kind }

// onlyWriter hides optional interfaces of the wrapped writer from io.Copy.
type onlyWriter struct {
	io.Writer
}

func closeAll(files []*os.File) {
	for _, f := range files {
		if f != nil {
			f.Close()
		}
	}
}
