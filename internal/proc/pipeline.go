package proc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pvaler/subsh/internal/metrics"
)

// PipelineState is the lifecycle state of a CommandPipeline.
type PipelineState int

const (
	StateBuilding PipelineState = iota
	StateRunning
	StateSuspended
	StateEnded
)

func (s PipelineState) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateRunning:
		return "running"
	case StateSuspended:
		return "suspended"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// stage is a launched process or proxy within a pipeline.
type stage interface {
	// wait blocks until the stage finishes and returns its return code
	// (negative signal number for signal termination). Stop and resume
	// transitions are reported through the callbacks.
	wait(onStop, onResume func()) int
	stdoutCapture() *captureBuffer
	stderrCapture() *captureBuffer
	kind() ExecutorKind
}

// CommandPipeline owns the launched stages of one subprocess invocation.
// The coordinating goroutine launches stages left to right, pairwise
// connecting stdout to stdin, and End blocks it until every stage has
// exited. Capture buffers may be read only after End returns.
type CommandPipeline struct {
	specs  []*SubprocSpec
	stages []stage
	policy Policy
	log    zerolog.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	started time.Time

	mu         sync.Mutex
	state      PipelineState
	suspended  bool
	pgid       int
	returncode int

	endOnce sync.Once
	endErr  error
	rawOut  string
	rawErr  string
}

// launchPipeline starts every spec, connecting stage i's stdout to stage
// i+1's stdin before stage i+1 is launched. On failure the whole process
// group is killed and launched stages are reaped.
func (r *Runner) launchPipeline(specs []*SubprocSpec, background bool) (*CommandPipeline, error) {
	if len(specs) == 0 {
		return nil, errors.New("no subprocess specs to launch")
	}

	p := &CommandPipeline{
		specs:   specs,
		policy:  r.policy,
		log:     r.log,
		stdin:   r.stdin,
		stdout:  r.stdout,
		stderr:  r.stderr,
		state:   StateBuilding,
		started: time.Now(),
	}

	// Background jobs must not compete with the caller for the terminal.
	if background && specs[0].Stdin.Mode == StreamInherit {
		specs[0].Stdin.Mode = StreamSuppress
	}

	var prevRead *os.File
	for i, spec := range specs {
		var nextRead, nextWrite *os.File
		if i < len(specs)-1 {
			var err error
			nextRead, nextWrite, err = os.Pipe()
			if err != nil {
				if prevRead != nil {
					prevRead.Close()
				}
				p.abort()
				return nil, fmt.Errorf("create pipe: %w", err)
			}
		}

		st, err := p.launchStage(spec, prevRead, nextWrite)
		if err != nil {
			if prevRead != nil {
				prevRead.Close()
			}
			if nextRead != nil {
				nextRead.Close()
			}
			if nextWrite != nil {
				nextWrite.Close()
			}
			p.abort()
			return nil, err
		}
		p.stages = append(p.stages, st)
		prevRead = nextRead
	}

	p.mu.Lock()
	p.state = StateRunning
	p.mu.Unlock()
	metrics.PipelineLaunched(specs[len(specs)-1].Captured.String())
	r.log.Debug().Int("stages", len(specs)).Msg("pipeline running")
	return p, nil
}

func (p *CommandPipeline) launchStage(spec *SubprocSpec, prevRead, nextWrite *os.File) (stage, error) {
	if spec.Binary == "" {
		return p.launchProxy(spec, prevRead, nextWrite)
	}
	return p.launchProcess(spec, prevRead, nextWrite)
}

// abort tears down a partially launched pipeline. Launched stages are
// reaped off the coordinating goroutine since the pipeline is discarded.
func (p *CommandPipeline) abort() {
	p.mu.Lock()
	pgid := p.pgid
	p.mu.Unlock()
	if pgid != 0 {
		_ = killProcessGroup(pgid, syscall.SIGKILL)
	}
	for _, st := range p.stages {
		go st.wait(nil, nil)
	}
}

// End blocks the caller until every stage has exited, then finalizes the
// captured text and return code. It is idempotent. A non-zero return code
// is escalated to an ExitError only when the policy enables
// RaiseSubprocError; it remains available from ReturnCode either way.
func (p *CommandPipeline) End() error {
	p.endOnce.Do(p.end)
	return p.endErr
}

func (p *CommandPipeline) end() {
	rc := 0
	for i, st := range p.stages {
		code := st.wait(p.markSuspended, p.markResumed)
		metrics.StageExited(st.kind().String(), code)
		p.log.Debug().Int("stage", i).Int("returncode", code).Msg("pipeline stage ended")
		if i == len(p.stages)-1 {
			rc = code
		}
	}

	last := p.stages[len(p.stages)-1]
	if buf := last.stdoutCapture(); buf != nil {
		p.rawOut = buf.String()
	}
	if buf := last.stderrCapture(); buf != nil {
		p.rawErr = buf.String()
	}

	p.mu.Lock()
	p.returncode = rc
	p.state = StateEnded
	p.mu.Unlock()

	metrics.ObservePipelineDuration(time.Since(p.started))

	if p.policy.RaiseSubprocError && rc != 0 {
		p.endErr = &ExitError{Cmd: p.specs[len(p.specs)-1].Cmd, ReturnCode: rc}
	}
}

func (p *CommandPipeline) markSuspended() {
	p.mu.Lock()
	first := !p.suspended
	p.suspended = true
	p.state = StateSuspended
	p.mu.Unlock()
	if first {
		metrics.PipelineSuspended()
		p.log.Debug().Msg("pipeline suspended by terminal-control signal")
	}
}

func (p *CommandPipeline) markResumed() {
	p.mu.Lock()
	if p.state == StateSuspended {
		p.state = StateRunning
	}
	p.mu.Unlock()
}

// Out returns the pipeline's captured stdout with line endings normalized.
// Valid after End.
func (p *CommandPipeline) Out() string {
	return StreamLines(p.rawOut)
}

// Errors returns the pipeline's captured stderr with line endings
// normalized. Valid after End.
func (p *CommandPipeline) Errors() string {
	return StreamLines(p.rawErr)
}

// rawStdout exposes the unformatted captured stdout for output shaping.
func (p *CommandPipeline) rawStdout() string {
	return p.rawOut
}

// ReturnCode is the last stage's exit code, or the negative of the signal
// number when it was terminated by a signal.
func (p *CommandPipeline) ReturnCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.returncode
}

// Suspended reports whether any stage was ever stopped by a
// terminal-control signal. It stays true after the stage resumes and runs
// to completion.
func (p *CommandPipeline) Suspended() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.suspended
}

// State returns the pipeline's lifecycle state.
func (p *CommandPipeline) State() PipelineState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SendSignal delivers sig to the pipeline's process group, reaching all
// OS-process stages at once. In-process proxies are not signalable.
func (p *CommandPipeline) SendSignal(sig syscall.Signal) error {
	p.mu.Lock()
	pgid := p.pgid
	p.mu.Unlock()
	if pgid == 0 {
		return errors.New("pipeline has no process group")
	}
	return killProcessGroup(pgid, sig)
}
