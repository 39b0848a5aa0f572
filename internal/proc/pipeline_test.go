//go:build !windows

package proc

import (
	"bytes"
	"strings"
	"syscall"
	"testing"
	"time"
)

func buildSpecsForTest(t *testing.T, r *Runner, captured CaptureMode, groups ...Group) []*SubprocSpec {
	t.Helper()
	specs, err := r.CmdsToSpecs(groups, captured)
	if err != nil {
		t.Fatalf("CmdsToSpecs: %v", err)
	}
	return specs
}

func TestPipelineCapturesFinalStageStdout(t *testing.T) {
	for _, threaded := range []bool{true, false} {
		r := NewRunner(Policy{ThreadSubprocs: threaded},
			WithStdio(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{}))
		specs := buildSpecsForTest(t, r, CaptureStdout,
			CommandGroup("sh", "-c", `printf 'HELLO\nBYE\n'`),
			PipeGroup(),
			CommandGroup("grep", "BYE"),
		)

		pl, err := r.launchPipeline(specs, false)
		if err != nil {
			t.Fatalf("launch: %v", err)
		}
		if err := pl.End(); err != nil {
			t.Fatalf("end: %v", err)
		}
		if got := pl.Out(); got != "BYE\n" {
			t.Fatalf("threaded=%v: Out = %q, want %q", threaded, got, "BYE\n")
		}
		if rc := pl.ReturnCode(); rc != 0 {
			t.Fatalf("threaded=%v: rc = %d, want 0", threaded, rc)
		}
		if pl.State() != StateEnded {
			t.Fatalf("state = %v, want ended", pl.State())
		}
	}
}

func TestPipelineObjectCapturesStderr(t *testing.T) {
	r := NewRunner(Policy{ThreadSubprocs: true},
		WithStdio(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{}))
	specs := buildSpecsForTest(t, r, CaptureObject,
		CommandGroup("sh", "-c", `echo out; echo err >&2`),
	)

	pl, err := r.launchPipeline(specs, false)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if err := pl.End(); err != nil {
		t.Fatalf("end: %v", err)
	}
	if got := pl.Out(); got != "out\n" {
		t.Fatalf("Out = %q, want %q", got, "out\n")
	}
	if got := pl.Errors(); got != "err\n" {
		t.Fatalf("Errors = %q, want %q", got, "err\n")
	}
}

func TestPipelineStdoutCaptureLeavesStderrOnTerminal(t *testing.T) {
	var termErr bytes.Buffer
	r := NewRunner(Policy{ThreadSubprocs: true},
		WithStdio(strings.NewReader(""), &bytes.Buffer{}, &termErr))
	specs := buildSpecsForTest(t, r, CaptureStdout,
		CommandGroup("sh", "-c", `echo out; echo err >&2`),
	)

	pl, err := r.launchPipeline(specs, false)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if err := pl.End(); err != nil {
		t.Fatalf("end: %v", err)
	}
	if got := pl.Out(); got != "out\n" {
		t.Fatalf("Out = %q, want %q", got, "out\n")
	}
	if got := termErr.String(); got != "err\n" {
		t.Fatalf("terminal stderr = %q, want %q", got, "err\n")
	}
}

func TestPipelineMergeRedirectJoinsStreams(t *testing.T) {
	r := NewRunner(Policy{ThreadSubprocs: true},
		WithStdio(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{}))
	specs := buildSpecsForTest(t, r, CaptureStdout, Group{Tokens: []Token{
		Word("sh"), Word("-c"), Word(`echo out; echo err >&2`),
		Redirect{Mode: RedirErrToOut},
	}})
	// Merged stderr follows stdout into the capture pipe.
	if specs[0].Stderr.Mode != StreamMerge {
		t.Fatalf("stderr mode = %v, want merge", specs[0].Stderr.Mode)
	}

	pl, err := r.launchPipeline(specs, false)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if err := pl.End(); err != nil {
		t.Fatalf("end: %v", err)
	}
	got := pl.Out()
	if !strings.Contains(got, "out\n") || !strings.Contains(got, "err\n") {
		t.Fatalf("Out = %q, want both streams", got)
	}
}

func TestSignalDeathYieldsNegativeReturnCode(t *testing.T) {
	r := NewRunner(Policy{ThreadSubprocs: true},
		WithStdio(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{}))
	specs := buildSpecsForTest(t, r, CaptureObject,
		CommandGroup("sh", "-c", "kill -INT $$"),
	)

	pl, err := r.launchPipeline(specs, false)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if err := pl.End(); err != nil {
		t.Fatalf("end: %v", err)
	}
	if rc := pl.ReturnCode(); rc != -int(syscall.SIGINT) {
		t.Fatalf("rc = %d, want %d", rc, -int(syscall.SIGINT))
	}
}

func TestSuspensionIsObservedAndSticky(t *testing.T) {
	r := NewRunner(Policy{ThreadSubprocs: true},
		WithStdio(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{}))
	specs := buildSpecsForTest(t, r, CaptureNone,
		CommandGroup("sh", "-c", "kill -STOP $$; exit 0"),
	)

	pl, err := r.launchPipeline(specs, false)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}

	ended := make(chan error, 1)
	go func() { ended <- pl.End() }()

	deadline := time.After(5 * time.Second)
	for !pl.Suspended() {
		select {
		case <-deadline:
			t.Fatal("pipeline never reported suspension")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if pl.State() != StateSuspended {
		t.Fatalf("state = %v, want suspended", pl.State())
	}

	if err := pl.SendSignal(syscall.SIGCONT); err != nil {
		t.Fatalf("SIGCONT: %v", err)
	}
	select {
	case err := <-ended:
		if err != nil {
			t.Fatalf("end: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not finish after SIGCONT")
	}

	if rc := pl.ReturnCode(); rc != 0 {
		t.Fatalf("rc = %d, want 0", rc)
	}
	if !pl.Suspended() {
		t.Fatal("Suspended must stay true after completion")
	}
	if pl.State() != StateEnded {
		t.Fatalf("state = %v, want ended", pl.State())
	}
}

func TestRaiseSubprocErrorEscalatesExitStatus(t *testing.T) {
	r := NewRunner(Policy{ThreadSubprocs: true, RaiseSubprocError: true},
		WithStdio(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{}))
	specs := buildSpecsForTest(t, r, CaptureObject,
		CommandGroup("sh", "-c", "exit 3"),
	)

	pl, err := r.launchPipeline(specs, false)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	err = pl.End()
	exitErr, ok := err.(*ExitError)
	if !ok {
		t.Fatalf("end error = %v, want ExitError", err)
	}
	if exitErr.ReturnCode != 3 {
		t.Fatalf("ReturnCode = %d, want 3", exitErr.ReturnCode)
	}
	if pl.ReturnCode() != 3 {
		t.Fatalf("pipeline rc = %d, want 3", pl.ReturnCode())
	}

	// End is idempotent and keeps returning the same escalation.
	if again := pl.End(); again != err {
		t.Fatalf("second End = %v, want the first error", again)
	}
}

func TestPipelineStdinFeedsFirstStage(t *testing.T) {
	r := NewRunner(Policy{ThreadSubprocs: true},
		WithStdio(strings.NewReader("alpha\nbeta\n"), &bytes.Buffer{}, &bytes.Buffer{}))
	specs := buildSpecsForTest(t, r, CaptureStdout,
		CommandGroup("grep", "beta"),
	)

	pl, err := r.launchPipeline(specs, false)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if err := pl.End(); err != nil {
		t.Fatalf("end: %v", err)
	}
	if got := pl.Out(); got != "beta\n" {
		t.Fatalf("Out = %q, want %q", got, "beta\n")
	}
}
