package proc

import (
	"io"
	"os"
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/pvaler/subsh/internal/alias"
	"github.com/pvaler/subsh/internal/events"
)

// Runner builds subprocess specs and executes pipelines under an immutable
// policy snapshot. It is safe for concurrent use; each invocation owns its
// specs and pipeline exclusively.
type Runner struct {
	policy   Policy
	aliases  *alias.Registry
	events   *events.Bus
	log      zerolog.Logger
	lookPath func(string) (string, error)

	// The controlling terminal's streams. Inherited stages connect here.
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Option customizes a Runner at construction time.
type Option func(*Runner)

// WithAliases supplies the alias registry consulted during resolution.
func WithAliases(reg *alias.Registry) Option {
	return func(r *Runner) {
		if reg != nil {
			r.aliases = reg
		}
	}
}

// WithEvents supplies the bus that receives command-not-found events.
func WithEvents(bus *events.Bus) Option {
	return func(r *Runner) {
		if bus != nil {
			r.events = bus
		}
	}
}

// WithLogger enables engine tracing through the given logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Runner) {
		r.log = log
	}
}

// WithStdio replaces the terminal streams inherited by non-captured stages.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		if stdin != nil {
			r.stdin = stdin
		}
		if stdout != nil {
			r.stdout = stdout
		}
		if stderr != nil {
			r.stderr = stderr
		}
	}
}

// withLookPath replaces executable lookup, for tests.
func withLookPath(fn func(string) (string, error)) Option {
	return func(r *Runner) {
		r.lookPath = fn
	}
}

// NewRunner constructs a runner over the given policy snapshot.
func NewRunner(policy Policy, opts ...Option) *Runner {
	r := &Runner{
		policy:   policy,
		aliases:  alias.NewRegistry(),
		events:   events.NewBus(),
		log:      zerolog.Nop(),
		lookPath: exec.LookPath,
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the runner's policy snapshot.
func (r *Runner) Policy() Policy {
	return r.policy
}

// Aliases returns the registry the runner resolves against.
func (r *Runner) Aliases() *alias.Registry {
	return r.aliases
}

// Events returns the runner's event bus.
func (r *Runner) Events() *events.Bus {
	return r.events
}
