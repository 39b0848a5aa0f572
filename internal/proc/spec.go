package proc

import (
	"errors"
	"fmt"
	"os"

	"github.com/pvaler/subsh/internal/alias"
)

// StreamMode describes how one of a spec's standard streams is wired.
type StreamMode int

const (
	// StreamInherit connects the stream to the controlling terminal (or to
	// the neighbouring pipeline stage once launched).
	StreamInherit StreamMode = iota
	// StreamSuppress discards the stream (reads see EOF, writes vanish).
	StreamSuppress
	// StreamCapture routes the stream through a capturing pipe drained into
	// the pipeline's output buffer.
	StreamCapture
	// StreamFile connects the stream to an opened redirection target.
	StreamFile
	// StreamMerge routes stderr to wherever stdout goes. Only valid for
	// stderr.
	StreamMerge
)

// StreamSpec is the wiring of a single standard stream.
type StreamSpec struct {
	Mode StreamMode
	// File is the opened redirection target when Mode is StreamFile. It is
	// closed when the owning stage ends.
	File *os.File
}

// SubprocSpec is one command's execution descriptor: resolved argv,
// redirections, capture mode, executor kind and threading overrides. A spec
// is created once from a single command token group and consumed exactly
// once by a pipeline.
type SubprocSpec struct {
	// Cmd is the resolved ordered argv. It is empty when the command chain
	// collapsed to modifier aliases alone.
	Cmd []string
	// AliasName records the outermost alias that matched, if any.
	AliasName string
	// Func is the callable target for callable-alias specs.
	Func alias.Func
	// Binary is the resolved executable path for external commands.
	Binary string

	Captured CaptureMode
	Kind     ExecutorKind

	// Threadable and ForceThreadable are per-spec overrides left nil unless
	// a modifier alias declared them. They take precedence over the global
	// threading flags.
	Threadable      *bool
	ForceThreadable *bool

	Stdin  StreamSpec
	Stdout StreamSpec
	Stderr StreamSpec

	last bool
}

// Build constructs a spec from one command token group, resolving aliases
// and opening redirection targets. It fails with CommandNotFoundError,
// AliasCycleError or RedirectionError before any process starts.
func (r *Runner) Build(tokens []Token) (*SubprocSpec, error) {
	return r.build(tokens, CaptureHidden, true)
}

func (r *Runner) build(tokens []Token, captured CaptureMode, last bool) (*SubprocSpec, error) {
	argv, redirects, err := flattenTokens(tokens)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, errors.New("empty subprocess command")
	}

	spec := &SubprocSpec{Captured: captured, last: last}
	if err := r.resolve(spec, argv); err != nil {
		return nil, err
	}
	if err := spec.applyRedirects(redirects); err != nil {
		spec.closeFiles()
		return nil, err
	}
	spec.Kind = selectKind(r.policy, captured, spec.Func != nil, spec.Threadable, spec.ForceThreadable)
	spec.wireStreams()

	r.log.Debug().
		Strs("cmd", spec.Cmd).
		Str("alias", spec.AliasName).
		Stringer("kind", spec.Kind).
		Stringer("captured", captured).
		Msg("built subprocess spec")
	return spec, nil
}

// flattenTokens splits a token group into a flat argv and its redirections.
// Nested literal lists contribute consecutive argv entries.
func flattenTokens(tokens []Token) ([]string, []Redirect, error) {
	var argv []string
	var redirects []Redirect
	for _, tok := range tokens {
		switch t := tok.(type) {
		case Word:
			argv = append(argv, string(t))
		case WordList:
			argv = append(argv, t...)
		case Redirect:
			redirects = append(redirects, t)
		default:
			return nil, nil, fmt.Errorf("unsupported token type %T", tok)
		}
	}
	return argv, redirects, nil
}

// resolve repeatedly resolves the head token against the alias registry.
// Command and token-sequence targets are spliced in place of the head;
// modifier aliases apply their attribute overrides and resolution continues
// into the trailing tokens, so the modifier closest to the final literal
// command is applied last and wins on conflict. Callable targets stop
// resolution. Whatever remains must name an executable.
func (r *Runner) resolve(spec *SubprocSpec, argv []string) error {
	expanded := make(map[string]struct{})
	var chain []string
	for len(argv) > 0 {
		head := argv[0]
		target, ok := r.aliases.Lookup(head)
		if !ok {
			break
		}
		if spec.AliasName == "" {
			spec.AliasName = head
		}

		switch t := target.(type) {
		case alias.Command:
			if _, dup := expanded[head]; dup {
				return &AliasCycleError{Name: head, Chain: chain}
			}
			expanded[head] = struct{}{}
			chain = append(chain, head)
			argv = append(SplitWords(string(t)), argv[1:]...)
		case alias.Tokens:
			if _, dup := expanded[head]; dup {
				return &AliasCycleError{Name: head, Chain: chain}
			}
			expanded[head] = struct{}{}
			chain = append(chain, head)
			argv = append(append([]string(nil), t...), argv[1:]...)
		case alias.Func:
			spec.Func = t
			spec.Cmd = argv
			return nil
		case alias.Modifier:
			// Each modifier overwrites what outer layers declared; the one
			// resolved last sits nearest the literal command.
			if t.Threadable != nil {
				v := *t.Threadable
				spec.Threadable = &v
			}
			if t.ForceThreadable != nil {
				v := *t.ForceThreadable
				spec.ForceThreadable = &v
			}
			argv = argv[1:]
		default:
			return fmt.Errorf("alias %q has unsupported target %T", head, target)
		}
	}

	if len(argv) == 0 {
		// The chain collapsed to modifier aliases alone. The spec carries
		// the attribute overrides and an empty command.
		spec.Cmd = nil
		return nil
	}

	path, err := r.lookPath(argv[0])
	if err != nil {
		if r.policy.Interactive {
			r.events.EmitCommandNotFound(argv)
		}
		return &CommandNotFoundError{Cmd: argv}
	}
	spec.Binary = path
	spec.Cmd = argv
	return nil
}

// applyRedirects opens each redirection target and wires it into the spec.
// Opened files are released when the owning stage ends.
func (s *SubprocSpec) applyRedirects(redirects []Redirect) error {
	for _, rd := range redirects {
		switch rd.Mode {
		case RedirErrToOut:
			s.Stderr = StreamSpec{Mode: StreamMerge}
			continue
		}

		target, err := redirectTarget(rd)
		if err != nil {
			return err
		}
		switch rd.Mode {
		case RedirIn:
			f, err := os.Open(target)
			if err != nil {
				return &RedirectionError{Mode: rd.Mode, Target: target, Err: err}
			}
			s.Stdin = StreamSpec{Mode: StreamFile, File: f}
		case RedirOut, RedirOutAppend:
			f, err := openRedirectTarget(target, rd.Mode == RedirOutAppend)
			if err != nil {
				return &RedirectionError{Mode: rd.Mode, Target: target, Err: err}
			}
			s.Stdout = StreamSpec{Mode: StreamFile, File: f}
		case RedirErr, RedirErrAppend:
			f, err := openRedirectTarget(target, rd.Mode == RedirErrAppend)
			if err != nil {
				return &RedirectionError{Mode: rd.Mode, Target: target, Err: err}
			}
			s.Stderr = StreamSpec{Mode: StreamFile, File: f}
		case RedirAll, RedirAllAppend:
			f, err := openRedirectTarget(target, rd.Mode == RedirAllAppend)
			if err != nil {
				return &RedirectionError{Mode: rd.Mode, Target: target, Err: err}
			}
			s.Stdout = StreamSpec{Mode: StreamFile, File: f}
			s.Stderr = StreamSpec{Mode: StreamMerge}
		default:
			return &RedirectionError{Mode: rd.Mode, Target: target, Err: errors.New("unknown redirection mode")}
		}
	}
	return nil
}

func redirectTarget(rd Redirect) (string, error) {
	if len(rd.Target) != 1 {
		return "", &RedirectionError{
			Mode:   rd.Mode,
			Target: fmt.Sprintf("%v", rd.Target),
			Err:    errors.New("expected a single target token"),
		}
	}
	return rd.Target[0], nil
}

func openRedirectTarget(target string, appendMode bool) (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	return os.OpenFile(target, flags, 0o644)
}

// wireStreams applies capture wiring to streams the redirections left
// untouched. Capture applies to the pipeline's final stage; earlier stages
// feed the connecting pipes directly.
func (s *SubprocSpec) wireStreams() {
	if !s.last {
		return
	}

	var captureOut, captureErr bool
	switch s.Captured {
	case CaptureStdout:
		captureOut = true
	case CaptureObject:
		captureOut, captureErr = true, true
	case CaptureHidden:
		// Hidden-interactive output goes straight to the terminal unless a
		// drain worker exists to tee it into a buffer.
		if s.Kind.threaded() {
			captureOut, captureErr = true, true
		}
	}

	if captureOut && s.Stdout.Mode == StreamInherit {
		s.Stdout.Mode = StreamCapture
	}
	if captureErr && s.Stderr.Mode == StreamInherit {
		s.Stderr.Mode = StreamCapture
	}
}

// closeFiles releases any redirection targets opened so far. Used when spec
// construction aborts after files were opened.
func (s *SubprocSpec) closeFiles() {
	for _, stream := range []*StreamSpec{&s.Stdin, &s.Stdout, &s.Stderr} {
		if stream.File != nil {
			stream.File.Close()
			stream.File = nil
		}
	}
}

// CmdsToSpecs builds one spec per command group, validating the separator
// grammar: command (pipe command)* with an optional trailing background
// marker. Build failures abort the whole pipeline; specs that already
// opened redirection targets are released.
func (r *Runner) CmdsToSpecs(groups []Group, captured CaptureMode) ([]*SubprocSpec, error) {
	commands, _, err := splitGroups(groups)
	if err != nil {
		return nil, err
	}
	return r.buildSpecs(commands, captured)
}

func (r *Runner) buildSpecs(commands [][]Token, captured CaptureMode) ([]*SubprocSpec, error) {
	specs := make([]*SubprocSpec, 0, len(commands))
	for i, tokens := range commands {
		spec, err := r.build(tokens, captured, i == len(commands)-1)
		if err != nil {
			for _, built := range specs {
				built.closeFiles()
			}
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// splitGroups validates separator placement and returns the command token
// groups plus whether the line ends with a background marker.
func splitGroups(groups []Group) ([][]Token, bool, error) {
	var commands [][]Token
	background := false
	wantCommand := true
	for i, g := range groups {
		if background {
			return nil, false, errors.New("background marker must terminate the command line")
		}
		switch g.Sep {
		case SepNone:
			if !wantCommand {
				return nil, false, errors.New("expected pipe between command groups")
			}
			commands = append(commands, g.Tokens)
			wantCommand = false
		case SepPipe:
			if wantCommand {
				return nil, false, errors.New("pipe separator without preceding command")
			}
			wantCommand = true
		case SepBackground:
			if wantCommand || i != len(groups)-1 {
				return nil, false, errors.New("background marker must terminate the command line")
			}
			background = true
		default:
			return nil, false, fmt.Errorf("unknown separator %d", g.Sep)
		}
	}
	if len(commands) == 0 {
		return nil, false, errors.New("no command groups given")
	}
	if wantCommand {
		return nil, false, errors.New("dangling pipe at end of command line")
	}
	return commands, background, nil
}
