package proc

// Outcome is what a finished or detached subprocess invocation hands back
// to the caller. Which fields are populated depends on the capture mode:
// stdout capture fills Out or Lines per the output format, object and
// hidden capture expose the pipeline handle, and uncaptured foreground
// runs produce no outcome at all.
type Outcome struct {
	// Out is the captured stdout text with normalized line endings. Set
	// for stdout capture under the stream output format.
	Out string

	// Lines is the captured stdout split into lines. Set for stdout
	// capture under the list output format.
	Lines []string

	// Pipeline is the live handle for object and hidden captures. For
	// object capture it may still be running; call End to collect it.
	Pipeline *CommandPipeline
}

// RunSubproc builds specs from the given command groups, launches them as a
// single pipeline, and shapes the result per the capture mode. Commands
// separated by pipes form the pipeline stages; a trailing background marker
// detaches the job from the caller.
func (r *Runner) RunSubproc(groups []Group, captured CaptureMode) (*Outcome, error) {
	commands, background, err := splitGroups(groups)
	if err != nil {
		return nil, err
	}
	specs, err := r.buildSpecs(commands, captured)
	if err != nil {
		return nil, err
	}

	pl, err := r.launchPipeline(specs, background)
	if err != nil {
		return nil, err
	}

	if background {
		switch captured {
		case CaptureObject, CaptureHidden:
			return &Outcome{Pipeline: pl}, nil
		default:
			// Nobody holds the handle; reap the job so its processes do
			// not linger as zombies.
			go func() { _ = pl.End() }()
			return nil, nil
		}
	}

	switch captured {
	case CaptureObject:
		// The caller drives the pipeline to completion through the handle.
		return &Outcome{Pipeline: pl}, nil
	case CaptureHidden:
		err := pl.End()
		return &Outcome{Pipeline: pl}, err
	case CaptureStdout:
		err := pl.End()
		out := &Outcome{}
		switch r.policy.OutputFormat {
		case FormatListLines:
			out.Lines = ListLines(pl.rawStdout())
		default:
			out.Out = StreamLines(pl.rawStdout())
		}
		return out, err
	default:
		return nil, pl.End()
	}
}
