package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pvaler/subsh/internal/parse"
	"github.com/pvaler/subsh/internal/proc"
)

func newRunCmd(ctx *appContext) *cobra.Command {
	var captureFlag string
	var background bool

	cmd := &cobra.Command{
		Use:   "run [flags] -- command...",
		Short: "Run a command line as a subprocess pipeline",
		Long: `Run parses its arguments as a command line with pipes, redirections and
an optional trailing background marker, then executes it under the
configured aliases and policy.

The capture mode controls what happens to the pipeline's output:
  none    output flows to the terminal and nothing is retained
  stdout  standard output is captured and printed once the pipeline ends
  object  both streams are captured; stdout is printed once collected
  hidden  output flows to the terminal and is additionally retained when
          capture-always is enabled (the default mode)`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			captured, err := parseCaptureMode(captureFlag)
			if err != nil {
				return err
			}

			var groups []proc.Group
			if len(args) == 1 {
				groups, err = parse.Line(args[0])
			} else {
				groups, err = parse.Args(args)
			}
			if err != nil {
				return err
			}
			if background && groups[len(groups)-1].Sep != proc.SepBackground {
				groups = append(groups, proc.BackgroundGroup())
			}

			runner, err := ctx.runner(proc.WithStdio(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			outcome, err := runner.RunSubproc(groups, captured)
			if err != nil {
				return err
			}
			return printOutcome(cmd, captured, outcome)
		},
	}

	cmd.Flags().StringVar(&captureFlag, "capture", "hidden", "Capture mode: none, stdout, object or hidden")
	cmd.Flags().BoolVar(&background, "background", false, "Detach the pipeline, like a trailing & marker")
	return cmd
}

func parseCaptureMode(s string) (proc.CaptureMode, error) {
	switch s {
	case "none":
		return proc.CaptureNone, nil
	case "stdout":
		return proc.CaptureStdout, nil
	case "object":
		return proc.CaptureObject, nil
	case "hidden":
		return proc.CaptureHidden, nil
	default:
		return proc.CaptureNone, fmt.Errorf("unknown capture mode %q", s)
	}
}

// printOutcome renders a finished invocation. Background jobs without a
// handle and uncaptured runs print nothing; a live object handle is driven
// to completion first.
func printOutcome(cmd *cobra.Command, captured proc.CaptureMode, outcome *proc.Outcome) error {
	if outcome == nil {
		return nil
	}

	switch captured {
	case proc.CaptureStdout:
		if outcome.Lines != nil {
			for _, line := range outcome.Lines {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), outcome.Out)
		return nil
	case proc.CaptureObject:
		pl := outcome.Pipeline
		if err := pl.End(); err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), pl.Out())
		return pipelineStatus(pl)
	case proc.CaptureHidden:
		if pl := outcome.Pipeline; pl != nil && pl.State() == proc.StateEnded {
			return pipelineStatus(pl)
		}
		return nil
	default:
		return nil
	}
}

// pipelineStatus surfaces a non-zero return code so the process exit status
// reflects the pipeline even when error escalation is off.
func pipelineStatus(pl *proc.CommandPipeline) error {
	if rc := pl.ReturnCode(); rc != 0 {
		return &proc.ExitError{ReturnCode: rc}
	}
	return nil
}
