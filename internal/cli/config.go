package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pvaler/subsh/internal/config"
	"github.com/pvaler/subsh/internal/proc"
)

func newConfigCmd(ctx *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}
	cmd.AddCommand(newConfigValidateCmd())
	cmd.AddCommand(newConfigShowCmd(ctx))
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", args[0])
			return nil
		},
	}
}

func newConfigShowCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective execution policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := ctx.runner()
			if err != nil {
				return err
			}
			policy := runner.Policy()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "threadSubprocs: %t\n", policy.ThreadSubprocs)
			fmt.Fprintf(out, "captureAlways: %t\n", policy.CaptureAlways)
			fmt.Fprintf(out, "interactive: %t\n", policy.Interactive)
			fmt.Fprintf(out, "raiseSubprocError: %t\n", policy.RaiseSubprocError)
			format := "stream_lines"
			if policy.OutputFormat == proc.FormatListLines {
				format = "list_lines"
			}
			fmt.Fprintf(out, "subprocOutputFormat: %s\n", format)
			return nil
		},
	}
}
