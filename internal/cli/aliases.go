package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pvaler/subsh/internal/config"
)

func newAliasesCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "aliases",
		Short: "List the configured aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := ctx.doc.Registry()
			names := reg.Names()
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no aliases configured")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tKIND\tTARGET")
			for _, name := range names {
				spec := ctx.doc.Aliases[name]
				kind, target := describeAlias(spec)
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, kind, target)
			}
			return w.Flush()
		},
	}
}

func describeAlias(spec *config.AliasSpec) (string, string) {
	switch {
	case spec == nil:
		return "unknown", ""
	case spec.Command != "":
		return "command", spec.Command
	case spec.Tokens != nil:
		return "tokens", strings.Join(spec.Tokens, " ")
	case spec.Modifier != nil:
		var parts []string
		if spec.Modifier.Threadable != nil {
			parts = append(parts, fmt.Sprintf("threadable=%t", *spec.Modifier.Threadable))
		}
		if spec.Modifier.ForceThreadable != nil {
			parts = append(parts, fmt.Sprintf("forceThreadable=%t", *spec.Modifier.ForceThreadable))
		}
		return "modifier", strings.Join(parts, " ")
	default:
		return "unknown", ""
	}
}
