package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func (a *admin) sourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Source maintenance",
	}
	cmd.AddCommand(a.sourceDuplicatesCmd())
	return cmd
}

func (a *admin) sourceDuplicatesCmd() *cobra.Command {
	var (
		owner string
		fix   bool
	)
	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "Report sources that share a name and individual set",
		Long: `Lists groups of sources with the same compound key. With --fix every
group is merged into its oldest source.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := parseOwner(owner)
			if err != nil {
				return err
			}
			return a.withEnv(cmd, func(ctx context.Context, env *Env) error {
				sources := env.Core.Services.Sources
				if !fix {
					groups, err := sources.Duplicates(ctx, userID)
					if err != nil {
						return err
					}
					if len(groups) == 0 {
						fmt.Fprintln(cmd.OutOrStdout(), "no duplicate sources")
						return nil
					}
					return printJSON(cmd.OutOrStdout(), groups)
				}
				merged, err := sources.Reconcile(ctx, userID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "merged %d duplicate group(s)\n", len(merged))
				return nil
			})
		},
	}
	addOwnerFlag(cmd, &owner)
	cmd.Flags().BoolVar(&fix, "fix", false, "Merge each duplicate group into its oldest source")
	return cmd
}
