package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func (a *admin) graphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Identity graph maintenance",
	}
	var owner string
	sync := &cobra.Command{
		Use:   "sync",
		Short: "Rebuild the Neo4j identity graph for an owner from the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := parseOwner(owner)
			if err != nil {
				return err
			}
			return a.withEnv(cmd, func(ctx context.Context, env *Env) error {
				res, err := env.Core.Services.Graph.Rebuild(ctx, userID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	addOwnerFlag(sync, &owner)
	cmd.AddCommand(sync)
	return cmd
}
