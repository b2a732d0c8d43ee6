package cli

import (
	"context"

	"github.com/spf13/cobra"

	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
)

func (a *admin) mergeCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "merge <tags|collections|origins|topics|sources> <into> <merging>...",
		Short: "Merge entities of one kind into a destination",
		Long: `Merge folds every named entity into the destination: node references
are repointed, the merged rows are deleted and a merge event is recorded.

Examples:
  hltsadm merge tags --owner <uuid> philosophy phil philo
  hltsadm merge sources --owner <uuid> "Walden" "Walden (2nd ed.)"`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseOwner(owner)
			if err != nil {
				return err
			}
			return a.withEnv(cmd, func(ctx context.Context, env *Env) error {
				res, err := env.Core.Services.Merges.Merge(ctx, domainagg.MergeInput{
					UserID:  userID,
					Kind:    args[0],
					Into:    args[1],
					Merging: args[2:],
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	addOwnerFlag(cmd, &owner)
	return cmd
}
