package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tnahs/hlts/internal/data/db"
)

func (a *admin) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEnv(cmd, func(_ context.Context, env *Env) error {
				if err := db.AutoMigrateAll(env.Core.DB); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return nil
			})
		},
	}
}
