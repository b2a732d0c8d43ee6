package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tnahs/hlts/internal/app"
	"github.com/tnahs/hlts/internal/services"
)

func (a *admin) tokenCmd() *cobra.Command {
	var (
		owner string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for an owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := parseOwner(owner)
			if err != nil {
				return err
			}
			cfg := app.LoadConfig(a.log)
			auth := services.NewAuthService(a.log, cfg.JWTSecretKey, cfg.AccessTokenTTL)
			token, err := auth.IssueToken(userID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	addOwnerFlag(cmd, &owner)
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to ACCESS_TOKEN_TTL)")
	return cmd
}
