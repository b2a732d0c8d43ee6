// Package cli implements hltsadm, the operator CLI. Commands run against the
// same services as the API server.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tnahs/hlts/internal/app"
	"github.com/tnahs/hlts/internal/platform/logger"
)

// Env is an opened database plus the services built on it.
type Env struct {
	Core  *app.Core
	Close func()
}

// Opener connects everything a command needs. Tests swap in SQLite.
type Opener func(ctx context.Context) (*Env, error)

// DefaultOpener opens the database and clients configured in the
// environment.
func DefaultOpener(log *logger.Logger) Opener {
	return func(ctx context.Context) (*Env, error) {
		cfg := app.LoadConfig(log)
		store, clients, err := app.Open(log, cfg)
		if err != nil {
			return nil, err
		}
		core := app.NewCore(log, store.DB(), cfg, clients, nil)
		return &Env{
			Core: core,
			Close: func() {
				clients.Close(context.WithoutCancel(ctx))
				if err := store.Close(); err != nil {
					log.Warn("db close failed", "error", err)
				}
			},
		}, nil
	}
}

type admin struct {
	log  *logger.Logger
	open Opener
}

func NewAdminCmd(log *logger.Logger, open Opener) *cobra.Command {
	a := &admin{log: log, open: open}
	root := &cobra.Command{
		Use:   "hltsadm",
		Short: "Administrative CLI for the hlts knowledge base",
		Long: `hltsadm runs operator tasks against the hlts database: schema
migration, merges, duplicate source reconciliation, fixture seeding,
development tokens and identity graph rebuilds.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		a.migrateCmd(),
		a.mergeCmd(),
		a.sourcesCmd(),
		a.seedCmd(),
		a.tokenCmd(),
		a.graphCmd(),
	)
	return root
}

// withEnv opens an Env for the duration of fn.
func (a *admin) withEnv(cmd *cobra.Command, fn func(ctx context.Context, env *Env) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	env, err := a.open(ctx)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	if env.Close != nil {
		defer env.Close()
	}
	return fn(ctx, env)
}
