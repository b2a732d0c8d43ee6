package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tnahs/hlts/internal/data/aggregates"
	"github.com/tnahs/hlts/internal/data/graph"
	"github.com/tnahs/hlts/internal/data/repos"
	"github.com/tnahs/hlts/internal/domain/knowledge"
	"github.com/tnahs/hlts/internal/platform/dbctx"
	"github.com/tnahs/hlts/internal/platform/logger"
)

const identitySyncTimeout = 10 * time.Second

// identitySync mirrors committed source and individual writes into the
// identity graph. Failures are logged and never fail the request; the graph
// is a projection that `hltsadm graph sync` can rebuild.
type identitySync struct {
	graph *graph.IdentityGraph
	repos *repos.Set
	log   *logger.Logger
}

func newIdentitySync(g *graph.IdentityGraph, set *repos.Set, log *logger.Logger) *identitySync {
	return &identitySync{graph: g, repos: set, log: log.With("component", "IdentitySync")}
}

func (s *identitySync) enabled() bool {
	return s != nil && s.graph.Enabled()
}

func (s *identitySync) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), identitySyncTimeout)
}

func (s *identitySync) sources(ctx context.Context, owner uuid.UUID, rows ...*knowledge.Source) {
	if !s.enabled() || len(rows) == 0 {
		return
	}
	ctx, cancel := s.detached(ctx)
	defer cancel()
	if err := s.graph.SyncSources(ctx, owner, rows); err != nil {
		s.log.Warn("Identity graph source sync failed", "owner", owner, "count", len(rows), "error", err)
	}
}

// sourceIDs re-reads the given sources before syncing them.
func (s *identitySync) sourceIDs(ctx context.Context, owner uuid.UUID, ids ...uuid.UUID) {
	if !s.enabled() || len(ids) == 0 {
		return
	}
	dbc := dbctx.Context{Ctx: ctx}
	rows, err := s.repos.Sources.GetByIDs(dbc, owner, ids)
	if err == nil {
		err = aggregates.HydrateSources(dbc, s.repos.Individuals, s.repos.SourceIndividuals, owner, rows)
	}
	if err != nil {
		s.log.Warn("Identity graph source reload failed", "owner", owner, "error", err)
		return
	}
	s.sources(ctx, owner, rows...)
}

func (s *identitySync) individuals(ctx context.Context, owner uuid.UUID, rows ...*knowledge.Individual) {
	if !s.enabled() || len(rows) == 0 {
		return
	}
	ctx, cancel := s.detached(ctx)
	defer cancel()
	if err := s.graph.SyncIndividuals(ctx, owner, rows); err != nil {
		s.log.Warn("Identity graph individual sync failed", "owner", owner, "count", len(rows), "error", err)
	}
}

func (s *identitySync) remove(ctx context.Context, label string, ids ...uuid.UUID) {
	if !s.enabled() || len(ids) == 0 {
		return
	}
	ctx, cancel := s.detached(ctx)
	defer cancel()
	if err := s.graph.Delete(ctx, label, ids); err != nil {
		s.log.Warn("Identity graph delete failed", "label", label, "count", len(ids), "error", err)
	}
}
