package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/tnahs/hlts/internal/data/aggregates"
	"github.com/tnahs/hlts/internal/data/graph"
	"github.com/tnahs/hlts/internal/data/repos"
	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/platform/dbctx"
	"github.com/tnahs/hlts/internal/platform/logger"
)

type GraphRebuildResult struct {
	Individuals int `json:"individuals"`
	Sources     int `json:"sources"`
}

// GraphService rebuilds the identity graph projection from the database.
type GraphService interface {
	Enabled() bool
	Rebuild(ctx context.Context, owner uuid.UUID) (GraphRebuildResult, error)
}

type graphService struct {
	log   *logger.Logger
	repos *repos.Set
	graph *graph.IdentityGraph
}

func NewGraphService(log *logger.Logger, set *repos.Set, g *graph.IdentityGraph) GraphService {
	return &graphService{log: log.With("service", "GraphService"), repos: set, graph: g}
}

func (s *graphService) Enabled() bool { return s.graph.Enabled() }

func (s *graphService) Rebuild(ctx context.Context, owner uuid.UUID) (GraphRebuildResult, error) {
	const op = "graph.rebuild"
	if owner == uuid.Nil {
		return GraphRebuildResult{}, domainagg.NewError(domainagg.CodeValidation, op, "owner is required", nil)
	}
	if !s.graph.Enabled() {
		return GraphRebuildResult{}, domainagg.NewError(domainagg.CodePreconditionFailed, op, "identity graph is not configured (set NEO4J_URI)", nil)
	}

	dbc := dbctx.Context{Ctx: ctx}
	inds, err := s.repos.Individuals.ListByUser(dbc, owner)
	if err != nil {
		return GraphRebuildResult{}, aggregates.MapError(op, err)
	}
	if err := aggregates.HydrateAka(dbc, s.repos.Individuals, s.repos.IndividualAkas, owner, inds); err != nil {
		return GraphRebuildResult{}, aggregates.MapError(op, err)
	}
	sources, err := s.repos.Sources.ListByUser(dbc, owner)
	if err != nil {
		return GraphRebuildResult{}, aggregates.MapError(op, err)
	}
	if err := aggregates.HydrateSources(dbc, s.repos.Individuals, s.repos.SourceIndividuals, owner, sources); err != nil {
		return GraphRebuildResult{}, aggregates.MapError(op, err)
	}

	if err := s.graph.SyncIndividuals(ctx, owner, inds); err != nil {
		return GraphRebuildResult{}, domainagg.NewError(domainagg.CodeRetryable, op, "sync individuals", err)
	}
	if err := s.graph.SyncSources(ctx, owner, sources); err != nil {
		return GraphRebuildResult{}, domainagg.NewError(domainagg.CodeRetryable, op, "sync sources", err)
	}
	s.log.Info("Identity graph rebuilt", "owner", owner, "individuals", len(inds), "sources", len(sources))
	return GraphRebuildResult{Individuals: len(inds), Sources: len(sources)}, nil
}
