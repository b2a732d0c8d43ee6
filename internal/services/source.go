package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/tnahs/hlts/internal/data/aggregates"
	"github.com/tnahs/hlts/internal/data/graph"
	"github.com/tnahs/hlts/internal/data/repos"
	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/domain/knowledge"
	"github.com/tnahs/hlts/internal/platform/dbctx"
	"github.com/tnahs/hlts/internal/platform/logger"
)

type SourceService interface {
	List(ctx context.Context, owner uuid.UUID, f repos.SourceFilter) ([]*knowledge.Source, error)
	Get(ctx context.Context, owner, id uuid.UUID) (*knowledge.Source, error)
	Resolve(ctx context.Context, in domainagg.ResolveSourceInput) (domainagg.ResolveSourceResult, error)
	Update(ctx context.Context, in domainagg.UpdateSourceInput) (domainagg.UpdateSourceResult, error)
	Delete(ctx context.Context, owner, id uuid.UUID) error

	Duplicates(ctx context.Context, owner uuid.UUID) ([]domainagg.DuplicateSourceGroup, error)
	// Reconcile merges every duplicate group into its oldest member.
	Reconcile(ctx context.Context, owner uuid.UUID) ([]domainagg.MergeResult, error)
}

type sourceService struct {
	log     *logger.Logger
	repos   *repos.Set
	agg     domainagg.SourceAggregate
	merges  domainagg.MergeAggregate
	deleter domainagg.AttributeAggregate
	sync    *identitySync
}

func NewSourceService(
	log *logger.Logger,
	set *repos.Set,
	agg domainagg.SourceAggregate,
	merges domainagg.MergeAggregate,
	deleter domainagg.AttributeAggregate,
	g *graph.IdentityGraph,
) SourceService {
	serviceLog := log.With("service", "SourceService")
	return &sourceService{
		log:     serviceLog,
		repos:   set,
		agg:     agg,
		merges:  merges,
		deleter: deleter,
		sync:    newIdentitySync(g, set, serviceLog),
	}
}

func (s *sourceService) List(ctx context.Context, owner uuid.UUID, f repos.SourceFilter) ([]*knowledge.Source, error) {
	const op = "source.list"
	dbc := dbctx.Context{Ctx: ctx}
	rows, err := s.repos.Sources.List(dbc, owner, f)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if err := aggregates.HydrateSources(dbc, s.repos.Individuals, s.repos.SourceIndividuals, owner, rows); err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return rows, nil
}

func (s *sourceService) Get(ctx context.Context, owner, id uuid.UUID) (*knowledge.Source, error) {
	const op = "source.get"
	dbc := dbctx.Context{Ctx: ctx}
	row, err := s.repos.Sources.GetByID(dbc, owner, id)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if row == nil {
		return nil, domainagg.Newf(domainagg.CodeNotFound, op, "source %s not found", id)
	}
	if err := aggregates.HydrateSources(dbc, s.repos.Individuals, s.repos.SourceIndividuals, owner, []*knowledge.Source{row}); err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return row, nil
}

func (s *sourceService) Resolve(ctx context.Context, in domainagg.ResolveSourceInput) (domainagg.ResolveSourceResult, error) {
	res, err := s.agg.Resolve(ctx, in)
	if err != nil {
		return res, err
	}
	if res.Created {
		s.sync.individuals(ctx, in.UserID, res.CreatedIndividuals...)
		s.sync.sources(ctx, in.UserID, res.Source)
	}
	return res, nil
}

func (s *sourceService) Update(ctx context.Context, in domainagg.UpdateSourceInput) (domainagg.UpdateSourceResult, error) {
	res, err := s.agg.Update(ctx, in)
	if err != nil {
		return res, err
	}
	s.sync.individuals(ctx, in.UserID, res.CreatedIndividuals...)
	s.sync.sources(ctx, in.UserID, res.Source)
	return res, nil
}

func (s *sourceService) Delete(ctx context.Context, owner, id uuid.UUID) error {
	if err := s.deleter.Delete(ctx, domainagg.DeleteAttributeInput{UserID: owner, Kind: domainagg.KindSources, ID: id}); err != nil {
		return err
	}
	s.sync.remove(ctx, graph.LabelSource, id)
	return nil
}

func (s *sourceService) Duplicates(ctx context.Context, owner uuid.UUID) ([]domainagg.DuplicateSourceGroup, error) {
	return s.agg.FindDuplicates(ctx, owner)
}

func (s *sourceService) Reconcile(ctx context.Context, owner uuid.UUID) ([]domainagg.MergeResult, error) {
	groups, err := s.agg.FindDuplicates(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]domainagg.MergeResult, 0, len(groups))
	for _, g := range groups {
		if g.Keep == nil || len(g.Duplicates) == 0 {
			continue
		}
		ids := make([]uuid.UUID, 0, len(g.Duplicates))
		for _, d := range g.Duplicates {
			ids = append(ids, d.ID)
		}
		res, err := s.merges.MergeByIDs(ctx, domainagg.MergeByIDsInput{
			UserID:     owner,
			Kind:       domainagg.KindSources,
			IntoID:     g.Keep.ID,
			MergingIDs: ids,
		})
		if err != nil {
			return out, err
		}
		s.sync.remove(ctx, graph.LabelSource, ids...)
		out = append(out, res)
		s.log.Info("Reconciled duplicate sources", "owner", owner, "keep", g.Keep.ID, "merged", len(ids), "repointed", res.Repointed)
	}
	return out, nil
}
