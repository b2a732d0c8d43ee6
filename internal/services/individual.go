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

type IndividualService interface {
	List(ctx context.Context, owner uuid.UUID) ([]*knowledge.Individual, error)
	Get(ctx context.Context, owner, id uuid.UUID) (*knowledge.Individual, error)
	Create(ctx context.Context, in domainagg.CreateIndividualInput) (*knowledge.Individual, error)
	Update(ctx context.Context, in domainagg.UpdateIndividualInput) (*knowledge.Individual, error)
	Delete(ctx context.Context, owner, id uuid.UUID) error
}

type individualService struct {
	log   *logger.Logger
	repos *repos.Set
	agg   domainagg.IndividualAggregate
	sync  *identitySync
}

func NewIndividualService(log *logger.Logger, set *repos.Set, agg domainagg.IndividualAggregate, g *graph.IdentityGraph) IndividualService {
	serviceLog := log.With("service", "IndividualService")
	return &individualService{
		log:   serviceLog,
		repos: set,
		agg:   agg,
		sync:  newIdentitySync(g, set, serviceLog),
	}
}

func (s *individualService) List(ctx context.Context, owner uuid.UUID) ([]*knowledge.Individual, error) {
	dbc := dbctx.Context{Ctx: ctx}
	rows, err := s.repos.Individuals.ListByUser(dbc, owner)
	if err != nil {
		return nil, aggregates.MapError("individual.list", err)
	}
	if err := aggregates.HydrateAka(dbc, s.repos.Individuals, s.repos.IndividualAkas, owner, rows); err != nil {
		return nil, aggregates.MapError("individual.list", err)
	}
	return rows, nil
}

func (s *individualService) Get(ctx context.Context, owner, id uuid.UUID) (*knowledge.Individual, error) {
	const op = "individual.get"
	dbc := dbctx.Context{Ctx: ctx}
	row, err := s.repos.Individuals.GetByID(dbc, owner, id)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if row == nil {
		return nil, domainagg.Newf(domainagg.CodeNotFound, op, "individual %s not found", id)
	}
	if err := aggregates.HydrateAka(dbc, s.repos.Individuals, s.repos.IndividualAkas, owner, []*knowledge.Individual{row}); err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return row, nil
}

func (s *individualService) Create(ctx context.Context, in domainagg.CreateIndividualInput) (*knowledge.Individual, error) {
	ind, err := s.agg.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.syncWithAka(ctx, in.UserID, ind)
	return ind, nil
}

func (s *individualService) Update(ctx context.Context, in domainagg.UpdateIndividualInput) (*knowledge.Individual, error) {
	ind, err := s.agg.Update(ctx, in)
	if err != nil {
		return nil, err
	}
	s.syncWithAka(ctx, in.UserID, ind)
	if in.Name != nil {
		// Source display names embed individual names.
		if ids, err := s.repos.SourceIndividuals.SourceIDsByIndividuals(dbctx.Context{Ctx: ctx}, []uuid.UUID{ind.ID}); err == nil {
			s.sync.sourceIDs(ctx, in.UserID, ids...)
		}
	}
	return ind, nil
}

func (s *individualService) Delete(ctx context.Context, owner, id uuid.UUID) error {
	if err := s.agg.Delete(ctx, domainagg.DeleteIndividualInput{UserID: owner, IndividualID: id}); err != nil {
		return err
	}
	s.sync.remove(ctx, graph.LabelIndividual, id)
	return nil
}

// syncWithAka pushes the individual and every aka partner, since aka edges
// are stored on both ends.
func (s *individualService) syncWithAka(ctx context.Context, owner uuid.UUID, ind *knowledge.Individual) {
	if !s.sync.enabled() || ind == nil {
		return
	}
	rows := []*knowledge.Individual{ind}
	ids := make([]uuid.UUID, 0, len(ind.Aka))
	for _, a := range ind.Aka {
		ids = append(ids, a.ID)
	}
	dbc := dbctx.Context{Ctx: ctx}
	if partners, err := s.repos.Individuals.GetByIDs(dbc, owner, ids); err == nil {
		if err := aggregates.HydrateAka(dbc, s.repos.Individuals, s.repos.IndividualAkas, owner, partners); err == nil {
			rows = append(rows, partners...)
		}
	}
	s.sync.individuals(ctx, owner, rows...)
}
