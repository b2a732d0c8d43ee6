package aggregates

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/tnahs/hlts/internal/data/repos"
	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/domain/knowledge"
	"github.com/tnahs/hlts/internal/platform/dbctx"
)

type IndividualAggregateDeps struct {
	Base        BaseDeps
	Individuals repos.IndividualRepo
	Akas        repos.IndividualAkaRepo
	Sources     repos.SourceRepo
	Links       repos.SourceIndividualRepo
}

type individualAggregate struct {
	deps     IndividualAggregateDeps
	resolver *sourceResolver
}

func NewIndividualAggregate(deps IndividualAggregateDeps) domainagg.IndividualAggregate {
	deps.Base = deps.Base.withDefaults()
	return &individualAggregate{
		deps: deps,
		resolver: newSourceResolver(SourceAggregateDeps{
			Base:        deps.Base,
			Individuals: deps.Individuals,
			Sources:     deps.Sources,
			Links:       deps.Links,
		}),
	}
}

func (a *individualAggregate) Contract() domainagg.Contract {
	return domainagg.IndividualAggregateContract
}

func (a *individualAggregate) Create(ctx context.Context, in domainagg.CreateIndividualInput) (*knowledge.Individual, error) {
	const op = "individual.create"
	var out *knowledge.Individual
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		name := strings.TrimSpace(in.Name)
		if in.UserID == uuid.Nil || name == "" {
			return ValidationError("individual needs an owner and a name")
		}
		existing, err := a.deps.Individuals.GetByName(dbc, in.UserID, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return domainagg.Newf(domainagg.CodeDuplicate, op, "individual %q already exists", name)
		}
		ind := &knowledge.Individual{
			Attribute: knowledge.Attribute{UserID: in.UserID, Name: name},
			FirstName: strings.TrimSpace(in.FirstName),
			LastName:  strings.TrimSpace(in.LastName),
		}
		if _, err := a.deps.Individuals.Create(dbc, []*knowledge.Individual{ind}); err != nil {
			return err
		}
		if len(in.Aka) > 0 {
			if err := a.replaceAka(dbc, in.UserID, ind.ID, in.Aka); err != nil {
				return err
			}
		}
		if err := a.hydrateAka(dbc, in.UserID, []*knowledge.Individual{ind}); err != nil {
			return err
		}
		out = ind
		return nil
	})
	return out, err
}

func (a *individualAggregate) Update(ctx context.Context, in domainagg.UpdateIndividualInput) (*knowledge.Individual, error) {
	const op = "individual.update"
	var out *knowledge.Individual
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		locked, err := a.deps.Individuals.LockByIDs(dbc, in.UserID, []uuid.UUID{in.IndividualID})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return domainagg.Newf(domainagg.CodeNotFound, op, "individual %s not found", in.IndividualID)
		}
		ind := locked[0]

		updates := map[string]interface{}{}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return ValidationError("individual name cannot be blank")
			}
			if name != ind.Name {
				clash, err := a.deps.Individuals.GetByName(dbc, in.UserID, name)
				if err != nil {
					return err
				}
				if clash != nil {
					return domainagg.Newf(domainagg.CodeDuplicate, op, "individual %q already exists", name)
				}
				updates["name"] = name
			}
		}
		if in.FirstName != nil {
			updates["first_name"] = strings.TrimSpace(*in.FirstName)
		}
		if in.LastName != nil {
			updates["last_name"] = strings.TrimSpace(*in.LastName)
		}
		if len(updates) > 0 {
			if err := a.deps.Individuals.UpdateFields(dbc, in.UserID, ind.ID, updates); err != nil {
				return err
			}
		}
		if in.Aka != nil {
			if err := a.replaceAka(dbc, in.UserID, ind.ID, *in.Aka); err != nil {
				return err
			}
		}

		fresh, err := a.deps.Individuals.GetByID(dbc, in.UserID, ind.ID)
		if err != nil {
			return err
		}
		if err := a.hydrateAka(dbc, in.UserID, []*knowledge.Individual{fresh}); err != nil {
			return err
		}
		out = fresh
		return nil
	})
	return out, err
}

func (a *individualAggregate) Delete(ctx context.Context, in domainagg.DeleteIndividualInput) error {
	const op = "individual.delete"
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		locked, err := a.deps.Individuals.LockByIDs(dbc, in.UserID, []uuid.UUID{in.IndividualID})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return domainagg.Newf(domainagg.CodeNotFound, op, "individual %s not found", in.IndividualID)
		}
		credited, err := a.deps.Links.SourceIDsByIndividuals(dbc, []uuid.UUID{in.IndividualID})
		if err != nil {
			return err
		}
		if len(credited) > 0 {
			return domainagg.Newf(domainagg.CodePreconditionFailed, op,
				"individual %q is credited on %d source(s); update or merge those sources first", locked[0].Name, len(credited))
		}
		if err := a.deps.Akas.DeleteByIndividuals(dbc, []uuid.UUID{in.IndividualID}); err != nil {
			return err
		}
		return a.deps.Individuals.DeleteByIDs(dbc, in.UserID, []uuid.UUID{in.IndividualID})
	})
}

// replaceAka swaps the aka set of one individual. Both directions of every
// removed and added edge are written.
func (a *individualAggregate) replaceAka(dbc dbctx.Context, owner, id uuid.UUID, refs []knowledge.IndividualRef) error {
	resolved, err := a.resolver.resolveIndividuals(dbc, owner, refs, resolveCreate)
	if err != nil {
		return err
	}
	for _, other := range resolved.IDs {
		if other == id {
			return ValidationError("an individual cannot be its own aka")
		}
	}

	current, err := a.deps.Akas.AkaIDsByIndividuals(dbc, []uuid.UUID{id})
	if err != nil {
		return err
	}
	want := make(map[uuid.UUID]struct{}, len(resolved.IDs))
	for _, other := range resolved.IDs {
		want[other] = struct{}{}
	}
	removed := []uuid.UUID{}
	for _, other := range current[id] {
		if _, ok := want[other]; !ok {
			removed = append(removed, other)
		}
	}
	if err := a.deps.Akas.DeletePairs(dbc, akaPairs(id, removed)); err != nil {
		return err
	}
	return a.deps.Akas.CreateIgnoreDuplicates(dbc, AkaClosure(id, resolved.IDs))
}

// AkaClosure returns the rows that make id and each of others mutual akas.
func AkaClosure(id uuid.UUID, others []uuid.UUID) []*knowledge.IndividualAka {
	out := make([]*knowledge.IndividualAka, 0, 2*len(others))
	for _, other := range uniqueIDs(others) {
		if other == id {
			continue
		}
		out = append(out,
			&knowledge.IndividualAka{IndividualID: id, AkaID: other},
			&knowledge.IndividualAka{IndividualID: other, AkaID: id},
		)
	}
	return out
}

func akaPairs(id uuid.UUID, others []uuid.UUID) [][2]uuid.UUID {
	out := make([][2]uuid.UUID, 0, 2*len(others))
	for _, row := range AkaClosure(id, others) {
		out = append(out, [2]uuid.UUID{row.IndividualID, row.AkaID})
	}
	return out
}

func (a *individualAggregate) hydrateAka(dbc dbctx.Context, owner uuid.UUID, inds []*knowledge.Individual) error {
	return hydrateAka(dbc, a.deps.Individuals, a.deps.Akas, owner, inds)
}

func hydrateAka(dbc dbctx.Context, individuals repos.IndividualRepo, akas repos.IndividualAkaRepo, owner uuid.UUID, inds []*knowledge.Individual) error {
	if len(inds) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(inds))
	for _, ind := range inds {
		if ind != nil {
			ids = append(ids, ind.ID)
		}
	}
	edges, err := akas.AkaIDsByIndividuals(dbc, ids)
	if err != nil {
		return err
	}
	all := []uuid.UUID{}
	for _, set := range edges {
		all = append(all, set...)
	}
	rows, err := individuals.GetByIDs(dbc, owner, all)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*knowledge.Individual, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	for _, ind := range inds {
		if ind == nil {
			continue
		}
		ind.Aka = make([]*knowledge.IndividualSummary, 0, len(edges[ind.ID]))
		for _, id := range edges[ind.ID] {
			if other := byID[id]; other != nil {
				ind.Aka = append(ind.Aka, other.Summary())
			}
		}
	}
	return nil
}
