package aggregates

import (
	"context"
	"strings"

	"github.com/google/uuid"

	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/platform/dbctx"
)

type AttributeAggregateDeps struct {
	Base  BaseDeps
	Kinds KindDeps
}

type attributeAggregate struct {
	deps  AttributeAggregateDeps
	kinds kindRegistry
}

func NewAttributeAggregate(deps AttributeAggregateDeps) domainagg.AttributeAggregate {
	deps.Base = deps.Base.withDefaults()
	resolver := newSourceResolver(SourceAggregateDeps{
		Base:        deps.Base,
		Individuals: deps.Kinds.Individuals,
		Sources:     deps.Kinds.Sources,
		Links:       deps.Kinds.SourceIndividuals,
	})
	return &attributeAggregate{deps: deps, kinds: newKindRegistry(deps.Kinds, resolver)}
}

func (a *attributeAggregate) Contract() domainagg.Contract {
	return domainagg.AttributeAggregateContract
}

func (a *attributeAggregate) Delete(ctx context.Context, in domainagg.DeleteAttributeInput) error {
	k := a.kinds[strings.ToLower(strings.TrimSpace(in.Kind))]
	op := "attribute.delete"
	if k == nil {
		return domainagg.Newf(domainagg.CodeValidation, op, "unknown kind %q", in.Kind)
	}
	op = k.name + ".delete"
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		found, err := k.lookupIDs(dbc, in.UserID, []uuid.UUID{in.ID})
		if err != nil {
			return err
		}
		if _, ok := found[in.ID]; !ok {
			return domainagg.Newf(domainagg.CodeNotFound, op, "%s %s not found", singular(k.name), in.ID)
		}
		if err := k.detach(dbc, in.UserID, []uuid.UUID{in.ID}); err != nil {
			return err
		}
		return k.remove(dbc, in.UserID, []uuid.UUID{in.ID})
	})
}
