package aggregates

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/tnahs/hlts/internal/data/repos"
	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/domain/knowledge"
	"github.com/tnahs/hlts/internal/platform/dbctx"
)

type SourceAggregateDeps struct {
	Base        BaseDeps
	Individuals repos.IndividualRepo
	Sources     repos.SourceRepo
	Links       repos.SourceIndividualRepo
}

type sourceAggregate struct {
	deps     SourceAggregateDeps
	resolver *sourceResolver
	inflight singleflight.Group
}

func NewSourceAggregate(deps SourceAggregateDeps) domainagg.SourceAggregate {
	deps.Base = deps.Base.withDefaults()
	return &sourceAggregate{
		deps:     deps,
		resolver: newSourceResolver(deps),
	}
}

func newSourceResolver(deps SourceAggregateDeps) *sourceResolver {
	base := deps.Base.withDefaults()
	return &sourceResolver{
		log:         base.Log.With("aggregate", "SourceAggregate"),
		individuals: deps.Individuals,
		sources:     deps.Sources,
		links:       deps.Links,
	}
}

func (a *sourceAggregate) Contract() domainagg.Contract {
	return domainagg.SourceAggregateContract
}

// Resolve collapses concurrent identical requests in this process onto one
// transaction. Every caller receives the same result.
func (a *sourceAggregate) Resolve(ctx context.Context, in domainagg.ResolveSourceInput) (domainagg.ResolveSourceResult, error) {
	const op = "source.resolve"
	key, ok := resolveKey(in)
	if !ok {
		return a.resolve(ctx, in)
	}
	leader := false
	v, err, shared := a.inflight.Do(key, func() (interface{}, error) {
		leader = true
		return a.resolve(context.WithoutCancel(ctx), in)
	})
	if err != nil {
		return domainagg.ResolveSourceResult{}, err
	}
	res := v.(domainagg.ResolveSourceResult)
	if shared && !leader {
		a.resolver.log.Debug("resolve shared", "op", op, "owner", in.UserID)
		return followerResult(res), nil
	}
	return res, nil
}

// followerResult is what a caller that joined another caller's resolve sees:
// the same source, but nothing was created on its behalf.
func followerResult(res domainagg.ResolveSourceResult) domainagg.ResolveSourceResult {
	return domainagg.ResolveSourceResult{Source: res.Source}
}

func (a *sourceAggregate) resolve(ctx context.Context, in domainagg.ResolveSourceInput) (domainagg.ResolveSourceResult, error) {
	var out domainagg.ResolveSourceResult
	err := executeWrite(ctx, a.deps.Base, "source.resolve", func(dbc dbctx.Context) error {
		res, err := a.resolver.getOrCreate(dbc, in)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	return out, err
}

func (a *sourceAggregate) FindExisting(ctx context.Context, in domainagg.FindSourceInput) (*knowledge.Source, error) {
	var out *knowledge.Source
	err := executeWrite(ctx, a.deps.Base, "source.find_existing", func(dbc dbctx.Context) error {
		src, err := a.resolver.findExisting(dbc, in.UserID, in.Name, in.Individuals, in.ExcludeID)
		out = src
		return err
	})
	return out, err
}

func (a *sourceAggregate) ValidateUnique(ctx context.Context, in domainagg.FindSourceInput) error {
	return executeWrite(ctx, a.deps.Base, "source.validate_unique", func(dbc dbctx.Context) error {
		return a.resolver.validateUnique(dbc, in.UserID, in.Name, in.Individuals, in.ExcludeID)
	})
}

func (a *sourceAggregate) Update(ctx context.Context, in domainagg.UpdateSourceInput) (domainagg.UpdateSourceResult, error) {
	if in.UserID == uuid.Nil || in.SourceID == uuid.Nil {
		return domainagg.UpdateSourceResult{}, MapError("source.update", ValidationError("user_id and source_id are required"))
	}
	var out domainagg.UpdateSourceResult
	err := executeWrite(ctx, a.deps.Base, "source.update", func(dbc dbctx.Context) error {
		res, err := a.resolver.update(dbc, in)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	return out, err
}

func (a *sourceAggregate) FindDuplicates(ctx context.Context, userID uuid.UUID) ([]domainagg.DuplicateSourceGroup, error) {
	var out []domainagg.DuplicateSourceGroup
	err := executeWrite(ctx, a.deps.Base, "source.find_duplicates", func(dbc dbctx.Context) error {
		groups, err := a.resolver.findDuplicates(dbc, userID)
		out = groups
		return err
	})
	return out, err
}

// resolveKey identifies a resolve request independent of ref order. Requests
// that carry invalid refs are not collapsed.
func resolveKey(in domainagg.ResolveSourceInput) (string, bool) {
	keys := make([]string, 0, len(in.Individuals))
	for _, ref := range in.Individuals {
		k := ref.Key()
		if k == "" {
			return "", false
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return in.UserID.String() + "|" + strings.TrimSpace(in.Name) + "|" + strings.Join(keys, ","), true
}
