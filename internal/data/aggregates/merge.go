package aggregates

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/tnahs/hlts/internal/data/repos"
	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/domain/knowledge"
	"github.com/tnahs/hlts/internal/platform/dbctx"
)

type MergeAggregateDeps struct {
	Base   BaseDeps
	Kinds  KindDeps
	Events repos.MergeEventRepo
}

type mergeAggregate struct {
	deps  MergeAggregateDeps
	kinds kindRegistry
}

func NewMergeAggregate(deps MergeAggregateDeps) domainagg.MergeAggregate {
	deps.Base = deps.Base.withDefaults()
	resolver := newSourceResolver(SourceAggregateDeps{
		Base:        deps.Base,
		Individuals: deps.Kinds.Individuals,
		Sources:     deps.Kinds.Sources,
		Links:       deps.Kinds.SourceIndividuals,
	})
	return &mergeAggregate{deps: deps, kinds: newKindRegistry(deps.Kinds, resolver)}
}

func (a *mergeAggregate) Contract() domainagg.Contract {
	return domainagg.MergeAggregateContract
}

func (a *mergeAggregate) kind(op, name string) (*entityKind, error) {
	k := a.kinds[strings.ToLower(strings.TrimSpace(name))]
	if k == nil {
		return nil, domainagg.Newf(domainagg.CodeValidation, op, "unknown merge kind %q", name)
	}
	return k, nil
}

// Merge folds every entity named in Merging into the one named Into. Names
// equal to Into and repeated names are ignored. All names are checked before
// anything is written.
func (a *mergeAggregate) Merge(ctx context.Context, in domainagg.MergeInput) (domainagg.MergeResult, error) {
	const op = "merge.by_name"
	k, err := a.kind(op, in.Kind)
	if err != nil {
		return domainagg.MergeResult{}, err
	}
	into := strings.TrimSpace(in.Into)
	if in.UserID == uuid.Nil || into == "" {
		return domainagg.MergeResult{}, domainagg.NewError(domainagg.CodeValidation, op, "owner and destination name are required", nil)
	}
	merging := make([]string, 0, len(in.Merging))
	for _, n := range cleanNames(in.Merging) {
		if n != into {
			merging = append(merging, n)
		}
	}
	if len(merging) == 0 {
		return domainagg.MergeResult{}, domainagg.NewError(domainagg.CodeValidation, op, "nothing to merge", nil)
	}

	return a.run(ctx, k, in.UserID, func(dbc dbctx.Context) (domainagg.MergeEntity, []domainagg.MergeEntity, error) {
		dests, err := k.lookupNames(dbc, in.UserID, []string{into})
		if err != nil {
			return domainagg.MergeEntity{}, nil, err
		}
		switch len(dests[into]) {
		case 0:
			return domainagg.MergeEntity{}, nil, domainagg.Newf(domainagg.CodeNotFound, op, "%s %q not found", singular(k.name), into)
		case 1:
		default:
			return domainagg.MergeEntity{}, nil, domainagg.Newf(domainagg.CodeValidation, op,
				"%q names %d %s; merge them by id", into, len(dests[into]), k.name)
		}
		dest := dests[into][0]

		found, err := k.lookupNames(dbc, in.UserID, merging)
		if err != nil {
			return domainagg.MergeEntity{}, nil, err
		}
		var missing, ambiguous []string
		sources := make([]domainagg.MergeEntity, 0, len(merging))
		for _, n := range merging {
			switch rows := found[n]; len(rows) {
			case 0:
				missing = append(missing, n)
			case 1:
				sources = append(sources, rows[0])
			default:
				ambiguous = append(ambiguous, n)
			}
		}
		if len(missing) > 0 || len(ambiguous) > 0 {
			return domainagg.MergeEntity{}, nil, domainagg.NewError(domainagg.CodeValidation, op, lookupFailureMessage(k.name, missing, ambiguous), nil)
		}
		return dest, sources, nil
	})
}

// MergeByIDs is Merge addressed by id. The reconciliation path uses it for
// sources that share a name.
func (a *mergeAggregate) MergeByIDs(ctx context.Context, in domainagg.MergeByIDsInput) (domainagg.MergeResult, error) {
	const op = "merge.by_id"
	k, err := a.kind(op, in.Kind)
	if err != nil {
		return domainagg.MergeResult{}, err
	}
	if in.UserID == uuid.Nil || in.IntoID == uuid.Nil {
		return domainagg.MergeResult{}, domainagg.NewError(domainagg.CodeValidation, op, "owner and destination id are required", nil)
	}
	merging := make([]uuid.UUID, 0, len(in.MergingIDs))
	for _, id := range uniqueIDs(in.MergingIDs) {
		if id != in.IntoID {
			merging = append(merging, id)
		}
	}
	if len(merging) == 0 {
		return domainagg.MergeResult{}, domainagg.NewError(domainagg.CodeValidation, op, "nothing to merge", nil)
	}

	return a.run(ctx, k, in.UserID, func(dbc dbctx.Context) (domainagg.MergeEntity, []domainagg.MergeEntity, error) {
		dests, err := k.lookupIDs(dbc, in.UserID, []uuid.UUID{in.IntoID})
		if err != nil {
			return domainagg.MergeEntity{}, nil, err
		}
		dest, ok := dests[in.IntoID]
		if !ok {
			return domainagg.MergeEntity{}, nil, domainagg.Newf(domainagg.CodeNotFound, op, "%s %s not found", singular(k.name), in.IntoID)
		}
		found, err := k.lookupIDs(dbc, in.UserID, merging)
		if err != nil {
			return domainagg.MergeEntity{}, nil, err
		}
		var missing []string
		sources := make([]domainagg.MergeEntity, 0, len(merging))
		for _, id := range merging {
			e, ok := found[id]
			if !ok {
				missing = append(missing, id.String())
				continue
			}
			sources = append(sources, e)
		}
		if len(missing) > 0 {
			return domainagg.MergeEntity{}, nil, domainagg.NewError(domainagg.CodeValidation, op, lookupFailureMessage(k.name, missing, nil), nil)
		}
		return dest, sources, nil
	})
}

// guardProtected rejects merges that would remove the owner's default origin.
func guardProtected(op string, k *entityKind, sources []domainagg.MergeEntity) error {
	if k.name != domainagg.KindOrigins {
		return nil
	}
	for _, e := range sources {
		if e.Name == knowledge.DefaultOriginName {
			return domainagg.Newf(domainagg.CodePreconditionFailed, op,
				"origin %q is the default origin and cannot be merged away", e.Name)
		}
	}
	return nil
}

type mergeLookup func(dbc dbctx.Context) (domainagg.MergeEntity, []domainagg.MergeEntity, error)

// run holds the owner merge lock, resolves the participants and applies the
// merge in one transaction.
func (a *mergeAggregate) run(ctx context.Context, k *entityKind, owner uuid.UUID, lookup mergeLookup) (domainagg.MergeResult, error) {
	op := "merge." + k.name
	unlock, err := a.deps.Base.Locker.Lock(ctx, owner, "merge")
	if err != nil {
		return domainagg.MergeResult{}, MapError(op, err)
	}
	defer unlock()

	var out domainagg.MergeResult
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		dest, sources, err := lookup(dbc)
		if err != nil {
			return err
		}
		if err := guardProtected(op, k, sources); err != nil {
			return err
		}
		res, err := a.apply(dbc, k, owner, dest, sources)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	a.deps.Base.Hooks.ObserveMerge(k.name, aggregateErrorStatus(err), len(out.Sources), out.Repointed)
	if err != nil {
		return domainagg.MergeResult{}, err
	}
	a.deps.Base.Log.Info("merge applied",
		"kind", k.name,
		"owner", owner,
		"destination_id", out.Destination.ID,
		"merged", len(out.Sources),
		"repointed", out.Repointed,
	)
	return out, nil
}

func (a *mergeAggregate) apply(dbc dbctx.Context, k *entityKind, owner uuid.UUID, dest domainagg.MergeEntity, sources []domainagg.MergeEntity) (domainagg.MergeResult, error) {
	ids := make([]uuid.UUID, 0, len(sources))
	for _, s := range sources {
		if s.ID == dest.ID {
			return domainagg.MergeResult{}, InvariantError("cannot merge an entity into itself")
		}
		ids = append(ids, s.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	repointed, err := k.repoint(dbc, owner, ids, dest.ID)
	if err != nil {
		return domainagg.MergeResult{}, err
	}
	if err := k.remove(dbc, owner, ids); err != nil {
		return domainagg.MergeResult{}, err
	}

	rawIDs, err := json.Marshal(ids)
	if err != nil {
		return domainagg.MergeResult{}, err
	}
	snapshot, err := json.Marshal(sources)
	if err != nil {
		return domainagg.MergeResult{}, err
	}
	ev, err := a.deps.Events.Create(dbc, &knowledge.MergeEvent{
		UserID:          owner,
		Kind:            k.name,
		DestinationID:   dest.ID,
		DestinationName: dest.Display,
		SourceIDs:       datatypes.JSON(rawIDs),
		Snapshot:        datatypes.JSON(snapshot),
		Repointed:       repointed,
	})
	if err != nil {
		return domainagg.MergeResult{}, err
	}
	return domainagg.MergeResult{
		Kind:        k.name,
		Destination: dest,
		Sources:     sources,
		Repointed:   repointed,
		EventID:     ev.ID,
	}, nil
}

func lookupFailureMessage(kind string, missing, ambiguous []string) string {
	parts := []string{}
	if len(missing) > 0 {
		parts = append(parts, "no "+kind+" named "+joinQuoted(missing))
	}
	if len(ambiguous) > 0 {
		parts = append(parts, "several "+kind+" named "+joinQuoted(ambiguous)+"; merge them by id")
	}
	return strings.Join(parts, "; ")
}

func joinQuoted(names []string) string {
	q := make([]string, 0, len(names))
	for _, n := range names {
		q = append(q, quote(n))
	}
	return strings.Join(q, ", ")
}

func singular(kind string) string {
	return strings.TrimSuffix(kind, "s")
}
