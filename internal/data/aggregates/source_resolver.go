package aggregates

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/tnahs/hlts/internal/data/repos"
	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/domain/knowledge"
	"github.com/tnahs/hlts/internal/platform/dbctx"
	"github.com/tnahs/hlts/internal/platform/logger"
)

type resolveMode int

const (
	// resolveValidate leaves unknown names unresolved so they never match.
	resolveValidate resolveMode = iota
	// resolveCreate creates individuals for unknown names.
	resolveCreate
)

// resolvedIndividuals is the outcome of resolving a list of refs. IDs is
// de-duplicated and keeps the order of the refs.
type resolvedIndividuals struct {
	IDs        []uuid.UUID
	Unresolved []string
	Created    []*knowledge.Individual
}

// matchable reports whether the set can equal an existing source's set.
func (r resolvedIndividuals) matchable() bool { return len(r.Unresolved) == 0 }

// sourceResolver holds the source identity logic. Every method runs on the
// caller's transaction so node writes can resolve sources inline.
type sourceResolver struct {
	log         *logger.Logger
	individuals repos.IndividualRepo
	sources     repos.SourceRepo
	links       repos.SourceIndividualRepo
}

func (r *sourceResolver) resolveIndividuals(dbc dbctx.Context, owner uuid.UUID, refs []knowledge.IndividualRef, mode resolveMode) (resolvedIndividuals, error) {
	const op = "source.resolve_individuals"
	out := resolvedIndividuals{}
	if len(refs) == 0 {
		return out, nil
	}

	names := make([]string, 0, len(refs))
	ids := make([]uuid.UUID, 0, len(refs))
	for i, ref := range refs {
		if err := ref.Validate(); err != nil {
			return out, domainagg.NewError(domainagg.CodeInvalidReference, op, "individuals["+itoa(i)+"]: "+err.Error(), err)
		}
		switch ref.Kind() {
		case knowledge.RefKindName:
			names = append(names, ref.Name())
		case knowledge.RefKindHandle:
			if h := ref.Handle(); h.UserID != uuid.Nil && h.UserID != owner {
				return out, domainagg.Newf(domainagg.CodeInvalidReference, op, "individuals[%d]: individual %s belongs to another owner", i, h.ID)
			}
			ids = append(ids, ref.ID())
		case knowledge.RefKindID:
			ids = append(ids, ref.ID())
		}
	}

	byName := map[string]uuid.UUID{}
	if len(names) > 0 {
		rows, err := r.individuals.GetByNames(dbc, owner, names)
		if err != nil {
			return out, err
		}
		for _, ind := range rows {
			byName[ind.Name] = ind.ID
		}
	}

	if mode == resolveCreate {
		missing := make([]*knowledge.Individual, 0)
		seen := map[string]struct{}{}
		for _, n := range names {
			if _, ok := byName[n]; ok {
				continue
			}
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			missing = append(missing, &knowledge.Individual{Attribute: knowledge.Attribute{UserID: owner, Name: n}})
		}
		if len(missing) > 0 {
			if _, err := r.individuals.CreateIgnoreDuplicates(dbc, missing); err != nil {
				return out, err
			}
			missingNames := make([]string, 0, len(missing))
			for _, m := range missing {
				missingNames = append(missingNames, m.Name)
			}
			rows, err := r.individuals.GetByNames(dbc, owner, missingNames)
			if err != nil {
				return out, err
			}
			createdIDs := make(map[uuid.UUID]struct{}, len(missing))
			for _, m := range missing {
				createdIDs[m.ID] = struct{}{}
			}
			for _, ind := range rows {
				byName[ind.Name] = ind.ID
				// Rows inserted by a concurrent writer keep their own id.
				if _, ok := createdIDs[ind.ID]; ok {
					out.Created = append(out.Created, ind)
				}
			}
			for _, m := range missing {
				if _, ok := byName[m.Name]; !ok {
					return out, domainagg.Newf(domainagg.CodeInternal, op, "individual %q missing after create", m.Name)
				}
			}
		}

		if len(ids) > 0 {
			rows, err := r.individuals.GetByIDs(dbc, owner, ids)
			if err != nil {
				return out, err
			}
			found := make(map[uuid.UUID]struct{}, len(rows))
			for _, ind := range rows {
				found[ind.ID] = struct{}{}
			}
			for _, id := range ids {
				if _, ok := found[id]; !ok {
					return out, domainagg.Newf(domainagg.CodeNotFound, op, "individual %s not found", id)
				}
			}
		}
	}

	seenIDs := make(map[uuid.UUID]struct{}, len(refs))
	seenUnresolved := map[string]struct{}{}
	for _, ref := range refs {
		var id uuid.UUID
		if ref.Kind() == knowledge.RefKindName {
			var ok bool
			id, ok = byName[ref.Name()]
			if !ok {
				if _, dup := seenUnresolved[ref.Name()]; !dup {
					seenUnresolved[ref.Name()] = struct{}{}
					out.Unresolved = append(out.Unresolved, ref.Name())
				}
				continue
			}
		} else {
			id = ref.ID()
		}
		if _, ok := seenIDs[id]; ok {
			continue
		}
		seenIDs[id] = struct{}{}
		out.IDs = append(out.IDs, id)
	}
	return out, nil
}

// findExisting returns the source whose (name, individual set) equals the
// request, or nil. Candidates are share-locked so their individual sets
// cannot change between the cardinality filter and the set comparison.
func (r *sourceResolver) findExisting(dbc dbctx.Context, owner uuid.UUID, name string, refs []knowledge.IndividualRef, excludeID *uuid.UUID) (*knowledge.Source, error) {
	name = strings.TrimSpace(name)
	target, err := r.resolveIndividuals(dbc, owner, refs, resolveValidate)
	if err != nil {
		return nil, err
	}
	if !target.matchable() {
		return nil, nil
	}

	candidates, err := r.sources.LockCandidates(dbc, owner, name, excludeID)
	if err != nil || len(candidates) == 0 {
		return nil, err
	}
	candidateIDs := make([]uuid.UUID, 0, len(candidates))
	for _, c := range candidates {
		candidateIDs = append(candidateIDs, c.ID)
	}
	counts, err := r.links.CountBySources(dbc, candidateIDs)
	if err != nil {
		return nil, err
	}
	narrowed := make([]*knowledge.Source, 0, len(candidates))
	narrowedIDs := make([]uuid.UUID, 0, len(candidates))
	for _, c := range candidates {
		if counts[c.ID] == len(target.IDs) {
			narrowed = append(narrowed, c)
			narrowedIDs = append(narrowedIDs, c.ID)
		}
	}
	if len(narrowed) == 0 {
		return nil, nil
	}
	sets, err := r.links.IndividualIDsBySources(dbc, narrowedIDs)
	if err != nil {
		return nil, err
	}
	for _, c := range narrowed {
		if sameIDSet(sets[c.ID], target.IDs) {
			if err := r.hydrate(dbc, owner, []*knowledge.Source{c}); err != nil {
				return nil, err
			}
			return c, nil
		}
	}
	return nil, nil
}

func (r *sourceResolver) validateUnique(dbc dbctx.Context, owner uuid.UUID, name string, refs []knowledge.IndividualRef, excludeID *uuid.UUID) error {
	existing, err := r.findExisting(dbc, owner, name, refs, excludeID)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	return domainagg.NewError(domainagg.CodeDuplicate, "source.validate_unique", duplicateMessage(existing), nil)
}

func duplicateMessage(s *knowledge.Source) string {
	by := s.By()
	switch {
	case s.Name != "" && by != "":
		return "source " + quote(s.Name) + " by " + by + " already exists"
	case by != "":
		return "source by " + by + " already exists"
	default:
		return "source " + quote(s.Name) + " with no individuals already exists"
	}
}

func (r *sourceResolver) getOrCreate(dbc dbctx.Context, in domainagg.ResolveSourceInput) (domainagg.ResolveSourceResult, error) {
	name := strings.TrimSpace(in.Name)
	if in.UserID == uuid.Nil {
		return domainagg.ResolveSourceResult{}, ValidationError("missing owner")
	}
	if name == "" && len(in.Individuals) == 0 {
		return domainagg.ResolveSourceResult{}, ValidationError("source needs a name or at least one individual")
	}

	existing, err := r.findExisting(dbc, in.UserID, name, in.Individuals, nil)
	if err != nil {
		return domainagg.ResolveSourceResult{}, err
	}
	if existing != nil {
		return domainagg.ResolveSourceResult{Source: existing}, nil
	}

	resolved, err := r.resolveIndividuals(dbc, in.UserID, in.Individuals, resolveCreate)
	if err != nil {
		return domainagg.ResolveSourceResult{}, err
	}
	src := &knowledge.Source{
		UserID: in.UserID,
		Name:   name,
		URL:    strings.TrimSpace(in.URL),
		Date:   in.Date,
		Notes:  in.Notes,
	}
	if _, err := r.sources.Create(dbc, []*knowledge.Source{src}); err != nil {
		return domainagg.ResolveSourceResult{}, err
	}
	if err := r.links.ReplaceForSource(dbc, src.ID, resolved.IDs); err != nil {
		return domainagg.ResolveSourceResult{}, err
	}
	if err := r.hydrate(dbc, in.UserID, []*knowledge.Source{src}); err != nil {
		return domainagg.ResolveSourceResult{}, err
	}
	r.log.Debug("source created", "source_id", src.ID, "individuals", len(resolved.IDs), "created_individuals", len(resolved.Created))
	return domainagg.ResolveSourceResult{Source: src, Created: true, CreatedIndividuals: resolved.Created}, nil
}

func (r *sourceResolver) update(dbc dbctx.Context, in domainagg.UpdateSourceInput) (domainagg.UpdateSourceResult, error) {
	src, err := r.sources.LockByID(dbc, in.UserID, in.SourceID)
	if err != nil {
		return domainagg.UpdateSourceResult{}, err
	}
	currentSets, err := r.links.IndividualIDsBySources(dbc, []uuid.UUID{src.ID})
	if err != nil {
		return domainagg.UpdateSourceResult{}, err
	}

	name := src.Name
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
	}
	refs := knowledge.RefsByID(currentSets[src.ID]...)
	if in.Individuals != nil {
		refs = *in.Individuals
	}
	if name == "" && len(refs) == 0 {
		return domainagg.UpdateSourceResult{}, ValidationError("source needs a name or at least one individual")
	}
	if in.Name != nil || in.Individuals != nil {
		if err := r.validateUnique(dbc, in.UserID, name, refs, &src.ID); err != nil {
			return domainagg.UpdateSourceResult{}, err
		}
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = name
	}
	if in.URL != nil {
		updates["url"] = strings.TrimSpace(*in.URL)
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if in.ClearDate {
		updates["date"] = nil
	} else if in.Date != nil {
		updates["date"] = *in.Date
	}
	if err := r.sources.UpdateFields(dbc, in.UserID, src.ID, updates); err != nil {
		return domainagg.UpdateSourceResult{}, err
	}

	out := domainagg.UpdateSourceResult{}
	if in.Individuals != nil {
		resolved, err := r.resolveIndividuals(dbc, in.UserID, refs, resolveCreate)
		if err != nil {
			return domainagg.UpdateSourceResult{}, err
		}
		if err := r.links.ReplaceForSource(dbc, src.ID, resolved.IDs); err != nil {
			return domainagg.UpdateSourceResult{}, err
		}
		out.CreatedIndividuals = resolved.Created
	}

	fresh, err := r.sources.GetByID(dbc, in.UserID, src.ID)
	if err != nil {
		return domainagg.UpdateSourceResult{}, err
	}
	if err := r.hydrate(dbc, in.UserID, []*knowledge.Source{fresh}); err != nil {
		return domainagg.UpdateSourceResult{}, err
	}
	out.Source = fresh
	return out, nil
}

// findDuplicates groups the owner's sources by compound identity and keeps
// the groups with more than one member.
func (r *sourceResolver) findDuplicates(dbc dbctx.Context, owner uuid.UUID) ([]domainagg.DuplicateSourceGroup, error) {
	all, err := r.sources.ListByUser(dbc, owner)
	if err != nil || len(all) < 2 {
		return []domainagg.DuplicateSourceGroup{}, err
	}
	ids := make([]uuid.UUID, 0, len(all))
	for _, s := range all {
		ids = append(ids, s.ID)
	}
	sets, err := r.links.IndividualIDsBySources(dbc, ids)
	if err != nil {
		return nil, err
	}

	order := []string{}
	groups := map[string][]*knowledge.Source{}
	for _, s := range all {
		key := identityKey(s.Name, sets[s.ID])
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], s)
	}

	out := []domainagg.DuplicateSourceGroup{}
	for _, key := range order {
		members := groups[key]
		if len(members) < 2 {
			continue
		}
		if err := r.hydrate(dbc, owner, members); err != nil {
			return nil, err
		}
		out = append(out, domainagg.DuplicateSourceGroup{
			Name:          members[0].Name,
			IndividualIDs: sortedIDs(sets[members[0].ID]),
			Keep:          members[0],
			Duplicates:    members[1:],
		})
	}
	return out, nil
}

// hydrate loads the credited individuals of each source in display order.
func (r *sourceResolver) hydrate(dbc dbctx.Context, owner uuid.UUID, sources []*knowledge.Source) error {
	if len(sources) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(sources))
	for _, s := range sources {
		ids = append(ids, s.ID)
	}
	sets, err := r.links.IndividualIDsBySources(dbc, ids)
	if err != nil {
		return err
	}
	all := []uuid.UUID{}
	for _, set := range sets {
		all = append(all, set...)
	}
	rows, err := r.individuals.GetByIDs(dbc, owner, all)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*knowledge.Individual, len(rows))
	for _, ind := range rows {
		byID[ind.ID] = ind
	}
	for _, s := range sources {
		s.Individuals = make([]*knowledge.Individual, 0, len(sets[s.ID]))
		for _, id := range sets[s.ID] {
			if ind := byID[id]; ind != nil {
				s.Individuals = append(s.Individuals, ind)
			}
		}
	}
	return nil
}

func sameIDSet(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[uuid.UUID]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	if len(set) != len(b) {
		return false
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

func sortedIDs(ids []uuid.UUID) []uuid.UUID {
	out := append([]uuid.UUID(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func identityKey(name string, ids []uuid.UUID) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(name))
	for _, id := range sortedIDs(ids) {
		b.WriteByte(0)
		b.WriteString(id.String())
	}
	return b.String()
}
