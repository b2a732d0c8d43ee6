package aggregates

import (
	"github.com/google/uuid"

	"github.com/tnahs/hlts/internal/data/repos"
	knowledgerepo "github.com/tnahs/hlts/internal/data/repos/knowledge"
	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/domain/knowledge"
	"github.com/tnahs/hlts/internal/platform/dbctx"
)

// entityKind is one row type that merge and delete know how to find, repoint
// and remove. Lookups lock the rows they return.
type entityKind struct {
	name string

	// lookupNames may return several rows per name for kinds whose name is
	// not unique (sources).
	lookupNames func(dbc dbctx.Context, owner uuid.UUID, names []string) (map[string][]domainagg.MergeEntity, error)
	lookupIDs   func(dbc dbctx.Context, owner uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]domainagg.MergeEntity, error)

	repoint func(dbc dbctx.Context, owner uuid.UUID, from []uuid.UUID, to uuid.UUID) (int64, error)
	detach  func(dbc dbctx.Context, owner uuid.UUID, ids []uuid.UUID) error
	remove  func(dbc dbctx.Context, owner uuid.UUID, ids []uuid.UUID) error
}

// KindDeps are the repos the kind registry dispatches to.
type KindDeps struct {
	Tags              repos.TagRepo
	Collections       repos.CollectionRepo
	Origins           repos.OriginRepo
	Topics            repos.TopicRepo
	Individuals       repos.IndividualRepo
	Sources           repos.SourceRepo
	SourceIndividuals repos.SourceIndividualRepo
	Nodes             repos.NodeRepo
	NodeTags          repos.NodeLinkRepo
	NodeCollections   repos.NodeLinkRepo
	NodeTopics        repos.NodeLinkRepo
}

// KindDepsFromSet picks the kind registry repos out of a repo set.
func KindDepsFromSet(s *repos.Set) KindDeps {
	return KindDeps{
		Tags:              s.Tags,
		Collections:       s.Collections,
		Origins:           s.Origins,
		Topics:            s.Topics,
		Individuals:       s.Individuals,
		Sources:           s.Sources,
		SourceIndividuals: s.SourceIndividuals,
		Nodes:             s.Nodes,
		NodeTags:          s.NodeTags,
		NodeCollections:   s.NodeCollections,
		NodeTopics:        s.NodeTopics,
	}
}

type kindRegistry map[string]*entityKind

func newKindRegistry(d KindDeps, resolver *sourceResolver) kindRegistry {
	reg := kindRegistry{}
	add := func(k *entityKind) { reg[k.name] = k }

	add(attributeKind[knowledge.Tag](domainagg.KindTags, d.Tags,
		linkRepoint(d.NodeTags), linkDetach(d.NodeTags)))
	add(attributeKind[knowledge.Collection](domainagg.KindCollections, d.Collections,
		linkRepoint(d.NodeCollections), linkDetach(d.NodeCollections)))
	add(attributeKind[knowledge.Topic](domainagg.KindTopics, d.Topics,
		linkRepoint(d.NodeTopics), linkDetach(d.NodeTopics)))
	add(attributeKind[knowledge.Origin](domainagg.KindOrigins, d.Origins,
		d.Nodes.RepointOrigin, d.Nodes.ClearOrigin))
	add(sourceKind(d, resolver))
	return reg
}

func linkRepoint(links repos.NodeLinkRepo) func(dbctx.Context, uuid.UUID, []uuid.UUID, uuid.UUID) (int64, error) {
	return func(dbc dbctx.Context, _ uuid.UUID, from []uuid.UUID, to uuid.UUID) (int64, error) {
		return links.Repoint(dbc, from, to)
	}
}

func linkDetach(links repos.NodeLinkRepo) func(dbctx.Context, uuid.UUID, []uuid.UUID) error {
	return func(dbc dbctx.Context, _ uuid.UUID, ids []uuid.UUID) error {
		return links.DeleteByAttrs(dbc, ids)
	}
}

func attributeKind[T any, P interface {
	*T
	knowledge.Attr
}](
	name string,
	repo knowledgerepo.AttributeRepo[T],
	repoint func(dbctx.Context, uuid.UUID, []uuid.UUID, uuid.UUID) (int64, error),
	detach func(dbctx.Context, uuid.UUID, []uuid.UUID) error,
) *entityKind {
	entity := func(row *T) domainagg.MergeEntity {
		base := P(row).Base()
		return domainagg.MergeEntity{ID: base.ID, Name: base.Name, Display: base.Name, Record: row}
	}
	return &entityKind{
		name: name,
		lookupNames: func(dbc dbctx.Context, owner uuid.UUID, names []string) (map[string][]domainagg.MergeEntity, error) {
			rows, err := repo.LockByNames(dbc, owner, names)
			if err != nil {
				return nil, err
			}
			out := make(map[string][]domainagg.MergeEntity, len(rows))
			for _, row := range rows {
				e := entity(row)
				out[e.Name] = append(out[e.Name], e)
			}
			return out, nil
		},
		lookupIDs: func(dbc dbctx.Context, owner uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]domainagg.MergeEntity, error) {
			rows, err := repo.LockByIDs(dbc, owner, ids)
			if err != nil {
				return nil, err
			}
			out := make(map[uuid.UUID]domainagg.MergeEntity, len(rows))
			for _, row := range rows {
				e := entity(row)
				out[e.ID] = e
			}
			return out, nil
		},
		repoint: repoint,
		detach:  detach,
		remove:  repo.DeleteByIDs,
	}
}

func sourceKind(d KindDeps, resolver *sourceResolver) *entityKind {
	entities := func(dbc dbctx.Context, owner uuid.UUID, rows []*knowledge.Source) ([]domainagg.MergeEntity, error) {
		if err := resolver.hydrate(dbc, owner, rows); err != nil {
			return nil, err
		}
		out := make([]domainagg.MergeEntity, 0, len(rows))
		for _, s := range rows {
			out = append(out, domainagg.MergeEntity{ID: s.ID, Name: s.Name, Display: s.Display(), Record: s})
		}
		return out, nil
	}
	return &entityKind{
		name: domainagg.KindSources,
		lookupNames: func(dbc dbctx.Context, owner uuid.UUID, names []string) (map[string][]domainagg.MergeEntity, error) {
			rows, err := d.Sources.LockByNames(dbc, owner, names)
			if err != nil {
				return nil, err
			}
			list, err := entities(dbc, owner, rows)
			if err != nil {
				return nil, err
			}
			out := make(map[string][]domainagg.MergeEntity, len(list))
			for _, e := range list {
				out[e.Name] = append(out[e.Name], e)
			}
			return out, nil
		},
		lookupIDs: func(dbc dbctx.Context, owner uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]domainagg.MergeEntity, error) {
			rows, err := d.Sources.LockByIDs(dbc, owner, ids)
			if err != nil {
				return nil, err
			}
			list, err := entities(dbc, owner, rows)
			if err != nil {
				return nil, err
			}
			out := make(map[uuid.UUID]domainagg.MergeEntity, len(list))
			for _, e := range list {
				out[e.ID] = e
			}
			return out, nil
		},
		repoint: d.Nodes.RepointSource,
		detach:  d.Nodes.ClearSource,
		remove: func(dbc dbctx.Context, owner uuid.UUID, ids []uuid.UUID) error {
			if err := d.SourceIndividuals.DeleteBySources(dbc, ids); err != nil {
				return err
			}
			return d.Sources.DeleteByIDs(dbc, owner, ids)
		},
	}
}
