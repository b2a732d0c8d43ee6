package aggregates

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/tnahs/hlts/internal/data/repos"
	knowledgerepo "github.com/tnahs/hlts/internal/data/repos/knowledge"
	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/domain/knowledge"
	"github.com/tnahs/hlts/internal/platform/dbctx"
)

type NodeAggregateDeps struct {
	Base      BaseDeps
	Kinds     KindDeps
	Relations repos.NodeRelationRepo
}

type nodeAggregate struct {
	deps     NodeAggregateDeps
	resolver *sourceResolver
}

func NewNodeAggregate(deps NodeAggregateDeps) domainagg.NodeAggregate {
	deps.Base = deps.Base.withDefaults()
	return &nodeAggregate{
		deps: deps,
		resolver: newSourceResolver(SourceAggregateDeps{
			Base:        deps.Base,
			Individuals: deps.Kinds.Individuals,
			Sources:     deps.Kinds.Sources,
			Links:       deps.Kinds.SourceIndividuals,
		}),
	}
}

func (a *nodeAggregate) Contract() domainagg.Contract {
	return domainagg.NodeAggregateContract
}

func (a *nodeAggregate) Create(ctx context.Context, in domainagg.CreateNodeInput) (*knowledge.Node, error) {
	const op = "node.create"
	if in.UserID == uuid.Nil {
		return nil, MapError(op, ValidationError("missing owner"))
	}
	if strings.TrimSpace(in.Body) == "" {
		return nil, MapError(op, ValidationError("node body is required"))
	}

	var out *knowledge.Node
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		k := a.deps.Kinds
		node := &knowledge.Node{
			UserID:    in.UserID,
			Body:      in.Body,
			Notes:     in.Notes,
			IsStarred: in.IsStarred,
		}

		sourceID, err := a.sourceFor(dbc, in.UserID, in.Source)
		if err != nil {
			return err
		}
		node.SourceID = sourceID

		originID, err := a.originFor(dbc, in.UserID, in.Origin)
		if err != nil {
			return err
		}
		node.OriginID = &originID

		related, err := a.relatedFor(dbc, in.UserID, uuid.Nil, in.Related)
		if err != nil {
			return err
		}

		if _, err := k.Nodes.Create(dbc, []*knowledge.Node{node}); err != nil {
			return err
		}

		if err := linkByNames[knowledge.Tag](dbc, k.Tags, k.NodeTags, in.UserID, node.ID, in.Tags, false); err != nil {
			return err
		}
		if err := linkByNames[knowledge.Collection](dbc, k.Collections, k.NodeCollections, in.UserID, node.ID, in.Collections, false); err != nil {
			return err
		}
		if err := linkByNames[knowledge.Topic](dbc, k.Topics, k.NodeTopics, in.UserID, node.ID, in.Topics, false); err != nil {
			return err
		}
		if err := a.deps.Relations.Link(dbc, node.ID, related); err != nil {
			return err
		}
		out = node
		return nil
	})
	return out, err
}

func (a *nodeAggregate) Update(ctx context.Context, in domainagg.UpdateNodeInput) (*knowledge.Node, error) {
	const op = "node.update"
	var out *knowledge.Node
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		k := a.deps.Kinds
		node, err := k.Nodes.LockByID(dbc, in.UserID, in.NodeID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if in.Body != nil {
			if strings.TrimSpace(*in.Body) == "" {
				return ValidationError("node body cannot be blank")
			}
			updates["body"] = *in.Body
		}
		if in.Notes != nil {
			updates["notes"] = *in.Notes
		}
		if in.IsStarred != nil {
			updates["is_starred"] = *in.IsStarred
		}
		if in.InTrash != nil {
			updates["in_trash"] = *in.InTrash
		}
		switch {
		case in.ClearSource:
			updates["source_id"] = nil
		case in.Source != nil:
			sourceID, err := a.sourceFor(dbc, in.UserID, in.Source)
			if err != nil {
				return err
			}
			if sourceID == nil {
				updates["source_id"] = nil
			} else {
				updates["source_id"] = *sourceID
			}
		}
		if in.Origin != nil {
			originID, err := a.originFor(dbc, in.UserID, *in.Origin)
			if err != nil {
				return err
			}
			updates["origin_id"] = originID
		}
		if err := k.Nodes.UpdateFields(dbc, in.UserID, node.ID, updates); err != nil {
			return err
		}

		if in.Tags != nil {
			if err := linkByNames[knowledge.Tag](dbc, k.Tags, k.NodeTags, in.UserID, node.ID, *in.Tags, true); err != nil {
				return err
			}
		}
		if in.Collections != nil {
			if err := linkByNames[knowledge.Collection](dbc, k.Collections, k.NodeCollections, in.UserID, node.ID, *in.Collections, true); err != nil {
				return err
			}
		}
		if in.Topics != nil {
			if err := linkByNames[knowledge.Topic](dbc, k.Topics, k.NodeTopics, in.UserID, node.ID, *in.Topics, true); err != nil {
				return err
			}
		}
		if in.Related != nil {
			related, err := a.relatedFor(dbc, in.UserID, node.ID, *in.Related)
			if err != nil {
				return err
			}
			if err := a.deps.Relations.ReplaceForNode(dbc, node.ID, related); err != nil {
				return err
			}
		}

		fresh, err := k.Nodes.GetByID(dbc, in.UserID, node.ID)
		if err != nil {
			return err
		}
		out = fresh
		return nil
	})
	return out, err
}

func (a *nodeAggregate) Delete(ctx context.Context, in domainagg.DeleteNodeInput) error {
	return executeWrite(ctx, a.deps.Base, "node.delete", func(dbc dbctx.Context) error {
		k := a.deps.Kinds
		node, err := k.Nodes.LockByID(dbc, in.UserID, in.NodeID)
		if err != nil {
			return err
		}
		ids := []uuid.UUID{node.ID}
		for _, links := range []repos.NodeLinkRepo{k.NodeTags, k.NodeCollections, k.NodeTopics} {
			if err := links.DeleteByNodes(dbc, ids); err != nil {
				return err
			}
		}
		if err := a.deps.Relations.DeleteByNodes(dbc, ids); err != nil {
			return err
		}
		return k.Nodes.DeleteByIDs(dbc, in.UserID, ids)
	})
}

// sourceFor returns the source a node write points at: an explicit id, or
// the resolved (name, individuals) pair. An empty spec means no source.
func (a *nodeAggregate) sourceFor(dbc dbctx.Context, owner uuid.UUID, spec *domainagg.SourceSpec) (*uuid.UUID, error) {
	if spec == nil {
		return nil, nil
	}
	if spec.SourceID != nil {
		src, err := a.deps.Kinds.Sources.GetByID(dbc, owner, *spec.SourceID)
		if err != nil {
			return nil, err
		}
		if src == nil {
			return nil, domainagg.Newf(domainagg.CodeNotFound, "node.source", "source %s not found", *spec.SourceID)
		}
		return &src.ID, nil
	}
	if strings.TrimSpace(spec.Name) == "" && len(spec.Individuals) == 0 {
		return nil, nil
	}
	res, err := a.resolver.getOrCreate(dbc, domainagg.ResolveSourceInput{
		UserID:      owner,
		Name:        spec.Name,
		Individuals: spec.Individuals,
		URL:         spec.URL,
		Date:        spec.Date,
		Notes:       spec.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &res.Source.ID, nil
}

// originFor get-or-creates the named origin; blank means the default origin.
func (a *nodeAggregate) originFor(dbc dbctx.Context, owner uuid.UUID, name string) (uuid.UUID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = knowledge.DefaultOriginName
	}
	rows, err := ensureByNames[knowledge.Origin](dbc, a.deps.Kinds.Origins, owner, []string{name})
	if err != nil {
		return uuid.Nil, err
	}
	return rows[0].ID, nil
}

func (a *nodeAggregate) relatedFor(dbc dbctx.Context, owner, self uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	for _, id := range ids {
		if id == self {
			return nil, ValidationError("a node cannot be related to itself")
		}
	}
	existing, err := a.deps.Kinds.Nodes.ExistingIDs(dbc, owner, ids)
	if err != nil {
		return nil, err
	}
	if len(existing) != len(ids) {
		found := make(map[uuid.UUID]struct{}, len(existing))
		for _, id := range existing {
			found[id] = struct{}{}
		}
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				return nil, domainagg.Newf(domainagg.CodeNotFound, "node.related", "related node %s not found", id)
			}
		}
	}
	return ids, nil
}

// ensureByNames returns the owner's rows for names, creating the missing ones.
func ensureByNames[T any, P interface {
	*T
	knowledge.Attr
}](dbc dbctx.Context, repo knowledgerepo.AttributeRepo[T], owner uuid.UUID, names []string) ([]*T, error) {
	names = cleanNames(names)
	if len(names) == 0 {
		return []*T{}, nil
	}
	rows, err := repo.GetByNames(dbc, owner, names)
	if err != nil {
		return nil, err
	}
	if len(rows) == len(names) {
		return rows, nil
	}
	have := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		have[P(row).Base().Name] = struct{}{}
	}
	missing := make([]*T, 0, len(names)-len(rows))
	for _, n := range names {
		if _, ok := have[n]; ok {
			continue
		}
		row := new(T)
		base := P(row).Base()
		base.UserID = owner
		base.Name = n
		missing = append(missing, row)
	}
	if _, err := repo.CreateIgnoreDuplicates(dbc, missing); err != nil {
		return nil, err
	}
	return repo.GetByNames(dbc, owner, names)
}

func linkByNames[T any, P interface {
	*T
	knowledge.Attr
}](dbc dbctx.Context, repo knowledgerepo.AttributeRepo[T], links repos.NodeLinkRepo, owner, nodeID uuid.UUID, names []string, replace bool) error {
	rows, err := ensureByNames[T, P](dbc, repo, owner, names)
	if err != nil {
		return err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, P(row).Base().ID)
	}
	if replace {
		return links.Replace(dbc, nodeID, ids)
	}
	return links.Add(dbc, nodeID, ids)
}
