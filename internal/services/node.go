package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/tnahs/hlts/internal/data/aggregates"
	"github.com/tnahs/hlts/internal/data/graph"
	"github.com/tnahs/hlts/internal/data/repos"
	knowledgerepo "github.com/tnahs/hlts/internal/data/repos/knowledge"
	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/domain/knowledge"
	"github.com/tnahs/hlts/internal/platform/dbctx"
	"github.com/tnahs/hlts/internal/platform/logger"
)

const (
	defaultNodeLimit = 100
	maxNodeLimit     = 1000
)

type NodeService interface {
	List(ctx context.Context, owner uuid.UUID, f repos.NodeFilter) ([]*knowledge.Node, error)
	Get(ctx context.Context, owner, id uuid.UUID) (*knowledge.Node, error)
	Create(ctx context.Context, in domainagg.CreateNodeInput) (*knowledge.Node, error)
	Update(ctx context.Context, in domainagg.UpdateNodeInput) (*knowledge.Node, error)
	Delete(ctx context.Context, owner, id uuid.UUID) error
	// Seen bumps count_seen and returns the updated node.
	Seen(ctx context.Context, owner, id uuid.UUID) (*knowledge.Node, error)
}

type nodeService struct {
	log   *logger.Logger
	repos *repos.Set
	agg   domainagg.NodeAggregate
	sync  *identitySync
}

func NewNodeService(log *logger.Logger, set *repos.Set, agg domainagg.NodeAggregate, g *graph.IdentityGraph) NodeService {
	serviceLog := log.With("service", "NodeService")
	return &nodeService{
		log:   serviceLog,
		repos: set,
		agg:   agg,
		sync:  newIdentitySync(g, set, serviceLog),
	}
}

func (s *nodeService) List(ctx context.Context, owner uuid.UUID, f repos.NodeFilter) ([]*knowledge.Node, error) {
	const op = "node.list"
	if f.Limit <= 0 {
		f.Limit = defaultNodeLimit
	}
	if f.Limit > maxNodeLimit {
		f.Limit = maxNodeLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.InTrash == nil {
		notTrashed := false
		f.InTrash = &notTrashed
	}
	dbc := dbctx.Context{Ctx: ctx}
	rows, err := s.repos.Nodes.List(dbc, owner, f)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if err := s.hydrate(dbc, owner, rows); err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return rows, nil
}

func (s *nodeService) Get(ctx context.Context, owner, id uuid.UUID) (*knowledge.Node, error) {
	const op = "node.get"
	dbc := dbctx.Context{Ctx: ctx}
	row, err := s.repos.Nodes.GetByID(dbc, owner, id)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if row == nil {
		return nil, domainagg.Newf(domainagg.CodeNotFound, op, "node %s not found", id)
	}
	if err := s.hydrate(dbc, owner, []*knowledge.Node{row}); err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return row, nil
}

func (s *nodeService) Create(ctx context.Context, in domainagg.CreateNodeInput) (*knowledge.Node, error) {
	node, err := s.agg.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.afterWrite(ctx, in.UserID, node.ID, in.Source != nil)
}

func (s *nodeService) Update(ctx context.Context, in domainagg.UpdateNodeInput) (*knowledge.Node, error) {
	node, err := s.agg.Update(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.afterWrite(ctx, in.UserID, node.ID, in.Source != nil)
}

func (s *nodeService) Delete(ctx context.Context, owner, id uuid.UUID) error {
	return s.agg.Delete(ctx, domainagg.DeleteNodeInput{UserID: owner, NodeID: id})
}

func (s *nodeService) Seen(ctx context.Context, owner, id uuid.UUID) (*knowledge.Node, error) {
	if _, err := s.Get(ctx, owner, id); err != nil {
		return nil, err
	}
	if err := s.repos.Nodes.IncrementSeen(dbctx.Context{Ctx: ctx}, owner, id); err != nil {
		return nil, aggregates.MapError("node.seen", err)
	}
	return s.Get(ctx, owner, id)
}

// afterWrite reloads the node and, when the write touched its source, pushes
// that source to the identity graph.
func (s *nodeService) afterWrite(ctx context.Context, owner, id uuid.UUID, sourceTouched bool) (*knowledge.Node, error) {
	node, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if sourceTouched && node.Source != nil {
		s.sync.individuals(ctx, owner, node.Source.Individuals...)
		s.sync.sources(ctx, owner, node.Source)
	}
	return node, nil
}

func (s *nodeService) hydrate(dbc dbctx.Context, owner uuid.UUID, nodes []*knowledge.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(nodes))
	sourceIDs := []uuid.UUID{}
	originIDs := []uuid.UUID{}
	for _, n := range nodes {
		ids = append(ids, n.ID)
		if n.SourceID != nil {
			sourceIDs = append(sourceIDs, *n.SourceID)
		}
		if n.OriginID != nil {
			originIDs = append(originIDs, *n.OriginID)
		}
	}

	sources, err := s.repos.Sources.GetByIDs(dbc, owner, sourceIDs)
	if err != nil {
		return err
	}
	if err := aggregates.HydrateSources(dbc, s.repos.Individuals, s.repos.SourceIndividuals, owner, sources); err != nil {
		return err
	}
	sourceByID := make(map[uuid.UUID]*knowledge.Source, len(sources))
	for _, src := range sources {
		sourceByID[src.ID] = src
	}

	origins, err := s.repos.Origins.GetByIDs(dbc, owner, originIDs)
	if err != nil {
		return err
	}
	originByID := make(map[uuid.UUID]*knowledge.Origin, len(origins))
	for _, o := range origins {
		originByID[o.ID] = o
	}

	tags, err := attrsByNode[knowledge.Tag](dbc, s.repos.Tags, s.repos.NodeTags, owner, ids)
	if err != nil {
		return err
	}
	collections, err := attrsByNode[knowledge.Collection](dbc, s.repos.Collections, s.repos.NodeCollections, owner, ids)
	if err != nil {
		return err
	}
	topics, err := attrsByNode[knowledge.Topic](dbc, s.repos.Topics, s.repos.NodeTopics, owner, ids)
	if err != nil {
		return err
	}
	related, err := s.repos.NodeRelations.RelatedByNodes(dbc, ids)
	if err != nil {
		return err
	}

	for _, n := range nodes {
		if n.SourceID != nil {
			n.Source = sourceByID[*n.SourceID]
		}
		if n.OriginID != nil {
			n.Origin = originByID[*n.OriginID]
		}
		n.Tags = nonNil(tags[n.ID])
		n.Collections = nonNil(collections[n.ID])
		n.Topics = nonNil(topics[n.ID])
		n.Related = related[n.ID]
		if n.Related == nil {
			n.Related = []uuid.UUID{}
		}
	}
	return nil
}

// attrsByNode loads the attributes linked to each node, ordered by name.
func attrsByNode[T any, P interface {
	*T
	knowledge.Attr
}](dbc dbctx.Context, repo knowledgerepo.AttributeRepo[T], links repos.NodeLinkRepo, owner uuid.UUID, nodeIDs []uuid.UUID) (map[uuid.UUID][]*T, error) {
	edges, err := links.AttrIDsByNodes(dbc, nodeIDs)
	if err != nil {
		return nil, err
	}
	all := []uuid.UUID{}
	for _, set := range edges {
		all = append(all, set...)
	}
	rows, err := repo.GetByIDs(dbc, owner, all)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID][]*T, len(edges))
	for nodeID, set := range edges {
		want := make(map[uuid.UUID]struct{}, len(set))
		for _, id := range set {
			want[id] = struct{}{}
		}
		for _, row := range rows {
			if _, ok := want[P(row).Base().ID]; ok {
				out[nodeID] = append(out[nodeID], row)
			}
		}
	}
	return out, nil
}

func nonNil[T any](in []*T) []*T {
	if in == nil {
		return []*T{}
	}
	return in
}
