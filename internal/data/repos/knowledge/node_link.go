package knowledge

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/tnahs/hlts/internal/domain"
	"github.com/tnahs/hlts/internal/platform/dbctx"
	"github.com/tnahs/hlts/internal/platform/logger"
)

// NodeLinkRepo manages one node <-> attribute join table. Joins are sets:
// inserting an existing pair is a no-op.
type NodeLinkRepo interface {
	Add(dbc dbctx.Context, nodeID uuid.UUID, attrIDs []uuid.UUID) error
	Replace(dbc dbctx.Context, nodeID uuid.UUID, attrIDs []uuid.UUID) error

	AttrIDsByNodes(dbc dbctx.Context, nodeIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
	NodeIDsByAttrs(dbc dbctx.Context, attrIDs []uuid.UUID) ([]uuid.UUID, error)

	// Repoint moves every link pointing at fromIDs onto toID and returns the
	// number of distinct nodes touched.
	Repoint(dbc dbctx.Context, fromIDs []uuid.UUID, toID uuid.UUID) (int64, error)

	DeleteByAttrs(dbc dbctx.Context, attrIDs []uuid.UUID) error
	DeleteByNodes(dbc dbctx.Context, nodeIDs []uuid.UUID) error
}

type NodeTagRepo = NodeLinkRepo
type NodeCollectionRepo = NodeLinkRepo
type NodeTopicRepo = NodeLinkRepo

func NewNodeTagRepo(db *gorm.DB, baseLog *logger.Logger) NodeTagRepo {
	return &nodeLinkRepo[types.NodeTag]{
		db:      db,
		log:     baseLog.With("repo", "NodeTagRepo"),
		attrCol: "tag_id",
		build:   func(n, a uuid.UUID) *types.NodeTag { return &types.NodeTag{NodeID: n, TagID: a} },
	}
}

func NewNodeCollectionRepo(db *gorm.DB, baseLog *logger.Logger) NodeCollectionRepo {
	return &nodeLinkRepo[types.NodeCollection]{
		db:      db,
		log:     baseLog.With("repo", "NodeCollectionRepo"),
		attrCol: "collection_id",
		build: func(n, a uuid.UUID) *types.NodeCollection {
			return &types.NodeCollection{NodeID: n, CollectionID: a}
		},
	}
}

func NewNodeTopicRepo(db *gorm.DB, baseLog *logger.Logger) NodeTopicRepo {
	return &nodeLinkRepo[types.NodeTopic]{
		db:      db,
		log:     baseLog.With("repo", "NodeTopicRepo"),
		attrCol: "topic_id",
		build:   func(n, a uuid.UUID) *types.NodeTopic { return &types.NodeTopic{NodeID: n, TopicID: a} },
	}
}

type nodeLinkRepo[L any] struct {
	db      *gorm.DB
	log     *logger.Logger
	attrCol string
	build   func(nodeID, attrID uuid.UUID) *L
}

func (r *nodeLinkRepo[L]) insert(dbc dbctx.Context, pairs [][2]uuid.UUID) error {
	if len(pairs) == 0 {
		return nil
	}
	rows := make([]*L, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, r.build(p[0], p[1]))
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "node_id"}, {Name: r.attrCol}},
			DoNothing: true,
		}).
		Create(&rows).Error
}

func (r *nodeLinkRepo[L]) Add(dbc dbctx.Context, nodeID uuid.UUID, attrIDs []uuid.UUID) error {
	pairs := make([][2]uuid.UUID, 0, len(attrIDs))
	for _, id := range uniqueIDs(attrIDs) {
		pairs = append(pairs, [2]uuid.UUID{nodeID, id})
	}
	return r.insert(dbc, pairs)
}

func (r *nodeLinkRepo[L]) Replace(dbc dbctx.Context, nodeID uuid.UUID, attrIDs []uuid.UUID) error {
	if err := r.DeleteByNodes(dbc, []uuid.UUID{nodeID}); err != nil {
		return err
	}
	return r.Add(dbc, nodeID, attrIDs)
}

func (r *nodeLinkRepo[L]) AttrIDsByNodes(dbc dbctx.Context, nodeIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	out := make(map[uuid.UUID][]uuid.UUID, len(nodeIDs))
	if len(nodeIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		NodeID uuid.UUID
		AttrID uuid.UUID
	}
	if err := dbc.DB(r.db).
		Model(new(L)).
		Select("node_id, "+r.attrCol+" AS attr_id").
		Where("node_id IN ?", nodeIDs).
		Order("node_id ASC, " + r.attrCol + " ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.NodeID] = append(out[row.NodeID], row.AttrID)
	}
	return out, nil
}

func (r *nodeLinkRepo[L]) NodeIDsByAttrs(dbc dbctx.Context, attrIDs []uuid.UUID) ([]uuid.UUID, error) {
	out := []uuid.UUID{}
	if len(attrIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Model(new(L)).
		Distinct("node_id").
		Where(r.attrCol+" IN ?", attrIDs).
		Pluck("node_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *nodeLinkRepo[L]) Repoint(dbc dbctx.Context, fromIDs []uuid.UUID, toID uuid.UUID) (int64, error) {
	fromIDs = withoutID(uniqueIDs(fromIDs), toID)
	if len(fromIDs) == 0 || toID == uuid.Nil {
		return 0, nil
	}
	nodeIDs, err := r.NodeIDsByAttrs(dbc, fromIDs)
	if err != nil {
		return 0, err
	}
	pairs := make([][2]uuid.UUID, 0, len(nodeIDs))
	for _, n := range nodeIDs {
		pairs = append(pairs, [2]uuid.UUID{n, toID})
	}
	if err := r.insert(dbc, pairs); err != nil {
		return 0, err
	}
	if err := r.DeleteByAttrs(dbc, fromIDs); err != nil {
		return 0, err
	}
	return int64(len(nodeIDs)), nil
}

func (r *nodeLinkRepo[L]) DeleteByAttrs(dbc dbctx.Context, attrIDs []uuid.UUID) error {
	if len(attrIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where(r.attrCol+" IN ?", attrIDs).Delete(new(L)).Error
}

func (r *nodeLinkRepo[L]) DeleteByNodes(dbc dbctx.Context, nodeIDs []uuid.UUID) error {
	if len(nodeIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("node_id IN ?", nodeIDs).Delete(new(L)).Error
}

func uniqueIDs(in []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(in))
	seen := make(map[uuid.UUID]struct{}, len(in))
	for _, id := range in {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func withoutID(in []uuid.UUID, drop uuid.UUID) []uuid.UUID {
	out := in[:0:0]
	for _, id := range in {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
