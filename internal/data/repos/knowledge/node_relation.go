package knowledge

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/tnahs/hlts/internal/domain"
	"github.com/tnahs/hlts/internal/platform/dbctx"
	"github.com/tnahs/hlts/internal/platform/logger"
)

// NodeRelationRepo stores the symmetric "related" edge set. Every link is
// written in both directions.
type NodeRelationRepo interface {
	Link(dbc dbctx.Context, nodeID uuid.UUID, relatedIDs []uuid.UUID) error
	ReplaceForNode(dbc dbctx.Context, nodeID uuid.UUID, relatedIDs []uuid.UUID) error
	RelatedByNodes(dbc dbctx.Context, nodeIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
	DeleteByNodes(dbc dbctx.Context, nodeIDs []uuid.UUID) error
}

type nodeRelationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNodeRelationRepo(db *gorm.DB, baseLog *logger.Logger) NodeRelationRepo {
	return &nodeRelationRepo{db: db, log: baseLog.With("repo", "NodeRelationRepo")}
}

func (r *nodeRelationRepo) Link(dbc dbctx.Context, nodeID uuid.UUID, relatedIDs []uuid.UUID) error {
	relatedIDs = withoutID(uniqueIDs(relatedIDs), nodeID)
	if nodeID == uuid.Nil || len(relatedIDs) == 0 {
		return nil
	}
	rows := make([]*types.NodeRelation, 0, 2*len(relatedIDs))
	for _, rel := range relatedIDs {
		rows = append(rows,
			&types.NodeRelation{NodeID: nodeID, RelatedID: rel},
			&types.NodeRelation{NodeID: rel, RelatedID: nodeID},
		)
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "node_id"}, {Name: "related_id"}},
			DoNothing: true,
		}).
		Create(&rows).Error
}

func (r *nodeRelationRepo) ReplaceForNode(dbc dbctx.Context, nodeID uuid.UUID, relatedIDs []uuid.UUID) error {
	if err := r.DeleteByNodes(dbc, []uuid.UUID{nodeID}); err != nil {
		return err
	}
	return r.Link(dbc, nodeID, relatedIDs)
}

func (r *nodeRelationRepo) RelatedByNodes(dbc dbctx.Context, nodeIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	out := make(map[uuid.UUID][]uuid.UUID, len(nodeIDs))
	if len(nodeIDs) == 0 {
		return out, nil
	}
	var rows []*types.NodeRelation
	if err := dbc.DB(r.db).
		Where("node_id IN ?", nodeIDs).
		Order("node_id ASC, related_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.NodeID] = append(out[row.NodeID], row.RelatedID)
	}
	return out, nil
}

// DeleteByNodes drops both directions of every edge touching nodeIDs.
func (r *nodeRelationRepo) DeleteByNodes(dbc dbctx.Context, nodeIDs []uuid.UUID) error {
	if len(nodeIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Where("node_id IN ? OR related_id IN ?", nodeIDs, nodeIDs).
		Delete(&types.NodeRelation{}).Error
}
