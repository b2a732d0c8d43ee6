package knowledge

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/tnahs/hlts/internal/domain"
	"github.com/tnahs/hlts/internal/platform/dbctx"
	"github.com/tnahs/hlts/internal/platform/logger"
)

type NodeFilter struct {
	TagID        *uuid.UUID
	CollectionID *uuid.UUID
	TopicID      *uuid.UUID
	SourceID     *uuid.UUID
	OriginID     *uuid.UUID
	IsStarred    *bool
	InTrash      *bool
	Limit        int
	Offset       int
}

type NodeRepo interface {
	Create(dbc dbctx.Context, rows []*types.Node) ([]*types.Node, error)

	GetByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) ([]*types.Node, error)
	GetByID(dbc dbctx.Context, userID uuid.UUID, id uuid.UUID) (*types.Node, error)
	List(dbc dbctx.Context, userID uuid.UUID, f NodeFilter) ([]*types.Node, error)
	ExistingIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error)
	CountBySources(dbc dbctx.Context, userID uuid.UUID, sourceIDs []uuid.UUID) (int64, error)

	LockByID(dbc dbctx.Context, userID uuid.UUID, id uuid.UUID) (*types.Node, error)
	UpdateFields(dbc dbctx.Context, userID uuid.UUID, id uuid.UUID, updates map[string]interface{}) error
	IncrementSeen(dbc dbctx.Context, userID uuid.UUID, id uuid.UUID) error

	RepointSource(dbc dbctx.Context, userID uuid.UUID, fromIDs []uuid.UUID, toID uuid.UUID) (int64, error)
	RepointOrigin(dbc dbctx.Context, userID uuid.UUID, fromIDs []uuid.UUID, toID uuid.UUID) (int64, error)
	ClearSource(dbc dbctx.Context, userID uuid.UUID, sourceIDs []uuid.UUID) error
	ClearOrigin(dbc dbctx.Context, userID uuid.UUID, originIDs []uuid.UUID) error

	DeleteByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) error
}

type nodeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNodeRepo(db *gorm.DB, baseLog *logger.Logger) NodeRepo {
	return &nodeRepo{db: db, log: baseLog.With("repo", "NodeRepo")}
}

func (r *nodeRepo) Create(dbc dbctx.Context, rows []*types.Node) ([]*types.Node, error) {
	if len(rows) == 0 {
		return []*types.Node{}, nil
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *nodeRepo) GetByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) ([]*types.Node, error) {
	out := []*types.Node{}
	if userID == uuid.Nil || len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id = ? AND id IN ?", userID, ids).
		Order("created_at DESC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *nodeRepo) GetByID(dbc dbctx.Context, userID uuid.UUID, id uuid.UUID) (*types.Node, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, userID, []uuid.UUID{id})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *nodeRepo) List(dbc dbctx.Context, userID uuid.UUID, f NodeFilter) ([]*types.Node, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	q := dbc.DB(r.db).Model(&types.Node{}).Where("node.user_id = ?", userID)
	if f.TagID != nil {
		q = q.Where("EXISTS (SELECT 1 FROM node_tag nt WHERE nt.node_id = node.id AND nt.tag_id = ?)", *f.TagID)
	}
	if f.CollectionID != nil {
		q = q.Where("EXISTS (SELECT 1 FROM node_collection nc WHERE nc.node_id = node.id AND nc.collection_id = ?)", *f.CollectionID)
	}
	if f.TopicID != nil {
		q = q.Where("EXISTS (SELECT 1 FROM node_topic np WHERE np.node_id = node.id AND np.topic_id = ?)", *f.TopicID)
	}
	if f.SourceID != nil {
		q = q.Where("node.source_id = ?", *f.SourceID)
	}
	if f.OriginID != nil {
		q = q.Where("node.origin_id = ?", *f.OriginID)
	}
	if f.IsStarred != nil {
		q = q.Where("node.is_starred = ?", *f.IsStarred)
	}
	inTrash := false
	if f.InTrash != nil {
		inTrash = *f.InTrash
	}
	q = q.Where("node.in_trash = ?", inTrash)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	out := []*types.Node{}
	if err := q.Order("node.created_at DESC, node.id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *nodeRepo) ExistingIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	out := []uuid.UUID{}
	ids = uniqueIDs(ids)
	if userID == uuid.Nil || len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Model(&types.Node{}).
		Where("user_id = ? AND id IN ?", userID, ids).
		Pluck("id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *nodeRepo) CountBySources(dbc dbctx.Context, userID uuid.UUID, sourceIDs []uuid.UUID) (int64, error) {
	if userID == uuid.Nil || len(sourceIDs) == 0 {
		return 0, nil
	}
	var n int64
	err := dbc.DB(r.db).
		Model(&types.Node{}).
		Where("user_id = ? AND source_id IN ?", userID, sourceIDs).
		Count(&n).Error
	return n, err
}

func (r *nodeRepo) LockByID(dbc dbctx.Context, userID uuid.UUID, id uuid.UUID) (*types.Node, error) {
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var n types.Node
	if err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND id = ?", userID, id).
		First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *nodeRepo) UpdateFields(dbc dbctx.Context, userID uuid.UUID, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["updated_at"] = time.Now().UTC()
	return dbc.DB(r.db).
		Model(&types.Node{}).
		Where("user_id = ? AND id = ?", userID, id).
		Updates(updates).Error
}

func (r *nodeRepo) IncrementSeen(dbc dbctx.Context, userID uuid.UUID, id uuid.UUID) error {
	res := dbc.DB(r.db).
		Model(&types.Node{}).
		Where("user_id = ? AND id = ?", userID, id).
		UpdateColumn("count_seen", gorm.Expr("count_seen + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *nodeRepo) repoint(dbc dbctx.Context, userID uuid.UUID, col string, fromIDs []uuid.UUID, toID uuid.UUID) (int64, error) {
	fromIDs = withoutID(uniqueIDs(fromIDs), toID)
	if userID == uuid.Nil || len(fromIDs) == 0 || toID == uuid.Nil {
		return 0, nil
	}
	res := dbc.DB(r.db).
		Model(&types.Node{}).
		Where("user_id = ? AND "+col+" IN ?", userID, fromIDs).
		Updates(map[string]interface{}{col: toID, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

func (r *nodeRepo) RepointSource(dbc dbctx.Context, userID uuid.UUID, fromIDs []uuid.UUID, toID uuid.UUID) (int64, error) {
	return r.repoint(dbc, userID, "source_id", fromIDs, toID)
}

func (r *nodeRepo) RepointOrigin(dbc dbctx.Context, userID uuid.UUID, fromIDs []uuid.UUID, toID uuid.UUID) (int64, error) {
	return r.repoint(dbc, userID, "origin_id", fromIDs, toID)
}

func (r *nodeRepo) clear(dbc dbctx.Context, userID uuid.UUID, col string, ids []uuid.UUID) error {
	if userID == uuid.Nil || len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Model(&types.Node{}).
		Where("user_id = ? AND "+col+" IN ?", userID, ids).
		Updates(map[string]interface{}{col: nil, "updated_at": time.Now().UTC()}).Error
}

func (r *nodeRepo) ClearSource(dbc dbctx.Context, userID uuid.UUID, sourceIDs []uuid.UUID) error {
	return r.clear(dbc, userID, "source_id", sourceIDs)
}

func (r *nodeRepo) ClearOrigin(dbc dbctx.Context, userID uuid.UUID, originIDs []uuid.UUID) error {
	return r.clear(dbc, userID, "origin_id", originIDs)
}

func (r *nodeRepo) DeleteByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) error {
	if userID == uuid.Nil || len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Where("user_id = ? AND id IN ?", userID, ids).
		Delete(&types.Node{}).Error
}
