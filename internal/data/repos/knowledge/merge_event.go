package knowledge

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/tnahs/hlts/internal/domain"
	"github.com/tnahs/hlts/internal/platform/dbctx"
	"github.com/tnahs/hlts/internal/platform/logger"
)

type MergeEventRepo interface {
	Create(dbc dbctx.Context, ev *types.MergeEvent) (*types.MergeEvent, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, kind string, limit int) ([]*types.MergeEvent, error)
}

type mergeEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMergeEventRepo(db *gorm.DB, baseLog *logger.Logger) MergeEventRepo {
	return &mergeEventRepo{db: db, log: baseLog.With("repo", "MergeEventRepo")}
}

func (r *mergeEventRepo) Create(dbc dbctx.Context, ev *types.MergeEvent) (*types.MergeEvent, error) {
	if ev == nil {
		return nil, fmt.Errorf("nil merge event")
	}
	if ev.UserID == uuid.Nil {
		return nil, fmt.Errorf("merge event missing user_id")
	}
	if err := dbc.DB(r.db).Create(ev).Error; err != nil {
		return nil, err
	}
	return ev, nil
}

func (r *mergeEventRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, kind string, limit int) ([]*types.MergeEvent, error) {
	out := []*types.MergeEvent{}
	if userID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := dbc.DB(r.db).Where("user_id = ?", userID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if err := q.Order("created_at DESC, id ASC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
