package knowledge

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/tnahs/hlts/internal/domain"
	"github.com/tnahs/hlts/internal/platform/dbctx"
	"github.com/tnahs/hlts/internal/platform/logger"
)

type SourceFilter struct {
	Name         *string
	IndividualID *uuid.UUID
	Limit        int
}

type SourceRepo interface {
	Create(dbc dbctx.Context, rows []*types.Source) ([]*types.Source, error)

	GetByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) ([]*types.Source, error)
	GetByID(dbc dbctx.Context, userID uuid.UUID, id uuid.UUID) (*types.Source, error)
	GetByNames(dbc dbctx.Context, userID uuid.UUID, names []string) ([]*types.Source, error)
	List(dbc dbctx.Context, userID uuid.UUID, f SourceFilter) ([]*types.Source, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Source, error)

	// LockCandidates share-locks every source with the given (owner, name),
	// skipping excludeID when set, ordered oldest first.
	LockCandidates(dbc dbctx.Context, userID uuid.UUID, name string, excludeID *uuid.UUID) ([]*types.Source, error)
	LockByID(dbc dbctx.Context, userID uuid.UUID, id uuid.UUID) (*types.Source, error)
	LockByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) ([]*types.Source, error)
	LockByNames(dbc dbctx.Context, userID uuid.UUID, names []string) ([]*types.Source, error)

	UpdateFields(dbc dbctx.Context, userID uuid.UUID, id uuid.UUID, updates map[string]interface{}) error
	DeleteByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) error
}

type sourceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSourceRepo(db *gorm.DB, baseLog *logger.Logger) SourceRepo {
	return &sourceRepo{db: db, log: baseLog.With("repo", "SourceRepo")}
}

func (r *sourceRepo) Create(dbc dbctx.Context, rows []*types.Source) ([]*types.Source, error) {
	if len(rows) == 0 {
		return []*types.Source{}, nil
	}
	for _, s := range rows {
		if s == nil {
			return nil, fmt.Errorf("nil source")
		}
		s.Name = strings.TrimSpace(s.Name)
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *sourceRepo) GetByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) ([]*types.Source, error) {
	out := []*types.Source{}
	if userID == uuid.Nil || len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id = ? AND id IN ?", userID, ids).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sourceRepo) GetByID(dbc dbctx.Context, userID uuid.UUID, id uuid.UUID) (*types.Source, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, userID, []uuid.UUID{id})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// GetByNames matches names exactly; a blank name is a valid lookup key for
// sources identified only by their individuals.
func (r *sourceRepo) GetByNames(dbc dbctx.Context, userID uuid.UUID, names []string) ([]*types.Source, error) {
	out := []*types.Source{}
	if userID == uuid.Nil || len(names) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id = ? AND name IN ?", userID, trimAll(names)).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sourceRepo) List(dbc dbctx.Context, userID uuid.UUID, f SourceFilter) ([]*types.Source, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	q := dbc.DB(r.db).Model(&types.Source{}).Where("source.user_id = ?", userID)
	if f.Name != nil {
		q = q.Where("source.name = ?", strings.TrimSpace(*f.Name))
	}
	if f.IndividualID != nil && *f.IndividualID != uuid.Nil {
		q = q.Where("EXISTS (SELECT 1 FROM source_individual si WHERE si.source_id = source.id AND si.individual_id = ?)", *f.IndividualID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	out := []*types.Source{}
	if err := q.Order("source.created_at ASC, source.id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sourceRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Source, error) {
	return r.List(dbc, userID, SourceFilter{})
}

func (r *sourceRepo) LockCandidates(dbc dbctx.Context, userID uuid.UUID, name string, excludeID *uuid.UUID) ([]*types.Source, error) {
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockCandidates requires dbc.Tx")
	}
	out := []*types.Source{}
	if userID == uuid.Nil {
		return out, nil
	}
	q := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("user_id = ? AND name = ?", userID, strings.TrimSpace(name))
	if excludeID != nil && *excludeID != uuid.Nil {
		q = q.Where("id <> ?", *excludeID)
	}
	if err := q.Order("created_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sourceRepo) LockByID(dbc dbctx.Context, userID uuid.UUID, id uuid.UUID) (*types.Source, error) {
	rows, err := r.LockByIDs(dbc, userID, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return rows[0], nil
}

func (r *sourceRepo) LockByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) ([]*types.Source, error) {
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByIDs requires dbc.Tx")
	}
	out := []*types.Source{}
	if userID == uuid.Nil || len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND id IN ?", userID, ids).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sourceRepo) LockByNames(dbc dbctx.Context, userID uuid.UUID, names []string) ([]*types.Source, error) {
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByNames requires dbc.Tx")
	}
	out := []*types.Source{}
	if userID == uuid.Nil || len(names) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND name IN ?", userID, trimAll(names)).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sourceRepo) UpdateFields(dbc dbctx.Context, userID uuid.UUID, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if name, ok := updates["name"].(string); ok {
		updates["name"] = strings.TrimSpace(name)
	}
	updates["updated_at"] = time.Now().UTC()
	return dbc.DB(r.db).
		Model(&types.Source{}).
		Where("user_id = ? AND id = ?", userID, id).
		Updates(updates).Error
}

func (r *sourceRepo) DeleteByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) error {
	if userID == uuid.Nil || len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Where("user_id = ? AND id IN ?", userID, ids).
		Delete(&types.Source{}).Error
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
