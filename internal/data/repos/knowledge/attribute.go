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

// AttributeRepo covers every owner-scoped table keyed by (user_id, name):
// tags, collections, origins, topics and individuals.
type AttributeRepo[T any] interface {
	Create(dbc dbctx.Context, rows []*T) ([]*T, error)
	CreateIgnoreDuplicates(dbc dbctx.Context, rows []*T) (int, error)

	GetByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) ([]*T, error)
	GetByID(dbc dbctx.Context, userID uuid.UUID, id uuid.UUID) (*T, error)
	GetByNames(dbc dbctx.Context, userID uuid.UUID, names []string) ([]*T, error)
	GetByName(dbc dbctx.Context, userID uuid.UUID, name string) (*T, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*T, error)

	LockByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) ([]*T, error)
	LockByNames(dbc dbctx.Context, userID uuid.UUID, names []string) ([]*T, error)

	UpdateFields(dbc dbctx.Context, userID uuid.UUID, id uuid.UUID, updates map[string]interface{}) error
	DeleteByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) error
}

type TagRepo = AttributeRepo[types.Tag]
type CollectionRepo = AttributeRepo[types.Collection]
type OriginRepo = AttributeRepo[types.Origin]
type TopicRepo = AttributeRepo[types.Topic]
type IndividualRepo = AttributeRepo[types.Individual]

func NewTagRepo(db *gorm.DB, log *logger.Logger) TagRepo {
	return newAttributeRepo[types.Tag](db, log, "TagRepo")
}

func NewCollectionRepo(db *gorm.DB, log *logger.Logger) CollectionRepo {
	return newAttributeRepo[types.Collection](db, log, "CollectionRepo")
}

func NewOriginRepo(db *gorm.DB, log *logger.Logger) OriginRepo {
	return newAttributeRepo[types.Origin](db, log, "OriginRepo")
}

func NewTopicRepo(db *gorm.DB, log *logger.Logger) TopicRepo {
	return newAttributeRepo[types.Topic](db, log, "TopicRepo")
}

func NewIndividualRepo(db *gorm.DB, log *logger.Logger) IndividualRepo {
	return newAttributeRepo[types.Individual](db, log, "IndividualRepo")
}

type attributeRepo[T any] struct {
	db  *gorm.DB
	log *logger.Logger
}

func newAttributeRepo[T any](db *gorm.DB, log *logger.Logger, name string) *attributeRepo[T] {
	return &attributeRepo[T]{db: db, log: log.With("repo", name)}
}

func (r *attributeRepo[T]) Create(dbc dbctx.Context, rows []*T) ([]*T, error) {
	if len(rows) == 0 {
		return []*T{}, nil
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *attributeRepo[T]) CreateIgnoreDuplicates(dbc dbctx.Context, rows []*T) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
			DoNothing: true,
		}).
		Create(&rows)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (r *attributeRepo[T]) GetByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) ([]*T, error) {
	out := []*T{}
	if userID == uuid.Nil || len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id = ? AND id IN ?", userID, ids).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attributeRepo[T]) GetByID(dbc dbctx.Context, userID uuid.UUID, id uuid.UUID) (*T, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, userID, []uuid.UUID{id})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *attributeRepo[T]) GetByNames(dbc dbctx.Context, userID uuid.UUID, names []string) ([]*T, error) {
	out := []*T{}
	names = cleanNames(names)
	if userID == uuid.Nil || len(names) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id = ? AND name IN ?", userID, names).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attributeRepo[T]) GetByName(dbc dbctx.Context, userID uuid.UUID, name string) (*T, error) {
	rows, err := r.GetByNames(dbc, userID, []string{name})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *attributeRepo[T]) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*T, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	out := []*T{}
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attributeRepo[T]) LockByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) ([]*T, error) {
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByIDs requires dbc.Tx")
	}
	out := []*T{}
	if userID == uuid.Nil || len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND id IN ?", userID, ids).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attributeRepo[T]) LockByNames(dbc dbctx.Context, userID uuid.UUID, names []string) ([]*T, error) {
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByNames requires dbc.Tx")
	}
	out := []*T{}
	names = cleanNames(names)
	if userID == uuid.Nil || len(names) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND name IN ?", userID, names).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attributeRepo[T]) UpdateFields(dbc dbctx.Context, userID uuid.UUID, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["updated_at"] = time.Now().UTC()
	return dbc.DB(r.db).
		Model(new(T)).
		Where("user_id = ? AND id = ?", userID, id).
		Updates(updates).Error
}

func (r *attributeRepo[T]) DeleteByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) error {
	if userID == uuid.Nil || len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Where("user_id = ? AND id IN ?", userID, ids).
		Delete(new(T)).Error
}

// cleanNames trims, drops blanks and de-duplicates while keeping order.
func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
