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

// IndividualAkaRepo stores the name-variant edges between individuals. The
// repo writes exactly the rows it is given; symmetric closure is the
// caller's job.
type IndividualAkaRepo interface {
	CreateIgnoreDuplicates(dbc dbctx.Context, rows []*types.IndividualAka) error
	AkaIDsByIndividuals(dbc dbctx.Context, individualIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
	DeleteByIndividuals(dbc dbctx.Context, individualIDs []uuid.UUID) error
	DeletePairs(dbc dbctx.Context, pairs [][2]uuid.UUID) error
}

type individualAkaRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIndividualAkaRepo(db *gorm.DB, baseLog *logger.Logger) IndividualAkaRepo {
	return &individualAkaRepo{db: db, log: baseLog.With("repo", "IndividualAkaRepo")}
}

func (r *individualAkaRepo) CreateIgnoreDuplicates(dbc dbctx.Context, rows []*types.IndividualAka) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row == nil {
			return fmt.Errorf("nil aka row")
		}
		if row.IndividualID == row.AkaID {
			return fmt.Errorf("individual %s cannot be its own aka", row.IndividualID)
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "individual_id"}, {Name: "aka_id"}},
			DoNothing: true,
		}).
		Create(&rows).Error
}

func (r *individualAkaRepo) AkaIDsByIndividuals(dbc dbctx.Context, individualIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	out := map[uuid.UUID][]uuid.UUID{}
	if len(individualIDs) == 0 {
		return out, nil
	}
	var rows []*types.IndividualAka
	if err := dbc.DB(r.db).
		Where("individual_id IN ?", individualIDs).
		Order("individual_id ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.IndividualID] = append(out[row.IndividualID], row.AkaID)
	}
	return out, nil
}

// DeleteByIndividuals removes every edge touching the given individuals, in
// both directions.
func (r *individualAkaRepo) DeleteByIndividuals(dbc dbctx.Context, individualIDs []uuid.UUID) error {
	if len(individualIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Where("individual_id IN ? OR aka_id IN ?", individualIDs, individualIDs).
		Delete(&types.IndividualAka{}).Error
}

func (r *individualAkaRepo) DeletePairs(dbc dbctx.Context, pairs [][2]uuid.UUID) error {
	if len(pairs) == 0 {
		return nil
	}
	tx := dbc.DB(r.db)
	for _, p := range pairs {
		if err := tx.
			Where("individual_id = ? AND aka_id = ?", p[0], p[1]).
			Delete(&types.IndividualAka{}).Error; err != nil {
			return err
		}
	}
	return nil
}
