package knowledge

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/tnahs/hlts/internal/domain"
	"github.com/tnahs/hlts/internal/platform/dbctx"
	"github.com/tnahs/hlts/internal/platform/logger"
)

type SourceIndividualRepo interface {
	// ReplaceForSource swaps the full individual set of a source. The order
	// of individualIDs becomes the display order.
	ReplaceForSource(dbc dbctx.Context, sourceID uuid.UUID, individualIDs []uuid.UUID) error

	CountBySources(dbc dbctx.Context, sourceIDs []uuid.UUID) (map[uuid.UUID]int, error)
	IndividualIDsBySources(dbc dbctx.Context, sourceIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
	SourceIDsByIndividuals(dbc dbctx.Context, individualIDs []uuid.UUID) ([]uuid.UUID, error)

	DeleteBySources(dbc dbctx.Context, sourceIDs []uuid.UUID) error
}

type sourceIndividualRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSourceIndividualRepo(db *gorm.DB, baseLog *logger.Logger) SourceIndividualRepo {
	return &sourceIndividualRepo{db: db, log: baseLog.With("repo", "SourceIndividualRepo")}
}

func (r *sourceIndividualRepo) ReplaceForSource(dbc dbctx.Context, sourceID uuid.UUID, individualIDs []uuid.UUID) error {
	tx := dbc.DB(r.db)
	if err := tx.Where("source_id = ?", sourceID).Delete(&types.SourceIndividual{}).Error; err != nil {
		return err
	}
	if len(individualIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]*types.SourceIndividual, 0, len(individualIDs))
	seen := make(map[uuid.UUID]struct{}, len(individualIDs))
	for _, id := range individualIDs {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		rows = append(rows, &types.SourceIndividual{
			SourceID:     sourceID,
			IndividualID: id,
			Position:     len(rows),
			CreatedAt:    now,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}

func (r *sourceIndividualRepo) CountBySources(dbc dbctx.Context, sourceIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(sourceIDs))
	if len(sourceIDs) == 0 {
		return out, nil
	}
	for _, id := range sourceIDs {
		out[id] = 0
	}
	var rows []struct {
		SourceID uuid.UUID
		N        int
	}
	if err := dbc.DB(r.db).
		Model(&types.SourceIndividual{}).
		Select("source_id, COUNT(*) AS n").
		Where("source_id IN ?", sourceIDs).
		Group("source_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.SourceID] = row.N
	}
	return out, nil
}

func (r *sourceIndividualRepo) IndividualIDsBySources(dbc dbctx.Context, sourceIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	out := make(map[uuid.UUID][]uuid.UUID, len(sourceIDs))
	if len(sourceIDs) == 0 {
		return out, nil
	}
	var rows []*types.SourceIndividual
	if err := dbc.DB(r.db).
		Where("source_id IN ?", sourceIDs).
		Order("source_id ASC, position ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.SourceID] = append(out[row.SourceID], row.IndividualID)
	}
	return out, nil
}

func (r *sourceIndividualRepo) SourceIDsByIndividuals(dbc dbctx.Context, individualIDs []uuid.UUID) ([]uuid.UUID, error) {
	out := []uuid.UUID{}
	if len(individualIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Model(&types.SourceIndividual{}).
		Distinct("source_id").
		Where("individual_id IN ?", individualIDs).
		Pluck("source_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sourceIndividualRepo) DeleteBySources(dbc dbctx.Context, sourceIDs []uuid.UUID) error {
	if len(sourceIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Where("source_id IN ?", sourceIDs).
		Delete(&types.SourceIndividual{}).Error
}
