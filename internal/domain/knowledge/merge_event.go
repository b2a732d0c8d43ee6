package knowledge

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MergeEvent is the audit row written by every merge. Snapshot holds the
// deleted entities as they were before the merge.
type MergeEvent struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Kind            string    `gorm:"column:kind;not null;index" json:"kind"`
	DestinationID   uuid.UUID `gorm:"type:uuid;column:destination_id;not null" json:"destination_id"`
	DestinationName string    `gorm:"column:destination_name;not null;default:''" json:"destination_name"`

	SourceIDs datatypes.JSON `gorm:"column:source_ids" json:"source_ids"`
	Snapshot  datatypes.JSON `gorm:"column:snapshot" json:"snapshot"`
	Repointed int64          `gorm:"column:repointed;not null;default:0" json:"repointed"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (MergeEvent) TableName() string { return "merge_event" }

func (e *MergeEvent) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
