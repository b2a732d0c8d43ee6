package knowledge

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Source is identified per owner by its name together with the exact set of
// individuals credited on it. Either part may be blank, not both.
type Source struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_source_user_name,priority:1" json:"user_id"`
	Name   string    `gorm:"column:name;not null;default:'';index:idx_source_user_name,priority:2" json:"name"`

	URL   string     `gorm:"column:url;not null;default:''" json:"url"`
	Date  *time.Time `gorm:"column:date" json:"date,omitempty"`
	Notes string     `gorm:"column:notes;type:text;not null;default:''" json:"notes"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	Individuals []*Individual `gorm:"-" json:"individuals"`
}

func (Source) TableName() string { return "source" }

func (s *Source) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// By lists the credited individuals in insertion order.
func (s *Source) By() string {
	if s == nil {
		return ""
	}
	names := make([]string, 0, len(s.Individuals))
	for _, ind := range s.Individuals {
		if ind != nil {
			names = append(names, ind.Name)
		}
	}
	return strings.Join(names, ", ")
}

// Display renders "name - by", falling back to whichever part is present.
func (s *Source) Display() string {
	if s == nil {
		return ""
	}
	by := s.By()
	switch {
	case by == "":
		return s.Name
	case s.Name == "":
		return by
	default:
		return s.Name + " - " + by
	}
}

// IndividualIDs returns the ids of the loaded individuals.
func (s *Source) IndividualIDs() []uuid.UUID {
	if s == nil {
		return nil
	}
	out := make([]uuid.UUID, 0, len(s.Individuals))
	for _, ind := range s.Individuals {
		if ind != nil {
			out = append(out, ind.ID)
		}
	}
	return out
}

// SourceIndividual links a source to one credited individual. Position keeps
// the display order stable; identity only depends on the set.
type SourceIndividual struct {
	SourceID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"source_id"`
	IndividualID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"individual_id"`
	Position     int       `gorm:"column:position;not null;default:0" json:"position"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (SourceIndividual) TableName() string { return "source_individual" }
