package knowledge

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Individual is a person credited by sources (author, speaker, editor).
type Individual struct {
	Attribute
	FirstName string `gorm:"column:first_name;not null;default:''" json:"first_name"`
	LastName  string `gorm:"column:last_name;not null;default:''" json:"last_name"`

	Aka []*IndividualSummary `gorm:"-" json:"aka"`
}

func (Individual) TableName() string { return "individual" }

// FullName is "first last" when both parts are known, otherwise the name.
func (i *Individual) FullName() string {
	if i == nil {
		return ""
	}
	first := strings.TrimSpace(i.FirstName)
	last := strings.TrimSpace(i.LastName)
	if first != "" && last != "" {
		return first + " " + last
	}
	return i.Name
}

// MarshalJSON adds the derived full_name.
func (i Individual) MarshalJSON() ([]byte, error) {
	type plain Individual
	return json.Marshal(struct {
		plain
		FullName string `json:"full_name"`
	}{plain(i), i.FullName()})
}

func (i *Individual) Summary() *IndividualSummary {
	if i == nil {
		return nil
	}
	return &IndividualSummary{ID: i.ID, Name: i.Name}
}

type IndividualSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// IndividualAka is one direction of the name-variant relation. Writers always
// store both directions.
type IndividualAka struct {
	IndividualID uuid.UUID `gorm:"type:uuid;primaryKey" json:"individual_id"`
	AkaID        uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"aka_id"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (IndividualAka) TableName() string { return "individual_aka" }
