package knowledge

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attribute is the shared shape of every owner-scoped, name-unique label a
// node can carry. Each concrete kind gets its own table; the composite index
// name is derived per table.
type Attribute struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:,unique,composite:user_name,priority:1" json:"user_id"`
	Name   string    `gorm:"column:name;not null;index:,unique,composite:user_name,priority:2" json:"name"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// Base exposes the embedded attribute to generic code.
func (a *Attribute) Base() *Attribute { return a }

func (a *Attribute) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Attr is implemented by pointers to every simple attribute kind.
type Attr interface {
	Base() *Attribute
	TableName() string
}

type Tag struct {
	Attribute
}

func (Tag) TableName() string { return "tag" }

type Collection struct {
	Attribute
	Color       string `gorm:"column:color;not null;default:''" json:"color"`
	Description string `gorm:"column:description;type:text;not null;default:''" json:"description"`
}

func (Collection) TableName() string { return "collection" }

// Origin records where a node came from. Every owner has an "app" origin.
type Origin struct {
	Attribute
}

func (Origin) TableName() string { return "origin" }

// DefaultOriginName is assigned to nodes created without an explicit origin.
const DefaultOriginName = "app"

// Topic is read-only from the node API; topics are assigned by imports or
// the admin tooling.
type Topic struct {
	Attribute
}

func (Topic) TableName() string { return "topic" }
