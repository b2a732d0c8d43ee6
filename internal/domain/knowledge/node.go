package knowledge

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Node is a stored passage. Source and Origin are weak references: removing
// either leaves the node in place with the reference cleared.
type Node struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Body  string `gorm:"column:body;type:text;not null" json:"body"`
	Notes string `gorm:"column:notes;type:text;not null;default:''" json:"notes"`

	SourceID *uuid.UUID `gorm:"type:uuid;column:source_id;index" json:"source_id,omitempty"`
	OriginID *uuid.UUID `gorm:"type:uuid;column:origin_id;index" json:"origin_id,omitempty"`

	InTrash    bool `gorm:"column:in_trash;not null;default:false;index" json:"in_trash"`
	IsStarred  bool `gorm:"column:is_starred;not null;default:false" json:"is_starred"`
	CountSeen  int  `gorm:"column:count_seen;not null;default:0" json:"count_seen"`
	CountQuery int  `gorm:"column:count_query;not null;default:0" json:"count_query"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	Source      *Source       `gorm:"-" json:"source,omitempty"`
	Origin      *Origin       `gorm:"-" json:"origin,omitempty"`
	Tags        []*Tag        `gorm:"-" json:"tags"`
	Collections []*Collection `gorm:"-" json:"collections"`
	Topics      []*Topic      `gorm:"-" json:"topics"`
	Related     []uuid.UUID   `gorm:"-" json:"related"`
}

func (Node) TableName() string { return "node" }

func (n *Node) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

type NodeTag struct {
	NodeID uuid.UUID `gorm:"type:uuid;primaryKey" json:"node_id"`
	TagID  uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"tag_id"`
}

func (NodeTag) TableName() string { return "node_tag" }

type NodeCollection struct {
	NodeID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"node_id"`
	CollectionID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"collection_id"`
}

func (NodeCollection) TableName() string { return "node_collection" }

type NodeTopic struct {
	NodeID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"node_id"`
	TopicID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"topic_id"`
}

func (NodeTopic) TableName() string { return "node_topic" }

// NodeRelation is one directed edge of the symmetric "related" relation.
// Nodes never hold each other; the edge set is the only link.
type NodeRelation struct {
	NodeID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"node_id"`
	RelatedID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"related_id"`
}

func (NodeRelation) TableName() string { return "node_relation" }
