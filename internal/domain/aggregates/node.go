package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tnahs/hlts/internal/domain/knowledge"
)

var NodeAggregateContract = Contract{
	Name:             "Knowledge.NodeAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Writes a node together with its resolved source, attributes and related edges in one transaction.",
}

type NodeAggregate interface {
	Aggregate

	Create(ctx context.Context, in CreateNodeInput) (*knowledge.Node, error)
	Update(ctx context.Context, in UpdateNodeInput) (*knowledge.Node, error)
	Delete(ctx context.Context, in DeleteNodeInput) error
}

// SourceSpec is the source part of a node write. Either SourceID or the
// (Name, Individuals) pair identifies it.
type SourceSpec struct {
	SourceID    *uuid.UUID
	Name        string
	Individuals []knowledge.IndividualRef
	URL         string
	Date        *time.Time
	Notes       string
}

type CreateNodeInput struct {
	UserID uuid.UUID
	Body   string
	Notes  string

	Source      *SourceSpec
	Origin      string
	Tags        []string
	Collections []string
	Topics      []string
	Related     []uuid.UUID

	IsStarred bool
}

// UpdateNodeInput leaves nil fields untouched. ClearSource drops the source
// reference; Source replaces it.
type UpdateNodeInput struct {
	UserID uuid.UUID
	NodeID uuid.UUID

	Body      *string
	Notes     *string
	IsStarred *bool
	InTrash   *bool

	Source      *SourceSpec
	ClearSource bool
	Origin      *string
	Tags        *[]string
	Collections *[]string
	Topics      *[]string
	Related     *[]uuid.UUID
}

type DeleteNodeInput struct {
	UserID uuid.UUID
	NodeID uuid.UUID
}
