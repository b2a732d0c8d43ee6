package aggregates

import (
	"context"

	"github.com/google/uuid"
)

var MergeAggregateContract = Contract{
	Name:             "Knowledge.MergeAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Repoints every reference from merged entities onto the destination and deletes them, atomically and serialized per owner.",
}

// Merge kinds accepted by MergeAggregate and AttributeAggregate.
const (
	KindTags        = "tags"
	KindCollections = "collections"
	KindOrigins     = "origins"
	KindTopics      = "topics"
	KindSources     = "sources"
)

// MergeAggregate consolidates duplicate entities of one kind.
//
// Write method failures should return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeRetryable, CodeInternal.
// Every name is checked before anything is written.
type MergeAggregate interface {
	Aggregate

	Merge(ctx context.Context, in MergeInput) (MergeResult, error)
	MergeByIDs(ctx context.Context, in MergeByIDsInput) (MergeResult, error)
}

type MergeInput struct {
	UserID  uuid.UUID
	Kind    string
	Into    string
	Merging []string
}

type MergeByIDsInput struct {
	UserID     uuid.UUID
	Kind       string
	IntoID     uuid.UUID
	MergingIDs []uuid.UUID
}

// MergeEntity is the representation of a merged row as it was before the
// merge.
type MergeEntity struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Display string    `json:"display"`
	Record  any       `json:"record"`
}

type MergeResult struct {
	Kind        string        `json:"kind"`
	Destination MergeEntity   `json:"destination"`
	Sources     []MergeEntity `json:"sources"`
	Repointed   int64         `json:"repointed"`
	EventID     uuid.UUID     `json:"event_id"`
}

var AttributeAggregateContract = Contract{
	Name:             "Knowledge.AttributeAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Deletes a tag, collection, topic, origin or source and detaches every node reference to it.",
}

// AttributeAggregate deletes attribute rows. Node references are weak: join
// rows are dropped and foreign keys are set to NULL, nodes are kept.
type AttributeAggregate interface {
	Aggregate

	Delete(ctx context.Context, in DeleteAttributeInput) error
}

type DeleteAttributeInput struct {
	UserID uuid.UUID
	Kind   string
	ID     uuid.UUID
}
