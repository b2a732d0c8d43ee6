package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tnahs/hlts/internal/domain/knowledge"
)

var SourceAggregateContract = Contract{
	Name:             "Knowledge.SourceAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns the (owner, name, individual set) identity of sources: resolve, update and duplicate detection.",
}

// SourceAggregate resolves sources by their compound identity.
//
// Write method failures should return *aggregates.Error with codes:
// CodeValidation, CodeInvalidReference, CodeDuplicate, CodeNotFound, CodeRetryable, CodeInternal.
type SourceAggregate interface {
	Aggregate

	// Resolve returns the source matching (name, individuals) for the owner,
	// creating it and any missing individuals on a miss. Extra fields are only
	// applied on create.
	Resolve(ctx context.Context, in ResolveSourceInput) (ResolveSourceResult, error)

	// FindExisting returns the matching source or nil. Names that do not
	// resolve to an individual never match.
	FindExisting(ctx context.Context, in FindSourceInput) (*knowledge.Source, error)

	// ValidateUnique fails with CodeDuplicate when FindExisting matches.
	ValidateUnique(ctx context.Context, in FindSourceInput) error

	// Update applies a partial update. Individuals, when set, replace the
	// full set.
	Update(ctx context.Context, in UpdateSourceInput) (UpdateSourceResult, error)

	// FindDuplicates groups sources sharing the same compound identity.
	FindDuplicates(ctx context.Context, userID uuid.UUID) ([]DuplicateSourceGroup, error)
}

type ResolveSourceInput struct {
	UserID      uuid.UUID
	Name        string
	Individuals []knowledge.IndividualRef

	URL   string
	Date  *time.Time
	Notes string
}

type ResolveSourceResult struct {
	Source             *knowledge.Source
	Created            bool
	CreatedIndividuals []*knowledge.Individual
}

type FindSourceInput struct {
	UserID      uuid.UUID
	Name        string
	Individuals []knowledge.IndividualRef
	ExcludeID   *uuid.UUID
}

type UpdateSourceInput struct {
	UserID   uuid.UUID
	SourceID uuid.UUID

	Name        *string
	Individuals *[]knowledge.IndividualRef

	URL       *string
	Notes     *string
	Date      *time.Time
	ClearDate bool
}

type UpdateSourceResult struct {
	Source             *knowledge.Source
	CreatedIndividuals []*knowledge.Individual
}

// DuplicateSourceGroup lists sources with an identical compound identity,
// oldest first. Keep is the member the others would be merged into.
type DuplicateSourceGroup struct {
	Name          string              `json:"name"`
	IndividualIDs []uuid.UUID         `json:"individual_ids"`
	Keep          *knowledge.Source   `json:"keep"`
	Duplicates    []*knowledge.Source `json:"duplicates"`
}
