package aggregates

import (
	"context"

	"github.com/google/uuid"

	"github.com/tnahs/hlts/internal/domain/knowledge"
)

var IndividualAggregateContract = Contract{
	Name:             "Knowledge.IndividualAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns individual rows and the symmetric aka relation between them.",
}

// IndividualAggregate owns individuals and their aka edges. Every aka write
// stores both directions; the relation is not closed transitively.
type IndividualAggregate interface {
	Aggregate

	Create(ctx context.Context, in CreateIndividualInput) (*knowledge.Individual, error)
	Update(ctx context.Context, in UpdateIndividualInput) (*knowledge.Individual, error)

	// Delete refuses with CodePreconditionFailed while any source credits
	// the individual.
	Delete(ctx context.Context, in DeleteIndividualInput) error
}

type CreateIndividualInput struct {
	UserID    uuid.UUID
	Name      string
	FirstName string
	LastName  string
	Aka       []knowledge.IndividualRef
}

type UpdateIndividualInput struct {
	UserID       uuid.UUID
	IndividualID uuid.UUID

	Name      *string
	FirstName *string
	LastName  *string
	Aka       *[]knowledge.IndividualRef
}

type DeleteIndividualInput struct {
	UserID       uuid.UUID
	IndividualID uuid.UUID
}
