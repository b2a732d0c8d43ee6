package aggregates

import (
	"github.com/google/uuid"

	"github.com/tnahs/hlts/internal/data/repos"
	"github.com/tnahs/hlts/internal/domain/knowledge"
	"github.com/tnahs/hlts/internal/platform/dbctx"
)

// HydrateSources loads the credited individuals of each source in display
// order. Read paths outside the aggregates use it so every source leaves the
// process shaped the same way.
func HydrateSources(dbc dbctx.Context, individuals repos.IndividualRepo, links repos.SourceIndividualRepo, owner uuid.UUID, sources []*knowledge.Source) error {
	r := &sourceResolver{individuals: individuals, links: links}
	return r.hydrate(dbc, owner, sources)
}

// HydrateAka fills Individual.Aka from the stored aka edges.
func HydrateAka(dbc dbctx.Context, individuals repos.IndividualRepo, akas repos.IndividualAkaRepo, owner uuid.UUID, inds []*knowledge.Individual) error {
	return hydrateAka(dbc, individuals, akas, owner, inds)
}
