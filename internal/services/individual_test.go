package services

import (
	"testing"

	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/domain/knowledge"
)

func TestIndividualListHydratesAka(t *testing.T) {
	e := newTestEnv(t)

	twain, err := e.individuals.Create(e.ctx, domainagg.CreateIndividualInput{UserID: e.owner, Name: "Mark Twain"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	clemens, err := e.individuals.Create(e.ctx, domainagg.CreateIndividualInput{
		UserID:    e.owner,
		Name:      "Samuel Clemens",
		FirstName: "Samuel",
		LastName:  "Clemens",
		Aka:       []knowledge.IndividualRef{knowledge.RefByID(twain.ID)},
	})
	if err != nil {
		t.Fatalf("Create with aka: %v", err)
	}

	got, err := e.individuals.Get(e.ctx, e.owner, twain.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Aka) != 1 || got.Aka[0].ID != clemens.ID {
		t.Fatalf("aka should be visible from both ends: %+v", got.Aka)
	}

	all, err := e.individuals.List(e.ctx, e.owner)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List: want=2 got=%d", len(all))
	}
	for _, ind := range all {
		if len(ind.Aka) != 1 {
			t.Fatalf("%s should have one aka: %+v", ind.Name, ind.Aka)
		}
	}
}

func TestIndividualDeleteGuardedBySources(t *testing.T) {
	e := newTestEnv(t)

	res, err := e.sources.Resolve(e.ctx, domainagg.ResolveSourceInput{
		UserID:      e.owner,
		Name:        "Notebooks",
		Individuals: knowledge.RefsByName("Leonardo"),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	leonardo := res.CreatedIndividuals[0]

	err = e.individuals.Delete(e.ctx, e.owner, leonardo.ID)
	requireCode(t, err, domainagg.CodePreconditionFailed)

	if err := e.sources.Delete(e.ctx, e.owner, res.Source.ID); err != nil {
		t.Fatalf("source Delete: %v", err)
	}
	if err := e.individuals.Delete(e.ctx, e.owner, leonardo.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = e.individuals.Get(e.ctx, e.owner, leonardo.ID)
	requireCode(t, err, domainagg.CodeNotFound)
}
