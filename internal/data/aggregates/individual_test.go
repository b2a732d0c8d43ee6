package aggregates

import (
	"testing"

	"github.com/google/uuid"

	repotest "github.com/tnahs/hlts/internal/data/repos/testutil"
	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/domain/knowledge"
)

func TestIndividualAkaIsSymmetric(t *testing.T) {
	env := newTestEnv(t)

	twain, err := env.individuals.Create(env.ctx, domainagg.CreateIndividualInput{
		UserID:    env.owner,
		Name:      "Mark Twain",
		FirstName: "Mark",
		LastName:  "Twain",
		Aka:       knowledge.RefsByName("Samuel Clemens"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(twain.Aka) != 1 || twain.Aka[0].Name != "Samuel Clemens" {
		t.Fatalf("aka: %+v", twain.Aka)
	}

	clemens, err := env.repos.Individuals.GetByName(env.dbc(), env.owner, "Samuel Clemens")
	if err != nil || clemens == nil {
		t.Fatalf("aka individual should be created: %v", err)
	}
	edges, err := env.repos.IndividualAkas.AkaIDsByIndividuals(env.dbc(), []uuid.UUID{clemens.ID})
	if err != nil {
		t.Fatalf("AkaIDsByIndividuals: %v", err)
	}
	if len(edges[clemens.ID]) != 1 || edges[clemens.ID][0] != twain.ID {
		t.Fatalf("reverse edge missing: %+v", edges)
	}

	none := []knowledge.IndividualRef{}
	updated, err := env.individuals.Update(env.ctx, domainagg.UpdateIndividualInput{
		UserID:       env.owner,
		IndividualID: clemens.ID,
		Aka:          &none,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(updated.Aka) != 0 {
		t.Fatalf("aka should be cleared: %+v", updated.Aka)
	}
	edges, err = env.repos.IndividualAkas.AkaIDsByIndividuals(env.dbc(), []uuid.UUID{twain.ID, clemens.ID})
	if err != nil {
		t.Fatalf("AkaIDsByIndividuals: %v", err)
	}
	if len(edges[twain.ID]) != 0 || len(edges[clemens.ID]) != 0 {
		t.Fatalf("both directions should be removed: %+v", edges)
	}
}

func TestIndividualCreateAndRenameRejectDuplicates(t *testing.T) {
	env := newTestEnv(t)
	repotest.SeedIndividual(t, env.ctx, env.tx, env.owner, "Alice")
	bob := repotest.SeedIndividual(t, env.ctx, env.tx, env.owner, "Bob")

	_, err := env.individuals.Create(env.ctx, domainagg.CreateIndividualInput{UserID: env.owner, Name: " Alice "})
	requireCode(t, err, domainagg.CodeDuplicate)

	_, err = env.individuals.Create(env.ctx, domainagg.CreateIndividualInput{UserID: env.owner, Name: "  "})
	requireCode(t, err, domainagg.CodeValidation)

	_, err = env.individuals.Update(env.ctx, domainagg.UpdateIndividualInput{
		UserID:       env.owner,
		IndividualID: bob.ID,
		Name:         repotest.PtrString("Alice"),
	})
	requireCode(t, err, domainagg.CodeDuplicate)

	self := knowledge.RefsByID(bob.ID)
	_, err = env.individuals.Update(env.ctx, domainagg.UpdateIndividualInput{
		UserID:       env.owner,
		IndividualID: bob.ID,
		Aka:          &self,
	})
	requireCode(t, err, domainagg.CodeValidation)

	renamed, err := env.individuals.Update(env.ctx, domainagg.UpdateIndividualInput{
		UserID:       env.owner,
		IndividualID: bob.ID,
		Name:         repotest.PtrString("Robert"),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if renamed.Name != "Robert" {
		t.Fatalf("name: %q", renamed.Name)
	}
}

func TestIndividualDeleteGuardedByCredits(t *testing.T) {
	env := newTestEnv(t)
	alice := repotest.SeedIndividual(t, env.ctx, env.tx, env.owner, "Alice")
	loner := repotest.SeedIndividual(t, env.ctx, env.tx, env.owner, "Loner")
	repotest.SeedSource(t, env.ctx, env.tx, env.owner, "Essays", alice)

	err := env.individuals.Delete(env.ctx, domainagg.DeleteIndividualInput{UserID: env.owner, IndividualID: alice.ID})
	requireCode(t, err, domainagg.CodePreconditionFailed)

	if err := env.individuals.Delete(env.ctx, domainagg.DeleteIndividualInput{UserID: env.owner, IndividualID: loner.ID}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := env.repos.Individuals.GetByID(env.dbc(), env.owner, loner.ID); got != nil {
		t.Fatalf("individual should be gone")
	}

	err = env.individuals.Delete(env.ctx, domainagg.DeleteIndividualInput{UserID: env.owner, IndividualID: loner.ID})
	requireCode(t, err, domainagg.CodeNotFound)
}

func TestAkaClosure(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	rows := AkaClosure(a, []uuid.UUID{b, c, b, a})
	if len(rows) != 4 {
		t.Fatalf("rows: want=4 got=%d", len(rows))
	}
	seen := map[[2]uuid.UUID]bool{}
	for _, r := range rows {
		seen[[2]uuid.UUID{r.IndividualID, r.AkaID}] = true
	}
	for _, pair := range [][2]uuid.UUID{{a, b}, {b, a}, {a, c}, {c, a}} {
		if !seen[pair] {
			t.Fatalf("missing edge %v", pair)
		}
	}
}
