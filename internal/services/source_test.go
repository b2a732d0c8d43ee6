package services

import (
	"testing"
	"time"

	"github.com/tnahs/hlts/internal/data/repos"
	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/domain/knowledge"
	"github.com/tnahs/hlts/internal/platform/dbctx"
)

func TestSourceResolveListAndFilter(t *testing.T) {
	e := newTestEnv(t)

	res, err := e.sources.Resolve(e.ctx, domainagg.ResolveSourceInput{
		UserID:      e.owner,
		Name:        "Essays",
		Individuals: knowledge.RefsByName("Montaigne"),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.Created || len(res.CreatedIndividuals) != 1 {
		t.Fatalf("first resolve should create: %+v", res)
	}
	again, err := e.sources.Resolve(e.ctx, domainagg.ResolveSourceInput{
		UserID:      e.owner,
		Name:        "Essays",
		Individuals: knowledge.RefsByName("Montaigne"),
	})
	if err != nil {
		t.Fatalf("Resolve again: %v", err)
	}
	if again.Created || again.Source.ID != res.Source.ID {
		t.Fatalf("second resolve should match: %+v", again)
	}

	if _, err := e.sources.Resolve(e.ctx, domainagg.ResolveSourceInput{UserID: e.owner, Name: "Essays"}); err != nil {
		t.Fatalf("Resolve anonymous: %v", err)
	}

	montaigne := res.CreatedIndividuals[0].ID
	rows, err := e.sources.List(e.ctx, e.owner, repos.SourceFilter{IndividualID: &montaigne})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 1 || rows[0].Display() != "Essays - Montaigne" {
		t.Fatalf("individual filter: %+v", rows)
	}
	all, err := e.sources.List(e.ctx, e.owner, repos.SourceFilter{Name: ptr("Essays")})
	if err != nil {
		t.Fatalf("List by name: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("same name, different individual sets are distinct sources: got=%d", len(all))
	}
}

func TestSourceReconcileMergesDuplicateGroups(t *testing.T) {
	e := newTestEnv(t)
	seed := func(age time.Duration) *knowledge.Source {
		row := &knowledge.Source{UserID: e.owner, Name: "Letters", CreatedAt: time.Now().Add(-age)}
		if _, err := e.repos.Sources.Create(dbctx.Context{Ctx: e.ctx}, []*knowledge.Source{row}); err != nil {
			t.Fatalf("seed source: %v", err)
		}
		return row
	}
	keep := seed(time.Hour)
	dup := seed(time.Minute)

	node, err := e.nodes.Create(e.ctx, domainagg.CreateNodeInput{
		UserID: e.owner,
		Body:   "Quote",
		Source: &domainagg.SourceSpec{SourceID: &dup.ID},
	})
	if err != nil {
		t.Fatalf("node Create: %v", err)
	}

	groups, err := e.sources.Duplicates(e.ctx, e.owner)
	if err != nil {
		t.Fatalf("Duplicates: %v", err)
	}
	if len(groups) != 1 || groups[0].Keep.ID != keep.ID || len(groups[0].Duplicates) != 1 {
		t.Fatalf("duplicate groups: %+v", groups)
	}

	results, err := e.sources.Reconcile(e.ctx, e.owner)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(results) != 1 || results[0].Repointed != 1 {
		t.Fatalf("reconcile results: %+v", results)
	}
	got, err := e.nodes.Get(e.ctx, e.owner, node.ID)
	if err != nil {
		t.Fatalf("node Get: %v", err)
	}
	if got.SourceID == nil || *got.SourceID != keep.ID {
		t.Fatalf("node should point at the kept source: %+v", got.SourceID)
	}
	_, err = e.sources.Get(e.ctx, e.owner, dup.ID)
	requireCode(t, err, domainagg.CodeNotFound)

	groups, err = e.sources.Duplicates(e.ctx, e.owner)
	if err != nil {
		t.Fatalf("Duplicates after reconcile: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("no duplicates should remain: %+v", groups)
	}

	history, err := e.merges.History(e.ctx, e.owner, domainagg.KindSources, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].DestinationID != keep.ID {
		t.Fatalf("history: %+v", history)
	}
}

func TestSourceDeleteNullsNodeReference(t *testing.T) {
	e := newTestEnv(t)

	node, err := e.nodes.Create(e.ctx, domainagg.CreateNodeInput{
		UserID: e.owner,
		Body:   "Quote",
		Source: &domainagg.SourceSpec{Name: "Talk", Individuals: knowledge.RefsByName("Ada")},
	})
	if err != nil {
		t.Fatalf("node Create: %v", err)
	}
	if err := e.sources.Delete(e.ctx, e.owner, *node.SourceID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := e.nodes.Get(e.ctx, e.owner, node.ID)
	if err != nil {
		t.Fatalf("node Get: %v", err)
	}
	if got.SourceID != nil || got.Source != nil {
		t.Fatalf("source reference should be cleared: %+v", got.SourceID)
	}
	inds, err := e.individuals.List(e.ctx, e.owner)
	if err != nil {
		t.Fatalf("individual List: %v", err)
	}
	if len(inds) != 1 || inds[0].Name != "Ada" {
		t.Fatalf("individuals outlive their sources: %+v", inds)
	}
}
