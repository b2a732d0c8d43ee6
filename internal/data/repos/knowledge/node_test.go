package knowledge

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/tnahs/hlts/internal/data/repos/testutil"
	"github.com/tnahs/hlts/internal/platform/dbctx"
)

func TestNodeTagRepoRepoint(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	links := NewNodeTagRepo(db, testutil.Logger(t))
	owner := uuid.New()

	a := testutil.SeedTag(t, ctx, tx, owner, "a")
	b := testutil.SeedTag(t, ctx, tx, owner, "b")
	c := testutil.SeedTag(t, ctx, tx, owner, "c")

	n1 := testutil.SeedNode(t, ctx, tx, owner, "one")
	n2 := testutil.SeedNode(t, ctx, tx, owner, "two")
	n3 := testutil.SeedNode(t, ctx, tx, owner, "three")

	testutil.TagNode(t, ctx, tx, n1.ID, a.ID, b.ID)
	testutil.TagNode(t, ctx, tx, n2.ID, b.ID, c.ID)
	testutil.TagNode(t, ctx, tx, n3.ID, c.ID)

	n, err := links.Repoint(dbc, []uuid.UUID{b.ID, c.ID, a.ID}, a.ID)
	if err != nil || n != 3 {
		t.Fatalf("Repoint: err=%v n=%d", err, n)
	}
	byNode, err := links.AttrIDsByNodes(dbc, []uuid.UUID{n1.ID, n2.ID, n3.ID})
	if err != nil {
		t.Fatalf("AttrIDsByNodes: %v", err)
	}
	for _, node := range []uuid.UUID{n1.ID, n2.ID, n3.ID} {
		if got := byNode[node]; len(got) != 1 || got[0] != a.ID {
			t.Fatalf("node %s tags: want=[%s] got=%v", node, a.ID, got)
		}
	}
	if ids, err := links.NodeIDsByAttrs(dbc, []uuid.UUID{b.ID, c.ID}); err != nil || len(ids) != 0 {
		t.Fatalf("NodeIDsByAttrs after repoint: err=%v ids=%v", err, ids)
	}

	if err := links.Replace(dbc, n1.ID, []uuid.UUID{b.ID, c.ID}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if byNode, err := links.AttrIDsByNodes(dbc, []uuid.UUID{n1.ID}); err != nil || len(byNode[n1.ID]) != 2 {
		t.Fatalf("AttrIDsByNodes after replace: err=%v got=%v", err, byNode)
	}
}

func TestNodeRepoWeakReferences(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	nodes := NewNodeRepo(db, testutil.Logger(t))
	owner := uuid.New()

	s1 := testutil.SeedSource(t, ctx, tx, owner, "one")
	s2 := testutil.SeedSource(t, ctx, tx, owner, "two")
	n1 := testutil.SeedNode(t, ctx, tx, owner, "a")
	n2 := testutil.SeedNode(t, ctx, tx, owner, "b")

	if err := nodes.UpdateFields(dbc, owner, n1.ID, map[string]interface{}{"source_id": s1.ID}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if err := nodes.UpdateFields(dbc, owner, n2.ID, map[string]interface{}{"source_id": s2.ID, "is_starred": true}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	if n, err := nodes.RepointSource(dbc, owner, []uuid.UUID{s2.ID}, s1.ID); err != nil || n != 1 {
		t.Fatalf("RepointSource: err=%v n=%d", err, n)
	}
	if n, err := nodes.CountBySources(dbc, owner, []uuid.UUID{s1.ID}); err != nil || n != 2 {
		t.Fatalf("CountBySources: err=%v n=%d", err, n)
	}
	starred, err := nodes.List(dbc, owner, NodeFilter{SourceID: &s1.ID, IsStarred: testutil.PtrBool(true)})
	if err != nil || len(starred) != 1 || starred[0].ID != n2.ID {
		t.Fatalf("List starred: err=%v rows=%v", err, starred)
	}

	if err := nodes.ClearSource(dbc, owner, []uuid.UUID{s1.ID}); err != nil {
		t.Fatalf("ClearSource: %v", err)
	}
	got, err := nodes.GetByID(dbc, owner, n1.ID)
	if err != nil || got == nil || got.SourceID != nil {
		t.Fatalf("GetByID after clear: err=%v got=%+v", err, got)
	}

	if err := nodes.IncrementSeen(dbc, owner, n1.ID); err != nil {
		t.Fatalf("IncrementSeen: %v", err)
	}
	if err := nodes.IncrementSeen(dbc, uuid.New(), n1.ID); err == nil {
		t.Fatalf("IncrementSeen other owner: expected error")
	}
	got, _ = nodes.GetByID(dbc, owner, n1.ID)
	if got.CountSeen != 1 {
		t.Fatalf("CountSeen: want=1 got=%d", got.CountSeen)
	}
}

func TestNodeRelationRepoIsSymmetric(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	rel := NewNodeRelationRepo(db, testutil.Logger(t))
	owner := uuid.New()
	a := testutil.SeedNode(t, ctx, tx, owner, "a")
	b := testutil.SeedNode(t, ctx, tx, owner, "b")
	c := testutil.SeedNode(t, ctx, tx, owner, "c")

	if err := rel.Link(dbc, a.ID, []uuid.UUID{b.ID, c.ID, a.ID}); err != nil {
		t.Fatalf("Link: %v", err)
	}
	got, err := rel.RelatedByNodes(dbc, []uuid.UUID{a.ID, b.ID, c.ID})
	if err != nil || len(got[a.ID]) != 2 || len(got[b.ID]) != 1 || len(got[c.ID]) != 1 {
		t.Fatalf("RelatedByNodes: err=%v got=%v", err, got)
	}

	if err := rel.ReplaceForNode(dbc, a.ID, []uuid.UUID{b.ID}); err != nil {
		t.Fatalf("ReplaceForNode: %v", err)
	}
	got, err = rel.RelatedByNodes(dbc, []uuid.UUID{a.ID, c.ID})
	if err != nil || len(got[a.ID]) != 1 || len(got[c.ID]) != 0 {
		t.Fatalf("RelatedByNodes after replace: err=%v got=%v", err, got)
	}
}
