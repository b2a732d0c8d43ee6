package aggregates

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	repotest "github.com/tnahs/hlts/internal/data/repos/testutil"
	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/domain/knowledge"
)

func TestMergeTagsRepointsAndRemoves(t *testing.T) {
	env := newTestEnv(t)
	keep := repotest.SeedTag(t, env.ctx, env.tx, env.owner, "go")
	golang := repotest.SeedTag(t, env.ctx, env.tx, env.owner, "golang")
	gopher := repotest.SeedTag(t, env.ctx, env.tx, env.owner, "gopher")

	both := repotest.SeedNode(t, env.ctx, env.tx, env.owner, "tagged twice")
	repotest.TagNode(t, env.ctx, env.tx, both.ID, keep.ID, golang.ID)
	only := repotest.SeedNode(t, env.ctx, env.tx, env.owner, "tagged once")
	repotest.TagNode(t, env.ctx, env.tx, only.ID, gopher.ID)

	res, err := env.merges.Merge(env.ctx, domainagg.MergeInput{
		UserID:  env.owner,
		Kind:    domainagg.KindTags,
		Into:    "go",
		Merging: []string{"golang", "gopher", "go", "golang"},
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.Destination.ID != keep.ID || len(res.Sources) != 2 {
		t.Fatalf("result: destination=%s sources=%d", res.Destination.ID, len(res.Sources))
	}
	if res.Repointed != 2 {
		t.Fatalf("repointed: want=2 got=%d", res.Repointed)
	}

	remaining, err := env.repos.Tags.ListByUser(env.dbc(), env.owner)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != keep.ID {
		t.Fatalf("only the destination tag should remain: %+v", remaining)
	}
	links, err := env.repos.NodeTags.AttrIDsByNodes(env.dbc(), []uuid.UUID{both.ID, only.ID})
	if err != nil {
		t.Fatalf("AttrIDsByNodes: %v", err)
	}
	for _, id := range []uuid.UUID{both.ID, only.ID} {
		if len(links[id]) != 1 || links[id][0] != keep.ID {
			t.Fatalf("node %s tags: %+v", id, links[id])
		}
	}

	events, err := env.repos.MergeEvents.ListByUser(env.dbc(), env.owner, domainagg.KindTags, 10)
	if err != nil {
		t.Fatalf("ListByUser events: %v", err)
	}
	if len(events) != 1 || events[0].ID != res.EventID || events[0].DestinationName != "go" {
		t.Fatalf("merge event: %+v", events)
	}
	if len(env.hooks.Merges) != 1 || env.hooks.Merges[0].Status != "success" || env.hooks.Merges[0].Merged != 2 {
		t.Fatalf("merge hooks: %+v", env.hooks.Merges)
	}
}

func TestMergeFailsWholeOnAnyMissingName(t *testing.T) {
	env := newTestEnv(t)
	repotest.SeedCollection(t, env.ctx, env.tx, env.owner, "reading")
	repotest.SeedCollection(t, env.ctx, env.tx, env.owner, "books")

	_, err := env.merges.Merge(env.ctx, domainagg.MergeInput{
		UserID:  env.owner,
		Kind:    domainagg.KindCollections,
		Into:    "reading",
		Merging: []string{"books", "missing-a", "missing-b"},
	})
	requireCode(t, err, domainagg.CodeValidation)
	for _, want := range []string{`"missing-a"`, `"missing-b"`} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error should name %s: %v", want, err)
		}
	}

	rows, err := env.repos.Collections.ListByUser(env.dbc(), env.owner)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("a failed merge must not remove anything: %d collections", len(rows))
	}

	_, err = env.merges.Merge(env.ctx, domainagg.MergeInput{
		UserID:  env.owner,
		Kind:    domainagg.KindCollections,
		Into:    "nowhere",
		Merging: []string{"books"},
	})
	requireCode(t, err, domainagg.CodeNotFound)

	_, err = env.merges.Merge(env.ctx, domainagg.MergeInput{
		UserID:  env.owner,
		Kind:    domainagg.KindCollections,
		Into:    "reading",
		Merging: []string{"reading", " "},
	})
	requireCode(t, err, domainagg.CodeValidation)

	_, err = env.merges.Merge(env.ctx, domainagg.MergeInput{UserID: env.owner, Kind: "shelves", Into: "a", Merging: []string{"b"}})
	requireCode(t, err, domainagg.CodeValidation)
}

func TestMergeOriginsRepointsNodes(t *testing.T) {
	env := newTestEnv(t)
	app := repotest.SeedOrigin(t, env.ctx, env.tx, env.owner, knowledge.DefaultOriginName)
	kindle := repotest.SeedOrigin(t, env.ctx, env.tx, env.owner, "kindle")

	node, err := env.nodes.Create(env.ctx, domainagg.CreateNodeInput{UserID: env.owner, Body: "from kindle", Origin: "kindle"})
	if err != nil {
		t.Fatalf("Create node: %v", err)
	}
	if node.OriginID == nil || *node.OriginID != kindle.ID {
		t.Fatalf("node origin: %v", node.OriginID)
	}

	res, err := env.merges.Merge(env.ctx, domainagg.MergeInput{
		UserID:  env.owner,
		Kind:    domainagg.KindOrigins,
		Into:    knowledge.DefaultOriginName,
		Merging: []string{"kindle"},
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.Repointed != 1 {
		t.Fatalf("repointed: want=1 got=%d", res.Repointed)
	}
	fresh, err := env.repos.Nodes.GetByID(env.dbc(), env.owner, node.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fresh.OriginID == nil || *fresh.OriginID != app.ID {
		t.Fatalf("node should point at %s: %v", app.ID, fresh.OriginID)
	}
}

func TestMergeOriginsKeepsDefaultOrigin(t *testing.T) {
	env := newTestEnv(t)
	app := repotest.SeedOrigin(t, env.ctx, env.tx, env.owner, knowledge.DefaultOriginName)
	web := repotest.SeedOrigin(t, env.ctx, env.tx, env.owner, "web")

	_, err := env.merges.Merge(env.ctx, domainagg.MergeInput{
		UserID:  env.owner,
		Kind:    domainagg.KindOrigins,
		Into:    "web",
		Merging: []string{knowledge.DefaultOriginName},
	})
	requireCode(t, err, domainagg.CodePreconditionFailed)

	_, err = env.merges.MergeByIDs(env.ctx, domainagg.MergeByIDsInput{
		UserID:     env.owner,
		Kind:       domainagg.KindOrigins,
		IntoID:     web.ID,
		MergingIDs: []uuid.UUID{app.ID},
	})
	requireCode(t, err, domainagg.CodePreconditionFailed)

	origins, err := env.repos.Origins.ListByUser(env.dbc(), env.owner)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(origins) != 2 {
		t.Fatalf("origins: want=2 got=%d", len(origins))
	}
}

func TestMergeSourcesByNameAndByID(t *testing.T) {
	env := newTestEnv(t)
	alice := repotest.SeedIndividual(t, env.ctx, env.tx, env.owner, "Alice")
	bob := repotest.SeedIndividual(t, env.ctx, env.tx, env.owner, "Bob")

	keep := repotest.SeedSource(t, env.ctx, env.tx, env.owner, "Essays", alice)
	other := repotest.SeedSource(t, env.ctx, env.tx, env.owner, "Collected Essays", alice)
	twinA := repotest.SeedSource(t, env.ctx, env.tx, env.owner, "Letters", alice)
	twinB := repotest.SeedSource(t, env.ctx, env.tx, env.owner, "Letters", bob)

	node := repotest.SeedNode(t, env.ctx, env.tx, env.owner, "quote")
	if err := env.repos.Nodes.UpdateFields(env.dbc(), env.owner, node.ID, map[string]interface{}{"source_id": other.ID}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	res, err := env.merges.Merge(env.ctx, domainagg.MergeInput{
		UserID:  env.owner,
		Kind:    domainagg.KindSources,
		Into:    "Essays",
		Merging: []string{"Collected Essays"},
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.Destination.Display != "Essays - Alice" || res.Repointed != 1 {
		t.Fatalf("result: %+v", res)
	}
	fresh, err := env.repos.Nodes.GetByID(env.dbc(), env.owner, node.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fresh.SourceID == nil || *fresh.SourceID != keep.ID {
		t.Fatalf("node source: %v", fresh.SourceID)
	}
	sets, err := env.repos.SourceIndividuals.IndividualIDsBySources(env.dbc(), []uuid.UUID{other.ID})
	if err != nil {
		t.Fatalf("IndividualIDsBySources: %v", err)
	}
	if len(sets[other.ID]) != 0 {
		t.Fatalf("merged source links should be removed")
	}

	_, err = env.merges.Merge(env.ctx, domainagg.MergeInput{
		UserID:  env.owner,
		Kind:    domainagg.KindSources,
		Into:    "Essays",
		Merging: []string{"Letters"},
	})
	requireCode(t, err, domainagg.CodeValidation)

	res, err = env.merges.MergeByIDs(env.ctx, domainagg.MergeByIDsInput{
		UserID:     env.owner,
		Kind:       domainagg.KindSources,
		IntoID:     twinA.ID,
		MergingIDs: []uuid.UUID{twinB.ID, twinA.ID},
	})
	if err != nil {
		t.Fatalf("MergeByIDs: %v", err)
	}
	if len(res.Sources) != 1 || res.Sources[0].ID != twinB.ID {
		t.Fatalf("merged: %+v", res.Sources)
	}

	_, err = env.merges.MergeByIDs(env.ctx, domainagg.MergeByIDsInput{
		UserID:     env.owner,
		Kind:       domainagg.KindSources,
		IntoID:     twinA.ID,
		MergingIDs: []uuid.UUID{twinB.ID},
	})
	requireCode(t, err, domainagg.CodeValidation)
}

func TestMergeDoesNotCrossOwners(t *testing.T) {
	env := newTestEnv(t)
	other := uuid.New()
	repotest.SeedTag(t, env.ctx, env.tx, env.owner, "go")
	repotest.SeedTag(t, env.ctx, env.tx, other, "golang")

	_, err := env.merges.Merge(env.ctx, domainagg.MergeInput{
		UserID:  env.owner,
		Kind:    domainagg.KindTags,
		Into:    "go",
		Merging: []string{"golang"},
	})
	requireCode(t, err, domainagg.CodeValidation)
	if len(env.hooks.Merges) != 1 || env.hooks.Merges[0].Status != string(domainagg.CodeValidation) {
		t.Fatalf("merge hooks: %+v", env.hooks.Merges)
	}
}
