package aggregates

import (
	"testing"

	"github.com/google/uuid"

	"github.com/tnahs/hlts/internal/data/repos"
	repotest "github.com/tnahs/hlts/internal/data/repos/testutil"
	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/domain/knowledge"
)

func TestNodeCreateResolvesSourceAndAttributes(t *testing.T) {
	env := newTestEnv(t)
	existing := repotest.SeedTag(t, env.ctx, env.tx, env.owner, "go")

	node, err := env.nodes.Create(env.ctx, domainagg.CreateNodeInput{
		UserID: env.owner,
		Body:   "Clear is better than clever.",
		Source: &domainagg.SourceSpec{
			Name:        "Go Proverbs",
			Individuals: knowledge.RefsByName("Rob Pike"),
		},
		Tags:        []string{"go", "proverbs", "go"},
		Collections: []string{"favorites"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if node.SourceID == nil {
		t.Fatalf("node should carry a source")
	}
	if node.OriginID == nil {
		t.Fatalf("node should carry the default origin")
	}
	origin, err := env.repos.Origins.GetByName(env.dbc(), env.owner, knowledge.DefaultOriginName)
	if err != nil || origin == nil || origin.ID != *node.OriginID {
		t.Fatalf("default origin: %v %v", origin, err)
	}

	tags, err := env.repos.NodeTags.AttrIDsByNodes(env.dbc(), []uuid.UUID{node.ID})
	if err != nil {
		t.Fatalf("AttrIDsByNodes: %v", err)
	}
	if len(tags[node.ID]) != 2 {
		t.Fatalf("tags: %+v", tags[node.ID])
	}
	found := false
	for _, id := range tags[node.ID] {
		found = found || id == existing.ID
	}
	if !found {
		t.Fatalf("existing tag should be reused")
	}

	again, err := env.nodes.Create(env.ctx, domainagg.CreateNodeInput{
		UserID: env.owner,
		Body:   "A little copying is better than a little dependency.",
		Source: &domainagg.SourceSpec{
			Name:        "Go Proverbs",
			Individuals: knowledge.RefsByName("Rob Pike"),
		},
		Related: []uuid.UUID{node.ID},
	})
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}
	if again.SourceID == nil || *again.SourceID != *node.SourceID {
		t.Fatalf("same source identity should resolve to one source")
	}
	related, err := env.repos.NodeRelations.RelatedByNodes(env.dbc(), []uuid.UUID{node.ID})
	if err != nil {
		t.Fatalf("RelatedByNodes: %v", err)
	}
	if len(related[node.ID]) != 1 || related[node.ID][0] != again.ID {
		t.Fatalf("relation should be symmetric: %+v", related)
	}
}

func TestNodeCreateValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.nodes.Create(env.ctx, domainagg.CreateNodeInput{UserID: env.owner, Body: "  "})
	requireCode(t, err, domainagg.CodeValidation)

	_, err = env.nodes.Create(env.ctx, domainagg.CreateNodeInput{UserID: env.owner, Body: "x", Related: []uuid.UUID{uuid.New()}})
	requireCode(t, err, domainagg.CodeNotFound)

	_, err = env.nodes.Create(env.ctx, domainagg.CreateNodeInput{
		UserID: env.owner,
		Body:   "x",
		Source: &domainagg.SourceSpec{SourceID: repotest.PtrUUID(uuid.New())},
	})
	requireCode(t, err, domainagg.CodeNotFound)

	nodes, err := env.repos.Nodes.List(env.dbc(), env.owner, repos.NodeFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(nodes) != 0 {
		t.Fatalf("failed creates must not write nodes: %d", len(nodes))
	}
}

func TestNodeUpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	node, err := env.nodes.Create(env.ctx, domainagg.CreateNodeInput{
		UserID: env.owner,
		Body:   "draft",
		Tags:   []string{"a", "b"},
		Source: &domainagg.SourceSpec{Name: "Notebook"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	tags := []string{"c"}
	updated, err := env.nodes.Update(env.ctx, domainagg.UpdateNodeInput{
		UserID:      env.owner,
		NodeID:      node.ID,
		Body:        repotest.PtrString("final"),
		IsStarred:   repotest.PtrBool(true),
		ClearSource: true,
		Tags:        &tags,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Body != "final" || !updated.IsStarred || updated.SourceID != nil {
		t.Fatalf("updated node: %+v", updated)
	}
	links, err := env.repos.NodeTags.AttrIDsByNodes(env.dbc(), []uuid.UUID{node.ID})
	if err != nil {
		t.Fatalf("AttrIDsByNodes: %v", err)
	}
	if len(links[node.ID]) != 1 {
		t.Fatalf("tags should be replaced: %+v", links[node.ID])
	}
	if n := env.countSources(t, env.owner); n != 1 {
		t.Fatalf("clearing a node source must keep the source: %d", n)
	}

	_, err = env.nodes.Update(env.ctx, domainagg.UpdateNodeInput{UserID: env.owner, NodeID: node.ID, Body: repotest.PtrString(" ")})
	requireCode(t, err, domainagg.CodeValidation)

	if err := env.nodes.Delete(env.ctx, domainagg.DeleteNodeInput{UserID: env.owner, NodeID: node.ID}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	links, err = env.repos.NodeTags.AttrIDsByNodes(env.dbc(), []uuid.UUID{node.ID})
	if err != nil {
		t.Fatalf("AttrIDsByNodes: %v", err)
	}
	if len(links[node.ID]) != 0 {
		t.Fatalf("links should be removed with the node")
	}
	err = env.nodes.Delete(env.ctx, domainagg.DeleteNodeInput{UserID: env.owner, NodeID: node.ID})
	requireCode(t, err, domainagg.CodeNotFound)
}
