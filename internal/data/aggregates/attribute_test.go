package aggregates

import (
	"testing"

	"github.com/google/uuid"

	repotest "github.com/tnahs/hlts/internal/data/repos/testutil"
	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
)

func TestAttributeDeleteLeavesNodes(t *testing.T) {
	env := newTestEnv(t)
	tag := repotest.SeedTag(t, env.ctx, env.tx, env.owner, "stale")
	node := repotest.SeedNode(t, env.ctx, env.tx, env.owner, "kept")
	repotest.TagNode(t, env.ctx, env.tx, node.ID, tag.ID)

	if err := env.attributes.Delete(env.ctx, domainagg.DeleteAttributeInput{UserID: env.owner, Kind: "Tags", ID: tag.ID}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := env.repos.Nodes.GetByID(env.dbc(), env.owner, node.ID); got == nil {
		t.Fatalf("node should survive tag deletion")
	}
	links, err := env.repos.NodeTags.AttrIDsByNodes(env.dbc(), []uuid.UUID{node.ID})
	if err != nil {
		t.Fatalf("AttrIDsByNodes: %v", err)
	}
	if len(links[node.ID]) != 0 {
		t.Fatalf("tag link should be dropped: %+v", links[node.ID])
	}
}

func TestAttributeDeleteSourceClearsNodeReference(t *testing.T) {
	env := newTestEnv(t)
	alice := repotest.SeedIndividual(t, env.ctx, env.tx, env.owner, "Alice")
	src := repotest.SeedSource(t, env.ctx, env.tx, env.owner, "Essays", alice)
	node := repotest.SeedNode(t, env.ctx, env.tx, env.owner, "quote")
	if err := env.repos.Nodes.UpdateFields(env.dbc(), env.owner, node.ID, map[string]interface{}{"source_id": src.ID}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	if err := env.attributes.Delete(env.ctx, domainagg.DeleteAttributeInput{UserID: env.owner, Kind: domainagg.KindSources, ID: src.ID}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	fresh, err := env.repos.Nodes.GetByID(env.dbc(), env.owner, node.ID)
	if err != nil || fresh == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fresh.SourceID != nil {
		t.Fatalf("source reference should be cleared")
	}
	if got, _ := env.repos.Individuals.GetByID(env.dbc(), env.owner, alice.ID); got == nil {
		t.Fatalf("individuals outlive their sources")
	}

	err = env.attributes.Delete(env.ctx, domainagg.DeleteAttributeInput{UserID: env.owner, Kind: domainagg.KindSources, ID: src.ID})
	requireCode(t, err, domainagg.CodeNotFound)

	err = env.attributes.Delete(env.ctx, domainagg.DeleteAttributeInput{UserID: env.owner, Kind: "shelves", ID: src.ID})
	requireCode(t, err, domainagg.CodeValidation)
}
