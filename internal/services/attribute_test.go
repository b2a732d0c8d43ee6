package services

import (
	"testing"

	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/domain/knowledge"
)

func TestAttributeCreateRejectsDuplicateNames(t *testing.T) {
	e := newTestEnv(t)

	tag, err := e.tags.Create(e.ctx, e.owner, AttributeInput{Name: ptr("  reading ")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tag.Name != "reading" {
		t.Fatalf("name should be trimmed: %q", tag.Name)
	}

	_, err = e.tags.Create(e.ctx, e.owner, AttributeInput{Name: ptr("reading")})
	requireCode(t, err, domainagg.CodeDuplicate)

	_, err = e.tags.Create(e.ctx, e.owner, AttributeInput{Name: ptr("   ")})
	requireCode(t, err, domainagg.CodeValidation)
}

func TestAttributeUpdateRenamesAndGuardsCollisions(t *testing.T) {
	e := newTestEnv(t)

	a, err := e.collections.Create(e.ctx, e.owner, AttributeInput{Name: ptr("Stoics"), Color: ptr("#aaa")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := e.collections.Create(e.ctx, e.owner, AttributeInput{Name: ptr("Cynics")}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = e.collections.Update(e.ctx, e.owner, a.ID, AttributeInput{Name: ptr("Cynics")})
	requireCode(t, err, domainagg.CodeDuplicate)

	got, err := e.collections.Update(e.ctx, e.owner, a.ID, AttributeInput{Name: ptr("Stoicism"), Description: ptr("Letters")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Name != "Stoicism" || got.Description != "Letters" || got.Color != "#aaa" {
		t.Fatalf("unexpected collection after update: %+v", got)
	}

	// Renaming to its own name is a no-op, not a duplicate.
	if _, err := e.collections.Update(e.ctx, e.owner, a.ID, AttributeInput{Name: ptr("Stoicism")}); err != nil {
		t.Fatalf("self rename: %v", err)
	}
}

func TestAttributeDeleteKeepsNodes(t *testing.T) {
	e := newTestEnv(t)

	node, err := e.nodes.Create(e.ctx, domainagg.CreateNodeInput{UserID: e.owner, Body: "A passage", Tags: []string{"draft"}})
	if err != nil {
		t.Fatalf("node Create: %v", err)
	}
	if len(node.Tags) != 1 {
		t.Fatalf("node should carry its tag: %+v", node.Tags)
	}

	if err := e.tags.Delete(e.ctx, e.owner, node.Tags[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := e.nodes.Get(e.ctx, e.owner, node.ID)
	if err != nil {
		t.Fatalf("node Get: %v", err)
	}
	if len(got.Tags) != 0 {
		t.Fatalf("tag link should be gone: %+v", got.Tags)
	}
	_, err = e.tags.Get(e.ctx, e.owner, node.Tags[0].ID)
	requireCode(t, err, domainagg.CodeNotFound)
}

func TestDefaultOriginIsProtected(t *testing.T) {
	e := newTestEnv(t)

	if err := e.owners.EnsureDefaults(e.ctx, e.owner); err != nil {
		t.Fatalf("EnsureDefaults: %v", err)
	}
	// A second call hits the cache and must not fail on the existing row.
	if err := e.owners.EnsureDefaults(e.ctx, e.owner); err != nil {
		t.Fatalf("EnsureDefaults again: %v", err)
	}

	origins, err := e.origins.List(e.ctx, e.owner)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(origins) != 1 || origins[0].Name != knowledge.DefaultOriginName {
		t.Fatalf("expected only the default origin: %+v", origins)
	}

	err = e.origins.Delete(e.ctx, e.owner, origins[0].ID)
	requireCode(t, err, domainagg.CodePreconditionFailed)
	_, err = e.origins.Update(e.ctx, e.owner, origins[0].ID, AttributeInput{Name: ptr("web")})
	requireCode(t, err, domainagg.CodePreconditionFailed)
}
