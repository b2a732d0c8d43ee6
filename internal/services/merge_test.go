package services

import (
	"testing"

	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
)

func TestMergeNormalizesKindAndRecordsHistory(t *testing.T) {
	e := newTestEnv(t)

	if _, err := e.nodes.Create(e.ctx, domainagg.CreateNodeInput{UserID: e.owner, Body: "One", Tags: []string{"philosophy"}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := e.nodes.Create(e.ctx, domainagg.CreateNodeInput{UserID: e.owner, Body: "Two", Tags: []string{"Philosophy", "phil"}}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := e.merges.Merge(e.ctx, domainagg.MergeInput{
		UserID:  e.owner,
		Kind:    " Tags ",
		Into:    "philosophy",
		Merging: []string{"Philosophy", "phil"},
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.Kind != domainagg.KindTags || len(res.Sources) != 2 {
		t.Fatalf("merge result: %+v", res)
	}

	tags, err := e.tags.List(e.ctx, e.owner)
	if err != nil {
		t.Fatalf("tag List: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "philosophy" {
		t.Fatalf("only the destination tag should remain: %+v", tags)
	}

	history, err := e.merges.History(e.ctx, e.owner, "", 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].ID != res.EventID {
		t.Fatalf("history: %+v", history)
	}
	none, err := e.merges.History(e.ctx, e.owner, domainagg.KindOrigins, 10)
	if err != nil {
		t.Fatalf("History origins: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("kind filter: %+v", none)
	}

	_, err = e.merges.History(e.ctx, e.owner, "people", 10)
	requireCode(t, err, domainagg.CodeValidation)
}
