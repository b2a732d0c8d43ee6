package aggregates_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tnahs/hlts/internal/data/aggregates"
	aggtest "github.com/tnahs/hlts/internal/data/aggregates/testutil"
	"github.com/tnahs/hlts/internal/data/repos"
	repotest "github.com/tnahs/hlts/internal/data/repos/testutil"
	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
)

func newMergeAggregate(t *testing.T, runner aggregates.TxRunner, hooks aggregates.Hooks) (domainagg.MergeAggregate, *gorm.DB) {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)
	set := repos.NewSet(db, log)
	if runner == nil {
		runner = aggregates.NewGormTxRunner(db)
	}
	base := aggregates.BaseDeps{DB: db, Log: log, Runner: runner, Hooks: hooks}
	return aggregates.NewMergeAggregate(aggregates.MergeAggregateDeps{
		Base:   base,
		Kinds:  aggregates.KindDepsFromSet(set),
		Events: set.MergeEvents,
	}), db
}

func TestMergeReportsToHooks(t *testing.T) {
	rec := &aggtest.HooksRecorder{}
	merges, db := newMergeAggregate(t, nil, rec)
	ctx := context.Background()
	owner := uuid.New()
	repotest.SeedTag(t, ctx, db, owner, "go")
	repotest.SeedTag(t, ctx, db, owner, "golang")

	if _, err := merges.Merge(ctx, domainagg.MergeInput{UserID: owner, Kind: domainagg.KindTags, Into: "go", Merging: []string{"golang"}}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(rec.Merges) != 1 {
		t.Fatalf("merge hooks: want=1 got=%d", len(rec.Merges))
	}
	got := rec.Merges[0]
	if got.Kind != domainagg.KindTags || got.Status != "success" || got.Merged != 1 {
		t.Fatalf("unexpected merge hook: %+v", got)
	}
	if st := rec.Statuses()["merge.tags"]; len(st) != 1 || st[0] != "success" {
		t.Fatalf("operation statuses: %+v", rec.Statuses())
	}
}

func TestMergeReportsFailedTransaction(t *testing.T) {
	rec := &aggtest.HooksRecorder{}
	runner := &aggtest.InjectedTxRunner{
		FailBegin: domainagg.NewError(domainagg.CodeRetryable, "tx.begin", "database busy", nil),
	}
	merges, _ := newMergeAggregate(t, runner, rec)

	_, err := merges.Merge(context.Background(), domainagg.MergeInput{UserID: uuid.New(), Kind: domainagg.KindTags, Into: "go", Merging: []string{"golang"}})
	if !domainagg.IsCode(err, domainagg.CodeRetryable) {
		t.Fatalf("want retryable, got %v", err)
	}
	if runner.BeginCalls != 1 || runner.CommitCalls != 0 {
		t.Fatalf("runner counters begin=%d commit=%d", runner.BeginCalls, runner.CommitCalls)
	}
	if len(rec.Merges) != 1 || rec.Merges[0].Status != string(domainagg.CodeRetryable) {
		t.Fatalf("merge hooks: %+v", rec.Merges)
	}
}
