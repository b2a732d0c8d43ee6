package aggregates

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tnahs/hlts/internal/data/repos"
	repotest "github.com/tnahs/hlts/internal/data/repos/testutil"
	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/platform/dbctx"
)

// testEnv wires every aggregate onto one rolled-back transaction.
type testEnv struct {
	ctx   context.Context
	tx    *gorm.DB
	owner uuid.UUID
	repos *repos.Set
	hooks *spyHooks

	sources     domainagg.SourceAggregate
	individuals domainagg.IndividualAggregate
	nodes       domainagg.NodeAggregate
	merges      domainagg.MergeAggregate
	attributes  domainagg.AttributeAggregate
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	log := repotest.Logger(t)
	set := repos.NewSet(tx, log)
	hooks := &spyHooks{}
	base := BaseDeps{DB: tx, Log: log, Runner: NewGormTxRunner(tx), Hooks: hooks}
	kinds := KindDepsFromSet(set)

	return &testEnv{
		ctx:   context.Background(),
		tx:    tx,
		owner: uuid.New(),
		repos: set,
		hooks: hooks,
		sources: NewSourceAggregate(SourceAggregateDeps{
			Base:        base,
			Individuals: set.Individuals,
			Sources:     set.Sources,
			Links:       set.SourceIndividuals,
		}),
		individuals: NewIndividualAggregate(IndividualAggregateDeps{
			Base:        base,
			Individuals: set.Individuals,
			Akas:        set.IndividualAkas,
			Sources:     set.Sources,
			Links:       set.SourceIndividuals,
		}),
		nodes:      NewNodeAggregate(NodeAggregateDeps{Base: base, Kinds: kinds, Relations: set.NodeRelations}),
		merges:     NewMergeAggregate(MergeAggregateDeps{Base: base, Kinds: kinds, Events: set.MergeEvents}),
		attributes: NewAttributeAggregate(AttributeAggregateDeps{Base: base, Kinds: kinds}),
	}
}

func (e *testEnv) dbc() dbctx.Context {
	return dbctx.Context{Ctx: e.ctx, Tx: e.tx}
}

func (e *testEnv) countSources(t *testing.T, owner uuid.UUID) int {
	t.Helper()
	rows, err := e.repos.Sources.ListByUser(e.dbc(), owner)
	if err != nil {
		t.Fatalf("list sources: %v", err)
	}
	return len(rows)
}

func requireCode(t *testing.T, err error, code domainagg.ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if !domainagg.IsCode(err, code) {
		t.Fatalf("expected %s error, got %s (%v)", code, domainagg.CodeOf(err), err)
	}
}
