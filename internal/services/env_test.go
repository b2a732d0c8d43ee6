package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/tnahs/hlts/internal/data/aggregates"
	"github.com/tnahs/hlts/internal/data/graph"
	"github.com/tnahs/hlts/internal/data/repos"
	repotest "github.com/tnahs/hlts/internal/data/repos/testutil"
	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/domain/knowledge"
)

type testEnv struct {
	ctx   context.Context
	owner uuid.UUID
	repos *repos.Set

	tags        AttributeService[knowledge.Tag]
	origins     AttributeService[knowledge.Origin]
	collections AttributeService[knowledge.Collection]
	individuals IndividualService
	sources     SourceService
	nodes       NodeService
	merges      MergeService
	owners      OwnerService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	log := repotest.Logger(t)
	set := repos.NewSet(tx, log)
	base := aggregates.BaseDeps{DB: tx, Log: log, Runner: aggregates.NewGormTxRunner(tx)}
	kinds := aggregates.KindDepsFromSet(set)
	g := graph.NewIdentityGraph(nil, log)

	sourceAgg := aggregates.NewSourceAggregate(aggregates.SourceAggregateDeps{
		Base:        base,
		Individuals: set.Individuals,
		Sources:     set.Sources,
		Links:       set.SourceIndividuals,
	})
	individualAgg := aggregates.NewIndividualAggregate(aggregates.IndividualAggregateDeps{
		Base:        base,
		Individuals: set.Individuals,
		Akas:        set.IndividualAkas,
		Sources:     set.Sources,
		Links:       set.SourceIndividuals,
	})
	nodeAgg := aggregates.NewNodeAggregate(aggregates.NodeAggregateDeps{Base: base, Kinds: kinds, Relations: set.NodeRelations})
	mergeAgg := aggregates.NewMergeAggregate(aggregates.MergeAggregateDeps{Base: base, Kinds: kinds, Events: set.MergeEvents})
	attrAgg := aggregates.NewAttributeAggregate(aggregates.AttributeAggregateDeps{Base: base, Kinds: kinds})

	return &testEnv{
		ctx:         context.Background(),
		owner:       uuid.New(),
		repos:       set,
		tags:        NewTagService(log, set.Tags, attrAgg),
		origins:     NewOriginService(log, set.Origins, attrAgg),
		collections: NewCollectionService(log, set.Collections, attrAgg),
		individuals: NewIndividualService(log, set, individualAgg, g),
		sources:     NewSourceService(log, set, sourceAgg, mergeAgg, attrAgg, g),
		nodes:       NewNodeService(log, set, nodeAgg, g),
		merges:      NewMergeService(log, set, mergeAgg, g),
		owners:      NewOwnerService(log, set.Origins),
	}
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

func ptr[T any](v T) *T { return &v }
