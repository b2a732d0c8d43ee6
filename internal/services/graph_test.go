package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/tnahs/hlts/internal/data/graph"
	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/platform/logger"
)

func TestGraphRebuildRequiresConfiguredGraph(t *testing.T) {
	e := newTestEnv(t)
	svc := NewGraphService(logger.NewNop(), e.repos, graph.NewIdentityGraph(nil, nil))
	if svc.Enabled() {
		t.Fatalf("graph without a client should be disabled")
	}
	_, err := svc.Rebuild(e.ctx, e.owner)
	requireCode(t, err, domainagg.CodePreconditionFailed)

	_, err = svc.Rebuild(e.ctx, uuid.Nil)
	requireCode(t, err, domainagg.CodeValidation)
}
