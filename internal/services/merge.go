package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/tnahs/hlts/internal/data/aggregates"
	"github.com/tnahs/hlts/internal/data/graph"
	"github.com/tnahs/hlts/internal/data/repos"
	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/domain/knowledge"
	"github.com/tnahs/hlts/internal/platform/dbctx"
	"github.com/tnahs/hlts/internal/platform/logger"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type MergeService interface {
	Merge(ctx context.Context, in domainagg.MergeInput) (domainagg.MergeResult, error)
	History(ctx context.Context, owner uuid.UUID, kind string, limit int) ([]*knowledge.MergeEvent, error)
}

type mergeService struct {
	log   *logger.Logger
	repos *repos.Set
	agg   domainagg.MergeAggregate
	sync  *identitySync
}

func NewMergeService(log *logger.Logger, set *repos.Set, agg domainagg.MergeAggregate, g *graph.IdentityGraph) MergeService {
	serviceLog := log.With("service", "MergeService")
	return &mergeService{
		log:   serviceLog,
		repos: set,
		agg:   agg,
		sync:  newIdentitySync(g, set, serviceLog),
	}
}

func (s *mergeService) Merge(ctx context.Context, in domainagg.MergeInput) (domainagg.MergeResult, error) {
	in.Kind = strings.ToLower(strings.TrimSpace(in.Kind))
	res, err := s.agg.Merge(ctx, in)
	if err != nil {
		return res, err
	}
	s.log.Info("Merged entities",
		"owner", in.UserID,
		"kind", res.Kind,
		"into", res.Destination.Display,
		"merged", len(res.Sources),
		"repointed", res.Repointed,
	)
	if res.Kind == domainagg.KindSources {
		ids := make([]uuid.UUID, 0, len(res.Sources))
		for _, m := range res.Sources {
			ids = append(ids, m.ID)
		}
		s.sync.remove(ctx, graph.LabelSource, ids...)
	}
	return res, nil
}

func (s *mergeService) History(ctx context.Context, owner uuid.UUID, kind string, limit int) ([]*knowledge.MergeEvent, error) {
	const op = "merge.history"
	kind = strings.ToLower(strings.TrimSpace(kind))
	switch kind {
	case "", domainagg.KindTags, domainagg.KindCollections, domainagg.KindOrigins, domainagg.KindTopics, domainagg.KindSources:
	default:
		return nil, domainagg.Newf(domainagg.CodeValidation, op, "unknown merge kind %q", kind)
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	rows, err := s.repos.MergeEvents.ListByUser(dbctx.Context{Ctx: ctx}, owner, kind, limit)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return rows, nil
}
