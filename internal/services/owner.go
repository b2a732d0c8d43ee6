package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/tnahs/hlts/internal/data/repos"
	"github.com/tnahs/hlts/internal/domain/knowledge"
	"github.com/tnahs/hlts/internal/platform/dbctx"
	"github.com/tnahs/hlts/internal/platform/logger"
)

// OwnerService provisions the per-owner rows every account starts with.
type OwnerService interface {
	EnsureDefaults(ctx context.Context, owner uuid.UUID) error
}

type ownerService struct {
	log     *logger.Logger
	origins repos.OriginRepo
	ready   sync.Map
}

func NewOwnerService(log *logger.Logger, origins repos.OriginRepo) OwnerService {
	return &ownerService{log: log.With("service", "OwnerService"), origins: origins}
}

// EnsureDefaults creates the "app" origin once per owner and process.
func (s *ownerService) EnsureDefaults(ctx context.Context, owner uuid.UUID) error {
	if owner == uuid.Nil {
		return nil
	}
	if _, ok := s.ready.Load(owner); ok {
		return nil
	}
	row := &knowledge.Origin{Attribute: knowledge.Attribute{UserID: owner, Name: knowledge.DefaultOriginName}}
	n, err := s.origins.CreateIgnoreDuplicates(dbctx.Context{Ctx: ctx}, []*knowledge.Origin{row})
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Debug("Created default origin", "owner", owner)
	}
	s.ready.Store(owner, struct{}{})
	return nil
}
