package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/tnahs/hlts/internal/data/aggregates"
	"github.com/tnahs/hlts/internal/data/repos"
	knowledgerepo "github.com/tnahs/hlts/internal/data/repos/knowledge"
	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/domain/knowledge"
	"github.com/tnahs/hlts/internal/platform/dbctx"
	"github.com/tnahs/hlts/internal/platform/logger"
)

// AttributeInput is the writable part of a tag, collection, origin or topic.
// Color and Description only apply to collections.
type AttributeInput struct {
	Name        *string `json:"name"`
	Color       *string `json:"color"`
	Description *string `json:"description"`
}

// AttributeService is the CRUD surface shared by every simple attribute
// kind. Deletes detach nodes instead of removing them.
type AttributeService[T any] interface {
	Kind() string
	List(ctx context.Context, owner uuid.UUID) ([]*T, error)
	Get(ctx context.Context, owner, id uuid.UUID) (*T, error)
	Create(ctx context.Context, owner uuid.UUID, in AttributeInput) (*T, error)
	Update(ctx context.Context, owner, id uuid.UUID, in AttributeInput) (*T, error)
	Delete(ctx context.Context, owner, id uuid.UUID) error
}

type attributeService[T any, P interface {
	*T
	knowledge.Attr
}] struct {
	log     *logger.Logger
	repo    knowledgerepo.AttributeRepo[T]
	deleter domainagg.AttributeAggregate
	kind    string
	label   string
	// protected names can be neither renamed nor deleted.
	protected string
}

func NewTagService(log *logger.Logger, repo repos.TagRepo, deleter domainagg.AttributeAggregate) AttributeService[knowledge.Tag] {
	return newAttributeService[knowledge.Tag](log, "TagService", domainagg.KindTags, "tag", repo, deleter)
}

func NewCollectionService(log *logger.Logger, repo repos.CollectionRepo, deleter domainagg.AttributeAggregate) AttributeService[knowledge.Collection] {
	return newAttributeService[knowledge.Collection](log, "CollectionService", domainagg.KindCollections, "collection", repo, deleter)
}

func NewOriginService(log *logger.Logger, repo repos.OriginRepo, deleter domainagg.AttributeAggregate) AttributeService[knowledge.Origin] {
	s := newAttributeService[knowledge.Origin](log, "OriginService", domainagg.KindOrigins, "origin", repo, deleter)
	s.protected = knowledge.DefaultOriginName
	return s
}

func NewTopicService(log *logger.Logger, repo repos.TopicRepo, deleter domainagg.AttributeAggregate) AttributeService[knowledge.Topic] {
	return newAttributeService[knowledge.Topic](log, "TopicService", domainagg.KindTopics, "topic", repo, deleter)
}

func newAttributeService[T any, P interface {
	*T
	knowledge.Attr
}](log *logger.Logger, name, kind, label string, repo knowledgerepo.AttributeRepo[T], deleter domainagg.AttributeAggregate) *attributeService[T, P] {
	return &attributeService[T, P]{
		log:     log.With("service", name),
		repo:    repo,
		deleter: deleter,
		kind:    kind,
		label:   label,
	}
}

func (s *attributeService[T, P]) Kind() string { return s.kind }

func (s *attributeService[T, P]) List(ctx context.Context, owner uuid.UUID) ([]*T, error) {
	rows, err := s.repo.ListByUser(dbctx.Context{Ctx: ctx}, owner)
	if err != nil {
		return nil, aggregates.MapError(s.label+".list", err)
	}
	return rows, nil
}

func (s *attributeService[T, P]) Get(ctx context.Context, owner, id uuid.UUID) (*T, error) {
	op := s.label + ".get"
	row, err := s.repo.GetByID(dbctx.Context{Ctx: ctx}, owner, id)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if row == nil {
		return nil, domainagg.Newf(domainagg.CodeNotFound, op, "%s %s not found", s.label, id)
	}
	return row, nil
}

func (s *attributeService[T, P]) Create(ctx context.Context, owner uuid.UUID, in AttributeInput) (*T, error) {
	op := s.label + ".create"
	if owner == uuid.Nil {
		return nil, domainagg.Newf(domainagg.CodeValidation, op, "missing user_id")
	}
	name := ""
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
	}
	if name == "" {
		return nil, domainagg.Newf(domainagg.CodeValidation, op, "name is required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	if err := s.ensureNameFree(dbc, op, owner, name, uuid.Nil); err != nil {
		return nil, err
	}

	row := new(T)
	base := P(row).Base()
	base.UserID = owner
	base.Name = name
	if c, ok := any(row).(*knowledge.Collection); ok {
		if in.Color != nil {
			c.Color = strings.TrimSpace(*in.Color)
		}
		if in.Description != nil {
			c.Description = strings.TrimSpace(*in.Description)
		}
	}
	if _, err := s.repo.Create(dbc, []*T{row}); err != nil {
		return nil, duplicateOr(op, err)
	}
	s.log.Debug("Created attribute", "owner", owner, "id", base.ID, "name", name)
	return row, nil
}

func (s *attributeService[T, P]) Update(ctx context.Context, owner, id uuid.UUID, in AttributeInput) (*T, error) {
	op := s.label + ".update"
	current, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domainagg.Newf(domainagg.CodeValidation, op, "name cannot be blank")
		}
		old := P(current).Base().Name
		if name != old {
			if s.protected != "" && old == s.protected {
				return nil, domainagg.Newf(domainagg.CodePreconditionFailed, op, "the %q %s cannot be renamed", old, s.label)
			}
			if err := s.ensureNameFree(dbc, op, owner, name, id); err != nil {
				return nil, err
			}
			updates["name"] = name
		}
	}
	if _, ok := any(current).(*knowledge.Collection); ok {
		if in.Color != nil {
			updates["color"] = strings.TrimSpace(*in.Color)
		}
		if in.Description != nil {
			updates["description"] = strings.TrimSpace(*in.Description)
		}
	}
	if len(updates) == 0 {
		return current, nil
	}
	if err := s.repo.UpdateFields(dbc, owner, id, updates); err != nil {
		return nil, duplicateOr(op, err)
	}
	return s.Get(ctx, owner, id)
}

func (s *attributeService[T, P]) Delete(ctx context.Context, owner, id uuid.UUID) error {
	op := s.label + ".delete"
	current, err := s.Get(ctx, owner, id)
	if err != nil {
		return err
	}
	if name := P(current).Base().Name; s.protected != "" && name == s.protected {
		return domainagg.Newf(domainagg.CodePreconditionFailed, op, "the %q %s cannot be deleted", name, s.label)
	}
	return s.deleter.Delete(ctx, domainagg.DeleteAttributeInput{UserID: owner, Kind: s.kind, ID: id})
}

func (s *attributeService[T, P]) ensureNameFree(dbc dbctx.Context, op string, owner uuid.UUID, name string, self uuid.UUID) error {
	existing, err := s.repo.GetByName(dbc, owner, name)
	if err != nil {
		return aggregates.MapError(op, err)
	}
	if existing != nil && P(existing).Base().ID != self {
		return domainagg.Newf(domainagg.CodeDuplicate, op, "%s %q already exists", s.label, name)
	}
	return nil
}

// duplicateOr reports unique violations on (owner, name) as duplicates.
func duplicateOr(op string, err error) error {
	mapped := aggregates.MapError(op, err)
	if domainagg.IsCode(mapped, domainagg.CodeConflict) {
		return domainagg.NewError(domainagg.CodeDuplicate, op, "name already exists", err)
	}
	return mapped
}
