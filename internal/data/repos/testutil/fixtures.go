package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/tnahs/hlts/internal/domain"
)

func SeedTag(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) *types.Tag {
	tb.Helper()
	t := &types.Tag{Attribute: types.Attribute{UserID: userID, Name: name}}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed tag: %v", err)
	}
	return t
}

func SeedCollection(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) *types.Collection {
	tb.Helper()
	c := &types.Collection{Attribute: types.Attribute{UserID: userID, Name: name}}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed collection: %v", err)
	}
	return c
}

func SeedOrigin(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) *types.Origin {
	tb.Helper()
	o := &types.Origin{Attribute: types.Attribute{UserID: userID, Name: name}}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed origin: %v", err)
	}
	return o
}

func SeedTopic(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) *types.Topic {
	tb.Helper()
	t := &types.Topic{Attribute: types.Attribute{UserID: userID, Name: name}}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed topic: %v", err)
	}
	return t
}

func SeedIndividual(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) *types.Individual {
	tb.Helper()
	i := &types.Individual{Attribute: types.Attribute{UserID: userID, Name: name}}
	if err := tx.WithContext(ctx).Create(i).Error; err != nil {
		tb.Fatalf("seed individual: %v", err)
	}
	return i
}

// SeedSource inserts a source and its individual links directly, bypassing
// the resolver. Tests use it to build duplicate states the resolver refuses.
func SeedSource(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string, individuals ...*types.Individual) *types.Source {
	tb.Helper()
	s := &types.Source{UserID: userID, Name: name}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed source: %v", err)
	}
	for i, ind := range individuals {
		link := &types.SourceIndividual{
			SourceID:     s.ID,
			IndividualID: ind.ID,
			Position:     i,
			CreatedAt:    time.Now().UTC(),
		}
		if err := tx.WithContext(ctx).Create(link).Error; err != nil {
			tb.Fatalf("seed source individual: %v", err)
		}
	}
	s.Individuals = individuals
	return s
}

func SeedNode(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, body string) *types.Node {
	tb.Helper()
	n := &types.Node{UserID: userID, Body: body}
	if err := tx.WithContext(ctx).Create(n).Error; err != nil {
		tb.Fatalf("seed node: %v", err)
	}
	return n
}

func TagNode(tb testing.TB, ctx context.Context, tx *gorm.DB, nodeID uuid.UUID, tagIDs ...uuid.UUID) {
	tb.Helper()
	for _, id := range tagIDs {
		if err := tx.WithContext(ctx).Create(&types.NodeTag{NodeID: nodeID, TagID: id}).Error; err != nil {
			tb.Fatalf("tag node: %v", err)
		}
	}
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrString(v string) *string { return &v }

func PtrBool(v bool) *bool { return &v }
