// Package graph projects the owner identity graph into Neo4j:
// (:Source)-[:BY]->(:Individual) and (:Individual)-[:AKA]-(:Individual).
// Postgres stays the source of truth; every write here is best-effort and
// a nil or disabled client turns each call into a no-op.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/tnahs/hlts/internal/domain"
	"github.com/tnahs/hlts/internal/platform/logger"
	"github.com/tnahs/hlts/internal/platform/neo4jdb"
)

const (
	LabelSource     = "Source"
	LabelIndividual = "Individual"
)

type IdentityGraph struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewIdentityGraph(client *neo4jdb.Client, log *logger.Logger) *IdentityGraph {
	if log == nil {
		log = logger.NewNop()
	}
	return &IdentityGraph{client: client, log: log.With("component", "IdentityGraph")}
}

func (g *IdentityGraph) Enabled() bool {
	return g != nil && g.client.Enabled()
}

// SyncSources upserts each source and replaces its BY edges.
func (g *IdentityGraph) SyncSources(ctx context.Context, owner uuid.UUID, sources []*types.Source) error {
	if !g.Enabled() || owner == uuid.Nil {
		return nil
	}
	nodes, by := sourceRows(owner, sources, time.Now().UTC())
	if len(nodes) == 0 {
		return nil
	}
	return g.write(ctx, []string{
		`CREATE CONSTRAINT source_id_unique IF NOT EXISTS FOR (s:Source) REQUIRE s.id IS UNIQUE`,
		`CREATE CONSTRAINT individual_id_unique IF NOT EXISTS FOR (i:Individual) REQUIRE i.id IS UNIQUE`,
	}, func(ctx context.Context, tx neo4j.ManagedTransaction) error {
		if err := run(ctx, tx, `
UNWIND $sources AS s
MERGE (n:Source {id: s.id})
SET n += s
WITH n
OPTIONAL MATCH (n)-[b:BY]->()
DELETE b
`, map[string]any{"sources": nodes}); err != nil {
			return err
		}
		if len(by) == 0 {
			return nil
		}
		return run(ctx, tx, `
UNWIND $rels AS r
MATCH (s:Source {id: r.source_id})
MERGE (i:Individual {id: r.individual_id})
SET i.user_id = r.user_id, i.name = r.individual_name
MERGE (s)-[b:BY]->(i)
SET b.position = r.position
`, map[string]any{"rels": by})
	})
}

// SyncIndividuals upserts each individual and replaces its AKA edges.
func (g *IdentityGraph) SyncIndividuals(ctx context.Context, owner uuid.UUID, inds []*types.Individual) error {
	if !g.Enabled() || owner == uuid.Nil {
		return nil
	}
	nodes, aka := individualRows(owner, inds, time.Now().UTC())
	if len(nodes) == 0 {
		return nil
	}
	return g.write(ctx, []string{
		`CREATE CONSTRAINT individual_id_unique IF NOT EXISTS FOR (i:Individual) REQUIRE i.id IS UNIQUE`,
	}, func(ctx context.Context, tx neo4j.ManagedTransaction) error {
		if err := run(ctx, tx, `
UNWIND $individuals AS r
MERGE (i:Individual {id: r.id})
SET i += r
WITH i
OPTIONAL MATCH (i)-[a:AKA]-()
DELETE a
`, map[string]any{"individuals": nodes}); err != nil {
			return err
		}
		if len(aka) == 0 {
			return nil
		}
		return run(ctx, tx, `
UNWIND $rels AS r
MATCH (a:Individual {id: r.from_id})
MERGE (b:Individual {id: r.to_id})
SET b.user_id = r.user_id, b.name = r.to_name
MERGE (a)-[:AKA]-(b)
`, map[string]any{"rels": aka})
	})
}

// Delete detaches and removes nodes of one label.
func (g *IdentityGraph) Delete(ctx context.Context, label string, ids []uuid.UUID) error {
	if !g.Enabled() || len(ids) == 0 {
		return nil
	}
	if label != LabelSource && label != LabelIndividual {
		return fmt.Errorf("graph: unsupported label %q", label)
	}
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, id.String())
	}
	return g.write(ctx, nil, func(ctx context.Context, tx neo4j.ManagedTransaction) error {
		return run(ctx, tx, `MATCH (n:`+label+`) WHERE n.id IN $ids DETACH DELETE n`, map[string]any{"ids": raw})
	})
}

func (g *IdentityGraph) write(ctx context.Context, schema []string, fn func(context.Context, neo4j.ManagedTransaction) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	session := g.client.WriteSession(ctx)
	defer session.Close(ctx)

	for _, q := range schema {
		if res, err := session.Run(ctx, q, nil); err != nil {
			g.log.Warn("neo4j schema init failed (continuing)", "error", err)
		} else {
			_, _ = res.Consume(ctx)
		}
	}
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, fn(ctx, tx)
	})
	return err
}

func run(ctx context.Context, tx neo4j.ManagedTransaction, cypher string, params map[string]any) error {
	res, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return err
	}
	_, err = res.Consume(ctx)
	return err
}

func sourceRows(owner uuid.UUID, sources []*types.Source, now time.Time) ([]map[string]any, []map[string]any) {
	synced := now.Format(time.RFC3339Nano)
	nodes := make([]map[string]any, 0, len(sources))
	by := []map[string]any{}
	for _, s := range sources {
		if s == nil || s.ID == uuid.Nil || s.UserID != owner {
			continue
		}
		nodes = append(nodes, map[string]any{
			"id":        s.ID.String(),
			"user_id":   owner.String(),
			"name":      s.Name,
			"display":   s.Display(),
			"synced_at": synced,
		})
		for pos, ind := range s.Individuals {
			if ind == nil || ind.ID == uuid.Nil {
				continue
			}
			by = append(by, map[string]any{
				"source_id":       s.ID.String(),
				"individual_id":   ind.ID.String(),
				"individual_name": ind.Name,
				"user_id":         owner.String(),
				"position":        int64(pos),
			})
		}
	}
	return nodes, by
}

func individualRows(owner uuid.UUID, inds []*types.Individual, now time.Time) ([]map[string]any, []map[string]any) {
	synced := now.Format(time.RFC3339Nano)
	nodes := make([]map[string]any, 0, len(inds))
	aka := []map[string]any{}
	for _, ind := range inds {
		if ind == nil || ind.ID == uuid.Nil || ind.UserID != owner {
			continue
		}
		nodes = append(nodes, map[string]any{
			"id":        ind.ID.String(),
			"user_id":   owner.String(),
			"name":      ind.Name,
			"full_name": ind.FullName(),
			"synced_at": synced,
		})
		for _, other := range ind.Aka {
			if other == nil || other.ID == uuid.Nil || other.ID == ind.ID {
				continue
			}
			aka = append(aka, map[string]any{
				"from_id": ind.ID.String(),
				"to_id":   other.ID.String(),
				"to_name": other.Name,
				"user_id": owner.String(),
			})
		}
	}
	return nodes, aka
}
