package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tnahs/hlts/internal/clients/redis"
	"github.com/tnahs/hlts/internal/platform/logger"
	"github.com/tnahs/hlts/internal/platform/neo4jdb"
)

// Clients are the optional backing services. Both stay nil when their
// address is not configured.
type Clients struct {
	Redis *goredis.Client
	Neo4j *neo4jdb.Client
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	rdb, err := redis.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis client: %w", err)
	}

	graph, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return Clients{}, fmt.Errorf("init neo4j client: %w", err)
	}

	return Clients{Redis: rdb, Neo4j: graph}, nil
}

func (c *Clients) Close(ctx context.Context) {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Neo4j != nil {
		_ = c.Neo4j.Close(ctx)
	}
}
