package app

import (
	"gorm.io/gorm"

	"github.com/tnahs/hlts/internal/data/aggregates"
	"github.com/tnahs/hlts/internal/data/graph"
	"github.com/tnahs/hlts/internal/data/repos"
	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/domain/knowledge"
	"github.com/tnahs/hlts/internal/observability"
	"github.com/tnahs/hlts/internal/platform/logger"
	"github.com/tnahs/hlts/internal/platform/redislock"
	"github.com/tnahs/hlts/internal/services"
)

type Aggregates struct {
	Sources     domainagg.SourceAggregate
	Individuals domainagg.IndividualAggregate
	Nodes       domainagg.NodeAggregate
	Merges      domainagg.MergeAggregate
	Attributes  domainagg.AttributeAggregate
}

type Services struct {
	Auth   services.AuthService
	Owners services.OwnerService

	Tags        services.AttributeService[knowledge.Tag]
	Collections services.AttributeService[knowledge.Collection]
	Origins     services.AttributeService[knowledge.Origin]
	Topics      services.AttributeService[knowledge.Topic]

	Individuals services.IndividualService
	Sources     services.SourceService
	Nodes       services.NodeService
	Merges      services.MergeService
	Graph       services.GraphService
}

// Core is everything below the HTTP layer. The API server and hltsadm share
// it.
type Core struct {
	Log        *logger.Logger
	DB         *gorm.DB
	Repos      *repos.Set
	Graph      *graph.IdentityGraph
	Aggregates Aggregates
	Services   Services
}

func NewCore(log *logger.Logger, db *gorm.DB, cfg Config, clients Clients, metrics *observability.Metrics) *Core {
	set := wireRepos(db, log)
	g := graph.NewIdentityGraph(clients.Neo4j, log)
	aggs := wireAggregates(log, db, set, clients, cfg, metrics)
	return &Core{
		Log:        log,
		DB:         db,
		Repos:      set,
		Graph:      g,
		Aggregates: aggs,
		Services:   wireServices(log, cfg, set, aggs, g),
	}
}

func wireRepos(db *gorm.DB, log *logger.Logger) *repos.Set {
	log.Info("Wiring repos...")
	return repos.NewSet(db, log)
}

func wireAggregates(log *logger.Logger, db *gorm.DB, set *repos.Set, clients Clients, cfg Config, metrics *observability.Metrics) Aggregates {
	log.Info("Wiring aggregates...")
	var locker aggregates.OwnerLocker
	if clients.Redis != nil {
		locker = redislock.New(clients.Redis, log, redislock.Config{TTL: cfg.MergeLockTTL})
		log.Info("Merges serialized through redis")
	} else {
		locker = aggregates.NewLocalOwnerLocker()
	}
	base := aggregates.BaseDeps{
		DB:     db,
		Log:    log,
		Runner: aggregates.NewGormTxRunner(db),
		Hooks:  aggregates.NewObservabilityHooks(metrics),
		Locker: locker,
	}
	kinds := aggregates.KindDepsFromSet(set)
	return Aggregates{
		Sources: aggregates.NewSourceAggregate(aggregates.SourceAggregateDeps{
			Base:        base,
			Individuals: set.Individuals,
			Sources:     set.Sources,
			Links:       set.SourceIndividuals,
		}),
		Individuals: aggregates.NewIndividualAggregate(aggregates.IndividualAggregateDeps{
			Base:        base,
			Individuals: set.Individuals,
			Akas:        set.IndividualAkas,
			Sources:     set.Sources,
			Links:       set.SourceIndividuals,
		}),
		Nodes:      aggregates.NewNodeAggregate(aggregates.NodeAggregateDeps{Base: base, Kinds: kinds, Relations: set.NodeRelations}),
		Merges:     aggregates.NewMergeAggregate(aggregates.MergeAggregateDeps{Base: base, Kinds: kinds, Events: set.MergeEvents}),
		Attributes: aggregates.NewAttributeAggregate(aggregates.AttributeAggregateDeps{Base: base, Kinds: kinds}),
	}
}

func wireServices(log *logger.Logger, cfg Config, set *repos.Set, aggs Aggregates, g *graph.IdentityGraph) Services {
	log.Info("Wiring services...")
	return Services{
		Auth:   services.NewAuthService(log, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		Owners: services.NewOwnerService(log, set.Origins),

		Tags:        services.NewTagService(log, set.Tags, aggs.Attributes),
		Collections: services.NewCollectionService(log, set.Collections, aggs.Attributes),
		Origins:     services.NewOriginService(log, set.Origins, aggs.Attributes),
		Topics:      services.NewTopicService(log, set.Topics, aggs.Attributes),

		Individuals: services.NewIndividualService(log, set, aggs.Individuals, g),
		Sources:     services.NewSourceService(log, set, aggs.Sources, aggs.Merges, aggs.Attributes, g),
		Nodes:       services.NewNodeService(log, set, aggs.Nodes, g),
		Merges:      services.NewMergeService(log, set, aggs.Merges, g),
		Graph:       services.NewGraphService(log, set, g),
	}
}
