package app

import (
	"github.com/gin-gonic/gin"

	"github.com/tnahs/hlts/internal/domain/knowledge"
	"github.com/tnahs/hlts/internal/http"
	httpH "github.com/tnahs/hlts/internal/http/handlers"
	httpMW "github.com/tnahs/hlts/internal/http/middleware"
	"github.com/tnahs/hlts/internal/observability"
	"github.com/tnahs/hlts/internal/platform/logger"
)

type Middleware struct {
	Auth  *httpMW.AuthMiddleware
	Owner gin.HandlerFunc
}

type Handlers struct {
	Health      *httpH.HealthHandler
	Tags        *httpH.AttributeHandler[knowledge.Tag]
	Collections *httpH.AttributeHandler[knowledge.Collection]
	Origins     *httpH.AttributeHandler[knowledge.Origin]
	Topics      *httpH.AttributeHandler[knowledge.Topic]
	Individuals *httpH.IndividualHandler
	Sources     *httpH.SourceHandler
	Nodes       *httpH.NodeHandler
	Merges      *httpH.MergeHandler
}

func wireHandlers(log *logger.Logger, core *Core) Handlers {
	log.Info("Wiring handlers...")
	var pinger httpH.Pinger
	if sqlDB, err := core.DB.DB(); err == nil {
		pinger = sqlDB
	}
	s := core.Services
	return Handlers{
		Health:      httpH.NewHealthHandler(pinger),
		Tags:        httpH.NewAttributeHandler(s.Tags, "tag"),
		Collections: httpH.NewAttributeHandler(s.Collections, "collection"),
		Origins:     httpH.NewAttributeHandler(s.Origins, "origin"),
		Topics:      httpH.NewAttributeHandler(s.Topics, "topic"),
		Individuals: httpH.NewIndividualHandler(s.Individuals),
		Sources:     httpH.NewSourceHandler(s.Sources),
		Nodes:       httpH.NewNodeHandler(s.Nodes),
		Merges:      httpH.NewMergeHandler(s.Merges),
	}
}

func wireMiddleware(log *logger.Logger, core *Core) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:  httpMW.NewAuthMiddleware(log, core.Services.Auth),
		Owner: httpMW.EnsureOwnerDefaults(log, core.Services.Owners),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *http.Server {
	log.Info("Wiring router...")
	return http.NewServer(http.RouterConfig{
		Log:               log,
		ServiceName:       cfg.ServiceName,
		CORSOrigins:       cfg.CORSOrigins,
		Metrics:           metrics,
		AuthMiddleware:    middleware.Auth,
		OwnerMiddleware:   middleware.Owner,
		HealthHandler:     handlers.Health,
		TagHandler:        handlers.Tags,
		CollectionHandler: handlers.Collections,
		OriginHandler:     handlers.Origins,
		TopicHandler:      handlers.Topics,
		IndividualHandler: handlers.Individuals,
		SourceHandler:     handlers.Sources,
		NodeHandler:       handlers.Nodes,
		MergeHandler:      handlers.Merges,
	})
}
