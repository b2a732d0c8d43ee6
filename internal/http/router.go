package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tnahs/hlts/internal/domain/knowledge"
	httpH "github.com/tnahs/hlts/internal/http/handlers"
	httpMW "github.com/tnahs/hlts/internal/http/middleware"
	"github.com/tnahs/hlts/internal/observability"
	"github.com/tnahs/hlts/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics

	AuthMiddleware  *httpMW.AuthMiddleware
	OwnerMiddleware gin.HandlerFunc

	HealthHandler     *httpH.HealthHandler
	TagHandler        *httpH.AttributeHandler[knowledge.Tag]
	CollectionHandler *httpH.AttributeHandler[knowledge.Collection]
	OriginHandler     *httpH.AttributeHandler[knowledge.Origin]
	TopicHandler      *httpH.AttributeHandler[knowledge.Topic]
	IndividualHandler *httpH.IndividualHandler
	SourceHandler     *httpH.SourceHandler
	NodeHandler       *httpH.NodeHandler
	MergeHandler      *httpH.MergeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	protected := r.Group("/api")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}
		if cfg.OwnerMiddleware != nil {
			protected.Use(cfg.OwnerMiddleware)
		}

		// Attributes
		if cfg.TagHandler != nil {
			cfg.TagHandler.Register(protected.Group("/tags"))
		}
		if cfg.CollectionHandler != nil {
			cfg.CollectionHandler.Register(protected.Group("/collections"))
		}
		if cfg.OriginHandler != nil {
			cfg.OriginHandler.Register(protected.Group("/origins"))
		}
		if cfg.TopicHandler != nil {
			cfg.TopicHandler.Register(protected.Group("/topics"))
		}

		// Individuals
		if cfg.IndividualHandler != nil {
			protected.GET("/individuals", cfg.IndividualHandler.List)
			protected.POST("/individuals", cfg.IndividualHandler.Create)
			protected.GET("/individuals/:id", cfg.IndividualHandler.Get)
			protected.PATCH("/individuals/:id", cfg.IndividualHandler.Update)
			protected.DELETE("/individuals/:id", cfg.IndividualHandler.Delete)
		}

		// Sources
		if cfg.SourceHandler != nil {
			protected.GET("/sources", cfg.SourceHandler.List)
			protected.POST("/sources", cfg.SourceHandler.Resolve)
			protected.GET("/sources/duplicates", cfg.SourceHandler.Duplicates)
			protected.POST("/sources/reconcile", cfg.SourceHandler.Reconcile)
			protected.GET("/sources/:id", cfg.SourceHandler.Get)
			protected.PATCH("/sources/:id", cfg.SourceHandler.Update)
			protected.DELETE("/sources/:id", cfg.SourceHandler.Delete)
		}

		// Nodes
		if cfg.NodeHandler != nil {
			protected.GET("/nodes", cfg.NodeHandler.List)
			protected.POST("/nodes", cfg.NodeHandler.Create)
			protected.GET("/nodes/:id", cfg.NodeHandler.Get)
			protected.PATCH("/nodes/:id", cfg.NodeHandler.Update)
			protected.DELETE("/nodes/:id", cfg.NodeHandler.Delete)
			protected.POST("/nodes/:id/seen", cfg.NodeHandler.Seen)
		}

		// Merge
		if cfg.MergeHandler != nil {
			protected.POST("/merge", cfg.MergeHandler.Merge)
			protected.GET("/merges", cfg.MergeHandler.History)
		}
	}

	return r
}
