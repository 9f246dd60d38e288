// Package router assembles the Gin engine and HTTP server.
package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stategrc/posturehub/internal/config"
	"github.com/stategrc/posturehub/internal/interfaces/http/handlers"
	"github.com/stategrc/posturehub/pkg/constants"
	"github.com/stategrc/posturehub/pkg/logger"
)

// Router wires middleware, handlers, and the HTTP server.
type Router struct {
	engine           *gin.Engine
	config           *config.Config
	logger           logger.Logger
	healthHandler    *handlers.HealthHandler
	ingestHandler    *handlers.IngestHandler
	aggregateHandler *handlers.AggregateHandler
	contextHandler   *handlers.ContextHandler
	guardMiddleware  gin.HandlerFunc
	commonMiddleware []gin.HandlerFunc
	server           *http.Server
}

// NewRouter creates the router. commonMiddleware runs on every route; the
// guard middleware runs on ingestion only.
func NewRouter(
	cfg *config.Config,
	log logger.Logger,
	healthHandler *handlers.HealthHandler,
	ingestHandler *handlers.IngestHandler,
	aggregateHandler *handlers.AggregateHandler,
	contextHandler *handlers.ContextHandler,
	guardMiddleware gin.HandlerFunc,
	commonMiddleware ...gin.HandlerFunc,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	return &Router{
		engine:           gin.New(),
		config:           cfg,
		logger:           log.WithComponent("router"),
		healthHandler:    healthHandler,
		ingestHandler:    ingestHandler,
		aggregateHandler: aggregateHandler,
		contextHandler:   contextHandler,
		guardMiddleware:  guardMiddleware,
		commonMiddleware: commonMiddleware,
	}
}

// SetupRoutes registers middleware and routes.
func (r *Router) SetupRoutes() {
	r.engine.Use(gin.Recovery())
	r.engine.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type",
			constants.HeaderTenantID, constants.HeaderClientCert, constants.HeaderRequestID},
		ExposeHeaders: []string{constants.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}))
	r.engine.Use(r.commonMiddleware...)

	r.engine.GET("/health/live", r.healthHandler.Live)
	r.engine.GET("/health/ready", r.healthHandler.Ready)

	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if r.config.Monitoring.PprofEnabled {
		pprof.Register(r.engine)
	}

	v1 := r.engine.Group("/api/v1")
	{
		posture := v1.Group("/posture")
		posture.Use(r.guardMiddleware)
		{
			posture.POST("/ingest", r.ingestHandler.Ingest)
		}

		v1.POST("/aggregate/run", r.aggregateHandler.Run)
		v1.GET("/context", r.contextHandler.Get)
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "not_found",
			"error_description": "The requested resource was not found",
		})
	})
}

// Start runs the HTTP server; it blocks until the server stops.
func (r *Router) Start() error {
	r.SetupRoutes()

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	r.server = &http.Server{
		Addr:           addr,
		Handler:        r.engine,
		ReadTimeout:    time.Duration(r.config.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(r.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(r.config.Server.IdleTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	r.logger.Info(context.Background(), "Starting HTTP server", logger.String("address", addr))

	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully.
func (r *Router) Stop(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	r.logger.Info(ctx, "Stopping HTTP server")
	return r.server.Shutdown(ctx)
}

// Engine exposes the Gin engine for tests.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
