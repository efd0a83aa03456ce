package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"promosync/internal/api/handlers"
	"promosync/internal/api/middleware"
	"promosync/internal/catalog"
	"promosync/internal/collections"
	"promosync/internal/config"
	"promosync/internal/database"
	"promosync/internal/events"
	"promosync/internal/logger"
	"promosync/internal/services/shopify"
	"promosync/internal/sync"

	"github.com/gin-gonic/gin"
)

type Server struct {
	config *config.Config
	logger *logger.Logger
	db     *database.Database
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, db *database.Database) *Server {
	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())

	store := catalog.NewStore(db.DB)
	newSource := func(shopDomain, accessToken, filter string) sync.PageIterator {
		return shopify.NewClient(shopDomain, accessToken, cfg.ShopifyAPIVersion, cfg.SyncPageSize, logger).Pages(filter)
	}
	orchestrator := sync.NewOrchestrator(db.DB, store, newSource, cfg.SyncSkew, logger)
	sweep := collections.NewSweep(store, cfg.SweepPageSize, logger)
	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.EventsTopic)

	// Initialize handlers
	tenantHandler := handlers.NewTenantHandler(db.DB, logger)
	productHandler := handlers.NewProductHandler(db.DB, logger)
	syncHandler := handlers.NewSyncHandler(orchestrator, publisher, logger)
	collectionsHandler := handlers.NewCollectionsHandler(sweep, publisher, logger)

	// Routes
	v1 := router.Group("/api/v1")
	{
		// Tenants
		tenants := v1.Group("/tenants")
		{
			tenants.GET("", tenantHandler.List)
			tenants.GET("/:id", tenantHandler.Get)
			tenants.POST("", tenantHandler.Create)
			tenants.POST("/:id/link", tenantHandler.Link)
			tenants.GET("/:id/attempts", tenantHandler.Attempts)

			tenants.GET("/:id/products", productHandler.List)
			tenants.GET("/:id/products/:productId", productHandler.Get)

			tenants.POST("/:id/sync", syncHandler.Trigger)
			tenants.POST("/:id/classify", collectionsHandler.Classify)
		}

		// Fleet-wide sync
		v1.POST("/sync/all", syncHandler.TriggerAll)
	}

	return &Server{
		config: cfg,
		logger: logger,
		db:     db,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
