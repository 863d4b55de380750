package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "roleconsole/api/swagger" // swagger docs
	"roleconsole/internal/cache"
	"roleconsole/internal/config"
	"roleconsole/internal/database"
	"roleconsole/internal/handler"
	applogger "roleconsole/internal/logger"
	"roleconsole/internal/middleware"
	"roleconsole/internal/observability"
	"roleconsole/internal/repository"
	"roleconsole/internal/service"
	"roleconsole/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

const permissionCacheSize = 1024

// @title           Role Console API
// @version         1.0
// @description     Roles and their per-module permission matrices.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, closeLog, err := applogger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("Logger setup failed: %v", err)
	}
	defer func() {
		_ = logger.Sync()
		_ = closeLog()
	}()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	db, err := database.NewConnection(cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	logger.Info("connected to PostgreSQL")

	// Permission cache for the auth middleware: redis when configured, in-process otherwise
	var permCache cache.PermissionCache
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer client.Close()
		permCache = cache.NewRedisCache(client, "roleconsole:", cfg.PermissionCacheTTL)
		logger.Info("permission cache on redis", zap.String("addr", cfg.RedisAddr))
	} else {
		permCache = cache.NewMemoryCache(permissionCacheSize, cfg.PermissionCacheTTL)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(logger.Named("ws"))
	go wsHub.Run(ctx)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	roleRepo := repository.NewRoleRepository(db)
	permRepo := repository.NewPermissionRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	reconciler := service.NewReconciler(roleRepo, permRepo, logger.Named("reconcile"), metrics)
	roster := service.NewRosterLoader(roleRepo, permRepo, cfg.RosterFanoutLimit, logger.Named("roster"), metrics)
	auditService := service.NewAuditService(auditRepo)
	roleService := service.NewRoleService(service.RoleServiceDeps{
		Roles:      roleRepo,
		Catalog:    catalogRepo,
		Reconciler: reconciler,
		Roster:     roster,
		Audit:      auditService,
		PermCache:  permCache,
		Notifier:   wsHub,
		Log:        logger.Named("roles"),
	})

	if cfg.SeedDefaults {
		seeder := service.NewSeeder(txManager, catalogRepo, roleRepo, permRepo, reconciler, logger.Named("seed"))
		if err := seeder.SeedDefaults(ctx, service.DefaultCatalog); err != nil {
			return err
		}
	}

	auth := middleware.NewAuthenticator(cfg.JWTSecret, roleService, permCache, logger.Named("auth"))

	// Initialize Handlers
	roleHandler := handler.NewRoleHandler(roleService, auth)
	auditHandler := handler.NewAuditHandler(auditService, auth)

	// Set up Gin Router
	router := gin.New()
	router.Use(gin.Recovery(), applogger.GinMiddleware(logger.Named("http")), metrics.GinMiddleware())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, cfg.JWTSecret)
	})

	// API Routing
	roleHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
