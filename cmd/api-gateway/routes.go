package main

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/eco-report-api/api/swagger"
	"github.com/noah-isme/eco-report-api/internal/handler"
	"github.com/noah-isme/eco-report-api/internal/middleware"
	"github.com/noah-isme/eco-report-api/internal/models"
	"github.com/noah-isme/eco-report-api/internal/service"
	"github.com/noah-isme/eco-report-api/pkg/config"
	"github.com/noah-isme/eco-report-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/eco-report-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/eco-report-api/pkg/middleware/requestid"
)

type routeDeps struct {
	auth    middleware.TokenValidator
	metrics *service.MetricsService

	authH   *handler.AuthHandler
	reports *handler.ReportHandler
	users   *handler.UserHandler
	stats   *handler.StatsHandler
	catalog *handler.CatalogHandler
	files   *handler.FileHandler
	health  *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, d routeDeps) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(d.metrics, "/health", "/ready", "/metrics"))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", d.health.Health)
	r.GET("/ready", d.health.Ready)
	r.GET("/metrics", d.health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	requireAuth := middleware.JWT(d.auth)
	optionalAuth := middleware.OptionalJWT(d.auth)
	adminOnly := middleware.RequireAdmin()

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", d.authH.Login)
	auth.POST("/register", d.authH.Register)

	api.GET("/catalog", middleware.PublicCache(time.Hour), d.catalog.Catalog)
	api.GET("/catalog/categories", middleware.PublicCache(time.Hour), d.catalog.Categories)
	api.GET("/catalog/statuses", middleware.PublicCache(time.Hour), d.catalog.Statuses)
	api.GET("/catalog/levels", middleware.PublicCache(time.Hour), d.catalog.Levels)

	api.GET("/files/:token", d.files.Serve)

	reports := api.Group("/reports")
	reports.GET("", optionalAuth, d.reports.List)
	reports.GET("/recent", optionalAuth, d.reports.Recent)
	reports.GET("/critical", optionalAuth, d.reports.Critical)
	reports.GET("/resolved", optionalAuth, d.reports.Resolved)
	reports.GET("/nearby", optionalAuth, d.reports.Nearby)
	reports.GET("/map", optionalAuth, d.reports.Map)
	reports.GET("/export", requireAuth, adminOnly, d.reports.Export)
	reports.GET("/:id", optionalAuth, d.reports.Get)
	reports.POST("", requireAuth, d.reports.Create)
	reports.PATCH("/:id/status", requireAuth, adminOnly, d.reports.UpdateStatus)
	reports.POST("/:id/photos", requireAuth, d.reports.AddPhoto)
	reports.POST("/:id/comments", requireAuth, d.reports.AddComment)
	reports.DELETE("/:id", requireAuth, adminOnly, d.reports.Delete)

	users := api.Group("/users")
	users.GET("/me", requireAuth, d.users.Me)
	users.PUT("/me", requireAuth, d.users.UpdateMe)
	users.GET("", requireAuth, adminOnly, d.users.List)
	users.GET("/:id", optionalAuth, d.users.Get)
	users.PUT("/:id", requireAuth, middleware.RequireRolesOrSelf(models.RoleAdmin), d.users.Update)
	users.PATCH("/:id/active", requireAuth, adminOnly, d.users.SetActive)
	users.DELETE("/:id", requireAuth, middleware.RequireRolesOrSelf(models.RoleAdmin), d.users.Delete)

	stats := api.Group("/stats")
	stats.GET("/reports", d.stats.Reports)
	stats.GET("/leaderboard", d.stats.Leaderboard)

	api.GET("/metrics/summary", requireAuth, adminOnly, d.health.Snapshot)

	return r
}
