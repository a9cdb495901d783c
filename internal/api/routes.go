package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/pocketrush/internal/admin"
	"github.com/playmatatu/pocketrush/internal/api/handlers"
	"github.com/playmatatu/pocketrush/internal/config"
	"github.com/playmatatu/pocketrush/internal/game"
	"github.com/playmatatu/pocketrush/internal/middleware"
	"github.com/playmatatu/pocketrush/internal/ws"
	"github.com/redis/go-redis/v9"
)

// Deps are the services routes are wired to. DB and Redis are optional.
type Deps struct {
	Config  *config.Config
	Manager *game.Manager
	Hub     *ws.Hub
	DB      *sqlx.DB
	Redis   *redis.Client
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, d Deps) {
	cfg := d.Config

	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(d.Manager))
		v1.GET("/config", handlers.GetConfig(cfg))

		// Table endpoints
		tables := v1.Group("/tables")
		{
			tables.POST("", handlers.CreateTable(d.Manager, cfg))
			tables.GET("/:token", handlers.GetTableState(d.Manager, d.Redis))
			tables.GET("/:token/remaining", handlers.GetRemaining(d.Manager))
			tables.GET("/:token/ws", middleware.WebSocketCORSCheck(cfg), handlers.TableWebSocket(d.Manager, d.Hub, cfg))

			control := tables.Group("/:token", handlers.TableControlMiddleware(cfg))
			control.POST("/strike", handlers.StrikeTable(d.Manager, cfg))
			control.POST("/reset", handlers.ResetTable(d.Manager, cfg))
			control.DELETE("", handlers.DeleteTable(d.Manager))
		}

		if d.DB == nil {
			log.Println("[API] No database configured; admin routes disabled")
			return
		}

		// Admin endpoints
		adminGroup := v1.Group("/admin")
		{
			adminGroup.POST("/login", handlers.AdminLogin(d.DB, cfg))

			authed := adminGroup.Group("", handlers.AdminAuthMiddleware(cfg))
			authed.GET("/me", handlers.AdminMe())
			authed.GET("/config", handlers.GetAdminRuntimeConfig(d.DB, cfg))
			authed.PUT("/config/:key", handlers.RequireAdminRole(admin.RoleConfig), handlers.UpdateAdminRuntimeConfig(d.DB, cfg))
			authed.GET("/audit", handlers.GetAdminAuditLogs(d.DB))
		}
	}
}
