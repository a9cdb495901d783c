package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/playmatatu/pocketrush/internal/admin"
	"github.com/playmatatu/pocketrush/internal/api"
	"github.com/playmatatu/pocketrush/internal/config"
	"github.com/playmatatu/pocketrush/internal/database"
	"github.com/playmatatu/pocketrush/internal/game"
	"github.com/playmatatu/pocketrush/internal/migrations"
	"github.com/playmatatu/pocketrush/internal/redis"
	"github.com/playmatatu/pocketrush/internal/ws"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()
	if err := cfg.Tuning().Validate(); err != nil {
		log.Fatalf("Invalid table tuning: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database is optional: it only backs runtime tuning and admin
	var db *sqlx.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if cfg.MigrateOnStart {
			log.Println("[MIGRATE] Running DB migrations on startup...")
			if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}

		if err := admin.ApplyRuntimeConfigToConfig(db, cfg); err != nil {
			log.Printf("[CONFIG] Runtime overrides not applied: %v", err)
		}
	} else {
		log.Println("[DB] DATABASE_URL not set; runtime config and admin disabled")
	}

	hub := ws.NewHub()
	go hub.Run(ctx)
	listeners := []game.TableListener{hub}

	// Redis is optional: snapshot cache and cross-instance pocket events
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		var err error
		rdb, err = redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()

		publisher := game.NewRedisPublisher(rdb, time.Duration(cfg.SnapshotTTLSeconds)*time.Second)
		publisher.Start(ctx)
		listeners = append(listeners, publisher)
		ws.StartPocketEventSubscriber(ctx, rdb, hub)
	} else {
		log.Println("[REDIS] REDIS_URL not set; pocket events delivered locally only")
	}

	manager := game.NewManager(cfg.Tuning, time.Duration(cfg.TableIdleMinutes)*time.Minute, listeners...)
	go manager.StartExpiryChecker(ctx, time.Duration(cfg.ExpiryCheckSeconds)*time.Second)
	defer manager.Shutdown()

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	api.SetupRoutes(router, api.Deps{
		Config:  cfg,
		Manager: manager,
		Hub:     hub,
		DB:      db,
		Redis:   rdb,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting Pocket Rush server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
