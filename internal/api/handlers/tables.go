package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pocketrush/internal/config"
	"github.com/playmatatu/pocketrush/internal/game"
	"github.com/playmatatu/pocketrush/internal/ws"
	"github.com/redis/go-redis/v9"
)

// CreateTable racks a new table and returns its token with a control token
func CreateTable(manager *game.Manager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Table loops outlive the request; the manager stops them on removal or shutdown.
		session, err := manager.CreateTable(context.Background())
		if err != nil {
			log.Printf("[TABLE] Failed to create table: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create table"})
			return
		}

		controlToken, err := IssueControlToken(cfg.JWTSecret, session.Token, time.Duration(cfg.ControlTokenHours)*time.Hour)
		if err != nil {
			log.Printf("[TABLE] Failed to sign control token for %s: %v", session.Token, err)
			manager.RemoveTable(session.Token)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"token":         session.Token,
			"control_token": controlToken,
			"state":         session.Snapshot(),
		})
	}
}

// GetTableState returns the latest snapshot of a table. Tables hosted by another
// instance are served from the Redis cache when available.
func GetTableState(manager *game.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")

		if session, err := manager.GetTable(token); err == nil {
			c.JSON(http.StatusOK, session.Snapshot())
			return
		}

		if rdb != nil {
			snap, err := game.LoadSnapshot(c.Request.Context(), rdb, token)
			if err == nil {
				c.Header("X-Table-Source", "cache")
				c.JSON(http.StatusOK, snap)
				return
			}
			if !errors.Is(err, game.ErrTableNotFound) {
				log.Printf("[REDIS] Failed to load snapshot for %s: %v", token, err)
			}
		}

		c.JSON(http.StatusNotFound, gin.H{"error": "Table not found"})
	}
}

// GetRemaining reports how many numbered balls are still in play
func GetRemaining(manager *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := manager.GetTable(c.Param("token"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Table not found"})
			return
		}
		c.JSON(http.StatusOK, session.Remaining())
	}
}

// StrikeTable takes the break shot
func StrikeTable(manager *game.Manager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := manager.GetTable(c.Param("token"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Table not found"})
			return
		}

		var req struct {
			Angle *float64 `json:"angle" binding:"required"`
			Power *float64 `json:"power" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "angle and power are required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(cfg.StrikeTimeoutSeconds)*time.Second)
		defer cancel()

		accepted, err := session.Strike(ctx, *req.Angle, *req.Power)
		if err != nil {
			writeSessionError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"accepted": accepted,
			"status":   session.Snapshot().Status,
		})
	}
}

// ResetTable re-racks a table
func ResetTable(manager *game.Manager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := manager.GetTable(c.Param("token"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Table not found"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(cfg.StrikeTimeoutSeconds)*time.Second)
		defer cancel()

		if err := session.Reset(ctx); err != nil {
			writeSessionError(c, err)
			return
		}
		c.JSON(http.StatusOK, session.Snapshot())
	}
}

// DeleteTable closes a table
func DeleteTable(manager *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := manager.RemoveTable(c.Param("token")); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Table not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// TableWebSocket streams a table. A valid control token in ?ct= allows strike and reset.
func TableWebSocket(manager *game.Manager, hub *ws.Hub, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		session, err := manager.GetTable(token)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Table not found"})
			return
		}

		ct := c.Query("ct")
		canControl := controlsTable(cfg.JWTSecret, ct, token)
		if ct != "" && !canControl {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid control token"})
			return
		}

		hub.ServeTable(c, session, canControl)
	}
}

func writeSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, game.ErrSessionBusy):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Table is busy, try again"})
	case errors.Is(err, game.ErrSessionClosed):
		c.JSON(http.StatusGone, gin.H{"error": "Table closed"})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Table did not respond"})
	default:
		log.Printf("[TABLE] command failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
