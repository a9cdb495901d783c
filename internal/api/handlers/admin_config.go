package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/pocketrush/internal/admin"
	"github.com/playmatatu/pocketrush/internal/config"
)

// GetAdminRuntimeConfig returns all runtime config entries and the tuning in effect
func GetAdminRuntimeConfig(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		configs, err := admin.GetAllRuntimeConfig(db)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch runtime config: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch config"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"configs":            configs,
			"effective":          cfg.Tuning(),
			"table_idle_minutes": cfg.TableIdleMinutes,
		})
	}
}

// UpdateAdminRuntimeConfig updates a single runtime config value. Tables
// created afterwards use the new tuning; live tables keep theirs.
func UpdateAdminRuntimeConfig(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminPhone := c.GetString("admin_phone")
		key := c.Param("key")

		var req struct {
			Value string `json:"value" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Value is required"})
			return
		}

		details := map[string]interface{}{"key": key, "value": req.Value}
		if err := admin.UpdateRuntimeConfigValue(db, cfg, key, req.Value, adminPhone); err != nil {
			log.Printf("[ADMIN] Failed to update config %s: %v", key, err)
			admin.LogAdminAction(db, adminPhone, c.ClientIP(), "/api/v1/admin/config/"+key, "update_config", details, false)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// Re-apply runtime config to in-memory config
		if err := admin.ApplyRuntimeConfigToConfig(db, cfg); err != nil {
			log.Printf("[ADMIN] Warning: failed to apply runtime config: %v", err)
		}

		admin.LogAdminAction(db, adminPhone, c.ClientIP(), "/api/v1/admin/config/"+key, "update_config", details, true)
		c.JSON(http.StatusOK, gin.H{"ok": true, "effective": cfg.Tuning()})
	}
}
