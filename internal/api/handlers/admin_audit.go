package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/pocketrush/internal/admin"
	"github.com/playmatatu/pocketrush/internal/models"
)

// GetAdminAuditLogs returns paginated audit log entries, optionally for one admin
func GetAdminAuditLogs(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminPhone := c.DefaultQuery("admin_phone", "")
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if limit <= 0 {
			limit = 25
		}
		if limit > 200 {
			limit = 200
		}
		if offset < 0 {
			offset = 0
		}

		var (
			logs []models.AdminAudit
			err  error
		)
		if adminPhone != "" {
			logs, err = admin.GetAdminAuditLogsByPhone(db, adminPhone, limit, offset)
		} else {
			logs, err = admin.GetAdminAuditLogs(db, limit, offset)
		}
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch audit logs: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit logs"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"logs": logs, "limit": limit, "offset": offset})
	}
}
