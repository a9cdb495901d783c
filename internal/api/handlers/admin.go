package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/pocketrush/internal/admin"
	"github.com/playmatatu/pocketrush/internal/config"
)

// AdminLogin validates phone + admin token and issues an admin session token
func AdminLogin(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Phone string `json:"phone" binding:"required"`
			Token string `json:"token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		phone := normalizePhone(req.Phone)
		if phone == "" {
			phone = strings.TrimSpace(req.Phone)
		}

		account, err := admin.ValidateAdminPhoneAndToken(db, phone, strings.TrimSpace(req.Token))
		if err != nil {
			log.Printf("[ADMIN] Login failed for %s: %v", phone, err)
			admin.LogAdminAction(db, phone, c.ClientIP(), "/api/v1/admin/login", "login", nil, false)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		if !admin.AllowsIP(account, c.ClientIP()) {
			log.Printf("[ADMIN] Login for %s refused from %s", phone, c.ClientIP())
			admin.LogAdminAction(db, phone, c.ClientIP(), "/api/v1/admin/login", "login_ip_denied", nil, false)
			c.JSON(http.StatusForbidden, gin.H{"error": "Login not allowed from this address"})
			return
		}

		ttl := time.Duration(cfg.AdminSessionHours) * time.Hour
		token, err := IssueAdminToken(cfg.JWTSecret, account.Phone, account.Roles, ttl)
		if err != nil {
			log.Printf("[ADMIN] Failed to sign session for %s: %v", phone, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
			return
		}

		admin.LogAdminAction(db, account.Phone, c.ClientIP(), "/api/v1/admin/login", "login", nil, true)
		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"expires_in": int(ttl.Seconds()),
			"roles":      account.Roles,
		})
	}
}

// AdminMe returns the current admin session info
func AdminMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"phone": c.GetString("admin_phone"),
			"roles": c.GetStringSlice("admin_roles"),
		})
	}
}

// RequireAdminRole rejects admins that lack role. Must run after AdminAuthMiddleware.
func RequireAdminRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, r := range c.GetStringSlice("admin_roles") {
			if r == role || r == admin.RoleSuper {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
	}
}
