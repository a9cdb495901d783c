package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/playmatatu/pocketrush/internal/config"
)

const (
	kindControl = "table_control"
	kindAdmin   = "admin"
)

var errTokenKind = errors.New("wrong token kind")

// IssueControlToken signs a token that lets its bearer strike and reset one table
func IssueControlToken(secret, tableToken string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"kind":  kindControl,
		"table": tableToken,
		"exp":   time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// IssueAdminToken signs an admin session token
func IssueAdminToken(secret, phone string, roles []string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"kind":  kindAdmin,
		"phone": phone,
		"roles": roles,
		"exp":   time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseToken(secret, raw, kind string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if k, _ := claims["kind"].(string); k != kind {
		return nil, errTokenKind
	}
	return claims, nil
}

// controlsTable reports whether raw is a valid control token for tableToken
func controlsTable(secret, raw, tableToken string) bool {
	if raw == "" {
		return false
	}
	claims, err := parseToken(secret, raw, kindControl)
	if err != nil {
		return false
	}
	table, _ := claims["table"].(string)
	return table == tableToken
}

// TableControlMiddleware requires a bearer control token for the :token table
func TableControlMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		if !controlsTable(cfg.JWTSecret, raw, c.Param("token")) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token does not control this table"})
			return
		}
		c.Next()
	}
}

// AdminAuthMiddleware validates a bearer admin token and sets admin_phone and admin_roles
func AdminAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		claims, err := parseToken(cfg.JWTSecret, raw, kindAdmin)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}

		phone, _ := claims["phone"].(string)
		if phone == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		var roles []string
		if list, ok := claims["roles"].([]interface{}); ok {
			for _, r := range list {
				if s, ok := r.(string); ok {
					roles = append(roles, s)
				}
			}
		}

		c.Set("admin_phone", phone)
		c.Set("admin_roles", roles)
		c.Next()
	}
}
