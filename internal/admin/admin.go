package admin

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/playmatatu/pocketrush/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const (
	// RoleConfig may edit table tuning overrides
	RoleConfig = "config"
	// RoleSuper implies every other role
	RoleSuper = "super"
)

var (
	ErrAdminNotFound = errors.New("admin account not found")
	ErrInvalidToken  = errors.New("invalid token")
)

// GetAdminAccount retrieves an admin account by phone
func GetAdminAccount(db *sqlx.DB, phone string) (*models.AdminAccount, error) {
	var admin models.AdminAccount
	err := db.Get(&admin, `SELECT phone, display_name, token_hash, roles, allowed_ips, created_at, updated_at FROM admin_accounts WHERE phone=$1`, phone)
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// VerifyAdminToken checks if the provided token matches the stored hash
func VerifyAdminToken(hashedToken, plainToken string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedToken), []byte(plainToken))
	return err == nil
}

// CreateAdminAccount creates a new admin account (used for seeding/testing)
func CreateAdminAccount(db *sqlx.DB, phone, displayName, plainToken string, roles, allowedIPs []string) error {
	hashedToken, err := bcrypt.GenerateFromPassword([]byte(plainToken), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash token: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO admin_accounts (phone, display_name, token_hash, roles, allowed_ips, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (phone) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			token_hash = EXCLUDED.token_hash,
			roles = EXCLUDED.roles,
			allowed_ips = EXCLUDED.allowed_ips,
			updated_at = NOW()
	`, phone, displayName, string(hashedToken), pq.Array(roles), pq.Array(allowedIPs))

	return err
}

// LogAdminAction records an admin action in the audit log
func LogAdminAction(db *sqlx.DB, adminPhone, ip, route, action string, details map[string]interface{}, success bool) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		log.Printf("[ADMIN] Failed to marshal audit details: %v", err)
		detailsJSON = []byte("{}")
	}

	_, err = db.Exec(`
		INSERT INTO admin_audit (admin_phone, ip, route, action, details, success, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, adminPhone, ip, route, action, string(detailsJSON), success)

	if err != nil {
		log.Printf("[ADMIN] Failed to log admin action: %v", err)
	}

	return err
}

// GetAdminAuditLogs retrieves recent admin audit logs with pagination
func GetAdminAuditLogs(db *sqlx.DB, limit, offset int) ([]models.AdminAudit, error) {
	var logs []models.AdminAudit
	query := `
		SELECT id, admin_phone, ip, route, action, details, success, created_at
		FROM admin_audit
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	err := db.Select(&logs, query, limit, offset)
	return logs, err
}

// GetAdminAuditLogsByPhone retrieves audit logs for a specific admin
func GetAdminAuditLogsByPhone(db *sqlx.DB, phone string, limit, offset int) ([]models.AdminAudit, error) {
	var logs []models.AdminAudit
	query := `
		SELECT id, admin_phone, ip, route, action, details, success, created_at
		FROM admin_audit
		WHERE admin_phone = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	err := db.Select(&logs, query, phone, limit, offset)
	return logs, err
}

// AllowsIP reports whether the account may be used from ip. An empty allow list permits any address.
func AllowsIP(account *models.AdminAccount, ip string) bool {
	if len(account.AllowedIPs) == 0 {
		return true
	}
	for _, allowed := range account.AllowedIPs {
		if allowed == ip {
			return true
		}
	}
	return false
}

// HasRole reports whether the account carries role
func HasRole(account *models.AdminAccount, role string) bool {
	for _, r := range account.Roles {
		if r == role || r == RoleSuper {
			return true
		}
	}
	return false
}

// ValidateAdminPhoneAndToken validates phone + token combination
func ValidateAdminPhoneAndToken(db *sqlx.DB, phone, token string) (*models.AdminAccount, error) {
	log.Printf("[ADMIN] Validating phone: %s", phone)

	admin, err := GetAdminAccount(db, phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[ADMIN] No admin account found for phone: %s", phone)
			return nil, ErrAdminNotFound
		}
		log.Printf("[ADMIN] Database error: %v", err)
		return nil, fmt.Errorf("database error: %w", err)
	}

	log.Printf("[ADMIN] Found admin account for: %s", phone)

	if !VerifyAdminToken(admin.TokenHash, token) {
		log.Printf("[ADMIN] Token verification failed for phone: %s", phone)
		return nil, ErrInvalidToken
	}

	log.Printf("[ADMIN] Token verified successfully for: %s", phone)
	return admin, nil
}
