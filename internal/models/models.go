package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// RuntimeConfig is an operator-editable override of a table tuning value
type RuntimeConfig struct {
	Key         string         `db:"key" json:"key"`
	Value       string         `db:"value" json:"value"`
	ValueType   string         `db:"value_type" json:"value_type"`
	Description sql.NullString `db:"description" json:"description,omitempty"`
	UpdatedBy   sql.NullString `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// AdminAccount represents an operator allowed to change runtime config
type AdminAccount struct {
	Phone       string         `db:"phone" json:"phone"`
	DisplayName sql.NullString `db:"display_name" json:"display_name,omitempty"`
	TokenHash   string         `db:"token_hash" json:"-"`
	Roles       pq.StringArray `db:"roles" json:"roles"`
	AllowedIPs  pq.StringArray `db:"allowed_ips" json:"allowed_ips"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// AdminAudit is one recorded admin action
type AdminAudit struct {
	ID         int             `db:"id" json:"id"`
	AdminPhone string          `db:"admin_phone" json:"admin_phone"`
	IP         sql.NullString  `db:"ip" json:"ip,omitempty"`
	Route      string          `db:"route" json:"route"`
	Action     string          `db:"action" json:"action"`
	Details    string          `db:"details" json:"details"`
	Success    bool            `db:"success" json:"success"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
