package models

import "time"

// Audit actions recorded for identity events.
const (
	AuditActionSignUp         = "SIGN_UP"
	AuditActionSignIn         = "SIGN_IN"
	AuditActionSignOut        = "SIGN_OUT"
	AuditActionRefresh        = "TOKEN_REFRESH"
	AuditActionSessionRevoke  = "SESSION_REVOKE"
	AuditActionUserUpdate     = "USER_UPDATE"
	AuditActionUserDelete     = "USER_DELETE"
	AuditActionPasswordChange = "PASSWORD_CHANGE"
	AuditActionPasswordReset  = "PASSWORD_RESET"
	AuditActionTwoFactor      = "TWO_FACTOR_CHANGE"
	AuditActionPayment        = "PAYMENT"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AuditLogFilter narrows an audit log listing.
type AuditLogFilter struct {
	UserID   string
	Action   string
	Page     int
	PageSize int
}

// Bounds returns the effective page (from 1) and page size (1..100, default 20).
func (f AuditLogFilter) Bounds() (page, size int) {
	page = f.Page
	if page < 1 {
		page = 1
	}
	size = f.PageSize
	switch {
	case size <= 0:
		size = 20
	case size > 100:
		size = 100
	}
	return page, size
}
