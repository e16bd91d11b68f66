package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lob-api/internal/models"
)

const userColumns = `id, user_name, normalized_user_name, email, normalized_email, email_confirmed, phone_number,
phone_number_confirmed, password_hash, security_stamp, concurrency_stamp, two_factor_enabled, authenticator_key,
recovery_codes, lockout_enabled, lockout_end, access_failed_count, full_name, gender, birth_date, profile_image_name,
email_token_requested_on, phone_number_token_requested_on, reset_password_token_requested_on,
two_factor_token_requested_on, otp_requested_on, elevated_access_token_requested_on, created_at, updated_at`

// UserRepository provides database access for identity users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + where + ` LIMIT 1`)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByUserName matches the normalized user name.
func (r *UserRepository) FindByUserName(ctx context.Context, userName string) (*models.User, error) {
	return r.findOne(ctx, "normalized_user_name = ?", strings.ToUpper(userName))
}

// FindByEmail matches the normalized email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "normalized_email = ?", strings.ToUpper(email))
}

// FindByPhoneNumber matches an E.164 phone number.
func (r *UserRepository) FindByPhoneNumber(ctx context.Context, phone string) (*models.User, error) {
	return r.findOne(ctx, "phone_number = ?", phone)
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.ConcurrencyStamp == "" {
		user.ConcurrencyStamp = uuid.NewString()
	}
	user.Normalize()

	query := `INSERT INTO users (` + userColumns + `) VALUES (:id, :user_name, :normalized_user_name, :email,
:normalized_email, :email_confirmed, :phone_number, :phone_number_confirmed, :password_hash, :security_stamp,
:concurrency_stamp, :two_factor_enabled, :authenticator_key, :recovery_codes, :lockout_enabled, :lockout_end,
:access_failed_count, :full_name, :gender, :birth_date, :profile_image_name, :email_token_requested_on,
:phone_number_token_requested_on, :reset_password_token_requested_on, :two_factor_token_requested_on,
:otp_requested_on, :elevated_access_token_requested_on, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update persists every mutable column of the user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	user.ConcurrencyStamp = uuid.NewString()
	user.Normalize()

	const query = `UPDATE users SET user_name = :user_name, normalized_user_name = :normalized_user_name,
email = :email, normalized_email = :normalized_email, email_confirmed = :email_confirmed,
phone_number = :phone_number, phone_number_confirmed = :phone_number_confirmed, password_hash = :password_hash,
security_stamp = :security_stamp, concurrency_stamp = :concurrency_stamp, two_factor_enabled = :two_factor_enabled,
authenticator_key = :authenticator_key, recovery_codes = :recovery_codes, lockout_enabled = :lockout_enabled,
lockout_end = :lockout_end, access_failed_count = :access_failed_count, full_name = :full_name, gender = :gender,
birth_date = :birth_date, profile_image_name = :profile_image_name,
email_token_requested_on = :email_token_requested_on,
phone_number_token_requested_on = :phone_number_token_requested_on,
reset_password_token_requested_on = :reset_password_token_requested_on,
two_factor_token_requested_on = :two_factor_token_requested_on, otp_requested_on = :otp_requested_on,
elevated_access_token_requested_on = :elevated_access_token_requested_on, updated_at = :updated_at
WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the user. Sessions, credentials and subscriptions cascade.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM users WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// GetRoles returns the role names of the user.
func (r *UserRepository) GetRoles(ctx context.Context, userID string) ([]string, error) {
	query := r.db.Rebind(`SELECT r.name FROM roles r JOIN user_roles ur ON ur.role_id = r.id WHERE ur.user_id = ? ORDER BY r.name`)
	var roles []string
	if err := r.db.SelectContext(ctx, &roles, query, userID); err != nil {
		return nil, fmt.Errorf("get user roles: %w", err)
	}
	return roles, nil
}

// AddToRole links the user to an existing role by name.
func (r *UserRepository) AddToRole(ctx context.Context, userID, roleName string) error {
	if roleName == "" || len(roleName) > models.RoleNameMaxLength {
		return fmt.Errorf("add user to role: invalid role name %q", roleName)
	}
	query := r.db.Rebind(`INSERT INTO user_roles (user_id, role_id) SELECT ?, id FROM roles WHERE normalized_name = ? ON CONFLICT DO NOTHING`)
	res, err := r.db.ExecContext(ctx, query, userID, strings.ToUpper(roleName))
	if err != nil {
		return fmt.Errorf("add user to role: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("add user to role %s: role not found or already assigned", roleName)
	}
	return nil
}

// CreateAuditLog stores an audit log entry.
func (r *UserRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at) VALUES (:id, :user_id, :action, :resource, :resource_id, :old_values, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// ListAuditLogs returns audit entries newest first along with the total count for the filter.
func (r *UserRepository) ListAuditLogs(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Action != "" {
		where = append(where, "action = ?")
		args = append(args, strings.ToUpper(filter.Action))
	}
	whereClause := strings.Join(where, " AND ")

	page, size := filter.Bounds()
	offset := (page - 1) * size

	query := r.db.Rebind(fmt.Sprintf(`SELECT id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at
FROM audit_logs WHERE %s
ORDER BY created_at DESC
LIMIT %d OFFSET %d`, whereClause, size, offset))
	var logs []models.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	var total int
	countQuery := r.db.Rebind(fmt.Sprintf("SELECT COUNT(*) FROM audit_logs WHERE %s", whereClause))
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}
	return logs, total, nil
}
