package models

// Built-in role names.
const (
	RoleSuperAdmin = "super-admin"
	RoleBasicUser  = "basic-user"
)

// RoleNameMaxLength is the longest accepted role name.
const RoleNameMaxLength = 50

// Role is a named authorization group.
type Role struct {
	ID               string `db:"id" json:"id"`
	Name             string `db:"name" json:"name"`
	NormalizedName   string `db:"normalized_name" json:"-"`
	ConcurrencyStamp string `db:"concurrency_stamp" json:"-"`
}
