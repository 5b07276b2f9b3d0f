package domain

import "time"

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleEditor    Role = "editor"
	RoleViewer    Role = "viewer"
	RoleModerator Role = "moderator"
)

// DefaultRole is assigned when registration does not request a role.
const DefaultRole = RoleViewer

// IsValid reports whether the role is one of the known role labels.
// The set is closed; extending it means redeploying the registry.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer, RoleModerator:
		return true
	}
	return false
}

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Banned       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
