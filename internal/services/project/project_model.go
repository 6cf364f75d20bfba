package project

import "time"

type Role string

const (
	RoleMember  Role = "MEMBER"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

// ValidRole reports whether s is one of the known member roles.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleMember, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// Project is a shared workspace tasks can be attached to. The owner has
// admin rights regardless of any membership row.
type Project struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Member links a user to a project with a role. At most one row exists per
// (project, user) pair; inviting an existing member updates the role instead.
type Member struct {
	ProjectID int64     `json:"project_id" db:"project_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Role      Role      `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Invitation is a pending membership grant for an email address that has no
// account yet. It is materialized into a Member when that email registers.
type Invitation struct {
	ID        int64     `json:"id" db:"id"`
	ProjectID int64     `json:"project_id" db:"project_id"`
	Email     string    `json:"email" db:"email"`
	Role      Role      `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateProjectRequest captures payload for creating a project
type CreateProjectRequest struct {
	Name string `json:"name"`
}

// InviteMemberRequest captures payload for inviting a member by email
type InviteMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}
