package domain

import "time"

// Role defines user permission level
type Role string

const (
	RoleAdmin  Role = "admin"  // Manage users, knowledge, settings
	RoleMember Role = "member" // View emails, trigger processing, search knowledge
	RoleViewer Role = "viewer" // Read-only dashboard access
)

// User represents an operator of the agent
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never serialize
	Name         string     `json:"name"`
	Role         Role       `json:"role"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// UserSummary provides a safe view of user data (no password hash)
type UserSummary struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        Role       `json:"role"`
	Active      bool       `json:"active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// ToSummary converts a User to UserSummary
func (u *User) ToSummary() *UserSummary {
	return &UserSummary{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
	}
}

// IsAdmin checks if the user has admin privileges
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanManageUsers checks if the user can create/delete other users
func (u *User) CanManageUsers() bool {
	return u.Role == RoleAdmin
}

// CanManageKnowledge checks if the user can add/deactivate knowledge documents
func (u *User) CanManageKnowledge() bool {
	return u.Role == RoleAdmin || u.Role == RoleMember
}

// CanTriggerProcessing checks if the user can trigger sweeps and re-processing
func (u *User) CanTriggerProcessing() bool {
	return u.Active && (u.Role == RoleAdmin || u.Role == RoleMember)
}
