package models

// UserRole is the coarse role label the upstream reports for a user.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleManager UserRole = "MANAGER"
	RoleAgent   UserRole = "AGENT"
	RoleClient  UserRole = "CLIENT"
)

// RoleAssignment is an opaque role attached to a user. Only the fields the
// console displays are decoded.
type RoleAssignment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Identity is the authenticated principal as returned by GET /users/me.
type Identity struct {
	ID              string           `json:"id"`
	Email           string           `json:"email"`
	DisplayName     string           `json:"full_name"`
	Role            UserRole         `json:"role,omitempty"`
	RoleAssignments []RoleAssignment `json:"roles,omitempty"`
	IsActive        bool             `json:"is_active"`
}
