package auth

import "time"

// Role gates what a user may do. Capabilities are ordered:
// ADMIN covers COORDINATOR covers USER.
type Role string

const (
	RoleUser        Role = "USER"
	RoleCoordinator Role = "COORDINATOR"
	RoleAdmin       Role = "ADMIN"
)

var roleRank = map[Role]int{
	RoleUser:        1,
	RoleCoordinator: 2,
	RoleAdmin:       3,
}

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether the role carries at least the capabilities of min.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

// ParseRole normalizes raw input to a Role, defaulting to USER.
func ParseRole(raw string) Role {
	switch Role(raw) {
	case RoleCoordinator:
		return RoleCoordinator
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// User is an account in the coordination system. The password hash never
// crosses the wire.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}
