package domain

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleQuantifier Role = "QUANTIFIER"
	RoleForwarder  Role = "FORWARDER"
	RoleUser       Role = "USER"
)

// ParseRole converts a role name, reporting whether it is known.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleQuantifier, RoleForwarder, RoleUser:
		return Role(s), true
	default:
		return "", false
	}
}

type User struct {
	ID          uuid.UUID
	Name        string
	Roles       []Role
	Deactivated bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (u *User) HasRole(role Role) bool {
	return slices.Contains(u.Roles, role)
}

type UserRepository interface {
	Create(ctx context.Context, name string, roles []Role) (*User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	// ListByRole returns active and deactivated users holding role, ordered by ID.
	ListByRole(ctx context.Context, role Role) ([]User, error)
	AddRole(ctx context.Context, userID uuid.UUID, role Role) (*User, error)
	RemoveRole(ctx context.Context, userID uuid.UUID, role Role) (*User, error)
	SetDeactivated(ctx context.Context, userID uuid.UUID, deactivated bool) error
}

// IdentityProvider answers role questions for the engine.
type IdentityProvider interface {
	HasRole(ctx context.Context, userID uuid.UUID, role Role) (bool, error)
}
