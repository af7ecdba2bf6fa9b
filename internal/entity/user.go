package entity

import (
	"context"
	"strings"
)

type Role string

const (
	RoleBuyer Role = "buyer"
	RoleAdmin Role = "admin"
)

// User is a directory entry. The directory is owned elsewhere and read-only here.
type User struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        Role     `json:"role"`
	Active      bool     `json:"active"`
	EmailOptIn  bool     `json:"email_opt_in"`
	Specialties []string `json:"specialties,omitempty"`
}

// InterestedIn reports whether a buyer wants leads of the given specialty.
// An empty interest list means every specialty.
func (u User) InterestedIn(specialty string) bool {
	if len(u.Specialties) == 0 {
		return true
	}
	for _, s := range u.Specialties {
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(specialty)) {
			return true
		}
	}
	return false
}

type UserDirectory interface {
	ListByRole(ctx context.Context, role Role) ([]User, error)
	FindByID(ctx context.Context, id string) (*User, error)
}
