package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/xavierca1/lead-marketplace/internal/entity"
)

// Directory is a fixed user list standing in for the external identity service.
type Directory struct {
	mu    sync.RWMutex
	users []entity.User
}

func NewDirectory(users ...entity.User) *Directory {
	return &Directory{users: slices.Clone(users)}
}

func (d *Directory) ListByRole(_ context.Context, role entity.Role) ([]entity.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := []entity.User{}
	for _, u := range d.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d *Directory) FindByID(_ context.Context, id string) (*entity.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, u := range d.users {
		if u.ID == id {
			found := u
			return &found, nil
		}
	}
	return nil, entity.ErrUserNotFound
}

// ParseUsers reads a comma separated list of id:role[:email[:specialty|specialty]]
// entries, e.g. "b1:buyer:b1@example.com:tenancy_law,ops:admin". Parsed users
// are active and opted in to email when they have an address.
func ParseUsers(list string) ([]entity.User, error) {
	var users []entity.User
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 4 {
			return nil, fmt.Errorf("memory: user %q must be id:role[:email[:specialties]]", entry)
		}
		u := entity.User{
			ID:     strings.TrimSpace(parts[0]),
			Name:   strings.TrimSpace(parts[0]),
			Role:   entity.Role(strings.TrimSpace(parts[1])),
			Active: true,
		}
		if u.ID == "" {
			return nil, fmt.Errorf("memory: user %q has no id", entry)
		}
		if u.Role != entity.RoleBuyer && u.Role != entity.RoleAdmin {
			return nil, fmt.Errorf("memory: user %q has unknown role %q", u.ID, u.Role)
		}
		if len(parts) > 2 {
			u.Email = strings.TrimSpace(parts[2])
			u.EmailOptIn = u.Email != ""
		}
		if len(parts) > 3 {
			for _, sp := range strings.Split(parts[3], "|") {
				if sp = strings.TrimSpace(sp); sp != "" {
					u.Specialties = append(u.Specialties, sp)
				}
			}
		}
		users = append(users, u)
	}
	return users, nil
}
