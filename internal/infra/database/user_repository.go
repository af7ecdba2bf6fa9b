package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/xavierca1/lead-marketplace/internal/entity"
)

// UserRepository reads the directory table maintained by the identity service.
type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, name, email, role, active, email_opt_in, specialties`

func (r *UserRepository) ListByRole(ctx context.Context, role entity.Role) ([]entity.User, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY id`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []entity.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	u, err := scanUser(conn(ctx, r.DB).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrUserNotFound
	}
	return u, err
}

func scanUser(row rowScanner) (*entity.User, error) {
	var (
		u           entity.User
		role        string
		specialties pq.StringArray
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &u.Active, &u.EmailOptIn, &specialties); err != nil {
		return nil, err
	}
	u.Role = entity.Role(role)
	u.Specialties = []string(specialties)
	return &u, nil
}
