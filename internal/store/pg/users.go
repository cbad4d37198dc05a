package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"careconnect.org/internal/auth"
	"careconnect.org/internal/ids"
)

var _ auth.UserStore = (*Store)(nil)

func (s *Store) CreateUser(ctx context.Context, u auth.User) (auth.User, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Email == "" || strings.TrimSpace(u.Name) == "" {
		return auth.User{}, auth.ErrInvalidInput
	}
	if !u.Role.Valid() {
		return auth.User{}, auth.ErrInvalidInput
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	u.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		insert into users(id, email, name, role, password_hash, created_at)
		values ($1,$2,$3,$4,$5,$6)
	`, u.ID, u.Email, u.Name, string(u.Role), u.PasswordHash, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return auth.User{}, auth.ErrAlreadyExists
		}
		return auth.User{}, err
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (auth.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return s.scanUser(s.db.QueryRowContext(ctx, `
		select id, email, name, role, password_hash, created_at
		from users where email=$1
	`, email))
}

func (s *Store) UserByID(ctx context.Context, id string) (auth.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		select id, email, name, role, password_hash, created_at
		from users where id=$1
	`, id))
}

func (s *Store) scanUser(row *sql.Row) (auth.User, error) {
	var u auth.User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, auth.ErrNotFound
	}
	if err != nil {
		return auth.User{}, err
	}
	u.Role = auth.Role(role)
	return u, nil
}
