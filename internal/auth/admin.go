package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/db"
)

var ErrAdminNotFound = apperr.NotFound("admin")

type Admin struct {
	ID           int64
	Username     string
	PasswordHash string
}

type AdminRepository interface {
	GetAdminByUsername(ctx context.Context, username string) (*Admin, error)
	InsertAdmin(ctx context.Context, a *Admin) error
}

type PgAdminRepository struct {
	q db.Querier
}

func NewPgAdminRepository(q db.Querier) *PgAdminRepository {
	return &PgAdminRepository{q: q}
}

func (r *PgAdminRepository) GetAdminByUsername(ctx context.Context, username string) (*Admin, error) {
	var a Admin
	err := r.q.QueryRow(ctx, `
		SELECT id, username, password_hash
		FROM admins
		WHERE username = $1
	`, username).Scan(&a.ID, &a.Username, &a.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *PgAdminRepository) InsertAdmin(ctx context.Context, a *Admin) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO admins (username, password_hash)
		VALUES ($1, $2)
		RETURNING id
	`, a.Username, a.PasswordHash).Scan(&a.ID)
	return db.MapError(err)
}
