package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ieeesb/interviewhub/internal/config"
	"github.com/ieeesb/interviewhub/internal/domain/user"
	"github.com/ieeesb/interviewhub/internal/security"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureAdminUser makes the login endpoint usable on a fresh database.
// No-op unless ADMIN_EMAIL and ADMIN_PASSWORD are set.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	// check if the user exists

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, cfg.AdminEmail).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Name:         cfg.AdminName,
		Role:         user.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, name, role, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.CreatedAt, u.UpdatedAt,
	)

	return err
}
