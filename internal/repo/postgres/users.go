package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ieeesb/interviewhub/internal/domain/user"
	"github.com/ieeesb/interviewhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = user.ErrNotFound

// officerColumns deliberately leaves password_hash out; reads that go
// to a response never touch the hash column.
const officerColumns = `id, name, role, station_id, station_name, location, type, contact_no, email, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// ListAccounts returns every admin and volunteer account.
func (r *UsersRepo) ListAccounts(ctx context.Context) ([]user.User, error) {
	return r.listByRoles(ctx, "users.list_accounts", []string{user.RoleAdmin, user.RoleVolunteer})
}

// ListVolunteers returns volunteer accounts only.
func (r *UsersRepo) ListVolunteers(ctx context.Context) ([]user.User, error) {
	return r.listByRoles(ctx, "users.list_volunteers", []string{user.RoleVolunteer})
}

func (r *UsersRepo) listByRoles(ctx context.Context, op string, roles []string) ([]user.User, error) {
	var users []user.User

	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+officerColumns+` FROM users WHERE role = ANY($1) ORDER BY created_at ASC, id ASC`,
			roles,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		users = make([]user.User, 0)

		for rows.Next() {
			var u user.User

			err = rows.Scan(
				&u.ID, &u.Name, &u.Role,
				&u.StationID, &u.StationName, &u.Location, &u.Type, &u.ContactNo,
				&u.Email, &u.CreatedAt, &u.UpdatedAt,
			)

			if err != nil {
				return err
			}

			users = append(users, u)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return users, nil
}

// GetByID fetches a single account with the password excluded.
func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT `+officerColumns+` FROM users WHERE id = $1`,
			id,
		).Scan(
			&u.ID, &u.Name, &u.Role,
			&u.StationID, &u.StationName, &u.Location, &u.Type, &u.ContactNo,
			&u.Email, &u.CreatedAt, &u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

// GetByEmail is the login lookup; it is the only read that returns the
// password hash.
func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT `+officerColumns+`, password_hash FROM users WHERE email = $1`,
			email,
		).Scan(
			&u.ID, &u.Name, &u.Role,
			&u.StationID, &u.StationName, &u.Location, &u.Type, &u.ContactNo,
			&u.Email, &u.CreatedAt, &u.UpdatedAt,
			&u.PasswordHash,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

// CreateTx inserts a new account inside a transaction. beforeCommit
// runs between the insert and the commit; if it returns an error the
// insert is rolled back and nothing is persisted.
func (r *UsersRepo) CreateTx(ctx context.Context, u user.User, beforeCommit func(user.User) error) (user.User, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return user.User{}, err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	err = r.observe("users.create", func() error {
		_, err := tx.Exec(ctx,
			`INSERT INTO users (id, name, role, station_id, station_name, location, type, contact_no, email, password_hash, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			u.ID, u.Name, u.Role,
			u.StationID, u.StationName, u.Location, u.Type, u.ContactNo,
			u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return user.User{}, err
	}

	if beforeCommit != nil {
		if err := beforeCommit(u); err != nil {
			return user.User{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return user.User{}, err
	}

	return u, nil
}

// Update applies a partial update; nil fields stay untouched. A
// password supplied here is written verbatim, this is not the
// password-change path.
func (r *UsersRepo) Update(ctx context.Context, id string, req user.UpdateUserRequest) error {
	var sets []string
	var args []interface{}

	argsPosition := 1

	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argsPosition))
		args = append(args, value)
		argsPosition++
	}

	if req.Name != nil {
		add("name", *req.Name)
	}
	if req.Role != nil {
		add("role", *req.Role)
	}
	if req.StationID != nil {
		add("station_id", *req.StationID)
	}
	if req.StationName != nil {
		add("station_name", *req.StationName)
	}
	if req.Location != nil {
		add("location", *req.Location)
	}
	if req.Type != nil {
		add("type", *req.Type)
	}
	if req.ContactNo != nil {
		add("contact_no", *req.ContactNo)
	}
	if req.Email != nil {
		add("email", *req.Email)
	}
	if req.Password != nil {
		add("password_hash", *req.Password)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = NOW()")

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(sets, ", "), argsPosition)
	args = append(args, id)

	return r.observe("users.update", func() error {
		_, err := r.pool.Exec(ctx, query, args...)
		return err
	})
}

func (r *UsersRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.observe("users.update_password", func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE users
			SET password_hash = $2, updated_at = NOW()
			WHERE id = $1
		`, id, passwordHash)

		return err
	})
}

// Delete removes the row if it exists. Deleting an unknown id is not an
// error; the caller reports success either way.
func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	return r.observe("users.delete", func() error {
		_, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		return err
	})
}
