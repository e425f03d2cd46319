package postgres

import (
	"context"
	"errors"

	"github.com/ieeesb/interviewhub/internal/domain/panel"
	"github.com/ieeesb/interviewhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrPanelNotFound = panel.ErrNotFound

type PanelsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewPanelsRepo(pool *pgxpool.Pool, prom *observability.Prom) *PanelsRepo {
	return &PanelsRepo{pool: pool, prom: prom}
}

func (r *PanelsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// GetVolunteerByPanelID returns the panel row joined with its assigned
// volunteer, password excluded.
func (r *PanelsRepo) GetVolunteerByPanelID(ctx context.Context, panelID string) (panel.VolunteerPanel, error) {
	var vp panel.VolunteerPanel

	err := r.observe("panels.get_volunteer", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT vp.panel_id, vp.user_id,
				u.id, u.name, u.role, u.station_id, u.station_name, u.location, u.type, u.contact_no, u.email, u.created_at, u.updated_at
			FROM volunteer_panels vp
			JOIN users u ON u.id = vp.user_id
			WHERE vp.panel_id = $1
		`, panelID).Scan(
			&vp.PanelID, &vp.UserID,
			&vp.User.ID, &vp.User.Name, &vp.User.Role,
			&vp.User.StationID, &vp.User.StationName, &vp.User.Location, &vp.User.Type, &vp.User.ContactNo,
			&vp.User.Email, &vp.User.CreatedAt, &vp.User.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return panel.VolunteerPanel{}, ErrPanelNotFound
		}

		return panel.VolunteerPanel{}, err
	}

	return vp, nil
}
