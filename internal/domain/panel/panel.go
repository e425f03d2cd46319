package panel

import (
	"errors"

	"github.com/ieeesb/interviewhub/internal/domain/user"
)

var ErrNotFound = errors.New("panel not found")

// VolunteerPanel links an interview panel to the volunteer assigned to
// it. Panels are created elsewhere; this service only reads them.
type VolunteerPanel struct {
	PanelID string    `json:"panelID"`
	UserID  string    `json:"userID"`
	User    user.User `json:"user"`
}

// PanelVolunteer is the joined record projected for responses: the
// panel identifier flattened together with the volunteer's officer
// projection, password excluded.
type PanelVolunteer struct {
	PanelID string `json:"panelID"`
	user.Officer
}

// Project flattens a panel row and its volunteer through the officer
// projection.
func Project(vp VolunteerPanel) PanelVolunteer {
	return PanelVolunteer{
		PanelID: vp.PanelID,
		Officer: user.ToOfficer(vp.User),
	}
}
