package user

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("user not found")

// Account roles as stored. "Volunteer" is capitalised in the data set
// the frontend was built against, so it stays that way here.
const (
	RoleAdmin     = "admin"
	RoleVolunteer = "Volunteer"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	StationID    *string   `json:"stationID"`
	StationName  *string   `json:"stationName"`
	Location     *string   `json:"location"`
	Type         *string   `json:"type"`
	ContactNo    *string   `json:"contactNo"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Officer is the external shape every user-facing response uses.
// It has no password field at all, so a projected record cannot leak
// the hash no matter how it is serialised.
type Officer struct {
	OfficerID   string  `json:"officerID"`
	Name        string  `json:"name"`
	Role        string  `json:"role"`
	StationID   *string `json:"stationID"`
	StationName *string `json:"stationName"`
	Location    *string `json:"location"`
	Type        *string `json:"type"`
	ContactNo   *string `json:"contactNo"`
}

// ToOfficer projects a stored user into the external officer shape.
// Pure field renaming/selection, no side effects.
func ToOfficer(u User) Officer {
	return Officer{
		OfficerID:   u.ID,
		Name:        u.Name,
		Role:        u.Role,
		StationID:   u.StationID,
		StationName: u.StationName,
		Location:    u.Location,
		Type:        u.Type,
		ContactNo:   u.ContactNo,
	}
}

// CreateUserRequest carries the fields a new account starts with.
// The password is never part of the request; it is generated server
// side and mailed out.
type CreateUserRequest struct {
	Name        string  `json:"name"`
	Role        string  `json:"role"`
	StationID   *string `json:"stationID"`
	StationName *string `json:"stationName"`
	Location    *string `json:"location"`
	Type        *string `json:"type"`
	ContactNo   *string `json:"contactNo"`
	Email       string  `json:"email"`
}

// UpdateUserRequest is a partial update; nil means "leave unchanged".
// Password is written as-is when present. This endpoint is not the
// password-change path and performs no hashing.
type UpdateUserRequest struct {
	Name        *string `json:"name"`
	Role        *string `json:"role"`
	StationID   *string `json:"stationID"`
	StationName *string `json:"stationName"`
	Location    *string `json:"location"`
	Type        *string `json:"type"`
	ContactNo   *string `json:"contactNo"`
	Email       *string `json:"email"`
	Password    *string `json:"password"`
}

type ChangePasswordRequest struct {
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}
