package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ieeesb/interviewhub/internal/config"
	"github.com/ieeesb/interviewhub/internal/domain/panel"
	"github.com/ieeesb/interviewhub/internal/domain/user"
	"github.com/ieeesb/interviewhub/internal/mail"
	"github.com/ieeesb/interviewhub/internal/observability"
	"github.com/ieeesb/interviewhub/internal/realtime"
	"github.com/ieeesb/interviewhub/internal/security"
)

const (
	accountMailSubject = "IEEE Mock Interview Account"
	// TODO: switch to the new account's own address once the
	// coordinators confirm; every credential mail currently goes to
	// the coordinator inbox, exactly as the dashboard has always done.
	accountMailRecipient = "isuruariyarathne97@gmail.com"

	userDeletedMessage    = "User succesfully deleted"
	passwordChangedMsg    = "Password succesfully changed"
	passwordMismatchMsg   = "Passwords dont match"
	storeTimeout          = 3 * time.Second
	createTimeout         = 5 * time.Second
	credentialMailTimeout = 10 * time.Second
)

type UserStore interface {
	ListAccounts(ctx context.Context) ([]user.User, error)
	ListVolunteers(ctx context.Context) ([]user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	CreateTx(ctx context.Context, u user.User, beforeCommit func(user.User) error) (user.User, error)
	Update(ctx context.Context, id string, req user.UpdateUserRequest) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

type PanelStore interface {
	GetVolunteerByPanelID(ctx context.Context, panelID string) (panel.VolunteerPanel, error)
}

type UsersHandler struct {
	store       UserStore
	panels      PanelStore
	mailer      mail.Mailer
	broadcaster realtime.Broadcaster
	log         *slog.Logger
	prom        *observability.Prom
}

func NewUsersHandler(store UserStore, panels PanelStore, mailer mail.Mailer, broadcaster realtime.Broadcaster, log *slog.Logger, prom *observability.Prom) *UsersHandler {
	return &UsersHandler{
		store:       store,
		panels:      panels,
		mailer:      mailer,
		broadcaster: broadcaster,
		log:         log,
		prom:        prom,
	}
}

// GetUsers lists every admin and volunteer account, projected.
func (h *UsersHandler) GetUsers(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(storeTimeout)
	defer cancel()

	users, err := h.store.ListAccounts(cctx)

	if err != nil {
		RespondStorageError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, projectAll(users))
}

// GetUser fetches one account. A missing row is not an error here: the
// dashboard expects 200 with a null body, never a 404.
func (h *UsersHandler) GetUser(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(storeTimeout)
	defer cancel()

	u, err := h.store.GetByID(cctx, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			ctx.JSON(http.StatusOK, nil)
			return
		}

		RespondStorageError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, user.ToOfficer(u))
}

// GetVolunteers lists volunteer accounts only.
func (h *UsersHandler) GetVolunteers(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(storeTimeout)
	defer cancel()

	users, err := h.store.ListVolunteers(cctx)

	if err != nil {
		RespondStorageError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, projectAll(users))
}

// GetVolunteerOfPanel returns the volunteer assigned to a panel,
// flattened with the panel id through the officer projection.
func (h *UsersHandler) GetVolunteerOfPanel(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(storeTimeout)
	defer cancel()

	vp, err := h.panels.GetVolunteerByPanelID(cctx, ctx.Param("panelID"))

	if err != nil {
		if errors.Is(err, panel.ErrNotFound) {
			ctx.JSON(http.StatusOK, nil)
			return
		}

		RespondStorageError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, panel.Project(vp))
}

type createdOfficer struct {
	user.Officer
	// the generated plaintext, returned exactly once
	Password string `json:"password"`
}

// CreateUser provisions an account with a generated password. The row
// insert and the credential mail dispatch happen before the commit;
// the broadcast happens after, so subscribers never hear about a
// rolled-back account.
func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	var req user.CreateUserRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondCreateError(ctx, err)
		return
	}

	cctx, cancel := config.WithTimeout(createTimeout)
	defer cancel()

	plain, err := security.GeneratePassword()

	if err != nil {
		respondCreateError(ctx, err)
		return
	}

	hash, err := security.HashPassword(plain)

	if err != nil {
		respondCreateError(ctx, err)
		return
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Role:         req.Role,
		StationID:    req.StationID,
		StationName:  req.StationName,
		Location:     req.Location,
		Type:         req.Type,
		ContactNo:    req.ContactNo,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := h.store.CreateTx(cctx, u, func(inserted user.User) error {
		h.dispatchCredentialMail(plain)
		return nil
	})

	if err != nil {
		respondCreateError(ctx, err)
		return
	}

	officer := user.ToOfficer(created)

	h.broadcast(ctx.Request.Context(), "user", "post", officer)

	ctx.JSON(http.StatusOK, createdOfficer{Officer: officer, Password: plain})
}

// UpdateUser applies a partial update and returns the re-fetched,
// projected record.
func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	var req user.UpdateUserRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		RespondStorageError(ctx, err)
		return
	}

	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(storeTimeout)
	defer cancel()

	if err := h.store.Update(cctx, id, req); err != nil {
		RespondStorageError(ctx, err)
		return
	}

	u, err := h.store.GetByID(cctx, id)

	if err != nil {
		RespondStorageError(ctx, err)
		return
	}

	officer := user.ToOfficer(u)

	h.broadcast(ctx.Request.Context(), "user", "put", officer)

	ctx.JSON(http.StatusOK, officer)
}

// DeleteUser removes the account. There is no existence check:
// deleting an unknown id still reports success.
func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(storeTimeout)
	defer cancel()

	if err := h.store.Delete(cctx, id); err != nil {
		RespondStorageError(ctx, err)
		return
	}

	h.broadcast(ctx.Request.Context(), "user", "delete", gin.H{"id": id})

	ctx.String(http.StatusOK, userDeletedMessage)
}

// ChangePassword rehashes and stores a user-chosen password. Unlike
// create/update/delete it emits no broadcast.
func (h *UsersHandler) ChangePassword(ctx *gin.Context) {
	var req user.ChangePasswordRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		RespondStorageError(ctx, err)
		return
	}

	if req.NewPassword != req.ConfirmNewPassword {
		ctx.String(http.StatusBadRequest, passwordMismatchMsg)
		return
	}

	hash, err := security.HashPassword(req.NewPassword)

	if err != nil {
		RespondStorageError(ctx, err)
		return
	}

	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(storeTimeout)
	defer cancel()

	if err := h.store.UpdatePassword(cctx, id, hash); err != nil {
		RespondStorageError(ctx, err)
		return
	}

	// re-fetch kept for parity with the dashboard client; result unused
	if _, err := h.store.GetByID(cctx, id); err != nil && !errors.Is(err, user.ErrNotFound) {
		RespondStorageError(ctx, err)
		return
	}

	ctx.String(http.StatusOK, passwordChangedMsg)
}

// createUser is the one endpoint whose failures carry a structured
// body instead of a bare message string.
func respondCreateError(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, gin.H{
		"status":  http.StatusBadRequest,
		"message": err.Error(),
	})
}

func projectAll(users []user.User) []user.Officer {
	officers := make([]user.Officer, 0, len(users))

	for _, u := range users {
		officers = append(officers, user.ToOfficer(u))
	}

	return officers
}

// dispatchCredentialMail sends the one-time password without blocking
// the request; delivery is best effort and never fails the create.
func (h *UsersHandler) dispatchCredentialMail(plain string) {
	go func() {
		cctx, cancel := config.WithTimeout(credentialMailTimeout)
		defer cancel()

		err := h.mailer.SendAccountCredentials(cctx, accountMailSubject, plain, accountMailRecipient, mail.AccountCredentials{
			Email:    accountMailRecipient,
			Password: plain,
		})

		if h.prom != nil {
			h.prom.ObserveNotify("mail", err)
		}

		if err != nil {
			h.log.Error("credential mail failed", "err", err)
		}
	}()
}

func (h *UsersHandler) broadcast(ctx context.Context, event, action string, payload interface{}) {
	err := h.broadcaster.Publish(ctx, realtime.GroupAdmin, event, action, payload)

	if h.prom != nil {
		h.prom.ObserveNotify("broadcast", err)
	}

	if err != nil {
		h.log.Warn("broadcast failed", "event", event, "action", action, "err", err)
	}
}
