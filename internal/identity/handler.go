package identity

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/accounthub/accounthub/internal/platform/httpx"
	"github.com/accounthub/accounthub/internal/shared"
)

// Handler wires the account management HTTP surface.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Post("/", h.createUser)
	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/", h.getUser)
		r.Post("/", h.updateUser)
		r.Post("/invite", h.inviteUser)
		r.Post("/reset_password", h.resetPassword)
		r.Post("/disable", h.disableUser)
		r.Delete("/disable", h.enableUser)
	})
}

type createUserRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required"`
}

type createUserResponse struct {
	PublicUser
	InviteLink string `json:"invite_link"`
	InviteSent bool   `json:"invite_sent"`
}

type inviteResponse struct {
	PublicUser
	InviteLink string `json:"invite_link"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	users, err := h.service.ListUsers(r.Context(), actor)
	if err != nil {
		h.respondError(w, "list users", err)
		return
	}
	out := make([]PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public(AdminOrOwner(actor, users[i].ID)))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "name and email are required")
		return
	}

	input := CreateInput{
		Name:  req.Name,
		Email: req.Email,
	}
	if _, ok := r.URL.Query()["no_invite"]; ok {
		input.SuppressInvite = true
	}

	result, err := h.service.CreateUser(r.Context(), actor, input)
	if err != nil {
		h.respondError(w, "create user", err)
		return
	}
	if result.DeliveryErr != nil {
		// The account exists; surface the failed delivery instead of
		// discarding the response.
		h.logger.Warn("invite delivery failed",
			slog.Int64("user_id", result.User.ID), slog.Any("error", result.DeliveryErr))
	}
	httpx.JSON(w, http.StatusCreated, createUserResponse{
		PublicUser: result.User.Public(true),
		InviteLink: result.InviteLink,
		InviteSent: !input.SuppressInvite && result.DeliveryErr == nil,
	})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	actor, targetID, ok := h.actorAndTarget(w, r)
	if !ok {
		return
	}
	user, err := h.service.GetUser(r.Context(), actor, targetID)
	if err != nil {
		h.respondError(w, "get user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user.Public(AdminOrOwner(actor, targetID)))
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	actor, targetID, ok := h.actorAndTarget(w, r)
	if !ok {
		return
	}
	var patch Patch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	user, err := h.service.UpdateUser(r.Context(), actor, targetID, patch)
	if err != nil {
		h.respondError(w, "update user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user.Public(AdminOrOwner(actor, targetID)))
}

func (h *Handler) inviteUser(w http.ResponseWriter, r *http.Request) {
	actor, targetID, ok := h.actorAndTarget(w, r)
	if !ok {
		return
	}
	result, err := h.service.InviteUser(r.Context(), actor, targetID)
	if err != nil {
		h.respondError(w, "invite user", err)
		return
	}
	if result.DeliveryErr != nil {
		h.respondError(w, "invite user", result.DeliveryErr)
		return
	}
	httpx.JSON(w, http.StatusOK, inviteResponse{
		PublicUser: result.User.Public(AdminOrOwner(actor, targetID)),
		InviteLink: result.InviteLink,
	})
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	actor, targetID, ok := h.actorAndTarget(w, r)
	if !ok {
		return
	}
	link, err := h.service.ResetPassword(r.Context(), actor, targetID)
	if err != nil {
		h.respondError(w, "reset password", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"reset_link": link})
}

func (h *Handler) disableUser(w http.ResponseWriter, r *http.Request) {
	actor, targetID, ok := h.actorAndTarget(w, r)
	if !ok {
		return
	}
	user, err := h.service.DisableUser(r.Context(), actor, targetID)
	if err != nil {
		h.respondError(w, "disable user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user.Public(AdminOrOwner(actor, targetID)))
}

func (h *Handler) enableUser(w http.ResponseWriter, r *http.Request) {
	actor, targetID, ok := h.actorAndTarget(w, r)
	if !ok {
		return
	}
	user, err := h.service.EnableUser(r.Context(), actor, targetID)
	if err != nil {
		h.respondError(w, "enable user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user.Public(AdminOrOwner(actor, targetID)))
}

func (h *Handler) actorAndTarget(w http.ResponseWriter, r *http.Request) (shared.Actor, int64, bool) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return shared.Actor{}, 0, false
	}
	targetID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || targetID <= 0 {
		httpx.RespondError(w, shared.ErrNotFound)
		return shared.Actor{}, 0, false
	}
	return actor, targetID, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if !isCallerError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func isCallerError(err error) bool {
	for _, sentinel := range []error{
		shared.ErrNotFound, shared.ErrUnauthorized, shared.ErrValidation,
		shared.ErrPreconditionFailed, shared.ErrConflict, shared.ErrDeliveryFailed,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
