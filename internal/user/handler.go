package user

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/raffops/auth-management/internal"
	"github.com/raffops/auth-management/internal/auth"
	"github.com/raffops/auth-management/internal/transport"
	"github.com/raffops/auth-management/pkg/logger"
)

type ServiceAPI interface {
	List() ([]*User, error)
	GetByID(id int64) (*User, error)
	Create(dto CreateUserDTO) (*User, error)
	UpdateGroups(id int64, dto PatchGroupsDTO) (*User, error)
	UpdateStatus(id int64, dto PatchStatusDTO) (*User, error)
	UpdateAvatar(id int64, dto PatchAvatarDTO, actor *auth.User) (*User, error)
	UpdatePassword(id int64, dto PatchPasswordDTO) error
}

type Handler struct {
	*transport.BaseHandler
	Service    ServiceAPI
	Authorizer *auth.Authorizer
}

func NewHandler(svc ServiceAPI, authorizer *auth.Authorizer) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		Authorizer:  authorizer,
	}
}

func (h *Handler) idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// List handles GET /usuarios.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.List()
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, users)
}

// Get handles GET /usuarios/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	u, err := h.Service.GetByID(id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

// Me handles GET /usuarios/me. The active-user guard resolves the session and
// places the identity in the request context.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok || actor == nil {
		h.WriteAppError(w, internal.ErrMissingCredentials)
		return
	}

	u, err := h.Service.GetByID(actor.ID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

// Create handles POST /usuarios.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreateUserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.Service.Create(dto)
	if err != nil {
		if vErr, ok := err.(ValidationError); ok {
			h.WriteError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		h.WriteAppError(w, err)
		return
	}

	h.Logger.Info("user registered",
		"username", created.Username,
		"actor", internal.UsernameFromContext(r.Context()))
	h.WriteJSON(w, http.StatusCreated, created)
}

// PatchGroups handles PATCH /usuarios/{id}/grupos, replacing the membership
// list wholesale.
func (h *Handler) PatchGroups(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var dto PatchGroupsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.Service.UpdateGroups(id, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, updated)
}

// PatchStatus handles PATCH /usuarios/{id}/status. Runs behind the superuser
// guard.
func (h *Handler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var dto PatchStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.Service.UpdateStatus(id, dto)
	if err != nil {
		if vErr, ok := err.(ValidationError); ok {
			h.WriteError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, updated)
}

// PatchAvatar handles PATCH /usuarios/{id}/avatar. The acting user comes from
// the active-user guard; the service enforces the owner-or-wildcard rule.
func (h *Handler) PatchAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	actor, ok := auth.UserFromContext(r.Context())
	if !ok || actor == nil {
		h.WriteAppError(w, internal.ErrMissingCredentials)
		return
	}

	var dto PatchAvatarDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.Service.UpdateAvatar(id, dto, actor)
	if err != nil {
		if vErr, ok := err.(ValidationError); ok {
			h.WriteError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, updated)
}

// PatchPassword handles PATCH /usuarios/{id}/senha. Authorization accepts
// either a pwd_reset token naming the target or the target's own session, so
// this route is not behind the active-user guard.
func (h *Handler) PatchPassword(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	target, err := h.Service.GetByID(id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	if appErr := h.Authorizer.AuthorizePasswordChange(r, &auth.User{
		ID:       target.ID,
		Username: target.Username,
	}); appErr != nil {
		h.Logger.Warn("password change denied", "user_id", id, "code", appErr.Code)
		h.WriteAppError(w, appErr)
		return
	}

	var dto PatchPasswordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.UpdatePassword(id, dto); err != nil {
		if vErr, ok := err.(ValidationError); ok {
			h.WriteError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		h.WriteAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
