package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"taskvault/backend/internal/audit"
	"taskvault/backend/internal/platform/rbac"
	"taskvault/backend/internal/server/httperr"
	"taskvault/backend/internal/user/domain"
	"taskvault/backend/internal/user/service"
)

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	IsActive  bool      `json:"is_active"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		IsActive:  u.IsActive,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type createUserRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type updateUserRequest struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

// UserHandler serves registration and profile endpoints.
type UserHandler struct {
	users *service.Service
	audit audit.AuditLogger
}

// NewUserHandler returns a UserHandler with the given dependencies.
func NewUserHandler(users *service.Service, auditLogger audit.AuditLogger) *UserHandler {
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	return &UserHandler{users: users, audit: auditLogger}
}

// RegisterPublic adds the unauthenticated registration route to mux.
func (h *UserHandler) RegisterPublic(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/users", h.create)
}

// RegisterProtected adds the authenticated profile routes to mux. The caller
// wraps mux with the bearer auth middleware.
func (h *UserHandler) RegisterProtected(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/users/me", h.readMe)
	mux.HandleFunc("PUT /api/users/me", h.updateMe)
	mux.HandleFunc("GET /api/users/all", h.listAll)
}

// create registers a new user. The requested role is not honored: public
// registration always produces a regular user; admins come from the
// bootstrap path or an admin-driven role update.
func (h *UserHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Write(w, httperr.Validation("malformed request body"))
		return
	}
	u, err := h.users.Create(r.Context(), req.Email, req.Username, req.Password, domain.RoleUser)
	if err != nil {
		writeUserError(w, err)
		return
	}
	h.audit.LogEvent(r.Context(), u.ID, audit.ActionUserRegistered, "users", u.Email)
	httperr.WriteJSON(w, http.StatusCreated, toUserResponse(u))
}

// readMe returns the acting identity's profile.
func (h *UserHandler) readMe(w http.ResponseWriter, r *http.Request) {
	ident, err := rbac.RequireActive(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}
	u, err := h.users.Get(r.Context(), ident.ID)
	if err != nil {
		writeUserError(w, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

// updateMe updates the acting identity's profile. Role and active-state
// changes from non-admins are dropped by the service.
func (h *UserHandler) updateMe(w http.ResponseWriter, r *http.Request) {
	ident, err := rbac.RequireActive(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Write(w, httperr.Validation("malformed request body"))
		return
	}
	actor, err := h.users.Get(r.Context(), ident.ID)
	if err != nil {
		writeUserError(w, err)
		return
	}
	params := service.UpdateParams{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		IsActive: req.IsActive,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		params.Role = &role
	}
	u, err := h.users.Update(r.Context(), actor, ident.ID, params)
	if err != nil {
		writeUserError(w, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

// listAll returns all users, admin only.
func (h *UserHandler) listAll(w http.ResponseWriter, r *http.Request) {
	if _, err := rbac.RequireAdmin(r.Context()); err != nil {
		httperr.Write(w, err)
		return
	}
	limit, offset := pagination(r)
	users, err := h.users.List(r.Context(), limit, offset)
	if err != nil {
		writeUserError(w, err)
		return
	}
	out := make([]userResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	httperr.WriteJSON(w, http.StatusOK, out)
}

func pagination(r *http.Request) (limit, offset int32) {
	limit, offset = 100, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			limit = int32(n)
		}
	}
	if v := r.URL.Query().Get("skip"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			offset = int32(n)
		}
	}
	return limit, offset
}

// writeUserError maps user service errors to classified HTTP errors.
func writeUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		httperr.Write(w, httperr.Validation(err.Error()))
	case errors.Is(err, service.ErrEmailAlreadyRegistered),
		errors.Is(err, service.ErrUsernameTaken):
		httperr.Write(w, httperr.BadRequest(err.Error()))
	case errors.Is(err, service.ErrUserNotFound):
		httperr.Write(w, httperr.NotFound("User not found"))
	default:
		log.Printf("users: %v", err)
		httperr.Write(w, httperr.Internal("An unexpected error occurred"))
	}
}
