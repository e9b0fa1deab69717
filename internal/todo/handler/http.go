package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"taskvault/backend/internal/platform/rbac"
	"taskvault/backend/internal/server/httperr"
	"taskvault/backend/internal/todo/domain"
	"taskvault/backend/internal/todo/service"
)

type todoResponse struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toTodoResponse(t *domain.Todo) todoResponse {
	return todoResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type createTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type updateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// TodoHandler serves the owner-scoped todo CRUD endpoints.
type TodoHandler struct {
	todos *service.Service
}

// NewTodoHandler returns a TodoHandler backed by the given service.
func NewTodoHandler(todos *service.Service) *TodoHandler {
	return &TodoHandler{todos: todos}
}

// RegisterProtected adds the todo routes to mux. The caller wraps mux with
// the bearer auth middleware.
func (h *TodoHandler) RegisterProtected(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/todos", h.list)
	mux.HandleFunc("POST /api/todos", h.create)
	mux.HandleFunc("GET /api/todos/{id}", h.read)
	mux.HandleFunc("PUT /api/todos/{id}", h.update)
	mux.HandleFunc("DELETE /api/todos/{id}", h.delete)
}

func (h *TodoHandler) list(w http.ResponseWriter, r *http.Request) {
	ident, err := rbac.RequireActive(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}
	limit, offset := pagination(r)
	todos, err := h.todos.ListByUser(r.Context(), ident.ID, limit, offset)
	if err != nil {
		writeTodoError(w, err)
		return
	}
	out := make([]todoResponse, len(todos))
	for i, t := range todos {
		out[i] = toTodoResponse(t)
	}
	httperr.WriteJSON(w, http.StatusOK, out)
}

func (h *TodoHandler) create(w http.ResponseWriter, r *http.Request) {
	ident, err := rbac.RequireActive(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}
	var req createTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Write(w, httperr.Validation("malformed request body"))
		return
	}
	t, err := h.todos.Create(r.Context(), ident.ID, req.Title, req.Description)
	if err != nil {
		writeTodoError(w, err)
		return
	}
	httperr.WriteJSON(w, http.StatusCreated, toTodoResponse(t))
}

func (h *TodoHandler) read(w http.ResponseWriter, r *http.Request) {
	t, err := h.fetchOwned(r)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, toTodoResponse(t))
}

func (h *TodoHandler) update(w http.ResponseWriter, r *http.Request) {
	t, err := h.fetchOwned(r)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	var req updateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Write(w, httperr.Validation("malformed request body"))
		return
	}
	updated, err := h.todos.Update(r.Context(), t.ID, service.UpdateParams{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		writeTodoError(w, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, toTodoResponse(updated))
}

func (h *TodoHandler) delete(w http.ResponseWriter, r *http.Request) {
	t, err := h.fetchOwned(r)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	if err := h.todos.Delete(r.Context(), t.ID); err != nil {
		writeTodoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fetchOwned resolves the {id} path parameter to a todo and enforces the
// ownership guard: the fetched resource must belong to the acting identity.
func (h *TodoHandler) fetchOwned(r *http.Request) (*domain.Todo, error) {
	actor, err := rbac.RequireActive(r.Context())
	if err != nil {
		return nil, err
	}
	id, perr := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if perr != nil {
		return nil, httperr.Validation("invalid todo id")
	}
	t, err := h.todos.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrTodoNotFound) {
			return nil, httperr.NotFound("Todo not found")
		}
		log.Printf("todos: %v", err)
		return nil, httperr.Internal("An unexpected error occurred")
	}
	if err := rbac.RequireOwner(actor, t.UserID); err != nil {
		return nil, err
	}
	return t, nil
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

// writeTodoError maps todo service errors to classified HTTP errors.
func writeTodoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		httperr.Write(w, httperr.Validation(err.Error()))
	case errors.Is(err, service.ErrTodoNotFound):
		httperr.Write(w, httperr.NotFound("Todo not found"))
	default:
		log.Printf("todos: %v", err)
		httperr.Write(w, httperr.Internal("An unexpected error occurred"))
	}
}
