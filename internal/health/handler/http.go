package handler

import (
	"database/sql"
	"net/http"

	"taskvault/backend/internal/server/httperr"
)

// HealthHandler reports process and database liveness.
type HealthHandler struct {
	db *sql.DB
}

// NewHealthHandler returns a HealthHandler. db may be nil; the database check
// is then skipped.
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Register adds the health route to mux.
func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.check)
}

func (h *HealthHandler) check(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			httperr.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
