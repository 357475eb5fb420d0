package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawprint/backend/pkg/response"
)

// Pinger reports reachability of a collaborator.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db  *pgxpool.Pool
	geo Pinger
}

func NewHealthHandler(db *pgxpool.Pool, geo Pinger) *HealthHandler {
	return &HealthHandler{db: db, geo: geo}
}

// Health reports basic liveness
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{"status": "ok"})
}

// Live reports process liveness
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{"status": "alive"})
}

// Ready reports whether the store and geo index are reachable
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"database": "ok", "geo_index": "ok"}
	healthy := true

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			checks["database"] = "unreachable"
			healthy = false
		}
	}
	if h.geo != nil {
		if err := h.geo.Ping(ctx); err != nil {
			checks["geo_index"] = "unreachable"
			healthy = false
		}
	}

	if !healthy {
		response.Error(w, http.StatusServiceUnavailable, "NOT_READY", "dependencies unreachable")
		return
	}
	response.OK(w, checks)
}
