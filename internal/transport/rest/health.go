package rest

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/frahmantamala/fleet-backoffice/internal/transport"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
	DurationMs int64          `json:"duration_ms"`
}

// QueueStats reports how full the audit queue is.
type QueueStats interface {
	QueueDepth() (depth int, capacity int)
}

type HealthHandler struct {
	*transport.BaseHandler
	db    *sql.DB
	queue QueueStats
}

func NewHealthHandler(baseHandler *transport.BaseHandler, db *sql.DB, queue QueueStats) *HealthHandler {
	return &HealthHandler{BaseHandler: baseHandler, db: db, queue: queue}
}

// pingHandler only says the process is up.
func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// healthCheckHandler checks the database and the audit queue. A saturated
// queue degrades the service but does not fail readiness.
func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	components := map[string]CheckEntry{}
	if h.db != nil {
		components["postgres"] = h.checkDatabase(r.Context())
	}
	if h.queue != nil {
		components["audit_queue"] = h.checkQueue()
	}

	overall := HealthHealthy
	for _, c := range components {
		switch c.Status {
		case HealthUnhealthy:
			overall = HealthUnhealthy
		case HealthDegraded:
			if overall == HealthHealthy {
				overall = HealthDegraded
			}
		}
	}

	statusCode := http.StatusOK
	if overall == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	h.WriteJSON(w, statusCode, HealthResponse{
		Status:     overall,
		CheckedAt:  time.Now(),
		Components: components,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) CheckEntry {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.PingContext(ctx)

	entry := CheckEntry{
		Status:     HealthHealthy,
		CheckedAt:  time.Now(),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Status = HealthUnhealthy
		entry.Message = err.Error()
	}
	return entry
}

func (h *HealthHandler) checkQueue() CheckEntry {
	depth, capacity := h.queue.QueueDepth()
	entry := CheckEntry{
		Status:    HealthHealthy,
		CheckedAt: time.Now(),
		Details:   map[string]any{"depth": depth, "capacity": capacity},
	}
	if capacity > 0 && depth >= capacity {
		entry.Status = HealthDegraded
		entry.Message = "audit queue is full, new entries are dropped"
	}
	return entry
}
