package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/foundernet/chat-server-go/internal/config"
	"github.com/foundernet/chat-server-go/internal/realtime"
)

// PingFunc checks a dependency; nil means the dependency is not configured.
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	dbPing    PingFunc
	redisPing PingFunc
	registry  *realtime.Registry
}

func NewHealthHandler(dbPing, redisPing PingFunc, registry *realtime.Registry) *HealthHandler {
	return &HealthHandler{
		dbPing:    dbPing,
		redisPing: redisPing,
		registry:  registry,
	}
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
	Database  string `json:"database"`
	Redis     string `json:"redis"`
	Rooms     int    `json:"rooms"`
	Clients   int    `json:"clients"`
}

// GET /health
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), config.DBPingTimeout)
	defer cancel()

	resp := healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UnixMilli(),
		Database:  check(ctx, h.dbPing, "memory"),
		Redis:     check(ctx, h.redisPing, "disabled"),
	}
	if h.registry != nil {
		resp.Rooms = h.registry.RoomCount()
		resp.Clients = h.registry.TotalClients()
	}

	status := http.StatusOK
	if resp.Database == "disconnected" {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}

func check(ctx context.Context, ping PingFunc, unconfigured string) string {
	if ping == nil {
		return unconfigured
	}
	if err := ping(ctx); err != nil {
		return "disconnected"
	}
	return "connected"
}
