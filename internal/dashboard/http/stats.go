package http

import (
	"net/http"

	"github.com/hollybot/dashboard/internal/dashboard/service"
	"github.com/hollybot/dashboard/pkg/httpx"
)

// StatsHandler serves the bot usage snapshot.
type StatsHandler struct {
	StatsService *service.StatsService
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.StatsService.Snapshot())
}
