package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/m04kA/MedAppointmentService/internal/api/handlers"
)

const (
	statusOK   = "ok"
	statusDown = "down"

	checkTimeout = 2 * time.Second
)

// Response статус сервиса и его зависимостей
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type Handler struct {
	checks map[string]Check
	logger Logger
}

func NewHandler(logger Logger) *Handler {
	return &Handler{
		checks: make(map[string]Check),
		logger: logger,
	}
}

// WithCheck регистрирует проверку зависимости для /readyz
func (h *Handler) WithCheck(name string, check Check) *Handler {
	h.checks[name] = check
	return h
}

// Live GET /healthz
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, Response{Status: statusOK})
}

// Ready GET /readyz
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := Response{Status: statusOK, Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.logger.Warn("GET /readyz - %s check failed: %v", name, err)
			resp.Checks[name] = statusDown
			resp.Status = statusDown
			continue
		}
		resp.Checks[name] = statusOK
	}

	if resp.Status != statusOK {
		handlers.RespondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, resp)
}
