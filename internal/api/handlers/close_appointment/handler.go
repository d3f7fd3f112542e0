package close_appointment

import (
	"context"
	"errors"
	"net/http"

	"github.com/m04kA/MedAppointmentService/internal/api/handlers"
	"github.com/m04kA/MedAppointmentService/internal/api/middleware"
	"github.com/m04kA/MedAppointmentService/internal/domain"
	"github.com/m04kA/MedAppointmentService/internal/service/appointments"
	"github.com/m04kA/MedAppointmentService/internal/service/appointments/models"
)

const (
	msgInvalidAppointmentID = "некорректный ID записи"
	msgMissingUserID        = "отсутствует ID пользователя"
	msgAppointmentNotFound  = "запись не найдена"
	msgForbidden            = "закрыть визит может только врач или администратор"
	msgCannotClose          = "запись уже отменена или закрыта"
	msgVisitNotStarted      = "визит еще не начался"
)

type closeFunc func(ctx context.Context, id int64, caller domain.Caller) (*models.AppointmentResponse, error)

type Handler struct {
	service AppointmentService
	logger  Logger
}

func NewHandler(service AppointmentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// HandleComplete PATCH /api/v1/appointments/{appointmentId}/complete
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "complete", h.service.MarkCompleted)
}

// HandleNoShow PATCH /api/v1/appointments/{appointmentId}/no-show
func (h *Handler) HandleNoShow(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "no-show", h.service.MarkNoShow)
}

func (h *Handler) handle(w http.ResponseWriter, r *http.Request, action string, closeVisit closeFunc) {
	id, err := handlers.PathInt64(r, "appointmentId")
	if err != nil {
		h.logger.Warn("PATCH /appointments/{id}/%s - Invalid appointment ID: %v", action, err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		h.logger.Warn("PATCH /appointments/%d/%s - Missing user ID", id, action)
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	appointment, err := closeVisit(r.Context(), id, caller)
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrAccessDenied):
			h.logger.Warn("PATCH /appointments/%d/%s - Access denied: user_id=%d, role=%s", id, action, caller.UserID, caller.Role)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, appointments.ErrAppointmentNotFound):
			h.logger.Warn("PATCH /appointments/%d/%s - Appointment not found", id, action)
			handlers.RespondNotFound(w, msgAppointmentNotFound)

		case errors.Is(err, appointments.ErrCannotClose):
			h.logger.Warn("PATCH /appointments/%d/%s - Appointment cannot be closed", id, action)
			handlers.RespondConflict(w, msgCannotClose)

		case errors.Is(err, appointments.ErrVisitNotStarted):
			h.logger.Warn("PATCH /appointments/%d/%s - Visit has not started", id, action)
			handlers.RespondBadRequest(w, msgVisitNotStarted)

		case errors.Is(err, domain.ErrTransientStore):
			h.logger.Warn("PATCH /appointments/%d/%s - Store unavailable: %v", id, action, err)
			handlers.RespondServiceUnavailable(w)

		default:
			h.logger.Error("PATCH /appointments/%d/%s - Failed to close visit: %v", id, action, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /appointments/%d/%s - Visit closed: status=%s, user_id=%d", id, action, appointment.Status, caller.UserID)
	handlers.RespondJSON(w, http.StatusOK, appointment)
}
