package cancel_appointment

import (
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
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgMissingUserID        = "отсутствует ID пользователя"
	msgAppointmentNotFound  = "запись не найдена"
	msgForbidden            = "доступ запрещен"
	msgCannotCancel         = "запись уже отменена или закрыта"
	msgReasonRequired       = "укажите причину отмены"
	msgInvalidInput         = "некорректные данные отмены"
)

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

// Handle PATCH /api/v1/appointments/{appointmentId}/cancel
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathInt64(r, "appointmentId")
	if err != nil {
		h.logger.Warn("PATCH /appointments/{id}/cancel - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		h.logger.Warn("PATCH /appointments/%d/cancel - Missing user ID", id)
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req models.CancelRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /appointments/%d/cancel - Invalid request body: %v", id, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	req.Caller = caller

	appointment, err := h.service.Cancel(r.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrAppointmentNotFound):
			h.logger.Warn("PATCH /appointments/%d/cancel - Appointment not found", id)
			handlers.RespondNotFound(w, msgAppointmentNotFound)

		case errors.Is(err, appointments.ErrAccessDenied):
			h.logger.Warn("PATCH /appointments/%d/cancel - Access denied: user_id=%d", id, caller.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, appointments.ErrCannotCancel):
			h.logger.Warn("PATCH /appointments/%d/cancel - Appointment cannot be cancelled", id)
			handlers.RespondConflict(w, msgCannotCancel)

		case errors.Is(err, appointments.ErrReasonRequired):
			h.logger.Warn("PATCH /appointments/%d/cancel - Missing cancellation reason", id)
			handlers.RespondBadRequest(w, msgReasonRequired)

		case errors.Is(err, domain.ErrValidation):
			h.logger.Warn("PATCH /appointments/%d/cancel - Invalid input: %v", id, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, domain.ErrTransientStore):
			h.logger.Warn("PATCH /appointments/%d/cancel - Store unavailable: %v", id, err)
			handlers.RespondServiceUnavailable(w)

		default:
			h.logger.Error("PATCH /appointments/%d/cancel - Failed to cancel appointment: %v", id, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /appointments/%d/cancel - Appointment cancelled successfully: user_id=%d", id, caller.UserID)
	handlers.RespondJSON(w, http.StatusOK, appointment)
}
