package get_doctor_appointments

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/m04kA/MedAppointmentService/internal/api/handlers"
	"github.com/m04kA/MedAppointmentService/internal/api/middleware"
	"github.com/m04kA/MedAppointmentService/internal/domain"
	"github.com/m04kA/MedAppointmentService/internal/service/appointments"
	"github.com/m04kA/MedAppointmentService/internal/service/appointments/models"
)

const (
	msgInvalidDoctorID        = "некорректный ID врача"
	msgInvalidDate            = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidIncludeInactive = "includeInactive должен быть true или false"
	msgMissingUserID          = "отсутствует ID пользователя"
	msgForbidden              = "расписание записей доступно только персоналу"
	msgInvalidInput           = "некорректные параметры запроса"
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

// Handle GET /api/v1/doctors/{doctorProfileId}/appointments
// Query params: date (YYYY-MM-DD, optional), includeInactive (optional)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	doctorID, err := handlers.PathInt64(r, "doctorProfileId")
	if err != nil {
		h.logger.Warn("GET /doctors/{id}/appointments - Invalid doctor ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDoctorID)
		return
	}

	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		h.logger.Warn("GET /doctors/%d/appointments - Missing user ID", doctorID)
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	req := &models.ListDoctorAppointmentsRequest{
		Caller:          caller,
		DoctorProfileID: doctorID,
	}

	query := r.URL.Query()
	if dateStr := query.Get("date"); dateStr != "" {
		date, err := time.Parse(domain.DateFormat, dateStr)
		if err != nil {
			h.logger.Warn("GET /doctors/%d/appointments - Invalid date format: %v", doctorID, err)
			handlers.RespondBadRequest(w, msgInvalidDate)
			return
		}
		req.Date = &date
	}

	if raw := query.Get("includeInactive"); raw != "" {
		if req.IncludeInactive, err = strconv.ParseBool(raw); err != nil {
			h.logger.Warn("GET /doctors/%d/appointments - Invalid includeInactive: %v", doctorID, err)
			handlers.RespondBadRequest(w, msgInvalidIncludeInactive)
			return
		}
	}

	result, err := h.service.ListByDoctor(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrAccessDenied):
			h.logger.Warn("GET /doctors/%d/appointments - Access denied: user_id=%d, role=%s", doctorID, caller.UserID, caller.Role)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, domain.ErrValidation):
			h.logger.Warn("GET /doctors/%d/appointments - Invalid input: %v", doctorID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, domain.ErrTransientStore):
			h.logger.Warn("GET /doctors/%d/appointments - Store unavailable: %v", doctorID, err)
			handlers.RespondServiceUnavailable(w)

		default:
			h.logger.Error("GET /doctors/%d/appointments - Failed to list appointments: %v", doctorID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /doctors/%d/appointments - Found %d appointments", doctorID, len(result.Appointments))
	handlers.RespondJSON(w, http.StatusOK, result)
}
