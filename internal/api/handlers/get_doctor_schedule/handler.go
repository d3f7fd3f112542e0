package get_doctor_schedule

import (
	"errors"
	"net/http"

	"github.com/m04kA/MedAppointmentService/internal/api/handlers"
	"github.com/m04kA/MedAppointmentService/internal/domain"
	"github.com/m04kA/MedAppointmentService/internal/service/schedules"
)

const (
	msgInvalidDoctorID = "некорректный ID врача"
	msgDoctorNotFound  = "врач не найден"
)

type Handler struct {
	service ScheduleService
	logger  Logger
}

func NewHandler(service ScheduleService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/doctors/{doctorProfileId}/schedule
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	doctorID, err := handlers.PathInt64(r, "doctorProfileId")
	if err != nil {
		h.logger.Warn("GET /doctors/{id}/schedule - Invalid doctor ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDoctorID)
		return
	}

	schedule, err := h.service.GetDoctorSchedule(r.Context(), doctorID)
	if err != nil {
		switch {
		case errors.Is(err, schedules.ErrDoctorNotFound):
			h.logger.Warn("GET /doctors/%d/schedule - Doctor not found", doctorID)
			handlers.RespondNotFound(w, msgDoctorNotFound)

		case errors.Is(err, domain.ErrTransientStore):
			h.logger.Warn("GET /doctors/%d/schedule - Store unavailable: %v", doctorID, err)
			handlers.RespondServiceUnavailable(w)

		default:
			h.logger.Error("GET /doctors/%d/schedule - Failed to get schedule: %v", doctorID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /doctors/%d/schedule - Schedule retrieved successfully", doctorID)
	handlers.RespondJSON(w, http.StatusOK, schedule)
}
