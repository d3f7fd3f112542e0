package get_availability

import (
	"errors"
	"net/http"

	"github.com/m04kA/MedAppointmentService/internal/api/handlers"
	"github.com/m04kA/MedAppointmentService/internal/domain"
	getAvailability "github.com/m04kA/MedAppointmentService/internal/usecase/get_availability"
)

const (
	msgInvalidDoctorID    = "некорректный ID врача"
	msgInvalidSpecialtyID = "некорректный ID специальности"
	msgMissingFilter      = "нужно указать doctorProfileId или specialtyId"
	msgMissingDate        = "дата обязательна"
	msgInvalidDate        = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgDoctorNotFound     = "врач не найден"
	msgInvalidInput       = "некорректные параметры запроса"
)

type Handler struct {
	useCase GetAvailabilityUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailabilityUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/availability
// Query params: doctorProfileId и/или specialtyId, date (required, YYYY-MM-DD)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	doctorID, err := handlers.QueryInt64(r, "doctorProfileId")
	if err != nil {
		h.logger.Warn("GET /availability - Invalid doctor ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDoctorID)
		return
	}

	specialtyID, err := handlers.QueryInt64(r, "specialtyId")
	if err != nil {
		h.logger.Warn("GET /availability - Invalid specialty ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSpecialtyID)
		return
	}

	if doctorID == nil && specialtyID == nil {
		h.logger.Warn("GET /availability - Missing doctor and specialty")
		handlers.RespondBadRequest(w, msgMissingFilter)
		return
	}

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		h.logger.Warn("GET /availability - Missing date")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	useCaseReq, err := ToUseCaseRequest(doctorID, specialtyID, dateStr)
	if err != nil {
		h.logger.Warn("GET /availability - Invalid date format: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, getAvailability.ErrDoctorNotFound):
			h.logger.Warn("GET /availability - Doctor not found: %v", err)
			handlers.RespondNotFound(w, msgDoctorNotFound)

		case errors.Is(err, domain.ErrValidation):
			h.logger.Warn("GET /availability - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, domain.ErrTransientStore):
			h.logger.Warn("GET /availability - Store unavailable: %v", err)
			handlers.RespondServiceUnavailable(w)

		default:
			h.logger.Error("GET /availability - Failed to get availability: date=%s, error=%v", dateStr, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /availability - Found %d free slots on %s", len(result.Slots), dateStr)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
