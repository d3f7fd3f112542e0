package get_patient_appointments

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/MedAppointmentService/internal/api/handlers"
	"github.com/m04kA/MedAppointmentService/internal/api/middleware"
	"github.com/m04kA/MedAppointmentService/internal/domain"
	"github.com/m04kA/MedAppointmentService/internal/service/appointments"
	"github.com/m04kA/MedAppointmentService/internal/service/appointments/models"
)

const (
	msgInvalidPatientID = "некорректный ID пациента"
	msgInvalidDoctorID  = "некорректный ID врача"
	msgInvalidPeriod    = "некорректный формат периода, ожидается YYYY-MM-DD"
	msgMissingUserID    = "отсутствует ID пользователя"
	msgForbidden        = "доступ запрещен"
	msgInvalidFilter    = "некорректные параметры фильтра"
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

// Handle GET /api/v1/patients/{patientId}/appointments
// Query params: status, from, to (YYYY-MM-DD), doctorProfileId (все опциональны)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	patientID, err := handlers.PathInt64(r, "patientId")
	if err != nil {
		h.logger.Warn("GET /patients/{id}/appointments - Invalid patient ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidPatientID)
		return
	}

	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		h.logger.Warn("GET /patients/%d/appointments - Missing user ID", patientID)
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	req := &models.ListPatientAppointmentsRequest{
		Caller:    caller,
		PatientID: patientID,
	}

	query := r.URL.Query()
	if status := query.Get("status"); status != "" {
		req.Status = &status
	}

	if req.From, err = parseDate(query.Get("from")); err != nil {
		h.logger.Warn("GET /patients/%d/appointments - Invalid from: %v", patientID, err)
		handlers.RespondBadRequest(w, msgInvalidPeriod)
		return
	}
	if req.To, err = parseDate(query.Get("to")); err != nil {
		h.logger.Warn("GET /patients/%d/appointments - Invalid to: %v", patientID, err)
		handlers.RespondBadRequest(w, msgInvalidPeriod)
		return
	}

	if req.DoctorProfileID, err = handlers.QueryInt64(r, "doctorProfileId"); err != nil {
		h.logger.Warn("GET /patients/%d/appointments - Invalid doctor ID: %v", patientID, err)
		handlers.RespondBadRequest(w, msgInvalidDoctorID)
		return
	}

	result, err := h.service.ListByPatient(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrAccessDenied):
			h.logger.Warn("GET /patients/%d/appointments - Access denied: user_id=%d", patientID, caller.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, domain.ErrValidation):
			h.logger.Warn("GET /patients/%d/appointments - Invalid filter: %v", patientID, err)
			handlers.RespondBadRequest(w, msgInvalidFilter)

		case errors.Is(err, domain.ErrTransientStore):
			h.logger.Warn("GET /patients/%d/appointments - Store unavailable: %v", patientID, err)
			handlers.RespondServiceUnavailable(w)

		default:
			h.logger.Error("GET /patients/%d/appointments - Failed to list appointments: %v", patientID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /patients/%d/appointments - Found %d appointments", patientID, len(result.Appointments))
	handlers.RespondJSON(w, http.StatusOK, result)
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	date, err := time.Parse(domain.DateFormat, raw)
	if err != nil {
		return nil, err
	}
	return &date, nil
}
