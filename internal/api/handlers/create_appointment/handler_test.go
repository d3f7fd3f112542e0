package create_appointment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/MedAppointmentService/internal/api/handlers"
	"github.com/m04kA/MedAppointmentService/internal/api/middleware"
	"github.com/m04kA/MedAppointmentService/internal/domain"
	createAppointment "github.com/m04kA/MedAppointmentService/internal/usecase/create_appointment"
	"github.com/m04kA/MedAppointmentService/pkg/logger"
)

type fakeUseCase struct {
	got *createAppointment.Request
	err error
}

func (f *fakeUseCase) Execute(_ context.Context, req *createAppointment.Request) (*createAppointment.Response, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &createAppointment.Response{
		ID:              10,
		PatientID:       req.PatientID,
		DoctorProfileID: req.DoctorProfileID,
		SpecialtyID:     req.SpecialtyID,
		Date:            req.Date,
		StartTime:       req.StartTime,
		EndTime:         "10:30",
		Status:          string(domain.StatusScheduled),
		CreatedAt:       time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt:       time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}, nil
}

const body = `{"doctorProfileId":1,"specialtyId":7,"appointmentDate":"2026-03-02","startTime":"10:00"}`

func newRequest(body string, caller *domain.Caller) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
	if caller != nil {
		req = req.WithContext(middleware.WithCaller(req.Context(), *caller))
	}
	return req
}

func TestHandle_Created(t *testing.T) {
	uc := &fakeUseCase{}
	h := NewHandler(uc, logger.NewNop())
	caller := domain.Caller{UserID: 500, Role: domain.RolePatient}

	rec := httptest.NewRecorder()
	h.Handle(rec, newRequest(body, &caller))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp AppointmentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(10), resp.ID)
	assert.Equal(t, "2026-03-02", resp.AppointmentDate)
	assert.Equal(t, "SCHEDULED", resp.Status)

	// patientId по умолчанию берется из identity
	assert.Equal(t, int64(500), uc.got.PatientID)
	assert.Equal(t, caller, uc.got.Caller)
}

func TestHandle_Errors(t *testing.T) {
	patient := domain.Caller{UserID: 500, Role: domain.RolePatient}

	tests := []struct {
		name       string
		body       string
		caller     *domain.Caller
		err        error
		wantStatus int
		wantCode   string
	}{
		{"no identity", body, nil, nil, http.StatusUnauthorized, handlers.CodeUnauthorized},
		{"bad json", `{`, &patient, nil, http.StatusBadRequest, handlers.CodeValidation},
		{"bad date", strings.Replace(body, "2026-03-02", "tomorrow", 1), &patient, nil, http.StatusBadRequest, handlers.CodeValidation},
		{"bad time", strings.Replace(body, "10:00", "10am", 1), &patient, nil, http.StatusBadRequest, handlers.CodeValidation},
		{"slot taken", body, &patient, createAppointment.ErrSlotNotAvailable, http.StatusConflict, handlers.CodeConflict},
		{"misaligned", body, &patient, createAppointment.ErrInvalidTimeSlot, http.StatusBadRequest, handlers.CodeValidation},
		{"past", body, &patient, createAppointment.ErrPastDateTime, http.StatusBadRequest, handlers.CodeValidation},
		{"doctor missing", body, &patient, createAppointment.ErrDoctorNotFound, http.StatusNotFound, handlers.CodeNotFound},
		{"foreign patient", body, &patient, createAppointment.ErrAccessDenied, http.StatusForbidden, handlers.CodeForbidden},
		{"store timeout", body, &patient, createAppointment.ErrStoreUnavailable, http.StatusServiceUnavailable, handlers.CodeStoreUnavailable},
		{"internal", body, &patient, createAppointment.ErrInternal, http.StatusInternalServerError, handlers.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeUseCase{err: tt.err}, logger.NewNop())
			rec := httptest.NewRecorder()
			h.Handle(rec, newRequest(tt.body, tt.caller))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp handlers.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}
