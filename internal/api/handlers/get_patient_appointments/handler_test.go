package get_patient_appointments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/MedAppointmentService/internal/api/middleware"
	"github.com/m04kA/MedAppointmentService/internal/domain"
	"github.com/m04kA/MedAppointmentService/internal/service/appointments"
	"github.com/m04kA/MedAppointmentService/internal/service/appointments/models"
	"github.com/m04kA/MedAppointmentService/pkg/logger"
)

type fakeService struct {
	got *models.ListPatientAppointmentsRequest
	err error
}

func (f *fakeService) ListByPatient(_ context.Context, req *models.ListPatientAppointmentsRequest) (*models.AppointmentListResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.AppointmentListResponse{
		Appointments: []models.AppointmentResponse{{ID: 1, PatientID: req.PatientID}},
	}, nil
}

func newRequest(target string, withCaller bool) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = mux.SetURLVars(req, map[string]string{"patientId": "500"})
	if withCaller {
		caller := domain.Caller{UserID: 500, Role: domain.RolePatient}
		req = req.WithContext(middleware.WithCaller(req.Context(), caller))
	}
	return req
}

func TestHandle_Filters(t *testing.T) {
	svc := &fakeService{}
	h := NewHandler(svc, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Handle(rec, newRequest("/api/v1/patients/500/appointments?status=cancelled&from=2026-03-01&to=2026-03-31&doctorProfileId=3", true))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.AppointmentListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Appointments, 1)

	require.NotNil(t, svc.got.Status)
	assert.Equal(t, "cancelled", *svc.got.Status)
	assert.Equal(t, "2026-03-01", svc.got.From.Format(domain.DateFormat))
	assert.Equal(t, "2026-03-31", svc.got.To.Format(domain.DateFormat))
	assert.Equal(t, int64(3), *svc.got.DoctorProfileID)
}

func TestHandle_NoFilters(t *testing.T) {
	svc := &fakeService{}
	h := NewHandler(svc, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Handle(rec, newRequest("/api/v1/patients/500/appointments", true))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, svc.got.Status)
	assert.Nil(t, svc.got.From)
	assert.Nil(t, svc.got.To)
	assert.Nil(t, svc.got.DoctorProfileID)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		withCaller bool
		err        error
		wantStatus int
	}{
		{"no identity", "/api/v1/patients/500/appointments", false, nil, http.StatusUnauthorized},
		{"bad from", "/api/v1/patients/500/appointments?from=yesterday", true, nil, http.StatusBadRequest},
		{"bad doctor", "/api/v1/patients/500/appointments?doctorProfileId=x", true, nil, http.StatusBadRequest},
		{"foreign", "/api/v1/patients/500/appointments", true, appointments.ErrAccessDenied, http.StatusForbidden},
		{"bad filter", "/api/v1/patients/500/appointments", true, appointments.ErrInvalidInput, http.StatusBadRequest},
		{"store unavailable", "/api/v1/patients/500/appointments", true, appointments.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{"internal", "/api/v1/patients/500/appointments", true, appointments.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeService{err: tt.err}, logger.NewNop())
			rec := httptest.NewRecorder()
			h.Handle(rec, newRequest(tt.target, tt.withCaller))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
