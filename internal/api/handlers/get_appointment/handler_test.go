package get_appointment

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
	err error
}

func (f *fakeService) GetByID(_ context.Context, id int64, _ domain.Caller) (*models.AppointmentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.AppointmentResponse{ID: id, Status: string(domain.StatusScheduled)}, nil
}

func newRequest(id string, withCaller bool) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments/"+id, nil)
	req = mux.SetURLVars(req, map[string]string{"appointmentId": id})
	if withCaller {
		caller := domain.Caller{UserID: 500, Role: domain.RolePatient}
		req = req.WithContext(middleware.WithCaller(req.Context(), caller))
	}
	return req
}

func TestHandle(t *testing.T) {
	h := NewHandler(&fakeService{}, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Handle(rec, newRequest("42", true))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.AppointmentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(42), resp.ID)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		withCaller bool
		err        error
		wantStatus int
	}{
		{"zero id", "0", true, nil, http.StatusBadRequest},
		{"no identity", "42", false, nil, http.StatusUnauthorized},
		{"not found", "42", true, appointments.ErrAppointmentNotFound, http.StatusNotFound},
		{"foreign", "42", true, appointments.ErrAccessDenied, http.StatusForbidden},
		{"store", "42", true, appointments.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{"internal", "42", true, appointments.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeService{err: tt.err}, logger.NewNop())
			rec := httptest.NewRecorder()
			h.Handle(rec, newRequest(tt.id, tt.withCaller))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
