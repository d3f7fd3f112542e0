package cancel_appointment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/MedAppointmentService/internal/api/handlers"
	"github.com/m04kA/MedAppointmentService/internal/api/middleware"
	"github.com/m04kA/MedAppointmentService/internal/domain"
	"github.com/m04kA/MedAppointmentService/internal/service/appointments"
	"github.com/m04kA/MedAppointmentService/internal/service/appointments/models"
	"github.com/m04kA/MedAppointmentService/pkg/logger"
)

type fakeService struct {
	got *models.CancelRequest
	err error
}

func (f *fakeService) Cancel(_ context.Context, id int64, req *models.CancelRequest) (*models.AppointmentResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	reason := req.CancellationReason
	return &models.AppointmentResponse{
		ID:                 id,
		Status:             string(domain.StatusCancelled),
		CancellationReason: &reason,
	}, nil
}

func newRequest(id, body string, withCaller bool) *http.Request {
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/appointments/"+id+"/cancel", strings.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"appointmentId": id})
	if withCaller {
		caller := domain.Caller{UserID: 500, Role: domain.RolePatient}
		req = req.WithContext(middleware.WithCaller(req.Context(), caller))
	}
	return req
}

func TestHandle(t *testing.T) {
	svc := &fakeService{}
	h := NewHandler(svc, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Handle(rec, newRequest("42", `{"cancellationReason":"заболел"}`, true))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.AppointmentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "CANCELLED", resp.Status)
	require.NotNil(t, resp.CancellationReason)
	assert.Equal(t, "заболел", *resp.CancellationReason)

	assert.Equal(t, int64(500), svc.got.Caller.UserID)
}

func TestHandle_Errors(t *testing.T) {
	const body = `{"cancellationReason":"x"}`

	tests := []struct {
		name       string
		body       string
		withCaller bool
		err        error
		wantStatus int
		wantCode   string
	}{
		{"no identity", body, false, nil, http.StatusUnauthorized, handlers.CodeUnauthorized},
		{"empty body", ``, true, nil, http.StatusBadRequest, handlers.CodeValidation},
		{"not found", body, true, appointments.ErrAppointmentNotFound, http.StatusNotFound, handlers.CodeNotFound},
		{"foreign", body, true, appointments.ErrAccessDenied, http.StatusForbidden, handlers.CodeForbidden},
		{"already cancelled", body, true, appointments.ErrCannotCancel, http.StatusConflict, handlers.CodeConflict},
		{"no reason", body, true, appointments.ErrReasonRequired, http.StatusBadRequest, handlers.CodeValidation},
		{"store", body, true, appointments.ErrStoreUnavailable, http.StatusServiceUnavailable, handlers.CodeStoreUnavailable},
		{"internal", body, true, appointments.ErrInternal, http.StatusInternalServerError, handlers.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeService{err: tt.err}, logger.NewNop())
			rec := httptest.NewRecorder()
			h.Handle(rec, newRequest("42", tt.body, tt.withCaller))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp handlers.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}
