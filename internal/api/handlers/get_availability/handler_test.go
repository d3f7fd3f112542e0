package get_availability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/MedAppointmentService/internal/domain"
	getAvailability "github.com/m04kA/MedAppointmentService/internal/usecase/get_availability"
	"github.com/m04kA/MedAppointmentService/pkg/logger"
)

type fakeUseCase struct {
	got  *getAvailability.Request
	resp *getAvailability.Response
	err  error
}

func (f *fakeUseCase) Execute(_ context.Context, req *getAvailability.Request) (*getAvailability.Response, error) {
	f.got = req
	return f.resp, f.err
}

func TestHandle(t *testing.T) {
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	uc := &fakeUseCase{resp: &getAvailability.Response{
		Date: monday,
		Slots: []domain.Slot{
			{DoctorProfileID: 1, SpecialtyID: 7, Date: monday, StartTime: "09:00", EndTime: "09:30"},
		},
	}}
	h := NewHandler(uc, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/availability?doctorProfileId=1&date=2026-03-02", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body AvailabilityResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Slots, 1)
	assert.Equal(t, "09:00", body.Slots[0].StartTime)
	assert.Equal(t, "2026-03-02", body.Date)
	assert.Equal(t, int64(1), *uc.got.DoctorProfileID)
	assert.Nil(t, uc.got.SpecialtyID)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		err        error
		wantStatus int
	}{
		{"missing filter", "?date=2026-03-02", nil, http.StatusBadRequest},
		{"bad doctor id", "?doctorProfileId=x&date=2026-03-02", nil, http.StatusBadRequest},
		{"missing date", "?specialtyId=7", nil, http.StatusBadRequest},
		{"bad date", "?specialtyId=7&date=02.03.2026", nil, http.StatusBadRequest},
		{"doctor not found", "?doctorProfileId=9&date=2026-03-02", getAvailability.ErrDoctorNotFound, http.StatusNotFound},
		{"store unavailable", "?specialtyId=7&date=2026-03-02", getAvailability.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{"internal", "?specialtyId=7&date=2026-03-02", getAvailability.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeUseCase{err: tt.err}, logger.NewNop())
			rec := httptest.NewRecorder()
			h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/availability"+tt.query, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
