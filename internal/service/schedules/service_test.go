package schedules

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/MedAppointmentService/internal/domain"
	"github.com/m04kA/MedAppointmentService/internal/testutil/memstore"
	"github.com/m04kA/MedAppointmentService/pkg/logger"
)

func TestGetDoctorSchedule(t *testing.T) {
	store := memstore.New()
	store.AddDoctor(domain.DoctorProfile{ID: 1, SpecialtyID: 7, IsActive: true})
	store.AddDoctor(domain.DoctorProfile{ID: 2, SpecialtyID: 7, IsActive: false})
	store.AddTemplate(domain.ScheduleTemplate{
		ID: 3, DoctorProfileID: 1, DayOfWeek: time.Sunday,
		StartTime: "10:00", EndTime: "12:00", SlotDurationMinutes: 60,
	})
	store.AddTemplate(domain.ScheduleTemplate{
		ID: 2, DoctorProfileID: 1, DayOfWeek: time.Monday,
		StartTime: "14:00", EndTime: "16:10", SlotDurationMinutes: 30,
	})
	store.AddTemplate(domain.ScheduleTemplate{
		ID: 1, DoctorProfileID: 1, DayOfWeek: time.Monday,
		StartTime: "09:00", EndTime: "13:00", SlotDurationMinutes: 30,
	})

	svc := NewService(store, logger.NewNop())

	resp, err := svc.GetDoctorSchedule(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, resp.Templates, 3)
	assert.Equal(t, int64(7), resp.SpecialtyID)
	assert.Equal(t, []int64{1, 2, 3}, []int64{resp.Templates[0].ID, resp.Templates[1].ID, resp.Templates[2].ID})
	assert.Equal(t, "Monday", resp.Templates[0].DayName)
	assert.Equal(t, 8, resp.Templates[0].SlotsPerDay)
	assert.Equal(t, 4, resp.Templates[1].SlotsPerDay)

	_, err = svc.GetDoctorSchedule(context.Background(), 2)
	assert.ErrorIs(t, err, ErrDoctorNotFound)

	_, err = svc.GetDoctorSchedule(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetDoctorSchedule_StoreErrors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		err    error
		want   error
	}{
		{name: "doctor read timeout", method: "GetDoctor", err: &pq.Error{Code: "57014"}, want: ErrStoreUnavailable},
		{name: "templates read deadline", method: "GetTemplates", err: context.DeadlineExceeded, want: ErrStoreUnavailable},
		{name: "unknown failure", method: "GetTemplates", err: errors.New("invalid memory"), want: ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memstore.New()
			store.AddDoctor(domain.DoctorProfile{ID: 1, SpecialtyID: 7, IsActive: true})
			store.FailOn = tt.method
			store.FailNext = fmt.Errorf("schedule.repository: %w", tt.err)

			_, err := NewService(store, logger.NewNop()).GetDoctorSchedule(context.Background(), 1)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
