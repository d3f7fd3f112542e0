package appointments

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/MedAppointmentService/internal/domain"
	"github.com/m04kA/MedAppointmentService/internal/service/appointments/models"
	"github.com/m04kA/MedAppointmentService/internal/testutil/memstore"
	"github.com/m04kA/MedAppointmentService/pkg/logger"
	"github.com/m04kA/MedAppointmentService/pkg/ptr"
	"github.com/m04kA/MedAppointmentService/pkg/txmanager"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

type transitionMetrics struct{ byStatus map[string]int }

func (m *transitionMetrics) IncAppointmentTransitions(status string) { m.byStatus[status]++ }

var (
	monday  = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	owner   = domain.Caller{UserID: 500, Role: domain.RolePatient}
	another = domain.Caller{UserID: 501, Role: domain.RolePatient}
	doctor  = domain.Caller{UserID: 101, Role: domain.RoleDoctor}
	admin   = domain.Caller{UserID: 1, Role: domain.RoleAdmin}
)

type fixture struct {
	store   *memstore.Store
	clock   *clock
	metrics *transitionMetrics
	svc     *Service
	apptID  int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	c := &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	store := memstore.New()
	store.Now = c.Now

	apptID := store.Put(domain.Appointment{
		PatientID: 500, DoctorProfileID: 1, SpecialtyID: 7, Date: monday,
		StartTime: "10:00", EndTime: "10:30", Status: domain.StatusScheduled,
		CreatedAt: c.now, UpdatedAt: c.now,
	})

	m := &transitionMetrics{byStatus: map[string]int{}}
	svc := NewService(store, &memstore.TxManager{}, m, time.UTC, logger.NewNop()).WithTimeProvider(c)

	return &fixture{store: store, clock: c, metrics: m, svc: svc, apptID: apptID}
}

func TestCancel_FreesSlotAndRecordsReason(t *testing.T) {
	f := newFixture(t)
	f.clock.now = f.clock.now.Add(time.Hour)

	resp, err := f.svc.Cancel(context.Background(), f.apptID, &models.CancelRequest{
		Caller: owner, CancellationReason: "  feeling better  ",
	})
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusCancelled), resp.Status)
	require.NotNil(t, resp.CancellationReason)
	assert.Equal(t, "feeling better", *resp.CancellationReason)
	assert.NotNil(t, resp.CancelledAt)
	assert.Equal(t, f.clock.now, resp.UpdatedAt)
	assert.Zero(t, f.store.CountScheduled(domain.NewSlotKey(1, monday, "10:00")))
	assert.Equal(t, 1, f.metrics.byStatus["CANCELLED"])
}

func TestCancel_TwiceIsConflictAndKeepsUpdatedAt(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Cancel(context.Background(), f.apptID, &models.CancelRequest{Caller: owner, CancellationReason: "sick"})
	require.NoError(t, err)
	first, _ := f.store.Get(f.apptID)

	f.clock.now = f.clock.now.Add(30 * time.Minute)
	_, err = f.svc.Cancel(context.Background(), f.apptID, &models.CancelRequest{Caller: owner, CancellationReason: "again"})
	assert.ErrorIs(t, err, ErrCannotCancel)
	assert.ErrorIs(t, err, domain.ErrConflict)

	second, _ := f.store.Get(f.apptID)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
	assert.Equal(t, "sick", *second.CancellationReason)
	assert.Equal(t, 1, f.metrics.byStatus["CANCELLED"])
}

func TestCancel_Errors(t *testing.T) {
	tests := []struct {
		name    string
		id      func(f *fixture) int64
		req     *models.CancelRequest
		wantErr error
	}{
		{"empty reason", func(f *fixture) int64 { return f.apptID }, &models.CancelRequest{Caller: owner, CancellationReason: "   "}, ErrReasonRequired},
		{"foreign patient", func(f *fixture) int64 { return f.apptID }, &models.CancelRequest{Caller: another, CancellationReason: "x"}, ErrAccessDenied},
		{"unknown appointment", func(f *fixture) int64 { return 999 }, &models.CancelRequest{Caller: owner, CancellationReason: "x"}, ErrAppointmentNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Cancel(context.Background(), tt.id(f), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)

			appt, _ := f.store.Get(f.apptID)
			assert.Equal(t, domain.StatusScheduled, appt.Status)
		})
	}
}

func TestCancel_StaffCanCancelAnyAppointment(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Cancel(context.Background(), f.apptID, &models.CancelRequest{Caller: doctor, CancellationReason: "doctor sick"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelled), resp.Status)
}

func TestCloseVisit(t *testing.T) {
	t.Run("before start is rejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.MarkCompleted(context.Background(), f.apptID, doctor)
		assert.ErrorIs(t, err, ErrVisitNotStarted)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("patient cannot close", func(t *testing.T) {
		f := newFixture(t)
		f.clock.now = time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)

		_, err := f.svc.MarkNoShow(context.Background(), f.apptID, owner)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("completed after start", func(t *testing.T) {
		f := newFixture(t)
		f.clock.now = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

		resp, err := f.svc.MarkCompleted(context.Background(), f.apptID, doctor)
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusCompleted), resp.Status)
		assert.Equal(t, 1, f.metrics.byStatus["COMPLETED"])

		_, err = f.svc.MarkNoShow(context.Background(), f.apptID, admin)
		assert.ErrorIs(t, err, ErrCannotClose)

		_, err = f.svc.Cancel(context.Background(), f.apptID, &models.CancelRequest{Caller: admin, CancellationReason: "x"})
		assert.ErrorIs(t, err, ErrCannotCancel)
	})

	t.Run("no-show after start", func(t *testing.T) {
		f := newFixture(t)
		f.clock.now = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

		resp, err := f.svc.MarkNoShow(context.Background(), f.apptID, admin)
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusNoShow), resp.Status)
	})
}

func TestGetByID(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.GetByID(context.Background(), f.apptID, owner)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", resp.Date)
	assert.Equal(t, "10:00", resp.StartTime)

	_, err = f.svc.GetByID(context.Background(), f.apptID, another)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = f.svc.GetByID(context.Background(), 999, admin)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestListByPatient(t *testing.T) {
	f := newFixture(t)
	f.store.Put(domain.Appointment{
		PatientID: 500, DoctorProfileID: 2, SpecialtyID: 7, Date: monday.AddDate(0, 0, 7),
		StartTime: "09:00", EndTime: "09:30", Status: domain.StatusCancelled,
	})
	f.store.Put(domain.Appointment{
		PatientID: 501, DoctorProfileID: 1, SpecialtyID: 7, Date: monday,
		StartTime: "11:00", EndTime: "11:30", Status: domain.StatusScheduled,
	})

	all, err := f.svc.ListByPatient(context.Background(), &models.ListPatientAppointmentsRequest{Caller: owner, PatientID: 500})
	require.NoError(t, err)
	assert.Len(t, all.Appointments, 2)

	scheduled, err := f.svc.ListByPatient(context.Background(), &models.ListPatientAppointmentsRequest{
		Caller: owner, PatientID: 500, Status: ptr.Ptr("scheduled"),
	})
	require.NoError(t, err)
	require.Len(t, scheduled.Appointments, 1)
	assert.Equal(t, f.apptID, scheduled.Appointments[0].ID)

	byDoctor, err := f.svc.ListByPatient(context.Background(), &models.ListPatientAppointmentsRequest{
		Caller: admin, PatientID: 500, DoctorProfileID: ptr.Ptr(int64(2)),
	})
	require.NoError(t, err)
	assert.Len(t, byDoctor.Appointments, 1)

	_, err = f.svc.ListByPatient(context.Background(), &models.ListPatientAppointmentsRequest{Caller: another, PatientID: 500})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = f.svc.ListByPatient(context.Background(), &models.ListPatientAppointmentsRequest{
		Caller: owner, PatientID: 500, Status: ptr.Ptr("booked"),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	from, to := monday.AddDate(0, 0, 1), monday
	_, err = f.svc.ListByPatient(context.Background(), &models.ListPatientAppointmentsRequest{
		Caller: owner, PatientID: 500, From: &from, To: &to,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListByDoctor(t *testing.T) {
	f := newFixture(t)
	f.store.Put(domain.Appointment{
		PatientID: 501, DoctorProfileID: 1, SpecialtyID: 7, Date: monday,
		StartTime: "09:00", EndTime: "09:30", Status: domain.StatusCancelled,
	})

	active, err := f.svc.ListByDoctor(context.Background(), &models.ListDoctorAppointmentsRequest{
		Caller: doctor, DoctorProfileID: 1, Date: &monday,
	})
	require.NoError(t, err)
	assert.Len(t, active.Appointments, 1)

	all, err := f.svc.ListByDoctor(context.Background(), &models.ListDoctorAppointmentsRequest{
		Caller: admin, DoctorProfileID: 1, Date: &monday, IncludeInactive: true,
	})
	require.NoError(t, err)
	require.Len(t, all.Appointments, 2)
	assert.Equal(t, "09:00", all.Appointments[0].StartTime)

	_, err = f.svc.ListByDoctor(context.Background(), &models.ListDoctorAppointmentsRequest{Caller: owner, DoctorProfileID: 1})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestList_StoreUnavailable(t *testing.T) {
	failures := []error{
		&pq.Error{Code: "57014"},
		fmt.Errorf("rows: %w", context.DeadlineExceeded),
		fmt.Errorf("query: %w", driver.ErrBadConn),
	}

	for _, failure := range failures {
		t.Run(failure.Error(), func(t *testing.T) {
			f := newFixture(t)

			f.store.FailNext = failure
			_, err := f.svc.ListByPatient(context.Background(), &models.ListPatientAppointmentsRequest{Caller: owner, PatientID: 500})
			assert.ErrorIs(t, err, ErrStoreUnavailable)
			assert.ErrorIs(t, err, domain.ErrTransientStore)

			f.store.FailNext = failure
			_, err = f.svc.ListByDoctor(context.Background(), &models.ListDoctorAppointmentsRequest{Caller: doctor, DoctorProfileID: 1})
			assert.ErrorIs(t, err, ErrStoreUnavailable)
			assert.ErrorIs(t, err, domain.ErrTransientStore)
		})
	}

	t.Run("unknown failure is internal", func(t *testing.T) {
		f := newFixture(t)
		f.store.FailNext = errors.New("unexpected column")
		_, err := f.svc.ListByDoctor(context.Background(), &models.ListDoctorAppointmentsRequest{Caller: doctor, DoctorProfileID: 1})
		assert.ErrorIs(t, err, ErrInternal)
	})
}

func TestCancel_BeginRefusedIsTransient(t *testing.T) {
	f := newFixture(t)
	tx := &memstore.TxManager{Failures: []error{fmt.Errorf("%w: %w", txmanager.ErrBeginTx, errors.New("connection refused"))}}
	svc := NewService(f.store, tx, f.metrics, time.UTC, logger.NewNop()).WithTimeProvider(f.clock)

	_, err := svc.Cancel(context.Background(), f.apptID, &models.CancelRequest{Caller: owner, CancellationReason: "sick"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, domain.ErrTransientStore)

	appt, _ := f.store.Get(f.apptID)
	assert.Equal(t, domain.StatusScheduled, appt.Status)
}
