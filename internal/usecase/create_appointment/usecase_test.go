package create_appointment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/MedAppointmentService/internal/domain"
	scheduleRepo "github.com/m04kA/MedAppointmentService/internal/infra/storage/schedule"
	"github.com/m04kA/MedAppointmentService/internal/testutil/memstore"
	"github.com/m04kA/MedAppointmentService/pkg/logger"
	"github.com/m04kA/MedAppointmentService/pkg/ptr"
	"github.com/m04kA/MedAppointmentService/pkg/txmanager"
	"github.com/m04kA/MedAppointmentService/pkg/types"
)

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type countingMetrics struct {
	booked    atomic.Int64
	conflicts atomic.Int64
}

func (m *countingMetrics) IncAppointmentsBooked()       { m.booked.Add(1) }
func (m *countingMetrics) IncBookingConflicts(_ string) { m.conflicts.Add(1) }

var (
	monday  = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	sunday  = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	patient = domain.Caller{UserID: 500, Role: domain.RolePatient}
)

func newStore() *memstore.Store {
	store := memstore.New()
	store.AddDoctor(domain.DoctorProfile{ID: 1, UserID: 101, SpecialtyID: 7, IsActive: true})
	store.AddTemplate(domain.ScheduleTemplate{
		ID: 1, DoctorProfileID: 1, DayOfWeek: time.Monday,
		StartTime: "09:00", EndTime: "13:00", SlotDurationMinutes: 30,
	})
	return store
}

func newUseCase(store *memstore.Store, tx *memstore.TxManager, m *countingMetrics) *UseCase {
	return NewUseCase(store, store, tx, m, Settings{Location: time.UTC, TxTimeout: time.Second}, logger.NewNop()).
		WithTimeProvider(fixedTime{now: sunday})
}

func validRequest(start string) *Request {
	return &Request{
		Caller:          patient,
		PatientID:       500,
		DoctorProfileID: 1,
		SpecialtyID:     7,
		Date:            monday,
		StartTime:       types.TimeString(start),
		Notes:           ptr.Ptr("first visit"),
	}
}

func TestExecute_Success(t *testing.T) {
	store := newStore()
	m := &countingMetrics{}
	uc := newUseCase(store, &memstore.TxManager{}, m)

	resp, err := uc.Execute(context.Background(), validRequest("10:00"))
	require.NoError(t, err)

	assert.NotZero(t, resp.ID)
	assert.Equal(t, string(domain.StatusScheduled), resp.Status)
	assert.Equal(t, types.TimeString("10:00"), resp.StartTime)
	assert.Equal(t, types.TimeString("10:30"), resp.EndTime)
	assert.Equal(t, int64(7), resp.SpecialtyID)
	assert.Equal(t, "first visit", *resp.Notes)
	assert.Equal(t, int64(1), m.booked.Load())

	key := domain.NewSlotKey(1, monday, "10:00")
	assert.Equal(t, 1, store.CountScheduled(key))
}

func TestExecute_SecondBookingOfSameSlotConflicts(t *testing.T) {
	store := newStore()
	m := &countingMetrics{}
	uc := newUseCase(store, &memstore.TxManager{}, m)

	_, err := uc.Execute(context.Background(), validRequest("10:00"))
	require.NoError(t, err)

	_, err = uc.Execute(context.Background(), validRequest("10:00"))
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, int64(1), m.conflicts.Load())
}

func TestExecute_CancelledSlotCanBeRebooked(t *testing.T) {
	store := newStore()
	uc := newUseCase(store, &memstore.TxManager{}, &countingMetrics{})

	first, err := uc.Execute(context.Background(), validRequest("10:00"))
	require.NoError(t, err)

	appt, ok := store.Get(first.ID)
	require.True(t, ok)
	require.NoError(t, appt.Cancel("sick", sunday))
	require.NoError(t, store.UpdateStatus(context.Background(), &appt))

	second, err := uc.Execute(context.Background(), validRequest("10:00"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestExecute_ConcurrentSameSlotExactlyOneWins(t *testing.T) {
	for i := 0; i < 100; i++ {
		store := newStore()
		m := &countingMetrics{}
		uc := newUseCase(store, &memstore.TxManager{}, m)

		var (
			wg        sync.WaitGroup
			successes atomic.Int64
			conflicts atomic.Int64
		)
		for g := 0; g < 2; g++ {
			wg.Add(1)
			go func(patientID int64) {
				defer wg.Done()
				req := validRequest("11:00")
				req.PatientID = patientID
				req.Caller = domain.Caller{UserID: patientID, Role: domain.RolePatient}

				_, err := uc.Execute(context.Background(), req)
				switch {
				case err == nil:
					successes.Add(1)
				case errors.Is(err, domain.ErrConflict):
					conflicts.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}(int64(600 + g))
		}
		wg.Wait()

		require.Equal(t, int64(1), successes.Load(), "iteration %d", i)
		require.Equal(t, int64(1), conflicts.Load(), "iteration %d", i)
		require.Equal(t, 1, store.CountScheduled(domain.NewSlotKey(1, monday, "11:00")))
	}
}

func TestExecute_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Request)
		wantErr error
	}{
		{"misaligned time", func(r *Request) { r.StartTime = "12:15" }, ErrInvalidTimeSlot},
		{"outside template", func(r *Request) { r.StartTime = "14:00" }, ErrInvalidTimeSlot},
		{"trailing partial slot", func(r *Request) { r.StartTime = "13:00" }, ErrInvalidTimeSlot},
		{"weekday without template", func(r *Request) { r.Date = monday.AddDate(0, 0, 1) }, ErrInvalidTimeSlot},
		{"past date", func(r *Request) { r.Date = monday.AddDate(0, 0, -7) }, ErrPastDateTime},
		{"earlier today", func(r *Request) { r.Date = sunday; r.StartTime = "09:00" }, ErrPastDateTime},
		{"starts exactly now", func(r *Request) { r.Date = sunday; r.StartTime = "10:00" }, ErrPastDateTime},
		{"specialty mismatch", func(r *Request) { r.SpecialtyID = 8 }, ErrSpecialtyMismatch},
		{"bad time format", func(r *Request) { r.StartTime = "25:00" }, ErrInvalidInput},
		{"missing date", func(r *Request) { r.Date = time.Time{} }, ErrInvalidInput},
		{"zero doctor", func(r *Request) { r.DoctorProfileID = 0 }, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore()
			uc := newUseCase(store, &memstore.TxManager{}, &countingMetrics{})
			req := validRequest("10:00")
			tt.mutate(req)

			_, err := uc.Execute(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestExecute_DoctorAndAccessErrors(t *testing.T) {
	store := newStore()
	store.AddDoctor(domain.DoctorProfile{ID: 2, SpecialtyID: 7, IsActive: false})
	uc := newUseCase(store, &memstore.TxManager{}, &countingMetrics{})

	req := validRequest("10:00")
	req.DoctorProfileID = 2
	_, err := uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrDoctorNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	req = validRequest("10:00")
	req.Caller = domain.Caller{UserID: 501, Role: domain.RolePatient}
	_, err = uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrAccessDenied)

	req = validRequest("10:00")
	req.Caller = domain.Caller{UserID: 1, Role: domain.RoleAdmin}
	_, err = uc.Execute(context.Background(), req)
	assert.NoError(t, err)
}

func TestExecute_SerializationFailureRetriedOnce(t *testing.T) {
	serialization := fmt.Errorf("commit: %w", &pq.Error{Code: "40001"})

	t.Run("second attempt succeeds", func(t *testing.T) {
		tx := &memstore.TxManager{Failures: []error{serialization}}
		uc := newUseCase(newStore(), tx, &countingMetrics{})

		_, err := uc.Execute(context.Background(), validRequest("10:00"))
		require.NoError(t, err)
		assert.Equal(t, int64(2), tx.Calls())
	})

	t.Run("second failure is a conflict", func(t *testing.T) {
		tx := &memstore.TxManager{Failures: []error{serialization, serialization}}
		uc := newUseCase(newStore(), tx, &countingMetrics{})

		_, err := uc.Execute(context.Background(), validRequest("10:00"))
		assert.ErrorIs(t, err, ErrSlotNotAvailable)
		assert.Equal(t, int64(2), tx.Calls())
	})
}

func TestExecute_StoreErrors(t *testing.T) {
	t.Run("statement timeout is transient", func(t *testing.T) {
		tx := &memstore.TxManager{Failures: []error{&pq.Error{Code: "57014"}}}
		uc := newUseCase(newStore(), tx, &countingMetrics{})

		_, err := uc.Execute(context.Background(), validRequest("10:00"))
		assert.ErrorIs(t, err, ErrStoreUnavailable)
		assert.ErrorIs(t, err, domain.ErrTransientStore)
	})

	t.Run("refused connection on begin is transient", func(t *testing.T) {
		refused := fmt.Errorf("%w: %w", txmanager.ErrBeginTx, errors.New("dial tcp: connection refused"))
		tx := &memstore.TxManager{Failures: []error{refused}}
		uc := newUseCase(newStore(), tx, &countingMetrics{})

		_, err := uc.Execute(context.Background(), validRequest("10:00"))
		assert.ErrorIs(t, err, ErrStoreUnavailable)
		assert.ErrorIs(t, err, domain.ErrTransientStore)
	})

	t.Run("unknown error is internal", func(t *testing.T) {
		store := newStore()
		store.FailNext = errors.New("connection reset")
		uc := newUseCase(store, &memstore.TxManager{}, &countingMetrics{})

		_, err := uc.Execute(context.Background(), validRequest("10:00"))
		assert.ErrorIs(t, err, ErrInternal)
	})
}

func TestExecute_ScheduleReadErrors(t *testing.T) {
	// ошибки приходят в том виде, в каком их оборачивает репозиторий расписания
	tests := []struct {
		name  string
		cause error
	}{
		{name: "statement timeout", cause: &pq.Error{Code: "57014"}},
		{name: "context deadline", cause: context.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore()
			store.FailNext = fmt.Errorf("%w: GetDoctor - scan doctor: %w", scheduleRepo.ErrScanRow, tt.cause)
			uc := newUseCase(store, &memstore.TxManager{}, &countingMetrics{})

			_, err := uc.Execute(context.Background(), validRequest("10:00"))
			assert.ErrorIs(t, err, ErrStoreUnavailable)
			assert.ErrorIs(t, err, domain.ErrTransientStore)
			assert.NotErrorIs(t, err, ErrInternal)
		})
	}

	t.Run("serialization failure on read is retried", func(t *testing.T) {
		store := newStore()
		store.FailNext = fmt.Errorf("%w: GetDoctor - scan doctor: %w", scheduleRepo.ErrScanRow, &pq.Error{Code: "40001"})
		tx := &memstore.TxManager{}
		uc := newUseCase(store, tx, &countingMetrics{})

		_, err := uc.Execute(context.Background(), validRequest("10:00"))
		require.NoError(t, err)
		assert.Equal(t, int64(2), tx.Calls())
		assert.Equal(t, 1, store.CountScheduled(domain.NewSlotKey(1, monday, "10:00")))
	})
}
