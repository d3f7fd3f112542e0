package appointment

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/MedAppointmentService/pkg/txmanager"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{
			name: "unique violation on slot index",
			err:  &pq.Error{Code: "23505", Constraint: "appointments_scheduled_slot_uidx"},
			want: ErrSlotTaken,
		},
		{
			name: "unique violation on another index",
			err:  &pq.Error{Code: "23505", Constraint: "appointments_pkey"},
			want: nil,
		},
		{name: "serialization failure", err: &pq.Error{Code: "40001"}, want: ErrSerialization},
		{name: "deadlock", err: &pq.Error{Code: "40P01"}, want: ErrSerialization},
		{name: "statement timeout", err: &pq.Error{Code: "57014"}, want: ErrTimeout},
		{name: "context deadline", err: fmt.Errorf("commit: %w", context.DeadlineExceeded), want: ErrTimeout},
		{name: "already classified", err: fmt.Errorf("%w: Create", ErrSlotTaken), want: ErrSlotTaken},
		{name: "wrapped pq error", err: fmt.Errorf("commit: %w", &pq.Error{Code: "40001"}), want: ErrSerialization},
		{
			name: "timeout kept by double wrap",
			err:  fmt.Errorf("%w: GetDoctor - scan doctor: %w", errors.New("scan row"), &pq.Error{Code: "57014"}),
			want: ErrTimeout,
		},
		{
			name: "begin refused",
			err:  fmt.Errorf("%w: %w", txmanager.ErrBeginTx, errors.New("connection refused")),
			want: ErrUnavailable,
		},
		{name: "bad connection", err: fmt.Errorf("query: %w", driver.ErrBadConn), want: ErrUnavailable},
		{name: "connection done", err: sql.ErrConnDone, want: ErrUnavailable},
		{
			name: "network error",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
			want: ErrUnavailable,
		},
		{name: "unknown", err: errors.New("connection refused"), want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestWrapExecError(t *testing.T) {
	err := wrapExecError("Create", "execute insert", &pq.Error{Code: "23505", Constraint: scheduledSlotIndex})
	assert.ErrorIs(t, err, ErrSlotTaken)

	err = wrapExecError("Create", "execute insert", errors.New("broken pipe"))
	assert.ErrorIs(t, err, ErrExecQuery)
}

func TestWrapScanError(t *testing.T) {
	err := wrapScanError("scanAppointments", "rows error", &pq.Error{Code: "57014"})
	assert.ErrorIs(t, err, ErrTimeout)

	err = wrapScanError("scanAppointments", "scan row", errors.New("converting NULL to string"))
	assert.ErrorIs(t, err, ErrScanRow)
	assert.NoError(t, ClassifyError(err))
}
