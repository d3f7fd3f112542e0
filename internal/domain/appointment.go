package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/MedAppointmentService/pkg/types"
)

// AppointmentStatus is the closed set of appointment lifecycle states
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "SCHEDULED"
	StatusCancelled AppointmentStatus = "CANCELLED"
	StatusCompleted AppointmentStatus = "COMPLETED"
	StatusNoShow    AppointmentStatus = "NO_SHOW"
)

// transitions lists every allowed status change. Anything absent is rejected.
var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusScheduled: {StatusCancelled, StatusCompleted, StatusNoShow},
}

// ParseAppointmentStatus converts user input into a status, case-insensitively
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	status := AppointmentStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// IsValid reports whether the status belongs to the closed set
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves this status
func (s AppointmentStatus) IsTerminal() bool {
	return s.IsValid() && len(transitions[s]) == 0
}

// CanTransitionTo reports whether the table allows s -> next
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Appointment represents a booked visit
type Appointment struct {
	ID              int64
	PatientID       int64
	DoctorProfileID int64
	SpecialtyID     int64
	Date            time.Time
	StartTime       types.TimeString
	EndTime         types.TimeString
	Status          AppointmentStatus

	CancellationReason *string
	CancelledAt        *time.Time
	Notes              *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true while the appointment holds its slot
func (a *Appointment) IsActive() bool {
	return a.Status == StatusScheduled
}

// SlotKey identifies the slot the appointment occupies
func (a *Appointment) SlotKey() SlotKey {
	return NewSlotKey(a.DoctorProfileID, a.Date, a.StartTime)
}

// StartsAt returns the wall-clock start of the appointment in loc
func (a *Appointment) StartsAt(loc *time.Location) time.Time {
	y, m, d := a.Date.Date()
	return a.StartTime.On(time.Date(y, m, d, 0, 0, 0, 0, loc))
}

// HasStarted reports whether the appointment start is not after now
func (a *Appointment) HasStarted(now time.Time) bool {
	return !a.StartsAt(now.Location()).After(now)
}

// TransitionTo moves the appointment to next if the table allows it
func (a *Appointment) TransitionTo(next AppointmentStatus, now time.Time) error {
	if !a.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, a.Status, next)
	}
	a.Status = next
	a.UpdatedAt = now
	return nil
}

// Cancel transitions to CANCELLED and records the reason
func (a *Appointment) Cancel(reason string, now time.Time) error {
	if err := a.TransitionTo(StatusCancelled, now); err != nil {
		return err
	}
	a.CancellationReason = &reason
	a.CancelledAt = &now
	return nil
}

// AppointmentFilter narrows appointment listings. Nil fields are not applied.
type AppointmentFilter struct {
	PatientID        *int64
	DoctorProfileIDs []int64
	StartDate        *time.Time
	EndDate          *time.Time
	Statuses         []AppointmentStatus
	ExcludeID        *int64
}
