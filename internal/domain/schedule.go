package domain

import (
	"fmt"
	"time"

	"github.com/m04kA/MedAppointmentService/pkg/types"
)

// DoctorProfile is the part of a doctor profile the booking engine reads
type DoctorProfile struct {
	ID          int64
	UserID      int64
	SpecialtyID int64
	IsActive    bool
}

// ScheduleTemplate is a recurring weekly availability block of a doctor
type ScheduleTemplate struct {
	ID                  int64
	DoctorProfileID     int64
	SpecialtyID         int64
	DayOfWeek           time.Weekday // 0 = Sunday
	StartTime           types.TimeString
	EndTime             types.TimeString
	SlotDurationMinutes int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Validate checks the template invariants
func (t *ScheduleTemplate) Validate() error {
	if t.DayOfWeek < time.Sunday || t.DayOfWeek > time.Saturday {
		return fmt.Errorf("%w: day of week %d out of range", ErrValidation, t.DayOfWeek)
	}
	if err := t.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: start time: %v", ErrValidation, err)
	}
	if err := t.EndTime.Validate(); err != nil {
		return fmt.Errorf("%w: end time: %v", ErrValidation, err)
	}
	if !t.StartTime.IsBefore(t.EndTime) {
		return fmt.Errorf("%w: start %s must be before end %s", ErrValidation, t.StartTime, t.EndTime)
	}
	if t.SlotDurationMinutes < MinSlotDurationMinutes || t.SlotDurationMinutes > MaxSlotDurationMinutes {
		return fmt.Errorf("%w: slot duration %d out of range", ErrValidation, t.SlotDurationMinutes)
	}
	return nil
}

// AppliesTo reports whether the template covers the weekday of date
func (t *ScheduleTemplate) AppliesTo(date time.Time) bool {
	return t.DayOfWeek == date.Weekday()
}

// TemplateFilter selects which doctors' templates participate in a query
type TemplateFilter struct {
	DoctorProfileID *int64
	SpecialtyID     *int64
	DayOfWeek       *time.Weekday
}
