package create_appointment

import (
	"fmt"
	"time"

	"github.com/m04kA/MedAppointmentService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.PatientID <= 0 {
		return fmt.Errorf("%w: patientId must be positive", ErrInvalidInput)
	}

	if req.DoctorProfileID <= 0 {
		return fmt.Errorf("%w: doctorProfileId must be positive", ErrInvalidInput)
	}

	if req.SpecialtyID <= 0 {
		return fmt.Errorf("%w: specialtyId must be positive", ErrInvalidInput)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if req.StartTime.IsZero() {
		return fmt.Errorf("%w: startTime is required", ErrInvalidInput)
	}

	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime format: %v", ErrInvalidInput, err)
	}

	if req.Notes != nil && len([]rune(*req.Notes)) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes must be at most %d characters", ErrInvalidInput, domain.MaxNotesLength)
	}

	return nil
}

// validateCaller пациент может записать только себя
func validateCaller(caller domain.Caller, patientID int64) error {
	if caller.Role.IsStaff() {
		return nil
	}
	if caller.Role == domain.RolePatient && caller.UserID == patientID {
		return nil
	}
	return ErrAccessDenied
}

// validateFuture проверяет, что слот начинается строго после now
func validateFuture(date time.Time, req *Request, now time.Time) error {
	start := req.StartTime.On(date)
	if !start.After(now) {
		return fmt.Errorf("%w: %s %s", ErrPastDateTime, date.Format(domain.DateFormat), req.StartTime)
	}
	return nil
}

// normalizeDate переносит календарную дату в loc на полночь
func normalizeDate(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
