package domain

import (
	"fmt"
	"strings"
)

// Role of the caller as issued by the identity provider
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// ParseRole converts a header or claim value into a Role
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	switch role {
	case RolePatient, RoleDoctor, RoleAdmin:
		return role, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// IsStaff reports whether the role belongs to clinic staff
func (r Role) IsStaff() bool {
	return r == RoleDoctor || r == RoleAdmin
}

// Caller is the verified identity attached to a request
type Caller struct {
	UserID int64
	Role   Role
}

// CanActOn is the single capability check for reading or mutating an
// appointment: staff may act on any appointment, a patient only on their own.
func CanActOn(caller Caller, appt *Appointment) bool {
	if appt == nil {
		return false
	}
	if caller.Role.IsStaff() {
		return true
	}
	return caller.Role == RolePatient && caller.UserID == appt.PatientID
}

// CanListForPatient reports whether caller may list appointments of patientID
func CanListForPatient(caller Caller, patientID int64) bool {
	if caller.Role.IsStaff() {
		return true
	}
	return caller.Role == RolePatient && caller.UserID == patientID
}

// CanCloseVisit reports whether caller may mark a visit completed or no-show
func CanCloseVisit(caller Caller) bool {
	return caller.Role.IsStaff()
}
