package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanActOn(t *testing.T) {
	appt := &Appointment{ID: 1, PatientID: 10}

	tests := []struct {
		name   string
		caller Caller
		want   bool
	}{
		{name: "owner patient", caller: Caller{UserID: 10, Role: RolePatient}, want: true},
		{name: "other patient", caller: Caller{UserID: 11, Role: RolePatient}, want: false},
		{name: "doctor", caller: Caller{UserID: 99, Role: RoleDoctor}, want: true},
		{name: "admin", caller: Caller{UserID: 98, Role: RoleAdmin}, want: true},
		{name: "unknown role with owner id", caller: Caller{UserID: 10, Role: Role("guest")}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanActOn(tt.caller, appt))
		})
	}

	assert.False(t, CanActOn(Caller{UserID: 1, Role: RoleAdmin}, nil))
}

func TestCanListForPatient(t *testing.T) {
	assert.True(t, CanListForPatient(Caller{UserID: 5, Role: RolePatient}, 5))
	assert.False(t, CanListForPatient(Caller{UserID: 5, Role: RolePatient}, 6))
	assert.True(t, CanListForPatient(Caller{UserID: 1, Role: RoleDoctor}, 6))
}

func TestCanCloseVisit(t *testing.T) {
	assert.False(t, CanCloseVisit(Caller{UserID: 5, Role: RolePatient}))
	assert.True(t, CanCloseVisit(Caller{UserID: 1, Role: RoleDoctor}))
	assert.True(t, CanCloseVisit(Caller{UserID: 1, Role: RoleAdmin}))
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" Doctor ")
	require.NoError(t, err)
	assert.Equal(t, RoleDoctor, role)
	assert.True(t, role.IsStaff())

	_, err = ParseRole("superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)
}
