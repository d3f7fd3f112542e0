package get_patient_appointments

import (
	"context"

	"github.com/m04kA/MedAppointmentService/internal/service/appointments/models"
)

type AppointmentService interface {
	ListByPatient(ctx context.Context, req *models.ListPatientAppointmentsRequest) (*models.AppointmentListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
