package get_doctor_schedule

import (
	"context"

	"github.com/m04kA/MedAppointmentService/internal/service/schedules/models"
)

type ScheduleService interface {
	GetDoctorSchedule(ctx context.Context, doctorProfileID int64) (*models.DoctorScheduleResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
