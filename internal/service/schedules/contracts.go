package schedules

import (
	"context"

	"github.com/m04kA/MedAppointmentService/internal/domain"
)

// ScheduleRepository интерфейс источника расписаний (может быть закеширован)
type ScheduleRepository interface {
	GetDoctor(ctx context.Context, id int64) (*domain.DoctorProfile, error)
	GetTemplates(ctx context.Context, filter domain.TemplateFilter) ([]domain.ScheduleTemplate, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
