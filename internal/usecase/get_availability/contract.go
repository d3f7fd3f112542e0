package get_availability

import (
	"context"
	"time"

	"github.com/m04kA/MedAppointmentService/internal/domain"
)

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	// List получает записи по фильтру одним запросом
	List(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error)
}

// ScheduleRepository интерфейс источника расписаний (может быть закеширован)
type ScheduleRepository interface {
	GetDoctor(ctx context.Context, id int64) (*domain.DoctorProfile, error)
	GetTemplates(ctx context.Context, filter domain.TemplateFilter) ([]domain.ScheduleTemplate, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
