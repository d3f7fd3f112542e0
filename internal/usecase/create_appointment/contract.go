package create_appointment

import (
	"context"
	"time"

	"github.com/m04kA/MedAppointmentService/internal/domain"
)

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	Create(ctx context.Context, appt *domain.Appointment) (*domain.Appointment, error)
	IsSlotTaken(ctx context.Context, key domain.SlotKey, excludeID *int64) (bool, error)
}

// ScheduleRepository интерфейс репозитория расписаний.
// Внутри транзакции используется напрямую, без кеша.
type ScheduleRepository interface {
	GetDoctor(ctx context.Context, id int64) (*domain.DoctorProfile, error)
	GetTemplates(ctx context.Context, filter domain.TemplateFilter) ([]domain.ScheduleTemplate, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics интерфейс бизнес-метрик записи
type Metrics interface {
	IncAppointmentsBooked()
	IncBookingConflicts(reason string)
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
