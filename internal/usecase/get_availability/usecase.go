package get_availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/MedAppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/MedAppointmentService/internal/infra/storage/appointment"
	scheduleRepo "github.com/m04kA/MedAppointmentService/internal/infra/storage/schedule"
)

// UseCase use case получения свободных слотов.
// Чтение не блокирует параллельные записи: слот может быть занят между
// чтением и попыткой записи, это проверяется при создании записи.
type UseCase struct {
	appointmentRepo AppointmentRepository
	scheduleRepo    ScheduleRepository
	timeProvider    TimeProvider
	location        *time.Location
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	appointmentRepo AppointmentRepository,
	scheduleRepo ScheduleRepository,
	location *time.Location,
	logger Logger,
) *UseCase {
	if location == nil {
		location = time.UTC
	}
	return &UseCase{
		appointmentRepo: appointmentRepo,
		scheduleRepo:    scheduleRepo,
		timeProvider:    &RealTimeProvider{},
		location:        location,
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case получения свободных слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailability: doctor=%s, specialty=%s, date=%s",
		formatOptional(req.DoctorProfileID), formatOptional(req.SpecialtyID), req.Date.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailability: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now().In(uc.location)
	date := normalizeDate(req.Date, uc.location)
	empty := &Response{Date: date, Slots: []domain.Slot{}}

	// 2. Прошедшие даты не содержат свободных слотов
	if date.Before(normalizeDate(now, uc.location)) {
		uc.logger.Info("GetAvailability: date %s is in the past", date.Format(domain.DateFormat))
		return empty, nil
	}

	// 3. Проверяем врача, если он указан
	if req.DoctorProfileID != nil {
		doctor, err := uc.scheduleRepo.GetDoctor(ctx, *req.DoctorProfileID)
		if err != nil {
			if errors.Is(err, scheduleRepo.ErrDoctorNotFound) {
				uc.logger.Warn("GetAvailability: doctor id=%d not found", *req.DoctorProfileID)
				return nil, ErrDoctorNotFound
			}
			uc.logger.Error("GetAvailability: failed to get doctor id=%d: %v", *req.DoctorProfileID, err)
			return nil, storeError("get doctor", err)
		}
		if req.SpecialtyID != nil && doctor.SpecialtyID != *req.SpecialtyID {
			uc.logger.Info("GetAvailability: doctor id=%d has specialty=%d, requested %d",
				doctor.ID, doctor.SpecialtyID, *req.SpecialtyID)
			return empty, nil
		}
	}

	// 4. Шаблоны расписания на день недели
	weekday := date.Weekday()
	templates, err := uc.scheduleRepo.GetTemplates(ctx, domain.TemplateFilter{
		DoctorProfileID: req.DoctorProfileID,
		SpecialtyID:     req.SpecialtyID,
		DayOfWeek:       &weekday,
	})
	if err != nil {
		uc.logger.Error("GetAvailability: failed to get templates: %v", err)
		return nil, storeError("get templates", err)
	}
	if len(templates) == 0 {
		uc.logger.Info("GetAvailability: no templates for %s", date.Format(domain.DateFormat))
		return empty, nil
	}

	// 5. Генерируем кандидатов
	candidates := domain.GenerateSlots(templates, date, now)
	if len(candidates) == 0 {
		return empty, nil
	}

	// 6. Одним запросом получаем активные записи всех участвующих врачей
	appointments, err := uc.appointmentRepo.List(ctx, domain.AppointmentFilter{
		DoctorProfileIDs: doctorIDs(templates),
		StartDate:        &date,
		EndDate:          &date,
		Statuses:         []domain.AppointmentStatus{domain.StatusScheduled},
	})
	if err != nil {
		uc.logger.Error("GetAvailability: failed to get appointments: %v", err)
		return nil, storeError("get appointments", err)
	}

	// 7. Исключаем занятые слоты
	slots := excludeTaken(candidates, appointments)

	uc.logger.Info("GetAvailability: %d of %d slots free on %s",
		len(slots), len(candidates), date.Format(domain.DateFormat))

	return &Response{Date: date, Slots: slots}, nil
}

// storeError отделяет недоступность хранилища от внутренних ошибок
func storeError(step string, err error) error {
	switch appointmentRepo.ClassifyError(err) {
	case appointmentRepo.ErrTimeout, appointmentRepo.ErrUnavailable:
		return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, step, err)
	}
	return fmt.Errorf("%w: failed to %s: %v", ErrInternal, step, err)
}

// excludeTaken убирает слоты, на которые есть активная запись.
// Порядок кандидатов сохраняется.
func excludeTaken(candidates []domain.Slot, appointments []*domain.Appointment) []domain.Slot {
	taken := make(map[domain.SlotKey]struct{}, len(appointments))
	for _, appt := range appointments {
		if appt.IsActive() {
			taken[appt.SlotKey()] = struct{}{}
		}
	}

	free := make([]domain.Slot, 0, len(candidates))
	for _, slot := range candidates {
		if _, busy := taken[slot.Key()]; !busy {
			free = append(free, slot)
		}
	}
	return free
}

// doctorIDs уникальные ID врачей из шаблонов
func doctorIDs(templates []domain.ScheduleTemplate) []int64 {
	seen := make(map[int64]struct{}, len(templates))
	ids := make([]int64, 0, len(templates))
	for _, tpl := range templates {
		if _, ok := seen[tpl.DoctorProfileID]; ok {
			continue
		}
		seen[tpl.DoctorProfileID] = struct{}{}
		ids = append(ids, tpl.DoctorProfileID)
	}
	return ids
}

// normalizeDate переносит календарную дату в loc на полночь
func normalizeDate(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func formatOptional(v *int64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
