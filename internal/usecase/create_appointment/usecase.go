package create_appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/m04kA/MedAppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/MedAppointmentService/internal/infra/storage/appointment"
	scheduleRepo "github.com/m04kA/MedAppointmentService/internal/infra/storage/schedule"
)

// maxAttempts число запусков транзакции при serialization failure
const maxAttempts = 2

var tracer = otel.Tracer("github.com/m04kA/MedAppointmentService/internal/usecase/create_appointment")

// UseCase use case создания записи на прием
type UseCase struct {
	appointmentRepo AppointmentRepository
	scheduleRepo    ScheduleRepository
	txManager       TransactionManager
	metrics         Metrics
	timeProvider    TimeProvider
	settings        Settings
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	appointmentRepo AppointmentRepository,
	scheduleRepo ScheduleRepository,
	txManager TransactionManager,
	metrics Metrics,
	settings Settings,
	logger Logger,
) *UseCase {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &UseCase{
		appointmentRepo: appointmentRepo,
		scheduleRepo:    scheduleRepo,
		txManager:       txManager,
		metrics:         metrics,
		timeProvider:    &RealTimeProvider{},
		settings:        settings,
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case создания записи.
// Проверка занятости и вставка выполняются в одной сериализуемой транзакции,
// поэтому из параллельных запросов на один слот успешен ровно один.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (resp *Response, err error) {
	uc.logger.Info("CreateAppointment: patient=%d, doctor=%d, specialty=%d, date=%s, time=%s",
		req.PatientID, req.DoctorProfileID, req.SpecialtyID, req.Date.Format(domain.DateFormat), req.StartTime)

	ctx, span := tracer.Start(ctx, "CreateAppointment", trace.WithAttributes(
		attribute.Int64("appointment.doctor_profile_id", req.DoctorProfileID),
		attribute.String("appointment.date", req.Date.Format(domain.DateFormat)),
		attribute.String("appointment.start_time", req.StartTime.String()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateAppointment: validation failed: %v", err)
		return nil, err
	}

	if err := validateCaller(req.Caller, req.PatientID); err != nil {
		uc.logger.Warn("CreateAppointment: user=%d (%s) cannot book for patient=%d",
			req.Caller.UserID, req.Caller.Role, req.PatientID)
		return nil, err
	}

	// 2. Слот должен начинаться в будущем
	now := uc.timeProvider.Now().In(uc.settings.Location)
	date := normalizeDate(req.Date, uc.settings.Location)
	if err := validateFuture(date, req, now); err != nil {
		uc.logger.Warn("CreateAppointment: %v", err)
		return nil, err
	}

	// 3. Транзакция, повторяется один раз при serialization failure
	var created *domain.Appointment
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		created, err = uc.attempt(ctx, req, date, now)
		if appointmentRepo.ClassifyError(err) != appointmentRepo.ErrSerialization {
			break
		}
		uc.logger.Warn("CreateAppointment: serialization failure, attempt %d/%d: %v", attempt, maxAttempts, err)
		span.AddEvent("serialization_failure", trace.WithAttributes(attribute.Int("attempt", attempt)))
	}

	if err != nil {
		err = uc.mapError(err)
		if errors.Is(err, domain.ErrConflict) {
			uc.metrics.IncBookingConflicts("slot_taken")
		}
		return nil, err
	}

	uc.metrics.IncAppointmentsBooked()
	span.SetAttributes(attribute.Int64("appointment.id", created.ID))
	uc.logger.Info("CreateAppointment: successfully created appointment id=%d", created.ID)

	return newResponse(created), nil
}

// attempt одна попытка транзакции записи
func (uc *UseCase) attempt(ctx context.Context, req *Request, date, now time.Time) (*domain.Appointment, error) {
	if uc.settings.TxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.settings.TxTimeout)
		defer cancel()
	}

	var result *domain.Appointment

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 3.1. Врач должен существовать и быть активным
		doctor, err := uc.scheduleRepo.GetDoctor(txCtx, req.DoctorProfileID)
		if err != nil {
			if errors.Is(err, scheduleRepo.ErrDoctorNotFound) {
				uc.logger.Warn("CreateAppointment: doctor id=%d not found", req.DoctorProfileID)
				return ErrDoctorNotFound
			}
			uc.logger.Error("CreateAppointment: failed to get doctor id=%d: %v", req.DoctorProfileID, err)
			return storeError("get doctor", err)
		}

		if doctor.SpecialtyID != req.SpecialtyID {
			uc.logger.Warn("CreateAppointment: doctor id=%d has specialty=%d, requested %d",
				doctor.ID, doctor.SpecialtyID, req.SpecialtyID)
			return ErrSpecialtyMismatch
		}

		// 3.2. Время должно совпадать со слотом расписания
		weekday := date.Weekday()
		templates, err := uc.scheduleRepo.GetTemplates(txCtx, domain.TemplateFilter{
			DoctorProfileID: &doctor.ID,
			DayOfWeek:       &weekday,
		})
		if err != nil {
			uc.logger.Error("CreateAppointment: failed to get templates: %v", err)
			return storeError("get templates", err)
		}

		slot, ok := domain.FindSlot(domain.GenerateSlots(templates, date, now), doctor.ID, req.StartTime)
		if !ok {
			uc.logger.Warn("CreateAppointment: %s %s is not a slot of doctor id=%d",
				date.Format(domain.DateFormat), req.StartTime, doctor.ID)
			return ErrInvalidTimeSlot
		}

		// 3.3. Слот не должен быть занят
		taken, err := uc.appointmentRepo.IsSlotTaken(txCtx, slot.Key(), nil)
		if err != nil {
			uc.logger.Error("CreateAppointment: failed to check slot: %v", err)
			return storeError("check slot", err)
		}
		if taken {
			uc.logger.Warn("CreateAppointment: slot %s %s of doctor id=%d is taken",
				date.Format(domain.DateFormat), req.StartTime, doctor.ID)
			return ErrSlotNotAvailable
		}

		// 3.4. Создаем запись
		created, err := uc.appointmentRepo.Create(txCtx, &domain.Appointment{
			PatientID:       req.PatientID,
			DoctorProfileID: doctor.ID,
			SpecialtyID:     doctor.SpecialtyID,
			Date:            date,
			StartTime:       slot.StartTime,
			EndTime:         slot.EndTime,
			Status:          domain.StatusScheduled,
			Notes:           req.Notes,
		})
		if err != nil {
			uc.logger.Warn("CreateAppointment: failed to create appointment: %v", err)
			return storeError("create appointment", err)
		}

		result = created
		return nil
	})

	return result, err
}

// mapError переводит ошибки хранилища и commit в ошибки usecase
func (uc *UseCase) mapError(err error) error {
	switch appointmentRepo.ClassifyError(err) {
	case appointmentRepo.ErrSlotTaken, appointmentRepo.ErrSerialization:
		return fmt.Errorf("%w: %v", ErrSlotNotAvailable, err)
	case appointmentRepo.ErrTimeout, appointmentRepo.ErrUnavailable:
		uc.logger.Error("CreateAppointment: store unavailable: %v", err)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	for _, category := range []error{
		domain.ErrValidation, domain.ErrAuthorization, domain.ErrNotFound, domain.ErrConflict, ErrInternal,
	} {
		if errors.Is(err, category) {
			return err
		}
	}

	uc.logger.Error("CreateAppointment: transaction failed: %v", err)
	return fmt.Errorf("%w: %v", ErrInternal, err)
}

// storeError сохраняет категорию ошибки хранилища для mapError
func storeError(step string, err error) error {
	if known := appointmentRepo.ClassifyError(err); known != nil {
		return fmt.Errorf("%w: %s: %v", known, step, err)
	}
	return fmt.Errorf("%w: failed to %s: %v", ErrInternal, step, err)
}
