package update_appointment

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
)

// maxAttempts число запусков транзакции при serialization failure
const maxAttempts = 2

var tracer = otel.Tracer("github.com/m04kA/MedAppointmentService/internal/usecase/update_appointment")

// UseCase use case изменения записи: заметки и перенос на другой слот
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

// Execute выполняет use case изменения записи.
// Перенос меняет слот той же строки в одной сериализуемой транзакции:
// старый слот освобождается, только если новый успешно занят.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (resp *Response, err error) {
	uc.logger.Info("UpdateAppointment: id=%d, user=%d, reschedule=%t", req.AppointmentID, req.Caller.UserID, req.IsReschedule())

	ctx, span := tracer.Start(ctx, "UpdateAppointment", trace.WithAttributes(
		attribute.Int64("appointment.id", req.AppointmentID),
		attribute.Bool("appointment.reschedule", req.IsReschedule()),
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
		uc.logger.Warn("UpdateAppointment: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now().In(uc.settings.Location)

	// 2. Транзакция, повторяется один раз при serialization failure
	var updated *domain.Appointment
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		updated, err = uc.attempt(ctx, req, now)
		if appointmentRepo.ClassifyError(err) != appointmentRepo.ErrSerialization {
			break
		}
		uc.logger.Warn("UpdateAppointment: serialization failure, attempt %d/%d: %v", attempt, maxAttempts, err)
	}

	if err != nil {
		err = uc.mapError(err)
		if errors.Is(err, ErrSlotNotAvailable) {
			uc.metrics.IncBookingConflicts("reschedule_slot_taken")
		}
		return nil, err
	}

	uc.logger.Info("UpdateAppointment: successfully updated appointment id=%d", updated.ID)
	return newResponse(updated), nil
}

// attempt одна попытка транзакции изменения
func (uc *UseCase) attempt(ctx context.Context, req *Request, now time.Time) (*domain.Appointment, error) {
	if uc.settings.TxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.settings.TxTimeout)
		defer cancel()
	}

	var result *domain.Appointment

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 2.1. Получаем запись с блокировкой
		appt, err := uc.appointmentRepo.GetByID(txCtx, req.AppointmentID)
		if err != nil {
			if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
				uc.logger.Warn("UpdateAppointment: appointment id=%d not found", req.AppointmentID)
				return ErrAppointmentNotFound
			}
			uc.logger.Error("UpdateAppointment: failed to get appointment id=%d: %v", req.AppointmentID, err)
			return storeError("get appointment", err)
		}

		// 2.2. Проверка прав
		if !domain.CanActOn(req.Caller, appt) {
			uc.logger.Warn("UpdateAppointment: user=%d has no access to appointment id=%d", req.Caller.UserID, appt.ID)
			return ErrAccessDenied
		}

		// 2.3. Менять можно только активную запись
		if !appt.IsActive() {
			uc.logger.Warn("UpdateAppointment: appointment id=%d is %s", appt.ID, appt.Status)
			return fmt.Errorf("%w: status is %s", ErrNotScheduled, appt.Status)
		}

		// 2.4. Перенос на новый слот
		if req.IsReschedule() {
			if err := uc.reschedule(txCtx, appt, req, now); err != nil {
				return err
			}
		}

		// 2.5. Заметки
		if req.Notes != nil {
			if *req.Notes == "" {
				appt.Notes = nil
			} else {
				notes := *req.Notes
				appt.Notes = &notes
			}
		}

		if err := uc.appointmentRepo.Update(txCtx, appt); err != nil {
			if errors.Is(err, appointmentRepo.ErrNotScheduled) {
				return fmt.Errorf("%w: %v", ErrNotScheduled, err)
			}
			uc.logger.Warn("UpdateAppointment: failed to update appointment id=%d: %v", appt.ID, err)
			return storeError("update appointment", err)
		}

		result = appt
		return nil
	})

	return result, err
}

// reschedule проверяет новый слот и переносит на него запись
func (uc *UseCase) reschedule(ctx context.Context, appt *domain.Appointment, req *Request, now time.Time) error {
	date := normalizeDate(appt.Date, uc.settings.Location)
	if req.Date != nil {
		date = normalizeDate(*req.Date, uc.settings.Location)
	}
	start := appt.StartTime
	if req.StartTime != nil {
		start = *req.StartTime
	}

	key := domain.NewSlotKey(appt.DoctorProfileID, date, start)
	if key == appt.SlotKey() {
		return nil
	}

	if !start.On(date).After(now) {
		uc.logger.Warn("UpdateAppointment: new slot %s %s is not in the future", date.Format(domain.DateFormat), start)
		return fmt.Errorf("%w: %s %s", ErrPastDateTime, date.Format(domain.DateFormat), start)
	}

	weekday := date.Weekday()
	templates, err := uc.scheduleRepo.GetTemplates(ctx, domain.TemplateFilter{
		DoctorProfileID: &appt.DoctorProfileID,
		DayOfWeek:       &weekday,
	})
	if err != nil {
		uc.logger.Error("UpdateAppointment: failed to get templates: %v", err)
		return storeError("get templates", err)
	}

	slot, ok := domain.FindSlot(domain.GenerateSlots(templates, date, now), appt.DoctorProfileID, start)
	if !ok {
		uc.logger.Warn("UpdateAppointment: %s %s is not a slot of doctor id=%d",
			date.Format(domain.DateFormat), start, appt.DoctorProfileID)
		return ErrInvalidTimeSlot
	}

	taken, err := uc.appointmentRepo.IsSlotTaken(ctx, key, &appt.ID)
	if err != nil {
		uc.logger.Error("UpdateAppointment: failed to check slot: %v", err)
		return storeError("check slot", err)
	}
	if taken {
		uc.logger.Warn("UpdateAppointment: slot %s %s of doctor id=%d is taken",
			date.Format(domain.DateFormat), start, appt.DoctorProfileID)
		return ErrSlotNotAvailable
	}

	appt.Date = date
	appt.StartTime = slot.StartTime
	appt.EndTime = slot.EndTime
	return nil
}

// mapError переводит ошибки хранилища и commit в ошибки usecase
func (uc *UseCase) mapError(err error) error {
	switch appointmentRepo.ClassifyError(err) {
	case appointmentRepo.ErrSlotTaken, appointmentRepo.ErrSerialization:
		return fmt.Errorf("%w: %v", ErrSlotNotAvailable, err)
	case appointmentRepo.ErrTimeout, appointmentRepo.ErrUnavailable:
		uc.logger.Error("UpdateAppointment: store unavailable: %v", err)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	for _, category := range []error{
		domain.ErrValidation, domain.ErrAuthorization, domain.ErrNotFound, domain.ErrConflict, ErrInternal,
	} {
		if errors.Is(err, category) {
			return err
		}
	}

	uc.logger.Error("UpdateAppointment: transaction failed: %v", err)
	return fmt.Errorf("%w: %v", ErrInternal, err)
}

// storeError сохраняет категорию ошибки хранилища для mapError
func storeError(step string, err error) error {
	if known := appointmentRepo.ClassifyError(err); known != nil {
		return fmt.Errorf("%w: %s: %v", known, step, err)
	}
	return fmt.Errorf("%w: failed to %s: %v", ErrInternal, step, err)
}
