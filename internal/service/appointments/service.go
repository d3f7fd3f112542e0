package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/MedAppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/MedAppointmentService/internal/infra/storage/appointment"
	"github.com/m04kA/MedAppointmentService/internal/service/appointments/models"
)

// Service сервис жизненного цикла записей: просмотр, отмена и закрытие визита
type Service struct {
	appointmentRepo AppointmentRepository
	txManager       TransactionManager
	metrics         Metrics
	timeProvider    TimeProvider
	location        *time.Location
	logger          Logger
}

// NewService создает новый экземпляр сервиса записей
func NewService(
	appointmentRepo AppointmentRepository,
	txManager TransactionManager,
	metrics Metrics,
	location *time.Location,
	logger Logger,
) *Service {
	if location == nil {
		location = time.UTC
	}
	return &Service{
		appointmentRepo: appointmentRepo,
		txManager:       txManager,
		metrics:         metrics,
		timeProvider:    &RealTimeProvider{},
		location:        location,
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// GetByID получает запись по ID.
// Пациент видит только свою запись, персонал любую.
func (s *Service) GetByID(ctx context.Context, id int64, caller domain.Caller) (*models.AppointmentResponse, error) {
	s.logger.Info("GetByID: fetching appointment id=%d for user=%d", id, caller.UserID)

	appt, err := s.appointmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.repoError("GetByID", id, err)
	}

	if !domain.CanActOn(caller, appt) {
		s.logger.Warn("GetByID: access denied for user=%d to appointment id=%d", caller.UserID, id)
		return nil, ErrAccessDenied
	}

	s.logger.Info("GetByID: successfully fetched appointment id=%d", id)
	return models.FromDomainAppointment(appt), nil
}

// ListByPatient получает историю записей пациента с фильтрацией
// по статусу, периоду и врачу
func (s *Service) ListByPatient(ctx context.Context, req *models.ListPatientAppointmentsRequest) (*models.AppointmentListResponse, error) {
	s.logger.Info("ListByPatient: fetching appointments for patient=%d by user=%d", req.PatientID, req.Caller.UserID)

	if !domain.CanListForPatient(req.Caller, req.PatientID) {
		s.logger.Warn("ListByPatient: access denied for user=%d to patient=%d", req.Caller.UserID, req.PatientID)
		return nil, ErrAccessDenied
	}

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("ListByPatient: invalid filter for patient=%d: %v", req.PatientID, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	appointments, err := s.appointmentRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ListByPatient: repository error for patient=%d: %v", req.PatientID, err)
		return nil, listError("ListByPatient", err)
	}

	s.logger.Info("ListByPatient: successfully fetched %d appointments for patient=%d", len(appointments), req.PatientID)
	return models.FromDomainAppointmentList(appointments), nil
}

// ListByDoctor получает записи врача на дату или за все время.
// Доступно только персоналу.
func (s *Service) ListByDoctor(ctx context.Context, req *models.ListDoctorAppointmentsRequest) (*models.AppointmentListResponse, error) {
	logMsg := fmt.Sprintf("ListByDoctor: fetching appointments for doctor=%d, user=%d", req.DoctorProfileID, req.Caller.UserID)
	if req.Date != nil {
		logMsg += fmt.Sprintf(", date=%s", req.Date.Format(domain.DateFormat))
	}
	if req.IncludeInactive {
		logMsg += ", includeInactive=true"
	}
	s.logger.Info(logMsg)

	if !req.Caller.Role.IsStaff() {
		s.logger.Warn("ListByDoctor: access denied for user=%d (%s)", req.Caller.UserID, req.Caller.Role)
		return nil, ErrAccessDenied
	}

	if req.DoctorProfileID <= 0 {
		return nil, fmt.Errorf("%w: doctorProfileId must be positive", ErrInvalidInput)
	}

	appointments, err := s.appointmentRepo.List(ctx, req.ToDomainFilter())
	if err != nil {
		s.logger.Error("ListByDoctor: repository error for doctor=%d: %v", req.DoctorProfileID, err)
		return nil, listError("ListByDoctor", err)
	}

	s.logger.Info("ListByDoctor: successfully fetched %d appointments for doctor=%d", len(appointments), req.DoctorProfileID)
	return models.FromDomainAppointmentList(appointments), nil
}

// Cancel отменяет запись и освобождает слот.
// Пациент может отменить только свою запись, персонал любую.
// Повторная отмена возвращает ErrCannotCancel и не меняет запись.
func (s *Service) Cancel(ctx context.Context, id int64, req *models.CancelRequest) (*models.AppointmentResponse, error) {
	s.logger.Info("Cancel: cancelling appointment id=%d by user=%d", id, req.Caller.UserID)

	reason := strings.TrimSpace(req.CancellationReason)
	if reason == "" {
		s.logger.Warn("Cancel: empty cancellation reason for appointment id=%d", id)
		return nil, ErrReasonRequired
	}
	if len([]rune(reason)) > domain.MaxCancellationReasonLength {
		return nil, fmt.Errorf("%w: cancellation reason must be at most %d characters",
			ErrInvalidInput, domain.MaxCancellationReasonLength)
	}

	var result *domain.Appointment

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		// Получаем запись с блокировкой
		appt, err := s.appointmentRepo.GetByID(txCtx, id)
		if err != nil {
			return s.repoError("Cancel", id, err)
		}

		if !domain.CanActOn(req.Caller, appt) {
			s.logger.Warn("Cancel: access denied for user=%d to appointment id=%d", req.Caller.UserID, id)
			return ErrAccessDenied
		}

		if err := appt.Cancel(reason, s.now()); err != nil {
			s.logger.Warn("Cancel: appointment id=%d cannot be cancelled, status=%s", id, appt.Status)
			return fmt.Errorf("%w: %v", ErrCannotCancel, err)
		}

		if err := s.appointmentRepo.UpdateStatus(txCtx, appt); err != nil {
			if errors.Is(err, appointmentRepo.ErrNotScheduled) {
				s.logger.Warn("Cancel: appointment id=%d changed concurrently: %v", id, err)
				return fmt.Errorf("%w: %v", ErrCannotCancel, err)
			}
			return s.repoError("Cancel", id, err)
		}

		result = appt
		return nil
	})
	if err != nil {
		return nil, s.txError("Cancel", err)
	}

	s.metrics.IncAppointmentTransitions(string(domain.StatusCancelled))
	s.logger.Info("Cancel: successfully cancelled appointment id=%d", id)
	return models.FromDomainAppointment(result), nil
}

// MarkCompleted закрывает визит как состоявшийся
func (s *Service) MarkCompleted(ctx context.Context, id int64, caller domain.Caller) (*models.AppointmentResponse, error) {
	return s.closeVisit(ctx, "MarkCompleted", id, caller, domain.StatusCompleted)
}

// MarkNoShow закрывает визит как неявку пациента
func (s *Service) MarkNoShow(ctx context.Context, id int64, caller domain.Caller) (*models.AppointmentResponse, error) {
	return s.closeVisit(ctx, "MarkNoShow", id, caller, domain.StatusNoShow)
}

// closeVisit переводит начавшийся визит в терминальный статус.
// Доступно только персоналу.
func (s *Service) closeVisit(
	ctx context.Context,
	method string,
	id int64,
	caller domain.Caller,
	status domain.AppointmentStatus,
) (*models.AppointmentResponse, error) {
	s.logger.Info("%s: closing appointment id=%d by user=%d", method, id, caller.UserID)

	if !domain.CanCloseVisit(caller) {
		s.logger.Warn("%s: access denied for user=%d (%s)", method, caller.UserID, caller.Role)
		return nil, ErrAccessDenied
	}

	now := s.now()
	var result *domain.Appointment

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		appt, err := s.appointmentRepo.GetByID(txCtx, id)
		if err != nil {
			return s.repoError(method, id, err)
		}

		if !appt.Status.CanTransitionTo(status) {
			s.logger.Warn("%s: appointment id=%d cannot be closed, status=%s", method, id, appt.Status)
			return fmt.Errorf("%w: %s -> %s", ErrCannotClose, appt.Status, status)
		}

		if !appt.HasStarted(now) {
			s.logger.Warn("%s: appointment id=%d starts at %s", method, id, appt.StartsAt(s.location).Format(time.RFC3339))
			return ErrVisitNotStarted
		}

		if err := appt.TransitionTo(status, now); err != nil {
			return fmt.Errorf("%w: %v", ErrCannotClose, err)
		}

		if err := s.appointmentRepo.UpdateStatus(txCtx, appt); err != nil {
			if errors.Is(err, appointmentRepo.ErrNotScheduled) {
				return fmt.Errorf("%w: %v", ErrCannotClose, err)
			}
			return s.repoError(method, id, err)
		}

		result = appt
		return nil
	})
	if err != nil {
		return nil, s.txError(method, err)
	}

	s.metrics.IncAppointmentTransitions(string(status))
	s.logger.Info("%s: successfully closed appointment id=%d as %s", method, id, status)
	return models.FromDomainAppointment(result), nil
}

// Вспомогательные методы

func (s *Service) now() time.Time {
	return s.timeProvider.Now().In(s.location)
}

// repoError переводит ошибку репозитория в ошибку сервиса
func (s *Service) repoError(method string, id int64, err error) error {
	if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
		s.logger.Warn("%s: appointment id=%d not found", method, id)
		return ErrAppointmentNotFound
	}
	if isUnavailable(err) {
		s.logger.Error("%s: store unavailable for appointment id=%d: %v", method, id, err)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	s.logger.Error("%s: repository error for appointment id=%d: %v", method, id, err)
	return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, method, err)
}

// txError сохраняет ошибки сервиса и классифицирует ошибки commit
func (s *Service) txError(method string, err error) error {
	for _, known := range []error{
		domain.ErrValidation, domain.ErrAuthorization, domain.ErrNotFound,
		domain.ErrConflict, domain.ErrTransientStore, ErrInternal,
	} {
		if errors.Is(err, known) {
			return err
		}
	}

	if isUnavailable(err) || appointmentRepo.ClassifyError(err) == appointmentRepo.ErrSerialization {
		s.logger.Error("%s: store unavailable: %v", method, err)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.logger.Error("%s: transaction failed: %v", method, err)
	return fmt.Errorf("%w: %s - transaction failed: %v", ErrInternal, method, err)
}

// listError переводит ошибку чтения списка в ошибку сервиса
func listError(method string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%w: %s - %v", ErrStoreUnavailable, method, err)
	}
	return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, method, err)
}

// isUnavailable сообщает, что хранилище не ответило вовремя или недоступно
func isUnavailable(err error) bool {
	switch appointmentRepo.ClassifyError(err) {
	case appointmentRepo.ErrTimeout, appointmentRepo.ErrUnavailable:
		return true
	}
	return false
}
