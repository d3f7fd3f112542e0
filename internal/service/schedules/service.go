package schedules

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/MedAppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/MedAppointmentService/internal/infra/storage/appointment"
	scheduleRepo "github.com/m04kA/MedAppointmentService/internal/infra/storage/schedule"
	"github.com/m04kA/MedAppointmentService/internal/service/schedules/models"
)

// Service сервис чтения недельных расписаний врачей
type Service struct {
	scheduleRepo ScheduleRepository
	logger       Logger
}

// NewService создает новый экземпляр сервиса расписаний
func NewService(scheduleRepo ScheduleRepository, logger Logger) *Service {
	return &Service{
		scheduleRepo: scheduleRepo,
		logger:       logger,
	}
}

// GetDoctorSchedule получает недельное расписание активного врача
func (s *Service) GetDoctorSchedule(ctx context.Context, doctorProfileID int64) (*models.DoctorScheduleResponse, error) {
	s.logger.Info("GetDoctorSchedule: fetching schedule for doctor=%d", doctorProfileID)

	if doctorProfileID <= 0 {
		return nil, fmt.Errorf("%w: doctorProfileId must be positive", ErrInvalidInput)
	}

	doctor, err := s.scheduleRepo.GetDoctor(ctx, doctorProfileID)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrDoctorNotFound) {
			s.logger.Warn("GetDoctorSchedule: doctor id=%d not found", doctorProfileID)
			return nil, ErrDoctorNotFound
		}
		s.logger.Error("GetDoctorSchedule: failed to get doctor id=%d: %v", doctorProfileID, err)
		return nil, storeError("get doctor", err)
	}

	templates, err := s.scheduleRepo.GetTemplates(ctx, domain.TemplateFilter{DoctorProfileID: &doctor.ID})
	if err != nil {
		s.logger.Error("GetDoctorSchedule: failed to get templates for doctor=%d: %v", doctorProfileID, err)
		return nil, storeError("get templates", err)
	}

	s.logger.Info("GetDoctorSchedule: successfully fetched %d templates for doctor=%d", len(templates), doctorProfileID)
	return models.FromDomainSchedule(doctor, templates), nil
}

// storeError отделяет недоступность хранилища от внутренних ошибок
func storeError(step string, err error) error {
	switch appointmentRepo.ClassifyError(err) {
	case appointmentRepo.ErrTimeout, appointmentRepo.ErrUnavailable:
		return fmt.Errorf("%w: GetDoctorSchedule - %s: %v", ErrStoreUnavailable, step, err)
	}
	return fmt.Errorf("%w: GetDoctorSchedule - failed to %s: %v", ErrInternal, step, err)
}
