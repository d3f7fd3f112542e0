package create_appointment

import (
	"errors"
	"fmt"

	"github.com/m04kA/MedAppointmentService/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("create_appointment: invalid input data: %w", domain.ErrValidation)

	// ErrPastDateTime возвращается, когда начало слота не в будущем
	ErrPastDateTime = fmt.Errorf("create_appointment: slot start must be in the future: %w", domain.ErrValidation)

	// ErrSpecialtyMismatch возвращается, когда специальность не совпадает со специальностью врача
	ErrSpecialtyMismatch = fmt.Errorf("create_appointment: specialty does not match doctor: %w", domain.ErrValidation)

	// ErrInvalidTimeSlot возвращается, когда время не совпадает ни с одним слотом расписания
	ErrInvalidTimeSlot = fmt.Errorf("create_appointment: time is not aligned to doctor schedule: %w", domain.ErrValidation)

	// ErrAccessDenied возвращается, когда пациент записывает другого пациента
	ErrAccessDenied = fmt.Errorf("create_appointment: access denied: %w", domain.ErrAuthorization)

	// ErrDoctorNotFound возвращается, когда врач не найден или неактивен
	ErrDoctorNotFound = fmt.Errorf("create_appointment: doctor not found: %w", domain.ErrNotFound)

	// ErrSlotNotAvailable возвращается, когда слот уже занят
	ErrSlotNotAvailable = fmt.Errorf("create_appointment: slot is not available: %w", domain.ErrConflict)

	// ErrStoreUnavailable возвращается при таймауте или недоступности хранилища
	ErrStoreUnavailable = fmt.Errorf("create_appointment: store unavailable: %w", domain.ErrTransientStore)

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_appointment: internal error")
)
