package update_appointment

import (
	"errors"
	"fmt"

	"github.com/m04kA/MedAppointmentService/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("update_appointment: invalid input data: %w", domain.ErrValidation)

	// ErrPastDateTime возвращается, когда новый слот не в будущем
	ErrPastDateTime = fmt.Errorf("update_appointment: slot start must be in the future: %w", domain.ErrValidation)

	// ErrInvalidTimeSlot возвращается, когда новое время не совпадает со слотом расписания
	ErrInvalidTimeSlot = fmt.Errorf("update_appointment: time is not aligned to doctor schedule: %w", domain.ErrValidation)

	// ErrAccessDenied возвращается, когда запись принадлежит другому пациенту
	ErrAccessDenied = fmt.Errorf("update_appointment: access denied: %w", domain.ErrAuthorization)

	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = fmt.Errorf("update_appointment: appointment not found: %w", domain.ErrNotFound)

	// ErrNotScheduled возвращается при изменении записи в терминальном статусе
	ErrNotScheduled = fmt.Errorf("update_appointment: appointment is not scheduled: %w", domain.ErrConflict)

	// ErrSlotNotAvailable возвращается, когда новый слот уже занят
	ErrSlotNotAvailable = fmt.Errorf("update_appointment: slot is not available: %w", domain.ErrConflict)

	// ErrStoreUnavailable возвращается при таймауте или недоступности хранилища
	ErrStoreUnavailable = fmt.Errorf("update_appointment: store unavailable: %w", domain.ErrTransientStore)

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("update_appointment: internal error")
)
