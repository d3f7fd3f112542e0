package schedules

import (
	"errors"
	"fmt"

	"github.com/m04kA/MedAppointmentService/internal/domain"
)

var (
	// ErrDoctorNotFound возвращается, когда врач не найден или неактивен
	ErrDoctorNotFound = fmt.Errorf("doctor not found: %w", domain.ErrNotFound)

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("invalid input data: %w", domain.ErrValidation)

	// ErrStoreUnavailable возвращается при таймауте или недоступности хранилища
	ErrStoreUnavailable = fmt.Errorf("service: store unavailable: %w", domain.ErrTransientStore)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
