package get_availability

import (
	"errors"
	"fmt"

	"github.com/m04kA/MedAppointmentService/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("get_availability: invalid input data: %w", domain.ErrValidation)

	// ErrDoctorNotFound возвращается, когда указанный врач не найден
	ErrDoctorNotFound = fmt.Errorf("get_availability: doctor not found: %w", domain.ErrNotFound)

	// ErrStoreUnavailable возвращается при таймауте или недоступности хранилища
	ErrStoreUnavailable = fmt.Errorf("get_availability: store unavailable: %w", domain.ErrTransientStore)

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("get_availability: internal error")
)
