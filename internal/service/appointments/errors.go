package appointments

import (
	"errors"
	"fmt"

	"github.com/m04kA/MedAppointmentService/internal/domain"
)

var (
	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = fmt.Errorf("appointment not found: %w", domain.ErrNotFound)

	// ErrAccessDenied возвращается, когда у пользователя нет прав доступа
	ErrAccessDenied = fmt.Errorf("access denied: %w", domain.ErrAuthorization)

	// ErrCannotCancel возвращается, когда запись уже в терминальном статусе
	ErrCannotCancel = fmt.Errorf("appointment cannot be cancelled: %w", domain.ErrConflict)

	// ErrCannotClose возвращается, когда визит уже закрыт или отменен
	ErrCannotClose = fmt.Errorf("appointment cannot be closed: %w", domain.ErrConflict)

	// ErrVisitNotStarted возвращается при закрытии визита, который еще не начался
	ErrVisitNotStarted = fmt.Errorf("appointment has not started yet: %w", domain.ErrValidation)

	// ErrReasonRequired возвращается при отмене без причины
	ErrReasonRequired = fmt.Errorf("cancellation reason is required: %w", domain.ErrValidation)

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("invalid input data: %w", domain.ErrValidation)

	// ErrStoreUnavailable возвращается при таймауте или недоступности хранилища
	ErrStoreUnavailable = fmt.Errorf("store unavailable: %w", domain.ErrTransientStore)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
