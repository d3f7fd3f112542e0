package appointment

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	"github.com/m04kA/MedAppointmentService/pkg/txmanager"
)

var (
	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = errors.New("appointment.repository: appointment not found")

	// ErrSlotTaken возвращается при нарушении уникальности активной записи на слот
	ErrSlotTaken = errors.New("appointment.repository: slot already taken")

	// ErrNotScheduled возвращается, когда запись уже не в статусе SCHEDULED
	ErrNotScheduled = errors.New("appointment.repository: appointment is not scheduled")

	// ErrSerialization возвращается при конфликте сериализуемых транзакций
	ErrSerialization = errors.New("appointment.repository: serialization failure")

	// ErrTimeout возвращается при истечении statement_timeout или отмене контекста
	ErrTimeout = errors.New("appointment.repository: statement timeout")

	// ErrUnavailable возвращается, когда соединение с БД недоступно или оборвано
	ErrUnavailable = errors.New("appointment.repository: store unavailable")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("appointment.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("appointment.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("appointment.repository: failed to scan row")
)

const (
	// scheduledSlotIndex частичный уникальный индекс на активные записи
	scheduledSlotIndex = "appointments_scheduled_slot_uidx"

	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqQueryCanceled        = "57014"
)

// ClassifyError сопоставляет ошибку драйвера с ошибками репозитория.
// Используется и для ошибок begin/commit менеджера транзакций, и для ошибок
// репозитория расписаний: обе обертки сохраняют исходную ошибку в цепочке.
// Возвращает nil, если ошибка не относится ни к одной известной категории.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			if pqErr.Constraint == scheduledSlotIndex {
				return ErrSlotTaken
			}
		case pqSerializationFailure, pqDeadlockDetected:
			return ErrSerialization
		case pqQueryCanceled:
			return ErrTimeout
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrTimeout
	}

	// Транзакцию не удалось начать: соединение отказано или оборвано
	var netErr net.Error
	if errors.Is(err, txmanager.ErrBeginTx) || errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return ErrUnavailable
	}

	for _, known := range []error{ErrSlotTaken, ErrSerialization, ErrTimeout, ErrUnavailable} {
		if errors.Is(err, known) {
			return known
		}
	}

	return nil
}

// wrapExecError оборачивает ошибку выполнения с учетом ее категории
func wrapExecError(method, step string, err error) error {
	if known := ClassifyError(err); known != nil {
		return fmt.Errorf("%w: %s - %s: %v", known, method, step, err)
	}
	return fmt.Errorf("%w: %s - %s: %v", ErrExecQuery, method, step, err)
}

// wrapScanError оборачивает ошибку чтения строк с учетом ее категории.
// Таймаут часто приходит не из QueryContext, а на итерации rows.
func wrapScanError(method, step string, err error) error {
	if known := ClassifyError(err); known != nil {
		return fmt.Errorf("%w: %s - %s: %v", known, method, step, err)
	}
	return fmt.Errorf("%w: %s - %s: %v", ErrScanRow, method, step, err)
}
