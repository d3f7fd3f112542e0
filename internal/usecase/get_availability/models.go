package get_availability

import (
	"time"

	"github.com/m04kA/MedAppointmentService/internal/domain"
)

// Request модель запроса доступных слотов.
// Нужно указать врача, специальность или оба параметра.
type Request struct {
	DoctorProfileID *int64    // Конкретный врач (опционально)
	SpecialtyID     *int64    // Все врачи специальности (опционально)
	Date            time.Time // Дата (без времени)
}

// Response модель ответа со свободными слотами
type Response struct {
	Date  time.Time
	Slots []domain.Slot // По возрастанию времени начала, затем по ID врача
}
