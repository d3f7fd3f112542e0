package create_appointment

import (
	"time"

	"github.com/m04kA/MedAppointmentService/internal/domain"
	"github.com/m04kA/MedAppointmentService/pkg/types"
)

// Settings параметры записи
type Settings struct {
	Location  *time.Location // Часовой пояс клиники
	TxTimeout time.Duration  // Верхняя граница длительности транзакции
}

// Request модель запроса на создание записи
type Request struct {
	Caller          domain.Caller    // Кто выполняет запрос
	PatientID       int64            // ID пациента
	DoctorProfileID int64            // ID профиля врача
	SpecialtyID     int64            // ID специальности
	Date            time.Time        // Дата приема (без времени)
	StartTime       types.TimeString // Время начала слота (например, "10:00")
	Notes           *string          // Заметки (опционально)
}

// Response модель ответа с созданной записью
type Response struct {
	ID              int64
	PatientID       int64
	DoctorProfileID int64
	SpecialtyID     int64
	Date            time.Time
	StartTime       types.TimeString
	EndTime         types.TimeString
	Status          string
	Notes           *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func newResponse(appt *domain.Appointment) *Response {
	return &Response{
		ID:              appt.ID,
		PatientID:       appt.PatientID,
		DoctorProfileID: appt.DoctorProfileID,
		SpecialtyID:     appt.SpecialtyID,
		Date:            appt.Date,
		StartTime:       appt.StartTime,
		EndTime:         appt.EndTime,
		Status:          string(appt.Status),
		Notes:           appt.Notes,
		CreatedAt:       appt.CreatedAt,
		UpdatedAt:       appt.UpdatedAt,
	}
}
