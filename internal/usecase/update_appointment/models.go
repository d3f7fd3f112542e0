package update_appointment

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

// Request модель запроса на изменение записи.
// Nil поля не меняются; Date и StartTime вместе или по отдельности означают перенос.
type Request struct {
	AppointmentID int64
	Caller        domain.Caller
	Notes         *string           // Пустая строка очищает заметки
	Date          *time.Time        // Новая дата
	StartTime     *types.TimeString // Новое время начала
}

// IsReschedule запрос меняет слот
func (r *Request) IsReschedule() bool {
	return r.Date != nil || r.StartTime != nil
}

// Response модель ответа с измененной записью
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
