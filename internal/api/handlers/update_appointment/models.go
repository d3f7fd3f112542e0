package update_appointment

import (
	"fmt"
	"time"

	"github.com/m04kA/MedAppointmentService/internal/domain"
	updateAppointment "github.com/m04kA/MedAppointmentService/internal/usecase/update_appointment"
	"github.com/m04kA/MedAppointmentService/pkg/types"
)

var (
	errInvalidDate = fmt.Errorf("invalid appointment date")
	errInvalidTime = fmt.Errorf("invalid start time")
)

// UpdateAppointmentRequest HTTP request model. Отсутствующие поля не меняются.
type UpdateAppointmentRequest struct {
	Notes           *string `json:"notes,omitempty"`
	AppointmentDate *string `json:"appointmentDate,omitempty"`
	StartTime       *string `json:"startTime,omitempty"`
}

// AppointmentResponse HTTP response model
type AppointmentResponse struct {
	ID              int64   `json:"id"`
	PatientID       int64   `json:"patientId"`
	DoctorProfileID int64   `json:"doctorProfileId"`
	SpecialtyID     int64   `json:"specialtyId"`
	AppointmentDate string  `json:"appointmentDate"`
	StartTime       string  `json:"startTime"`
	EndTime         string  `json:"endTime"`
	Status          string  `json:"status"`
	Notes           *string `json:"notes,omitempty"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *UpdateAppointmentRequest) ToUseCaseRequest(id int64, caller domain.Caller) (*updateAppointment.Request, error) {
	req := &updateAppointment.Request{
		AppointmentID: id,
		Caller:        caller,
		Notes:         r.Notes,
	}

	if r.AppointmentDate != nil {
		date, err := time.Parse(domain.DateFormat, *r.AppointmentDate)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidDate, err)
		}
		req.Date = &date
	}

	if r.StartTime != nil {
		startTime, err := types.NewTimeStringFromString(*r.StartTime)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidTime, err)
		}
		req.StartTime = &startTime
	}

	return req, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *updateAppointment.Response) *AppointmentResponse {
	return &AppointmentResponse{
		ID:              resp.ID,
		PatientID:       resp.PatientID,
		DoctorProfileID: resp.DoctorProfileID,
		SpecialtyID:     resp.SpecialtyID,
		AppointmentDate: resp.Date.Format(domain.DateFormat),
		StartTime:       resp.StartTime.String(),
		EndTime:         resp.EndTime.String(),
		Status:          resp.Status,
		Notes:           resp.Notes,
		CreatedAt:       resp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       resp.UpdatedAt.Format(time.RFC3339),
	}
}
