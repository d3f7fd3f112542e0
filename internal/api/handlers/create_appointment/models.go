package create_appointment

import (
	"fmt"
	"time"

	"github.com/m04kA/MedAppointmentService/internal/domain"
	createAppointment "github.com/m04kA/MedAppointmentService/internal/usecase/create_appointment"
	"github.com/m04kA/MedAppointmentService/pkg/types"
)

var (
	errInvalidDate = fmt.Errorf("invalid appointment date")
	errInvalidTime = fmt.Errorf("invalid start time")
)

// CreateAppointmentRequest HTTP request model
type CreateAppointmentRequest struct {
	PatientID       *int64  `json:"patientId,omitempty"` // По умолчанию вызывающий пациент
	DoctorProfileID int64   `json:"doctorProfileId"`
	SpecialtyID     int64   `json:"specialtyId"`
	AppointmentDate string  `json:"appointmentDate"` // "2026-03-02"
	StartTime       string  `json:"startTime"`       // "10:00"
	Notes           *string `json:"notes,omitempty"`
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
func (r *CreateAppointmentRequest) ToUseCaseRequest(caller domain.Caller) (*createAppointment.Request, error) {
	date, err := time.Parse(domain.DateFormat, r.AppointmentDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidDate, err)
	}

	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidTime, err)
	}

	patientID := caller.UserID
	if r.PatientID != nil {
		patientID = *r.PatientID
	}

	return &createAppointment.Request{
		Caller:          caller,
		PatientID:       patientID,
		DoctorProfileID: r.DoctorProfileID,
		SpecialtyID:     r.SpecialtyID,
		Date:            date,
		StartTime:       startTime,
		Notes:           r.Notes,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createAppointment.Response) *AppointmentResponse {
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
