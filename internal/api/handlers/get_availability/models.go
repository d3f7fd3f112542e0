package get_availability

import (
	"time"

	"github.com/m04kA/MedAppointmentService/internal/domain"
	getAvailability "github.com/m04kA/MedAppointmentService/internal/usecase/get_availability"
)

// SlotResponse HTTP модель свободного слота
type SlotResponse struct {
	DoctorProfileID int64  `json:"doctorProfileId"`
	SpecialtyID     int64  `json:"specialtyId"`
	Date            string `json:"date"`      // "2026-03-02"
	StartTime       string `json:"startTime"` // "09:00"
	EndTime         string `json:"endTime"`   // "09:30"
}

// AvailabilityResponse HTTP модель ответа
type AvailabilityResponse struct {
	Date  string         `json:"date"`
	Slots []SlotResponse `json:"slots"`
}

// ToUseCaseRequest конвертирует query параметры в модель use case
func ToUseCaseRequest(doctorProfileID, specialtyID *int64, dateStr string) (*getAvailability.Request, error) {
	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		return nil, err
	}

	return &getAvailability.Request{
		DoctorProfileID: doctorProfileID,
		SpecialtyID:     specialtyID,
		Date:            date,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailability.Response) *AvailabilityResponse {
	result := &AvailabilityResponse{
		Date:  resp.Date.Format(domain.DateFormat),
		Slots: make([]SlotResponse, 0, len(resp.Slots)),
	}

	for _, slot := range resp.Slots {
		result.Slots = append(result.Slots, SlotResponse{
			DoctorProfileID: slot.DoctorProfileID,
			SpecialtyID:     slot.SpecialtyID,
			Date:            slot.Date.Format(domain.DateFormat),
			StartTime:       slot.StartTime.String(),
			EndTime:         slot.EndTime.String(),
		})
	}

	return result
}
