package models

import (
	"fmt"
	"time"

	"github.com/m04kA/MedAppointmentService/internal/domain"
)

// Request модели

// CancelRequest запрос на отмену записи
type CancelRequest struct {
	Caller             domain.Caller `json:"-"`
	CancellationReason string        `json:"cancellationReason"`
}

// ListPatientAppointmentsRequest запрос на получение записей пациента
type ListPatientAppointmentsRequest struct {
	Caller          domain.Caller `json:"-"`
	PatientID       int64         `json:"patientId"`
	Status          *string       `json:"status,omitempty"`          // Фильтр по статусу (опционально)
	From            *time.Time    `json:"from,omitempty"`            // Начало периода (опционально)
	To              *time.Time    `json:"to,omitempty"`              // Конец периода (опционально)
	DoctorProfileID *int64        `json:"doctorProfileId,omitempty"` // Фильтр по врачу (опционально)
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListPatientAppointmentsRequest) ToDomainFilter() (domain.AppointmentFilter, error) {
	filter := domain.AppointmentFilter{
		PatientID: &r.PatientID,
		StartDate: r.From,
		EndDate:   r.To,
	}

	if r.DoctorProfileID != nil {
		filter.DoctorProfileIDs = []int64{*r.DoctorProfileID}
	}

	if r.Status != nil {
		status, err := domain.ParseAppointmentStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Statuses = []domain.AppointmentStatus{status}
	}

	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return filter, fmt.Errorf("%w: period end before start", domain.ErrValidation)
	}

	return filter, nil
}

// ListDoctorAppointmentsRequest запрос на получение записей врача
type ListDoctorAppointmentsRequest struct {
	Caller          domain.Caller `json:"-"`
	DoctorProfileID int64         `json:"doctorProfileId"`
	Date            *time.Time    `json:"date,omitempty"`            // Конкретная дата (опционально)
	IncludeInactive bool          `json:"includeInactive,omitempty"` // Включить отмененные и закрытые
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListDoctorAppointmentsRequest) ToDomainFilter() domain.AppointmentFilter {
	filter := domain.AppointmentFilter{
		DoctorProfileIDs: []int64{r.DoctorProfileID},
		StartDate:        r.Date,
		EndDate:          r.Date,
	}
	if !r.IncludeInactive {
		filter.Statuses = []domain.AppointmentStatus{domain.StatusScheduled}
	}
	return filter
}

// Response модели

// AppointmentResponse ответ с данными записи
type AppointmentResponse struct {
	ID              int64   `json:"id"`
	PatientID       int64   `json:"patientId"`
	DoctorProfileID int64   `json:"doctorProfileId"`
	SpecialtyID     int64   `json:"specialtyId"`
	Date            string  `json:"appointmentDate"` // "2026-03-02"
	StartTime       string  `json:"startTime"`       // "10:00"
	EndTime         string  `json:"endTime"`         // "10:30"
	Status          string  `json:"status"`
	Notes           *string `json:"notes,omitempty"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601 format

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AppointmentListResponse ответ со списком записей
type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
}

// Методы конвертации

// FromDomainAppointment конвертирует domain модель в DTO
func FromDomainAppointment(a *domain.Appointment) *AppointmentResponse {
	if a == nil {
		return nil
	}

	resp := &AppointmentResponse{
		ID:                 a.ID,
		PatientID:          a.PatientID,
		DoctorProfileID:    a.DoctorProfileID,
		SpecialtyID:        a.SpecialtyID,
		Date:               a.Date.Format(domain.DateFormat),
		StartTime:          a.StartTime.String(),
		EndTime:            a.EndTime.String(),
		Status:             string(a.Status),
		Notes:              a.Notes,
		CancellationReason: a.CancellationReason,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}

	// Конвертируем CancelledAt в строку ISO 8601
	if a.CancelledAt != nil {
		cancelledStr := a.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledStr
	}

	return resp
}

// FromDomainAppointmentList конвертирует список domain моделей в DTO
func FromDomainAppointmentList(appointments []*domain.Appointment) *AppointmentListResponse {
	resp := &AppointmentListResponse{
		Appointments: make([]AppointmentResponse, 0, len(appointments)),
	}

	for _, a := range appointments {
		if dto := FromDomainAppointment(a); dto != nil {
			resp.Appointments = append(resp.Appointments, *dto)
		}
	}

	return resp
}
