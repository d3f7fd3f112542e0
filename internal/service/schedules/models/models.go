package models

import (
	"sort"

	"github.com/m04kA/MedAppointmentService/internal/domain"
)

// TemplateResponse блок недельного расписания
type TemplateResponse struct {
	ID                  int64  `json:"id"`
	DayOfWeek           int    `json:"dayOfWeek"` // 0 = воскресенье
	DayName             string `json:"dayName"`   // "Monday"
	StartTime           string `json:"startTime"` // "09:00"
	EndTime             string `json:"endTime"`   // "13:00"
	SlotDurationMinutes int    `json:"slotDurationMinutes"`
	SlotsPerDay         int    `json:"slotsPerDay"`
}

// DoctorScheduleResponse недельное расписание врача
type DoctorScheduleResponse struct {
	DoctorProfileID int64              `json:"doctorProfileId"`
	SpecialtyID     int64              `json:"specialtyId"`
	Templates       []TemplateResponse `json:"templates"`
}

// FromDomainSchedule конвертирует профиль и шаблоны в DTO,
// упорядочивая по дню недели (с понедельника) и времени начала
func FromDomainSchedule(doctor *domain.DoctorProfile, templates []domain.ScheduleTemplate) *DoctorScheduleResponse {
	resp := &DoctorScheduleResponse{
		DoctorProfileID: doctor.ID,
		SpecialtyID:     doctor.SpecialtyID,
		Templates:       make([]TemplateResponse, 0, len(templates)),
	}

	for _, tpl := range templates {
		resp.Templates = append(resp.Templates, TemplateResponse{
			ID:                  tpl.ID,
			DayOfWeek:           int(tpl.DayOfWeek),
			DayName:             tpl.DayOfWeek.String(),
			StartTime:           tpl.StartTime.String(),
			EndTime:             tpl.EndTime.String(),
			SlotDurationMinutes: tpl.SlotDurationMinutes,
			SlotsPerDay:         slotsPerDay(tpl),
		})
	}

	sort.SliceStable(resp.Templates, func(i, j int) bool {
		a, b := resp.Templates[i], resp.Templates[j]
		if weekOrder(a.DayOfWeek) != weekOrder(b.DayOfWeek) {
			return weekOrder(a.DayOfWeek) < weekOrder(b.DayOfWeek)
		}
		return a.StartTime < b.StartTime
	})

	return resp
}

// slotsPerDay число полных слотов блока
func slotsPerDay(tpl domain.ScheduleTemplate) int {
	start, end := tpl.StartTime.Minutes(), tpl.EndTime.Minutes()
	if start < 0 || end <= start || tpl.SlotDurationMinutes <= 0 {
		return 0
	}
	return (end - start) / tpl.SlotDurationMinutes
}

// weekOrder понедельник первый, воскресенье последнее
func weekOrder(day int) int {
	return (day + 6) % 7
}
