package domain

import (
	"sort"
	"time"

	"github.com/m04kA/MedAppointmentService/pkg/types"
)

// Slot is a derived candidate appointment window. It is never persisted.
type Slot struct {
	DoctorProfileID int64
	SpecialtyID     int64
	Date            time.Time
	StartTime       types.TimeString
	EndTime         types.TimeString
}

// SlotKey identifies a slot: doctor, date and start time
type SlotKey struct {
	DoctorProfileID int64
	Date            string
	StartTime       types.TimeString
}

// NewSlotKey builds a key with the date normalised to DateFormat
func NewSlotKey(doctorProfileID int64, date time.Time, start types.TimeString) SlotKey {
	return SlotKey{
		DoctorProfileID: doctorProfileID,
		Date:            date.Format(DateFormat),
		StartTime:       start,
	}
}

// Key returns the identity of the slot
func (s Slot) Key() SlotKey {
	return NewSlotKey(s.DoctorProfileID, s.Date, s.StartTime)
}

// Equal compares slots by doctor, date and start time only
func (s Slot) Equal(other Slot) bool {
	return s.Key() == other.Key()
}

// GenerateSlots expands the templates into the slots of date.
//
// Only templates for the weekday of date participate. Each template yields
// back-to-back slots from its start; a trailing remainder shorter than the slot
// duration is dropped. Output from all templates is merged ascending by start
// time, then by doctor. When date is the same calendar day as now, slots that
// do not start after now are dropped. Malformed templates are skipped.
func GenerateSlots(templates []ScheduleTemplate, date time.Time, now time.Time) []Slot {
	slots := make([]Slot, 0)
	today := isSameDay(date, now)

	for i := range templates {
		tpl := &templates[i]
		if !tpl.AppliesTo(date) || tpl.SlotDurationMinutes <= 0 {
			continue
		}

		start := tpl.StartTime.Minutes()
		end := tpl.EndTime.Minutes()
		if start < 0 || end < 0 {
			continue
		}

		for cursor := start; cursor+tpl.SlotDurationMinutes <= end; cursor += tpl.SlotDurationMinutes {
			slotStart, err := types.NewTimeStringFromMinutes(cursor)
			if err != nil {
				break
			}
			slotEnd, err := types.NewTimeStringFromMinutes(cursor + tpl.SlotDurationMinutes)
			if err != nil {
				// a slot ending exactly at midnight has no time-of-day representation
				break
			}

			if today && !slotStart.On(date).After(now) {
				continue
			}

			slots = append(slots, Slot{
				DoctorProfileID: tpl.DoctorProfileID,
				SpecialtyID:     tpl.SpecialtyID,
				Date:            date,
				StartTime:       slotStart,
				EndTime:         slotEnd,
			})
		}
	}

	SortSlots(slots)
	return slots
}

// SortSlots orders slots ascending by start time, then by doctor
func SortSlots(slots []Slot) {
	sort.SliceStable(slots, func(i, j int) bool {
		a, b := slots[i].StartTime.Minutes(), slots[j].StartTime.Minutes()
		if a != b {
			return a < b
		}
		return slots[i].DoctorProfileID < slots[j].DoctorProfileID
	})
}

// FindSlot returns the slot of doctorProfileID starting exactly at start
func FindSlot(slots []Slot, doctorProfileID int64, start types.TimeString) (Slot, bool) {
	for _, s := range slots {
		if s.DoctorProfileID == doctorProfileID && s.StartTime.Equal(start) {
			return s, true
		}
	}
	return Slot{}, false
}

// isSameDay compares calendar dates, interpreting a in the location of b
func isSameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.In(a.Location()).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
