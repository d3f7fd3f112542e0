// Package memstore содержит потокобезопасные in-memory реализации
// репозиториев и менеджера транзакций для тестов usecase и сервисов.
//
// Store эмулирует частичный уникальный индекс на (врач, дата, начало)
// среди записей в статусе SCHEDULED: Create и Update возвращают
// appointment.ErrSlotTaken так же, как это делает PostgreSQL-репозиторий.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/m04kA/MedAppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/MedAppointmentService/internal/infra/storage/appointment"
	scheduleRepo "github.com/m04kA/MedAppointmentService/internal/infra/storage/schedule"
)

// Store in-memory хранилище врачей, шаблонов и записей
type Store struct {
	mu           sync.Mutex
	nextID       int64
	doctors      map[int64]domain.DoctorProfile
	templates    []domain.ScheduleTemplate
	appointments map[int64]domain.Appointment

	// Now источник времени для created_at / updated_at
	Now func() time.Time

	// FailNext, если задан, возвращается следующим вызовом любого метода
	FailNext error
	// FailOn, если задан, ограничивает FailNext методом с этим именем
	FailOn string
}

// New создает пустое хранилище
func New() *Store {
	return &Store{
		doctors:      make(map[int64]domain.DoctorProfile),
		appointments: make(map[int64]domain.Appointment),
		Now:          time.Now,
	}
}

// AddDoctor добавляет профиль врача
func (s *Store) AddDoctor(doctor domain.DoctorProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doctors[doctor.ID] = doctor
}

// AddTemplate добавляет шаблон расписания; specialty берется из профиля врача
func (s *Store) AddTemplate(tpl domain.ScheduleTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doctor, ok := s.doctors[tpl.DoctorProfileID]; ok && tpl.SpecialtyID == 0 {
		tpl.SpecialtyID = doctor.SpecialtyID
	}
	s.templates = append(s.templates, tpl)
}

// Put сохраняет запись как есть, минуя проверки. Возвращает присвоенный ID.
func (s *Store) Put(appt domain.Appointment) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if appt.ID == 0 {
		s.nextID++
		appt.ID = s.nextID
	} else if appt.ID > s.nextID {
		s.nextID = appt.ID
	}
	s.appointments[appt.ID] = appt
	return appt.ID
}

// Get возвращает копию записи для проверок в тестах
func (s *Store) Get(id int64) (domain.Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appointments[id]
	return appt, ok
}

// CountScheduled число активных записей на слот
func (s *Store) CountScheduled(key domain.SlotKey) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, appt := range s.appointments {
		if appt.IsActive() && appt.SlotKey() == key {
			count++
		}
	}
	return count
}

func (s *Store) takeFailure(method string) error {
	if s.FailOn != "" && s.FailOn != method {
		return nil
	}
	err := s.FailNext
	s.FailNext = nil
	return err
}

// slotTakenLocked проверяет уникальность; вызывается под мьютексом
func (s *Store) slotTakenLocked(key domain.SlotKey, excludeID int64) bool {
	for id, appt := range s.appointments {
		if id != excludeID && appt.IsActive() && appt.SlotKey() == key {
			return true
		}
	}
	return false
}

// Create сохраняет новую запись
func (s *Store) Create(_ context.Context, appt *domain.Appointment) (*domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("Create"); err != nil {
		return nil, err
	}

	if appt.IsActive() && s.slotTakenLocked(appt.SlotKey(), 0) {
		return nil, fmt.Errorf("%w: Create - unique violation", appointmentRepo.ErrSlotTaken)
	}

	s.nextID++
	created := *appt
	created.ID = s.nextID
	created.CreatedAt = s.Now()
	created.UpdatedAt = created.CreatedAt
	s.appointments[created.ID] = created

	result := created
	return &result, nil
}

// GetByID получает запись по ID
func (s *Store) GetByID(_ context.Context, id int64) (*domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("GetByID"); err != nil {
		return nil, err
	}

	appt, ok := s.appointments[id]
	if !ok {
		return nil, appointmentRepo.ErrAppointmentNotFound
	}
	return &appt, nil
}

// List получает записи по фильтру, сортируя по дате и времени начала
func (s *Store) List(_ context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("List"); err != nil {
		return nil, err
	}

	result := make([]*domain.Appointment, 0)
	for _, appt := range s.appointments {
		if !matches(appt, filter) {
			continue
		}
		copied := appt
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime.IsBefore(b.StartTime)
		}
		return a.ID < b.ID
	})
	return result, nil
}

// IsSlotTaken проверяет наличие активной записи на слот
func (s *Store) IsSlotTaken(_ context.Context, key domain.SlotKey, excludeID *int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("IsSlotTaken"); err != nil {
		return false, err
	}

	var exclude int64
	if excludeID != nil {
		exclude = *excludeID
	}
	return s.slotTakenLocked(key, exclude), nil
}

// UpdateStatus сохраняет переход статуса записи в статусе SCHEDULED
func (s *Store) UpdateStatus(_ context.Context, appt *domain.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("UpdateStatus"); err != nil {
		return err
	}

	stored, err := s.scheduledLocked(appt.ID)
	if err != nil {
		return err
	}

	now := s.Now()
	stored.Status = appt.Status
	stored.UpdatedAt = now
	if appt.Status == domain.StatusCancelled {
		stored.CancellationReason = appt.CancellationReason
		stored.CancelledAt = &now
		appt.CancelledAt = &now
	}
	s.appointments[stored.ID] = stored
	appt.UpdatedAt = now
	return nil
}

// Update сохраняет заметки и слот записи в статусе SCHEDULED
func (s *Store) Update(_ context.Context, appt *domain.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("Update"); err != nil {
		return err
	}

	stored, err := s.scheduledLocked(appt.ID)
	if err != nil {
		return err
	}

	if s.slotTakenLocked(appt.SlotKey(), appt.ID) {
		return fmt.Errorf("%w: Update - unique violation", appointmentRepo.ErrSlotTaken)
	}

	stored.Date = appt.Date
	stored.StartTime = appt.StartTime
	stored.EndTime = appt.EndTime
	stored.Notes = appt.Notes
	stored.UpdatedAt = s.Now()
	s.appointments[stored.ID] = stored
	appt.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *Store) scheduledLocked(id int64) (domain.Appointment, error) {
	stored, ok := s.appointments[id]
	if !ok {
		return domain.Appointment{}, appointmentRepo.ErrAppointmentNotFound
	}
	if !stored.IsActive() {
		return domain.Appointment{}, fmt.Errorf("%w: status is %s", appointmentRepo.ErrNotScheduled, stored.Status)
	}
	return stored, nil
}

// GetDoctor получает активный профиль врача
func (s *Store) GetDoctor(_ context.Context, id int64) (*domain.DoctorProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("GetDoctor"); err != nil {
		return nil, err
	}

	doctor, ok := s.doctors[id]
	if !ok || !doctor.IsActive {
		return nil, scheduleRepo.ErrDoctorNotFound
	}
	return &doctor, nil
}

// GetTemplates получает шаблоны активных врачей по фильтру
func (s *Store) GetTemplates(_ context.Context, filter domain.TemplateFilter) ([]domain.ScheduleTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("GetTemplates"); err != nil {
		return nil, err
	}

	result := make([]domain.ScheduleTemplate, 0)
	for _, tpl := range s.templates {
		if doctor, ok := s.doctors[tpl.DoctorProfileID]; !ok || !doctor.IsActive {
			continue
		}
		if filter.DoctorProfileID != nil && tpl.DoctorProfileID != *filter.DoctorProfileID {
			continue
		}
		if filter.SpecialtyID != nil && tpl.SpecialtyID != *filter.SpecialtyID {
			continue
		}
		if filter.DayOfWeek != nil && tpl.DayOfWeek != *filter.DayOfWeek {
			continue
		}
		result = append(result, tpl)
	}
	return result, nil
}

func matches(appt domain.Appointment, filter domain.AppointmentFilter) bool {
	if filter.PatientID != nil && appt.PatientID != *filter.PatientID {
		return false
	}
	if filter.ExcludeID != nil && appt.ID == *filter.ExcludeID {
		return false
	}
	if len(filter.DoctorProfileIDs) > 0 && !containsID(filter.DoctorProfileIDs, appt.DoctorProfileID) {
		return false
	}
	date := appt.Date.Format(domain.DateFormat)
	if filter.StartDate != nil && date < filter.StartDate.Format(domain.DateFormat) {
		return false
	}
	if filter.EndDate != nil && date > filter.EndDate.Format(domain.DateFormat) {
		return false
	}
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, appt.Status) {
		return false
	}
	return true
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsStatus(statuses []domain.AppointmentStatus, status domain.AppointmentStatus) bool {
	for _, v := range statuses {
		if v == status {
			return true
		}
	}
	return false
}
