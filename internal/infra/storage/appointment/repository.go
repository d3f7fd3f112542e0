package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/MedAppointmentService/internal/domain"
	"github.com/m04kA/MedAppointmentService/pkg/dbmetrics"
	"github.com/m04kA/MedAppointmentService/pkg/psqlbuilder"
	"github.com/m04kA/MedAppointmentService/pkg/types"
)

const table = "appointments"

var columns = []string{
	"id",
	"patient_id",
	"doctor_profile_id",
	"specialty_id",
	"appointment_date",
	"start_time",
	"end_time",
	"status",
	"cancellation_reason",
	"cancelled_at",
	"notes",
	"created_at",
	"updated_at",
}

// Repository репозиторий записей на прием
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория записей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет новую запись.
// Уникальный индекс appointments_scheduled_slot_uidx является окончательным арбитром:
// параллельная вставка в тот же слот вернет ErrSlotTaken.
func (r *Repository) Create(ctx context.Context, appt *domain.Appointment) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns(
			"patient_id",
			"doctor_profile_id",
			"specialty_id",
			"appointment_date",
			"start_time",
			"end_time",
			"status",
			"notes",
		).
		Values(
			appt.PatientID,
			appt.DoctorProfileID,
			appt.SpecialtyID,
			appt.Date.Format(domain.DateFormat),
			appt.StartTime,
			appt.EndTime,
			appt.Status,
			appt.Notes,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&appt.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, wrapExecError("Create", "execute insert", err)
	}

	appt.CreatedAt = createdAt.Time
	appt.UpdatedAt = updatedAt.Time

	return appt, nil
}

// GetByID получает запись по ID.
// Внутри транзакции строка блокируется (FOR UPDATE) до конца транзакции.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	appt, err := scanAppointment(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, wrapScanError("GetByID", "scan appointment", err)
	}

	return appt, nil
}

// List получает записи по фильтру одним запросом
//
// Примеры:
//
// 1. Активные записи врачей на дату (для расчета доступности):
//    filter := domain.AppointmentFilter{DoctorProfileIDs: ids, StartDate: &d, EndDate: &d,
//        Statuses: []domain.AppointmentStatus{domain.StatusScheduled}}
//
// 2. История пациента:
//    filter := domain.AppointmentFilter{PatientID: &patientID}
func (r *Repository) List(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).From(table)

	if filter.PatientID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"patient_id": *filter.PatientID})
	}
	if len(filter.DoctorProfileIDs) > 0 {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"doctor_profile_id": filter.DoctorProfileIDs})
	}
	if filter.StartDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"appointment_date": filter.StartDate.Format(domain.DateFormat)})
	}
	if filter.EndDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"appointment_date": filter.EndDate.Format(domain.DateFormat)})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": statuses})
	}
	if filter.ExcludeID != nil {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"id": *filter.ExcludeID})
	}

	// Для конкретной даты сортируем по времени, иначе сначала новые
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.Equal(*filter.EndDate) {
		selectBuilder = selectBuilder.OrderBy("start_time ASC", "doctor_profile_id ASC")
	} else {
		selectBuilder = selectBuilder.OrderBy("appointment_date DESC", "start_time DESC")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapExecError("List", "execute query", err)
	}
	defer rows.Close()

	return scanAppointments(rows)
}

// IsSlotTaken проверяет наличие активной записи на слот врача.
// excludeID исключает саму переносимую запись.
func (r *Repository) IsSlotTaken(ctx context.Context, key domain.SlotKey, excludeID *int64) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("1").
		From(table).
		Where(squirrel.Eq{
			"doctor_profile_id": key.DoctorProfileID,
			"appointment_date":  key.Date,
			"start_time":        key.StartTime.String(),
			"status":            string(domain.StatusScheduled),
		}).
		Limit(1)

	if excludeID != nil {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"id": *excludeID})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: IsSlotTaken - build select query: %v", ErrBuildQuery, err)
	}

	var one int
	err = executor.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, wrapExecError("IsSlotTaken", "execute query", err)
	}

	return true, nil
}

// UpdateStatus сохраняет переход статуса.
// Обновляет только запись в статусе SCHEDULED, иначе возвращает ErrNotScheduled,
// поэтому два параллельных перехода не могут оба завершиться успешно.
func (r *Repository) UpdateStatus(ctx context.Context, appt *domain.Appointment) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update(table).
		Set("status", string(appt.Status)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": appt.ID, "status": string(domain.StatusScheduled)}).
		Suffix("RETURNING updated_at")

	if appt.Status == domain.StatusCancelled {
		updateBuilder = updateBuilder.
			Set("cancellation_reason", appt.CancellationReason).
			Set("cancelled_at", squirrel.Expr("NOW()"))
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	var updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return r.missingOrNotScheduled(ctx, "UpdateStatus", appt.ID)
	}
	if err != nil {
		return wrapExecError("UpdateStatus", "execute update", err)
	}

	appt.UpdatedAt = updatedAt.Time
	if appt.Status == domain.StatusCancelled {
		cancelledAt := updatedAt.Time
		appt.CancelledAt = &cancelledAt
	}

	return nil
}

// Update сохраняет заметки и, при переносе, новый слот активной записи.
// Старый слот освобождается тем же UPDATE, которым занимается новый.
func (r *Repository) Update(ctx context.Context, appt *domain.Appointment) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("appointment_date", appt.Date.Format(domain.DateFormat)).
		Set("start_time", appt.StartTime).
		Set("end_time", appt.EndTime).
		Set("notes", appt.Notes).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": appt.ID, "status": string(domain.StatusScheduled)}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	var updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return r.missingOrNotScheduled(ctx, "Update", appt.ID)
	}
	if err != nil {
		return wrapExecError("Update", "execute update", err)
	}

	appt.UpdatedAt = updatedAt.Time
	return nil
}

// missingOrNotScheduled различает отсутствующую запись и запись в терминальном статусе
func (r *Repository) missingOrNotScheduled(ctx context.Context, method string, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("status").
		From(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s - build status query: %v", ErrBuildQuery, method, err)
	}

	var status string
	err = executor.QueryRowContext(ctx, query, args...).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAppointmentNotFound
	}
	if err != nil {
		return wrapExecError(method, "read status", err)
	}

	return fmt.Errorf("%w: %s - status is %s", ErrNotScheduled, method, status)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	var (
		appt                 domain.Appointment
		startTime, endTime   types.TimeString
		status               string
		reason, notes        sql.NullString
		cancelledAt          sql.NullTime
		createdAt, updatedAt sql.NullTime
	)

	err := row.Scan(
		&appt.ID,
		&appt.PatientID,
		&appt.DoctorProfileID,
		&appt.SpecialtyID,
		&appt.Date,
		&startTime,
		&endTime,
		&status,
		&reason,
		&cancelledAt,
		&notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	appt.StartTime = startTime
	appt.EndTime = endTime
	appt.Status = domain.AppointmentStatus(status)
	if reason.Valid {
		appt.CancellationReason = &reason.String
	}
	if notes.Valid {
		appt.Notes = &notes.String
	}
	if cancelledAt.Valid {
		appt.CancelledAt = &cancelledAt.Time
	}
	appt.CreatedAt = createdAt.Time
	appt.UpdatedAt = updatedAt.Time

	return &appt, nil
}

// scanAppointments сканирует результаты запроса в слайс записей
func scanAppointments(rows *sql.Rows) ([]*domain.Appointment, error) {
	appointments := make([]*domain.Appointment, 0)

	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, wrapScanError("scanAppointments", "scan row", err)
		}
		appointments = append(appointments, appt)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapScanError("scanAppointments", "rows error", err)
	}

	return appointments, nil
}
