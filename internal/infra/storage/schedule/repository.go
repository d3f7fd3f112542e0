package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/MedAppointmentService/internal/domain"
	"github.com/m04kA/MedAppointmentService/pkg/dbmetrics"
	"github.com/m04kA/MedAppointmentService/pkg/psqlbuilder"
)

// Repository репозиторий расписаний врачей (только чтение).
// Шаблоны создаются и изменяются административным интерфейсом.
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория расписаний
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetDoctor получает активный профиль врача
func (r *Repository) GetDoctor(ctx context.Context, id int64) (*domain.DoctorProfile, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "user_id", "specialty_id", "is_active").
		From("doctor_profiles").
		Where(squirrel.Eq{"id": id, "is_active": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetDoctor - build select query: %v", ErrBuildQuery, err)
	}

	var doctor domain.DoctorProfile
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&doctor.ID,
		&doctor.UserID,
		&doctor.SpecialtyID,
		&doctor.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDoctorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetDoctor - scan doctor: %w", ErrScanRow, err)
	}

	return &doctor, nil
}

// GetTemplates получает шаблоны расписания активных врачей по фильтру
func (r *Repository) GetTemplates(ctx context.Context, filter domain.TemplateFilter) ([]domain.ScheduleTemplate, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(
		"st.id",
		"st.doctor_profile_id",
		"dp.specialty_id",
		"st.day_of_week",
		"st.start_time",
		"st.end_time",
		"st.slot_duration_minutes",
		"st.created_at",
		"st.updated_at",
	).
		From("schedule_templates st").
		Join("doctor_profiles dp ON dp.id = st.doctor_profile_id").
		Where(squirrel.Eq{"dp.is_active": true}).
		OrderBy("st.doctor_profile_id ASC", "st.start_time ASC")

	if filter.DoctorProfileID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"st.doctor_profile_id": *filter.DoctorProfileID})
	}
	if filter.SpecialtyID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"dp.specialty_id": *filter.SpecialtyID})
	}
	if filter.DayOfWeek != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"st.day_of_week": int(*filter.DayOfWeek)})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetTemplates - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetTemplates - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	templates := make([]domain.ScheduleTemplate, 0)
	for rows.Next() {
		var (
			tpl                  domain.ScheduleTemplate
			dayOfWeek            int
			createdAt, updatedAt sql.NullTime
		)
		if err := rows.Scan(
			&tpl.ID,
			&tpl.DoctorProfileID,
			&tpl.SpecialtyID,
			&dayOfWeek,
			&tpl.StartTime,
			&tpl.EndTime,
			&tpl.SlotDurationMinutes,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: GetTemplates - scan row: %w", ErrScanRow, err)
		}
		tpl.DayOfWeek = time.Weekday(dayOfWeek)
		tpl.CreatedAt = createdAt.Time
		tpl.UpdatedAt = updatedAt.Time
		templates = append(templates, tpl)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetTemplates - rows error: %w", ErrScanRow, err)
	}

	return templates, nil
}
