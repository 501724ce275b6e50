package medicine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

const planColumns = `
	id, patient_id, name, dosage, form, frequency, specific_days,
	interval_days, start_date, end_date, reminder_times, instructions,
	doctor_notes, prescribed_by, is_active, created_at, updated_at`

func scanPlan(row pgx.Row) (*Plan, error) {
	var p Plan
	var endDate *time.Time
	var prescribedBy *uuid.UUID

	err := row.Scan(
		&p.ID,
		&p.PatientID,
		&p.Name,
		&p.Dosage,
		&p.Form,
		&p.Frequency,
		&p.SpecificDays,
		&p.IntervalDays,
		&p.StartDate,
		&endDate,
		&p.ReminderTimes,
		&p.Instructions,
		&p.DoctorNotes,
		&prescribedBy,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	p.EndDate = endDate
	p.PrescribedBy = prescribedBy
	return &p, nil
}

const logColumns = `
	id, patient_id, plan_id, status, scheduled_date, scheduled_time,
	action_at, created_at, updated_at`

func scanLog(row pgx.Row) (*Log, error) {
	var l Log

	err := row.Scan(
		&l.ID,
		&l.PatientID,
		&l.PlanID,
		&l.Status,
		&l.ScheduledDate,
		&l.ScheduledTime,
		&l.ActionAt,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLogNotFound
		}
		return nil, err
	}

	return &l, nil
}

func collectPlans(rows pgx.Rows) ([]Plan, error) {
	defer rows.Close()

	var result []Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Interface methods

func (r *PgRepository) CreatePlan(ctx context.Context, p Plan) (*Plan, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO medicine_plans (
			id, patient_id, name, dosage, form, frequency, specific_days,
			interval_days, start_date, end_date, reminder_times, instructions,
			doctor_notes, prescribed_by, is_active, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, true, now(), now())
		RETURNING `+planColumns,
		p.ID, p.PatientID, p.Name, p.Dosage, p.Form, p.Frequency,
		p.SpecificDays, p.IntervalDays, p.StartDate, p.EndDate,
		p.ReminderTimes, p.Instructions, p.DoctorNotes, p.PrescribedBy,
	)
	return scanPlan(row)
}

func (r *PgRepository) GetPlan(ctx context.Context, patientID, planID uuid.UUID) (*Plan, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+planColumns+`
		FROM medicine_plans
		WHERE id = $1 AND patient_id = $2
	`, planID, patientID)
	return scanPlan(row)
}

func (r *PgRepository) ListActivePlans(ctx context.Context, patientID uuid.UUID) ([]Plan, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+planColumns+`
		FROM medicine_plans
		WHERE patient_id = $1 AND is_active
		ORDER BY created_at DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	return collectPlans(rows)
}

func (r *PgRepository) ListActivePlansOverlapping(ctx context.Context, patientID uuid.UUID, day DayRange) ([]Plan, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+planColumns+`
		FROM medicine_plans
		WHERE patient_id = $1
		  AND is_active
		  AND start_date < $3
		  AND (end_date IS NULL OR end_date >= $2)
		ORDER BY created_at DESC
	`, patientID, day.Start, day.End)
	if err != nil {
		return nil, err
	}
	return collectPlans(rows)
}

func (r *PgRepository) UpdatePlan(ctx context.Context, p Plan) (*Plan, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE medicine_plans
		SET name = $3,
		    dosage = $4,
		    form = $5,
		    frequency = $6,
		    specific_days = $7,
		    interval_days = $8,
		    start_date = $9,
		    end_date = $10,
		    reminder_times = $11,
		    instructions = $12,
		    doctor_notes = $13,
		    updated_at = now()
		WHERE id = $1 AND patient_id = $2
		RETURNING `+planColumns,
		p.ID, p.PatientID, p.Name, p.Dosage, p.Form, p.Frequency,
		p.SpecificDays, p.IntervalDays, p.StartDate, p.EndDate,
		p.ReminderTimes, p.Instructions, p.DoctorNotes,
	)
	return scanPlan(row)
}

func (r *PgRepository) DeactivatePlan(ctx context.Context, patientID, planID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE medicine_plans
		SET is_active = false,
		    updated_at = now()
		WHERE id = $1 AND patient_id = $2
	`, planID, patientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *PgRepository) DeleteLogsForPlan(ctx context.Context, planID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM medicine_logs
		WHERE plan_id = $1
	`, planID)
	return err
}

func (r *PgRepository) ListLogs(ctx context.Context, patientID uuid.UUID, day DayRange) ([]Log, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+logColumns+`
		FROM medicine_logs
		WHERE patient_id = $1
		  AND scheduled_date >= $2
		  AND scheduled_date < $3
	`, patientID, day.Start, day.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Log
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) GetLogBySlot(ctx context.Context, key SlotKey) (*Log, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+logColumns+`
		FROM medicine_logs
		WHERE patient_id = $1
		  AND plan_id = $2
		  AND scheduled_date = $3
		  AND scheduled_time = $4
	`, key.PatientID, key.PlanID, key.ScheduledDate, key.ScheduledTime)
	return scanLog(row)
}

func (r *PgRepository) CreateLog(ctx context.Context, l Log) (*Log, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO medicine_logs (
			id, patient_id, plan_id, status, scheduled_date, scheduled_time,
			action_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING `+logColumns,
		l.ID, l.PatientID, l.PlanID, l.Status, l.ScheduledDate,
		l.ScheduledTime, l.ActionAt,
	)

	inserted, err := scanLog(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, ErrDuplicateLog
		}
		return nil, err
	}
	return inserted, nil
}

func (r *PgRepository) UpdateLogStatus(ctx context.Context, key SlotKey, status LogStatus, actionAt time.Time) (*Log, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE medicine_logs
		SET status = $5,
		    action_at = $6,
		    updated_at = now()
		WHERE patient_id = $1
		  AND plan_id = $2
		  AND scheduled_date = $3
		  AND scheduled_time = $4
		RETURNING `+logColumns,
		key.PatientID, key.PlanID, key.ScheduledDate, key.ScheduledTime,
		status, actionAt,
	)
	return scanLog(row)
}
