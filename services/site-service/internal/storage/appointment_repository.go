package storage

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/bizsites/libs/db"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/model"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/schedule"
)

const appointmentColumns = `
	id, business_id, customer_name, customer_email, customer_phone, appointment_date,
	appointment_time, service, notes, status, created_at, updated_at`

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

// ActiveTimes returns the "HH:MM" times of pending and confirmed appointments
// on date.
func (r *AppointmentRepository) ActiveTimes(ctx context.Context, businessID int64, date time.Time) ([]string, error) {
	return activeTimes(ctx, r.pool, businessID, date)
}

// Create admits and inserts appt in one transaction. The business row is
// locked first so concurrent bookings for the same business serialize; admit
// then sees every committed active time on the appointment date and may veto
// the insert. A missing business yields pgx.ErrNoRows.
func (r *AppointmentRepository) Create(ctx context.Context, appt *model.Appointment, admit func(booked []string) error) error {
	return r.pool.InTx(ctx, func(tx pgx.Tx) error {
		var id int64
		if err := tx.QueryRow(ctx, `SELECT id FROM businesses WHERE id = $1 FOR NO KEY UPDATE`, appt.BusinessID).Scan(&id); err != nil {
			return err
		}

		booked, err := activeTimes(ctx, tx, appt.BusinessID, appt.AppointmentDate)
		if err != nil {
			return err
		}
		if err := admit(booked); err != nil {
			return err
		}

		return tx.QueryRow(ctx, `
			INSERT INTO appointments
				(business_id, customer_name, customer_email, customer_phone, appointment_date, appointment_time, service, notes, status)
			VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8, $9)
			RETURNING id, created_at, updated_at
		`, appt.BusinessID, appt.CustomerName, appt.CustomerEmail, appt.CustomerPhone,
			schedule.FormatDate(appt.AppointmentDate), appt.AppointmentTime, appt.Service, appt.Notes, string(appt.Status),
		).Scan(&appt.ID, &appt.CreatedAt, &appt.UpdatedAt)
	})
}

func (r *AppointmentRepository) Get(ctx context.Context, id int64) (model.Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
}

// UpdateStatus locks the appointment, asks decide for the next status and
// writes it. When decide returns the current status nothing is written.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id int64, decide func(current model.Appointment) (model.AppointmentStatus, error)) (model.Appointment, error) {
	var out model.Appointment
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		current, err := scanAppointment(tx.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		next, err := decide(current)
		if err != nil {
			return err
		}
		if next == current.Status {
			out = current
			return nil
		}
		out, err = scanAppointment(tx.QueryRow(ctx, `
			UPDATE appointments
			SET status = $2, updated_at = now()
			WHERE id = $1
			RETURNING `+appointmentColumns,
			id, string(next)))
		return err
	})
	if err != nil {
		return model.Appointment{}, err
	}
	return out, nil
}

// AppointmentFilter narrows ListByBusiness. Zero values match everything.
type AppointmentFilter struct {
	Date   *time.Time
	Status model.AppointmentStatus
	Limit  int
}

func (r *AppointmentRepository) ListByBusiness(ctx context.Context, businessID int64, f AppointmentFilter) ([]model.Appointment, error) {
	where := []string{"business_id = $1"}
	args := []any{businessID}
	if f.Date != nil {
		args = append(args, schedule.FormatDate(*f.Date))
		where = append(where, "appointment_date = $2::date")
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, "status = $"+itoa(len(args)))
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY appointment_date, appointment_time, id
		LIMIT $`+itoa(len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func activeTimes(ctx context.Context, q Querier, businessID int64, date time.Time) ([]string, error) {
	rows, err := q.Query(ctx, `
		SELECT appointment_time
		FROM appointments
		WHERE business_id = $1
		  AND appointment_date = $2::date
		  AND status = ANY($3)
		ORDER BY appointment_time
	`, businessID, schedule.FormatDate(date), model.ActiveStatuses())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return times, nil
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	var status string
	err := row.Scan(&a.ID, &a.BusinessID, &a.CustomerName, &a.CustomerEmail, &a.CustomerPhone, &a.AppointmentDate,
		&a.AppointmentTime, &a.Service, &a.Notes, &status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.Appointment{}, err
	}
	a.Status = model.AppointmentStatus(status)
	return a, nil
}
