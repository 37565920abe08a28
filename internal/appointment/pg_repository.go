package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	pgQueries
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pgQueries: pgQueries{db: pool}, pool: pool}
}

// WithinTx runs fn in a read-committed transaction. Conflicting bookings are
// serialized by the doctor row lock taken in GetDoctorForUpdate and, as a last
// line, by the partial unique index on active (doctor_id, scheduled_at).
func (r *PgRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, q Queries) error) error {
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, pgQueries{db: tx})
	})
}

type pgQueries struct {
	db dbtx
}

// Helpers

const doctorColumns = `id, name, specialty, available_slots, is_active, created_at, updated_at`

const appointmentColumns = `id, doctor_id, patient_id, scheduled_at, status, notes, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Specialty,
		&d.AvailableSlots,
		&d.IsActive,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	for i, s := range d.AvailableSlots {
		d.AvailableSlots[i] = NormalizeSlot(s)
	}
	return &d, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var notes *string

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.PatientID,
		&a.ScheduledAt,
		&a.Status,
		&notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.ScheduledAt = NormalizeSlot(a.ScheduledAt)
	a.Notes = notes
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func activeStatusStrings() []string {
	out := make([]string, len(ActiveStatuses))
	for i, s := range ActiveStatuses {
		out[i] = string(s)
	}
	return out
}

// Doctors

func (q pgQueries) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := q.db.QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, id)
	return scanDoctor(row)
}

func (q pgQueries) GetDoctorForUpdate(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := q.db.QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1 FOR UPDATE`, id)
	return scanDoctor(row)
}

func (q pgQueries) ListDoctors(ctx context.Context, activeOnly bool) ([]Doctor, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE ($1 = false OR is_active)
		ORDER BY name, id
	`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func (q pgQueries) CreateDoctor(ctx context.Context, d *Doctor) error {
	row := q.db.QueryRow(ctx, `
		INSERT INTO doctors (id, name, specialty, available_slots, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING `+doctorColumns,
		d.ID, d.Name, d.Specialty, d.AvailableSlots, d.IsActive)

	created, err := scanDoctor(row)
	if err != nil {
		return fmt.Errorf("insert doctor: %w", err)
	}
	*d = *created
	return nil
}

func (q pgQueries) UpdateDoctor(ctx context.Context, d *Doctor) error {
	row := q.db.QueryRow(ctx, `
		UPDATE doctors
		SET name = $2,
		    specialty = $3,
		    available_slots = $4,
		    is_active = $5,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+doctorColumns,
		d.ID, d.Name, d.Specialty, d.AvailableSlots, d.IsActive)

	updated, err := scanDoctor(row)
	if err != nil {
		return err
	}
	*d = *updated
	return nil
}

// Patients

func (q pgQueries) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// Appointments

func (q pgQueries) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := q.db.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

func (q pgQueries) GetAppointmentForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := q.db.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id)
	return scanAppointment(row)
}

func (q pgQueries) FindActiveAppointment(ctx context.Context, doctorID uuid.UUID, at time.Time, excludeID uuid.UUID) (*Appointment, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND scheduled_at = $2
		  AND id <> $3
		  AND status = ANY($4)
		LIMIT 1
	`, doctorID, NormalizeSlot(at), excludeID, activeStatusStrings())
	return scanAppointment(row)
}

func (q pgQueries) ListActiveAppointmentsForDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND status = ANY($2)
		ORDER BY scheduled_at
	`, doctorID, activeStatusStrings())
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (q pgQueries) InsertAppointment(ctx context.Context, a *Appointment) error {
	row := q.db.QueryRow(ctx, `
		INSERT INTO appointments (id, doctor_id, patient_id, scheduled_at, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING `+appointmentColumns,
		a.ID, a.DoctorID, a.PatientID, NormalizeSlot(a.ScheduledAt), a.Status, a.Notes)

	created, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotConflict
		}
		return fmt.Errorf("insert appointment: %w", err)
	}
	*a = *created
	return nil
}

func (q pgQueries) UpdateAppointment(ctx context.Context, a *Appointment) error {
	row := q.db.QueryRow(ctx, `
		UPDATE appointments
		SET scheduled_at = $2,
		    status = $3,
		    notes = $4,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns,
		a.ID, NormalizeSlot(a.ScheduledAt), a.Status, a.Notes)

	updated, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotConflict
		}
		return err
	}
	*a = *updated
	return nil
}

// buildListWhere turns a Filter into a WHERE clause with positional args.
func buildListWhere(f Filter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.DoctorID != nil {
		add("doctor_id = $%d", *f.DoctorID)
	}
	if f.PatientID != nil {
		add("patient_id = $%d", *f.PatientID)
	}
	if f.Status != nil {
		add("status = $%d", string(*f.Status))
	}
	if f.From != nil {
		add("scheduled_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("scheduled_at <= $%d", *f.To)
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (q pgQueries) ListAppointments(ctx context.Context, f Filter, p Page) ([]Appointment, int, error) {
	where, args := buildListWhere(f)

	var total int
	if err := q.db.QueryRow(ctx, `SELECT count(*) FROM appointments `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	pageArgs := append(args, p.Limit, p.Offset())
	rows, err := q.db.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM appointments
		%s
		ORDER BY scheduled_at, id
		LIMIT $%d OFFSET $%d
	`, appointmentColumns, where, len(args)+1, len(args)+2), pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}

	items, err := collectAppointments(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Events

func (q pgQueries) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
