package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const patientColumns = `id, name, email, phone, birth_date, password_hash, created_at, updated_at`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.Phone,
		&p.BirthDate,
		&p.PasswordHash,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgRepository) Create(ctx context.Context, p *Patient) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, name, email, phone, birth_date, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING `+patientColumns,
		p.ID, p.Name, p.Email, p.Phone, p.BirthDate, p.PasswordHash)

	created, err := scanPatient(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert patient: %w", err)
	}
	*p = *created
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetByEmail(ctx context.Context, email string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE lower(email) = lower($1)`, email)
	return scanPatient(row)
}

func (r *PgRepository) List(ctx context.Context) ([]Patient, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+patientColumns+` FROM patients ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}
