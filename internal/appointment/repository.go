package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrDoctorInactive      = fmt.Errorf("%w: doctor is not accepting bookings", ErrDoctorNotFound)
	ErrPatientNotFound     = errors.New("patient not found")
	ErrValidation          = errors.New("validation failed")
	ErrSlotUnavailable     = errors.New("scheduled time not available")
	ErrSlotConflict        = errors.New("doctor already has an appointment at this time")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrAlreadyFinal        = errors.New("appointment already final")
	ErrPastAppointment     = errors.New("cannot cancel past appointment")
)

// Queries contains the DB interactions the scheduler needs. The same set is
// available on the pool and inside a transaction.
type Queries interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	// GetDoctorForUpdate locks the doctor row until the surrounding transaction ends.
	GetDoctorForUpdate(ctx context.Context, id uuid.UUID) (*Doctor, error)
	ListDoctors(ctx context.Context, activeOnly bool) ([]Doctor, error)
	CreateDoctor(ctx context.Context, d *Doctor) error
	UpdateDoctor(ctx context.Context, d *Doctor) error

	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// FindActiveAppointment returns the active appointment holding (doctorID, at),
	// ignoring excludeID, or ErrAppointmentNotFound.
	FindActiveAppointment(ctx context.Context, doctorID uuid.UUID, at time.Time, excludeID uuid.UUID) (*Appointment, error)
	ListActiveAppointmentsForDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error)
	InsertAppointment(ctx context.Context, a *Appointment) error
	UpdateAppointment(ctx context.Context, a *Appointment) error
	ListAppointments(ctx context.Context, f Filter, p Page) ([]Appointment, int, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}

// Repository is Queries plus a unit of work. fn either commits entirely or not at all.
type Repository interface {
	Queries
	WithinTx(ctx context.Context, fn func(ctx context.Context, q Queries) error) error
}
