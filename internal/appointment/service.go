package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisclient "github.com/hackgods/hospital-appointment-scheduling/internal/redis"
)

const (
	EventAppointmentCreated       = "APPOINTMENT_CREATED"
	EventAppointmentCancelled     = "APPOINTMENT_CANCELLED"
	EventAppointmentRescheduled   = "APPOINTMENT_RESCHEDULED"
	EventAppointmentStatusChanged = "APPOINTMENT_STATUS_CHANGED"
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
	log    zerolog.Logger
	now    func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source used for past-appointment checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, locker redisclient.Locker, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		locker: locker,
		log:    log.With().Str("component", "scheduler").Logger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateInput struct {
	DoctorID    uuid.UUID
	PatientID   uuid.UUID
	ScheduledAt time.Time
	Notes       *string
}

// CreateAppointment books a catalog slot of a doctor for a patient.
// The slot lock rejects concurrent bookings of the same instant early; the
// doctor row lock and the active-slot unique index make the check-and-insert atomic.
func (s *Service) CreateAppointment(ctx context.Context, in CreateInput) (*Appointment, error) {
	if in.ScheduledAt.IsZero() {
		return nil, fmt.Errorf("%w: scheduledAt is required", ErrValidation)
	}
	at := NormalizeSlot(in.ScheduledAt)

	var created *Appointment

	err := s.locker.WithSlotLock(ctx, in.DoctorID, at, func(lockCtx context.Context) error {
		return s.repo.WithinTx(lockCtx, func(ctx context.Context, q Queries) error {
			doctor, err := q.GetDoctorForUpdate(ctx, in.DoctorID)
			if err != nil {
				return wrapLoad("doctor", err, ErrDoctorNotFound)
			}
			if !doctor.IsActive {
				return ErrDoctorInactive
			}

			exists, err := q.PatientExists(ctx, in.PatientID)
			if err != nil {
				return fmt.Errorf("load patient: %w", err)
			}
			if !exists {
				return ErrPatientNotFound
			}

			if !ContainsSlot(doctor.AvailableSlots, at) {
				return ErrSlotUnavailable
			}

			if err := ensureSlotFree(ctx, q, doctor.ID, at, uuid.Nil); err != nil {
				return err
			}

			appt := &Appointment{
				ID:          uuid.New(),
				DoctorID:    doctor.ID,
				PatientID:   in.PatientID,
				ScheduledAt: at,
				Status:      StatusCreated,
				Notes:       in.Notes,
			}
			if err := q.InsertAppointment(ctx, appt); err != nil {
				return err
			}

			created = appt
			return nil
		})
	})
	if err != nil {
		return nil, lockErr(err)
	}

	s.logEvent(ctx, created.ID, EventAppointmentCreated, map[string]any{
		"doctor_id":    created.DoctorID.String(),
		"patient_id":   created.PatientID.String(),
		"scheduled_at": created.ScheduledAt,
	})

	return created, nil
}

// CancelAppointment cancels a future, non-final appointment. The slot becomes
// bookable again because availability is always derived from active appointments.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var cancelled *Appointment

	err := s.repo.WithinTx(ctx, func(ctx context.Context, q Queries) error {
		appt, err := q.GetAppointmentForUpdate(ctx, id)
		if err != nil {
			return wrapLoad("appointment", err, ErrAppointmentNotFound)
		}

		if !appt.ScheduledAt.After(s.now()) {
			return ErrPastAppointment
		}
		if appt.Status.IsFinal() {
			return fmt.Errorf("%w: appointment already %s", ErrAlreadyFinal, strings.ToLower(string(appt.Status)))
		}

		appt.Status = StatusCancelled
		if err := q.UpdateAppointment(ctx, appt); err != nil {
			return fmt.Errorf("cancel appointment: %w", err)
		}

		cancelled = appt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, cancelled.ID, EventAppointmentCancelled, map[string]any{
		"scheduled_at": cancelled.ScheduledAt,
	})

	return cancelled, nil
}

// RescheduleAppointment moves an appointment to another catalog slot of the same
// doctor and returns the doctor's free slots as they are after the move.
func (s *Service) RescheduleAppointment(ctx context.Context, id uuid.UUID, newScheduledAt time.Time) (*RescheduleResult, error) {
	if newScheduledAt.IsZero() {
		return nil, fmt.Errorf("%w: newScheduledAt is required", ErrValidation)
	}
	at := NormalizeSlot(newScheduledAt)

	// The doctor is needed for the lock key; everything is re-read inside the transaction.
	current, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, wrapLoad("appointment", err, ErrAppointmentNotFound)
	}

	var result *RescheduleResult
	var previous time.Time

	err = s.locker.WithSlotLock(ctx, current.DoctorID, at, func(lockCtx context.Context) error {
		return s.repo.WithinTx(lockCtx, func(ctx context.Context, q Queries) error {
			appt, err := q.GetAppointmentForUpdate(ctx, id)
			if err != nil {
				return wrapLoad("appointment", err, ErrAppointmentNotFound)
			}

			doctor, err := q.GetDoctorForUpdate(ctx, appt.DoctorID)
			if err != nil {
				return wrapLoad("doctor", err, ErrDoctorNotFound)
			}

			if appt.Status.IsFinal() {
				return fmt.Errorf("%w: appointment already %s", ErrAlreadyFinal, strings.ToLower(string(appt.Status)))
			}

			if !ContainsSlot(doctor.AvailableSlots, at) {
				return fmt.Errorf("%w: new time not available for doctor", ErrSlotUnavailable)
			}

			if err := ensureSlotFree(ctx, q, doctor.ID, at, appt.ID); err != nil {
				return err
			}

			previous = appt.ScheduledAt
			appt.ScheduledAt = at
			if err := q.UpdateAppointment(ctx, appt); err != nil {
				return fmt.Errorf("reschedule appointment: %w", err)
			}

			active, err := q.ListActiveAppointmentsForDoctor(ctx, doctor.ID)
			if err != nil {
				return fmt.Errorf("load active appointments: %w", err)
			}

			result = &RescheduleResult{
				Appointment:    appt,
				AvailableSlots: FreeSlots(doctor.AvailableSlots, active),
			}
			return nil
		})
	})
	if err != nil {
		return nil, lockErr(err)
	}

	s.logEvent(ctx, result.Appointment.ID, EventAppointmentRescheduled, map[string]any{
		"from": previous,
		"to":   result.Appointment.ScheduledAt,
	})

	return result, nil
}

// UpdateStatus applies a status change allowed by the transition table.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus AppointmentStatus) (*Appointment, error) {
	var updated *Appointment
	var previous AppointmentStatus

	err := s.repo.WithinTx(ctx, func(ctx context.Context, q Queries) error {
		appt, err := q.GetAppointmentForUpdate(ctx, id)
		if err != nil {
			return wrapLoad("appointment", err, ErrAppointmentNotFound)
		}

		if _, err := ParseStatus(string(newStatus)); err != nil {
			return err
		}
		if !IsValidTransition(appt.Status, newStatus) {
			return fmt.Errorf("%w: invalid transition from %s to %s", ErrInvalidTransition, appt.Status, newStatus)
		}

		previous = appt.Status
		appt.Status = newStatus
		if err := q.UpdateAppointment(ctx, appt); err != nil {
			return fmt.Errorf("update appointment status: %w", err)
		}

		updated = appt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, updated.ID, EventAppointmentStatusChanged, map[string]any{
		"from": previous,
		"to":   updated.Status,
	})

	return updated, nil
}

func ensureSlotFree(ctx context.Context, q Queries, doctorID uuid.UUID, at time.Time, excludeID uuid.UUID) error {
	existing, err := q.FindActiveAppointment(ctx, doctorID, at, excludeID)
	if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
		return fmt.Errorf("check conflicting appointment: %w", err)
	}
	if existing != nil {
		return ErrSlotConflict
	}
	return nil
}

// wrapLoad passes a not-found sentinel through untouched and wraps anything else.
func wrapLoad(what string, err, notFound error) error {
	if errors.Is(err, notFound) {
		return err
	}
	return fmt.Errorf("load %s: %w", what, err)
}

func lockErr(err error) error {
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return fmt.Errorf("%w: slot is currently being booked, please retry", ErrSlotConflict)
	}
	return err
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn().Err(err).Str("event_type", eventType).Msg("marshal event payload")
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Warn().Err(err).
			Str("event_type", eventType).
			Str("appointment_id", appointmentID.String()).
			Msg("insert event log")
	}
}
