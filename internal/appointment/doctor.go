package appointment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type CreateDoctorInput struct {
	Name           string
	Specialty      string
	AvailableSlots []time.Time
	IsActive       bool
}

// CreateDoctor registers a doctor with a deduplicated slot catalog.
func (s *Service) CreateDoctor(ctx context.Context, in CreateDoctorInput) (*Doctor, error) {
	name := strings.TrimSpace(in.Name)
	specialty := strings.TrimSpace(in.Specialty)
	if name == "" || specialty == "" {
		return nil, fmt.Errorf("%w: name and specialty are required", ErrValidation)
	}

	d := &Doctor{
		ID:             uuid.New(),
		Name:           name,
		Specialty:      specialty,
		AvailableSlots: DedupeSlots(in.AvailableSlots),
		IsActive:       in.IsActive,
	}
	if err := s.repo.CreateDoctor(ctx, d); err != nil {
		return nil, err
	}

	s.log.Info().Str("doctor_id", d.ID.String()).Int("slots", len(d.AvailableSlots)).Msg("doctor created")
	return d, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := s.repo.GetDoctorByID(ctx, id)
	if err != nil {
		return nil, wrapLoad("doctor", err, ErrDoctorNotFound)
	}
	return d, nil
}

func (s *Service) ListDoctors(ctx context.Context, activeOnly bool) ([]Doctor, error) {
	doctors, err := s.repo.ListDoctors(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	if doctors == nil {
		doctors = []Doctor{}
	}
	return doctors, nil
}

// FreeSlotsForDoctor is the Slot Ledger view for one doctor, read at a single point in time.
func (s *Service) FreeSlotsForDoctor(ctx context.Context, id uuid.UUID) ([]time.Time, error) {
	var free []time.Time

	err := s.repo.WithinTx(ctx, func(ctx context.Context, q Queries) error {
		d, err := q.GetDoctorByID(ctx, id)
		if err != nil {
			return wrapLoad("doctor", err, ErrDoctorNotFound)
		}
		active, err := q.ListActiveAppointmentsForDoctor(ctx, id)
		if err != nil {
			return fmt.Errorf("load active appointments: %w", err)
		}
		free = FreeSlots(d.AvailableSlots, active)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return free, nil
}

// ReplaceSlots swaps the doctor's slot catalog. Existing bookings are untouched;
// a booked instant missing from the new catalog simply can no longer be re-booked.
func (s *Service) ReplaceSlots(ctx context.Context, id uuid.UUID, slots []time.Time) (*Doctor, error) {
	return s.updateDoctor(ctx, id, func(d *Doctor) {
		d.AvailableSlots = DedupeSlots(slots)
	})
}

func (s *Service) SetDoctorActive(ctx context.Context, id uuid.UUID, active bool) (*Doctor, error) {
	return s.updateDoctor(ctx, id, func(d *Doctor) {
		d.IsActive = active
	})
}

func (s *Service) updateDoctor(ctx context.Context, id uuid.UUID, mutate func(d *Doctor)) (*Doctor, error) {
	var updated *Doctor

	err := s.repo.WithinTx(ctx, func(ctx context.Context, q Queries) error {
		d, err := q.GetDoctorForUpdate(ctx, id)
		if err != nil {
			return wrapLoad("doctor", err, ErrDoctorNotFound)
		}
		mutate(d)
		if err := q.UpdateDoctor(ctx, d); err != nil {
			return fmt.Errorf("update doctor: %w", err)
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
