package appointment

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusCreated   AppointmentStatus = "CREATED"
	StatusConfirmed AppointmentStatus = "CONFIRMED"
	StatusCancelled AppointmentStatus = "CANCELLED"
	StatusCompleted AppointmentStatus = "COMPLETED"
)

// IsActive reports whether an appointment in this status holds its slot.
func (s AppointmentStatus) IsActive() bool {
	return s == StatusCreated || s == StatusConfirmed
}

func (s AppointmentStatus) IsFinal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// ActiveStatuses is the set counted against slot availability.
var ActiveStatuses = []AppointmentStatus{StatusCreated, StatusConfirmed}

type Doctor struct {
	ID             uuid.UUID
	Name           string
	Specialty      string
	AvailableSlots []time.Time
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Appointment struct {
	ID          uuid.UUID
	DoctorID    uuid.UUID
	PatientID   uuid.UUID
	ScheduledAt time.Time
	Status      AppointmentStatus
	Notes       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// Filter narrows appointment listings. Nil fields are not applied.
type Filter struct {
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Status    *AppointmentStatus
	From      *time.Time
	To        *time.Time
}

// Matches reports whether a satisfies every set field of f.
func (f Filter) Matches(a Appointment) bool {
	if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
		return false
	}
	if f.PatientID != nil && a.PatientID != *f.PatientID {
		return false
	}
	if f.Status != nil && a.Status != *f.Status {
		return false
	}
	if f.From != nil && a.ScheduledAt.Before(*f.From) {
		return false
	}
	if f.To != nil && a.ScheduledAt.After(*f.To) {
		return false
	}
	return true
}

type Page struct {
	Number int // 1-indexed
	Limit  int
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// RescheduleResult carries the moved appointment and the doctor's free slots after the move.
type RescheduleResult struct {
	Appointment    *Appointment
	AvailableSlots []time.Time
}
