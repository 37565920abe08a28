package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-appointment-scheduling/internal/appointment"
	"github.com/hackgods/hospital-appointment-scheduling/internal/patient"
)

// Requests

type CreateAppointmentRequest struct {
	DoctorID    string    `json:"doctorId" validate:"required,uuid"`
	PatientID   string    `json:"patientId" validate:"required,uuid"`
	ScheduledAt time.Time `json:"scheduledAt" validate:"required"`
	Notes       *string   `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type RescheduleAppointmentRequest struct {
	NewScheduledAt time.Time `json:"newScheduledAt" validate:"required"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type CreateDoctorRequest struct {
	Name           string      `json:"name" validate:"required,max=100"`
	Specialty      string      `json:"specialty" validate:"required,max=100"`
	AvailableSlots []time.Time `json:"availableSlots"`
	IsActive       *bool       `json:"isActive,omitempty"`
}

type ReplaceSlotsRequest struct {
	AvailableSlots []time.Time `json:"availableSlots" validate:"required"`
}

type SetDoctorActiveRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type RegisterPatientRequest struct {
	Name      string  `json:"name" validate:"required,max=50"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required"`
	BirthDate string  `json:"birthDate" validate:"required"`
	Phone     *string `json:"phone,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Responses

type AppointmentResponse struct {
	ID          uuid.UUID `json:"id"`
	DoctorID    uuid.UUID `json:"doctorId"`
	PatientID   uuid.UUID `json:"patientId"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Status      string    `json:"status"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type AppointmentMessageResponse struct {
	Message     string              `json:"message"`
	Appointment AppointmentResponse `json:"appointment"`
}

type RescheduleResponse struct {
	Message        string              `json:"message"`
	Appointment    AppointmentResponse `json:"appointment"`
	AvailableSlots []time.Time         `json:"availableSlots"`
}

type AppointmentListResponse struct {
	Total int                   `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
	Data  []AppointmentResponse `json:"data"`
}

type DoctorResponse struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	Specialty      string      `json:"specialty"`
	AvailableSlots []time.Time `json:"availableSlots"`
	IsActive       bool        `json:"isActive"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

type FreeSlotsResponse struct {
	DoctorID       uuid.UUID   `json:"doctorId"`
	AvailableSlots []time.Time `json:"availableSlots"`
}

type PatientResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     *string    `json:"phone,omitempty"`
	BirthDate *time.Time `json:"birthDate,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type SessionResponse struct {
	Message string          `json:"message,omitempty"`
	Patient PatientResponse `json:"patient"`
	Token   string          `json:"token"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		DoctorID:    a.DoctorID,
		PatientID:   a.PatientID,
		ScheduledAt: a.ScheduledAt,
		Status:      string(a.Status),
		Notes:       a.Notes,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func nonNilSlots(slots []time.Time) []time.Time {
	if slots == nil {
		return []time.Time{}
	}
	return slots
}

func toDoctorResponse(d *appointment.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:             d.ID,
		Name:           d.Name,
		Specialty:      d.Specialty,
		AvailableSlots: nonNilSlots(d.AvailableSlots),
		IsActive:       d.IsActive,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func toPatientResponse(p *patient.Patient) PatientResponse {
	return PatientResponse{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		BirthDate: p.BirthDate,
		CreatedAt: p.CreatedAt,
	}
}
