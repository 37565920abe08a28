package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-appointment-scheduling/internal/appointment"
	"github.com/hackgods/hospital-appointment-scheduling/internal/patient"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: ErrDoctorInactive wraps ErrDoctorNotFound.
var errorMappings = []errorMapping{
	{errBadRequest, http.StatusBadRequest, "invalid_request"},
	{appointment.ErrDoctorInactive, http.StatusNotFound, "doctor_inactive"},
	{appointment.ErrDoctorNotFound, http.StatusNotFound, "doctor_not_found"},
	{appointment.ErrPatientNotFound, http.StatusNotFound, "patient_not_found"},
	{patient.ErrPatientNotFound, http.StatusNotFound, "patient_not_found"},
	{appointment.ErrAppointmentNotFound, http.StatusNotFound, "appointment_not_found"},
	{appointment.ErrValidation, http.StatusBadRequest, "validation_error"},
	{patient.ErrValidation, http.StatusBadRequest, "validation_error"},
	{appointment.ErrSlotUnavailable, http.StatusBadRequest, "slot_unavailable"},
	{appointment.ErrSlotConflict, http.StatusBadRequest, "slot_conflict"},
	{appointment.ErrInvalidTransition, http.StatusBadRequest, "invalid_transition"},
	{appointment.ErrAlreadyFinal, http.StatusBadRequest, "already_final"},
	{appointment.ErrPastAppointment, http.StatusBadRequest, "past_appointment"},
	{patient.ErrEmailTaken, http.StatusBadRequest, "email_taken"},
	{patient.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
}

// writeServiceError maps domain errors to 4xx responses. Anything unrecognised
// is a 500 and is the only case logged at error level.
func writeServiceError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			log.Debug().Err(err).
				Str("request_id", GetRequestID(r.Context())).
				Str("code", m.code).
				Msg("request rejected")
			writeError(w, m.status, m.code, err.Error())
			return
		}
	}

	log.Error().Err(err).
		Str("request_id", GetRequestID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("internal error")
	writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
