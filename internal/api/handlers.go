package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-appointment-scheduling/internal/appointment"
)

func createAppointmentHandler(svc *appointment.Service, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeServiceError(w, r, log, fmt.Errorf("%w: doctorId must be a valid UUID", errBadRequest))
			return
		}
		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeServiceError(w, r, log, fmt.Errorf("%w: patientId must be a valid UUID", errBadRequest))
			return
		}

		appt, err := svc.CreateAppointment(r.Context(), appointment.CreateInput{
			DoctorID:    doctorID,
			PatientID:   patientID,
			ScheduledAt: req.ScheduledAt,
			Notes:       trimNotes(req.Notes),
		})
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, AppointmentMessageResponse{
			Message:     "appointment created",
			Appointment: toAppointmentResponse(appt),
		})
	}
}

func listAppointmentsHandler(queries *appointment.QueryService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lq, err := parseListQuery(r.URL.Query())
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		items, total, page, err := queries.List(r.Context(), lq.filter, lq.page, lq.limit)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		data := make([]AppointmentResponse, 0, len(items))
		for i := range items {
			data = append(data, toAppointmentResponse(&items[i]))
		}

		writeJSON(w, http.StatusOK, AppointmentListResponse{
			Total: total,
			Page:  page.Number,
			Limit: page.Limit,
			Data:  data,
		})
	}
}

func getAppointmentHandler(queries *appointment.QueryService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		appt, err := queries.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc *appointment.Service, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		appt, err := svc.CancelAppointment(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, AppointmentMessageResponse{
			Message:     "appointment cancelled",
			Appointment: toAppointmentResponse(appt),
		})
	}
}

func rescheduleAppointmentHandler(svc *appointment.Service, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		var req RescheduleAppointmentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		res, err := svc.RescheduleAppointment(r.Context(), id, req.NewScheduledAt)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, RescheduleResponse{
			Message:        "appointment rescheduled",
			Appointment:    toAppointmentResponse(res.Appointment),
			AvailableSlots: nonNilSlots(res.AvailableSlots),
		})
	}
}

func updateStatusHandler(svc *appointment.Service, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		var req UpdateStatusRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		status := appointment.AppointmentStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
		appt, err := svc.UpdateStatus(r.Context(), id, status)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, AppointmentMessageResponse{
			Message:     "appointment status updated",
			Appointment: toAppointmentResponse(appt),
		})
	}
}

func trimNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
