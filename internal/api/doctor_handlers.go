package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-appointment-scheduling/internal/appointment"
)

func listDoctorsHandler(svc *appointment.Service, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeOnly := r.URL.Query().Get("active") == "true"

		doctors, err := svc.ListDoctors(r.Context(), activeOnly)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		resp := make([]DoctorResponse, 0, len(doctors))
		for i := range doctors {
			resp = append(resp, toDoctorResponse(&doctors[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getDoctorHandler(svc *appointment.Service, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		d, err := svc.GetDoctor(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponse(d))
	}
}

func createDoctorHandler(svc *appointment.Service, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateDoctorRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		active := true
		if req.IsActive != nil {
			active = *req.IsActive
		}

		d, err := svc.CreateDoctor(r.Context(), appointment.CreateDoctorInput{
			Name:           req.Name,
			Specialty:      req.Specialty,
			AvailableSlots: req.AvailableSlots,
			IsActive:       active,
		})
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, toDoctorResponse(d))
	}
}

func doctorFreeSlotsHandler(svc *appointment.Service, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		free, err := svc.FreeSlotsForDoctor(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, FreeSlotsResponse{DoctorID: id, AvailableSlots: nonNilSlots(free)})
	}
}

func replaceDoctorSlotsHandler(svc *appointment.Service, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		var req ReplaceSlotsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		d, err := svc.ReplaceSlots(r.Context(), id, req.AvailableSlots)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponse(d))
	}
}

func setDoctorActiveHandler(svc *appointment.Service, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		var req SetDoctorActiveRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		d, err := svc.SetDoctorActive(r.Context(), id, *req.IsActive)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponse(d))
	}
}
