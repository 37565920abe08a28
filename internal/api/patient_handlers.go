package api

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-appointment-scheduling/internal/patient"
)

func listPatientsHandler(svc *patient.Service, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patients, err := svc.List(r.Context())
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		resp := make([]PatientResponse, 0, len(patients))
		for i := range patients {
			resp = append(resp, toPatientResponse(&patients[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getPatientHandler(svc *patient.Service, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		p, err := svc.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func registerPatientHandler(svc *patient.Service, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterPatientRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		birth, err := parseTime(req.BirthDate)
		if err != nil {
			writeServiceError(w, r, log, fmt.Errorf("%w: invalid date of birth", errBadRequest))
			return
		}

		session, err := svc.Register(r.Context(), patient.RegisterInput{
			Name:      req.Name,
			Email:     req.Email,
			Password:  req.Password,
			Phone:     req.Phone,
			BirthDate: &birth,
		})
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, SessionResponse{
			Patient: toPatientResponse(session.Patient),
			Token:   session.Token,
		})
	}
}

func loginPatientHandler(svc *patient.Service, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		session, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, SessionResponse{
			Message: "login successful",
			Patient: toPatientResponse(session.Patient),
			Token:   session.Token,
		})
	}
}
