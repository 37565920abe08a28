package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-appointment-scheduling/internal/appointment"
	"github.com/hackgods/hospital-appointment-scheduling/internal/patient"
	redisclient "github.com/hackgods/hospital-appointment-scheduling/internal/redis"
)

type RouterConfig struct {
	Scheduler   *appointment.Service
	Queries     *appointment.QueryService
	Patients    *patient.Service
	RateLimiter redisclient.RateLimiter // nil disables booking rate limiting
	Postgres    Pinger
	Redis       Pinger
	Logger      zerolog.Logger
	Env         string
	Version     string
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger.With().Str("component", "http").Logger()

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(log))
	r.Use(middleware.Recoverer)

	health := NewHealthHandler(cfg.Postgres, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/appointments", func(r chi.Router) {
		r.Get("/", listAppointmentsHandler(cfg.Queries, log))
		r.Get("/{id}", getAppointmentHandler(cfg.Queries, log))

		book := http.Handler(createAppointmentHandler(cfg.Scheduler, log))
		if cfg.RateLimiter != nil {
			var tokens TokenParser
			if cfg.Patients != nil {
				tokens = cfg.Patients
			}
			book = RateLimitMiddleware(cfg.RateLimiter, tokens, log)(book)
		}
		r.Method(http.MethodPost, "/", book)

		r.Patch("/{id}/cancel", cancelAppointmentHandler(cfg.Scheduler, log))
		r.Patch("/{id}/reschedule", rescheduleAppointmentHandler(cfg.Scheduler, log))
		r.Patch("/{id}/status", updateStatusHandler(cfg.Scheduler, log))
	})

	r.Route("/doctors", func(r chi.Router) {
		r.Get("/", listDoctorsHandler(cfg.Scheduler, log))
		r.Post("/", createDoctorHandler(cfg.Scheduler, log))
		r.Get("/{id}", getDoctorHandler(cfg.Scheduler, log))
		r.Get("/{id}/slots", doctorFreeSlotsHandler(cfg.Scheduler, log))
		r.Put("/{id}/slots", replaceDoctorSlotsHandler(cfg.Scheduler, log))
		r.Patch("/{id}/active", setDoctorActiveHandler(cfg.Scheduler, log))
	})

	if cfg.Patients != nil {
		r.Route("/patients", func(r chi.Router) {
			r.Get("/", listPatientsHandler(cfg.Patients, log))
			r.Post("/", registerPatientHandler(cfg.Patients, log))
			r.Post("/login", loginPatientHandler(cfg.Patients, log))
			r.Get("/{id}", getPatientHandler(cfg.Patients, log))
		})
	}

	return r
}
