package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/auth"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/report"
)

type RouterConfig struct {
	Appointments *appointment.Service
	Clinic       *clinic.Service
	Auth         *auth.Service
	Tokens       *auth.TokenIssuer
	Reports      *report.Service
	Postgres     Pinger
	Redis        Pinger
	Logger       zerolog.Logger
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(RecoveryMiddleware)
	r.Use(auth.Middleware(cfg.Tokens, auth.OpenPaths...))

	health := NewHealthHandler(cfg.Postgres, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health", health.Liveness)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	h := NewHandlers(cfg.Appointments, cfg.Clinic, cfg.Auth, cfg.Reports)

	r.Post("/auth/login", h.Login)

	r.Route("/patients", func(r chi.Router) {
		r.Post("/", h.CreatePatient)
		r.Get("/", h.ListPatients)
		r.Get("/{id}", h.GetPatient)
		r.Put("/{id}", h.UpdatePatient)
		r.Delete("/{id}", h.DeletePatient)
		r.Get("/{id}/history", h.PatientHistory)
		r.Get("/{id}/prescriptions", h.PatientPrescriptions)
	})

	r.Route("/specialties", func(r chi.Router) {
		r.Post("/", h.CreateSpecialty)
		r.Get("/", h.ListSpecialties)
		r.Put("/{id}", h.UpdateSpecialty)
		r.Delete("/{id}", h.DeleteSpecialty)
	})

	r.Route("/doctors", func(r chi.Router) {
		r.Post("/", h.CreateDoctor)
		r.Get("/", h.ListDoctors)
		r.Get("/{id}", h.GetDoctor)
		r.Put("/{id}", h.UpdateDoctor)
		r.Delete("/{id}", h.DeleteDoctor)
	})

	r.Route("/availability", func(r chi.Router) {
		r.Post("/", h.CreateAvailability)
		r.Get("/", h.ListAvailability)
		r.Delete("/{id}", h.DeleteAvailability)
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", h.CreateAppointment)
		r.Get("/", h.ListAppointments)
		r.Get("/{id}", h.GetAppointment)
		r.Put("/{id}/status", h.UpdateAppointmentStatus)
	})

	r.Post("/history", h.CreateHistory)
	r.Get("/history", h.ListHistory)

	r.Route("/prescriptions", func(r chi.Router) {
		r.Post("/", h.CreatePrescription)
		r.Get("/", h.ListPrescriptions)
		r.Get("/{id}", h.GetPrescription)
		r.Delete("/{id}", h.DeletePrescription)
	})

	r.Route("/reports", func(r chi.Router) {
		r.Get("/appointments-by-doctor", h.AppointmentsByDoctor)
		r.Get("/appointments-by-specialty", h.AppointmentsBySpecialty)
		r.Get("/patients-attended", h.PatientsAttended)
		r.Get("/attendance", h.Attendance)
	})

	return r
}
