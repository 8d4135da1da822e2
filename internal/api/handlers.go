package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/auth"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/report"
)

type Handlers struct {
	appointments *appointment.Service
	clinic       *clinic.Service
	auth         *auth.Service
	reports      *report.Service
	validate     *validator.Validate
}

func NewHandlers(appointments *appointment.Service, clinicSvc *clinic.Service, authSvc *auth.Service, reports *report.Service) *Handlers {
	return &Handlers{
		appointments: appointments,
		clinic:       clinicSvc,
		auth:         authSvc,
		reports:      reports,
		validate:     newValidator(),
	}
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.decode(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Availability

func (h *Handlers) CreateAvailability(w http.ResponseWriter, r *http.Request) {
	var req AvailabilityRequest
	if err := h.decode(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	slot, err := h.appointments.CreateSlot(r.Context(), appointment.NewSlot{
		DoctorID:  req.DoctorID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAvailabilityResponse(*slot))
}

func (h *Handlers) ListAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID, err := queryID(r, "doctor_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slots, err := h.appointments.ListSlots(r.Context(), doctorID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := make([]AvailabilityResponse, 0, len(slots))
	for _, s := range slots {
		resp = append(resp, toAvailabilityResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) DeleteAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.appointments.DeleteSlot(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Appointments

func (h *Handlers) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req AppointmentRequest
	if err := h.decode(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	target, err := appointment.ParseDateTime(req.Date)
	if err != nil {
		writeServiceError(w, r, appointment.ErrInvalidDateFormat)
		return
	}

	appt, err := h.appointments.Reserve(r.Context(), appointment.ReserveRequest{
		PatientID:  req.PatientID,
		DoctorID:   req.DoctorID,
		SlotID:     req.SlotID,
		TargetDate: target,
		Status:     appointment.Status(req.Status),
		Reason:     req.Reason,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAppointmentResponse(*appt))
}

func (h *Handlers) ListAppointments(w http.ResponseWriter, r *http.Request) {
	doctorID, err := queryID(r, "doctor_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	appts, err := h.appointments.ListAppointments(r.Context(), doctorID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := make([]AppointmentResponse, 0, len(appts))
	for _, a := range appts {
		row := toAppointmentResponse(a.Appointment)
		row.PatientName = a.PatientName
		row.DoctorName = a.DoctorName
		resp = append(resp, row)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	detail, err := h.appointments.GetAppointment(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := toAppointmentResponse(detail.Appointment)
	resp.PatientName = detail.PatientName
	resp.PatientEmail = detail.PatientEmail
	resp.DoctorName = detail.DoctorName
	resp.Specialty = detail.SpecialtyName
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req StatusRequest
	if err := h.decode(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	appt, err := h.appointments.Transition(r.Context(), id, appointment.Status(req.Status))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(*appt))
}

// History

func (h *Handlers) CreateHistory(w http.ResponseWriter, r *http.Request) {
	var req HistoryRequest
	if err := h.decode(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	entry, err := h.appointments.AddHistory(r.Context(), appointment.ManualHistory{
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		Description:   req.Description,
		ScheduledAt:   req.ScheduledAt,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHistoryResponse(*entry))
}

func (h *Handlers) ListHistory(w http.ResponseWriter, r *http.Request) {
	h.writeHistory(w, r, nil)
}

func (h *Handlers) PatientHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if _, err := h.clinic.GetPatient(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeHistory(w, r, &id)
}

func (h *Handlers) writeHistory(w http.ResponseWriter, r *http.Request, patientID *int64) {
	records, err := h.appointments.ListHistory(r.Context(), patientID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := make([]HistoryResponse, 0, len(records))
	for _, rec := range records {
		row := toHistoryResponse(rec.HistoryEntry)
		row.DoctorName = rec.DoctorName
		row.Specialty = rec.SpecialtyName
		resp = append(resp, row)
	}
	writeJSON(w, http.StatusOK, resp)
}
