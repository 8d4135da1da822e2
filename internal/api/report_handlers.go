package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/report"
)

// parseRange reads from/to. A bare date as "to" covers that whole day.
func parseRange(r *http.Request) (report.Range, error) {
	q := r.URL.Query()
	rawFrom, rawTo := strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to"))
	if rawFrom == "" || rawTo == "" {
		return report.Range{}, apperr.Validation("from and to are required")
	}

	from, err := appointment.ParseDateTime(rawFrom)
	if err != nil {
		return report.Range{}, apperr.Validation("from must be a date or date-time")
	}
	to, err := appointment.ParseDateTime(rawTo)
	if err != nil {
		return report.Range{}, apperr.Validation("to must be a date or date-time")
	}
	if len(rawTo) == len(appointment.DateLayout) {
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return report.Range{From: from, To: to}, nil
}

func (h *Handlers) AppointmentsByDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID, err := queryID(r, "doctor_id")
	if err == nil && doctorID == nil {
		err = apperr.Validation("doctor_id is required")
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rg, err := parseRange(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	rows, err := h.reports.AppointmentsByDoctor(r.Context(), *doctorID, rg)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := make([]DoctorAppointmentRow, 0, len(rows))
	for _, a := range rows {
		resp = append(resp, DoctorAppointmentRow{
			ID:              a.ID,
			ScheduledAt:     formatTime(a.ScheduledAt),
			Status:          string(a.Status),
			Reason:          a.Reason,
			DurationMinutes: a.DurationMinutes,
			PatientName:     a.PatientName,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) AppointmentsBySpecialty(w http.ResponseWriter, r *http.Request) {
	var rg *report.Range
	if r.URL.Query().Get("from") != "" || r.URL.Query().Get("to") != "" {
		parsed, err := parseRange(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		rg = &parsed
	}

	counts, err := h.reports.CountBySpecialty(r.Context(), rg)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := make([]SpecialtyCountRow, 0, len(counts))
	for _, c := range counts {
		resp = append(resp, SpecialtyCountRow{Specialty: c.Specialty, Total: c.Total})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) PatientsAttended(w http.ResponseWriter, r *http.Request) {
	rg, err := parseRange(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	patients, err := h.reports.PatientsAttended(r.Context(), rg)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := make([]PatientResponse, 0, len(patients))
	for _, p := range patients {
		resp = append(resp, toPatientResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) Attendance(w http.ResponseWriter, r *http.Request) {
	rg, err := parseRange(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	stats, err := h.reports.Attendance(r.Context(), rg)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAttendanceResponse(*stats))
}
