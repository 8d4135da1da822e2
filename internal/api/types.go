package api

import (
	"time"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/report"
)

// Timestamps are naive local times on the wire.
const timestampLayout = "2006-01-02T15:04:05"

func formatTime(t time.Time) string {
	return t.Format(timestampLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Auth

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Patients

type PatientRequest struct {
	DNI       string `json:"dni" validate:"required,min=6"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
}

type PatientResponse struct {
	ID        int64  `json:"id"`
	DNI       string `json:"dni"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func toPatientResponse(p clinic.Patient) PatientResponse {
	return PatientResponse{ID: p.ID, DNI: p.DNI, FirstName: p.FirstName, LastName: p.LastName, Email: p.Email}
}

// Specialties

type SpecialtyRequest struct {
	Name string `json:"name" validate:"required"`
}

type SpecialtyResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Doctors

type DoctorRequest struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	SpecialtyID int64  `json:"specialty_id" validate:"required,gt=0"`
	Email       string `json:"email" validate:"required,email"`
}

type DoctorResponse struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	SpecialtyID int64  `json:"specialty_id"`
	Specialty   string `json:"specialty,omitempty"`
	Email       string `json:"email"`
}

func toDoctorResponse(d clinic.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:          d.ID,
		FirstName:   d.FirstName,
		LastName:    d.LastName,
		SpecialtyID: d.SpecialtyID,
		Specialty:   d.SpecialtyName,
		Email:       d.Email,
	}
}

// Availability

type AvailabilityRequest struct {
	DoctorID  int64  `json:"doctor_id" validate:"required,gt=0"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
}

type AvailabilityResponse struct {
	ID        int64  `json:"id"`
	DoctorID  int64  `json:"doctor_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Active    bool   `json:"active"`
}

func toAvailabilityResponse(s appointment.Slot) AvailabilityResponse {
	return AvailabilityResponse{
		ID:        s.ID,
		DoctorID:  s.DoctorID,
		Date:      s.Date,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Active:    s.Active,
	}
}

// Appointments

type AppointmentRequest struct {
	PatientID int64   `json:"patient_id" validate:"required,gt=0"`
	DoctorID  int64   `json:"doctor_id" validate:"required,gt=0"`
	SlotID    int64   `json:"slot_id" validate:"required,gt=0"`
	Date      string  `json:"date" validate:"required"`
	Reason    *string `json:"reason"`
	Status    string  `json:"status" validate:"omitempty,oneof=scheduled completed cancelled absent"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=scheduled completed cancelled absent"`
}

type AppointmentResponse struct {
	ID              int64   `json:"id"`
	PatientID       int64   `json:"patient_id"`
	DoctorID        int64   `json:"doctor_id"`
	SlotID          *int64  `json:"slot_id"`
	ScheduledAt     string  `json:"scheduled_at"`
	Status          string  `json:"status"`
	Reason          *string `json:"reason"`
	DurationMinutes int     `json:"duration_minutes"`
	ReminderMarker  string  `json:"reminder_marker,omitempty"`
	PatientName     string  `json:"patient_name,omitempty"`
	PatientEmail    string  `json:"patient_email,omitempty"`
	DoctorName      string  `json:"doctor_name,omitempty"`
	Specialty       string  `json:"specialty,omitempty"`
}

func toAppointmentResponse(a appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		PatientID:       a.PatientID,
		DoctorID:        a.DoctorID,
		SlotID:          a.SlotID,
		ScheduledAt:     formatTime(a.ScheduledAt),
		Status:          string(a.Status),
		Reason:          a.Reason,
		DurationMinutes: a.DurationMinutes,
		ReminderMarker:  a.ReminderMarker,
	}
}

// History

type HistoryRequest struct {
	PatientID     int64  `json:"patient_id" validate:"required,gt=0"`
	AppointmentID *int64 `json:"appointment_id" validate:"omitempty,gt=0"`
	Description   string `json:"description" validate:"required"`
	ScheduledAt   string `json:"scheduled_at"`
}

type HistoryResponse struct {
	ID            int64   `json:"id"`
	PatientID     int64   `json:"patient_id"`
	AppointmentID *int64  `json:"appointment_id"`
	Description   string  `json:"description"`
	Status        string  `json:"status"`
	ScheduledAt   *string `json:"scheduled_at"`
	DoctorName    *string `json:"doctor_name,omitempty"`
	Specialty     *string `json:"specialty,omitempty"`
}

func toHistoryResponse(h appointment.HistoryEntry) HistoryResponse {
	return HistoryResponse{
		ID:            h.ID,
		PatientID:     h.PatientID,
		AppointmentID: h.AppointmentID,
		Description:   h.Description,
		Status:        string(h.Status),
		ScheduledAt:   formatTimePtr(h.ScheduledAt),
	}
}

// Prescriptions

type PrescriptionRequest struct {
	DoctorID    int64  `json:"doctor_id" validate:"required,gt=0"`
	PatientID   int64  `json:"patient_id" validate:"required,gt=0"`
	Description string `json:"description" validate:"required"`
}

type PrescriptionResponse struct {
	ID          int64  `json:"id"`
	DoctorID    int64  `json:"doctor_id"`
	PatientID   int64  `json:"patient_id"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	DoctorName  string `json:"doctor_name,omitempty"`
}

func toPrescriptionResponse(p clinic.Prescription) PrescriptionResponse {
	return PrescriptionResponse{
		ID:          p.ID,
		DoctorID:    p.DoctorID,
		PatientID:   p.PatientID,
		Description: p.Description,
		CreatedAt:   formatTime(p.CreatedAt),
	}
}

// Reports

type DoctorAppointmentRow struct {
	ID              int64   `json:"id"`
	ScheduledAt     string  `json:"scheduled_at"`
	Status          string  `json:"status"`
	Reason          *string `json:"reason"`
	DurationMinutes int     `json:"duration_minutes"`
	PatientName     string  `json:"patient_name"`
}

type SpecialtyCountRow struct {
	Specialty string `json:"specialty"`
	Total     int    `json:"total"`
}

type AttendanceResponse struct {
	Attended int            `json:"attended"`
	Missed   int            `json:"missed"`
	ByStatus map[string]int `json:"by_status"`
}

func toAttendanceResponse(a report.Attendance) AttendanceResponse {
	by := make(map[string]int, len(a.ByStatus))
	for status, n := range a.ByStatus {
		by[string(status)] = n
	}
	return AttendanceResponse{Attended: a.Attended, Missed: a.Missed, ByStatus: by}
}
