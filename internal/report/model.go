package report

import (
	"time"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

// Range is inclusive on both ends.
type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

type DoctorAppointment struct {
	ID              int64
	ScheduledAt     time.Time
	Status          appointment.Status
	Reason          *string
	DurationMinutes int
	PatientName     string
}

type SpecialtyCount struct {
	Specialty string
	Total     int
}

type StatusCount struct {
	Status appointment.Status
	Total  int
}

// Attendance counts completed appointments as attended and absent or
// cancelled ones as missed.
type Attendance struct {
	Attended int
	Missed   int
	ByStatus map[appointment.Status]int
}

// AttendedPatient is a patient with at least one completed appointment.
type AttendedPatient = clinic.Patient
