package appointment

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusAbsent    Status = "absent"
)

// Statuses lists the closed set of appointment statuses.
var Statuses = []Status{StatusScheduled, StatusCompleted, StatusCancelled, StatusAbsent}

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusAbsent:
		return true
	}
	return false
}

// Live reports whether an appointment in this status holds its slot.
func (s Status) Live() bool {
	return s != StatusCancelled
}

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// Slot is a dated availability window of a doctor. Date and times keep the
// textual form they were registered with (YYYY-MM-DD, HH:MM).
type Slot struct {
	ID        int64
	DoctorID  int64
	Date      string
	StartTime string
	EndTime   string
	Active    bool
	CreatedAt time.Time
}

type Appointment struct {
	ID              int64
	PatientID       int64
	DoctorID        int64
	SlotID          *int64
	ScheduledAt     time.Time
	Status          Status
	Reason          *string
	DurationMinutes int
	ReminderMarker  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AppointmentView is a list row with display names.
type AppointmentView struct {
	Appointment
	PatientName string
	DoctorName  string
}

// AppointmentDetail carries everything the reminder collaborator needs.
type AppointmentDetail struct {
	Appointment
	PatientName   string
	PatientEmail  string
	DoctorName    string
	SpecialtyName string
}

// HistoryEntry is the patient-facing projection of an appointment, or a
// manual note when AppointmentID is nil.
type HistoryEntry struct {
	ID            int64
	PatientID     int64
	AppointmentID *int64
	Description   string
	Status        Status
	ScheduledAt   *time.Time
}

type HistoryRecord struct {
	HistoryEntry
	DoctorName    *string
	SpecialtyName *string
}
