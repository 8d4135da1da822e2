package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

const (
	subjectConfirmation = "Appointment confirmation"
	subjectReminder     = "Appointment reminder"
	subjectPrescription = "New prescription"
)

// Booking is the part of an appointment the patient is told about.
type Booking struct {
	AppointmentID int64
	ScheduledAt   time.Time
	PatientName   string
	PatientEmail  string
	DoctorName    string
	SpecialtyName string
}

func BookingFromDetail(d appointment.AppointmentDetail) Booking {
	return Booking{
		AppointmentID: d.ID,
		ScheduledAt:   d.ScheduledAt,
		PatientName:   d.PatientName,
		PatientEmail:  d.PatientEmail,
		DoctorName:    d.DoctorName,
		SpecialtyName: d.SpecialtyName,
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// humanize renders a lead time in the largest whole unit: days, hours or
// minutes.
func humanize(d time.Duration) string {
	minutes := int(d / time.Minute)
	switch {
	case minutes > 0 && minutes%(24*60) == 0:
		return plural(minutes/(24*60), "day")
	case minutes > 0 && minutes%60 == 0:
		return plural(minutes/60, "hour")
	}
	return plural(minutes, "minute")
}

func withFooter(body, footer string) string {
	footer = strings.TrimSpace(footer)
	if footer == "" {
		return body
	}
	return body + "\n" + footer
}

func confirmationBody(b Booking, footer string) string {
	body := fmt.Sprintf(
		"Hello %s,\n\nWe confirm your appointment with %s (%s) on %s at %s.\nWe look forward to seeing you.",
		b.PatientName, b.DoctorName, b.SpecialtyName,
		b.ScheduledAt.Format(appointment.DateLayout), b.ScheduledAt.Format(appointment.ClockLayout),
	)
	return withFooter(body, footer)
}

func reminderBody(b Booking, lead time.Duration, footer string) string {
	body := fmt.Sprintf(
		"Hello %s,\n\n%s left until your appointment with %s (%s) on %s at %s.\nWe look forward to seeing you.",
		b.PatientName, humanize(lead), b.DoctorName, b.SpecialtyName,
		b.ScheduledAt.Format(appointment.DateLayout), b.ScheduledAt.Format(appointment.ClockLayout),
	)
	return withFooter(body, footer)
}

func prescriptionBody(n clinic.PrescriptionNotice, issuedAt time.Time, footer string) string {
	body := fmt.Sprintf(
		"Hello %s,\n\nYour doctor %s issued a new prescription on %s.\n\nDetails:\n%s\n\nReply to this email or contact your doctor with any questions.",
		n.PatientName, n.DoctorName, issuedAt.Format("2006-01-02 15:04"), n.Description,
	)
	return withFooter(body, footer)
}
