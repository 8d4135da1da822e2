package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

// DefaultLeadTimes are the reminder offsets before an appointment.
var DefaultLeadTimes = []time.Duration{24 * time.Hour, 6 * time.Hour, time.Hour}

// Notifier turns domain events into queued emails.
type Notifier struct {
	queue  Queue
	leads  []time.Duration
	footer string
	now    func() time.Time
}

type NotifierOption func(*Notifier)

func WithLeadTimes(leads []time.Duration) NotifierOption {
	return func(n *Notifier) {
		if len(leads) > 0 {
			n.leads = leads
		}
	}
}

// WithFooter appends a signature, e.g. the clinic address, to every email.
func WithFooter(footer string) NotifierOption {
	return func(n *Notifier) { n.footer = footer }
}

func WithNow(now func() time.Time) NotifierOption {
	return func(n *Notifier) { n.now = now }
}

func NewNotifier(queue Queue, opts ...NotifierOption) *Notifier {
	n := &Notifier{queue: queue, leads: DefaultLeadTimes, now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// AppointmentBooked queues a confirmation for now and one reminder per lead
// time that still lies ahead.
func (n *Notifier) AppointmentBooked(ctx context.Context, detail appointment.AppointmentDetail) error {
	return n.enqueueBooking(ctx, BookingFromDetail(detail))
}

func (n *Notifier) enqueueBooking(ctx context.Context, b Booking) error {
	now := n.now()
	jobs := []Job{{
		ID:            uuid.NewString(),
		Kind:          KindConfirmation,
		AppointmentID: b.AppointmentID,
		To:            b.PatientEmail,
		Subject:       subjectConfirmation,
		Body:          confirmationBody(b, n.footer),
		FireAt:        now,
	}}

	for _, lead := range n.leads {
		fireAt := b.ScheduledAt.Add(-lead)
		if !fireAt.After(now) {
			continue
		}
		jobs = append(jobs, Job{
			ID:            uuid.NewString(),
			Kind:          KindReminder,
			AppointmentID: b.AppointmentID,
			To:            b.PatientEmail,
			Subject:       subjectReminder,
			Body:          reminderBody(b, lead, n.footer),
			FireAt:        fireAt,
		})
	}

	return n.queue.Enqueue(ctx, jobs...)
}

func (n *Notifier) PrescriptionIssued(ctx context.Context, notice clinic.PrescriptionNotice) error {
	now := n.now()
	return n.queue.Enqueue(ctx, Job{
		ID:      uuid.NewString(),
		Kind:    KindPrescription,
		To:      notice.PatientEmail,
		Subject: subjectPrescription,
		Body:    prescriptionBody(notice, now, n.footer),
		FireAt:  now,
	})
}

// CancelAppointment drops the appointment's pending reminders. Cancelling an
// appointment does not call this: reminders of cancelled appointments are
// still delivered.
func (n *Notifier) CancelAppointment(ctx context.Context, appointmentID int64) (int, error) {
	return n.queue.CancelAppointment(ctx, appointmentID)
}

var (
	_ appointment.Notifier        = (*Notifier)(nil)
	_ clinic.PrescriptionNotifier = (*Notifier)(nil)
)
