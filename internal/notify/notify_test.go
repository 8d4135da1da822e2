package notify

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/appointment/apptest"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

type memoryQueue struct {
	mu   sync.Mutex
	jobs map[string]Job
}

func newMemoryQueue() *memoryQueue {
	return &memoryQueue{jobs: map[string]Job{}}
}

func (q *memoryQueue) Enqueue(_ context.Context, jobs ...Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, j := range jobs {
		q.jobs[j.ID] = j
	}
	return nil
}

func (q *memoryQueue) Due(_ context.Context, now time.Time, limit int) ([]Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var due []Job
	for _, j := range q.jobs {
		if !j.FireAt.After(now) {
			due = append(due, j)
		}
	}
	sort.Slice(due, func(i, k int) bool { return due[i].FireAt.Before(due[k].FireAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	for _, j := range due {
		delete(q.jobs, j.ID)
	}
	return due, nil
}

func (q *memoryQueue) CancelAppointment(_ context.Context, appointmentID int64) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for id, j := range q.jobs {
		if j.AppointmentID == appointmentID {
			delete(q.jobs, id)
			n++
		}
	}
	return n, nil
}

func (q *memoryQueue) pending() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []Job
	for _, j := range q.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].FireAt.Before(out[k].FireAt) })
	return out
}

type sentMail struct{ to, subject, body string }

type recordingSender struct {
	mu   sync.Mutex
	sent []sentMail
	fail func(to string) error
}

func (s *recordingSender) Send(_ context.Context, to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		if err := s.fail(to); err != nil {
			return err
		}
	}
	s.sent = append(s.sent, sentMail{to, subject, body})
	return nil
}

func TestHumanize(t *testing.T) {
	tests := map[time.Duration]string{
		24 * time.Hour:   "1 day",
		48 * time.Hour:   "2 days",
		6 * time.Hour:    "6 hours",
		time.Hour:        "1 hour",
		90 * time.Minute: "90 minutes",
		time.Minute:      "1 minute",
	}
	for in, want := range tests {
		assert.Equal(t, want, humanize(in), in.String())
	}
}

func TestBuildMessage(t *testing.T) {
	msg := buildMessage("clinic@x.test", "ana@x.test", "Hi", "line1\nline2")

	assert.True(t, strings.HasPrefix(msg, "From: clinic@x.test\r\nTo: ana@x.test\r\nSubject: Hi\r\n"))
	assert.Contains(t, msg, "line1\r\nline2")
}

func booking(at time.Time) appointment.AppointmentDetail {
	return appointment.AppointmentDetail{
		Appointment:   appointment.Appointment{ID: 7, ScheduledAt: at},
		PatientName:   "Ana Lopez",
		PatientEmail:  "ana@example.com",
		DoctorName:    "Juan Perez",
		SpecialtyName: "Cardiology",
	}
}

func TestAppointmentBooked_QueuesConfirmationAndReminders(t *testing.T) {
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.Local)
	at := time.Date(2025, 1, 6, 9, 0, 0, 0, time.Local)
	q := newMemoryQueue()
	n := NewNotifier(q, WithNow(func() time.Time { return now }), WithFooter("Main St 1"))

	require.NoError(t, n.AppointmentBooked(context.Background(), booking(at)))

	jobs := q.pending()
	require.Len(t, jobs, 4)

	assert.Equal(t, KindConfirmation, jobs[0].Kind)
	assert.Equal(t, now, jobs[0].FireAt)
	assert.Contains(t, jobs[0].Body, "We confirm your appointment with Juan Perez (Cardiology) on 2025-01-06 at 09:00.")
	assert.True(t, strings.HasSuffix(jobs[0].Body, "\nMain St 1"))

	assert.Equal(t, at.Add(-24*time.Hour), jobs[1].FireAt)
	assert.Contains(t, jobs[1].Body, "1 day left until your appointment")
	assert.Equal(t, at.Add(-6*time.Hour), jobs[2].FireAt)
	assert.Contains(t, jobs[2].Body, "6 hours left")
	assert.Equal(t, at.Add(-time.Hour), jobs[3].FireAt)
	assert.Contains(t, jobs[3].Body, "1 hour left")

	for _, j := range jobs {
		assert.Equal(t, "ana@example.com", j.To)
		assert.Equal(t, int64(7), j.AppointmentID)
		assert.NotEmpty(t, j.ID)
	}
}

func TestAppointmentBooked_SkipsPastLeadTimes(t *testing.T) {
	at := time.Date(2025, 1, 6, 9, 0, 0, 0, time.Local)
	now := at.Add(-3 * time.Hour)
	q := newMemoryQueue()
	n := NewNotifier(q, WithNow(func() time.Time { return now }))

	require.NoError(t, n.AppointmentBooked(context.Background(), booking(at)))

	jobs := q.pending()
	require.Len(t, jobs, 2)
	assert.Equal(t, KindConfirmation, jobs[0].Kind)
	assert.Equal(t, at.Add(-time.Hour), jobs[1].FireAt)
}

func TestAppointmentBooked_CustomLeadTimes(t *testing.T) {
	at := time.Date(2025, 1, 6, 9, 0, 0, 0, time.Local)
	q := newMemoryQueue()
	n := NewNotifier(q,
		WithNow(func() time.Time { return at.Add(-72 * time.Hour) }),
		WithLeadTimes([]time.Duration{48 * time.Hour, 30 * time.Minute}),
	)

	require.NoError(t, n.AppointmentBooked(context.Background(), booking(at)))

	jobs := q.pending()
	require.Len(t, jobs, 3)
	assert.Contains(t, jobs[1].Body, "2 days left")
	assert.Contains(t, jobs[2].Body, "30 minutes left")
}

func TestPrescriptionIssued(t *testing.T) {
	now := time.Date(2025, 2, 3, 10, 30, 0, 0, time.Local)
	q := newMemoryQueue()
	n := NewNotifier(q, WithNow(func() time.Time { return now }))

	err := n.PrescriptionIssued(context.Background(), clinic.PrescriptionNotice{
		PatientName:  "Ana Lopez",
		PatientEmail: "ana@example.com",
		DoctorName:   "Juan Perez",
		Description:  "Ibuprofen 400mg",
	})
	require.NoError(t, err)

	jobs := q.pending()
	require.Len(t, jobs, 1)
	assert.Equal(t, KindPrescription, jobs[0].Kind)
	assert.Equal(t, subjectPrescription, jobs[0].Subject)
	assert.Contains(t, jobs[0].Body, "Your doctor Juan Perez issued a new prescription on 2025-02-03 10:30.")
	assert.Contains(t, jobs[0].Body, "Ibuprofen 400mg")
	assert.Zero(t, jobs[0].AppointmentID)
}

func TestDispatcher_SendsDueJobsAndDropsFailures(t *testing.T) {
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.Local)
	q := newMemoryQueue()
	require.NoError(t, q.Enqueue(context.Background(),
		Job{ID: "a", To: "ok@x.test", Subject: "s", Body: "b", FireAt: now.Add(-time.Minute)},
		Job{ID: "b", To: "broken@x.test", Subject: "s", Body: "b", FireAt: now},
		Job{ID: "c", To: "later@x.test", Subject: "s", Body: "b", FireAt: now.Add(time.Hour)},
	))
	sender := &recordingSender{fail: func(to string) error {
		if to == "broken@x.test" {
			return errors.New("mailbox unavailable")
		}
		return nil
	}}

	d := NewDispatcher(q, sender, 1, zerolog.Nop())
	d.now = func() time.Time { return now }

	stats, err := d.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RunStats{Sent: 1, Failed: 1}, stats)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "ok@x.test", sender.sent[0].to)

	// the failed job is not retried
	pending := q.pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "c", pending[0].ID)
}

func TestNotifier_CancelAppointment(t *testing.T) {
	at := time.Date(2025, 1, 6, 9, 0, 0, 0, time.Local)
	q := newMemoryQueue()
	n := NewNotifier(q, WithNow(func() time.Time { return at.Add(-48 * time.Hour) }))
	require.NoError(t, n.AppointmentBooked(context.Background(), booking(at)))

	removed, err := n.CancelAppointment(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 4, removed)
	assert.Empty(t, q.pending())
}

// Cancelling an appointment leaves its reminders queued, so the reminder is
// still delivered afterwards. This is the expected behaviour.
func TestReminderStillFiresForCancelledAppointment(t *testing.T) {
	ctx := context.Background()
	bookedAt := time.Date(2025, 1, 1, 8, 0, 0, 0, time.Local)
	clock := bookedAt

	q := newMemoryQueue()
	n := NewNotifier(q, WithNow(func() time.Time { return clock }))

	repo := apptest.NewMemoryRepository()
	patient := repo.AddPatient("Ana", "Lopez", "ana@example.com")
	doctor := repo.AddDoctor("Juan", "Perez", "Cardiology")
	svc := appointment.NewService(repo, nil,
		appointment.WithClock(func() time.Time { return clock }),
		appointment.WithNotifier(n),
	)

	slot, err := svc.CreateSlot(ctx, appointment.NewSlot{DoctorID: doctor, Date: "2025-01-06", StartTime: "09:00", EndTime: "10:00"})
	require.NoError(t, err)
	appt, err := svc.Reserve(ctx, appointment.ReserveRequest{
		PatientID:  patient,
		DoctorID:   doctor,
		SlotID:     slot.ID,
		TargetDate: time.Date(2025, 1, 6, 0, 0, 0, 0, time.Local),
	})
	require.NoError(t, err)

	_, err = svc.Transition(ctx, appt.ID, appointment.StatusCancelled)
	require.NoError(t, err)

	sender := &recordingSender{}
	d := NewDispatcher(q, sender, 10, zerolog.Nop())
	d.now = func() time.Time { return time.Date(2025, 1, 5, 9, 0, 0, 0, time.Local) }

	stats, err := d.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Sent)

	var reminders int
	for _, m := range sender.sent {
		if m.subject == subjectReminder {
			reminders++
			assert.Contains(t, m.body, "1 day left")
		}
	}
	assert.Equal(t, 1, reminders, "the 24h reminder of the cancelled appointment is delivered")
}

func TestDecodeJob(t *testing.T) {
	job, err := decodeJob("id-1", map[string]string{
		"kind":           "reminder",
		"appointment_id": "12",
		"to":             "ana@example.com",
		"subject":        "s",
		"body":           "b",
		"fire_at":        "1736150400",
	})
	require.NoError(t, err)
	assert.Equal(t, KindReminder, job.Kind)
	assert.Equal(t, int64(12), job.AppointmentID)
	assert.Equal(t, int64(1736150400), job.FireAt.Unix())

	_, err = decodeJob("gone", map[string]string{})
	assert.ErrorIs(t, err, errEmptyJob)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "notify:job:abc", jobKey("abc"))
	assert.Equal(t, "notify:appointment:9", appointmentJobsKey(9))
}

// brokenQueue hands out one batch with jobs it could not read.
type brokenQueue struct {
	jobs   []Job
	served bool
}

func (q *brokenQueue) Enqueue(context.Context, ...Job) error { return nil }

func (q *brokenQueue) Due(context.Context, time.Time, int) ([]Job, error) {
	if q.served {
		return nil, nil
	}
	q.served = true
	bad := &DecodeError{}
	bad.add("corrupt-1", errEmptyJob)
	return q.jobs, bad
}

func (q *brokenQueue) CancelAppointment(context.Context, int64) (int, error) { return 0, nil }

func TestDispatcher_CountsUnreadableJobs(t *testing.T) {
	q := &brokenQueue{jobs: []Job{{ID: "ok", To: "ana@example.com", Subject: "s", Body: "b"}}}
	sender := &recordingSender{}

	stats, err := NewDispatcher(q, sender, 10, zerolog.Nop()).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RunStats{Sent: 1, Failed: 1}, stats)
	require.Len(t, sender.sent, 1)
}

func TestDispatcher_DeliversClaimedJobsBeforeFailing(t *testing.T) {
	boom := errors.New("connection reset")
	q := &failingQueue{jobs: []Job{{ID: "ok", To: "ana@example.com", Subject: "s", Body: "b"}}, err: boom}
	sender := &recordingSender{}

	stats, err := NewDispatcher(q, sender, 10, zerolog.Nop()).RunOnce(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, stats.Sent)
}

type failingQueue struct {
	jobs []Job
	err  error
}

func (q *failingQueue) Enqueue(context.Context, ...Job) error { return nil }

func (q *failingQueue) Due(context.Context, time.Time, int) ([]Job, error) {
	return q.jobs, q.err
}

func (q *failingQueue) CancelAppointment(context.Context, int64) (int, error) { return 0, nil }
