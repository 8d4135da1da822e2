package appointment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
)

func TestTransition_HistoryMirrorsLatestStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt, err := f.reserve(f.slot(t, "2025-01-06", "09:00", "10:00"))
	require.NoError(t, err)

	updated, err := f.svc.Transition(ctx, appt.ID, appointment.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCompleted, updated.Status)

	history := f.repo.HistoryFor(appt.ID)
	require.Len(t, history, 1)
	assert.Equal(t, appointment.StatusCompleted, history[0].Status)
	assert.Equal(t, "Status updated to completed", history[0].Description)
	require.NotNil(t, history[0].ScheduledAt)
	assert.True(t, appt.ScheduledAt.Equal(*history[0].ScheduledAt))
}

func TestTransition_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Transition(context.Background(), 42, appointment.StatusCompleted)
	assert.ErrorIs(t, err, appointment.ErrAppointmentNotFound)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTransition_InvalidStatus(t *testing.T) {
	f := newFixture(t)
	appt, err := f.reserve(f.slot(t, "2025-01-06", "09:00", "10:00"))
	require.NoError(t, err)

	_, err = f.svc.Transition(context.Background(), appt.ID, "done")
	requireReason(t, err, appointment.ErrInvalidStatus)
}

func TestTransition_SlotBookkeeping(t *testing.T) {
	tests := []struct {
		name       string
		path       []appointment.Status
		wantActive bool
	}{
		{"completed keeps slot", []appointment.Status{appointment.StatusCompleted}, false},
		{"absent keeps slot", []appointment.Status{appointment.StatusAbsent}, false},
		{"cancel releases", []appointment.Status{appointment.StatusCancelled}, true},
		{"cancel twice stays released", []appointment.Status{appointment.StatusCancelled, appointment.StatusCancelled}, true},
		{"reschedule after cancel reclaims", []appointment.Status{appointment.StatusCancelled, appointment.StatusScheduled}, false},
		{"complete after cancel reclaims", []appointment.Status{appointment.StatusCancelled, appointment.StatusCompleted}, false},
		{"completed then cancelled releases", []appointment.Status{appointment.StatusCompleted, appointment.StatusCancelled}, true},
		{"self transition", []appointment.Status{appointment.StatusScheduled}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			slot := f.slot(t, "2025-01-06", "09:00", "10:00")
			appt, err := f.reserve(slot)
			require.NoError(t, err)

			for _, status := range tc.path {
				_, err := f.svc.Transition(context.Background(), appt.ID, status)
				require.NoError(t, err)
			}

			assert.Equal(t, tc.wantActive, f.slotActive(t, slot.ID))

			history := f.repo.HistoryFor(appt.ID)
			require.Len(t, history, 1)
			assert.Equal(t, tc.path[len(tc.path)-1], history[0].Status)
		})
	}
}

func TestTransition_ReclaimRejectedWhenSlotRebooked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.slot(t, "2025-01-06", "09:00", "10:00")

	first, err := f.reserve(slot)
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, first.ID, appointment.StatusCancelled)
	require.NoError(t, err)

	second, err := f.reserve(slot)
	require.NoError(t, err)

	_, err = f.svc.Transition(ctx, first.ID, appointment.StatusScheduled)
	requireReason(t, err, appointment.ErrSlotAlreadyReserved)

	got, err := f.svc.GetAppointment(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCancelled, got.Status)
	assert.False(t, f.slotActive(t, slot.ID))

	history := f.repo.HistoryFor(first.ID)
	require.Len(t, history, 1)
	assert.Equal(t, appointment.StatusCancelled, history[0].Status)

	// the second booking is untouched
	got, err = f.svc.GetAppointment(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusScheduled, got.Status)
}

func TestTransition_RollsBackOnHistoryFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.slot(t, "2025-01-06", "09:00", "10:00")
	appt, err := f.reserve(slot)
	require.NoError(t, err)

	boom := errors.New("write failed")
	f.repo.FailOn("UpdateHistory", boom)

	_, err = f.svc.Transition(ctx, appt.ID, appointment.StatusCancelled)
	assert.ErrorIs(t, err, boom)

	got, err := f.svc.GetAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusScheduled, got.Status)
	assert.False(t, f.slotActive(t, slot.ID))
}

func TestTransition_WithoutSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.repo.PutAppointment(appointment.Appointment{
		PatientID:       f.patient,
		DoctorID:        f.doctor,
		ScheduledAt:     time.Date(2025, 2, 1, 10, 0, 0, 0, time.Local),
		Status:          appointment.StatusScheduled,
		DurationMinutes: 30,
	})

	_, err := f.svc.Transition(ctx, id, appointment.StatusCancelled)
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, id, appointment.StatusAbsent)
	require.NoError(t, err)

	history := f.repo.HistoryFor(id)
	require.Len(t, history, 1)
	assert.Equal(t, appointment.StatusAbsent, history[0].Status)
}

func TestGetAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt, err := f.reserve(f.slot(t, "2025-01-06", "09:00", "10:00"))
	require.NoError(t, err)

	detail, err := f.svc.GetAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cardiology", detail.SpecialtyName)

	_, err = f.svc.GetAppointment(ctx, appt.ID+100)
	assert.ErrorIs(t, err, appointment.ErrAppointmentNotFound)
}

func TestListAppointments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	late, err := f.reserve(f.slot(t, "2025-01-08", "09:00", "10:00"))
	require.NoError(t, err)
	early, err := f.reserve(f.slot(t, "2025-01-06", "09:00", "10:00"))
	require.NoError(t, err)

	other := f.repo.AddDoctor("Eva", "Diaz", "Dermatology")
	otherSlot, err := f.svc.CreateSlot(ctx, appointment.NewSlot{DoctorID: other, Date: "2025-01-07", StartTime: "09:00", EndTime: "10:00"})
	require.NoError(t, err)
	_, err = f.svc.Reserve(ctx, appointment.ReserveRequest{
		PatientID: f.patient, DoctorID: other, SlotID: otherSlot.ID,
		TargetDate: time.Date(2025, 1, 7, 0, 0, 0, 0, time.Local),
	})
	require.NoError(t, err)

	all, err := f.svc.ListAppointments(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, early.ID, all[0].ID)
	assert.Equal(t, late.ID, all[2].ID)
	assert.Equal(t, "Ana Lopez", all[0].PatientName)

	mine, err := f.svc.ListAppointments(ctx, &f.doctor)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "Juan Perez", mine[0].DoctorName)
}
