package appointment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
)

func TestCreateSlot_OverlapIsHalfOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.slot(t, "2025-01-06", "09:00", "12:00")
	assert.True(t, created.Active)

	for _, window := range [][2]string{{"08:00", "09:30"}, {"11:59", "13:00"}, {"10:00", "11:00"}, {"08:00", "13:00"}} {
		_, err := f.svc.CreateSlot(ctx, appointment.NewSlot{DoctorID: f.doctor, Date: "2025-01-06", StartTime: window[0], EndTime: window[1]})
		requireReason(t, err, appointment.ErrSlotOverlap)
	}

	after, err := f.svc.CreateSlot(ctx, appointment.NewSlot{DoctorID: f.doctor, Date: "2025-01-06", StartTime: "12:00", EndTime: "13:00"})
	require.NoError(t, err)
	assert.NotZero(t, after.ID)

	_, err = f.svc.CreateSlot(ctx, appointment.NewSlot{DoctorID: f.doctor, Date: "2025-01-06", StartTime: "08:00", EndTime: "09:00"})
	require.NoError(t, err)

	// same window on another date
	_, err = f.svc.CreateSlot(ctx, appointment.NewSlot{DoctorID: f.doctor, Date: "2025-01-07", StartTime: "09:00", EndTime: "12:00"})
	require.NoError(t, err)
}

func TestCreateSlot_DoctorsAreIndependent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.repo.AddDoctor("Eva", "Diaz", "Dermatology")

	f.slot(t, "2025-01-06", "09:00", "12:00")
	_, err := f.svc.CreateSlot(ctx, appointment.NewSlot{DoctorID: other, Date: "2025-01-06", StartTime: "09:00", EndTime: "12:00"})
	require.NoError(t, err)
}

func TestCreateSlot_Formats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateSlot(ctx, appointment.NewSlot{DoctorID: f.doctor, Date: "2025-01-06", StartTime: "9am", EndTime: "10:00"})
	requireReason(t, err, appointment.ErrInvalidTimeFormat)

	_, err = f.svc.CreateSlot(ctx, appointment.NewSlot{DoctorID: f.doctor, Date: "06-01-2025", StartTime: "09:00", EndTime: "10:00"})
	requireReason(t, err, appointment.ErrInvalidDateFormat)
}

func TestCreateSlot_CorruptNeighbourBlocks(t *testing.T) {
	f := newFixture(t)
	f.repo.PutSlot(appointment.Slot{DoctorID: f.doctor, Date: "2025-01-06", StartTime: "xx:yy", EndTime: "10:00", Active: true})

	_, err := f.svc.CreateSlot(context.Background(), appointment.NewSlot{DoctorID: f.doctor, Date: "2025-01-06", StartTime: "18:00", EndTime: "19:00"})
	requireReason(t, err, appointment.ErrSlotOverlap)
}

func TestCreateSlot_UnknownDoctor(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateSlot(context.Background(), appointment.NewSlot{DoctorID: 999, Date: "2025-01-06", StartTime: "09:00", EndTime: "10:00"})
	assert.ErrorIs(t, err, apperr.ErrReferentialIntegrity)
}

func TestListSlots_Ordering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.repo.AddDoctor("Eva", "Diaz", "Dermatology")

	c := f.slot(t, "2025-01-07", "08:00", "09:00")
	b := f.slot(t, "2025-01-06", "14:00", "15:00")
	a := f.slot(t, "2025-01-06", "09:00", "10:00")
	_, err := f.svc.CreateSlot(ctx, appointment.NewSlot{DoctorID: other, Date: "2025-01-05", StartTime: "09:00", EndTime: "10:00"})
	require.NoError(t, err)

	mine, err := f.svc.ListSlots(ctx, &f.doctor)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, []int64{a.ID, b.ID, c.ID}, []int64{mine[0].ID, mine[1].ID, mine[2].ID})

	all, err := f.svc.ListSlots(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestDeleteSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.slot(t, "2025-01-06", "09:00", "10:00")
	appt, err := f.reserve(slot)
	require.NoError(t, err)

	// reserved slots can be deleted too
	require.NoError(t, f.svc.DeleteSlot(ctx, slot.ID))

	_, err = f.svc.GetSlot(ctx, slot.ID)
	assert.ErrorIs(t, err, appointment.ErrSlotNotFound)

	got, err := f.svc.GetAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.Nil(t, got.SlotID)

	err = f.svc.DeleteSlot(ctx, slot.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// the orphaned appointment can still change status
	_, err = f.svc.Transition(ctx, appt.ID, appointment.StatusCancelled)
	require.NoError(t, err)
}
