package appointment_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/report"
)

// openTestStore connects to TEST_POSTGRES_DSN, migrates and empties the
// schema. Tests using it are skipped without the variable.
func openTestStore(t *testing.T) *db.Store {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	store, err := db.Open(ctx, db.Options{DSN: dsn, MaxConns: 8})
	require.NoError(t, err)
	t.Cleanup(store.Close)

	_, err = db.NewMigrator(store).Up(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Truncate(ctx))
	return store
}

type pgFixture struct {
	store   *db.Store
	svc     *appointment.Service
	patient int64
	doctor  int64
}

func newPgFixture(t *testing.T) *pgFixture {
	t.Helper()
	store := openTestStore(t)
	ctx := context.Background()

	catalogue := clinic.NewService(clinic.NewPgRepository(store))
	sp, err := catalogue.CreateSpecialty(ctx, "Cardiology")
	require.NoError(t, err)
	doc, err := catalogue.CreateDoctor(ctx, clinic.Doctor{FirstName: "Juan", LastName: "Perez", SpecialtyID: sp.ID, Email: "juan@clinic.test"})
	require.NoError(t, err)
	pat, err := catalogue.CreatePatient(ctx, clinic.Patient{DNI: "30111222", FirstName: "Ana", LastName: "Lopez", Email: "ana@example.com"})
	require.NoError(t, err)

	return &pgFixture{
		store: store,
		svc: appointment.NewService(appointment.NewPgRepository(store), nil,
			appointment.WithClock(func() time.Time { return clinicNow })),
		patient: pat.ID,
		doctor:  doc.ID,
	}
}

func TestPg_BookingCycle(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()

	slot, err := f.svc.CreateSlot(ctx, appointment.NewSlot{DoctorID: f.doctor, Date: "2025-01-10", StartTime: "09:00", EndTime: "09:45"})
	require.NoError(t, err)

	day, _ := appointment.ParseDate("2025-01-10")
	appt, err := f.svc.Reserve(ctx, appointment.ReserveRequest{PatientID: f.patient, DoctorID: f.doctor, SlotID: slot.ID, TargetDate: day})
	require.NoError(t, err)
	assert.Equal(t, 45, appt.DurationMinutes)

	stored, err := f.svc.GetAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-10 09:00", stored.ScheduledAt.Format("2006-01-02 15:04"))
	assert.Equal(t, "Cardiology", stored.SpecialtyName)

	_, err = f.svc.Reserve(ctx, appointment.ReserveRequest{PatientID: f.patient, DoctorID: f.doctor, SlotID: slot.ID, TargetDate: day})
	requireReason(t, err, appointment.ErrSlotAlreadyReserved)

	_, err = f.svc.Transition(ctx, appt.ID, appointment.StatusCancelled)
	require.NoError(t, err)
	got, err := f.svc.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)

	history, err := f.svc.ListHistory(ctx, &f.patient)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, appointment.StatusCancelled, history[0].Status)
	require.NotNil(t, history[0].DoctorName)
	assert.Equal(t, "Juan Perez", *history[0].DoctorName)
}

func TestPg_ConcurrentReserveHasOneWinner(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()

	slot, err := f.svc.CreateSlot(ctx, appointment.NewSlot{DoctorID: f.doctor, Date: "2025-01-10", StartTime: "10:00", EndTime: "10:30"})
	require.NoError(t, err)
	day, _ := appointment.ParseDate("2025-01-10")

	const attempts = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Reserve(ctx, appointment.ReserveRequest{PatientID: f.patient, DoctorID: f.doctor, SlotID: slot.ID, TargetDate: day})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.True(t, apperr.IsValidation(err), "unexpected error: %v", err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestPg_Reports(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()
	day, _ := appointment.ParseDate("2025-01-10")

	for i, start := range []string{"09:00", "10:00"} {
		slot, err := f.svc.CreateSlot(ctx, appointment.NewSlot{DoctorID: f.doctor, Date: "2025-01-10", StartTime: start, EndTime: start[:3] + "30"})
		require.NoError(t, err)
		appt, err := f.svc.Reserve(ctx, appointment.ReserveRequest{PatientID: f.patient, DoctorID: f.doctor, SlotID: slot.ID, TargetDate: day})
		require.NoError(t, err)
		final := appointment.StatusCompleted
		if i == 1 {
			final = appointment.StatusAbsent
		}
		_, err = f.svc.Transition(ctx, appt.ID, final)
		require.NoError(t, err)
	}

	reports := report.NewService(report.NewPgRepository(f.store))
	rg := report.Range{From: day, To: day.Add(24*time.Hour - time.Second)}

	stats, err := reports.Attendance(ctx, rg)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Attended)
	assert.Equal(t, 1, stats.Missed)

	rows, err := reports.AppointmentsByDoctor(ctx, f.doctor, rg)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	counts, err := reports.CountBySpecialty(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []report.SpecialtyCount{{Specialty: "Cardiology", Total: 2}}, counts)

	attended, err := reports.PatientsAttended(ctx, rg)
	require.NoError(t, err)
	require.Len(t, attended, 1)
	assert.Equal(t, f.patient, attended[0].ID)
}

func TestPg_StoreReopen(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Reopen(ctx))
	assert.NoError(t, store.Ping(ctx))

	store.Close()
	assert.ErrorIs(t, store.Ping(ctx), db.ErrClosed)
}
