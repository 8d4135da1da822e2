package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hackgods/clinic-scheduling/internal/db"
)

const liveSlotConstraint = "appointments_live_slot_key"

type PgRepository struct {
	store *db.Store // nil inside a transaction
	q     db.Querier
}

func NewPgRepository(store *db.Store) *PgRepository {
	return &PgRepository{store: store, q: store}
}

func (r *PgRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error {
	if r.store == nil {
		return fn(ctx, r)
	}
	return r.store.WithinTx(ctx, func(q db.Querier) error {
		return fn(ctx, &PgRepository{q: q})
	})
}

// Helpers

// localWall reinterprets a TIMESTAMP (returned in UTC by pgx) as the naive
// local time it was written as.
func localWall(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.Local)
}

func mapAppointmentError(err error) error {
	if db.ConstraintName(err) == liveSlotConstraint {
		return ErrSlotAlreadyReserved
	}
	return db.MapError(err)
}

const slotColumns = `id, doctor_id, slot_date, start_time, end_time, active, created_at`

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&s.Date,
		&s.StartTime,
		&s.EndTime,
		&s.Active,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &s, nil
}

const appointmentColumns = `a.id, a.patient_id, a.doctor_id, a.availability_slot_id, a.scheduled_at, a.status,
	a.reason, a.duration_minutes, a.reminder_marker, a.created_at, a.updated_at`

func appointmentDest(a *Appointment, marker **string) []any {
	return []any{
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.SlotID,
		&a.ScheduledAt,
		&a.Status,
		&a.Reason,
		&a.DurationMinutes,
		marker,
		&a.CreatedAt,
		&a.UpdatedAt,
	}
}

func finishAppointment(a *Appointment, marker *string) {
	a.ScheduledAt = localWall(a.ScheduledAt)
	if marker != nil {
		a.ReminderMarker = *marker
	}
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a      Appointment
		marker *string
	)
	if err := row.Scan(appointmentDest(&a, &marker)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	finishAppointment(&a, marker)
	return &a, nil
}

func scanSlots(rows pgx.Rows) ([]Slot, error) {
	defer rows.Close()

	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Availability slots

func (r *PgRepository) InsertSlot(ctx context.Context, s *Slot) error {
	row := r.q.QueryRow(ctx, `
		INSERT INTO availability_slots (doctor_id, slot_date, start_time, end_time, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+slotColumns,
		s.DoctorID, s.Date, s.StartTime, s.EndTime, s.Active)

	inserted, err := scanSlot(row)
	if err != nil {
		return db.MapError(err)
	}
	*s = *inserted
	return nil
}

func (r *PgRepository) GetSlot(ctx context.Context, id int64) (*Slot, error) {
	row := r.q.QueryRow(ctx, `SELECT `+slotColumns+` FROM availability_slots WHERE id = $1`, id)
	return scanSlot(row)
}

func (r *PgRepository) GetSlotForUpdate(ctx context.Context, id int64) (*Slot, error) {
	row := r.q.QueryRow(ctx, `SELECT `+slotColumns+` FROM availability_slots WHERE id = $1 FOR UPDATE`, id)
	return scanSlot(row)
}

func (r *PgRepository) ListSlots(ctx context.Context, doctorID *int64) ([]Slot, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if doctorID != nil {
		rows, err = r.q.Query(ctx, `
			SELECT `+slotColumns+`
			FROM availability_slots
			WHERE doctor_id = $1
			ORDER BY slot_date, start_time, id
		`, *doctorID)
	} else {
		rows, err = r.q.Query(ctx, `
			SELECT `+slotColumns+`
			FROM availability_slots
			ORDER BY doctor_id, slot_date, start_time, id
		`)
	}
	if err != nil {
		return nil, err
	}
	return scanSlots(rows)
}

func (r *PgRepository) ListSlotsForDoctorDate(ctx context.Context, doctorID int64, date string) ([]Slot, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+slotColumns+`
		FROM availability_slots
		WHERE doctor_id = $1 AND slot_date = $2
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	return scanSlots(rows)
}

func (r *PgRepository) DeleteSlot(ctx context.Context, id int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM availability_slots WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepository) SetSlotActive(ctx context.Context, id int64, active bool) (bool, error) {
	tag, err := r.q.Exec(ctx, `UPDATE availability_slots SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Appointments

func (r *PgRepository) InsertAppointment(ctx context.Context, a *Appointment) error {
	row := r.q.QueryRow(ctx, `
		INSERT INTO appointments AS a (patient_id, doctor_id, availability_slot_id, scheduled_at, status,
		                               reason, duration_minutes, reminder_marker)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+appointmentColumns,
		a.PatientID, a.DoctorID, a.SlotID, a.ScheduledAt, a.Status, a.Reason, a.DurationMinutes, a.ReminderMarker)

	inserted, err := scanAppointment(row)
	if err != nil {
		return mapAppointmentError(err)
	}
	*a = *inserted
	return nil
}

func (r *PgRepository) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	row := r.q.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments a WHERE a.id = $1`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentForUpdate(ctx context.Context, id int64) (*Appointment, error) {
	row := r.q.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments a WHERE a.id = $1 FOR UPDATE`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id int64) (*AppointmentDetail, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+appointmentColumns+`,
		       p.first_name || ' ' || p.last_name, p.email,
		       d.first_name || ' ' || d.last_name, s.name
		FROM appointments a
		JOIN patients p ON a.patient_id = p.id
		JOIN doctors d ON a.doctor_id = d.id
		JOIN specialties s ON d.specialty_id = s.id
		WHERE a.id = $1
	`, id)

	var (
		d      AppointmentDetail
		marker *string
	)
	dest := append(appointmentDest(&d.Appointment, &marker),
		&d.PatientName, &d.PatientEmail, &d.DoctorName, &d.SpecialtyName)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	finishAppointment(&d.Appointment, marker)
	return &d, nil
}

func (r *PgRepository) ListAppointments(ctx context.Context, doctorID *int64) ([]AppointmentView, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+appointmentColumns+`,
		       p.first_name || ' ' || p.last_name,
		       d.first_name || ' ' || d.last_name
		FROM appointments a
		JOIN patients p ON a.patient_id = p.id
		JOIN doctors d ON a.doctor_id = d.id
		WHERE $1::bigint IS NULL OR a.doctor_id = $1
		ORDER BY a.scheduled_at, a.id
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentView
	for rows.Next() {
		var (
			v      AppointmentView
			marker *string
		)
		dest := append(appointmentDest(&v.Appointment, &marker), &v.PatientName, &v.DoctorName)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		finishAppointment(&v.Appointment, marker)
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) CountLiveAppointmentsForSlot(ctx context.Context, slotID, excludeID int64) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE availability_slot_id = $1
		  AND status <> 'cancelled'
		  AND id <> $2
	`, slotID, excludeID).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id int64, status Status) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, status)
	if err != nil {
		return false, mapAppointmentError(err)
	}
	return tag.RowsAffected() > 0, nil
}

// History

const historyColumns = `h.id, h.patient_id, h.appointment_id, h.description, h.status, h.scheduled_at`

func historyDest(h *HistoryEntry) []any {
	return []any{&h.ID, &h.PatientID, &h.AppointmentID, &h.Description, &h.Status, &h.ScheduledAt}
}

func finishHistory(h *HistoryEntry) {
	if h.ScheduledAt != nil {
		t := localWall(*h.ScheduledAt)
		h.ScheduledAt = &t
	}
}

func (r *PgRepository) FindHistoryByAppointment(ctx context.Context, appointmentID int64) (*HistoryEntry, error) {
	var h HistoryEntry
	err := r.q.QueryRow(ctx, `
		SELECT `+historyColumns+`
		FROM history_entries h
		WHERE h.appointment_id = $1
		ORDER BY h.id
		LIMIT 1
	`, appointmentID).Scan(historyDest(&h)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHistoryNotFound
		}
		return nil, err
	}
	finishHistory(&h)
	return &h, nil
}

func (r *PgRepository) InsertHistory(ctx context.Context, h *HistoryEntry) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO history_entries (patient_id, appointment_id, description, status, scheduled_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, h.PatientID, h.AppointmentID, h.Description, h.Status, h.ScheduledAt).Scan(&h.ID)
	if err != nil {
		return db.MapError(err)
	}
	return nil
}

func (r *PgRepository) UpdateHistory(ctx context.Context, h *HistoryEntry) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE history_entries
		SET status = $2, scheduled_at = $3, description = $4
		WHERE id = $1
	`, h.ID, h.Status, h.ScheduledAt, h.Description)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrHistoryNotFound
	}
	return nil
}

func (r *PgRepository) ListHistory(ctx context.Context, patientID *int64) ([]HistoryRecord, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+historyColumns+`,
		       d.first_name || ' ' || d.last_name,
		       s.name
		FROM history_entries h
		LEFT JOIN appointments a ON h.appointment_id = a.id
		LEFT JOIN doctors d ON a.doctor_id = d.id
		LEFT JOIN specialties s ON d.specialty_id = s.id
		WHERE $1::bigint IS NULL OR h.patient_id = $1
		ORDER BY h.scheduled_at DESC NULLS LAST, h.id DESC
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var result []HistoryRecord
	for rows.Next() {
		var rec HistoryRecord
		dest := append(historyDest(&rec.HistoryEntry), &rec.DoctorName, &rec.SpecialtyName)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		finishHistory(&rec.HistoryEntry)
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

var _ Repository = (*PgRepository)(nil)
