package report

import (
	"context"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/db"
)

type PgRepository struct {
	q db.Querier
}

func NewPgRepository(q db.Querier) *PgRepository {
	return &PgRepository{q: q}
}

// naive drops the zone so range bounds compare against TIMESTAMP columns as
// wall-clock values.
func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func (r *PgRepository) AppointmentsByDoctor(ctx context.Context, doctorID int64, rg Range) ([]DoctorAppointment, error) {
	rows, err := r.q.Query(ctx, `
		SELECT a.id, a.scheduled_at, a.status, a.reason, a.duration_minutes,
		       p.first_name || ' ' || p.last_name
		FROM appointments a
		JOIN patients p ON a.patient_id = p.id
		WHERE a.doctor_id = $1
		  AND a.scheduled_at BETWEEN $2 AND $3
		ORDER BY a.scheduled_at, a.id
	`, doctorID, naive(rg.From), naive(rg.To))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DoctorAppointment
	for rows.Next() {
		var d DoctorAppointment
		if err := rows.Scan(&d.ID, &d.ScheduledAt, &d.Status, &d.Reason, &d.DurationMinutes, &d.PatientName); err != nil {
			return nil, err
		}
		d.ScheduledAt = time.Date(d.ScheduledAt.Year(), d.ScheduledAt.Month(), d.ScheduledAt.Day(),
			d.ScheduledAt.Hour(), d.ScheduledAt.Minute(), d.ScheduledAt.Second(), d.ScheduledAt.Nanosecond(), time.Local)
		result = append(result, d)
	}
	return result, rows.Err()
}

func (r *PgRepository) CountBySpecialty(ctx context.Context, rg *Range) ([]SpecialtyCount, error) {
	var from, to *time.Time
	if rg != nil {
		f, t := naive(rg.From), naive(rg.To)
		from, to = &f, &t
	}

	rows, err := r.q.Query(ctx, `
		SELECT s.name, count(*)
		FROM appointments a
		JOIN doctors d ON a.doctor_id = d.id
		JOIN specialties s ON d.specialty_id = s.id
		WHERE ($1::timestamp IS NULL OR a.scheduled_at >= $1)
		  AND ($2::timestamp IS NULL OR a.scheduled_at <= $2)
		GROUP BY s.id, s.name
		ORDER BY count(*) DESC, s.name
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SpecialtyCount
	for rows.Next() {
		var c SpecialtyCount
		if err := rows.Scan(&c.Specialty, &c.Total); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *PgRepository) PatientsAttended(ctx context.Context, rg Range) ([]AttendedPatient, error) {
	rows, err := r.q.Query(ctx, `
		SELECT DISTINCT p.id, p.dni, p.first_name, p.last_name, p.email
		FROM appointments a
		JOIN patients p ON a.patient_id = p.id
		WHERE a.status = 'completed'
		  AND a.scheduled_at BETWEEN $1 AND $2
		ORDER BY p.last_name, p.first_name, p.id
	`, naive(rg.From), naive(rg.To))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AttendedPatient
	for rows.Next() {
		var p AttendedPatient
		if err := rows.Scan(&p.ID, &p.DNI, &p.FirstName, &p.LastName, &p.Email); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *PgRepository) StatusCounts(ctx context.Context, rg Range) ([]StatusCount, error) {
	rows, err := r.q.Query(ctx, `
		SELECT status, count(*)
		FROM appointments
		WHERE scheduled_at BETWEEN $1 AND $2
		GROUP BY status
		ORDER BY status
	`, naive(rg.From), naive(rg.To))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StatusCount
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Status, &c.Total); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

var _ Repository = (*PgRepository)(nil)
