package clinic

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/hackgods/clinic-scheduling/internal/db"
)

type PgRepository struct {
	q db.Querier
}

func NewPgRepository(q db.Querier) *PgRepository {
	return &PgRepository{q: q}
}

func notFoundAs(err, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return err
}

// Patients

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	if err := row.Scan(&p.ID, &p.DNI, &p.FirstName, &p.LastName, &p.Email); err != nil {
		return nil, notFoundAs(err, ErrPatientNotFound)
	}
	return &p, nil
}

func (r *PgRepository) InsertPatient(ctx context.Context, p *Patient) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO patients (dni, first_name, last_name, email)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, p.DNI, p.FirstName, p.LastName, p.Email).Scan(&p.ID)
	return db.MapError(err)
}

func (r *PgRepository) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	row := r.q.QueryRow(ctx, `SELECT id, dni, first_name, last_name, email FROM patients WHERE id = $1`, id)
	return scanPatient(row)
}

func (r *PgRepository) ListPatients(ctx context.Context) ([]Patient, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, dni, first_name, last_name, email
		FROM patients
		ORDER BY last_name, first_name, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *PgRepository) UpdatePatient(ctx context.Context, p *Patient) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE patients
		SET dni = $2, first_name = $3, last_name = $4, email = $5
		WHERE id = $1
	`, p.ID, p.DNI, p.FirstName, p.LastName, p.Email)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *PgRepository) DeletePatient(ctx context.Context, id int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return false, db.MapError(err)
	}
	return tag.RowsAffected() > 0, nil
}

// Specialties

func (r *PgRepository) InsertSpecialty(ctx context.Context, s *Specialty) error {
	err := r.q.QueryRow(ctx, `INSERT INTO specialties (name) VALUES ($1) RETURNING id`, s.Name).Scan(&s.ID)
	return db.MapError(err)
}

func (r *PgRepository) ListSpecialties(ctx context.Context) ([]Specialty, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name FROM specialties ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Specialty
	for rows.Next() {
		var s Specialty
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *PgRepository) UpdateSpecialty(ctx context.Context, s *Specialty) error {
	tag, err := r.q.Exec(ctx, `UPDATE specialties SET name = $2 WHERE id = $1`, s.ID, s.Name)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSpecialtyNotFound
	}
	return nil
}

func (r *PgRepository) DeleteSpecialty(ctx context.Context, id int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM specialties WHERE id = $1`, id)
	if err != nil {
		return false, db.MapError(err)
	}
	return tag.RowsAffected() > 0, nil
}

// Doctors

func (r *PgRepository) InsertDoctor(ctx context.Context, d *Doctor) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO doctors (first_name, last_name, specialty_id, email)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, d.FirstName, d.LastName, d.SpecialtyID, d.Email).Scan(&d.ID)
	return db.MapError(err)
}

func (r *PgRepository) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	var d Doctor
	err := r.q.QueryRow(ctx, `
		SELECT d.id, d.first_name, d.last_name, d.specialty_id, d.email, s.name
		FROM doctors d
		JOIN specialties s ON d.specialty_id = s.id
		WHERE d.id = $1
	`, id).Scan(&d.ID, &d.FirstName, &d.LastName, &d.SpecialtyID, &d.Email, &d.SpecialtyName)
	if err != nil {
		return nil, notFoundAs(err, ErrDoctorNotFound)
	}
	return &d, nil
}

func (r *PgRepository) ListDoctors(ctx context.Context) ([]Doctor, error) {
	rows, err := r.q.Query(ctx, `
		SELECT d.id, d.first_name, d.last_name, d.specialty_id, d.email, s.name
		FROM doctors d
		JOIN specialties s ON d.specialty_id = s.id
		ORDER BY d.last_name, d.first_name, d.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.FirstName, &d.LastName, &d.SpecialtyID, &d.Email, &d.SpecialtyName); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (r *PgRepository) UpdateDoctor(ctx context.Context, d *Doctor) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE doctors
		SET first_name = $2, last_name = $3, specialty_id = $4, email = $5
		WHERE id = $1
	`, d.ID, d.FirstName, d.LastName, d.SpecialtyID, d.Email)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *PgRepository) DeleteDoctor(ctx context.Context, id int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return false, db.MapError(err)
	}
	return tag.RowsAffected() > 0, nil
}

// Prescriptions

func (r *PgRepository) InsertPrescription(ctx context.Context, p *Prescription) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO prescriptions (doctor_id, patient_id, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, p.DoctorID, p.PatientID, p.Description).Scan(&p.ID, &p.CreatedAt)
	return db.MapError(err)
}

func (r *PgRepository) GetPrescription(ctx context.Context, id int64) (*Prescription, error) {
	var p Prescription
	err := r.q.QueryRow(ctx, `
		SELECT id, doctor_id, patient_id, description, created_at
		FROM prescriptions
		WHERE id = $1
	`, id).Scan(&p.ID, &p.DoctorID, &p.PatientID, &p.Description, &p.CreatedAt)
	if err != nil {
		return nil, notFoundAs(err, ErrPrescriptionNotFound)
	}
	return &p, nil
}

func (r *PgRepository) ListPrescriptions(ctx context.Context, patientID *int64) ([]PrescriptionView, error) {
	rows, err := r.q.Query(ctx, `
		SELECT p.id, p.doctor_id, p.patient_id, p.description, p.created_at,
		       d.first_name || ' ' || d.last_name
		FROM prescriptions p
		JOIN doctors d ON p.doctor_id = d.id
		WHERE $1::bigint IS NULL OR p.patient_id = $1
		ORDER BY p.id DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PrescriptionView
	for rows.Next() {
		var v PrescriptionView
		err := rows.Scan(&v.ID, &v.DoctorID, &v.PatientID, &v.Description, &v.CreatedAt, &v.DoctorName)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func (r *PgRepository) DeletePrescription(ctx context.Context, id int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

var _ Repository = (*PgRepository)(nil)
