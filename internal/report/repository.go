package report

import "context"

type Repository interface {
	AppointmentsByDoctor(ctx context.Context, doctorID int64, r Range) ([]DoctorAppointment, error)
	// CountBySpecialty covers every appointment when r is nil.
	CountBySpecialty(ctx context.Context, r *Range) ([]SpecialtyCount, error)
	PatientsAttended(ctx context.Context, r Range) ([]AttendedPatient, error)
	StatusCounts(ctx context.Context, r Range) ([]StatusCount, error)
}
