package clinic

import "context"

// Repository stores the clinic catalogue. Update methods return the
// resource's ErrXNotFound when no row matched.
type Repository interface {
	InsertPatient(ctx context.Context, p *Patient) error
	GetPatient(ctx context.Context, id int64) (*Patient, error)
	ListPatients(ctx context.Context) ([]Patient, error)
	UpdatePatient(ctx context.Context, p *Patient) error
	DeletePatient(ctx context.Context, id int64) (bool, error)

	InsertSpecialty(ctx context.Context, s *Specialty) error
	ListSpecialties(ctx context.Context) ([]Specialty, error)
	UpdateSpecialty(ctx context.Context, s *Specialty) error
	DeleteSpecialty(ctx context.Context, id int64) (bool, error)

	InsertDoctor(ctx context.Context, d *Doctor) error
	GetDoctor(ctx context.Context, id int64) (*Doctor, error)
	ListDoctors(ctx context.Context) ([]Doctor, error)
	UpdateDoctor(ctx context.Context, d *Doctor) error
	DeleteDoctor(ctx context.Context, id int64) (bool, error)

	InsertPrescription(ctx context.Context, p *Prescription) error
	GetPrescription(ctx context.Context, id int64) (*Prescription, error)
	// ListPrescriptions returns newest first, for one patient or all.
	ListPrescriptions(ctx context.Context, patientID *int64) ([]PrescriptionView, error)
	DeletePrescription(ctx context.Context, id int64) (bool, error)
}
