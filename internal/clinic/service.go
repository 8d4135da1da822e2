package clinic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

// PrescriptionNotifier is told about new prescriptions. Errors are logged
// only.
type PrescriptionNotifier interface {
	PrescriptionIssued(ctx context.Context, notice PrescriptionNotice) error
}

type Service struct {
	repo     Repository
	notifier PrescriptionNotifier
	logger   zerolog.Logger
}

type Option func(*Service)

func WithNotifier(n PrescriptionNotifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// requireText checks field/value pairs in order.
func requireText(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return apperr.Validationf("%s is required", pairs[i])
		}
	}
	return nil
}

// Patients

const minDNILength = 6

func validatePatient(p *Patient) error {
	if len(strings.TrimSpace(p.DNI)) < minDNILength {
		return apperr.Validationf("dni must have at least %d characters", minDNILength)
	}
	return requireText("first_name", p.FirstName, "last_name", p.LastName, "email", p.Email)
}

func (s *Service) CreatePatient(ctx context.Context, p Patient) (*Patient, error) {
	if err := validatePatient(&p); err != nil {
		return nil, err
	}
	if err := s.repo.InsertPatient(ctx, &p); err != nil {
		return nil, fmt.Errorf("insert patient: %w", err)
	}
	return &p, nil
}

func (s *Service) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	return s.repo.GetPatient(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context) ([]Patient, error) {
	return s.repo.ListPatients(ctx)
}

func (s *Service) UpdatePatient(ctx context.Context, p Patient) (*Patient, error) {
	if err := validatePatient(&p); err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePatient(ctx, &p); err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return &p, nil
}

func (s *Service) DeletePatient(ctx context.Context, id int64) error {
	ok, err := s.repo.DeletePatient(ctx, id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if !ok {
		return ErrPatientNotFound
	}
	return nil
}

// Specialties

func (s *Service) CreateSpecialty(ctx context.Context, name string) (*Specialty, error) {
	if err := requireText("name", name); err != nil {
		return nil, err
	}
	sp := &Specialty{Name: strings.TrimSpace(name)}
	if err := s.repo.InsertSpecialty(ctx, sp); err != nil {
		return nil, fmt.Errorf("insert specialty: %w", err)
	}
	return sp, nil
}

func (s *Service) ListSpecialties(ctx context.Context) ([]Specialty, error) {
	return s.repo.ListSpecialties(ctx)
}

func (s *Service) UpdateSpecialty(ctx context.Context, id int64, name string) (*Specialty, error) {
	if err := requireText("name", name); err != nil {
		return nil, err
	}
	sp := &Specialty{ID: id, Name: strings.TrimSpace(name)}
	if err := s.repo.UpdateSpecialty(ctx, sp); err != nil {
		return nil, fmt.Errorf("update specialty: %w", err)
	}
	return sp, nil
}

func (s *Service) DeleteSpecialty(ctx context.Context, id int64) error {
	ok, err := s.repo.DeleteSpecialty(ctx, id)
	if err != nil {
		return fmt.Errorf("delete specialty: %w", err)
	}
	if !ok {
		return ErrSpecialtyNotFound
	}
	return nil
}

// Doctors

func validateDoctor(d *Doctor) error {
	return requireText("first_name", d.FirstName, "last_name", d.LastName, "email", d.Email)
}

// CreateDoctor fails with apperr.ErrReferentialIntegrity when the specialty
// does not exist.
func (s *Service) CreateDoctor(ctx context.Context, d Doctor) (*Doctor, error) {
	if err := validateDoctor(&d); err != nil {
		return nil, err
	}
	if err := s.repo.InsertDoctor(ctx, &d); err != nil {
		return nil, fmt.Errorf("insert doctor: %w", err)
	}
	return &d, nil
}

func (s *Service) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	return s.repo.GetDoctor(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context) ([]Doctor, error) {
	return s.repo.ListDoctors(ctx)
}

func (s *Service) UpdateDoctor(ctx context.Context, d Doctor) (*Doctor, error) {
	if err := validateDoctor(&d); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateDoctor(ctx, &d); err != nil {
		return nil, fmt.Errorf("update doctor: %w", err)
	}
	return &d, nil
}

func (s *Service) DeleteDoctor(ctx context.Context, id int64) error {
	ok, err := s.repo.DeleteDoctor(ctx, id)
	if err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	if !ok {
		return ErrDoctorNotFound
	}
	return nil
}

// Prescriptions

type NewPrescription struct {
	DoctorID    int64
	PatientID   int64
	Description string
}

// CreatePrescription stores the prescription and then notifies the patient.
// A failed notification does not fail the call.
func (s *Service) CreatePrescription(ctx context.Context, in NewPrescription) (*Prescription, error) {
	if err := requireText("description", in.Description); err != nil {
		return nil, err
	}

	patient, err := s.repo.GetPatient(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}
	doctor, err := s.repo.GetDoctor(ctx, in.DoctorID)
	if err != nil {
		return nil, err
	}

	p := &Prescription{
		DoctorID:    doctor.ID,
		PatientID:   patient.ID,
		Description: in.Description,
	}
	if err := s.repo.InsertPrescription(ctx, p); err != nil {
		return nil, fmt.Errorf("insert prescription: %w", err)
	}

	if s.notifier != nil {
		notice := PrescriptionNotice{
			PatientName:  patient.FullName(),
			PatientEmail: patient.Email,
			DoctorName:   doctor.FullName(),
			Description:  p.Description,
		}
		if err := s.notifier.PrescriptionIssued(context.WithoutCancel(ctx), notice); err != nil {
			s.logger.Warn().Err(err).Int64("prescription_id", p.ID).Msg("notify prescription")
		}
	}

	return p, nil
}

func (s *Service) GetPrescription(ctx context.Context, id int64) (*Prescription, error) {
	return s.repo.GetPrescription(ctx, id)
}

// ListPrescriptions returns prescriptions newest first. With a patient id,
// an unknown patient is reported as not found.
func (s *Service) ListPrescriptions(ctx context.Context, patientID *int64) ([]PrescriptionView, error) {
	if patientID != nil {
		if _, err := s.repo.GetPatient(ctx, *patientID); err != nil {
			if errors.Is(err, ErrPatientNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("load patient: %w", err)
		}
	}
	return s.repo.ListPrescriptions(ctx, patientID)
}

func (s *Service) DeletePrescription(ctx context.Context, id int64) error {
	ok, err := s.repo.DeletePrescription(ctx, id)
	if err != nil {
		return fmt.Errorf("delete prescription: %w", err)
	}
	if !ok {
		return ErrPrescriptionNotFound
	}
	return nil
}
