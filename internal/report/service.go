package report

import (
	"context"
	"fmt"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func checkRange(r Range) error {
	if r.To.Before(r.From) {
		return apperr.Validation("end of range is before its start")
	}
	return nil
}

func (s *Service) AppointmentsByDoctor(ctx context.Context, doctorID int64, r Range) ([]DoctorAppointment, error) {
	if err := checkRange(r); err != nil {
		return nil, err
	}
	out, err := s.repo.AppointmentsByDoctor(ctx, doctorID, r)
	if err != nil {
		return nil, fmt.Errorf("appointments by doctor: %w", err)
	}
	return out, nil
}

func (s *Service) CountBySpecialty(ctx context.Context, r *Range) ([]SpecialtyCount, error) {
	if r != nil {
		if err := checkRange(*r); err != nil {
			return nil, err
		}
	}
	out, err := s.repo.CountBySpecialty(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("count by specialty: %w", err)
	}
	return out, nil
}

func (s *Service) PatientsAttended(ctx context.Context, r Range) ([]AttendedPatient, error) {
	if err := checkRange(r); err != nil {
		return nil, err
	}
	out, err := s.repo.PatientsAttended(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("patients attended: %w", err)
	}
	return out, nil
}

func (s *Service) Attendance(ctx context.Context, r Range) (*Attendance, error) {
	if err := checkRange(r); err != nil {
		return nil, err
	}
	counts, err := s.repo.StatusCounts(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("attendance: %w", err)
	}
	a := Summarize(counts)
	return &a, nil
}

func Summarize(counts []StatusCount) Attendance {
	a := Attendance{ByStatus: make(map[appointment.Status]int, len(counts))}
	for _, c := range counts {
		a.ByStatus[c.Status] += c.Total
		switch c.Status {
		case appointment.StatusCompleted:
			a.Attended += c.Total
		case appointment.StatusAbsent, appointment.StatusCancelled:
			a.Missed += c.Total
		}
	}
	return a
}
