package apptest

import (
	"context"
	"sort"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/report"
)

func (r *MemoryRepository) AppointmentsByDoctor(_ context.Context, doctorID int64, rg report.Range) ([]report.DoctorAppointment, error) {
	defer r.lock()()
	st := r.sh.st
	var out []report.DoctorAppointment
	for _, a := range sortedValues(st.appointments) {
		if a.DoctorID != doctorID || !rg.Contains(a.ScheduledAt) {
			continue
		}
		p := st.patients[a.PatientID]
		out = append(out, report.DoctorAppointment{
			ID:              a.ID,
			ScheduledAt:     a.ScheduledAt,
			Status:          a.Status,
			Reason:          a.Reason,
			DurationMinutes: a.DurationMinutes,
			PatientName:     p.FullName(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (r *MemoryRepository) CountBySpecialty(_ context.Context, rg *report.Range) ([]report.SpecialtyCount, error) {
	defer r.lock()()
	st := r.sh.st
	totals := map[string]int{}
	for _, a := range st.appointments {
		if rg != nil && !rg.Contains(a.ScheduledAt) {
			continue
		}
		d, ok := st.doctors[a.DoctorID]
		if !ok {
			continue
		}
		totals[st.specialties[d.SpecialtyID].Name]++
	}
	out := make([]report.SpecialtyCount, 0, len(totals))
	for name, n := range totals {
		out = append(out, report.SpecialtyCount{Specialty: name, Total: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Specialty < out[j].Specialty
	})
	return out, nil
}

func (r *MemoryRepository) PatientsAttended(_ context.Context, rg report.Range) ([]report.AttendedPatient, error) {
	defer r.lock()()
	st := r.sh.st
	seen := map[int64]bool{}
	var out []report.AttendedPatient
	for _, a := range sortedValues(st.appointments) {
		if a.Status != appointment.StatusCompleted || !rg.Contains(a.ScheduledAt) || seen[a.PatientID] {
			continue
		}
		if p, ok := st.patients[a.PatientID]; ok {
			seen[a.PatientID] = true
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}

func (r *MemoryRepository) StatusCounts(_ context.Context, rg report.Range) ([]report.StatusCount, error) {
	defer r.lock()()
	totals := map[appointment.Status]int{}
	for _, a := range r.sh.st.appointments {
		if rg.Contains(a.ScheduledAt) {
			totals[a.Status]++
		}
	}
	var out []report.StatusCount
	for _, s := range appointment.Statuses {
		if n := totals[s]; n > 0 {
			out = append(out, report.StatusCount{Status: s, Total: n})
		}
	}
	return out, nil
}

var _ report.Repository = (*MemoryRepository)(nil)
