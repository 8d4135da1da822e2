package apptest

import (
	"context"
	"sort"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/auth"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

// Deletes cascade the way the schema's foreign keys do.

func (st *state) deleteAppointment(id int64) {
	delete(st.appointments, id)
	for hid, h := range st.history {
		if h.AppointmentID != nil && *h.AppointmentID == id {
			h.AppointmentID = nil
			st.history[hid] = h
		}
	}
}

func (st *state) deletePatient(id int64) {
	delete(st.patients, id)
	for aid, a := range st.appointments {
		if a.PatientID == id {
			st.deleteAppointment(aid)
		}
	}
	for hid, h := range st.history {
		if h.PatientID == id {
			delete(st.history, hid)
		}
	}
	for pid, p := range st.prescriptions {
		if p.PatientID == id {
			delete(st.prescriptions, pid)
		}
	}
}

func (st *state) deleteDoctor(id int64) {
	delete(st.doctors, id)
	for sid, s := range st.slots {
		if s.DoctorID == id {
			delete(st.slots, sid)
		}
	}
	for aid, a := range st.appointments {
		if a.DoctorID == id {
			st.deleteAppointment(aid)
		}
	}
	for pid, p := range st.prescriptions {
		if p.DoctorID == id {
			delete(st.prescriptions, pid)
		}
	}
}

// Patients

func (st *state) dniTaken(dni string, exceptID int64) bool {
	for _, p := range st.patients {
		if p.ID != exceptID && p.DNI == dni {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) InsertPatient(_ context.Context, p *clinic.Patient) error {
	defer r.lock()()
	st := r.sh.st
	if st.dniTaken(p.DNI, 0) {
		return apperr.ErrConflict
	}
	p.ID = st.next("patients")
	st.patients[p.ID] = *p
	return nil
}

func (r *MemoryRepository) GetPatient(_ context.Context, id int64) (*clinic.Patient, error) {
	defer r.lock()()
	p, ok := r.sh.st.patients[id]
	if !ok {
		return nil, clinic.ErrPatientNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) ListPatients(_ context.Context) ([]clinic.Patient, error) {
	defer r.lock()()
	out := sortedValues(r.sh.st.patients)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}

func (r *MemoryRepository) UpdatePatient(_ context.Context, p *clinic.Patient) error {
	defer r.lock()()
	st := r.sh.st
	if _, ok := st.patients[p.ID]; !ok {
		return clinic.ErrPatientNotFound
	}
	if st.dniTaken(p.DNI, p.ID) {
		return apperr.ErrConflict
	}
	st.patients[p.ID] = *p
	return nil
}

func (r *MemoryRepository) DeletePatient(_ context.Context, id int64) (bool, error) {
	defer r.lock()()
	if _, ok := r.sh.st.patients[id]; !ok {
		return false, nil
	}
	r.sh.st.deletePatient(id)
	return true, nil
}

// Specialties

func (st *state) specialtyTaken(name string, exceptID int64) bool {
	for _, s := range st.specialties {
		if s.ID != exceptID && s.Name == name {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) InsertSpecialty(_ context.Context, s *clinic.Specialty) error {
	defer r.lock()()
	st := r.sh.st
	if st.specialtyTaken(s.Name, 0) {
		return apperr.ErrConflict
	}
	s.ID = st.next("specialties")
	st.specialties[s.ID] = *s
	return nil
}

func (r *MemoryRepository) ListSpecialties(_ context.Context) ([]clinic.Specialty, error) {
	defer r.lock()()
	out := sortedValues(r.sh.st.specialties)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepository) UpdateSpecialty(_ context.Context, s *clinic.Specialty) error {
	defer r.lock()()
	st := r.sh.st
	if _, ok := st.specialties[s.ID]; !ok {
		return clinic.ErrSpecialtyNotFound
	}
	if st.specialtyTaken(s.Name, s.ID) {
		return apperr.ErrConflict
	}
	st.specialties[s.ID] = *s
	return nil
}

func (r *MemoryRepository) DeleteSpecialty(_ context.Context, id int64) (bool, error) {
	defer r.lock()()
	st := r.sh.st
	if _, ok := st.specialties[id]; !ok {
		return false, nil
	}
	delete(st.specialties, id)
	for did, d := range st.doctors {
		if d.SpecialtyID == id {
			st.deleteDoctor(did)
		}
	}
	return true, nil
}

// Doctors

func (st *state) withSpecialty(d clinic.Doctor) clinic.Doctor {
	d.SpecialtyName = st.specialties[d.SpecialtyID].Name
	return d
}

func (r *MemoryRepository) InsertDoctor(_ context.Context, d *clinic.Doctor) error {
	defer r.lock()()
	st := r.sh.st
	if _, ok := st.specialties[d.SpecialtyID]; !ok {
		return apperr.ErrReferentialIntegrity
	}
	d.ID = st.next("doctors")
	d.SpecialtyName = ""
	st.doctors[d.ID] = *d
	return nil
}

func (r *MemoryRepository) GetDoctor(_ context.Context, id int64) (*clinic.Doctor, error) {
	defer r.lock()()
	d, ok := r.sh.st.doctors[id]
	if !ok {
		return nil, clinic.ErrDoctorNotFound
	}
	d = r.sh.st.withSpecialty(d)
	return &d, nil
}

func (r *MemoryRepository) ListDoctors(_ context.Context) ([]clinic.Doctor, error) {
	defer r.lock()()
	st := r.sh.st
	var out []clinic.Doctor
	for _, d := range sortedValues(st.doctors) {
		out = append(out, st.withSpecialty(d))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}

func (r *MemoryRepository) UpdateDoctor(_ context.Context, d *clinic.Doctor) error {
	defer r.lock()()
	st := r.sh.st
	if _, ok := st.doctors[d.ID]; !ok {
		return clinic.ErrDoctorNotFound
	}
	if _, ok := st.specialties[d.SpecialtyID]; !ok {
		return apperr.ErrReferentialIntegrity
	}
	st.doctors[d.ID] = *d
	return nil
}

func (r *MemoryRepository) DeleteDoctor(_ context.Context, id int64) (bool, error) {
	defer r.lock()()
	if _, ok := r.sh.st.doctors[id]; !ok {
		return false, nil
	}
	r.sh.st.deleteDoctor(id)
	return true, nil
}

// Prescriptions

func (r *MemoryRepository) InsertPrescription(_ context.Context, p *clinic.Prescription) error {
	defer r.lock()()
	st := r.sh.st
	if _, ok := st.patients[p.PatientID]; !ok {
		return apperr.ErrReferentialIntegrity
	}
	if _, ok := st.doctors[p.DoctorID]; !ok {
		return apperr.ErrReferentialIntegrity
	}
	p.ID = st.next("prescriptions")
	p.CreatedAt = r.sh.now()
	st.prescriptions[p.ID] = *p
	return nil
}

func (r *MemoryRepository) GetPrescription(_ context.Context, id int64) (*clinic.Prescription, error) {
	defer r.lock()()
	p, ok := r.sh.st.prescriptions[id]
	if !ok {
		return nil, clinic.ErrPrescriptionNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) ListPrescriptions(_ context.Context, patientID *int64) ([]clinic.PrescriptionView, error) {
	defer r.lock()()
	st := r.sh.st
	var out []clinic.PrescriptionView
	all := sortedValues(st.prescriptions)
	for i := len(all) - 1; i >= 0; i-- {
		p := all[i]
		if patientID != nil && p.PatientID != *patientID {
			continue
		}
		d, ok := st.doctors[p.DoctorID]
		if !ok {
			continue
		}
		out = append(out, clinic.PrescriptionView{Prescription: p, DoctorName: d.FullName()})
	}
	return out, nil
}

func (r *MemoryRepository) DeletePrescription(_ context.Context, id int64) (bool, error) {
	defer r.lock()()
	if _, ok := r.sh.st.prescriptions[id]; !ok {
		return false, nil
	}
	delete(r.sh.st.prescriptions, id)
	return true, nil
}

// Admins

func (r *MemoryRepository) GetAdminByUsername(_ context.Context, username string) (*auth.Admin, error) {
	defer r.lock()()
	for _, a := range r.sh.st.admins {
		if a.Username == username {
			return &a, nil
		}
	}
	return nil, auth.ErrAdminNotFound
}

func (r *MemoryRepository) InsertAdmin(_ context.Context, a *auth.Admin) error {
	defer r.lock()()
	st := r.sh.st
	for _, existing := range st.admins {
		if existing.Username == a.Username {
			return apperr.ErrConflict
		}
	}
	a.ID = st.next("admins")
	st.admins[a.ID] = *a
	return nil
}

var (
	_ clinic.Repository    = (*MemoryRepository)(nil)
	_ auth.AdminRepository = (*MemoryRepository)(nil)
)
