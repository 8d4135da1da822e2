// Package apptest provides an in-memory store implementing the repositories
// of the appointment, clinic, auth and report packages. Foreign keys, the
// single live reservation per slot and transaction rollback behave like the
// Postgres schema.
package apptest

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/auth"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

type state struct {
	seq           map[string]int64
	specialties   map[int64]clinic.Specialty
	patients      map[int64]clinic.Patient
	doctors       map[int64]clinic.Doctor
	prescriptions map[int64]clinic.Prescription
	admins        map[int64]auth.Admin
	slots         map[int64]appointment.Slot
	appointments  map[int64]appointment.Appointment
	history       map[int64]appointment.HistoryEntry
}

func newState() *state {
	return &state{
		seq:           map[string]int64{},
		specialties:   map[int64]clinic.Specialty{},
		patients:      map[int64]clinic.Patient{},
		doctors:       map[int64]clinic.Doctor{},
		prescriptions: map[int64]clinic.Prescription{},
		admins:        map[int64]auth.Admin{},
		slots:         map[int64]appointment.Slot{},
		appointments:  map[int64]appointment.Appointment{},
		history:       map[int64]appointment.HistoryEntry{},
	}
}

func (s *state) clone() *state {
	return &state{
		seq:           maps.Clone(s.seq),
		specialties:   maps.Clone(s.specialties),
		patients:      maps.Clone(s.patients),
		doctors:       maps.Clone(s.doctors),
		prescriptions: maps.Clone(s.prescriptions),
		admins:        maps.Clone(s.admins),
		slots:         maps.Clone(s.slots),
		appointments:  maps.Clone(s.appointments),
		history:       maps.Clone(s.history),
	}
}

func (s *state) next(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

type shared struct {
	mu       sync.Mutex
	st       *state
	failures map[string]error
	now      func() time.Time
}

// MemoryRepository is safe for concurrent use. Transactions are serialized.
type MemoryRepository struct {
	sh   *shared
	inTx bool
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sh: &shared{
		st:       newState(),
		failures: map[string]error{},
		now:      time.Now,
	}}
}

func (r *MemoryRepository) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.sh.mu.Lock()
	return r.sh.mu.Unlock
}

// FailOn makes the next call of the named method return err.
func (r *MemoryRepository) FailOn(method string, err error) {
	defer r.lock()()
	r.sh.failures[method] = err
}

func (r *MemoryRepository) fault(method string) error {
	err, ok := r.sh.failures[method]
	if !ok {
		return nil
	}
	delete(r.sh.failures, method)
	return err
}

func (r *MemoryRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx appointment.Repository) error) error {
	if r.inTx {
		return fn(ctx, r)
	}

	r.sh.mu.Lock()
	defer r.sh.mu.Unlock()

	snapshot := r.sh.st.clone()
	if err := fn(ctx, &MemoryRepository{sh: r.sh, inTx: true}); err != nil {
		r.sh.st = snapshot
		return err
	}
	return nil
}

// Seeding helpers

func (r *MemoryRepository) AddSpecialty(name string) int64 {
	s := clinic.Specialty{Name: name}
	if err := r.InsertSpecialty(context.Background(), &s); err != nil {
		panic(err)
	}
	return s.ID
}

func (r *MemoryRepository) AddPatient(first, last, email string) int64 {
	defer r.lock()()
	st := r.sh.st
	id := st.next("patients")
	st.patients[id] = clinic.Patient{
		ID:        id,
		DNI:       fmt.Sprintf("%08d", id),
		FirstName: first,
		LastName:  last,
		Email:     email,
	}
	return id
}

// AddDoctor creates the doctor together with its specialty.
func (r *MemoryRepository) AddDoctor(first, last, specialty string) int64 {
	specialtyID := r.AddSpecialty(specialty)
	d := clinic.Doctor{FirstName: first, LastName: last, SpecialtyID: specialtyID, Email: first + "@clinic.test"}
	if err := r.InsertDoctor(context.Background(), &d); err != nil {
		panic(err)
	}
	return d.ID
}

// PutSlot stores the slot as is, skipping every check. Useful for rows that
// the service would never write, such as corrupt times.
func (r *MemoryRepository) PutSlot(s appointment.Slot) int64 {
	defer r.lock()()
	st := r.sh.st
	s.ID = st.next("availability_slots")
	s.CreatedAt = r.sh.now()
	st.slots[s.ID] = s
	return s.ID
}

// PutAppointment stores the appointment as is, skipping every check.
func (r *MemoryRepository) PutAppointment(a appointment.Appointment) int64 {
	defer r.lock()()
	st := r.sh.st
	a.ID = st.next("appointments")
	st.appointments[a.ID] = a
	return a.ID
}

// HistoryFor returns every entry linked to the appointment.
func (r *MemoryRepository) HistoryFor(appointmentID int64) []appointment.HistoryEntry {
	defer r.lock()()
	var out []appointment.HistoryEntry
	for _, h := range r.sh.st.history {
		if h.AppointmentID != nil && *h.AppointmentID == appointmentID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedValues[V any](m map[int64]V) []V {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]V, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

// Availability slots

func (r *MemoryRepository) InsertSlot(_ context.Context, s *appointment.Slot) error {
	defer r.lock()()
	if err := r.fault("InsertSlot"); err != nil {
		return err
	}
	st := r.sh.st
	if _, ok := st.doctors[s.DoctorID]; !ok {
		return apperr.ErrReferentialIntegrity
	}
	s.ID = st.next("availability_slots")
	s.CreatedAt = r.sh.now()
	st.slots[s.ID] = *s
	return nil
}

func (r *MemoryRepository) GetSlot(_ context.Context, id int64) (*appointment.Slot, error) {
	defer r.lock()()
	s, ok := r.sh.st.slots[id]
	if !ok {
		return nil, appointment.ErrSlotNotFound
	}
	return &s, nil
}

func (r *MemoryRepository) GetSlotForUpdate(ctx context.Context, id int64) (*appointment.Slot, error) {
	return r.GetSlot(ctx, id)
}

func (r *MemoryRepository) ListSlots(_ context.Context, doctorID *int64) ([]appointment.Slot, error) {
	defer r.lock()()
	var out []appointment.Slot
	for _, s := range sortedValues(r.sh.st.slots) {
		if doctorID == nil || s.DoctorID == *doctorID {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if doctorID == nil && a.DoctorID != b.DoctorID {
			return a.DoctorID < b.DoctorID
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.StartTime < b.StartTime
	})
	return out, nil
}

func (r *MemoryRepository) ListSlotsForDoctorDate(_ context.Context, doctorID int64, date string) ([]appointment.Slot, error) {
	defer r.lock()()
	var out []appointment.Slot
	for _, s := range sortedValues(r.sh.st.slots) {
		if s.DoctorID == doctorID && s.Date == date {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *MemoryRepository) DeleteSlot(_ context.Context, id int64) (bool, error) {
	defer r.lock()()
	st := r.sh.st
	if _, ok := st.slots[id]; !ok {
		return false, nil
	}
	delete(st.slots, id)
	for apptID, a := range st.appointments {
		if a.SlotID != nil && *a.SlotID == id {
			a.SlotID = nil
			st.appointments[apptID] = a
		}
	}
	return true, nil
}

func (r *MemoryRepository) SetSlotActive(_ context.Context, id int64, active bool) (bool, error) {
	defer r.lock()()
	if err := r.fault("SetSlotActive"); err != nil {
		return false, err
	}
	s, ok := r.sh.st.slots[id]
	if !ok {
		return false, nil
	}
	s.Active = active
	r.sh.st.slots[id] = s
	return true, nil
}

// Appointments

func (st *state) liveHolder(slotID, excludeID int64) bool {
	for _, a := range st.appointments {
		if a.ID != excludeID && a.SlotID != nil && *a.SlotID == slotID && a.Status.Live() {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) InsertAppointment(_ context.Context, a *appointment.Appointment) error {
	defer r.lock()()
	if err := r.fault("InsertAppointment"); err != nil {
		return err
	}
	st := r.sh.st
	if _, ok := st.patients[a.PatientID]; !ok {
		return apperr.ErrReferentialIntegrity
	}
	if _, ok := st.doctors[a.DoctorID]; !ok {
		return apperr.ErrReferentialIntegrity
	}
	if a.SlotID != nil {
		if _, ok := st.slots[*a.SlotID]; !ok {
			return apperr.ErrReferentialIntegrity
		}
		if a.Status.Live() && st.liveHolder(*a.SlotID, 0) {
			return appointment.ErrSlotAlreadyReserved
		}
	}
	now := r.sh.now()
	a.ID = st.next("appointments")
	a.CreatedAt = now
	a.UpdatedAt = now
	st.appointments[a.ID] = *a
	return nil
}

func (r *MemoryRepository) GetAppointment(_ context.Context, id int64) (*appointment.Appointment, error) {
	defer r.lock()()
	a, ok := r.sh.st.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *MemoryRepository) GetAppointmentForUpdate(ctx context.Context, id int64) (*appointment.Appointment, error) {
	return r.GetAppointment(ctx, id)
}

func (r *MemoryRepository) GetAppointmentDetail(_ context.Context, id int64) (*appointment.AppointmentDetail, error) {
	defer r.lock()()
	st := r.sh.st
	a, ok := st.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	p, okP := st.patients[a.PatientID]
	d, okD := st.doctors[a.DoctorID]
	sp, okS := st.specialties[d.SpecialtyID]
	if !okP || !okD || !okS {
		return nil, appointment.ErrAppointmentNotFound
	}
	return &appointment.AppointmentDetail{
		Appointment:   a,
		PatientName:   p.FullName(),
		PatientEmail:  p.Email,
		DoctorName:    d.FullName(),
		SpecialtyName: sp.Name,
	}, nil
}

func (r *MemoryRepository) ListAppointments(_ context.Context, doctorID *int64) ([]appointment.AppointmentView, error) {
	defer r.lock()()
	st := r.sh.st
	var out []appointment.AppointmentView
	for _, a := range sortedValues(st.appointments) {
		if doctorID != nil && a.DoctorID != *doctorID {
			continue
		}
		p, okP := st.patients[a.PatientID]
		d, okD := st.doctors[a.DoctorID]
		if !okP || !okD {
			continue
		}
		out = append(out, appointment.AppointmentView{
			Appointment: a,
			PatientName: p.FullName(),
			DoctorName:  d.FullName(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledAt.Before(out[j].ScheduledAt)
	})
	return out, nil
}

func (r *MemoryRepository) CountLiveAppointmentsForSlot(_ context.Context, slotID, excludeID int64) (int, error) {
	defer r.lock()()
	n := 0
	for _, a := range r.sh.st.appointments {
		if a.ID != excludeID && a.SlotID != nil && *a.SlotID == slotID && a.Status.Live() {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) UpdateAppointmentStatus(_ context.Context, id int64, status appointment.Status) (bool, error) {
	defer r.lock()()
	if err := r.fault("UpdateAppointmentStatus"); err != nil {
		return false, err
	}
	st := r.sh.st
	a, ok := st.appointments[id]
	if !ok {
		return false, nil
	}
	if a.SlotID != nil && status.Live() && st.liveHolder(*a.SlotID, a.ID) {
		return false, appointment.ErrSlotAlreadyReserved
	}
	a.Status = status
	a.UpdatedAt = r.sh.now()
	st.appointments[id] = a
	return true, nil
}

// History

func (r *MemoryRepository) FindHistoryByAppointment(_ context.Context, appointmentID int64) (*appointment.HistoryEntry, error) {
	defer r.lock()()
	for _, h := range sortedValues(r.sh.st.history) {
		if h.AppointmentID != nil && *h.AppointmentID == appointmentID {
			return &h, nil
		}
	}
	return nil, appointment.ErrHistoryNotFound
}

func (r *MemoryRepository) InsertHistory(_ context.Context, h *appointment.HistoryEntry) error {
	defer r.lock()()
	if err := r.fault("InsertHistory"); err != nil {
		return err
	}
	st := r.sh.st
	if _, ok := st.patients[h.PatientID]; !ok {
		return apperr.ErrReferentialIntegrity
	}
	if h.AppointmentID != nil {
		if _, ok := st.appointments[*h.AppointmentID]; !ok {
			return apperr.ErrReferentialIntegrity
		}
	}
	h.ID = st.next("history_entries")
	st.history[h.ID] = *h
	return nil
}

func (r *MemoryRepository) UpdateHistory(_ context.Context, h *appointment.HistoryEntry) error {
	defer r.lock()()
	if err := r.fault("UpdateHistory"); err != nil {
		return err
	}
	existing, ok := r.sh.st.history[h.ID]
	if !ok {
		return appointment.ErrHistoryNotFound
	}
	existing.Status = h.Status
	existing.ScheduledAt = h.ScheduledAt
	existing.Description = h.Description
	r.sh.st.history[h.ID] = existing
	return nil
}

func (r *MemoryRepository) ListHistory(_ context.Context, patientID *int64) ([]appointment.HistoryRecord, error) {
	defer r.lock()()
	st := r.sh.st
	var out []appointment.HistoryRecord
	for _, h := range sortedValues(st.history) {
		if patientID != nil && h.PatientID != *patientID {
			continue
		}
		rec := appointment.HistoryRecord{HistoryEntry: h}
		if h.AppointmentID != nil {
			if a, ok := st.appointments[*h.AppointmentID]; ok {
				if d, ok := st.doctors[a.DoctorID]; ok {
					name := d.FullName()
					rec.DoctorName = &name
					if sp, ok := st.specialties[d.SpecialtyID]; ok {
						spName := sp.Name
						rec.SpecialtyName = &spName
					}
				}
			}
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].ScheduledAt, out[j].ScheduledAt
		switch {
		case a == nil && b == nil:
			return out[i].ID > out[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.After(*b)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

var _ appointment.Repository = (*MemoryRepository)(nil)
