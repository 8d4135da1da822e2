package api

import (
	"net/http"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

// Patients

func (h *Handlers) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req PatientRequest
	if err := h.decode(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := h.clinic.CreatePatient(r.Context(), clinic.Patient{
		DNI: req.DNI, FirstName: req.FirstName, LastName: req.LastName, Email: req.Email,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPatientResponse(*p))
}

func (h *Handlers) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.clinic.ListPatients(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := make([]PatientResponse, 0, len(patients))
	for _, p := range patients {
		resp = append(resp, toPatientResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) GetPatient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := h.clinic.GetPatient(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPatientResponse(*p))
}

func (h *Handlers) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req PatientRequest
	if err := h.decode(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := h.clinic.UpdatePatient(r.Context(), clinic.Patient{
		ID: id, DNI: req.DNI, FirstName: req.FirstName, LastName: req.LastName, Email: req.Email,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPatientResponse(*p))
}

func (h *Handlers) DeletePatient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.clinic.DeletePatient(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Specialties

func (h *Handlers) CreateSpecialty(w http.ResponseWriter, r *http.Request) {
	var req SpecialtyRequest
	if err := h.decode(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s, err := h.clinic.CreateSpecialty(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, SpecialtyResponse{ID: s.ID, Name: s.Name})
}

func (h *Handlers) ListSpecialties(w http.ResponseWriter, r *http.Request) {
	specialties, err := h.clinic.ListSpecialties(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := make([]SpecialtyResponse, 0, len(specialties))
	for _, s := range specialties {
		resp = append(resp, SpecialtyResponse{ID: s.ID, Name: s.Name})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) UpdateSpecialty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req SpecialtyRequest
	if err := h.decode(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s, err := h.clinic.UpdateSpecialty(r.Context(), id, req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SpecialtyResponse{ID: s.ID, Name: s.Name})
}

func (h *Handlers) DeleteSpecialty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.clinic.DeleteSpecialty(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Doctors

func (h *Handlers) CreateDoctor(w http.ResponseWriter, r *http.Request) {
	var req DoctorRequest
	if err := h.decode(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	d, err := h.clinic.CreateDoctor(r.Context(), clinic.Doctor{
		FirstName: req.FirstName, LastName: req.LastName, SpecialtyID: req.SpecialtyID, Email: req.Email,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDoctorResponse(*d))
}

func (h *Handlers) ListDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.clinic.ListDoctors(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := make([]DoctorResponse, 0, len(doctors))
	for _, d := range doctors {
		resp = append(resp, toDoctorResponse(d))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) GetDoctor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	d, err := h.clinic.GetDoctor(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDoctorResponse(*d))
}

func (h *Handlers) UpdateDoctor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req DoctorRequest
	if err := h.decode(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	d, err := h.clinic.UpdateDoctor(r.Context(), clinic.Doctor{
		ID: id, FirstName: req.FirstName, LastName: req.LastName, SpecialtyID: req.SpecialtyID, Email: req.Email,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDoctorResponse(*d))
}

func (h *Handlers) DeleteDoctor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.clinic.DeleteDoctor(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Prescriptions

func (h *Handlers) CreatePrescription(w http.ResponseWriter, r *http.Request) {
	var req PrescriptionRequest
	if err := h.decode(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := h.clinic.CreatePrescription(r.Context(), clinic.NewPrescription{
		DoctorID: req.DoctorID, PatientID: req.PatientID, Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPrescriptionResponse(*p))
}

func (h *Handlers) GetPrescription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := h.clinic.GetPrescription(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPrescriptionResponse(*p))
}

func (h *Handlers) ListPrescriptions(w http.ResponseWriter, r *http.Request) {
	h.writePrescriptions(w, r, nil)
}

func (h *Handlers) PatientPrescriptions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writePrescriptions(w, r, &id)
}

func (h *Handlers) writePrescriptions(w http.ResponseWriter, r *http.Request, patientID *int64) {
	items, err := h.clinic.ListPrescriptions(r.Context(), patientID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := make([]PrescriptionResponse, 0, len(items))
	for _, p := range items {
		row := toPrescriptionResponse(p.Prescription)
		row.DoctorName = p.DoctorName
		resp = append(resp, row)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) DeletePrescription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.clinic.DeletePrescription(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
