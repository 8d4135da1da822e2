package clinic

import "time"

type Specialty struct {
	ID   int64
	Name string
}

type Patient struct {
	ID        int64
	DNI       string
	FirstName string
	LastName  string
	Email     string
}

func (p Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

type Doctor struct {
	ID          int64
	FirstName   string
	LastName    string
	SpecialtyID int64
	Email       string
	// SpecialtyName is filled by list queries only.
	SpecialtyName string
}

func (d Doctor) FullName() string {
	return d.FirstName + " " + d.LastName
}

type Prescription struct {
	ID          int64
	DoctorID    int64
	PatientID   int64
	Description string
	CreatedAt   time.Time
}

type PrescriptionView struct {
	Prescription
	DoctorName string
}

// PrescriptionNotice is what the patient is told about a new prescription.
type PrescriptionNotice struct {
	PatientName  string
	PatientEmail string
	DoctorName   string
	Description  string
}
