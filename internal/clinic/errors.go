package clinic

import "github.com/hackgods/clinic-scheduling/internal/apperr"

var (
	ErrPatientNotFound      = apperr.NotFound("patient")
	ErrDoctorNotFound       = apperr.NotFound("doctor")
	ErrSpecialtyNotFound    = apperr.NotFound("specialty")
	ErrPrescriptionNotFound = apperr.NotFound("prescription")
)
