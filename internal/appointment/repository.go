package appointment

import (
	"context"
)

// Repository contains all DB interactions needed by the service. Methods
// called on the tx handed to WithinTx run in one store transaction.
type Repository interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error

	// Availability slots
	InsertSlot(ctx context.Context, s *Slot) error
	GetSlot(ctx context.Context, id int64) (*Slot, error)
	// GetSlotForUpdate also locks the row until the surrounding tx ends.
	GetSlotForUpdate(ctx context.Context, id int64) (*Slot, error)
	ListSlots(ctx context.Context, doctorID *int64) ([]Slot, error)
	ListSlotsForDoctorDate(ctx context.Context, doctorID int64, date string) ([]Slot, error)
	DeleteSlot(ctx context.Context, id int64) (bool, error)
	SetSlotActive(ctx context.Context, id int64, active bool) (bool, error)

	// Appointments
	InsertAppointment(ctx context.Context, a *Appointment) error
	GetAppointment(ctx context.Context, id int64) (*Appointment, error)
	GetAppointmentForUpdate(ctx context.Context, id int64) (*Appointment, error)
	GetAppointmentDetail(ctx context.Context, id int64) (*AppointmentDetail, error)
	ListAppointments(ctx context.Context, doctorID *int64) ([]AppointmentView, error)
	// CountLiveAppointmentsForSlot counts non-cancelled appointments bound to
	// the slot, ignoring excludeID (0 to ignore none).
	CountLiveAppointmentsForSlot(ctx context.Context, slotID, excludeID int64) (int, error)
	UpdateAppointmentStatus(ctx context.Context, id int64, status Status) (bool, error)

	// History
	FindHistoryByAppointment(ctx context.Context, appointmentID int64) (*HistoryEntry, error)
	InsertHistory(ctx context.Context, h *HistoryEntry) error
	UpdateHistory(ctx context.Context, h *HistoryEntry) error
	ListHistory(ctx context.Context, patientID *int64) ([]HistoryRecord, error)
}
