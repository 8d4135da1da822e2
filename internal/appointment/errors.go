package appointment

import (
	"errors"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

var (
	ErrSlotNotFound        = apperr.NotFound("availability slot")
	ErrAppointmentNotFound = apperr.NotFound("appointment")
	ErrHistoryNotFound     = apperr.NotFound("history entry")
)

// Booking and slot registration rejections.
var (
	ErrSlotMissing         = apperr.Validation("slot does not exist")
	ErrSlotNotOwned        = apperr.Validation("slot does not belong to doctor")
	ErrSlotAlreadyReserved = apperr.Validation("slot already reserved")
	ErrSlotInvalidDate     = apperr.Validation("slot missing or invalid date")
	ErrDateMismatch        = apperr.Validation("date does not match slot")
	ErrInvalidTimeRange    = apperr.Validation("invalid time range")
	ErrPastBooking         = apperr.Validation("cannot book in the past")
	ErrSlotOverlap         = apperr.Validation("slot overlaps an existing slot for this doctor and date")
	ErrInvalidTimeFormat   = apperr.Validation("invalid time format, use HH:MM")
	ErrInvalidDateFormat   = apperr.Validation("invalid date format, use YYYY-MM-DD")
	ErrInvalidStatus       = apperr.Validation("invalid status")
)

// ErrSlotBeingBooked is returned when another request holds the slot lock.
var ErrSlotBeingBooked = errors.New("slot is currently being booked, please retry")
