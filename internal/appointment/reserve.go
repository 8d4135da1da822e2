package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

const (
	reminderPending      = "pending"
	historyNoteCreated   = "Appointment created"
	historyNoteDefault   = "Appointment follow-up"
	historyNoteStatusFmt = "Status updated to %s"
)

type ReserveRequest struct {
	PatientID  int64
	DoctorID   int64
	SlotID     int64
	TargetDate time.Time
	Status     Status
	Reason     *string
}

// slotSelection is a validated slot together with its computed start and
// length.
type slotSelection struct {
	slot     *Slot
	start    time.Time
	duration int
}

// Reserve books the slot for the patient. The appointment insert, the slot
// deactivation and the history entry are committed together.
func (s *Service) Reserve(ctx context.Context, req ReserveRequest) (*Appointment, error) {
	status := req.Status
	if status == "" {
		status = StatusScheduled
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	var created *Appointment

	err := s.locker.WithSlotLock(ctx, req.SlotID, func(lockCtx context.Context) error {
		return s.repo.WithinTx(lockCtx, func(ctx context.Context, tx Repository) error {
			sel, err := s.validateSlotSelection(ctx, tx, req)
			if err != nil {
				return err
			}

			slotID := sel.slot.ID
			appt := &Appointment{
				PatientID:       req.PatientID,
				DoctorID:        req.DoctorID,
				SlotID:          &slotID,
				ScheduledAt:     sel.start,
				Status:          status,
				Reason:          req.Reason,
				DurationMinutes: sel.duration,
				ReminderMarker:  reminderPending,
			}
			if err := tx.InsertAppointment(ctx, appt); err != nil {
				return fmt.Errorf("insert appointment: %w", err)
			}

			if _, err := tx.SetSlotActive(ctx, slotID, false); err != nil {
				return fmt.Errorf("deactivate slot: %w", err)
			}

			note := historyNoteCreated
			if req.Reason != nil && strings.TrimSpace(*req.Reason) != "" {
				note = *req.Reason
			}
			err = upsertHistory(ctx, tx, HistoryUpsert{
				AppointmentID: appt.ID,
				PatientID:     appt.PatientID,
				Status:        appt.Status,
				ScheduledAt:   &appt.ScheduledAt,
				Description:   note,
			})
			if err != nil {
				return err
			}

			created = appt
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	if created.Status.Live() {
		s.notifyBooked(ctx, created.ID)
	}

	return created, nil
}

// validateSlotSelection runs the booking checks in order; the first failure
// wins.
func (s *Service) validateSlotSelection(ctx context.Context, tx Repository, req ReserveRequest) (*slotSelection, error) {
	slot, err := tx.GetSlotForUpdate(ctx, req.SlotID)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return nil, ErrSlotMissing
		}
		return nil, fmt.Errorf("load slot: %w", err)
	}

	if slot.DoctorID != req.DoctorID {
		return nil, ErrSlotNotOwned
	}
	if !slot.Active {
		return nil, ErrSlotAlreadyReserved
	}
	if strings.TrimSpace(slot.Date) == "" {
		return nil, ErrSlotInvalidDate
	}
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(slot.Date), s.loc)
	if err != nil {
		return nil, ErrSlotInvalidDate
	}
	if !sameDay(req.TargetDate, day) {
		return nil, ErrDateMismatch
	}

	// the active flag and the appointment rows can drift apart
	live, err := tx.CountLiveAppointmentsForSlot(ctx, slot.ID, 0)
	if err != nil {
		return nil, fmt.Errorf("check live appointments: %w", err)
	}
	if live > 0 {
		return nil, ErrSlotAlreadyReserved
	}

	startOffset, err := ParseClock(slot.StartTime)
	if err != nil {
		return nil, ErrInvalidTimeRange
	}
	endOffset, err := ParseClock(slot.EndTime)
	if err != nil {
		return nil, ErrInvalidTimeRange
	}
	if endOffset <= startOffset {
		return nil, ErrInvalidTimeRange
	}

	// wall clock, not elapsed time: DST change days keep the slot's HH:MM
	start := atClock(day, startOffset)
	if !start.After(s.now()) {
		return nil, ErrPastBooking
	}

	return &slotSelection{
		slot:     slot,
		start:    start,
		duration: int((endOffset - startOffset) / time.Minute),
	}, nil
}

func (s *Service) notifyBooked(ctx context.Context, appointmentID int64) {
	if s.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	detail, err := s.repo.GetAppointmentDetail(ctx, appointmentID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("appointment_id", appointmentID).Msg("load appointment for notification")
		return
	}
	if err := s.notifier.AppointmentBooked(ctx, *detail); err != nil {
		s.logger.Warn().Err(err).Int64("appointment_id", appointmentID).Msg("schedule appointment reminders")
	}
}
