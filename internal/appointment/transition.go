package appointment

import (
	"context"
	"errors"
	"fmt"
)

// Transition moves an appointment to status. Any status may follow any
// other; only the slot bookkeeping depends on the pair:
//
//	live -> cancelled   the slot is released (active again)
//	cancelled -> live   the slot is claimed back (inactive)
//
// The claim back is refused with ErrSlotAlreadyReserved while another live
// appointment holds the slot. The status is therefore not updated
// unconditionally: a slot never carries two live reservations, at the cost of
// a cancelled appointment sometimes not being reopenable.
//
// The history entry is refreshed on every call, self-transitions included.
func (s *Service) Transition(ctx context.Context, id int64, status Status) (*Appointment, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	var updated *Appointment

	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx Repository) error {
		current, err := tx.GetAppointmentForUpdate(ctx, id)
		if err != nil {
			return err
		}
		previous := current.Status

		if current.SlotID != nil && !previous.Live() && status.Live() {
			// someone may have booked the released slot in the meantime
			others, err := tx.CountLiveAppointmentsForSlot(ctx, *current.SlotID, current.ID)
			if err != nil {
				return fmt.Errorf("check live appointments: %w", err)
			}
			if others > 0 {
				return ErrSlotAlreadyReserved
			}
		}

		ok, err := tx.UpdateAppointmentStatus(ctx, current.ID, status)
		if err != nil {
			return fmt.Errorf("update appointment status: %w", err)
		}
		if !ok {
			return ErrAppointmentNotFound
		}

		if current.SlotID != nil {
			switch {
			case previous.Live() && !status.Live():
				if _, err := tx.SetSlotActive(ctx, *current.SlotID, true); err != nil {
					return fmt.Errorf("release slot: %w", err)
				}
			case !previous.Live() && status.Live():
				if _, err := tx.SetSlotActive(ctx, *current.SlotID, false); err != nil {
					return fmt.Errorf("claim slot: %w", err)
				}
			}
		}

		scheduledAt := current.ScheduledAt
		err = upsertHistory(ctx, tx, HistoryUpsert{
			AppointmentID: current.ID,
			PatientID:     current.PatientID,
			Status:        status,
			ScheduledAt:   &scheduledAt,
			Description:   fmt.Sprintf(historyNoteStatusFmt, status),
		})
		if err != nil {
			return err
		}

		current.Status = status
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *Service) GetAppointment(ctx context.Context, id int64) (*AppointmentDetail, error) {
	detail, err := s.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return detail, nil
}

// ListAppointments returns appointments ordered by scheduled time, optionally
// for one doctor.
func (s *Service) ListAppointments(ctx context.Context, doctorID *int64) ([]AppointmentView, error) {
	appts, err := s.repo.ListAppointments(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}
