package appointment

import (
	"context"
	"fmt"
)

type NewSlot struct {
	DoctorID  int64
	Date      string
	StartTime string
	EndTime   string
}

// CreateSlot registers an availability window. It is rejected when it
// overlaps another window of the same doctor on the same date.
func (s *Service) CreateSlot(ctx context.Context, in NewSlot) (*Slot, error) {
	day, err := ParseDate(in.Date)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}

	slot := &Slot{
		DoctorID:  in.DoctorID,
		Date:      day.Format(DateLayout),
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Active:    true,
	}

	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx Repository) error {
		existing, err := tx.ListSlotsForDoctorDate(ctx, slot.DoctorID, slot.Date)
		if err != nil {
			return fmt.Errorf("load doctor slots: %w", err)
		}

		overlaps, err := HasOverlap(existing, slot.StartTime, slot.EndTime)
		if err != nil {
			return err
		}
		if overlaps {
			return ErrSlotOverlap
		}

		if err := tx.InsertSlot(ctx, slot); err != nil {
			return fmt.Errorf("insert slot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return slot, nil
}

// ListSlots returns every slot, or the slots of one doctor, ordered by date
// then start time.
func (s *Service) ListSlots(ctx context.Context, doctorID *int64) ([]Slot, error) {
	slots, err := s.repo.ListSlots(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

func (s *Service) GetSlot(ctx context.Context, id int64) (*Slot, error) {
	slot, err := s.repo.GetSlot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	return slot, nil
}

// DeleteSlot removes the slot whatever its active flag. Appointments bound to
// it keep existing with a nil slot reference.
func (s *Service) DeleteSlot(ctx context.Context, id int64) error {
	deleted, err := s.repo.DeleteSlot(ctx, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if !deleted {
		return ErrSlotNotFound
	}
	return nil
}
