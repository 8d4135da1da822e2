package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

type HistoryUpsert struct {
	AppointmentID int64
	PatientID     int64
	Status        Status
	ScheduledAt   *time.Time
	Description   string
}

// upsertHistory keeps one history entry per appointment: the first event
// inserts it, later ones overwrite status, time and note in place. An empty
// description keeps the previous note.
func upsertHistory(ctx context.Context, repo Repository, in HistoryUpsert) error {
	existing, err := repo.FindHistoryByAppointment(ctx, in.AppointmentID)
	if err != nil && !errors.Is(err, ErrHistoryNotFound) {
		return fmt.Errorf("load history entry: %w", err)
	}

	note := strings.TrimSpace(in.Description)
	if note == "" {
		if existing != nil {
			note = existing.Description
		} else {
			note = historyNoteDefault
		}
	}

	if existing != nil {
		existing.Status = in.Status
		existing.ScheduledAt = in.ScheduledAt
		existing.Description = note
		if err := repo.UpdateHistory(ctx, existing); err != nil {
			return fmt.Errorf("update history entry: %w", err)
		}
		return nil
	}

	appointmentID := in.AppointmentID
	entry := &HistoryEntry{
		PatientID:     in.PatientID,
		AppointmentID: &appointmentID,
		Description:   note,
		Status:        in.Status,
		ScheduledAt:   in.ScheduledAt,
	}
	if err := repo.InsertHistory(ctx, entry); err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

type ManualHistory struct {
	PatientID     int64
	AppointmentID *int64
	Description   string
	// ScheduledAt is a date-time or bare date; unparseable values are dropped.
	ScheduledAt string
}

// AddHistory stores a manual note with status scheduled. When it points at an
// appointment and carries no usable timestamp, the appointment's time is used.
func (s *Service) AddHistory(ctx context.Context, in ManualHistory) (*HistoryEntry, error) {
	scheduledAt := NormalizeScheduledAt(in.ScheduledAt)

	if in.AppointmentID != nil && scheduledAt == nil {
		appt, err := s.repo.GetAppointment(ctx, *in.AppointmentID)
		switch {
		case err == nil:
			t := appt.ScheduledAt
			scheduledAt = &t
		case !errors.Is(err, ErrAppointmentNotFound):
			return nil, fmt.Errorf("load appointment: %w", err)
		}
	}

	entry := &HistoryEntry{
		PatientID:     in.PatientID,
		AppointmentID: in.AppointmentID,
		Description:   in.Description,
		Status:        StatusScheduled,
		ScheduledAt:   scheduledAt,
	}
	if err := s.repo.InsertHistory(ctx, entry); err != nil {
		return nil, fmt.Errorf("insert history entry: %w", err)
	}
	return entry, nil
}

// ListHistory returns entries newest first (scheduled time, then id), for one
// patient or for everybody.
func (s *Service) ListHistory(ctx context.Context, patientID *int64) ([]HistoryRecord, error) {
	records, err := s.repo.ListHistory(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return records, nil
}
