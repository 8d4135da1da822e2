package notify

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Dispatcher delivers due jobs. Failed sends are logged and dropped.
type Dispatcher struct {
	queue     Queue
	sender    Sender
	batchSize int
	logger    zerolog.Logger
	now       func() time.Time
}

func NewDispatcher(queue Queue, sender Sender, batchSize int, logger zerolog.Logger) *Dispatcher {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Dispatcher{
		queue:     queue,
		sender:    sender,
		batchSize: batchSize,
		logger:    logger,
		now:       time.Now,
	}
}

type RunStats struct {
	Sent   int
	Failed int
}

// RunOnce drains due jobs batch by batch until none are left.
func (d *Dispatcher) RunOnce(ctx context.Context) (RunStats, error) {
	var stats RunStats
	for {
		jobs, dueErr := d.queue.Due(ctx, d.now(), d.batchSize)

		for _, job := range jobs {
			if err := d.sender.Send(ctx, job.To, job.Subject, job.Body); err != nil {
				stats.Failed++
				d.logger.Error().
					Err(err).
					Str("job_id", job.ID).
					Str("kind", string(job.Kind)).
					Int64("appointment_id", job.AppointmentID).
					Msg("notification send failed")
				continue
			}
			stats.Sent++
			d.logger.Debug().
				Str("job_id", job.ID).
				Str("kind", string(job.Kind)).
				Msg("notification sent")
		}

		var decodeErr *DecodeError
		if errors.As(dueErr, &decodeErr) {
			stats.Failed += len(decodeErr.IDs)
			d.logger.Error().
				Err(decodeErr).
				Strs("job_ids", decodeErr.IDs).
				Msg("dropped unreadable notification jobs")
		}
		if dueErr != nil && dueErr != error(decodeErr) {
			return stats, dueErr
		}

		if len(jobs)+countIDs(decodeErr) < d.batchSize || ctx.Err() != nil {
			return stats, ctx.Err()
		}
	}
}

func countIDs(e *DecodeError) int {
	if e == nil {
		return 0
	}
	return len(e.IDs)
}
