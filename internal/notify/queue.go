package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type Kind string

const (
	KindConfirmation Kind = "confirmation"
	KindReminder     Kind = "reminder"
	KindPrescription Kind = "prescription"
)

// Job is a rendered email waiting for its fire time.
type Job struct {
	ID            string
	Kind          Kind
	AppointmentID int64 // 0 when not tied to an appointment
	To            string
	Subject       string
	Body          string
	FireAt        time.Time
}

type Queue interface {
	Enqueue(ctx context.Context, jobs ...Job) error
	// Due claims up to limit jobs whose fire time is not after now. A claimed
	// job is gone from the queue, so the returned jobs must be delivered even
	// when an error comes with them.
	Due(ctx context.Context, now time.Time, limit int) ([]Job, error)
	// CancelAppointment drops pending jobs of the appointment and reports how
	// many were removed.
	CancelAppointment(ctx context.Context, appointmentID int64) (int, error)
}

const jobsKey = "notify:jobs"

func jobKey(id string) string {
	return "notify:job:" + id
}

func appointmentJobsKey(appointmentID int64) string {
	return fmt.Sprintf("notify:appointment:%d", appointmentID)
}

// RedisQueue keeps job ids in a sorted set scored by fire time (unix
// seconds), payloads in one hash per job and an id set per appointment.
type RedisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Enqueue(ctx context.Context, jobs ...Job) error {
	if len(jobs) == 0 {
		return nil
	}
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, j := range jobs {
			pipe.HSet(ctx, jobKey(j.ID), map[string]any{
				"kind":           string(j.Kind),
				"appointment_id": j.AppointmentID,
				"to":             j.To,
				"subject":        j.Subject,
				"body":           j.Body,
				"fire_at":        j.FireAt.Unix(),
			})
			pipe.ZAdd(ctx, jobsKey, redis.Z{Score: float64(j.FireAt.Unix()), Member: j.ID})
			if j.AppointmentID != 0 {
				pipe.SAdd(ctx, appointmentJobsKey(j.AppointmentID), j.ID)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("enqueue notification jobs: %w", err)
	}
	return nil
}

func (q *RedisQueue) Due(ctx context.Context, now time.Time, limit int) ([]Job, error) {
	ids, err := q.client.ZRangeArgs(ctx, redis.ZRangeArgs{
		Key:     jobsKey,
		Start:   "-inf",
		Stop:    strconv.FormatInt(now.Unix(), 10),
		ByScore: true,
		Count:   int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list due jobs: %w", err)
	}

	var (
		jobs []Job
		bad  DecodeError
	)
	for _, id := range ids {
		// ZREM decides which worker owns the job
		removed, err := q.client.ZRem(ctx, jobsKey, id).Result()
		if err != nil {
			return jobs, fmt.Errorf("claim job %s: %w", id, err)
		}
		if removed == 0 {
			continue
		}

		fields, err := q.client.HGetAll(ctx, jobKey(id)).Result()
		if err != nil {
			return jobs, fmt.Errorf("load job %s: %w", id, err)
		}

		job, decodeErr := decodeJob(id, fields)
		cleanupErr := q.client.Del(ctx, jobKey(id)).Err()
		if decodeErr != nil {
			bad.add(id, decodeErr)
		} else {
			if cleanupErr == nil && job.AppointmentID != 0 {
				cleanupErr = q.client.SRem(ctx, appointmentJobsKey(job.AppointmentID), id).Err()
			}
			jobs = append(jobs, job)
		}
		if cleanupErr != nil {
			return jobs, errors.Join(fmt.Errorf("clean up job %s: %w", id, cleanupErr), bad.orNil())
		}
	}
	return jobs, bad.orNil()
}

func (q *RedisQueue) CancelAppointment(ctx context.Context, appointmentID int64) (int, error) {
	key := appointmentJobsKey(appointmentID)
	ids, err := q.client.SMembers(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("list appointment jobs: %w", err)
	}

	removed := 0
	for _, id := range ids {
		n, err := q.client.ZRem(ctx, jobsKey, id).Result()
		if err != nil {
			return removed, fmt.Errorf("remove job %s: %w", id, err)
		}
		q.client.Del(ctx, jobKey(id))
		removed += int(n)
	}
	if err := q.client.Del(ctx, key).Err(); err != nil {
		return removed, fmt.Errorf("drop appointment index: %w", err)
	}
	return removed, nil
}

var errEmptyJob = errors.New("job payload missing")

// DecodeError lists claimed jobs whose payload could not be read. They are
// already gone from the queue; the other jobs of the batch are returned
// alongside it.
type DecodeError struct {
	IDs  []string
	errs []error
}

func (e *DecodeError) add(id string, err error) {
	e.IDs = append(e.IDs, id)
	e.errs = append(e.errs, fmt.Errorf("job %s: %w", id, err))
}

func (e *DecodeError) orNil() error {
	if len(e.IDs) == 0 {
		return nil
	}
	return e
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %d notification jobs: %v", len(e.IDs), errors.Join(e.errs...))
}

func (e *DecodeError) Unwrap() []error {
	return e.errs
}

func decodeJob(id string, fields map[string]string) (Job, error) {
	if len(fields) == 0 {
		return Job{}, errEmptyJob
	}
	apptID, err := strconv.ParseInt(fields["appointment_id"], 10, 64)
	if err != nil {
		return Job{}, fmt.Errorf("appointment_id: %w", err)
	}
	fireAt, err := strconv.ParseInt(fields["fire_at"], 10, 64)
	if err != nil {
		return Job{}, fmt.Errorf("fire_at: %w", err)
	}
	return Job{
		ID:            id,
		Kind:          Kind(fields["kind"]),
		AppointmentID: apptID,
		To:            fields["to"],
		Subject:       fields["subject"],
		Body:          fields["body"],
		FireAt:        time.Unix(fireAt, 0),
	}, nil
}

var _ Queue = (*RedisQueue)(nil)
