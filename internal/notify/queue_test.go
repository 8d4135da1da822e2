package notify

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

// openTestRedis connects to REDIS_URL and clears the job index. Tests using
// it are skipped without the variable.
func openTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	raw := os.Getenv("REDIS_URL")
	if raw == "" {
		t.Skip("REDIS_URL not set")
	}
	opt, err := redis.ParseURL(raw)
	require.NoError(t, err)

	client, err := redisclient.NewRedisClient(context.Background(), redisclient.Options{
		Addr:     opt.Addr,
		Username: opt.Username,
		Password: opt.Password,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Del(context.Background(), jobsKey).Err())
	return client
}

func testJob(apptID int64, fireAt time.Time) Job {
	return Job{
		ID:            uuid.NewString(),
		Kind:          KindReminder,
		AppointmentID: apptID,
		To:            "ana@example.com",
		Subject:       "s",
		Body:          "b",
		FireAt:        fireAt,
	}
}

func TestRedisQueue_DueClaimsOnlyDueJobsOnce(t *testing.T) {
	ctx := context.Background()
	client := openTestRedis(t)
	q := NewRedisQueue(client)
	now := time.Unix(1736150400, 0)

	apptID := time.Now().UnixNano()
	early := testJob(apptID, now.Add(-time.Hour))
	onTime := testJob(apptID, now)
	later := testJob(apptID, now.Add(time.Hour))
	require.NoError(t, q.Enqueue(ctx, early, onTime, later))
	t.Cleanup(func() { _, _ = q.CancelAppointment(ctx, apptID) })

	jobs, err := q.Due(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, early.ID, jobs[0].ID)
	assert.Equal(t, onTime.ID, jobs[1].ID)
	assert.Equal(t, KindReminder, jobs[0].Kind)
	assert.Equal(t, apptID, jobs[0].AppointmentID)
	assert.Equal(t, early.FireAt.Unix(), jobs[0].FireAt.Unix())

	again, err := q.Due(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, again)

	// claimed payloads and index entries are gone, the later job stays
	exists, err := client.Exists(ctx, jobKey(early.ID), jobKey(onTime.ID)).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
	members, err := client.SMembers(ctx, appointmentJobsKey(apptID)).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{later.ID}, members)
}

func TestRedisQueue_DueRespectsLimit(t *testing.T) {
	ctx := context.Background()
	client := openTestRedis(t)
	q := NewRedisQueue(client)
	now := time.Unix(1736150400, 0)

	apptID := time.Now().UnixNano()
	require.NoError(t, q.Enqueue(ctx,
		testJob(apptID, now.Add(-3*time.Minute)),
		testJob(apptID, now.Add(-2*time.Minute)),
		testJob(apptID, now.Add(-time.Minute)),
	))
	t.Cleanup(func() { _, _ = q.CancelAppointment(ctx, apptID) })

	first, err := q.Due(ctx, now, 2)
	require.NoError(t, err)
	assert.Len(t, first, 2)
	rest, err := q.Due(ctx, now, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestRedisQueue_CancelAppointment(t *testing.T) {
	ctx := context.Background()
	client := openTestRedis(t)
	q := NewRedisQueue(client)
	now := time.Unix(1736150400, 0)

	apptID := time.Now().UnixNano()
	other := testJob(apptID+1, now.Add(time.Hour))
	mine := []Job{testJob(apptID, now.Add(time.Hour)), testJob(apptID, now.Add(2*time.Hour))}
	require.NoError(t, q.Enqueue(ctx, append(mine, other)...))
	t.Cleanup(func() { _, _ = q.CancelAppointment(ctx, apptID+1) })

	removed, err := q.CancelAppointment(ctx, apptID)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	exists, err := client.Exists(ctx, appointmentJobsKey(apptID), jobKey(mine[0].ID), jobKey(mine[1].ID)).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	jobs, err := q.Due(ctx, now.Add(3*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, other.ID, jobs[0].ID)

	removed, err = q.CancelAppointment(ctx, apptID)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRedisQueue_DueReportsUnreadableJobs(t *testing.T) {
	ctx := context.Background()
	client := openTestRedis(t)
	q := NewRedisQueue(client)
	now := time.Unix(1736150400, 0)

	good := testJob(0, now.Add(-time.Minute))
	require.NoError(t, q.Enqueue(ctx, good))

	corrupt := uuid.NewString()
	require.NoError(t, client.HSet(ctx, jobKey(corrupt), "kind", "reminder", "appointment_id", "0", "fire_at", "soon").Err())
	require.NoError(t, client.ZAdd(ctx, jobsKey, redis.Z{Score: float64(now.Unix()), Member: corrupt}).Err())

	jobs, err := q.Due(ctx, now, 10)
	require.Len(t, jobs, 1)
	assert.Equal(t, good.ID, jobs[0].ID)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, []string{corrupt}, decodeErr.IDs)
	assert.Contains(t, err.Error(), "fire_at")

	exists, err := client.Exists(ctx, jobKey(corrupt)).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}
