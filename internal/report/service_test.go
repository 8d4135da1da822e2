package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
)

type stubRepo struct {
	Repository
	counts []StatusCount
	gotBy  *Range
}

func (s *stubRepo) StatusCounts(context.Context, Range) ([]StatusCount, error) {
	return s.counts, nil
}

func (s *stubRepo) CountBySpecialty(_ context.Context, r *Range) ([]SpecialtyCount, error) {
	s.gotBy = r
	return []SpecialtyCount{{Specialty: "Cardiology", Total: 2}}, nil
}

func TestSummarize(t *testing.T) {
	got := Summarize([]StatusCount{
		{Status: appointment.StatusCompleted, Total: 4},
		{Status: appointment.StatusAbsent, Total: 1},
		{Status: appointment.StatusCancelled, Total: 2},
		{Status: appointment.StatusScheduled, Total: 3},
	})

	assert.Equal(t, 4, got.Attended)
	assert.Equal(t, 3, got.Missed)
	assert.Equal(t, 3, got.ByStatus[appointment.StatusScheduled])
	assert.Len(t, got.ByStatus, 4)
}

func TestSummarize_Empty(t *testing.T) {
	got := Summarize(nil)
	assert.Zero(t, got.Attended)
	assert.Zero(t, got.Missed)
	assert.NotNil(t, got.ByStatus)
}

func TestService_Attendance(t *testing.T) {
	svc := NewService(&stubRepo{counts: []StatusCount{{Status: appointment.StatusCompleted, Total: 2}}})
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)

	a, err := svc.Attendance(context.Background(), Range{From: from, To: from.AddDate(0, 1, 0)})
	require.NoError(t, err)
	assert.Equal(t, 2, a.Attended)

	_, err = svc.Attendance(context.Background(), Range{From: from, To: from.Add(-time.Hour)})
	assert.True(t, apperr.IsValidation(err))
}

func TestService_CountBySpecialtyWithoutRange(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	out, err := svc.CountBySpecialty(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, repo.gotBy)
	assert.Equal(t, "Cardiology", out[0].Specialty)
}

func TestRangeContainsBounds(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)
	to := time.Date(2025, 1, 31, 23, 59, 0, 0, time.Local)
	r := Range{From: from, To: to}

	assert.True(t, r.Contains(from))
	assert.True(t, r.Contains(to))
	assert.False(t, r.Contains(to.Add(time.Minute)))
}
