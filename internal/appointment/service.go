package appointment

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

// Notifier receives booked appointments. Calls are fire-and-forget: errors
// are logged, never returned to the caller of Reserve.
type Notifier interface {
	AppointmentBooked(ctx context.Context, detail AppointmentDetail) error
}

type Service struct {
	repo     Repository
	locker   redisclient.Locker
	notifier Notifier
	logger   zerolog.Logger
	now      func() time.Time
	loc      *time.Location
}

type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone slot dates and times are read in. Defaults to
// time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(repo Repository, locker redisclient.Locker, opts ...Option) *Service {
	if locker == nil {
		locker = redisclient.NopLocker{}
	}
	s := &Service{
		repo:   repo,
		locker: locker,
		logger: zerolog.Nop(),
		now:    time.Now,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
