package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/auth"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/logging"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

const (
	doctorCount    = 30
	patientCount   = 500
	slotDays       = 14
	slotsPerDay    = 8
	slotLength     = 30 * time.Minute
	firstSlotStart = 9 * time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("dev", "info", "seed")
		bootLogger.Fatal().Err(err).Msg("config load error")
	}
	logger := logging.New(cfg.Env, cfg.LogLevel, "seed")
	logger.Info().Msg("seed starting")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := db.Open(ctx, db.Options{DSN: cfg.PostgresDSN, MaxConns: cfg.DBMaxConns})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer store.Close()

	if _, err := db.NewMigrator(store).Up(ctx); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	faker := gofakeit.New(uint64(time.Now().UnixNano()))

	clinicSvc := clinic.NewService(clinic.NewPgRepository(store))
	appts := appointment.NewService(appointment.NewPgRepository(store), redisclient.NopLocker{})

	if err := seedAdmin(ctx, store, logger); err != nil {
		logger.Fatal().Err(err).Msg("seed admin")
	}
	doctors, err := seedDoctors(ctx, clinicSvc, faker, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed doctors")
	}
	if err := seedPatients(ctx, clinicSvc, faker, logger); err != nil {
		logger.Fatal().Err(err).Msg("seed patients")
	}
	if err := seedSlots(ctx, appts, doctors, logger); err != nil {
		logger.Fatal().Err(err).Msg("seed availability")
	}

	logger.Info().Msg("seed complete")
}

func seedAdmin(ctx context.Context, store *db.Store, logger zerolog.Logger) error {
	svc := auth.NewService(auth.NewPgAdminRepository(store), nil)
	_, err := svc.CreateAdmin(ctx, "admin", "admin123")
	if errors.Is(err, apperr.ErrConflict) {
		logger.Info().Msg("admin already present")
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info().Str("username", "admin").Msg("admin created")
	return nil
}

func seedDoctors(ctx context.Context, svc *clinic.Service, faker *gofakeit.Faker, logger zerolog.Logger) ([]int64, error) {
	existing, err := svc.ListSpecialties(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(existing))
	for _, s := range existing {
		ids[s.Name] = s.ID
	}
	for _, name := range specialties {
		if _, ok := ids[name]; ok {
			continue
		}
		s, err := svc.CreateSpecialty(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("specialty %s: %w", name, err)
		}
		ids[name] = s.ID
	}

	doctors := make([]int64, 0, doctorCount)
	for i := 0; i < doctorCount; i++ {
		spec := specialties[faker.Number(0, len(specialties)-1)]
		d, err := svc.CreateDoctor(ctx, clinic.Doctor{
			FirstName:   faker.FirstName(),
			LastName:    faker.LastName(),
			SpecialtyID: ids[spec],
			Email:       faker.Email(),
		})
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, d.ID)
	}
	logger.Info().Int("count", len(doctors)).Msg("doctors seeded")
	return doctors, nil
}

func seedPatients(ctx context.Context, svc *clinic.Service, faker *gofakeit.Faker, logger zerolog.Logger) error {
	created := 0
	for i := 0; i < patientCount; i++ {
		_, err := svc.CreatePatient(ctx, clinic.Patient{
			DNI:       faker.Numerify("########"),
			FirstName: faker.FirstName(),
			LastName:  faker.LastName(),
			Email:     faker.Email(),
		})
		if errors.Is(err, apperr.ErrConflict) {
			continue
		}
		if err != nil {
			return err
		}
		created++
		if created%100 == 0 {
			logger.Info().Int("seeded", created).Int("total", patientCount).Msg("patients progress")
		}
	}
	logger.Info().Int("count", created).Msg("patients seeded")
	return nil
}

// seedSlots opens back-to-back slots on the next weekdays for every doctor.
func seedSlots(ctx context.Context, svc *appointment.Service, doctors []int64, logger zerolog.Logger) error {
	today := time.Now()
	created := 0
	for d := 1; d <= slotDays; d++ {
		day := today.AddDate(0, 0, d)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		date := day.Format(appointment.DateLayout)

		for _, doctorID := range doctors {
			for n := 0; n < slotsPerDay; n++ {
				start := firstSlotStart + time.Duration(n)*slotLength
				_, err := svc.CreateSlot(ctx, appointment.NewSlot{
					DoctorID:  doctorID,
					Date:      date,
					StartTime: clock(start),
					EndTime:   clock(start + slotLength),
				})
				if errors.Is(err, appointment.ErrSlotOverlap) {
					continue
				}
				if err != nil {
					return err
				}
				created++
			}
		}
	}
	logger.Info().Int("count", created).Msg("availability seeded")
	return nil
}

func clock(offset time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(offset.Hours()), int(offset.Minutes())%60)
}
