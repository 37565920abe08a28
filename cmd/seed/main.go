package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-appointment-scheduling/internal/appointment"
	"github.com/hackgods/hospital-appointment-scheduling/internal/config"
	"github.com/hackgods/hospital-appointment-scheduling/internal/db"
	"github.com/hackgods/hospital-appointment-scheduling/internal/logging"
	"github.com/hackgods/hospital-appointment-scheduling/internal/patient"
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

type seedConfig struct {
	Doctors      int
	Patients     int
	Days         int
	DemoPassword string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.IsDev()).With().Str("service", "seed").Logger()
	sc := seedConfig{
		Doctors:      getInt("SEED_DOCTORS", 100),
		Patients:     getInt("SEED_PATIENTS", 9000),
		Days:         getInt("SEED_SLOT_DAYS", 14),
		DemoPassword: getEnv("SEED_DEMO_PASSWORD", "password123"),
	}
	logger.Info().Int("doctors", sc.Doctors).Int("patients", sc.Patients).Int("slot_days", sc.Days).Msg("seed starting")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if _, err := db.NewMigrator(pool, logger).Up(ctx); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}

	faker := gofakeit.New(uint64(time.Now().UnixNano()))

	if err := seedDoctors(ctx, pool, faker, logger, sc); err != nil {
		logger.Fatal().Err(err).Msg("seed doctors")
	}

	// one hash for every demo patient; bcrypt per row would dominate the run
	hash, err := patient.NewPasswordHasher(0).Hash(sc.DemoPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("hash demo password")
	}
	if err := seedPatients(ctx, pool, faker, logger, sc.Patients, hash); err != nil {
		logger.Fatal().Err(err).Msg("seed patients")
	}

	logger.Info().Msg("seed complete")
}

// slotCatalog returns hourly instants from startHour (inclusive) to endHour
// (exclusive) on each of the next days, starting the day after from.
func slotCatalog(from time.Time, days, startHour, endHour int) []time.Time {
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	slots := make([]time.Time, 0, days*(endHour-startHour))
	for d := 1; d <= days; d++ {
		base := day.AddDate(0, 0, d)
		if wd := base.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		for h := startHour; h < endHour; h++ {
			slots = append(slots, base.Add(time.Duration(h)*time.Hour))
		}
	}
	return appointment.DedupeSlots(slots)
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, faker *gofakeit.Faker, log zerolog.Logger, sc seedConfig) error {
	log.Info().Int("count", sc.Doctors).Msg("seeding doctors")

	now := time.Now()

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for i := 0; i < sc.Doctors; i++ {
			startHour := faker.Number(7, 10)
			slots := slotCatalog(now, sc.Days, startHour, startHour+faker.Number(4, 8))
			// roughly one in ten doctors starts inactive
			active := faker.Number(1, 10) != 1

			_, err := tx.Exec(ctx, `
				INSERT INTO doctors (id, name, specialty, available_slots, is_active, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, now(), now())
			`, uuid.New(), "Dr. "+faker.Name(), specialties[faker.Number(0, len(specialties)-1)], slots, active)
			if err != nil {
				return err
			}
		}
		log.Info().Msg("doctors seeded")
		return nil
	})
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, faker *gofakeit.Faker, log zerolog.Logger, count int, passwordHash string) error {
	log.Info().Int("count", count).Msg("seeding patients")

	const batchSize = 500

	inserted := 0
	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		batch := &pgx.Batch{}
		for i := offset; i < end; i++ {
			birth := faker.DateRange(time.Now().AddDate(-90, 0, 0), time.Now().AddDate(-1, 0, 0))
			phone := faker.Phone()
			batch.Queue(`
				INSERT INTO patients (id, name, email, phone, birth_date, password_hash, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, now(), now())
				ON CONFLICT DO NOTHING
			`, uuid.New(), faker.Name(), demoEmail(faker, i), phone, birth, passwordHash)
		}

		err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			results := tx.SendBatch(ctx, batch)
			for i := offset; i < end; i++ {
				tag, err := results.Exec()
				if err != nil {
					results.Close()
					return err
				}
				inserted += int(tag.RowsAffected())
			}
			return results.Close()
		})
		if err != nil {
			return err
		}

		log.Debug().Int("done", end).Int("total", count).Msg("patients batch committed")
	}

	log.Info().Int("inserted", inserted).Msg("patients seeded")
	return nil
}

// demoEmail suffixes the faker address with the row index so emails stay unique.
func demoEmail(faker *gofakeit.Faker, i int) string {
	local, domain, ok := strings.Cut(faker.Email(), "@")
	if !ok {
		return fmt.Sprintf("patient%d@example.com", i)
	}
	return strings.ToLower(fmt.Sprintf("%s.%d@%s", local, i, domain))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
