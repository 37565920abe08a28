package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-appointment-scheduling/internal/config"
	"github.com/hackgods/hospital-appointment-scheduling/internal/db"
	"github.com/hackgods/hospital-appointment-scheduling/internal/logging"
)

type SimConfig struct {
	APIBaseURL      string
	Duration        time.Duration
	Workers         int
	BookingRatio    float64
	RescheduleRatio float64
	CancelRatio     float64
	ConfirmRatio    float64
	ReadRatio       float64
	PatientLimit    int
	DoctorLimit     int
	PostgresDSN     string
}

type doctorSlots struct {
	ID    uuid.UUID
	Slots []time.Time
}

type DataPool struct {
	Patients     []uuid.UUID
	Doctors      []doctorSlots
	mu           sync.RWMutex
	appointments []uuid.UUID
}

func (dp *DataPool) AddAppointment(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) GetRandomAppointment(rng *rand.Rand) (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return uuid.Nil, false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
}

// randomSlot picks a doctor and one of its catalog instants. Workers share the
// same small catalog, so concurrent bookings collide on purpose.
func (dp *DataPool) randomSlot(rng *rand.Rand) (uuid.UUID, time.Time, bool) {
	d := dp.Doctors[rng.Intn(len(dp.Doctors))]
	if len(d.Slots) == 0 {
		return uuid.Nil, time.Time{}, false
	}
	return d.ID, d.Slots[rng.Intn(len(d.Slots))], true
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
	log     zerolog.Logger
}

func main() {
	baseCfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(baseCfg.LogLevel, baseCfg.IsDev()).With().Str("service", "simulate").Logger()

	cfg := loadConfig(baseCfg)
	if err := validateConfig(cfg); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	logger.Info().
		Dur("duration", cfg.Duration).
		Int("workers", cfg.Workers).
		Float64("booking", cfg.BookingRatio).
		Float64("reschedule", cfg.RescheduleRatio).
		Float64("cancel", cfg.CancelRatio).
		Float64("confirm", cfg.ConfirmRatio).
		Float64("read", cfg.ReadRatio).
		Msg("simulator starting")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, 2)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("load data pool")
	}

	logger.Info().Int("patients", len(dataPool.Patients)).Int("doctors", len(dataPool.Doctors)).Msg("data pool loaded")

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    logger,
	}

	sim.Run()
	sim.PrintReport()

	doubles, err := countDoubleBookings(context.Background(), pgPool)
	if err != nil {
		logger.Error().Err(err).Msg("double booking check failed")
		os.Exit(1)
	}
	fmt.Printf("Double-booked slots: %d\n", doubles)
	if doubles > 0 {
		os.Exit(1)
	}
}

func loadConfig(base config.Config) SimConfig {
	cfg := SimConfig{
		APIBaseURL:      getEnv("SIM_API_BASE_URL", "http://localhost:"+base.HTTPPort),
		Duration:        getDuration("SIM_DURATION", 30*time.Second),
		Workers:         getInt("SIM_WORKERS", 10),
		BookingRatio:    getFloat("SIM_BOOKING_RATIO", 0.45),
		RescheduleRatio: getFloat("SIM_RESCHEDULE_RATIO", 0.1),
		CancelRatio:     getFloat("SIM_CANCEL_RATIO", 0.1),
		ConfirmRatio:    getFloat("SIM_CONFIRM_RATIO", 0.1),
		ReadRatio:       getFloat("SIM_READ_RATIO", 0.25),
		PatientLimit:    getInt("SIM_PATIENT_LIMIT", 4000),
		DoctorLimit:     getInt("SIM_DOCTOR_LIMIT", 10),
		PostgresDSN:     base.PostgresDSN,
	}

	total := cfg.BookingRatio + cfg.RescheduleRatio + cfg.CancelRatio + cfg.ConfirmRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.RescheduleRatio /= total
		cfg.CancelRatio /= total
		cfg.ConfirmRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}

	rows, err := pool.Query(ctx, `SELECT id FROM patients LIMIT $1`, cfg.PatientLimit)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		dataPool.Patients = append(dataPool.Patients, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}

	rows, err = pool.Query(ctx, `
		SELECT id, available_slots
		FROM doctors
		WHERE is_active
		ORDER BY created_at
		LIMIT $1
	`, cfg.DoctorLimit)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	for rows.Next() {
		var d doctorSlots
		if err := rows.Scan(&d.ID, &d.Slots); err != nil {
			rows.Close()
			return nil, err
		}
		dataPool.Doctors = append(dataPool.Doctors, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}

	if len(dataPool.Patients) == 0 {
		return nil, fmt.Errorf("no patients loaded")
	}
	if len(dataPool.Doctors) == 0 {
		return nil, fmt.Errorf("no active doctors loaded")
	}

	return dataPool, nil
}

// countDoubleBookings returns how many (doctor, instant) pairs hold more than one active appointment.
func countDoubleBookings(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	var n int
	err := pool.QueryRow(ctx, `
		SELECT count(*) FROM (
			SELECT doctor_id, scheduled_at
			FROM appointments
			WHERE status IN ('CREATED', 'CONFIRMED')
			GROUP BY doctor_id, scheduled_at
			HAVING count(*) > 1
		) d
	`).Scan(&n)
	return n, err
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.log.Info().Dur("duration", s.config.Duration).Int("workers", s.config.Workers).Msg("starting simulation")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.log.Info().Msg("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
	c := s.config

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		r := rng.Float64()
		switch {
		case r < c.BookingRatio:
			s.doBooking(ctx, rng)
		case r < c.BookingRatio+c.RescheduleRatio:
			s.doReschedule(ctx, rng)
		case r < c.BookingRatio+c.RescheduleRatio+c.CancelRatio:
			s.doAppointmentPatch(ctx, rng, "cancel", nil, &s.metrics.Cancel)
		case r < c.BookingRatio+c.RescheduleRatio+c.CancelRatio+c.ConfirmRatio:
			s.doAppointmentPatch(ctx, rng, "status", map[string]string{"status": "CONFIRMED"}, &s.metrics.Confirm)
		default:
			switch rng.Intn(3) {
			case 0:
				s.doReadByID(ctx, rng)
			case 1:
				s.doListByPatient(ctx, rng)
			case 2:
				s.doFreeSlots(ctx, rng)
			}
		}
	}
}

type apiError struct {
	Error string `json:"error"`
}

// classify maps a response to an outcome. Slot conflicts are the expected
// losers of a race; other 4xx are business rejections.
func classify(status int, body []byte) outcome {
	switch {
	case status >= 200 && status < 300:
		return outcomeSuccess
	case status == http.StatusTooManyRequests:
		return outcomeRateLimited
	case status >= 400 && status < 500:
		var e apiError
		if json.Unmarshal(body, &e) == nil && e.Error == "slot_conflict" {
			return outcomeConflict
		}
		return outcomeRejected
	default:
		return outcomeError
	}
}

func (s *Simulator) call(ctx context.Context, method, path string, payload any) (int, []byte, time.Duration, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, 0, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, body)
	if err != nil {
		return 0, nil, 0, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return 0, nil, latency, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp.StatusCode, respBody, latency, err
}

func (s *Simulator) record(om *OperationMetrics, status int, body []byte, latency time.Duration, err error) outcome {
	o := outcomeError
	if err == nil {
		o = classify(status, body)
	} else {
		s.log.Debug().Err(err).Msg("request failed")
	}
	om.Record(latency, o)
	return o
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	doctorID, at, ok := s.pool.randomSlot(rng)
	if !ok {
		return
	}
	patientID := s.pool.Patients[rng.Intn(len(s.pool.Patients))]

	status, body, latency, err := s.call(ctx, http.MethodPost, "/appointments", map[string]any{
		"doctorId":    doctorID,
		"patientId":   patientID,
		"scheduledAt": at,
	})
	if ctx.Err() != nil {
		return
	}

	if s.record(&s.metrics.Booking, status, body, latency, err) == outcomeSuccess {
		var resp struct {
			Appointment struct {
				ID uuid.UUID `json:"id"`
			} `json:"appointment"`
		}
		if json.Unmarshal(body, &resp) == nil && resp.Appointment.ID != uuid.Nil {
			s.pool.AddAppointment(resp.Appointment.ID)
		}
	}
}

func (s *Simulator) doReschedule(ctx context.Context, rng *rand.Rand) {
	apptID, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}
	_, at, ok := s.pool.randomSlot(rng)
	if !ok {
		return
	}

	status, body, latency, err := s.call(ctx, http.MethodPatch,
		fmt.Sprintf("/appointments/%s/reschedule", apptID), map[string]any{"newScheduledAt": at})
	if ctx.Err() != nil {
		return
	}
	s.record(&s.metrics.Reschedule, status, body, latency, err)
}

func (s *Simulator) doAppointmentPatch(ctx context.Context, rng *rand.Rand, action string, payload any, om *OperationMetrics) {
	apptID, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}

	status, body, latency, err := s.call(ctx, http.MethodPatch, fmt.Sprintf("/appointments/%s/%s", apptID, action), payload)
	if ctx.Err() != nil {
		return
	}
	s.record(om, status, body, latency, err)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	apptID, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}

	status, body, latency, err := s.call(ctx, http.MethodGet, "/appointments/"+apptID.String(), nil)
	if ctx.Err() != nil {
		return
	}
	s.record(&s.metrics.ReadByID, status, body, latency, err)
}

func (s *Simulator) doListByPatient(ctx context.Context, rng *rand.Rand) {
	patientID := s.pool.Patients[rng.Intn(len(s.pool.Patients))]

	status, body, latency, err := s.call(ctx, http.MethodGet,
		fmt.Sprintf("/appointments?patientId=%s&limit=20&page=1", patientID), nil)
	if ctx.Err() != nil {
		return
	}
	s.record(&s.metrics.ListByPatient, status, body, latency, err)
}

func (s *Simulator) doFreeSlots(ctx context.Context, rng *rand.Rand) {
	d := s.pool.Doctors[rng.Intn(len(s.pool.Doctors))]

	status, body, latency, err := s.call(ctx, http.MethodGet, fmt.Sprintf("/doctors/%s/slots", d.ID), nil)
	if ctx.Err() != nil {
		return
	}
	s.record(&s.metrics.FreeSlots, status, body, latency, err)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Reschedule", &s.metrics.Reschedule)
	printOperationReport("Cancel", &s.metrics.Cancel)
	printOperationReport("Confirm", &s.metrics.Confirm)
	printOperationReport("Read by ID", &s.metrics.ReadByID)
	printOperationReport("List by Patient", &s.metrics.ListByPatient)
	printOperationReport("Free slots", &s.metrics.FreeSlots)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
