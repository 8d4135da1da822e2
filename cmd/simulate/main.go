// Command simulate drives concurrent booking traffic against a running
// api-server and reports how often requests collide on the same slot.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/logging"
)

type simConfig struct {
	BaseURL     string
	Username    string
	Password    string
	Duration    time.Duration
	Workers     int
	BookRatio   float64
	CancelRatio float64
}

type openSlot struct {
	ID       int64  `json:"id"`
	DoctorID int64  `json:"doctor_id"`
	Date     string `json:"date"`
	Active   bool   `json:"active"`
}

type dataPool struct {
	patients []int64
	slots    []openSlot

	mu           sync.Mutex
	appointments []int64
}

func (p *dataPool) addAppointment(id int64) {
	p.mu.Lock()
	p.appointments = append(p.appointments, id)
	p.mu.Unlock()
}

func (p *dataPool) randomAppointment(rng *rand.Rand) (int64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.appointments) == 0 {
		return 0, false
	}
	return p.appointments[rng.Intn(len(p.appointments))], true
}

type opMetrics struct {
	total, success, conflict, failed int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (m *opMetrics) record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&m.total, 1)
	switch {
	case success:
		atomic.AddInt64(&m.success, 1)
	case conflict:
		atomic.AddInt64(&m.conflict, 1)
	default:
		atomic.AddInt64(&m.failed, 1)
	}
	m.mu.Lock()
	m.latencies = append(m.latencies, latency)
	m.mu.Unlock()
}

func (m *opMetrics) percentile(sorted []time.Duration, p int) time.Duration {
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

type simulator struct {
	cfg    simConfig
	pool   *dataPool
	client *http.Client
	token  string
	logger zerolog.Logger

	book, cancel, read opMetrics
}

func main() {
	_ = godotenv.Load()
	logger := logging.New(getEnv("APP_ENV", "dev"), getEnv("LOG_LEVEL", "info"), "simulate")

	cfg := simConfig{
		BaseURL:     strings.TrimRight(getEnv("SIM_API_BASE_URL", "http://localhost:8080"), "/"),
		Username:    getEnv("SIM_USERNAME", "admin"),
		Password:    getEnv("SIM_PASSWORD", "admin123"),
		Duration:    getDuration("SIM_DURATION", 30*time.Second),
		Workers:     getInt("SIM_WORKERS", 10),
		BookRatio:   getFloat("SIM_BOOKING_RATIO", 0.6),
		CancelRatio: getFloat("SIM_CANCEL_RATIO", 0.1),
	}
	if cfg.Workers <= 0 || cfg.Duration <= 0 {
		logger.Fatal().Msg("SIM_WORKERS and SIM_DURATION must be positive")
	}

	sim := &simulator{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := sim.login(ctx); err != nil {
		logger.Fatal().Err(err).Msg("login")
	}
	pool, err := sim.loadDataPool(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("load data pool")
	}
	sim.pool = pool
	logger.Info().Int("patients", len(pool.patients)).Int("slots", len(pool.slots)).Msg("data pool loaded")

	sim.run()
	sim.printReport()
}

func (s *simulator) do(ctx context.Context, method, path string, body, dst any) (int, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, s.cfg.BaseURL+path, &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if dst != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func (s *simulator) login(ctx context.Context) error {
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	status, err := s.do(ctx, http.MethodPost, "/auth/login",
		map[string]string{"username": s.cfg.Username, "password": s.cfg.Password}, &tok)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("login returned %d", status)
	}
	s.token = tok.AccessToken
	return nil
}

func (s *simulator) loadDataPool(ctx context.Context) (*dataPool, error) {
	var patients []struct {
		ID int64 `json:"id"`
	}
	if _, err := s.do(ctx, http.MethodGet, "/patients", nil, &patients); err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	var slots []openSlot
	if _, err := s.do(ctx, http.MethodGet, "/availability", nil, &slots); err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}

	pool := &dataPool{}
	for _, p := range patients {
		pool.patients = append(pool.patients, p.ID)
	}
	for _, sl := range slots {
		if sl.Active {
			pool.slots = append(pool.slots, sl)
		}
	}
	if len(pool.patients) == 0 || len(pool.slots) == 0 {
		return nil, fmt.Errorf("need patients and open slots, got %d and %d (run cmd/seed first)",
			len(pool.patients), len(pool.slots))
	}
	return pool, nil
}

func (s *simulator) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Duration)
	defer cancel()

	s.logger.Info().Dur("duration", s.cfg.Duration).Int("workers", s.cfg.Workers).Msg("starting simulation")

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
			for ctx.Err() == nil {
				r := rng.Float64()
				switch {
				case r < s.cfg.BookRatio:
					s.doBooking(ctx, rng)
				case r < s.cfg.BookRatio+s.cfg.CancelRatio:
					s.doCancel(ctx, rng)
				default:
					s.doRead(ctx, rng)
				}
			}
		}(i)
	}
	wg.Wait()
	s.logger.Info().Msg("simulation complete")
}

func (s *simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	slot := s.pool.slots[rng.Intn(len(s.pool.slots))]
	patient := s.pool.patients[rng.Intn(len(s.pool.patients))]

	var created struct {
		ID int64 `json:"id"`
	}
	start := time.Now()
	status, err := s.do(ctx, http.MethodPost, "/appointments", map[string]any{
		"patient_id": patient,
		"doctor_id":  slot.DoctorID,
		"slot_id":    slot.ID,
		"date":       slot.Date,
	}, &created)
	latency := time.Since(start)
	if ctx.Err() != nil {
		return
	}

	ok := err == nil && status == http.StatusCreated
	if ok {
		s.pool.addAppointment(created.ID)
	}
	// a taken slot is a 400 validation error, a held lock is a 409
	s.book.record(latency, ok, status == http.StatusBadRequest || status == http.StatusConflict)
}

func (s *simulator) doCancel(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.randomAppointment(rng)
	if !ok {
		return
	}
	start := time.Now()
	status, err := s.do(ctx, http.MethodPut, "/appointments/"+strconv.FormatInt(id, 10)+"/status",
		map[string]string{"status": "cancelled"}, nil)
	if ctx.Err() != nil {
		return
	}
	s.cancel.record(time.Since(start), err == nil && status == http.StatusOK, false)
}

func (s *simulator) doRead(ctx context.Context, rng *rand.Rand) {
	slot := s.pool.slots[rng.Intn(len(s.pool.slots))]
	path := "/availability?doctor_id=" + strconv.FormatInt(slot.DoctorID, 10)
	if rng.Intn(2) == 0 {
		path = "/appointments?doctor_id=" + strconv.FormatInt(slot.DoctorID, 10)
	}
	start := time.Now()
	status, err := s.do(ctx, http.MethodGet, path, nil, nil)
	if ctx.Err() != nil {
		return
	}
	s.read.record(time.Since(start), err == nil && status == http.StatusOK, false)
}

func (s *simulator) printReport() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s  Workers: %d\n\n", s.cfg.Duration, s.cfg.Workers)

	printOp("Booking", &s.book)
	printOp("Cancel", &s.cancel)
	printOp("Reads", &s.read)
}

func printOp(name string, m *opMetrics) {
	total := atomic.LoadInt64(&m.total)
	if total == 0 {
		return
	}
	m.mu.Lock()
	sorted := append([]time.Duration(nil), m.latencies...)
	m.mu.Unlock()
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}
	pct := func(n int64) float64 { return float64(n) / float64(total) * 100 }

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", m.success, pct(m.success))
	if m.conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", m.conflict, pct(m.conflict))
	}
	if m.failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", m.failed, pct(m.failed))
	}
	fmt.Printf("  Latency: avg=%s p50=%s p95=%s max=%s\n\n",
		(sum / time.Duration(len(sorted))).Round(time.Millisecond),
		m.percentile(sorted, 50).Round(time.Millisecond),
		m.percentile(sorted, 95).Round(time.Millisecond),
		sorted[len(sorted)-1].Round(time.Millisecond))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return def
}

func getInt(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return def
}
