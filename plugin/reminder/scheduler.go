package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Scheduler pops due jobs off the queue and hands them to the worker.
type Scheduler struct {
	queue         Queue
	worker        *Worker
	clock         clockwork.Clock
	interval      time.Duration
	batchSize     int
	running       bool
	stopCh        chan struct{}
	wg            sync.WaitGroup
	mu            sync.Mutex
	logger        *slog.Logger
	processedChan chan int // For testing: reports processed count
}

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	Interval  time.Duration // How often to poll the queue
	BatchSize int           // Max jobs to deliver per cycle
}

// DefaultSchedulerConfig returns default scheduler configuration.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval:  time.Second,
		BatchSize: 100,
	}
}

// NewScheduler creates a new delivery scheduler.
func NewScheduler(queue Queue, worker *Worker, config SchedulerConfig) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}

	return &Scheduler{
		queue:     queue,
		worker:    worker,
		clock:     worker.clock,
		interval:  config.Interval,
		batchSize: config.BatchSize,
		stopCh:    make(chan struct{}),
		logger:    slog.Default(),
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("delivery scheduler started", "interval", s.interval)
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("delivery scheduler stopped")
}

// IsRunning returns whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// EnableTestMode enables test mode with a channel for processed counts.
func (s *Scheduler) EnableTestMode() <-chan int {
	s.processedChan = make(chan int, 100)
	return s.processedChan
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	s.processCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler context cancelled")
			return
		case <-s.stopCh:
			return
		case <-ticker.Chan():
			s.processCycle(ctx)
		}
	}
}

func (s *Scheduler) processCycle(ctx context.Context) {
	sent, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Error("failed to process due jobs", "error", err)
		return
	}
	if sent > 0 {
		s.logger.Info("delivered reminders", "count", sent)
	}

	if s.processedChan != nil {
		select {
		case s.processedChan <- sent:
		default:
		}
	}
}

// RunOnce delivers every job due now and returns how many were sent.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	jobs, err := s.queue.PopDue(ctx, s.clock.Now(), s.batchSize)
	if err != nil {
		return 0, err
	}
	s.worker.metrics.RecordRun()

	sent := 0
	for _, job := range jobs {
		outcome, err := s.worker.Deliver(ctx, job)
		if err != nil {
			s.logger.Warn("delivery failed", "job_id", job.ID, "outcome", outcome.String(), "error", err)
		}
		if outcome == OutcomeSent {
			sent++
		}
	}
	return sent, nil
}

// HealthCheck provides health check for the scheduler.
type HealthCheck struct {
	scheduler  *Scheduler
	lastCheck  time.Time
	checkCount int64
	mu         sync.Mutex
}

// NewHealthCheck creates a new health check for the scheduler.
func NewHealthCheck(scheduler *Scheduler) *HealthCheck {
	return &HealthCheck{
		scheduler: scheduler,
	}
}

// Check returns the health status. A queue that cannot be read is unhealthy.
func (h *HealthCheck) Check(ctx context.Context) HealthStatus {
	h.mu.Lock()
	h.lastCheck = h.scheduler.clock.Now()
	h.checkCount++
	status := HealthStatus{
		Healthy:    h.scheduler.IsRunning(),
		LastCheck:  h.lastCheck,
		CheckCount: h.checkCount,
	}
	h.mu.Unlock()

	depth, err := h.scheduler.queue.Len(ctx)
	if err != nil {
		status.Healthy = false
		status.Error = err.Error()
		return status
	}
	status.QueueDepth = depth
	return status
}

// HealthStatus represents the health of the scheduler.
type HealthStatus struct {
	Healthy    bool      `json:"healthy"`
	LastCheck  time.Time `json:"last_check"`
	CheckCount int64     `json:"check_count"`
	QueueDepth int       `json:"queue_depth"`
	Error      string    `json:"error,omitempty"`
}

// Stats holds delivery statistics.
type Stats struct {
	TotalSent     int64     `json:"total_sent"`
	TotalSkipped  int64     `json:"total_skipped"`
	TotalRequeued int64     `json:"total_requeued"`
	TotalFailed   int64     `json:"total_failed"`
	Runs          int64     `json:"runs"`
	LastRunAt     time.Time `json:"last_run_at"`
}

// MetricsCollector collects delivery metrics.
type MetricsCollector struct {
	stats Stats
	mu    sync.RWMutex
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

func (m *MetricsCollector) RecordRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Runs++
	m.stats.LastRunAt = time.Now()
}

// RecordProcessed records delivered reminders.
func (m *MetricsCollector) RecordProcessed(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.TotalSent += int64(count)
}

func (m *MetricsCollector) RecordSkipped(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.TotalSkipped += int64(count)
}

func (m *MetricsCollector) RecordRequeued(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.TotalRequeued += int64(count)
}

// RecordFailed records jobs dropped after their last attempt.
func (m *MetricsCollector) RecordFailed(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.TotalFailed += int64(count)
}

// GetStats returns current statistics.
func (m *MetricsCollector) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}
