package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hrygo/remindbot/store"
)

// RecoveryConfig holds configuration for the recovery sweep.
type RecoveryConfig struct {
	Schedule  string        // cron spec, e.g. "@every 1m"
	LookAhead time.Duration // Unsent reminders due within this window are enqueued
	Location  *time.Location
}

// Recovery periodically re-enqueues unsent reminders so jobs lost with
// an in-process queue, or skipped while the user was blocked, are
// delivered. Job keys make repeated sweeps idempotent.
type Recovery struct {
	reminders *Service
	users     *UserService
	config    RecoveryConfig
	cron      *cron.Cron
	mu        sync.Mutex
	logger    *slog.Logger
}

func NewRecovery(reminders *Service, users *UserService, config RecoveryConfig) *Recovery {
	if config.Schedule == "" {
		config.Schedule = "@every 1m"
	}
	if config.LookAhead <= 0 {
		config.LookAhead = 2 * time.Minute
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &Recovery{
		reminders: reminders,
		users:     users,
		config:    config,
		logger:    slog.Default(),
	}
}

// Start runs one sweep immediately and then on the configured schedule.
func (r *Recovery) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron != nil {
		return nil
	}

	c := cron.New(cron.WithLocation(r.config.Location))
	if _, err := c.AddFunc(r.config.Schedule, func() { r.sweepAndLog(ctx) }); err != nil {
		return fmt.Errorf("invalid recovery schedule %q: %w", r.config.Schedule, err)
	}

	r.sweepAndLog(ctx)
	c.Start()
	r.cron = c
	r.logger.Info("reminder recovery started", "schedule", r.config.Schedule, "look_ahead", r.config.LookAhead)
	return nil
}

// Stop halts the schedule and waits for a running sweep.
func (r *Recovery) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	r.logger.Info("reminder recovery stopped")
}

func (r *Recovery) sweepAndLog(ctx context.Context) {
	n, err := r.Sweep(ctx)
	if err != nil {
		r.logger.Error("recovery sweep failed", "error", err)
		return
	}
	if n > 0 {
		r.logger.Info("recovered reminders", "count", n)
	}
}

// Sweep enqueues every unsent reminder of an unblocked user due within
// the look-ahead window and returns how many it enqueued.
func (r *Recovery) Sweep(ctx context.Context) (int, error) {
	before := r.reminders.clock.Now().Add(r.config.LookAhead).Unix()
	isSent := false
	pending, err := r.reminders.store.ListReminders(ctx, &store.FindReminder{IsSent: &isSent, RemindTsBefore: &before})
	if err != nil {
		return 0, fmt.Errorf("list due reminders: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	users, err := r.users.UsersByID(ctx)
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for _, reminder := range pending {
		user, ok := users[reminder.UserID]
		if !ok || user.IsBlocked {
			continue
		}
		_, added, err := r.reminders.schedule(ctx, reminder, user.TelegramID)
		if err != nil {
			return enqueued, err
		}
		if added {
			enqueued++
		}
	}
	return enqueued, nil
}
