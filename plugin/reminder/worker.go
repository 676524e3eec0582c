package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrUndeliverable marks send errors that no retry can fix, such as a
// chat that no longer exists. Notifiers wrap it.
var ErrUndeliverable = errors.New("chat is undeliverable")

// Notifier sends a due reminder to a chat.
type Notifier interface {
	SendReminder(ctx context.Context, chatID int64, reminderID int32, text string) error
}

// Outcome is what Deliver did with a job.
type Outcome int

const (
	OutcomeSent Outcome = iota
	OutcomeSkipped
	OutcomeRequeued
	OutcomeDropped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRequeued:
		return "requeued"
	case OutcomeDropped:
		return "dropped"
	}
	return "unknown"
}

// WorkerConfig holds configuration for the delivery worker.
type WorkerConfig struct {
	MaxRetries     int           // Send attempts after the first one, per delivery
	RetryDelay     time.Duration // Delay between send attempts
	MaxRequeues    int           // Times a failed job goes back on the queue before it is dropped
	RequeueBackoff time.Duration // Multiplied by the attempt number
}

// DefaultWorkerConfig returns default worker configuration.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		MaxRetries:     2,
		RetryDelay:     time.Second,
		MaxRequeues:    5,
		RequeueBackoff: 30 * time.Second,
	}
}

// Worker delivers reminder jobs.
type Worker struct {
	reminders *Service
	users     *UserService
	notifier  Notifier
	metrics   *MetricsCollector
	clock     clockwork.Clock
	config    WorkerConfig
	logger    *slog.Logger
}

// NewWorker creates a new delivery worker. metrics may be nil.
func NewWorker(reminders *Service, users *UserService, notifier Notifier, metrics *MetricsCollector, config WorkerConfig) *Worker {
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RequeueBackoff <= 0 {
		config.RequeueBackoff = 30 * time.Second
	}
	if metrics == nil {
		metrics = NewMetricsCollector()
	}
	return &Worker{
		reminders: reminders,
		users:     users,
		notifier:  notifier,
		metrics:   metrics,
		clock:     reminders.clock,
		config:    config,
		logger:    slog.Default(),
	}
}

// Metrics returns the collector the worker records into.
func (w *Worker) Metrics() *MetricsCollector {
	return w.metrics
}

// Deliver sends one job. Jobs for blocked users, missing or already sent
// reminders, and reminders moved past the job's due time are skipped.
func (w *Worker) Deliver(ctx context.Context, job *Job) (Outcome, error) {
	logger := w.logger.With("job_id", job.ID, "reminder_id", job.ReminderID, "chat_id", job.ChatID)

	blocked, _, err := w.users.IsBlocked(ctx, job.ChatID)
	if err != nil {
		return w.requeue(ctx, job, err)
	}
	if blocked {
		logger.Debug("skipping reminder for blocked user")
		w.metrics.RecordSkipped(1)
		return OutcomeSkipped, nil
	}

	reminder, err := w.reminders.Get(ctx, job.ReminderID)
	if errors.Is(err, ErrReminderNotFound) {
		logger.Debug("skipping deleted reminder")
		w.metrics.RecordSkipped(1)
		return OutcomeSkipped, nil
	}
	if err != nil {
		return w.requeue(ctx, job, err)
	}
	if reminder.IsSent || reminder.RemindTs > job.DueTs {
		logger.Debug("skipping stale job", "is_sent", reminder.IsSent, "remind_ts", reminder.RemindTs, "due_ts", job.DueTs)
		w.metrics.RecordSkipped(1)
		return OutcomeSkipped, nil
	}

	var lastErr error
	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			logger.Info("retrying reminder", "attempt", attempt, "max_retries", w.config.MaxRetries)
			select {
			case <-ctx.Done():
				return w.requeue(context.WithoutCancel(ctx), job, ctx.Err())
			case <-w.clock.After(w.config.RetryDelay):
			}
		}

		lastErr = w.notifier.SendReminder(ctx, job.ChatID, reminder.ID, reminder.Text)
		if lastErr == nil {
			break
		}
		logger.Warn("failed to send reminder", "attempt", attempt, "error", lastErr)
		if errors.Is(lastErr, ErrUndeliverable) {
			return w.drop(ctx, job, lastErr)
		}
	}
	if lastErr != nil {
		return w.requeue(ctx, job, lastErr)
	}

	if err := w.reminders.MarkSent(ctx, reminder.ID); err != nil {
		// Already delivered; a retry would send it twice.
		logger.Error("failed to mark reminder sent", "error", err)
	}
	w.metrics.RecordProcessed(1)
	logger.Info("reminder delivered")
	return OutcomeSent, nil
}

func (w *Worker) requeue(ctx context.Context, job *Job, cause error) (Outcome, error) {
	job.Attempt++
	if job.Attempt > w.config.MaxRequeues {
		return w.drop(ctx, job, cause)
	}

	job.DueTs = w.clock.Now().Add(time.Duration(job.Attempt) * w.config.RequeueBackoff).Unix()
	if err := w.reminders.Queue().Enqueue(ctx, job); err != nil {
		w.metrics.RecordFailed(1)
		return OutcomeDropped, errors.Join(cause, err)
	}
	w.metrics.RecordRequeued(1)
	w.logger.Warn("reminder job requeued", "job_id", job.ID, "reminder_id", job.ReminderID, "attempt", job.Attempt, "due_ts", job.DueTs)
	return OutcomeRequeued, cause
}

// drop gives up on the job. The reminder is marked sent so the recovery
// sweep does not bring it back.
func (w *Worker) drop(ctx context.Context, job *Job, cause error) (Outcome, error) {
	w.metrics.RecordFailed(1)
	w.logger.Error("dropping reminder job", "job_id", job.ID, "reminder_id", job.ReminderID, "attempts", job.Attempt, "error", cause)
	if err := w.reminders.MarkSent(ctx, job.ReminderID); err != nil && !errors.Is(err, ErrReminderNotFound) {
		w.logger.Error("failed to close dropped reminder", "reminder_id", job.ReminderID, "error", err)
	}
	return OutcomeDropped, fmt.Errorf("deliver reminder %d: %w", job.ReminderID, cause)
}
