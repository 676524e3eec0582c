// Package reminder stores, schedules and delivers user reminders.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hrygo/remindbot/store"
)

var (
	// ErrReminderNotFound is returned when a reminder does not exist or
	// belongs to another user.
	ErrReminderNotFound = errors.New("reminder not found")
	// ErrEmptyText is returned when a reminder has no text to deliver.
	ErrEmptyText = errors.New("reminder text is empty")
)

// ReminderStore defines the storage the reminder service needs.
// *store.Store satisfies it.
type ReminderStore interface {
	CreateReminder(ctx context.Context, create *store.Reminder) (*store.Reminder, error)
	ListReminders(ctx context.Context, find *store.FindReminder) ([]*store.Reminder, error)
	GetReminder(ctx context.Context, find *store.FindReminder) (*store.Reminder, error)
	UpdateReminder(ctx context.Context, update *store.UpdateReminder) (*store.Reminder, error)
	DeleteReminder(ctx context.Context, delete *store.DeleteReminder) error
}

// Service provides reminder management functionality.
type Service struct {
	store ReminderStore
	queue Queue
	clock clockwork.Clock
}

// NewService creates a new reminder service. A nil clock uses the real one.
func NewService(store ReminderStore, queue Queue, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		store: store,
		queue: queue,
		clock: clock,
	}
}

// Queue returns the delivery queue jobs are scheduled on.
func (s *Service) Queue() Queue {
	return s.queue
}

// Create stores a new unsent reminder for userID due at at.
func (s *Service) Create(ctx context.Context, userID int32, text string, at time.Time) (*store.Reminder, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	reminder, err := s.store.CreateReminder(ctx, &store.Reminder{
		UserID:   userID,
		Text:     text,
		RemindTs: at.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	return reminder, nil
}

// ListPending returns the user's unsent reminders ordered by time.
func (s *Service) ListPending(ctx context.Context, userID int32) ([]*store.Reminder, error) {
	isSent := false
	list, err := s.store.ListReminders(ctx, &store.FindReminder{UserID: &userID, IsSent: &isSent})
	if err != nil {
		return nil, fmt.Errorf("list pending reminders: %w", err)
	}
	return list, nil
}

// ListAll returns every reminder ordered by time.
func (s *Service) ListAll(ctx context.Context) ([]*store.Reminder, error) {
	list, err := s.store.ListReminders(ctx, &store.FindReminder{})
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return list, nil
}

// Get returns the reminder with the given id.
func (s *Service) Get(ctx context.Context, id int32) (*store.Reminder, error) {
	reminder, err := s.store.GetReminder(ctx, &store.FindReminder{ID: &id})
	if err != nil {
		return nil, fmt.Errorf("get reminder %d: %w", id, err)
	}
	if reminder == nil {
		return nil, ErrReminderNotFound
	}
	return reminder, nil
}

// GetOwned returns the reminder only when it belongs to userID.
func (s *Service) GetOwned(ctx context.Context, id, userID int32) (*store.Reminder, error) {
	reminder, err := s.store.GetReminder(ctx, &store.FindReminder{ID: &id, UserID: &userID})
	if err != nil {
		return nil, fmt.Errorf("get reminder %d: %w", id, err)
	}
	if reminder == nil {
		return nil, ErrReminderNotFound
	}
	return reminder, nil
}

// Delete removes a reminder owned by userID.
func (s *Service) Delete(ctx context.Context, id, userID int32) error {
	err := s.store.DeleteReminder(ctx, &store.DeleteReminder{ID: id, UserID: &userID})
	if errors.Is(err, store.ErrNotFound) {
		return ErrReminderNotFound
	}
	if err != nil {
		return fmt.Errorf("delete reminder %d: %w", id, err)
	}
	return nil
}

// MarkSent flags the reminder as delivered.
func (s *Service) MarkSent(ctx context.Context, id int32) error {
	isSent := true
	_, err := s.store.UpdateReminder(ctx, &store.UpdateReminder{ID: id, IsSent: &isSent})
	if errors.Is(err, store.ErrNotFound) {
		return ErrReminderNotFound
	}
	if err != nil {
		return fmt.Errorf("mark reminder %d sent: %w", id, err)
	}
	return nil
}

// Reschedule moves the reminder to at and makes it pending again.
func (s *Service) Reschedule(ctx context.Context, id int32, at time.Time) (*store.Reminder, error) {
	remindTs, isSent := at.Unix(), false
	reminder, err := s.store.UpdateReminder(ctx, &store.UpdateReminder{ID: id, RemindTs: &remindTs, IsSent: &isSent})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrReminderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reschedule reminder %d: %w", id, err)
	}
	return reminder, nil
}

// Schedule enqueues a delivery job for the reminder. Reminders already
// due are scheduled for now so they go out on the next tick. A job
// already queued for the same reminder and time is left untouched.
func (s *Service) Schedule(ctx context.Context, reminder *store.Reminder, chatID int64) (*Job, error) {
	job, _, err := s.schedule(ctx, reminder, chatID)
	return job, err
}

func (s *Service) schedule(ctx context.Context, reminder *store.Reminder, chatID int64) (*Job, bool, error) {
	now := s.clock.Now().Unix()
	job := &Job{
		ReminderID: reminder.ID,
		ChatID:     chatID,
		Text:       reminder.Text,
		RemindTs:   reminder.RemindTs,
		DueTs:      max(now, reminder.RemindTs),
	}
	added, err := s.queue.Add(ctx, job)
	if err != nil {
		return nil, false, fmt.Errorf("schedule reminder %d: %w", reminder.ID, err)
	}
	return job, added, nil
}

// Delay returns how long until the job is due, never negative.
func (s *Service) Delay(job *Job) time.Duration {
	return max(0, time.Unix(job.DueTs, 0).Sub(s.clock.Now()))
}
