package store

import (
	"context"
)

// Reminder is a message to deliver to a user at RemindTs.
type Reminder struct {
	ID     int32
	UserID int32
	Text   string
	// RemindTs is the delivery instant in Unix seconds.
	RemindTs  int64
	IsSent    bool
	CreatedTs int64
	UpdatedTs int64
}

type FindReminder struct {
	ID     *int32
	UserID *int32
	IsSent *bool

	// RemindTsBefore keeps reminders with remind_ts <= the value.
	RemindTsBefore *int64

	Limit *int
}

type UpdateReminder struct {
	ID       int32
	RemindTs *int64
	IsSent   *bool
}

type DeleteReminder struct {
	ID int32
	// UserID, when set, restricts the delete to that owner.
	UserID *int32
}

func (s *Store) CreateReminder(ctx context.Context, create *Reminder) (*Reminder, error) {
	return s.driver.CreateReminder(ctx, create)
}

// ListReminders returns reminders ordered by remind_ts, then id.
func (s *Store) ListReminders(ctx context.Context, find *FindReminder) ([]*Reminder, error) {
	return s.driver.ListReminders(ctx, find)
}

// GetReminder returns the reminder matching find, or nil when none does.
func (s *Store) GetReminder(ctx context.Context, find *FindReminder) (*Reminder, error) {
	list, err := s.ListReminders(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateReminder(ctx context.Context, update *UpdateReminder) (*Reminder, error) {
	return s.driver.UpdateReminder(ctx, update)
}

func (s *Store) DeleteReminder(ctx context.Context, delete *DeleteReminder) error {
	return s.driver.DeleteReminder(ctx, delete)
}

// CountReminders returns the number of reminders per user id.
func (s *Store) CountReminders(ctx context.Context) (map[int32]int, error) {
	return s.driver.CountReminders(ctx)
}
